package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/septivank/trackmyfish-client/internal/anomaly"
	"github.com/septivank/trackmyfish-client/internal/db"
	"github.com/septivank/trackmyfish-client/internal/health"
	"github.com/septivank/trackmyfish-client/internal/model"
	"github.com/septivank/trackmyfish-client/internal/service"
	"github.com/septivank/trackmyfish-client/internal/store"
)

type staticFish store.Snapshot[model.Fish]

func (s staticFish) Snapshot() store.Snapshot[model.Fish] { return store.Snapshot[model.Fish](s) }

type staticTank store.Snapshot[model.TankStatistic]

func (s staticTank) Snapshot() store.Snapshot[model.TankStatistic] {
	return store.Snapshot[model.TankStatistic](s)
}

type staticHealth health.Snapshot

func (s staticHealth) Snapshot() health.Snapshot { return health.Snapshot(s) }

type staticAlerts []service.Alert

func (s staticAlerts) Alerts() []service.Alert { return s }

type fakeJournal struct {
	resource string
	limit    int
	records  []db.OperationRecord
	err      error
}

func (f *fakeJournal) RecentOperations(_ context.Context, resource string, limit int) ([]db.OperationRecord, error) {
	f.resource, f.limit = resource, limit
	return f.records, f.err
}

func newTestServer(opts ...Option) *Server {
	fish := staticFish{
		Resource: "fish",
		Items:    []model.Fish{{ID: 1, NewFish: model.NewFish{Genus: "Betta"}}},
		Error:    "unable to delete fish",
		Revision: 4,
	}
	tank := staticTank{Resource: "tank_statistics", Items: []model.TankStatistic{{ID: 2}}}
	hs := staticHealth{Status: "DOWN", Degraded: true}
	return New(fish, tank, hs, nil, opts...)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	rec := get(t, newTestServer(), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSnapshots(t *testing.T) {
	s := newTestServer()

	fish := decode(t, get(t, s, "/fish"))
	assert.Equal(t, "fish", fish["resource"])
	assert.Equal(t, "unable to delete fish", fish["error"])
	assert.Len(t, fish["items"], 1)

	tank := decode(t, get(t, s, "/tank/statistics"))
	assert.Equal(t, "tank_statistics", tank["resource"])
	assert.NotContains(t, tank, "error")

	hb := decode(t, get(t, s, "/heartbeat"))
	assert.Equal(t, "DOWN", hb["status"])
	assert.Equal(t, true, hb["degraded"])
}

func TestOptionalRoutesNotMounted(t *testing.T) {
	s := newTestServer()

	assert.Equal(t, http.StatusNotFound, get(t, s, "/tank/anomalies").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/operations").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/metrics").Code)
}

func TestAnomalies(t *testing.T) {
	alerts := staticAlerts{{
		StatisticID: 9,
		Finding:     anomaly.Finding{Reading: model.ReadingNitrite, Value: 2, Reason: "negative value"},
	}}
	rec := get(t, newTestServer(WithAlerts(alerts)), "/tank/anomalies")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Len(t, body["anomalies"], 1)
	first := body["anomalies"].([]any)[0].(map[string]any)
	assert.Equal(t, "nitrite", first["reading"])
	assert.EqualValues(t, 9, first["statisticId"])
}

func TestOperations(t *testing.T) {
	msg := "unable to add fish"
	journal := &fakeJournal{records: []db.OperationRecord{{
		ID:        uuid.New(),
		Resource:  "fish",
		Operation: "create",
		Status:    "error",
		Message:   &msg,
		StartedAt: time.Now(),
	}}}
	s := newTestServer(WithOperations(journal))

	rec := get(t, s, "/operations?resource=fish&limit=1000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fish", journal.resource)
	assert.Equal(t, maxOperationsLimit, journal.limit)

	ops := decode(t, rec)["operations"].([]any)
	require.Len(t, ops, 1)
	assert.Equal(t, msg, ops[0].(map[string]any)["message"])

	get(t, s, "/operations")
	assert.Equal(t, defaultOperationsLimit, journal.limit)
	assert.Empty(t, journal.resource)
}

func TestOperations_Errors(t *testing.T) {
	journal := &fakeJournal{err: errors.New("connection reset")}
	s := newTestServer(WithOperations(journal))

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/operations?limit=-3").Code)

	rec := get(t, s, "/operations")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to read operation journal", decode(t, rec)["message"])
}

func TestMetricsMounted(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("trackmyfish_store_items 1\n"))
	})
	rec := get(t, newTestServer(WithMetrics(h)), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trackmyfish_store_items")
}

func TestListenAndServe_StopsWithContext(t *testing.T) {
	s := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
