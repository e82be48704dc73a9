package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/septivank/trackmyfish-client/internal/health"
	"github.com/septivank/trackmyfish-client/internal/store"
	"github.com/septivank/trackmyfish-client/internal/validator"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func findFamily(t *testing.T, m *Metrics, name string) *dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric family %s not gathered", name)
	return nil
}

func TestRoute(t *testing.T) {
	tests := map[string]string{
		"/fish":                "/fish",
		"/fish/12":             "/fish/{id}",
		"/tank/statistics/7":   "/tank/statistics/{id}",
		"/tank/statistics":     "/tank/statistics",
		"/heartbeat":           "/heartbeat",
		"/fish/":               "/fish/",
		"/tank/statistics/abc": "/tank/statistics/abc",
	}
	for in, want := range tests {
		assert.Equal(t, want, Route(in), in)
	}
}

func TestRecordOperation(t *testing.T) {
	m := newTestMetrics(t)
	ctx := context.Background()

	m.RecordOperation(ctx, store.Operation{
		Resource: "fish", Kind: store.OpCreate, Succeeded: true, Items: 3, Duration: 20 * time.Millisecond,
	})
	m.RecordOperation(ctx, store.Operation{
		Resource: "fish", Kind: store.OpRemove, Succeeded: false, Items: 3, Message: "unable to delete fish",
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("fish", "create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("fish", "remove", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.storeItems.WithLabelValues("fish")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeError.WithLabelValues("fish")))

	// a failed list leaves the retained-error gauge alone
	m.RecordOperation(ctx, store.Operation{Resource: "fish", Kind: store.OpList, Items: 3})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeError.WithLabelValues("fish")))

	m.RecordOperation(ctx, store.Operation{Resource: "fish", Kind: store.OpResetError, Succeeded: true, Items: 3})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.storeError.WithLabelValues("fish")))

	family := findFamily(t, m, "trackmyfish_store_operation_duration_seconds")
	var observed uint64
	for _, metric := range family.GetMetric() {
		observed += metric.GetHistogram().GetSampleCount()
	}
	assert.Equal(t, uint64(4), observed)
}

func TestObserveResponse(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveResponse(http.MethodDelete, "/fish/12", http.StatusNotFound, time.Millisecond, nil)
	m.ObserveResponse(http.MethodGet, "/heartbeat", 0, time.Millisecond, assert.AnError)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequestsTotal.WithLabelValues("DELETE", "/fish/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequestsTotal.WithLabelValues("GET", "/heartbeat", "none")))
}

func TestObserveHeartbeat(t *testing.T) {
	m := newTestMetrics(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fishbaseDegraded))

	m.ObserveHeartbeat(health.Snapshot{Status: "OPERATIONAL"})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.fishbaseDegraded))

	m.ObserveHeartbeat(health.Snapshot{Status: "DOWN", Degraded: true})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fishbaseDegraded))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.heartbeatRefresh))
}

func TestHandler(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordAnomaly("nitrate")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `trackmyfish_tank_anomalies_total{reading="nitrate"} 1`)
}

func TestNew_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := New(registry)
	require.NoError(t, err)

	_, err = New(registry)
	assert.Error(t, err)
}

func TestRecordOperation_InvalidFormRetainsError(t *testing.T) {
	m := newTestMetrics(t)
	tank := store.NewTankStatisticStore(nil, m, nil)

	_, err := tank.Create(context.Background(), validator.TankStatisticForm{PH: "acidic"})
	require.Error(t, err)

	resource := store.TankStatisticResource.Name
	assert.InDelta(t, 1, testutil.ToFloat64(m.storeError.WithLabelValues(resource)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.operationsTotal.WithLabelValues(resource, string(store.OpCreate), "error")), 0)
}
