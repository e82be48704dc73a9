package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/septivank/trackmyfish-client/internal/model"
)

// fakeTransport answers store requests from per-method handlers and
// records what was sent.
type fakeTransport struct {
	mu      sync.Mutex
	get     func(path string) (string, error)
	post    func(path string, in any) (string, error)
	del     func(path string) error
	posted  []any
	deleted []string
}

func (f *fakeTransport) Get(_ context.Context, path string, out any) error {
	body, err := f.get(path)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), out)
}

func (f *fakeTransport) Post(_ context.Context, path string, in, out any) error {
	f.mu.Lock()
	f.posted = append(f.posted, in)
	f.mu.Unlock()

	body, err := f.post(path, in)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), out)
}

func (f *fakeTransport) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, path)
	f.mu.Unlock()
	return f.del(path)
}

func (f *fakeTransport) lastPosted(t *testing.T) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.posted)

	data, err := json.Marshal(f.posted[len(f.posted)-1])
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

// snapshotRecorder collects every snapshot a store publishes
type snapshotRecorder[T model.Entity] struct {
	mu    sync.Mutex
	snaps []Snapshot[T]
}

func (r *snapshotRecorder[T]) listen(s Snapshot[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *snapshotRecorder[T]) all() []Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot[T](nil), r.snaps...)
}

type opRecorder struct {
	mu  sync.Mutex
	ops []Operation
}

func (r *opRecorder) RecordOperation(_ context.Context, op Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *opRecorder) last() Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ops[len(r.ops)-1]
}

func fishWithIDs(ids ...model.ID) []model.Fish {
	fish := make([]model.Fish, len(ids))
	for i, id := range ids {
		fish[i] = model.Fish{ID: id, NewFish: model.NewFish{Genus: "Poecilia"}}
	}
	return fish
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
