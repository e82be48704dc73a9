package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/septivank/trackmyfish-client/internal/api"
	"github.com/septivank/trackmyfish-client/internal/logging"
	"github.com/septivank/trackmyfish-client/internal/model"
)

// Collection mirrors one REST resource as an ordered in-memory list.
//
// Operations are not queued against each other: concurrent calls apply
// their mutations in the order their responses arrive.
type Collection[T model.Entity] struct {
	res       Resource
	transport Transport
	recorder  Recorder
	logger    *zap.Logger

	// notifyMu spans mutate+notify so observers see snapshots in order
	notifyMu sync.Mutex

	mu       sync.RWMutex
	items    []T
	errMsg   string
	revision uint64

	listenersMu sync.Mutex
	listeners   map[uint64]Listener[T]
	nextID      uint64
}

// NewCollection creates an empty store for res
func NewCollection[T model.Entity](res Resource, transport Transport, recorder Recorder, logger *zap.Logger) *Collection[T] {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Collection[T]{
		res:       res,
		transport: transport,
		recorder:  recorder,
		logger:    logging.WithResource(logger, res.Name),
		items:     []T{},
		listeners: make(map[uint64]Listener[T]),
	}
}

// Resource returns the resource this store mirrors
func (c *Collection[T]) Resource() Resource {
	return c.res
}

// Snapshot returns the current state
func (c *Collection[T]) Snapshot() Snapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Subscribe registers l for every future snapshot and returns a function
// that removes it.
func (c *Collection[T]) Subscribe(l Listener[T]) (unsubscribe func()) {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.listenersMu.Lock()
			delete(c.listeners, id)
			c.listenersMu.Unlock()
		})
	}
}

// List replaces the collection with the server's current list. A failed
// list leaves the state untouched and is not retained as an error.
func (c *Collection[T]) List(ctx context.Context) error {
	op, log := c.begin(OpList)

	var envelope map[string]json.RawMessage
	err := c.transport.Get(ctx, c.res.Path, &envelope)

	var items []T
	if err == nil {
		items, err = decodeList[T](envelope, c.res.ListKey)
	}
	if err != nil {
		log.Warn("failed to list resource", zap.Error(err))
		c.finish(ctx, op, err.Error(), c.Snapshot())
		return fmt.Errorf("listing %s: %w", c.res.Name, err)
	}

	snap := c.apply(func() {
		c.items = items
		c.errMsg = ""
	})

	log.Debug("resource listed", zap.Int("items", len(snap.Items)))
	op.Succeeded = true
	c.finish(ctx, op, "", snap)
	return nil
}

// Create posts payload and appends the server-returned record. On failure
// the collection is unchanged and the server message is retained.
func (c *Collection[T]) Create(ctx context.Context, payload any) (T, error) {
	op, log := c.begin(OpCreate)

	var zero T
	var envelope map[string]json.RawMessage
	err := c.transport.Post(ctx, c.res.Path, payload, &envelope)

	var item T
	if err == nil {
		item, err = decodeItem[T](envelope, c.res.ItemKey)
	}
	if err != nil {
		log.Error("failed to create record", zap.Error(err))
		c.fail(ctx, op, err)
		return zero, fmt.Errorf("creating %s: %w", c.res.Name, err)
	}

	snap := c.apply(func() {
		c.items = append(c.items, item)
		c.errMsg = ""
	})

	log.Info("record created", zap.Stringer("id", item.EntityID()))
	op.Succeeded = true
	op.EntityID = item.EntityID()
	op.Entity = item
	c.finish(ctx, op, "", snap)
	return item, nil
}

// Remove deletes id on the server and then filters it out locally.
// Removing an id that is not held locally leaves the collection unchanged.
func (c *Collection[T]) Remove(ctx context.Context, id model.ID) error {
	op, log := c.begin(OpRemove)
	op.EntityID = id
	log = log.With(zap.Stringer("id", id))

	if err := c.transport.Delete(ctx, c.res.Path+"/"+id.String()); err != nil {
		log.Error("failed to remove record", zap.Error(err))
		c.fail(ctx, op, err)
		return fmt.Errorf("removing %s %s: %w", c.res.Name, id, err)
	}

	snap := c.apply(func() {
		c.items = slices.DeleteFunc(c.items, func(item T) bool {
			return item.EntityID() == id
		})
		c.errMsg = ""
	})

	log.Info("record removed")
	op.Succeeded = true
	c.finish(ctx, op, "", snap)
	return nil
}

// ResetError clears the retained error message. It is a no-op, with no
// notification, when no error is retained.
func (c *Collection[T]) ResetError() {
	c.mu.RLock()
	hasErr := c.errMsg != ""
	c.mu.RUnlock()
	if !hasErr {
		return
	}

	op, _ := c.begin(OpResetError)
	snap := c.apply(func() {
		c.errMsg = ""
	})
	op.Succeeded = true
	c.finish(context.Background(), op, "", snap)
}

// SetError retains a client-side failure, such as invalid form input,
// exactly as a failed request would.
func (c *Collection[T]) SetError(msg string) {
	if msg == "" {
		msg = DefaultErrorMessage
	}
	c.apply(func() {
		c.errMsg = msg
	})
}

// rejectCreate retains a client-side validation failure and records it
// as a failed create without contacting the server
func (c *Collection[T]) rejectCreate(ctx context.Context, err error) {
	op, log := c.begin(OpCreate)
	log.Info("create rejected before sending", zap.Error(err))

	msg := err.Error()
	snap := c.apply(func() {
		c.errMsg = msg
	})
	c.finish(ctx, op, msg, snap)
}

// fail retains the message carried by err
func (c *Collection[T]) fail(ctx context.Context, op Operation, err error) {
	msg := api.MessageOf(err, DefaultErrorMessage)
	snap := c.apply(func() {
		c.errMsg = msg
	})
	c.finish(ctx, op, msg, snap)
}

// apply runs mutate under the state lock and notifies every listener
// exactly once with the resulting snapshot.
func (c *Collection[T]) apply(mutate func()) Snapshot[T] {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	mutate()
	c.revision++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.listenersMu.Lock()
	listeners := make([]Listener[T], 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.listenersMu.Unlock()

	for _, l := range listeners {
		l(snap)
	}

	return snap
}

func (c *Collection[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Resource: c.res.Name,
		Items:    slices.Clone(c.items),
		Error:    c.errMsg,
		Revision: c.revision,
	}
}

func (c *Collection[T]) begin(kind OpKind) (Operation, *zap.Logger) {
	op := Operation{
		ID:        uuid.New(),
		Resource:  c.res.Name,
		Kind:      kind,
		StartedAt: time.Now(),
	}
	log := logging.WithRequestID(c.logger, op.ID.String()).With(zap.String("op", string(kind)))
	return op, log
}

func (c *Collection[T]) finish(ctx context.Context, op Operation, msg string, snap Snapshot[T]) {
	op.Message = msg
	op.Items = len(snap.Items)
	op.Duration = time.Since(op.StartedAt)
	c.recorder.RecordOperation(ctx, op)
}

func decodeList[T any](envelope map[string]json.RawMessage, key string) ([]T, error) {
	items := []T{}
	raw, ok := envelope[key]
	// the gateway omits empty repeated fields
	if !ok || string(raw) == "null" {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return items, nil
}

func decodeItem[T any](envelope map[string]json.RawMessage, key string) (T, error) {
	var item T
	raw, ok := envelope[key]
	if !ok || string(raw) == "null" {
		return item, fmt.Errorf("response has no %q record", key)
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return item, nil
}
