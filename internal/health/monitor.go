// Package health tracks the status the REST service reports for its
// Fishbase dependency.
package health

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/septivank/trackmyfish-client/internal/logging"
	"github.com/septivank/trackmyfish-client/internal/model"
)

const (
	// HeartbeatPath is the status endpoint relative to the API root
	HeartbeatPath = "/heartbeat"

	// DefaultUpStatus is the status that is not considered degraded
	DefaultUpStatus = "OPERATIONAL"
)

// Getter is the subset of the REST client the monitor needs
type Getter interface {
	Get(ctx context.Context, path string, out any) error
}

// Snapshot is the monitor state after a refresh. CheckedAt is the time of
// the last successful refresh.
type Snapshot struct {
	Status    string    `json:"status"`
	Degraded  bool      `json:"degraded"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Listener observes applied refreshes
type Listener func(Snapshot)

// Monitor holds the last reported Fishbase status.
// It is independent of the collection stores.
type Monitor struct {
	getter   Getter
	upStatus string
	logger   *zap.Logger

	notifyMu sync.Mutex

	mu        sync.RWMutex
	status    string
	checkedAt time.Time

	listenersMu sync.Mutex
	listeners   map[uint64]Listener
	nextID      uint64
}

// NewMonitor creates a monitor with an empty status. upStatus defaults to
// DefaultUpStatus.
func NewMonitor(getter Getter, upStatus string, logger *zap.Logger) *Monitor {
	if strings.TrimSpace(upStatus) == "" {
		upStatus = DefaultUpStatus
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Monitor{
		getter:    getter,
		upStatus:  strings.TrimSpace(upStatus),
		logger:    logging.WithResource(logger, "heartbeat"),
		listeners: make(map[uint64]Listener),
	}
}

// Refresh fetches the heartbeat and stores the reported status. On failure
// the previous status is kept.
func (m *Monitor) Refresh(ctx context.Context) error {
	log := logging.WithRequestID(m.logger, uuid.NewString())

	var hb model.Heartbeat
	if err := m.getter.Get(ctx, HeartbeatPath, &hb); err != nil {
		log.Warn("failed to refresh heartbeat", zap.Error(err))
		return fmt.Errorf("refreshing heartbeat: %w", err)
	}

	snap := m.apply(hb.Fishbase.Status, time.Now())
	log.Debug("heartbeat refreshed",
		zap.String("status", snap.Status),
		zap.Bool("degraded", snap.Degraded),
	)
	return nil
}

// Status returns the last reported status, empty before the first
// successful refresh.
func (m *Monitor) Status() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Degraded reports whether Fishbase should be presented as unavailable.
// This is advisory only and never blocks store operations.
func (m *Monitor) Degraded() bool {
	return m.isDegraded(m.Status())
}

// Snapshot returns the current state
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Status:    m.status,
		Degraded:  m.isDegraded(m.status),
		CheckedAt: m.checkedAt,
	}
}

// Subscribe registers l for every applied refresh and returns a function
// that removes it.
func (m *Monitor) Subscribe(l Listener) (unsubscribe func()) {
	m.listenersMu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.listenersMu.Lock()
			delete(m.listeners, id)
			m.listenersMu.Unlock()
		})
	}
}

// Run refreshes every interval until ctx is done. The first refresh happens
// one interval after the call; callers wanting a status now call Refresh
// first. Refresh failures are logged and do not stop the loop.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	m.logger.Info("heartbeat polling started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("heartbeat polling stopped")
			return
		case <-ticker.C:
			_ = m.Refresh(ctx)
		}
	}
}

func (m *Monitor) isDegraded(status string) bool {
	return !strings.EqualFold(strings.TrimSpace(status), m.upStatus)
}

func (m *Monitor) apply(status string, at time.Time) Snapshot {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	m.status = status
	m.checkedAt = at
	m.mu.Unlock()

	snap := m.Snapshot()

	m.listenersMu.Lock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.listenersMu.Unlock()

	for _, l := range listeners {
		l(snap)
	}

	return snap
}
