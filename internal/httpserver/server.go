// Package httpserver serves read-only views of the stores, the health
// monitor and the client metrics.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/septivank/trackmyfish-client/internal/db"
	"github.com/septivank/trackmyfish-client/internal/health"
	"github.com/septivank/trackmyfish-client/internal/model"
	"github.com/septivank/trackmyfish-client/internal/service"
	"github.com/septivank/trackmyfish-client/internal/store"
)

const (
	defaultOperationsLimit = 50
	maxOperationsLimit     = 500
)

// FishSource provides fish snapshots
type FishSource interface {
	Snapshot() store.Snapshot[model.Fish]
}

// TankSource provides tank statistic snapshots
type TankSource interface {
	Snapshot() store.Snapshot[model.TankStatistic]
}

// HealthSource provides the heartbeat state
type HealthSource interface {
	Snapshot() health.Snapshot
}

// AlertSource provides recent water-quality alerts
type AlertSource interface {
	Alerts() []service.Alert
}

// OperationSource reads the operation journal
type OperationSource interface {
	RecentOperations(ctx context.Context, resource string, limit int) ([]db.OperationRecord, error)
}

// Server wraps HTTP routes and dependencies
type Server struct {
	fish       FishSource
	tank       TankSource
	health     HealthSource
	alerts     AlertSource
	operations OperationSource
	metrics    http.Handler
	logger     *zap.Logger
	router     chi.Router
}

// Option configures server construction
type Option func(*Server)

// WithAlerts mounts GET /tank/anomalies
func WithAlerts(src AlertSource) Option {
	return func(s *Server) {
		s.alerts = src
	}
}

// WithOperations mounts GET /operations
func WithOperations(src OperationSource) Option {
	return func(s *Server) {
		s.operations = src
	}
}

// WithMetrics mounts h at GET /metrics
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// New constructs the status server
func New(fish FishSource, tank TankSource, hs HealthSource, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		fish:   fish,
		tank:   tank,
		health: hs,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/heartbeat", s.handleHeartbeat)
	r.Get("/fish", s.handleFish)
	r.Route("/tank", func(r chi.Router) {
		r.Get("/statistics", s.handleTankStatistics)
		if s.alerts != nil {
			r.Get("/anomalies", s.handleAnomalies)
		}
	})
	if s.operations != nil {
		r.Get("/operations", s.handleOperations)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.health.Snapshot())
}

func (s *Server) handleFish(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.fish.Snapshot())
}

func (s *Server) handleTankStatistics(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.tank.Snapshot())
}

func (s *Server) handleAnomalies(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"anomalies": s.alerts.Alerts()})
}

type operationView struct {
	ID         string          `json:"id"`
	Resource   string          `json:"resource"`
	Operation  string          `json:"operation"`
	Status     string          `json:"status"`
	Message    *string         `json:"message,omitempty"`
	EntityID   *int64          `json:"entityId,omitempty"`
	ItemCount  int             `json:"itemCount"`
	DurationMS int64           `json:"durationMs"`
	StartedAt  time.Time       `json:"startedAt"`
	Entity     json.RawMessage `json:"entity,omitempty"`
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	limit := defaultOperationsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = min(n, maxOperationsLimit)
	}

	records, err := s.operations.RecentOperations(r.Context(), r.URL.Query().Get("resource"), limit)
	if err != nil {
		s.logger.Error("failed to read operation journal", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to read operation journal")
		return
	}

	views := make([]operationView, len(records))
	for i, rec := range records {
		views[i] = operationView{
			ID:         rec.ID.String(),
			Resource:   rec.Resource,
			Operation:  rec.Operation,
			Status:     rec.Status,
			Message:    rec.Message,
			EntityID:   rec.EntityID,
			ItemCount:  rec.ItemCount,
			DurationMS: rec.DurationMS,
			StartedAt:  rec.StartedAt,
			Entity:     rec.Entity,
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"operations": views})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]any{"code": status, "message": msg})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("status request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

// ListenAndServe serves the router on addr until ctx is cancelled, then
// shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("status server shutdown: %w", err)
		}
		s.logger.Info("status server stopped")
		return nil
	}
}
