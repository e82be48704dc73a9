package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/septivank/trackmyfish-client/internal/logging"
	"github.com/septivank/trackmyfish-client/internal/mq"
)

// ErrUnknownResource is returned for sync requests naming a resource the
// client does not mirror
var ErrUnknownResource = errors.New("unknown resource")

// RefreshFunc re-reads one resource from the server
type RefreshFunc func(ctx context.Context) error

// ProcessorService turns remote sync requests into store refreshes
type ProcessorService struct {
	refreshers map[string]RefreshFunc
	logger     *zap.Logger
}

// NewProcessorService creates a processor for the given resources, keyed
// by resource name (fish, tank_statistics, heartbeat)
func NewProcessorService(refreshers map[string]RefreshFunc, logger *zap.Logger) *ProcessorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessorService{
		refreshers: refreshers,
		logger:     logger,
	}
}

// Resources lists the names sync requests may use
func (s *ProcessorService) Resources() []string {
	names := make([]string, 0, len(s.refreshers))
	for name := range s.refreshers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProcessMessage handles one sync request. Returning an error dead-letters
// the message.
func (s *ProcessorService) ProcessMessage(ctx context.Context, body []byte) error {
	var req mq.SyncRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return fmt.Errorf("failed to unmarshal sync request: %w", err)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	return s.Sync(ctx, req)
}

// Sync refreshes the resource named by req
func (s *ProcessorService) Sync(ctx context.Context, req mq.SyncRequest) error {
	reqLogger := logging.WithRequestID(s.logger, req.RequestID)

	resource := strings.ToLower(strings.TrimSpace(req.Resource))
	refresh, ok := s.refreshers[resource]
	if !ok {
		reqLogger.Warn("sync requested for unknown resource", zap.String("resource", req.Resource))
		return fmt.Errorf("%w %q", ErrUnknownResource, req.Resource)
	}

	reqLogger.Info("processing sync request", zap.String("resource", resource))

	if err := refresh(ctx); err != nil {
		// acked, not dead-lettered: only malformed requests go to the DLQ
		reqLogger.Warn("sync refresh failed", zap.String("resource", resource), zap.Error(err))
		return nil
	}

	reqLogger.Info("sync request processed", zap.String("resource", resource))
	return nil
}
