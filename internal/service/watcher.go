package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/septivank/trackmyfish-client/internal/anomaly"
	"github.com/septivank/trackmyfish-client/internal/model"
	"github.com/septivank/trackmyfish-client/internal/mq"
	"github.com/septivank/trackmyfish-client/internal/store"
)

// maxAlerts bounds the alerts kept for the status server
const maxAlerts = 50

// AnomalyCounter counts anomalous readings
type AnomalyCounter interface {
	RecordAnomaly(reading string)
}

// Alert is an anomalous reading of one tank statistic
type Alert struct {
	StatisticID model.ID  `json:"statisticId"`
	TestDate    string    `json:"testDate"`
	DetectedAt  time.Time `json:"detectedAt"`
	anomaly.Finding
}

// WaterQualityWatcher inspects tank statistics as they appear in the store
// and reports anomalous readings. This client rejects negative readings
// before sending them, so a "negative value" alert means the record was
// created by another client. The publisher is called from a store listener
// and must not block; wire it through an EventQueue.
type WaterQualityWatcher struct {
	detector  *anomaly.Detector
	publisher EventPublisher
	counter   AnomalyCounter
	logger    *zap.Logger

	mu     sync.Mutex
	primed bool
	seen   map[model.ID]struct{}
	alerts []Alert
}

// NewWaterQualityWatcher creates a watcher. publisher and counter may be nil.
func NewWaterQualityWatcher(detector *anomaly.Detector, publisher EventPublisher, counter AnomalyCounter, logger *zap.Logger) *WaterQualityWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaterQualityWatcher{
		detector:  detector,
		publisher: publisher,
		counter:   counter,
		logger:    logger,
		seen:      make(map[model.ID]struct{}),
	}
}

// Observe matches store.Listener. The first snapshot only records what is
// already known; later snapshots inspect statistics not seen before
// against the ones listed ahead of them.
func (w *WaterQualityWatcher) Observe(snap store.Snapshot[model.TankStatistic]) {
	w.mu.Lock()
	defer w.mu.Unlock()

	primed := w.primed
	w.primed = true

	var alerts []Alert
	for i, stat := range snap.Items {
		if _, ok := w.seen[stat.ID]; ok {
			continue
		}
		w.seen[stat.ID] = struct{}{}
		if !primed {
			continue
		}

		for _, f := range w.detector.Inspect(stat.NewTankStatistic, snap.Items[:i]) {
			alerts = append(alerts, Alert{
				StatisticID: stat.ID,
				TestDate:    stat.TestDate,
				DetectedAt:  time.Now(),
				Finding:     f,
			})
		}
	}

	for _, alert := range alerts {
		w.report(alert)
	}

	w.alerts = append(w.alerts, alerts...)
	if len(w.alerts) > maxAlerts {
		w.alerts = w.alerts[len(w.alerts)-maxAlerts:]
	}
}

// Alerts returns the most recent alerts, oldest first
func (w *WaterQualityWatcher) Alerts() []Alert {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Alert{}, w.alerts...)
}

func (w *WaterQualityWatcher) report(alert Alert) {
	w.logger.Warn("water quality anomaly",
		zap.Stringer("statistic_id", alert.StatisticID),
		zap.String("reading", alert.Reading),
		zap.Float64("value", alert.Value),
		zap.String("reason", alert.Reason),
	)

	if w.counter != nil {
		w.counter.RecordAnomaly(alert.Reading)
	}

	if w.publisher == nil {
		return
	}
	err := w.publisher.Publish(context.Background(), mq.Event{
		ID:         uuid.NewString(),
		Type:       mq.EventTankAnomaly,
		Resource:   store.TankStatisticResource.Name,
		OccurredAt: alert.DetectedAt,
		Data:       alert,
	})
	if err != nil {
		w.logger.Error("failed to publish anomaly", zap.Error(err))
	}
}
