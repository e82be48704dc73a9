package anomaly_test

import (
	"testing"

	"github.com/septivank/trackmyfish-client/internal/anomaly"
	"github.com/septivank/trackmyfish-client/internal/model"
)

const (
	testSpikeThreshold            = 3.0
	testMinDataPointsForDetection = 3
)

func ptr(v float64) *float64 {
	return &v
}

func nitrateHistory(values ...float64) []model.TankStatistic {
	stats := make([]model.TankStatistic, len(values))
	for i, v := range values {
		stats[i] = model.TankStatistic{
			ID:               model.ID(i + 1),
			NewTankStatistic: model.NewTankStatistic{Nitrate: ptr(v), PH: ptr(7.0)},
		}
	}
	return stats
}

func TestDetectAnomaly_NegativeValue(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	isAnomaly, reason := detector.DetectAnomaly(-0.5, []float64{7.0, 7.2, 6.9})

	if !isAnomaly {
		t.Error("Expected anomaly for negative value")
	}

	if reason != "negative value" {
		t.Errorf("Expected reason 'negative value', got '%s'", reason)
	}
}

func TestDetectAnomaly_SuddenSpike(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	historical := []float64{20, 21, 19, 20, 20}
	value := 80.0

	isAnomaly, reason := detector.DetectAnomaly(value, historical)

	if !isAnomaly {
		t.Error("Expected anomaly for sudden spike")
	}

	if reason == "" {
		t.Error("Expected reason for spike anomaly")
	}
}

func TestDetectAnomaly_NormalValue(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	isAnomaly, reason := detector.DetectAnomaly(22.0, []float64{20, 21, 19, 20, 20})

	if isAnomaly {
		t.Errorf("Expected no anomaly, but got: %s", reason)
	}
}

func TestDetectAnomaly_InsufficientData(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	isAnomaly, _ := detector.DetectAnomaly(300.0, []float64{20, 21})

	if isAnomaly {
		t.Error("Should not detect spike with insufficient historical data")
	}
}

func TestDetectAnomaly_ZeroAverage(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	// ammonia is normally zero in a cycled tank
	isAnomaly, _ := detector.DetectAnomaly(0.25, []float64{0, 0, 0})

	if isAnomaly {
		t.Error("Should not detect spike when historical average is 0")
	}
}

func TestInspect_FlagsSpikingReading(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	current := model.NewTankStatistic{Nitrate: ptr(90), PH: ptr(7.1)}
	findings := detector.Inspect(current, nitrateHistory(20, 21, 19))

	if len(findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d: %+v", len(findings), findings)
	}
	if findings[0].Reading != model.ReadingNitrate {
		t.Errorf("Expected nitrate finding, got %s", findings[0].Reading)
	}
	if findings[0].Value != 90 {
		t.Errorf("Expected value 90, got %v", findings[0].Value)
	}
}

func TestInspect_SkipsUnmeasuredReadings(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	// nitrate not measured this time; history has no ammonia at all
	current := model.NewTankStatistic{Ammonia: ptr(4)}
	findings := detector.Inspect(current, nitrateHistory(20, 21, 19))

	if len(findings) != 0 {
		t.Errorf("Expected no findings, got %+v", findings)
	}
}

func TestInspect_UsesRecentWindow(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	// old readings were high, the last HistoryWindow are low
	values := []float64{500, 500, 500}
	for i := 0; i < anomaly.HistoryWindow; i++ {
		values = append(values, 10)
	}

	findings := detector.Inspect(model.NewTankStatistic{Nitrate: ptr(45)}, nitrateHistory(values...))

	if len(findings) != 1 {
		t.Fatalf("Expected spike against the recent window, got %+v", findings)
	}
}
