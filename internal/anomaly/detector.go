package anomaly

import (
	"fmt"

	"github.com/septivank/trackmyfish-client/internal/model"
)

// HistoryWindow is how many previous measurements a reading is compared to
const HistoryWindow = 10

// Detector flags water-quality readings that jump well above their recent
// average
type Detector struct {
	spikeThreshold            float64
	minDataPointsForDetection int
}

// Finding is one anomalous reading of a tank statistic
type Finding struct {
	Reading string  `json:"reading"`
	Value   float64 `json:"value"`
	Reason  string  `json:"reason"`
}

// NewDetector creates a new anomaly detector with the specified thresholds
func NewDetector(spikeThreshold float64, minDataPointsForDetection int) *Detector {
	return &Detector{
		spikeThreshold:            spikeThreshold,
		minDataPointsForDetection: minDataPointsForDetection,
	}
}

// DetectAnomaly checks value against the previous measurements of the
// same reading
func (d *Detector) DetectAnomaly(value float64, historicalValues []float64) (bool, string) {
	if value < 0 {
		return true, "negative value"
	}

	if len(historicalValues) < d.minDataPointsForDetection {
		return false, ""
	}

	sum := 0.0
	for _, v := range historicalValues {
		sum += v
	}
	average := sum / float64(len(historicalValues))

	if average > 0 && value > d.spikeThreshold*average {
		return true, fmt.Sprintf("sudden spike detected: value %.2f exceeds %.1fx rolling average %.2f",
			value, d.spikeThreshold, average)
	}

	return false, ""
}

// Inspect checks every measured reading of current against the same
// reading in history, oldest first. Only the last HistoryWindow entries of
// history are used and unmeasured readings are skipped on both sides.
func (d *Detector) Inspect(current model.NewTankStatistic, history []model.TankStatistic) []Finding {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	values := current.Readings()

	var findings []Finding
	for _, name := range model.ReadingNames {
		value, ok := values[name]
		if !ok {
			continue
		}

		var previous []float64
		for _, stat := range history {
			if v, ok := stat.Readings()[name]; ok {
				previous = append(previous, v)
			}
		}

		if isAnomaly, reason := d.DetectAnomaly(value, previous); isAnomaly {
			findings = append(findings, Finding{Reading: name, Value: value, Reason: reason})
		}
	}

	return findings
}
