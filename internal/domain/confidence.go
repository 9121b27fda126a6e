package domain

import "time"

// Confidence is the coarse trust tier of an estimate. Tiers are ordered so
// callers can compare them directly (low < medium < high).
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "low"
	}
}

// Confidence thresholds. High is device-GPS territory, medium covers a
// network-assisted fix, and everything else (IP lookups, the fallback
// coordinate, stale results) is low.
const (
	highAccuracyMaxMeters   = 100.0
	highMaxAge              = 5 * time.Minute
	mediumAccuracyMaxMeters = 1000.0
	mediumMaxAge            = 15 * time.Minute
)

// Score maps an accuracy radius and an age onto a confidence tier. Pure and
// deterministic; every confidence read in the system goes through here.
func Score(accuracyMeters float64, age time.Duration) Confidence {
	if accuracyMeters <= 0 {
		return ConfidenceLow
	}
	if accuracyMeters <= highAccuracyMaxMeters && age <= highMaxAge {
		return ConfidenceHigh
	}
	if accuracyMeters <= mediumAccuracyMaxMeters && age <= mediumMaxAge {
		return ConfidenceMedium
	}
	return ConfidenceLow
}
