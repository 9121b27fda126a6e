package domain

import "fmt"

// Summary renders a human-readable qualifier for an estimate, e.g.
// "exact, ±80 m" or "approximate, ±25 km". The presentation layer shows it
// next to distances so precision claims match what the estimate can back up.
func Summary(e Estimate) string {
	qualifier := "approximate"
	if e.Confidence() == ConfidenceHigh {
		qualifier = "exact"
	}
	return fmt.Sprintf("%s, ±%s", qualifier, formatRadius(e.AccuracyMeters))
}

func formatRadius(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	km := meters / 1000
	if km < 10 {
		return fmt.Sprintf("%.1f km", km)
	}
	return fmt.Sprintf("%.0f km", km)
}
