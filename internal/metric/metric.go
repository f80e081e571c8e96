// Package metric derives the forecast-error signal persisted with each
// record.
package metric

import "math"

// SquaredError returns (actual - forecast)^2. NaN and infinite inputs
// propagate; callers decide whether such a result may be persisted.
func SquaredError(actual, forecast float64) float64 {
	diff := actual - forecast
	return diff * diff
}

// IsFinite reports whether v is a usable metric value. The write path
// rejects records with non-finite metrics: a corrupted record is worse
// than a missing one.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
