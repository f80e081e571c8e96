// Package align locates the forecast entry for a sampling instant's
// hour bucket.
package align

import (
	"fmt"
	"time"

	"forecast-verifier/internal/models"
)

// BucketLayout is the representation Open-Meteo uses for hourly
// timestamps.
const BucketLayout = "2006-01-02T15:04"

// BucketError reports that the forecast series does not contain the
// hour bucket for the sampling instant. This is expected when the
// upstream has not yet published the current hour; the cycle is skipped
// and retried on the next tick.
type BucketError struct {
	Bucket string
}

func (e *BucketError) Error() string {
	return fmt.Sprintf("forecast bucket %s not found in series", e.Bucket)
}

// Bucket truncates instant to the top of its wall-clock hour and
// formats it the way the forecast series indexes its entries. The
// truncation zeroes minutes and seconds in the instant's own location,
// which stays correct for zones at fractional UTC offsets.
func Bucket(instant time.Time) string {
	y, m, d := instant.Date()
	top := time.Date(y, m, d, instant.Hour(), 0, 0, 0, instant.Location())
	return top.Format(BucketLayout)
}

// Align finds the forecast temperature and wind for the hour bucket
// containing instant. The lookup is an exact string match against the
// series' time array; mismatched parallel arrays count as a missing
// bucket rather than a panic.
func Align(series *models.ForecastSeries, instant time.Time) (forecastTemp, forecastWind float64, err error) {
	bucket := Bucket(instant)

	for i, t := range series.Hourly.Time {
		if t != bucket {
			continue
		}
		if i >= len(series.Hourly.Temperature2m) || i >= len(series.Hourly.WindSpeed10m) {
			return 0, 0, &BucketError{Bucket: bucket}
		}
		return series.Hourly.Temperature2m[i], series.Hourly.WindSpeed10m[i], nil
	}

	return 0, 0, &BucketError{Bucket: bucket}
}
