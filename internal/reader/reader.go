// Package reader serves the persisted record series to consumers,
// validating every stored row and caching the assembled result.
package reader

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"forecast-verifier/internal/metrics"
	"forecast-verifier/internal/models"
	"forecast-verifier/internal/store"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ValidationError reports a stored row that failed shape validation.
// One bad row fails the whole read: consumers never see a silently
// truncated series.
type ValidationError struct {
	RecordID store.RecordID
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %d failed validation: %v", e.RecordID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SeriesReader assembles the full record series from the store. Results
// are cached for the configured max age; concurrent callers refresh
// under one lock, so the store sees at most one read per expiry.
type SeriesReader struct {
	store    store.Reader
	validate *validator.Validate
	tz       *time.Location
	maxAge   time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	cached    []models.WeatherRecord
	fetchedAt time.Time
}

// NewSeriesReader creates a SeriesReader. Timestamps are parsed in tz,
// the same location the write side formats them in.
func NewSeriesReader(storeReader store.Reader, tz *time.Location, maxAge time.Duration, logger *zap.Logger) *SeriesReader {
	return &SeriesReader{
		store:    storeReader,
		validate: validator.New(),
		tz:       tz,
		maxAge:   maxAge,
		logger:   logger,
		now:      time.Now,
	}
}

// GetSeries returns every valid record, newest first. Within the cache
// window repeated calls return the identical slice; callers must treat
// it as read-only.
func (r *SeriesReader) GetSeries(ctx context.Context) ([]models.WeatherRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil && r.now().Sub(r.fetchedAt) < r.maxAge {
		metrics.SeriesCacheLookups.WithLabelValues("hit").Inc()
		return r.cached, nil
	}
	metrics.SeriesCacheLookups.WithLabelValues("miss").Inc()

	rows, err := r.store.ReadAll(ctx)
	if err != nil {
		r.logger.Error("Failed to read record series", zap.Error(err))
		return nil, err
	}

	series, err := r.assemble(rows)
	if err != nil {
		return nil, err
	}

	r.cached = series
	r.fetchedAt = r.now()

	r.logger.Debug("Record series refreshed",
		zap.Int("records", len(series)))

	return series, nil
}

// assemble validates and converts raw rows, then sorts newest first.
func (r *SeriesReader) assemble(rows map[store.RecordID]store.StoredRecord) ([]models.WeatherRecord, error) {
	series := make([]models.WeatherRecord, 0, len(rows))

	for id, row := range rows {
		if err := r.validate.Struct(row); err != nil {
			r.logger.Error("Stored record failed validation",
				zap.Int64("record_id", int64(id)),
				zap.Error(err))
			return nil, &ValidationError{RecordID: id, Err: err}
		}

		ts, err := time.ParseInLocation(models.TimestampLayout, *row.Timestamp, r.tz)
		if err != nil {
			r.logger.Error("Stored record has unparsable timestamp",
				zap.Int64("record_id", int64(id)),
				zap.String("timestamp", *row.Timestamp),
				zap.Error(err))
			return nil, &ValidationError{RecordID: id, Err: err}
		}

		series = append(series, models.WeatherRecord{
			Timestamp:    ts,
			TempForecast: *row.TempForecast,
			TempActual:   *row.TempActual,
			TempMSE:      *row.TempMSE,
			WindForecast: *row.WindForecast,
			WindActual:   *row.WindActual,
			WindMSE:      *row.WindMSE,
		})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp.After(series[j].Timestamp)
	})

	return series, nil
}

// Invalidate drops the cached series so the next read hits the store.
func (r *SeriesReader) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
	r.fetchedAt = time.Time{}
}
