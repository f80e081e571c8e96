// Package scheduler drives the sampling cycle: fetch the forecast and
// current reading, align the forecast to the current hour, compute the
// squared error, and append one record.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"forecast-verifier/internal/align"
	"forecast-verifier/internal/metric"
	"forecast-verifier/internal/metrics"
	"forecast-verifier/internal/models"
	"forecast-verifier/internal/store"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Outcome is a cycle's terminal state.
type Outcome string

const (
	// OutcomeSuccess means a record was appended.
	OutcomeSuccess Outcome = "success"
	// OutcomeSkipped covers the expected transient cases: fetch
	// failure, unpublished forecast bucket, or a cycle already in
	// flight. Nothing was written.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed covers store failures and invalid computed
	// metrics. Nothing was written.
	OutcomeFailed Outcome = "failed"
)

// SourceClient is the outbound weather API contract the cycle needs.
type SourceClient interface {
	FetchForecast(ctx context.Context) (*models.ForecastSeries, error)
	FetchCurrent(ctx context.Context) (*models.CurrentReading, error)
}

// errInvalidMetric marks a cycle whose computed error signal came out
// non-finite. Treated as corruption: the cycle fails and nothing is
// persisted.
var errInvalidMetric = errors.New("computed metric is not finite")

// Runner executes one sampling cycle at a time. A second call while a
// cycle is in flight returns OutcomeSkipped immediately; cycles never
// run concurrently.
type Runner struct {
	client SourceClient
	store  store.Appender
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	running     bool
	lastRun     time.Time
	lastOutcome Outcome
}

// NewRunner creates a Runner. now supplies the sampling instant and
// must return times in the configured location.
func NewRunner(sourceClient SourceClient, appender store.Appender, now func() time.Time, logger *zap.Logger) *Runner {
	return &Runner{
		client: sourceClient,
		store:  appender,
		logger: logger,
		now:    now,
	}
}

// TryRunCycle runs one cycle unless another is already in flight.
func (r *Runner) TryRunCycle(ctx context.Context) Outcome {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.logger.Debug("Cycle already in flight, skipping tick")
		metrics.RecordCycle(string(OutcomeSkipped))
		return OutcomeSkipped
	}
	r.running = true
	r.mu.Unlock()

	outcome := r.runCycle(ctx)

	r.mu.Lock()
	r.running = false
	r.lastRun = r.now()
	r.lastOutcome = outcome
	r.mu.Unlock()

	metrics.RecordCycle(string(outcome))
	return outcome
}

func (r *Runner) runCycle(ctx context.Context) Outcome {
	instant := r.now()

	fetchStart := time.Now()
	series, err := r.client.FetchForecast(ctx)
	metrics.RecordFetch("forecast", time.Since(fetchStart))
	if err != nil {
		r.logger.Warn("Forecast fetch failed, skipping cycle",
			zap.Time("instant", instant),
			zap.Error(err))
		return OutcomeSkipped
	}

	fetchStart = time.Now()
	current, err := r.client.FetchCurrent(ctx)
	metrics.RecordFetch("current", time.Since(fetchStart))
	if err != nil {
		r.logger.Warn("Current reading fetch failed, skipping cycle",
			zap.Time("instant", instant),
			zap.Error(err))
		return OutcomeSkipped
	}

	forecastTemp, forecastWind, err := align.Align(series, instant)
	if err != nil {
		var bucketErr *align.BucketError
		if errors.As(err, &bucketErr) {
			r.logger.Info("Forecast bucket not yet published, skipping cycle",
				zap.String("bucket", bucketErr.Bucket))
		} else {
			r.logger.Warn("Alignment failed, skipping cycle", zap.Error(err))
		}
		return OutcomeSkipped
	}

	record := models.WeatherRecord{
		Timestamp:    instant,
		TempForecast: forecastTemp,
		TempActual:   current.Current.Temperature2m,
		TempMSE:      metric.SquaredError(current.Current.Temperature2m, forecastTemp),
		WindForecast: forecastWind,
		WindActual:   current.Current.WindSpeed10m,
		WindMSE:      metric.SquaredError(current.Current.WindSpeed10m, forecastWind),
	}

	if err := validateRecord(record); err != nil {
		r.logger.Error("Rejecting cycle with invalid metric",
			zap.Time("instant", instant),
			zap.Error(err))
		return OutcomeFailed
	}

	id, err := r.store.Append(ctx, record)
	if err != nil {
		r.logger.Error("Failed to append record",
			zap.Time("instant", instant),
			zap.Error(err))
		return OutcomeFailed
	}

	r.logger.Info("Record stored",
		zap.Int64("record_id", int64(id)),
		zap.Time("timestamp", record.Timestamp),
		zap.Float64("temp_forecast", record.TempForecast),
		zap.Float64("temp_actual", record.TempActual),
		zap.Float64("temp_mse", record.TempMSE),
		zap.Float64("wind_forecast", record.WindForecast),
		zap.Float64("wind_actual", record.WindActual),
		zap.Float64("wind_mse", record.WindMSE))

	return OutcomeSuccess
}

// validateRecord rejects records with non-finite numeric fields before
// any persistence happens.
func validateRecord(record models.WeatherRecord) error {
	values := []float64{
		record.TempForecast, record.TempActual, record.TempMSE,
		record.WindForecast, record.WindActual, record.WindMSE,
	}
	for _, v := range values {
		if !metric.IsFinite(v) {
			return errInvalidMetric
		}
	}
	return nil
}

// Status reports the runner's last run for diagnostics.
func (r *Runner) Status() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	return map[string]interface{}{
		"running":      r.running,
		"last_run":     r.lastRun,
		"last_outcome": string(r.lastOutcome),
	}
}

// Scheduler ticks the Runner at a fixed interval. Overlapping runs are
// prevented both by cron's SkipIfStillRunning chain and by the Runner's
// own guard; the loop only stops on Stop().
type Scheduler struct {
	runner       *Runner
	interval     time.Duration
	cycleTimeout time.Duration
	cron         *cron.Cron
	logger       *zap.Logger
	startup      sync.WaitGroup
}

func NewScheduler(runner *Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	cronLogger := &zapCronLogger{logger: logger}
	return &Scheduler{
		runner:       runner,
		interval:     interval,
		cycleTimeout: interval,
		cron: cron.New(
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
			cron.WithLogger(cronLogger),
		),
		logger: logger,
	}
}

// Start schedules the periodic cycle and runs one immediately.
func (s *Scheduler) Start() {
	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(s.runOnce))

	s.logger.Info("Scheduler started",
		zap.Duration("interval", s.interval))

	// Run immediately on start. Tracked separately from cron's
	// in-flight jobs so Stop waits for this cycle too.
	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		s.runOnce()
	}()

	s.cron.Start()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cycleTimeout)
	defer cancel()

	s.runner.TryRunCycle(ctx)
}

// Stop halts ticking and waits for an in-flight cycle to reach its
// terminal outcome.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.startup.Wait()
}

// zapCronLogger adapts zap to cron's Logger interface.
type zapCronLogger struct {
	logger *zap.Logger
}

func (l *zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l *zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
