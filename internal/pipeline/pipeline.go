package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/dock-health-etl/internal/domain"
	"github.com/couchcryptid/dock-health-etl/internal/observability"
)

// Stage names used in errors, logs and the run_failures_total metric.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
)

// Extractor fetches one snapshot of the station feed.
type Extractor interface {
	Extract(ctx context.Context) (domain.Feed, error)
}

// Transformer turns a feed snapshot into a run summary.
type Transformer interface {
	Transform(ctx context.Context, feed domain.Feed) (domain.Summary, error)
}

// Loader persists or publishes a run summary.
type Loader interface {
	Load(ctx context.Context, summary domain.Summary) error
}

// StageError records which stage aborted a run.
type StageError struct {
	Run   int
	Runs  int
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("run %d/%d: %s: %v", e.Run, e.Runs, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline runs extract-transform-load a fixed number of times.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline. Loaders run in the order given, each one only after
// the previous one succeeded.
func New(e Extractor, t Transformer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once at least one run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes iterations runs back to back with no delay between them.
// The first failing stage aborts the whole job; later runs are not attempted.
// Cancelling ctx stops the job before the next run starts.
func (p *Pipeline) Run(ctx context.Context, iterations int) error {
	p.logger.Info("pipeline started", "iterations", iterations, "loaders", len(p.loaders))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for i := 1; i <= iterations; i++ {
		if err := ctx.Err(); err != nil {
			p.logger.Info("pipeline stopping", "reason", err, "completed", i-1)
			return err
		}

		summary, err := p.runOnce(ctx, i, iterations)
		if err != nil {
			var stageErr *StageError
			if errors.As(err, &stageErr) {
				p.metrics.RunFailures.WithLabelValues(stageErr.Stage).Inc()
			}
			p.logger.Error("run failed", "run", i, "of", iterations, "error", err)
			return err
		}

		p.logger.Info("run completed",
			"run", i,
			"of", iterations,
			"run_id", summary.RunID,
			"date", summary.Date,
			"stations", len(summary.Stations),
			summary.Column(), summary.Count,
		)
	}

	p.logger.Info("pipeline finished", "iterations", iterations)
	return nil
}

// runOnce performs one fetch-enrich-load cycle.
func (p *Pipeline) runOnce(ctx context.Context, run, runs int) (domain.Summary, error) {
	start := time.Now()
	fail := func(stage string, err error) (domain.Summary, error) {
		return domain.Summary{}, &StageError{Run: run, Runs: runs, Stage: stage, Err: err}
	}

	feed, err := p.extractor.Extract(ctx)
	if err != nil {
		return fail(StageExtract, err)
	}

	summary, err := p.transformer.Transform(ctx, feed)
	if err != nil {
		return fail(StageTransform, err)
	}

	for _, l := range p.loaders {
		if err := l.Load(ctx, summary); err != nil {
			return fail(StageLoad, err)
		}
	}

	p.recordRun(summary, time.Since(start))
	p.ready.Store(true)
	return summary, nil
}

func (p *Pipeline) recordRun(summary domain.Summary, d time.Duration) {
	p.metrics.RunsCompleted.Inc()
	p.metrics.RunDuration.Observe(d.Seconds())
	p.metrics.StationsProcessed.Add(float64(len(summary.Stations)))
	for _, sev := range domain.Severities {
		p.metrics.StationsByColor.WithLabelValues(string(sev)).Set(float64(summary.ColorCounts[sev]))
	}
	p.metrics.TargetStations.WithLabelValues(string(summary.Class)).Set(float64(summary.Count))
}
