package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/snowpack-swe/internal/domain"
	"github.com/couchcryptid/snowpack-swe/internal/observability"
)

// Extractor reads every raw row of the source.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.RawRecord, error)
}

// Builder turns the cleaned store into a report.
type Builder interface {
	Build(ctx context.Context, store *domain.RecordStore, stats domain.CleanStats) (*domain.Report, error)
}

// Loader writes a report to one destination and returns how many artifacts
// it produced.
type Loader interface {
	Name() string
	Load(ctx context.Context, report *domain.Report) (int, error)
}

// Pipeline runs extract, clean, build, and load once.
type Pipeline struct {
	extractor Extractor
	builder   Builder
	loaders   []Loader
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
// Loaders run in the order given.
func New(e Extractor, b Builder, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor: e,
		builder:   b,
		loaders:   loaders,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has completed, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("report has not been generated yet")
	}
	return nil
}

// Ready reports whether a run has completed.
func (p *Pipeline) Ready() bool { return p.ready.Load() }

// Run executes one batch. Any stage failure stops the run; no stage is retried.
func (p *Pipeline) Run(ctx context.Context) (*domain.Report, error) {
	start := time.Now()
	p.logger.Info("pipeline started", "loaders", len(p.loaders))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	raw, err := p.extractor.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	p.metrics.RowsRead.Add(float64(len(raw)))

	store, stats, err := domain.Clean(raw)
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	p.metrics.RowsDropped.WithLabelValues("blank").Add(float64(stats.DroppedBlank))
	p.metrics.RowsDropped.WithLabelValues("missing_swe").Add(float64(stats.DroppedMissingSWE))
	p.metrics.ObservationsRetained.Set(float64(stats.Retained))
	p.logger.Info("records cleaned",
		"read", stats.Read,
		"dropped_blank", stats.DroppedBlank,
		"dropped_missing_swe", stats.DroppedMissingSWE,
		"retained", stats.Retained,
	)

	report, err := p.builder.Build(ctx, store, stats)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	p.metrics.SitesModeled.Set(float64(len(report.Sites)))

	for _, l := range p.loaders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := l.Load(ctx, report)
		if err != nil {
			p.metrics.SinkErrors.WithLabelValues(l.Name()).Inc()
			return nil, fmt.Errorf("load %s: %w", l.Name(), err)
		}
		p.metrics.ArtifactsWritten.WithLabelValues(l.Name()).Add(float64(n))
		p.logger.Info("sink written", "sink", l.Name(), "artifacts", n)
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Info("pipeline finished",
		"sites", len(report.Sites),
		"duration", time.Since(start),
	)
	return report, nil
}
