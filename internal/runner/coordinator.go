package runner

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmallari/jobmill/internal/config"
	"github.com/jmallari/jobmill/internal/model"
)

// RunSummary aggregates one full ingestion run across all enabled sources.
type RunSummary struct {
	StartedAt time.Time
	Duration  time.Duration
	Reports   []SourceReport
}

// Inserted returns the total number of newly stored jobs.
func (s RunSummary) Inserted() int {
	n := 0
	for _, r := range s.Reports {
		n += r.Inserted
	}
	return n
}

// NewJobs returns every job first seen during this run, across sources.
func (s RunSummary) NewJobs() []model.Job {
	var jobs []model.Job
	for _, r := range s.Reports {
		jobs = append(jobs, r.NewJobs...)
	}
	return jobs
}

// FailedSources returns the reports of sources that failed wholesale.
func (s RunSummary) FailedSources() []SourceReport {
	var failed []SourceReport
	for _, r := range s.Reports {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Coordinator fans a run out over the enabled sources with a bounded pool.
// A source failing never aborts the run; the summary carries every outcome.
type Coordinator struct {
	runner      *SourceRunner
	notifier    model.Notifier
	concurrency int
	logger      *slog.Logger
}

func NewCoordinator(runner *SourceRunner, notifier model.Notifier, concurrency int, logger *slog.Logger) *Coordinator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Coordinator{
		runner:      runner,
		notifier:    notifier,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run executes one ingestion run over the enabled sources and notifies about
// jobs first seen during it.
func (c *Coordinator) Run(ctx context.Context, sources []config.SourceConfig) RunSummary {
	started := time.Now()

	var enabled []config.SourceConfig
	for _, src := range sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}

	c.logger.Info("starting run", "sources", len(enabled))

	reports := make([]SourceReport, len(enabled))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, src := range enabled {
		g.Go(func() error {
			report := c.runner.Run(gctx, src)
			if report.Err != nil {
				c.logger.Error("source failed", "source", src.Name, "error", report.Err)
			}
			reports[i] = report
			return nil // failures live in the report, never cancel siblings
		})
	}
	g.Wait()

	// Stable output regardless of which goroutine finished first.
	sort.Slice(reports, func(i, j int) bool { return reports[i].Source < reports[j].Source })

	summary := RunSummary{
		StartedAt: started,
		Duration:  time.Since(started),
		Reports:   reports,
	}

	if newJobs := summary.NewJobs(); len(newJobs) > 0 && c.notifier != nil {
		if err := c.notifier.Notify(newJobs); err != nil {
			c.logger.Error("notification failed", "error", err)
		}
	}

	c.logger.Info("run complete",
		"duration", summary.Duration.Round(time.Millisecond).String(),
		"inserted", summary.Inserted(),
		"failed_sources", len(summary.FailedSources()),
	)
	return summary
}
