// Package runner drives ingestion: it turns each configured source into a
// fetch → parse → reconcile pass and coordinates those passes across a run.
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmallari/jobmill/internal/adapter"
	"github.com/jmallari/jobmill/internal/config"
	"github.com/jmallari/jobmill/internal/model"
	"github.com/jmallari/jobmill/internal/reconcile"
)

// SourceReport is the outcome of one source within a run. Err is set when the
// source as a whole failed (bad kind, fetch failure, unparseable payload);
// per-record failures show up in Failed instead.
type SourceReport struct {
	Source   string
	Fetched  int // records the adapter produced
	Inserted int
	Updated  int
	Failed   int
	NewJobs  []model.Job
	Err      error
}

// SourceRunner executes the pipeline for a single source.
type SourceRunner struct {
	fetcher    model.Fetcher
	reconciler *reconcile.Reconciler
	logger     *slog.Logger
}

func NewSourceRunner(fetcher model.Fetcher, reconciler *reconcile.Reconciler, logger *slog.Logger) *SourceRunner {
	return &SourceRunner{
		fetcher:    fetcher,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Run processes one source end to end. It never panics the run: every failure
// is captured in the report so sibling sources proceed untouched.
func (r *SourceRunner) Run(ctx context.Context, src config.SourceConfig) SourceReport {
	report := SourceReport{Source: src.Name}

	// An unknown kind is a configuration problem surfaced per source at run
	// time, not a reason to reject the whole config file.
	ad, err := adapter.New(src.Kind)
	if err != nil {
		report.Err = fmt.Errorf("source %s: %w", src.Name, err)
		return report
	}

	payload, err := r.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		report.Err = fmt.Errorf("source %s: %w", src.Name, err)
		return report
	}

	records, err := ad.Parse(payload, SourceMetaFor(src))
	if err != nil {
		report.Err = fmt.Errorf("source %s: %w", src.Name, err)
		return report
	}
	report.Fetched = len(records)

	res := r.reconciler.Apply(ctx, src.Name, records)
	report.Inserted = res.Inserted
	report.Updated = res.Updated
	report.Failed = res.Failed
	report.NewJobs = res.NewJobs

	r.logger.Info("source processed",
		"source", src.Name,
		"fetched", report.Fetched,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"failed", report.Failed,
	)
	return report
}

// SourceMetaFor builds the adapter context for one configured source. The
// career page falls back to the fetch URL so company rows never get an empty
// page reference.
func SourceMetaFor(src config.SourceConfig) model.SourceMeta {
	careerPage := src.CareerPageURL
	if careerPage == "" {
		careerPage = src.URL
	}
	return model.SourceMeta{
		SourceName:    src.Name,
		CareerPageURL: careerPage,
		CompanyName:   src.CompanyName,
		Location:      src.Location,
		BaseURL:       src.URL,
	}
}
