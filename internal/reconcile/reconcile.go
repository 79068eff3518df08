// Package reconcile applies normalized records to the persistent store,
// deciding for each record whether it is a brand-new posting or a
// re-observation of one already on file.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmallari/jobmill/internal/model"
)

// Store is the slice of the persistence layer reconciliation needs.
type Store interface {
	// ResolveCompany returns the id for the named company, creating the row
	// if it does not exist yet. Metadata on an existing row is left alone.
	ResolveCompany(ctx context.Context, name, careerPageURL string, now time.Time) (int64, error)
	// UpsertJob inserts the record as a new job or, when a job with the same
	// job_url exists, refreshes its last-seen timestamp.
	UpsertJob(ctx context.Context, rec model.Record, companyID int64, now time.Time) (model.Outcome, error)
}

// Result summarizes one batch of records applied to the store.
type Result struct {
	Inserted int
	Updated  int
	Failed   int

	// NewJobs holds the jobs inserted by this batch, for notification.
	NewJobs []model.Job
}

// Reconciler upserts records one at a time so a bad record never takes the
// rest of its batch down with it.
type Reconciler struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func New(store Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Apply reconciles each record in turn. Records that cannot be stored are
// counted and logged, never returned as an error: partial progress is the
// point of per-record isolation.
func (r *Reconciler) Apply(ctx context.Context, source string, records []model.Record) Result {
	var res Result
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("reconciliation interrupted",
				"source", source, "remaining", len(records)-res.Inserted-res.Updated-res.Failed)
			res.Failed += len(records) - res.Inserted - res.Updated - res.Failed
			return res
		}

		outcome, job, err := r.applyOne(ctx, rec)
		if err != nil {
			res.Failed++
			r.logger.Warn("failed to reconcile record",
				"source", source,
				"job_url", rec.JobURL,
				"company", rec.CompanyName,
				"error", err,
			)
			continue
		}

		switch outcome {
		case model.OutcomeInserted:
			res.Inserted++
			res.NewJobs = append(res.NewJobs, job)
			r.logger.Info("new job",
				"source", source,
				"title", rec.Title,
				"company", rec.CompanyName,
				"job_url", rec.JobURL,
			)
		case model.OutcomeUpdated:
			res.Updated++
			r.logger.Debug("job still listed",
				"source", source, "job_url", rec.JobURL)
		}
	}
	return res
}

func (r *Reconciler) applyOne(ctx context.Context, rec model.Record) (model.Outcome, model.Job, error) {
	if err := validate(rec); err != nil {
		return model.OutcomeFailed, model.Job{}, err
	}

	now := r.now()

	companyID, err := r.store.ResolveCompany(ctx, rec.CompanyName, rec.CareerPageURL, now)
	if err != nil {
		return model.OutcomeFailed, model.Job{}, err
	}

	outcome, err := r.store.UpsertJob(ctx, rec, companyID, now)
	if err != nil {
		return model.OutcomeFailed, model.Job{}, err
	}

	job := model.Job{
		ExternalID:     rec.ExternalID,
		Title:          rec.Title,
		Location:       rec.Location,
		EmploymentType: rec.EmploymentType,
		JobURL:         rec.JobURL,
		CompanyID:      companyID,
		CompanyName:    rec.CompanyName,
		IsActive:       true,
		FirstSeenAt:    now,
		LastSeenAt:     now,
	}
	return outcome, job, nil
}

func validate(rec model.Record) error {
	switch {
	case rec.Title == "":
		return errMissingField("title")
	case rec.JobURL == "":
		return errMissingField("job_url")
	case rec.CompanyName == "":
		return errMissingField("company_name")
	}
	return nil
}

type errMissingField string

func (e errMissingField) Error() string {
	return "record missing required field " + string(e)
}
