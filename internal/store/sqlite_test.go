package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmallari/jobmill/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func testRecord(url string) model.Record {
	return model.Record{
		Title:          "Backend Engineer",
		JobURL:         url,
		CompanyName:    "Acme",
		CareerPageURL:  "https://acme.example.com/careers",
		Location:       "Remote",
		EmploymentType: strPtr("full_time"),
		ExternalID:     "remotive-1",
	}
}

func TestResolveCompany_CreatesThenReuses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	id1, err := s.ResolveCompany(ctx, "Acme", "https://acme.example.com", now)
	if err != nil {
		t.Fatalf("ResolveCompany: %v", err)
	}
	id2, err := s.ResolveCompany(ctx, "Acme", "https://acme.example.com", now)
	if err != nil {
		t.Fatalf("ResolveCompany (second): %v", err)
	}
	if id1 != id2 {
		t.Errorf("ResolveCompany returned different ids for same name: %d vs %d", id1, id2)
	}

	companies, err := s.ListCompanies(ctx)
	if err != nil {
		t.Fatalf("ListCompanies: %v", err)
	}
	if len(companies) != 1 {
		t.Fatalf("expected 1 company row, got %d", len(companies))
	}
}

func TestResolveCompany_FirstWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if _, err := s.ResolveCompany(ctx, "Acme", "https://first.example.com", now); err != nil {
		t.Fatalf("ResolveCompany: %v", err)
	}
	// A later observation with a different career page must not overwrite.
	if _, err := s.ResolveCompany(ctx, "Acme", "https://second.example.com", now); err != nil {
		t.Fatalf("ResolveCompany: %v", err)
	}

	c, err := s.GetCompanyByName(ctx, "Acme")
	if err != nil {
		t.Fatalf("GetCompanyByName: %v", err)
	}
	if c == nil {
		t.Fatal("expected company to exist")
	}
	if c.CareerPageURL != "https://first.example.com" {
		t.Errorf("CareerPageURL = %q, want the first-ever value", c.CareerPageURL)
	}
}

func TestResolveCompany_CaseSensitiveNames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	id1, err := s.ResolveCompany(ctx, "Acme", "https://acme.example.com", now)
	if err != nil {
		t.Fatalf("ResolveCompany: %v", err)
	}
	id2, err := s.ResolveCompany(ctx, "ACME", "https://acme.example.com", now)
	if err != nil {
		t.Fatalf("ResolveCompany: %v", err)
	}
	if id1 == id2 {
		t.Error("distinct casings resolved to the same company; name matching must be exact")
	}
}

func TestConcurrentWritersShareOneCompanyRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	// Several sources reconciling at once, all observing the same new
	// company with distinct job URLs — the shape the coordinator's worker
	// pool produces on every multi-source run.
	const writers = 8
	errs := make(chan error, writers*2)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			companyID, err := s.ResolveCompany(ctx, "Acme", "https://acme.example.com", now)
			if err != nil {
				errs <- fmt.Errorf("writer %d: ResolveCompany: %w", i, err)
				return
			}
			rec := testRecord(fmt.Sprintf("https://x.com/%d", i))
			rec.ExternalID = rec.JobURL
			if _, err := s.UpsertJob(ctx, rec, companyID, now); err != nil {
				errs <- fmt.Errorf("writer %d: UpsertJob: %w", i, err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	companies, err := s.ListCompanies(ctx)
	if err != nil {
		t.Fatalf("ListCompanies: %v", err)
	}
	if len(companies) != 1 {
		t.Fatalf("expected 1 company row after concurrent resolves, got %d", len(companies))
	}
	if companies[0].JobCount != writers {
		t.Errorf("job count = %d, want %d (no record may be dropped)", companies[0].JobCount, writers)
	}
}

func TestUpsertJob_InsertThenTouch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	companyID, err := s.ResolveCompany(ctx, "Acme", "https://acme.example.com", time.Now())
	if err != nil {
		t.Fatalf("ResolveCompany: %v", err)
	}

	t1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(6 * time.Hour)
	rec := testRecord("https://x.com/1")

	outcome, err := s.UpsertJob(ctx, rec, companyID, t1)
	if err != nil {
		t.Fatalf("UpsertJob: %v", err)
	}
	if outcome != model.OutcomeInserted {
		t.Errorf("first outcome = %v, want inserted", outcome)
	}

	// Re-observation with a different external id and title: identity is
	// job_url alone, and descriptive fields are never edited.
	rec2 := rec
	rec2.Title = "Totally Different Title"
	rec2.ExternalID = "arbeitnow-xyz"

	outcome, err = s.UpsertJob(ctx, rec2, companyID, t2)
	if err != nil {
		t.Fatalf("UpsertJob (second): %v", err)
	}
	if outcome != model.OutcomeUpdated {
		t.Errorf("second outcome = %v, want updated", outcome)
	}

	job, err := s.GetJobByURL(ctx, "https://x.com/1")
	if err != nil {
		t.Fatalf("GetJobByURL: %v", err)
	}
	if job == nil {
		t.Fatal("expected job to exist")
	}
	if job.Title != "Backend Engineer" {
		t.Errorf("Title = %q, re-observation must not edit descriptive fields", job.Title)
	}
	if job.ExternalID != "remotive-1" {
		t.Errorf("ExternalID = %q, re-observation must not edit it", job.ExternalID)
	}
	if !job.FirstSeenAt.Equal(t1) {
		t.Errorf("FirstSeenAt = %v, want %v", job.FirstSeenAt, t1)
	}
	if !job.LastSeenAt.Equal(t2) {
		t.Errorf("LastSeenAt = %v, want %v", job.LastSeenAt, t2)
	}
	if !job.IsActive {
		t.Error("IsActive = false, want true after re-observation")
	}

	// Still exactly one row.
	_, total, err := s.ListJobs(ctx, ListJobsOptions{})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if total != 1 {
		t.Errorf("total jobs = %d, want 1", total)
	}
}

func TestUpsertJob_TouchReactivates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	companyID, _ := s.ResolveCompany(ctx, "Acme", "https://acme.example.com", time.Now())
	rec := testRecord("https://x.com/1")
	if _, err := s.UpsertJob(ctx, rec, companyID, time.Now()); err != nil {
		t.Fatalf("UpsertJob: %v", err)
	}

	// Deactivate out-of-band (the pipeline itself never does this).
	if _, err := s.db.Exec("UPDATE jobs SET is_active = 0 WHERE job_url = ?", rec.JobURL); err != nil {
		t.Fatal(err)
	}

	if _, err := s.UpsertJob(ctx, rec, companyID, time.Now()); err != nil {
		t.Fatalf("UpsertJob: %v", err)
	}
	job, err := s.GetJobByURL(ctx, rec.JobURL)
	if err != nil {
		t.Fatalf("GetJobByURL: %v", err)
	}
	if !job.IsActive {
		t.Error("re-observation must set is_active back to true")
	}
}

func TestGetJob_ByIDAndMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	companyID, _ := s.ResolveCompany(ctx, "Acme", "https://acme.example.com", time.Now())
	if _, err := s.UpsertJob(ctx, testRecord("https://x.com/1"), companyID, time.Now()); err != nil {
		t.Fatalf("UpsertJob: %v", err)
	}
	byURL, err := s.GetJobByURL(ctx, "https://x.com/1")
	if err != nil {
		t.Fatalf("GetJobByURL: %v", err)
	}

	job, err := s.GetJob(ctx, byURL.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job == nil || job.JobURL != "https://x.com/1" || job.CompanyName != "Acme" {
		t.Errorf("GetJob(%d) = %+v", byURL.ID, job)
	}

	missing, err := s.GetJob(ctx, byURL.ID+100)
	if err != nil {
		t.Fatalf("GetJob (missing): %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown id, got %+v", missing)
	}
}

func TestGetJobByURL_MissingReturnsNil(t *testing.T) {
	s := newTestStore(t)
	job, err := s.GetJobByURL(context.Background(), "https://nowhere.example.com")
	if err != nil {
		t.Fatalf("GetJobByURL: %v", err)
	}
	if job != nil {
		t.Errorf("expected nil for unknown URL, got %+v", job)
	}
}

func TestListJobs_FiltersAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	companyID, _ := s.ResolveCompany(ctx, "Acme", "https://acme.example.com", time.Now())
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	seed := []struct {
		title, url, location string
		seenAt               time.Time
	}{
		{"Backend Engineer", "https://x.com/1", "Remote", base},
		{"Frontend Engineer", "https://x.com/2", "Berlin", base.Add(time.Hour)},
		{"Product Designer", "https://x.com/3", "Remote", base.Add(2 * time.Hour)},
	}
	for _, sd := range seed {
		rec := testRecord(sd.url)
		rec.Title = sd.title
		rec.Location = sd.location
		rec.ExternalID = sd.url
		if _, err := s.UpsertJob(ctx, rec, companyID, sd.seenAt); err != nil {
			t.Fatalf("UpsertJob %s: %v", sd.url, err)
		}
	}

	// Inactive jobs are excluded from the read side.
	if _, err := s.db.Exec("UPDATE jobs SET is_active = 0 WHERE job_url = 'https://x.com/3'"); err != nil {
		t.Fatal(err)
	}

	jobs, total, err := s.ListJobs(ctx, ListJobsOptions{})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2 active jobs", total)
	}
	if len(jobs) != 2 || jobs[0].JobURL != "https://x.com/2" || jobs[1].JobURL != "https://x.com/1" {
		t.Errorf("jobs not ordered by last_seen_at desc: %+v", jobs)
	}
	if jobs[0].CompanyName != "Acme" {
		t.Errorf("CompanyName = %q, want joined company name", jobs[0].CompanyName)
	}

	// Substring search across title and location.
	jobs, total, err = s.ListJobs(ctx, ListJobsOptions{Search: "Backend"})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if total != 1 || len(jobs) != 1 || jobs[0].Title != "Backend Engineer" {
		t.Errorf("search result = %+v (total %d)", jobs, total)
	}

	jobs, _, err = s.ListJobs(ctx, ListJobsOptions{Location: "Berlin"})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].JobURL != "https://x.com/2" {
		t.Errorf("location filter result = %+v", jobs)
	}
}

func TestListJobs_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	companyID, _ := s.ResolveCompany(ctx, "Acme", "https://acme.example.com", time.Now())
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := testRecord("https://x.com/" + string(rune('a'+i)))
		rec.ExternalID = rec.JobURL
		if _, err := s.UpsertJob(ctx, rec, companyID, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("UpsertJob: %v", err)
		}
	}

	jobs, total, err := s.ListJobs(ctx, ListJobsOptions{Page: 2, Size: 2})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(jobs) != 2 {
		t.Fatalf("page 2 size = %d, want 2", len(jobs))
	}
	// Newest first: page 2 of size 2 holds the 3rd and 4th newest.
	if jobs[0].JobURL != "https://x.com/c" || jobs[1].JobURL != "https://x.com/b" {
		t.Errorf("page 2 = %q, %q", jobs[0].JobURL, jobs[1].JobURL)
	}
}

func TestListCompanies_CountsAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	acmeID, _ := s.ResolveCompany(ctx, "Acme", "https://acme.example.com", now)
	zenID, _ := s.ResolveCompany(ctx, "Zenith", "https://zenith.example.com", now)
	_, _ = s.ResolveCompany(ctx, "Bare Inc", "https://bare.example.com", now)

	for i, companyID := range []int64{acmeID, acmeID, zenID} {
		rec := testRecord("https://x.com/" + string(rune('1'+i)))
		rec.ExternalID = rec.JobURL
		if _, err := s.UpsertJob(ctx, rec, companyID, now); err != nil {
			t.Fatalf("UpsertJob: %v", err)
		}
	}

	companies, err := s.ListCompanies(ctx)
	if err != nil {
		t.Fatalf("ListCompanies: %v", err)
	}
	if len(companies) != 3 {
		t.Fatalf("expected 3 companies, got %d", len(companies))
	}
	if companies[0].Name != "Acme" || companies[1].Name != "Bare Inc" || companies[2].Name != "Zenith" {
		t.Errorf("companies not ordered by name: %+v", companies)
	}
	if companies[0].JobCount != 2 || companies[1].JobCount != 0 || companies[2].JobCount != 1 {
		t.Errorf("job counts = %d/%d/%d, want 2/0/1",
			companies[0].JobCount, companies[1].JobCount, companies[2].JobCount)
	}
}

func TestDeletingCompanyCascadesToJobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	companyID, _ := s.ResolveCompany(ctx, "Acme", "https://acme.example.com", time.Now())
	if _, err := s.UpsertJob(ctx, testRecord("https://x.com/1"), companyID, time.Now()); err != nil {
		t.Fatalf("UpsertJob: %v", err)
	}

	if _, err := s.db.Exec("DELETE FROM companies WHERE id = ?", companyID); err != nil {
		t.Fatalf("deleting company: %v", err)
	}

	job, err := s.GetJobByURL(ctx, "https://x.com/1")
	if err != nil {
		t.Fatalf("GetJobByURL: %v", err)
	}
	if job != nil {
		t.Error("expected job to be cascade-deleted with its company")
	}
}
