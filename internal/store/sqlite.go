package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jmallari/jobmill/internal/model"
)

// timeLayout is how timestamps are written to and read from SQLite.
// Nanosecond precision keeps last_seen_at strictly ordered between runs.
const timeLayout = time.RFC3339Nano

// SQLiteStore persists companies and jobs in a SQLite database. Uniqueness on
// companies.name and jobs.job_url is enforced by the schema, so concurrent
// writers cannot create duplicate entities.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the companies and jobs tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// SQLite allows one writer at a time. A single pooled connection
	// serializes the coordinator's concurrent sources instead of surfacing
	// SQLITE_BUSY, and keeps connection-scoped pragmas in effect everywhere.
	db.SetMaxOpenConns(1)

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	// Cascade from companies to jobs needs foreign keys on; SQLite defaults off.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			name            TEXT NOT NULL UNIQUE,
			career_page_url TEXT NOT NULL,
			logo_url        TEXT,
			created_at      TIMESTAMP NOT NULL,
			updated_at      TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			external_id     TEXT,
			title           TEXT NOT NULL,
			location        TEXT,
			employment_type TEXT,
			job_url         TEXT NOT NULL UNIQUE,
			company_id      INTEGER NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			is_active       BOOLEAN NOT NULL DEFAULT 1,
			first_seen_at   TIMESTAMP NOT NULL,
			last_seen_at    TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_external_id ON jobs(external_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_company_id ON jobs(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_title ON jobs(title)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_location ON jobs(location)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// ResolveCompany returns the id of the company with the given name, inserting
// it first if it does not exist. The insert is its own atomic unit: by the
// time this returns, the row is durable and visible to every other writer.
// career_page_url is first-write-wins; later observations never overwrite it.
func (s *SQLiteStore) ResolveCompany(ctx context.Context, name, careerPageURL string, now time.Time) (int64, error) {
	ts := now.UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (name, career_page_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO NOTHING`,
		name, careerPageURL, ts, ts,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting company %q: %w", name, err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, "SELECT id FROM companies WHERE name = ?", name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolving company %q: %w", name, err)
	}
	return id, nil
}

// UpsertJob reconciles one normalized record against the jobs table inside a
// single transaction. An existing job (matched by job_url, the sole dedup
// key) only has last_seen_at and is_active refreshed; its descriptive fields
// are never edited. A new job is inserted with first_seen_at = last_seen_at.
func (s *SQLiteStore) UpsertJob(ctx context.Context, rec model.Record, companyID int64, now time.Time) (model.Outcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.OutcomeFailed, fmt.Errorf("beginning transaction for %s: %w", rec.JobURL, err)
	}
	defer tx.Rollback()

	ts := now.UTC().Format(timeLayout)

	var id int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM jobs WHERE job_url = ?", rec.JobURL).Scan(&id)
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			"UPDATE jobs SET last_seen_at = ?, is_active = 1 WHERE id = ?",
			ts, id,
		)
		if err != nil {
			return model.OutcomeFailed, fmt.Errorf("touching job %s: %w", rec.JobURL, err)
		}
		if err := tx.Commit(); err != nil {
			return model.OutcomeFailed, fmt.Errorf("committing touch of %s: %w", rec.JobURL, err)
		}
		return model.OutcomeUpdated, nil

	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO jobs (external_id, title, location, employment_type, job_url, company_id, is_active, first_seen_at, last_seen_at)
			 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			rec.ExternalID, rec.Title, rec.Location, nullableString(rec.EmploymentType), rec.JobURL, companyID, ts, ts,
		)
		if err != nil {
			return model.OutcomeFailed, fmt.Errorf("inserting job %s: %w", rec.JobURL, err)
		}
		if err := tx.Commit(); err != nil {
			return model.OutcomeFailed, fmt.Errorf("committing insert of %s: %w", rec.JobURL, err)
		}
		return model.OutcomeInserted, nil

	default:
		return model.OutcomeFailed, fmt.Errorf("looking up job %s: %w", rec.JobURL, err)
	}
}

// GetJob returns the job with the given id, or nil if none exists.
func (s *SQLiteStore) GetJob(ctx context.Context, id int64) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT j.id, j.external_id, j.title, j.location, j.employment_type, j.job_url,
		       j.company_id, c.name, j.is_active, j.first_seen_at, j.last_seen_at
		FROM jobs j JOIN companies c ON c.id = j.company_id
		WHERE j.id = ?`, id)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting job %d: %w", id, err)
	}
	return job, nil
}

// GetJobByURL returns the job with the given URL, or nil if none exists.
func (s *SQLiteStore) GetJobByURL(ctx context.Context, jobURL string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT j.id, j.external_id, j.title, j.location, j.employment_type, j.job_url,
		       j.company_id, c.name, j.is_active, j.first_seen_at, j.last_seen_at
		FROM jobs j JOIN companies c ON c.id = j.company_id
		WHERE j.job_url = ?`, jobURL)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting job %s: %w", jobURL, err)
	}
	return job, nil
}

// ListJobsOptions filter and paginate the read side. Search is a plain
// case-insensitive substring match on title and location.
type ListJobsOptions struct {
	Search    string
	Location  string
	CompanyID int64
	Page      int // 1-based
	Size      int
}

// ListJobs returns active jobs ordered by last_seen_at descending, newest
// observations first, along with the total count matching the filters.
func (s *SQLiteStore) ListJobs(ctx context.Context, opts ListJobsOptions) ([]model.Job, int, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Size < 1 {
		opts.Size = 20
	}

	where := "WHERE j.is_active = 1"
	var args []any
	if opts.Search != "" {
		where += " AND (j.title LIKE ? OR j.location LIKE ?)"
		pattern := "%" + opts.Search + "%"
		args = append(args, pattern, pattern)
	}
	if opts.Location != "" {
		where += " AND j.location LIKE ?"
		args = append(args, "%"+opts.Location+"%")
	}
	if opts.CompanyID != 0 {
		where += " AND j.company_id = ?"
		args = append(args, opts.CompanyID)
	}

	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs j "+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting jobs: %w", err)
	}

	query := `
		SELECT j.id, j.external_id, j.title, j.location, j.employment_type, j.job_url,
		       j.company_id, c.name, j.is_active, j.first_seen_at, j.last_seen_at
		FROM jobs j JOIN companies c ON c.id = j.company_id ` + where + `
		ORDER BY j.last_seen_at DESC, j.id DESC
		LIMIT ? OFFSET ?`
	args = append(args, opts.Size, (opts.Page-1)*opts.Size)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, total, nil
}

// ListCompanies returns every company ordered by name, with its job count.
func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.career_page_url, c.logo_url, c.created_at, c.updated_at,
		       COUNT(j.id)
		FROM companies c LEFT JOIN jobs j ON j.company_id = c.id
		GROUP BY c.id
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("listing companies: %w", err)
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var (
			c                    model.Company
			logoURL              sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.CareerPageURL, &logoURL, &createdAt, &updatedAt, &c.JobCount); err != nil {
			return nil, fmt.Errorf("scanning company: %w", err)
		}
		if logoURL.Valid {
			c.LogoURL = &logoURL.String
		}
		if c.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing company created_at: %w", err)
		}
		if c.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
			return nil, fmt.Errorf("parsing company updated_at: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing companies: %w", err)
	}
	return companies, nil
}

// GetCompanyByName returns the company with the given name (exact match), or
// nil if none exists.
func (s *SQLiteStore) GetCompanyByName(ctx context.Context, name string) (*model.Company, error) {
	var (
		c                    model.Company
		logoURL              sql.NullString
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, career_page_url, logo_url, created_at, updated_at FROM companies WHERE name = ?",
		name,
	).Scan(&c.ID, &c.Name, &c.CareerPageURL, &logoURL, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting company %q: %w", name, err)
	}
	if logoURL.Valid {
		c.LogoURL = &logoURL.String
	}
	if c.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing company created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing company updated_at: %w", err)
	}
	return &c, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var (
		j                       model.Job
		externalID              sql.NullString
		location                sql.NullString
		employmentType          sql.NullString
		firstSeenAt, lastSeenAt string
	)
	err := row.Scan(&j.ID, &externalID, &j.Title, &location, &employmentType, &j.JobURL,
		&j.CompanyID, &j.CompanyName, &j.IsActive, &firstSeenAt, &lastSeenAt)
	if err != nil {
		return nil, err
	}
	j.ExternalID = externalID.String
	j.Location = location.String
	if employmentType.Valid {
		j.EmploymentType = &employmentType.String
	}
	if j.FirstSeenAt, err = time.Parse(timeLayout, firstSeenAt); err != nil {
		return nil, fmt.Errorf("parsing first_seen_at: %w", err)
	}
	if j.LastSeenAt, err = time.Parse(timeLayout, lastSeenAt); err != nil {
		return nil, fmt.Errorf("parsing last_seen_at: %w", err)
	}
	return &j, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
