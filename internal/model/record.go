package model

import (
	"context"
	"time"
)

// Record is the normalized, source-independent shape of a single posting.
// Adapters produce Records; the reconciler consumes them. Records are never
// persisted directly.
type Record struct {
	Title          string  // trimmed, never empty
	JobURL         string  // sole deduplication key across sources and runs
	CompanyName    string  // exact-match natural key for the company
	CareerPageURL  string  // from source config, first-write-wins on company
	Location       string  // trimmed, "Remote" when the source had none
	EmploymentType *string // nil when the source had none or an empty string
	ExternalID     string  // source-namespaced id, defaults to JobURL
}

// Company is a persisted employer/publisher entity. Exactly one row exists
// per distinct name; career page and logo keep whatever the first insert set.
type Company struct {
	ID            int64
	Name          string
	CareerPageURL string
	LogoURL       *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	JobCount      int // populated by list queries, not a column
}

// Job is a persisted posting as first observed. Descriptive fields are frozen
// at insert time; only LastSeenAt and IsActive move on re-observation.
type Job struct {
	ID             int64
	ExternalID     string
	Title          string
	Location       string
	EmploymentType *string
	JobURL         string
	CompanyID      int64
	CompanyName    string // joined in by read queries
	IsActive       bool
	FirstSeenAt    time.Time
	LastSeenAt     time.Time
}

// SourceMeta carries the static per-source context an adapter needs beyond
// the raw payload: the page it came from and, for HTML sources, the company
// and location that are configured rather than parsed.
type SourceMeta struct {
	SourceName    string
	CareerPageURL string
	CompanyName   string // HTML sources only
	Location      string // HTML sources only
	BaseURL       string // for resolving relative links
}

// Adapter converts one raw upstream payload into normalized records.
// Implementations are stateless pure transforms: a payload that does not
// parse returns an error (and zero records); individual entries missing a
// title, company, or resolvable URL are silently skipped.
type Adapter interface {
	Parse(payload []byte, meta SourceMeta) ([]Record, error)
}

// Fetcher retrieves a raw payload from a URL. It is the boundary to the
// fetch layer: either a payload or a terminal failure per request.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Outcome classifies what reconciliation did with one record.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeUpdated
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Notifier receives the postings first seen during a run.
type Notifier interface {
	Notify(jobs []Job) error
}
