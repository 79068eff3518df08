package adapter

import (
	"testing"

	"github.com/jmallari/jobmill/internal/model"
)

var kalibrrMeta = model.SourceMeta{
	SourceName:    "Kalibrr",
	CareerPageURL: "https://www.kalibrr.com/job-board/te/software-engineer/1",
	CompanyName:   "Kalibrr",
	Location:      "Philippines",
	BaseURL:       "https://www.kalibrr.com/job-board/te/software-engineer/1",
}

func TestKalibrrAdapter_Parse(t *testing.T) {
	page := `<html><body>
		<nav><a href="/job-board/te/software-engineer/2">Next</a></nav>
		<div class="card">
			<a href="/c/acme/jobs/12345/job/123">Senior Backend Engineer</a>
			<a href="/c/acme/jobs/12345/job/123">Apply Now</a>
		</div>
		<div class="card">
			<a href="https://www.kalibrr.com/c/globex/jobs/777/job/777">
				Frontend   Developer
			</a>
		</div>
		<a href="#">Go</a>
	</body></html>`

	records, err := (&KalibrrAdapter{}).Parse([]byte(page), kalibrrMeta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}

	r := records[0]
	if r.Title != "Senior Backend Engineer" {
		t.Errorf("Title = %q", r.Title)
	}
	wantURL := "https://www.kalibrr.com/c/acme/jobs/12345/job/123"
	if r.JobURL != wantURL {
		t.Errorf("JobURL = %q, want resolved absolute %q", r.JobURL, wantURL)
	}
	if r.ExternalID != "kalibrr-"+wantURL {
		t.Errorf("ExternalID = %q", r.ExternalID)
	}
	if r.CompanyName != "Kalibrr" || r.Location != "Philippines" {
		t.Errorf("static fields = %q / %q, want config values", r.CompanyName, r.Location)
	}

	// Nested whitespace in anchor text is collapsed.
	if records[1].Title != "Frontend Developer" {
		t.Errorf("Title = %q, want collapsed whitespace", records[1].Title)
	}
}

func TestKalibrrAdapter_TitlePlausibilityFilter(t *testing.T) {
	page := `<html><body>
		<a href="/job/1">Apply Now</a>
		<a href="/job/2">Next</a>
		<a href="/job/3">Go</a>
		<a href="/job/4">Careers</a>
		<a href="/job/5">Senior Backend Engineer</a>
	</body></html>`

	records, err := (&KalibrrAdapter{}).Parse([]byte(page), kalibrrMeta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected only the plausible title to survive, got %d: %+v", len(records), records)
	}
	if records[0].Title != "Senior Backend Engineer" {
		t.Errorf("Title = %q", records[0].Title)
	}
}

func TestKalibrrAdapter_DeduplicatesURLsWithinPage(t *testing.T) {
	page := `<html><body>
		<a href="/job/9">Senior Backend Engineer</a>
		<a href="/job/9">Senior Backend Engineer</a>
	</body></html>`

	records, err := (&KalibrrAdapter{}).Parse([]byte(page), kalibrrMeta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record for a URL seen twice, got %d", len(records))
	}
}

func TestKalibrrAdapter_FallsBackToAllAnchors(t *testing.T) {
	// No anchor matches the job-link patterns; the title filter still has to
	// separate postings from navigation.
	page := `<html><body>
		<a href="/open-roles/42">Machine Learning Engineer</a>
		<a href="/about">Learn More</a>
	</body></html>`

	records, err := (&KalibrrAdapter{}).Parse([]byte(page), kalibrrMeta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record from fallback anchor scan, got %d", len(records))
	}
	if records[0].JobURL != "https://www.kalibrr.com/open-roles/42" {
		t.Errorf("JobURL = %q", records[0].JobURL)
	}
}

func TestLooksLikeJobTitle(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"Senior Backend Engineer", true},
		{"Apply Now", false},
		{"apply now", false},
		{"Next", false},
		{"Go", false},
		{"", false},
		{"QA Engineer", true},
	}
	for _, tc := range cases {
		if got := looksLikeJobTitle(tc.title); got != tc.want {
			t.Errorf("looksLikeJobTitle(%q) = %v, want %v", tc.title, got, tc.want)
		}
	}
}
