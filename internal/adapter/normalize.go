package adapter

import (
	"strings"

	"github.com/jmallari/jobmill/internal/model"
)

// rawFields is what a source-specific parser hands to normalizeRecord before
// any shaping. Title, JobURL and CompanyName must already be known non-empty;
// callers reject incomplete entries before normalizing.
type rawFields struct {
	Title          string
	JobURL         string
	CompanyName    string
	CareerPageURL  string
	Location       string
	EmploymentType string
	ExternalID     string
}

// normalizeRecord applies the field rules shared by every adapter: trim the
// title, default a blank location to "Remote", treat an empty employment type
// as absent, and fall back to the job URL when the source supplies no
// external id. Pure function, no store dependency.
func normalizeRecord(raw rawFields) model.Record {
	rec := model.Record{
		Title:         strings.TrimSpace(raw.Title),
		JobURL:        raw.JobURL,
		CompanyName:   raw.CompanyName,
		CareerPageURL: raw.CareerPageURL,
	}

	location := strings.TrimSpace(raw.Location)
	if location == "" {
		location = "Remote"
	}
	rec.Location = location

	if et := strings.TrimSpace(raw.EmploymentType); et != "" {
		rec.EmploymentType = &et
	}

	rec.ExternalID = strings.TrimSpace(raw.ExternalID)
	if rec.ExternalID == "" {
		rec.ExternalID = raw.JobURL
	}

	return rec
}
