package adapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmallari/jobmill/internal/model"
)

// arbeitnowJob represents a single job in the Arbeitnow job-board API response.
type arbeitnowJob struct {
	Title       string   `json:"title"`
	CompanyName string   `json:"company_name"`
	URL         string   `json:"url"`
	Location    string   `json:"location"`
	JobTypes    []string `json:"job_types"`
	Slug        string   `json:"slug"`
}

// arbeitnowResponse is the top-level Arbeitnow API response.
type arbeitnowResponse struct {
	Data []arbeitnowJob `json:"data"`
}

// ArbeitnowAdapter parses the Arbeitnow job-board API payload.
type ArbeitnowAdapter struct{}

// Parse decodes the payload and normalizes each listing. The job_types array
// is joined with ", " into a single employment type string.
func (a *ArbeitnowAdapter) Parse(payload []byte, meta model.SourceMeta) ([]model.Record, error) {
	var resp arbeitnowResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("arbeitnow parse for %s: %w", meta.SourceName, err)
	}

	records := make([]model.Record, 0, len(resp.Data))
	for _, aj := range resp.Data {
		if aj.Title == "" || aj.CompanyName == "" || aj.URL == "" {
			continue
		}

		var externalID string
		if aj.Slug != "" {
			externalID = "arbeitnow-" + aj.Slug
		}

		records = append(records, normalizeRecord(rawFields{
			Title:          aj.Title,
			JobURL:         aj.URL,
			CompanyName:    aj.CompanyName,
			CareerPageURL:  meta.CareerPageURL,
			Location:       aj.Location,
			EmploymentType: strings.Join(aj.JobTypes, ", "),
			ExternalID:     externalID,
		}))
	}

	return records, nil
}
