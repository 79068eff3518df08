package adapter

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jmallari/jobmill/internal/model"
)

// remotiveJob represents a single job in the Remotive API response.
type remotiveJob struct {
	ID                 int64  `json:"id"`
	Title              string `json:"title"`
	CompanyName        string `json:"company_name"`
	URL                string `json:"url"`
	RequiredLocation   string `json:"candidate_required_location"`
	JobType            string `json:"job_type"`
}

// remotiveResponse is the top-level Remotive jobs API response.
type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

// RemotiveAdapter parses the Remotive remote-jobs API payload.
type RemotiveAdapter struct{}

// Parse decodes the payload and normalizes each listing. Entries without a
// title, company, or URL are skipped.
func (a *RemotiveAdapter) Parse(payload []byte, meta model.SourceMeta) ([]model.Record, error) {
	var resp remotiveResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("remotive parse for %s: %w", meta.SourceName, err)
	}

	records := make([]model.Record, 0, len(resp.Jobs))
	for _, rj := range resp.Jobs {
		if rj.Title == "" || rj.CompanyName == "" || rj.URL == "" {
			continue
		}

		var externalID string
		if rj.ID != 0 {
			externalID = "remotive-" + strconv.FormatInt(rj.ID, 10)
		}

		records = append(records, normalizeRecord(rawFields{
			Title:          rj.Title,
			JobURL:         rj.URL,
			CompanyName:    rj.CompanyName,
			CareerPageURL:  meta.CareerPageURL,
			Location:       rj.RequiredLocation,
			EmploymentType: rj.JobType,
			ExternalID:     externalID,
		}))
	}

	return records, nil
}
