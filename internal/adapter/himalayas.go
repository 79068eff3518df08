package adapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmallari/jobmill/internal/model"
)

// himalayasJob represents a single job in the Himalayas API response.
type himalayasJob struct {
	Title                string   `json:"title"`
	CompanyName          string   `json:"companyName"`
	ApplicationLink      string   `json:"applicationLink"`
	GUID                 string   `json:"guid"`
	LocationRestrictions []string `json:"locationRestrictions"`
	EmploymentType       string   `json:"employmentType"`
}

// himalayasResponse is the top-level Himalayas jobs API response.
type himalayasResponse struct {
	Jobs []himalayasJob `json:"jobs"`
}

// HimalayasAdapter parses the Himalayas jobs API payload. Location is derived
// from the list of permitted regions; when a listing has no direct application
// link the job URL is constructed from its guid.
type HimalayasAdapter struct{}

// Parse decodes the payload and normalizes each listing.
func (a *HimalayasAdapter) Parse(payload []byte, meta model.SourceMeta) ([]model.Record, error) {
	var resp himalayasResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("himalayas parse for %s: %w", meta.SourceName, err)
	}

	records := make([]model.Record, 0, len(resp.Jobs))
	for _, hj := range resp.Jobs {
		if hj.Title == "" || hj.CompanyName == "" {
			continue
		}

		jobURL := hj.ApplicationLink
		if jobURL == "" && hj.GUID != "" {
			jobURL = "https://himalayas.app/jobs/" + hj.GUID
		}
		if jobURL == "" {
			continue
		}

		// Permitted regions joined into a single location; fully unrestricted
		// listings are plain "Remote".
		location := strings.Join(hj.LocationRestrictions, ", ")

		var externalID string
		if hj.GUID != "" {
			externalID = "himalayas-" + hj.GUID
		}

		records = append(records, normalizeRecord(rawFields{
			Title:          hj.Title,
			JobURL:         jobURL,
			CompanyName:    hj.CompanyName,
			CareerPageURL:  meta.CareerPageURL,
			Location:       location,
			EmploymentType: hj.EmploymentType,
			ExternalID:     externalID,
		}))
	}

	return records, nil
}
