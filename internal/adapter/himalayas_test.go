package adapter

import (
	"testing"

	"github.com/jmallari/jobmill/internal/model"
)

var himalayasMeta = model.SourceMeta{
	SourceName:    "Himalayas",
	CareerPageURL: "https://himalayas.app",
}

func TestHimalayasAdapter_Parse(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"title": "Platform Engineer",
				"companyName": "Umbrella",
				"applicationLink": "https://umbrella.example.com/apply/123",
				"guid": "platform-engineer-umbrella",
				"locationRestrictions": ["United States", "Canada"],
				"employmentType": "Full Time"
			}
		]
	}`

	records, err := (&HimalayasAdapter{}).Parse([]byte(payload), himalayasMeta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.JobURL != "https://umbrella.example.com/apply/123" {
		t.Errorf("JobURL = %q, want the direct application link", r.JobURL)
	}
	if r.Location != "United States, Canada" {
		t.Errorf("Location = %q, want joined restrictions", r.Location)
	}
	if r.ExternalID != "himalayas-platform-engineer-umbrella" {
		t.Errorf("ExternalID = %q", r.ExternalID)
	}
}

func TestHimalayasAdapter_URLFallsBackToGUID(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"title": "Support Engineer",
				"companyName": "Umbrella",
				"applicationLink": "",
				"guid": "support-engineer-umbrella",
				"locationRestrictions": [],
				"employmentType": ""
			}
		]
	}`

	records, err := (&HimalayasAdapter{}).Parse([]byte(payload), himalayasMeta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.JobURL != "https://himalayas.app/jobs/support-engineer-umbrella" {
		t.Errorf("JobURL = %q, want constructed link from guid", r.JobURL)
	}
	if r.Location != "Remote" {
		t.Errorf("Location = %q, want Remote for empty restrictions", r.Location)
	}
	if r.EmploymentType != nil {
		t.Errorf("EmploymentType = %v, want nil", *r.EmploymentType)
	}
}

func TestHimalayasAdapter_SkipsListingWithoutAnyURL(t *testing.T) {
	payload := `{
		"jobs": [
			{"title": "Ghost Role", "companyName": "Umbrella", "applicationLink": "", "guid": ""}
		]
	}`

	records, err := (&HimalayasAdapter{}).Parse([]byte(payload), himalayasMeta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected 0 records, got %d", len(records))
	}
}

func TestHimalayasAdapter_MalformedPayload(t *testing.T) {
	if _, err := (&HimalayasAdapter{}).Parse([]byte("nope"), himalayasMeta); err == nil {
		t.Fatal("expected parse error for malformed payload")
	}
}
