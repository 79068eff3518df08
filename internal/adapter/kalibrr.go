package adapter

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmallari/jobmill/internal/model"
)

// jobLinkSelector matches anchors that plausibly point at job postings.
const jobLinkSelector = "a[href*='/job/'], a[href*='job-board'], a[href*='jobs']"

// titleNoise is navigational/boilerplate anchor text that is never a job
// title, compared lowercased after whitespace collapsing.
var titleNoise = map[string]struct{}{
	"careers":       {},
	"jobs":          {},
	"job board":     {},
	"view all jobs": {},
	"learn more":    {},
	"read more":     {},
	"apply":         {},
	"apply now":     {},
	"see more":      {},
	"next":          {},
	"previous":      {},
}

// KalibrrAdapter scrapes job links out of the Kalibrr job-board HTML page.
// Unlike the JSON adapters, company name and location come from the source
// configuration; only the link and its visible text come from the page.
type KalibrrAdapter struct{}

// Parse selects candidate anchors, resolves each href against the page base
// URL, and keeps those whose collapsed text passes the title plausibility
// filter. A URL seen twice on the same page yields at most one record.
func (a *KalibrrAdapter) Parse(payload []byte, meta model.SourceMeta) ([]model.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("kalibrr parse for %s: %w", meta.SourceName, err)
	}

	base, err := url.Parse(meta.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("kalibrr parse for %s: bad base url %q: %w", meta.SourceName, meta.BaseURL, err)
	}

	links := doc.Find(jobLinkSelector)
	if links.Length() == 0 {
		// Some renders of the page carry no recognizable job-link pattern;
		// fall back to every anchor and let the title filter sort it out.
		links = doc.Find("a[href]")
	}

	seen := make(map[string]struct{})
	var records []model.Record

	links.Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		jobURL := base.ResolveReference(ref).String()
		if _, dup := seen[jobURL]; dup {
			return
		}
		seen[jobURL] = struct{}{}

		title := collapseWhitespace(sel.Text())
		if !looksLikeJobTitle(title) {
			return
		}

		records = append(records, normalizeRecord(rawFields{
			Title:         title,
			JobURL:        jobURL,
			CompanyName:   meta.CompanyName,
			CareerPageURL: meta.CareerPageURL,
			Location:      meta.Location,
			ExternalID:    "kalibrr-" + jobURL,
		}))
	})

	return records, nil
}

// looksLikeJobTitle rejects text that is too short to be a title or exactly
// matches a known navigational phrase.
func looksLikeJobTitle(title string) bool {
	text := strings.ToLower(strings.TrimSpace(title))
	if len(text) < 5 {
		return false
	}
	_, noise := titleNoise[text]
	return !noise
}

// collapseWhitespace joins all runs of whitespace (including newlines from
// nested elements) into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
