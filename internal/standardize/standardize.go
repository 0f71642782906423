// Package standardize converts raw crawled job records into the canonical
// posting shape stored and published downstream.
package standardize

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"alumnihub/jobingest/helpers"
	"alumnihub/jobingest/internal/crawler"
	apperr "alumnihub/jobingest/pkg/errors"
)

// Canonical job type values.
const (
	TypeFullTime   = "FULLTIME"
	TypePartTime   = "PARTTIME"
	TypeContract   = "CONTRACT"
	TypeInternship = "INTERNSHIP"
	TypeTemporary  = "TEMPORARY"
)

// pesoSources are sources whose bare numeric salaries are peso amounts.
var pesoSources = map[string]bool{
	"bossjobs": true,
}

// Job is the canonical posting record.
type Job struct {
	Source           string    `json:"source"`
	ExternalID       string    `json:"external_id"`
	Title            string    `json:"title"`
	Company          string    `json:"company"`
	Location         string    `json:"location"`
	URL              string    `json:"url"`
	Slug             string    `json:"slug"`
	Description      string    `json:"description,omitempty"`
	JobType          string    `json:"job_type,omitempty"`
	SalaryRange      string    `json:"salary_range,omitempty"`
	Category         string    `json:"category,omitempty"`
	Requirements     string    `json:"requirements,omitempty"`
	Responsibilities string    `json:"responsibilities,omitempty"`
	Skills           string    `json:"skills,omitempty"`
	SearchQuery      string    `json:"search_query,omitempty"`
	SearchLocation   string    `json:"search_location,omitempty"`
	HashSignature    string    `json:"hash_signature"`
	PostedDate       time.Time `json:"posted_date"`
	IsActive         bool      `json:"is_active"`
}

// Context carries the search that produced a raw record, stamped onto the
// canonical job for later provenance queries.
type Context struct {
	Query    string
	Location string
	Category string
}

// Standardize validates and converts one raw record. Title and company are
// required; everything else degrades gracefully.
func Standardize(raw crawler.RawJob, source string, sc Context) (*Job, error) {
	title := helpers.CollapseWhitespace(raw.Title)
	company := helpers.CollapseWhitespace(raw.Company)
	if title == "" {
		return nil, apperr.NewValidation(source, "raw job has no title")
	}
	if company == "" {
		return nil, apperr.NewValidation(source, "raw job has no company")
	}
	if raw.URL == "" {
		return nil, apperr.NewValidation(source, "raw job has no URL")
	}

	externalID := raw.SourceID
	if externalID == "" {
		externalID = crawler.ExtractJobID(raw.URL)
	}
	if externalID == "" {
		return nil, apperr.NewValidation(source, "raw job has no external ID")
	}

	location := helpers.CollapseWhitespace(raw.Location)
	if location == "" {
		location = sc.Location
	}

	category := raw.Category
	if category == "" {
		category = sc.Category
	}

	posted := raw.PostedDate
	if posted.IsZero() {
		posted = time.Now()
	}

	job := &Job{
		Source:           source,
		ExternalID:       externalID,
		Title:            title,
		Company:          company,
		Location:         location,
		URL:              raw.URL,
		Slug:             NewSlug(title, company),
		Description:      strings.TrimSpace(raw.Description),
		JobType:          NormalizeJobType(raw.JobType),
		SalaryRange:      NormalizeSalary(raw.SalaryRange, source),
		Category:         category,
		Requirements:     strings.TrimSpace(raw.Requirements),
		Responsibilities: strings.TrimSpace(raw.Responsibilities),
		Skills:           strings.TrimSpace(raw.Skills),
		SearchQuery:      sc.Query,
		SearchLocation:   sc.Location,
		PostedDate:       posted,
		IsActive:         true,
	}
	job.HashSignature = HashSignature(job.Title, job.Company, job.URL, job.Location)
	return job, nil
}

// HashSignature computes the change-detection fingerprint over the four
// identity fields. The JSON encoding sorts map keys, so the digest is
// deterministic for any field order.
func HashSignature(title, company, url, location string) string {
	payload, _ := json.Marshal(map[string]string{
		"title":    title,
		"company":  company,
		"url":      url,
		"location": location,
	})
	sum := md5.Sum(payload)
	return hex.EncodeToString(sum[:])
}

// NormalizeJobType maps free-form employment text onto the canonical enum.
// Unrecognized text falls through to FULLTIME.
func NormalizeJobType(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case t == "":
		return TypeFullTime
	case strings.Contains(t, "intern"):
		return TypeInternship
	case strings.Contains(t, "part"), t == "pt":
		return TypePartTime
	case strings.Contains(t, "contract"), strings.Contains(t, "freelance"):
		return TypeContract
	case strings.Contains(t, "temp"):
		return TypeTemporary
	case strings.Contains(t, "full"), t == "ft":
		return TypeFullTime
	default:
		return TypeFullTime
	}
}

// currencyMarkers are substrings whose presence means a salary string
// already names its currency.
var currencyMarkers = []string{"php", "₱", "$", "usd", "sgd", "eur", "gbp", "aud"}

// NormalizeSalary tidies a salary string. Numeric salaries from peso sources
// that carry no currency marker get a PHP prefix; marked strings pass
// through trimmed.
func NormalizeSalary(text, source string) string {
	s := helpers.CollapseWhitespace(text)
	if s == "" {
		return ""
	}
	if pesoSources[source] && !hasCurrencyMarker(s) && strings.ContainsAny(s, "0123456789") {
		return "PHP " + s
	}
	return s
}

func hasCurrencyMarker(s string) bool {
	lower := strings.ToLower(s)
	for _, m := range currencyMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// NewSlug builds a URL-safe slug from title and company with a random
// 8-character suffix. Collisions are resolved by the store retrying with a
// fresh suffix.
func NewSlug(title, company string) string {
	t := strings.Trim(helpers.Truncate(helpers.Slugify(title), 40), "-")
	c := strings.Trim(helpers.Truncate(helpers.Slugify(company), 20), "-")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	parts := make([]string, 0, 3)
	if t != "" {
		parts = append(parts, t)
	}
	if c != "" {
		parts = append(parts, c)
	}
	parts = append(parts, suffix)
	return strings.Join(parts, "-")
}
