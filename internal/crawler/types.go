package crawler

import (
	"context"
	"time"
)

// RawJob is a job record as extracted from a source page, before
// standardization.
type RawJob struct {
	Title            string    `json:"title"`
	Company          string    `json:"company"`
	Location         string    `json:"location"`
	URL              string    `json:"url"`
	SourceID         string    `json:"source_id"`
	Description      string    `json:"description,omitempty"`
	JobType          string    `json:"job_type,omitempty"`
	SalaryRange      string    `json:"salary_range,omitempty"`
	Requirements     string    `json:"requirements,omitempty"`
	Responsibilities string    `json:"responsibilities,omitempty"`
	Skills           string    `json:"skills,omitempty"`
	PostedDate       time.Time `json:"posted_date"`
	Category         string    `json:"category,omitempty"`
}

// SearchParams carries the caller's search request into a driver.
type SearchParams struct {
	Query    string
	Location string
	MaxJobs  int
	MaxPages int
	JobType  string
	Category string
	Radius   int
	Days     int
}

// Driver is a source-specific crawler for a single job board.
type Driver interface {
	// SourceName returns the driver's source identifier (e.g. "bossjobs")
	SourceName() string

	// SearchJobs walks the source's search URLs and returns deduplicated
	// raw records, at most params.MaxJobs of them
	SearchJobs(ctx context.Context, params SearchParams) ([]RawJob, error)

	// JobDetails re-fetches a single job page and extracts a full record
	JobDetails(ctx context.Context, jobURL string) (*RawJob, error)
}

// placeholderTitle marks records whose title could not be extracted.
const placeholderTitle = "Unknown Title"

// placeholderCompany marks records whose company could not be extracted.
const placeholderCompany = "Unknown Company"
