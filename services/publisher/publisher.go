package publisher

import "alumnihub/jobingest/internal/standardize"

// Publisher pushes newly ingested postings to downstream consumers.
type Publisher interface {
	// PublishJob publishes one canonical posting keyed by its source.
	PublishJob(job *standardize.Job) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
