// Package store persists canonical job postings.
package store

import (
	"context"
	"time"

	"alumnihub/jobingest/internal/standardize"
)

// UpsertOutcome reports what an Upsert did to the posting row.
type UpsertOutcome int

const (
	// Created means a new row was inserted.
	Created UpsertOutcome = iota
	// Updated means an existing row changed content.
	Updated
	// Unchanged means the row existed with an identical hash signature;
	// only its last-seen timestamp moved.
	Unchanged
)

func (o UpsertOutcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// ListFilter narrows List queries. Zero values mean "no constraint".
// Query and Location match the search that found the posting; Title and
// Company match the posting itself. All four are case-insensitive
// substrings.
type ListFilter struct {
	Source     string
	Category   string
	JobType    string
	Query      string
	Location   string
	Title      string
	Company    string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Store is the persistence surface for job postings. Rows are keyed by
// (source, external_id); slugs are globally unique and immutable after
// insert.
type Store interface {
	// EnsureSchema creates the posting table and indexes if missing.
	EnsureSchema(ctx context.Context) error
	// Upsert inserts or updates one posting and reports the outcome.
	Upsert(ctx context.Context, job *standardize.Job) (UpsertOutcome, error)
	// GetBySourceExternalID returns one posting or (nil, nil) when absent.
	GetBySourceExternalID(ctx context.Context, source, externalID string) (*standardize.Job, error)
	// ListStale returns active postings not seen since the cutoff.
	ListStale(ctx context.Context, source string, olderThan time.Time, limit int) ([]standardize.Job, error)
	// List returns postings matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]standardize.Job, error)
	// UpdateFromRefresh overwrites a posting's content fields after a
	// successful re-fetch. The slug never changes.
	UpdateFromRefresh(ctx context.Context, job *standardize.Job) error
	// TouchLastSeen advances a posting's last-seen timestamp and
	// re-activates it without touching any content field.
	TouchLastSeen(ctx context.Context, source, externalID string) error
	// SetActive flips a posting's active flag.
	SetActive(ctx context.Context, source, externalID string, active bool) error
	// Close releases the underlying connections.
	Close()
}
