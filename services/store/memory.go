package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"alumnihub/jobingest/internal/standardize"
	apperr "alumnihub/jobingest/pkg/errors"
)

type memoryRecord struct {
	job        standardize.Job
	lastSeenAt time.Time
}

// MemoryStore is an in-memory Store used in tests and dry-run sessions.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*memoryRecord
	slugs   map[string]bool
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*memoryRecord),
		slugs:   make(map[string]bool),
		now:     time.Now,
	}
}

func recordKey(source, externalID string) string {
	return source + "\x00" + externalID
}

func (s *MemoryStore) EnsureSchema(context.Context) error { return nil }

func (s *MemoryStore) Upsert(_ context.Context, job *standardize.Job) (UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(job.Source, job.ExternalID)
	if rec, ok := s.records[key]; ok {
		if rec.job.HashSignature == job.HashSignature {
			rec.lastSeenAt = s.now()
			rec.job.IsActive = true
			return Unchanged, nil
		}
		slug := rec.job.Slug
		rec.job = *job
		rec.job.Slug = slug
		rec.job.IsActive = true
		rec.lastSeenAt = s.now()
		return Updated, nil
	}

	slug := job.Slug
	for attempt := 0; s.slugs[slug]; attempt++ {
		if attempt >= slugRetries {
			return Unchanged, apperr.NewStoreConflict(job.Source,
				fmt.Sprintf("slug collision persisted after %d retries", slugRetries), nil)
		}
		slug = standardize.NewSlug(job.Title, job.Company)
	}
	job.Slug = slug
	s.slugs[slug] = true
	s.records[key] = &memoryRecord{job: *job, lastSeenAt: s.now()}
	return Created, nil
}

func (s *MemoryStore) GetBySourceExternalID(_ context.Context, source, externalID string) (*standardize.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordKey(source, externalID)]
	if !ok {
		return nil, nil
	}
	job := rec.job
	return &job, nil
}

func (s *MemoryStore) ListStale(_ context.Context, source string, olderThan time.Time, limit int) ([]standardize.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	var out []standardize.Job
	for _, rec := range s.records {
		if rec.job.Source != source || !rec.job.IsActive {
			continue
		}
		if rec.lastSeenAt.Before(olderThan) {
			out = append(out, rec.job)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExternalID < out[j].ExternalID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]standardize.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []standardize.Job
	for _, rec := range s.records {
		j := rec.job
		if filter.Source != "" && j.Source != filter.Source {
			continue
		}
		if filter.Category != "" && j.Category != filter.Category {
			continue
		}
		if filter.JobType != "" && j.JobType != filter.JobType {
			continue
		}
		if !containsFold(j.SearchQuery, filter.Query) ||
			!containsFold(j.SearchLocation, filter.Location) ||
			!containsFold(j.Title, filter.Title) ||
			!containsFold(j.Company, filter.Company) {
			continue
		}
		if filter.ActiveOnly && !j.IsActive {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PostedDate.After(out[j].PostedDate)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (s *MemoryStore) UpdateFromRefresh(_ context.Context, job *standardize.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordKey(job.Source, job.ExternalID)]
	if !ok {
		return fmt.Errorf("update posting: no row for %s/%s", job.Source, job.ExternalID)
	}
	slug := rec.job.Slug
	rec.job = *job
	rec.job.Slug = slug
	rec.job.IsActive = true
	rec.lastSeenAt = s.now()
	return nil
}

func (s *MemoryStore) TouchLastSeen(_ context.Context, source, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordKey(source, externalID)]
	if !ok {
		return fmt.Errorf("touch posting: no row for %s/%s", source, externalID)
	}
	rec.lastSeenAt = s.now()
	rec.job.IsActive = true
	return nil
}

func (s *MemoryStore) SetActive(_ context.Context, source, externalID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordKey(source, externalID)]
	if !ok {
		return fmt.Errorf("set active: no row for %s/%s", source, externalID)
	}
	rec.job.IsActive = active
	return nil
}

func (s *MemoryStore) Close() {}
