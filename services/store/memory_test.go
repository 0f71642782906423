package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumnihub/jobingest/internal/standardize"
)

func sampleJob(externalID, slug string) *standardize.Job {
	return &standardize.Job{
		Source:        "bossjobs",
		ExternalID:    externalID,
		Title:         "Engineer",
		Company:       "Acme",
		Location:      "Manila",
		URL:           "https://www.bossjob.ph/job/" + externalID,
		Slug:          slug,
		HashSignature: standardize.HashSignature("Engineer", "Acme", "https://www.bossjob.ph/job/"+externalID, "Manila"),
		PostedDate:    time.Now(),
		IsActive:      true,
	}
}

func TestMemoryUpsertLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	job := sampleJob("1", "engineer-acme-aaaa1111")
	outcome, err := s.Upsert(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, Created, outcome)

	// Same content again: unchanged.
	again := sampleJob("1", "engineer-acme-bbbb2222")
	outcome, err = s.Upsert(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)

	// Content change flips the hash and updates the row, keeping the slug.
	changed := sampleJob("1", "engineer-acme-cccc3333")
	changed.Location = "Cebu"
	changed.HashSignature = standardize.HashSignature("Engineer", "Acme", changed.URL, "Cebu")
	outcome, err = s.Upsert(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, Updated, outcome)

	got, err := s.GetBySourceExternalID(ctx, "bossjobs", "1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Cebu", got.Location)
	assert.Equal(t, "engineer-acme-aaaa1111", got.Slug, "slug is immutable after insert")
}

func TestMemoryUpsertRegeneratesCollidingSlug(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := sampleJob("1", "engineer-acme-same0000")
	_, err := s.Upsert(ctx, first)
	require.NoError(t, err)

	second := sampleJob("2", "engineer-acme-same0000")
	outcome, err := s.Upsert(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, Created, outcome)
	assert.NotEqual(t, first.Slug, second.Slug)
}

func TestMemoryGetMissing(t *testing.T) {
	s := NewMemoryStore()
	got, err := s.GetBySourceExternalID(context.Background(), "bossjobs", "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryListStale(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	old := time.Now().Add(-72 * time.Hour)
	s.now = func() time.Time { return old }
	_, err := s.Upsert(ctx, sampleJob("1", "a-a-11111111"))
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Upsert(ctx, sampleJob("2", "a-a-22222222"))
	require.NoError(t, err)

	stale, err := s.ListStale(ctx, "bossjobs", time.Now().Add(-24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "1", stale[0].ExternalID)
}

func TestMemoryListFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a := sampleJob("1", "a-a-11111111")
	a.Category = "technology"
	a.SearchQuery = "software developer"
	a.SearchLocation = "Manila"
	b := sampleJob("2", "a-a-22222222")
	b.Category = "finance"
	b.SearchQuery = "accountant"
	b.SearchLocation = "Cebu"
	_, err := s.Upsert(ctx, a)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, b)
	require.NoError(t, err)
	require.NoError(t, s.SetActive(ctx, "bossjobs", "2", false))

	jobs, err := s.List(ctx, ListFilter{Category: "technology"})
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	jobs, err = s.List(ctx, ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	jobs, err = s.List(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	jobs, err = s.List(ctx, ListFilter{Company: "acme"})
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	jobs, err = s.List(ctx, ListFilter{Title: "designer"})
	require.NoError(t, err)
	assert.Empty(t, jobs)

	jobs, err = s.List(ctx, ListFilter{Query: "developer"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "1", jobs[0].ExternalID)

	jobs, err = s.List(ctx, ListFilter{Location: "cebu"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "2", jobs[0].ExternalID)
}

func TestMemoryTouchLastSeen(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	old := time.Now().Add(-72 * time.Hour)
	s.now = func() time.Time { return old }
	job := sampleJob("1", "a-a-11111111")
	_, err := s.Upsert(ctx, job)
	require.NoError(t, err)
	require.NoError(t, s.SetActive(ctx, "bossjobs", "1", false))

	s.now = time.Now
	require.NoError(t, s.TouchLastSeen(ctx, "bossjobs", "1"))

	stale, err := s.ListStale(ctx, "bossjobs", time.Now().Add(-24*time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, stale, "touched posting must leave the stale set")

	got, err := s.GetBySourceExternalID(ctx, "bossjobs", "1")
	require.NoError(t, err)
	assert.True(t, got.IsActive, "touch re-activates the posting")

	assert.Error(t, s.TouchLastSeen(ctx, "bossjobs", "404"))
}

func TestMemoryUpdateFromRefresh(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	job := sampleJob("1", "a-a-11111111")
	_, err := s.Upsert(ctx, job)
	require.NoError(t, err)

	fresh := sampleJob("1", "should-not-win")
	fresh.Title = "Staff Engineer"
	require.NoError(t, s.UpdateFromRefresh(ctx, fresh))

	got, err := s.GetBySourceExternalID(ctx, "bossjobs", "1")
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", got.Title)
	assert.Equal(t, job.Slug, got.Slug)

	err = s.UpdateFromRefresh(ctx, sampleJob("404", "x-x-00000000"))
	assert.Error(t, err)
}
