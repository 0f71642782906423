package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumnihub/jobingest/internal/standardize"
	"alumnihub/jobingest/services/store"
)

// This test requires a running PostgreSQL instance reachable through
// DATABASE_URL. Without it the test is skipped.
func TestPostgresStoreIntegration(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL is not set, skipping integration test")
	}

	ctx := context.Background()
	st, err := store.NewPostgresStore(ctx, databaseURL)
	if err != nil {
		t.Skipf("PostgreSQL is not available, skipping test: %v", err)
	}
	defer st.Close()
	require.NoError(t, st.EnsureSchema(ctx))

	externalID := time.Now().Format("20060102150405.000000000")
	url := "https://www.bossjob.ph/job/" + externalID
	job := &standardize.Job{
		Source:        "bossjobs",
		ExternalID:    externalID,
		Title:         "Integration Engineer",
		Company:       "Acme Corp",
		Location:      "Manila",
		URL:           url,
		Slug:          standardize.NewSlug("Integration Engineer", "Acme Corp"),
		HashSignature: standardize.HashSignature("Integration Engineer", "Acme Corp", url, "Manila"),
		PostedDate:    time.Now(),
		IsActive:      true,
	}

	outcome, err := st.Upsert(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, store.Created, outcome)

	// Identical content again: only the last-seen timestamp moves.
	repeat := *job
	outcome, err = st.Upsert(ctx, &repeat)
	require.NoError(t, err)
	assert.Equal(t, store.Unchanged, outcome)

	// Changed content rewrites the row, slug intact.
	changed := *job
	changed.Location = "Cebu"
	changed.HashSignature = standardize.HashSignature(changed.Title, changed.Company, changed.URL, "Cebu")
	outcome, err = st.Upsert(ctx, &changed)
	require.NoError(t, err)
	assert.Equal(t, store.Updated, outcome)

	got, err := st.GetBySourceExternalID(ctx, "bossjobs", externalID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Cebu", got.Location)
	assert.Equal(t, job.Slug, got.Slug)

	require.NoError(t, st.SetActive(ctx, "bossjobs", externalID, false))
	got, err = st.GetBySourceExternalID(ctx, "bossjobs", externalID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// Touch re-activates and advances last_seen_at past any earlier cutoff.
	require.NoError(t, st.TouchLastSeen(ctx, "bossjobs", externalID))
	got, err = st.GetBySourceExternalID(ctx, "bossjobs", externalID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	stale, err := st.ListStale(ctx, "bossjobs", time.Now().Add(-time.Minute), 10)
	require.NoError(t, err)
	for _, s := range stale {
		assert.NotEqual(t, externalID, s.ExternalID, "touched posting must not be stale")
	}
}
