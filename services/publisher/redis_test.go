package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumnihub/jobingest/internal/standardize"
)

// This test requires a running Redis instance
// If Redis is not available, the test will be skipped
func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	// A single shard makes the target stream deterministic.
	pub := NewRedisPublisher(ctx, "localhost:6379", 0, "test_jobs", 1, 100)
	defer pub.Close()
	defer client.Del(ctx, "test_jobs:0")

	job := &standardize.Job{
		Source:        "bossjobs",
		ExternalID:    "12345",
		Title:         "Software Engineer",
		Company:       "Acme Corp",
		URL:           "https://www.bossjob.ph/job/12345",
		Slug:          "software-engineer-acme-corp-12abcdef",
		HashSignature: "abc",
		PostedDate:    time.Now(),
		IsActive:      true,
	}
	require.NoError(t, pub.PublishJob(job))

	entries, err := client.XRange(ctx, "test_jobs:0", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	encoded, ok := entries[0].Values["bossjobs"].(string)
	require.True(t, ok, "message should be keyed by source")

	payload, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var got standardize.Job
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "12345", got.ExternalID)
	assert.Equal(t, "Software Engineer", got.Title)

	assert.NoError(t, pub.TrimStreams())
}
