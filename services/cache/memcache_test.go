package cache

import (
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")

	// Test if memcached is available
	_, err := mc.client.Get("test")
	if err != nil && err != memcache.ErrCacheMiss {
		t.Skip("Memcached is not available, skipping test")
	}

	key := "fetch_blocked:test.example.com"
	err = mc.Set(key, []byte("500"), 2*time.Second)
	assert.NoError(t, err)

	value, err := mc.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, []byte("500"), value)

	err = mc.Delete(key)
	assert.NoError(t, err)

	_, err = mc.Get(key)
	assert.Equal(t, memcache.ErrCacheMiss, err)
}
