package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "alumnihub/jobingest/pkg/errors"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("cache miss: %s", key)
}

func (c *mapCache) Set(key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func testFetcher(cacheSvc *mapCache) *Fetcher {
	if cacheSvc == nil {
		return New(time.Millisecond, 5*time.Second, nil)
	}
	return New(time.Millisecond, 5*time.Second, cacheSvc)
}

func TestFetchSuccess(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, "<html><body>ok</body></html>")
	}))
	defer srv.Close()

	res, err := testFetcher(nil).Fetch(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(res.Body), "ok")
	assert.NotEmpty(t, gotUA)
}

func TestFetchForbiddenRetriesOnceWithAltHeaders(t *testing.T) {
	var requests []struct {
		ua      string
		referer string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, struct {
			ua      string
			referer string
		}{r.Header.Get("User-Agent"), r.Header.Get("Referer")})
		if len(requests) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "<html>recovered</html>")
	}))
	defer srv.Close()

	res, err := testFetcher(nil).Fetch(context.Background(), srv.URL+"/job/123", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	require.Len(t, requests, 2)
	assert.NotEqual(t, requests[0].ua, requests[1].ua)
	assert.Contains(t, requests[1].referer, "/jobs-hiring")
}

func TestFetchForbiddenTwiceFails(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	res, err := testFetcher(nil).Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, 2, count)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	var ie *apperr.IngestError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, apperr.ErrorTypeNetwork, ie.Type)
}

func TestFetchRateLimitBlocksHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cacheSvc := newMapCache()
	f := testFetcher(cacheSvc)

	_, err := f.Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)
	var ie *apperr.IngestError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, apperr.ErrorTypeRateLimit, ie.Type)

	u, _ := url.Parse(srv.URL)
	_, cacheErr := cacheSvc.Get("fetch_blocked:" + u.Host)
	assert.NoError(t, cacheErr, "host should be marked blocked")

	// Subsequent fetches short-circuit without hitting the server.
	_, err = f.Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, apperr.ErrorTypeRateLimit, ie.Type)
}

func TestFetchExtraHeaders(t *testing.T) {
	var gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	_, err := testFetcher(nil).Fetch(context.Background(), srv.URL, map[string]string{
		"Referer": "https://example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", gotReferer)
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res, err := testFetcher(nil).Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}
