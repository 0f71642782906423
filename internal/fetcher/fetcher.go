// Package fetcher issues throttled, browser-like HTTP GETs against job
// board hosts. A Fetcher is cooperative, not parallel-safe: each crawler
// driver owns its own instance.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"alumnihub/jobingest/logger"
	apperr "alumnihub/jobingest/pkg/errors"
	"alumnihub/jobingest/services/cache"
)

var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	}

	// altUserAgent is used for the single 403 recovery attempt. The Edge
	// string tends to pass bot checks that reject the Chrome pool.
	altUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0"
)

// blockTime is how long a host stays blocked after the remote rate limits us.
const blockTime = 500 * time.Second

// Result is the outcome of a single fetch.
type Result struct {
	StatusCode int
	Body       []byte
	FinalURL   string
}

// Fetcher owns an HTTP session and a per-instance request throttle.
type Fetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	cacheSvc cache.CacheService
	rnd      *mathrand.Rand
	log      *logger.Logger
}

// New creates a Fetcher enforcing a minimum gap of delay between requests.
// cacheSvc may be nil; when set it is consulted for per-host block keys.
func New(delay, timeout time.Duration, cacheSvc cache.CacheService) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Every(delay), 1),
		cacheSvc: cacheSvc,
		rnd:      mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		log:      logger.ForFetcher(),
	}
}

// Fetch performs a throttled GET against rawURL. Extra headers override the
// browser defaults (commonly a Referer). On HTTP 403 it retries exactly once
// with an alternate User-Agent and a site-root Referer. Any non-2xx status
// after recovery is returned as an error alongside the partial Result.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, extra map[string]string) (*Result, error) {
	host := hostOf(rawURL)

	if f.cacheSvc != nil && host != "" {
		if _, err := f.cacheSvc.Get(blockKey(host)); err == nil {
			return nil, apperr.NewRateLimit(host, blockTime)
		}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, apperr.NewNetwork(host, "throttle wait interrupted", err)
	}

	res, err := f.doRequest(ctx, rawURL, extra, userAgents[f.rnd.Intn(len(userAgents))])
	if err != nil {
		return nil, err
	}

	if res.StatusCode == http.StatusForbidden {
		f.log.Warn().
			Str("event", "forbidden").
			Str("url", rawURL).
			Msg("Received 403, retrying with alternate headers")

		alt := map[string]string{
			"Referer":         siteRoot(rawURL) + "/jobs-hiring",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		}
		for k, v := range extra {
			alt[k] = v
		}
		res, err = f.doRequest(ctx, rawURL, alt, altUserAgent)
		if err != nil {
			return nil, err
		}
		if res.StatusCode == http.StatusForbidden {
			return res, apperr.NewNetwork(host, fmt.Sprintf("access blocked (HTTP 403) at %s", rawURL), nil)
		}
	}

	if res.StatusCode == http.StatusTooManyRequests || res.StatusCode == 430 {
		if f.cacheSvc != nil && host != "" {
			f.cacheSvc.Set(blockKey(host), []byte(fmt.Sprintf("%d", blockTime/time.Second)), blockTime)
		}
		return res, apperr.NewRateLimit(host, blockTime)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return res, apperr.NewNetwork(host, fmt.Sprintf("unexpected status %d fetching %s", res.StatusCode, rawURL), nil)
	}

	return res, nil
}

// doRequest issues a single GET with browser-like headers and converts the
// body to UTF-8 when the page declares another encoding.
func (f *Fetcher) doRequest(ctx context.Context, rawURL string, extra map[string]string, userAgent string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperr.NewNetwork(hostOf(rawURL), "failed to create request", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,fil;q=0.8")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperr.NewNetwork(hostOf(rawURL), "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.NewNetwork(hostOf(rawURL), "failed to read response body", err)
	}

	utf8Body, err := toUTF8(bodyBytes, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, apperr.NewParse(hostOf(rawURL), "failed to convert body to UTF-8", err)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Body:       utf8Body,
		FinalURL:   finalURL,
	}, nil
}

// toUTF8 converts the body to UTF-8 based on the Content-Type header and
// the body content itself.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return body, nil
	}

	reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func siteRoot(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(rawURL, "/")
	}
	return u.Scheme + "://" + u.Host
}

func blockKey(host string) string {
	return "fetch_blocked:" + host
}
