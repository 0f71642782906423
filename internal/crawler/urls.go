package crawler

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

// IsValidJobURL reports whether a href points at an individual job page.
// Company pages, fragment-only anchors and script/mail links never qualify.
func IsValidJobURL(raw string) bool {
	if raw == "" {
		return false
	}
	if strings.Contains(raw, "#") ||
		strings.HasPrefix(raw, "javascript:") ||
		strings.HasPrefix(raw, "mailto:") {
		return false
	}
	if strings.Contains(raw, "/company/") {
		return false
	}
	// A bare listing root is the search page, not a job.
	if strings.HasSuffix(raw, "/jobs/") || strings.HasSuffix(raw, "/job/") {
		return false
	}

	for _, marker := range []string{"/job/", "/jobs/", "/position/"} {
		if strings.Contains(raw, marker) {
			return true
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return reNumericPathSegment.MatchString(u.Path)
}

// ExtractJobID pulls the source's own identifier out of a job URL. When no
// numeric ID is present the path is hashed so the record still gets a
// stable, unique external ID.
func ExtractJobID(raw string) string {
	for _, pattern := range jobIDPatterns {
		if m := pattern.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
	}

	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return ""
	}
	sum := md5.Sum([]byte(u.Path))
	return hex.EncodeToString(sum[:])[:8]
}

// CandidateJobURLs builds the known URL template variants for a job ID
// found in a data attribute. The first template is preferred for emission;
// later validation may swap in a working alternative.
func CandidateJobURLs(baseURL, jobID string) []string {
	base := strings.TrimSuffix(baseURL, "/")
	return []string{
		base + "/job/" + jobID,
		base + "/en-us/job/" + jobID,
		base + "/jobs/" + jobID,
		base + "/position/" + jobID,
	}
}

// ResolveURL makes href absolute against base when it is relative.
func ResolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// TitleFromPath derives a human-readable title from the slug segment of a
// job URL, the last resort when every selector came up empty.
func TitleFromPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		if part == "" || part == "job" || part == "jobs" || part == "position" || isDigits(part) {
			continue
		}
		return titleCaseSlug(part)
	}
	return ""
}

func titleCaseSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
