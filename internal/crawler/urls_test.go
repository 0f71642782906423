package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidJobURL(t *testing.T) {
	valid := []string{
		"https://www.bossjob.ph/job/12345",
		"https://www.bossjob.ph/jobs/software-engineer/9876",
		"https://example.com/position/555",
		"https://example.com/openings/123456",
	}
	for _, u := range valid {
		assert.True(t, IsValidJobURL(u), u)
	}

	invalid := []string{
		"",
		"javascript:void(0)",
		"mailto:hr@example.com",
		"https://www.bossjob.ph/job/123#apply",
		"https://www.bossjob.ph/company/acme",
		"https://www.bossjob.ph/jobs/",
		"https://www.bossjob.ph/job/",
		"https://www.bossjob.ph/about",
	}
	for _, u := range invalid {
		assert.False(t, IsValidJobURL(u), u)
	}
}

func TestExtractJobID(t *testing.T) {
	assert.Equal(t, "12345", ExtractJobID("https://www.bossjob.ph/job/12345"))
	assert.Equal(t, "9876", ExtractJobID("https://www.bossjob.ph/jobs/software-engineer/9876"))
	assert.Equal(t, "424242", ExtractJobID("https://www.bossjob.ph/jobs/view/424242"))
	assert.Equal(t, "abc123def456", ExtractJobID("https://ph.indeed.com/viewjob?jk=abc123def456"))
}

func TestExtractJobIDHashesSluggyPaths(t *testing.T) {
	id := ExtractJobID("https://www.bossjob.ph/job/senior-software-engineer")
	assert.Len(t, id, 8)
	// Stable across calls.
	assert.Equal(t, id, ExtractJobID("https://www.bossjob.ph/job/senior-software-engineer"))
}

func TestCandidateJobURLs(t *testing.T) {
	urls := CandidateJobURLs("https://www.bossjob.ph/", "777")
	assert.Equal(t, []string{
		"https://www.bossjob.ph/job/777",
		"https://www.bossjob.ph/en-us/job/777",
		"https://www.bossjob.ph/jobs/777",
		"https://www.bossjob.ph/position/777",
	}, urls)
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://www.bossjob.ph/job/1",
		ResolveURL("https://www.bossjob.ph", "/job/1"))
	assert.Equal(t, "https://other.com/job/2",
		ResolveURL("https://www.bossjob.ph", "https://other.com/job/2"))
	assert.Equal(t, "", ResolveURL("https://www.bossjob.ph", "  "))
}

func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "Senior Software Engineer",
		TitleFromPath("https://www.bossjob.ph/job/senior-software-engineer/12345"))
	assert.Equal(t, "Data Analyst",
		TitleFromPath("https://www.bossjob.ph/jobs/data-analyst"))
	assert.Equal(t, "", TitleFromPath("https://www.bossjob.ph/job/12345"))
}
