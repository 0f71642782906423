package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumnihub/jobingest/internal/fetcher"
)

const bossListingHTML = `<html><body>
	<div class="job-card">
		<a class="job-title" href="/job/12345">Software Engineer</a>
		<span class="company-name">Acme Corp</span>
		<span class="job-location">Makati City</span>
		<span class="salary">PHP 40,000 - 60,000 per month</span>
		<span class="date">3 days ago</span>
	</div>
	<div class="job-card">
		<a class="job-title" href="/job/67890">Data Analyst</a>
		<span class="company-name">Globex Inc</span>
		<span class="job-location">Great perks</span>
		<span class="job-location">Taguig</span>
	</div>
</body></html>`

func testDriver(t *testing.T, domains ...string) *BossJobsDriver {
	t.Helper()
	f := fetcher.New(time.Millisecond, 5*time.Second, nil)
	d := NewBossJobsDriver(f, domains)
	d.now = func() time.Time {
		return time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	}
	return d
}

func TestExtractListCards(t *testing.T) {
	doc := docFrom(t, bossListingHTML)
	d := testDriver(t, "https://www.bossjob.ph")

	jobs := d.ExtractList(doc, "https://www.bossjob.ph", "Manila")
	require.Len(t, jobs, 2)

	first := jobs[0]
	assert.Equal(t, "Software Engineer", first.Title)
	assert.Equal(t, "Acme Corp", first.Company)
	assert.Equal(t, "Makati City", first.Location)
	assert.Equal(t, "https://www.bossjob.ph/job/12345", first.URL)
	assert.Equal(t, "12345", first.SourceID)
	assert.Equal(t, "PHP 40,000 - 60,000 per month", first.SalaryRange)
	assert.Equal(t, time.Date(2026, 8, 17, 12, 0, 0, 0, time.UTC), first.PostedDate)

	second := jobs[1]
	assert.Equal(t, "Data Analyst", second.Title)
	// Badge text is filtered; the real city tag wins.
	assert.Equal(t, "Taguig", second.Location)
}

func TestExtractListAnchorFallback(t *testing.T) {
	html := `<html><body>
		<ul>
			<li><a href="/job/111/senior-developer">Senior Developer</a></li>
			<li><a href="/company/acme">Acme</a></li>
			<li><a href="#apply">Apply now</a></li>
		</ul>
	</body></html>`
	doc := docFrom(t, html)
	d := testDriver(t, "https://www.bossjob.ph")

	jobs := d.ExtractList(doc, "https://www.bossjob.ph", "Manila")
	require.Len(t, jobs, 1)
	assert.Equal(t, "Senior Developer", jobs[0].Title)
	assert.Equal(t, "111", jobs[0].SourceID)
	assert.Equal(t, "Manila", jobs[0].Location)
}

func TestExtractCardFromDataAttribute(t *testing.T) {
	html := `<html><body>
		<div class="job-card" data-job-id="5150">
			<span class="job-title">QA Tester</span>
			<span class="company-name">Initech</span>
		</div>
	</body></html>`
	doc := docFrom(t, html)
	d := testDriver(t, "https://www.bossjob.ph")

	jobs := d.ExtractList(doc, "https://www.bossjob.ph", "")
	require.Len(t, jobs, 1)
	assert.Equal(t, "https://www.bossjob.ph/job/5150", jobs[0].URL)
	assert.Equal(t, "5150", jobs[0].SourceID)
}

func TestSearchJobsZeroCeilingMakesNoRequests(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	d := testDriver(t, srv.URL)
	jobs, err := d.SearchJobs(context.Background(), SearchParams{Query: "engineer", MaxJobs: 0})
	assert.NoError(t, err)
	assert.Nil(t, jobs)
	assert.Zero(t, hits, "no HTTP traffic expected")
}

func TestSearchJobsSweepsPatterns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only the plain listing path serves cards; other patterns are empty.
		if r.URL.Path == "/jobs" && r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, bossListingHTML)
			return
		}
		fmt.Fprint(w, "<html><body></body></html>")
	}))
	defer srv.Close()

	d := testDriver(t, srv.URL)
	jobs, err := d.SearchJobs(context.Background(), SearchParams{
		Query:    "engineer",
		MaxJobs:  10,
		MaxPages: 2,
	})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Software Engineer", jobs[0].Title)
}

func TestSearchJobsRespectsCeiling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, bossListingHTML)
	}))
	defer srv.Close()

	d := testDriver(t, srv.URL)
	jobs, err := d.SearchJobs(context.Background(), SearchParams{
		Query:   "engineer",
		MaxJobs: 1,
	})
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestTitleRepairUsesDetailPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/job/987":
			fmt.Fprint(w, `<html><body>
				<h1 class="job-title">Senior Engineer</h1>
				<span class="company-name">Acme Corporation</span>
			</body></html>`)
		case r.URL.Path == "/jobs":
			fmt.Fprint(w, `<html><body>
				<div class="job-card">
					<a class="job-title" href="/job/987">Acme Corp</a>
					<span class="company-name">Acme Corp</span>
				</div>
			</body></html>`)
		default:
			fmt.Fprint(w, "<html><body></body></html>")
		}
	}))
	defer srv.Close()

	d := testDriver(t, srv.URL)
	jobs, err := d.SearchJobs(context.Background(), SearchParams{Query: "acme", MaxJobs: 5})
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	// The card text stays as the title; the detail page supplies the company.
	assert.Equal(t, "Acme Corp", jobs[0].Title)
	assert.Equal(t, "Acme Corporation", jobs[0].Company)
}

func TestTitleRepairFailureAppendsEmployer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jobs":
			fmt.Fprint(w, `<html><body>
				<div class="job-card">
					<a class="job-title" href="/job/987">Acme Corp</a>
					<span class="company-name">Acme Corp</span>
				</div>
			</body></html>`)
		case "/job/987":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			fmt.Fprint(w, "<html><body></body></html>")
		}
	}))
	defer srv.Close()

	d := testDriver(t, srv.URL)
	jobs, err := d.SearchJobs(context.Background(), SearchParams{Query: "acme", MaxJobs: 5})
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	assert.Equal(t, "Acme Corp", jobs[0].Title)
	assert.Equal(t, "Acme Corp (Employer)", jobs[0].Company)
}

func TestJobDetailsExtractsSections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>DevOps Engineer | BossJobs</title></head><body>
			<h1 class="job-title">DevOps Engineer</h1>
			<span class="company-name">Hooli</span>
			<span class="job-location">Cebu</span>
			<div class="job-description">
				<p>Run our production platform.</p>
				<p>Requirements:</p>
				<li>3+ years with Kubernetes</li>
				<p>Salary: PHP 80,000 per month</p>
			</div>
		</body></html>`)
	}))
	defer srv.Close()

	d := testDriver(t, srv.URL)
	job, err := d.JobDetails(context.Background(), srv.URL+"/job/4242")
	require.NoError(t, err)

	assert.Equal(t, "DevOps Engineer", job.Title)
	assert.Equal(t, "Hooli", job.Company)
	assert.Equal(t, "Cebu", job.Location)
	assert.Equal(t, "4242", job.SourceID)
	assert.Contains(t, job.Description, "Run our production platform.")
	assert.Contains(t, job.Requirements, "3+ years with Kubernetes")
	assert.Contains(t, job.SalaryRange, "PHP 80,000")
}

func TestJobDetailsRejectsNonJobURL(t *testing.T) {
	d := testDriver(t, "https://www.bossjob.ph")
	_, err := d.JobDetails(context.Background(), "https://www.bossjob.ph/company/acme")
	assert.Error(t, err)
}

func TestDedupeJobs(t *testing.T) {
	jobs := []RawJob{
		{Title: "Engineer", Company: "Acme", URL: "https://x/job/1"},
		{Title: "Engineer", Company: "Acme", URL: "https://x/job/1"},
		{Title: "Unknown Title", Company: "Globex", URL: "https://x/job/2"},
		{Title: "Analyst", Company: "Globex", URL: "https://x/job/2"},
	}

	out := dedupeJobs(jobs)
	require.Len(t, out, 2)
	assert.Equal(t, "Engineer", out[0].Title)
	// The real title beats the placeholder for the same URL.
	assert.Equal(t, "Analyst", out[1].Title)
}

func TestCareerCategoriesTaxonomy(t *testing.T) {
	cats := CareerCategories()
	assert.Len(t, cats, 10)
	assert.Contains(t, cats, "technology")
	assert.Contains(t, cats["finance"], "accounting")
}
