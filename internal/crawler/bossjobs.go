package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"alumnihub/jobingest/helpers"
	"alumnihub/jobingest/internal/fetcher"
	"alumnihub/jobingest/logger"
	apperr "alumnihub/jobingest/pkg/errors"
)

// SourceBossJobs is the registry name of the BossJobs driver.
const SourceBossJobs = "bossjobs"

// careerCategories maps the fixed category taxonomy to the synonym terms
// swept during category-driven diversification.
var careerCategories = map[string][]string{
	"technology": {
		"technology", "software", "developer", "programmer", "it",
		"engineer", "tech", "data", "computer",
	},
	"finance": {
		"finance", "accounting", "accountant", "banking", "financial",
		"auditor", "tax", "budget", "bookkeeper",
	},
	"healthcare": {
		"healthcare", "medical", "nurse", "doctor", "physician",
		"hospital", "clinic", "patient", "therapy",
	},
	"education": {
		"education", "teaching", "teacher", "instructor", "professor",
		"school", "university", "tutor", "academic",
	},
	"sales_marketing": {
		"sales", "marketing", "advertising", "market", "brand",
		"digital-marketing", "social-media", "promotion",
	},
	"hospitality": {
		"hospitality", "hotel", "restaurant", "tourism", "chef",
		"customer-service", "food", "beverage", "travel",
	},
	"manufacturing": {
		"manufacturing", "production", "factory", "warehouse",
		"logistics", "supply-chain", "quality-control",
	},
	"administrative": {
		"administrative", "office", "clerical", "secretary",
		"receptionist", "assistant", "administration",
	},
	"construction": {
		"construction", "building", "architect", "civil-engineer",
		"electrician", "plumber", "carpenter",
	},
	"creative": {
		"creative", "design", "graphic", "content", "writer",
		"photography", "media", "art", "artist",
	},
}

// CareerCategories returns the category taxonomy keys.
func CareerCategories() map[string][]string {
	return careerCategories
}

// searchPattern is one entry of the URL-pattern matrix. Patterns requiring
// a location are skipped when the search has none.
type searchPattern struct {
	needsLocation bool
	build         func(domain, query, location string, page int) string
}

var bossSearchPatterns = []searchPattern{
	{needsLocation: true, build: func(d, q, l string, p int) string {
		return fmt.Sprintf("%s/jobs/search?q=%s&l=%s&page=%d", d, url.QueryEscape(q), url.QueryEscape(l), p)
	}},
	{needsLocation: true, build: func(d, q, l string, p int) string {
		return fmt.Sprintf("%s/jobs?q=%s&l=%s&page=%d", d, url.QueryEscape(q), url.QueryEscape(l), p)
	}},
	{build: func(d, q, _ string, p int) string {
		return fmt.Sprintf("%s/jobs/search/%s?page=%d", d, url.PathEscape(q), p)
	}},
	{build: func(d, q, _ string, p int) string {
		return fmt.Sprintf("%s/jobs/categories/%s?page=%d", d, url.PathEscape(q), p)
	}},
	{build: func(d, _, _ string, p int) string {
		return fmt.Sprintf("%s/jobs?page=%d", d, p)
	}},
}

// Layered selector chains for BossJobs markup. The site is a SPA whose
// class names churn; each chain is ordered from the current markup down to
// the crudest structural guess.
var (
	bossCardSelectors = []string{
		"div.job-card", "div.job-listing", "div[data-job-id]",
		"div.job-post-card", "div.job-search-card", "div.job-item",
		"div[class*='job-card']", "div[class*='job-listing']",
		"article.job", "div.search-result-card",
	}
	bossLinkSelectors = []string{
		"a[href*='/job/']", "a[href*='/jobs/']", "a[href*='/position/']",
		"a.job-title-link", "a.job-card-title",
		"a[class*='job-title']", "a[class*='title']",
		"h2 a", "h3 a", "h4 a",
	}
	bossCompanySelectors = []string{
		"span.company-name", "div.company-name", "a.company-name",
		"[class*='company-name']", "[class*='employer-name']",
		"span.company", "div.company", ".employer",
		"[itemprop='hiringOrganization']", "[data-company]",
	}
	bossTitleSelectors = []string{
		"[class*='job-title']", "[class*='jobtitle']",
		"a.job-title", "span.job-title", "div.job-title",
		"h2.title", "h3.title", "h2.job-title", "h3.job-title",
		"[itemprop='title']", "[data-job-title]",
	}
	bossLocationSelectors = []string{
		"[class*='job-location']", "span.job-location", "div.job-location",
		"[class*='location']", "span.location", "div.location",
	}
	bossJobTypeSelectors = []string{
		"[class*='job-type']", "span.job-type", "div.job-type",
		"[class*='employment']", "span.employment-type", "div.employment-type",
	}
	bossSalarySelectors = []string{
		"[class*='job-salary']", "span.salary", "div.salary",
		"[class*='salary']", "[class*='compensation']",
	}
	bossSnippetSelectors = []string{
		"[class*='description']", "span.description", "div.description",
		"p.job-snippet", "div.job-snippet", "[class*='snippet']",
	}
	bossDateSelectors = []string{
		"time", "[datetime]", "[class*='date']", "span.date", "div.date",
	}
	bossDetailTitleSelectors = []string{
		"h1[class*='title']", "h1.job-title", "h1", "h2.job-title", "[class*='job-title']",
	}
	bossDetailDescSelectors = []string{
		"[class*='job-description']", "div.job-description",
		"[class*='description']", "article", "div.details",
	}
)

// BossJobsDriver crawls job postings from BossJobs.
type BossJobsDriver struct {
	fetch    *fetcher.Fetcher
	domains  []string
	jobsSeen map[string]struct{}
	log      *logger.Logger
	now      func() time.Time
}

// NewBossJobsDriver creates a BossJobs driver. The driver owns jobsSeen for
// the lifetime of one search and must not be shared across parallel searches.
func NewBossJobsDriver(f *fetcher.Fetcher, domains []string) *BossJobsDriver {
	if len(domains) == 0 {
		domains = []string{"https://www.bossjob.ph", "https://www.bossjob.com"}
	}
	return &BossJobsDriver{
		fetch:    f,
		domains:  domains,
		jobsSeen: make(map[string]struct{}),
		log:      logger.ForDriver(SourceBossJobs),
		now:      time.Now,
	}
}

// SourceName returns the driver's source identifier.
func (d *BossJobsDriver) SourceName() string {
	return SourceBossJobs
}

// SearchJobs walks the URL-pattern matrix, then category synonyms, then the
// browse-all listing, deduplicates and truncates to params.MaxJobs.
func (d *BossJobsDriver) SearchJobs(ctx context.Context, params SearchParams) ([]RawJob, error) {
	if params.MaxJobs <= 0 {
		return nil, nil
	}
	maxPages := params.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}

	start := d.now()
	var jobs []RawJob

	// Phase 1: the fixed (domain, pattern) matrix.
	for _, domain := range d.domains {
		if len(jobs) >= params.MaxJobs {
			break
		}
		for _, pat := range bossSearchPatterns {
			if pat.needsLocation && params.Location == "" {
				continue
			}
			found := d.walkPattern(ctx, domain, pat, params, maxPages, &jobs)
			if len(jobs) >= params.MaxJobs {
				break
			}
			if found {
				// This pattern works for this domain; no point probing the rest.
				break
			}
		}
	}

	// Phase 2: category synonym sweep.
	if params.Category != "" && len(jobs) < params.MaxJobs {
		if terms, ok := careerCategories[params.Category]; ok {
			d.sweepCategoryTerms(ctx, terms, params, &jobs)
		}
	}

	// Phase 3: browse-all fallback when the result set is thin.
	if len(jobs) < params.MaxJobs/2 {
		d.browseAll(ctx, params, &jobs)
	}

	jobs = dedupeJobs(jobs)
	if len(jobs) > params.MaxJobs {
		jobs = jobs[:params.MaxJobs]
	}

	d.repairTitles(ctx, jobs)

	d.log.Info().
		Str("event", "search_complete").
		Str("source", SourceBossJobs).
		Str("query", params.Query).
		Int("count", len(jobs)).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("BossJobs search complete")

	return jobs, nil
}

// walkPattern paginates one pattern until a page yields zero new records or
// the job ceiling is hit. Returns whether the pattern produced anything new.
func (d *BossJobsDriver) walkPattern(ctx context.Context, domain string, pat searchPattern, params SearchParams, maxPages int, jobs *[]RawJob) bool {
	found := false
	for page := 1; page <= maxPages; page++ {
		if len(*jobs) >= params.MaxJobs {
			return found
		}
		pageURL := pat.build(domain, params.Query, params.Location, page)
		if params.JobType != "" && strings.Contains(pageURL, "?") {
			pageURL += "&jt=" + url.QueryEscape(params.JobType)
		}

		pageJobs, err := d.scrapePage(ctx, domain, pageURL, params.Location)
		if err != nil {
			d.log.Warn().
				Str("event", "pattern_error").
				Str("url", pageURL).
				Err(err).
				Msg("Search URL failed, moving on")
			return found
		}

		newJobs := d.filterNew(pageJobs, params.Category)
		if len(newJobs) == 0 {
			return found
		}
		found = true
		*jobs = append(*jobs, d.capTo(newJobs, params.MaxJobs-len(*jobs))...)

		d.log.Debug().
			Str("event", "page_scraped").
			Str("url", pageURL).
			Int("page", page).
			Int("count", len(newJobs)).
			Msg("New jobs from page")
	}
	return found
}

// sweepCategoryTerms walks the per-category synonym URLs, paginating each
// working one up to page 5.
func (d *BossJobsDriver) sweepCategoryTerms(ctx context.Context, terms []string, params SearchParams, jobs *[]RawJob) {
	for _, domain := range d.domains {
		if len(*jobs) >= params.MaxJobs {
			return
		}
		for _, term := range terms {
			if len(*jobs) >= params.MaxJobs {
				return
			}
			categoryURLs := []string{
				domain + "/jobs/categories/" + url.PathEscape(term),
				domain + "/jobs/tag/" + url.PathEscape(term),
				domain + "/jobs/" + url.PathEscape(term),
			}
			for _, catURL := range categoryURLs {
				if len(*jobs) >= params.MaxJobs {
					return
				}
				pageJobs, err := d.scrapePage(ctx, domain, catURL, params.Location)
				if err != nil {
					d.log.Warn().Str("event", "category_error").Str("url", catURL).Err(err).Msg("Category URL failed")
					continue
				}
				newJobs := d.filterNew(pageJobs, params.Category)
				if len(newJobs) == 0 {
					continue
				}
				*jobs = append(*jobs, d.capTo(newJobs, params.MaxJobs-len(*jobs))...)

				for page := 2; page <= 5; page++ {
					if len(*jobs) >= params.MaxJobs {
						return
					}
					pageJobs, err := d.scrapePage(ctx, domain, fmt.Sprintf("%s?page=%d", catURL, page), params.Location)
					if err != nil {
						break
					}
					newJobs := d.filterNew(pageJobs, params.Category)
					if len(newJobs) == 0 {
						break
					}
					*jobs = append(*jobs, d.capTo(newJobs, params.MaxJobs-len(*jobs))...)
				}
			}
		}
	}
}

// browseAll sweeps the top-level listing, up to 10 pages per domain.
func (d *BossJobsDriver) browseAll(ctx context.Context, params SearchParams, jobs *[]RawJob) {
	for _, domain := range d.domains {
		if len(*jobs) >= params.MaxJobs {
			return
		}
		for page := 1; page <= 10; page++ {
			if len(*jobs) >= params.MaxJobs {
				return
			}
			pageURL := domain + "/jobs"
			if page > 1 {
				pageURL = fmt.Sprintf("%s?page=%d", pageURL, page)
			}
			pageJobs, err := d.scrapePage(ctx, domain, pageURL, params.Location)
			if err != nil {
				d.log.Warn().Str("event", "browse_error").Str("url", pageURL).Err(err).Msg("Browse URL failed")
				break
			}
			newJobs := d.filterNew(pageJobs, params.Category)
			if len(newJobs) == 0 {
				break
			}
			*jobs = append(*jobs, d.capTo(newJobs, params.MaxJobs-len(*jobs))...)
		}
	}
}

// filterNew drops records already seen during this search and tags the
// survivors with the category context.
func (d *BossJobsDriver) filterNew(found []RawJob, category string) []RawJob {
	var out []RawJob
	for _, j := range found {
		if _, seen := d.jobsSeen[j.URL]; seen {
			continue
		}
		d.jobsSeen[j.URL] = struct{}{}
		if category != "" {
			j.Category = category
		}
		out = append(out, j)
	}
	return out
}

func (d *BossJobsDriver) capTo(jobs []RawJob, n int) []RawJob {
	if n < 0 {
		n = 0
	}
	if len(jobs) > n {
		return jobs[:n]
	}
	return jobs
}

// scrapePage fetches one search-results page and extracts its job cards.
func (d *BossJobsDriver) scrapePage(ctx context.Context, domain, pageURL, searchLocation string) ([]RawJob, error) {
	res, err := d.fetch.Fetch(ctx, pageURL, map[string]string{"Referer": domain})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(res.Body)))
	if err != nil {
		return nil, apperr.NewParse(SourceBossJobs, "failed to parse search page", err)
	}

	return d.ExtractList(doc, domain, searchLocation), nil
}

// ExtractList turns a parsed search-results page into raw job records.
// Cards are located by the layered card selectors; when no card selector
// matches, any job-shaped anchors on the page are used instead.
func (d *BossJobsDriver) ExtractList(doc *goquery.Document, domain, searchLocation string) []RawJob {
	var jobs []RawJob

	var cards *goquery.Selection
	for _, sel := range bossCardSelectors {
		found := doc.Find(sel)
		if found.Length() > 0 {
			cards = found
			break
		}
	}

	if cards != nil {
		cards.Each(func(_ int, card *goquery.Selection) {
			if job := d.extractCard(card, domain, searchLocation); job != nil {
				jobs = append(jobs, *job)
			}
		})
		if len(jobs) > 0 {
			return jobs
		}
	}

	// Fallback: scan loose anchors that look like job links.
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		jobURL := ResolveURL(domain, href)
		if !IsValidJobURL(jobURL) {
			return
		}
		jobID := ExtractJobID(jobURL)
		if jobID == "" {
			return
		}

		title := helpers.CollapseWhitespace(link.Text())
		if title == "" {
			title = TitleFromPath(jobURL)
		}
		if title == "" {
			title = placeholderTitle
		}

		jobs = append(jobs, RawJob{
			Title:      title,
			Company:    placeholderCompany,
			Location:   searchLocation,
			URL:        jobURL,
			SourceID:   jobID,
			PostedDate: d.now(),
		})
	})

	return jobs
}

// extractCard extracts a single card. Returns nil when no valid job URL can
// be found, the card being an ad or a company teaser in that case.
func (d *BossJobsDriver) extractCard(card *goquery.Selection, domain, searchLocation string) *RawJob {
	jobURL := d.extractCardURL(card, domain)
	if jobURL == "" {
		return nil
	}
	jobID := ExtractJobID(jobURL)
	if jobID == "" {
		return nil
	}

	company := firstText(card, bossCompanySelectors)
	if company == "" {
		company = placeholderCompany
	}

	// Card title. The site's known failure mode leaves the company string
	// in the title slot; that is detected later and repaired via the
	// detail page, so equality with company is accepted here.
	title := firstText(card, bossTitleSelectors)
	if title == "" {
		if linkText := helpers.CollapseWhitespace(card.Find("a").First().Text()); linkText != "" {
			title = linkText
		}
	}
	if title == "" {
		title = firstText(card, []string{"h1", "h2", "h3", "h4", "h5"})
	}
	if title == "" {
		title = TitleFromPath(jobURL)
	}
	if title == "" {
		title = placeholderTitle
	}

	location := extractLocation(card, bossLocationSelectors)
	if location == "" {
		location = searchLocation
	}

	snippet := firstText(card, bossSnippetSelectors)

	salary := firstText(card, bossSalarySelectors)
	if salary == "" {
		salary = salaryFromText(title, snippet)
	}

	jobType := firstText(card, bossJobTypeSelectors)
	if jobType == "" {
		jobType = jobTypeFromText(title, snippet)
	}

	postedDate := d.now()
	if dateText := firstText(card, bossDateSelectors); dateText != "" {
		postedDate = parseRelativeDate(dateText, d.now())
	}

	return &RawJob{
		Title:       title,
		Company:     company,
		Location:    location,
		URL:         jobURL,
		SourceID:    jobID,
		Description: snippet,
		JobType:     jobType,
		SalaryRange: salary,
		PostedDate:  postedDate,
	}
}

// extractCardURL finds the card's job link, falling back to URL templates
// built from data attributes when the SPA renders cards without hrefs.
func (d *BossJobsDriver) extractCardURL(card *goquery.Selection, domain string) string {
	for _, sel := range bossLinkSelectors {
		href, exists := card.Find(sel).First().Attr("href")
		if !exists {
			continue
		}
		jobURL := ResolveURL(domain, href)
		if IsValidJobURL(jobURL) {
			return jobURL
		}
	}

	for _, attr := range []string{"data-job-id", "data-position-id"} {
		id := firstAttr(card, []string{"[" + attr + "]"}, attr)
		if id == "" {
			if v, ok := card.Attr(attr); ok {
				id = strings.TrimSpace(v)
			}
		}
		if id != "" {
			// First template preferred; redirects swap in an alternative
			// when the detail fetch later 404s.
			return CandidateJobURLs(domain, id)[0]
		}
	}

	return ""
}

// repairTitles runs the title-repair pass: when a card's title equals its
// company string, the detail page supplies the real company while the card
// text (which carries the English descriptor and salary hints) stays as the
// title. A failed detail fetch gets the company an " (Employer)" suffix so
// the pathology cannot reach the store.
func (d *BossJobsDriver) repairTitles(ctx context.Context, jobs []RawJob) {
	for i := range jobs {
		job := &jobs[i]
		if job.URL == "" || job.Title == "" || job.Title != job.Company {
			continue
		}

		d.log.Warn().
			Str("event", "title_repair").
			Str("url", job.URL).
			Str("title", job.Title).
			Msg("Card title equals company, fetching detail page")

		detail, err := d.JobDetails(ctx, job.URL)
		if err != nil || detail == nil || detail.Company == "" || detail.Company == placeholderCompany {
			job.Company = job.Company + " (Employer)"
			continue
		}
		job.Company = detail.Company
	}
}

// JobDetails fetches and extracts a single job page.
func (d *BossJobsDriver) JobDetails(ctx context.Context, jobURL string) (*RawJob, error) {
	if !IsValidJobURL(jobURL) {
		return nil, apperr.NewValidation(SourceBossJobs, fmt.Sprintf("not a valid job URL: %s", jobURL))
	}
	jobID := ExtractJobID(jobURL)
	if jobID == "" {
		return nil, apperr.NewValidation(SourceBossJobs, fmt.Sprintf("no job ID in URL: %s", jobURL))
	}

	res, err := d.fetch.Fetch(ctx, jobURL, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(res.Body)))
	if err != nil {
		return nil, apperr.NewParse(SourceBossJobs, "failed to parse detail page", err)
	}

	job := d.ExtractDetail(doc, res.FinalURL)
	job.SourceID = jobID
	if job.URL == "" {
		job.URL = jobURL
	}
	return job, nil
}

// ExtractDetail extracts a full record from a parsed job detail page.
func (d *BossJobsDriver) ExtractDetail(doc *goquery.Document, jobURL string) *RawJob {
	originalTitle := firstText(doc.Selection, bossDetailTitleSelectors)
	if originalTitle == "" {
		originalTitle = strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	}
	if originalTitle == "" {
		originalTitle = docTitle(doc)
	}
	if originalTitle == "" {
		originalTitle = TitleFromPath(jobURL)
	}
	title := englishTitle(originalTitle)
	if title == "" {
		title = originalTitle
	}
	if title == "" {
		title = placeholderTitle
	}

	company := firstText(doc.Selection, bossCompanySelectors)
	if company == "" {
		company = placeholderCompany
	}

	location := firstText(doc.Selection, bossLocationSelectors)

	description := extractDescription(doc)

	salary := firstText(doc.Selection, bossSalarySelectors)
	if salary == "" {
		salary = salaryFromText(originalTitle, description, doc.Text())
	}

	jobType := firstText(doc.Selection, bossJobTypeSelectors)
	if jobType == "" {
		jobType = jobTypeFromText(originalTitle, description)
	}

	postedDate := d.now()
	if dateText := firstText(doc.Selection, bossDateSelectors); dateText != "" {
		postedDate = parseRelativeDate(dateText, d.now())
	}

	return &RawJob{
		Title:            title,
		Company:          company,
		Location:         location,
		URL:              jobURL,
		Description:      description,
		JobType:          jobType,
		SalaryRange:      salary,
		Requirements:     sectionText(description, reRequirements),
		Responsibilities: sectionText(description, reResponsibilities),
		Skills:           sectionText(description, reSkills),
		PostedDate:       postedDate,
	}
}

// extractDescription finds the description block, flattens it to
// newline-separated text and keeps the English paragraphs.
func extractDescription(doc *goquery.Document) string {
	var block *goquery.Selection
	for _, sel := range bossDetailDescSelectors {
		found := doc.Find(sel).First()
		if found.Length() > 0 {
			block = found
			break
		}
	}
	if block == nil {
		return ""
	}

	var lines []string
	block.Find("p, li, h2, h3, h4").Each(func(_ int, node *goquery.Selection) {
		if text := helpers.CollapseWhitespace(node.Text()); text != "" {
			lines = append(lines, text)
		}
	})

	text := strings.Join(lines, "\n")
	if text == "" {
		text = helpers.CollapseWhitespace(block.Text())
	}
	return englishParagraphs(text)
}

// englishTitle keeps the ASCII-letter runs of a mixed-script title when
// they amount to a meaningful English descriptor.
func englishTitle(title string) string {
	var runs []string
	var current strings.Builder
	for _, r := range title {
		if r == ' ' || r == '-' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			runs = append(runs, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		runs = append(runs, strings.TrimSpace(current.String()))
	}

	joined := helpers.CollapseWhitespace(strings.Join(runs, " "))
	if len(joined) > 5 {
		return joined
	}
	return ""
}

// docTitle returns the document <title> with the usual " | site" or
// " - site" suffix stripped.
func docTitle(doc *goquery.Document) string {
	t := helpers.CollapseWhitespace(doc.Find("title").First().Text())
	if t == "" {
		return ""
	}
	for _, sep := range []string{" | ", " - "} {
		if idx := strings.Index(t, sep); idx > 0 {
			return strings.TrimSpace(t[:idx])
		}
	}
	return t
}

// dedupeJobs collapses the result set first by (title, company), then by
// URL, preferring records with a real title over "Unknown Title" stubs.
func dedupeJobs(jobs []RawJob) []RawJob {
	type slot struct {
		index int
	}

	byKey := make(map[string]slot)
	var stage []RawJob
	for _, j := range jobs {
		key := j.Title + "\x00" + j.Company
		if s, ok := byKey[key]; ok {
			if stage[s.index].Title == placeholderTitle && j.Title != placeholderTitle {
				stage[s.index] = j
			}
			continue
		}
		byKey[key] = slot{index: len(stage)}
		stage = append(stage, j)
	}

	byURL := make(map[string]slot)
	var out []RawJob
	for _, j := range stage {
		if s, ok := byURL[j.URL]; ok {
			if out[s.index].Title == placeholderTitle && j.Title != placeholderTitle {
				out[s.index] = j
			}
			continue
		}
		byURL[j.URL] = slot{index: len(out)}
		out = append(out, j)
	}
	return out
}
