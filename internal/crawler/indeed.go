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

// SourceIndeed is the registry name of the Indeed driver.
const SourceIndeed = "indeed"

// indeedJobTypes maps the generic job-type filter onto Indeed's jt values.
var indeedJobTypes = map[string]string{
	"fulltime":   "fulltime",
	"full-time":  "fulltime",
	"parttime":   "parttime",
	"part-time":  "parttime",
	"contract":   "contract",
	"temporary":  "temporary",
	"internship": "internship",
}

var (
	indeedCardSelectors = []string{
		"div.job_seen_beacon", "div.jobsearch-SerpJobCard",
		"div[data-jk]", "td.resultContent", "div.result",
	}
	indeedTitleSelectors = []string{
		"h2.jobTitle span[title]", "h2.jobTitle a", "h2.jobTitle",
		"a.jcs-JobTitle", "[class*='jobTitle']",
	}
	indeedCompanySelectors = []string{
		"span.companyName", "[data-testid='company-name']",
		"span[class*='companyName']", "div.company",
	}
	indeedLocationSelectors = []string{
		"div.companyLocation", "[data-testid='text-location']",
		"div[class*='companyLocation']", "span.location",
	}
	indeedSalarySelectors = []string{
		"div.salary-snippet-container", "span.salary-snippet",
		"[class*='salary']", "div.metadata.salary-snippet-container",
	}
	indeedSnippetSelectors = []string{
		"div.job-snippet", "[class*='snippet']", "div.summary",
	}
	indeedDateSelectors = []string{
		"span.date", "[class*='date']", "span.new",
	}
	indeedDetailTitleSelectors = []string{
		"h1.jobsearch-JobInfoHeader-title", "h1[class*='JobInfoHeader']", "h1",
	}
	indeedDetailCompanySelectors = []string{
		"div[data-company-name]", "[data-testid='inlineHeader-companyName']",
		"div.jobsearch-InlineCompanyRating div", "span.companyName",
	}
	indeedDetailDescSelectors = []string{
		"div#jobDescriptionText", "div.jobsearch-jobDescriptionText",
		"[class*='jobDescription']",
	}
)

// IndeedDriver crawls job postings from Indeed.
type IndeedDriver struct {
	fetch    *fetcher.Fetcher
	baseURL  string
	jobsSeen map[string]struct{}
	log      *logger.Logger
	now      func() time.Time
}

// NewIndeedDriver creates an Indeed driver bound to one regional domain.
func NewIndeedDriver(f *fetcher.Fetcher, baseURL string) *IndeedDriver {
	if baseURL == "" {
		baseURL = "https://ph.indeed.com"
	}
	return &IndeedDriver{
		fetch:    f,
		baseURL:  strings.TrimRight(baseURL, "/"),
		jobsSeen: make(map[string]struct{}),
		log:      logger.ForDriver(SourceIndeed),
		now:      time.Now,
	}
}

// SourceName returns the driver's source identifier.
func (d *IndeedDriver) SourceName() string {
	return SourceIndeed
}

// SearchJobs paginates Indeed's search results (10 cards per page) until the
// job ceiling is reached or a page yields nothing new.
func (d *IndeedDriver) SearchJobs(ctx context.Context, params SearchParams) ([]RawJob, error) {
	if params.MaxJobs <= 0 {
		return nil, nil
	}
	maxPages := params.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}

	var jobs []RawJob
	for page := 0; page < maxPages; page++ {
		if len(jobs) >= params.MaxJobs {
			break
		}

		pageURL := d.searchURL(params, page)
		res, err := d.fetch.Fetch(ctx, pageURL, map[string]string{"Referer": d.baseURL})
		if err != nil {
			d.log.Warn().
				Str("event", "page_error").
				Str("url", pageURL).
				Err(err).
				Msg("Search page failed")
			if len(jobs) > 0 {
				break
			}
			return nil, err
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(res.Body)))
		if err != nil {
			return jobs, apperr.NewParse(SourceIndeed, "failed to parse search page", err)
		}

		var pageNew int
		for _, job := range d.ExtractList(doc, params.Location) {
			if _, seen := d.jobsSeen[job.URL]; seen {
				continue
			}
			d.jobsSeen[job.URL] = struct{}{}
			if params.Category != "" {
				job.Category = params.Category
			}
			jobs = append(jobs, job)
			pageNew++
			if len(jobs) >= params.MaxJobs {
				break
			}
		}

		d.log.Debug().
			Str("event", "page_scraped").
			Str("url", pageURL).
			Int("page", page).
			Int("count", pageNew).
			Msg("New jobs from page")

		if pageNew == 0 {
			break
		}
	}

	return jobs, nil
}

// searchURL builds an Indeed search URL for a zero-based page index.
func (d *IndeedDriver) searchURL(params SearchParams, page int) string {
	q := url.Values{}
	q.Set("q", params.Query)
	if params.Location != "" {
		q.Set("l", params.Location)
	}
	if jt, ok := indeedJobTypes[strings.ToLower(params.JobType)]; ok {
		q.Set("jt", jt)
	}
	if params.Radius > 0 {
		q.Set("radius", fmt.Sprintf("%d", params.Radius))
	}
	if params.Days > 0 {
		q.Set("fromage", fmt.Sprintf("%d", params.Days))
	}
	if page > 0 {
		q.Set("start", fmt.Sprintf("%d", page*10))
	}
	return d.baseURL + "/jobs?" + q.Encode()
}

// ExtractList turns a parsed search-results page into raw job records.
func (d *IndeedDriver) ExtractList(doc *goquery.Document, searchLocation string) []RawJob {
	var jobs []RawJob

	var cards *goquery.Selection
	for _, sel := range indeedCardSelectors {
		found := doc.Find(sel)
		if found.Length() > 0 {
			cards = found
			break
		}
	}
	if cards == nil {
		return nil
	}

	cards.Each(func(_ int, card *goquery.Selection) {
		if job := d.extractCard(card, searchLocation); job != nil {
			jobs = append(jobs, *job)
		}
	})
	return jobs
}

// extractCard extracts one result card. Sponsored blocks without a data-jk
// key or a job href are skipped.
func (d *IndeedDriver) extractCard(card *goquery.Selection, searchLocation string) *RawJob {
	jobKey := firstAttr(card, []string{"a[data-jk]", "[data-jk]"}, "data-jk")
	if jobKey == "" {
		if v, ok := card.Attr("data-jk"); ok {
			jobKey = strings.TrimSpace(v)
		}
	}

	var jobURL string
	if jobKey != "" {
		jobURL = d.baseURL + "/viewjob?jk=" + url.QueryEscape(jobKey)
	} else {
		href := firstAttr(card, []string{"h2.jobTitle a", "a.jcs-JobTitle", "a[href*='/viewjob']", "a[href*='/rc/clk']"}, "href")
		if href == "" {
			return nil
		}
		jobURL = ResolveURL(d.baseURL, href)
		jobKey = ExtractJobID(jobURL)
	}
	if jobKey == "" {
		return nil
	}

	title := firstText(card, indeedTitleSelectors)
	if title == "" {
		title = firstAttr(card, []string{"h2.jobTitle span[title]"}, "title")
	}
	if title == "" {
		title = placeholderTitle
	}

	company := firstText(card, indeedCompanySelectors)
	if company == "" {
		company = placeholderCompany
	}

	location := extractLocation(card, indeedLocationSelectors)
	if location == "" {
		location = searchLocation
	}

	snippet := firstText(card, indeedSnippetSelectors)

	salary := firstText(card, indeedSalarySelectors)
	if salary == "" {
		salary = salaryFromText(title, snippet)
	}

	postedDate := d.now()
	if dateText := firstText(card, indeedDateSelectors); dateText != "" {
		postedDate = parseRelativeDate(dateText, d.now())
	}

	return &RawJob{
		Title:       title,
		Company:     company,
		Location:    location,
		URL:         jobURL,
		SourceID:    jobKey,
		Description: snippet,
		JobType:     jobTypeFromText(title, snippet),
		SalaryRange: salary,
		PostedDate:  postedDate,
	}
}

// JobDetails fetches and extracts a single Indeed job page.
func (d *IndeedDriver) JobDetails(ctx context.Context, jobURL string) (*RawJob, error) {
	res, err := d.fetch.Fetch(ctx, jobURL, map[string]string{"Referer": d.baseURL})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(res.Body)))
	if err != nil {
		return nil, apperr.NewParse(SourceIndeed, "failed to parse detail page", err)
	}

	title := firstText(doc.Selection, indeedDetailTitleSelectors)
	if title == "" {
		title = docTitle(doc)
	}
	if title == "" {
		title = placeholderTitle
	}

	company := firstText(doc.Selection, indeedDetailCompanySelectors)
	if company == "" {
		company = placeholderCompany
	}

	var description string
	for _, sel := range indeedDetailDescSelectors {
		block := doc.Find(sel).First()
		if block.Length() == 0 {
			continue
		}
		var lines []string
		block.Find("p, li, h2, h3, b").Each(func(_ int, node *goquery.Selection) {
			if text := helpers.CollapseWhitespace(node.Text()); text != "" {
				lines = append(lines, text)
			}
		})
		description = strings.Join(lines, "\n")
		if description == "" {
			description = helpers.CollapseWhitespace(block.Text())
		}
		break
	}

	salary := firstText(doc.Selection, indeedSalarySelectors)
	if salary == "" {
		salary = salaryFromText(title, description)
	}

	return &RawJob{
		Title:            title,
		Company:          company,
		Location:         firstText(doc.Selection, indeedLocationSelectors),
		URL:              jobURL,
		SourceID:         ExtractJobID(jobURL),
		Description:      description,
		JobType:          jobTypeFromText(title, description),
		SalaryRange:      salary,
		Requirements:     sectionText(description, reRequirements),
		Responsibilities: sectionText(description, reResponsibilities),
		Skills:           sectionText(description, reSkills),
		PostedDate:       d.now(),
	}, nil
}
