package crawler

import "regexp"

// The regexes below encode business rules about what counts as a salary,
// a job type, or a section of a job description. Keep them named; drivers
// must not inline their own variants.

var (
	// reSalaryDollar matches "$40,000 - $60,000 per month" style strings,
	// including bare "$3-5K" ranges common on BossJobs cards.
	reSalaryDollar = regexp.MustCompile(`(?i)\$\s*\d[\d,.]*\s*(?:-\s*\$?\s*\d[\d,.]*)?(?:\s*[kK])?(?:\s*(?:per|a|/)\s*(?:month|year|annum|mo|yr))?`)

	// reSalaryPeso matches Philippine peso amounts with PHP or ₱ markers.
	reSalaryPeso = regexp.MustCompile(`(?i)(?:PHP|₱)\s*\d[\d,.]*\s*(?:-\s*(?:PHP|₱)?\s*\d[\d,.]*)?(?:\s*[kK])?(?:\s*(?:per|a|/)\s*(?:month|year|annum|mo|yr))?`)

	// reSalaryCode matches amounts with a trailing or leading ISO-ish
	// currency code (USD 1,000 / 1,000 USD).
	reSalaryCode = regexp.MustCompile(`(?i)(?:(?:USD|SGD|EUR|GBP|AUD)\s*)?\d[\d,.]*\s*(?:-\s*\d[\d,.]*)?\s*[kK]?\s*(?:USD|SGD|EUR|GBP|AUD)(?:\s*(?:per|a|/)\s*(?:month|year|annum|mo|yr))?`)

	// reSalaryBareK matches bare "25k - 35k" ranges. Tried last because a
	// lone number is too easy to mistake for a salary.
	reSalaryBareK = regexp.MustCompile(`(?i)\d[\d,.]*\s*[kK]\s*(?:-\s*\d[\d,.]*\s*[kK])?(?:\s*(?:per|a|/)\s*(?:month|year|annum|mo|yr))?`)

	// salaryPatterns is the fallback order applied to card titles,
	// descriptions and finally whole-page text.
	salaryPatterns = []*regexp.Regexp{reSalaryPeso, reSalaryDollar, reSalaryCode, reSalaryBareK}

	// reJobType matches employment-type words wherever a source buries them.
	reJobType = regexp.MustCompile(`(?i)\b(full[- ]?time|part[- ]?time|contract|freelance|temporary|internship|ft|pt)\b`)

	// reRequirements captures the paragraph following an English
	// requirements-style heading, up to the next blank line or section.
	reRequirements = regexp.MustCompile(`(?is)(?:requirements|qualifications|what you need|what we require|what you'?ll need)[\s:]+(.+?)(?:\n\s*\n|\n\s*\w+\s*:|\z)`)

	// reResponsibilities captures a responsibilities-style section.
	reResponsibilities = regexp.MustCompile(`(?is)(?:responsibilities|duties|what you'?ll do)[\s:]+(.+?)(?:\n\s*\n|\n\s*\w+\s*:|\z)`)

	// reSkills captures a skills-style section.
	reSkills = regexp.MustCompile(`(?is)(?:skills|skill requirements|technical skills)[\s:]+(.+?)(?:\n\s*\n|\n\s*\w+\s*:|\z)`)

	// Relative posting date expressions.
	reDaysAgo   = regexp.MustCompile(`(?i)(\d+)\s*day`)
	reHoursAgo  = regexp.MustCompile(`(?i)(\d+)\s*hour`)
	reWeeksAgo  = regexp.MustCompile(`(?i)(\d+)\s*week`)
	reMonthsAgo = regexp.MustCompile(`(?i)(\d+)\s*month`)
	reYearsAgo  = regexp.MustCompile(`(?i)(\d+)\s*year`)

	// reNumericPathSegment recognizes a purely numeric path segment, the
	// usual shape of a job ID inside a URL.
	reNumericPathSegment = regexp.MustCompile(`/\d+(?:/|$)`)

	// Job-ID extraction patterns, most specific first.
	jobIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[?&]jk=([0-9a-f]+)`),
		regexp.MustCompile(`/jobs?/(?:view|detail)/(\d+)`),
		regexp.MustCompile(`/jobs?/[^/]+/(\d+)`),
		regexp.MustCompile(`/(\d+)(?:/|$)`),
	}
)

// nonLocationKeywords are card-tag strings that look like locations to a
// naive selector but are really perks or requirements badges.
var nonLocationKeywords = []string{
	"great perks", "fresh grads welcome", "quick responder", "urgent",
	"be an early applicant", "full-time", "part-time", "contract",
	"permanent", "temporary", "monthly", "weekly", "yr exp", "yrs exp",
	"experience", "welcome", "not required", "fresh graduate", "student",
	"no exp", "exp required", "bachelor", "edu not required",
}

// locationKeywords mark a tag as a genuine location.
var locationKeywords = []string{
	"manila", "cebu", "davao", "makati", "taguig", "pasig", "quezon city",
	"bgc", "ortigas", "alabang", "ncr", "metro manila", "philippines",
	"on-site", "remote", "hybrid",
}

// placeholderTexts are selector results that mean "no value".
var placeholderTexts = map[string]struct{}{
	"n/a": {}, "tbd": {}, "na": {}, "...": {}, "-": {},
}
