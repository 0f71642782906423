package crawler

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"alumnihub/jobingest/helpers"
)

// firstText walks an ordered selector list and returns the first non-empty,
// non-placeholder text it finds under s. The "try this, else that" chain is
// the core extraction primitive; every field is a list of selectors, not a
// class hierarchy.
func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		found := s.Find(sel).First()
		if found.Length() == 0 {
			continue
		}
		text := helpers.CollapseWhitespace(found.Text())
		if text == "" {
			continue
		}
		if _, bad := placeholderTexts[strings.ToLower(text)]; bad {
			continue
		}
		return text
	}
	return ""
}

// firstAttr returns the first non-empty attribute value found by the
// selector list.
func firstAttr(s *goquery.Selection, selectors []string, attr string) string {
	for _, sel := range selectors {
		val, exists := s.Find(sel).First().Attr(attr)
		if exists && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

// extractLocation scans the selector chain while filtering out the badge
// tags the source renders next to real locations ("Great perks", "Fresh
// grads welcome"). Strings shaped like "On-site - City" win outright.
func extractLocation(s *goquery.Selection, selectors []string) string {
	var fallback string
	for _, sel := range selectors {
		var result string
		s.Find(sel).EachWithBreak(func(_ int, found *goquery.Selection) bool {
			text := helpers.CollapseWhitespace(found.Text())
			if text == "" {
				return true
			}
			lower := strings.ToLower(text)

			for _, kw := range nonLocationKeywords {
				if strings.Contains(lower, kw) {
					return true
				}
			}

			if strings.Contains(lower, "on-site -") {
				result = text
				return false
			}

			for _, kw := range locationKeywords {
				if strings.Contains(lower, kw) {
					result = helpers.TitleCase(text)
					return false
				}
			}

			// Short and unsuspicious: remember it in case nothing better shows up.
			if fallback == "" && len(text) < 50 {
				fallback = helpers.TitleCase(text)
			}
			return true
		})
		if result != "" {
			return result
		}
	}
	return fallback
}

// salaryFromText applies the salary patterns to each candidate text in
// order and returns the first match. Candidates are ordered from most to
// least specific context (card title, description, whole page).
func salaryFromText(candidates ...string) string {
	for _, text := range candidates {
		if text == "" {
			continue
		}
		for _, pattern := range salaryPatterns {
			if m := pattern.FindString(text); m != "" {
				return helpers.CollapseWhitespace(m)
			}
		}
	}
	return ""
}

// jobTypeFromText finds an employment-type word in the title or the first
// 500 characters of the description.
func jobTypeFromText(title, description string) string {
	if m := reJobType.FindString(title); m != "" {
		return m
	}
	if len(description) > 500 {
		description = description[:500]
	}
	return reJobType.FindString(description)
}

// sectionText extracts the body of a description section identified by an
// English heading regex (reRequirements, reResponsibilities, reSkills).
func sectionText(description string, pattern *regexp.Regexp) string {
	m := pattern.FindStringSubmatch(description)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// englishParagraphs keeps the paragraphs whose non-space characters are at
// least 60% ASCII letters. Detail pages on the target site mix scripts; the
// English blocks carry the content downstream consumers can use. If no
// paragraph qualifies the full text is returned unchanged.
func englishParagraphs(text string) string {
	paragraphs := strings.Split(text, "\n")
	var kept []string

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		var ascii, total int
		for _, r := range para {
			if unicode.IsSpace(r) {
				continue
			}
			total++
			if r < 128 && unicode.IsLetter(r) {
				ascii++
			}
		}
		if total > 0 && float64(ascii)/float64(total) >= 0.6 {
			kept = append(kept, para)
		}
	}

	if len(kept) == 0 {
		return text
	}
	return strings.Join(kept, "\n\n")
}

// parseRelativeDate turns English relative expressions ("3 days ago",
// "yesterday", "just posted") into timestamps. Unparseable input maps to now.
func parseRelativeDate(text string, now time.Time) time.Time {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return now
	}

	switch {
	case strings.Contains(lower, "just posted"), strings.Contains(lower, "today"):
		return now
	case strings.Contains(lower, "yesterday"):
		return now.AddDate(0, 0, -1)
	}

	if m := reHoursAgo.FindStringSubmatch(lower); m != nil {
		return now.Add(-time.Duration(atoi(m[1])) * time.Hour)
	}
	if m := reDaysAgo.FindStringSubmatch(lower); m != nil {
		return now.AddDate(0, 0, -atoi(m[1]))
	}
	if m := reWeeksAgo.FindStringSubmatch(lower); m != nil {
		return now.AddDate(0, 0, -7*atoi(m[1]))
	}
	if m := reMonthsAgo.FindStringSubmatch(lower); m != nil {
		return now.AddDate(0, -atoi(m[1]), 0)
	}
	if m := reYearsAgo.FindStringSubmatch(lower); m != nil {
		return now.AddDate(-atoi(m[1]), 0, 0)
	}

	return now
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}
