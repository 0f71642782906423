package helpers

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	multiDash    = regexp.MustCompile(`-{2,}`)
)

// GetSplitPart splits target by separate and returns the part at index.
func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// Slugify lowercases s and collapses every non-alphanumeric run into a
// single dash.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = multiDash.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// CollapseWhitespace replaces every whitespace run with a single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TitleCase uppercases the first letter of each word.
func TitleCase(s string) string {
	prev := ' '
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(prev) || prev == '-' {
			prev = r
			return unicode.ToUpper(r)
		}
		prev = r
		return r
	}, strings.ToLower(s))
}

// Truncate cuts s to at most n bytes without splitting the last rune.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
