// package normalize contains pure string normalization helpers used by the
// import pipeline and the membership endpoints.
//
// Every function is total: bad input yields a zero value, never an error.
// Whether a missing value matters is the caller's decision.
package normalize

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	isoDateRe       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDateRe     = regexp.MustCompile(`^(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})$`)
	schemeRe        = regexp.MustCompile(`(?i)^https?://`)
	parentheticalRe = regexp.MustCompile(`\(.*?\)`)
	emailSplitRe    = regexp.MustCompile(`[,\s;]+`)
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9]`)
	nonAlnumRunRe   = regexp.MustCompile(`[^a-z0-9]+`)
)

// Layouts tried by [ToISODate] after the explicit numeric formats fail.
var looseDateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006/01/02",
	"2006.01.02",
	time.RFC3339,
}

// Text trims surrounding whitespace. Used everywhere a raw cell value enters
// the pipeline.
func Text(s string) string {
	return strings.TrimSpace(s)
}

// Key lowercases a trimmed value for case-insensitive comparison.
func Key(s string) string {
	return strings.ToLower(Text(s))
}

// StripDiacritics removes combining marks after NFD decomposition, so
// "Côte d'Ivoire" and "Cote d'Ivoire" compare equal downstream.
func StripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CleanKey produces the aggressive comparison form used for fuzzy country
// matching: diacritics stripped, lowercased, parenthetical segments dropped,
// "&" spelled out, and everything but letters and digits removed.
func CleanKey(s string) string {
	k := strings.ToLower(StripDiacritics(s))
	k = parentheticalRe.ReplaceAllString(k, "")
	k = strings.ReplaceAll(k, "&", "and")
	return nonAlnumRe.ReplaceAllString(k, "")
}

// Slugify produces a URL-safe slug: diacritics stripped, lowercased, runs of
// anything but letters and digits collapsed to single hyphens.
func Slugify(s string) string {
	k := strings.ToLower(StripDiacritics(s))
	k = nonAlnumRunRe.ReplaceAllString(k, "-")
	return strings.Trim(k, "-")
}

// FixURL prefixes bare hostnames with https://. Empty input stays empty and
// values that already carry a scheme are untouched.
func FixURL(u string) string {
	s := Text(u)
	if s == "" {
		return ""
	}
	if schemeRe.MatchString(s) {
		return s
	}
	return "https://" + s
}

// SplitEmails splits a raw cell on commas, semicolons, and whitespace, keeps
// only tokens containing "@", and deduplicates preserving first occurrence.
func SplitEmails(raw string) []string {
	s := Text(raw)
	if s == "" {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, tok := range emailSplitRe.Split(s, -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" || !strings.Contains(tok, "@") {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// ToISODate parses heterogeneous date strings to YYYY-MM-DD.
//
// Recognized in order: an ISO date verbatim; D/M/Y or D-M-Y with a two- or
// four-digit year, where components are swapped when the first exceeds 12
// (so "25/12/2024" is December 25 while "03/04/2024" stays March 4); then a
// list of loose layouts. Returns "" when nothing matches.
func ToISODate(input string) string {
	s := Text(input)
	if s == "" {
		return ""
	}

	if isoDateRe.MatchString(s) {
		return s
	}

	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		a, b, y := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if y < 100 {
			y += 2000
		}
		if a > 12 {
			a, b = b, a
		}
		d := time.Date(y, time.Month(a), b, 0, 0, 0, 0, time.UTC)
		// Reject impossible dates that time.Date would silently roll over.
		if int(d.Month()) != a || d.Day() != b || d.Year() != y {
			return ""
		}
		return d.Format("2006-01-02")
	}

	for _, layout := range looseDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}

// TodayISO returns the current date as YYYY-MM-DD, the fallback value for
// rows whose join date cannot be parsed.
func TodayISO() string {
	return time.Now().Format("2006-01-02")
}

// MergeDescriptions combines two description sources into one field.
// Identical values (case-insensitive) collapse to a single copy; distinct
// values are joined by a blank line.
func MergeDescriptions(d1, d2 string) string {
	a, b := Text(d1), Text(d2)
	if a != "" && b != "" {
		if strings.EqualFold(a, b) {
			return a
		}
		return a + "\n\n" + b
	}
	if a != "" {
		return a
	}
	return b
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
