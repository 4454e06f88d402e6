// package countries resolves free-text country and region names against the
// canonical reference documents held in the content store.
package countries

import (
	"sort"
	"strings"

	"github.com/hesi-tools/memberdir/internal/normalize"
)

// Country mirrors the store's reference data: one canonical country plus
// the title of the region it belongs to.
type Country struct {
	ID          string
	Title       string
	RegionTitle string
}

// Common abbreviations and alternate names mapped to canonical UN titles.
var countrySynonyms = map[string]string{
	"usa":               "united states of america",
	"united states":     "united states of america",
	"uk":                "united kingdom of great britain and northern ireland",
	"united kingdom":    "united kingdom of great britain and northern ireland",
	"russia":            "russian federation",
	"south korea":       "republic of korea",
	"north korea":       "democratic people's republic of korea",
	"iran":              "iran (islamic republic of)",
	"moldova":           "republic of moldova",
	"tanzania":          "united republic of tanzania",
	"laos":              "lao people's democratic republic",
	"bolivia":           "bolivia (plurinational state of)",
	"venezuela":         "venezuela (bolivarian republic of)",
	"syria":             "syrian arab republic",
	"cape verde":        "cabo verde",
	"swaziland":         "eswatini",
	"czech republic":    "czechia",
	"burma":             "myanmar",
	"palestine":         "state of palestine",
	"ivory coast":       "côte d'ivoire",
	"macedonia":         "north macedonia",
	"micronesia":        "micronesia (federated states of)",
	"brunei":            "brunei darussalam",
	"hong kong":         "china, hong kong sar",
	"macau":             "china, macao sar",
	"car":               "central african republic",
	"drc":               "democratic republic of the congo",
	"congo-kinshasa":    "democratic republic of the congo",
	"congo-brazzaville": "congo",
}

// Resolver maps free-text country names onto canonical records. Build one
// per run from the store's country list; lookups are read-only afterwards.
type Resolver struct {
	exact     map[string]*Country
	clean     map[string]*Country
	cleanKeys []string // sorted, for deterministic containment matching
}

// NewResolver indexes the canonical countries. Clean keys are sorted by the
// title they belong to so the containment fallback is deterministic rather
// than map-iteration-ordered.
func NewResolver(list []Country) *Resolver {
	sorted := make([]Country, len(list))
	copy(sorted, list)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Title < sorted[j].Title })

	r := &Resolver{
		exact: make(map[string]*Country, len(sorted)),
		clean: make(map[string]*Country, len(sorted)),
	}
	for i := range sorted {
		c := &sorted[i]
		r.exact[normalize.Key(c.Title)] = c
		ck := normalize.CleanKey(c.Title)
		if _, dup := r.clean[ck]; !dup {
			r.clean[ck] = c
			r.cleanKeys = append(r.cleanKeys, ck)
		}
	}
	return r
}

// Resolve returns the canonical country for a raw name, or nil.
//
// Match order, first hit wins: exact case-insensitive title; synonym table
// then exact; clean-key equality; loose containment of clean keys in either
// direction. The containment step is fuzzy and can match a shared substring;
// ties break on title order.
func (r *Resolver) Resolve(raw string) *Country {
	name := normalize.Text(raw)
	if name == "" {
		return nil
	}

	if c, ok := r.exact[normalize.Key(name)]; ok {
		return c
	}

	if canonical, ok := countrySynonyms[normalize.Key(name)]; ok {
		if c, ok := r.exact[normalize.Key(canonical)]; ok {
			return c
		}
	}

	cleaned := normalize.CleanKey(name)
	if cleaned == "" {
		return nil
	}
	if c, ok := r.clean[cleaned]; ok {
		return c
	}

	for _, k := range r.cleanKeys {
		if strings.Contains(k, cleaned) || strings.Contains(cleaned, k) {
			return r.clean[k]
		}
	}
	return nil
}

// RegionMismatch reports whether a supplied region disagrees with the
// resolved country's known region. The country mapping always wins; the
// mismatch is informational.
func RegionMismatch(c *Country, suppliedRegion string) bool {
	if c == nil || normalize.Text(suppliedRegion) == "" {
		return false
	}
	return normalize.Key(suppliedRegion) != normalize.Key(c.RegionTitle)
}

// Tally counts unmatched raw names for operator review.
type Tally struct {
	counts map[string]int
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// Note records one occurrence of an unmatched raw name.
func (t *Tally) Note(raw string) {
	key := normalize.Key(raw)
	if key == "" {
		key = "(empty)"
	}
	t.counts[key]++
}

// Len returns the number of distinct unmatched names.
func (t *Tally) Len() int { return len(t.counts) }

// Entry is one unmatched name with its occurrence count.
type Entry struct {
	Name  string
	Count int
}

// Top returns up to n entries ordered by count descending, name ascending.
func (t *Tally) Top(n int) []Entry {
	entries := make([]Entry, 0, len(t.counts))
	for name, count := range t.counts {
		entries = append(entries, Entry{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
