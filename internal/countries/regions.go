package countries

import (
	"strings"
	"unicode"

	"github.com/hesi-tools/memberdir/internal/normalize"
)

// Region is one of the six canonical grouping documents. IDs are stable so
// repeated normalization runs upsert rather than duplicate.
type Region struct {
	ID    string
	Title string
}

// CanonicalRegions lists the regions every country and member must map into.
var CanonicalRegions = []Region{
	{ID: "region.africa", Title: "Africa"},
	{ID: "region.asia-pacific", Title: "Asia & the Pacific"},
	{ID: "region.europe", Title: "Europe"},
	{ID: "region.lac", Title: "Latin America & the Caribbean"},
	{ID: "region.north-america", Title: "North America"},
	{ID: "region.western-asia", Title: "Western Asia"},
}

// Alternate spellings seen in historical data, keyed loosely.
var regionSynonyms = map[string]string{
	"africa":                        "region.africa",
	"sub saharan africa":            "region.africa",
	"asia":                          "region.asia-pacific",
	"asia pacific":                  "region.asia-pacific",
	"asia and the pacific":          "region.asia-pacific",
	"asia and pacific":              "region.asia-pacific",
	"east asia":                     "region.asia-pacific",
	"south asia":                    "region.asia-pacific",
	"south east asia":               "region.asia-pacific",
	"oceania":                       "region.asia-pacific",
	"europe":                        "region.europe",
	"eastern europe":                "region.europe",
	"western europe":                "region.europe",
	"latin america":                 "region.lac",
	"latin america and caribbean":   "region.lac",
	"caribbean":                     "region.lac",
	"south america":                 "region.lac",
	"central america":               "region.lac",
	"north america":                 "region.north-america",
	"northern america":              "region.north-america",
	"western asia":                  "region.western-asia",
	"middle east":                   "region.western-asia",
	"middle east and north africa":  "region.western-asia",
	"mena":                          "region.western-asia",
}

// RegionByID returns the canonical region for an ID, or nil.
func RegionByID(id string) *Region {
	for i := range CanonicalRegions {
		if CanonicalRegions[i].ID == id {
			return &CanonicalRegions[i]
		}
	}
	return nil
}

// ToCanonRegionID maps a free-text region title to its canonical region ID.
// Matching runs in three rounds: canonical titles, the synonym table, then a
// letters-only comparison that survives punctuation and "&"/"and" swaps. An
// empty string means no match.
func ToCanonRegionID(title string) string {
	key := regionKey(title)
	if key == "" {
		return ""
	}

	for _, r := range CanonicalRegions {
		if regionKey(r.Title) == key {
			return r.ID
		}
	}
	if id, ok := regionSynonyms[key]; ok {
		return id
	}

	loose := justLetters(key)
	for _, r := range CanonicalRegions {
		if justLetters(regionKey(r.Title)) == loose {
			return r.ID
		}
	}
	for syn, id := range regionSynonyms {
		if justLetters(syn) == loose {
			return id
		}
	}
	return ""
}

// regionKey lowercases, swaps "&" for "and", and collapses whitespace
// and dashes so "Asia-Pacific" and "asia & pacific" compare equal in the
// synonym table.
func regionKey(s string) string {
	s = strings.ToLower(normalize.Text(s))
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// justLetters drops everything but letters, including "and".
func justLetters(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(b.String(), "and", "")
}
