package tabular

import (
	"fmt"
	"strings"

	"github.com/hesi-tools/memberdir/internal/shared"
)

// Record is the normalized per-row shape the import pipeline consumes.
// Every field is the raw cell text; value-level cleanup happens downstream.
type Record struct {
	Title        string
	TypeOfOrg    string
	Country      string
	DateJoined   string
	Region       string
	Website      string
	Email        string
	Focalpoint   string
	Description  string
	Description2 string
}

// Built-in header synonyms per target field. A spec lists alternates joined
// by "|"; all non-empty matches are merged, so a file carrying both a
// misspelled and a corrected description column contributes both.
var fieldSpecs = map[string]string{
	"title":        "title|name|institution|organization|organisation|org|org name|entry title",
	"typeOfOrg":    "type of org|type|org type|organization type|organisation type",
	"country":      "country|country name|nation",
	"dateJoined":   "date joined|joined|join date|date|date_joined|datejoined",
	"region":       "region|subregion|area",
	"website":      "website|url|link",
	"email":        "email|emails|e-mail|contact email|contacts",
	"focalpoint":   "focalpoint|focal point|contact name|main contact|focal",
	"description":  "description|desacription|about",
	"description2": "description 2|second description|additional description",
}

// Positional column order used in no-headers mode:
// title, type of org, country, date joined, region, website, email, focal point.
var positionalFields = []string{
	"title", "typeOfOrg", "country", "dateJoined", "region", "website", "email", "focalpoint",
}

// Resolver maps raw rows onto [Record] values using the built-in synonyms
// plus optional user-supplied aliases.
type Resolver struct {
	aliases map[string]string
}

// NewResolver parses an alias spec of "field=Header,field=Header" pairs.
// An alias value may itself list alternates with "|". Unknown target field
// names are rejected so typos surface before a long import run.
func NewResolver(aliasSpec string) (*Resolver, error) {
	aliases := make(map[string]string)
	if strings.TrimSpace(aliasSpec) != "" {
		for _, part := range strings.Split(aliasSpec, ",") {
			k, v, ok := strings.Cut(part, "=")
			if !ok {
				return nil, fmt.Errorf("%w: map entry %q is not field=Header", shared.ErrInvalidFlag, part)
			}
			field := strings.TrimSpace(k)
			if _, known := fieldSpecs[field]; !known {
				return nil, fmt.Errorf("%w: unknown field %q in map", shared.ErrInvalidFlag, field)
			}
			aliases[field] = strings.TrimSpace(v)
		}
	}
	return &Resolver{aliases: aliases}, nil
}

// FromHeadered resolves one keyed row. For each target field the user alias
// wins when it matches a non-empty cell; otherwise the built-in synonyms are
// tried in order. Missing optional fields resolve to "".
func (r *Resolver) FromHeadered(headers, row []string) Record {
	pick := func(field string) string {
		if alias, ok := r.aliases[field]; ok {
			if v := pickMerged(headers, row, alias); v != "" {
				return v
			}
		}
		return pickMerged(headers, row, fieldSpecs[field])
	}

	return Record{
		Title:        pick("title"),
		TypeOfOrg:    pick("typeOfOrg"),
		Country:      pick("country"),
		DateJoined:   pick("dateJoined"),
		Region:       pick("region"),
		Website:      pick("website"),
		Email:        pick("email"),
		Focalpoint:   pick("focalpoint"),
		Description:  pick("description"),
		Description2: pick("description2"),
	}
}

// FromPositional resolves one fixed-order row. Short rows are padded with
// empty strings rather than failing.
func (r *Resolver) FromPositional(row []string) Record {
	padded := make([]string, len(positionalFields))
	copy(padded, row)

	get := func(field string) string {
		for i, f := range positionalFields {
			if f == field {
				return strings.TrimSpace(padded[i])
			}
		}
		return ""
	}

	return Record{
		Title:      get("title"),
		TypeOfOrg:  get("typeOfOrg"),
		Country:    get("country"),
		DateJoined: get("dateJoined"),
		Region:     get("region"),
		Website:    get("website"),
		Email:      get("email"),
		Focalpoint: get("focalpoint"),
	}
}

// Resolve converts a whole parsed table into records.
func (r *Resolver) Resolve(t *Table) []Record {
	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		if t.Headers == nil {
			records = append(records, r.FromPositional(row))
		} else {
			records = append(records, r.FromHeadered(t.Headers, row))
		}
	}
	return records
}

// pickMerged collects the values of every header named in spec (alternates
// joined by "|"), in spec order, and joins the non-empty ones with a
// newline. Header comparison is case- and whitespace-insensitive.
func pickMerged(headers, row []string, spec string) string {
	var vals []string
	for _, want := range strings.Split(spec, "|") {
		want = normHeader(want)
		if want == "" {
			continue
		}
		for i, h := range headers {
			if normHeader(h) != want || i >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				vals = append(vals, v)
			}
			break
		}
	}
	return strings.Join(vals, "\n")
}

// normHeader lowercases and collapses inner whitespace for header matching.
func normHeader(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
