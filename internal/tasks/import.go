package tasks

import (
	"context"
	"fmt"

	"github.com/hesi-tools/memberdir/internal/countries"
	"github.com/hesi-tools/memberdir/internal/models"
	"github.com/hesi-tools/memberdir/internal/normalize"
	"github.com/hesi-tools/memberdir/internal/shared"
	"github.com/hesi-tools/memberdir/internal/store"
	"github.com/hesi-tools/memberdir/internal/tabular"
)

// previewSize bounds how many built documents a dry run prints.
const previewSize = 5

// ImportOptions parameterize one import run.
type ImportOptions struct {
	StatusDefault string // status given to every created member
	DryRun        bool   // build everything, commit nothing
	Limit         int    // process at most N rows, 0 means all
}

// RowProblem records one non-fatal issue against its 1-based source row.
type RowProblem struct {
	Row    int
	Detail string
}

// ProblemReport accumulates row-level issues across a run. Problems never
// block other rows; only a missing title skips the row itself.
type ProblemReport struct {
	MissingTitle   []RowProblem
	MissingCountry []RowProblem
	BadDate        []RowProblem
	RegionMismatch []RowProblem
}

// Total returns the number of recorded problems of all kinds.
func (p *ProblemReport) Total() int {
	return len(p.MissingTitle) + len(p.MissingCountry) + len(p.BadDate) + len(p.RegionMismatch)
}

// Rows converts the report into journal rows for persistence.
func (p *ProblemReport) Rows() []models.Problem {
	var out []models.Problem
	add := func(kind string, problems []RowProblem) {
		for _, rp := range problems {
			out = append(out, models.Problem{RowNum: rp.Row, Kind: kind, Detail: rp.Detail})
		}
	}
	add(models.ProblemMissingTitle, p.MissingTitle)
	add(models.ProblemMissingCountry, p.MissingCountry)
	add(models.ProblemBadDate, p.BadDate)
	add(models.ProblemRegionMismatch, p.RegionMismatch)
	return out
}

// ImportResult reports what an import run read, built, and wrote.
type ImportResult struct {
	RowsRead  int
	Documents []store.Member
	Problems  ProblemReport
	Unmatched []countries.Entry
	Written   int
	DryRun    bool
}

// Preview returns the first few built documents for dry-run display.
func (r *ImportResult) Preview() []store.Member {
	if len(r.Documents) <= previewSize {
		return r.Documents
	}
	return r.Documents[:previewSize]
}

// Import builds member documents from resolved records and commits them in
// fixed-size atomic batches. Re-running the same input without a wipe
// creates duplicates: there is no upsert by natural key here.
//
// Any commit failure is terminal; the returned result still carries the
// counts written before the failure.
func (e *Engine) Import(ctx context.Context, progress chan<- ProgressUpdate, records []tabular.Record, opts ImportOptions) (*ImportResult, error) {
	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}

	result := &ImportResult{RowsRead: len(records), DryRun: opts.DryRun}
	if len(records) == 0 {
		return result, fmt.Errorf("%w: input contains no usable rows", shared.ErrNoUsableRows)
	}

	e.sendProgress(progress, fetchCountriesUpdate())
	canonical, err := e.store.Countries(ctx)
	if err != nil {
		return result, err
	}
	resolver := countries.NewResolver(toResolverCountries(canonical))
	tally := countries.NewTally()

	for i, rec := range records {
		rowNum := i + 1
		doc, ok := e.buildDocument(rowNum, rec, resolver, tally, opts.StatusDefault, &result.Problems)
		if !ok {
			continue
		}
		e.sendProgress(progress, buildDocumentUpdate(rowNum, len(records), doc.Title))
		result.Documents = append(result.Documents, doc)
	}
	result.Unmatched = tally.Top(0)

	if len(result.Documents) == 0 {
		return result, fmt.Errorf("%w: every row was skipped", shared.ErrNoUsableRows)
	}

	if opts.DryRun {
		e.logger.Info("dry run: skipping commit",
			"rows", result.RowsRead, "documents", len(result.Documents), "problems", result.Problems.Total())
		return result, nil
	}

	batches := chunked(result.Documents, createChunkSize)
	for i, batch := range batches {
		e.sendProgress(progress, writeBatchUpdate(i+1, len(batches), len(batch)))

		tx := store.NewTransaction()
		for j := range batch {
			tx.Create(batch[j])
		}
		if _, err := e.store.Commit(ctx, tx); err != nil {
			return result, fmt.Errorf("batch %d/%d failed: %w", i+1, len(batches), err)
		}
		result.Written += len(batch)
		e.logger.Info("batch committed", "batch", i+1, "of", len(batches), "written", result.Written)
	}

	return result, nil
}

// buildDocument turns one resolved record into a member document. The only
// hard-skip condition is an empty title; everything else degrades into a
// recorded problem plus a fallback value.
func (e *Engine) buildDocument(rowNum int, rec tabular.Record, resolver *countries.Resolver, tally *countries.Tally, status string, problems *ProblemReport) (store.Member, bool) {
	title := normalize.Text(rec.Title)
	if title == "" {
		problems.MissingTitle = append(problems.MissingTitle, RowProblem{Row: rowNum, Detail: "row has no title"})
		return store.Member{}, false
	}

	doc := store.Member{
		Type:               "member",
		Title:              title,
		TypeOfOrganization: normalize.Text(rec.TypeOfOrg),
		Website:            normalize.FixURL(rec.Website),
		Emails:             normalize.SplitEmails(rec.Email),
		Focalpoint:         normalize.Text(rec.Focalpoint),
		Description:        normalize.MergeDescriptions(rec.Description, rec.Description2),
		Status:             status,
	}

	rawCountry := normalize.Text(rec.Country)
	country := resolver.Resolve(rawCountry)
	switch {
	case country != nil:
		doc.Country = store.Ref(country.ID)
		if countries.RegionMismatch(country, rec.Region) {
			problems.RegionMismatch = append(problems.RegionMismatch, RowProblem{
				Row:    rowNum,
				Detail: fmt.Sprintf("%s: supplied region %q, country is in %q", title, normalize.Text(rec.Region), country.RegionTitle),
			})
		}
	case rawCountry != "":
		// Unresolved names are preserved verbatim, never dropped. A row
		// with no country text at all is not a problem, just sparse.
		doc.ImportCountryRaw = rawCountry
		tally.Note(rawCountry)
		problems.MissingCountry = append(problems.MissingCountry, RowProblem{Row: rowNum, Detail: fmt.Sprintf("%s: %q", title, rawCountry)})
	}

	rawDate := normalize.Text(rec.DateJoined)
	doc.DateJoined = normalize.ToISODate(rawDate)
	if doc.DateJoined == "" {
		if rawDate != "" {
			problems.BadDate = append(problems.BadDate, RowProblem{Row: rowNum, Detail: fmt.Sprintf("%s: %q", title, rawDate)})
		}
		doc.DateJoined = normalize.TodayISO()
	}

	return doc, true
}

func toResolverCountries(list []store.Country) []countries.Country {
	out := make([]countries.Country, len(list))
	for i, c := range list {
		out[i] = countries.Country{ID: c.ID, Title: c.Title, RegionTitle: c.RegionTitle}
	}
	return out
}
