package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hesi-tools/memberdir/internal/normalize"
	"github.com/hesi-tools/memberdir/internal/shared"
	"github.com/hesi-tools/memberdir/internal/store"
	"github.com/hesi-tools/memberdir/internal/tabular"
)

func TestImport(t *testing.T) {
	t.Run("Builds Document From Row", func(t *testing.T) {
		m := &mockStore{countries: usaCountries()}
		engine := testEngine(m)

		records := []tabular.Record{{
			Title:   "Test University",
			Country: "usa",
			Website: "test.edu",
			Email:   "a@test.edu, a@test.edu, b@test.edu",
		}}

		result, err := engine.Import(context.Background(), nil, records, ImportOptions{StatusDefault: store.StatusPublished})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}

		if len(result.Documents) != 1 {
			t.Fatalf("built %d documents, want 1", len(result.Documents))
		}
		doc := result.Documents[0]
		if doc.Website != "https://test.edu" {
			t.Errorf("website = %q", doc.Website)
		}
		if len(doc.Emails) != 2 || doc.Emails[0] != "a@test.edu" || doc.Emails[1] != "b@test.edu" {
			t.Errorf("emails = %v", doc.Emails)
		}
		if doc.Country == nil || doc.Country.Ref != "country.usa" {
			t.Errorf("country ref = %+v", doc.Country)
		}
		if doc.Status != store.StatusPublished {
			t.Errorf("status = %q", doc.Status)
		}
		if doc.DateJoined == "" {
			t.Error("date joined not defaulted")
		}
		if result.Written != 1 || len(m.commits) != 1 {
			t.Errorf("written = %d, commits = %d", result.Written, len(m.commits))
		}
	})

	t.Run("Missing Title Skips Row Only", func(t *testing.T) {
		m := &mockStore{countries: usaCountries()}
		engine := testEngine(m)

		records := []tabular.Record{
			{Title: "   ", Country: "Kenya"},
			{Title: "Kept Institute", Country: "Kenya"},
		}

		result, err := engine.Import(context.Background(), nil, records, ImportOptions{StatusDefault: store.StatusPublished})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if len(result.Documents) != 1 || result.Documents[0].Title != "Kept Institute" {
			t.Fatalf("documents = %+v", result.Documents)
		}
		if len(result.Problems.MissingTitle) != 1 || result.Problems.MissingTitle[0].Row != 1 {
			t.Errorf("missing title problems = %+v", result.Problems.MissingTitle)
		}
	})

	t.Run("Unresolved Country Preserved Raw", func(t *testing.T) {
		m := &mockStore{countries: usaCountries()}
		engine := testEngine(m)

		records := []tabular.Record{{Title: "Lost Institute", Country: "Atlantis"}}

		result, err := engine.Import(context.Background(), nil, records, ImportOptions{StatusDefault: store.StatusSubmitted})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		doc := result.Documents[0]
		if doc.Country != nil {
			t.Errorf("unexpected country ref %+v", doc.Country)
		}
		if doc.ImportCountryRaw != "Atlantis" {
			t.Errorf("raw country = %q", doc.ImportCountryRaw)
		}
		if len(result.Problems.MissingCountry) != 1 {
			t.Errorf("missing country problems = %+v", result.Problems.MissingCountry)
		}
		if len(result.Unmatched) != 1 || result.Unmatched[0].Name != "atlantis" {
			t.Errorf("unmatched tally = %+v", result.Unmatched)
		}
	})

	t.Run("Empty Country Is Not A Problem", func(t *testing.T) {
		m := &mockStore{countries: usaCountries()}
		engine := testEngine(m)

		records := []tabular.Record{{Title: "No Country Institute"}}

		result, err := engine.Import(context.Background(), nil, records, ImportOptions{StatusDefault: store.StatusSubmitted})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		doc := result.Documents[0]
		if doc.Country != nil || doc.ImportCountryRaw != "" {
			t.Errorf("expected no country on document, got ref %+v raw %q", doc.Country, doc.ImportCountryRaw)
		}
		if len(result.Problems.MissingCountry) != 0 {
			t.Errorf("missing country problems = %+v, want none", result.Problems.MissingCountry)
		}
		if len(result.Unmatched) != 0 {
			t.Errorf("unmatched tally = %+v, want empty", result.Unmatched)
		}
	})

	t.Run("Bad Date Falls Back To Today", func(t *testing.T) {
		m := &mockStore{countries: usaCountries()}
		engine := testEngine(m)

		records := []tabular.Record{{Title: "Test University", Country: "Kenya", DateJoined: "sometime in 2020"}}

		result, err := engine.Import(context.Background(), nil, records, ImportOptions{StatusDefault: store.StatusPublished})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if got := result.Documents[0].DateJoined; got != normalize.TodayISO() {
			t.Errorf("date = %q, want today", got)
		}
		if len(result.Problems.BadDate) != 1 {
			t.Errorf("bad date problems = %+v", result.Problems.BadDate)
		}
	})

	t.Run("Region Mismatch Is Informational", func(t *testing.T) {
		m := &mockStore{countries: usaCountries()}
		engine := testEngine(m)

		records := []tabular.Record{{Title: "Test University", Country: "Kenya", Region: "Europe"}}

		result, err := engine.Import(context.Background(), nil, records, ImportOptions{StatusDefault: store.StatusPublished})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if result.Documents[0].Country == nil || result.Documents[0].Country.Ref != "country.ken" {
			t.Error("country mapping should win over supplied region")
		}
		if len(result.Problems.RegionMismatch) != 1 {
			t.Errorf("region mismatch problems = %+v", result.Problems.RegionMismatch)
		}
	})

	t.Run("Commits In Batches Of 100", func(t *testing.T) {
		m := &mockStore{countries: usaCountries()}
		engine := testEngine(m)

		var records []tabular.Record
		for i := 0; i < 250; i++ {
			records = append(records, tabular.Record{Title: fmt.Sprintf("Org %d", i), Country: "Kenya"})
		}

		result, err := engine.Import(context.Background(), nil, records, ImportOptions{StatusDefault: store.StatusPublished})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if result.Written != 250 {
			t.Errorf("written = %d", result.Written)
		}
		if len(m.commits) != 3 {
			t.Fatalf("commits = %d, want 3", len(m.commits))
		}
		if m.commits[0].Len() != 100 || m.commits[2].Len() != 50 {
			t.Errorf("batch sizes = %d/%d/%d", m.commits[0].Len(), m.commits[1].Len(), m.commits[2].Len())
		}
	})

	t.Run("Limit Caps Rows", func(t *testing.T) {
		m := &mockStore{countries: usaCountries()}
		engine := testEngine(m)

		records := []tabular.Record{
			{Title: "One", Country: "Kenya"},
			{Title: "Two", Country: "Kenya"},
			{Title: "Three", Country: "Kenya"},
		}

		result, err := engine.Import(context.Background(), nil, records, ImportOptions{StatusDefault: store.StatusPublished, Limit: 2})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if result.RowsRead != 2 || len(result.Documents) != 2 {
			t.Errorf("rows = %d, documents = %d", result.RowsRead, len(result.Documents))
		}
	})

	t.Run("Dry Run Commits Nothing", func(t *testing.T) {
		m := &mockStore{countries: usaCountries()}
		engine := testEngine(m)

		var records []tabular.Record
		for i := 0; i < 8; i++ {
			records = append(records, tabular.Record{Title: fmt.Sprintf("Org %d", i), Country: "Kenya"})
		}

		result, err := engine.Import(context.Background(), nil, records, ImportOptions{StatusDefault: store.StatusPublished, DryRun: true})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if len(m.commits) != 0 {
			t.Errorf("dry run committed %d transactions", len(m.commits))
		}
		if result.Written != 0 {
			t.Errorf("written = %d", result.Written)
		}
		if len(result.Preview()) != previewSize {
			t.Errorf("preview size = %d", len(result.Preview()))
		}
	})

	t.Run("No Usable Rows Is Terminal", func(t *testing.T) {
		engine := testEngine(&mockStore{countries: usaCountries()})

		_, err := engine.Import(context.Background(), nil, nil, ImportOptions{StatusDefault: store.StatusPublished})
		if !errors.Is(err, shared.ErrNoUsableRows) {
			t.Errorf("expected ErrNoUsableRows, got %v", err)
		}

		_, err = engine.Import(context.Background(), nil, []tabular.Record{{Title: " "}}, ImportOptions{StatusDefault: store.StatusPublished})
		if !errors.Is(err, shared.ErrNoUsableRows) {
			t.Errorf("expected ErrNoUsableRows for all-skipped input, got %v", err)
		}
	})

	t.Run("Commit Failure Is Fatal", func(t *testing.T) {
		m := &mockStore{countries: usaCountries(), commitErr: errors.New("store rejected transaction")}
		engine := testEngine(m)

		records := []tabular.Record{{Title: "Test University", Country: "Kenya"}}
		result, err := engine.Import(context.Background(), nil, records, ImportOptions{StatusDefault: store.StatusPublished})
		if err == nil {
			t.Fatal("expected commit error")
		}
		if result.Written != 0 {
			t.Errorf("written = %d after failed commit", result.Written)
		}
	})

	t.Run("Reimport Creates Duplicates", func(t *testing.T) {
		// There is no upsert by natural key: importing the same input
		// twice creates two documents with the same title.
		m := &mockStore{countries: usaCountries()}
		engine := testEngine(m)

		records := []tabular.Record{{Title: "Test University", Country: "Kenya"}}
		for i := 0; i < 2; i++ {
			if _, err := engine.Import(context.Background(), nil, records, ImportOptions{StatusDefault: store.StatusPublished}); err != nil {
				t.Fatalf("Import #%d: %v", i+1, err)
			}
		}

		if len(m.commits) != 2 {
			t.Fatalf("commits = %d, want 2", len(m.commits))
		}
		for _, tx := range m.commits {
			muts := mutationsOf(t, tx)
			if len(muts) != 1 {
				t.Fatalf("mutations = %d", len(muts))
			}
			create, ok := muts[0]["create"].(map[string]any)
			if !ok || create["title"] != "Test University" {
				t.Errorf("mutation = %+v", muts[0])
			}
		}
	})
}
