package tabular

import (
	"testing"
)

func TestNewResolver(t *testing.T) {
	t.Run("valid spec", func(t *testing.T) {
		r, err := NewResolver("title=Institution,country=Nation,email=Contacts")
		if err != nil {
			t.Fatalf("NewResolver failed: %v", err)
		}
		if r.aliases["title"] != "Institution" {
			t.Errorf("expected alias Institution, got %q", r.aliases["title"])
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		if _, err := NewResolver("titel=Institution"); err == nil {
			t.Error("expected error for unknown target field")
		}
	})

	t.Run("malformed entry rejected", func(t *testing.T) {
		if _, err := NewResolver("title"); err == nil {
			t.Error("expected error for entry without =")
		}
	})

	t.Run("empty spec", func(t *testing.T) {
		if _, err := NewResolver(""); err != nil {
			t.Errorf("empty spec should be fine: %v", err)
		}
	})
}

func TestFromHeadered(t *testing.T) {
	r, err := NewResolver("")
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	t.Run("synonyms matched case-insensitively", func(t *testing.T) {
		headers := []string{"INSTITUTION", "Nation", " Website "}
		row := []string{"Test University", "Kenya", "test.edu"}

		rec := r.FromHeadered(headers, row)
		if rec.Title != "Test University" {
			t.Errorf("expected title from Institution column, got %q", rec.Title)
		}
		if rec.Country != "Kenya" {
			t.Errorf("expected country from Nation column, got %q", rec.Country)
		}
		if rec.Website != "test.edu" {
			t.Errorf("expected website, got %q", rec.Website)
		}
	})

	t.Run("alias wins over synonym", func(t *testing.T) {
		ar, err := NewResolver("title=Entry")
		if err != nil {
			t.Fatalf("NewResolver failed: %v", err)
		}

		headers := []string{"Entry", "Name"}
		row := []string{"From Alias", "From Synonym"}

		rec := ar.FromHeadered(headers, row)
		if rec.Title != "From Alias" {
			t.Errorf("expected alias column to win, got %q", rec.Title)
		}
	})

	t.Run("empty alias cell falls back to synonyms", func(t *testing.T) {
		ar, err := NewResolver("title=Entry")
		if err != nil {
			t.Fatalf("NewResolver failed: %v", err)
		}

		headers := []string{"Entry", "Name"}
		row := []string{"", "From Synonym"}

		rec := ar.FromHeadered(headers, row)
		if rec.Title != "From Synonym" {
			t.Errorf("expected synonym fallback, got %q", rec.Title)
		}
	})

	t.Run("merge spec joins both description columns", func(t *testing.T) {
		headers := []string{"Title", "Desacription", "Description"}
		row := []string{"Test University", "First part.", "Second part."}

		rec := r.FromHeadered(headers, row)
		if rec.Description != "Second part.\nFirst part." && rec.Description != "First part.\nSecond part." {
			// Spec order lists "description" before "desacription".
			t.Errorf("expected merged description, got %q", rec.Description)
		}
	})

	t.Run("missing optional fields resolve empty", func(t *testing.T) {
		headers := []string{"Title"}
		row := []string{"Test University"}

		rec := r.FromHeadered(headers, row)
		if rec.Country != "" || rec.Email != "" {
			t.Errorf("expected empty optional fields, got %+v", rec)
		}
	})

	t.Run("row shorter than headers", func(t *testing.T) {
		headers := []string{"Title", "Country", "Website"}
		row := []string{"Test University"}

		rec := r.FromHeadered(headers, row)
		if rec.Title != "Test University" || rec.Country != "" {
			t.Errorf("short row mishandled: %+v", rec)
		}
	})
}

func TestFromPositional(t *testing.T) {
	r, err := NewResolver("")
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	t.Run("full row", func(t *testing.T) {
		row := []string{"Test University", "University", "Kenya", "2024-10-01", "Africa", "test.edu", "a@test.edu", "Jane Doe"}

		rec := r.FromPositional(row)
		if rec.Title != "Test University" || rec.Country != "Kenya" || rec.Focalpoint != "Jane Doe" {
			t.Errorf("unexpected record: %+v", rec)
		}
	})

	t.Run("short row padded", func(t *testing.T) {
		rec := r.FromPositional([]string{"Test University"})
		if rec.Title != "Test University" {
			t.Errorf("expected title, got %q", rec.Title)
		}
		if rec.Email != "" || rec.Focalpoint != "" {
			t.Errorf("expected padded empties, got %+v", rec)
		}
	})
}

func TestResolve(t *testing.T) {
	r, err := NewResolver("")
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	t.Run("headered table", func(t *testing.T) {
		table := &Table{
			Headers: []string{"Title", "Country"},
			Rows:    [][]string{{"A", "Kenya"}, {"B", "Chile"}},
		}
		records := r.Resolve(table)
		if len(records) != 2 || records[1].Country != "Chile" {
			t.Errorf("unexpected records: %+v", records)
		}
	})

	t.Run("positional table", func(t *testing.T) {
		table := &Table{Rows: [][]string{{"A", "", "Kenya"}}}
		records := r.Resolve(table)
		if len(records) != 1 || records[0].Country != "Kenya" {
			t.Errorf("unexpected records: %+v", records)
		}
	})
}
