package formatter

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hesi-tools/memberdir/internal/countries"
	"github.com/hesi-tools/memberdir/internal/models"
	"github.com/hesi-tools/memberdir/internal/store"
	"github.com/hesi-tools/memberdir/internal/tasks"
	tu "github.com/hesi-tools/memberdir/internal/testing"
)

func sampleResult() *tasks.ImportResult {
	return &tasks.ImportResult{
		RowsRead: 3,
		Documents: []store.Member{
			{Type: "member", Title: "Test University", Status: store.StatusPublished, Country: store.Ref("country.usa"), DateJoined: "2024-03-04"},
			{Type: "member", Title: "Lost Institute", Status: store.StatusPublished, ImportCountryRaw: "Atlantis", DateJoined: "2024-01-01"},
		},
		Problems: tasks.ProblemReport{
			MissingCountry: []tasks.RowProblem{{Row: 2, Detail: `Lost Institute: "Atlantis"`}},
			BadDate:        []tasks.RowProblem{{Row: 3, Detail: `Skipped Org: "sometime"`}},
		},
		Unmatched: []countries.Entry{{Name: "atlantis", Count: 1}},
		Written:   2,
	}
}

func TestImportSummaryToText(t *testing.T) {
	text := string(ImportSummaryToText(sampleResult(), "members.csv"))

	for _, want := range []string{
		"Source: members.csv (import)",
		"Rows read: 3",
		"Documents built: 2",
		"Documents written: 2",
		"Unresolved country (1):",
		"Unparseable date (1):",
		"1x atlantis",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Preview:") {
		t.Error("non-dry run should not include a preview")
	}
}

func TestImportSummaryToTextDryRun(t *testing.T) {
	result := sampleResult()
	result.DryRun = true
	result.Written = 0

	text := string(ImportSummaryToText(result, "members.csv"))
	if !strings.Contains(text, "(dry run)") {
		t.Errorf("missing dry run marker:\n%s", text)
	}
	if !strings.Contains(text, "Preview:") || !strings.Contains(text, "country=country.usa") {
		t.Errorf("missing preview:\n%s", text)
	}
	if !strings.Contains(text, "country=Atlantis") {
		t.Errorf("raw country fallback not shown:\n%s", text)
	}
}

func TestImportSummaryToJSON(t *testing.T) {
	data, err := ImportSummaryToJSON(sampleResult(), "members.csv")
	if err != nil {
		t.Fatalf("ImportSummaryToJSON: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["source"] != "members.csv" || decoded["written"] != float64(2) {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestProblemsToCSV(t *testing.T) {
	data, err := ProblemsToCSV([]models.Problem{
		{RowNum: 2, Kind: models.ProblemMissingCountry, Detail: "Atlantis"},
		{RowNum: 3, Kind: models.ProblemBadDate, Detail: "sometime, maybe"},
	})
	if err != nil {
		t.Fatalf("ProblemsToCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows", len(lines))
	}
	if lines[0] != "Row,Kind,Detail" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], `"sometime, maybe"`) {
		t.Errorf("comma in detail not quoted: %q", lines[2])
	}
}

func TestRunToText(t *testing.T) {
	finished := time.Date(2026, 8, 30, 12, 5, 0, 0, time.UTC)
	run := &models.ImportRun{
		ID:            "run-1",
		Sequence:      7,
		SourceFile:    "members.csv",
		StatusDefault: "published",
		RowsRead:      10,
		DocsPrepared:  9,
		DocsWritten:   9,
		StartedAt:     finished.Add(-time.Minute),
		FinishedAt:    &finished,
	}

	text := string(RunToText(run, []models.Problem{{RowNum: 4, Kind: models.ProblemMissingTitle, Detail: "row has no title"}}))
	for _, want := range []string{"Run #7", "members.csv", "Documents written: 9", "row 4 [missing_title]"} {
		if !strings.Contains(text, want) {
			t.Errorf("run text missing %q:\n%s", want, text)
		}
	}
}

func TestWriteReportExport(t *testing.T) {
	base := filepath.Join(t.TempDir(), "report")

	export, err := WriteReportExport(sampleResult(), "members.csv", base)
	if err != nil {
		t.Fatalf("WriteReportExport: %v", err)
	}
	if export.SummaryFile != base+"_summary.json" {
		t.Errorf("summary file = %q", export.SummaryFile)
	}
	if export.ProblemsFile != base+"_problems.csv" {
		t.Errorf("problems file = %q", export.ProblemsFile)
	}
	tu.AssertFileExists(t, export.SummaryFile)
	if csv := tu.MustReadFile(t, export.ProblemsFile); !strings.Contains(csv, "missing_country") {
		t.Errorf("problems csv missing kind column:\n%s", csv)
	}

	t.Run("No Problems Skips CSV", func(t *testing.T) {
		result := sampleResult()
		result.Problems = tasks.ProblemReport{}

		export, err := WriteReportExport(result, "members.csv", filepath.Join(t.TempDir(), "clean"))
		if err != nil {
			t.Fatalf("WriteReportExport: %v", err)
		}
		if export.ProblemsFile != "" {
			t.Errorf("problems file = %q, want empty", export.ProblemsFile)
		}
	})
}
