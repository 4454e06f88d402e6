// package formatter renders import results and journal entries to various formats (text, CSV, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/hesi-tools/memberdir/internal/models"
	"github.com/hesi-tools/memberdir/internal/shared"
	"github.com/hesi-tools/memberdir/internal/tasks"
)

// ImportSummaryToText renders a run result as a human-readable summary:
// counts first, then problems grouped by kind, then the unmatched-country
// tally, and for dry runs a preview of the first built documents.
func ImportSummaryToText(result *tasks.ImportResult, sourceFile string) []byte {
	var buf bytes.Buffer

	mode := "import"
	if result.DryRun {
		mode = "dry run"
	}
	buf.WriteString(fmt.Sprintf("Source: %s (%s)\n", sourceFile, mode))
	buf.WriteString(fmt.Sprintf("Rows read: %d\n", result.RowsRead))
	buf.WriteString(fmt.Sprintf("Documents built: %d\n", len(result.Documents)))
	buf.WriteString(fmt.Sprintf("Documents written: %d\n", result.Written))
	buf.WriteString(fmt.Sprintf("Problems: %d\n", result.Problems.Total()))

	writeProblems(&buf, "Missing title", result.Problems.MissingTitle)
	writeProblems(&buf, "Unresolved country", result.Problems.MissingCountry)
	writeProblems(&buf, "Unparseable date", result.Problems.BadDate)
	writeProblems(&buf, "Region mismatch", result.Problems.RegionMismatch)

	if len(result.Unmatched) > 0 {
		buf.WriteString("\nUnmatched country names:\n")
		for _, e := range result.Unmatched {
			buf.WriteString(fmt.Sprintf("  %4dx %s\n", e.Count, e.Name))
		}
	}

	if result.DryRun {
		buf.WriteString("\nPreview:\n")
		for i, doc := range result.Preview() {
			country := doc.ImportCountryRaw
			if doc.Country != nil {
				country = doc.Country.Ref
			}
			buf.WriteString(fmt.Sprintf("%d. %s [%s] country=%s joined=%s\n",
				i+1, doc.Title, doc.Status, country, doc.DateJoined))
		}
	}

	return buf.Bytes()
}

func writeProblems(buf *bytes.Buffer, label string, problems []tasks.RowProblem) {
	if len(problems) == 0 {
		return
	}
	buf.WriteString(fmt.Sprintf("\n%s (%d):\n", label, len(problems)))
	for _, p := range problems {
		buf.WriteString(fmt.Sprintf("  row %d: %s\n", p.Row, p.Detail))
	}
}

// ImportSummaryToJSON renders the machine-readable form of the summary.
func ImportSummaryToJSON(result *tasks.ImportResult, sourceFile string) ([]byte, error) {
	payload := map[string]any{
		"source":    sourceFile,
		"dryRun":    result.DryRun,
		"rowsRead":  result.RowsRead,
		"built":     len(result.Documents),
		"written":   result.Written,
		"problems":  result.Problems,
		"unmatched": result.Unmatched,
	}
	return shared.MarshalJSON(payload, true)
}

// ProblemsToCSV converts journal problem rows to CSV with columns: Row, Kind, Detail
func ProblemsToCSV(problems []models.Problem) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Row", "Kind", "Detail"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, p := range problems {
		record := []string{strconv.Itoa(p.RowNum), p.Kind, p.Detail}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// RunToText renders one journal entry for `runs show`.
func RunToText(run *models.ImportRun, problems []models.Problem) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Run #%d (%s)\n", run.Sequence, run.ID))
	buf.WriteString(fmt.Sprintf("Source: %s\n", run.SourceFile))
	buf.WriteString(fmt.Sprintf("Status default: %s\n", run.StatusDefault))
	buf.WriteString(fmt.Sprintf("Dry run: %t\n", run.DryRun))
	buf.WriteString(fmt.Sprintf("Rows read: %d\n", run.RowsRead))
	buf.WriteString(fmt.Sprintf("Documents prepared: %d\n", run.DocsPrepared))
	buf.WriteString(fmt.Sprintf("Documents written: %d\n", run.DocsWritten))
	buf.WriteString(fmt.Sprintf("Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05")))
	if run.FinishedAt != nil {
		buf.WriteString(fmt.Sprintf("Finished: %s\n", run.FinishedAt.Format("2006-01-02 15:04:05")))
	}

	if len(problems) > 0 {
		buf.WriteString(fmt.Sprintf("\nProblems (%d):\n", len(problems)))
		for _, p := range problems {
			buf.WriteString(fmt.Sprintf("  row %d [%s] %s\n", p.RowNum, p.Kind, p.Detail))
		}
	}

	return buf.Bytes()
}

// RunListToText renders journal entries as a compact table, newest first.
func RunListToText(runs []*models.ImportRun) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%-4s %-36s %-24s %-9s %6s %6s %6s\n",
		"#", "ID", "Source", "Mode", "Rows", "Built", "Wrote"))
	for _, run := range runs {
		mode := "import"
		if run.DryRun {
			mode = "dry-run"
		}
		buf.WriteString(fmt.Sprintf("%-4d %-36s %-24s %-9s %6d %6d %6d\n",
			run.Sequence, run.ID, run.SourceFile, mode, run.RowsRead, run.DocsPrepared, run.DocsWritten))
	}

	return buf.Bytes()
}

// ReportExportResult contains the paths of files created by WriteReportExport
type ReportExportResult struct {
	SummaryFile  string
	ProblemsFile string
}

// WriteReportExport writes a run's machine-readable artifacts next to each
// other: {base}_summary.json and, when there are problems, {base}_problems.csv.
func WriteReportExport(result *tasks.ImportResult, sourceFile, baseFilepath string) (*ReportExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "import_report"
	}

	summaryJSON, err := ImportSummaryToJSON(result, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary JSON: %w", err)
	}

	summaryFile := baseFilepath + "_summary.json"
	if err := os.WriteFile(summaryFile, summaryJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write summary file: %w", err)
	}

	export := &ReportExportResult{SummaryFile: summaryFile}
	if result.Problems.Total() == 0 {
		return export, nil
	}

	csvData, err := ProblemsToCSV(result.Problems.Rows())
	if err != nil {
		return nil, fmt.Errorf("failed to generate problems CSV: %w", err)
	}

	problemsFile := baseFilepath + "_problems.csv"
	if err := os.WriteFile(problemsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write problems file: %w", err)
	}
	export.ProblemsFile = problemsFile

	return export, nil
}
