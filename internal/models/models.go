// package models defines the data model for the local import-run journal
package models

import (
	"fmt"
	"time"

	"github.com/hesi-tools/memberdir/internal/shared"
)

// Problem kinds recorded against an import run. One row can carry several.
const (
	ProblemMissingTitle   = "missing_title"
	ProblemMissingCountry = "missing_country"
	ProblemBadDate        = "bad_date"
	ProblemRegionMismatch = "region_mismatch"
)

// ImportRun records one importer invocation: what was read, what was
// prepared, and what actually landed in the content store.
type ImportRun struct {
	ID            string
	Sequence      int
	SourceFile    string
	StatusDefault string
	DryRun        bool
	RowsRead      int
	DocsPrepared  int
	DocsWritten   int
	StartedAt     time.Time
	FinishedAt    *time.Time
	CreatedAt     time.Time
}

// NewImportRun starts a run record for the given source file.
func NewImportRun(sourceFile, statusDefault string, dryRun bool) *ImportRun {
	now := time.Now()
	return &ImportRun{
		SourceFile:    sourceFile,
		StatusDefault: statusDefault,
		DryRun:        dryRun,
		StartedAt:     now,
		CreatedAt:     now,
	}
}

// Validate checks the run's data before persistence.
func (r *ImportRun) Validate() error {
	if r.SourceFile == "" {
		return fmt.Errorf("%w: import run requires a source file", shared.ErrInvalidInput)
	}
	switch r.StatusDefault {
	case "published", "submitted":
	default:
		return fmt.Errorf("%w: status default must be published or submitted, got %q", shared.ErrInvalidInput, r.StatusDefault)
	}
	if r.DocsWritten > r.DocsPrepared {
		return fmt.Errorf("%w: written count exceeds prepared count", shared.ErrInvalidInput)
	}
	return nil
}

// Finish stamps the run complete with its final counts.
func (r *ImportRun) Finish(rowsRead, docsPrepared, docsWritten int) {
	now := time.Now()
	r.RowsRead = rowsRead
	r.DocsPrepared = docsPrepared
	r.DocsWritten = docsWritten
	r.FinishedAt = &now
}

// Problem is one row-level issue recorded during a run. Problems never
// abort a run; they exist so an operator can review what the importer
// worked around.
type Problem struct {
	ID     int64 // rowid assigned by the journal database on insert
	RunID  string
	RowNum int
	Kind   string
	Detail string
}

// Validate checks the problem's data before persistence.
func (p *Problem) Validate() error {
	switch p.Kind {
	case ProblemMissingTitle, ProblemMissingCountry, ProblemBadDate, ProblemRegionMismatch:
	default:
		return fmt.Errorf("%w: unknown problem kind %q", shared.ErrInvalidInput, p.Kind)
	}
	if p.RowNum < 1 {
		return fmt.Errorf("%w: problem row number must be positive", shared.ErrInvalidInput)
	}
	return nil
}
