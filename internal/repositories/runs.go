package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hesi-tools/memberdir/internal/models"
	"github.com/hesi-tools/memberdir/internal/shared"
)

// RunRepository persists [models.ImportRun] records and their problems.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new [RunRepository] with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run with generated ID and sequence
func (r *RunRepository) Create(run *models.ImportRun) error {
	sequence, err := NextSequence(r.db, "import_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.ID = shared.GenerateID()
	run.Sequence = sequence

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO import_runs (id, sequence, source_file, status_default, dry_run, rows_read, docs_prepared, docs_written, started_at, finished_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.ID,
		run.Sequence,
		run.SourceFile,
		run.StatusDefault,
		run.DryRun,
		run.RowsRead,
		run.DocsPrepared,
		run.DocsWritten,
		run.StartedAt,
		nullableTime(run.FinishedAt),
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}

	return nil
}

// Update writes the run's final counts and finish time back to the journal
func (r *RunRepository) Update(run *models.ImportRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE import_runs
		SET rows_read = ?, docs_prepared = ?, docs_written = ?, finished_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.RowsRead,
		run.DocsPrepared,
		run.DocsWritten,
		nullableTime(run.FinishedAt),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update import run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: import run %s", shared.ErrNotFound, run.ID)
	}

	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.ImportRun, error) {
	query := `
		SELECT id, sequence, source_file, status_default, dry_run, rows_read, docs_prepared, docs_written, started_at, finished_at, created_at
		FROM import_runs
		WHERE id = ?
	`

	run, err := r.scanRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: import run %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query import run: %w", err)
	}
	return run, nil
}

// List retrieves recent runs, newest first, capped at limit (0 means all)
func (r *RunRepository) List(limit int) ([]*models.ImportRun, error) {
	query := `
		SELECT id, sequence, source_file, status_default, dry_run, rows_read, docs_prepared, docs_written, started_at, finished_at, created_at
		FROM import_runs
		ORDER BY sequence DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ImportRun
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AddProblems bulk-inserts problem rows for a run in one transaction
func (r *RunRepository) AddProblems(runID string, problems []models.Problem) error {
	if len(problems) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO import_problems (run_id, row_num, kind, detail) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range problems {
		p := &problems[i]
		p.RunID = runID
		if err := p.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		res, err := stmt.Exec(p.RunID, p.RowNum, p.Kind, p.Detail)
		if err != nil {
			return fmt.Errorf("failed to insert problem: %w", err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read problem id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit problems: %w", err)
	}
	return nil
}

// Problems retrieves a run's problem rows in row order
func (r *RunRepository) Problems(runID string) ([]models.Problem, error) {
	query := `
		SELECT id, run_id, row_num, kind, detail
		FROM import_problems
		WHERE run_id = ?
		ORDER BY row_num ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query problems: %w", err)
	}
	defer rows.Close()

	var problems []models.Problem
	for rows.Next() {
		var p models.Problem
		if err := rows.Scan(&p.ID, &p.RunID, &p.RowNum, &p.Kind, &p.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan problem: %w", err)
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *RunRepository) scanRun(row rowScanner) (*models.ImportRun, error) {
	var (
		run        models.ImportRun
		finishedAt sql.NullTime
	)
	err := row.Scan(
		&run.ID,
		&run.Sequence,
		&run.SourceFile,
		&run.StatusDefault,
		&run.DryRun,
		&run.RowsRead,
		&run.DocsPrepared,
		&run.DocsWritten,
		&run.StartedAt,
		&finishedAt,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
