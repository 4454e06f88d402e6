package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hesi-tools/memberdir/internal/formatter"
	"github.com/hesi-tools/memberdir/internal/models"
	"github.com/hesi-tools/memberdir/internal/repositories"
	"github.com/hesi-tools/memberdir/internal/shared"
	"github.com/hesi-tools/memberdir/internal/store"
	"github.com/hesi-tools/memberdir/internal/tabular"
	"github.com/hesi-tools/memberdir/internal/tasks"
)

// Import reads a CSV export, builds member documents, and writes them to
// the store in batches, journaling the run locally.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	status := cmd.String("status")
	if status != store.StatusPublished && status != store.StatusSubmitted {
		return fmt.Errorf("%w: --status must be published or submitted, got %q", shared.ErrInvalidFlag, status)
	}

	records, err := r.readRecords(cmd)
	if err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run") || r.config.Import.DryRun

	if cmd.Bool("wipe") || cmd.Bool("wipe-submitted") {
		if err := r.wipeBeforeImport(ctx, cmd, dryRun); err != nil {
			return err
		}
	}

	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	db, err := r.openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewRunRepository(db)
	run := models.NewImportRun(cmd.String("file"), status, dryRun)
	if err := repo.Create(run); err != nil {
		return fmt.Errorf("failed to journal run: %w", err)
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := r.drainProgress(progress)

	result, importErr := engine.Import(ctx, progress, records, tasks.ImportOptions{
		StatusDefault: status,
		DryRun:        dryRun,
		Limit:         int(cmd.Int("limit")),
	})
	close(progress)
	<-done

	if result != nil {
		run.Finish(result.RowsRead, len(result.Documents), result.Written)
		if err := repo.Update(run); err != nil {
			r.logger.Warn("failed to update run journal", "error", err)
		}
		if problems := result.Problems.Rows(); len(problems) > 0 {
			if err := repo.AddProblems(run.ID, problems); err != nil {
				r.logger.Warn("failed to journal problems", "error", err)
			}
		}
	}
	if importErr != nil {
		return importErr
	}

	r.writePlain("%s", formatter.ImportSummaryToText(result, cmd.String("file")))

	if base := cmd.String("export"); base != "" {
		export, err := formatter.WriteReportExport(result, cmd.String("file"), base)
		if err != nil {
			return err
		}
		r.writePlainln("Summary written to %s", export.SummaryFile)
		if export.ProblemsFile != "" {
			r.writePlain("Problems written to %s\n", export.ProblemsFile)
		}
	}

	return nil
}

// wipeBeforeImport clears members ahead of a full re-import.
func (r *Runner) wipeBeforeImport(ctx context.Context, cmd *cli.Command, dryRun bool) error {
	submittedOnly := cmd.Bool("wipe-submitted")

	what := "ALL members"
	if submittedOnly {
		what = "submitted members"
	}
	if !dryRun && !cmd.Bool("yes") {
		if !r.confirm(fmt.Sprintf("Delete %s before importing?", what)) {
			return fmt.Errorf("%w: wipe not confirmed", shared.ErrInvalidInput)
		}
	}

	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := r.drainProgress(progress)
	result, err := engine.WipeMembers(ctx, progress, tasks.WipeOptions{
		SubmittedOnly: submittedOnly,
		DryRun:        dryRun,
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.logger.Info("pre-import wipe finished", "scanned", result.Scanned, "deleted", result.Deleted, "dry_run", result.DryRun)
	return nil
}

// readRecords loads and resolves the source file named by the shared
// parsing flags.
func (r *Runner) readRecords(cmd *cli.Command) ([]tabular.Record, error) {
	delim := cmd.String("delimiter")
	if delim == "" {
		return nil, fmt.Errorf("%w: --delimiter must not be empty", shared.ErrInvalidFlag)
	}

	table, err := tabular.ReadFile(cmd.String("file"), tabular.Options{
		Delimiter: []rune(delim)[0],
		NoHeaders: cmd.Bool("no-headers"),
	})
	if err != nil {
		return nil, err
	}

	resolver, err := tabular.NewResolver(cmd.String("map"))
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(table), nil
}

// confirm asks for interactive confirmation on stdin.
func (r *Runner) confirm(prompt string) bool {
	r.writePlain("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
