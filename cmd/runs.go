package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hesi-tools/memberdir/internal/formatter"
	"github.com/hesi-tools/memberdir/internal/repositories"
	"github.com/hesi-tools/memberdir/internal/shared"
)

// RunsList prints recorded import runs, newest first.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewRunRepository(db)
	runs, err := repo.List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet.\n")
	}
	return r.writePlain("%s", formatter.RunListToText(runs))
}

// RunsShow prints one run with every problem recorded against it.
func (r *Runner) RunsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	db, err := r.openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewRunRepository(db)
	run, err := repo.Get(id)
	if err != nil {
		return err
	}
	problems, err := repo.Problems(id)
	if err != nil {
		return err
	}

	return r.writePlain("%s", formatter.RunToText(run, problems))
}
