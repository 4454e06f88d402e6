package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/hesi-tools/memberdir/internal/shared"
	"github.com/hesi-tools/memberdir/internal/store"
	"github.com/hesi-tools/memberdir/internal/tasks"
	"github.com/hesi-tools/memberdir/internal/ui"
)

// Review opens the interactive TUI: a dry run builds the documents, the
// operator browses them, and a confirmed write goes out in batches.
func (r *Runner) Review(ctx context.Context, cmd *cli.Command) error {
	status := cmd.String("status")
	if status != store.StatusPublished && status != store.StatusSubmitted {
		return fmt.Errorf("%w: --status must be published or submitted, got %q", shared.ErrInvalidFlag, status)
	}

	records, err := r.readRecords(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, engine, records, tasks.ImportOptions{
		StatusDefault: status,
		Limit:         int(cmd.Int("limit")),
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("review ui failed: %w", err)
	}
	return nil
}
