package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hesi-tools/memberdir/internal/shared"
	"github.com/hesi-tools/memberdir/internal/tasks"
)

// WipeMembers deletes member documents, optionally only submissions.
func (r *Runner) WipeMembers(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.WipeOptions{
		SubmittedOnly: cmd.Bool("submitted-only"),
		DryRun:        cmd.Bool("dry-run"),
	}

	what := "ALL member documents"
	if opts.SubmittedOnly {
		what = "submitted member documents"
	}
	if !opts.DryRun && !cmd.Bool("yes") {
		if !r.confirm(fmt.Sprintf("Delete %s?", what)) {
			return fmt.Errorf("%w: wipe not confirmed", shared.ErrInvalidInput)
		}
	}

	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := r.drainProgress(progress)
	result, err := engine.WipeMembers(ctx, progress, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writeWipeResult("Members", result)
	return nil
}

// WipeMemberships deletes membership documents after scrubbing every
// document that still references them.
func (r *Runner) WipeMemberships(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.WipeOptions{DryRun: cmd.Bool("dry-run")}

	if !opts.DryRun && !cmd.Bool("yes") {
		if !r.confirm("Delete ALL membership documents?") {
			return fmt.Errorf("%w: wipe not confirmed", shared.ErrInvalidInput)
		}
	}

	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := r.drainProgress(progress)
	result, err := engine.WipeMemberships(ctx, progress, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writeWipeResult("Memberships", result)
	return nil
}

func (r *Runner) writeWipeResult(kind string, result *tasks.WipeResult) {
	r.writePlainHeader(fmt.Sprintf("%s wipe", kind))
	if result.DryRun {
		r.writePlain("Dry run, nothing was deleted.\n")
	}
	r.writePlain("Scanned:  %d\n", result.Scanned)
	if result.Cleaned > 0 {
		r.writePlain("Cleaned:  %d documents had references scrubbed\n", result.Cleaned)
	}
	r.writePlain("Deleted:  %d\n", result.Deleted)
}

// Regions normalizes region documents onto the canonical six.
func (r *Runner) Regions(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	opts := tasks.RegionOptions{
		Apply:        cmd.Bool("apply"),
		DeleteExtras: cmd.Bool("delete-extras"),
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := r.drainProgress(progress)
	result, err := engine.NormalizeRegions(ctx, progress, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainHeader("Region normalization")
	if !result.Applied {
		r.writePlain("Plan only, nothing was written. Re-run with --apply.\n")
	}
	r.writePlain("Canonical regions ensured: %d\n", result.Upserted)
	for old, canon := range result.Remaps {
		r.writePlain("  remap %s -> %s\n", old, canon)
	}
	if len(result.Extras) > 0 {
		r.writePlain("Unmatched regions: %s\n", strings.Join(result.Extras, ", "))
	}
	r.writePlain("Documents patched: %d\n", result.Patched)
	r.writePlain("Regions deleted:   %d\n", result.Deleted)
	return nil
}

// Tag appends an action-group reference to the named members.
func (r *Runner) Tag(ctx context.Context, cmd *cli.Command) error {
	names := cmd.Args().Slice()
	if path := cmd.String("names-file"); path != "" {
		fromFile, err := readNameList(path)
		if err != nil {
			return err
		}
		names = append(names, fromFile...)
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: provide member names as arguments or via --names-file", shared.ErrMissingArgument)
	}

	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := r.drainProgress(progress)
	result, err := engine.TagGroup(ctx, progress, tasks.TagOptions{
		GroupTitle: cmd.String("group"),
		Names:      names,
		Apply:      cmd.Bool("apply"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Tagging into %q", result.GroupTitle))
	if !result.Applied {
		r.writePlain("Plan only, nothing was written. Re-run with --apply.\n")
	}
	if result.CreatedGroup {
		verb := "will be created"
		if result.Applied {
			verb = "was created"
		}
		r.writePlain("Group %s did not exist and %s.\n", result.GroupID, verb)
	}
	r.writePlain("Tagged:     %d\n", len(result.Tagged))
	r.writePlain("Already in: %d\n", len(result.Already))
	if len(result.Unresolved) > 0 {
		r.writePlain("Unresolved names:\n")
		for _, name := range result.Unresolved {
			r.writePlain("  %s\n", name)
		}
	}
	return nil
}

// readNameList reads one member title per line, skipping blanks.
func readNameList(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnreadableInput, err)
	}

	var names []string
	for _, line := range strings.Split(string(raw), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
