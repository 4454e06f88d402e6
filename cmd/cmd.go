// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// parseFlags are shared by every command that reads a source file.
func parseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "Path to the source CSV file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "delimiter",
			Usage: "Field delimiter",
			Value: ",",
		},
		&cli.BoolFlag{
			Name:  "no-headers",
			Usage: "Treat the first row as data, using positional columns",
		},
		&cli.StringFlag{
			Name:  "map",
			Usage: "Header aliases as field=header pairs (e.g. title=Organisation,country=Nation)",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Process at most N rows, 0 means all",
		},
		&cli.StringFlag{
			Name:  "status",
			Usage: "Status given to created members (published or submitted)",
			Value: "published",
		},
	}
}

// importCommand runs the CSV import pipeline.
func importCommand(r *Runner) *cli.Command {
	flags := append(parseFlags(),
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Build and report everything, write nothing",
		},
		&cli.BoolFlag{
			Name:  "wipe",
			Usage: "Delete every member before importing",
		},
		&cli.BoolFlag{
			Name:  "wipe-submitted",
			Usage: "Delete only submitted members before importing",
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Skip the confirmation prompt for destructive steps",
		},
		&cli.StringFlag{
			Name:  "export",
			Usage: "Base path for summary and problem report files",
		},
	)

	return &cli.Command{
		Name:    "import",
		Aliases: []string{"imp"},
		Usage:   "Import members from a CSV export into the directory",
		Flags:   flags,
		Action:  r.Import,
	}
}

// reviewCommand opens the interactive dry-run review TUI.
func reviewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "review",
		Aliases: []string{"ui"},
		Usage:   "Review an import interactively before writing",
		Flags:   parseFlags(),
		Action:  r.Review,
	}
}

// wipeCommand removes documents from the store.
func wipeCommand(r *Runner) *cli.Command {
	confirmFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Report what would be deleted, delete nothing",
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Skip the confirmation prompt",
		},
	}

	return &cli.Command{
		Name:  "wipe",
		Usage: "Bulk-delete directory documents",
		Commands: []*cli.Command{
			{
				Name:  "members",
				Usage: "Delete member documents",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "submitted-only",
						Usage: "Delete only never-published submissions",
					},
				}, confirmFlags...),
				Action: r.WipeMembers,
			},
			{
				Name:   "memberships",
				Usage:  "Delete membership documents, cleaning inbound references first",
				Flags:  confirmFlags,
				Action: r.WipeMemberships,
			},
		},
	}
}

// regionsCommand normalizes region documents onto the canonical set.
func regionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "regions",
		Usage: "Collapse region documents onto the six canonical regions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "apply",
				Usage: "Apply the plan instead of only printing it",
			},
			&cli.BoolFlag{
				Name:  "delete-extras",
				Usage: "Also delete unreferenced non-canonical regions",
			},
		},
		Action: r.Regions,
	}
}

// tagCommand appends an action-group reference to a list of members.
func tagCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "Tag members into an action group by title",
		ArgsUsage: "[member title ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "group",
				Aliases:  []string{"g"},
				Usage:    "Action group title",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "names-file",
				Usage: "File with one member title per line",
			},
			&cli.BoolFlag{
				Name:  "apply",
				Usage: "Apply the plan instead of only printing it",
			},
		},
		Action: r.Tag,
	}
}

// runsCommand reads the local import-run journal.
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect past import runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
				},
				Action: r.RunsList,
			},
			{
				Name:  "show",
				Usage: "Show one run with its recorded problems",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.RunsShow,
			},
		},
	}
}

// serveCommand starts the public HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the directory API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind address",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Bind port",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand initializes configuration and the run-journal database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the journal database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
