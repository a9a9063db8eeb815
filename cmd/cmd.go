// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Revert the most recent migration instead of applying",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles provider authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage provider authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate against the provider and store credentials",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "server",
						Usage:    "Provider server URL",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Account username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Clear stored credentials and category selections",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show login state, account expiry and last sync",
				Action: r.AuthStatus,
			},
		},
	}
}

// categoriesCommand lists and selects provider categories
func categoriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "categories",
		Aliases: []string{"cat"},
		Usage:   "Browse and select catalog categories",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List synced categories for a section",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "section",
						Aliases: []string{"s"},
						Usage:   "Catalog section (live, vod or series)",
						Value:   "live",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CategoriesList,
			},
			{
				Name:  "select",
				Usage: "Replace the selected category ids for a section",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "section",
						Aliases: []string{"s"},
						Usage:   "Catalog section (live, vod or series)",
						Value:   "live",
					},
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Provider category id to sync (repeatable)",
					},
				},
				Action: r.CategoriesSelect,
			},
		},
	}
}

// syncCommand runs a catalog synchronization
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Synchronize selected categories from the provider",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "section",
				Aliases: []string{"s"},
				Usage:   "Catalog section (live, vod or series)",
				Value:   "live",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Sync every section",
			},
		},
		Action: r.Sync,
	}
}

// epgCommand handles program-guide ingestion and eviction
func epgCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "epg",
		Usage: "Program guide operations",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Fetch guide entries for every synced channel",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent guide fetches (0 uses the configured value)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Guide entries requested per channel (0 uses the configured value)",
					},
				},
				Action: r.EpgSync,
			},
			{
				Name:   "sweep",
				Usage:  "Evict guide entries that ended in the past",
				Action: r.EpgSweep,
			},
		},
	}
}

// channelsCommand lists stored channels
func channelsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "channels",
		Usage: "List synced channels",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "category",
				Usage: "Restrict to one category id (see 'categories list')",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Channels,
	}
}

// guideCommand shows the stored guide for one channel
func guideCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "guide",
		Usage: "Show current and upcoming programs for a channel",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "channel",
				Usage:    "Provider stream id of the channel",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "at",
				Usage: "Unix timestamp to evaluate (defaults to now)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum upcoming entries to show",
				Value: 10,
			},
		},
		Action: r.Guide,
	}
}

// exportCommand writes catalog exports to disk
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the synced catalog",
		Commands: []*cli.Command{
			{
				Name:  "m3u",
				Usage: "Write channels as an M3U playlist",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "category",
						Usage: "Restrict to one category id",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.ExportM3U,
			},
			{
				Name:  "csv",
				Usage: "Write channels as CSV",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "category",
						Usage: "Restrict to one category id",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.ExportCSV,
			},
			{
				Name:  "guide",
				Usage: "Write a category's guide as CSV",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "category",
						Usage:    "Category id to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.ExportGuide,
			},
		},
	}
}

// progressCommand manages per-title watch progress
func progressCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Record and inspect playback progress",
		Commands: []*cli.Command{
			{
				Name:  "save",
				Usage: "Save playback position for a stream",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "stream",
						Usage:    "Provider stream id",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Progress kind (vod or episode)",
						Value: "vod",
					},
					&cli.IntFlag{
						Name:     "position",
						Usage:    "Playback position in milliseconds",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "duration",
						Usage: "Total duration in milliseconds",
					},
				},
				Action: r.ProgressSave,
			},
			{
				Name: "get",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "stream"},
				},
				Usage:  "Show saved progress for a stream",
				Action: r.ProgressGet,
			},
			{
				Name:   "list",
				Usage:  "List saved progress, most recent first",
				Action: r.ProgressList,
			},
			{
				Name: "clear",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "stream"},
				},
				Usage:  "Delete saved progress for a stream",
				Action: r.ProgressClear,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive catalog browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for browsing the catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "section",
				Aliases: []string{"s"},
				Usage:   "Catalog section (live, vod or series)",
				Value:   "live",
			},
		},
		Action: r.TUI,
	}
}
