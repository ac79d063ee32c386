// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/tasks"
	"github.com/urfave/cli/v3"
)

func outputFlags(extra ...cli.Flag) []cli.Flag {
	return append(extra,
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	)
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

func limitFlag(value int) cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of items (0 uses the provider default)",
		Value:   value,
	}
}

// setupCommand handles setup operations for configuration and the cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write config.toml and link a provider",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Linked provider (spotify or apple_music)",
					},
					&cli.StringFlag{
						Name:  "spotify-token",
						Usage: "Spotify access token",
					},
					&cli.StringFlag{
						Name:  "apple-developer-token",
						Usage: "Apple Music developer token",
					},
					&cli.StringFlag{
						Name:  "apple-user-token",
						Usage: "Apple Music user token",
					},
					&cli.StringFlag{
						Name:  "storefront",
						Usage: "Apple Music storefront (e.g. us, gb)",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config with the defaults",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the ISRC cache database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "database",
						Usage: "Database path (overrides database.path)",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog for tracks, albums, artists and playlists",
		Arguments: []cli.Argument{
			&cli.StringArgs{Name: "term", Min: 1, Max: -1},
		},
		Flags:  outputFlags(limitFlag(0)),
		Action: r.Search,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List your playlists",
		Flags: outputFlags(&cli.StringFlag{
			Name:  "user",
			Usage: "List another user's public playlists",
		}),
		Action: r.Playlists,
	}
}

func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "List every track of a playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist"},
		},
		Flags:  outputFlags(),
		Action: r.Tracks,
	}
}

func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a track to a playlist by context or ISRC",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist"},
			&cli.StringArg{Name: "track"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "isrc",
				Usage: "Resolve the track by ISRC instead of a context",
			},
		},
		Action: r.Add,
	}
}

func removeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "remove",
		Aliases: []string{"rm"},
		Usage:   "Remove a track from a playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist"},
			&cli.StringArg{Name: "track"},
		},
		Action: r.Remove,
	}
}

func topFlags() []cli.Flag {
	return outputFlags(
		&cli.StringFlag{
			Name:    "range",
			Aliases: []string{"r"},
			Usage:   "Time range: short_term, medium_term or long_term",
		},
		limitFlag(0),
		&cli.IntFlag{
			Name:  "offset",
			Usage: "Index of the first item",
		},
	)
}

func topCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "top",
		Usage: "Your most played artists and tracks",
		Commands: []*cli.Command{
			{
				Name:   "artists",
				Usage:  "List top artists",
				Flags:  topFlags(),
				Action: r.TopArtists,
			},
			{
				Name:   "tracks",
				Usage:  "List top tracks",
				Flags:  topFlags(),
				Action: r.TopTracks,
			},
		},
	}
}

func recentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "recent",
		Usage:  "List recently played tracks",
		Flags:  outputFlags(limitFlag(0)),
		Action: r.Recent,
	}
}

func nowCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "now",
		Usage:  "Show the track that is playing",
		Flags:  outputFlags(),
		Action: r.Now,
	}
}

func isrcCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "isrc",
		Usage: "Resolve an ISRC to a catalog track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "isrc"},
		},
		Flags: outputFlags(&cli.StringFlag{
			Name:  "country",
			Usage: "Storefront or market code",
		}),
		Action: r.ISRC,
	}
}

func playerCommand(r *Runner) *cli.Command {
	commands := []*cli.Command{}
	for _, action := range []models.PlaybackAction{
		models.PlaybackPlay, models.PlaybackPause, models.PlaybackNext, models.PlaybackPrevious,
	} {
		commands = append(commands, &cli.Command{
			Name:   string(action),
			Usage:  "Send " + string(action) + " to the active device",
			Action: r.Player(action),
		})
	}

	commands = append(commands, &cli.Command{
		Name:  "track",
		Usage: "Play a track by context or ISRC",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "track"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "isrc",
				Usage: "Resolve the track by ISRC when no context is given",
			},
		},
		Action: r.PlayTrack,
	})

	return &cli.Command{
		Name:     "player",
		Usage:    "Remote-control the active device",
		Commands: commands,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export playlists to disk (all playlists when no ids are given)",
		Arguments: []cli.Argument{
			&cli.StringArgs{Name: "playlists", Min: 0, Max: -1},
		},
		Flags: outputFlags(
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown or txt",
				Value:   tasks.FormatJSON,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent writers (max 10)",
				Value: 5,
			},
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "Playlist fetches per second",
				Value: 5,
			},
		),
		Action: r.Export,
	}
}

// transferCommand handles cross-provider playlist operations.
func transferCommand(r *Runner) *cli.Command {
	providerFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "Source provider (spotify or apple_music, default: linked)",
			},
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Destination provider (spotify or apple_music)",
				Required: true,
			},
		}
	}

	return &cli.Command{
		Name:  "transfer",
		Usage: "Transfer playlists between providers",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Copy a playlist into an existing playlist on another provider",
				Flags: append(providerFlags(),
					&cli.StringFlag{
						Name:     "source",
						Usage:    "Source playlist name or ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "dest",
						Usage:    "Destination playlist ID",
						Required: true,
					},
				),
				Action: r.TransferRun,
			},
			{
				Name:  "diff",
				Usage: "Compare and show missing tracks between two playlists",
				Flags: append(providerFlags(),
					&cli.StringFlag{
						Name:     "source-id",
						Usage:    "Source playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "dest-id",
						Usage:    "Destination playlist ID",
						Required: true,
					},
				),
				Action: r.TransferDiff,
			},
		},
	}
}

func dumpCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Dump profile, playlists, top items and history as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Provider to dump (default: linked)",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "save",
				Usage: "Write the dump to a file",
			},
		},
		Action: r.Dump,
	}
}

// cacheCommand manages the persisted ISRC lookup cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and clear the ISRC lookup cache",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached lookups",
				Flags: outputFlags(
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Only this provider",
					},
					&cli.StringFlag{
						Name:  "country",
						Usage: "Only this storefront",
					},
					&cli.StringFlag{
						Name:  "isrc",
						Usage: "Only this ISRC",
					},
				),
				Action: r.CacheList,
			},
			{
				Name:  "remove",
				Usage: "Remove cached lookups by id",
				Arguments: []cli.Argument{
					&cli.StringArgs{Name: "ids", Min: 1, Max: -1},
				},
				Action: r.CacheRemove,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached lookup",
				Action: r.CacheClear,
			},
		},
	}
}

func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "open",
		Usage: "Open a track or playlist in the browser",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "context"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "print",
				Usage: "Print the URL instead of opening it",
			},
		},
		Action: r.Open,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve prometheus metrics and a health check",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}
