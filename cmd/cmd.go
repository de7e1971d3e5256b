// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// scanCommand runs the full capture to lookup pipeline once.
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Capture a frame, decode the barcode and look up the product",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "Image file to scan instead of the configured camera source",
			},
			&cli.FloatFlag{
				Name:  "rotation",
				Usage: "Clockwise rotation in degrees applied before decoding",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the final state as JSON",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the product page when one is found",
			},
		},
		Action: r.Scan,
	}
}

// decodeCommand normalizes and decodes an image without looking anything up.
func decodeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "decode",
		Usage: "Decode every barcode in an image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "image",
				Aliases:  []string{"i"},
				Usage:    "Image file to decode",
				Required: true,
			},
			&cli.FloatFlag{
				Name:  "rotation",
				Usage: "Clockwise rotation in degrees applied before decoding",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Decode,
	}
}

// lookupCommand searches the web for a barcode payload.
func lookupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "Search for product information about a barcode",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "barcode",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Lookup,
	}
}

// tuiCommand returns the top-level TUI command for interactive scanning.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive scanner",
		Action:  r.TUI,
	}
}

// historyCommand reads the scan journal.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Scan history operations",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List recent scans, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of scans to show",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "outcome",
						Usage: "Only show scans with this outcome",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "export",
				Usage: "Export the scan history to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown, text or json",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: scan_history.<ext>)",
					},
				},
				Action: r.HistoryExport,
			},
			{
				Name:  "stats",
				Usage: "Count scans by outcome",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryStats,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Remove a scan from the history",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// setupCommand handles setup operations for configuration, database and search headers.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a default configuration file",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Enable scan history, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "search",
				Usage: "Import search request headers from a browser cURL command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.SetupSearch,
			},
		},
	}
}
