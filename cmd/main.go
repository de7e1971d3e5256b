package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/barcod/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}
	if level := os.Getenv("BARCOD_LOG_LEVEL"); level != "" {
		shared.SetLogLevel(logger, shared.ParseLogLevel(level))
	}

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := newApp(runner)

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// newApp builds the barcod command tree around runner.
func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "barcod",
		Usage:   "Scan barcodes from camera snapshots and look up the product",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("BARCOD_CONFIG"),
			},
		},
		Before:   runner.loadConfig,
		Commands: runner.register(),
	}
}
