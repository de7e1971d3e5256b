package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/barcod/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the default configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if r.configPath == "" {
		return fmt.Errorf("%w: --config", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", r.configPath)
	r.writePlain("✓ Configuration written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Point camera.path at an image file or directory\n")
	r.writePlain("2. Run 'barcod scan' to scan it\n")
	return nil
}

// SetupDatabase enables the scan history, initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.config.Database.Enabled = true

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenHistory(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := r.saveConfig(); err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Scan history enabled at %s\n", r.config.Database.Path)
	return nil
}

// SetupSearch imports request headers for the product search from a browser cURL command.
//
// Accepts a cURL command copied from DevTools and stores its headers and cookie in the config file.
func (r *Runner) SetupSearch(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	r.logger.Info("parsing cURL command for search headers")

	var headers *shared.RequestHeaders
	var err error

	if curlFile != "" {
		headers, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		headers, err = shared.ParseCurlCommand(curlCmd)
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	headers.MergeInto(&r.config.Search)

	if err := r.saveConfig(); err != nil {
		return err
	}

	r.logger.Debug("search headers imported", "headers", len(headers.Headers), "cookie", headers.Cookie != "")
	r.writePlain("✓ Imported %d header(s) for search requests\n", len(headers.Headers))
	if r.configPath != "" {
		r.writePlain("Saved to: %s\n", r.configPath)
	}
	return nil
}
