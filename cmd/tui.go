package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/barcod/internal/shared"
	"github.com/desertthunder/barcod/internal/tasks"
	"github.com/desertthunder/barcod/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive scanner.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	source, err := r.camera("", nil)
	if err != nil {
		return fmt.Errorf("%w: camera: %w", shared.ErrServiceUnavailable, err)
	}

	dec, err := r.decoder()
	if err != nil {
		return fmt.Errorf("%w: decoder: %w", shared.ErrServiceUnavailable, err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = "./tmp/barcod-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	repo, closeHistory, err := r.optionalHistory()
	if err != nil {
		return fmt.Errorf("failed to open scan history: %w", err)
	}
	defer closeHistory()

	handles := tasks.Handles{Camera: source, Decoder: dec, Lookup: r.search()}
	var history ui.HistorySource
	if repo != nil {
		handles.Recorder = repo
		history = repo
	}

	controller := tasks.NewController(tasks.ControllerOpts{Logger: fileLogger})
	if err := controller.Start(ctx, handles); err != nil {
		return fmt.Errorf("failed to start scanner: %w", err)
	}
	defer controller.Stop()

	model := ui.NewModel(ctx, controller, history)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
