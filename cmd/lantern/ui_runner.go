package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"lantern/internal/config"
	"lantern/internal/driver"
	"lantern/internal/ui"
	"lantern/internal/vfs"
)

type checkOutcome struct {
	results []*driver.Result
	err     error
}

// runChecksWithUI builds files on a driver that reports into a progress
// view, and returns once both the builds and the view are done.
func runChecksWithUI(ctx context.Context, title string, files []string, cfg *config.Config, opts driver.Options, jobs int) (*driver.Driver, []*driver.Result, error) {
	events := make(chan ui.Event, 256)
	opts.Progress = &ui.ChannelSink{Ch: events}
	drv, err := driver.New(cfg, vfs.NewOSFS(), opts)
	if err != nil {
		return nil, nil, err
	}
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		res, err := drv.BuildAll(ctx, files, jobs, nil)
		outcomeCh <- checkOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// view may quit early; builds still need their events read
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return drv, outcome.results, uiErr
	}
	return drv, outcome.results, outcome.err
}
