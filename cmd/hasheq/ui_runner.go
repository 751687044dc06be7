package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"hasheq/internal/driver"
	"hasheq/internal/ui"
)

type generateOutcome struct {
	results []*driver.Result
	err     error
}

// runWithUI runs every job while a progress view renders to out.
func runWithUI(ctx context.Context, out io.Writer, title string, jobs []driver.Job, parallel int) ([]*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan generateOutcome, 1)

	go func() {
		results, err := driver.GenerateAll(ctx, jobs, parallel, driver.ChannelSink{Ch: events})
		outcomeCh <- generateOutcome{results: results, err: err}
		close(events)
	}()

	dirs := make([]string, 0, len(jobs))
	labels := make([]string, 0, len(jobs))
	for _, job := range jobs {
		dirs = append(dirs, job.Dir)
		labels = append(labels, displayDir(job.Dir))
	}
	model := ui.NewProgressModel(title, dirs, labels, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the producer from blocking on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
