package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"dnt/internal/transform"
	"dnt/internal/ui"
)

type transformOutcome struct {
	files []transform.OutputFile
	err   error
}

func runTransformWithUI(ctx context.Context, title string, opts transform.Options) ([]transform.OutputFile, error) {
	events := make(chan transform.Event, 256)
	outcomeCh := make(chan transformOutcome, 1)

	go func() {
		opts.Progress = transform.ChannelSink{Ch: events}
		files, err := transform.Transform(ctx, opts)
		outcomeCh <- transformOutcome{files: files, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		// не блокировать transform на полном канале
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.files, uiErr
	}
	return outcome.files, outcome.err
}
