package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/calday/internal/shared"
	"github.com/desertthunder/calday/internal/tasks"
	"github.com/desertthunder/calday/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the terminal dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	notices := ui.NewNotices()
	r.notifier.Add(notices)

	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}

	updates := make(chan tasks.Result, 16)
	query, err := r.Query(updates)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, sessions, query, ui.ModelOpts{Updates: updates, Notices: notices, Now: r.now})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
