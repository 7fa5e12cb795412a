package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/calday/internal/formatter"
	"github.com/desertthunder/calday/internal/models"
	"github.com/desertthunder/calday/internal/shared"
	"github.com/desertthunder/calday/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Events prints the events of one day, or writes them to --output.
func (r *Runner) Events(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}
	current := sessions.Current()
	if !current.Authenticated {
		return fmt.Errorf("%w: run 'calday login' first", shared.ErrNotAuthenticated)
	}

	query, err := r.Query(nil)
	if err != nil {
		return err
	}

	day := models.StartOfDay(r.now(), query.Location())
	if value := cmd.String("date"); value != "" {
		if day, err = models.ParseDay(value, query.Location()); err != nil {
			return fmt.Errorf("%w: --date %q: %v", shared.ErrInvalidFlag, value, err)
		}
	}

	r.logger.Debug("listing events", "day", models.DayKey(day, query.Location()), "format", format)

	query.Select(ctx, current.Token, day)
	result, err := query.Wait(ctx)
	if err != nil {
		return err
	}
	if result.Status == tasks.StatusError {
		return result.Err
	}

	agenda := formatter.DayAgenda{Day: result.Day, Events: result.Events}
	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteExport(agenda, format, output)
		if err != nil {
			return err
		}
		r.logger.Infof("exported %v events to %v", len(agenda.Events), path)
		return r.writePlain("✓ Exported %d events to %s\n", len(agenda.Events), path)
	}

	return formatter.Write(r.output, agenda, format)
}
