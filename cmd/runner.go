package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/calday/internal/repositories"
	"github.com/desertthunder/calday/internal/services"
	"github.com/desertthunder/calday/internal/session"
	"github.com/desertthunder/calday/internal/shared"
	"github.com/desertthunder/calday/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies not supplied through [RunnerOpts] are built lazily from the loaded config.
type Runner struct {
	config      *shared.Config
	configPath  string
	logger      *log.Logger
	output      io.Writer
	db          *sql.DB
	tokens      *repositories.TokenRepository
	notifier    *session.Fanout
	sessions    *session.Manager
	source      services.EventSource
	auth        services.Authenticator
	now         func() time.Time
	openBrowser func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Sessions   *session.Manager
	Notifier   *session.Fanout
	Source     services.EventSource
	Auth       services.Authenticator
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Notifier == nil {
		opts.Notifier = session.NewFanout()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		logger:      opts.Logger,
		output:      opts.Output,
		notifier:    opts.Notifier,
		sessions:    opts.Sessions,
		source:      opts.Source,
		auth:        opts.Auth,
		now:         opts.Now,
		openBrowser: shared.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, logoutCommand, statusCommand, eventsCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads configuration ahead of any action: the --config file (or defaults), then CALDAY_* overrides.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.config == nil {
		config, err := shared.LoadConfigOrDefault(r.configPath)
		if err != nil {
			return ctx, err
		}
		if err := shared.ApplyEnv(config); err != nil {
			return ctx, err
		}
		r.config = config
	}

	if err := shared.SetLogLevelString(r.logger, r.config.Log.Level); err != nil {
		return ctx, err
	}
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

// After releases the database handle opened by any action.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Config returns the loaded config, falling back to defaults before [Runner.Before] has run.
func (r *Runner) Config() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// Sessions returns the session manager, opening the token store and hydrating on first use.
func (r *Runner) Sessions(ctx context.Context) (*session.Manager, error) {
	if r.sessions != nil {
		return r.sessions, nil
	}

	db, err := shared.OpenDatabase(r.Config())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}
	r.db = db
	r.tokens = repositories.NewTokenRepository(db)
	r.notifier.Add(session.NewLogNotifier(r.logger))

	m := session.NewManager(r.tokens, session.ManagerOpts{Notifier: r.notifier, Logger: r.logger})
	if err := m.Hydrate(ctx); err != nil {
		return nil, err
	}
	r.sessions = m
	return m, nil
}

// Source returns the calendar event source.
func (r *Runner) Source() (services.EventSource, error) {
	if r.source != nil {
		return r.source, nil
	}

	loc, err := r.Config().Calendar.Location()
	if err != nil {
		return nil, err
	}
	r.source = services.NewCalendarService(services.CalendarOpts{
		Endpoint:  r.Config().Calendar.Endpoint,
		RateLimit: r.Config().Calendar.RateLimit,
		Location:  loc,
		Logger:    r.logger,
	})
	return r.source, nil
}

// Auth returns the Google authenticator, or [shared.ErrMissingCredentials] when it is not configured.
func (r *Runner) Auth() (services.Authenticator, error) {
	if r.auth != nil {
		return r.auth, nil
	}

	auth, err := services.NewGoogleAuth(r.Config().Credentials.Google)
	if err != nil {
		return nil, err
	}
	r.auth = auth
	return auth, nil
}

// Query creates an [tasks.EventQuery] over the event source in the configured zone.
func (r *Runner) Query(updates chan<- tasks.Result) (*tasks.EventQuery, error) {
	source, err := r.Source()
	if err != nil {
		return nil, err
	}
	loc, err := r.Config().Calendar.Location()
	if err != nil {
		return nil, err
	}
	return tasks.NewEventQuery(source, tasks.QueryOpts{Location: loc, Logger: r.logger, Updates: updates}), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// printNotices echoes session notifications to the command output for the rest of the run.
func (r *Runner) printNotices() {
	r.notifier.Add(session.NotifierFunc(func(n session.Notification) {
		mark := "✓"
		if n.Level == session.LevelError {
			mark = "✗"
		}
		r.writePlain("%s %s\n", mark, n.Message)
	}))
}
