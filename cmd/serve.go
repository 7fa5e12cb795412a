package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/calday/internal/services"
	"github.com/desertthunder/calday/internal/shared"
	"github.com/desertthunder/calday/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web dashboard until interrupted.
//
// Google sign-in is disabled, not fatal, when no OAuth client is configured; a credential can still be posted to
// /login.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	flash := web.NewFlashNotifier()
	r.notifier.Add(flash)

	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}
	query, err := r.Query(nil)
	if err != nil {
		return err
	}

	var auth services.Authenticator
	if auth, err = r.Auth(); err != nil {
		if !errors.Is(err, shared.ErrMissingCredentials) {
			return err
		}
		r.logger.Warn("google sign-in disabled", "error", err)
		auth = nil
	}

	app, err := web.NewApp(web.AppOpts{
		Sessions:   sessions,
		Query:      query,
		Auth:       auth,
		Flash:      flash,
		RenderWait: r.Config().Server.RenderWait(),
		Logger:     r.logger,
		Now:        r.now,
	})
	if err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.Config().Server.Addr()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{Handler: app.Handler(), ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	url := "http://" + listener.Addr().String()
	r.logger.Info("serving dashboard", "addr", listener.Addr().String())
	r.writePlain("→ calday is running at %s (Ctrl+C to stop)\n", url)
	if cmd.Bool("open") {
		if err := r.openBrowser(url); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
		}
	}

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
