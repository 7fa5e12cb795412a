package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/desertthunder/calday/internal/server"
	"github.com/desertthunder/calday/internal/services"
	"github.com/desertthunder/calday/internal/session"
	"github.com/desertthunder/calday/internal/shared"
	"github.com/urfave/cli/v3"
)

// authTimeout bounds how long the browser flow waits for the callback.
const authTimeout = 2 * time.Minute

// Login signs in with Google.
//
// Without --token it starts a local HTTP server, opens the browser for consent, and exchanges the returned code for
// an access token. The token is stored and the session becomes authenticated.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}
	r.printNotices()

	var result server.IdentityResult
	if cmd.IsSet("token") {
		result = server.NewIdentityResult(cmd.String("token"), nil)
	} else {
		auth, err := r.Auth()
		if err != nil {
			return fmt.Errorf("%w: set credentials.google.client_id and client_secret in %s", err, r.configPath)
		}
		result = r.doOAuth(ctx, auth, !cmd.Bool("no-browser"))
	}

	return r.completeLogin(ctx, sessions, result)
}

// completeLogin applies an identity result to the session. A failure leaves the session unchanged.
func (r *Runner) completeLogin(ctx context.Context, sessions *session.Manager, result server.IdentityResult) error {
	if err := result.Error(); err != nil {
		sessions.RejectLogin(err)
		if !errors.Is(err, shared.ErrIdentityFailed) {
			err = fmt.Errorf("%w: %w", shared.ErrIdentityFailed, err)
		}
		return err
	}

	if err := sessions.Login(ctx, result.Credential); err != nil {
		sessions.RejectLogin(err)
		return err
	}

	r.writePlain("Token: %s\n", shared.MaskToken(result.Credential))
	return nil
}

// Logout forgets the stored token.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}
	r.printNotices()

	return sessions.Logout(ctx)
}

type statusReport struct {
	Authenticated bool       `json:"authenticated"`
	Token         string     `json:"token,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// Status reports the hydrated session. The token is masked.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}

	current := sessions.Current()
	report := statusReport{Authenticated: current.Authenticated}
	if current.Authenticated {
		report.Token = shared.MaskToken(current.Token)
	}
	if r.tokens != nil && current.Authenticated {
		if updatedAt, err := r.tokens.UpdatedAt(ctx); err != nil {
			r.logger.Warn("failed to read token timestamp", "error", err)
		} else if !updatedAt.IsZero() {
			report.UpdatedAt = &updatedAt
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	if !report.Authenticated {
		return r.writePlain("✗ Not signed in. Run 'calday login' to authenticate.\n")
	}
	r.writePlain("✓ Signed in with Google\n")
	r.writePlain("  Token: %s\n", report.Token)
	if report.UpdatedAt != nil {
		r.writePlain("  Stored: %s\n", report.UpdatedAt.Local().Format(time.RFC1123))
	}
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, auth services.Authenticator, open bool) server.IdentityResult {
	state, err := shared.GenerateState()
	if err != nil {
		return server.NewIdentityResult("", fmt.Errorf("failed to generate state token: %w", err))
	}

	oauthHandler := server.NewOAuthHandler(auth, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := r.Config().Server.Addr()
	listener, err := net.Listen("tcp", serverAddr)
	if err != nil {
		return server.NewIdentityResult("", fmt.Errorf("failed to listen on %s: %w", serverAddr, err))
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := auth.AuthURL(state)
	if open {
		r.writePlain("→ Opening browser for Google sign-in...\n")
		if err := r.openBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			open = false
		}
	}
	if !open {
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	select {
	case result := <-oauthHandler.Result():
		return result
	case err := <-serverErrors:
		return server.NewIdentityResult("", fmt.Errorf("server error: %w", err))
	case <-timeout.C:
		return server.NewIdentityResult("", fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout))
	case <-ctx.Done():
		return server.NewIdentityResult("", ctx.Err())
	}
}
