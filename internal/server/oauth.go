package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/calday/internal/services"
	"github.com/desertthunder/calday/internal/shared"
)

// IdentityResult is the outcome of one identity provider login: an opaque credential or a failure.
type IdentityResult struct {
	Credential string
	err        error
}

// NewIdentityResult builds an [IdentityResult]. An empty credential without an error is a failure.
func NewIdentityResult(credential string, err error) IdentityResult {
	if err == nil && credential == "" {
		err = shared.ErrEmptyCredential
	}
	if err != nil {
		return IdentityResult{err: err}
	}
	return IdentityResult{Credential: credential}
}

// Error returns the failure, or nil when a credential was obtained.
func (o IdentityResult) Error() error {
	return o.err
}

// ExchangeCallback validates an OAuth2 callback query against state and trades its code for a credential.
//
// Every failure wraps [shared.ErrIdentityFailed].
func ExchangeCallback(ctx context.Context, auth services.Authenticator, query url.Values, state string) IdentityResult {
	if state == "" || query.Get("state") != state {
		return IdentityResult{err: fmt.Errorf("%w: %w", shared.ErrIdentityFailed, shared.ErrInvalidState)}
	}

	code := query.Get("code")
	if code == "" {
		err := fmt.Errorf("%w: %s %s", shared.ErrIdentityFailed, query.Get("error"), query.Get("error_description"))
		return IdentityResult{err: err}
	}

	credential, err := auth.Exchange(ctx, code)
	return NewIdentityResult(credential, err)
}

// OAuthHandler handles a single OAuth2 callback for the CLI login flow.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	auth        services.Authenticator
	state       string
	resultChan  chan IdentityResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a new OAuth handler for auth and the expected state token.
func NewOAuthHandler(auth services.Authenticator, state string) *OAuthHandler {
	return &OAuthHandler{
		auth:       auth,
		state:      state,
		resultChan: make(chan IdentityResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET /callback"}
}

// ServeHTTP handles the OAuth callback request. Only the first request is processed.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	result := ExchangeCallback(r.Context(), h.auth, r.URL.Query(), h.state)
	h.Send(result)

	if result.Error() != nil {
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, callbackPage)
}

// Send sends the result through the channel (only once).
func (h *OAuthHandler) Send(result IdentityResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan IdentityResult {
	return h.resultChan
}

const callbackPage = `<!DOCTYPE html>
<html>
<head>
    <title>Signed in to calday</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1a73e8; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Signed in with Google</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
