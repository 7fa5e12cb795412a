package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/calday/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// DefaultRedirectURI is used when the config leaves redirect_uri empty.
const DefaultRedirectURI = "http://127.0.0.1:3000/callback"

// GoogleAuth implements [Authenticator] with the OAuth2 authorization code flow against Google.
type GoogleAuth struct {
	config *oauth2.Config
}

// NewGoogleAuth creates a [GoogleAuth] requesting read-only calendar access.
func NewGoogleAuth(creds shared.GoogleConfig) (*GoogleAuth, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing google client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing google client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	return &GoogleAuth{config: &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{calendar.CalendarReadonlyScope},
		Endpoint:     google.Endpoint,
	}}, nil
}

// RedirectURL returns the callback URL registered with the provider.
func (g *GoogleAuth) RedirectURL() string {
	return g.config.RedirectURL
}

// AuthURL returns the Google consent page URL for state.
func (g *GoogleAuth) AuthURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// Exchange trades code for an access token. Only the access token is kept; it is never refreshed.
func (g *GoogleAuth) Exchange(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: missing authorization code", shared.ErrIdentityFailed)
	}

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrIdentityFailed, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: provider returned no access token", shared.ErrIdentityFailed)
	}
	return token.AccessToken, nil
}
