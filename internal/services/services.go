// package services defines interface EventSource for reading calendar events over HTTP APIs
//
// Google Calendar v3
package services

import (
	"context"
	"time"

	"github.com/desertthunder/calday/internal/models"
)

// EventSource fetches the events of a single day for the holder of token.
type EventSource interface {
	// FetchEventsForDay returns the events in the day window of day, ordered by start time.
	// An empty token yields an empty slice without contacting the remote API.
	FetchEventsForDay(ctx context.Context, token string, day time.Time) ([]models.CalendarEvent, error)
}

// Authenticator turns an authorization code from an identity provider into an opaque bearer credential.
type Authenticator interface {
	// AuthURL returns the consent page URL for state.
	AuthURL(state string) string

	// Exchange trades code for an access token.
	Exchange(ctx context.Context, code string) (string, error)
}
