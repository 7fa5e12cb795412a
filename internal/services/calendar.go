// Google Calendar implementation of [EventSource]
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/calday/internal/models"
	"github.com/desertthunder/calday/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	primaryCalendar = "primary"
	// localDateTime is used for dateTime values that carry no UTC offset.
	localDateTime = "2006-01-02T15:04:05"
)

// CalendarService implements [EventSource] against the Google Calendar v3 API.
type CalendarService struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	loc        *time.Location
	logger     *log.Logger
}

// CalendarOpts configures a [CalendarService]. Zero values select defaults.
type CalendarOpts struct {
	// Endpoint overrides the API base path (used with httptest).
	Endpoint string
	// HTTPClient is the base transport the bearer token is layered over.
	HTTPClient *http.Client
	// RateLimit is the maximum number of requests per second. Non-positive means unlimited.
	RateLimit float64
	// Location is the zone day windows are computed in.
	Location *time.Location
	Logger   *log.Logger
}

// NewCalendarService creates a [CalendarService].
func NewCalendarService(opts CalendarOpts) *CalendarService {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &CalendarService{
		endpoint:   opts.Endpoint,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, 1),
		loc:        opts.Location,
		logger:     shared.WithLogger(opts.Logger, "component", "calendar"),
	}
}

// Location returns the zone day windows are computed in.
func (s *CalendarService) Location() *time.Location {
	return s.loc
}

// FetchEventsForDay lists the primary calendar's events between local midnight of day and local midnight of the next day.
//
// Any transport or HTTP failure is returned wrapped in [shared.ErrFetchFailed].
func (s *CalendarService) FetchEventsForDay(ctx context.Context, token string, day time.Time) ([]models.CalendarEvent, error) {
	if token == "" {
		return []models.CalendarEvent{}, nil
	}

	start, end := models.DayWindow(day, s.loc)
	logger := s.logger.With("day", start.Format(models.DayKeyLayout))

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}

	svc, err := s.client(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}

	resp, err := svc.Events.List(primaryCalendar).
		TimeMin(start.UTC().Format(time.RFC3339)).
		TimeMax(end.UTC().Format(time.RFC3339)).
		OrderBy("startTime").
		SingleEvents(true).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			logger.Warn("calendar API rejected request", "status", apiErr.Code)
			return nil, fmt.Errorf("%w: status %d", shared.ErrFetchFailed, apiErr.Code)
		}
		logger.Warn("calendar request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}

	events := make([]models.CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil {
			continue
		}
		events = append(events, s.mapEvent(item))
	}

	logger.Debug("fetched events", "count", len(events))
	return events, nil
}

// client builds a calendar client that sends token as a bearer credential.
func (s *CalendarService) client(ctx context.Context, token string) (*calendar.Service, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	return calendar.NewService(ctx, opts...)
}

func (s *CalendarService) mapEvent(item *calendar.Event) models.CalendarEvent {
	start, allDay := s.parseEventTime(item.Start)
	end, _ := s.parseEventTime(item.End)

	return models.CalendarEvent{
		ID:          item.Id,
		Title:       item.Summary,
		Start:       start,
		End:         end,
		Description: item.Description,
		AllDay:      allDay,
	}
}

// parseEventTime reads a dateTime or, for all-day events, a date. Unparseable values yield the zero time.
func (s *CalendarService) parseEventTime(edt *calendar.EventDateTime) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}

	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t.In(s.loc), false
		}
		if t, err := time.ParseInLocation(localDateTime, edt.DateTime, s.loc); err == nil {
			return t, false
		}
		s.logger.Debug("unparseable event time", "value", edt.DateTime)
		return time.Time{}, false
	}

	if edt.Date != "" {
		if t, err := models.ParseDay(edt.Date, s.loc); err == nil {
			return t, true
		}
		s.logger.Debug("unparseable event date", "value", edt.Date)
	}
	return time.Time{}, false
}
