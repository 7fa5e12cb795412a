// package tasks implements the date-keyed calendar query shared by the web and terminal dashboards.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/calday/internal/models"
	"github.com/desertthunder/calday/internal/services"
	"github.com/desertthunder/calday/internal/shared"
)

// QueryOpts contains optional settings for [NewEventQuery].
type QueryOpts struct {
	Location *time.Location
	Logger   *log.Logger
	// Updates receives every state change. Sends never block.
	Updates chan<- Result
}

// EventQuery tracks the events of the currently selected day.
//
// Every fetch is issued with a [Ticket]; only the ticket of the newest generation may settle the query, so a slow
// response for a previously selected day is discarded instead of overwriting the current one.
type EventQuery struct {
	mu      sync.Mutex
	source  services.EventSource
	loc     *time.Location
	logger  *log.Logger
	updates chan<- Result
	gen     uint64
	current Result
	settled chan struct{}
}

// NewEventQuery creates an idle [EventQuery] reading from source.
func NewEventQuery(source services.EventSource, opts QueryOpts) *EventQuery {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &EventQuery{
		source:  source,
		loc:     opts.Location,
		logger:  shared.WithLogger(opts.Logger, "component", "query"),
		updates: opts.Updates,
		settled: make(chan struct{}),
	}
}

// Location returns the zone day keys are computed in.
func (q *EventQuery) Location() *time.Location {
	return q.loc
}

// Begin starts a new generation for day and enters the loading state.
func (q *EventQuery) Begin(day time.Time) Ticket {
	q.mu.Lock()
	ticket := q.beginLocked(day)
	r := q.current
	q.mu.Unlock()

	sendUpdate(q.updates, r)
	return ticket
}

func (q *EventQuery) beginLocked(day time.Time) Ticket {
	q.gen++
	start := models.StartOfDay(day, q.loc)
	key := start.Format(models.DayKeyLayout)

	q.current = Result{Key: key, Day: start, Status: StatusLoading}
	q.rotateLocked()

	return Ticket{Generation: q.gen, Key: key, Day: start}
}

// rotateLocked wakes waiters of the previous generation and arms a fresh settle signal.
func (q *EventQuery) rotateLocked() {
	close(q.settled)
	q.settled = make(chan struct{})
}

// Complete applies the outcome of the fetch issued with ticket.
//
// It returns false, leaving the state untouched, when a newer generation has started since.
func (q *EventQuery) Complete(ticket Ticket, events []models.CalendarEvent, err error) bool {
	q.mu.Lock()
	if ticket.Generation != q.gen {
		q.mu.Unlock()
		q.logger.Debug("discarding stale response", "day", ticket.Key, "generation", ticket.Generation)
		return false
	}

	if err != nil {
		q.current.Status = StatusError
		q.current.Err = err
		q.current.Events = nil
	} else {
		if events == nil {
			events = []models.CalendarEvent{}
		}
		q.current.Status = StatusSuccess
		q.current.Err = nil
		q.current.Events = events
	}
	q.rotateLocked()
	r := q.current
	q.mu.Unlock()

	if err != nil {
		q.logger.Warn("failed to load events", "day", ticket.Key, "error", err)
	} else {
		q.logger.Debug("loaded events", "day", ticket.Key, "count", len(events))
	}
	sendUpdate(q.updates, r)
	return true
}

// Select makes day the current query and fetches it in the background.
//
// It is a no-op returning false when day is already selected and has been fetched or is being fetched.
// The fetch outlives ctx's cancellation; only its values are kept.
func (q *EventQuery) Select(ctx context.Context, token string, day time.Time) bool {
	key := models.DayKey(day, q.loc)

	q.mu.Lock()
	if q.current.Key == key && q.current.Status != StatusIdle {
		q.mu.Unlock()
		return false
	}
	ticket := q.beginLocked(day)
	r := q.current
	q.mu.Unlock()

	sendUpdate(q.updates, r)
	q.logger.Debug("fetching events", "day", key, "generation", ticket.Generation)

	fetchCtx := context.WithoutCancel(ctx)
	go func() {
		events, err := q.source.FetchEventsForDay(fetchCtx, token, ticket.Day)
		q.Complete(ticket, events, err)
	}()
	return true
}

// Invalidate returns to idle while keeping the selected day, so the next [EventQuery.Select] refetches it.
// Responses still in flight are discarded.
func (q *EventQuery) Invalidate() {
	q.mu.Lock()
	q.gen++
	q.current = Result{Key: q.current.Key, Day: q.current.Day, Status: StatusIdle}
	q.rotateLocked()
	r := q.current
	q.mu.Unlock()

	sendUpdate(q.updates, r)
}

// Reset drops the selected day and any results.
func (q *EventQuery) Reset() {
	q.mu.Lock()
	q.gen++
	q.current = Result{}
	q.rotateLocked()
	r := q.current
	q.mu.Unlock()

	sendUpdate(q.updates, r)
}

// Snapshot returns the current state.
func (q *EventQuery) Snapshot() Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

// Wait blocks until the current generation is no longer loading or ctx is done.
//
// When ctx ends first the loading snapshot is returned with ctx's error.
func (q *EventQuery) Wait(ctx context.Context) (Result, error) {
	for {
		q.mu.Lock()
		r, settled := q.current, q.settled
		q.mu.Unlock()

		if r.Status != StatusLoading {
			return r, nil
		}

		select {
		case <-settled:
		case <-ctx.Done():
			return r, ctx.Err()
		}
	}
}
