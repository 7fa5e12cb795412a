package tasks

import (
	"time"

	"github.com/desertthunder/calday/internal/models"
)

// Status is the lifecycle of a day query.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return ""
	}
}

// Result is a snapshot of the query for one day.
//
// Events is non-nil when Status is [StatusSuccess], possibly empty.
type Result struct {
	Key    string                 // YYYY-MM-DD of Day
	Day    time.Time              // Local midnight of the selected day
	Status Status                 // Lifecycle state
	Events []models.CalendarEvent // Fetched events, in start order
	Err    error                  // Failure when Status is StatusError
}

// Empty reports a successful fetch that returned no events.
func (r Result) Empty() bool {
	return r.Status == StatusSuccess && len(r.Events) == 0
}

// Ticket identifies one issued fetch. Results carry their ticket back to [EventQuery.Complete].
type Ticket struct {
	Generation uint64
	Key        string
	Day        time.Time
}

// sendUpdate delivers r without blocking; a full or nil channel drops it.
func sendUpdate(updates chan<- Result, r Result) {
	if updates == nil {
		return
	}
	select {
	case updates <- r:
	default:
	}
}
