// package models defines the data model for the calendar day viewer
package models

import (
	"time"
)

// DayKeyLayout formats a day as a query key (and as the value of an HTML date input).
const DayKeyLayout = "2006-01-02"

// CalendarEvent is a single event for the selected day.
//
// Description is empty when the remote record carried none.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description,omitempty"`
	AllDay      bool      `json:"all_day,omitempty"`
}

// HasDescription reports whether the event carries a description.
func (e CalendarEvent) HasDescription() bool {
	return e.Description != ""
}

// Session is the authentication state of the running process.
//
// Authenticated is true if and only if Token is non-empty.
type Session struct {
	Authenticated bool
	Token         string
}

// NewSession builds a Session whose Authenticated flag follows token.
func NewSession(token string) Session {
	return Session{Authenticated: token != "", Token: token}
}

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayWindow returns [local midnight of day, local midnight of day+1).
//
// The end is computed with AddDate so days that cross a DST change are 23 or 25 hours long.
func DayWindow(day time.Time, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(day, loc)
	return start, start.AddDate(0, 0, 1)
}

// DayKey returns the YYYY-MM-DD key of day in loc.
func DayKey(day time.Time, loc *time.Location) string {
	return StartOfDay(day, loc).Format(DayKeyLayout)
}

// ParseDay parses a YYYY-MM-DD value as local midnight in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DayKeyLayout, value, loc)
}
