// Package models defines the domain entities shared by the session, query, and presentation layers.
//
//   - [CalendarEvent] : one event mapped from the remote calendar API for a single day
//   - [Session] : authenticated/unauthenticated state plus the opaque bearer token
//
// Day handling lives here too: [StartOfDay] and [DayWindow] derive the half-open
// [local midnight of D, local midnight of D+1) interval used to scope a query, and
// [DayKey] is the string form of a day used as a query key.
package models
