// Package tasks holds the query layer between the dashboards and the calendar [services.EventSource].
//
// # Event Query
//
// [EventQuery] keeps one [Result] for the selected day and moves it through the states
// idle → loading → success | error. The query key is the YYYY-MM-DD of local midnight in the configured zone.
//
// [EventQuery.Select] starts a background fetch unless the same day is already loaded or loading.
// [EventQuery.Invalidate] forces the next Select to refetch (the dashboard was re-entered) and
// [EventQuery.Reset] forgets the day entirely (logout).
//
// # Stale Responses
//
// Each fetch carries a [Ticket] holding the generation it was issued for. [EventQuery.Complete] only applies a
// result whose generation is still current, so when the user moves from D1 to D2 before D1 resolves, the late D1
// response is dropped and the view reflects D2. Requests are never cancelled.
//
// # Progress Reporting
//
// Every state change is sent on the optional Updates channel. Sends use select with default so a slow reader
// never blocks a fetch; [EventQuery.Snapshot] and [EventQuery.Wait] give the authoritative state.
package tasks
