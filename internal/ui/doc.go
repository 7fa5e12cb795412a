// Package ui implements the terminal dashboard using bubbletea's Elm architecture.
//
// The TUI has two views chosen from the session state:
//  1. [LoginView] : paste a token, or run `calday login` for the browser flow
//  2. [DayView] : the events of one day, navigable day by day
//
// The [Model] drives the same [tasks.EventQuery] the web dashboard uses. Query state changes arrive on the
// channel given as [tasks.QueryOpts].Updates and are read one at a time by a command; the model always renders the
// query snapshot for the selected day, so results for a previously selected day never show.
//
// Session notifications reach the model through [Notices], which is registered as a [session.Notifier].
//
// Keyboard navigation uses vim-style bindings (h/l, t, r, L, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
