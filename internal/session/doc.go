// Package session owns the process-wide authentication state.
//
// A [Manager] is a two-state machine (unauthenticated, authenticated with an opaque
// bearer token). It is the only writer of the token store:
//
//   - [Manager.Hydrate] reads the store once at startup and, if a token is present,
//     becomes authenticated without re-running the identity flow.
//   - [Manager.Login] persists a token and becomes authenticated.
//   - [Manager.Logout] clears the store and becomes unauthenticated.
//
// Transitions emit a user-facing [Notification] through a [Notifier] and publish the new
// [models.Session] to subscribers. The manager never routes; presentation layers observe the
// session and decide where to navigate.
//
// Components that require a session get the manager from a [context.Context] via
// [FromContext]. Calling it outside a context prepared with [NewContext] is a programming
// error and panics.
package session
