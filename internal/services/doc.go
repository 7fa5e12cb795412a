// Package services implements the remote collaborators of calday: the Google Calendar event source and the Google
// OAuth2 authenticator.
//
// # Event Source
//
// [CalendarService] implements [EventSource] for one day at a time. The day window is
// [local midnight of D, local midnight of D+1) in the configured zone, sent as UTC RFC3339 timeMin/timeMax with
// orderBy=startTime and singleEvents=true. A single page of results is read.
//
// The bearer token is opaque: it is attached with an [oauth2.StaticTokenSource] and never refreshed or inspected.
// An empty token short-circuits to an empty result without any network call.
//
// Requests pass through a [rate.Limiter] shared by all callers of the service.
//
// # Authenticator
//
// [GoogleAuth] runs the authorization code flow against Google with the calendar.readonly scope and yields the
// access token as the credential.
//
// # Error Handling
//
//   - [shared.ErrFetchFailed] : transport failure, non-2xx status, or an undecodable body
//   - [shared.ErrIdentityFailed] : code exchange failed or returned no token
//   - [shared.ErrMissingCredentials] : OAuth client id or secret not configured
package services
