// Package server provides HTTP routing, middleware, and the identity boundary shared by the CLI and web app.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] is applied so that the first one added is the outermost, following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /dashboard") internally.
//
// # Middleware
//
// [Defaults] wires chi's RequestID, RealIP and Recoverer around [RequestLogger]. A handler that panics (for example
// one mounted without [WithSession]) fails that request with a 500 and leaves the server running.
//
// # Identity Boundary
//
// An identity provider login ends in an [IdentityResult]: an opaque credential or a failure wrapping
// [shared.ErrIdentityFailed]. [ExchangeCallback] validates the OAuth2 state parameter and exchanges the code.
//
// [OAuthHandler] serves a single callback for `calday login`: a temporary HTTP server starts on the configured
// address, the browser is sent to Google, and the handler delivers the result through a channel before the server
// shuts down. Later callbacks are rejected to prevent replay.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
