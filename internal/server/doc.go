// Package server provides HTTP routing, middleware, and the public API of
// the member directory.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handlers
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// [JoinHandler] carries the magic-link flow: an organization requests an
// update link by email, the signed link verifies and redirects into the
// form, and submission upserts one membership document per selected
// category. [MembersHandler] serves member creation, title search, and
// email lookup. [HealthHandler] reports store reachability and which
// settings are configured without exposing their values.
//
// Every JSON response uses a {ok, error?} envelope written by respond and
// fail, so clients can branch on one field regardless of endpoint.
//
// # Store Access
//
// Handlers depend on the [Directory] interface rather than the concrete
// store client, keeping them testable with an in-memory double.
package server
