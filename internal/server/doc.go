// Package server provides HTTP routing, middleware, and the persistence server behind `shelf serve`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Endpoints
//
//	GET      /api/data      → stored state document (the default document is written first when absent)
//	POST|PUT /api/data      → overwrite the document, respond {"success": true}
//	GET      /api/rss?url=  → the feed at url, parsed to JSON
//	GET      /healthz       → ok
//
// Errors are JSON objects of the form {"error": "..."}.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
