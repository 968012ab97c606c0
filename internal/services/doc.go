// package services contains the HTTP clients the tracker talks to.
//
//   - [BooksService] queries the Google Books volumes API and implements [Catalog].
//   - [APIService] makes raw JSON requests against a persistence server (GET/POST /api/data).
//   - [FeedService] fetches RSS/Atom feeds directly or through the /api/rss relay.
//
// All clients take a [context.Context] and return wrapped errors. Catalog failures
// surface as [shared.CatalogError] so callers can inspect the HTTP status.
package services
