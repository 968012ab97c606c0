// Package tasks aggregates data from the catalog and author feeds with progress reporting.
//
// # Recommendations
//
// [Recommender.Recommend] fans out one catalog query per followed author and per
// topic, then merges the results:
//
//  1. Concatenate in query order (authors first, then topics)
//  2. Deduplicate by book id, first occurrence wins
//  3. Keep books published within the recency window and not already in the library
//  4. Sort by publication date, newest first
//
// A failed query is logged and counts as an empty result; it never aborts the join.
// Publication dates are normalised with [models.ParseDate] before filtering and
// sorting, so "2024" and "2024-06-15" compare by time rather than as strings.
//
// # Author feed
//
// [AuthorFeed.Fetch] reads the RSS link of each followed author's profile and
// returns the newest items of every feed merged into one timeline.
//
// # Progress Reporting
//
// Operations take an optional chan<- [ProgressUpdate]. Updates use select with
// default so a slow or absent reader never blocks the aggregation.
//
// # Stale responses
//
// [Generation] tags each request so an interactive caller can drop a response
// that arrives after a newer request was issued.
package tasks
