// Package models defines the domain entities for the bookshelf tracker.
//
// The package contains three groups of types:
//
// 1. Catalog data: opaque volume metadata as returned by the book catalog
//   - [Book] : a catalog volume plus the user-owned fields (notes, read date, tags)
//   - [VolumeInfo] : title, authors, publication date, covers, identifiers
//
// 2. User state: the aggregate root persisted as one document
//   - [State] : library, wishlist, tags, following, topics and author profiles
//   - [Document] : the wire shape of [State]; nil collections mean "absent"
//   - [AuthorProfile] : optional links for a followed author, keyed by display name
//
// 3. Partial updates: pointer fields mark which values were supplied
//   - [BookUpdate] : notes, read date, tags
//   - [ProfileUpdate] : rss, blog, podcast, linkedin, substack, x
//
// Publication dates arrive with mixed precision (year, year-month, full date).
// [ParseDate] normalises them so that filtering and sorting never compare raw strings.
package models
