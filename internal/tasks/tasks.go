// package tasks implements the recommendation and author feed aggregators.
package tasks

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
)

const (
	DefaultDaysAgo  = 365
	DefaultPageSize = 5
	DefaultWorkers  = 4
)

// RecommendationRequest describes one aggregation.
type RecommendationRequest struct {
	Authors       []string  // followed authors, queried with the author filter
	Topics        []string  // followed topics, queried with the title filter
	ExcludeTitles []string  // titles already in the library
	DaysAgo       int       // recency window; <= 0 means [DefaultDaysAgo]
	Now           time.Time // reference time; zero means time.Now
}

type query struct {
	term  string
	topic bool
}

// Recommender aggregates new releases from the catalog.
type Recommender struct {
	catalog services.Catalog
	logger  *log.Logger
	workers int
}

// NewRecommender creates a recommender. A nil logger discards output; workers <= 0 uses [DefaultWorkers].
func NewRecommender(catalog services.Catalog, logger *log.Logger, workers int) *Recommender {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Recommender{catalog: catalog, logger: logger, workers: workers}
}

// Recommend runs one query per author and topic and merges the results.
//
// The result is never nil. An error is returned only when the catalog is missing or ctx ends.
func (r *Recommender) Recommend(ctx context.Context, req RecommendationRequest, progress chan<- ProgressUpdate) ([]models.Book, error) {
	if r.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	queries := make([]query, 0, len(req.Authors)+len(req.Topics))
	for _, a := range req.Authors {
		if !shared.IsBlank(a) {
			queries = append(queries, query{term: a})
		}
	}
	for _, t := range req.Topics {
		if !shared.IsBlank(t) {
			queries = append(queries, query{term: t, topic: true})
		}
	}
	if len(queries) == 0 {
		return []models.Book{}, nil
	}

	results := make([][]models.Book, len(queries))
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, q := range queries {
		g.Go(func() error {
			filter := services.FilterAuthor
			if q.topic {
				filter = services.FilterTitle
			}

			res, err := r.catalog.Search(gctx, q.term, filter, 0, services.OrderNewest)
			step := int(done.Add(1))
			if err != nil {
				r.logger.Warn("recommendation query failed", "query", q.term, "topic", q.topic, "err", err)
				sendProgress(progress, queryFailedUpdate(q, step, len(queries), err))
				return nil
			}

			results[i] = res.Items
			sendProgress(progress, queryUpdate(q, step, len(queries)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var candidates []models.Book
	for _, items := range results {
		candidates = append(candidates, items...)
	}

	books := Merge(candidates, req.ExcludeTitles, req.DaysAgo, req.Now)
	sendProgress(progress, mergeUpdate(len(candidates), len(books)))
	r.logger.Debug("recommendations merged", "queries", len(queries), "candidates", len(candidates), "kept", len(books))
	return books, nil
}

// Merge deduplicates candidates by id (first wins), drops excluded titles, books
// without a parseable date and books older than daysAgo days before now, then
// sorts newest first. Ties keep their merged order.
func Merge(candidates []models.Book, excludeTitles []string, daysAgo int, now time.Time) []models.Book {
	if daysAgo <= 0 {
		daysAgo = DefaultDaysAgo
	}
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := now.UTC().AddDate(0, 0, -daysAgo)

	excluded := make(map[string]struct{}, len(excludeTitles))
	for _, t := range excludeTitles {
		excluded[shared.NormalizeTitle(t)] = struct{}{}
	}

	type dated struct {
		book      models.Book
		published time.Time
	}

	seen := make(map[string]struct{}, len(candidates))
	kept := make([]dated, 0, len(candidates))
	for _, b := range candidates {
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}

		if _, skip := excluded[shared.NormalizeTitle(b.Title())]; skip {
			continue
		}
		published, ok := b.Published()
		if !ok || published.Before(cutoff) {
			continue
		}
		kept = append(kept, dated{book: b, published: published})
	}

	slices.SortStableFunc(kept, func(a, b dated) int {
		return cmp.Compare(b.published.UnixNano(), a.published.UnixNano())
	})

	books := make([]models.Book, len(kept))
	for i, d := range kept {
		books[i] = d.book
	}
	return books
}

// Page returns the 1-based page of books. Out-of-range pages are empty.
func Page(books []models.Book, page, size int) []models.Book {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(books) {
		return []models.Book{}
	}
	return books[start:min(start+size, len(books))]
}

// PageCount returns the number of pages needed for n books.
func PageCount(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	return (n + size - 1) / size
}
