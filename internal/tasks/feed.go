package tasks

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// DefaultItemsPerAuthor is how many items of each feed are kept.
const DefaultItemsPerAuthor = 3

// FeedFetcher fetches a parsed feed; implemented by [services.FeedService].
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) (*services.Feed, error)
}

// FeedRequest describes one author feed aggregation.
type FeedRequest struct {
	Authors   []string
	Profiles  map[string]models.AuthorProfile
	PerAuthor int       // items kept per feed; <= 0 means [DefaultItemsPerAuthor]
	Now       time.Time // timestamp for undated items; zero means time.Now
}

// AuthorPost is a feed item attributed to a followed author.
type AuthorPost struct {
	services.FeedItem
	Author    string    `json:"author"`
	FeedTitle string    `json:"feedTitle,omitempty"`
	SortTime  time.Time `json:"-"`
}

// AuthorFeed merges the RSS feeds of followed authors.
type AuthorFeed struct {
	feeds   FeedFetcher
	logger  *log.Logger
	workers int
}

// NewAuthorFeed creates an author feed aggregator.
func NewAuthorFeed(feeds FeedFetcher, logger *log.Logger, workers int) *AuthorFeed {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &AuthorFeed{feeds: feeds, logger: logger, workers: workers}
}

// Fetch reads the feed of every author with an rss profile link and returns the
// first PerAuthor items of each, newest first. Failed feeds are logged and skipped.
func (f *AuthorFeed) Fetch(ctx context.Context, req FeedRequest, progress chan<- ProgressUpdate) ([]AuthorPost, error) {
	if f.feeds == nil {
		return nil, fmt.Errorf("%w: feed service not initialized", shared.ErrServiceUnavailable)
	}
	perAuthor := req.PerAuthor
	if perAuthor <= 0 {
		perAuthor = DefaultItemsPerAuthor
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	type source struct{ author, url string }
	var sources []source
	for _, a := range req.Authors {
		if p, ok := req.Profiles[a]; ok && !shared.IsBlank(p.RSS) {
			sources = append(sources, source{author: a, url: p.RSS})
		}
	}
	if len(sources) == 0 {
		return []AuthorPost{}, nil
	}

	var (
		mu    sync.Mutex
		posts []AuthorPost
		done  atomic.Int32
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for _, src := range sources {
		g.Go(func() error {
			feed, err := f.feeds.Fetch(gctx, src.url)
			step := int(done.Add(1))
			if err != nil {
				f.logger.Warn("author feed failed", "author", src.author, "url", src.url, "err", err)
				sendProgress(progress, feedFailedUpdate(step, len(sources), src.author, err))
				return nil
			}
			sendProgress(progress, feedUpdate(step, len(sources), src.author))

			items := feed.Items[:min(perAuthor, len(feed.Items))]
			mu.Lock()
			defer mu.Unlock()
			for _, it := range items {
				ts := now
				if it.ISODate != nil {
					ts = *it.ISODate
				}
				posts = append(posts, AuthorPost{FeedItem: it, Author: src.author, FeedTitle: feed.Title, SortTime: ts})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(posts, func(a, b AuthorPost) int {
		if c := cmp.Compare(b.SortTime.UnixNano(), a.SortTime.UnixNano()); c != 0 {
			return c
		}
		return cmp.Compare(a.Author, b.Author)
	})
	if posts == nil {
		posts = []AuthorPost{}
	}
	return posts, nil
}
