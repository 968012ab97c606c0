package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/services"
	tu "github.com/desertthunder/bookshelf/internal/testing"
)

var now = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

func ids(books []models.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRecommender(t *testing.T) {
	ctx := context.Background()

	t.Run("recency window drops old books", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Results["Jane Doe"] = []models.Book{
			tu.NewBook("b2", "Old Release", "2023-01-01", "Jane Doe"),
			tu.NewBook("b1", "New Release", "2025-06-01", "Jane Doe"),
		}

		books, err := NewRecommender(catalog, nil, 2).Recommend(ctx, RecommendationRequest{
			Authors:       []string{"Jane Doe"},
			Topics:        []string{},
			ExcludeTitles: []string{"Old Book"},
			DaysAgo:       365,
			Now:           now,
		}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !equal(ids(books), []string{"b1"}) {
			t.Errorf("expected [b1], got %v", ids(books))
		}
	})

	t.Run("queries authors with author filter and topics with title filter", func(t *testing.T) {
		catalog := tu.NewMockCatalog()

		_, err := NewRecommender(catalog, nil, 1).Recommend(ctx, RecommendationRequest{
			Authors: []string{"Ann Leckie", " "},
			Topics:  []string{"climate"},
			Now:     now,
		}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		calls := catalog.Calls()
		if len(calls) != 2 {
			t.Fatalf("expected 2 queries (blank skipped), got %d", len(calls))
		}
		for _, c := range calls {
			if c.Order != services.OrderNewest || c.Offset != 0 {
				t.Errorf("expected newest-first first page, got %+v", c)
			}
			switch c.Query {
			case "Ann Leckie":
				if c.Filter != services.FilterAuthor {
					t.Errorf("expected author filter, got %v", c.Filter)
				}
			case "climate":
				if c.Filter != services.FilterTitle {
					t.Errorf("expected title filter, got %v", c.Filter)
				}
			default:
				t.Errorf("unexpected query %q", c.Query)
			}
		}
	})

	t.Run("dedupes by id with first occurrence winning", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		fromAuthor := tu.NewBook("dup", "Shared Book", "2025-05-01", "A")
		fromAuthor.VolumeInfo.Subtitle = "author copy"
		fromTopic := tu.NewBook("dup", "Shared Book", "2025-05-01", "A")
		fromTopic.VolumeInfo.Subtitle = "topic copy"
		catalog.Results["A"] = []models.Book{fromAuthor}
		catalog.Results["space"] = []models.Book{fromTopic, tu.NewBook("t1", "Space", "2025-04-01")}

		books, err := NewRecommender(catalog, nil, 4).Recommend(ctx, RecommendationRequest{
			Authors: []string{"A"},
			Topics:  []string{"space"},
			Now:     now,
		}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !equal(ids(books), []string{"dup", "t1"}) {
			t.Fatalf("expected [dup t1], got %v", ids(books))
		}
		if books[0].VolumeInfo.Subtitle != "author copy" {
			t.Errorf("expected author result to win, got %q", books[0].VolumeInfo.Subtitle)
		}
	})

	t.Run("excludes library titles case-insensitively", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Results["A"] = []models.Book{
			tu.NewBook("b1", "Owned Book", "2025-06-01"),
			tu.NewBook("b2", "Fresh Book", "2025-06-02"),
		}

		books, _ := NewRecommender(catalog, nil, 1).Recommend(ctx, RecommendationRequest{
			Authors:       []string{"A"},
			ExcludeTitles: []string{"  owned   BOOK "},
			Now:           now,
		}, nil)
		if !equal(ids(books), []string{"b2"}) {
			t.Errorf("expected [b2], got %v", ids(books))
		}
	})

	t.Run("failed query counts as empty", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Errors["broken"] = errors.New("503")
		catalog.Results["ok"] = []models.Book{tu.NewBook("b1", "Fine", "2025-06-01")}

		progress := make(chan ProgressUpdate, 10)
		books, err := NewRecommender(catalog, nil, 2).Recommend(ctx, RecommendationRequest{
			Authors: []string{"broken", "ok"},
			Now:     now,
		}, progress)
		if err != nil {
			t.Fatalf("expected partial success, got %v", err)
		}
		if !equal(ids(books), []string{"b1"}) {
			t.Errorf("expected [b1], got %v", ids(books))
		}

		close(progress)
		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		if len(phases) != 3 || phases[2] != MergeResults {
			t.Errorf("expected two query updates then merge, got %v", phases)
		}
	})

	t.Run("no authors and no topics", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		books, err := NewRecommender(catalog, nil, 1).Recommend(ctx, RecommendationRequest{Now: now}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if books == nil || len(books) != 0 {
			t.Errorf("expected empty non-nil result, got %v", books)
		}
		if len(catalog.Calls()) != 0 {
			t.Error("expected no catalog queries")
		}
	})

	t.Run("nil catalog", func(t *testing.T) {
		if _, err := NewRecommender(nil, nil, 1).Recommend(ctx, RecommendationRequest{Authors: []string{"A"}}, nil); err == nil {
			t.Error("expected error for nil catalog")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		catalog := tu.NewMockCatalog()
		if _, err := NewRecommender(catalog, nil, 1).Recommend(cctx, RecommendationRequest{Authors: []string{"A"}}, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("progress never blocks", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		unbuffered := make(chan ProgressUpdate)
		if _, err := NewRecommender(catalog, nil, 1).Recommend(ctx, RecommendationRequest{Authors: []string{"A", "B"}, Now: now}, unbuffered); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestMerge(t *testing.T) {
	t.Run("normalises mixed date precision", func(t *testing.T) {
		books := Merge([]models.Book{
			tu.NewBook("year", "Year Only", "2025"),
			tu.NewBook("month", "Year Month", "2025-03"),
			tu.NewBook("day", "Full Date", "2025-02-15"),
		}, nil, 365, now)

		if !equal(ids(books), []string{"month", "day", "year"}) {
			t.Errorf("expected [month day year], got %v", ids(books))
		}
	})

	t.Run("drops undated and unparseable", func(t *testing.T) {
		books := Merge([]models.Book{
			tu.NewBook("none", "No Date", ""),
			tu.NewBook("junk", "Junk Date", "sometime"),
			tu.NewBook("ok", "Dated", "2025-06-30"),
		}, nil, 30, now)

		if !equal(ids(books), []string{"ok"}) {
			t.Errorf("expected [ok], got %v", ids(books))
		}
	})

	t.Run("default window is 365 days", func(t *testing.T) {
		books := Merge([]models.Book{
			tu.NewBook("in", "Inside", "2024-07-02"),
			tu.NewBook("out", "Outside", "2024-06-30"),
		}, nil, 0, now)

		if !equal(ids(books), []string{"in"}) {
			t.Errorf("expected [in], got %v", ids(books))
		}
	})

	t.Run("ties keep merged order", func(t *testing.T) {
		books := Merge([]models.Book{
			tu.NewBook("first", "First", "2025-05-01"),
			tu.NewBook("second", "Second", "2025-05-01"),
		}, nil, 365, now)

		if !equal(ids(books), []string{"first", "second"}) {
			t.Errorf("expected stable order, got %v", ids(books))
		}
	})
}

func TestPage(t *testing.T) {
	var books []models.Book
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		books = append(books, tu.NewBook(id, id, "2025"))
	}

	tc := []struct {
		name string
		page int
		size int
		want []string
	}{
		{name: "first page default size", page: 1, size: 0, want: []string{"1", "2", "3", "4", "5"}},
		{name: "partial last page", page: 2, size: 5, want: []string{"6", "7"}},
		{name: "page below one", page: 0, size: 3, want: []string{"1", "2", "3"}},
		{name: "out of range", page: 4, size: 5, want: []string{}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(Page(books, tt.page, tt.size)); !equal(got, tt.want) {
				t.Errorf("Page() = %v, want %v", got, tt.want)
			}
		})
	}

	if PageCount(7, 5) != 2 || PageCount(0, 5) != 0 || PageCount(10, 0) != 2 {
		t.Error("unexpected PageCount result")
	}
}

type fakeFeeds struct {
	mu    sync.Mutex
	feeds map[string]*services.Feed
	errs  map[string]error
	urls  []string
}

func (f *fakeFeeds) Fetch(ctx context.Context, url string) (*services.Feed, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	return f.feeds[url], nil
}

func at(s string) *time.Time {
	ts, _ := time.Parse(time.RFC3339, s)
	return &ts
}

func TestAuthorFeed(t *testing.T) {
	feeds := &fakeFeeds{
		feeds: map[string]*services.Feed{
			"https://a.test/rss": {Title: "A", Items: []services.FeedItem{
				{Title: "a1", ISODate: at("2025-06-03T00:00:00Z")},
				{Title: "a2", ISODate: at("2025-05-01T00:00:00Z")},
				{Title: "a3", ISODate: at("2025-04-01T00:00:00Z")},
				{Title: "a4", ISODate: at("2025-03-01T00:00:00Z")},
			}},
			"https://b.test/rss": {Title: "B", Items: []services.FeedItem{
				{Title: "b1", ISODate: at("2025-06-10T00:00:00Z")},
				{Title: "b-undated"},
			}},
		},
		errs: map[string]error{"https://c.test/rss": errors.New("timeout")},
	}

	req := FeedRequest{
		Authors: []string{"A", "B", "C", "NoProfile"},
		Profiles: map[string]models.AuthorProfile{
			"A": {RSS: "https://a.test/rss"},
			"B": {RSS: "https://b.test/rss"},
			"C": {RSS: "https://c.test/rss"},
			"D": {RSS: "https://d.test/rss"},
		},
		Now: now,
	}

	posts, err := NewAuthorFeed(feeds, nil, 2).Fetch(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var titles []string
	for _, p := range posts {
		titles = append(titles, p.Title)
	}
	want := []string{"b-undated", "b1", "a1", "a2", "a3"}
	if !equal(titles, want) {
		t.Errorf("expected %v, got %v", want, titles)
	}
	if posts[1].Author != "B" || posts[1].FeedTitle != "B" {
		t.Errorf("expected post attributed to B, got %+v", posts[1])
	}

	t.Run("only followed authors with rss are fetched", func(t *testing.T) {
		if len(feeds.urls) != 3 {
			t.Errorf("expected 3 fetches, got %v", feeds.urls)
		}
	})

	t.Run("no sources", func(t *testing.T) {
		posts, err := NewAuthorFeed(feeds, nil, 1).Fetch(context.Background(), FeedRequest{Authors: []string{"X"}}, nil)
		if err != nil || posts == nil || len(posts) != 0 {
			t.Errorf("expected empty result, got %v, %v", posts, err)
		}
	})

	t.Run("nil fetcher", func(t *testing.T) {
		if _, err := NewAuthorFeed(nil, nil, 1).Fetch(context.Background(), req, nil); err == nil {
			t.Error("expected error for nil fetcher")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(context.Background())
		cancel()
		posts, err := NewAuthorFeed(feeds, nil, 1).Fetch(cctx, req, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if posts != nil {
			t.Errorf("expected no posts, got %v", posts)
		}
	})
}

func TestGeneration(t *testing.T) {
	var g Generation

	first := g.Next()
	if !g.IsCurrent(first) {
		t.Error("expected first token to be current")
	}

	second := g.Next()
	if g.IsCurrent(first) {
		t.Error("expected first token to be stale after Next")
	}
	if !g.IsCurrent(second) || second <= first {
		t.Error("expected second token to be current and larger")
	}
}

func TestPhaseString(t *testing.T) {
	for p, want := range map[Phase]string{QueryAuthors: "query_authors", QueryTopics: "query_topics", MergeResults: "merge", FetchFeeds: "fetch_feeds", Phase(99): ""} {
		if p.String() != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, p.String(), want)
		}
	}
}
