package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/bookshelf/internal/shared"
)

func volumesHandler(t *testing.T, check func(r *http.Request)) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"totalItems": 2,
			"items": []map[string]any{
				{"id": "vol1", "volumeInfo": map[string]any{"title": "Dune", "authors": []string{"Frank Herbert"}, "publishedDate": "1965"}},
				{"id": "vol2", "volumeInfo": map[string]any{"title": "Dune Messiah", "publishedDate": "1969-10"}},
			},
		})
	}
}

func TestBuildQuery(t *testing.T) {
	tc := []struct {
		name   string
		query  string
		filter Filter
		want   string
	}{
		{name: "no filter", query: " dune ", filter: FilterNone, want: "dune"},
		{name: "title", query: "dune", filter: FilterTitle, want: "intitle:dune"},
		{name: "author is quoted", query: "Jane Doe", filter: FilterAuthor, want: `inauthor:"Jane Doe"`},
		{name: "author already quoted", query: `"Jane Doe"`, filter: FilterAuthor, want: `inauthor:"Jane Doe"`},
		{name: "publisher", query: "Tor", filter: FilterPublisher, want: "inpublisher:Tor"},
		{name: "category", query: "History", filter: FilterCategory, want: "subject:History"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildQuery(tt.query, tt.filter); got != tt.want {
				t.Errorf("BuildQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	if f, err := ParseFilter("Author"); err != nil || f != FilterAuthor {
		t.Errorf("expected FilterAuthor, got %v (%v)", f, err)
	}
	if f, err := ParseFilter(""); err != nil || f != FilterNone {
		t.Errorf("expected FilterNone, got %v (%v)", f, err)
	}
	if _, err := ParseFilter("isbn"); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestBooksService(t *testing.T) {
	t.Run("NewBooksService", func(t *testing.T) {
		t.Run("applies defaults", func(t *testing.T) {
			svc := NewBooksService(BooksOptions{})
			if svc.baseURL != DefaultCatalogURL {
				t.Errorf("expected default base url, got %s", svc.baseURL)
			}
			if svc.PageSize() != 20 {
				t.Errorf("expected page size 20, got %d", svc.PageSize())
			}
			if svc.limiter != nil {
				t.Error("expected no limiter without a rate limit")
			}
		})

		t.Run("caps page size", func(t *testing.T) {
			if svc := NewBooksService(BooksOptions{MaxResults: 100}); svc.PageSize() != 40 {
				t.Errorf("expected page size capped at 40, got %d", svc.PageSize())
			}
		})

		t.Run("from config", func(t *testing.T) {
			opts := BooksOptionsFromConfig(shared.DefaultConfig().Catalog)
			if opts.Client == nil || opts.Client.Timeout != 10*time.Second {
				t.Error("expected client timeout from config")
			}
			if opts.RateLimit != 5 || opts.MaxRetries != 3 {
				t.Errorf("unexpected options %+v", opts)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("sends query parameters", func(t *testing.T) {
			server := httptest.NewServer(volumesHandler(t, func(r *http.Request) {
				q := r.URL.Query()
				if q.Get("q") != `inauthor:"Frank Herbert"` {
					t.Errorf("unexpected q %q", q.Get("q"))
				}
				if q.Get("startIndex") != "20" {
					t.Errorf("expected startIndex 20, got %s", q.Get("startIndex"))
				}
				if q.Get("maxResults") != "20" {
					t.Errorf("expected maxResults 20, got %s", q.Get("maxResults"))
				}
				if q.Get("orderBy") != "newest" {
					t.Errorf("expected orderBy newest, got %s", q.Get("orderBy"))
				}
				if q.Get("key") != "secret" {
					t.Errorf("expected api key, got %q", q.Get("key"))
				}
			}))
			defer server.Close()

			svc := NewBooksService(BooksOptions{BaseURL: server.URL, APIKey: "secret"})
			result, err := svc.Search(context.Background(), "Frank Herbert", FilterAuthor, 20, OrderNewest)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.TotalItems != 2 || len(result.Items) != 2 {
				t.Fatalf("expected 2 items, got %+v", result)
			}
			if result.Items[0].ID != "vol1" || result.Items[0].Title() != "Dune" {
				t.Errorf("unexpected first item %+v", result.Items[0])
			}
			if result.Items[1].FirstAuthor() != "Unknown" {
				t.Errorf("expected Unknown author, got %s", result.Items[1].FirstAuthor())
			}
		})

		t.Run("empty query makes no request", func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
			}))
			defer server.Close()

			svc := NewBooksService(BooksOptions{BaseURL: server.URL})
			result, err := svc.Search(context.Background(), "   ", FilterNone, 0, OrderRelevance)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.TotalItems != 0 || len(result.Items) != 0 || result.Items == nil {
				t.Errorf("expected empty non-nil result, got %+v", result)
			}
			if calls.Load() != 0 {
				t.Errorf("expected no requests, got %d", calls.Load())
			}
		})

		t.Run("no items key", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"totalItems":0}`))
			}))
			defer server.Close()

			result, err := NewBooksService(BooksOptions{BaseURL: server.URL}).Search(context.Background(), "zzz", FilterNone, 0, OrderRelevance)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Items == nil {
				t.Error("expected empty items slice")
			}
		})

		t.Run("client error is not retried", func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusBadRequest)
			}))
			defer server.Close()

			svc := NewBooksService(BooksOptions{BaseURL: server.URL, MaxRetries: 3, Backoff: time.Millisecond})
			_, err := svc.Search(context.Background(), "dune", FilterNone, 0, OrderRelevance)

			var ce *shared.CatalogError
			if !errors.As(err, &ce) {
				t.Fatalf("expected CatalogError, got %v", err)
			}
			if ce.Status != http.StatusBadRequest || ce.StatusText != "Bad Request" {
				t.Errorf("unexpected status %d %s", ce.Status, ce.StatusText)
			}
			if calls.Load() != 1 {
				t.Errorf("expected 1 call, got %d", calls.Load())
			}
		})

		t.Run("retries 429 and 5xx", func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch calls.Add(1) {
				case 1:
					w.WriteHeader(http.StatusTooManyRequests)
				case 2:
					w.WriteHeader(http.StatusServiceUnavailable)
				default:
					volumesHandler(t, nil)(w, r)
				}
			}))
			defer server.Close()

			svc := NewBooksService(BooksOptions{BaseURL: server.URL, MaxRetries: 2, Backoff: time.Millisecond})
			result, err := svc.Search(context.Background(), "dune", FilterNone, 0, OrderRelevance)
			if err != nil {
				t.Fatalf("expected success after retries, got %v", err)
			}
			if len(result.Items) != 2 {
				t.Errorf("expected 2 items, got %d", len(result.Items))
			}
			if calls.Load() != 3 {
				t.Errorf("expected 3 calls, got %d", calls.Load())
			}
		})

		t.Run("gives up after max retries", func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			svc := NewBooksService(BooksOptions{BaseURL: server.URL, MaxRetries: 1, Backoff: time.Millisecond})
			_, err := svc.Search(context.Background(), "dune", FilterNone, 0, OrderRelevance)

			var ce *shared.CatalogError
			if !errors.As(err, &ce) || ce.Status != http.StatusBadGateway {
				t.Fatalf("expected 502 CatalogError, got %v", err)
			}
			if calls.Load() != 2 {
				t.Errorf("expected 2 calls, got %d", calls.Load())
			}
		})

		t.Run("malformed body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			}))
			defer server.Close()

			_, err := NewBooksService(BooksOptions{BaseURL: server.URL}).Search(context.Background(), "dune", FilterNone, 0, OrderRelevance)
			var ce *shared.CatalogError
			if !errors.As(err, &ce) {
				t.Fatalf("expected CatalogError, got %v", err)
			}
		})
	})

	t.Run("GetByID", func(t *testing.T) {
		t.Run("returns the volume", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/vol1" {
					t.Errorf("expected path /vol1, got %s", r.URL.Path)
				}
				w.Write([]byte(`{"id":"vol1","volumeInfo":{"title":"Dune","infoLink":"https://books.google.com/dune"}}`))
			}))
			defer server.Close()

			book, err := NewBooksService(BooksOptions{BaseURL: server.URL}).GetByID(context.Background(), "vol1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if book.ID != "vol1" || book.VolumeInfo.InfoLink == "" {
				t.Errorf("unexpected book %+v", book)
			}
		})

		t.Run("not found", func(t *testing.T) {
			server := httptest.NewServer(http.NotFoundHandler())
			defer server.Close()

			_, err := NewBooksService(BooksOptions{BaseURL: server.URL}).GetByID(context.Background(), "missing")
			if !errors.Is(err, shared.ErrBookNotFound) {
				t.Errorf("expected ErrBookNotFound, got %v", err)
			}
		})

		t.Run("empty id", func(t *testing.T) {
			_, err := NewBooksService(BooksOptions{}).GetByID(context.Background(), " ")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("GetByAuthor", func(t *testing.T) {
		server := httptest.NewServer(volumesHandler(t, func(r *http.Request) {
			q := r.URL.Query()
			if q.Get("q") != `inauthor:"Frank Herbert"` || q.Get("orderBy") != "relevance" || q.Get("startIndex") != "0" {
				t.Errorf("unexpected query %v", q)
			}
		}))
		defer server.Close()

		if _, err := NewBooksService(BooksOptions{BaseURL: server.URL}).GetByAuthor(context.Background(), "Frank Herbert"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		server := httptest.NewServer(volumesHandler(t, nil))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		svc := NewBooksService(BooksOptions{BaseURL: server.URL, RateLimit: 1, MaxRetries: 3})
		if _, err := svc.Search(ctx, "dune", FilterNone, 0, OrderRelevance); err == nil {
			t.Error("expected error for canceled context")
		}
	})
}
