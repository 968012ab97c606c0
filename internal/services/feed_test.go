package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/bookshelf/internal/shared"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Author Blog</title>
  <link>https://author.example</link>
  <description>Posts</description>
  <item>
    <title>New novel announced</title>
    <link>https://author.example/novel</link>
    <description>&lt;p&gt;It is &lt;b&gt;finally&lt;/b&gt; here&lt;/p&gt;</description>
    <pubDate>Mon, 02 Jun 2025 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Undated note</title>
    <link>https://author.example/note</link>
  </item>
</channel>
</rss>`

func TestFeedService(t *testing.T) {
	t.Run("ParseFeed", func(t *testing.T) {
		feed, err := ParseFeed(strings.NewReader(testRSS))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if feed.Title != "Author Blog" {
			t.Errorf("expected title Author Blog, got %s", feed.Title)
		}
		if len(feed.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(feed.Items))
		}

		first := feed.Items[0]
		if first.ISODate == nil || !first.ISODate.Equal(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected isoDate %v", first.ISODate)
		}
		if first.ContentSnippet != "It is finally here" {
			t.Errorf("expected markup stripped, got %q", first.ContentSnippet)
		}
		if feed.Items[1].ISODate != nil {
			t.Error("expected undated item to have no isoDate")
		}
	})

	t.Run("ParseFeed invalid", func(t *testing.T) {
		if _, err := ParseFeed(strings.NewReader("definitely not a feed")); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("Fetch direct", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/rss+xml")
			w.Write([]byte(testRSS))
		}))
		defer server.Close()

		feed, err := NewFeedService("", nil).Fetch(context.Background(), server.URL+"/feed.xml")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if feed.Items[0].Link != "https://author.example/novel" {
			t.Errorf("unexpected link %s", feed.Items[0].Link)
		}
	})

	t.Run("Fetch through relay", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/rss" {
				t.Errorf("expected /api/rss, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("url") != "https://author.example/feed?x=1" {
				t.Errorf("unexpected url param %q", r.URL.Query().Get("url"))
			}
			json.NewEncoder(w).Encode(Feed{Title: "Relayed", Items: []FeedItem{{Title: "Post"}}})
		}))
		defer server.Close()

		feed, err := NewFeedService(server.URL+"/", nil).Fetch(context.Background(), "https://author.example/feed?x=1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if feed.Title != "Relayed" || len(feed.Items) != 1 {
			t.Errorf("unexpected feed %+v", feed)
		}
	})

	t.Run("Fetch errors", func(t *testing.T) {
		t.Run("blank url", func(t *testing.T) {
			if _, err := NewFeedService("", nil).Fetch(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("non-2xx", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			if _, err := NewFeedService(server.URL, nil).Fetch(context.Background(), "https://a.example"); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})
}
