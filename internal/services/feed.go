// RSS/Atom feed client for followed authors
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/desertthunder/bookshelf/internal/shared"
)

// Feed is a parsed RSS or Atom feed in the shape served by the /api/rss relay.
type Feed struct {
	Title       string     `json:"title"`
	Link        string     `json:"link,omitempty"`
	Description string     `json:"description,omitempty"`
	Items       []FeedItem `json:"items"`
}

// FeedItem is a single post of a [Feed].
type FeedItem struct {
	Title          string     `json:"title"`
	Link           string     `json:"link"`
	Creator        string     `json:"creator,omitempty"`
	ContentSnippet string     `json:"contentSnippet,omitempty"`
	ISODate        *time.Time `json:"isoDate,omitempty"`
}

// FeedService fetches feeds directly or, when a relay is configured, through GET {relay}/api/rss?url=.
type FeedService struct {
	relayURL   string
	httpClient *http.Client
	parser     *gofeed.Parser
}

// NewFeedService creates a feed client. An empty relayURL fetches feeds directly.
func NewFeedService(relayURL string, client *http.Client) *FeedService {
	if client == nil {
		client = http.DefaultClient
	}
	return &FeedService{
		relayURL:   strings.TrimRight(relayURL, "/"),
		httpClient: client,
		parser:     gofeed.NewParser(),
	}
}

// Fetch returns the parsed feed at feedURL.
func (f *FeedService) Fetch(ctx context.Context, feedURL string) (*Feed, error) {
	if shared.IsBlank(feedURL) {
		return nil, fmt.Errorf("%w: feed url", shared.ErrMissingArgument)
	}
	if f.relayURL == "" {
		return f.Parse(ctx, feedURL)
	}

	endpoint := f.relayURL + "/api/rss?" + url.Values{"url": {feedURL}}.Encode()
	body, err := f.doRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var feed Feed
	if err := json.NewDecoder(body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode relay response: %w", err)
	}
	return &feed, nil
}

// Parse downloads and parses feedURL without the relay.
func (f *FeedService) Parse(ctx context.Context, feedURL string) (*Feed, error) {
	body, err := f.doRequest(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return f.decode(body)
}

func (f *FeedService) decode(r io.Reader) (*Feed, error) {
	parsed, err := f.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return convertFeed(parsed), nil
}

// ParseFeed parses RSS, Atom or JSON Feed content.
func ParseFeed(r io.Reader) (*Feed, error) {
	return NewFeedService("", nil).decode(r)
}

func (f *FeedService) doRequest(ctx context.Context, endpoint string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "shelf/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: feed request returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	return resp.Body, nil
}

func convertFeed(parsed *gofeed.Feed) *Feed {
	feed := &Feed{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
		Items:       make([]FeedItem, 0, len(parsed.Items)),
	}

	for _, it := range parsed.Items {
		item := FeedItem{
			Title:          it.Title,
			Link:           it.Link,
			ContentSnippet: snippet(it.Description),
		}
		if len(it.Authors) > 0 && it.Authors[0] != nil {
			item.Creator = it.Authors[0].Name
		}
		switch {
		case it.PublishedParsed != nil:
			ts := it.PublishedParsed.UTC()
			item.ISODate = &ts
		case it.UpdatedParsed != nil:
			ts := it.UpdatedParsed.UTC()
			item.ISODate = &ts
		}
		feed.Items = append(feed.Items, item)
	}
	return feed
}

// snippet strips markup and collapses whitespace.
func snippet(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
