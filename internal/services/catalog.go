// Google Books [Catalog] implementation
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

const (
	DefaultCatalogURL     string = "https://www.googleapis.com/books/v1/volumes"
	defaultCatalogBackoff        = 500 * time.Millisecond
)

// BooksOptions configures a [BooksService]. Zero values fall back to defaults.
type BooksOptions struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	RateLimit  float64 // requests per second; <= 0 disables limiting
	MaxRetries int
	Backoff    time.Duration
	Client     *http.Client
	Logger     *log.Logger
}

// BooksOptionsFromConfig builds [BooksOptions] from the catalog config section.
func BooksOptionsFromConfig(c shared.CatalogConfig) BooksOptions {
	opts := BooksOptions{
		BaseURL:    c.BaseURL,
		APIKey:     c.APIKey,
		MaxResults: c.MaxResults,
		RateLimit:  c.RateLimit,
		MaxRetries: c.MaxRetries,
	}
	if c.TimeoutSeconds > 0 {
		opts.Client = &http.Client{Timeout: time.Duration(c.TimeoutSeconds) * time.Second}
	}
	return opts
}

// BooksService implements [Catalog] for the Google Books volumes API.
type BooksService struct {
	baseURL    string
	apiKey     string
	maxResults int
	maxRetries int
	backoff    time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *log.Logger
}

// NewBooksService creates a catalog client.
func NewBooksService(opts BooksOptions) *BooksService {
	s := &BooksService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		maxResults: opts.MaxResults,
		maxRetries: max(opts.MaxRetries, 0),
		backoff:    opts.Backoff,
		httpClient: opts.Client,
		logger:     opts.Logger,
	}

	if s.baseURL == "" {
		s.baseURL = DefaultCatalogURL
	}
	if s.maxResults <= 0 {
		s.maxResults = shared.DefaultPageSize
	}
	s.maxResults = min(s.maxResults, shared.MaxCatalogPage)
	if s.backoff <= 0 {
		s.backoff = defaultCatalogBackoff
	}
	if s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return s
}

// Name returns the service name.
func (s *BooksService) Name() string { return "Google Books" }

// PageSize returns the number of results requested per page.
func (s *BooksService) PageSize() int { return s.maxResults }

// Search runs a catalog query.
//
// Calls GET {base}?q=&startIndex=&maxResults=&orderBy=.
func (s *BooksService) Search(ctx context.Context, query string, filter Filter, offset int, order Order) (*SearchResult, error) {
	if shared.IsBlank(query) {
		return &SearchResult{Items: []models.Book{}}, nil
	}

	params := url.Values{}
	params.Set("q", BuildQuery(query, filter))
	params.Set("startIndex", strconv.Itoa(max(offset, 0)))
	params.Set("maxResults", strconv.Itoa(s.maxResults))
	params.Set("orderBy", order.String())

	var result SearchResult
	if err := s.doRequest(ctx, "search", s.baseURL+"?"+s.withKey(params).Encode(), &result); err != nil {
		return nil, err
	}
	if result.Items == nil {
		result.Items = []models.Book{}
	}
	return &result, nil
}

// GetByID fetches a single volume.
//
// Calls GET {base}/{id}. A 404 wraps [shared.ErrBookNotFound].
func (s *BooksService) GetByID(ctx context.Context, id string) (*models.Book, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}

	endpoint := s.baseURL + "/" + url.PathEscape(id)
	if q := s.withKey(url.Values{}).Encode(); q != "" {
		endpoint += "?" + q
	}

	var book models.Book
	if err := s.doRequest(ctx, "get", endpoint, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByAuthor returns the most relevant volumes for an author.
func (s *BooksService) GetByAuthor(ctx context.Context, author string) (*SearchResult, error) {
	return s.Search(ctx, author, FilterAuthor, 0, OrderRelevance)
}

func (s *BooksService) withKey(params url.Values) url.Values {
	if s.apiKey != "" {
		params.Set("key", s.apiKey)
	}
	return params
}

// doRequest performs a GET with rate limiting, retrying 429 and 5xx responses with exponential backoff.
func (s *BooksService) doRequest(ctx context.Context, op, endpoint string, result any) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			wait := s.backoff << (attempt - 1)
			s.logger.Debug("retrying catalog request", "op", op, "attempt", attempt, "wait", wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return &shared.CatalogError{Op: op, Err: ctx.Err()}
			}
		}

		retry, err := s.attempt(ctx, op, endpoint, result)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (s *BooksService) attempt(ctx context.Context, op, endpoint string, result any) (bool, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return false, &shared.CatalogError{Op: op, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, &shared.CatalogError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, &shared.CatalogError{Op: op, Err: ctx.Err()}
		}
		return true, &shared.CatalogError{Op: op, Err: fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		cerr := &shared.CatalogError{Op: op, Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode), Err: shared.ErrAPIRequest}
		if resp.StatusCode == http.StatusNotFound {
			cerr.Err = shared.ErrBookNotFound
		}
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return retry, cerr
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return false, &shared.CatalogError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return false, nil
}
