// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// NewBook builds a catalog book with the given id, title, publication date and authors.
func NewBook(id, title, published string, authors ...string) models.Book {
	return models.Book{
		ID: id,
		VolumeInfo: models.VolumeInfo{
			Title:         title,
			Authors:       authors,
			PublishedDate: published,
		},
	}
}

// CatalogCall records a single [MockCatalog.Search] invocation.
type CatalogCall struct {
	Query  string
	Filter services.Filter
	Offset int
	Order  services.Order
}

// MockCatalog is a test double for [services.Catalog].
//
// Results and Errors are keyed by query text.
type MockCatalog struct {
	Results map[string][]models.Book
	Errors  map[string]error
	Books   map[string]models.Book

	mu    sync.Mutex
	calls []CatalogCall
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		Results: map[string][]models.Book{},
		Errors:  map[string]error{},
		Books:   map[string]models.Book{},
	}
}

func (m *MockCatalog) Search(ctx context.Context, query string, filter services.Filter, offset int, order services.Order) (*services.SearchResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, CatalogCall{Query: query, Filter: filter, Offset: offset, Order: order})
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.Errors[query]; err != nil {
		return nil, err
	}
	items := append([]models.Book{}, m.Results[query]...)
	return &services.SearchResult{Items: items, TotalItems: len(items)}, nil
}

func (m *MockCatalog) GetByID(ctx context.Context, id string) (*models.Book, error) {
	if b, ok := m.Books[id]; ok {
		return &b, nil
	}
	return nil, &shared.CatalogError{Op: "get", Status: http.StatusNotFound, StatusText: "Not Found", Err: shared.ErrBookNotFound}
}

func (m *MockCatalog) GetByAuthor(ctx context.Context, author string) (*services.SearchResult, error) {
	return m.Search(ctx, author, services.FilterAuthor, 0, services.OrderRelevance)
}

// Calls returns a copy of the recorded searches.
func (m *MockCatalog) Calls() []CatalogCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CatalogCall{}, m.calls...)
}

// MemoryGateway is an in-memory persistence gateway.
type MemoryGateway struct {
	mu    sync.Mutex
	doc   *models.Document
	saves []*models.Document
	// OnSave, when set, runs before each save is recorded.
	OnSave func(*models.Document)
}

func NewMemoryGateway(doc *models.Document) *MemoryGateway {
	return &MemoryGateway{doc: doc}
}

func (g *MemoryGateway) Name() string { return "memory" }

func (g *MemoryGateway) Load(ctx context.Context) (*models.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.doc == nil {
		return nil, nil
	}
	s := g.doc.State()
	return s.Document(), nil
}

func (g *MemoryGateway) Save(ctx context.Context, doc *models.Document) error {
	if g.OnSave != nil {
		g.OnSave(doc)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.doc = doc
	g.saves = append(g.saves, doc)
	return nil
}

// Saves returns every document saved so far, oldest first.
func (g *MemoryGateway) Saves() []*models.Document {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*models.Document{}, g.saves...)
}

// Document returns the last saved (or seeded) document.
func (g *MemoryGateway) Document() *models.Document {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.doc
}

// FailingGateway returns LoadErr and SaveErr from every call.
type FailingGateway struct {
	LoadErr error
	SaveErr error

	mu    sync.Mutex
	saves int
}

func (g *FailingGateway) Name() string { return "failing" }

func (g *FailingGateway) Load(context.Context) (*models.Document, error) {
	return nil, g.LoadErr
}

func (g *FailingGateway) Save(context.Context, *models.Document) error {
	g.mu.Lock()
	g.saves++
	g.mu.Unlock()
	return g.SaveErr
}

// SaveAttempts returns how many saves were attempted.
func (g *FailingGateway) SaveAttempts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saves
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
