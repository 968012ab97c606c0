package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/bookshelf/internal/models"
)

// Catalog is the read-only book catalog used by search and recommendations.
type Catalog interface {
	// Search runs a filtered query. An empty query returns an empty result without a request.
	Search(ctx context.Context, query string, filter Filter, offset int, order Order) (*SearchResult, error)

	// GetByID fetches a single volume.
	GetByID(ctx context.Context, id string) (*models.Book, error)

	// GetByAuthor is Search(author, FilterAuthor, 0, OrderRelevance).
	GetByAuthor(ctx context.Context, author string) (*SearchResult, error)
}

// SearchResult is one page of catalog volumes.
type SearchResult struct {
	Items      []models.Book `json:"items"`
	TotalItems int           `json:"totalItems"`
}

// Filter restricts a catalog query to one field.
type Filter int

const (
	FilterNone Filter = iota
	FilterTitle
	FilterAuthor
	FilterPublisher
	FilterCategory
)

func (f Filter) String() string {
	switch f {
	case FilterTitle:
		return "title"
	case FilterAuthor:
		return "author"
	case FilterPublisher:
		return "publisher"
	case FilterCategory:
		return "category"
	default:
		return "none"
	}
}

// keyword returns the query prefix understood by the catalog.
func (f Filter) keyword() string {
	switch f {
	case FilterTitle:
		return "intitle"
	case FilterAuthor:
		return "inauthor"
	case FilterPublisher:
		return "inpublisher"
	case FilterCategory:
		return "subject"
	default:
		return ""
	}
}

// ParseFilter maps a user-facing name ("", "title", "author", "publisher", "category") to a [Filter].
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "all":
		return FilterNone, nil
	case "title", "intitle":
		return FilterTitle, nil
	case "author", "inauthor":
		return FilterAuthor, nil
	case "publisher", "inpublisher":
		return FilterPublisher, nil
	case "category", "subject":
		return FilterCategory, nil
	default:
		return FilterNone, fmt.Errorf("unknown search filter %q", s)
	}
}

// Order is the catalog result ordering.
type Order int

const (
	OrderRelevance Order = iota
	OrderNewest
)

func (o Order) String() string {
	if o == OrderNewest {
		return "newest"
	}
	return "relevance"
}

// BuildQuery renders the q parameter for a query and filter.
//
// Author queries are quoted so multi-word names match as a phrase.
func BuildQuery(query string, filter Filter) string {
	query = strings.TrimSpace(query)
	kw := filter.keyword()
	switch {
	case kw == "":
		return query
	case filter == FilterAuthor:
		return kw + `:"` + strings.Trim(query, `"`) + `"`
	default:
		return kw + ":" + query
	}
}
