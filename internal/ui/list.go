package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/bookshelf/internal/formatter"
	"github.com/desertthunder/bookshelf/internal/models"
)

var (
	_ list.Item = bookItem{}
)

// bookItem wraps [models.Book] to implement [list.Item].
type bookItem struct {
	book models.Book
}

func (i bookItem) FilterValue() string { return i.book.Title() + " " + formatter.Authors(i.book) }
func (i bookItem) Title() string       { return i.book.Title() }
func (i bookItem) Description() string {
	parts := []string{formatter.Authors(i.book)}
	if d := i.book.VolumeInfo.PublishedDate; d != "" {
		parts = append(parts, d)
	}
	if i.book.ReadDate != "" {
		parts = append(parts, "read "+i.book.ReadDate)
	}
	if len(i.book.Tags) > 0 {
		parts = append(parts, strings.Join(i.book.Tags, ", "))
	}
	return strings.Join(parts, " • ")
}

func bookItems(books []models.Book) []list.Item {
	items := make([]list.Item, len(books))
	for i, b := range books {
		items[i] = bookItem{book: b}
	}
	return items
}

func newBookList(title string, books []models.Book, width, height int) list.Model {
	l := list.New(bookItems(books), list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetShowHelp(false)
	return l
}
