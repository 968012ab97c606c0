package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/bookshelf/internal/formatter"
	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
	"github.com/desertthunder/bookshelf/internal/store"
)

// Search queries the catalog and prints one page of results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	filter, err := services.ParseFilter(cmd.String("by"))
	if err != nil {
		return err
	}
	order := services.OrderRelevance
	if cmd.Bool("newest") {
		order = services.OrderNewest
	}
	offset := max(cmd.Int("offset"), 0)

	r.logger.Debug("searching catalog", "query", query, "filter", filter, "offset", offset, "order", order)
	result, err := r.catalog.Search(ctx, query, filter, offset, order)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	if len(result.Items) == 0 {
		return r.writePlain("No books found for %q\n", query)
	}
	r.writePlain("%s\n", formatter.Table(result.Items))
	return r.writePlain("Showing %d-%d of %d\n", offset+1, offset+len(result.Items), result.TotalItems)
}

// lookupBook finds id on the shelves first and falls back to the catalog.
func (r *Runner) lookupBook(ctx context.Context, id string) (models.Book, store.Location, error) {
	var (
		book models.Book
		loc  store.Location
	)
	err := r.withStore(ctx, func(st *store.Store) error {
		book, loc = st.Book(id)
		return nil
	})
	if err != nil {
		return models.Book{}, store.Nowhere, err
	}
	if loc != store.Nowhere {
		return book, loc, nil
	}

	found, err := r.catalog.GetByID(ctx, id)
	if err != nil {
		return models.Book{}, store.Nowhere, err
	}
	return *found, store.Nowhere, nil
}

// BookShow prints the details of a book.
func (r *Runner) BookShow(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}

	book, loc, err := r.lookupBook(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(book, true)
	}

	v := book.VolumeInfo
	title := v.Title
	if v.Subtitle != "" {
		title += ": " + v.Subtitle
	}
	r.writePlainHeader(title)

	field := func(label, value string) {
		if value != "" {
			r.writePlain("%-11s %s\n", label+":", value)
		}
	}
	field("ID", book.ID)
	field("Authors", formatter.Authors(book))
	field("Publisher", v.Publisher)
	field("Published", v.PublishedDate)
	if v.PageCount > 0 {
		field("Pages", fmt.Sprint(v.PageCount))
	}
	field("Categories", strings.Join(v.Categories, ", "))
	for _, ident := range v.IndustryIdentifiers {
		field(ident.Type, ident.Identifier)
	}
	field("Link", v.InfoLink)
	field("Shelf", loc.String())
	field("Read", book.ReadDate)
	field("Tags", strings.Join(book.Tags, ", "))
	field("Notes", book.Notes)

	if v.Description != "" {
		r.writePlainln("%s", v.Description)
	}
	return nil
}

// BookOpen opens the catalog page of a book.
func (r *Runner) BookOpen(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}

	book, _, err := r.lookupBook(ctx, id)
	if err != nil {
		return err
	}

	link := book.VolumeInfo.InfoLink
	if link == "" {
		link = "https://books.google.com/books?id=" + book.ID
	}

	if err := r.openURL(link); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		return r.writePlain("Open this URL in your browser:\n%s\n", link)
	}
	return r.writePlain("→ Opened %s\n", link)
}
