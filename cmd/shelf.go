package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/bookshelf/internal/formatter"
	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
	"github.com/desertthunder/bookshelf/internal/store"
)

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// bookUpdate collects the user-field flags that were actually given.
func bookUpdate(cmd *cli.Command) (models.BookUpdate, error) {
	var u models.BookUpdate
	if cmd.IsSet("notes") {
		notes := cmd.String("notes")
		u.Notes = &notes
	}
	if cmd.IsSet("read-date") {
		date := strings.TrimSpace(cmd.String("read-date"))
		if date != "" {
			if _, ok := models.ParseDate(date); !ok {
				return u, fmt.Errorf("%w: read-date %q is not a date", shared.ErrInvalidFlag, date)
			}
		}
		u.ReadDate = &date
	}
	if cmd.IsSet("tag") {
		tags := []string{}
		for _, t := range cmd.StringSlice("tag") {
			if t = strings.TrimSpace(t); t != "" && !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
		u.Tags = &tags
	}
	return u, nil
}

func (r *Runner) listBooks(name string, books []models.Book, asJSON bool) error {
	if asJSON {
		return r.writeJSON(books, true)
	}
	if len(books) == 0 {
		return r.writePlain("Your %s is empty\n", strings.ToLower(name))
	}
	r.writePlain("%s (%d)\n", name, len(books))
	return r.writePlain("%s\n", formatter.Table(books))
}

// LibraryList prints the library.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	return r.withStore(ctx, func(st *store.Store) error {
		return r.listBooks("Library", st.Snapshot().Library, cmd.Bool("json"))
	})
}

// LibraryAdd fetches a book from the catalog and adds it to the library. A wishlisted book is moved.
func (r *Runner) LibraryAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	update, err := bookUpdate(cmd)
	if err != nil {
		return err
	}

	book, err := r.catalog.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch book %s: %w", id, err)
	}

	return r.withStore(ctx, func(st *store.Store) error {
		switch _, loc := st.Book(id); loc {
		case store.InLibrary:
			return r.writePlain("%q is already in your library\n", book.Title())
		case store.InWishlist:
			st.MoveToLibrary(id, update)
			return r.writePlain("✓ Moved %q from your wishlist to your library\n", book.Title())
		}
		st.AddToLibrary(update.Apply(*book))
		return r.writePlain("✓ Added %q to your library\n", book.Title())
	})
}

// LibraryRemove removes a book from the library.
func (r *Runner) LibraryRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	return r.withStore(ctx, func(st *store.Store) error {
		book, loc := st.Book(id)
		if loc != store.InLibrary {
			return fmt.Errorf("%w: %s is not in your library", shared.ErrBookNotFound, id)
		}
		st.RemoveFromLibrary(id)
		return r.writePlain("✓ Removed %q from your library\n", book.Title())
	})
}

// LibraryUpdate edits the user fields of a library book.
func (r *Runner) LibraryUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	update, err := bookUpdate(cmd)
	if err != nil {
		return err
	}
	if update.IsEmpty() {
		return fmt.Errorf("%w: give at least one of --notes, --read-date or --tag", shared.ErrMissingArgument)
	}

	return r.withStore(ctx, func(st *store.Store) error {
		book, loc := st.Book(id)
		if loc != store.InLibrary {
			return fmt.Errorf("%w: %s is not in your library", shared.ErrBookNotFound, id)
		}
		st.UpdateBook(id, update)
		return r.writePlain("✓ Updated %q\n", book.Title())
	})
}

// WishlistList prints the wishlist.
func (r *Runner) WishlistList(ctx context.Context, cmd *cli.Command) error {
	return r.withStore(ctx, func(st *store.Store) error {
		return r.listBooks("Wishlist", st.Snapshot().Wishlist, cmd.Bool("json"))
	})
}

// WishlistAdd fetches a book from the catalog and adds it to the wishlist.
func (r *Runner) WishlistAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	book, err := r.catalog.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch book %s: %w", id, err)
	}

	return r.withStore(ctx, func(st *store.Store) error {
		switch _, loc := st.Book(id); loc {
		case store.InLibrary:
			return r.writePlain("%q is already in your library\n", book.Title())
		case store.InWishlist:
			return r.writePlain("%q is already on your wishlist\n", book.Title())
		}
		st.AddToWishlist(*book)
		return r.writePlain("✓ Added %q to your wishlist\n", book.Title())
	})
}

// WishlistRemove removes a book from the wishlist.
func (r *Runner) WishlistRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	return r.withStore(ctx, func(st *store.Store) error {
		book, loc := st.Book(id)
		if loc != store.InWishlist {
			return fmt.Errorf("%w: %s is not on your wishlist", shared.ErrBookNotFound, id)
		}
		st.RemoveFromWishlist(id)
		return r.writePlain("✓ Removed %q from your wishlist\n", book.Title())
	})
}

// WishlistMove marks a wishlist book as read. The read date defaults to today.
func (r *Runner) WishlistMove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	update, err := bookUpdate(cmd)
	if err != nil {
		return err
	}
	if update.ReadDate == nil {
		today := r.now().Format("2006-01-02")
		update.ReadDate = &today
	}

	return r.withStore(ctx, func(st *store.Store) error {
		book, loc := st.Book(id)
		if loc != store.InWishlist {
			return fmt.Errorf("%w: %s is not on your wishlist", shared.ErrBookNotFound, id)
		}
		st.MoveToLibrary(id, update)
		return r.writePlain("✓ Moved %q to your library (read %s)\n", book.Title(), *update.ReadDate)
	})
}

// stringSet describes one of the ordered string sets in the state.
type stringSet struct {
	singular string
	plural   string
	values   func(models.State) []string
	add      func(*store.Store, string) models.State
	remove   func(*store.Store, string) models.State
}

// SetList prints the values of set.
func (r *Runner) SetList(set stringSet) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		return r.withStore(ctx, func(st *store.Store) error {
			values := set.values(st.Snapshot())
			if cmd.Bool("json") {
				return r.writeJSON(values, true)
			}
			if len(values) == 0 {
				return r.writePlain("No %s yet\n", set.plural)
			}
			for _, v := range values {
				r.writePlain("• %s\n", v)
			}
			return nil
		})
	}
}

// SetAdd adds a value to set. Adding a present value is a no-op.
func (r *Runner) SetAdd(set stringSet) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		value, err := requireArg(cmd, "value")
		if err != nil {
			return err
		}
		return r.withStore(ctx, func(st *store.Store) error {
			if slices.Contains(set.values(st.Snapshot()), value) {
				return r.writePlain("%q is already in your %s\n", value, set.plural)
			}
			set.add(st, value)
			return r.writePlain("✓ Added %s %q\n", set.singular, value)
		})
	}
}

// SetRemove removes a value from set. Removing an absent value is a no-op.
func (r *Runner) SetRemove(set stringSet) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		value, err := requireArg(cmd, "value")
		if err != nil {
			return err
		}
		return r.withStore(ctx, func(st *store.Store) error {
			if !slices.Contains(set.values(st.Snapshot()), value) {
				return r.writePlain("%q is not in your %s\n", value, set.plural)
			}
			set.remove(st, value)
			return r.writePlain("✓ Removed %s %q\n", set.singular, value)
		})
	}
}

// ProfileShow prints the links saved for an author.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	return r.withStore(ctx, func(st *store.Store) error {
		profile, ok := st.Profile(name)
		if cmd.Bool("json") {
			return r.writeJSON(profile, true)
		}
		if !ok {
			return r.writePlain("No profile saved for %s\n", name)
		}

		r.writePlainHeader(name)
		for _, link := range []struct{ label, value string }{
			{"RSS", profile.RSS},
			{"Blog", profile.Blog},
			{"Podcast", profile.Podcast},
			{"LinkedIn", profile.LinkedIn},
			{"Substack", profile.Substack},
			{"X", profile.X},
		} {
			if link.value != "" {
				r.writePlain("%-9s %s\n", link.label+":", link.value)
			}
		}
		return nil
	})
}

// ProfileSet updates the links given as flags.
func (r *Runner) ProfileSet(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	var update models.ProfileUpdate
	set := func(dst **string, flag string) {
		if cmd.IsSet(flag) {
			v := strings.TrimSpace(cmd.String(flag))
			*dst = &v
		}
	}
	set(&update.RSS, "rss")
	set(&update.Blog, "blog")
	set(&update.Podcast, "podcast")
	set(&update.LinkedIn, "linkedin")
	set(&update.Substack, "substack")
	set(&update.X, "x")

	if update == (models.ProfileUpdate{}) {
		return fmt.Errorf("%w: give at least one link flag", shared.ErrMissingArgument)
	}

	return r.withStore(ctx, func(st *store.Store) error {
		st.UpdateAuthorProfile(name, update)
		return r.writePlain("✓ Updated profile for %s\n", name)
	})
}

// Reset restores the default state after confirmation.
func (r *Runner) Reset(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") && !r.confirm("This deletes your library, wishlist, tags, authors, topics and profiles. Continue?") {
		return r.writePlain("Aborted\n")
	}
	return r.withStore(ctx, func(st *store.Store) error {
		st.Reset()
		return r.writePlain("✓ Everything was reset to the defaults\n")
	})
}
