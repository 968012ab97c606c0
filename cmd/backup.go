package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/bookshelf/internal/backup"
	"github.com/desertthunder/bookshelf/internal/formatter"
	"github.com/desertthunder/bookshelf/internal/shared"
	"github.com/desertthunder/bookshelf/internal/store"
)

// BackupExport writes the whole state to a JSON backup.
func (r *Runner) BackupExport(ctx context.Context, cmd *cli.Command) error {
	return r.withStore(ctx, func(st *store.Store) error {
		path, err := backup.WriteFile(st.Snapshot(), cmd.String("output"), r.now())
		if err != nil {
			return err
		}
		r.logger.Info("backup written", "path", path)
		return r.writePlain("✓ Backup saved to %s\n", path)
	})
}

// BackupImport replaces the state with a backup file after confirmation.
func (r *Runner) BackupImport(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "file")
	if err != nil {
		return err
	}

	if !cmd.Bool("yes") && !r.confirm("Importing replaces your library, wishlist, tags, authors and topics. Continue?") {
		return r.writePlain("Aborted\n")
	}

	return r.withStore(ctx, func(st *store.Store) error {
		doc, err := backup.ReadFile(path, st)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Imported %d library and %d wishlist books from %s\n", len(doc.Library), len(doc.Wishlist), path)
	})
}

// Export writes the library or wishlist as CSV, Markdown or text.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	which := strings.ToLower(strings.TrimSpace(cmd.String("list")))
	if which != "library" && which != "wishlist" {
		return fmt.Errorf("%w: --list must be library or wishlist, got %q", shared.ErrInvalidFlag, which)
	}

	return r.withStore(ctx, func(st *store.Store) error {
		snap := st.Snapshot()
		list := formatter.ReadingList{Name: "Library", Books: snap.Library}
		if which == "wishlist" {
			list = formatter.ReadingList{Name: "Wishlist", Books: snap.Wishlist}
		}

		output := cmd.String("output")
		if output == "-" {
			data, err := formatter.Export(list, format)
			if err != nil {
				return err
			}
			_, err = r.output.Write(data)
			return err
		}

		path, err := formatter.WriteExport(list, format, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d books to %s\n", len(list.Books), path)
	})
}
