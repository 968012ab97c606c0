// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/store"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}
}

// userFieldFlags are the flags that edit the user-owned fields of a book.
func userFieldFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "notes",
			Usage: "Personal notes",
		},
		&cli.StringFlag{
			Name:  "read-date",
			Usage: "Date the book was read (YYYY-MM-DD)",
		},
		&cli.StringSliceFlag{
			Name:    "tag",
			Aliases: []string{"t"},
			Usage:   "Tag to apply; repeat for several tags",
		},
	}
}

func idArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "id"}}
}

// searchCommand queries the catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search the book catalog",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "by",
				Usage: "Restrict the query to title, author, publisher or category",
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Index of the first result",
			},
			&cli.BoolFlag{
				Name:  "newest",
				Usage: "Order by publication date instead of relevance",
			},
			jsonFlag(),
		},
		Action: r.Search,
	}
}

// bookCommand inspects a single book
func bookCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "book",
		Usage: "Show details of a single book",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print book details from your shelves or the catalog",
				Arguments: idArg(),
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.BookShow,
			},
			{
				Name:      "open",
				Usage:     "Open the catalog page of a book in the browser",
				Arguments: idArg(),
				Action:    r.BookOpen,
			},
		},
	}
}

// libraryCommand manages books already read
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Manage books you have read",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List library books",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.LibraryList,
			},
			{
				Name:      "add",
				Usage:     "Add a catalog book to the library",
				Arguments: idArg(),
				Flags:     userFieldFlags(),
				Action:    r.LibraryAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a book from the library",
				Arguments: idArg(),
				Action:    r.LibraryRemove,
			},
			{
				Name:      "update",
				Usage:     "Edit notes, read date or tags of a library book",
				Arguments: idArg(),
				Flags:     userFieldFlags(),
				Action:    r.LibraryUpdate,
			},
		},
	}
}

// wishlistCommand manages books to read
func wishlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "wishlist",
		Aliases: []string{"wish"},
		Usage:   "Manage books you want to read",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List wishlist books",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.WishlistList,
			},
			{
				Name:      "add",
				Usage:     "Add a catalog book to the wishlist",
				Arguments: idArg(),
				Action:    r.WishlistAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a book from the wishlist",
				Arguments: idArg(),
				Action:    r.WishlistRemove,
			},
			{
				Name:      "move",
				Aliases:   []string{"read"},
				Usage:     "Mark a wishlist book as read and move it to the library",
				Arguments: idArg(),
				Flags:     userFieldFlags(),
				Action:    r.WishlistMove,
			},
		},
	}
}

// setCommand builds list/add/remove subcommands for one of the string sets in the state.
func setCommand(r *Runner, name, usage string, aliases []string, set stringSet) *cli.Command {
	return &cli.Command{
		Name:    name,
		Aliases: aliases,
		Usage:   usage,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List " + set.plural,
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.SetList(set),
			},
			{
				Name:      "add",
				Usage:     "Add a " + set.singular,
				Arguments: []cli.Argument{&cli.StringArg{Name: "value"}},
				Action:    r.SetAdd(set),
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a " + set.singular,
				Arguments: []cli.Argument{&cli.StringArg{Name: "value"}},
				Action:    r.SetRemove(set),
			},
		},
	}
}

var (
	tagSet = stringSet{
		singular: "tag",
		plural:   "tags",
		values:   func(st models.State) []string { return st.Tags },
		add:      (*store.Store).AddTag,
		remove:   (*store.Store).RemoveTag,
	}
	followSet = stringSet{
		singular: "followed author",
		plural:   "followed authors",
		values:   func(st models.State) []string { return st.Following },
		add:      (*store.Store).FollowAuthor,
		remove:   (*store.Store).UnfollowAuthor,
	}
	topicSet = stringSet{
		singular: "topic",
		plural:   "topics",
		values:   func(st models.State) []string { return st.Topics },
		add:      (*store.Store).AddTopic,
		remove:   (*store.Store).RemoveTopic,
	}
)

func tagsCommand(r *Runner) *cli.Command {
	return setCommand(r, "tags", "Manage the tag pool", []string{"tag"}, tagSet)
}

func followCommand(r *Runner) *cli.Command {
	return setCommand(r, "follow", "Manage followed authors", []string{"authors"}, followSet)
}

func topicsCommand(r *Runner) *cli.Command {
	return setCommand(r, "topics", "Manage followed topics", []string{"topic"}, topicSet)
}

// profileCommand manages author profile links
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show or edit author profile links",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show the links saved for an author",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ProfileShow,
			},
			{
				Name:      "set",
				Usage:     "Set links for an author; only given flags change",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "rss", Usage: "RSS or Atom feed URL"},
					&cli.StringFlag{Name: "blog", Usage: "Blog URL"},
					&cli.StringFlag{Name: "podcast", Usage: "Podcast URL"},
					&cli.StringFlag{Name: "linkedin", Usage: "LinkedIn URL"},
					&cli.StringFlag{Name: "substack", Usage: "Substack URL"},
					&cli.StringFlag{Name: "x", Usage: "X (Twitter) URL"},
				},
				Action: r.ProfileSet,
			},
		},
	}
}

// recommendCommand lists recent releases
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"recs"},
		Usage:   "Recent releases by followed authors and topics",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "days",
				Usage: "Only include books published within this many days (default from config)",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Page to show, starting at 1",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "page-size",
				Usage: "Books per page (default from config)",
			},
			jsonFlag(),
		},
		Action: r.Recommend,
	}
}

// feedCommand shows the latest posts of followed authors
func feedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "Latest posts from the RSS feeds of followed authors",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "per-author",
				Usage: "Posts kept per author (default from config)",
			},
			jsonFlag(),
		},
		Action: r.Feed,
	}
}

// backupCommand exports and restores the whole state
func backupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Export or restore a full backup",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write a JSON backup (bookshelf-backup-YYYY-MM-DD.json by default)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.BackupExport,
			},
			{
				Name:      "import",
				Usage:     "Replace library, wishlist, tags, authors and topics with a backup",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.BackupImport,
			},
		},
	}
}

func resetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "reset",
		Usage:  "Delete everything and restore the defaults",
		Flags:  []cli.Flag{yesFlag()},
		Action: r.Reset,
	}
}

// exportCommand writes a reading list
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the library or wishlist as CSV, Markdown or text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "list",
				Usage: "library or wishlist",
				Value: "library",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "csv, markdown or txt",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path, or - for stdout",
			},
		},
		Action: r.Export,
	}
}

// apiCommand handles direct calls to the persistence server
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the persistence server",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// serveCommand runs the persistence server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve /api/data and /api/rss over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default from config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default from config)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the example configuration to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the SQLite database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Action:  r.TUI,
	}
}
