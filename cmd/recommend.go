package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/bookshelf/internal/formatter"
	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
	"github.com/desertthunder/bookshelf/internal/store"
	"github.com/desertthunder/bookshelf/internal/tasks"
)

// drainProgress logs updates until progress is closed.
func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	for update := range progress {
		r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
	}
	close(done)
}

// Recommend prints recent releases by followed authors and topics.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Recommendations
	days := cmd.Int("days")
	if days <= 0 {
		days = cfg.Days
	}
	size := cmd.Int("page-size")
	if size <= 0 {
		size = cfg.PageSize
	}
	page := max(cmd.Int("page"), 1)

	var req tasks.RecommendationRequest
	if err := r.withStore(ctx, func(st *store.Store) error {
		snap := st.Snapshot()
		req = tasks.RecommendationRequest{
			Authors:       snap.Following,
			Topics:        snap.Topics,
			ExcludeTitles: st.LibraryTitles(),
			DaysAgo:       days,
			Now:           r.now(),
		}
		return nil
	}); err != nil {
		return err
	}

	if len(req.Authors) == 0 && len(req.Topics) == 0 {
		if cmd.Bool("json") {
			return r.writeJSON([]models.Book{}, true)
		}
		return r.writePlain("Follow an author or a topic to get recommendations (shelf follow add, shelf topics add)\n")
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	recommender := tasks.NewRecommender(r.catalog, shared.WithLogger(r.logger, "task", "recommend"), cfg.Workers)
	start := time.Now()
	books, err := recommender.Recommend(ctx, req, progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("recommendations failed: %w", err)
	}
	r.logger.Info("recommendations ready", "count", len(books), "duration", time.Since(start))

	pages := tasks.PageCount(len(books), size)
	paged := tasks.Page(books, page, size)

	if cmd.Bool("json") {
		return r.writeJSON(paged, true)
	}
	if len(books) == 0 {
		return r.writePlain("No new books in the last %d days\n", days)
	}
	if len(paged) == 0 {
		return r.writePlain("Page %d is empty; there are %d pages\n", page, pages)
	}

	r.writePlain("%s\n", formatter.Table(paged))
	return r.writePlain("Page %d of %d (%d books from the last %d days)\n", page, pages, len(books), days)
}

// Feed prints the latest posts of followed authors that have an RSS link.
func (r *Runner) Feed(ctx context.Context, cmd *cli.Command) error {
	perAuthor := cmd.Int("per-author")
	if perAuthor <= 0 {
		perAuthor = r.config.Feeds.ItemsPerAuthor
	}

	var req tasks.FeedRequest
	if err := r.withStore(ctx, func(st *store.Store) error {
		snap := st.Snapshot()
		req = tasks.FeedRequest{
			Authors:   snap.Following,
			Profiles:  snap.AuthorProfiles,
			PerAuthor: perAuthor,
			Now:       r.now(),
		}
		return nil
	}); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	feed := tasks.NewAuthorFeed(r.feeds, shared.WithLogger(r.logger, "task", "feed"), r.config.Recommendations.Workers)
	posts, err := feed.Fetch(ctx, req, progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("feed failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(posts, true)
	}
	if len(posts) == 0 {
		return r.writePlain("No posts. Add an RSS link with: shelf profile set <author> --rss <url>\n")
	}

	for _, p := range posts {
		r.writePlain("%s  %s  %s\n", p.SortTime.Format("2006-01-02"), p.Author, p.Title)
		if p.Link != "" {
			r.writePlain("    %s\n", p.Link)
		}
	}
	return nil
}
