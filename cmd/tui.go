package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/bookshelf/internal/shared"
	"github.com/desertthunder/bookshelf/internal/store"
	"github.com/desertthunder/bookshelf/internal/tasks"
	"github.com/desertthunder/bookshelf/internal/ui"
)

// TUI launches the interactive terminal UI over the library, wishlist and recommendations.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Logs would corrupt the alternate screen, so they go to a file while the TUI runs.
	logPath := filepath.Join(os.TempDir(), "shelf-tui.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	previous := r.logger
	r.logger = shared.NewLogger(logFile)
	shared.SetLogLevel(r.logger, previous.GetLevel())
	defer func() { r.logger = previous }()

	return r.withStore(ctx, func(st *store.Store) error {
		recommender := tasks.NewRecommender(r.catalog, shared.WithLogger(r.logger, "task", "recommend"), r.config.Recommendations.Workers)
		model := ui.NewModel(ctx, st, recommender, ui.Options{Days: r.config.Recommendations.Days, Now: r.now})

		if err := ui.Run(ctx, model); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	})
}
