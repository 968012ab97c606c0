package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/bookshelf/internal/persistence"
	"github.com/desertthunder/bookshelf/internal/server"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// serverGateway opens the gateway the server stores the document in. A remote backend would point the server at itself.
func (r *Runner) serverGateway() (persistence.Gateway, func() error, error) {
	if r.opts.Gateway != nil {
		return r.opts.Gateway, func() error { return nil }, nil
	}
	if r.config.Storage.Backend == persistence.BackendRemote {
		return nil, nil, fmt.Errorf("%w: serve needs a file or sqlite storage backend", shared.ErrInvalidConfig)
	}
	return persistence.Open(r.config.Storage)
}

// Serve runs the persistence server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	gateway, release, err := r.serverGateway()
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			r.logger.Warn("failed to close storage", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	feeds := services.NewFeedService("", r.httpClient)
	srv := server.New(cfg, gateway, feeds, shared.WithLogger(r.logger, "component", "server"))

	r.logger.Info("starting persistence server", "addr", srv.Addr(), "backend", gateway.Name())
	return srv.Start(ctx)
}
