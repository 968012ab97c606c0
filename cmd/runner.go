package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/bookshelf/internal/persistence"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
	"github.com/desertthunder/bookshelf/internal/store"
	"github.com/desertthunder/bookshelf/internal/tasks"
)

const (
	defaultConfigPath = "config.toml"
	envFile           = ".env"
	closeTimeout      = 30 * time.Second
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	opts       RunnerOpts
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	api        *services.APIService
	feeds      tasks.FeedFetcher
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	now        func() time.Time
	openURL    func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Services left nil are built from the config; a nil Gateway is opened from the storage section on demand.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	API        *services.APIService
	Feeds      tasks.FeedFetcher
	Gateway    persistence.Gateway
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Now        func() time.Time
	OpenURL    func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	r := &Runner{
		opts:       opts,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		now:        opts.Now,
		openURL:    opts.OpenURL,
	}

	config := opts.Config
	if config == nil {
		config = shared.DefaultConfig()
	}
	r.setConfig(config)
	return r
}

// setConfig installs config and rebuilds every service that was not injected.
func (r *Runner) setConfig(config *shared.Config) {
	r.config = config
	shared.SetLogLevel(r.logger, shared.ParseLevel(config.Log.Level))

	r.catalog = r.opts.Catalog
	if r.catalog == nil {
		opts := services.BooksOptionsFromConfig(config.Catalog)
		opts.Logger = shared.WithLogger(r.logger, "service", "catalog")
		r.catalog = services.NewBooksService(opts)
	}

	r.api = r.opts.API
	if r.api == nil {
		r.api = services.NewAPIService(config.Storage.URL, r.httpClient)
	}

	r.feeds = r.opts.Feeds
	if r.feeds == nil {
		r.feeds = services.NewFeedService(config.Feeds.RelayURL, r.httpClient)
	}
}

// Configure is the root Before hook. It loads --config (when present), applies .env and
// SHELF_* overrides, and rewires the services.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.opts.Config != nil && !cmd.IsSet("config") {
		return ctx, nil
	}

	path := cmd.String("config")
	r.configPath = path

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		config = loaded
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	config.ApplyEnv(envFile)
	r.setConfig(config)
	r.logger.Debug("configuration loaded", "path", path, "backend", config.Storage.Backend)
	return ctx, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		searchCommand, bookCommand, libraryCommand, wishlistCommand,
		tagsCommand, followCommand, topicsCommand, profileCommand,
		recommendCommand, feedCommand, backupCommand, resetCommand, exportCommand,
		apiCommand, serveCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "shelf",
		Usage:   "Track the books you read, want to read and might like next",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
			},
		},
		Before:   r.Configure,
		Writer:   r.output,
		Commands: r.register(),
	}
}

// openStore opens the configured gateway and loads the state.
//
// The returned close function flushes pending saves and releases the gateway.
func (r *Runner) openStore(ctx context.Context) (*store.Store, func() error, error) {
	gateway := r.opts.Gateway
	release := func() error { return nil }

	if gateway == nil {
		gw, closeFn, err := persistence.Open(r.config.Storage)
		if err != nil {
			return nil, nil, err
		}
		gateway, release = gw, closeFn
	}

	st := store.New(gateway, store.Options{Logger: shared.WithLogger(r.logger, "backend", gateway.Name())})
	st.Load(ctx)

	closeFn := func() error {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			r.logger.Warn("pending changes may not have been saved", "error", err)
		}
		if err := st.LastSaveError(); err != nil {
			r.logger.Warn("failed to save changes; they were kept in memory only", "error", err)
		}
		return release()
	}
	return st, closeFn, nil
}

// withStore runs fn against a freshly loaded store and closes it afterwards.
func (r *Runner) withStore(ctx context.Context, fn func(*store.Store) error) error {
	st, closeFn, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	fnErr := fn(st)
	if err := closeFn(); err != nil {
		r.logger.Warn("failed to close storage", "error", err)
	}
	return fnErr
}

// confirm asks a yes/no question on the runner's input. Anything but y/yes is a no.
func (r *Runner) confirm(prompt string) bool {
	r.writePlain("%s [y/N] ", prompt)
	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
