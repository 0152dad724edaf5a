// Package cli wires configuration, storage and the UI into the todo command.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tadasync/internal/auth"
	"github.com/Makepad-fr/tadasync/internal/config"
	"github.com/Makepad-fr/tadasync/internal/logging"
	"github.com/Makepad-fr/tadasync/internal/store"
	"github.com/Makepad-fr/tadasync/internal/store/httpstore"
	"github.com/Makepad-fr/tadasync/internal/store/jsonstore"
	"github.com/Makepad-fr/tadasync/internal/store/memstore"
	"github.com/Makepad-fr/tadasync/internal/store/sqlitestore"
	"github.com/Makepad-fr/tadasync/internal/todolist"
	"github.com/Makepad-fr/tadasync/internal/ui"
)

// App is the state shared by every subcommand.
type App struct {
	Config *config.Config

	// Flag values; empty means "keep what config resolved".
	ConfigFile string
	Backend    string
	Collection string
	DataDir    string
	URL        string
	Theme      string
	LogLevel   string
	LogFormat  string
	Verbose    bool

	sources config.Sources
	coll    store.Collection // injected, used instead of the configured backend
	runTUI  func(ctx context.Context, board *todolist.Board, logger *log.Logger) error
}

// Option adjusts an App before it runs.
type Option func(*App)

// WithConfigSources replaces where configuration is read from.
func WithConfigSources(src config.Sources) Option {
	return func(a *App) { a.sources = src }
}

// WithCollection makes every command use coll instead of opening the
// configured backend.
func WithCollection(coll store.Collection) Option {
	return func(a *App) { a.coll = coll }
}

// Execute runs the todo command with args and returns the exit status.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...Option) int {
	cmd := NewRootCmd(opts...)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		ui.Fail(stderr, err.Error())
	}
	return ExitCode(err)
}

func NewRootCmd(opts ...Option) *cobra.Command {
	app := &App{runTUI: runTUI}
	for _, o := range opts {
		o(app)
	}

	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "A to-do list kept in a document collection",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive list
  todo

  # Scriptable commands
  todo add Buy milk
  todo ls --group
  todo done 3f2a

  # Share the local list over HTTP
  todo serve --addr 127.0.0.1:8707
`),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q (run `todo --help`)", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.interactive(cmd)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.resolveConfig()
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError{err: err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigFile, "config", "", "Config file (default: tada.toml in the working directory)")
	pf.StringVar(&app.Backend, "backend", "", "Storage backend (sqlite|json|memory|http)")
	pf.StringVar(&app.Collection, "collection", "", "Collection name")
	pf.StringVar(&app.DataDir, "data-dir", "", "Directory for local data, credentials and logs")
	pf.StringVar(&app.URL, "url", "", "Server URL for the http backend")
	pf.StringVar(&app.Theme, "theme", "", "Output theme (classic|neon|mono)")
	pf.StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	pf.StringVar(&app.LogFormat, "log-format", "", "Log format (text|json|logfmt)")
	pf.BoolVarP(&app.Verbose, "verbose", "v", false, "Log to stderr at the configured level")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newDoneCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

func (a *App) resolveConfig() error {
	src := a.sources
	if a.ConfigFile != "" {
		src.ProjectFile = a.ConfigFile
	}
	cfg, err := config.LoadFrom(src)
	if err != nil {
		return usageError{err: err}
	}

	if a.Backend != "" {
		cfg.Backend = a.Backend
	}
	if a.Collection != "" {
		cfg.Collection = a.Collection
	}
	if a.DataDir != "" {
		cfg.DataDir = a.DataDir
	}
	if a.URL != "" {
		cfg.URL = a.URL
	}
	if a.Theme != "" {
		cfg.Theme = a.Theme
	}
	if a.LogLevel != "" {
		cfg.LogLevel = a.LogLevel
	}
	if a.LogFormat != "" {
		cfg.LogFormat = a.LogFormat
	}
	if err := cfg.Finalize(); err != nil {
		return usageError{err: err}
	}

	ui.SetTheme(cfg.Theme)
	a.Config = cfg
	return nil
}

// stderrLogger logs for one-shot commands. Below warn it stays quiet unless
// --verbose was given, so scripted output is not interleaved with info lines.
func (a *App) stderrLogger(cmd *cobra.Command) *log.Logger {
	opts := logging.Options{
		Level:  a.Config.LogLevel,
		Format: a.Config.LogFormat,
		Prefix: "todo",
	}
	l := logging.New(cmd.ErrOrStderr(), opts)
	if !a.Verbose && l.GetLevel() < log.WarnLevel {
		l.SetLevel(log.WarnLevel)
	}
	return l
}

func (a *App) creds() *auth.Creds {
	return auth.New(a.Config.DataDir)
}

// openCollection returns the configured backend. The caller closes it with
// store.Close.
func (a *App) openCollection(ctx context.Context) (store.Collection, error) {
	if a.coll != nil {
		return a.coll, nil
	}
	cfg := a.Config
	switch cfg.Backend {
	case config.BackendSQLite:
		return sqlitestore.Open(ctx, filepath.Join(cfg.DataDir, sqlitestore.FileName), cfg.Collection)
	case config.BackendJSON:
		return jsonstore.New(cfg.DataDir, cfg.Collection)
	case config.BackendMemory:
		return memstore.New(), nil
	case config.BackendHTTP:
		token, err := a.creds().Token()
		if err != nil {
			return nil, err
		}
		return httpstore.NewClient(cfg.URL, cfg.Collection, httpstore.WithBearer(token))
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// withBoard opens the collection, builds a board over it and runs fn.
// The board is loaded first when load is set.
func (a *App) withBoard(cmd *cobra.Command, logger *log.Logger, load bool, fn func(*todolist.Board) error) error {
	ctx := cmd.Context()
	coll, err := a.openCollection(ctx)
	if err != nil {
		return fmt.Errorf("open %s collection: %w", a.Config.Backend, err)
	}
	defer func() {
		if err := store.Close(coll); err != nil {
			logger.Warn("close collection", "err", err)
		}
	}()

	board := todolist.New(coll,
		todolist.WithLogger(logger),
		todolist.WithContext(ctx),
		todolist.WithWriteTimeout(a.Config.WriteTimeout),
	)
	if load {
		if err := board.Load(ctx); err != nil {
			return err
		}
	}
	err = fn(board)

	// Writes sent from the TUI may still be in flight after it quits.
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.WriteTimeout)
	defer cancel()
	if ferr := board.Flush(flushCtx); ferr != nil {
		logger.Warn("pending writes did not finish", "err", ferr)
	}
	return err
}

func (a *App) interactive(cmd *cobra.Command) error {
	flog, err := logging.OpenFile(a.Config.LogPath(), logging.Options{
		Level:  a.Config.LogLevel,
		Format: a.Config.LogFormat,
		Prefix: "todo",
	})
	if err != nil {
		return err
	}
	defer flog.Close()

	return a.withBoard(cmd, flog.Logger, false, func(board *todolist.Board) error {
		return a.runTUI(cmd.Context(), board, flog.Logger)
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
