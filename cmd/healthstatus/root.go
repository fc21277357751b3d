// ABOUTME: Root Cobra command for the healthstatus CLI.
// ABOUTME: Builds config, logger, storage, services and the CLI session in PersistentPre/PostRunE.
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/healthstatus/internal/auth"
	"github.com/harperreed/healthstatus/internal/config"
	"github.com/harperreed/healthstatus/internal/dashboard"
	"github.com/harperreed/healthstatus/internal/logging"
	"github.com/harperreed/healthstatus/internal/metrics"
	"github.com/harperreed/healthstatus/internal/registry"
	"github.com/harperreed/healthstatus/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg      *config.Config
	store    storage.Store
	logger   *zap.Logger
	session  *auth.Session
	provider *auth.Provider
	dash     *dashboard.Service

	unsubscribeSession func()

	backendFlag string
	dataDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "healthstatus",
	Short: "Personal health status tracker",
	Long: `Healthstatus tracks readings for health status types and classifies each
reading as normal, elevated or high against the type's thresholds.

BUILT-IN STATUS TYPES:

  blood-pressure   Normal (<120), Elevated (120-129), High (>130)
  sleep-quality    Poor (<7), Good (7-8), Excellent (>8)

QUICK START:

  $ healthstatus auth signup --email you@example.com
  $ healthstatus add blood-pressure 118              # Log today's reading
  $ healthstatus add sleep-quality 7.5 --date 2024-03-10
  $ healthstatus dashboard blood-pressure            # 30-day distribution
  $ healthstatus chart blood-pressure --kind line -o bp.png

CUSTOM STATUS TYPES:

  $ healthstatus status add "Resting Heart Rate" --normal 60 --elevated 80 --high 100 \
      --normal-label Athletic --elevated-label Typical --high-label High
  $ healthstatus status import types.yaml

SERVERS:

  $ healthstatus serve      # JSON API over HTTP
  $ healthstatus mcp        # Model Context Protocol server on stdio

STORAGE:

  SQLite at ~/.local/share/healthstatus by default. Set "backend" to "mongo"
  or "charm" in ~/.config/healthstatus/config.json (or HEALTHSTATUS_BACKEND).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for commands that don't need it
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}
		return setup(cmd.Context(), cmd.Name())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown()
	},
}

// setup loads config and wires the services every command uses.
func setup(ctx context.Context, cmdName string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}

	// Interactive commands stay quiet unless asked.
	level := cfg.GetLogLevel()
	if cfg.LogLevel == "" && cmdName != "serve" {
		level = "warn"
	}
	logger, err = logging.New(level, cfg.GetLogFormat())
	if err != nil {
		return err
	}

	store, err = cfg.OpenStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	var opts []auth.Option
	if cfg.BcryptCost > 0 {
		opts = append(opts, auth.WithBcryptCost(cfg.BcryptCost))
	}
	provider = auth.NewProvider(store, logger, opts...)
	dash = dashboard.New(registry.New(store, logger), metrics.New(store, logger))

	session = auth.NewSession()
	if err := restoreSession(ctx); err != nil {
		return err
	}
	unsubscribeSession = session.Subscribe(persistSession)
	return nil
}

func teardown() error {
	if unsubscribeSession != nil {
		unsubscribeSession()
		unsubscribeSession = nil
	}
	var err error
	if store != nil {
		err = store.Close()
		store = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
	return err
}

// restoreSession signs the CLI session back in from session.json.
func restoreSession(ctx context.Context) error {
	saved, err := config.LoadSession()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if saved == nil {
		return nil
	}
	u, err := provider.Lookup(ctx, saved.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrNotSignedIn) {
			return config.ClearSession()
		}
		return err
	}
	session.Restore(u)
	return nil
}

// persistSession mirrors sign-in and sign-out to session.json.
func persistSession(u *auth.User) {
	var err error
	if u == nil {
		err = config.ClearSession()
	} else {
		err = config.SaveSession(config.SavedSession{UserID: u.ID, Email: u.Email})
	}
	if err != nil {
		logger.Warn("failed to persist session", zap.Error(err))
	}
}

// currentUserID returns the signed-in user's id.
func currentUserID() (string, error) {
	id, err := session.UserID()
	if err != nil {
		return "", fmt.Errorf("%w (run 'healthstatus auth login')", err)
	}
	return id, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend (sqlite, mongo, charm)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory for the sqlite backend")
}
