package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fsedit/internal/config"
	"github.com/vvka-141/fsedit/internal/editor"
	"github.com/vvka-141/fsedit/internal/logging"
	"github.com/vvka-141/fsedit/internal/store"
	"github.com/vvka-141/fsedit/internal/traversal"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// loadConfig builds the effective configuration.
//
// Precedence, lowest first: defaults, fsedit.yaml (or --config), .env files,
// FSEDIT_* environment variables, command-line flags.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFiles(); err != nil {
		return nil, err
	}

	var (
		cfg *config.Config
		err error
	)
	if globalFlags.configFile != "" {
		cfg, err = config.LoadFile(globalFlags.configFile)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("%s: %w: %w", globalFlags.configFile, fsedit.ErrInvalidConfig, err)
		}
	} else {
		cfg, err = config.Load(".")
		if errors.Is(err, config.ErrConfigNotFound) {
			err = nil
		}
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	applyGlobalFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyGlobalFlags overrides cfg with the flags that were given.
func applyGlobalFlags(cfg *config.Config) {
	if len(globalFlags.extensions) > 0 {
		cfg.Extensions = append([]string(nil), globalFlags.extensions...)
	}
	if globalFlags.maxDepth >= 0 {
		cfg.MaxDepth = globalFlags.maxDepth
	}
	if globalFlags.logFile != "" {
		cfg.LogFile = globalFlags.logFile
	}
	if globalFlags.backend != "" {
		cfg.Backend = globalFlags.backend
	}
}

// commandContext returns the command context cancelled on Ctrl+C or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// stderrLogger is the diagnostics channel of the non-interactive commands.
func stderrLogger(cmd *cobra.Command) fsedit.Logger {
	return logging.NewConsoleLogger(getVerboseFlag(cmd),
		logging.WithWriter(cmd.ErrOrStderr()),
		logging.WithComponent(cmd.Name()),
	)
}

// engines wires the store and both controllers over one provider.
type engines struct {
	store  *store.Store
	engine *traversal.Engine
	editor *editor.Controller
}

func newEngines(p fsedit.Provider, cfg *config.Config, logger fsedit.Logger) engines {
	s := store.New()
	return engines{
		store: s,
		engine: traversal.New(p, s,
			traversal.WithLogger(logger),
			traversal.WithMaxDepth(cfg.MaxDepth),
			traversal.WithConcurrency(cfg.Concurrency),
		),
		editor: editor.New(p, s,
			editor.WithLogger(logger),
			editor.WithExtensions(cfg.ExtensionSet()),
		),
	}
}
