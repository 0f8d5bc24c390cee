package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/decstore/internal/codec"
	"github.com/roach88/decstore/internal/config"
	"github.com/roach88/decstore/internal/engine"
	"github.com/roach88/decstore/internal/pipeline"
	"github.com/roach88/decstore/internal/store"
)

// loadConfig resolves the configuration. Command-line flags win over the
// config file and the environment; --verbose forces debug logging.
func loadConfig(opts *RootOptions) (config.Config, error) {
	overrides := map[string]any{}
	if opts.DB != "" {
		overrides[config.KeyDB] = opts.DB
	}
	if opts.Verbose {
		overrides[config.KeyLogLevel] = "debug"
	}
	return config.Load(config.Options{File: opts.Config, Overrides: overrides})
}

// newCodec builds the codec described by the configuration.
func newCodec(opts *RootOptions) (*codec.Codec, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return codec.New(cfg.Codec)
}

// session is an engine over an open database.
type session struct {
	engine *engine.Engine
	store  *store.Store
	logger *slog.Logger
	path   string
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// openSession opens the configured database and resumes an engine over it.
// Logs are written to the command's stderr.
func openSession(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger, err := config.NewLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create logger", err)
	}

	c, err := codec.New(cfg.Codec)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create codec", err)
	}

	logger.Debug("opening database", "path", cfg.DB)
	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	eng, err := engine.Open(ctx, st, pipeline.New(c), engine.WithLogger(logger))
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open engine", err)
	}

	return &session{engine: eng, store: st, logger: logger, path: cfg.DB}, nil
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
