package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"askdb/internal/api"
	"askdb/internal/config"
	"askdb/internal/controller"
	"askdb/internal/history"
	"askdb/internal/logging"
	"askdb/internal/settings"
	"askdb/internal/store"
)

// env is everything a command needs, built from the loaded config
type env struct {
	cfg      *config.Config
	log      zerolog.Logger
	closeLog func() error
	store    store.Store
	client   *api.Client
	repo     *settings.Repository
	book     *history.Book
}

// openEnv wires logging, storage and the API client. logFile may be empty,
// in which case logs go to console.
func openEnv(ctx context.Context, cfg *config.Config, logFile string, console io.Writer) (*env, error) {
	log, closeLog, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    logFile,
		Console: console,
	})
	if err != nil {
		return nil, err
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	log.Debug().Str("storage", cfg.Storage).Msg("storage opened")

	return &env{
		cfg:      cfg,
		log:      log,
		closeLog: closeLog,
		store:    s,
		client:   api.New(cfg.Endpoint, http.DefaultClient, log),
		repo:     settings.NewRepository(s, log),
		book:     history.NewBook(s, cfg.HistoryLimit),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Storage {
	case "redis":
		s, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		return s, nil
	case "file", "":
		s, err := store.NewFileStore(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("open storage file: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

func (e *env) controller(view controller.View) *controller.Controller {
	return controller.New(e.client, e.repo, e.book, view, e.log)
}

// Close releases storage and the log file
func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn().Err(err).Msg("closing storage")
	}
	_ = e.closeLog()
}

// commandEnv opens an env for a non-interactive command; logs go to stderr
// unless log_file is set
func commandEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := configFrom(cmd)
	if err != nil {
		return nil, err
	}
	return openEnv(cmd.Context(), cfg, cfg.LogFile, cmd.ErrOrStderr())
}
