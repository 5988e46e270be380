package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/vk/isobench/internal/config"
	"github.com/vk/isobench/internal/ctxlog"
	"github.com/vk/isobench/internal/publish"
	"github.com/vk/isobench/internal/results"
	"github.com/vk/isobench/internal/sweep"
)

// PublisherFactory opens the live record stream of a sweep.
type PublisherFactory func(ctx context.Context, cfg *config.Publish) (publish.Publisher, error)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	ctx        context.Context
	config     *Config
	model      *config.Model
	progress   *sweep.Progress
	store      atomic.Pointer[results.Store]
	httpServer *http.Server
	publisher  PublisherFactory
}

// NewApp loads the benchmark configuration through loader and returns a
// ready App with its own isolated logger.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.ConfigPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Workers > 0 {
		logger.Debug("Worker count overridden from the command line.", "workers", appConfig.Workers)
		model.Sweep.Workers = appConfig.Workers
	}
	logger.Debug("Configuration loaded and translated into unified model.",
		"families", len(model.Families), "solvers", len(model.Solvers))

	return &App{
		outW:      outW,
		logger:    logger,
		ctx:       ctx,
		config:    appConfig,
		model:     model,
		progress:  &sweep.Progress{},
		publisher: publish.New,
	}, nil
}

// Model returns the loaded benchmark configuration. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// Progress returns the live counters of the current sweep.
func (a *App) Progress() sweep.Snapshot {
	return a.progress.Snapshot()
}
