package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/metrics"
	"github.com/vk/nodeflow/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle: a logger, a populated node registry, and (once Run starts) a
// metrics recorder and server.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config

	metricsRecorder *metrics.Recorder
	metricsServer   *metrics.Server
}

// NewApp is the constructor for the main application. It builds an
// isolated logger, registers every given Module, and (if ManifestsPath is
// set) enriches the registry's catalog metadata from HCL manifests.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	reg.RegisterModules(modules...)
	logger.Debug("Node types registered.", "count", len(reg.TypeIDs()))

	if cfg.ManifestsPath != "" {
		if err := reg.LoadManifests(cfg.ManifestsPath); err != nil {
			return nil, fmt.Errorf("failed to load node catalog manifests: %w", err)
		}
		logger.Debug("Catalog manifests loaded.", "path", cfg.ManifestsPath)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfg,
	}, nil
}

// Registry returns the application's registry. Primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Context returns a background context with the app's logger embedded,
// the same pattern the teacher's App.Run uses to seed the run's ctxlog.
func (a *App) Context() context.Context {
	return ctxlog.WithLogger(context.Background(), a.logger)
}
