package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/buildshim/internal/buildgraph"
	"github.com/vk/buildshim/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader buildgraph.Loader
	writer buildgraph.Writer
}

// NewApp is the constructor for the main application. Logs go to logW, the
// report (when ReportPath is ReportStdout) to outW.
func NewApp(outW, logW io.Writer, cfg *Config, loader buildgraph.Loader, writer buildgraph.Writer) *App {
	logger := NewLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: loader,
		writer: writer,
	}
}

// Context returns ctx carrying the app's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
