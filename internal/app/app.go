package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/specialistvlad/orgaudit/internal/config"
	"github.com/specialistvlad/orgaudit/internal/ctxlog"
	"github.com/specialistvlad/orgaudit/internal/source"
	"github.com/specialistvlad/orgaudit/internal/telemetry"
)

// App encapsulates the dependencies, configuration and lifecycle of one audit run.
type App struct {
	outW      io.Writer
	errW      io.Writer
	logger    *slog.Logger
	config    *config.Config
	runID     string
	telemetry *telemetry.Recorder
	source    source.Source
}

// Option customizes an App.
type Option func(*App)

// WithSource makes the App read from src instead of resolving config.Input.
func WithSource(src source.Source) Option {
	return func(a *App) {
		a.source = src
	}
}

// NewApp is the constructor for the application. The report goes to outW;
// logs and per-record diagnostics go to errW.
func NewApp(outW, errW io.Writer, cfg *config.Config, opts ...Option) *App {
	runID := uuid.NewString()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW).With("run_id", runID)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:      outW,
		errW:      errW,
		logger:    logger,
		config:    cfg,
		runID:     runID,
		telemetry: telemetry.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunID returns the identifier attached to every log line of this run.
func (a *App) RunID() string {
	return a.runID
}

// Telemetry returns the run's metric recorder. This is primarily for testing.
func (a *App) Telemetry() *telemetry.Recorder {
	return a.telemetry
}

// context returns ctx carrying the run logger.
func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
