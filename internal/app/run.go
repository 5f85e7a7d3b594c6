package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/orgaudit/internal/ctxlog"
	"github.com/specialistvlad/orgaudit/internal/hierarchy"
	"github.com/specialistvlad/orgaudit/internal/metrics"
	"github.com/specialistvlad/orgaudit/internal/registry"
	"github.com/specialistvlad/orgaudit/internal/report"
	"github.com/specialistvlad/orgaudit/internal/roster"
	"github.com/specialistvlad/orgaudit/internal/source"
	"github.com/specialistvlad/orgaudit/internal/workpool"
)

// Run reads the configured roster, analyzes it and writes the report.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.With(a.context(ctx), "input", a.config.Input)
	ctxlog.FromContext(ctx).Debug("App.Run method started.")

	if a.config.MetricsPort > 0 {
		stop, err := a.startServer(ctx, a.config.MetricsPort)
		if err != nil {
			return err
		}
		defer stop()
	}

	var lines []string
	err := a.telemetry.Time("read", func() error {
		var err error
		lines, err = a.readRoster(ctx)
		return err
	})
	if err != nil {
		return err
	}

	out, err := a.analyze(ctx, lines)
	if err != nil {
		return err
	}
	if err := report.Write(a.outW, out); err != nil {
		return err
	}

	if a.config.MetricsFile != "" {
		if err := a.telemetry.WriteTextfile(a.config.MetricsFile); err != nil {
			return err
		}
		a.logger.Debug("Metrics written.", "path", a.config.MetricsFile)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// readRoster opens the roster source and returns its lines.
func (a *App) readRoster(ctx context.Context) ([]string, error) {
	src := a.source
	if src == nil {
		var err error
		src, err = source.Resolve(ctx, a.config.Input, source.S3Config{
			Region:    a.config.S3.Region,
			Endpoint:  a.config.S3.Endpoint,
			PathStyle: a.config.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	lines, err := roster.ReadLines(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Location(), err)
	}
	a.logger.Info("Roster loaded.", "location", src.Location(), "lines", len(lines))
	return lines, nil
}

// Analyze runs the whole pipeline over roster lines, header included, and
// returns the report lines.
func (a *App) Analyze(ctx context.Context, lines []string) ([]string, error) {
	return a.analyze(a.context(ctx), lines)
}

func (a *App) analyze(ctx context.Context, lines []string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	pool := workpool.New(ctx, a.config.Workers)
	defer pool.Close()

	var parsed *roster.Result
	_ = a.telemetry.Time("parse", func() error {
		parsed = roster.NewParser(pool, a.config.BatchSize).ParseRoster(ctx, lines)
		return nil
	})
	for _, rerr := range parsed.Skipped {
		fmt.Fprintf(a.errW, "Error parsing line: %s - %v\n", rerr.Line, rerr.Err)
		logger.Warn("Skipping invalid roster line.", "row", rerr.Row, "error", rerr.Err)
	}
	a.telemetry.RecordParse(parsed.Accepted, len(parsed.Skipped))

	reg := registry.FromMap(parsed.Employees)
	a.telemetry.SetEmployees(reg.Len())
	logger.Info("Roster parsed.", "employees", reg.Len(), "skipped", len(parsed.Skipped))

	err := a.telemetry.Time("hierarchy", func() error {
		_, err := hierarchy.New(pool).Build(ctx, reg)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build hierarchy: %w", err)
	}

	engine := metrics.NewEngine(reg, a.config.Policy)
	var all []metrics.Metrics
	err = a.telemetry.Time("metrics", func() error {
		var err error
		all, err = engine.ComputeAll(ctx, pool)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute metrics: %w", err)
	}

	gen := report.NewGenerator(pool)
	var out []string
	_ = a.telemetry.Time("report", func() error {
		findings := gen.Collect(ctx, all)
		for section, n := range findings.Counts() {
			a.telemetry.RecordFindings(section, n)
		}
		out = gen.Render(findings)
		return nil
	})

	logger.Info("🏁 Analysis finished.", "report_lines", len(out))
	return out, nil
}
