package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/buildshim/internal/capability"
	"github.com/vk/buildshim/internal/ctxlog"
	"github.com/vk/buildshim/internal/manifest"
	"github.com/vk/buildshim/internal/metrics"
	"github.com/vk/buildshim/internal/report"
	"github.com/vk/buildshim/internal/resolver"
	"github.com/vk/buildshim/internal/walker"
)

// Result summarizes a run.
type Result struct {
	Report       *walker.Report
	FilesWritten int
}

// Run loads the build graph, walks it and, unless this is a dry run, writes
// applied values back. Only load and write errors abort the run.
func (a *App) Run(ctx context.Context) (*Result, error) {
	ctx = a.Context(ctx)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Run method started.", "graph_path", a.config.GraphPath, "dry_run", a.config.DryRun)

	g, err := a.loader.Load(ctx, a.config.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load build graph: %w", err)
	}
	if a.config.OrgPrefix != "" {
		g.Toolchain.OrgPrefix = a.config.OrgPrefix
	}
	logger.Debug("Build graph loaded.", "root", g.Root, "subprojects", g.Len())

	m := metrics.New()
	w := walker.New(resolver.New(manifest.NewReader(os.DirFS(g.Root))))
	w.Extension = a.config.ExtensionName
	w.PluginVersion = a.config.PluginVersion
	w.DryRun = a.config.DryRun
	w.Recorder = m

	rep := w.Walk(ctx, g)
	res := &Result{Report: rep}

	if !a.config.DryRun {
		n, err := a.writer.Write(ctx, g)
		if err != nil {
			return res, fmt.Errorf("failed to write build graph: %w", err)
		}
		res.FilesWritten = n
	}

	if err := a.emitReport(rep); err != nil {
		return res, err
	}
	if a.config.MetricsPath != "" {
		if err := m.WriteTextfile(a.config.MetricsPath); err != nil {
			return res, err
		}
		logger.Debug("Metrics written.", "path", a.config.MetricsPath)
	}

	if a.config.DryRun {
		planned := 0
		for _, r := range rep.Results {
			planned += len(r.Planned)
		}
		logger.Info("🔎 Plan complete.", "subprojects", len(rep.Results), "planned", planned)
	} else {
		logger.Info("🏁 Reconciliation finished.",
			"subprojects", len(rep.Results),
			"applied", rep.Count(capability.Applied),
			"failed", rep.Count(capability.Failed),
			"files_written", res.FilesWritten,
		)
	}
	return res, nil
}

func (a *App) emitReport(rep *walker.Report) error {
	switch a.config.ReportPath {
	case "":
		return nil
	case ReportStdout:
		return report.Encode(a.outW, rep)
	}
	if err := report.WriteFile(a.config.ReportPath, rep); err != nil {
		return err
	}
	a.logger.Debug("Report written.", "path", a.config.ReportPath)
	return nil
}
