package walker

import (
	"context"

	"github.com/vk/buildshim/internal/buildgraph"
	"github.com/vk/buildshim/internal/capability"
	"github.com/vk/buildshim/internal/ctxlog"
	"github.com/vk/buildshim/internal/patch"
	"github.com/vk/buildshim/internal/pluginapi"
	"github.com/vk/buildshim/internal/resolver"
)

// DefaultExtension is the extension name platform modules register.
const DefaultExtension = "android"

// Walker visits every subproject of a graph once.
type Walker struct {
	Models   *pluginapi.Registry
	Resolver *resolver.Resolver
	// Extension is the name the configuration handle is registered under.
	Extension string
	// PluginVersion overrides the toolchain's plugin version when set.
	PluginVersion string
	// DryRun stops every subproject after resolution.
	DryRun   bool
	Recorder Recorder
}

// New creates a walker with the built-in object models.
func New(res *resolver.Resolver) *Walker {
	return &Walker{
		Models:    pluginapi.Default(),
		Resolver:  res,
		Extension: DefaultExtension,
	}
}

// Walk runs the pass over g and reports every subproject.
func (w *Walker) Walk(ctx context.Context, g *buildgraph.Graph) *Report {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Walk started.", "subprojects", g.Len(), "dry_run", w.DryRun)

	report := &Report{DryRun: w.DryRun}
	for _, sp := range g.Subprojects() {
		res := w.visit(ctx, g, sp)
		report.Results = append(report.Results, res)
		if w.Recorder != nil {
			w.Recorder.Record(res)
		}
	}

	logger.Debug("Walk finished.", "applied", report.Count(capability.Applied), "failed", report.Count(capability.Failed))
	return report
}

func (w *Walker) visit(ctx context.Context, g *buildgraph.Graph, sp *buildgraph.Subproject) Result {
	ctx = ctxlog.With(ctx, "subproject", sp.Name)
	logger := ctxlog.FromContext(ctx)
	res := Result{Subproject: sp.Name, Trace: []State{Pending}}

	ext, ok := sp.Extension(w.extension())
	if !ok {
		res.Trace = append(res.Trace, Probed, Done)
		logger.Debug("No configuration handle, skipping.")
		return res
	}
	res.Platform = true

	version := w.PluginVersion
	if version == "" {
		version = g.Toolchain.PluginVersion
	}
	model, err := w.models().Select(ctx, version, ext)
	if err != nil {
		res.Err = err
		res.Trace = append(res.Trace, Probed, Done)
		logger.Warn("No object model for configuration handle, leaving subproject unmodified.", "error", err)
		return res
	}
	res.Model = model.Name

	handle := pluginapi.Bind(model, ext)
	available := capability.Probe(ctx, handle)
	current := capability.Current(ctx, handle, available)
	res.Trace = append(res.Trace, Probed)

	res.Planned = w.Resolver.Plan(ctx, resolver.NewInput(g, sp, available, current))
	res.Trace = append(res.Trace, Resolved)

	if w.DryRun {
		res.Trace = append(res.Trace, Done)
		return res
	}

	planned := make(map[capability.Name]resolver.Patch, len(res.Planned))
	for _, p := range res.Planned {
		planned[p.Capability] = p
	}
	for _, n := range capability.All() {
		if !available.Has(n) {
			res.Outcomes = append(res.Outcomes, capability.Outcome{Capability: n, Status: capability.Unavailable})
			continue
		}
		p, ok := planned[n]
		if !ok {
			res.Outcomes = append(res.Outcomes, capability.Outcome{Capability: n, Status: capability.Skipped})
			continue
		}
		res.Outcomes = append(res.Outcomes, patch.Apply(ctx, handle, available, p))
	}
	res.Trace = append(res.Trace, Patched, Done)
	return res
}

func (w *Walker) extension() string {
	if w.Extension == "" {
		return DefaultExtension
	}
	return w.Extension
}

func (w *Walker) models() *pluginapi.Registry {
	if w.Models == nil {
		return pluginapi.Default()
	}
	return w.Models
}
