package resolver

import (
	"context"

	"github.com/vk/buildshim/internal/capability"
	"github.com/vk/buildshim/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Resolver holds the ordered strategies of every capability.
type Resolver struct {
	strategies map[capability.Name][]Strategy
}

// New creates a resolver with the standard strategy order. manifests may be
// nil, in which case the manifest strategy never applies.
func New(manifests ManifestReader) *Resolver {
	return &Resolver{strategies: map[capability.Name][]Strategy{
		capability.ModuleIdentifier: {
			existingIdentifier(),
			manifestIdentifier(manifests),
			groupIdentifier(),
			synthesizedIdentifier(),
		},
		capability.SourceCompatibility: {toolchainString(func(in Input) string { return in.Toolchain.SourceCompatibility })},
		capability.TargetCompatibility: {toolchainString(func(in Input) string { return in.Toolchain.TargetCompatibility })},
		capability.ScriptTarget:        {toolchainString(func(in Input) string { return in.Toolchain.ScriptTarget })},
		capability.CompileAPILevel:     {toolchainLevel(func(in Input) int { return in.Toolchain.CompileAPILevel })},
		capability.MinAPILevel:         {toolchainLevel(func(in Input) int { return in.Toolchain.MinAPILevel })},
		capability.TargetAPILevel:      {toolchainLevel(func(in Input) int { return in.Toolchain.TargetAPILevel })},
	}}
}

// Strategies returns the strategy names for n in evaluation order.
func (r *Resolver) Strategies(n capability.Name) []string {
	var out []string
	for _, s := range r.strategies[n] {
		out = append(out, s.Name)
	}
	return out
}

// Resolve evaluates the strategies of n in order and returns the first value
// produced.
func (r *Resolver) Resolve(ctx context.Context, n capability.Name, in Input) (Resolution, bool) {
	for _, s := range r.strategies[n] {
		v, ok := s.Derive(ctx, in)
		if !ok || v == cty.NilVal {
			continue
		}
		return Resolution{Value: v, Strategy: s.Name}, true
	}
	return Resolution{}, false
}

// Plan resolves every available capability of in and returns the intended
// patches in capability order. Capabilities without a resolved value are
// left out.
func (r *Resolver) Plan(ctx context.Context, in Input) []Patch {
	logger := ctxlog.FromContext(ctx)
	var patches []Patch
	for _, n := range in.Available.Names() {
		res, ok := r.Resolve(ctx, n, in)
		if !ok {
			logger.Debug("No value resolved.", "subproject", in.Subproject, "capability", n)
			continue
		}
		mode := Overwrite
		if !n.Versioned() {
			mode = IfAbsent
		}
		patches = append(patches, Patch{
			Subproject: in.Subproject,
			Capability: n,
			Value:      res.Value,
			Strategy:   res.Strategy,
			Mode:       mode,
		})
	}
	return patches
}
