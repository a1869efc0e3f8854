package resolver

import (
	"context"
	"strings"

	"github.com/vk/buildshim/internal/capability"
	"github.com/vk/buildshim/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Strategy is one named resolution rule. Derive reports false when its
// precondition does not hold.
type Strategy struct {
	Name   string
	Derive func(ctx context.Context, in Input) (cty.Value, bool)
}

// existingIdentifier keeps a non-empty identifier already declared.
func existingIdentifier() Strategy {
	return Strategy{
		Name: StrategyExisting,
		Derive: func(_ context.Context, in Input) (cty.Value, bool) {
			v, ok := in.Current[capability.ModuleIdentifier]
			if !ok || capability.IsEmpty(v) {
				return cty.NilVal, false
			}
			return v, true
		},
	}
}

// manifestIdentifier reads the package attribute of the sidecar manifest.
func manifestIdentifier(manifests ManifestReader) Strategy {
	return Strategy{
		Name: StrategyManifest,
		Derive: func(ctx context.Context, in Input) (cty.Value, bool) {
			if manifests == nil || in.ManifestPath == "" {
				return cty.NilVal, false
			}
			pkg, err := manifests.Package(in.ManifestPath)
			if err != nil {
				ctxlog.FromContext(ctx).Debug("Manifest not usable.", "subproject", in.Subproject, "error", err)
				return cty.NilVal, false
			}
			return cty.StringVal(pkg), true
		},
	}
}

// groupIdentifier uses the subproject's dotted group label.
func groupIdentifier() Strategy {
	return Strategy{
		Name: StrategyGroup,
		Derive: func(_ context.Context, in Input) (cty.Value, bool) {
			group := strings.TrimSpace(in.Group)
			if group == "" {
				return cty.NilVal, false
			}
			return cty.StringVal(group), true
		},
	}
}

// synthesizedIdentifier joins the organization prefix and the normalized
// subproject name. It always succeeds.
func synthesizedIdentifier() Strategy {
	return Strategy{
		Name: StrategySynthesized,
		Derive: func(_ context.Context, in Input) (cty.Value, bool) {
			return cty.StringVal(Synthesize(in.Toolchain.OrgPrefix, in.Subproject)), true
		},
	}
}

// Synthesize builds an identifier from prefix and a subproject name.
func Synthesize(prefix, name string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultOrgPrefix
	}
	return prefix + "." + NormalizeName(name)
}

var nameReplacer = strings.NewReplacer(
	"-", "_",
	".", "_",
	"/", "_",
	"\\", "_",
	":", "_",
	" ", "_",
)

// NormalizeName replaces separator and dot characters with underscores so the
// name is usable as one identifier segment.
func NormalizeName(name string) string {
	return nameReplacer.Replace(name)
}

// toolchainString resolves to a string constant when it is configured.
func toolchainString(get func(in Input) string) Strategy {
	return Strategy{
		Name: StrategyToolchain,
		Derive: func(_ context.Context, in Input) (cty.Value, bool) {
			s := strings.TrimSpace(get(in))
			if s == "" {
				return cty.NilVal, false
			}
			return cty.StringVal(s), true
		},
	}
}

// toolchainLevel resolves to an API level constant when it is configured.
func toolchainLevel(get func(in Input) int) Strategy {
	return Strategy{
		Name: StrategyToolchain,
		Derive: func(_ context.Context, in Input) (cty.Value, bool) {
			n := get(in)
			if n <= 0 {
				return cty.NilVal, false
			}
			return capability.Int(n), true
		},
	}
}
