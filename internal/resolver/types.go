package resolver

import (
	"github.com/vk/buildshim/internal/buildgraph"
	"github.com/vk/buildshim/internal/capability"
	"github.com/zclconf/go-cty/cty"
)

// DefaultOrgPrefix is used for synthesized identifiers when the toolchain
// does not configure one.
const DefaultOrgPrefix = "com.example"

// Strategy names as they appear in diagnostics and reports.
const (
	StrategyExisting    = "existing"
	StrategyManifest    = "manifest"
	StrategyGroup       = "group"
	StrategySynthesized = "synthesized"
	StrategyToolchain   = "toolchain"
)

// Input is the immutable view of one subproject the resolver works on.
type Input struct {
	Subproject string
	Group      string
	// ManifestPath is the slash-separated sidecar manifest path relative to
	// the graph root.
	ManifestPath string
	Available    capability.Set
	Current      map[capability.Name]cty.Value
	Toolchain    buildgraph.Toolchain
}

// NewInput snapshots sp for resolution.
func NewInput(g *buildgraph.Graph, sp *buildgraph.Subproject, available capability.Set, current map[capability.Name]cty.Value) Input {
	return Input{
		Subproject:   sp.Name,
		Group:        sp.Group,
		ManifestPath: sp.ManifestPath(),
		Available:    available,
		Current:      current,
		Toolchain:    g.Toolchain,
	}
}

// ManifestReader extracts a package identifier from a sidecar manifest.
type ManifestReader interface {
	Package(name string) (string, error)
}

// Mode says how a patch treats a value already in place.
type Mode int

const (
	// Overwrite replaces whatever is set.
	Overwrite Mode = iota
	// IfAbsent writes only when nothing non-empty is set.
	IfAbsent
)

func (m Mode) String() string {
	if m == IfAbsent {
		return "if-absent"
	}
	return "overwrite"
}

// Patch is one intended write.
type Patch struct {
	Subproject string
	Capability capability.Name
	Value      cty.Value
	Strategy   string
	Mode       Mode
}

// Resolution is the value a strategy produced.
type Resolution struct {
	Value    cty.Value
	Strategy string
}
