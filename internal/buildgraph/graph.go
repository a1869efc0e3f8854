package buildgraph

import (
	"context"
	"errors"
	"fmt"
	"path"
)

// DefaultManifest is where a subproject's sidecar manifest lives when the
// subproject does not name one.
const DefaultManifest = "src/main/AndroidManifest.xml"

// ErrDuplicateSubproject is returned when two subprojects share a name.
var ErrDuplicateSubproject = errors.New("duplicate subproject")

// Loader is the interface for a format-specific build graph loader.
type Loader interface {
	// Load reads every graph definition found under paths and merges them
	// into a single Graph.
	Load(ctx context.Context, paths ...string) (*Graph, error)
}

// Writer persists extension attribute changes back to their source.
type Writer interface {
	// Write flushes pending changes and reports how many files were rewritten.
	Write(ctx context.Context, g *Graph) (int, error)
}

// Toolchain holds the build-time constants the reconciliation applies.
// Zero values mean "not configured".
type Toolchain struct {
	PluginVersion       string
	OrgPrefix           string
	SourceCompatibility string
	TargetCompatibility string
	ScriptTarget        string
	CompileAPILevel     int
	MinAPILevel         int
	TargetAPILevel      int
}

// Graph is the root build unit. Subprojects keep their declaration order.
type Graph struct {
	// Root is the directory subproject paths are relative to.
	Root      string
	Toolchain Toolchain

	subprojects []*Subproject
	index       map[string]*Subproject
}

// New creates an empty graph rooted at root.
func New(root string) *Graph {
	return &Graph{
		Root:  root,
		index: make(map[string]*Subproject),
	}
}

// Add appends a subproject, rejecting empty and duplicate names.
func (g *Graph) Add(sp *Subproject) error {
	if sp == nil || sp.Name == "" {
		return errors.New("subproject name cannot be empty")
	}
	if prev, ok := g.index[sp.Name]; ok {
		return fmt.Errorf("%w %q (declared in %s and %s)", ErrDuplicateSubproject, sp.Name, prev.SourceFile, sp.SourceFile)
	}
	g.index[sp.Name] = sp
	g.subprojects = append(g.subprojects, sp)
	return nil
}

// Subprojects returns the subprojects in declaration order.
func (g *Graph) Subprojects() []*Subproject {
	out := make([]*Subproject, len(g.subprojects))
	copy(out, g.subprojects)
	return out
}

// Subproject looks up a subproject by name.
func (g *Graph) Subproject(name string) (*Subproject, bool) {
	sp, ok := g.index[name]
	return sp, ok
}

// Len returns the number of subprojects.
func (g *Graph) Len() int {
	return len(g.subprojects)
}

// Subproject is an independently configured module of the graph.
type Subproject struct {
	Name string
	// Path is the subproject directory relative to the graph root.
	// Empty means the directory is named after the subproject.
	Path string
	// Group is the dotted namespace label declared on the subproject.
	Group string
	// Manifest is the sidecar manifest path relative to Dir().
	Manifest string
	// SourceFile is the definition file the subproject was declared in.
	SourceFile string

	extensions map[string]*Extension
	order      []string
}

// NewSubproject creates a subproject with no extensions.
func NewSubproject(name string) *Subproject {
	return &Subproject{Name: name, extensions: make(map[string]*Extension)}
}

// Dir returns the subproject directory relative to the graph root.
func (s *Subproject) Dir() string {
	if s.Path != "" {
		return s.Path
	}
	return s.Name
}

// ManifestPath returns the slash-separated sidecar manifest path relative to
// the graph root.
func (s *Subproject) ManifestPath() string {
	m := s.Manifest
	if m == "" {
		m = DefaultManifest
	}
	return path.Join(s.Dir(), m)
}

// Register attaches an extension, replacing any earlier one of the same name.
func (s *Subproject) Register(ext *Extension) {
	if s.extensions == nil {
		s.extensions = make(map[string]*Extension)
	}
	if _, ok := s.extensions[ext.Name]; !ok {
		s.order = append(s.order, ext.Name)
	}
	s.extensions[ext.Name] = ext
}

// Extension finds a registered extension by name.
func (s *Subproject) Extension(name string) (*Extension, bool) {
	ext, ok := s.extensions[name]
	return ext, ok
}

// Extensions returns the registered extensions in registration order.
func (s *Subproject) Extensions() []*Extension {
	out := make([]*Extension, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.extensions[name])
	}
	return out
}

// Extension is a named settings object registered on a subproject.
type Extension struct {
	Name string
	Body *Block
}

// NewExtension creates an extension with an empty body.
func NewExtension(name string) *Extension {
	return &Extension{Name: name, Body: NewBlock(name)}
}
