package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/buildshim/internal/buildgraph"
	"github.com/vk/buildshim/internal/ctxlog"
)

// Loader is the HCL implementation of buildgraph.Loader.
type Loader struct{}

// NewLoader creates a new HCL build graph loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths and merges their blocks into one
// graph, rooted at the directory of the first path.
func (l *Loader) Load(ctx context.Context, paths ...string) (*buildgraph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	if len(paths) == 0 {
		return nil, fmt.Errorf("no build graph path given")
	}
	root, err := graphRoot(paths[0])
	if err != nil {
		return nil, err
	}

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	g := buildgraph.New(root)
	parser := hclparse.NewParser()
	var toolchainRange *hcl.Range

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var contents fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &contents)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, tc := range contents.Toolchains {
			if toolchainRange != nil {
				return nil, fmt.Errorf("%s: duplicate toolchain block, first declared at %s", tc.DefRange, toolchainRange)
			}
			r := tc.DefRange
			toolchainRange = &r
			g.Toolchain = translateToolchain(tc)
		}

		for _, block := range contents.Subprojects {
			sp, err := l.translateSubproject(ctx, file, block)
			if err != nil {
				return nil, err
			}
			if err := g.Add(sp); err != nil {
				return nil, err
			}
		}
	}

	logger.Debug("HCL loading complete.", "subprojects", g.Len(), "plugin_version", g.Toolchain.PluginVersion)
	return g, nil
}

func translateToolchain(tc *Toolchain) buildgraph.Toolchain {
	return buildgraph.Toolchain{
		PluginVersion:       tc.PluginVersion,
		OrgPrefix:           tc.OrgPrefix,
		SourceCompatibility: tc.SourceCompatibility,
		TargetCompatibility: tc.TargetCompatibility,
		ScriptTarget:        tc.ScriptTarget,
		CompileAPILevel:     tc.CompileAPILevel,
		MinAPILevel:         tc.MinAPILevel,
		TargetAPILevel:      tc.TargetAPILevel,
	}
}

func (l *Loader) translateSubproject(ctx context.Context, file string, block *Subproject) (*buildgraph.Subproject, error) {
	sp := buildgraph.NewSubproject(block.Name)
	sp.Path = filepath.ToSlash(block.Path)
	sp.Group = block.Group
	sp.Manifest = filepath.ToSlash(block.Manifest)
	sp.SourceFile = file

	seen := make(map[string]hcl.Range)
	for _, ext := range block.Extensions {
		if prev, dup := seen[ext.Name]; dup {
			return nil, fmt.Errorf("%s: subproject %q declares extension %q twice, first at %s", ext.DefRange, block.Name, ext.Name, prev)
		}
		seen[ext.Name] = ext.DefRange

		body, diags := translateBody(ext.Name, ext.Body)
		if diags.HasErrors() {
			return nil, fmt.Errorf("subproject %q extension %q: %w", block.Name, ext.Name, diags)
		}
		sp.Register(&buildgraph.Extension{Name: ext.Name, Body: body})
	}
	ctxlog.FromContext(ctx).Debug("Subproject translated.", "subproject", sp.Name, "extensions", len(block.Extensions))
	return sp, nil
}

// translateBody converts a free-form HCL body into a buildgraph.Block.
// Attributes must be evaluable without variables.
func translateBody(typ string, body hcl.Body) (*buildgraph.Block, hcl.Diagnostics) {
	out := buildgraph.NewBlock(typ)
	if body == nil {
		return out, nil
	}

	sb, ok := body.(*hclsyntax.Body)
	if !ok {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported extension body",
			Detail:   fmt.Sprintf("Extension %q must be written in native HCL syntax.", typ),
		}}
	}

	var diags hcl.Diagnostics
	for name, attr := range sb.Attributes {
		v, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		out.Attributes[name] = v
	}
	for _, child := range sb.Blocks {
		if len(child.Labels) > 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported labeled block",
				Detail:   fmt.Sprintf("Block %q inside an extension cannot have labels.", child.Type),
				Subject:  child.DefRange().Ptr(),
			})
			continue
		}
		if out.Has(child.Type) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate setting",
				Detail:   fmt.Sprintf("%q is declared more than once.", child.Type),
				Subject:  child.DefRange().Ptr(),
			})
			continue
		}
		nested, childDiags := translateBody(child.Type, child.Body)
		diags = append(diags, childDiags...)
		if nested != nil {
			out.Blocks[child.Type] = nested
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return out, diags
}

func graphRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if info.IsDir() {
		return abs, nil
	}
	return filepath.Dir(abs), nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && filepath.Ext(p) == ".hcl" {
					if _, wasSeen := seen[p]; !wasSeen {
						allFiles = append(allFiles, p)
						seen[p] = struct{}{}
					}
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if filepath.Ext(path) == ".hcl" {
			if _, wasSeen := seen[path]; !wasSeen {
				allFiles = append(allFiles, path)
				seen[path] = struct{}{}
			}
		}
	}
	return allFiles, nil
}
