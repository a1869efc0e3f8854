package pluginapi

import (
	"github.com/vk/buildshim/internal/capability"
	"github.com/vk/buildshim/internal/semver"
	"github.com/zclconf/go-cty/cty"
)

// Field locates a capability inside an extension body.
type Field struct {
	Path []string
	Type cty.Type
}

// Model is the extension shape of one range of plugin versions.
type Model struct {
	Name       string
	Constraint semver.Constraint
	Fields     map[capability.Name]Field
}

// roots lists the distinct top-level names the model reads, used for duck
// typing.
func (m *Model) roots() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, n := range capability.All() {
		f, ok := m.Fields[n]
		if !ok || len(f.Path) == 0 {
			continue
		}
		if _, dup := seen[f.Path[0]]; dup {
			continue
		}
		seen[f.Path[0]] = struct{}{}
		out = append(out, f.Path[0])
	}
	return out
}

func str(path ...string) Field { return Field{Path: path, Type: cty.String} }
func num(path ...string) Field { return Field{Path: path, Type: cty.Number} }

// Legacy is the object model before module identifiers moved into the build
// script. The identifier is only known from the manifest.
func Legacy() *Model {
	return &Model{
		Name:       "legacy",
		Constraint: semver.MustParseConstraint("<7.0.0"),
		Fields: map[capability.Name]Field{
			capability.SourceCompatibility: str("compile_options", "source_compatibility"),
			capability.TargetCompatibility: str("compile_options", "target_compatibility"),
			capability.ScriptTarget:        str("kotlin_options", "jvm_target"),
			capability.CompileAPILevel:     num("compile_sdk_version"),
			capability.MinAPILevel:         num("default_config", "min_sdk_version"),
			capability.TargetAPILevel:      num("default_config", "target_sdk_version"),
		},
	}
}

// V7 introduced the namespace setting and shortened the sdk names.
func V7() *Model {
	return &Model{
		Name:       "v7",
		Constraint: semver.MustParseConstraint(">=7.0.0, <8.0.0"),
		Fields: map[capability.Name]Field{
			capability.SourceCompatibility: str("compile_options", "source_compatibility"),
			capability.TargetCompatibility: str("compile_options", "target_compatibility"),
			capability.ScriptTarget:        str("kotlin_options", "jvm_target"),
			capability.ModuleIdentifier:    str("namespace"),
			capability.CompileAPILevel:     num("compile_sdk"),
			capability.MinAPILevel:         num("default_config", "min_sdk"),
			capability.TargetAPILevel:      num("default_config", "target_sdk"),
		},
	}
}

// V8 replaced kotlin_options with compiler_options.
func V8() *Model {
	return &Model{
		Name:       "v8",
		Constraint: semver.MustParseConstraint(">=8.0.0"),
		Fields: map[capability.Name]Field{
			capability.SourceCompatibility: str("compile_options", "source_compatibility"),
			capability.TargetCompatibility: str("compile_options", "target_compatibility"),
			capability.ScriptTarget:        str("compiler_options", "jvm_target"),
			capability.ModuleIdentifier:    str("namespace"),
			capability.CompileAPILevel:     num("compile_sdk"),
			capability.MinAPILevel:         num("default_config", "min_sdk"),
			capability.TargetAPILevel:      num("default_config", "target_sdk"),
		},
	}
}
