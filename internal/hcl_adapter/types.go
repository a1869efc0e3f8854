package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Toolchains  []*Toolchain  `hcl:"toolchain,block"`
	Subprojects []*Subproject `hcl:"subproject,block"`
	Remain      hcl.Body      `hcl:",remain"`
}

// Toolchain is the HCL form of the build-time constants.
type Toolchain struct {
	PluginVersion       string    `hcl:"plugin_version,optional"`
	OrgPrefix           string    `hcl:"org_prefix,optional"`
	SourceCompatibility string    `hcl:"source_compatibility,optional"`
	TargetCompatibility string    `hcl:"target_compatibility,optional"`
	ScriptTarget        string    `hcl:"script_target,optional"`
	CompileAPILevel     int       `hcl:"compile_api_level,optional"`
	MinAPILevel         int       `hcl:"min_api_level,optional"`
	TargetAPILevel      int       `hcl:"target_api_level,optional"`
	DefRange            hcl.Range `hcl:",def_range"`
}

// Subproject is the HCL form of a `subproject` block.
type Subproject struct {
	Name       string       `hcl:"name,label"`
	Path       string       `hcl:"path,optional"`
	Group      string       `hcl:"group,optional"`
	Manifest   string       `hcl:"manifest,optional"`
	Extensions []*Extension `hcl:"extension,block"`
	DefRange   hcl.Range    `hcl:",def_range"`
}

// Extension is an `extension` block; its body is decoded separately.
type Extension struct {
	Name     string    `hcl:"name,label"`
	Body     hcl.Body  `hcl:",remain"`
	DefRange hcl.Range `hcl:",def_range"`
}
