// Package hcl_adapter reads build graph definitions written in HCL and writes
// patched extension settings back into the same files.
//
// A definition file may declare one toolchain block and any number of
// subproject blocks:
//
//	toolchain {
//	  plugin_version    = "8.2.1"
//	  org_prefix        = "com.universal_notes"
//	  compile_api_level = 34
//	}
//
//	subproject "app" {
//	  group = "com.example"
//	  extension "android" {
//	    namespace = "com.example.app"
//	    compile_options {
//	      source_compatibility = "11"
//	    }
//	  }
//	}
//
// Extension bodies are free-form: their attributes become cty values and their
// unlabeled child blocks become nested buildgraph.Blocks.
package hcl_adapter
