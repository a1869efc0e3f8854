package integration_tests

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/buildshim/internal/capability"
	"github.com/vk/buildshim/internal/testutil"
)

const modulesHCL = `
toolchain {
  %s
  org_prefix        = "com.universal_notes"
  script_target     = "17"
  compile_api_level = 34
}

subproject "old" {
  extension "android" {
    compile_sdk_version = 30
    kotlin_options {
      jvm_target = "1.8"
    }
  }
}

subproject "new" {
  extension "android" {
    compile_sdk = 33
    compiler_options {
      jvm_target = "11"
    }
  }
}
`

func settings(version string) map[string]string {
	line := ""
	if version != "" {
		line = `plugin_version = "` + version + `"`
	}
	return map[string]string{"settings.hcl": fmt.Sprintf(modulesHCL, line)}
}

func TestPluginVersions_DuckTypingWithoutVersion(t *testing.T) {
	t.Parallel()

	// --- Act ---
	result := testutil.RunIntegrationTest(t, settings(""))

	// --- Assert ---
	require.NoError(t, result.Err)

	old, _ := result.Result.Report.Result("old")
	assert.Equal(t, "legacy", old.Model)
	o, _ := old.Outcome(capability.ModuleIdentifier)
	assert.Equal(t, capability.Unavailable, o.Status, "legacy plugins only know identifiers from the manifest")
	o, _ = old.Outcome(capability.ScriptTarget)
	assert.Equal(t, capability.Applied, o.Status)

	newer, _ := result.Result.Report.Result("new")
	assert.Equal(t, "v8", newer.Model)
	o, _ = newer.Outcome(capability.ModuleIdentifier)
	assert.Equal(t, capability.Applied, o.Status)
	assert.Equal(t, "com.universal_notes.new", o.Value)

	written := result.ReadFile(t, "settings.hcl")
	assert.Contains(t, written, "compile_sdk_version = 34")
	assert.Contains(t, written, `jvm_target = "17"`)
	assert.NotContains(t, written, `"1.8"`)
}

func TestPluginVersions_DeclaredVersionWins(t *testing.T) {
	t.Parallel()

	// --- Act ---
	result := testutil.RunIntegrationTest(t, settings("6.1.0"), testutil.DryRun())

	// --- Assert ---
	require.NoError(t, result.Err)
	for _, name := range []string{"old", "new"} {
		res, ok := result.Result.Report.Result(name)
		require.True(t, ok)
		assert.Equal(t, "legacy", res.Model, name)
		for _, p := range res.Planned {
			assert.NotEqual(t, capability.ModuleIdentifier, p.Capability, name)
		}
	}
}

func TestPluginVersions_OverrideAndUnparseableVersion(t *testing.T) {
	t.Parallel()

	t.Run("override", func(t *testing.T) {
		t.Parallel()
		result := testutil.RunIntegrationTest(t, settings("6.1.0"), testutil.DryRun(), testutil.WithPluginVersion("7.4.0"))
		require.NoError(t, result.Err)
		old, _ := result.Result.Report.Result("old")
		assert.Equal(t, "v7", old.Model)
	})

	t.Run("unparseable falls back to duck typing", func(t *testing.T) {
		t.Parallel()
		result := testutil.RunIntegrationTest(t, settings("canary"), testutil.DryRun())
		require.NoError(t, result.Err)
		old, _ := result.Result.Report.Result("old")
		assert.Equal(t, "legacy", old.Model)
		newer, _ := result.Result.Report.Result("new")
		assert.Equal(t, "v8", newer.Model)
	})
}
