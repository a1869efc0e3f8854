package patch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/buildshim/internal/buildgraph"
	"github.com/vk/buildshim/internal/capability"
	"github.com/vk/buildshim/internal/pluginapi"
	"github.com/vk/buildshim/internal/resolver"
	"github.com/zclconf/go-cty/cty"
)

func bound(t *testing.T, attrs map[string]cty.Value) (*buildgraph.Extension, capability.Handle, capability.Set) {
	t.Helper()
	ext := buildgraph.NewExtension("android")
	for k, v := range attrs {
		ext.Body.Attributes[k] = v
	}
	h := pluginapi.Bind(pluginapi.V8(), ext)
	return ext, h, capability.Probe(context.Background(), h)
}

func identifier(v string) resolver.Patch {
	return resolver.Patch{
		Subproject: "app",
		Capability: capability.ModuleIdentifier,
		Value:      cty.StringVal(v),
		Strategy:   resolver.StrategySynthesized,
		Mode:       resolver.IfAbsent,
	}
}

func TestApply_WritesMissingIdentifier(t *testing.T) {
	ext, h, set := bound(t, nil)

	out := Apply(context.Background(), h, set, identifier("com.example.app"))
	assert.Equal(t, capability.Applied, out.Status)
	assert.NoError(t, out.Err)

	v, ok := ext.Body.Lookup([]string{"namespace"})
	require.True(t, ok)
	assert.Equal(t, "com.example.app", v.AsString())
}

func TestApply_NeverOverwritesExistingIdentifier(t *testing.T) {
	ext, h, set := bound(t, map[string]cty.Value{"namespace": cty.StringVal("com.keep.me")})

	out := Apply(context.Background(), h, set, identifier("com.other"))
	assert.Equal(t, capability.Unchanged, out.Status)
	assert.Equal(t, "com.keep.me", out.Value)

	v, _ := ext.Body.Lookup([]string{"namespace"})
	assert.Equal(t, "com.keep.me", v.AsString())
	assert.Empty(t, ext.Body.Changes())
}

func TestApply_IsIdempotent(t *testing.T) {
	ext, h, set := bound(t, map[string]cty.Value{"compile_sdk": cty.NumberIntVal(33)})
	p := resolver.Patch{
		Subproject: "app",
		Capability: capability.CompileAPILevel,
		Value:      capability.Int(34),
		Strategy:   resolver.StrategyToolchain,
		Mode:       resolver.Overwrite,
	}

	first := Apply(context.Background(), h, set, p)
	assert.Equal(t, capability.Applied, first.Status)
	snapshot := ext.Body.Changes()

	second := Apply(context.Background(), h, set, p)
	assert.Equal(t, capability.Unchanged, second.Status)
	assert.Equal(t, snapshot, ext.Body.Changes())
}

func TestApply_VersionOverwritesDifferentValue(t *testing.T) {
	ext, h, set := bound(t, nil)
	ext.Body.Assign([]string{"compile_options", "source_compatibility"}, cty.StringVal("11"))
	ext.Body.Commit()

	out := Apply(context.Background(), h, set, resolver.Patch{
		Subproject: "app",
		Capability: capability.SourceCompatibility,
		Value:      cty.StringVal("17"),
		Mode:       resolver.Overwrite,
	})
	assert.Equal(t, capability.Applied, out.Status)
	v, _ := ext.Body.Lookup([]string{"compile_options", "source_compatibility"})
	assert.Equal(t, "17", v.AsString())
}

func TestApply_UnavailableCapability(t *testing.T) {
	ext := buildgraph.NewExtension("android")
	h := pluginapi.Bind(pluginapi.Legacy(), ext)
	set := capability.Probe(context.Background(), h)

	out := Apply(context.Background(), h, set, identifier("com.example.app"))
	assert.Equal(t, capability.Unavailable, out.Status)
	assert.Empty(t, ext.Body.Changes())

	out = Apply(context.Background(), nil, set, identifier("x.y"))
	assert.Equal(t, capability.Unavailable, out.Status)
}

func TestApplyAll_RejectedValueDoesNotStopSiblings(t *testing.T) {
	_, h, set := bound(t, nil)
	patches := []resolver.Patch{
		{Subproject: "app", Capability: capability.CompileAPILevel, Value: cty.StringVal("latest"), Mode: resolver.Overwrite},
		{Subproject: "app", Capability: capability.MinAPILevel, Value: capability.Int(21), Mode: resolver.Overwrite},
		identifier("com.example.app"),
	}

	outs := ApplyAll(context.Background(), h, set, patches)
	require.Len(t, outs, 3)
	assert.Equal(t, capability.Failed, outs[0].Status)
	assert.True(t, errors.Is(outs[0].Err, capability.ErrRejected))
	assert.Equal(t, capability.Applied, outs[1].Status)
	assert.Equal(t, capability.Applied, outs[2].Status)
}

type panickyHandle struct{}

func (panickyHandle) Lookup(n capability.Name) (capability.Accessor, error) {
	return panickyAccessor{n}, nil
}

type panickyAccessor struct{ n capability.Name }

func (a panickyAccessor) Name() capability.Name         { return a.n }
func (a panickyAccessor) Type() cty.Type                { return cty.String }
func (a panickyAccessor) Get() (cty.Value, bool, error) { return cty.NilVal, false, nil }
func (a panickyAccessor) Set(cty.Value) error           { panic(fmt.Sprintf("no setter for %s", a.n)) }

func TestApply_PanickingAccessorIsContained(t *testing.T) {
	h := panickyHandle{}
	set := capability.Probe(context.Background(), h)

	out := Apply(context.Background(), h, set, identifier("com.example.app"))
	assert.Equal(t, capability.Failed, out.Status)
	assert.True(t, errors.Is(out.Err, capability.ErrRejected))
}
