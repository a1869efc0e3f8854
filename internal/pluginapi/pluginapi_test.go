package pluginapi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/buildshim/internal/buildgraph"
	"github.com/vk/buildshim/internal/capability"
	"github.com/zclconf/go-cty/cty"
)

func extWith(attrs map[string]cty.Value, blocks ...string) *buildgraph.Extension {
	ext := buildgraph.NewExtension("android")
	for k, v := range attrs {
		ext.Body.Attributes[k] = v
	}
	for _, b := range blocks {
		ext.Body.Blocks[b] = buildgraph.NewBlock(b)
	}
	return ext
}

func TestSelect_ByVersion(t *testing.T) {
	r := Default()
	ctx := context.Background()

	cases := map[string]string{
		"4.2.0": "legacy",
		"7.4.2": "v7",
		"8.2.1": "v8",
		"9.0":   "v8",

		"8.3.0-alpha05": "v8",
		"7.0.0-beta02":  "v7",
	}
	for version, want := range cases {
		m, err := r.Select(ctx, version, extWith(nil))
		require.NoError(t, err)
		assert.Equal(t, want, m.Name, version)
	}
}

func TestSelect_DuckTypingWhenVersionUnknown(t *testing.T) {
	r := Default()
	ctx := context.Background()

	m, err := r.Select(ctx, "", extWith(map[string]cty.Value{"compile_sdk_version": cty.NumberIntVal(30)}))
	require.NoError(t, err)
	assert.Equal(t, "legacy", m.Name)

	m, err = r.Select(ctx, "garbage", extWith(map[string]cty.Value{"namespace": cty.StringVal("a.b")}, "kotlin_options"))
	require.NoError(t, err)
	assert.Equal(t, "v7", m.Name)

	m, err = r.Select(ctx, "", extWith(map[string]cty.Value{"namespace": cty.StringVal("a.b")}, "compiler_options"))
	require.NoError(t, err)
	assert.Equal(t, "v8", m.Name)

	// Nothing to go on: newest wins.
	m, err = r.Select(ctx, "", extWith(nil))
	require.NoError(t, err)
	assert.Equal(t, "v8", m.Name)
}

func TestSelect_EmptyRegistry(t *testing.T) {
	_, err := NewRegistry().Select(context.Background(), "8.0.0", nil)
	assert.True(t, errors.Is(err, ErrNoAdapter))
}

func TestHandle_LegacyHasNoModuleIdentifier(t *testing.T) {
	h := Bind(Legacy(), extWith(nil))

	_, err := h.Lookup(capability.ModuleIdentifier)
	assert.True(t, errors.Is(err, capability.ErrUnsupported))

	set := capability.Probe(context.Background(), h)
	assert.False(t, set.Has(capability.ModuleIdentifier))
	assert.True(t, set.Has(capability.CompileAPILevel))
	assert.Len(t, set, 6)
}

func TestAccessor_SetConvertsAndCreatesBlocks(t *testing.T) {
	ext := extWith(nil)
	h := Bind(V8(), ext)

	acc, err := h.Lookup(capability.MinAPILevel)
	require.NoError(t, err)
	require.NoError(t, acc.Set(cty.StringVal("21")))

	v, ok, err := acc.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cty.Number, v.Type())
	assert.Equal(t, "21", capability.Format(v))

	require.Len(t, ext.Body.Changes(), 1)
	assert.Equal(t, "default_config.min_sdk", ext.Body.Changes()[0].Key())
}

func TestAccessor_RejectsUnconvertibleValue(t *testing.T) {
	h := Bind(V8(), extWith(nil))
	acc, err := h.Lookup(capability.CompileAPILevel)
	require.NoError(t, err)

	err = acc.Set(cty.StringVal("latest"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, capability.ErrRejected))

	err = acc.Set(cty.NullVal(cty.Number))
	assert.True(t, errors.Is(err, capability.ErrRejected))
}

func TestHandle_ShapeConflictIsUnsupported(t *testing.T) {
	// compile_options written as an attribute instead of a block.
	ext := extWith(map[string]cty.Value{
		"compile_options": cty.ObjectVal(map[string]cty.Value{"source_compatibility": cty.StringVal("11")}),
	})
	h := Bind(V8(), ext)

	_, err := h.Lookup(capability.SourceCompatibility)
	assert.True(t, errors.Is(err, capability.ErrUnsupported))

	// Other capabilities are unaffected.
	set := capability.Probe(context.Background(), h)
	assert.False(t, set.Has(capability.SourceCompatibility))
	assert.True(t, set.Has(capability.ModuleIdentifier))
	assert.True(t, set.Has(capability.ScriptTarget))
}

func TestHandle_FieldWithoutPathIsUnsupported(t *testing.T) {
	m := &Model{
		Name: "partial",
		Fields: map[capability.Name]Field{
			capability.ModuleIdentifier: {Type: cty.String},
		},
	}
	h := Bind(m, extWith(nil))

	_, err := h.Lookup(capability.ModuleIdentifier)
	assert.True(t, errors.Is(err, capability.ErrUnsupported))
	assert.Empty(t, capability.Probe(context.Background(), h))
}
