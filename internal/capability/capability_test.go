package capability

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// fakeAccessor stores a single value in memory.
type fakeAccessor struct {
	name   Name
	value  cty.Value
	getErr error
}

func (a *fakeAccessor) Name() Name     { return a.name }
func (a *fakeAccessor) Type() cty.Type { return cty.String }
func (a *fakeAccessor) Get() (cty.Value, bool, error) {
	if a.getErr != nil {
		return cty.NilVal, false, a.getErr
	}
	if a.value == cty.NilVal {
		return cty.NilVal, false, nil
	}
	return a.value, true, nil
}
func (a *fakeAccessor) Set(v cty.Value) error {
	a.value = v
	return nil
}

// fakeHandle exposes only the accessors it was built with.
type fakeHandle map[Name]*fakeAccessor

func (h fakeHandle) Lookup(n Name) (Accessor, error) {
	if acc, ok := h[n]; ok {
		return acc, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, n)
}

func TestProbe_NilHandleYieldsEmptySet(t *testing.T) {
	set := Probe(context.Background(), nil)
	assert.Empty(t, set)
	assert.Empty(t, Current(context.Background(), nil, set))
}

func TestProbe_ReportsOnlyExposedCapabilities(t *testing.T) {
	h := fakeHandle{
		ModuleIdentifier:    {name: ModuleIdentifier},
		SourceCompatibility: {name: SourceCompatibility},
	}

	set := Probe(context.Background(), h)
	assert.True(t, set.Has(ModuleIdentifier))
	assert.True(t, set.Has(SourceCompatibility))
	assert.False(t, set.Has(CompileAPILevel))
	assert.Equal(t, []Name{SourceCompatibility, ModuleIdentifier}, set.Names())
}

func TestCurrent_SkipsUnsetAndFailingReads(t *testing.T) {
	h := fakeHandle{
		ModuleIdentifier:    {name: ModuleIdentifier, value: cty.StringVal("com.example.app")},
		SourceCompatibility: {name: SourceCompatibility},
		ScriptTarget:        {name: ScriptTarget, getErr: fmt.Errorf("boom")},
	}
	ctx := context.Background()

	cur := Current(ctx, h, Probe(ctx, h))
	require.Len(t, cur, 1)
	assert.Equal(t, "com.example.app", cur[ModuleIdentifier].AsString())
}

// panickingHandle blows up on lookups of the listed capabilities.
type panickingHandle struct {
	fakeHandle
	lookup Name
	get    Name
}

func (h panickingHandle) Lookup(n Name) (Accessor, error) {
	if n == h.lookup {
		panic("lookup exploded")
	}
	acc, err := h.fakeHandle.Lookup(n)
	if err != nil || n != h.get {
		return acc, err
	}
	return panickingAccessor{acc}, nil
}

type panickingAccessor struct{ Accessor }

func (panickingAccessor) Get() (cty.Value, bool, error) { panic("get exploded") }

func TestProbe_PanickingLookupOnlyDropsThatCapability(t *testing.T) {
	h := panickingHandle{
		fakeHandle: fakeHandle{
			SourceCompatibility: {name: SourceCompatibility, value: cty.StringVal("17")},
			ScriptTarget:        {name: ScriptTarget, value: cty.StringVal("17")},
			CompileAPILevel:     {name: CompileAPILevel, value: cty.StringVal("34")},
		},
		lookup: ModuleIdentifier,
		get:    ScriptTarget,
	}
	ctx := context.Background()

	var set Set
	require.NotPanics(t, func() { set = Probe(ctx, h) })
	assert.Equal(t, []Name{SourceCompatibility, ScriptTarget, CompileAPILevel}, set.Names())

	var cur map[Name]cty.Value
	require.NotPanics(t, func() { cur = Current(ctx, h, set) })
	assert.Len(t, cur, 2)
	assert.Contains(t, cur, SourceCompatibility)
	assert.Contains(t, cur, CompileAPILevel)

	_, err := lookup(h, ModuleIdentifier)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFormatAndIsEmpty(t *testing.T) {
	assert.Equal(t, "17", Format(cty.StringVal("17")))
	assert.Equal(t, "34", Format(Int(34)))
	assert.Equal(t, "true", Format(cty.True))
	assert.Equal(t, "", Format(cty.NullVal(cty.String)))

	assert.True(t, IsEmpty(cty.NilVal))
	assert.True(t, IsEmpty(cty.StringVal("  ")))
	assert.True(t, IsEmpty(cty.NullVal(cty.String)))
	assert.False(t, IsEmpty(cty.StringVal("x")))
	assert.False(t, IsEmpty(Int(0)))
}

func TestName_Versioned(t *testing.T) {
	assert.False(t, ModuleIdentifier.Versioned())
	for _, n := range All() {
		if n != ModuleIdentifier {
			assert.True(t, n.Versioned(), n)
		}
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "applied", Applied.String())
	assert.Equal(t, "unavailable", Unavailable.String())
	assert.Equal(t, "status(42)", Status(42).String())
	assert.True(t, Outcome{Status: Applied}.Changed())
	assert.False(t, Outcome{Status: Unchanged}.Changed())
}
