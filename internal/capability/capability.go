package capability

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/buildshim/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Name identifies a capability.
type Name string

const (
	SourceCompatibility Name = "source_compatibility"
	TargetCompatibility Name = "target_compatibility"
	ScriptTarget        Name = "script_target"
	ModuleIdentifier    Name = "module_identifier"
	CompileAPILevel     Name = "compile_api_level"
	MinAPILevel         Name = "min_api_level"
	TargetAPILevel      Name = "target_api_level"
)

// all is the known capability set in patch order.
var all = []Name{
	SourceCompatibility,
	TargetCompatibility,
	ScriptTarget,
	ModuleIdentifier,
	CompileAPILevel,
	MinAPILevel,
	TargetAPILevel,
}

// All returns the known capabilities in the order they are patched.
func All() []Name {
	out := make([]Name, len(all))
	copy(out, all)
	return out
}

// Versioned reports whether n tracks a toolchain version. Versioned
// capabilities are overwritten unconditionally; the others are write-once.
func (n Name) Versioned() bool {
	return n != ModuleIdentifier
}

var (
	// ErrUnsupported means the object model has no accessor for a capability.
	ErrUnsupported = errors.New("capability not supported")
	// ErrRejected means an accessor refused a value.
	ErrRejected = errors.New("value rejected")
)

// Accessor reads and writes one capability on one configuration object.
type Accessor interface {
	Name() Name
	// Type is the value type the underlying setting holds.
	Type() cty.Type
	// Get returns the current value and whether one is set.
	Get() (cty.Value, bool, error)
	// Set writes v. Values that cannot be converted to Type are rejected
	// with an error wrapping ErrRejected.
	Set(v cty.Value) error
}

// Handle is a configuration object of unknown shape.
type Handle interface {
	// Lookup returns the accessor for n. It returns an error wrapping
	// ErrUnsupported when the object does not expose n.
	Lookup(n Name) (Accessor, error)
}

// Set is a set of capability names.
type Set map[Name]struct{}

// Has reports whether n is in the set.
func (s Set) Has(n Name) bool {
	_, ok := s[n]
	return ok
}

// Names returns the members in patch order.
func (s Set) Names() []Name {
	var out []Name
	for _, n := range all {
		if s.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// Probe reports which known capabilities h exposes. It never fails: a nil
// handle yields the empty set and a failing or panicking lookup only drops
// that capability.
func Probe(ctx context.Context, h Handle) Set {
	set := Set{}
	if h == nil {
		return set
	}
	logger := ctxlog.FromContext(ctx)
	for _, n := range all {
		acc, err := lookup(h, n)
		if err != nil {
			logger.Debug("Capability not exposed.", "capability", n, "reason", err)
			continue
		}
		if acc == nil {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// Current reads the values of the capabilities in set that are already set
// on h. Read failures, panics included, are treated as "not set".
func Current(ctx context.Context, h Handle, set Set) map[Name]cty.Value {
	out := make(map[Name]cty.Value)
	if h == nil {
		return out
	}
	logger := ctxlog.FromContext(ctx)
	for _, n := range set.Names() {
		v, ok, err := read(h, n)
		if err != nil {
			logger.Debug("Capability read failed.", "capability", n, "error", err)
			continue
		}
		if ok {
			out[n] = v
		}
	}
	return out
}

func lookup(h Handle, n Name) (acc Accessor, err error) {
	defer func() {
		if r := recover(); r != nil {
			acc, err = nil, fmt.Errorf("%w: lookup of %s panicked: %v", ErrUnsupported, n, r)
		}
	}()
	return h.Lookup(n)
}

func read(h Handle, n Name) (v cty.Value, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, ok, err = cty.NilVal, false, fmt.Errorf("reading %s panicked: %v", n, r)
		}
	}()
	acc, err := h.Lookup(n)
	if err != nil {
		return cty.NilVal, false, err
	}
	if acc == nil {
		return cty.NilVal, false, nil
	}
	return acc.Get()
}

// Format renders a value for diagnostics and reports.
func Format(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return ""
	}
	switch v.Type() {
	case cty.String:
		return v.AsString()
	case cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	}
	return v.GoString()
}

// IsEmpty reports whether v carries no usable value: null, unknown, or an
// empty or blank string.
func IsEmpty(v cty.Value) bool {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return true
	}
	if v.Type() == cty.String {
		for _, r := range v.AsString() {
			if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
				return false
			}
		}
		return true
	}
	return false
}

// Int returns a number value for an integer constant.
func Int(n int) cty.Value {
	return cty.NumberIntVal(int64(n))
}
