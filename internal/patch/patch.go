// Package patch writes resolved values into configuration objects through
// the accessors a Probe reported available. Every write ends in a
// capability.Outcome; nothing here returns an error to the caller.
package patch

import (
	"context"
	"fmt"

	"github.com/vk/buildshim/internal/capability"
	"github.com/vk/buildshim/internal/ctxlog"
	"github.com/vk/buildshim/internal/resolver"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Apply writes p through h. It only writes capabilities present in
// available, never replaces a non-empty value of an IfAbsent patch, and is a
// no-op when the value is already in place.
func Apply(ctx context.Context, h capability.Handle, available capability.Set, p resolver.Patch) (out capability.Outcome) {
	logger := ctxlog.FromContext(ctx).With("subproject", p.Subproject, "capability", p.Capability)
	out = capability.Outcome{
		Capability: p.Capability,
		Value:      capability.Format(p.Value),
		Strategy:   p.Strategy,
	}

	if h == nil || !available.Has(p.Capability) {
		out.Status = capability.Unavailable
		return out
	}
	// A panicking accessor must not take sibling capabilities down with it.
	defer func() {
		if r := recover(); r != nil {
			out.Status = capability.Failed
			out.Err = fmt.Errorf("%w: accessor panicked: %v", capability.ErrRejected, r)
			logger.Warn("Patch failed.", "value", out.Value, "error", out.Err)
		}
	}()

	acc, err := h.Lookup(p.Capability)
	if err != nil {
		logger.Debug("Capability disappeared after probing.", "error", err)
		out.Status = capability.Unavailable
		out.Err = err
		return out
	}

	cur, present, err := acc.Get()
	if err != nil {
		if p.Mode == resolver.IfAbsent {
			out.Status = capability.Failed
			out.Err = fmt.Errorf("reading current value: %w", err)
			logger.Warn("Patch failed.", "value", out.Value, "error", out.Err)
			return out
		}
		logger.Debug("Current value unreadable, overwriting.", "error", err)
		present = false
	}

	if present && !capability.IsEmpty(cur) {
		if p.Mode == resolver.IfAbsent {
			out.Status = capability.Unchanged
			out.Value = capability.Format(cur)
			return out
		}
		if sameValue(cur, p.Value, acc.Type()) {
			out.Status = capability.Unchanged
			return out
		}
	}

	if err := acc.Set(p.Value); err != nil {
		out.Status = capability.Failed
		out.Err = err
		logger.Warn("Patch failed.", "value", out.Value, "error", err)
		return out
	}

	out.Status = capability.Applied
	logger.Info("Injected value.", "value", out.Value, "strategy", p.Strategy, "previous", capability.Format(cur))
	return out
}

func sameValue(cur, want cty.Value, ty cty.Type) bool {
	converted, err := convert.Convert(want, ty)
	if err != nil {
		return false
	}
	if !cur.Type().Equals(ty) {
		c, err := convert.Convert(cur, ty)
		if err != nil {
			return false
		}
		cur = c
	}
	return cur.RawEquals(converted)
}

// ApplyAll applies patches in order and returns one outcome per patch. A
// failing patch does not stop the ones after it.
func ApplyAll(ctx context.Context, h capability.Handle, available capability.Set, patches []resolver.Patch) []capability.Outcome {
	out := make([]capability.Outcome, 0, len(patches))
	for _, p := range patches {
		out = append(out, Apply(ctx, h, available, p))
	}
	return out
}
