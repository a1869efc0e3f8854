package pluginapi

import (
	"fmt"

	"github.com/vk/buildshim/internal/buildgraph"
	"github.com/vk/buildshim/internal/capability"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Bind exposes ext through the accessors of m.
func Bind(m *Model, ext *buildgraph.Extension) capability.Handle {
	body := ext.Body
	if body == nil {
		body = buildgraph.NewBlock(ext.Name)
		ext.Body = body
	}
	return &handle{model: m, body: body}
}

type handle struct {
	model *Model
	body  *buildgraph.Block
}

func (h *handle) Lookup(n capability.Name) (capability.Accessor, error) {
	f, ok := h.model.Fields[n]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s object model", capability.ErrUnsupported, n, h.model.Name)
	}
	if len(f.Path) == 0 {
		return nil, fmt.Errorf("%w: %s has no setting path in %s object model", capability.ErrUnsupported, n, h.model.Name)
	}
	// A setting written as a plain attribute where the model expects a block
	// means the object does not have the shape this model describes.
	if err := checkShape(h.body, f.Path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", capability.ErrUnsupported, n, err)
	}
	return &accessor{name: n, field: f, body: h.body}, nil
}

func checkShape(b *buildgraph.Block, path []string) error {
	cur := b
	for _, name := range path[:len(path)-1] {
		if _, isAttr := cur.Attributes[name]; isAttr {
			return fmt.Errorf("%q is an attribute, expected a block", name)
		}
		next, ok := cur.Blocks[name]
		if !ok {
			return nil
		}
		cur = next
	}
	if _, isBlock := cur.Blocks[path[len(path)-1]]; isBlock {
		return fmt.Errorf("%q is a block, expected an attribute", path[len(path)-1])
	}
	return nil
}

type accessor struct {
	name  capability.Name
	field Field
	body  *buildgraph.Block
}

func (a *accessor) Name() capability.Name { return a.name }
func (a *accessor) Type() cty.Type        { return a.field.Type }

func (a *accessor) Get() (cty.Value, bool, error) {
	v, ok := a.body.Lookup(a.field.Path)
	if !ok {
		return cty.NilVal, false, nil
	}
	if !v.IsKnown() {
		return cty.NilVal, false, fmt.Errorf("%s: value is not known", a.name)
	}
	return v, true, nil
}

func (a *accessor) Set(v cty.Value) error {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return fmt.Errorf("%w: %s: value must be known and non-null", capability.ErrRejected, a.name)
	}
	converted, err := convert.Convert(v, a.field.Type)
	if err != nil {
		return fmt.Errorf("%w: %s expects %s: %v", capability.ErrRejected, a.name, a.field.Type.FriendlyName(), err)
	}
	if err := checkShape(a.body, a.field.Path); err != nil {
		return fmt.Errorf("%w: %s: %v", capability.ErrRejected, a.name, err)
	}
	a.body.Assign(a.field.Path, converted)
	return nil
}
