package buildgraph

import (
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Block is a tree of attribute values and uniquely typed child blocks. It is
// the in-memory form of an extension body.
type Block struct {
	Type       string
	Attributes map[string]cty.Value
	Blocks     map[string]*Block

	dirty map[string]struct{}
}

// Change is a pending attribute write, addressed by its path from the
// extension body.
type Change struct {
	Path  []string
	Value cty.Value
}

// Key renders the path in dotted form.
func (c Change) Key() string {
	return strings.Join(c.Path, ".")
}

// NewBlock creates an empty block of the given type.
func NewBlock(typ string) *Block {
	return &Block{
		Type:       typ,
		Attributes: make(map[string]cty.Value),
		Blocks:     make(map[string]*Block),
	}
}

// Has reports whether name is an attribute or child block of b.
func (b *Block) Has(name string) bool {
	if _, ok := b.Attributes[name]; ok {
		return true
	}
	_, ok := b.Blocks[name]
	return ok
}

// Lookup follows path through child blocks and returns the attribute at its
// end. A null value counts as absent.
func (b *Block) Lookup(path []string) (cty.Value, bool) {
	if len(path) == 0 {
		return cty.NilVal, false
	}
	cur := b
	for _, name := range path[:len(path)-1] {
		next, ok := cur.Blocks[name]
		if !ok {
			return cty.NilVal, false
		}
		cur = next
	}
	v, ok := cur.Attributes[path[len(path)-1]]
	if !ok || v.IsNull() {
		return cty.NilVal, false
	}
	return v, true
}

// Assign writes v at path, creating intermediate blocks as needed. Writing a
// value equal to the current one changes nothing. It reports whether the
// block was modified.
func (b *Block) Assign(path []string, v cty.Value) bool {
	if len(path) == 0 {
		return false
	}
	cur := b
	for _, name := range path[:len(path)-1] {
		next, ok := cur.Blocks[name]
		if !ok {
			next = NewBlock(name)
			cur.Blocks[name] = next
		}
		cur = next
	}
	attr := path[len(path)-1]
	if old, ok := cur.Attributes[attr]; ok && old.RawEquals(v) {
		return false
	}
	cur.Attributes[attr] = v
	if cur.dirty == nil {
		cur.dirty = make(map[string]struct{})
	}
	cur.dirty[attr] = struct{}{}
	return true
}

// Changes lists every attribute written through Assign since the last
// Commit, sorted by path.
func (b *Block) Changes() []Change {
	var out []Change
	b.collect(nil, &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func (b *Block) collect(prefix []string, out *[]Change) {
	for attr := range b.dirty {
		p := append(append([]string{}, prefix...), attr)
		*out = append(*out, Change{Path: p, Value: b.Attributes[attr]})
	}
	for name, child := range b.Blocks {
		child.collect(append(append([]string{}, prefix...), name), out)
	}
}

// Commit forgets pending changes once they have been persisted.
func (b *Block) Commit() {
	b.dirty = nil
	for _, child := range b.Blocks {
		child.Commit()
	}
}
