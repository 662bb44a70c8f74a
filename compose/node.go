// Implements the scene tree of the composition engine: contexts
// nesting coordinate frames, forms batching geometric primitives and
// properties batching style declarations, plus the streaming walk
// resolving the tree into a rendering backend.
// See for example okcompose/svgout or okcompose/pdfout .
package compose

import (
	"github.com/benoitkugler/okcompose/measure"
)

// Node is one vertex of the scene tree. The variant set is closed:
// *Context, Form, Property and Empty.
type Node interface {
	node()
}

// Empty is the null scene node: composing it into a context is a no
// op, it is absorbed rather than stored.
type Empty struct{}

func (Empty) node() {}

// Context introduces a local coordinate frame for its children and,
// optionally, a unit box redefining what one relative unit means for
// its subtree. A context owns its children exclusively; the With*
// methods and Compose return fresh copies instead of mutating, so a
// context value may be reused in several trees.
type Context struct {
	box      measure.Box
	units    measure.UnitBox // zero fields inherit
	minW     measure.Measure // layout hints consumed by parent stack/table layout
	minH     measure.Measure
	hasMinW  bool
	hasMinH  bool
	children []Node
}

func (*Context) node() {}

// NewContext returns a context spanning its whole parent frame.
func NewContext() *Context {
	return &Context{box: measure.FullBox()}
}

// clone returns a copy of c owning a fresh child slice.
func (c *Context) clone() *Context {
	out := *c
	out.children = make([]Node, len(c.children))
	copy(out.children, c.children)
	return &out
}

// WithBox returns a copy of c placed at box within its parent.
func (c *Context) WithBox(box measure.Box) *Context {
	out := c.clone()
	out.box = box
	return out
}

// WithUnits returns a copy of c whose descendants resolve relative
// units against u. Zero fields of u inherit the surrounding value;
// the box of c itself still resolves in the parent's units.
func (c *Context) WithUnits(u measure.UnitBox) *Context {
	out := c.clone()
	out.units = u
	return out
}

// WithMinWidth returns a copy of c carrying a minimum width hint.
func (c *Context) WithMinWidth(m measure.Measure) *Context {
	out := c.clone()
	out.minW, out.hasMinW = m, true
	return out
}

// WithMinHeight returns a copy of c carrying a minimum height hint.
func (c *Context) WithMinHeight(m measure.Measure) *Context {
	out := c.clone()
	out.minH, out.hasMinH = m, true
	return out
}

// Box returns the box placing c within its parent.
func (c *Context) Box() measure.Box { return c.box }

// Units returns the unit box override of c; zero fields inherit.
func (c *Context) Units() measure.UnitBox { return c.units }

// MinWidth returns the minimum width hint of c, if set.
func (c *Context) MinWidth() (measure.Measure, bool) { return c.minW, c.hasMinW }

// MinHeight returns the minimum height hint of c, if set.
func (c *Context) MinHeight() (measure.Measure, bool) { return c.minH, c.hasMinH }

// Children returns the child list of c in composition order, as a
// copy.
func (c *Context) Children() []Node {
	out := make([]Node, len(c.children))
	copy(out, c.children)
	return out
}

// Compose returns a new context holding parent's children followed by
// the given ones, in order. The input context is never mutated: the
// result owns a fresh child list, preserving exclusive ownership even
// when parent is shared between trees. Empty children are absorbed.
// A nil parent starts from NewContext().
func Compose(parent *Context, children ...Node) *Context {
	if parent == nil {
		parent = NewContext()
	}
	out := parent.clone()
	for _, child := range children {
		switch child.(type) {
		case nil, Empty:
			continue
		}
		out.children = append(out.children, child)
	}
	return out
}

// Form is an immutable ordered batch of geometric primitives drawn
// together under whatever style scopes are live where the form sits
// in the tree.
type Form struct {
	shapes []Shape
}

func (Form) node() {}

// NewForm batches shapes into one form. The batch is copied and never
// mutated afterwards.
func NewForm(shapes ...Shape) Form {
	out := make([]Shape, len(shapes))
	copy(out, shapes)
	return Form{shapes: out}
}

// Len returns the number of primitives in the batch.
func (f Form) Len() int { return len(f.shapes) }
