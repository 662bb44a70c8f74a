package measure

import "fmt"

// Rect is a resolved, axis aligned rectangle in millimetres.
type Rect struct {
	X, Y, W, H float64
}

// UnitBox fixes the meaning of one relative unit for a subtree: Width
// and Height are the number of width (resp. height) units spanning the
// local frame, FontSize is the span of one font size unit in
// millimetres. A zero field inherits the surrounding value.
//
// The default root unit box uses Width = 1 and Height = 1, so that 1w
// is the full frame width; a context redefining Width = 10 turns its
// subtree into a ten column grid.
type UnitBox struct {
	Width, Height float64
	FontSize      float64 // millimetres
}

// Over returns u with its zero fields replaced by the parent's,
// implementing unit box inheritance down the context tree.
func (u UnitBox) Over(parent UnitBox) UnitBox {
	if u.Width == 0 {
		u.Width = parent.Width
	}
	if u.Height == 0 {
		u.Height = parent.Height
	}
	if u.FontSize == 0 {
		u.FontSize = parent.FontSize
	}
	return u
}

// Box is an axis aligned rectangle expressed in Measures, the unit of
// coordinate space nesting: a context's Box places it within its
// immediate parent.
type Box struct {
	X, Y, W, H Measure
}

// FullBox returns the box spanning its whole parent frame.
func FullBox() Box { return Box{W: W(1), H: H(1)} }

// Resolve evaluates b against the parent's resolved frame: the origin
// offsets the parent origin, width and height must come out non
// negative. Resolution is strictly local, never against an ancestor
// further up.
func (b Box) Resolve(parent Rect, units UnitBox) (Rect, error) {
	x, err := b.X.Resolve(parent, units)
	if err != nil {
		return Rect{}, err
	}
	y, err := b.Y.Resolve(parent, units)
	if err != nil {
		return Rect{}, err
	}
	w, err := b.W.Resolve(parent, units)
	if err != nil {
		return Rect{}, err
	}
	h, err := b.H.Resolve(parent, units)
	if err != nil {
		return Rect{}, err
	}
	if w < 0 {
		return Rect{}, fmt.Errorf("measure: box width %s resolves to %g, must be non negative", b.W, w)
	}
	if h < 0 {
		return Rect{}, fmt.Errorf("measure: box height %s resolves to %g, must be non negative", b.H, h)
	}
	return Rect{X: parent.X + x, Y: parent.Y + y, W: w, H: h}, nil
}
