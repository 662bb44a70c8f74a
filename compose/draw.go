package compose

import (
	"errors"

	"github.com/benoitkugler/okcompose/config"
	"github.com/benoitkugler/okcompose/measure"
)

// Renderer is the contract any output target implements. A document
// is opened by its backend constructor, receives interleaved scope
// and draw operations during one tree walk and is closed by Finalize.
// An instance serves one in flight render at a time; concurrent
// renders need independent instances.
type Renderer interface {
	// Size returns the document frame in millimetres, fixed at
	// construction.
	Size() (w, h float64)

	// PushScope opens a nested style scope holding the batches of sc.
	PushScope(sc Scope) error

	// PopScope closes the innermost scope.
	PopScope() error

	// Draw emits one resolved primitive batch under the live scopes.
	Draw(shapes []AbsShape) error

	// Finalize flushes the deferred document sections, writes the
	// footer and closes the sink if the backend owns it. Calling it
	// twice is a no op.
	Finalize() error
}

// Resetter is the optional capability to rewind a finalized document
// back to an open, empty one. Backends writing to a sink that cannot
// be rewound report an error instead of implementing it partially.
type Resetter interface {
	Reset() error
}

// ErrUnsupported reports a backend capability missing in this
// environment, surfaced at construction time, before any drawing.
var ErrUnsupported = errors.New("compose: unsupported backend operation")

// Draw resolves root against the renderer's frame and streams the
// tree through r in one depth first walk. cfg fixes the ambient
// defaults; in particular the root font size unit comes from it. The
// walk leaves r ready for Finalize, it does not call it itself.
//
// The walk is strictly nested: every scope pushed while visiting a
// context is popped before the visit returns, and a form is drawn
// under exactly the scopes live at the moment it is met.
func Draw(r Renderer, root *Context, cfg config.Snapshot) error {
	w, h := r.Size()
	frame := measure.Rect{W: w, H: h}
	units := measure.UnitBox{Width: 1, Height: 1, FontSize: cfg.FontSize}
	return drawContext(r, root, frame, units)
}

func drawContext(r Renderer, c *Context, parent measure.Rect, parentUnits measure.UnitBox) error {
	frame, err := c.box.Resolve(parent, parentUnits)
	if err != nil {
		return err
	}
	units := c.units.Over(parentUnits)

	pushed := 0
	for i := 0; i < len(c.children); {
		switch child := c.children[i].(type) {
		case Property:
			// a run of consecutive properties becomes one scope
			var sc Scope
			for ; i < len(c.children); i++ {
				p, ok := c.children[i].(Property)
				if !ok {
					break
				}
				rp, err := p.resolve(frame, units)
				if err != nil {
					return err
				}
				sc = append(sc, rp)
			}
			if err := r.PushScope(sc); err != nil {
				return err
			}
			pushed++
		case Form:
			shapes := make([]AbsShape, len(child.shapes))
			for j, s := range child.shapes {
				if shapes[j], err = s.resolve(frame, units); err != nil {
					return err
				}
			}
			if err := r.Draw(shapes); err != nil {
				return err
			}
			i++
		case *Context:
			if err := drawContext(r, child, frame, units); err != nil {
				return err
			}
			i++
		default:
			// Empty never survives Compose, but stray ones are inert
			i++
		}
	}

	for ; pushed > 0; pushed-- {
		if err := r.PopScope(); err != nil {
			return err
		}
	}
	return nil
}
