// Provides unit polymorphic lengths for composing vector graphics.
// A Measure mixes an absolute length with proportions of an ambient
// frame (width units, height units, font size units) and only becomes
// a plain number when resolved against a concrete frame and unit box.
// See for example okcompose/compose or okcompose/svgout .
package measure

import (
	"fmt"
	"strings"
)

// conversion factors to the base unit (millimetres)
const (
	mmPerCm   = 10
	mmPerPt   = 25.4 / 72
	mmPerInch = 25.4
	mmPerPx   = 25.4 / 96 // CSS reference pixel
)

// Measure is a length with one absolute component, expressed in
// millimetres, and three proportional components: W counts width
// units, H counts height units and Em counts font size units of the
// ambient frame. Arithmetic is component wise and never drops a
// component; the value collapses to a number only through Resolve.
type Measure struct {
	Abs float64 // millimetres
	W   float64 // width units
	H   float64 // height units
	Em  float64 // font size units
}

// Mm returns an absolute length of `v` millimetres.
func Mm(v float64) Measure { return Measure{Abs: v} }

// Cm returns an absolute length of `v` centimetres.
func Cm(v float64) Measure { return Measure{Abs: v * mmPerCm} }

// Pt returns an absolute length of `v` typographic points (1/72 inch).
func Pt(v float64) Measure { return Measure{Abs: v * mmPerPt} }

// Inch returns an absolute length of `v` inches.
func Inch(v float64) Measure { return Measure{Abs: v * mmPerInch} }

// Px returns an absolute length of `v` reference pixels (1/96 inch).
func Px(v float64) Measure { return Measure{Abs: v * mmPerPx} }

// W returns a length of `v` width units.
func W(v float64) Measure { return Measure{W: v} }

// H returns a length of `v` height units.
func H(v float64) Measure { return Measure{H: v} }

// Em returns a length of `v` font size units.
func Em(v float64) Measure { return Measure{Em: v} }

// Add returns the component wise sum of m and o.
func (m Measure) Add(o Measure) Measure {
	return Measure{Abs: m.Abs + o.Abs, W: m.W + o.W, H: m.H + o.H, Em: m.Em + o.Em}
}

// Sub returns the component wise difference of m and o.
func (m Measure) Sub(o Measure) Measure {
	return Measure{Abs: m.Abs - o.Abs, W: m.W - o.W, H: m.H - o.H, Em: m.Em - o.Em}
}

// Mul scales every component of m by k. Negative factors are valid
// (used for padding and centering).
func (m Measure) Mul(k float64) Measure {
	return Measure{Abs: m.Abs * k, W: m.W * k, H: m.H * k, Em: m.Em * k}
}

// Div scales every component of m by 1/k.
func (m Measure) Div(k float64) Measure { return m.Mul(1 / k) }

// Neg returns m scaled by -1.
func (m Measure) Neg() Measure { return m.Mul(-1) }

// IsAbsolute reports whether m has no proportional component, so that
// it resolves without any ambient frame.
func (m Measure) IsAbsolute() bool { return m.W == 0 && m.H == 0 && m.Em == 0 }

// IsZero reports whether every component of m is zero.
func (m Measure) IsZero() bool { return m == Measure{} }

func (m Measure) String() string {
	var chunks []string
	if m.Abs != 0 {
		chunks = append(chunks, fmt.Sprintf("%gmm", m.Abs))
	}
	if m.W != 0 {
		chunks = append(chunks, fmt.Sprintf("%gw", m.W))
	}
	if m.H != 0 {
		chunks = append(chunks, fmt.Sprintf("%gh", m.H))
	}
	if m.Em != 0 {
		chunks = append(chunks, fmt.Sprintf("%gem", m.Em))
	}
	if len(chunks) == 0 {
		return "0"
	}
	return strings.Join(chunks, " + ")
}

// UnitError is returned when resolving a Measure that references a
// proportional base missing from the ambient frame, such as a font
// relative length with no font size known. It is a programming error:
// resolution fails fast instead of defaulting to zero.
type UnitError struct {
	Measure Measure
	Base    string // "width", "height" or "font size"
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("measure: cannot resolve %s: no ambient %s unit", e.Measure, e.Base)
}

// Resolve evaluates m against a concrete frame and unit box, in
// millimetres. The absolute component passes through unchanged; each
// proportional component multiplies the span of one matching unit.
// Resolution is pure and additive: resolving a+b equals resolving a
// plus resolving b under the same frame.
func (m Measure) Resolve(frame Rect, units UnitBox) (float64, error) {
	v := m.Abs
	if m.W != 0 {
		if units.Width == 0 {
			return 0, &UnitError{m, "width"}
		}
		v += m.W * frame.W / units.Width
	}
	if m.H != 0 {
		if units.Height == 0 {
			return 0, &UnitError{m, "height"}
		}
		v += m.H * frame.H / units.Height
	}
	if m.Em != 0 {
		if units.FontSize == 0 {
			return 0, &UnitError{m, "font size"}
		}
		v += m.Em * units.FontSize
	}
	return v, nil
}

// Millimetres resolves an absolute Measure with no ambient frame at
// all. Proportional components fail with a UnitError.
func (m Measure) Millimetres() (float64, error) {
	return m.Resolve(Rect{}, UnitBox{})
}

// IncomparableError is returned by Cmp for Measures whose order would
// depend on the ambient frame.
type IncomparableError struct {
	A, B Measure
}

func (e *IncomparableError) Error() string {
	return fmt.Sprintf("measure: %s and %s are not comparable", e.A, e.B)
}

// Cmp orders two unresolved Measures: -1 if a < b, 0 if equal, +1 if
// a > b. Since frames, unit spans and font sizes are never negative,
// the order is known exactly when every non zero component of a-b has
// the same sign; any other pair fails loudly with an
// IncomparableError instead of guessing.
func Cmp(a, b Measure) (int, error) {
	d := a.Sub(b)
	sign := 0
	for _, c := range [4]float64{d.Abs, d.W, d.H, d.Em} {
		s := 0
		if c > 0 {
			s = 1
		} else if c < 0 {
			s = -1
		}
		if s == 0 {
			continue
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return 0, &IncomparableError{a, b}
		}
	}
	return sign, nil
}

// Max returns the larger of a and b, or an error if they are not
// comparable.
func Max(a, b Measure) (Measure, error) {
	c, err := Cmp(a, b)
	if err != nil {
		return Measure{}, err
	}
	if c >= 0 {
		return a, nil
	}
	return b, nil
}
