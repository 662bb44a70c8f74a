package compose

import (
	"math"

	"github.com/benoitkugler/okcompose/measure"
)

// Point locates a position within a context, in Measures.
type Point struct {
	X, Y measure.Measure
}

// XY is shorthand for a point at (x, y).
func XY(x, y measure.Measure) Point { return Point{X: x, Y: y} }

// PenUp returns a line point with non finite coordinates, splitting a
// line batch into independent sub paths at that position.
func PenUp() Point {
	nan := measure.Mm(math.NaN())
	return Point{X: nan, Y: nan}
}

// Shape is one geometric primitive with its parameters still in
// Measures. The variant set is closed: Rectangle, Circle, Ellipse,
// Polygon, Line, Text and Bitmap.
type Shape interface {
	// resolve maps the shape onto the absolute frame of its context.
	resolve(frame measure.Rect, units measure.UnitBox) (AbsShape, error)
}

// Rectangle is an axis aligned rectangle.
type Rectangle struct {
	X, Y, W, H measure.Measure
}

// Circle is a circle of radius R centered on (CX, CY).
type Circle struct {
	CX, CY, R measure.Measure
}

// Ellipse is an axis aligned ellipse centered on (CX, CY).
type Ellipse struct {
	CX, CY, RX, RY measure.Measure
}

// Polygon is a closed polygon.
type Polygon struct {
	Points []Point
}

// Line is an open polyline. Non finite coordinates lift the pen: the
// batch splits into sub paths there, and sub paths of fewer than two
// points are dropped.
type Line struct {
	Points []Point
}

// HAlign anchors a text run horizontally on its position.
type HAlign uint8

const (
	HLeft HAlign = iota // default value
	HCenter
	HRight
)

func (a HAlign) String() string {
	switch a {
	case HLeft:
		return "HLeft"
	case HCenter:
		return "HCenter"
	case HRight:
		return "HRight"
	default:
		return "<unknown HAlign>"
	}
}

// VAlign anchors a text run vertically on its position.
type VAlign uint8

const (
	VBottom VAlign = iota // default value
	VCenter
	VTop
)

func (a VAlign) String() string {
	switch a {
	case VBottom:
		return "VBottom"
	case VCenter:
		return "VCenter"
	case VTop:
		return "VTop"
	default:
		return "<unknown VAlign>"
	}
}

// Text is a single text run anchored on (X, Y). Its font comes from
// the live font family and font size channels.
type Text struct {
	X, Y    measure.Measure
	Content string
	HAlign  HAlign
	VAlign  VAlign
}

// Bitmap places raw encoded image data (Mime such as "image/png")
// into the rectangle (X, Y, W, H).
type Bitmap struct {
	Mime       string
	Data       []byte
	X, Y, W, H measure.Measure
}

func (s Rectangle) resolve(frame measure.Rect, units measure.UnitBox) (AbsShape, error) {
	x, y, err := resolvePair(s.X, s.Y, frame, units)
	if err != nil {
		return nil, err
	}
	w, h, err := resolvePair(s.W, s.H, frame, units)
	if err != nil {
		return nil, err
	}
	return AbsRectangle{X: frame.X + x, Y: frame.Y + y, W: w, H: h}, nil
}

func (s Circle) resolve(frame measure.Rect, units measure.UnitBox) (AbsShape, error) {
	cx, cy, err := resolvePair(s.CX, s.CY, frame, units)
	if err != nil {
		return nil, err
	}
	r, err := s.R.Resolve(frame, units)
	if err != nil {
		return nil, err
	}
	return AbsCircle{CX: frame.X + cx, CY: frame.Y + cy, R: r}, nil
}

func (s Ellipse) resolve(frame measure.Rect, units measure.UnitBox) (AbsShape, error) {
	cx, cy, err := resolvePair(s.CX, s.CY, frame, units)
	if err != nil {
		return nil, err
	}
	rx, ry, err := resolvePair(s.RX, s.RY, frame, units)
	if err != nil {
		return nil, err
	}
	return AbsEllipse{CX: frame.X + cx, CY: frame.Y + cy, RX: rx, RY: ry}, nil
}

func (s Polygon) resolve(frame measure.Rect, units measure.UnitBox) (AbsShape, error) {
	pts, err := resolvePoints(s.Points, frame, units)
	if err != nil {
		return nil, err
	}
	return AbsPolygon{Points: pts}, nil
}

func (s Line) resolve(frame measure.Rect, units measure.UnitBox) (AbsShape, error) {
	pts, err := resolvePoints(s.Points, frame, units)
	if err != nil {
		return nil, err
	}
	return AbsLine{Points: pts}, nil
}

func (s Text) resolve(frame measure.Rect, units measure.UnitBox) (AbsShape, error) {
	x, y, err := resolvePair(s.X, s.Y, frame, units)
	if err != nil {
		return nil, err
	}
	return AbsText{X: frame.X + x, Y: frame.Y + y, Content: s.Content, HAlign: s.HAlign, VAlign: s.VAlign}, nil
}

func (s Bitmap) resolve(frame measure.Rect, units measure.UnitBox) (AbsShape, error) {
	x, y, err := resolvePair(s.X, s.Y, frame, units)
	if err != nil {
		return nil, err
	}
	w, h, err := resolvePair(s.W, s.H, frame, units)
	if err != nil {
		return nil, err
	}
	return AbsBitmap{Mime: s.Mime, Data: s.Data, X: frame.X + x, Y: frame.Y + y, W: w, H: h}, nil
}

func resolvePair(a, b measure.Measure, frame measure.Rect, units measure.UnitBox) (float64, float64, error) {
	ra, err := a.Resolve(frame, units)
	if err != nil {
		return 0, 0, err
	}
	rb, err := b.Resolve(frame, units)
	if err != nil {
		return 0, 0, err
	}
	return ra, rb, nil
}

func resolvePoints(points []Point, frame measure.Rect, units measure.UnitBox) ([]AbsPoint, error) {
	out := make([]AbsPoint, len(points))
	for i, p := range points {
		x, y, err := resolvePair(p.X, p.Y, frame, units)
		if err != nil {
			return nil, err
		}
		out[i] = AbsPoint{X: frame.X + x, Y: frame.Y + y}
	}
	return out, nil
}

// AbsPoint is a resolved position in millimetres.
type AbsPoint struct {
	X, Y float64
}

// AbsShape is a Shape resolved against its context frame, the payload
// of the backend draw operation. The variant set mirrors Shape.
type AbsShape interface {
	absShape()
}

type AbsRectangle struct {
	X, Y, W, H float64
}

type AbsCircle struct {
	CX, CY, R float64
}

type AbsEllipse struct {
	CX, CY, RX, RY float64
}

type AbsPolygon struct {
	Points []AbsPoint
}

type AbsLine struct {
	Points []AbsPoint
}

type AbsText struct {
	X, Y    float64
	Content string
	HAlign  HAlign
	VAlign  VAlign
}

type AbsBitmap struct {
	Mime       string
	Data       []byte
	X, Y, W, H float64
}

func (AbsRectangle) absShape() {}
func (AbsCircle) absShape()    {}
func (AbsEllipse) absShape()   {}
func (AbsPolygon) absShape()   {}
func (AbsLine) absShape()      {}
func (AbsText) absShape()      {}
func (AbsBitmap) absShape()    {}

// NewRectangle returns a form holding one rectangle.
func NewRectangle(x, y, w, h measure.Measure) Form {
	return NewForm(Rectangle{X: x, Y: y, W: w, H: h})
}

// FullRectangle returns a form holding one rectangle covering its
// whole context.
func FullRectangle() Form {
	return NewRectangle(measure.Measure{}, measure.Measure{}, measure.W(1), measure.H(1))
}

// NewCircle returns a form holding one circle.
func NewCircle(cx, cy, r measure.Measure) Form {
	return NewForm(Circle{CX: cx, CY: cy, R: r})
}

// NewEllipse returns a form holding one ellipse.
func NewEllipse(cx, cy, rx, ry measure.Measure) Form {
	return NewForm(Ellipse{CX: cx, CY: cy, RX: rx, RY: ry})
}

// NewLine returns a form holding one polyline.
func NewLine(points ...Point) Form {
	out := make([]Point, len(points))
	copy(out, points)
	return NewForm(Line{Points: out})
}

// NewPolygon returns a form holding one closed polygon.
func NewPolygon(points ...Point) Form {
	out := make([]Point, len(points))
	copy(out, points)
	return NewForm(Polygon{Points: out})
}

// NewText returns a form holding one text run with default alignment
// (left, bottom). Use a Text literal for other anchors.
func NewText(x, y measure.Measure, content string) Form {
	return NewForm(Text{X: x, Y: y, Content: content})
}

// NewBitmap returns a form placing one encoded image.
func NewBitmap(mime string, data []byte, x, y, w, h measure.Measure) Form {
	return NewForm(Bitmap{Mime: mime, Data: data, X: x, Y: y, W: w, H: h})
}
