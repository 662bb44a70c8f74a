package compose

import (
	"image/color"

	"github.com/benoitkugler/okcompose/measure"
)

// Channel identifies one style channel. A Property batch declares
// values for exactly one channel; batches of different channels never
// shadow each other.
type Channel uint8

const (
	ChannelFill Channel = iota
	ChannelStroke
	ChannelLineWidth
	ChannelDash
	ChannelLineCap
	ChannelLineJoin
	ChannelFillOpacity
	ChannelStrokeOpacity
	ChannelVisibility
	ChannelClip
	ChannelFontFamily
	ChannelFontSize
	ChannelID
	ChannelClass
	ChannelAttribute
	ChannelScript
	ChannelEmbed

	// ChannelCount bounds the enum for tables indexed by Channel.
	ChannelCount
)

func (c Channel) String() string {
	switch c {
	case ChannelFill:
		return "fill"
	case ChannelStroke:
		return "stroke"
	case ChannelLineWidth:
		return "line width"
	case ChannelDash:
		return "dash"
	case ChannelLineCap:
		return "line cap"
	case ChannelLineJoin:
		return "line join"
	case ChannelFillOpacity:
		return "fill opacity"
	case ChannelStrokeOpacity:
		return "stroke opacity"
	case ChannelVisibility:
		return "visibility"
	case ChannelClip:
		return "clip"
	case ChannelFontFamily:
		return "font family"
	case ChannelFontSize:
		return "font size"
	case ChannelID:
		return "id"
	case ChannelClass:
		return "class"
	case ChannelAttribute:
		return "attribute"
	case ChannelScript:
		return "script"
	case ChannelEmbed:
		return "embed"
	default:
		return "<unknown Channel>"
	}
}

// CapMode defines how stroked line ends are drawn.
type CapMode uint8

const (
	ButtCap CapMode = iota // default value
	RoundCap
	SquareCap
)

func (c CapMode) String() string {
	switch c {
	case ButtCap:
		return "ButtCap"
	case RoundCap:
		return "RoundCap"
	case SquareCap:
		return "SquareCap"
	default:
		return "<unknown CapMode>"
	}
}

// JoinMode defines how stroke segments bridge the gap at a join.
type JoinMode uint8

const (
	MiterJoin JoinMode = iota // default value
	RoundJoin
	BevelJoin
)

func (j JoinMode) String() string {
	switch j {
	case MiterJoin:
		return "MiterJoin"
	case RoundJoin:
		return "RoundJoin"
	case BevelJoin:
		return "BevelJoin"
	default:
		return "<unknown JoinMode>"
	}
}

// Style is one resolved style declaration, as stored on the scope
// stack and dispatched over by backends. The variant set is closed:
// Paint, Number, DashPattern, CapMode, JoinMode, Toggle, ClipPath,
// Str and Asset; the channel of the enclosing batch fixes the
// meaning of the payload.
type Style interface {
	style()
}

// Paint is a fill or stroke color; nil disables the operation.
type Paint struct {
	Color color.Color
}

// Number is a resolved numeric value: a length in millimetres for the
// line width and font size channels, a ratio in [0, 1] for opacities.
type Number struct {
	Value float64
}

// DashPattern is a stroke dash sequence in millimetres; an empty
// pattern strokes solid.
type DashPattern struct {
	Pattern []float64
}

// Toggle is a boolean channel value (visibility).
type Toggle struct {
	On bool
}

// ClipPath is a resolved clip polygon. Backends deduplicate clip
// definitions by geometric identity.
type ClipPath struct {
	Points []AbsPoint
}

// Str is a plain string value: font family, element id or class, raw
// attribute value or script fragment body.
type Str struct {
	Value string
}

// Asset is a raw document asset: Source is inlined under the embed
// script mode, Ref locates it under the link modes. Each distinct
// asset is emitted at most once per document.
type Asset struct {
	Ref, Source string
}

func (Paint) style()       {}
func (Number) style()      {}
func (DashPattern) style() {}
func (CapMode) style()     {}
func (JoinMode) style()    {}
func (Toggle) style()      {}
func (ClipPath) style()    {}
func (Str) style()         {}
func (Asset) style()       {}

// a property batch keeps its values unresolved until the walk reaches
// the owning context
type propValue interface {
	resolveValue(frame measure.Rect, units measure.UnitBox) (Style, error)
}

// litValue carries channels with nothing left to resolve.
type litValue struct {
	s Style
}

func (v litValue) resolveValue(measure.Rect, measure.UnitBox) (Style, error) {
	return v.s, nil
}

// lengthValue resolves one Measure into a Number.
type lengthValue struct {
	m measure.Measure
}

func (v lengthValue) resolveValue(frame measure.Rect, units measure.UnitBox) (Style, error) {
	x, err := v.m.Resolve(frame, units)
	if err != nil {
		return nil, err
	}
	return Number{Value: x}, nil
}

// dashValue resolves a dash sequence of Measures.
type dashValue struct {
	pattern []measure.Measure
}

func (v dashValue) resolveValue(frame measure.Rect, units measure.UnitBox) (Style, error) {
	out := make([]float64, len(v.pattern))
	for i, m := range v.pattern {
		x, err := m.Resolve(frame, units)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return DashPattern{Pattern: out}, nil
}

// clipValue resolves a clip polygon. The points resolve in the frame
// of the context declaring the clip, like a form would.
type clipValue struct {
	points []Point
}

func (v clipValue) resolveValue(frame measure.Rect, units measure.UnitBox) (Style, error) {
	pts, err := resolvePoints(v.points, frame, units)
	if err != nil {
		return nil, err
	}
	return ClipPath{Points: pts}, nil
}

// Property is an immutable ordered batch of values for one style
// channel. A batch of exactly one value is scalar and styles a whole
// form; a longer batch is vector and styles one primitive per value,
// index aligned.
type Property struct {
	channel Channel
	attr    string // ChannelAttribute only
	values  []propValue
}

func (Property) node() {}

// Channel returns the style channel the batch declares.
func (p Property) Channel() Channel { return p.channel }

// Scalar reports whether the batch holds exactly one value.
func (p Property) Scalar() bool { return len(p.values) == 1 }

// Len returns the number of values in the batch.
func (p Property) Len() int { return len(p.values) }

// resolve evaluates every value of the batch against the frame of the
// context pushing it.
func (p Property) resolve(frame measure.Rect, units measure.UnitBox) (ResolvedProperty, error) {
	out := ResolvedProperty{Channel: p.channel, AttrName: p.attr, Values: make([]Style, len(p.values))}
	for i, v := range p.values {
		s, err := v.resolveValue(frame, units)
		if err != nil {
			return ResolvedProperty{}, err
		}
		out.Values[i] = s
	}
	return out, nil
}

// Fill declares fill colors; a nil color disables filling.
func Fill(colors ...color.Color) Property {
	vals := make([]propValue, len(colors))
	for i, c := range colors {
		vals[i] = litValue{Paint{Color: c}}
	}
	return Property{channel: ChannelFill, values: vals}
}

// Stroke declares stroke colors; a nil color disables stroking.
func Stroke(colors ...color.Color) Property {
	vals := make([]propValue, len(colors))
	for i, c := range colors {
		vals[i] = litValue{Paint{Color: c}}
	}
	return Property{channel: ChannelStroke, values: vals}
}

// LineWidth declares stroke widths.
func LineWidth(widths ...measure.Measure) Property {
	vals := make([]propValue, len(widths))
	for i, w := range widths {
		vals[i] = lengthValue{w}
	}
	return Property{channel: ChannelLineWidth, values: vals}
}

// Dash declares stroke dash sequences; an empty sequence strokes
// solid.
func Dash(patterns ...[]measure.Measure) Property {
	vals := make([]propValue, len(patterns))
	for i, p := range patterns {
		own := make([]measure.Measure, len(p))
		copy(own, p)
		vals[i] = dashValue{own}
	}
	return Property{channel: ChannelDash, values: vals}
}

// LineCap declares stroke end caps.
func LineCap(caps ...CapMode) Property {
	vals := make([]propValue, len(caps))
	for i, c := range caps {
		vals[i] = litValue{c}
	}
	return Property{channel: ChannelLineCap, values: vals}
}

// LineJoin declares stroke joins.
func LineJoin(joins ...JoinMode) Property {
	vals := make([]propValue, len(joins))
	for i, j := range joins {
		vals[i] = litValue{j}
	}
	return Property{channel: ChannelLineJoin, values: vals}
}

// FillOpacity declares fill opacities, in [0, 1].
func FillOpacity(values ...float64) Property {
	vals := make([]propValue, len(values))
	for i, v := range values {
		vals[i] = litValue{Number{Value: v}}
	}
	return Property{channel: ChannelFillOpacity, values: vals}
}

// StrokeOpacity declares stroke opacities, in [0, 1].
func StrokeOpacity(values ...float64) Property {
	vals := make([]propValue, len(values))
	for i, v := range values {
		vals[i] = litValue{Number{Value: v}}
	}
	return Property{channel: ChannelStrokeOpacity, values: vals}
}

// Visible declares visibility flags. Hidden subtrees still traverse:
// visibility is a style, not a structural cut.
func Visible(flags ...bool) Property {
	vals := make([]propValue, len(flags))
	for i, f := range flags {
		vals[i] = litValue{Toggle{On: f}}
	}
	return Property{channel: ChannelVisibility, values: vals}
}

// Clip declares clip polygons, resolved against the declaring
// context.
func Clip(polygons ...[]Point) Property {
	vals := make([]propValue, len(polygons))
	for i, poly := range polygons {
		own := make([]Point, len(poly))
		copy(own, poly)
		vals[i] = clipValue{own}
	}
	return Property{channel: ChannelClip, values: vals}
}

// Font declares font family lists, such as "Helvetica,sans-serif".
func Font(families ...string) Property {
	return strProperty(ChannelFontFamily, families)
}

// FontSize declares font sizes. The size styles text rendering only;
// the span of one em unit stays fixed by the context unit boxes.
func FontSize(sizes ...measure.Measure) Property {
	vals := make([]propValue, len(sizes))
	for i, s := range sizes {
		vals[i] = lengthValue{s}
	}
	return Property{channel: ChannelFontSize, values: vals}
}

// ID declares element identifiers (markup backends only).
func ID(ids ...string) Property {
	return strProperty(ChannelID, ids)
}

// Class declares element classes (markup backends only).
func Class(classes ...string) Property {
	return strProperty(ChannelClass, classes)
}

// Attr declares a raw markup attribute. Batches of distinct attribute
// names coexist; batches of the same name shadow like any channel.
func Attr(name string, values ...string) Property {
	p := strProperty(ChannelAttribute, values)
	p.attr = name
	return p
}

// Script attaches event handler bodies to the styled elements. The
// backend assigns each fragment a unique function name at attachment
// time and consolidates all fragments into a single trailing block.
func Script(handlers ...string) Property {
	return strProperty(ChannelScript, handlers)
}

// Embed registers a raw script asset for the document: inlined,
// linked or dropped depending on the configured script mode. Each
// distinct asset is emitted at most once per document.
func Embed(ref, source string) Property {
	return Property{channel: ChannelEmbed, values: []propValue{litValue{Asset{Ref: ref, Source: source}}}}
}

func strProperty(ch Channel, values []string) Property {
	vals := make([]propValue, len(values))
	for i, v := range values {
		vals[i] = litValue{Str{Value: v}}
	}
	return Property{channel: ch, values: vals}
}
