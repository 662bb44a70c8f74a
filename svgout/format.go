package svgout

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/benoitkugler/okcompose/compose"
)

// coord formats a length in millimetres at the document precision of
// 0.01, trimming trailing zeros so round values stay short.
func coord(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}

// paintString renders a fill or stroke value; nil and fully
// transparent colors disable painting.
func paintString(c color.Color) string {
	if c == nil {
		return "none"
	}
	r, g, b, a := c.RGBA()
	if a == 0 {
		return "none"
	}
	// un-premultiply to 8 bit channels
	r8 := uint8((r * 0xffff / a) >> 8)
	g8 := uint8((g * 0xffff / a) >> 8)
	b8 := uint8((b * 0xffff / a) >> 8)
	if a == 0xffff {
		return fmt.Sprintf("#%02x%02x%02x", r8, g8, b8)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", r8, g8, b8, coord(float64(a)/0xffff))
}

func dashString(pattern []float64) string {
	if len(pattern) == 0 {
		return "none"
	}
	parts := make([]string, len(pattern))
	for i, p := range pattern {
		parts[i] = coord(p)
	}
	return strings.Join(parts, ",")
}

func capString(c compose.CapMode) string {
	switch c {
	case compose.RoundCap:
		return "round"
	case compose.SquareCap:
		return "square"
	default:
		return "butt"
	}
}

func joinString(j compose.JoinMode) string {
	switch j {
	case compose.RoundJoin:
		return "round"
	case compose.BevelJoin:
		return "bevel"
	default:
		return "miter"
	}
}

// anchorString maps horizontal alignment to text-anchor, empty for
// the markup default.
func anchorString(a compose.HAlign) string {
	switch a {
	case compose.HCenter:
		return "middle"
	case compose.HRight:
		return "end"
	default:
		return ""
	}
}

// baselineString maps vertical alignment to dominant-baseline, empty
// for the markup default.
func baselineString(v compose.VAlign) string {
	switch v {
	case compose.VCenter:
		return "central"
	case compose.VTop:
		return "hanging"
	default:
		return ""
	}
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// escape guards attribute values and character data.
func escape(s string) string { return escaper.Replace(s) }

// pathTracer accumulates outline steps as path data. It implements
// compose.Tracer.
type pathTracer struct {
	b strings.Builder
}

func (p *pathTracer) Start(x, y float64) {
	p.sep()
	fmt.Fprintf(&p.b, "M %s %s", coord(x), coord(y))
}

func (p *pathTracer) Line(x, y float64) {
	p.sep()
	fmt.Fprintf(&p.b, "L %s %s", coord(x), coord(y))
}

func (p *pathTracer) Cubic(c1x, c1y, c2x, c2y, x, y float64) {
	p.sep()
	fmt.Fprintf(&p.b, "C %s %s %s %s %s %s",
		coord(c1x), coord(c1y), coord(c2x), coord(c2y), coord(x), coord(y))
}

func (p *pathTracer) Close() {
	p.sep()
	p.b.WriteByte('Z')
}

func (p *pathTracer) sep() {
	if p.b.Len() > 0 {
		p.b.WriteByte(' ')
	}
}

func (p *pathTracer) String() string { return p.b.String() }
