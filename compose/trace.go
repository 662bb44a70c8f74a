package compose

import "math"

// Tracer receives the outline of a resolved shape as move, line,
// cubic and close commands, in millimetres. Print and raster backends
// adapt their path machinery to it; the markup backend uses it to
// build path data.
type Tracer interface {
	// Start opens a new sub path at (x, y).
	Start(x, y float64)

	// Line extends the current sub path to (x, y).
	Line(x, y float64)

	// Cubic extends the current sub path with a cubic bezier curve.
	Cubic(c1x, c1y, c2x, c2y, x, y float64)

	// Close joins the current sub path back to its start point.
	Close()
}

// control point offset turning a quarter arc into a cubic bezier
const kappa = 0.5522847498307933

// Trace walks the outline of s into t. Closed shapes end with Close;
// line batches trace one open sub path per finite run, dropping runs
// of fewer than two points. Text runs and bitmaps have no outline and
// trace nothing: backends draw them natively.
func Trace(s AbsShape, t Tracer) {
	switch s := s.(type) {
	case AbsRectangle:
		t.Start(s.X, s.Y)
		t.Line(s.X+s.W, s.Y)
		t.Line(s.X+s.W, s.Y+s.H)
		t.Line(s.X, s.Y+s.H)
		t.Close()
	case AbsCircle:
		traceEllipse(t, s.CX, s.CY, s.R, s.R)
	case AbsEllipse:
		traceEllipse(t, s.CX, s.CY, s.RX, s.RY)
	case AbsPolygon:
		if len(s.Points) < 2 {
			return
		}
		t.Start(s.Points[0].X, s.Points[0].Y)
		for _, p := range s.Points[1:] {
			t.Line(p.X, p.Y)
		}
		t.Close()
	case AbsLine:
		for _, run := range SplitRuns(s.Points) {
			t.Start(run[0].X, run[0].Y)
			for _, p := range run[1:] {
				t.Line(p.X, p.Y)
			}
		}
	}
}

// traceEllipse draws an axis aligned ellipse as four cubic arcs.
func traceEllipse(t Tracer, cx, cy, rx, ry float64) {
	ox, oy := rx*kappa, ry*kappa
	t.Start(cx+rx, cy)
	t.Cubic(cx+rx, cy+oy, cx+ox, cy+ry, cx, cy+ry)
	t.Cubic(cx-ox, cy+ry, cx-rx, cy+oy, cx-rx, cy)
	t.Cubic(cx-rx, cy-oy, cx-ox, cy-ry, cx, cy-ry)
	t.Cubic(cx+ox, cy-ry, cx+rx, cy-oy, cx+rx, cy)
	t.Close()
}

// SplitRuns cuts points at non finite coordinates (pen lifts) and
// drops the degenerate runs of fewer than two points left over.
func SplitRuns(points []AbsPoint) [][]AbsPoint {
	var runs [][]AbsPoint
	start := 0
	flush := func(end int) {
		if end-start >= 2 {
			runs = append(runs, points[start:end])
		}
	}
	for i, p := range points {
		if !isFinite(p.X) || !isFinite(p.Y) {
			flush(i)
			start = i + 1
		}
	}
	flush(len(points))
	return runs
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
