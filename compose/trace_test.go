package compose

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

type tracerLog struct {
	steps []string
}

func (l *tracerLog) Start(x, y float64) { l.steps = append(l.steps, fmt.Sprintf("M %g %g", x, y)) }
func (l *tracerLog) Line(x, y float64)  { l.steps = append(l.steps, fmt.Sprintf("L %g %g", x, y)) }
func (l *tracerLog) Cubic(c1x, c1y, c2x, c2y, x, y float64) {
	l.steps = append(l.steps, fmt.Sprintf("C %g %g %g %g %g %g", c1x, c1y, c2x, c2y, x, y))
}
func (l *tracerLog) Close() { l.steps = append(l.steps, "Z") }

func TestTraceRectangle(t *testing.T) {
	var log tracerLog
	Trace(AbsRectangle{X: 1, Y: 2, W: 10, H: 20}, &log)
	want := []string{"M 1 2", "L 11 2", "L 11 22", "L 1 22", "Z"}
	if diff := cmp.Diff(want, log.steps); diff != "" {
		t.Errorf("rectangle outline mismatch (-want +got):\n%s", diff)
	}
}

func TestTraceCircle(t *testing.T) {
	var log tracerLog
	Trace(AbsCircle{CX: 0, CY: 0, R: 10}, &log)
	assert.Len(t, log.steps, 6, "start, four arcs, close")
	assert.Equal(t, "M 10 0", log.steps[0])
	assert.Equal(t, "Z", log.steps[5])

	// the first quarter arc ends due south with kappa scaled controls
	o := 10 * kappa
	assert.Equal(t, fmt.Sprintf("C %g %g %g %g %g %g", 10.0, o, o, 10.0, 0.0, 10.0), log.steps[1])
}

func TestTraceEllipseRadii(t *testing.T) {
	var log tracerLog
	Trace(AbsEllipse{CX: 5, CY: 5, RX: 4, RY: 2}, &log)
	assert.Equal(t, "M 9 5", log.steps[0])
	assert.Equal(t, fmt.Sprintf("C %g %g %g %g %g %g", 9.0, 5+2*kappa, 5+4*kappa, 7.0, 5.0, 7.0), log.steps[1])
}

func TestTracePolygon(t *testing.T) {
	var log tracerLog
	Trace(AbsPolygon{Points: []AbsPoint{{0, 0}, {4, 0}, {2, 3}}}, &log)
	want := []string{"M 0 0", "L 4 0", "L 2 3", "Z"}
	assert.Equal(t, want, log.steps)

	log.steps = nil
	Trace(AbsPolygon{Points: []AbsPoint{{1, 1}}}, &log)
	assert.Empty(t, log.steps, "degenerate polygons trace nothing")
}

func TestTraceLineRuns(t *testing.T) {
	nan := math.NaN()
	var log tracerLog
	Trace(AbsLine{Points: []AbsPoint{
		{0, 0}, {1, 1},
		{nan, nan},
		{5, 5}, {6, 5}, {7, 5},
	}}, &log)
	want := []string{"M 0 0", "L 1 1", "M 5 5", "L 6 5", "L 7 5"}
	assert.Equal(t, want, log.steps, "a pen lift starts a fresh sub path without closing")
}

func TestTraceSkipsTextAndBitmap(t *testing.T) {
	var log tracerLog
	Trace(AbsText{X: 1, Y: 1, Content: "hi"}, &log)
	Trace(AbsBitmap{X: 0, Y: 0, W: 4, H: 4}, &log)
	assert.Empty(t, log.steps)
}

func TestSplitRuns(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		points []AbsPoint
		want   [][]AbsPoint
	}{
		{"empty", nil, nil},
		{"single run", []AbsPoint{{0, 0}, {1, 0}}, [][]AbsPoint{{{0, 0}, {1, 0}}}},
		{
			"lift in the middle",
			[]AbsPoint{{0, 0}, {1, 0}, {nan, nan}, {2, 2}, {3, 3}},
			[][]AbsPoint{{{0, 0}, {1, 0}}, {{2, 2}, {3, 3}}},
		},
		{
			"short runs dropped",
			[]AbsPoint{{0, 0}, {nan, nan}, {2, 2}, {3, 3}},
			[][]AbsPoint{{{2, 2}, {3, 3}}},
		},
		{"all lifts", []AbsPoint{{nan, 0}, {0, nan}}, nil},
		{
			"trailing lift",
			[]AbsPoint{{0, 0}, {1, 1}, {nan, nan}},
			[][]AbsPoint{{{0, 0}, {1, 1}}},
		},
		{
			"infinite coordinate lifts the pen",
			[]AbsPoint{{0, 0}, {math.Inf(1), 0}, {1, 1}, {2, 2}},
			[][]AbsPoint{{{1, 1}, {2, 2}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitRuns(tt.points)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SplitRuns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
