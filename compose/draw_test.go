package compose

import (
	"errors"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benoitkugler/okcompose/config"
	"github.com/benoitkugler/okcompose/measure"
)

// recorder is a protocol conformant backend recording every operation,
// used to check the walk without any serialization involved.
type recorder struct {
	w, h     float64
	ops      []string // "push", "pop", "draw"
	scopes   []Scope
	batches  [][]AbsShape
	depth    int
	maxDepth int
	pushes   int
	pops     int
}

func newRecorder(w, h float64) *recorder { return &recorder{w: w, h: h} }

func (r *recorder) Size() (float64, float64) { return r.w, r.h }

func (r *recorder) PushScope(sc Scope) error {
	r.depth++
	r.pushes++
	if r.depth > r.maxDepth {
		r.maxDepth = r.depth
	}
	r.ops = append(r.ops, "push")
	r.scopes = append(r.scopes, sc)
	return nil
}

func (r *recorder) PopScope() error {
	if r.depth == 0 {
		return errors.New("pop on empty scope stack")
	}
	r.depth--
	r.pops++
	r.ops = append(r.ops, "pop")
	return nil
}

func (r *recorder) Draw(shapes []AbsShape) error {
	r.ops = append(r.ops, "draw")
	r.batches = append(r.batches, shapes)
	return nil
}

func (r *recorder) Finalize() error { return nil }

func testSnapshot() config.Snapshot {
	cfg := config.Default()
	cfg.FontSize = 4 // a round em unit for the assertions below
	return cfg
}

func TestDrawResolvesAgainstFrames(t *testing.T) {
	rec := newRecorder(100, 100)
	inner := Compose(NewContext(), FullRectangle()).
		WithBox(measure.Box{X: measure.Mm(10), Y: measure.Mm(10), W: measure.W(0.5), H: measure.H(0.5)})
	root := Compose(NewContext(), inner)

	require.NoError(t, Draw(rec, root, testSnapshot()))
	require.Len(t, rec.batches, 1)
	want := []AbsShape{AbsRectangle{X: 10, Y: 10, W: 50, H: 50}}
	if diff := cmp.Diff(want, rec.batches[0]); diff != "" {
		t.Fatalf("unexpected batch (-want +got):\n%s", diff)
	}
}

func TestDrawUnitBoxGrid(t *testing.T) {
	rec := newRecorder(100, 50)
	// a 10x10 grid: each cell spans a tenth of the frame
	grid := Compose(NewContext(), NewForm(
		Rectangle{X: measure.W(2), Y: measure.H(2), W: measure.W(6), H: measure.H(6)},
	)).WithUnits(measure.UnitBox{Width: 10, Height: 10})
	root := Compose(NewContext(), grid)

	require.NoError(t, Draw(rec, root, testSnapshot()))
	require.Len(t, rec.batches, 1)
	want := []AbsShape{AbsRectangle{X: 20, Y: 10, W: 60, H: 30}}
	if diff := cmp.Diff(want, rec.batches[0]); diff != "" {
		t.Fatalf("unexpected batch (-want +got):\n%s", diff)
	}
}

func TestDrawScopeGrouping(t *testing.T) {
	red := color.RGBA{R: 0xff, A: 0xff}
	rec := newRecorder(10, 10)
	root := Compose(NewContext(),
		Fill(red),
		LineWidth(measure.Mm(1)),
		FullRectangle(),
		Stroke(red),
		Compose(NewContext(), NewCircle(measure.W(0.5), measure.H(0.5), measure.Mm(1))),
	)

	require.NoError(t, Draw(rec, root, testSnapshot()))
	// two runs of properties, so two pushes, both popped when the
	// root context visit returns
	assert.Equal(t, []string{"push", "draw", "push", "draw", "pop", "pop"}, rec.ops)
	require.Len(t, rec.scopes, 2)
	assert.Len(t, rec.scopes[0], 2, "consecutive properties share one scope")
	assert.Len(t, rec.scopes[1], 1)
	assert.Equal(t, ChannelFill, rec.scopes[0][0].Channel)
	assert.Equal(t, ChannelLineWidth, rec.scopes[0][1].Channel)
	assert.Equal(t, ChannelStroke, rec.scopes[1][0].Channel)
}

func TestDrawScopeBalance(t *testing.T) {
	rec := newRecorder(20, 20)
	leaf := Compose(NewContext(), Fill(color.RGBA{A: 0xff}), FullRectangle())
	mid := Compose(NewContext(), Visible(true), leaf, NewCircle(measure.W(0.5), measure.H(0.5), measure.Mm(2)), Stroke(nil))
	root := Compose(NewContext(), LineWidth(measure.Mm(0.5)), mid, mid, leaf)

	require.NoError(t, Draw(rec, root, testSnapshot()))
	assert.Equal(t, rec.pushes, rec.pops, "every push is matched by one pop")
	assert.Zero(t, rec.depth, "no scope left open after the walk")
	assert.Greater(t, rec.maxDepth, 1, "nesting reaches through contexts")
}

func TestDrawPropertyMeasuresResolve(t *testing.T) {
	rec := newRecorder(100, 100)
	root := Compose(NewContext(),
		LineWidth(measure.W(0.1)),
		FontSize(measure.Em(2)),
		FullRectangle(),
	)

	require.NoError(t, Draw(rec, root, testSnapshot()))
	require.Len(t, rec.scopes, 1)
	sc := rec.scopes[0]
	require.Len(t, sc, 2)
	assert.Equal(t, Number{Value: 10}, sc[0].Values[0])
	assert.Equal(t, Number{Value: 8}, sc[1].Values[0], "em resolves against the ambient font size")
}

func TestDrawEmAgainstMissingFontSize(t *testing.T) {
	rec := newRecorder(10, 10)
	root := Compose(NewContext(), NewForm(Rectangle{X: measure.Em(1), W: measure.W(1), H: measure.H(1)}))

	err := Draw(rec, root, config.Snapshot{})
	var ue *measure.UnitError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "font size", ue.Base)
}

func TestDrawInvalidContextBox(t *testing.T) {
	rec := newRecorder(10, 10)
	bad := NewContext().WithBox(measure.Box{W: measure.Mm(-5), H: measure.H(1)})
	err := Draw(rec, Compose(NewContext(), bad), testSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non negative")
}

func TestDrawBackendErrorAborts(t *testing.T) {
	rec := newRecorder(10, 10)
	failing := &failAfter{recorder: rec, allow: 1}
	root := Compose(NewContext(),
		NewCircle(measure.W(0.5), measure.H(0.5), measure.Mm(1)),
		NewCircle(measure.W(0.5), measure.H(0.5), measure.Mm(2)),
		NewCircle(measure.W(0.5), measure.H(0.5), measure.Mm(3)),
	)
	err := Draw(failing, root, testSnapshot())
	require.Error(t, err)
	assert.Len(t, rec.batches, 1, "the walk stops at the first backend error")
}

// failAfter lets `allow` draw calls through then fails.
type failAfter struct {
	*recorder
	allow int
}

func (f *failAfter) Draw(shapes []AbsShape) error {
	if len(f.batches) >= f.allow {
		return errors.New("sink gone")
	}
	return f.recorder.Draw(shapes)
}

func TestDrawSharedSubtree(t *testing.T) {
	// the same context value mounted twice resolves against each
	// parent frame independently
	rec := newRecorder(100, 100)
	shared := Compose(NewContext(), FullRectangle())
	left := Compose(NewContext(), shared).WithBox(measure.Box{W: measure.W(0.5), H: measure.H(1)})
	right := Compose(NewContext(), shared).WithBox(measure.Box{X: measure.W(0.5), W: measure.W(0.5), H: measure.H(1)})
	root := Compose(NewContext(), left, right)

	require.NoError(t, Draw(rec, root, testSnapshot()))
	require.Len(t, rec.batches, 2)
	assert.Equal(t, AbsRectangle{X: 0, Y: 0, W: 50, H: 100}, rec.batches[0][0])
	assert.Equal(t, AbsRectangle{X: 50, Y: 0, W: 50, H: 100}, rec.batches[1][0])
}

func TestDrawTextAndBitmap(t *testing.T) {
	rec := newRecorder(40, 40)
	data := []byte{0x89, 0x50, 0x4e, 0x47}
	root := Compose(NewContext(),
		NewForm(Text{X: measure.Mm(5), Y: measure.Mm(6), Content: "hi", HAlign: HCenter, VAlign: VTop}),
		NewBitmap("image/png", data, measure.Mm(1), measure.Mm(2), measure.Mm(3), measure.Mm(4)),
	)
	require.NoError(t, Draw(rec, root, testSnapshot()))
	require.Len(t, rec.batches, 2)
	assert.Equal(t, AbsText{X: 5, Y: 6, Content: "hi", HAlign: HCenter, VAlign: VTop}, rec.batches[0][0])
	assert.Equal(t, AbsBitmap{Mime: "image/png", Data: data, X: 1, Y: 2, W: 3, H: 4}, rec.batches[1][0])
}
