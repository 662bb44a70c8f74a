// Package rasterout renders scenes into pixel images by wrapping
// github.com/srwiley/rasterx. Like the print backend it flattens
// scopes into one computed style per primitive; resolved coordinates
// stay in millimetres and are scaled to pixels by the canvas DPI.
// Clip paths have no scanline implementation and are ignored with a
// warning.
package rasterout

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/srwiley/rasterx"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/benoitkugler/okcompose/compose"
	"github.com/benoitkugler/okcompose/config"
	"github.com/benoitkugler/okcompose/measure"
)

const mmPerInch = 25.4

type options struct {
	log        *zap.Logger
	cfg        config.Snapshot
	dpi        float64
	face       font.Face
	background color.Color
}

// Option adjusts a canvas at construction.
type Option func(*options)

// WithLogger routes backend warnings through log.
func WithLogger(log *zap.Logger) Option { return func(o *options) { o.log = log } }

// WithConfig fixes the ambient style defaults instead of the process
// wide configuration.
func WithConfig(cfg config.Snapshot) Option { return func(o *options) { o.cfg = cfg } }

// WithDPI sets the raster resolution, 96 by default.
func WithDPI(dpi float64) Option { return func(o *options) { o.dpi = dpi } }

// WithFace sets the face drawing text runs. The default is the fixed
// 7x13 face, legible but indifferent to the font channels.
func WithFace(face font.Face) Option { return func(o *options) { o.face = face } }

// WithBackground paints the canvas before drawing; the default is
// fully transparent.
func WithBackground(c color.Color) Option { return func(o *options) { o.background = c } }

// Canvas is an open raster document implementing compose.Renderer.
// The filler and dasher share one scanner: filling and stroking
// alternate, they never rasterize concurrently.
type Canvas struct {
	log *zap.Logger
	cfg config.Snapshot

	img     *image.RGBA
	scanner *rasterx.ScannerGV
	filler  *rasterx.Filler
	dasher  *rasterx.Dasher
	face    font.Face

	dst  io.Writer
	file *os.File
	path string

	wMM, hMM float64
	scale    float64 // pixels per millimetre
	scopes   *compose.ScopeStack
	base     compose.ComputedStyle

	clipWarned bool
	finished   bool
	err        error
}

func newCanvas(width, height measure.Measure, opts []Option) (*Canvas, error) {
	o := options{cfg: config.Default(), dpi: 96, face: basicfont.Face7x13}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	wMM, err := width.Millimetres()
	if err != nil {
		return nil, fmt.Errorf("rasterout: canvas width: %w", err)
	}
	hMM, err := height.Millimetres()
	if err != nil {
		return nil, fmt.Errorf("rasterout: canvas height: %w", err)
	}
	if wMM <= 0 || hMM <= 0 {
		return nil, fmt.Errorf("rasterout: canvas size %gmm x %gmm is not positive", wMM, hMM)
	}
	if o.dpi <= 0 {
		return nil, fmt.Errorf("rasterout: dpi %g is not positive", o.dpi)
	}

	scale := o.dpi / mmPerInch
	w := int(math.Round(wMM * scale))
	h := int(math.Round(hMM * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if o.background != nil {
		xdraw.Draw(img, img.Bounds(), image.NewUniform(o.background), image.Point{}, xdraw.Src)
	}
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())

	return &Canvas{
		log: o.log, cfg: o.cfg,
		img:     img,
		scanner: scanner,
		filler:  rasterx.NewFiller(w, h, scanner),
		dasher:  rasterx.NewDasher(w, h, scanner),
		face:    o.face,
		wMM:     wMM, hMM: hMM, scale: scale,
		scopes: compose.NewScopeStack(o.log),
		base:   compose.BaseStyle(o.cfg),
	}, nil
}

// NewImage opens a canvas rendering to pixels only; Image returns
// them. Width and height must resolve without an ambient box.
func NewImage(width, height measure.Measure, opts ...Option) (*Canvas, error) {
	return newCanvas(width, height, opts)
}

// New opens a canvas encoding itself to w as PNG at Finalize. The
// caller owns w.
func New(w io.Writer, width, height measure.Measure, opts ...Option) (*Canvas, error) {
	c, err := newCanvas(width, height, opts)
	if err != nil {
		return nil, err
	}
	c.dst = w
	return c, nil
}

// Create opens a canvas writing a PNG file at path on Finalize. The
// canvas owns the file.
func Create(path string, width, height measure.Measure, opts ...Option) (*Canvas, error) {
	c, err := newCanvas(width, height, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("rasterout: %w", err)
	}
	c.file = f
	c.dst = f
	c.path = path
	return c, nil
}

// Image returns the canvas pixels. Before Finalize they are a partial
// render.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Size implements compose.Renderer.
func (c *Canvas) Size() (w, h float64) { return c.wMM, c.hMM }

// PushScope implements compose.Renderer.
func (c *Canvas) PushScope(sc compose.Scope) error {
	c.scopes.Push(sc)
	return nil
}

// PopScope implements compose.Renderer.
func (c *Canvas) PopScope() error {
	return c.scopes.Pop()
}

// Draw rasterizes one primitive batch, each primitive under its
// flattened computed style. The batch length contract is checked for
// the whole batch before the first primitive touches a pixel.
func (c *Canvas) Draw(shapes []compose.AbsShape) error {
	n := len(shapes)
	for i := range shapes {
		if _, err := c.scopes.StyleFor(i, n, c.base); err != nil {
			return err
		}
	}
	for i, s := range shapes {
		st, _ := c.scopes.StyleFor(i, n, c.base)
		if !st.Visible {
			continue
		}
		c.primitive(s, st)
	}
	return nil
}

func (c *Canvas) primitive(s compose.AbsShape, st compose.ComputedStyle) {
	if len(st.Clip) > 0 && !c.clipWarned {
		c.clipWarned = true
		c.log.Warn("clip paths are not supported by the raster backend, ignoring")
	}
	switch s := s.(type) {
	case compose.AbsText:
		c.text(s, st)
	case compose.AbsBitmap:
		c.bitmap(s)
	default:
		c.outline(s, st)
	}
}

func (c *Canvas) outline(s compose.AbsShape, st compose.ComputedStyle) {
	if st.Fill != nil && st.FillOpacity > 0 {
		c.scanner.SetColor(rasterx.ApplyOpacity(st.Fill, st.FillOpacity))
		tr := fixedTracer{to: c.filler, scale: c.scale}
		compose.Trace(s, &tr)
		tr.flush()
		c.filler.Draw()
		c.filler.Clear()
	}
	if st.Stroke != nil && st.StrokeOpacity > 0 && st.LineWidth > 0 {
		c.scanner.SetColor(rasterx.ApplyOpacity(st.Stroke, st.StrokeOpacity))
		dashes := make([]float64, len(st.Dash))
		for i, v := range st.Dash {
			dashes[i] = v * c.scale
		}
		c.dasher.SetStroke(
			fixed.Int26_6(st.LineWidth*c.scale*64), fixed.Int26_6(4*64),
			capFuncs[st.Cap], capFuncs[st.Cap], rasterx.FlatGap, joinModes[st.Join],
			dashes, 0,
		)
		tr := fixedTracer{to: c.dasher, scale: c.scale}
		compose.Trace(s, &tr)
		tr.flush()
		c.dasher.Draw()
		c.dasher.Clear()
	}
}

func (c *Canvas) text(s compose.AbsText, st compose.ComputedStyle) {
	if st.Fill == nil || st.FillOpacity == 0 || s.Content == "" {
		return
	}
	dr := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(rasterx.ApplyOpacity(st.Fill, st.FillOpacity)),
		Face: c.face,
	}
	x := s.X * c.scale
	switch s.HAlign {
	case compose.HCenter:
		x -= float64(dr.MeasureString(s.Content)) / 64 / 2
	case compose.HRight:
		x -= float64(dr.MeasureString(s.Content)) / 64
	}
	y := s.Y * c.scale
	asc := float64(c.face.Metrics().Ascent) / 64
	switch s.VAlign {
	case compose.VCenter:
		y += asc / 2
	case compose.VTop:
		y += asc
	}
	dr.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
	dr.DrawString(s.Content)
}

func (c *Canvas) bitmap(s compose.AbsBitmap) {
	src, _, err := image.Decode(bytes.NewReader(s.Data))
	if err != nil {
		c.log.Warn("undecodable bitmap, skipping",
			zap.String("mime", s.Mime), zap.Error(err))
		return
	}
	r := image.Rect(
		int(math.Round(s.X*c.scale)), int(math.Round(s.Y*c.scale)),
		int(math.Round((s.X+s.W)*c.scale)), int(math.Round((s.Y+s.H)*c.scale)),
	)
	xdraw.ApproxBiLinear.Scale(c.img, r, src, src.Bounds(), xdraw.Over, nil)
}

// Finalize encodes the pixels to the sink, if the canvas has one, and
// closes it when owned. A second call is a no op returning the same
// result.
func (c *Canvas) Finalize() error {
	if c.finished {
		return c.err
	}
	c.finished = true
	for c.scopes.Depth() > 0 {
		if err := c.scopes.Pop(); err != nil {
			break
		}
	}
	if c.dst != nil {
		if err := png.Encode(c.dst, c.img); err != nil {
			c.err = fmt.Errorf("rasterout: encoding image: %w", err)
		}
	}
	if c.file != nil {
		if err := c.file.Close(); err != nil && c.err == nil {
			c.err = fmt.Errorf("rasterout: closing %s: %w", c.path, err)
		}
		c.file = nil
	}
	return c.err
}

// fixedTracer feeds traced outlines into a rasterx path adder,
// scaling millimetres to pixels. Open runs are flushed with an
// unclosed Stop so line caps apply.
type fixedTracer struct {
	to    pathAdder
	scale float64
	open  bool
}

type pathAdder interface {
	Start(a fixed.Point26_6)
	Line(b fixed.Point26_6)
	CubeBezier(b, c, d fixed.Point26_6)
	Stop(closeLoop bool)
}

func (t *fixedTracer) pt(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * t.scale * 64), Y: fixed.Int26_6(y * t.scale * 64)}
}

func (t *fixedTracer) Start(x, y float64) {
	if t.open {
		t.to.Stop(false)
	}
	t.to.Start(t.pt(x, y))
	t.open = true
}

func (t *fixedTracer) Line(x, y float64) {
	t.to.Line(t.pt(x, y))
}

func (t *fixedTracer) Cubic(c1x, c1y, c2x, c2y, x, y float64) {
	t.to.CubeBezier(t.pt(c1x, c1y), t.pt(c2x, c2y), t.pt(x, y))
}

func (t *fixedTracer) Close() {
	t.to.Stop(true)
	t.open = false
}

func (t *fixedTracer) flush() {
	if t.open {
		t.to.Stop(false)
		t.open = false
	}
}

var capFuncs = [...]rasterx.CapFunc{
	compose.ButtCap:   rasterx.ButtCap,
	compose.RoundCap:  rasterx.RoundCap,
	compose.SquareCap: rasterx.SquareCap,
}

var joinModes = [...]rasterx.JoinMode{
	compose.MiterJoin: rasterx.Miter,
	compose.RoundJoin: rasterx.Round,
	compose.BevelJoin: rasterx.Bevel,
}
