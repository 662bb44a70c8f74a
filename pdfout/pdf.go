// Package pdfout renders scenes as PDF print documents by wrapping
// github.com/jung-kurt/gofpdf. PDF content streams have no cascading
// style mechanism, so scopes are flattened: every primitive is drawn
// under its own computed style. Markup only channels (ids, classes,
// raw attributes, scripts, embeds) have no print representation and
// are dropped.
package pdfout

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/benoitkugler/okcompose/compose"
	"github.com/benoitkugler/okcompose/config"
	"github.com/benoitkugler/okcompose/measure"
)

const mmPerPt = 25.4 / 72

type options struct {
	log *zap.Logger
	cfg config.Snapshot
}

// Option adjusts a document at construction.
type Option func(*options)

// WithLogger routes backend warnings through log.
func WithLogger(log *zap.Logger) Option { return func(o *options) { o.log = log } }

// WithConfig fixes the ambient style defaults instead of the process
// wide configuration.
func WithConfig(cfg config.Snapshot) Option { return func(o *options) { o.cfg = cfg } }

// Document is an open PDF document implementing compose.Renderer.
type Document struct {
	log *zap.Logger
	cfg config.Snapshot

	pdf  *gofpdf.Fpdf
	dst  io.Writer
	file *os.File // owned sink, nil when the caller owns dst
	path string

	wMM, hMM float64
	scopes   *compose.ScopeStack
	base     compose.ComputedStyle
	images   int
	finished bool
	err      error
}

func newDocument(width, height measure.Measure, opts []Option) (*Document, error) {
	o := options{cfg: config.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	wMM, err := width.Millimetres()
	if err != nil {
		return nil, fmt.Errorf("pdfout: document width: %w", err)
	}
	hMM, err := height.Millimetres()
	if err != nil {
		return nil, fmt.Errorf("pdfout: document height: %w", err)
	}
	if wMM <= 0 || hMM <= 0 {
		return nil, fmt.Errorf("pdfout: document size %gmm x %gmm is not positive", wMM, hMM)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: wMM, Ht: hMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	d := &Document{
		log: o.log, cfg: o.cfg,
		pdf: pdf, wMM: wMM, hMM: hMM,
		scopes: compose.NewScopeStack(o.log),
		base:   compose.BaseStyle(o.cfg),
	}
	return d, d.pdfErr()
}

// New opens a document writing to w at Finalize. The caller owns w.
func New(w io.Writer, width, height measure.Measure, opts ...Option) (*Document, error) {
	d, err := newDocument(width, height, opts)
	if err != nil {
		return nil, err
	}
	d.dst = w
	return d, nil
}

// Create opens a document writing to a fresh file at path. The
// document owns the file and closes it at Finalize.
func Create(path string, width, height measure.Measure, opts ...Option) (*Document, error) {
	d, err := newDocument(width, height, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("pdfout: %w", err)
	}
	d.file = f
	d.dst = f
	d.path = path
	return d, nil
}

// Size implements compose.Renderer.
func (d *Document) Size() (w, h float64) { return d.wMM, d.hMM }

// PushScope implements compose.Renderer. The batches only join the
// style state; content stream operations happen at draw time.
func (d *Document) PushScope(sc compose.Scope) error {
	d.scopes.Push(sc)
	return d.err
}

// PopScope implements compose.Renderer.
func (d *Document) PopScope() error {
	if err := d.scopes.Pop(); err != nil {
		return err
	}
	return d.err
}

// Draw renders one primitive batch, each primitive under its
// flattened computed style. The batch length contract is checked for
// the whole batch before the first primitive is drawn.
func (d *Document) Draw(shapes []compose.AbsShape) error {
	if d.err != nil {
		return d.err
	}
	n := len(shapes)
	for i := range shapes {
		if _, err := d.scopes.StyleFor(i, n, d.base); err != nil {
			return err
		}
	}
	for i, s := range shapes {
		st, _ := d.scopes.StyleFor(i, n, d.base)
		if !st.Visible {
			continue
		}
		d.primitive(s, st)
	}
	if err := d.pdfErr(); err != nil {
		d.err = err
	}
	return d.err
}

func (d *Document) primitive(s compose.AbsShape, st compose.ComputedStyle) {
	clipped := len(st.Clip) >= 3
	if clipped {
		pts := make([]gofpdf.PointType, len(st.Clip))
		for i, p := range st.Clip {
			pts[i] = gofpdf.PointType{X: p.X, Y: p.Y}
		}
		d.pdf.ClipPolygon(pts, false)
	}

	switch s := s.(type) {
	case compose.AbsText:
		d.text(s, st)
	case compose.AbsBitmap:
		d.bitmap(s)
	default:
		d.outline(s, st)
	}

	if clipped {
		d.pdf.ClipEnd()
	}
}

// outline draws a traced shape, filling and stroking in two passes so
// the two opacities stay independent.
func (d *Document) outline(s compose.AbsShape, st compose.ComputedStyle) {
	tr := pdfTracer{pdf: d.pdf}

	if r, g, b, a := paintChannels(st.Fill); a > 0 && st.FillOpacity > 0 {
		d.pdf.SetFillColor(r, g, b)
		d.pdf.SetAlpha(st.FillOpacity*a, "")
		compose.Trace(s, tr)
		d.pdf.DrawPath("f")
	}
	if r, g, b, a := paintChannels(st.Stroke); a > 0 && st.StrokeOpacity > 0 && st.LineWidth > 0 {
		d.pdf.SetDrawColor(r, g, b)
		d.pdf.SetAlpha(st.StrokeOpacity*a, "")
		d.pdf.SetLineWidth(st.LineWidth)
		d.pdf.SetLineCapStyle(capStyle(st.Cap))
		d.pdf.SetLineJoinStyle(joinStyle(st.Join))
		d.pdf.SetDashPattern(append([]float64(nil), st.Dash...), 0)
		compose.Trace(s, tr)
		d.pdf.DrawPath("D")
	}
	d.pdf.SetAlpha(1, "")
}

func (d *Document) text(s compose.AbsText, st compose.ComputedStyle) {
	r, g, b, a := paintChannels(st.Fill)
	if a == 0 || st.FillOpacity == 0 || s.Content == "" {
		return
	}
	d.pdf.SetFont(coreFont(st.FontFamily), "", st.FontSize/mmPerPt)
	d.pdf.SetTextColor(r, g, b)
	d.pdf.SetAlpha(st.FillOpacity*a, "")

	x := s.X
	switch s.HAlign {
	case compose.HCenter:
		x -= d.pdf.GetStringWidth(s.Content) / 2
	case compose.HRight:
		x -= d.pdf.GetStringWidth(s.Content)
	}
	// approximate the central and hanging baselines from the cap
	// height, as the markup backend's renderer would place them
	y := s.Y
	switch s.VAlign {
	case compose.VCenter:
		y += 0.36 * st.FontSize
	case compose.VTop:
		y += 0.72 * st.FontSize
	}
	d.pdf.Text(x, y, s.Content)
	d.pdf.SetAlpha(1, "")
}

func (d *Document) bitmap(s compose.AbsBitmap) {
	kind := imageType(s.Mime)
	if kind == "" {
		d.log.Warn("unsupported bitmap mime type, skipping", zap.String("mime", s.Mime))
		return
	}
	d.images++
	name := fmt.Sprintf("img%d", d.images)
	opts := gofpdf.ImageOptions{ImageType: kind}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(s.Data))
	d.pdf.ImageOptions(name, s.X, s.Y, s.W, s.H, false, opts, 0, "")
}

// Finalize writes the assembled document to the sink and closes it
// when the document owns it. A second call is a no op returning the
// same result.
func (d *Document) Finalize() error {
	if d.finished {
		return d.err
	}
	d.finished = true
	for d.scopes.Depth() > 0 {
		if err := d.scopes.Pop(); err != nil {
			break
		}
	}
	if d.err == nil {
		if err := d.pdf.Output(d.dst); err != nil {
			d.err = fmt.Errorf("pdfout: writing document: %w", err)
		}
	}
	if d.file != nil {
		if err := d.file.Close(); err != nil && d.err == nil {
			d.err = fmt.Errorf("pdfout: closing %s: %w", d.path, err)
		}
		d.file = nil
	}
	return d.err
}

func (d *Document) pdfErr() error {
	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("pdfout: %w", err)
	}
	return nil
}

// pdfTracer feeds traced outlines into the gofpdf path builder.
type pdfTracer struct {
	pdf *gofpdf.Fpdf
}

func (t pdfTracer) Start(x, y float64) { t.pdf.MoveTo(x, y) }
func (t pdfTracer) Line(x, y float64)  { t.pdf.LineTo(x, y) }
func (t pdfTracer) Cubic(c1x, c1y, c2x, c2y, x, y float64) {
	t.pdf.CurveBezierCubicTo(c1x, c1y, c2x, c2y, x, y)
}
func (t pdfTracer) Close() { t.pdf.ClosePath() }

// paintChannels splits a paint into 8 bit channels and a [0, 1]
// alpha; nil paints are fully transparent.
func paintChannels(c color.Color) (r, g, b int, alpha float64) {
	if c == nil {
		return 0, 0, 0, 0
	}
	cr, cg, cb, ca := c.RGBA()
	if ca == 0 {
		return 0, 0, 0, 0
	}
	r = int((cr * 0xffff / ca) >> 8)
	g = int((cg * 0xffff / ca) >> 8)
	b = int((cb * 0xffff / ca) >> 8)
	return r, g, b, float64(ca) / 0xffff
}

func capStyle(c compose.CapMode) string {
	switch c {
	case compose.RoundCap:
		return "round"
	case compose.SquareCap:
		return "square"
	default:
		return "butt"
	}
}

func joinStyle(j compose.JoinMode) string {
	switch j {
	case compose.RoundJoin:
		return "round"
	case compose.BevelJoin:
		return "bevel"
	default:
		return "miter"
	}
}

// coreFont maps a font family list to one of the built in PDF core
// fonts, taking the first recognized name.
func coreFont(families string) string {
	for _, f := range strings.Split(families, ",") {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "helvetica", "arial", "sans-serif":
			return "Helvetica"
		case "times", "times new roman", "serif":
			return "Times"
		case "courier", "menlo", "monaco", "monospace":
			return "Courier"
		}
	}
	return "Helvetica"
}

func imageType(mime string) string {
	switch mime {
	case "image/png":
		return "PNG"
	case "image/jpeg", "image/jpg":
		return "JPG"
	case "image/gif":
		return "GIF"
	}
	return ""
}
