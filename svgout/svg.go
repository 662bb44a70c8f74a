// Package svgout renders scenes as SVG markup, the reference output
// target. Scalar property scopes become nested group elements so the
// markup cascade carries them; vector property values are inlined on
// the element they style. Clip outlines, script handlers and embedded
// assets accumulate in side tables drained exactly once at Finalize.
package svgout

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/benoitkugler/okcompose/compose"
	"github.com/benoitkugler/okcompose/config"
	"github.com/benoitkugler/okcompose/measure"
)

// ErrNotSeekable reports a Reset on a document whose sink cannot be
// rewound.
var ErrNotSeekable = errors.New("svgout: sink cannot be rewound")

var errFinished = errors.New("svgout: document already finalized")

type options struct {
	log        *zap.Logger
	cfg        config.Snapshot
	onFinalize func([]byte)
}

// Option adjusts a document at construction.
type Option func(*options)

// WithLogger routes backend warnings through log.
func WithLogger(log *zap.Logger) Option { return func(o *options) { o.log = log } }

// WithConfig fixes the defaults written on the root element and the
// script mode, instead of the process wide configuration.
func WithConfig(cfg config.Snapshot) Option { return func(o *options) { o.cfg = cfg } }

// OnFinalize registers a hook receiving the finalized markup of a
// buffered document, typically to hand it to a viewer. Documents
// writing to a file or caller owned sink ignore it.
func OnFinalize(fn func([]byte)) Option { return func(o *options) { o.onFinalize = fn } }

// Document is an open SVG document implementing compose.Renderer:
// construct one, stream a scene through compose.Draw, then call
// Finalize. One document serves one render at a time.
type Document struct {
	log        *zap.Logger
	cfg        config.Snapshot
	onFinalize func([]byte)

	dst  io.Writer
	gz   *gzip.Writer  // wraps the file for compressed output
	file *os.File      // owned sink, nil when the caller owns it
	path string        // owned sink location, reused by Reset
	buf  *bytes.Buffer // in memory sink, nil otherwise

	wMM, hMM float64

	scopes   *compose.ScopeStack
	depth    int
	clipIDs  map[string]string        // outline data to generated id
	clipDefs []string                 // outline data, first request order
	fnNames  map[string]string        // handler body to generated name
	fnBodies []string                 // handler bodies, attachment order
	includes map[string]compose.Asset // embedded assets by ref
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
		return nil, fmt.Errorf("svgout: document width: %w", err)
	}
	hMM, err := height.Millimetres()
	if err != nil {
		return nil, fmt.Errorf("svgout: document height: %w", err)
	}
	if wMM <= 0 || hMM <= 0 {
		return nil, fmt.Errorf("svgout: document size %gmm x %gmm is not positive", wMM, hMM)
	}
	return &Document{
		log: o.log, cfg: o.cfg, onFinalize: o.onFinalize,
		wMM: wMM, hMM: hMM,
	}, nil
}

// New opens a document writing to w. The caller owns w: Finalize
// flushes the markup but never closes it. Width and height must
// resolve without an ambient box, purely relative sizes are rejected
// here rather than mid render.
func New(w io.Writer, width, height measure.Measure, opts ...Option) (*Document, error) {
	d, err := newDocument(width, height, opts)
	if err != nil {
		return nil, err
	}
	d.dst = w
	d.open()
	if d.err != nil {
		return nil, d.err
	}
	return d, nil
}

// Create opens a document writing to a fresh file at path, replacing
// any existing one. The document owns the file and closes it at
// Finalize. A path ending in .svgz is written gzip compressed.
func Create(path string, width, height measure.Measure, opts ...Option) (*Document, error) {
	d, err := newDocument(width, height, opts)
	if err != nil {
		return nil, err
	}
	d.path = path
	if err := d.openFile(); err != nil {
		return nil, err
	}
	d.open()
	if d.err != nil {
		d.closeSink()
		return nil, d.err
	}
	return d, nil
}

// NewBuffered opens a document accumulating in memory. Bytes returns
// the markup once finalized, and an OnFinalize option receives it as
// well.
func NewBuffered(width, height measure.Measure, opts ...Option) (*Document, error) {
	d, err := newDocument(width, height, opts)
	if err != nil {
		return nil, err
	}
	d.buf = new(bytes.Buffer)
	d.dst = d.buf
	d.open()
	if d.err != nil {
		return nil, d.err
	}
	return d, nil
}

func (d *Document) openFile() error {
	f, err := os.Create(d.path)
	if err != nil {
		return fmt.Errorf("svgout: %w", err)
	}
	d.file = f
	d.dst = f
	if strings.HasSuffix(d.path, ".svgz") {
		d.gz = gzip.NewWriter(f)
		d.dst = d.gz
	}
	return nil
}

// open resets the render state and writes the document header.
func (d *Document) open() {
	d.scopes = compose.NewScopeStack(d.log)
	d.depth = 1
	d.clipIDs = make(map[string]string)
	d.clipDefs = nil
	d.fnNames = make(map[string]string)
	d.fnBodies = nil
	d.includes = make(map[string]compose.Asset)
	d.finished = false
	d.err = nil

	d.printf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	d.printf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" version="1.2"`)
	d.printf(` width="%smm" height="%smm" viewBox="0 0 %s %s"`, coord(d.wMM), coord(d.hMM), coord(d.wMM), coord(d.hMM))
	d.printf(` stroke="%s" fill="%s" stroke-width="%s"`, paintString(d.cfg.Stroke), paintString(d.cfg.Fill), coord(d.cfg.LineWidth))
	d.printf(` font-family="%s" font-size="%s">`+"\n", escape(d.cfg.FontFamily), coord(d.cfg.FontSize))
}

// Bytes returns the markup accumulated by a buffered document, nil
// for documents writing elsewhere. Before Finalize the content is a
// partial document and not usable output.
func (d *Document) Bytes() []byte {
	if d.buf == nil {
		return nil
	}
	return d.buf.Bytes()
}

// Size implements compose.Renderer.
func (d *Document) Size() (w, h float64) { return d.wMM, d.hMM }

// PushScope opens a group element for sc. Scalar batches become
// attributes on the group, shadowing outer groups through the markup
// cascade; vector batches are recorded and inlined element by element
// at draw time. Within one scope the first batch of a channel wins,
// matching the stack.
func (d *Document) PushScope(sc compose.Scope) error {
	if d.finished {
		return errFinished
	}
	d.scopes.Push(sc)
	d.indent()
	d.printf("<g")
	seen := make(map[attrKey]bool, len(sc))
	for _, rp := range sc {
		if len(rp.Values) == 0 {
			continue
		}
		k := attrKey{rp.Channel, rp.AttrName}
		if seen[k] {
			continue
		}
		seen[k] = true
		if rp.Scalar() {
			d.emitAttr(rp, rp.Values[0])
		}
	}
	d.printf(">\n")
	d.depth++
	return d.err
}

type attrKey struct {
	ch   compose.Channel
	attr string
}

// PopScope closes the innermost group.
func (d *Document) PopScope() error {
	if d.finished {
		return errFinished
	}
	if err := d.scopes.Pop(); err != nil {
		return err
	}
	d.depth--
	d.indent()
	d.printf("</g>\n")
	return d.err
}

// Draw emits one leaf element per primitive of the batch. Channels
// whose deepest live batch is vector are inlined on each element; the
// length contract of every such batch is checked before anything is
// written, so a mismatched batch emits no partial output.
func (d *Document) Draw(shapes []compose.AbsShape) error {
	if d.finished {
		return errFinished
	}
	if d.err != nil {
		return d.err
	}
	n := len(shapes)
	if n == 0 {
		return nil
	}
	inline, err := d.inlineBatches(n)
	if err != nil {
		return err
	}
	for i, s := range shapes {
		d.element(s, inline, i, n)
	}
	return d.err
}

func (d *Document) inlineBatches(n int) ([]compose.ResolvedProperty, error) {
	var out []compose.ResolvedProperty
	for ch := compose.Channel(0); ch < compose.ChannelCount; ch++ {
		for _, rp := range d.scopes.Deepest(ch) {
			if rp.Scalar() {
				continue
			}
			if _, err := rp.At(0, n); err != nil {
				return nil, err
			}
			out = append(out, rp)
		}
	}
	return out, nil
}

func (d *Document) element(s compose.AbsShape, inline []compose.ResolvedProperty, i, n int) {
	d.indent()
	switch s := s.(type) {
	case compose.AbsRectangle:
		d.printf(`<rect x="%s" y="%s" width="%s" height="%s"`, coord(s.X), coord(s.Y), coord(s.W), coord(s.H))
	case compose.AbsCircle:
		d.printf(`<circle cx="%s" cy="%s" r="%s"`, coord(s.CX), coord(s.CY), coord(s.R))
	case compose.AbsEllipse:
		d.printf(`<ellipse cx="%s" cy="%s" rx="%s" ry="%s"`, coord(s.CX), coord(s.CY), coord(s.RX), coord(s.RY))
	case compose.AbsPolygon, compose.AbsLine:
		var t pathTracer
		compose.Trace(s, &t)
		d.printf(`<path d="%s"`, t.String())
	case compose.AbsText:
		d.printf(`<text x="%s" y="%s"`, coord(s.X), coord(s.Y))
		if a := anchorString(s.HAlign); a != "" {
			d.printf(` text-anchor="%s"`, a)
		}
		if b := baselineString(s.VAlign); b != "" {
			d.printf(` dominant-baseline="%s"`, b)
		}
	case compose.AbsBitmap:
		d.printf(`<image x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="none" xlink:href="data:%s;base64,`,
			coord(s.X), coord(s.Y), coord(s.W), coord(s.H), s.Mime)
		d.writeBase64(s.Data)
		d.printf(`"`)
	}
	for _, rp := range inline {
		v, err := rp.At(i, n)
		if err != nil {
			continue // validated by inlineBatches
		}
		d.emitAttr(rp, v)
	}
	if t, ok := s.(compose.AbsText); ok {
		d.printf(">%s</text>\n", escape(t.Content))
	} else {
		d.printf("/>\n")
	}
}

func (d *Document) emitAttr(rp compose.ResolvedProperty, v compose.Style) {
	if name, val, ok := d.attr(rp, v); ok {
		d.printf(` %s="%s"`, name, val)
	}
}

// attr maps one style value to a markup attribute. Clip, script and
// embed values also feed the document side tables; embeds produce no
// attribute at all.
func (d *Document) attr(rp compose.ResolvedProperty, v compose.Style) (name, value string, ok bool) {
	switch rp.Channel {
	case compose.ChannelFill:
		return "fill", paintString(v.(compose.Paint).Color), true
	case compose.ChannelStroke:
		return "stroke", paintString(v.(compose.Paint).Color), true
	case compose.ChannelLineWidth:
		return "stroke-width", coord(v.(compose.Number).Value), true
	case compose.ChannelDash:
		return "stroke-dasharray", dashString(v.(compose.DashPattern).Pattern), true
	case compose.ChannelLineCap:
		return "stroke-linecap", capString(v.(compose.CapMode)), true
	case compose.ChannelLineJoin:
		return "stroke-linejoin", joinString(v.(compose.JoinMode)), true
	case compose.ChannelFillOpacity:
		return "fill-opacity", coord(v.(compose.Number).Value), true
	case compose.ChannelStrokeOpacity:
		return "stroke-opacity", coord(v.(compose.Number).Value), true
	case compose.ChannelVisibility:
		if v.(compose.Toggle).On {
			return "visibility", "visible", true
		}
		return "visibility", "hidden", true
	case compose.ChannelClip:
		return "clip-path", "url(#" + d.clipID(v.(compose.ClipPath).Points) + ")", true
	case compose.ChannelFontFamily:
		return "font-family", escape(v.(compose.Str).Value), true
	case compose.ChannelFontSize:
		return "font-size", coord(v.(compose.Number).Value), true
	case compose.ChannelID:
		return "id", escape(v.(compose.Str).Value), true
	case compose.ChannelClass:
		return "class", escape(v.(compose.Str).Value), true
	case compose.ChannelAttribute:
		return rp.AttrName, escape(v.(compose.Str).Value), true
	case compose.ChannelScript:
		if d.cfg.ScriptMode == config.ScriptNone {
			return "", "", false
		}
		return "onclick", d.scriptName(v.(compose.Str).Value) + "(evt)", true
	case compose.ChannelEmbed:
		d.addInclude(v.(compose.Asset))
		return "", "", false
	}
	return "", "", false
}

// clipID returns the identifier for a clip outline, creating one
// definition per distinct geometry. Identity is the formatted outline
// data, so outlines equal at document precision share a definition.
func (d *Document) clipID(points []compose.AbsPoint) string {
	var t pathTracer
	compose.Trace(compose.AbsPolygon{Points: points}, &t)
	key := t.String()
	if id, ok := d.clipIDs[key]; ok {
		return id
	}
	id := fmt.Sprintf("clip%d", len(d.clipDefs))
	d.clipIDs[key] = id
	d.clipDefs = append(d.clipDefs, key)
	return id
}

// scriptName returns the function name of a handler body, assigned
// once per distinct fragment at attachment time.
func (d *Document) scriptName(body string) string {
	if n, ok := d.fnNames[body]; ok {
		return n
	}
	n := fmt.Sprintf("fn%d", len(d.fnBodies))
	d.fnNames[body] = n
	d.fnBodies = append(d.fnBodies, body)
	return n
}

func (d *Document) addInclude(a compose.Asset) {
	switch d.cfg.ScriptMode {
	case config.ScriptNone, config.ScriptExclude:
		return
	}
	if _, ok := d.includes[a.Ref]; !ok {
		d.includes[a.Ref] = a
	}
}

// Finalize drains the side tables and closes the document: still open
// scopes are unwound, then embedded assets, the consolidated script
// block and the clip definitions are written before the footer. The
// sink is closed when the document owns it. A second call is a no op
// returning the same result.
func (d *Document) Finalize() error {
	if d.finished {
		return d.err
	}
	d.finished = true
	for d.scopes.Depth() > 0 {
		if err := d.scopes.Pop(); err != nil {
			break
		}
		d.depth--
		d.indent()
		d.printf("</g>\n")
	}
	d.writeIncludes()
	d.writeScripts()
	d.writeDefs()
	d.printf("</svg>\n")
	d.closeSink()
	if d.err == nil && d.onFinalize != nil && d.buf != nil {
		d.onFinalize(d.buf.Bytes())
	}
	return d.err
}

// writeIncludes emits the embedded assets, each exactly once, in ref
// order.
func (d *Document) writeIncludes() {
	if len(d.includes) == 0 {
		return
	}
	refs := make([]string, 0, len(d.includes))
	for ref := range d.includes {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	for _, ref := range refs {
		a := d.includes[ref]
		mode := d.cfg.ScriptMode
		if mode == config.ScriptEmbed && a.Source == "" {
			mode = config.ScriptLinkAbs // nothing to inline, reference instead
		}
		d.indent()
		switch mode {
		case config.ScriptEmbed:
			d.printf("<script type=\"application/ecmascript\"><![CDATA[\n%s\n]]></script>\n", a.Source)
		case config.ScriptLinkAbs:
			d.printf(`<script xlink:href="%s"/>`+"\n", escape(a.Ref))
		case config.ScriptLinkRel:
			d.printf(`<script xlink:href="%s"/>`+"\n", escape(filepath.Base(a.Ref)))
		}
	}
}

// writeScripts emits every attached handler as one function of a
// single consolidated block.
func (d *Document) writeScripts() {
	if len(d.fnBodies) == 0 {
		return
	}
	d.indent()
	d.printf("<script type=\"application/ecmascript\"><![CDATA[\n")
	for i, body := range d.fnBodies {
		d.printf("function fn%d(evt) {\n%s\n}\n", i, body)
	}
	d.printf("]]></script>\n")
}

func (d *Document) writeDefs() {
	if len(d.clipDefs) == 0 {
		return
	}
	d.indent()
	d.printf("<defs>\n")
	d.depth++
	for i, data := range d.clipDefs {
		d.indent()
		d.printf(`<clipPath id="clip%d">`+"\n", i)
		d.depth++
		d.indent()
		d.printf(`<path d="%s"/>`+"\n", data)
		d.depth--
		d.indent()
		d.printf("</clipPath>\n")
	}
	d.depth--
	d.indent()
	d.printf("</defs>\n")
}

// Reset rewinds the document back to open and empty, reusing its
// sink. Only documents owning their sink or buffering in memory
// support it; for a caller owned writer it reports ErrNotSeekable.
func (d *Document) Reset() error {
	switch {
	case d.buf != nil:
		d.buf.Reset()
	case d.path != "":
		d.closeSink()
		if err := d.openFile(); err != nil {
			return err
		}
	default:
		return ErrNotSeekable
	}
	d.open()
	return d.err
}

func (d *Document) closeSink() {
	if d.gz != nil {
		if err := d.gz.Close(); err != nil && d.err == nil {
			d.err = fmt.Errorf("svgout: closing compressor: %w", err)
		}
		d.gz = nil
	}
	if d.file != nil {
		if err := d.file.Close(); err != nil && d.err == nil {
			d.err = fmt.Errorf("svgout: closing %s: %w", d.path, err)
		}
		d.file = nil
	}
}

// printf appends to the document, latching the first sink error.
// Later writes are dropped and every protocol operation keeps
// returning that error; the partial document is unusable output.
func (d *Document) printf(format string, args ...any) {
	if d.err != nil {
		return
	}
	if _, err := fmt.Fprintf(d.dst, format, args...); err != nil {
		d.err = fmt.Errorf("svgout: writing document: %w", err)
	}
}

func (d *Document) indent() {
	d.printf("%s", strings.Repeat("  ", d.depth))
}

func (d *Document) writeBase64(data []byte) {
	if d.err != nil {
		return
	}
	enc := base64.NewEncoder(base64.StdEncoding, d.dst)
	if _, err := enc.Write(data); err != nil {
		d.err = fmt.Errorf("svgout: writing document: %w", err)
		return
	}
	if err := enc.Close(); err != nil {
		d.err = fmt.Errorf("svgout: writing document: %w", err)
	}
}
