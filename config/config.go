// Holds the process wide rendering defaults: document size, output
// format, script inclusion mode and ambient style. Setters validate
// against a fixed allowed set and follow last writer wins semantics;
// render entry points read an immutable Snapshot instead of the
// globals, so an in flight render never observes a change.
package config

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/benoitkugler/okcompose/measure"
)

// Format selects an output backend for entry points that pick one
// from configuration.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatSVGZ Format = "svgz" // gzip compressed markup
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
)

// Formats lists the allowed output formats.
func Formats() []Format { return []Format{FormatSVG, FormatSVGZ, FormatPNG, FormatPDF} }

// ScriptMode controls how markup documents include script assets.
type ScriptMode string

const (
	ScriptNone    ScriptMode = "none"          // drop scripts entirely
	ScriptExclude ScriptMode = "exclude"       // keep attached fragments, drop embedded assets
	ScriptEmbed   ScriptMode = "embed"         // inline embedded assets in the document
	ScriptLinkAbs ScriptMode = "link-absolute" // reference assets by their given path
	ScriptLinkRel ScriptMode = "link-relative" // reference assets by their base name
)

// ScriptModes lists the allowed script inclusion modes.
func ScriptModes() []ScriptMode {
	return []ScriptMode{ScriptNone, ScriptExclude, ScriptEmbed, ScriptLinkAbs, ScriptLinkRel}
}

// ValueError reports a configuration value outside the allowed set.
// It is raised by the setter, never at render time.
type ValueError struct {
	Option  string
	Value   string
	Allowed []string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("config: invalid value %q for %s (allowed: %s)",
		e.Value, e.Option, strings.Join(e.Allowed, ", "))
}

// Snapshot is an immutable copy of the process wide defaults. Passing
// it explicitly into render entry points keeps tree resolution pure
// and testable in isolation.
type Snapshot struct {
	Width, Height measure.Measure // document size, absolute
	Format        Format
	ScriptMode    ScriptMode
	FontFamily    string
	FontSize      float64     // millimetres
	Fill          color.Color // nil disables filling
	Stroke        color.Color // nil disables stroking
	LineWidth     float64     // millimetres
}

// current holds the live defaults. Per the resource model, rendering
// is single threaded and setters are last writer wins, so no locking
// is required here.
var current = Snapshot{
	Width:      measure.Mm(math.Sqrt2 * 100),
	Height:     measure.Mm(100),
	Format:     FormatSVG,
	ScriptMode: ScriptEmbed,
	FontFamily: "Helvetica,Arial,sans-serif",
	FontSize:   11 * 25.4 / 72, // 11pt
	Fill:       color.RGBA{A: 0xff},
	Stroke:     nil,
	LineWidth:  0.3,
}

// Default returns a snapshot of the current process wide defaults.
func Default() Snapshot { return current }

// SetDefaultSize sets the default document size. Both lengths must
// resolve to positive absolute values with no ambient frame.
func SetDefaultSize(width, height measure.Measure) error {
	w, err := width.Millimetres()
	if err != nil || w <= 0 {
		return &ValueError{"default width", width.String(), []string{"positive absolute lengths"}}
	}
	h, err := height.Millimetres()
	if err != nil || h <= 0 {
		return &ValueError{"default height", height.String(), []string{"positive absolute lengths"}}
	}
	current.Width, current.Height = width, height
	return nil
}

// SetDefaultFormat sets the default output format.
func SetDefaultFormat(f Format) error {
	for _, allowed := range Formats() {
		if f == allowed {
			current.Format = f
			return nil
		}
	}
	return &ValueError{"default format", string(f), formatNames()}
}

// SetDefaultScriptMode sets the default script inclusion mode.
func SetDefaultScriptMode(m ScriptMode) error {
	for _, allowed := range ScriptModes() {
		if m == allowed {
			current.ScriptMode = m
			return nil
		}
	}
	return &ValueError{"default script mode", string(m), scriptModeNames()}
}

// SetDefaultFont sets the ambient font family and size. The size must
// be a positive absolute length; it also spans the root font size
// unit.
func SetDefaultFont(family string, size measure.Measure) error {
	if family == "" {
		return &ValueError{"default font family", family, []string{"a non empty family list"}}
	}
	s, err := size.Millimetres()
	if err != nil || s <= 0 {
		return &ValueError{"default font size", size.String(), []string{"positive absolute lengths"}}
	}
	current.FontFamily, current.FontSize = family, s
	return nil
}

// SetDefaultStyle sets the document level fill color, stroke color
// and stroke width. A nil color disables the matching operation.
func SetDefaultStyle(fill, stroke color.Color, lineWidth measure.Measure) error {
	lw, err := lineWidth.Millimetres()
	if err != nil || lw < 0 {
		return &ValueError{"default line width", lineWidth.String(), []string{"non negative absolute lengths"}}
	}
	current.Fill, current.Stroke, current.LineWidth = fill, stroke, lw
	return nil
}

func formatNames() []string {
	fs := Formats()
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = string(f)
	}
	return names
}

func scriptModeNames() []string {
	ms := ScriptModes()
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = string(m)
	}
	return names
}
