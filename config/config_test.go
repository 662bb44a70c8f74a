package config

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benoitkugler/okcompose/measure"
)

// reset restores the built in defaults after a test mutates them.
func reset(t *testing.T) {
	t.Helper()
	saved := current
	t.Cleanup(func() { current = saved })
}

func TestBuiltinDefaults(t *testing.T) {
	cfg := Default()
	w, err := cfg.Width.Millimetres()
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2*100, w, 1e-9)
	h, err := cfg.Height.Millimetres()
	require.NoError(t, err)
	assert.Equal(t, 100.0, h)
	assert.Equal(t, FormatSVG, cfg.Format)
	assert.Equal(t, ScriptEmbed, cfg.ScriptMode)
	assert.InDelta(t, 11*25.4/72, cfg.FontSize, 1e-9)
	assert.Equal(t, color.RGBA{A: 0xff}, cfg.Fill)
	assert.Nil(t, cfg.Stroke)
	assert.Equal(t, 0.3, cfg.LineWidth)
}

func TestSetDefaultFormat(t *testing.T) {
	reset(t)
	require.NoError(t, SetDefaultFormat(FormatPDF))
	assert.Equal(t, FormatPDF, Default().Format)

	err := SetDefaultFormat("gif")
	var ve *ValueError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), `"gif"`)
	assert.Contains(t, err.Error(), "svg, svgz, png, pdf")
	assert.Equal(t, FormatPDF, Default().Format, "failed setter must leave the default untouched")
}

func TestSetDefaultScriptMode(t *testing.T) {
	reset(t)
	require.NoError(t, SetDefaultScriptMode(ScriptLinkRel))
	assert.Equal(t, ScriptLinkRel, Default().ScriptMode)

	err := SetDefaultScriptMode("inline")
	var ve *ValueError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "default script mode")
}

func TestSetDefaultSize(t *testing.T) {
	reset(t)
	require.NoError(t, SetDefaultSize(measure.Cm(21), measure.Cm(29.7)))
	w, _ := Default().Width.Millimetres()
	assert.InDelta(t, 210, w, 1e-9)

	var ve *ValueError
	assert.ErrorAs(t, SetDefaultSize(measure.W(1), measure.Cm(10)), &ve, "relative width")
	assert.ErrorAs(t, SetDefaultSize(measure.Mm(-2), measure.Cm(10)), &ve, "negative width")
	assert.ErrorAs(t, SetDefaultSize(measure.Cm(10), measure.Mm(0)), &ve, "zero height")
}

func TestSetDefaultFont(t *testing.T) {
	reset(t)
	require.NoError(t, SetDefaultFont("Courier", measure.Pt(9)))
	cfg := Default()
	assert.Equal(t, "Courier", cfg.FontFamily)
	assert.InDelta(t, 9*25.4/72, cfg.FontSize, 1e-9)

	var ve *ValueError
	assert.ErrorAs(t, SetDefaultFont("", measure.Pt(9)), &ve)
	assert.ErrorAs(t, SetDefaultFont("Courier", measure.Em(1)), &ve)
}

func TestSetDefaultStyle(t *testing.T) {
	reset(t)
	red := color.RGBA{R: 0xff, A: 0xff}
	require.NoError(t, SetDefaultStyle(nil, red, measure.Mm(1)))
	cfg := Default()
	assert.Nil(t, cfg.Fill)
	assert.Equal(t, red, cfg.Stroke)
	assert.Equal(t, 1.0, cfg.LineWidth)

	var ve *ValueError
	assert.ErrorAs(t, SetDefaultStyle(nil, nil, measure.Mm(-1)), &ve)
}

func TestSnapshotIsolation(t *testing.T) {
	reset(t)
	before := Default()
	require.NoError(t, SetDefaultFormat(FormatPNG))
	assert.Equal(t, FormatSVG, before.Format, "snapshots must not track later setter calls")
}

func TestFromEnv(t *testing.T) {
	reset(t)
	t.Setenv("COMPOSE_DEFAULT_FORMAT", "svgz")
	t.Setenv("COMPOSE_DEFAULT_WIDTH_MM", "80")
	t.Setenv("COMPOSE_DEFAULT_FONT_SIZE_MM", "3.5")
	require.NoError(t, FromEnv())
	cfg := Default()
	assert.Equal(t, FormatSVGZ, cfg.Format)
	w, _ := cfg.Width.Millimetres()
	assert.Equal(t, 80.0, w)
	h, _ := cfg.Height.Millimetres()
	assert.Equal(t, 100.0, h, "unset height keeps its default")
	assert.InDelta(t, 3.5, cfg.FontSize, 1e-9)
}

func TestFromEnvInvalid(t *testing.T) {
	reset(t)
	t.Setenv("COMPOSE_DEFAULT_SCRIPT_MODE", "everywhere")
	err := FromEnv()
	var ve *ValueError
	require.ErrorAs(t, err, &ve)
}
