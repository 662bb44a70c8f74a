package pdfout

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benoitkugler/okcompose/compose"
	"github.com/benoitkugler/okcompose/config"
	"github.com/benoitkugler/okcompose/measure"
)

var (
	red  = color.RGBA{R: 0xff, A: 0xff}
	blue = color.RGBA{B: 0xff, A: 0xff}
)

func testConfig() config.Snapshot {
	return config.Snapshot{
		Width:      measure.Mm(50),
		Height:     measure.Mm(30),
		Format:     config.FormatPDF,
		ScriptMode: config.ScriptNone,
		FontFamily: "Helvetica,Arial,sans-serif",
		FontSize:   11 * 25.4 / 72,
		Fill:       color.RGBA{A: 0xff},
		LineWidth:  0.3,
	}
}

func render(t *testing.T, cfg config.Snapshot, root *compose.Context) string {
	t.Helper()
	var buf bytes.Buffer
	doc, err := New(&buf, cfg.Width, cfg.Height, WithConfig(cfg))
	require.NoError(t, err)
	doc.pdf.SetCompression(false) // keep content streams readable
	require.NoError(t, compose.Draw(doc, root, cfg))
	require.NoError(t, doc.Finalize())
	return buf.String()
}

func TestDocumentShape(t *testing.T) {
	root := compose.Compose(nil,
		compose.Fill(red),
		compose.FullRectangle(),
		compose.Compose(nil,
			compose.Stroke(blue),
			compose.LineWidth(measure.Mm(1)),
			compose.NewLine(compose.XY(measure.Mm(0), measure.Mm(0)), compose.XY(measure.W(1), measure.H(1)))),
	)
	out := render(t, testConfig(), root)

	assert.True(t, strings.HasPrefix(out, "%PDF-"))
	assert.Contains(t, out, "%%EOF")
	assert.Greater(t, len(out), 500)
}

func TestTextContent(t *testing.T) {
	root := compose.Compose(nil, compose.NewForm(
		compose.Text{X: measure.W(0.5), Y: measure.H(0.5), Content: "centered", HAlign: compose.HCenter, VAlign: compose.VCenter},
	))
	out := render(t, testConfig(), root)

	assert.Contains(t, out, "BT", "text emits a text block")
	assert.Contains(t, out, "centered")
	assert.Contains(t, out, "Helvetica")
}

func TestClipOperators(t *testing.T) {
	tri := []compose.Point{
		compose.XY(measure.Mm(0), measure.Mm(0)),
		compose.XY(measure.W(1), measure.Mm(0)),
		compose.XY(measure.W(1), measure.H(1)),
	}
	root := compose.Compose(nil, compose.Clip(tri), compose.FullRectangle())
	out := render(t, testConfig(), root)

	assert.Contains(t, out, "W n", "the clip polygon sets the clipping path")
}

func TestHiddenPrimitivesSkipped(t *testing.T) {
	visible := render(t, testConfig(), compose.Compose(nil, compose.FullRectangle()))
	hidden := render(t, testConfig(), compose.Compose(nil, compose.Visible(false), compose.FullRectangle()))
	assert.Less(t, len(hidden), len(visible), "hidden primitives emit no path operators")
}

func TestBatchMismatch(t *testing.T) {
	cfg := testConfig()
	var buf bytes.Buffer
	doc, err := New(&buf, cfg.Width, cfg.Height, WithConfig(cfg))
	require.NoError(t, err)

	form := compose.NewForm(
		compose.Rectangle{W: measure.Mm(1), H: measure.Mm(1)},
		compose.Rectangle{X: measure.Mm(2), W: measure.Mm(1), H: measure.Mm(1)},
	)
	root := compose.Compose(nil, compose.Fill(red, blue, red), form)

	var ble *compose.BatchLengthError
	require.ErrorAs(t, compose.Draw(doc, root, cfg), &ble)
	assert.Equal(t, 3, ble.Values)
	assert.Equal(t, 2, ble.Primitives)
}

func TestRelativeDocumentSize(t *testing.T) {
	var buf bytes.Buffer
	_, err := New(&buf, measure.W(1), measure.Mm(10))
	var ue *measure.UnitError
	require.ErrorAs(t, err, &ue)
}

func TestCreateFile(t *testing.T) {
	cfg := testConfig()
	path := filepath.Join(t.TempDir(), "out.pdf")
	doc, err := Create(path, cfg.Width, cfg.Height, WithConfig(cfg))
	require.NoError(t, err)
	require.NoError(t, compose.Draw(doc, compose.Compose(nil, compose.FullRectangle()), cfg))
	require.NoError(t, doc.Finalize())

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestIdempotentFinalize(t *testing.T) {
	cfg := testConfig()
	var buf bytes.Buffer
	doc, err := New(&buf, cfg.Width, cfg.Height, WithConfig(cfg))
	require.NoError(t, err)
	require.NoError(t, compose.Draw(doc, compose.Compose(nil, compose.FullRectangle()), cfg))

	require.NoError(t, doc.Finalize())
	size := buf.Len()
	require.NoError(t, doc.Finalize())
	assert.Equal(t, size, buf.Len(), "a second finalize writes nothing")
}

func TestCoreFontMapping(t *testing.T) {
	assert.Equal(t, "Helvetica", coreFont("Helvetica,Arial,sans-serif"))
	assert.Equal(t, "Times", coreFont("Palatino, serif"))
	assert.Equal(t, "Courier", coreFont("Menlo,monospace"))
	assert.Equal(t, "Helvetica", coreFont("Comic Sans MS"))
}
