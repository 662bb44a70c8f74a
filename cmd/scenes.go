package cmd

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sort"
	"strings"

	"github.com/benoitkugler/okcompose/compose"
	"github.com/benoitkugler/okcompose/layout"
	"github.com/benoitkugler/okcompose/measure"
)

var (
	ink   = color.RGBA{R: 0x1f, G: 0x26, B: 0x2e, A: 0xff}
	rust  = color.RGBA{R: 0xc2, G: 0x4d, B: 0x2c, A: 0xff}
	gold  = color.RGBA{R: 0xe8, G: 0xa8, B: 0x3c, A: 0xff}
	teal  = color.RGBA{R: 0x2a, G: 0x7f, B: 0x7f, A: 0xff}
	cream = color.RGBA{R: 0xf4, G: 0xea, B: 0xd5, A: 0xff}
)

// Built-in showcase scenes, each exercising a different slice of the
// engine.
var scenes = map[string]func() (*compose.Context, error){
	"rings": ringsScene,
	"chart": chartScene,
	"badge": badgeScene,
}

// Scenes lists the built-in scene names, sorted.
func Scenes() []string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildScene(name string) (*compose.Context, error) {
	build, ok := scenes[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (allowed: %s)", name, strings.Join(Scenes(), ", "))
	}
	return build()
}

// ringsScene distributes a color per ring over one primitive batch.
func ringsScene() (*compose.Context, error) {
	radii := []float64{0.45, 0.35, 0.25, 0.15}
	rings := make([]compose.Shape, len(radii))
	for i, r := range radii {
		rings[i] = compose.Circle{CX: measure.W(0.5), CY: measure.H(0.5), R: measure.H(r)}
	}
	return compose.Compose(nil,
		compose.Compose(nil, compose.Fill(cream), compose.FullRectangle()),
		compose.Compose(nil,
			compose.Fill(rust, gold, teal, ink),
			compose.Stroke(ink),
			compose.LineWidth(measure.Pt(1)),
			compose.NewForm(rings...),
		),
	), nil
}

// chartScene stacks a titled bar chart out of layout tables, flexible
// spans, dashed grid lines and anchored text.
func chartScene() (*compose.Context, error) {
	values := []float64{0.35, 0.8, 0.55, 1, 0.42}
	bars := make([]layout.Span, len(values))
	for i, v := range values {
		bars[i] = layout.Flex(compose.Compose(nil,
			compose.Fill(teal),
			compose.NewRectangle(measure.W(0.15), measure.H(1-v), measure.W(0.7), measure.H(v)),
		))
	}

	gridlines := make([]compose.Shape, 0, 3)
	for _, y := range []float64{0.25, 0.5, 0.75} {
		gridlines = append(gridlines, compose.Line{Points: []compose.Point{
			compose.XY(measure.W(0), measure.H(y)),
			compose.XY(measure.W(1), measure.H(y)),
		}})
	}
	grid := compose.Compose(nil,
		compose.Fill(nil),
		compose.Stroke(ink),
		compose.LineWidth(measure.Pt(0.5)),
		compose.Dash([]measure.Measure{measure.Mm(1), measure.Mm(1)}),
		compose.NewForm(gridlines...),
	)

	labels := compose.Compose(nil,
		compose.Fill(ink),
		compose.NewForm(
			compose.Text{X: measure.W(0.85), Y: measure.H(0.03), Content: "100", HAlign: compose.HRight, VAlign: compose.VTop},
			compose.Text{X: measure.W(0.85), Y: measure.H(0.5), Content: "50", HAlign: compose.HRight, VAlign: compose.VCenter},
			compose.Text{X: measure.W(0.85), Y: measure.H(1), Content: "0", HAlign: compose.HRight},
		),
	)

	tab := layout.Table{ColumnWeights: []float64{1, 7}, RowWeights: []float64{1}}
	body, err := tab.Compose([][]*compose.Context{
		{labels, compose.Compose(nil, grid, layout.HStack(bars...))},
	})
	if err != nil {
		return nil, err
	}

	title := compose.Compose(nil,
		compose.Fill(ink),
		compose.NewForm(compose.Text{
			X: measure.W(0.5), Y: measure.H(0.5), Content: "weekly output",
			HAlign: compose.HCenter, VAlign: compose.VCenter,
		}),
	)
	return layout.VStack(
		layout.Fixed(title, measure.H(0.12)),
		layout.Flex(body),
	), nil
}

// badgeScene combines a clipped bitmap seal with an interactive
// button carrying markup-only channels.
func badgeScene() (*compose.Context, error) {
	data, err := checkerTile()
	if err != nil {
		return nil, err
	}

	hex := make([]compose.Point, 6)
	for i := range hex {
		a := float64(i) * math.Pi / 3
		hex[i] = compose.XY(
			measure.W(0.5+0.48*math.Cos(a)),
			measure.H(0.5+0.48*math.Sin(a)),
		)
	}
	seal := compose.Compose(nil,
		compose.Clip(hex),
		compose.NewBitmap("image/png", data,
			measure.W(0), measure.H(0), measure.W(1), measure.H(1)),
	).WithBox(measure.Box{
		X: measure.W(0.3), Y: measure.H(0.1), W: measure.W(0.4), H: measure.H(0.55),
	})

	button := compose.Compose(nil,
		compose.ID("refresh"),
		compose.Class("control"),
		compose.Attr("data-role", "refresh"),
		compose.Script("evt.target.setAttribute('fill-opacity', '0.5');"),
		compose.Fill(rust),
		compose.NewRectangle(measure.W(0.35), measure.H(0.72), measure.W(0.3), measure.H(0.12)),
	)
	caption := compose.Compose(nil,
		compose.Fill(cream),
		compose.NewForm(compose.Text{
			X: measure.W(0.5), Y: measure.H(0.78),
			Content: "refresh", HAlign: compose.HCenter, VAlign: compose.VCenter,
		}),
	)

	return compose.Compose(nil,
		compose.Compose(nil, compose.Fill(ink), compose.FullRectangle()),
		seal,
		button,
		caption,
	), nil
}

// checkerTile encodes a small gold and ink checkerboard.
func checkerTile() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := gold
			if (x/2+y/2)%2 == 0 {
				c = ink
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
