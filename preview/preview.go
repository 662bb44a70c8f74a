// Package preview displays composed scenes in a desktop window. It
// is the display mechanism behind the in-memory document flow: the
// scene is rasterized through rasterout and handed to an ebiten
// window.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"runtime"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/benoitkugler/okcompose/compose"
	"github.com/benoitkugler/okcompose/config"
	"github.com/benoitkugler/okcompose/rasterout"
)

// Available reports whether a display is reachable. The answer is
// decided once per process.
var Available = sync.OnceValue(func() bool {
	switch runtime.GOOS {
	case "windows", "darwin":
		return true
	default:
		return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
	}
})

type options struct {
	log   *zap.Logger
	cfg   config.Snapshot
	title string
	dpi   float64
}

// Option adjusts how a preview window is opened.
type Option func(*options)

// WithLogger routes rendering warnings through log.
func WithLogger(log *zap.Logger) Option { return func(o *options) { o.log = log } }

// WithConfig fixes the document size and style defaults instead of
// the process wide configuration.
func WithConfig(cfg config.Snapshot) Option { return func(o *options) { o.cfg = cfg } }

// WithTitle sets the window title.
func WithTitle(title string) Option { return func(o *options) { o.title = title } }

// WithDPI sets the raster resolution of the displayed scene.
func WithDPI(dpi float64) Option { return func(o *options) { o.dpi = dpi } }

// Show renders root at the configured document size and blocks until
// the window closes. Without a reachable display it returns an error
// wrapping compose.ErrUnsupported.
func Show(root *compose.Context, opts ...Option) error {
	o := options{cfg: config.Default(), title: "okcompose", dpi: 96}
	for _, opt := range opts {
		opt(&o)
	}
	if !Available() {
		return fmt.Errorf("preview: no display reachable: %w", compose.ErrUnsupported)
	}

	canvas, err := rasterout.NewImage(o.cfg.Width, o.cfg.Height,
		rasterout.WithLogger(o.log),
		rasterout.WithConfig(o.cfg),
		rasterout.WithDPI(o.dpi),
		rasterout.WithBackground(color.White),
	)
	if err != nil {
		return err
	}
	if err := compose.Draw(canvas, root, o.cfg); err != nil {
		return err
	}
	if err := canvas.Finalize(); err != nil {
		return err
	}
	return ShowImage(canvas.Image(), opts...)
}

// ShowImage opens a window displaying a prerendered image and blocks
// until it closes.
func ShowImage(img image.Image, opts ...Option) error {
	o := options{title: "okcompose"}
	for _, opt := range opts {
		opt(&o)
	}
	if !Available() {
		return fmt.Errorf("preview: no display reachable: %w", compose.ErrUnsupported)
	}

	b := img.Bounds()
	ebiten.SetWindowTitle(o.title)
	ebiten.SetWindowSize(b.Dx(), b.Dy())
	if err := ebiten.RunGame(&game{img: img}); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}

// game shows one static image; escape closes the window.
type game struct {
	img image.Image
	tex *ebiten.Image
}

func (g *game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.tex == nil {
		g.tex = ebiten.NewImageFromImage(g.img)
	}
	screen.DrawImage(g.tex, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.img.Bounds().Dx(), g.img.Bounds().Dy()
}
