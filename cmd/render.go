package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/benoitkugler/okcompose/compose"
	"github.com/benoitkugler/okcompose/config"
	"github.com/benoitkugler/okcompose/pdfout"
	"github.com/benoitkugler/okcompose/rasterout"
	"github.com/benoitkugler/okcompose/svgout"
)

func newRenderCmd() *cobra.Command {
	var (
		formats []string
		outDir  string
		dpi     float64
	)
	render := &cobra.Command{
		Use:       "render [scene...]",
		Short:     "Render built-in scenes to one or more formats",
		ValidArgs: Scenes(),
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = Scenes()
			}
			cfg := config.Default()
			if len(formats) == 0 {
				formats = []string{string(cfg.Format)}
			}
			targets, err := parseFormats(formats)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			// Renders are independent of each other, but a document is
			// single use: every scene and format pair gets its own
			// backend instance.
			g, ctx := errgroup.WithContext(cmd.Context())
			for _, name := range names {
				root, err := buildScene(name)
				if err != nil {
					return fmt.Errorf("building scene %s: %w", name, err)
				}
				for _, format := range targets {
					path := filepath.Join(outDir, name+"."+string(format))
					g.Go(func() error {
						if err := ctx.Err(); err != nil {
							return err
						}
						if err := renderTo(path, format, root, cfg, dpi); err != nil {
							os.Remove(path)
							return fmt.Errorf("%s: %w", path, err)
						}
						logger.Info("rendered", zap.String("path", path))
						return nil
					})
				}
			}
			return g.Wait()
		},
	}

	render.Flags().StringSliceVarP(&formats, "format", "f", nil,
		"output formats (svg, svgz, png, pdf); default is the configured one")
	render.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	render.Flags().Float64Var(&dpi, "dpi", 96, "raster resolution for png output")
	return render
}

func parseFormats(names []string) ([]config.Format, error) {
	out := make([]config.Format, 0, len(names))
	for _, n := range names {
		f := config.Format(strings.ToLower(n))
		ok := false
		for _, allowed := range config.Formats() {
			if f == allowed {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("unknown format %q (allowed: %s)", n, formatList())
		}
		out = append(out, f)
	}
	return out, nil
}

func formatList() string {
	names := make([]string, len(config.Formats()))
	for i, f := range config.Formats() {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func renderTo(path string, format config.Format, root *compose.Context, cfg config.Snapshot, dpi float64) error {
	switch format {
	case config.FormatSVG, config.FormatSVGZ:
		doc, err := svgout.Create(path, cfg.Width, cfg.Height,
			svgout.WithConfig(cfg), svgout.WithLogger(logger))
		if err != nil {
			return err
		}
		if err := compose.Draw(doc, root, cfg); err != nil {
			doc.Finalize()
			return err
		}
		return doc.Finalize()

	case config.FormatPDF:
		doc, err := pdfout.Create(path, cfg.Width, cfg.Height,
			pdfout.WithConfig(cfg), pdfout.WithLogger(logger))
		if err != nil {
			return err
		}
		if err := compose.Draw(doc, root, cfg); err != nil {
			doc.Finalize()
			return err
		}
		return doc.Finalize()

	case config.FormatPNG:
		canvas, err := rasterout.Create(path, cfg.Width, cfg.Height,
			rasterout.WithConfig(cfg), rasterout.WithLogger(logger), rasterout.WithDPI(dpi))
		if err != nil {
			return err
		}
		if err := compose.Draw(canvas, root, cfg); err != nil {
			canvas.Finalize()
			return err
		}
		return canvas.Finalize()
	}
	return fmt.Errorf("unknown format %q", format)
}
