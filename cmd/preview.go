package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benoitkugler/okcompose/preview"
)

func newPreviewCmd() *cobra.Command {
	var dpi float64
	cmd := &cobra.Command{
		Use:       "preview [scene]",
		Short:     "Display a built-in scene in a window",
		ValidArgs: Scenes(),
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := Scenes()[0]
			if len(args) == 1 {
				name = args[0]
			}
			root, err := buildScene(name)
			if err != nil {
				return fmt.Errorf("building scene %s: %w", name, err)
			}
			return preview.Show(root,
				preview.WithLogger(logger),
				preview.WithTitle("okcompose: "+name),
				preview.WithDPI(dpi),
			)
		},
	}
	cmd.Flags().Float64Var(&dpi, "dpi", 96, "raster resolution of the displayed scene")
	return cmd
}
