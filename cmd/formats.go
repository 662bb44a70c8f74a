package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benoitkugler/okcompose/config"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the allowed output formats and script modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "formats:")
			for _, f := range config.Formats() {
				fmt.Fprintf(w, "  %s\n", f)
			}
			fmt.Fprintln(w, "script modes:")
			for _, m := range config.ScriptModes() {
				fmt.Fprintf(w, "  %s\n", m)
			}
			fmt.Fprintln(w, "scenes:")
			for _, s := range Scenes() {
				fmt.Fprintf(w, "  %s\n", s)
			}
			return nil
		},
	}
}
