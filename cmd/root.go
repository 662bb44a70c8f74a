// Package cmd wires the okcompose command line interface. Defaults
// resolve in precedence order: flags beat the config file, the config
// file beats COMPOSE_* environment variables, and those beat the
// built-in defaults. The environment vocabulary is shared with
// config.FromEnv, so embedding programs and the CLI read the same
// variables.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/benoitkugler/okcompose/config"
	"github.com/benoitkugler/okcompose/measure"
)

var logger = zap.NewNop()

// Execute runs the CLI until completion or ctx cancellation.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)
	root := &cobra.Command{
		Use:   "okcompose",
		Short: "Compose declarative vector graphics scenes",
		Long: `okcompose renders declarative scene trees through the composition
engine: built-in showcase scenes can be written as SVG markup,
compressed markup, PDF or PNG, or displayed in a window.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeConfig(cfgFile); err != nil {
				return err
			}
			if err := applyDefaults(); err != nil {
				return err
			}
			var err error
			if verbose {
				logger, err = zap.NewDevelopment()
			} else {
				logger, err = zap.NewProduction()
			}
			if err != nil {
				return fmt.Errorf("building logger: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./okcompose.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging")

	root.AddCommand(newRenderCmd(), newFormatsCmd(), newPreviewCmd())
	return root
}

// initializeConfig reads the config file and COMPOSE_* environment
// variables into viper. A missing config file is not an error.
func initializeConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("okcompose")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("COMPOSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

// applyDefaults pushes viper values into the process wide rendering
// defaults. Keys nest under "default." so COMPOSE_DEFAULT_FORMAT and
// friends line up with the config.FromEnv names.
func applyDefaults() error {
	if v := viper.GetString("default.format"); v != "" {
		if err := config.SetDefaultFormat(config.Format(v)); err != nil {
			return err
		}
	}
	if v := viper.GetString("default.script_mode"); v != "" {
		if err := config.SetDefaultScriptMode(config.ScriptMode(v)); err != nil {
			return err
		}
	}
	if err := applySize(); err != nil {
		return err
	}
	return applyFont()
}

func applySize() error {
	w := viper.GetFloat64("default.width_mm")
	h := viper.GetFloat64("default.height_mm")
	if w <= 0 && h <= 0 {
		return nil
	}
	cur := config.Default()
	if w <= 0 {
		w, _ = cur.Width.Millimetres()
	}
	if h <= 0 {
		h, _ = cur.Height.Millimetres()
	}
	return config.SetDefaultSize(measure.Mm(w), measure.Mm(h))
}

func applyFont() error {
	family := viper.GetString("default.font_family")
	size := viper.GetFloat64("default.font_size_mm")
	if family == "" && size <= 0 {
		return nil
	}
	cur := config.Default()
	if family == "" {
		family = cur.FontFamily
	}
	if size <= 0 {
		size = cur.FontSize
	}
	return config.SetDefaultFont(family, measure.Mm(size))
}
