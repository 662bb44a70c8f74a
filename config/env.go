package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/benoitkugler/okcompose/measure"
)

// envSpec maps COMPOSE_* environment variables onto the defaults.
type envSpec struct {
	Format      string  `envconfig:"DEFAULT_FORMAT"`
	ScriptMode  string  `envconfig:"DEFAULT_SCRIPT_MODE"`
	WidthMM     float64 `envconfig:"DEFAULT_WIDTH_MM"`
	HeightMM    float64 `envconfig:"DEFAULT_HEIGHT_MM"`
	FontFamily  string  `envconfig:"DEFAULT_FONT_FAMILY"`
	FontSizeMM  float64 `envconfig:"DEFAULT_FONT_SIZE_MM"`
	LineWidthMM float64 `envconfig:"DEFAULT_LINE_WIDTH_MM"`
}

// FromEnv overrides the process wide defaults from COMPOSE_*
// environment variables. Unset variables leave the matching default
// untouched; set ones go through the same validation as their setter.
func FromEnv() error {
	var s envSpec
	if err := envconfig.Process("compose", &s); err != nil {
		return fmt.Errorf("config: reading environment: %w", err)
	}
	if s.Format != "" {
		if err := SetDefaultFormat(Format(s.Format)); err != nil {
			return err
		}
	}
	if s.ScriptMode != "" {
		if err := SetDefaultScriptMode(ScriptMode(s.ScriptMode)); err != nil {
			return err
		}
	}
	if s.WidthMM != 0 || s.HeightMM != 0 {
		w, h := current.Width, current.Height
		if s.WidthMM != 0 {
			w = measure.Mm(s.WidthMM)
		}
		if s.HeightMM != 0 {
			h = measure.Mm(s.HeightMM)
		}
		if err := SetDefaultSize(w, h); err != nil {
			return err
		}
	}
	if s.FontFamily != "" || s.FontSizeMM != 0 {
		family, size := current.FontFamily, measure.Mm(current.FontSize)
		if s.FontFamily != "" {
			family = s.FontFamily
		}
		if s.FontSizeMM != 0 {
			size = measure.Mm(s.FontSizeMM)
		}
		if err := SetDefaultFont(family, size); err != nil {
			return err
		}
	}
	if s.LineWidthMM != 0 {
		if err := SetDefaultStyle(current.Fill, current.Stroke, measure.Mm(s.LineWidthMM)); err != nil {
			return err
		}
	}
	return nil
}
