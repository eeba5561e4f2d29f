// Package config loads voxgrid settings from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/chazu/voxgrid/pkg/palette"
	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the binaries and the desktop app.
type Config struct {
	// Scale is the world size of one cell for grids that do not set one.
	Scale float32 `yaml:"scale"`

	// Palette lists colours as "#RRGGBB" / "#RRGGBBAA". PaletteFile, if
	// set, names a palette YAML file and takes precedence.
	Palette     []string `yaml:"palette"`
	PaletteFile string   `yaml:"palette_file"`

	// Gradient colours for the shared-vertex rendition.
	Gradient Gradient `yaml:"gradient"`

	Stream Stream `yaml:"stream"`

	// EvalTimeout bounds a single script evaluation.
	EvalTimeout time.Duration `yaml:"eval_timeout"`
}

type Gradient struct {
	Min string `yaml:"min"`
	Max string `yaml:"max"`
}

type Stream struct {
	Addr string `yaml:"addr"`
	// MaxBatch caps the number of edits in one UPDATE message.
	MaxBatch int `yaml:"max_batch"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Scale: 1,
		Palette: []string{
			"#7f7f7fff", // stone
			"#5b3a1eff", // dirt
			"#3fa34dff", // grass
			"#2f6fdf99", // water
		},
		Gradient: Gradient{Min: "#1a1a40ff", Max: "#f0f0ffff"},
		Stream: Stream{
			Addr:     "127.0.0.1:8765",
			MaxBatch: 4096,
		},
		EvalTimeout: 5 * time.Second,
	}
}

// Load reads path over Defaults. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	c := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks value ranges and colour syntax.
func (c Config) Validate() error {
	if !(c.Scale > 0) {
		return fmt.Errorf("config: scale must be positive, got %g", c.Scale)
	}
	if c.EvalTimeout < 0 {
		return fmt.Errorf("config: eval_timeout must not be negative")
	}
	if c.Stream.MaxBatch < 0 {
		return fmt.Errorf("config: stream.max_batch must not be negative")
	}
	if _, _, err := c.GradientColors(); err != nil {
		return err
	}
	if c.PaletteFile == "" {
		if _, err := palette.FromHex(c.Palette...); err != nil {
			return fmt.Errorf("config: palette: %w", err)
		}
	}
	return nil
}

// LoadPalette resolves the configured palette.
func (c Config) LoadPalette() (*palette.Palette, error) {
	if c.PaletteFile != "" {
		return palette.Load(c.PaletteFile)
	}
	return palette.FromHex(c.Palette...)
}

// GradientColors parses the gradient endpoints.
func (c Config) GradientColors() (lo, hi palette.Color, err error) {
	lo, err = palette.ParseHex(c.Gradient.Min)
	if err != nil {
		return lo, hi, fmt.Errorf("config: gradient.min: %w", err)
	}
	hi, err = palette.ParseHex(c.Gradient.Max)
	if err != nil {
		return lo, hi, fmt.Errorf("config: gradient.max: %w", err)
	}
	return lo, hi, nil
}
