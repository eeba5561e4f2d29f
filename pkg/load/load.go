// Package load resolves the scene a command-line tool works on, either from
// a compressed grid file or from a scene script, and fills in what the
// source does not carry from the configuration.
package load

import (
	"errors"
	"fmt"
	"os"

	"github.com/chazu/voxgrid/pkg/config"
	"github.com/chazu/voxgrid/pkg/engine"
	"github.com/chazu/voxgrid/pkg/gridio"
	"github.com/chazu/voxgrid/pkg/scene"
)

var (
	// ErrNoSource is returned when neither a grid file nor a script is given.
	ErrNoSource = errors.New("load: need a grid file or a script")
	// ErrTwoSources is returned when both are given.
	ErrTwoSources = errors.New("load: grid file and script are mutually exclusive")
	// ErrEmptyScene is returned when a script declares no grid.
	ErrEmptyScene = errors.New("load: script declares no grid")
)

// Source names where a scene comes from. Exactly one field must be set.
type Source struct {
	Grid   string
	Script string
}

// Config reads the config file at path. An empty path, or a missing file,
// yields the defaults.
func Config(path string) (config.Config, error) {
	if path == "" {
		return config.Defaults(), nil
	}
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Defaults(), nil
	}
	return cfg, err
}

// Scene loads src. Grid files take their palette and scale from cfg;
// scripts carry their own.
func Scene(cfg config.Config, eng *engine.Engine, src Source) (*scene.Scene, error) {
	switch {
	case src.Grid != "" && src.Script != "":
		return nil, ErrTwoSources
	case src.Grid != "":
		return fromGrid(cfg, src.Grid)
	case src.Script != "":
		return fromScript(eng, src.Script)
	}
	return nil, ErrNoSource
}

func fromGrid(cfg config.Config, path string) (*scene.Scene, error) {
	shape, values, err := gridio.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pal, err := cfg.LoadPalette()
	if err != nil {
		return nil, err
	}
	return scene.New(shape, values, pal, cfg.Scale)
}

func fromScript(eng *engine.Engine, path string) (*scene.Scene, error) {
	s, evalErrs, err := eng.EvaluateFile(path)
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		return nil, fmt.Errorf("load: %s: %w", path, errors.Join(evalErrorsAsErrors(evalErrs)...))
	}
	if s.IsEmpty() {
		return nil, fmt.Errorf("%w: %s", ErrEmptyScene, path)
	}
	return s, nil
}

func evalErrorsAsErrors(evalErrs []engine.EvalError) []error {
	out := make([]error, len(evalErrs))
	for i, e := range evalErrs {
		out[i] = e
	}
	return out
}
