package load

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/voxgrid/pkg/config"
	"github.com/chazu/voxgrid/pkg/engine"
	"github.com/chazu/voxgrid/pkg/grid"
	"github.com/chazu/voxgrid/pkg/gridio"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfig(t *testing.T) {
	cfg, err := Config("")
	if err != nil {
		t.Fatalf("Config(\"\") error: %v", err)
	}
	if cfg.Scale != config.Defaults().Scale {
		t.Errorf("Scale = %g, want default", cfg.Scale)
	}

	if _, err := Config(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Errorf("missing file: error %v, want defaults", err)
	}

	path := writeFile(t, "cfg.yaml", "scale: 0.25\n")
	cfg, err = Config(path)
	if err != nil {
		t.Fatalf("Config() error: %v", err)
	}
	if cfg.Scale != 0.25 {
		t.Errorf("Scale = %g, want 0.25", cfg.Scale)
	}

	bad := writeFile(t, "bad.yaml", "scale: -1\n")
	if _, err := Config(bad); err == nil {
		t.Error("expected validation error")
	}
}

func TestSceneFromGrid(t *testing.T) {
	shape := grid.S(2, 2, 1)
	path := filepath.Join(t.TempDir(), "g.voxg")
	if err := gridio.WriteFile(path, shape, []grid.Material{1, 0, 2, 0}); err != nil {
		t.Fatal(err)
	}
	cfg := config.Defaults()
	cfg.Scale = 0.5

	s, err := Scene(cfg, engine.NewEngine(), Source{Grid: path})
	if err != nil {
		t.Fatalf("Scene() error: %v", err)
	}
	if s.Shape != shape || s.Count() != 2 || s.Scale != 0.5 {
		t.Errorf("scene = %v count %d scale %g", s.Shape, s.Count(), s.Scale)
	}
	if s.Palette.Len() != len(cfg.Palette) {
		t.Errorf("Palette.Len() = %d, want %d", s.Palette.Len(), len(cfg.Palette))
	}
}

func TestSceneFromScript(t *testing.T) {
	path := writeFile(t, "s.vox", `(grid 3 1 1) (scale 2) (voxel 2 0 0 (color 0 1 0))`)
	s, err := Scene(config.Defaults(), engine.NewEngine(), Source{Script: path})
	if err != nil {
		t.Fatalf("Scene() error: %v", err)
	}
	if s.Count() != 1 || s.Scale != 2 || s.Palette.Len() != 1 {
		t.Errorf("scene count %d scale %g palette %d", s.Count(), s.Scale, s.Palette.Len())
	}
}

func TestSceneErrors(t *testing.T) {
	eng := engine.NewEngine()
	cfg := config.Defaults()
	empty := writeFile(t, "empty.vox", ";; nothing here\n")
	broken := writeFile(t, "broken.vox", "(grid 2 2")

	tests := []struct {
		name    string
		src     Source
		wantErr error
	}{
		{"no source", Source{}, ErrNoSource},
		{"two sources", Source{Grid: "a", Script: "b"}, ErrTwoSources},
		{"empty script", Source{Script: empty}, ErrEmptyScene},
		{"missing grid", Source{Grid: filepath.Join(t.TempDir(), "nope")}, os.ErrNotExist},
		{"broken script", Source{Script: broken}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scene(cfg, eng, tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
