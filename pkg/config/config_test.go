package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/voxgrid/pkg/palette"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	c := Defaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("Defaults().Validate() error: %v", err)
	}
	p, err := c.LoadPalette()
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != len(c.Palette) {
		t.Errorf("palette has %d entries, want %d", p.Len(), len(c.Palette))
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, "voxgrid.yaml", `
scale: 0.5
palette: ["#ff0000", "#00ff00"]
stream:
  addr: ":9000"
eval_timeout: 2s
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Scale != 0.5 {
		t.Errorf("Scale = %g, want 0.5", c.Scale)
	}
	if len(c.Palette) != 2 {
		t.Errorf("len(Palette) = %d, want 2", len(c.Palette))
	}
	if c.Stream.Addr != ":9000" {
		t.Errorf("Stream.Addr = %q, want %q", c.Stream.Addr, ":9000")
	}
	if c.Stream.MaxBatch != Defaults().Stream.MaxBatch {
		t.Errorf("Stream.MaxBatch = %d, want default %d", c.Stream.MaxBatch, Defaults().Stream.MaxBatch)
	}
	if c.EvalTimeout != 2*time.Second {
		t.Errorf("EvalTimeout = %s, want 2s", c.EvalTimeout)
	}
	if c.Gradient != Defaults().Gradient {
		t.Errorf("Gradient = %+v, want defaults", c.Gradient)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"bad yaml", "scale: [", "yaml"},
		{"zero scale", "scale: 0", "scale must be positive"},
		{"bad palette colour", `palette: ["red"]`, "palette"},
		{"bad gradient", "gradient:\n  min: nope\n", "gradient.min"},
		{"negative batch", "stream:\n  max_batch: -1\n", "max_batch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "bad.yaml", tt.body))
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !os.IsNotExist(err) {
		t.Errorf("Load() error = %v, want not-exist", err)
	}
}

func TestPaletteFileTakesPrecedence(t *testing.T) {
	pal := writeFile(t, "palette.yaml", `
materials:
  - name: lava
    rgba: [1, 0.3, 0]
`)
	c := Defaults()
	c.PaletteFile = pal
	p, err := c.LoadPalette()
	if err != nil {
		t.Fatalf("LoadPalette() error: %v", err)
	}
	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", p.Len())
	}
	got, _ := p.Lookup(1)
	if got != palette.RGBA(1, 0.3, 0, 1) {
		t.Errorf("material 1 = %v, want rgba(1,0.3,0,1)", got)
	}
}

func TestGradientColors(t *testing.T) {
	c := Defaults()
	c.Gradient = Gradient{Min: "#000000", Max: "#ffffff"}
	lo, hi, err := c.GradientColors()
	if err != nil {
		t.Fatal(err)
	}
	if lo != palette.RGBA(0, 0, 0, 1) || hi != palette.RGBA(1, 1, 1, 1) {
		t.Errorf("GradientColors() = %v, %v", lo, hi)
	}
}
