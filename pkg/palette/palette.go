// Package palette implements the colour table that maps voxel material IDs
// to RGBA colours. Material m (m > 0) resolves to entry m-1; material 0 is
// the empty voxel and has no colour.
package palette

import (
	"errors"
	"fmt"

	"github.com/chazu/voxgrid/pkg/grid"
)

var (
	// ErrMaterialOutOfRange is returned when a material has no table entry.
	ErrMaterialOutOfRange = errors.New("palette: material out of range")

	// ErrEmptyMaterial is returned when the empty material is looked up.
	ErrEmptyMaterial = errors.New("palette: material 0 is empty")
)

// Palette is an immutable colour table. The zero value is an empty table.
type Palette struct {
	colors []Color
}

// New returns a palette holding a copy of colors; colors[0] is material 1.
func New(colors ...Color) *Palette {
	return &Palette{colors: append([]Color(nil), colors...)}
}

// FromFlat builds a palette from the flat 4-floats-per-material layout
// (R,G,B,A repeated). The length must be a multiple of 4.
func FromFlat(flat []float32) (*Palette, error) {
	if len(flat)%4 != 0 {
		return nil, fmt.Errorf("palette: flat table length %d is not a multiple of 4", len(flat))
	}
	colors := make([]Color, 0, len(flat)/4)
	for i := 0; i < len(flat); i += 4 {
		colors = append(colors, Color{R: flat[i], G: flat[i+1], B: flat[i+2], A: flat[i+3]})
	}
	return &Palette{colors: colors}, nil
}

// FromHex builds a palette from hex colour strings.
func FromHex(hex ...string) (*Palette, error) {
	colors := make([]Color, 0, len(hex))
	for i, h := range hex {
		c, err := ParseHex(h)
		if err != nil {
			return nil, fmt.Errorf("palette: entry %d: %w", i+1, err)
		}
		colors = append(colors, c)
	}
	return &Palette{colors: colors}, nil
}

// Len returns the number of materials in the table.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.colors)
}

// Lookup resolves material m to its colour.
func (p *Palette) Lookup(m grid.Material) (Color, error) {
	if m == grid.Empty {
		return Color{}, ErrEmptyMaterial
	}
	if int(m) > p.Len() {
		return Color{}, fmt.Errorf("%w: material %d, table has %d entries", ErrMaterialOutOfRange, m, p.Len())
	}
	return p.colors[m-1], nil
}

// Check reports whether m resolves, without returning the colour.
func (p *Palette) Check(m grid.Material) error {
	_, err := p.Lookup(m)
	return err
}

// Colors returns a copy of the table.
func (p *Palette) Colors() []Color {
	if p == nil {
		return nil
	}
	return append([]Color(nil), p.colors...)
}

// Flat returns the table in the 4-floats-per-material layout.
func (p *Palette) Flat() []float32 {
	out := make([]float32, 0, p.Len()*4)
	for _, c := range p.Colors() {
		out = append(out, c.R, c.G, c.B, c.A)
	}
	return out
}
