// Package scene holds the voxel scene produced by evaluating a script: a
// grid shape, world scale, palette and dense material array. Scripts build
// a Scene incrementally through a Builder.
package scene

import (
	"errors"
	"fmt"

	"github.com/chazu/voxgrid/pkg/grid"
	"github.com/chazu/voxgrid/pkg/kernel"
	"github.com/chazu/voxgrid/pkg/palette"
	"github.com/chazu/voxgrid/pkg/voxmesh"
)

// DefaultScale is the world size of one cell when a script sets none.
const DefaultScale = 1.0

var (
	// ErrNoGrid is returned when voxels are written before a shape is set.
	ErrNoGrid = errors.New("scene: grid shape not set")
	// ErrGridRedeclared is returned when the shape is set twice.
	ErrGridRedeclared = errors.New("scene: grid shape already set")
)

// Scene is an evaluated voxel volume. A zero Scene is empty: it has no shape
// and produces no mesh.
type Scene struct {
	Shape   grid.Shape
	Scale   float32
	Palette *palette.Palette
	Values  []grid.Material
}

// IsEmpty reports whether no grid was declared.
func (s *Scene) IsEmpty() bool {
	return s == nil || s.Shape.Len() == 0
}

// Count returns the number of non-empty cells.
func (s *Scene) Count() int {
	if s.IsEmpty() {
		return 0
	}
	n := 0
	for _, v := range s.Values {
		if v != grid.Empty {
			n++
		}
	}
	return n
}

// Occupancy returns the occupied cells.
func (s *Scene) Occupancy() *grid.Occupancy {
	return grid.OccupancyFromDense(s.Shape, s.Values)
}

// Mesh builds a dynamic per-voxel mesh of the scene.
func (s *Scene) Mesh() (*voxmesh.Mesh, error) {
	if s.IsEmpty() {
		return nil, ErrNoGrid
	}
	m, err := voxmesh.New(s.Shape, s.Palette, s.Scale)
	if err != nil {
		return nil, err
	}
	if err := m.Build(s.Values); err != nil {
		return nil, err
	}
	return m, nil
}

// New wraps an existing dense array, such as one read from a grid file, in
// a Scene. Every non-empty value must resolve in pal.
func New(shape grid.Shape, values []grid.Material, pal *palette.Palette, scale float32) (*Scene, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	if len(values) != shape.Len() {
		return nil, fmt.Errorf("scene: %d values for %v grid", len(values), shape)
	}
	if scale <= 0 {
		scale = DefaultScale
	}
	if err := checkValues(shape, values, pal); err != nil {
		return nil, err
	}
	return &Scene{Shape: shape, Scale: scale, Palette: pal, Values: values}, nil
}

func checkValues(shape grid.Shape, values []grid.Material, pal *palette.Palette) error {
	for i, v := range values {
		if v == grid.Empty {
			continue
		}
		if err := pal.Check(v); err != nil {
			return fmt.Errorf("scene: cell %v: %w", shape.CoordOf(i), err)
		}
	}
	return nil
}

// Builder accumulates scene edits.
type Builder struct {
	shape   grid.Shape
	hasGrid bool
	scale   float32
	colors  []palette.Color
	values  []grid.Material
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{scale: DefaultScale}
}

// SetShape declares the grid extent. It may only be called once.
func (b *Builder) SetShape(s grid.Shape) error {
	if b.hasGrid {
		return fmt.Errorf("%w as %v", ErrGridRedeclared, b.shape)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	b.shape = s
	b.hasGrid = true
	b.values = make([]grid.Material, s.Len())
	return nil
}

// Shape returns the declared shape and whether one has been set.
func (b *Builder) Shape() (grid.Shape, bool) {
	return b.shape, b.hasGrid
}

// SetScale sets the world size of one cell.
func (b *Builder) SetScale(s float32) error {
	if !(s > 0) {
		return fmt.Errorf("scene: scale must be positive, got %g", s)
	}
	b.scale = s
	return nil
}

// AddColor appends a palette entry and returns its material ID.
func (b *Builder) AddColor(c palette.Color) grid.Material {
	b.colors = append(b.colors, c)
	return grid.Material(len(b.colors))
}

// Set writes one cell.
func (b *Builder) Set(c grid.Coord, m grid.Material) error {
	if !b.hasGrid {
		return ErrNoGrid
	}
	if !b.shape.Contains(c) {
		return fmt.Errorf("scene: %v outside grid %v", c, b.shape)
	}
	b.values[b.shape.Index(c)] = m
	return nil
}

// Fill writes every cell in the inclusive box between a and b, clipped to
// the grid. Corners may be given in any order.
func (b *Builder) Fill(a, c grid.Coord, m grid.Material) (int, error) {
	if !b.hasGrid {
		return 0, ErrNoGrid
	}
	lo := grid.C(max(min(a.X, c.X), 0), max(min(a.Y, c.Y), 0), max(min(a.Z, c.Z), 0))
	hi := grid.C(min(max(a.X, c.X), b.shape.X-1), min(max(a.Y, c.Y), b.shape.Y-1), min(max(a.Z, c.Z), b.shape.Z-1))
	n := 0
	for z := lo.Z; z <= hi.Z; z++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for x := lo.X; x <= hi.X; x++ {
				b.values[b.shape.Index(grid.C(x, y, z))] = m
				n++
			}
		}
	}
	return n, nil
}

// Stamp writes m into every cell of the solid, voxelized by k in cell units
// (cell centres at c+0.5).
func (b *Builder) Stamp(k kernel.Kernel, s kernel.Solid, m grid.Material) (int, error) {
	if !b.hasGrid {
		return 0, ErrNoGrid
	}
	occ := k.Voxelize(s, b.shape, 1)
	n := 0
	for i := range b.values {
		if occ.Index(i) {
			b.values[i] = m
			n++
		}
	}
	return n, nil
}

// Build validates materials against the palette and returns the scene.
// A builder with no grid yields an empty Scene.
func (b *Builder) Build() (*Scene, error) {
	pal := palette.New(b.colors...)
	if !b.hasGrid {
		return &Scene{Scale: b.scale, Palette: pal}, nil
	}
	if err := checkValues(b.shape, b.values, pal); err != nil {
		return nil, err
	}
	return &Scene{
		Shape:   b.shape,
		Scale:   b.scale,
		Palette: pal,
		Values:  append([]grid.Material(nil), b.values...),
	}, nil
}
