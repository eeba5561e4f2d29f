// Package voxmesh builds and incrementally maintains a per-voxel cube mesh.
//
// Every occupied cell owns a contiguous block of 8 vertices and 12
// triangles in one shared vertex/index buffer. A coordinate index records
// where each cell's block starts, so a cell whose material changes is
// recoloured in place (8 colour writes) and a newly occupied cell is
// appended, without rebuilding the mesh.
//
// A Mesh is not safe for concurrent use. Callers that share one across
// goroutines must serialize access themselves.
package voxmesh

import (
	"errors"
	"fmt"

	"github.com/chazu/voxgrid/pkg/grid"
	"github.com/chazu/voxgrid/pkg/kernel"
	"github.com/chazu/voxgrid/pkg/palette"
)

var (
	// ErrCoordOutOfBounds is returned for coordinates outside the grid shape.
	ErrCoordOutOfBounds = errors.New("voxmesh: coordinate out of bounds")

	// ErrLengthMismatch is returned by UpdateMany when the coordinate and
	// material slices differ in length.
	ErrLengthMismatch = errors.New("voxmesh: coordinate and material counts differ")

	// ErrBadScale is returned for a non-positive world scale.
	ErrBadScale = errors.New("voxmesh: scale must be positive")
)

// Mesh is a dynamic voxel mesh over a fixed grid shape and palette.
type Mesh struct {
	shape   grid.Shape
	palette *palette.Palette
	scale   float32

	geom  *kernel.Mesh
	index coordIndex

	observers []func(Change)
}

// New returns an empty mesh. The palette is not copied; it must not change
// for the lifetime of the mesh.
func New(shape grid.Shape, pal *palette.Palette, scale float32) (*Mesh, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if !(scale > 0) {
		return nil, fmt.Errorf("%w: got %g", ErrBadScale, scale)
	}
	return &Mesh{
		shape:   shape,
		palette: pal,
		scale:   scale,
		geom:    &kernel.Mesh{Usage: kernel.UsageDynamic},
		index:   newCoordIndex(0),
	}, nil
}

// Shape returns the grid extent.
func (m *Mesh) Shape() grid.Shape { return m.shape }

// Scale returns the world size of one cell.
func (m *Mesh) Scale() float32 { return m.scale }

// Palette returns the colour table.
func (m *Mesh) Palette() *palette.Palette { return m.palette }

// Geometry returns the mesh buffers. The same *kernel.Mesh is returned for
// the lifetime of m and is mutated in place by Build and Update; its slices
// may be reallocated by any mutating call, so readers must not keep them
// across one.
func (m *Mesh) Geometry() *kernel.Mesh { return m.geom }

// Len returns the number of emitted cubes.
func (m *Mesh) Len() int { return m.index.len() }

// Lookup returns the base vertex offset of the cube at c.
func (m *Mesh) Lookup(c grid.Coord) (base uint32, ok bool) {
	e, ok := m.index.lookup(c)
	return e.base, ok
}

// Material returns the material last written at c, or grid.Empty if c has
// never been emitted.
func (m *Mesh) Material(c grid.Coord) grid.Material {
	e, ok := m.index.lookup(c)
	if !ok {
		return grid.Empty
	}
	return e.mat
}

// Dense returns the materials of every emitted cube in dense grid order.
func (m *Mesh) Dense() []grid.Material {
	out := make([]grid.Material, m.shape.Len())
	m.index.each(func(c grid.Coord, e entry) {
		out[m.shape.Index(c)] = e.mat
	})
	return out
}

// Occupancy returns the set of emitted cells.
func (m *Mesh) Occupancy() *grid.Occupancy {
	occ := grid.NewOccupancy(m.shape)
	m.index.each(func(c grid.Coord, _ entry) {
		occ.Set(c, true)
	})
	return occ
}
