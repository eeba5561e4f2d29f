package voxmesh

import (
	"fmt"

	"github.com/chazu/voxgrid/pkg/grid"
)

// Build replaces the mesh with one cube per non-empty cell of values, a
// dense material grid in x-fastest order. A short slice is treated as
// zero-padded; entries beyond the shape are ignored.
//
// Every material is checked against the palette before anything is
// touched, so on error the previous mesh is left as it was.
func (m *Mesh) Build(values []grid.Material) error {
	n := min(len(values), m.shape.Len())

	occupied := 0
	for i, v := range values[:n] {
		if v == grid.Empty {
			continue
		}
		if err := m.palette.Check(v); err != nil {
			return fmt.Errorf("voxmesh: build: cell %v: %w", m.shape.CoordOf(i), err)
		}
		occupied++
	}

	m.geom.Reset()
	m.geom.Grow(occupied*8, occupied*12)
	m.index = newCoordIndex(occupied)

	m.shape.Each(func(c grid.Coord, i int) {
		if i >= n || values[i] == grid.Empty {
			return
		}
		col, _ := m.palette.Lookup(values[i])
		m.emit(c, values[i], col)
	})

	m.notify(Change{Kind: ChangeReset})
	return nil
}

// BuildOccupancy builds the mesh from a boolean grid, painting every
// occupied cell with mat.
func (m *Mesh) BuildOccupancy(occ *grid.Occupancy, mat grid.Material) error {
	if occ.Shape() != m.shape {
		return fmt.Errorf("voxmesh: build: occupancy shape %v does not match mesh shape %v", occ.Shape(), m.shape)
	}
	if err := m.palette.Check(mat); err != nil {
		return fmt.Errorf("voxmesh: build: %w", err)
	}
	values := make([]grid.Material, m.shape.Len())
	for i := range values {
		if occ.Index(i) {
			values[i] = mat
		}
	}
	return m.Build(values)
}
