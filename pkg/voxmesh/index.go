package voxmesh

import "github.com/chazu/voxgrid/pkg/grid"

// entry is where one cube lives in the vertex buffer and what it was last
// painted with.
type entry struct {
	base uint32
	mat  grid.Material
}

// coordIndex maps voxel coordinates to their cube's vertex block.
// Entries are only ever added or repainted, never removed.
type coordIndex struct {
	m map[grid.Coord]entry
}

func newCoordIndex(capacity int) coordIndex {
	return coordIndex{m: make(map[grid.Coord]entry, capacity)}
}

func (ix coordIndex) lookup(c grid.Coord) (entry, bool) {
	e, ok := ix.m[c]
	return e, ok
}

// insert registers a newly emitted cube. c must not already be present.
func (ix coordIndex) insert(c grid.Coord, base uint32, mat grid.Material) {
	ix.m[c] = entry{base: base, mat: mat}
}

func (ix coordIndex) repaint(c grid.Coord, mat grid.Material) {
	e := ix.m[c]
	e.mat = mat
	ix.m[c] = e
}

func (ix coordIndex) len() int {
	return len(ix.m)
}

func (ix coordIndex) each(fn func(grid.Coord, entry)) {
	for c, e := range ix.m {
		fn(c, e)
	}
}
