package voxmesh

import (
	"github.com/chazu/voxgrid/pkg/grid"
	"github.com/chazu/voxgrid/pkg/kernel"
	"github.com/chazu/voxgrid/pkg/palette"
	"github.com/go-gl/mathgl/mgl32"
)

// emit appends the cube for c and registers it in the index. c must not be
// indexed yet. It never touches existing buffer contents.
func (m *Mesh) emit(c grid.Coord, mat grid.Material, col palette.Color) uint32 {
	lo := mgl32.Vec3{float32(c.X), float32(c.Y), float32(c.Z)}.Mul(m.scale)
	hi := mgl32.Vec3{float32(c.X + 1), float32(c.Y + 1), float32(c.Z + 1)}.Mul(m.scale)

	base := m.geom.AppendCube(lo, hi, col.Vec4())
	m.index.insert(c, base, mat)
	return base
}

// recolor repaints the 8 vertices of an already emitted cube.
func (m *Mesh) recolor(c grid.Coord, base uint32, mat grid.Material, col palette.Color) {
	m.geom.Recolor(int(base), kernel.CubeVertices, col.Vec4())
	m.index.repaint(c, mat)
}
