// Package kernel defines the mesh buffers handed to the host renderer, the
// fixed cube geometry shared by the voxel builders, and the abstract solid
// modeling interface used to fill voxel grids from shapes. Implementations
// (sdfx) provide solids behind this interface.
package kernel

import "github.com/chazu/voxgrid/pkg/grid"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
	// Contains reports whether the point lies inside or on the surface.
	Contains(x, y, z float64) bool
}

// Kernel is the abstract geometry kernel interface.
// Implementations (sdfx) provide solid modeling behind this interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Sphere(radius float64) Solid
	Cylinder(height, radius float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Voxel output: a cell is occupied when its centre, in world units
	// (cell * scale), lies inside the solid.
	Voxelize(s Solid, shape grid.Shape, scale float64) *grid.Occupancy
}

// Voxelize samples s at every cell centre of shape. It is the reference
// implementation kernels may use for their Voxelize method.
func Voxelize(s Solid, shape grid.Shape, scale float64) *grid.Occupancy {
	occ := grid.NewOccupancy(shape)
	lo, hi := s.BoundingBox()
	shape.Each(func(c grid.Coord, i int) {
		x := (float64(c.X) + 0.5) * scale
		y := (float64(c.Y) + 0.5) * scale
		z := (float64(c.Z) + 0.5) * scale
		if x < lo[0] || y < lo[1] || z < lo[2] || x > hi[0] || y > hi[1] || z > hi[2] {
			return
		}
		if s.Contains(x, y, z) {
			occ.SetIndex(i, true)
		}
	})
	return occ
}
