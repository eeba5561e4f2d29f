// Package grid defines the voxel volume types shared by the mesh builders:
// the grid shape and its strides, integer voxel coordinates, material IDs
// and the boolean occupancy grid.
package grid

import (
	"errors"
	"fmt"
)

// ErrInvalidShape is returned when a shape has a non-positive extent.
var ErrInvalidShape = errors.New("grid: shape extents must be positive")

// Material is a voxel value. Zero means the cell is empty; a positive value
// m selects palette entry m-1.
type Material uint16

// Empty is the material of an unoccupied cell.
const Empty Material = 0

// Coord is an integer voxel coordinate.
type Coord struct {
	X, Y, Z int
}

// C is shorthand for Coord{X: x, Y: y, Z: z}.
func C(x, y, z int) Coord {
	return Coord{X: x, Y: y, Z: z}
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Shape is the extent of a voxel volume in cells.
type Shape struct {
	X, Y, Z int
}

// S is shorthand for Shape{X: x, Y: y, Z: z}.
func S(x, y, z int) Shape {
	return Shape{X: x, Y: y, Z: z}
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.X, s.Y, s.Z)
}

// Validate reports ErrInvalidShape unless all three extents are positive.
func (s Shape) Validate() error {
	if s.X <= 0 || s.Y <= 0 || s.Z <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidShape, s)
	}
	return nil
}

// YStride is the flat-index distance between rows.
func (s Shape) YStride() int { return s.X }

// ZStride is the flat-index distance between layers.
func (s Shape) ZStride() int { return s.X * s.Y }

// Len returns the number of cells in the volume.
func (s Shape) Len() int { return s.X * s.Y * s.Z }

// Index converts c to a flat index into a dense array. The result is only
// meaningful when Contains(c) is true.
func (s Shape) Index(c Coord) int {
	return c.X + c.Y*s.YStride() + c.Z*s.ZStride()
}

// CoordOf is the inverse of Index.
func (s Shape) CoordOf(i int) Coord {
	zs := s.ZStride()
	z := i / zs
	i -= z * zs
	y := i / s.X
	return Coord{X: i - y*s.X, Y: y, Z: z}
}

// Contains reports whether c lies inside the volume.
func (s Shape) Contains(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.Z >= 0 &&
		c.X < s.X && c.Y < s.Y && c.Z < s.Z
}

// Lattice returns the shape of the corner lattice surrounding the volume:
// one point per cell corner, so one more than the cell count on each axis.
func (s Shape) Lattice() Shape {
	return Shape{X: s.X + 1, Y: s.Y + 1, Z: s.Z + 1}
}

// Each calls fn for every cell in z, y, x nesting order, the order of the
// dense layout.
func (s Shape) Each(fn func(c Coord, i int)) {
	i := 0
	for z := 0; z < s.Z; z++ {
		for y := 0; y < s.Y; y++ {
			for x := 0; x < s.X; x++ {
				fn(Coord{X: x, Y: y, Z: z}, i)
				i++
			}
		}
	}
}
