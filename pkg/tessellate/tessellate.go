// Package tessellate turns occupancy grids into static shared-vertex meshes.
//
// Unlike voxmesh, which gives every cell its own 8 vertices so it can be
// recoloured independently, the converter here emits one vertex per lattice
// point and lets neighbouring cells share them. Colour is a vertical
// gradient, so the result cannot be edited per cell and is marked static.
package tessellate

import (
	"errors"
	"fmt"
	"log"

	"github.com/chazu/voxgrid/pkg/grid"
	"github.com/chazu/voxgrid/pkg/kernel"
	"github.com/chazu/voxgrid/pkg/palette"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrBadScale is returned for a non-positive world scale.
var ErrBadScale = errors.New("tessellate: scale must be positive")

type options struct {
	logger *log.Logger
	name   string
}

// Option configures a conversion.
type Option func(*options)

// WithLogger reports conversion progress to l.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithName sets the Name of the produced mesh.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func (o *options) logf(format string, args ...any) {
	if o.logger != nil {
		o.logger.Printf(format, args...)
	}
}

// ConvertDense builds a shared-vertex mesh from a dense occupancy slice in
// x-fastest order. A short slice is treated as zero-padded.
//
// The mesh has (X+1)(Y+1)(Z+1) vertices, one per lattice point at
// (x,y,z)*scale, coloured by linear interpolation from minColor at z=0 to
// maxColor at z=shape.Z, so the top lattice layer takes maxColor exactly.
// Every occupied cell contributes 12 triangles.
func ConvertDense(occ []bool, shape grid.Shape, scale float32, minColor, maxColor palette.Color, opts ...Option) (*kernel.Mesh, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	return ConvertOccupancy(grid.OccupancyFromBools(shape, occ), scale, minColor, maxColor, opts...)
}

// ConvertOccupancy is ConvertDense over a packed occupancy grid.
func ConvertOccupancy(occ *grid.Occupancy, scale float32, minColor, maxColor palette.Color, opts ...Option) (*kernel.Mesh, error) {
	if !(scale > 0) {
		return nil, fmt.Errorf("%w: got %g", ErrBadScale, scale)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	shape := occ.Shape()
	lat := shape.Lattice()
	filled := occ.Count()

	m := &kernel.Mesh{Usage: kernel.UsageStatic, Name: o.name}
	m.Grow(lat.Len(), filled*kernel.CubeTriangleN)

	o.logf("generating vertices: %d lattice points for %v", lat.Len(), shape)
	depth := float32(shape.Z)
	lat.Each(func(c grid.Coord, _ int) {
		p := mgl32.Vec3{float32(c.X), float32(c.Y), float32(c.Z)}.Mul(scale)
		col := palette.Lerp(minColor, maxColor, float32(c.Z)/depth)
		m.AppendVertex(p, col.Vec4())
	})

	o.logf("generating faces: %d occupied cells", filled)
	shape.Each(func(c grid.Coord, i int) {
		if !occ.Index(i) {
			return
		}
		m.AppendCubeFaces(kernel.LatticeCorners(lat.Index(c), lat.YStride(), lat.ZStride()))
	})

	o.logf("done: %d vertices, %d triangles", m.VertexCount(), m.TriangleCount())
	return m, nil
}

// Solid voxelizes s with kernel k over shape and converts the result.
// Cells are sampled at their centres.
func Solid(k kernel.Kernel, s kernel.Solid, shape grid.Shape, scale float32, minColor, maxColor palette.Color, opts ...Option) (*kernel.Mesh, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	if !(scale > 0) {
		return nil, fmt.Errorf("%w: got %g", ErrBadScale, scale)
	}
	occ := k.Voxelize(s, shape, float64(scale))
	return ConvertOccupancy(occ, scale, minColor, maxColor, opts...)
}
