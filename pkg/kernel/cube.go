package kernel

import "github.com/go-gl/mathgl/mgl32"

// CubeCorners lists the unit-cube corners in emission order: the bottom face
// counter-clockwise from the min corner, then the top face starting at
// (0,1,1) and winding back over +X.
var CubeCorners = [8][3]uint8{
	{0, 0, 0},
	{1, 0, 0},
	{1, 1, 0},
	{0, 1, 0},
	{0, 1, 1},
	{1, 1, 1},
	{1, 0, 1},
	{0, 0, 1},
}

// CubeTriangles triangulates a cube over the local corner indices of
// CubeCorners, two triangles per face, counter-clockwise seen from outside.
var CubeTriangles = [12][3]uint32{
	{0, 2, 1}, {0, 3, 2}, // z-
	{2, 3, 4}, {2, 4, 5}, // y+
	{1, 2, 5}, {1, 5, 6}, // x+
	{0, 7, 4}, {0, 4, 3}, // x-
	{5, 4, 7}, {5, 7, 6}, // z+
	{0, 6, 7}, {0, 1, 6}, // y-
}

const (
	CubeVertices  = len(CubeCorners)
	CubeTriangleN = len(CubeTriangles)
)

// AppendCube appends the 8 corners of the box [lo, hi], all with colour c,
// and its 12 triangles. It returns the index of the first new vertex.
func (m *Mesh) AppendCube(lo, hi mgl32.Vec3, c mgl32.Vec4) uint32 {
	m.Grow(CubeVertices, CubeTriangleN)
	base := uint32(m.VertexCount())
	for _, k := range CubeCorners {
		p := lo
		for axis := 0; axis < 3; axis++ {
			if k[axis] == 1 {
				p[axis] = hi[axis]
			}
		}
		m.AppendVertex(p, c)
	}
	for _, t := range CubeTriangles {
		m.AppendTriangle(base+t[0], base+t[1], base+t[2])
	}
	return base
}

// LatticeCorners returns the flat lattice indices of the 8 corners of the
// cell whose min corner sits at lattice index origin, in CubeCorners order.
func LatticeCorners(origin, yStride, zStride int) [8]uint32 {
	var out [8]uint32
	for i, k := range CubeCorners {
		out[i] = uint32(origin + int(k[0]) + int(k[1])*yStride + int(k[2])*zStride)
	}
	return out
}

// AppendCubeFaces appends the 12 cube triangles over existing vertices.
func (m *Mesh) AppendCubeFaces(corners [8]uint32) {
	for _, t := range CubeTriangles {
		m.AppendTriangle(corners[t[0]], corners[t[1]], corners[t[2]])
	}
}
