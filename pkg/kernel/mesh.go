package kernel

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Usage hints how often the host renderer should expect a mesh's buffers to
// change.
type Usage int

const (
	UsageStatic  Usage = iota // built once, never mutated
	UsageDynamic              // mutated in place between draws
)

func (u Usage) String() string {
	switch u {
	case UsageStatic:
		return "static"
	case UsageDynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("Usage(%d)", int(u))
	}
}

// MarshalText encodes the usage as "static" or "dynamic" for the frontend.
func (u Usage) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (u *Usage) UnmarshalText(b []byte) error {
	switch string(b) {
	case "static":
		*u = UsageStatic
	case "dynamic":
		*u = UsageDynamic
	default:
		return fmt.Errorf("kernel: unknown usage %q", b)
	}
	return nil
}

// Mesh is a coloured triangle mesh suitable for rendering.
// All arrays are flat: positions has 3 floats per vertex (x,y,z),
// colors has 4 floats per vertex (r,g,b,a), indices has 3 uint32s per triangle.
type Mesh struct {
	Positions []float32 `json:"positions"` // [x0,y0,z0, x1,y1,z1, ...]
	Colors    []float32 `json:"colors"`    // [r0,g0,b0,a0, ...]
	Indices   []uint32  `json:"indices"`   // [i0,i1,i2, ...] triangles
	Usage     Usage     `json:"usage"`
	Name      string    `json:"name,omitempty"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Positions) == 0
}

// Reset truncates all buffers, keeping their capacity.
func (m *Mesh) Reset() {
	m.Positions = m.Positions[:0]
	m.Colors = m.Colors[:0]
	m.Indices = m.Indices[:0]
}

// Grow reserves room for n more vertices and t more triangles.
func (m *Mesh) Grow(n, t int) {
	m.Positions = grow(m.Positions, 3*n)
	m.Colors = grow(m.Colors, 4*n)
	m.Indices = grow(m.Indices, 3*t)
}

func grow[T any](s []T, n int) []T {
	if cap(s)-len(s) >= n {
		return s
	}
	out := make([]T, len(s), len(s)+n)
	copy(out, s)
	return out
}

// AppendVertex adds one vertex and returns its index.
func (m *Mesh) AppendVertex(p mgl32.Vec3, c mgl32.Vec4) uint32 {
	i := uint32(m.VertexCount())
	m.Positions = append(m.Positions, p[0], p[1], p[2])
	m.Colors = append(m.Colors, c[0], c[1], c[2], c[3])
	return i
}

// AppendTriangle adds one triangle referencing existing vertex indices.
func (m *Mesh) AppendTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

// Position returns the position of vertex i.
func (m *Mesh) Position(i int) mgl32.Vec3 {
	return mgl32.Vec3{m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2]}
}

// Color returns the colour of vertex i.
func (m *Mesh) Color(i int) mgl32.Vec4 {
	return mgl32.Vec4{m.Colors[4*i], m.Colors[4*i+1], m.Colors[4*i+2], m.Colors[4*i+3]}
}

// SetColor overwrites the colour of vertex i.
func (m *Mesh) SetColor(i int, c mgl32.Vec4) {
	copy(m.Colors[4*i:4*i+4], c[:])
}

// Recolor overwrites the colour of n consecutive vertices starting at base.
func (m *Mesh) Recolor(base, n int, c mgl32.Vec4) {
	for i := base; i < base+n; i++ {
		m.SetColor(i, c)
	}
}

// Triangle returns the vertex indices of triangle i.
func (m *Mesh) Triangle(i int) [3]uint32 {
	return [3]uint32{m.Indices[3*i], m.Indices[3*i+1], m.Indices[3*i+2]}
}

// Bounds returns the axis-aligned bounding box of all vertices.
// An empty mesh returns zero vectors.
func (m *Mesh) Bounds() (min, max mgl32.Vec3) {
	n := m.VertexCount()
	if n == 0 {
		return min, max
	}
	min = m.Position(0)
	max = min
	for i := 1; i < n; i++ {
		p := m.Position(i)
		for k := 0; k < 3; k++ {
			mgl32.SetMin(&min[k], &p[k])
			mgl32.SetMax(&max[k], &p[k])
		}
	}
	return min, max
}

// Validate checks that the buffers agree in length and that every index
// references an existing vertex.
func (m *Mesh) Validate() error {
	if len(m.Positions)%3 != 0 {
		return fmt.Errorf("kernel: positions length %d is not a multiple of 3", len(m.Positions))
	}
	if len(m.Colors) != m.VertexCount()*4 {
		return fmt.Errorf("kernel: %d colour floats for %d vertices", len(m.Colors), m.VertexCount())
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("kernel: indices length %d is not a multiple of 3", len(m.Indices))
	}
	n := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("kernel: triangle %d references vertex %d of %d", i/3, idx, n)
		}
	}
	return nil
}
