package sdfx

import (
	"fmt"

	"github.com/chazu/voxgrid/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Triangles converts a kernel mesh to sdfx triangles. Colours are dropped.
func Triangles(m *kernel.Mesh) []*sdf.Triangle3 {
	vertex := func(i uint32) v3.Vec {
		p := m.Position(int(i))
		return v3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
	}
	out := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		out = append(out, &sdf.Triangle3{vertex(t[0]), vertex(t[1]), vertex(t[2])})
	}
	return out
}

// SaveSTL writes the mesh geometry to a binary STL file.
func SaveSTL(path string, m *kernel.Mesh) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("sdfx: save stl: %w", err)
	}
	if err := render.SaveSTL(path, Triangles(m)); err != nil {
		return fmt.Errorf("sdfx: save stl %s: %w", path, err)
	}
	return nil
}
