package sdfx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/voxgrid/pkg/grid"
	"github.com/chazu/voxgrid/pkg/kernel"
	"github.com/go-gl/mathgl/mgl32"
)

func TestBoxVoxelize(t *testing.T) {
	k := New()
	box := k.Box(2, 3, 1)
	occ := k.Voxelize(box, grid.S(4, 4, 4), 1)
	if occ.Count() != 6 {
		t.Fatalf("Count() = %d, want 6", occ.Count())
	}
	if !occ.At(grid.C(1, 2, 0)) {
		t.Error("cell (1,2,0) should be inside the box")
	}
	if occ.At(grid.C(2, 0, 0)) || occ.At(grid.C(0, 0, 1)) {
		t.Error("cells past the box extent should be empty")
	}
}

func TestBoxBoundingBox(t *testing.T) {
	k := New()
	min, max := k.Box(10, 20, 30).BoundingBox()
	if min != [3]float64{0, 0, 0} {
		t.Errorf("Box min = %v, want [0 0 0]", min)
	}
	if max != [3]float64{10, 20, 30} {
		t.Errorf("Box max = %v, want [10 20 30]", max)
	}
}

func TestSphereVoxelize(t *testing.T) {
	k := New()
	s := k.Translate(k.Sphere(1.5), 2.5, 2.5, 2.5)
	occ := k.Voxelize(s, grid.S(5, 5, 5), 1)
	// centre, 6 face neighbours and 12 edge neighbours are within 1.5
	if occ.Count() != 19 {
		t.Fatalf("Count() = %d, want 19", occ.Count())
	}
	if occ.At(grid.C(1, 1, 1)) {
		t.Error("corner neighbour at distance sqrt(3) should be outside")
	}
}

func TestScaleShrinksCells(t *testing.T) {
	k := New()
	box := k.Box(1, 1, 1)
	// At scale 0.5 a unit box spans two cells per axis.
	occ := k.Voxelize(box, grid.S(4, 4, 4), 0.5)
	if occ.Count() != 8 {
		t.Fatalf("Count() = %d, want 8", occ.Count())
	}
}

func TestDifference(t *testing.T) {
	k := New()
	box := k.Box(5, 5, 5)
	hole := k.Translate(k.Sphere(1.5), 2.5, 2.5, 2.5)
	occ := k.Voxelize(k.Difference(box, hole), grid.S(5, 5, 5), 1)
	if occ.Count() != 125-19 {
		t.Fatalf("Count() = %d, want %d", occ.Count(), 125-19)
	}
	if occ.At(grid.C(2, 2, 2)) {
		t.Error("carved centre should be empty")
	}
}

func TestUnionAndIntersection(t *testing.T) {
	k := New()
	a := k.Box(2, 1, 1)
	b := k.Translate(k.Box(2, 1, 1), 1, 0, 0)
	shape := grid.S(4, 1, 1)

	if n := k.Voxelize(k.Union(a, b), shape, 1).Count(); n != 3 {
		t.Errorf("union Count() = %d, want 3", n)
	}
	if n := k.Voxelize(k.Intersection(a, b), shape, 1).Count(); n != 1 {
		t.Errorf("intersection Count() = %d, want 1", n)
	}
}

func TestCylinderVoxelize(t *testing.T) {
	k := New()
	cyl := k.Translate(k.Cylinder(4, 1.2), 1.5, 1.5, 2)
	occ := k.Voxelize(cyl, grid.S(3, 3, 4), 1)
	// The cross-section covers the centre cell and its 4 face neighbours.
	if occ.Count() != 5*4 {
		t.Fatalf("Count() = %d, want 20", occ.Count())
	}
}

func TestSaveSTL(t *testing.T) {
	m := &kernel.Mesh{}
	m.AppendCube(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}, mgl32.Vec4{1, 1, 1, 1})

	tris := Triangles(m)
	if len(tris) != 12 {
		t.Fatalf("Triangles() returned %d, want 12", len(tris))
	}
	if got := tris[0][1]; got.X != 1 || got.Y != 1 || got.Z != 0 {
		t.Errorf("triangle 0 vertex 1 = %v, want corner 2 (1,1,0)", got)
	}

	path := filepath.Join(t.TempDir(), "cube.stl")
	if err := SaveSTL(path, m); err != nil {
		t.Fatalf("SaveSTL() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() <= 84 {
		t.Errorf("STL file has %d bytes, expected header plus triangles", info.Size())
	}
	t.Logf("cube.stl: %d bytes", info.Size())
}

func TestSaveSTLRejectsBrokenMesh(t *testing.T) {
	m := &kernel.Mesh{Positions: []float32{0, 0, 0}, Colors: []float32{0, 0, 0, 1}, Indices: []uint32{0, 1, 2}}
	if err := SaveSTL(filepath.Join(t.TempDir(), "bad.stl"), m); err == nil {
		t.Error("SaveSTL should reject dangling indices")
	}
}
