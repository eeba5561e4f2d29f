package voxmesh

import (
	"errors"
	"slices"
	"testing"

	"github.com/chazu/voxgrid/pkg/grid"
	"github.com/chazu/voxgrid/pkg/kernel"
	"github.com/chazu/voxgrid/pkg/palette"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	red   = palette.RGBA(1, 0, 0, 1)
	green = palette.RGBA(0, 1, 0, 1)
	blue  = palette.RGBA(0, 0, 1, 0.5)
)

func testPalette() *palette.Palette {
	return palette.New(red, green, blue)
}

func newMesh(t *testing.T, shape grid.Shape, scale float32) *Mesh {
	t.Helper()
	m, err := New(shape, testPalette(), scale)
	if err != nil {
		t.Fatalf("New(%v) error: %v", shape, err)
	}
	return m
}

// snapshot copies the buffers so later mutations can be compared.
func snapshot(g *kernel.Mesh) kernel.Mesh {
	return kernel.Mesh{
		Positions: slices.Clone(g.Positions),
		Colors:    slices.Clone(g.Colors),
		Indices:   slices.Clone(g.Indices),
	}
}

// --- Construction ---

func TestNewRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		shape grid.Shape
		scale float32
		want  error
	}{
		{"zero extent", grid.S(0, 1, 1), 1, grid.ErrInvalidShape},
		{"negative extent", grid.S(2, -1, 2), 1, grid.ErrInvalidShape},
		{"zero scale", grid.S(1, 1, 1), 0, ErrBadScale},
		{"negative scale", grid.S(1, 1, 1), -2, ErrBadScale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.shape, testPalette(), tt.scale)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewIsEmptyAndDynamic(t *testing.T) {
	m := newMesh(t, grid.S(2, 2, 2), 1)
	g := m.Geometry()
	if !g.IsEmpty() {
		t.Errorf("new mesh has %d vertices, want 0", g.VertexCount())
	}
	if g.Usage != kernel.UsageDynamic {
		t.Errorf("Usage = %v, want dynamic", g.Usage)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

// --- Bulk build ---

func TestBuildEmitsOneCubePerOccupiedCell(t *testing.T) {
	tests := []struct {
		name   string
		shape  grid.Shape
		values []grid.Material
		cubes  int
	}{
		{"empty", grid.S(2, 2, 2), make([]grid.Material, 8), 0},
		{"single", grid.S(1, 1, 1), []grid.Material{1}, 1},
		{"full", grid.S(2, 2, 2), []grid.Material{1, 2, 3, 1, 2, 3, 1, 2}, 8},
		{"sparse", grid.S(3, 2, 1), []grid.Material{0, 1, 0, 0, 0, 3}, 2},
		{"short input zero-padded", grid.S(2, 2, 2), []grid.Material{1, 1}, 2},
		{"long input truncated", grid.S(1, 1, 2), []grid.Material{1, 1, 1, 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMesh(t, tt.shape, 1)
			if err := m.Build(tt.values); err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			g := m.Geometry()
			if got, want := g.VertexCount(), 8*tt.cubes; got != want {
				t.Errorf("VertexCount() = %d, want %d", got, want)
			}
			if got, want := g.TriangleCount(), 12*tt.cubes; got != want {
				t.Errorf("TriangleCount() = %d, want %d", got, want)
			}
			if m.Len() != tt.cubes {
				t.Errorf("Len() = %d, want %d", m.Len(), tt.cubes)
			}
			if err := g.Validate(); err != nil {
				t.Errorf("Validate() error: %v", err)
			}
		})
	}
}

func TestBuildScansZThenYThenX(t *testing.T) {
	shape := grid.S(2, 2, 2)
	m := newMesh(t, shape, 1)
	values := make([]grid.Material, shape.Len())
	for i := range values {
		values[i] = 1
	}
	if err := m.Build(values); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	for i := 0; i < shape.Len(); i++ {
		c := shape.CoordOf(i)
		base, ok := m.Lookup(c)
		if !ok {
			t.Fatalf("Lookup(%v) missing", c)
		}
		if want := uint32(8 * i); base != want {
			t.Errorf("Lookup(%v) = %d, want %d", c, base, want)
		}
	}
}

func TestBuildReplacesPreviousMesh(t *testing.T) {
	m := newMesh(t, grid.S(2, 1, 1), 1)
	if err := m.Build([]grid.Material{1, 1}); err != nil {
		t.Fatal(err)
	}
	if err := m.Build([]grid.Material{0, 2}); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if _, ok := m.Lookup(grid.C(0, 0, 0)); ok {
		t.Errorf("Lookup((0,0,0)) still indexed after rebuild")
	}
	base, ok := m.Lookup(grid.C(1, 0, 0))
	if !ok || base != 0 {
		t.Errorf("Lookup((1,0,0)) = %d, %v; want 0, true", base, ok)
	}
}

func TestBuildRejectsUnknownMaterialAndKeepsMesh(t *testing.T) {
	m := newMesh(t, grid.S(2, 1, 1), 1)
	if err := m.Build([]grid.Material{1, 2}); err != nil {
		t.Fatal(err)
	}
	before := snapshot(m.Geometry())

	err := m.Build([]grid.Material{1, 9})
	if !errors.Is(err, palette.ErrMaterialOutOfRange) {
		t.Fatalf("Build() error = %v, want ErrMaterialOutOfRange", err)
	}
	after := m.Geometry()
	if !slices.Equal(before.Positions, after.Positions) || !slices.Equal(before.Colors, after.Colors) || !slices.Equal(before.Indices, after.Indices) {
		t.Errorf("failed Build modified the mesh")
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestBuildOccupancy(t *testing.T) {
	shape := grid.S(3, 3, 1)
	occ := grid.NewOccupancy(shape)
	occ.Set(grid.C(1, 1, 0), true)
	occ.Set(grid.C(2, 0, 0), true)

	m := newMesh(t, shape, 1)
	if err := m.BuildOccupancy(occ, 2); err != nil {
		t.Fatalf("BuildOccupancy() error: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	if got := m.Material(grid.C(1, 1, 0)); got != 2 {
		t.Errorf("Material((1,1,0)) = %d, want 2", got)
	}

	if err := m.BuildOccupancy(grid.NewOccupancy(grid.S(1, 1, 1)), 1); err == nil {
		t.Errorf("BuildOccupancy() with mismatched shape: want error")
	}
	if err := m.BuildOccupancy(occ, 0); !errors.Is(err, palette.ErrEmptyMaterial) {
		t.Errorf("BuildOccupancy(mat 0) error = %v, want ErrEmptyMaterial", err)
	}
}

// --- Geometry ---

func TestCubeGeometryFollowsScale(t *testing.T) {
	const s = 0.5
	shape := grid.S(2, 3, 4)
	c := grid.C(1, 2, 3)
	m := newMesh(t, shape, s)
	if err := m.Update(c, 1); err != nil {
		t.Fatal(err)
	}
	g := m.Geometry()
	for k, corner := range kernel.CubeCorners {
		want := mgl32.Vec3{
			float32(c.X+int(corner[0])) * s,
			float32(c.Y+int(corner[1])) * s,
			float32(c.Z+int(corner[2])) * s,
		}
		if got := g.Position(k); got != want {
			t.Errorf("corner %d = %v, want %v", k, got, want)
		}
	}
	lo, hi := g.Bounds()
	if want := (mgl32.Vec3{0.5, 1, 1.5}); lo != want {
		t.Errorf("Bounds() min = %v, want %v", lo, want)
	}
	if want := (mgl32.Vec3{1, 1.5, 2}); hi != want {
		t.Errorf("Bounds() max = %v, want %v", hi, want)
	}
}

func TestCubeColorsComeFromPalette(t *testing.T) {
	m := newMesh(t, grid.S(3, 1, 1), 1)
	if err := m.Build([]grid.Material{3, 1, 2}); err != nil {
		t.Fatal(err)
	}
	want := map[grid.Coord]palette.Color{
		grid.C(0, 0, 0): blue,
		grid.C(1, 0, 0): red,
		grid.C(2, 0, 0): green,
	}
	g := m.Geometry()
	for c, col := range want {
		base, _ := m.Lookup(c)
		for v := 0; v < 8; v++ {
			if got := g.Color(int(base) + v); got != col.Vec4() {
				t.Errorf("%v vertex %d colour = %v, want %v", c, v, got, col.Vec4())
			}
		}
	}
}

func TestTrianglesStayWithinOwnCube(t *testing.T) {
	m := newMesh(t, grid.S(2, 2, 1), 1)
	if err := m.Build([]grid.Material{1, 0, 2, 3}); err != nil {
		t.Fatal(err)
	}
	g := m.Geometry()
	for i := 0; i < g.TriangleCount(); i++ {
		tri := g.Triangle(i)
		cube := uint32(i / 12)
		for _, v := range tri {
			if v/8 != cube {
				t.Errorf("triangle %d references vertex %d outside cube %d", i, v, cube)
			}
		}
	}
}

// --- Incremental update ---

func TestUpdateRecolorsInPlace(t *testing.T) {
	m := newMesh(t, grid.S(2, 2, 2), 1)
	if err := m.Build([]grid.Material{1, 1, 0, 0, 0, 0, 0, 1}); err != nil {
		t.Fatal(err)
	}
	c := grid.C(1, 0, 0)
	base, _ := m.Lookup(c)
	before := snapshot(m.Geometry())

	if err := m.Update(c, 2); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	g := m.Geometry()
	if !slices.Equal(before.Positions, g.Positions) {
		t.Errorf("recolor changed positions")
	}
	if !slices.Equal(before.Indices, g.Indices) {
		t.Errorf("recolor changed indices")
	}
	for v := 0; v < g.VertexCount(); v++ {
		want := mgl32.Vec4{before.Colors[v*4], before.Colors[v*4+1], before.Colors[v*4+2], before.Colors[v*4+3]}
		if v >= int(base) && v < int(base)+8 {
			want = green.Vec4()
		}
		if got := g.Color(v); got != want {
			t.Errorf("vertex %d colour = %v, want %v", v, got, want)
		}
	}
	if m.Material(c) != 2 {
		t.Errorf("Material(%v) = %d, want 2", c, m.Material(c))
	}
}

func TestUpdateSameMaterialIsIdempotent(t *testing.T) {
	m := newMesh(t, grid.S(2, 1, 1), 1)
	if err := m.Build([]grid.Material{1, 2}); err != nil {
		t.Fatal(err)
	}
	before := snapshot(m.Geometry())
	for i := 0; i < 3; i++ {
		if err := m.Update(grid.C(0, 0, 0), 1); err != nil {
			t.Fatal(err)
		}
	}
	g := m.Geometry()
	if !slices.Equal(before.Positions, g.Positions) || !slices.Equal(before.Colors, g.Colors) || !slices.Equal(before.Indices, g.Indices) {
		t.Errorf("repeated Update with the same material changed the buffers")
	}
}

func TestUpdateNewCellAppendsCube(t *testing.T) {
	m := newMesh(t, grid.S(3, 3, 3), 1)
	if err := m.Build([]grid.Material{1}); err != nil {
		t.Fatal(err)
	}
	before := snapshot(m.Geometry())

	c := grid.C(2, 1, 0)
	if err := m.Update(c, 3); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	g := m.Geometry()
	if got, want := g.VertexCount(), before.VertexCount()+8; got != want {
		t.Errorf("VertexCount() = %d, want %d", got, want)
	}
	if got, want := g.TriangleCount(), before.TriangleCount()+12; got != want {
		t.Errorf("TriangleCount() = %d, want %d", got, want)
	}
	if !slices.Equal(before.Positions, g.Positions[:len(before.Positions)]) ||
		!slices.Equal(before.Colors, g.Colors[:len(before.Colors)]) ||
		!slices.Equal(before.Indices, g.Indices[:len(before.Indices)]) {
		t.Errorf("appending a cube changed existing buffer contents")
	}
	base, ok := m.Lookup(c)
	if !ok || base != 8 {
		t.Errorf("Lookup(%v) = %d, %v; want 8, true", c, base, ok)
	}
	for k, tri := range kernel.CubeTriangles {
		want := [3]uint32{base + tri[0], base + tri[1], base + tri[2]}
		if got := g.Triangle(12 + k); got != want {
			t.Errorf("triangle %d = %v, want %v", 12+k, got, want)
		}
	}
}

func TestUpdateEmptyMaterialIsNoop(t *testing.T) {
	m := newMesh(t, grid.S(2, 1, 1), 1)
	if err := m.Build([]grid.Material{2}); err != nil {
		t.Fatal(err)
	}
	before := snapshot(m.Geometry())

	st, err := m.UpdateManyStats(
		[]grid.Coord{grid.C(0, 0, 0), grid.C(1, 0, 0)},
		[]grid.Material{0, 0},
	)
	if err != nil {
		t.Fatalf("UpdateManyStats() error: %v", err)
	}
	if st.Skipped != 2 || st.Recolored != 0 || st.Emitted != 0 {
		t.Errorf("stats = %+v, want 2 skipped", st)
	}
	g := m.Geometry()
	if !slices.Equal(before.Colors, g.Colors) || g.VertexCount() != before.VertexCount() {
		t.Errorf("empty material changed the mesh")
	}
	if m.Material(grid.C(0, 0, 0)) != 2 {
		t.Errorf("cleared cell lost its material")
	}
}

func TestUpdateErrors(t *testing.T) {
	m := newMesh(t, grid.S(2, 2, 2), 1)
	tests := []struct {
		name string
		c    grid.Coord
		mat  grid.Material
		want error
	}{
		{"x too large", grid.C(2, 0, 0), 1, ErrCoordOutOfBounds},
		{"negative z", grid.C(0, 0, -1), 1, ErrCoordOutOfBounds},
		{"out of bounds with empty material", grid.C(5, 5, 5), 0, ErrCoordOutOfBounds},
		{"material past table", grid.C(0, 0, 0), 4, palette.ErrMaterialOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.Update(tt.c, tt.mat); !errors.Is(err, tt.want) {
				t.Errorf("Update(%v, %d) error = %v, want %v", tt.c, tt.mat, err, tt.want)
			}
			if !m.Geometry().IsEmpty() {
				t.Errorf("failed Update modified the mesh")
			}
		})
	}
}

func TestUpdateManyLengthMismatch(t *testing.T) {
	m := newMesh(t, grid.S(2, 2, 2), 1)
	err := m.UpdateMany([]grid.Coord{grid.C(0, 0, 0)}, []grid.Material{1, 2})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("UpdateMany() error = %v, want ErrLengthMismatch", err)
	}
}

func TestUpdateManyIsAllOrNothing(t *testing.T) {
	m := newMesh(t, grid.S(2, 2, 2), 1)
	err := m.UpdateMany(
		[]grid.Coord{grid.C(0, 0, 0), grid.C(1, 1, 1), grid.C(9, 0, 0)},
		[]grid.Material{1, 2, 3},
	)
	if !errors.Is(err, ErrCoordOutOfBounds) {
		t.Fatalf("UpdateMany() error = %v, want ErrCoordOutOfBounds", err)
	}
	if m.Len() != 0 || !m.Geometry().IsEmpty() {
		t.Errorf("failed batch applied %d cubes", m.Len())
	}
}

func TestUpdateManyMatchesSequentialUpdates(t *testing.T) {
	shape := grid.S(3, 3, 3)
	coords := []grid.Coord{
		grid.C(0, 0, 0), grid.C(2, 2, 2), grid.C(0, 0, 0),
		grid.C(1, 0, 2), grid.C(2, 2, 2), grid.C(1, 1, 1),
	}
	mats := []grid.Material{1, 2, 3, 0, 1, 2}

	batch := newMesh(t, shape, 0.25)
	st, err := batch.UpdateManyStats(coords, mats)
	if err != nil {
		t.Fatalf("UpdateManyStats() error: %v", err)
	}
	want := UpdateStats{Recolored: 2, Emitted: 3, Skipped: 1}
	if st != want {
		t.Errorf("stats = %+v, want %+v", st, want)
	}

	seq := newMesh(t, shape, 0.25)
	for i, c := range coords {
		if err := seq.Update(c, mats[i]); err != nil {
			t.Fatalf("Update(%v) error: %v", c, err)
		}
	}

	a, b := batch.Geometry(), seq.Geometry()
	if !slices.Equal(a.Positions, b.Positions) || !slices.Equal(a.Colors, b.Colors) || !slices.Equal(a.Indices, b.Indices) {
		t.Errorf("batch and sequential updates produced different buffers")
	}
}

func TestGeometryPointerIsStable(t *testing.T) {
	m := newMesh(t, grid.S(4, 4, 4), 1)
	g := m.Geometry()
	if err := m.Build([]grid.Material{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 40; i++ {
		if err := m.Update(grid.Shape{X: 4, Y: 4, Z: 4}.CoordOf(i), 1); err != nil {
			t.Fatal(err)
		}
	}
	if m.Geometry() != g {
		t.Errorf("Geometry() returned a different mesh after updates")
	}
	if g.VertexCount() != 8*40 {
		t.Errorf("VertexCount() = %d, want %d", g.VertexCount(), 8*40)
	}
}

func TestOnChangeReportsMutations(t *testing.T) {
	m := newMesh(t, grid.S(2, 1, 1), 1)
	var got []Change
	m.OnChange(func(ch Change) { got = append(got, ch) })

	if err := m.Build([]grid.Material{1}); err != nil {
		t.Fatal(err)
	}
	if err := m.UpdateMany(
		[]grid.Coord{grid.C(0, 0, 0), grid.C(1, 0, 0), grid.C(1, 0, 0)},
		[]grid.Material{2, 0, 3},
	); err != nil {
		t.Fatal(err)
	}

	want := []Change{
		{Kind: ChangeReset},
		{Kind: ChangeRecolor, Coord: grid.C(0, 0, 0), Material: 2, Base: 0},
		{Kind: ChangeEmit, Coord: grid.C(1, 0, 0), Material: 3, Base: 8},
	}
	if !slices.Equal(got, want) {
		t.Errorf("changes = %+v, want %+v", got, want)
	}
}

func TestDenseAndOccupancyReflectIndex(t *testing.T) {
	shape := grid.S(2, 2, 1)
	m := newMesh(t, shape, 1)
	if err := m.Build([]grid.Material{0, 2, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := m.Update(grid.C(0, 1, 0), 3); err != nil {
		t.Fatal(err)
	}
	if got, want := m.Dense(), []grid.Material{0, 2, 3, 0}; !slices.Equal(got, want) {
		t.Errorf("Dense() = %v, want %v", got, want)
	}
	occ := m.Occupancy()
	if occ.Count() != 2 || !occ.At(grid.C(1, 0, 0)) || !occ.At(grid.C(0, 1, 0)) {
		t.Errorf("Occupancy() count = %d, want cells (1,0,0) and (0,1,0)", occ.Count())
	}
}

// --- End to end ---

func TestSingleRedVoxel(t *testing.T) {
	pal, err := palette.FromFlat([]float32{1, 0, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	m, err := New(grid.S(1, 1, 1), pal, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Build([]grid.Material{1}); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	g := m.Geometry()
	if g.VertexCount() != 8 {
		t.Fatalf("VertexCount() = %d, want 8", g.VertexCount())
	}
	lo, hi := g.Bounds()
	if lo != (mgl32.Vec3{0, 0, 0}) || hi != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("Bounds() = %v..%v, want (0,0,0)..(1,1,1)", lo, hi)
	}
	for i := 0; i < 8; i++ {
		if c := g.Color(i); c != (mgl32.Vec4{1, 0, 0, 1}) {
			t.Errorf("vertex %d colour = %v, want red", i, c)
		}
	}
	if g.TriangleCount() != 12 {
		t.Fatalf("TriangleCount() = %d, want 12", g.TriangleCount())
	}
	for i, tri := range kernel.CubeTriangles {
		if got := g.Triangle(i); got != tri {
			t.Errorf("triangle %d = %v, want %v", i, got, tri)
		}
	}

	if err := m.Update(grid.C(0, 0, 0), 1); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if g.VertexCount() != 8 || g.TriangleCount() != 12 {
		t.Errorf("after Update: %d vertices, %d triangles; want 8, 12", g.VertexCount(), g.TriangleCount())
	}
}

func TestEmitAfterRebuildContinuesFromBufferEnd(t *testing.T) {
	m := newMesh(t, grid.S(3, 1, 1), 1)
	if err := m.Build([]grid.Material{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := m.Build([]grid.Material{0, 2}); err != nil {
		t.Fatal(err)
	}
	for i, c := range []grid.Coord{grid.C(0, 0, 0), grid.C(2, 0, 0)} {
		if err := m.Update(c, 1); err != nil {
			t.Fatalf("Update(%v) error: %v", c, err)
		}
		base, ok := m.Lookup(c)
		if want := uint32(8 * (i + 1)); !ok || base != want {
			t.Errorf("Lookup(%v) = %d, %v; want %d, true", c, base, ok, want)
		}
	}
	if got := m.Geometry().VertexCount(); got != 24 {
		t.Errorf("VertexCount() = %d, want 24", got)
	}
	if err := m.Geometry().Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}
