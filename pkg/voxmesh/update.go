package voxmesh

import (
	"fmt"

	"github.com/chazu/voxgrid/pkg/grid"
)

// ChangeKind says what an update did to the buffers.
type ChangeKind int

const (
	// ChangeReset means the whole mesh was rebuilt.
	ChangeReset ChangeKind = iota
	// ChangeRecolor means the 8 colours of an existing cube were rewritten.
	ChangeRecolor
	// ChangeEmit means a new cube was appended.
	ChangeEmit
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeReset:
		return "reset"
	case ChangeRecolor:
		return "recolor"
	case ChangeEmit:
		return "emit"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Change describes one buffer mutation. Base is the first vertex of the
// affected cube; it is zero for ChangeReset.
type Change struct {
	Kind     ChangeKind
	Coord    grid.Coord
	Material grid.Material
	Base     uint32
}

// UpdateStats counts what an update batch did.
type UpdateStats struct {
	Recolored int
	Emitted   int
	Skipped   int
}

// OnChange registers fn to be called synchronously after every mutation.
func (m *Mesh) OnChange(fn func(Change)) {
	m.observers = append(m.observers, fn)
}

func (m *Mesh) notify(ch Change) {
	for _, fn := range m.observers {
		fn(ch)
	}
}

// Update sets the material of a single cell. An indexed cell is recoloured
// in place; any other cell gets a new cube appended. Material zero is
// accepted and ignored: existing geometry is never removed.
func (m *Mesh) Update(c grid.Coord, mat grid.Material) error {
	if err := m.check(c, mat); err != nil {
		return err
	}
	m.apply(c, mat, nil)
	return nil
}

// UpdateMany applies pairs (coords[i], materials[i]) in order, with the
// same result as calling Update for each. All pairs are validated first;
// if any is invalid nothing is applied.
func (m *Mesh) UpdateMany(coords []grid.Coord, materials []grid.Material) error {
	_, err := m.UpdateManyStats(coords, materials)
	return err
}

// UpdateManyStats is UpdateMany that also reports how each pair was handled.
func (m *Mesh) UpdateManyStats(coords []grid.Coord, materials []grid.Material) (UpdateStats, error) {
	var st UpdateStats
	if len(coords) != len(materials) {
		return st, fmt.Errorf("%w: %d coordinates, %d materials", ErrLengthMismatch, len(coords), len(materials))
	}
	for i, c := range coords {
		if err := m.check(c, materials[i]); err != nil {
			return st, fmt.Errorf("voxmesh: update %d: %w", i, err)
		}
	}
	for i, c := range coords {
		m.apply(c, materials[i], &st)
	}
	return st, nil
}

func (m *Mesh) check(c grid.Coord, mat grid.Material) error {
	if !m.shape.Contains(c) {
		return fmt.Errorf("%w: %v not in %v", ErrCoordOutOfBounds, c, m.shape)
	}
	if mat == grid.Empty {
		return nil
	}
	if err := m.palette.Check(mat); err != nil {
		return fmt.Errorf("voxmesh: %v: %w", c, err)
	}
	return nil
}

// apply assumes check has passed.
func (m *Mesh) apply(c grid.Coord, mat grid.Material, st *UpdateStats) {
	if mat == grid.Empty {
		if st != nil {
			st.Skipped++
		}
		return
	}
	col, _ := m.palette.Lookup(mat)

	if e, ok := m.index.lookup(c); ok {
		m.recolor(c, e.base, mat, col)
		if st != nil {
			st.Recolored++
		}
		m.notify(Change{Kind: ChangeRecolor, Coord: c, Material: mat, Base: e.base})
		return
	}

	base := m.emit(c, mat, col)
	if st != nil {
		st.Emitted++
	}
	m.notify(Change{Kind: ChangeEmit, Coord: c, Material: mat, Base: base})
}
