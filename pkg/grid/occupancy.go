package grid

import "math/bits"

// Occupancy is a boolean voxel grid packed one bit per cell in dense order.
type Occupancy struct {
	shape Shape
	words []uint64
}

// NewOccupancy returns an empty occupancy grid of the given shape.
func NewOccupancy(s Shape) *Occupancy {
	return &Occupancy{
		shape: s,
		words: make([]uint64, (s.Len()+63)/64),
	}
}

// OccupancyFromBools packs a dense bool slice. Cells past the end of cells
// are left empty; entries past the end of the volume are ignored.
func OccupancyFromBools(s Shape, cells []bool) *Occupancy {
	o := NewOccupancy(s)
	n := min(len(cells), s.Len())
	for i := 0; i < n; i++ {
		if cells[i] {
			o.SetIndex(i, true)
		}
	}
	return o
}

// OccupancyFromDense marks every non-empty material as occupied.
func OccupancyFromDense(s Shape, values []Material) *Occupancy {
	o := NewOccupancy(s)
	n := min(len(values), s.Len())
	for i := 0; i < n; i++ {
		if values[i] != Empty {
			o.SetIndex(i, true)
		}
	}
	return o
}

// Shape returns the grid extent.
func (o *Occupancy) Shape() Shape { return o.shape }

// Index reports whether flat cell i is occupied. Out of range reads as empty.
func (o *Occupancy) Index(i int) bool {
	if i < 0 || i >= o.shape.Len() {
		return false
	}
	return o.words[i>>6]&(1<<(uint(i)&63)) != 0
}

// SetIndex sets flat cell i.
func (o *Occupancy) SetIndex(i int, v bool) {
	if i < 0 || i >= o.shape.Len() {
		return
	}
	if v {
		o.words[i>>6] |= 1 << (uint(i) & 63)
	} else {
		o.words[i>>6] &^= 1 << (uint(i) & 63)
	}
}

// At reports whether c is occupied. Coordinates outside the shape are empty.
func (o *Occupancy) At(c Coord) bool {
	if !o.shape.Contains(c) {
		return false
	}
	return o.Index(o.shape.Index(c))
}

// Set marks c occupied or empty. Coordinates outside the shape are ignored.
func (o *Occupancy) Set(c Coord, v bool) {
	if !o.shape.Contains(c) {
		return
	}
	o.SetIndex(o.shape.Index(c), v)
}

// Count returns the number of occupied cells.
func (o *Occupancy) Count() int {
	n := 0
	for _, w := range o.words {
		n += bits.OnesCount64(w)
	}
	return n
}
