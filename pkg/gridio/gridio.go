// Package gridio reads and writes dense voxel grids as zstd-compressed,
// run-length encoded files.
//
// Layout of the decompressed stream:
//
//	"VOXG"            magic
//	uvarint           format version (1)
//	uvarint x3        shape X, Y, Z
//	(uvarint, uvarint)*  (material, run length) pairs covering X*Y*Z cells
package gridio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chazu/voxgrid/pkg/grid"
	"github.com/klauspost/compress/zstd"
)

// Version is the format version written by Write.
const Version = 1

const magic = "VOXG"

// maxCells bounds the volume a file may declare.
const maxCells = 1 << 30

var (
	ErrBadMagic = errors.New("gridio: not a voxel grid file")
	ErrVersion  = errors.New("gridio: unsupported format version")
	ErrCorrupt  = errors.New("gridio: corrupt grid data")
)

// Write encodes values over shape to w. A short values slice is padded
// with empty cells; entries past the volume are dropped.
func Write(w io.Writer, shape grid.Shape, values []grid.Material) error {
	if err := shape.Validate(); err != nil {
		return err
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	if err := writeBody(bw, shape, values); err != nil {
		enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func writeBody(bw *bufio.Writer, shape grid.Shape, values []grid.Material) error {
	var tmp [binary.MaxVarintLen64]byte
	put := func(v uint64) error {
		n := binary.PutUvarint(tmp[:], v)
		_, err := bw.Write(tmp[:n])
		return err
	}

	if _, err := bw.WriteString(magic); err != nil {
		return err
	}
	for _, v := range []int{Version, shape.X, shape.Y, shape.Z} {
		if err := put(uint64(v)); err != nil {
			return err
		}
	}

	total := shape.Len()
	at := func(i int) grid.Material {
		if i < len(values) {
			return values[i]
		}
		return grid.Empty
	}
	for i := 0; i < total; {
		m := at(i)
		run := 1
		for i+run < total && at(i+run) == m {
			run++
		}
		if err := put(uint64(m)); err != nil {
			return err
		}
		if err := put(uint64(run)); err != nil {
			return err
		}
		i += run
	}
	return nil
}

// Read decodes a grid written by Write.
func Read(r io.Reader) (grid.Shape, []grid.Material, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return grid.Shape{}, nil, err
	}
	defer dec.Close()
	br := bufio.NewReaderSize(dec, 64*1024)

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(br, head); err != nil {
		return grid.Shape{}, nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if string(head) != magic {
		return grid.Shape{}, nil, ErrBadMagic
	}

	var hdr [4]uint64
	for i := range hdr {
		v, err := binary.ReadUvarint(br)
		if err != nil {
			return grid.Shape{}, nil, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
		}
		hdr[i] = v
	}
	if hdr[0] != Version {
		return grid.Shape{}, nil, fmt.Errorf("%w: %d", ErrVersion, hdr[0])
	}
	if hdr[1] > maxCells || hdr[2] > maxCells || hdr[3] > maxCells {
		return grid.Shape{}, nil, fmt.Errorf("%w: shape too large", ErrCorrupt)
	}
	shape := grid.S(int(hdr[1]), int(hdr[2]), int(hdr[3]))
	if err := shape.Validate(); err != nil {
		return grid.Shape{}, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	// Each extent is at most maxCells, so every partial product fits in
	// 64 bits as long as it is checked before the next multiplication.
	cells := hdr[1] * hdr[2]
	if cells <= maxCells {
		cells *= hdr[3]
	}
	if cells > maxCells {
		return grid.Shape{}, nil, fmt.Errorf("%w: %v has too many cells", ErrCorrupt, shape)
	}
	total := int(cells)

	values := make([]grid.Material, total)
	for i := 0; i < total; {
		m, err := binary.ReadUvarint(br)
		if err != nil {
			return grid.Shape{}, nil, fmt.Errorf("%w: cell %d: %v", ErrCorrupt, i, err)
		}
		run, err := binary.ReadUvarint(br)
		if err != nil {
			return grid.Shape{}, nil, fmt.Errorf("%w: cell %d: %v", ErrCorrupt, i, err)
		}
		if m > 0xFFFF {
			return grid.Shape{}, nil, fmt.Errorf("%w: material %d too large", ErrCorrupt, m)
		}
		if run == 0 || run > uint64(total-i) {
			return grid.Shape{}, nil, fmt.Errorf("%w: run of %d at cell %d overflows %d cells", ErrCorrupt, run, i, total)
		}
		for k := 0; k < int(run); k++ {
			values[i+k] = grid.Material(m)
		}
		i += int(run)
	}
	return shape, values, nil
}

// WriteFile writes a grid file, creating parent directories as needed.
func WriteFile(path string, shape grid.Shape, values []grid.Material) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Write(f, shape, values); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a grid file.
func ReadFile(path string) (grid.Shape, []grid.Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return grid.Shape{}, nil, err
	}
	defer f.Close()
	return Read(f)
}
