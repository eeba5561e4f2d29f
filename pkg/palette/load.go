package palette

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk palette layout:
//
//	materials:
//	  - name: stone
//	    hex: "#808080"
//	  - name: water
//	    rgba: [0.1, 0.3, 0.9, 0.6]
//
// Entries are numbered from material 1 in file order.
type File struct {
	Materials []Entry `yaml:"materials"`
}

// Entry is one material. Exactly one of Hex or RGBA must be set.
type Entry struct {
	Name string    `yaml:"name,omitempty"`
	Hex  string    `yaml:"hex,omitempty"`
	RGBA []float32 `yaml:"rgba,omitempty"`
}

func (e Entry) color() (Color, error) {
	switch {
	case e.Hex != "" && len(e.RGBA) > 0:
		return Color{}, fmt.Errorf("%w: both hex and rgba set", ErrBadColor)
	case e.Hex != "":
		return ParseHex(e.Hex)
	case len(e.RGBA) == 4:
		return Color{R: e.RGBA[0], G: e.RGBA[1], B: e.RGBA[2], A: e.RGBA[3]}, nil
	case len(e.RGBA) == 3:
		return Color{R: e.RGBA[0], G: e.RGBA[1], B: e.RGBA[2], A: 1}, nil
	}
	return Color{}, fmt.Errorf("%w: need hex or 3/4 rgba components", ErrBadColor)
}

// Parse decodes a YAML palette document.
func Parse(raw []byte) (*Palette, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	colors := make([]Color, 0, len(f.Materials))
	for i, e := range f.Materials {
		c, err := e.color()
		if err != nil {
			if e.Name != "" {
				return nil, fmt.Errorf("palette: material %d (%s): %w", i+1, e.Name, err)
			}
			return nil, fmt.Errorf("palette: material %d: %w", i+1, err)
		}
		colors = append(colors, c)
	}
	return &Palette{colors: colors}, nil
}

// Load reads a YAML palette file.
func Load(path string) (*Palette, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
