package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/voxgrid/pkg/grid"
	"github.com/chazu/voxgrid/pkg/kernel"
	"github.com/chazu/voxgrid/pkg/palette"
	"github.com/chazu/voxgrid/pkg/scene"
	"github.com/go-gl/mathgl/mgl64"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites scene source before passing it to zygomys.
// It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: fill-box -> fill_box
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
//  3. Line comments: ; and ;; become //.
//
// All transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a point in cell units.
type sexpVec3 struct {
	vec mgl64.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// require returns the keyword value or an error naming the missing key.
func (a kwArgs) require(fn, key string) (zygo.Sexp, error) {
	v, ok := a.kw[key]
	if !ok {
		return nil, fmt.Errorf("%s: missing :%s", fn, key)
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number. Floats are accepted when integral.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected integer, got %g", v.Val)
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a point from a sexpVec3.
func toVec3(s zygo.Sexp) (mgl64.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toCoord converts a vec3 to the cell containing it.
func toCoord(s zygo.Sexp) (grid.Coord, error) {
	v, err := toVec3(s)
	if err != nil {
		return grid.Coord{}, err
	}
	return grid.C(int(math.Floor(v[0])), int(math.Floor(v[1])), int(math.Floor(v[2]))), nil
}

// toMaterial extracts a material ID. Zero clears cells.
func toMaterial(s zygo.Sexp) (grid.Material, error) {
	n, err := toInt(s)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxUint16 {
		return 0, fmt.Errorf("material %d out of range", n)
	}
	return grid.Material(n), nil
}

func sexpInt(n int) zygo.Sexp {
	return &zygo.SexpInt{Val: int64(n)}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene DSL builtins into a zygomys
// environment. They write into b; solids are voxelized with k.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *scene.Builder, k kernel.Kernel) {

	// -----------------------------------------------------------------------
	// (grid 16 16 8)
	// -----------------------------------------------------------------------
	env.AddFunction("grid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("grid requires exactly 3 arguments, got %d", len(args))
		}
		var dims [3]int
		for i, a := range args {
			n, err := toInt(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: %c: %w", "xyz"[i], err)
			}
			dims[i] = n
		}
		if err := b.SetShape(grid.S(dims[0], dims[1], dims[2])); err != nil {
			return zygo.SexpNull, fmt.Errorf("grid: %w", err)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (scale 0.25)
	// -----------------------------------------------------------------------
	env.AddFunction("scale", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("scale requires exactly 1 argument, got %d", len(args))
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scale: %w", err)
		}
		if err := b.SetScale(float32(f)); err != nil {
			return zygo.SexpNull, fmt.Errorf("scale: %w", err)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (palette "#ff0000" "#00ff0080") -> material ID of the first entry
	// -----------------------------------------------------------------------
	env.AddFunction("palette", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 0 {
			return zygo.SexpNull, fmt.Errorf("palette requires at least one colour")
		}
		cols := make([]palette.Color, len(args))
		for i, a := range args {
			s, err := toString(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("palette: entry %d: %w", i+1, err)
			}
			c, err := palette.ParseHex(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("palette: entry %d: %w", i+1, err)
			}
			cols[i] = c
		}
		first := b.AddColor(cols[0])
		for _, c := range cols[1:] {
			b.AddColor(c)
		}
		return sexpInt(int(first)), nil
	})

	// -----------------------------------------------------------------------
	// (color 1 0.5 0 1) -> material ID; alpha defaults to 1
	// -----------------------------------------------------------------------
	env.AddFunction("color", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 && len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("color requires 3 or 4 components, got %d", len(args))
		}
		c := [4]float32{0, 0, 0, 1}
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("color: %c: %w", "rgba"[i], err)
			}
			c[i] = float32(f)
		}
		return sexpInt(int(b.AddColor(palette.RGBA(c[0], c[1], c[2], c[3])))), nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v mgl64.Vec3
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			v[i] = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (voxel 1 2 3 mat) or (voxel (vec3 1 2 3) mat)
	// -----------------------------------------------------------------------
	env.AddFunction("voxel", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var c grid.Coord
		var matArg zygo.Sexp
		switch len(args) {
		case 2:
			cc, err := toCoord(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("voxel: %w", err)
			}
			c, matArg = cc, args[1]
		case 4:
			var xyz [3]int
			for i := 0; i < 3; i++ {
				n, err := toInt(args[i])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("voxel: %c: %w", "xyz"[i], err)
				}
				xyz[i] = n
			}
			c, matArg = grid.C(xyz[0], xyz[1], xyz[2]), args[3]
		default:
			return zygo.SexpNull, fmt.Errorf("voxel requires x y z material or a vec3 and material, got %d arguments", len(args))
		}
		m, err := toMaterial(matArg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("voxel: material: %w", err)
		}
		if err := b.Set(c, m); err != nil {
			return zygo.SexpNull, fmt.Errorf("voxel: %w", err)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (fill :from (vec3 0 0 0) :to (vec3 3 3 0) :material mat) -> cell count
	// -----------------------------------------------------------------------
	env.AddFunction("fill", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var corners [2]grid.Coord
		for i, key := range []string{"from", "to"} {
			v, err := pa.require("fill", key)
			if err != nil {
				return zygo.SexpNull, err
			}
			c, err := toCoord(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("fill: %s: %w", key, err)
			}
			corners[i] = c
		}
		m, err := materialArg(pa, "fill")
		if err != nil {
			return zygo.SexpNull, err
		}
		n, err := b.Fill(corners[0], corners[1], m)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fill: %w", err)
		}
		return sexpInt(n), nil
	})

	// -----------------------------------------------------------------------
	// (sphere :center (vec3 4 4 4) :radius 3 :material mat) -> cell count
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		center, err := vecArg(pa, "sphere", "center")
		if err != nil {
			return zygo.SexpNull, err
		}
		r, err := positiveArg(pa, "sphere", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		m, err := materialArg(pa, "sphere")
		if err != nil {
			return zygo.SexpNull, err
		}
		solid := k.Translate(k.Sphere(r), center[0], center[1], center[2])
		n, err := b.Stamp(k, solid, m)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		return sexpInt(n), nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :center (vec3 4 4 4) :height 6 :radius 2 :material mat)
	// Z-aligned, centred on :center. Returns the cell count.
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		center, err := vecArg(pa, "cylinder", "center")
		if err != nil {
			return zygo.SexpNull, err
		}
		h, err := positiveArg(pa, "cylinder", "height")
		if err != nil {
			return zygo.SexpNull, err
		}
		r, err := positiveArg(pa, "cylinder", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		m, err := materialArg(pa, "cylinder")
		if err != nil {
			return zygo.SexpNull, err
		}
		solid := k.Translate(k.Cylinder(h, r), center[0], center[1], center[2])
		n, err := b.Stamp(k, solid, m)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		return sexpInt(n), nil
	})
}

func vecArg(pa kwArgs, fn, key string) (mgl64.Vec3, error) {
	v, err := pa.require(fn, key)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	vec, err := toVec3(v)
	if err != nil {
		return mgl64.Vec3{}, fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	return vec, nil
}

func positiveArg(pa kwArgs, fn, key string) (float64, error) {
	v, err := pa.require(fn, key)
	if err != nil {
		return 0, err
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	if !(f > 0) {
		return 0, fmt.Errorf("%s: %s must be positive, got %g", fn, key, f)
	}
	return f, nil
}

func materialArg(pa kwArgs, fn string) (grid.Material, error) {
	v, err := pa.require(fn, "material")
	if err != nil {
		return 0, err
	}
	m, err := toMaterial(v)
	if err != nil {
		return 0, fmt.Errorf("%s: material: %w", fn, err)
	}
	return m, nil
}
