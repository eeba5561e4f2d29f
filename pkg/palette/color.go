package palette

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrBadColor is returned for colour literals that cannot be parsed.
var ErrBadColor = errors.New("palette: bad colour")

// Color is an RGBA colour, conventionally in [0,1]. Values are passed
// through to the vertex buffer unclamped.
type Color struct {
	R float32 `json:"r" yaml:"r"`
	G float32 `json:"g" yaml:"g"`
	B float32 `json:"b" yaml:"b"`
	A float32 `json:"a" yaml:"a"`
}

// RGBA is shorthand for Color{r, g, b, a}.
func RGBA(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// FromVec4 converts an mgl32 vector (x=R ... w=A) to a Color.
func FromVec4(v mgl32.Vec4) Color {
	return Color{R: v[0], G: v[1], B: v[2], A: v[3]}
}

// Vec4 returns the colour as an mgl32 vector.
func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// Lerp blends a toward b; t=0 yields a, t=1 yields b.
func Lerp(a, b Color, t float32) Color {
	return FromVec4(a.Vec4().Mul(1 - t).Add(b.Vec4().Mul(t)))
}

// Hex formats the colour as #RRGGBBAA, clamping each channel to [0,1].
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", toByte(c.R), toByte(c.G), toByte(c.B), toByte(c.A))
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%g,%g,%g,%g)", c.R, c.G, c.B, c.A)
}

func toByte(f float32) uint8 {
	f = mgl32.Clamp(f, 0, 1)
	return uint8(f*255 + 0.5)
}

// ParseHex parses "#RRGGBB" or "#RRGGBBAA" (the leading # is optional).
// Six-digit colours are fully opaque.
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return Color{}, fmt.Errorf("%w: %q: want #RRGGBB or #RRGGBBAA", ErrBadColor, s)
	}
	if len(h) == 6 {
		h += "ff"
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q: %v", ErrBadColor, s, err)
	}
	return Color{
		R: float32(v>>24&0xff) / 255,
		G: float32(v>>16&0xff) / 255,
		B: float32(v>>8&0xff) / 255,
		A: float32(v&0xff) / 255,
	}, nil
}
