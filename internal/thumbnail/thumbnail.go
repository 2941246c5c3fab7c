// Package thumbnail derives a deterministic placeholder gradient from a track
// identifier, used where no cover art is available.
package thumbnail

import (
	"fmt"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
)

const hueShift = 40

// HSL is a color in CSS hsl() terms: hue in degrees, saturation and
// lightness in percent.
type HSL struct {
	H int
	S int
	L int
}

// String renders the CSS form, e.g. "hsl(210, 75%, 50%)"
func (c HSL) String() string {
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", c.H, c.S, c.L)
}

// Color converts to a colorful.Color
func (c HSL) Color() colorful.Color {
	return colorful.Hsl(float64(c.H), float64(c.S)/100, float64(c.L)/100).Clamped()
}

// Hex returns the #rrggbb form suitable for lipgloss.Color
func (c HSL) Hex() string {
	return c.Color().Hex()
}

// Gradient is a two-stop placeholder gradient
type Gradient struct {
	Color1 HSL
	Color2 HSL
}

// Blend returns the color at t in [0,1] between the two stops
func (g Gradient) Blend(t float64) colorful.Color {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return g.Color1.Color().BlendHcl(g.Color2.Color(), t).Clamped()
}

// Generate maps a name to its gradient. It is total: the empty name yields
// hsl(0, 70%, 45%) and its shifted partner.
func Generate(name string) Gradient {
	h := magnitude(Hash(name))

	base := HSL{
		H: int(h % 360),
		S: 70 + int(h%20),
		L: 45 + int(h%10),
	}
	shifted := base
	shifted.H = (base.H + hueShift) % 360

	return Gradient{Color1: base, Color2: shifted}
}

// Hash folds UTF-16 code units as acc*31 + code with 32-bit wraparound.
func Hash(name string) int32 {
	var acc int32
	for _, code := range utf16.Encode([]rune(name)) {
		acc = (acc << 5) - acc + int32(code)
	}
	return acc
}

// magnitude is |h| widened so math.MinInt32 does not overflow
func magnitude(h int32) int64 {
	v := int64(h)
	if v < 0 {
		return -v
	}
	return v
}
