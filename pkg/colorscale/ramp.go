package colorscale

import (
	"fmt"
	"math"
	"strings"
)

// RGB is an 8-bit colour triple.
type RGB struct {
	R, G, B int
}

func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// HSVToRGB converts hue in degrees, saturation and value in [0,1] to RGB
// components in [0,1].
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		return v, v, v
	}
	h = h / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// Ramp returns the 101 colours of the intensity scale: a hue sweep down from
// 220 degrees, or a grey ramp when color is false.
func Ramp(color bool) [101]RGB {
	var out [101]RGB
	for i := range out {
		if !color {
			v := 255 - i
			out[i] = RGB{v, v, v}
			continue
		}
		r, g, b := HSVToRGB(float64(220-int(2.2*float64(i))), 0.3, 1)
		out[i] = RGB{int(r * 255), int(g * 255), int(b * 255)}
	}
	return out
}

// Stylesheet renders the CSS rules for every run class.
func Stylesheet(color bool) string {
	var sb strings.Builder
	for i, c := range Ramp(color) {
		fmt.Fprintf(&sb, "span.run%d {\n  background-color: rgb(%d, %d, %d);\n  display: block;\n}\n", i, c.R, c.G, c.B)
	}
	return sb.String()
}
