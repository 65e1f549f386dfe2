package noise

import (
	"math"

	"terrain-lab/internal/core"
)

const (
	// falloffInner is the jittered radius below which the falloff is zero.
	falloffInner = 0.6
	// jitterSpan is how far a fully jittered radius may move.
	jitterSpan = 0.25
)

// Falloff pushes heights down toward the grid edges so the terrain reads as
// an island. The radial distance is jittered by a lacunar noise field.
type Falloff struct {
	field  *Field
	dims   core.Dims
	jitter float32
}

// NewFalloff builds a falloff for the given grid.
func NewFalloff(p Params, src Source, dims core.Dims, jitter float32) *Falloff {
	return &Falloff{field: NewLacunarField(p, src), dims: dims, jitter: jitter}
}

// Sample returns a value in [-MaxHeight, 0] to be added to the height of cell (x, y).
func (f *Falloff) Sample(x, y int) float32 {
	r := f.Radius(x, y)
	if f.jitter != 0 {
		r += f.jitter * (f.field.Normalized(x, y) - 0.5) * jitterSpan
	}
	return -f.field.p.MaxHeight * smoothstep(falloffInner, 1, r)
}

// Radius is the distance of (x, y) from the grid centre; 1 touches the
// inscribed circle.
func (f *Falloff) Radius(x, y int) float32 {
	cx := float64(f.dims.W-1) / 2
	cy := float64(f.dims.H-1) / 2
	half := math.Min(cx, cy)
	if half <= 0 {
		return 1
	}
	return float32(math.Hypot(float64(x)-cx, float64(y)-cy) / half)
}

func smoothstep(edge0, edge1, x float32) float32 {
	t := (x - edge0) / (edge1 - edge0)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}
