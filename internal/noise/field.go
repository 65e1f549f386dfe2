// Package noise implements the layered fractal noise that shapes heights,
// island falloff and humidity.
package noise

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Field samples fractal noise built from a Source.
type Field struct {
	p         Params
	src       Source
	frequency float32
}

// NewField returns a field whose layer frequency grows by Roughness.
func NewField(p Params, src Source) *Field {
	return &Field{p: p, src: src, frequency: p.Roughness}
}

// NewLacunarField returns a field whose layer frequency grows by Lacunarity.
func NewLacunarField(p Params, src Source) *Field {
	return &Field{p: p, src: src, frequency: p.Lacunarity}
}

// Params returns the field configuration.
func (f *Field) Params() Params { return f.p }

// Sample evaluates the layered noise at pos. With zero layers it returns the
// baseline strength*max(0, -MinValue). The result is not clamped.
func (f *Field) Sample(pos mgl32.Vec3) float32 {
	var sum float32
	amp := float32(1)
	freq := f.p.BaseRoughness
	for i := 0; i < f.p.Layers; i++ {
		q := pos.Mul(freq).Add(f.p.Centre)
		v := float32(f.src.Eval3(float64(q[0]), float64(q[1]), float64(q[2])))
		sum += (v + 1) * 0.5 * amp
		amp *= f.p.Persistence
		freq *= f.frequency
	}
	sum -= f.p.MinValue
	if sum < 0 {
		sum = 0
	}
	return sum * f.p.Strength
}

// SampleGrid evaluates the field for grid cell (x, y). Cells map onto the
// XZ plane scaled by Params.Scale.
func (f *Field) SampleGrid(x, y int) float32 {
	return f.Sample(GridPosition(x, y, f.p.Scale))
}

// Normalized returns SampleGrid divided by the field's peak, in [0, 1].
func (f *Field) Normalized(x, y int) float32 {
	peak := f.p.Peak()
	if peak <= 0 {
		return 0
	}
	v := f.SampleGrid(x, y) / peak
	return float32(math.Min(1, math.Max(0, float64(v))))
}

// GridPosition maps grid coordinates onto the sampling plane.
func GridPosition(x, y int, scale float32) mgl32.Vec3 {
	return mgl32.Vec3{float32(x) * scale, 0, float32(y) * scale}
}
