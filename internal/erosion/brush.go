package erosion

import (
	"fmt"
	"math"
)

// Brush is a precomputed radial kernel of flattened index offsets and
// weights that sum to 1.
type Brush struct {
	Radius  int
	Offsets []int
	Weights []float32
}

// BuildBrush collects every offset (dx, dy) with dx²+dy² < radius², weighted
// by 1 - distance/radius and flattened against gridWidth.
func BuildBrush(radius, gridWidth int) (Brush, error) {
	if radius < 1 {
		return Brush{}, fmt.Errorf("build brush: radius %d must be at least 1", radius)
	}
	if gridWidth < 1 {
		return Brush{}, fmt.Errorf("build brush: grid width %d must be positive", gridWidth)
	}
	b := Brush{Radius: radius}
	r2 := radius * radius
	var sum float64
	weights := make([]float64, 0, 4*r2)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := dx*dx + dy*dy
			if d2 >= r2 {
				continue
			}
			w := 1 - math.Sqrt(float64(d2))/float64(radius)
			b.Offsets = append(b.Offsets, dy*gridWidth+dx)
			weights = append(weights, w)
			sum += w
		}
	}
	b.Weights = make([]float32, len(weights))
	for i, w := range weights {
		b.Weights[i] = float32(w / sum)
	}
	return b, nil
}
