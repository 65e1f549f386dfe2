package mesh

import (
	"terrain-lab/internal/core"
	"terrain-lab/internal/dispatch"
)

// Smoothing weights for the centre vertex and each of its four neighbours.
const (
	centreWeight    = 0.5
	neighbourWeight = 0.125
)

func blur(get func(i int) float32, d core.Dims, x, y int) float32 {
	i := d.Index(x, y)
	return centreWeight*get(i) +
		neighbourWeight*(get(i-1)+get(i+1)+get(i-d.W)+get(i+d.W))
}

// SmoothToScratchKernel is the first smoothing pass: it writes the averaged
// height of every vertex into scratch. Border vertices are copied.
func SmoothToScratchKernel(verts []Vertex, scratch []float32, d core.Dims) dispatch.Kernel {
	height := func(i int) float32 { return verts[i].Position[1] }
	return func(id dispatch.Invocation) {
		i := d.Index(id.X, id.Y)
		if !d.Interior(id.X, id.Y, 1) {
			scratch[i] = verts[i].Position[1]
			return
		}
		scratch[i] = blur(height, d, id.X, id.Y)
	}
}

// SmoothFromScratchKernel is the second pass: it averages scratch and writes
// the result back into interior vertex heights. It must run after the first
// pass has completed for every vertex.
func SmoothFromScratchKernel(verts []Vertex, scratch []float32, d core.Dims) dispatch.Kernel {
	height := func(i int) float32 { return scratch[i] }
	return func(id dispatch.Invocation) {
		if !d.Interior(id.X, id.Y, 1) {
			return
		}
		verts[d.Index(id.X, id.Y)].Position[1] = blur(height, d, id.X, id.Y)
	}
}
