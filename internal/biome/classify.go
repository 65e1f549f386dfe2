package biome

import (
	"terrain-lab/internal/dispatch"
	"terrain-lab/internal/heightmap"
	"terrain-lab/internal/mesh"
	"terrain-lab/internal/noise"
)

// Map holds the per-cell classification of the last biome pass.
type Map struct {
	Humidity []float32
	Biomes   []Biome
}

// NewMap allocates a map for n cells.
func NewMap(n int) *Map {
	return &Map{Humidity: make([]float32, n), Biomes: make([]Biome, n)}
}

// Histogram counts cells per biome.
func (m *Map) Histogram() map[Biome]int {
	h := map[Biome]int{}
	for _, b := range m.Biomes {
		h[b]++
	}
	return h
}

// ClassifyKernel samples humidity and classifies one cell per invocation,
// using the store's reduced range to normalise height. humidity is read at
// invocation time.
func ClassifyKernel(store *heightmap.Store, humidity **noise.Field, out *Map) dispatch.Kernel {
	d := store.Dims()
	return func(id dispatch.Invocation) {
		i := d.Index(id.X, id.Y)
		u := (*humidity).Normalized(id.X, id.Y)
		out.Humidity[i] = u
		out.Biomes[i] = Classify(store.Normalize(store.Load(i)), u)
	}
}

// ColorKernel writes each cell's biome colour into its vertex.
func ColorKernel(m *Map, verts []mesh.Vertex, width int) dispatch.Kernel {
	return func(id dispatch.Invocation) {
		i := id.Y*width + id.X
		verts[i].Color = m.Biomes[i].Vec4()
	}
}
