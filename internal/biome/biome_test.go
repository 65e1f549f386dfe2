package biome

import (
	"context"
	"math"
	"testing"

	"terrain-lab/internal/core"
	"terrain-lab/internal/dispatch"
	"terrain-lab/internal/heightmap"
	"terrain-lab/internal/mesh"
	"terrain-lab/internal/noise"
)

func TestBucketBoundaries(t *testing.T) {
	cases := []struct {
		v    float32
		want int
	}{
		{0, 0},
		{-0.5, 0},
		{float32(math.NaN()), 0},
		{0.1, 0},
		{1.0 / 6, 1},
		{0.5, 3},
		{5.0 / 6, 5},
		{0.99, 5},
		{1, 5},
		{7, 5},
	}
	for _, tc := range cases {
		if got := Bucket(tc.v); got != tc.want {
			t.Fatalf("Bucket(%v) = %d, want %d", tc.v, got, tc.want)
		}
	}
}

func TestClassifyIsTotal(t *testing.T) {
	const steps = 120
	for hi := 0; hi <= steps; hi++ {
		for ui := 0; ui <= steps; ui++ {
			b := Classify(float32(hi)/steps, float32(ui)/steps)
			if b >= count {
				t.Fatalf("Classify(%d/%d, %d/%d) = %d, outside the enumeration", hi, steps, ui, steps, b)
			}
		}
	}
}

func TestClassifyCorners(t *testing.T) {
	if got := Classify(0, 0); got != Ice {
		t.Fatalf("coldest/driest = %v, want ice", got)
	}
	if got := Classify(1, 0); got != Desert {
		t.Fatalf("hottest/driest = %v, want desert", got)
	}
	if got := Classify(1, 1); got != TropicalRainforest {
		t.Fatalf("hottest/wettest = %v, want tropical-rainforest", got)
	}
	if got := Classify(0.55, 1); got != TemperateRainforest {
		t.Fatalf("temperate/wettest = %v, want temperate-rainforest", got)
	}
	if got := Classify(1.0/6, 0.9); got != Tundra {
		t.Fatalf("h=1/6 should use bucket 1, got %v", got)
	}
	for _, u := range []float32{0, 0.3, 0.6, 1} {
		if got := Classify(0.05, u); got != Ice {
			t.Fatalf("lowest terrain at humidity %v = %v, want ice", u, got)
		}
	}
}

func TestColorsDistinct(t *testing.T) {
	seen := map[[4]uint8]Biome{}
	for _, b := range All() {
		c := b.Color()
		key := [4]uint8{c.R, c.G, c.B, c.A}
		if other, ok := seen[key]; ok {
			t.Fatalf("%v and %v share colour %v", b, other, c)
		}
		seen[key] = b
		if b.String() == "unknown" {
			t.Fatalf("biome %d has no name", b)
		}
	}
}

func TestClassifyAndColorKernels(t *testing.T) {
	dims := core.Dims{W: 12, H: 9}
	store, _ := heightmap.New(dims)
	heights := make([]float32, dims.Cells())
	for i := range heights {
		heights[i] = float32(i % dims.W)
	}
	_ = store.Replace(heights)
	src, _ := noise.NewSource(noise.BackendSimplex, 4)
	field := noise.NewField(noise.HumidityDefaults(), src)
	m := NewMap(dims.Cells())
	verts := make([]mesh.Vertex, dims.Cells())

	d := dispatch.New(3, nil)
	_ = d.Compile("classify", ClassifyKernel(store, &field, m))
	_ = d.Compile("color", ColorKernel(m, verts, dims.W))
	for _, name := range []string{"classify", "color"} {
		if err := d.Dispatch(context.Background(), name, dispatch.Extent2D(dims.W, dims.H)); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	total := 0
	for _, n := range m.Histogram() {
		total += n
	}
	if total != dims.Cells() {
		t.Fatalf("histogram covers %d cells, want %d", total, dims.Cells())
	}
	for i, v := range verts {
		if want := m.Biomes[i].Vec4(); v.Color != want {
			t.Fatalf("vertex %d colour %v, want %v", i, v.Color, want)
		}
		if m.Humidity[i] < 0 || m.Humidity[i] > 1 {
			t.Fatalf("humidity %d out of range: %f", i, m.Humidity[i])
		}
	}
}
