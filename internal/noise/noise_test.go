package noise

import (
	"testing"

	"terrain-lab/internal/core"
)

func mustSource(t *testing.T, b Backend, seed int64) Source {
	t.Helper()
	src, err := NewSource(b, seed)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	return src
}

func TestZeroLayersReturnsBaseline(t *testing.T) {
	p := HeightDefaults()
	p.Layers = 0
	p.MinValue = -0.5
	p.Strength = 2
	f := NewField(p, mustSource(t, BackendSimplex, 1))
	for _, c := range [][2]int{{0, 0}, {3, 9}, {100, 7}} {
		if got := f.SampleGrid(c[0], c[1]); got != 1 {
			t.Fatalf("SampleGrid(%v) = %f, want baseline 1", c, got)
		}
	}
	p.MinValue = 0.3
	f = NewField(p, mustSource(t, BackendSimplex, 1))
	if got := f.SampleGrid(4, 4); got != 0 {
		t.Fatalf("positive MinValue baseline = %f, want 0", got)
	}
}

func TestFieldDeterministicAndBounded(t *testing.T) {
	p := HeightDefaults()
	a := NewField(p, mustSource(t, BackendSimplex, 9))
	b := NewField(p, mustSource(t, BackendSimplex, 9))
	peak := p.Peak()
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			va, vb := a.SampleGrid(x, y), b.SampleGrid(x, y)
			if va != vb {
				t.Fatalf("(%d,%d) differs: %f vs %f", x, y, va, vb)
			}
			if va < 0 || va > peak+1e-4 {
				t.Fatalf("(%d,%d) = %f outside [0,%f]", x, y, va, peak)
			}
		}
	}
}

func TestSeedChangesField(t *testing.T) {
	p := HeightDefaults()
	a := NewField(p, mustSource(t, BackendSimplex, 1))
	b := NewField(p, mustSource(t, BackendSimplex, 2))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if a.SampleGrid(x, y) != b.SampleGrid(x, y) {
				return
			}
		}
	}
	t.Fatalf("different seeds produced identical fields")
}

func TestPerlinBackend(t *testing.T) {
	p := HumidityDefaults()
	a := NewField(p, mustSource(t, BackendPerlin, 3))
	b := NewField(p, mustSource(t, BackendPerlin, 3))
	for i := 0; i < 20; i++ {
		if a.Normalized(i, i*2) != b.Normalized(i, i*2) {
			t.Fatalf("perlin backend not deterministic at %d", i)
		}
	}
	if _, err := NewSource("voronoi", 1); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestClamp(t *testing.T) {
	p := HeightDefaults()
	if p.Clamp(-3) != 0 || p.Clamp(200) != 150 || p.Clamp(12) != 12 {
		t.Fatalf("clamp contract violated")
	}
}

func TestFalloffEdgesNegativeCentreZero(t *testing.T) {
	dims := core.Dims{W: 65, H: 65}
	f := NewFalloff(FalloffDefaults(), mustSource(t, BackendSimplex, 0), dims, 0)
	if got := f.Sample(32, 32); got != 0 {
		t.Fatalf("centre falloff = %f, want 0", got)
	}
	if got := f.Sample(0, 0); got != -150 {
		t.Fatalf("corner falloff = %f, want -150", got)
	}
	if f.Sample(0, 32) >= f.Sample(16, 32) {
		t.Fatalf("falloff should decrease toward the edge")
	}
}
