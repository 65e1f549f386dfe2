package heightmap

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"terrain-lab/internal/core"
	"terrain-lab/internal/dispatch"
	"terrain-lab/internal/noise"
)

func generate(t *testing.T, workers int, dims core.Dims, seed int64) *Store {
	t.Helper()
	s, err := New(dims)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	hp := noise.HeightDefaults()
	hp.Seed = seed
	hsrc, _ := noise.NewSource(noise.BackendSimplex, hp.Seed)
	fp := noise.FalloffDefaults()
	fsrc, _ := noise.NewSource(noise.BackendSimplex, fp.Seed)
	gen := &Generator{
		Height:  noise.NewField(hp, hsrc),
		Falloff: noise.NewFalloff(fp, fsrc, dims, 1),
		Min:     hp.MinHeight,
		Max:     hp.MaxHeight,
	}
	d := dispatch.New(workers, nil)
	if err := d.Compile("generate", GenerateKernel(s, &gen)); err != nil {
		t.Fatalf("compile: %v", err)
	}
	s.ResetRange()
	if err := d.Dispatch(context.Background(), "generate", dispatch.Extent2D(dims.W, dims.H)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	return s
}

func TestNewRejectsTinyGrid(t *testing.T) {
	if _, err := New(core.Dims{W: 1, H: 8}); !errors.Is(err, ErrGridTooSmall) {
		t.Fatalf("err = %v, want ErrGridTooSmall", err)
	}
}

func TestGenerateDeterministicAcrossWorkerCounts(t *testing.T) {
	dims := core.Dims{W: 48, H: 40}
	a := generate(t, 1, dims, 5)
	b := generate(t, 8, dims, 5)
	for i := range a.Cells() {
		if math.Float32bits(a.Cells()[i]) != math.Float32bits(b.Cells()[i]) {
			t.Fatalf("cell %d differs: %v vs %v", i, a.Cells()[i], b.Cells()[i])
		}
	}
	alo, ahi := a.Range()
	blo, bhi := b.Range()
	if alo != blo || ahi != bhi {
		t.Fatalf("ranges differ: (%f,%f) vs (%f,%f)", alo, ahi, blo, bhi)
	}
}

func TestRangeMatchesExtremes(t *testing.T) {
	s := generate(t, 4, core.Dims{W: 64, H: 64}, 11)
	lo, hi := float32(math.MaxFloat32), float32(-math.MaxFloat32)
	for _, h := range s.Cells() {
		lo = min(lo, h)
		hi = max(hi, h)
	}
	gotLo, gotHi := s.Range()
	if math.Abs(float64(gotLo-lo)) > 1e-6 || math.Abs(float64(gotHi-hi)) > 1e-6 {
		t.Fatalf("Range() = (%f,%f), scan = (%f,%f)", gotLo, gotHi, lo, hi)
	}
	if gotLo > gotHi {
		t.Fatalf("min above max")
	}
}

func TestConcurrentAddLosesNothing(t *testing.T) {
	s, _ := New(core.Dims{W: 2, H: 2})
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s.Add(3, 1)
			}
		}()
	}
	wg.Wait()
	if got := s.Load(3); got != 8000 {
		t.Fatalf("cell = %f, want 8000", got)
	}
}

func TestAddClampedStopsAtFloor(t *testing.T) {
	s, _ := New(core.Dims{W: 2, H: 2})
	s.Set(0, 0, 0.4)
	applied := s.AddClamped(0, -1, 0)
	if s.At(0, 0) != 0 {
		t.Fatalf("height = %f, want 0", s.At(0, 0))
	}
	if math.Abs(float64(applied+0.4)) > 1e-7 {
		t.Fatalf("applied = %f, want -0.4", applied)
	}
	if s.AddClamped(0, -1, 0) != 0 {
		t.Fatalf("second clamp should apply nothing")
	}
}

func TestAddClampedLeavesCellsBelowFloor(t *testing.T) {
	s, _ := New(core.Dims{W: 2, H: 2})
	s.Set(1, 0, -10)
	if applied := s.AddClamped(1, -0.5, 0); applied != 0 {
		t.Fatalf("applied = %f, want 0", applied)
	}
	if s.At(1, 0) != -10 {
		t.Fatalf("height = %f, want -10", s.At(1, 0))
	}
	s.Set(0, 1, -0.2)
	if applied := s.AddClamped(2, 0.5, 0); math.Abs(float64(applied-0.5)) > 1e-6 {
		t.Fatalf("deposit applied = %f, want 0.5", applied)
	}
}

func TestHeightAndGradientOnPlane(t *testing.T) {
	dims := core.Dims{W: 4, H: 4}
	s, _ := New(dims)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			s.Set(x, y, float32(2*x+3*y))
		}
	}
	h, gx, gy := s.HeightAndGradient(1.25, 2.5)
	if math.Abs(float64(h-(2*1.25+3*2.5))) > 1e-5 {
		t.Fatalf("height = %f", h)
	}
	if math.Abs(float64(gx-2)) > 1e-5 || math.Abs(float64(gy-3)) > 1e-5 {
		t.Fatalf("gradient = (%f,%f), want (2,3)", gx, gy)
	}
}

func TestRangeEmptyAndReplace(t *testing.T) {
	s, _ := New(core.Dims{W: 2, H: 2})
	if lo, hi := s.Range(); lo != 0 || hi != 0 {
		t.Fatalf("empty range = (%f,%f)", lo, hi)
	}
	if err := s.Replace([]float32{1, -2, 3, 0.5}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if lo, hi := s.Range(); lo != -2 || hi != 3 {
		t.Fatalf("range = (%f,%f), want (-2,3)", lo, hi)
	}
	if s.Normalize(0.5) != 0.5 {
		t.Fatalf("Normalize(0.5) = %f", s.Normalize(0.5))
	}
	if err := s.Replace([]float32{1}); err == nil {
		t.Fatalf("expected size mismatch error")
	}
}

func TestRoughness(t *testing.T) {
	s, err := New(core.Dims{W: 5, H: 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			s.Set(x, y, float32(x+2*y))
		}
	}
	if r := s.Roughness(); r != 0 {
		t.Fatalf("plane roughness = %f, want 0", r)
	}
	s.Set(2, 2, s.At(2, 2)+1)
	// The bump contributes 4 at its own cell and 1 at each of its 4 interior
	// neighbours, over 9 interior cells.
	if r := s.Roughness(); math.Abs(r-8.0/9.0) > 1e-6 {
		t.Fatalf("bump roughness = %f, want %f", r, 8.0/9.0)
	}
}
