// Package heightmap holds the terrain height grid shared by generation,
// erosion, meshing and export.
package heightmap

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"unsafe"

	"terrain-lab/internal/core"
)

// PrecisionFactor scales heights into the fixed-point domain used by the
// min/max reduction.
const PrecisionFactor = 10_000_000

// ErrGridTooSmall is returned for grids narrower or shorter than 2 cells.
var ErrGridTooSmall = errors.New("heightmap: grid must be at least 2x2")

// Store is a row-major float32 height grid. Cell writes from concurrent
// workers go through Load/Add/AddClamped, which operate on the raw bits
// atomically.
type Store struct {
	dims  core.Dims
	cells []float32

	min atomic.Int64
	max atomic.Int64
}

// New allocates a zeroed store.
func New(dims core.Dims) (*Store, error) {
	if !dims.Valid() {
		return nil, fmt.Errorf("new heightmap %dx%d: %w", dims.W, dims.H, ErrGridTooSmall)
	}
	s := &Store{dims: dims, cells: make([]float32, dims.Cells())}
	s.ResetRange()
	return s, nil
}

// Dims returns the grid dimensions.
func (s *Store) Dims() core.Dims { return s.dims }

// Cells exposes the backing slice. Callers must not use it while a pass
// that writes the store is running.
func (s *Store) Cells() []float32 { return s.cells }

// At returns the height at (x, y).
func (s *Store) At(x, y int) float32 { return s.cells[s.dims.Index(x, y)] }

// Set writes the height at (x, y).
func (s *Store) Set(x, y int, v float32) { s.cells[s.dims.Index(x, y)] = v }

func (s *Store) bits(i int) *uint32 {
	return (*uint32)(unsafe.Pointer(&s.cells[i]))
}

// Load atomically reads cell i.
func (s *Store) Load(i int) float32 {
	return math.Float32frombits(atomic.LoadUint32(s.bits(i)))
}

// Add atomically adds delta to cell i and returns the new height.
func (s *Store) Add(i int, delta float32) float32 {
	p := s.bits(i)
	for {
		old := atomic.LoadUint32(p)
		next := math.Float32frombits(old) + delta
		if atomic.CompareAndSwapUint32(p, old, math.Float32bits(next)) {
			return next
		}
	}
}

// AddClamped atomically adds delta to cell i. A negative delta never takes
// the cell below floor and leaves a cell already at or below floor alone. It
// returns the delta actually applied.
func (s *Store) AddClamped(i int, delta, floor float32) float32 {
	p := s.bits(i)
	for {
		old := atomic.LoadUint32(p)
		cur := math.Float32frombits(old)
		next := cur + delta
		if delta < 0 {
			if cur <= floor {
				return 0
			}
			next = max(next, floor)
		}
		if next == cur {
			return 0
		}
		if atomic.CompareAndSwapUint32(p, old, math.Float32bits(next)) {
			return next - cur
		}
	}
}

// ResetRange clears the min/max reduction.
func (s *Store) ResetRange() {
	s.min.Store(math.MaxInt64)
	s.max.Store(math.MinInt64)
}

// Observe folds v into the min/max reduction. Safe for concurrent use.
func (s *Store) Observe(v float32) {
	fixed := int64(math.Round(float64(v) * PrecisionFactor))
	for {
		cur := s.min.Load()
		if fixed >= cur || s.min.CompareAndSwap(cur, fixed) {
			break
		}
	}
	for {
		cur := s.max.Load()
		if fixed <= cur || s.max.CompareAndSwap(cur, fixed) {
			break
		}
	}
}

// Range returns the reduced minimum and maximum height. Before any
// observation it returns (0, 0).
func (s *Store) Range() (float32, float32) {
	lo, hi := s.min.Load(), s.max.Load()
	if lo > hi {
		return 0, 0
	}
	return float32(float64(lo) / PrecisionFactor), float32(float64(hi) / PrecisionFactor)
}

// Normalize maps h into [0, 1] using the reduced range. A flat store maps
// everything to 0.
func (s *Store) Normalize(h float32) float32 {
	lo, hi := s.Range()
	if hi <= lo {
		return 0
	}
	v := (h - lo) / (hi - lo)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// HeightAndGradient bilinearly interpolates the height and gradient at the
// continuous position (x, y). The cell (floor(x)+1, floor(y)+1) must exist.
func (s *Store) HeightAndGradient(x, y float32) (h, gx, gy float32) {
	cx, cy := int(x), int(y)
	u, v := x-float32(cx), y-float32(cy)
	i := s.dims.Index(cx, cy)
	nw := s.Load(i)
	ne := s.Load(i + 1)
	sw := s.Load(i + s.dims.W)
	se := s.Load(i + s.dims.W + 1)

	gx = (ne-nw)*(1-v) + (se-sw)*v
	gy = (sw-nw)*(1-u) + (se-ne)*u
	h = nw*(1-u)*(1-v) + ne*u*(1-v) + sw*(1-u)*v + se*u*v
	return h, gx, gy
}

// Clone returns a deep copy, including the reduced range.
func (s *Store) Clone() *Store {
	c := &Store{dims: s.dims, cells: append([]float32(nil), s.cells...)}
	c.min.Store(s.min.Load())
	c.max.Store(s.max.Load())
	return c
}

// Replace overwrites the cells with heights and recomputes the range serially.
func (s *Store) Replace(heights []float32) error {
	if len(heights) != len(s.cells) {
		return fmt.Errorf("replace heights: got %d cells, want %d", len(heights), len(s.cells))
	}
	copy(s.cells, heights)
	s.ResetRange()
	for _, h := range s.cells {
		s.Observe(h)
	}
	return nil
}

// Sum returns the total height, accumulated in float64.
func (s *Store) Sum() float64 {
	var total float64
	for _, h := range s.cells {
		total += float64(h)
	}
	return total
}

// Roughness is the mean absolute discrete Laplacian over interior cells.
// Erosion and smoothing both drive it down on natural terrain.
func (s *Store) Roughness() float64 {
	w, h := s.dims.W, s.dims.H
	if w < 3 || h < 3 {
		return 0
	}
	var total float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			lap := 4*s.cells[i] - s.cells[i-1] - s.cells[i+1] - s.cells[i-w] - s.cells[i+w]
			total += math.Abs(float64(lap))
		}
	}
	return total / float64((w-2)*(h-2))
}
