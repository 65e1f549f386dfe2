// Package dispatch runs named data-parallel programs over 1D/2D/3D index
// spaces. Every Dispatch call is a barrier: it returns only after each
// invocation of the program has finished.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrProgramNotFound is returned when dispatching a name that was never compiled.
	ErrProgramNotFound = errors.New("dispatch: program not found")
	// ErrProgramInvalid is returned by Compile for unusable kernels and by
	// Dispatch for programs that were disabled.
	ErrProgramInvalid = errors.New("dispatch: invalid program")
)

// Invocation is the global id of one kernel invocation.
type Invocation struct {
	X, Y, Z int
}

// Kernel is the body of a program. It must only write state owned by its
// invocation, or use atomics for shared state.
type Kernel func(id Invocation)

// Extent is the number of invocations along each axis. Zero axes count as 1.
type Extent struct {
	X, Y, Z int
}

// Extent1D is shorthand for a linear index space.
func Extent1D(n int) Extent { return Extent{X: n, Y: 1, Z: 1} }

// Extent2D is shorthand for a grid index space.
func Extent2D(w, h int) Extent { return Extent{X: w, Y: h, Z: 1} }

func (e Extent) norm() Extent {
	if e.Y <= 0 {
		e.Y = 1
	}
	if e.Z <= 0 {
		e.Z = 1
	}
	return e
}

// Total returns the number of invocations in the extent.
func (e Extent) Total() int {
	e = e.norm()
	if e.X <= 0 {
		return 0
	}
	return e.X * e.Y * e.Z
}

// Work group shapes.
const (
	groupSize1D = 256
	groupSize2D = 8
)

// PassStats summarises the dispatches of one program.
type PassStats struct {
	Name        string
	Runs        int
	Invocations int64
	Elapsed     time.Duration
}

type program struct {
	kernel   Kernel
	disabled string
	stats    PassStats
}

// Dispatcher owns the compiled programs and the worker budget.
type Dispatcher struct {
	workers int
	log     *slog.Logger

	mu       sync.Mutex
	programs map[string]*program
}

// New returns a dispatcher running at most workers goroutines per pass.
// workers <= 0 uses GOMAXPROCS.
func New(workers int, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{workers: workers, log: logger, programs: map[string]*program{}}
}

// Workers reports the per-pass goroutine limit.
func (d *Dispatcher) Workers() int { return d.workers }

// Compile registers kernel under name, replacing any previous program.
func (d *Dispatcher) Compile(name string, kernel Kernel) error {
	if name == "" {
		return fmt.Errorf("compile: empty program name: %w", ErrProgramInvalid)
	}
	if kernel == nil {
		return fmt.Errorf("compile %q: nil kernel: %w", name, ErrProgramInvalid)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.programs[name] = &program{kernel: kernel, stats: PassStats{Name: name}}
	return nil
}

// Disable marks a program unusable until it is compiled again.
func (d *Dispatcher) Disable(name, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.programs[name]; ok {
		if reason == "" {
			reason = "disabled"
		}
		p.disabled = reason
	}
}

// Has reports whether name is compiled and enabled.
func (d *Dispatcher) Has(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.programs[name]
	return ok && p.disabled == ""
}

// Dispatch runs the named program over ext and waits for every invocation.
// The context is only consulted before the pass starts; a started pass always
// runs to completion.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, ext Extent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("dispatch %q: %w", name, err)
	}
	d.mu.Lock()
	p, ok := d.programs[name]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("dispatch %q: %w", name, ErrProgramNotFound)
	}
	if p.disabled != "" {
		reason := p.disabled
		d.mu.Unlock()
		return fmt.Errorf("dispatch %q: %s: %w", name, reason, ErrProgramInvalid)
	}
	kernel := p.kernel
	d.mu.Unlock()

	ext = ext.norm()
	total := ext.Total()
	if total == 0 {
		return nil
	}

	start := time.Now()
	d.run(kernel, ext)
	elapsed := time.Since(start)

	d.mu.Lock()
	p.stats.Runs++
	p.stats.Invocations += int64(total)
	p.stats.Elapsed += elapsed
	d.mu.Unlock()

	d.log.Debug("pass complete",
		"pass", name,
		"invocations", humanize.Comma(int64(total)),
		"elapsed", elapsed)
	return nil
}

func (d *Dispatcher) run(kernel Kernel, ext Extent) {
	lx, ly := groupSize2D, groupSize2D
	if ext.Y == 1 && ext.Z == 1 {
		lx, ly = groupSize1D, 1
	}
	gx := (ext.X + lx - 1) / lx
	gy := (ext.Y + ly - 1) / ly
	groups := gx * gy * ext.Z

	batches := d.workers * 4
	if batches > groups {
		batches = groups
	}
	per := (groups + batches - 1) / batches

	var g errgroup.Group
	g.SetLimit(d.workers)
	for first := 0; first < groups; first += per {
		last := first + per
		if last > groups {
			last = groups
		}
		g.Go(func() error {
			for gi := first; gi < last; gi++ {
				bx := gi % gx
				by := (gi / gx) % gy
				z := gi / (gx * gy)
				for y := by * ly; y < (by+1)*ly && y < ext.Y; y++ {
					for x := bx * lx; x < (bx+1)*lx && x < ext.X; x++ {
						kernel(Invocation{X: x, Y: y, Z: z})
					}
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Stats returns per-program timing, sorted by name.
func (d *Dispatcher) Stats() []PassStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]PassStats, 0, len(d.programs))
	for _, p := range d.programs {
		out = append(out, p.stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
