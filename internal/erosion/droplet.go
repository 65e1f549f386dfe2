package erosion

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"terrain-lab/internal/core"
	"terrain-lab/internal/heightmap"
	pcore "terrain-lab/pkg/core"
)

// WaterEpsilon is the water volume below which a droplet has evaporated.
const WaterEpsilon = 1e-4

// State is the droplet life cycle.
type State uint8

const (
	Spawned State = iota
	Flowing
	Terminated
)

// Reason records why a droplet stopped.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonOutOfBounds
	ReasonLifetime
	ReasonEvaporated
)

func (r Reason) String() string {
	switch r {
	case ReasonOutOfBounds:
		return "out-of-bounds"
	case ReasonLifetime:
		return "lifetime"
	case ReasonEvaporated:
		return "evaporated"
	default:
		return "none"
	}
}

// Droplet is one simulated water particle.
type Droplet struct {
	Position  mgl32.Vec2
	Direction mgl32.Vec2
	Speed     float32
	Water     float32
	Sediment  float32
	// Lifetime counts the remaining steps.
	Lifetime int
	Steps    int
	State    State
	Reason   Reason

	Eroded    float32
	Deposited float32

	seed uint32
}

// terrain binds the store, brush and parameters a droplet flows over.
type terrain struct {
	store  *heightmap.Store
	dims   core.Dims
	brush  *Brush
	params *Params
	border int
}

func (t *terrain) inside(p mgl32.Vec2) bool {
	lo := float32(t.border)
	hiX := float32(t.dims.W - 1 - t.border)
	hiY := float32(t.dims.H - 1 - t.border)
	return p[0] >= lo && p[1] >= lo && p[0] < hiX && p[1] < hiY
}

// run steps d until it terminates.
func (t *terrain) run(d *Droplet) {
	for d.State != Terminated {
		t.step(d)
	}
}

func (t *terrain) step(d *Droplet) {
	if d.State == Terminated {
		return
	}
	d.State = Flowing
	p := t.params

	old := d.Position
	cx, cy := int(old[0]), int(old[1])
	cell := t.dims.Index(cx, cy)
	u, v := old[0]-float32(cx), old[1]-float32(cy)

	h, gx, gy := t.store.HeightAndGradient(old[0], old[1])

	dir := d.Direction.Mul(p.Inertia).Sub(mgl32.Vec2{gx, gy}.Mul(1 - p.Inertia))
	if l := dir.Len(); l > 1e-6 {
		dir = dir.Mul(1 / l)
	} else {
		x, y := pcore.HashDirection(pcore.Mix(d.seed, uint32(d.Steps)))
		dir = mgl32.Vec2{x, y}
	}
	d.Direction = dir
	d.Position = old.Add(dir)
	d.Steps++

	if !t.inside(d.Position) {
		d.terminate(ReasonOutOfBounds)
		return
	}

	nh, _, _ := t.store.HeightAndGradient(d.Position[0], d.Position[1])
	dh := nh - h

	capacity := max(-dh*p.SedimentCapacityFactor*d.Speed*d.Water, p.MinSedimentCapacity)

	if dh > 0 || d.Sediment > capacity {
		var amount float32
		if dh > 0 {
			amount = dh
		} else {
			amount = (d.Sediment - capacity) * p.DepositSpeed
		}
		amount = min(amount, d.Sediment)
		d.Sediment -= amount
		d.Deposited += amount
		if dh > 0 {
			for k, off := range t.brush.Offsets {
				t.store.Add(cell+off, amount*t.brush.Weights[k])
			}
		} else {
			w := t.dims.W
			t.store.Add(cell, amount*(1-u)*(1-v))
			t.store.Add(cell+1, amount*u*(1-v))
			t.store.Add(cell+w, amount*(1-u)*v)
			t.store.Add(cell+w+1, amount*u*v)
		}
	} else {
		amount := min((capacity-d.Sediment)*p.ErodeSpeed, -dh)
		for k, off := range t.brush.Offsets {
			applied := t.store.AddClamped(cell+off, -amount*t.brush.Weights[k], 0)
			d.Sediment -= applied
			d.Eroded -= applied
		}
	}

	d.Speed = float32(math.Sqrt(float64(max(0, d.Speed*d.Speed-dh*p.Gravity))))
	d.Water *= 1 - p.EvaporateSpeed

	d.Lifetime--
	switch {
	case d.Lifetime <= 0:
		d.terminate(ReasonLifetime)
	case d.Water < WaterEpsilon:
		d.terminate(ReasonEvaporated)
	}
}

func (d *Droplet) terminate(r Reason) {
	d.State = Terminated
	d.Reason = r
}
