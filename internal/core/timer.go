package core

import "time"

// TickPacer spreads work at a steady ticks-per-second rate, independent of
// the frame rate that polls it.
type TickPacer struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
	maxBurst    int
}

// NewTickPacer constructs a pacer targeting the given TPS. maxBurst caps how
// many ticks a single Due call may report after a stall.
func NewTickPacer(tps, maxBurst int) *TickPacer {
	if maxBurst <= 0 {
		maxBurst = 1
	}
	p := &TickPacer{maxBurst: maxBurst}
	p.SetTPS(tps)
	p.accumulator = p.step
	return p
}

// SetTPS changes the tick rate. It is safe to call from the main loop.
func (p *TickPacer) SetTPS(tps int) {
	if tps <= 0 {
		tps = 60
	}
	p.step = time.Second / time.Duration(tps)
}

// Due reports how many ticks are owed at time now.
func (p *TickPacer) Due(now time.Time) int {
	if p.last.IsZero() {
		p.last = now
	}
	p.accumulator += now.Sub(p.last)
	p.last = now
	n := int(p.accumulator / p.step)
	if n <= 0 {
		return 0
	}
	p.accumulator -= time.Duration(n) * p.step
	if n > p.maxBurst {
		// Drop the backlog rather than spiral.
		p.accumulator = 0
		n = p.maxBurst
	}
	return n
}

// Reset forgets accumulated time.
func (p *TickPacer) Reset() {
	p.accumulator = 0
	p.last = time.Time{}
}
