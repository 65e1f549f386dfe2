package core

import (
	"testing"
	"time"
)

func TestTickPacerDue(t *testing.T) {
	p := NewTickPacer(10, 3)
	start := time.Unix(100, 0)
	if got := p.Due(start); got != 1 {
		t.Fatalf("first Due = %d, want 1 (primed tick)", got)
	}
	if got := p.Due(start.Add(50 * time.Millisecond)); got != 0 {
		t.Fatalf("Due after half a step = %d, want 0", got)
	}
	if got := p.Due(start.Add(150 * time.Millisecond)); got != 1 {
		t.Fatalf("Due after 1.5 steps = %d, want 1", got)
	}
	if got := p.Due(start.Add(5 * time.Second)); got != 3 {
		t.Fatalf("Due after stall = %d, want burst cap 3", got)
	}
}
