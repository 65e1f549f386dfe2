package erosion

import (
	"math"
	"slices"
	"testing"
)

func TestBrushRadiusOneOnWidthFour(t *testing.T) {
	// Neighbours at distance 1 fail dx²+dy² < 1, so only the centre remains.
	b, err := BuildBrush(1, 4)
	if err != nil {
		t.Fatalf("BuildBrush: %v", err)
	}
	if !slices.Equal(b.Offsets, []int{0}) {
		t.Fatalf("offsets = %v, want [0]", b.Offsets)
	}
	if len(b.Weights) != 1 || b.Weights[0] != 1 {
		t.Fatalf("weights = %v, want [1]", b.Weights)
	}
}

func TestBrushRadiusTwoOnWidthFour(t *testing.T) {
	b, err := BuildBrush(2, 4)
	if err != nil {
		t.Fatalf("BuildBrush: %v", err)
	}
	want := []int{-5, -4, -3, -1, 0, 1, 3, 4, 5}
	if !slices.Equal(b.Offsets, want) {
		t.Fatalf("offsets = %v, want %v", b.Offsets, want)
	}
	total := 1 + 4*0.5 + 4*(1-math.Sqrt2/2)
	centre := float32(1 / total)
	edge := float32(0.5 / total)
	if math.Abs(float64(b.Weights[4]-centre)) > 1e-6 {
		t.Fatalf("centre weight = %f, want %f", b.Weights[4], centre)
	}
	if math.Abs(float64(b.Weights[1]-edge)) > 1e-6 {
		t.Fatalf("edge weight = %f, want %f", b.Weights[1], edge)
	}
}

func TestBrushWeightsNormalised(t *testing.T) {
	for r := 1; r <= 10; r++ {
		b, err := BuildBrush(r, 512)
		if err != nil {
			t.Fatalf("radius %d: %v", r, err)
		}
		var sum float64
		for _, w := range b.Weights {
			if w <= 0 {
				t.Fatalf("radius %d has non-positive weight %f", r, w)
			}
			sum += float64(w)
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Fatalf("radius %d weights sum to %f", r, sum)
		}
		if len(b.Offsets) != len(b.Weights) {
			t.Fatalf("radius %d: %d offsets vs %d weights", r, len(b.Offsets), len(b.Weights))
		}
	}
}

func TestBrushRejectsZeroRadius(t *testing.T) {
	if _, err := BuildBrush(0, 4); err == nil {
		t.Fatalf("expected error for radius 0")
	}
}
