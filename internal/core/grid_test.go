package core

import "testing"

func TestDimsIndexRoundTrip(t *testing.T) {
	d := Dims{W: 5, H: 3}
	for y := 0; y < d.H; y++ {
		for x := 0; x < d.W; x++ {
			gx, gy := d.Coord(d.Index(x, y))
			if gx != x || gy != y {
				t.Fatalf("Coord(Index(%d,%d)) = (%d,%d)", x, y, gx, gy)
			}
		}
	}
	if d.Cells() != 15 {
		t.Fatalf("Cells = %d, want 15", d.Cells())
	}
	if d.Quads() != 8 {
		t.Fatalf("Quads = %d, want 8", d.Quads())
	}
}

func TestDimsInterior(t *testing.T) {
	d := Dims{W: 6, H: 6}
	if d.Interior(1, 1, 2) {
		t.Fatalf("(1,1) should be outside a border of 2")
	}
	if !d.Interior(2, 3, 2) {
		t.Fatalf("(2,3) should be inside a border of 2")
	}
	if d.Interior(4, 2, 2) {
		t.Fatalf("(4,2) should be outside a border of 2")
	}
	if (Dims{W: 1, H: 4}).Valid() {
		t.Fatalf("1-wide grid should not be valid")
	}
}
