package core

// Dims describes a row-major 2D grid of W*H cells.
type Dims struct {
	W, H int
}

// Cells returns the number of cells in the grid.
func (d Dims) Cells() int { return d.W * d.H }

// Index returns the linear slice index for coordinates (x, y).
func (d Dims) Index(x, y int) int { return y*d.W + x }

// Coord is the inverse of Index.
func (d Dims) Coord(i int) (int, int) { return i % d.W, i / d.W }

// InBounds reports whether (x, y) addresses a cell of the grid.
func (d Dims) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < d.W && y < d.H
}

// Interior reports whether (x, y) lies at least border cells away from every edge.
func (d Dims) Interior(x, y, border int) bool {
	return x >= border && y >= border && x < d.W-border && y < d.H-border
}

// Quads returns the number of quads (cells with a right and lower neighbour).
func (d Dims) Quads() int {
	if d.W < 2 || d.H < 2 {
		return 0
	}
	return (d.W - 1) * (d.H - 1)
}

// Valid reports whether the grid can hold a mesh.
func (d Dims) Valid() bool { return d.W >= 2 && d.H >= 2 }

// Size converts the grid dimensions into a Size.
func (d Dims) Size() Size { return Size{W: d.W, H: d.H} }
