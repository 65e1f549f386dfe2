// Package mesh derives a renderable triangle grid from the heightmap.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"terrain-lab/internal/core"
	"terrain-lab/internal/dispatch"
	"terrain-lab/internal/heightmap"
)

// Vertex is one grid point. Position.Y carries the height; W is 1 for
// positions and 0 for normals.
type Vertex struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
	Normal   mgl32.Vec4
}

// VertexCount is the number of vertices for dims.
func VertexCount(d core.Dims) int { return d.Cells() }

// IndexCount is the number of grid quads for dims, (W-1)*(H-1).
func IndexCount(d core.Dims) int { return d.Quads() }

// TriangleIndexBufferLength is the index buffer length: two triangles of
// three indices per quad.
func TriangleIndexBufferLength(d core.Dims) int { return IndexCount(d) * 6 }

// Spacing is the world distance between neighbouring vertices when the grid
// spans world units.
func Spacing(d core.Dims, world mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{world[0] / float32(d.W-1), world[1] / float32(d.H-1)}
}

func writeQuad(indices []uint32, d core.Dims, x, y int) {
	q := y*(d.W-1) + x
	i := uint32(d.Index(x, y))
	w := uint32(d.W)
	o := indices[q*6 : q*6+6]
	o[0], o[1], o[2] = i, i+w, i+1
	o[3], o[4], o[5] = i+1, i+w, i+w+1
}

// BuildIndices returns the index buffer for dims. Both triangles of a quad
// wind so their face normal points along +Y.
func BuildIndices(d core.Dims) []uint32 {
	indices := make([]uint32, TriangleIndexBufferLength(d))
	for y := 0; y < d.H-1; y++ {
		for x := 0; x < d.W-1; x++ {
			writeQuad(indices, d, x, y)
		}
	}
	return indices
}

// IndicesKernel fills one quad per invocation over a (W-1)x(H-1) extent.
func IndicesKernel(indices []uint32, d core.Dims) dispatch.Kernel {
	return func(id dispatch.Invocation) {
		writeQuad(indices, d, id.X, id.Y)
	}
}

// VerticesKernel writes vertex positions from the store, one per cell. Colour
// and normal are left untouched.
func VerticesKernel(store *heightmap.Store, verts []Vertex, spacing mgl32.Vec2) dispatch.Kernel {
	d := store.Dims()
	return func(id dispatch.Invocation) {
		i := d.Index(id.X, id.Y)
		verts[i].Position = mgl32.Vec4{float32(id.X) * spacing[0], store.Load(i), float32(id.Y) * spacing[1], 1}
	}
}

// NormalsKernel recomputes the normal of every interior vertex from central
// differences of its four neighbours. Border normals are set to zero.
func NormalsKernel(verts []Vertex, d core.Dims) dispatch.Kernel {
	return func(id dispatch.Invocation) {
		i := d.Index(id.X, id.Y)
		if !d.Interior(id.X, id.Y, 1) {
			verts[i].Normal = mgl32.Vec4{}
			return
		}
		dx := verts[i+1].Position.Vec3().Sub(verts[i-1].Position.Vec3())
		dz := verts[i+d.W].Position.Vec3().Sub(verts[i-d.W].Position.Vec3())
		n := dz.Cross(dx)
		if n.Len() == 0 {
			verts[i].Normal = mgl32.Vec4{}
			return
		}
		verts[i].Normal = n.Normalize().Vec4(0)
	}
}
