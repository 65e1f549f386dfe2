package mesh

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"terrain-lab/internal/core"
	"terrain-lab/internal/dispatch"
	"terrain-lab/internal/heightmap"
)

func run(t *testing.T, d *dispatch.Dispatcher, name string, k dispatch.Kernel, ext dispatch.Extent) {
	t.Helper()
	if err := d.Compile(name, k); err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	if err := d.Dispatch(context.Background(), name, ext); err != nil {
		t.Fatalf("dispatch %s: %v", name, err)
	}
}

func TestBufferSizes(t *testing.T) {
	dims := core.Dims{W: 512, H: 512}
	if VertexCount(dims) != 262144 {
		t.Fatalf("VertexCount = %d", VertexCount(dims))
	}
	if IndexCount(dims) != 261121 {
		t.Fatalf("IndexCount = %d", IndexCount(dims))
	}
	if TriangleIndexBufferLength(dims) != 1566726 {
		t.Fatalf("TriangleIndexBufferLength = %d", TriangleIndexBufferLength(dims))
	}
}

func TestIndicesMatchSerialBuildAndWinding(t *testing.T) {
	dims := core.Dims{W: 7, H: 5}
	want := BuildIndices(dims)
	got := make([]uint32, TriangleIndexBufferLength(dims))
	run(t, dispatch.New(3, nil), "indices", IndicesKernel(got, dims), dispatch.Extent2D(dims.W-1, dims.H-1))
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: %d vs %d", i, got[i], want[i])
		}
		if int(got[i]) >= VertexCount(dims) {
			t.Fatalf("index %d out of range: %d", i, got[i])
		}
	}
	pos := func(i uint32) mgl32.Vec3 {
		x, y := dims.Coord(int(i))
		return mgl32.Vec3{float32(x), 0, float32(y)}
	}
	for tri := 0; tri < len(got); tri += 3 {
		a, b, c := pos(got[tri]), pos(got[tri+1]), pos(got[tri+2])
		n := b.Sub(a).Cross(c.Sub(a))
		if n[1] <= 0 {
			t.Fatalf("triangle %d winds downward: %v", tri/3, n)
		}
	}
}

func flatVertices(t *testing.T, dims core.Dims, h float32) []Vertex {
	t.Helper()
	store, _ := heightmap.New(dims)
	heights := make([]float32, dims.Cells())
	for i := range heights {
		heights[i] = h
	}
	_ = store.Replace(heights)
	verts := make([]Vertex, VertexCount(dims))
	d := dispatch.New(2, nil)
	run(t, d, "vertices", VerticesKernel(store, verts, Spacing(dims, mgl32.Vec2{10, 10})), dispatch.Extent2D(dims.W, dims.H))
	run(t, d, "normals", NormalsKernel(verts, dims), dispatch.Extent2D(dims.W, dims.H))
	return verts
}

func TestFlatNormalsPointUpBorderZero(t *testing.T) {
	dims := core.Dims{W: 6, H: 6}
	verts := flatVertices(t, dims, 3)
	for y := 0; y < dims.H; y++ {
		for x := 0; x < dims.W; x++ {
			n := verts[dims.Index(x, y)].Normal
			if !dims.Interior(x, y, 1) {
				if n != (mgl32.Vec4{}) {
					t.Fatalf("border normal at (%d,%d) = %v", x, y, n)
				}
				continue
			}
			if math.Abs(float64(n[1]-1)) > 1e-6 || n[0] != 0 || n[2] != 0 {
				t.Fatalf("interior normal at (%d,%d) = %v", x, y, n)
			}
		}
	}
	if p := verts[dims.Index(5, 5)].Position; p[0] != 10 || p[2] != 10 || p[1] != 3 {
		t.Fatalf("corner position = %v", p)
	}
}

func TestSlopeNormalTiltsAgainstGradient(t *testing.T) {
	dims := core.Dims{W: 5, H: 5}
	store, _ := heightmap.New(dims)
	heights := make([]float32, dims.Cells())
	for y := 0; y < dims.H; y++ {
		for x := 0; x < dims.W; x++ {
			heights[dims.Index(x, y)] = float32(x)
		}
	}
	_ = store.Replace(heights)
	verts := make([]Vertex, VertexCount(dims))
	d := dispatch.New(1, nil)
	run(t, d, "vertices", VerticesKernel(store, verts, mgl32.Vec2{1, 1}), dispatch.Extent2D(5, 5))
	run(t, d, "normals", NormalsKernel(verts, dims), dispatch.Extent2D(5, 5))
	n := verts[dims.Index(2, 2)].Normal
	want := mgl32.Vec3{-1, 1, 0}.Normalize()
	if !n.Vec3().ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("normal = %v, want %v", n, want)
	}
}

func TestSmoothingTwoPasses(t *testing.T) {
	dims := core.Dims{W: 7, H: 7}
	verts := flatVertices(t, dims, 0)
	centre := dims.Index(3, 3)
	verts[centre].Position[1] = 16

	scratch := make([]float32, len(verts))
	d := dispatch.New(4, nil)
	run(t, d, "smooth.1", SmoothToScratchKernel(verts, scratch, dims), dispatch.Extent2D(7, 7))
	run(t, d, "smooth.2", SmoothFromScratchKernel(verts, scratch, dims), dispatch.Extent2D(7, 7))

	// First pass: centre 8, neighbours 2. Second pass centre: 0.5*8 + 0.125*4*2.
	if got := verts[centre].Position[1]; got != 5 {
		t.Fatalf("centre after smoothing = %f, want 5", got)
	}
	// Neighbour: 0.5*2 + 0.125*8.
	if got := verts[dims.Index(4, 3)].Position[1]; got != 2 {
		t.Fatalf("neighbour after smoothing = %f, want 2", got)
	}
	var sum float32
	for _, v := range verts {
		sum += v.Position[1]
	}
	if sum != 16 {
		t.Fatalf("smoothing away from the border should conserve height, sum = %f", sum)
	}
}

func TestSmoothingKeepsFlatAndBorder(t *testing.T) {
	dims := core.Dims{W: 5, H: 4}
	verts := flatVertices(t, dims, 2)
	verts[0].Position[1] = 40
	scratch := make([]float32, len(verts))
	d := dispatch.New(2, nil)
	run(t, d, "smooth.1", SmoothToScratchKernel(verts, scratch, dims), dispatch.Extent2D(5, 4))
	run(t, d, "smooth.2", SmoothFromScratchKernel(verts, scratch, dims), dispatch.Extent2D(5, 4))
	if verts[0].Position[1] != 40 {
		t.Fatalf("border vertex changed: %f", verts[0].Position[1])
	}
	if got := verts[dims.Index(2, 2)].Position[1]; got != 2 {
		t.Fatalf("flat interior changed: %f", got)
	}
}
