package export

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"terrain-lab/internal/core"
	"terrain-lab/internal/heightmap"
	"terrain-lab/internal/mesh"
)

func TestHeightPNGNormalises(t *testing.T) {
	dims := core.Dims{W: 3, H: 2}
	store, _ := heightmap.New(dims)
	_ = store.Replace([]float32{10, 20, 30, 15, 25, 10})

	var buf bytes.Buffer
	if err := WriteHeightPNG(&buf, store); err != nil {
		t.Fatalf("WriteHeightPNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("bounds = %v", b)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("decoded %T, want *image.Gray", img)
	}
	if gray.GrayAt(0, 0).Y != 0 || gray.GrayAt(2, 0).Y != 255 || gray.GrayAt(1, 0).Y != 128 {
		t.Fatalf("unexpected pixels %v %v %v", gray.GrayAt(0, 0), gray.GrayAt(1, 0), gray.GrayAt(2, 0))
	}
}

func TestFlatHeightmapExportsBlack(t *testing.T) {
	store, _ := heightmap.New(core.Dims{W: 2, H: 2})
	_ = store.Replace([]float32{4, 4, 4, 4})
	img := HeightImage(store)
	for _, p := range img.Pix {
		if p != 0 {
			t.Fatalf("flat map produced pixel %d", p)
		}
	}
}

func TestSaveColorPNG(t *testing.T) {
	dims := core.Dims{W: 2, H: 2}
	verts := make([]mesh.Vertex, 4)
	verts[3].Color = mgl32.Vec4{1, 0.5, 0, 1}
	path := filepath.Join(t.TempDir(), "nested", "biomes.png")
	if err := SaveColorPNG(path, verts, dims); err != nil {
		t.Fatalf("SaveColorPNG: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, a := img.At(1, 1).RGBA()
	if r>>8 != 255 || g>>8 != 128 || b != 0 || a>>8 != 255 {
		t.Fatalf("pixel = %d %d %d %d", r>>8, g>>8, b>>8, a>>8)
	}
	if err := SaveColorPNG(path, verts[:3], dims); err == nil {
		t.Fatalf("expected size mismatch error")
	}
}
