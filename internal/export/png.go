// Package export writes terrain buffers out as images.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"terrain-lab/internal/core"
	"terrain-lab/internal/heightmap"
	"terrain-lab/internal/mesh"
)

// HeightImage renders the store as 8-bit grayscale, mapping the reduced
// minimum to 0 and the maximum to 255. A flat store renders black.
func HeightImage(store *heightmap.Store) *image.Gray {
	d := store.Dims()
	img := image.NewGray(image.Rect(0, 0, d.W, d.H))
	cells := store.Cells()
	for y := 0; y < d.H; y++ {
		for x := 0; x < d.W; x++ {
			v := store.Normalize(cells[d.Index(x, y)])
			img.SetGray(x, y, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}
	return img
}

// ColorImage renders the vertex colours of a mesh.
func ColorImage(verts []mesh.Vertex, d core.Dims) (*image.NRGBA, error) {
	if len(verts) != d.Cells() {
		return nil, fmt.Errorf("color image: %d vertices for %dx%d grid", len(verts), d.W, d.H)
	}
	img := image.NewNRGBA(image.Rect(0, 0, d.W, d.H))
	for i, v := range verts {
		x, y := d.Coord(i)
		img.SetNRGBA(x, y, color.NRGBA{
			R: channel(v.Color[0]),
			G: channel(v.Color[1]),
			B: channel(v.Color[2]),
			A: channel(v.Color[3]),
		})
	}
	return img, nil
}

func channel(f float32) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}

// WriteHeightPNG encodes the grayscale heightmap to w.
func WriteHeightPNG(w io.Writer, store *heightmap.Store) error {
	if err := png.Encode(w, HeightImage(store)); err != nil {
		return fmt.Errorf("encode heightmap: %w", err)
	}
	return nil
}

// SaveHeightPNG writes the grayscale heightmap to path, creating parent
// directories as needed.
func SaveHeightPNG(path string, store *heightmap.Store) error {
	return save(path, HeightImage(store))
}

// SaveColorPNG writes the vertex colour map to path.
func SaveColorPNG(path string, verts []mesh.Vertex, d core.Dims) error {
	img, err := ColorImage(verts, d)
	if err != nil {
		return err
	}
	return save(path, img)
}

func save(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encode export: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	return nil
}
