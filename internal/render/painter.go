//go:build ebiten

package render

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Painter uploads a scene's RGBA pixels into a single image and draws it
// scaled.
type Painter struct {
	w, h int
	img  *ebiten.Image
}

// NewPainter allocates a painter for a w*h view.
func NewPainter(w, h int) *Painter {
	return &Painter{w: w, h: h, img: ebiten.NewImage(w, h)}
}

// Blit uploads pixels and draws them onto dst. Mismatched buffers are
// skipped so a resize never tears a frame.
func (p *Painter) Blit(dst *ebiten.Image, pixels []byte, scale int) {
	if len(pixels) != 4*p.w*p.h {
		return
	}
	p.img.WritePixels(pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(p.img, op)
}

// Resize reallocates the image when the view size changes.
func (p *Painter) Resize(w, h int) {
	if w == p.w && h == p.h {
		return
	}
	p.img.Dispose()
	p.w, p.h = w, h
	p.img = ebiten.NewImage(w, h)
}

// Size returns the dimensions of the underlying image.
func (p *Painter) Size() (int, int) { return p.w, p.h }
