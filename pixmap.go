package main

import (
	"fmt"
	"image"
	"image/draw"
)

// Pixmap is a deinterleaved 8-bit raster: three channel planes of W*H
// samples each, indexed plane[y*W+x], ordered red, green, blue. The codec
// mutates planes in place, so every call that must not touch its input
// works on a Clone.
type Pixmap struct {
	W, H   int
	Planes [3][]uint8
}

// NewPixmap allocates an all-zero raster.
func NewPixmap(w, h int) *Pixmap {
	pm := &Pixmap{W: w, H: h}
	for i := range pm.Planes {
		pm.Planes[i] = make([]uint8, w*h)
	}
	return pm
}

// Clone copies the raster, planes included.
func (p *Pixmap) Clone() *Pixmap {
	out := &Pixmap{W: p.W, H: p.H}
	for i := range p.Planes {
		out.Planes[i] = make([]uint8, len(p.Planes[i]))
		copy(out.Planes[i], p.Planes[i])
	}
	return out
}

func (p *Pixmap) validate() error {
	if p == nil || p.W <= 0 || p.H <= 0 {
		return fmt.Errorf("empty raster: %w", ErrInvalidImage)
	}
	for i := range p.Planes {
		if len(p.Planes[i]) != p.W*p.H {
			return fmt.Errorf("plane %d holds %d samples, want %d: %w",
				i, len(p.Planes[i]), p.W*p.H, ErrInvalidImage)
		}
	}
	return nil
}

// ImageToRGBA copies any image.Image into an *image.RGBA with bounds starting at (0,0).
func ImageToRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// FromImage deinterleaves src into channel planes. *image.RGBA sources are
// walked directly; everything else is drawn into an RGBA raster first.
func FromImage(src image.Image) *Pixmap {
	rgba, ok := src.(*image.RGBA)
	if !ok {
		rgba = ImageToRGBA(src)
	}
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()
	pm := NewPixmap(w, h)
	for y := 0; y < h; y++ {
		row := rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			o := x * 4
			i := y*w + x
			pm.Planes[0][i] = row[o]
			pm.Planes[1][i] = row[o+1]
			pm.Planes[2][i] = row[o+2]
		}
	}
	return pm
}

// Image reinterleaves the planes into an opaque RGBA raster.
func (p *Pixmap) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.W, p.H))
	for y := 0; y < p.H; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < p.W; x++ {
			o := x * 4
			i := y*p.W + x
			row[o] = p.Planes[0][i]
			row[o+1] = p.Planes[1][i]
			row[o+2] = p.Planes[2][i]
			row[o+3] = 0xFF
		}
	}
	return img
}
