package pic

import (
	"image"
	"image/color"
)

const (
	transparent = 0
	opaque      = 1
)

var white = color.RGBA{0xff, 0xff, 0xff, 0xff}

// Mask holds one value per pixel in row order; 1 for an opaque, playable,
// pixel and 0 for a transparent one.
type Mask []byte

// Playable returns the number of opaque pixels.
func (m Mask) Playable() int {
	var n int
	for _, v := range m {
		if v == opaque {
			n++
		}
	}
	return n
}

func hasAlpha(m image.Image) bool {
	switch m := m.(type) {
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	case *image.Gray, *image.Gray16, *image.YCbCr, *image.CMYK:
		return false
	case interface{ Opaque() bool }:
		return !m.Opaque()
	}
	return true
}

// Flatten pastes m onto an opaque white canvas using its alpha channel as a
// stencil; any pixel that isn't fully transparent keeps its color with no
// blending. If m has an alpha channel the binary mask is also returned,
// otherwise the mask is nil. The returned image has its origin at (0, 0).
func Flatten(m image.Image) (*image.RGBA, Mask) {
	b := m.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	var mask Mask
	if hasAlpha(m) {
		mask = make(Mask, b.Dx()*b.Dy())
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx, dy := x-b.Min.X, y-b.Min.Y

			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			if mask != nil {
				if c.A == 0 {
					dst.SetRGBA(dx, dy, white)
					continue
				}
				mask[dy*b.Dx()+dx] = opaque
			}
			dst.SetRGBA(dx, dy, color.RGBA{c.R, c.G, c.B, 0xff})
		}
	}

	return dst, mask
}
