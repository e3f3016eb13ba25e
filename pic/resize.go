package pic

import (
	"image"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// scaledSize returns the dimensions of a w x h image scaled to fit within
// 320x200, preserving the aspect ratio. Images are never scaled up.
func scaledSize(w, h int) (int, int, bool) {
	ratio := 1.0
	if w > maxWidth {
		ratio = float64(maxWidth) / float64(w)
	}
	if float64(h)*ratio > maxHeight {
		ratio = float64(maxHeight) / float64(h)
	}
	if ratio == 1.0 {
		return w, h, false
	}
	return int(float64(w) * ratio), int(float64(h) * ratio), true
}

// Resize scales m to fit within 320x200. If m already fits it is returned
// unchanged. Paletted images are scaled with nearest neighbour so the palette
// survives, everything else is scaled bilinearly.
func Resize(m image.Image) (image.Image, error) {
	b := m.Bounds()
	w, h, ok := scaledSize(b.Dx(), b.Dy())
	if w == 0 || h == 0 {
		return nil, ErrEmpty
	}
	if !ok {
		return m, nil
	}

	if pm, ok := m.(*image.Paletted); ok {
		dst := image.NewPaletted(image.Rect(0, 0, w, h), pm.Palette)
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), pm, b, draw.Src, nil)
		return dst, nil
	}

	return resize.Resize(uint(w), uint(h), m, resize.Bilinear), nil
}

// CheckSize returns ErrTooLarge if m doesn't fit within 320x200 without
// resizing.
func CheckSize(m image.Image) error {
	b := m.Bounds()
	if b.Empty() {
		return ErrEmpty
	}
	if b.Dx() > maxWidth || b.Dy() > maxHeight {
		return ErrTooLarge
	}
	return nil
}
