package pic

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/esimov/colorquant"
)

// Quantizer reduces an image to a palette of at most n colors.
type Quantizer interface {
	Quantize(m image.Image, n int) *image.Paletted
	String() string
}

type medianCut struct{}

func (medianCut) Quantize(m image.Image, n int) *image.Paletted {
	b := m.Bounds()
	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, n), m))
	draw.FloydSteinberg.Draw(pm, b, m, b.Min)
	return pm
}

func (medianCut) String() string {
	return "mediancut"
}

type noDither struct{}

func (noDither) Quantize(m image.Image, n int) *image.Paletted {
	pm := image.NewPaletted(m.Bounds(), palette.WebSafe)
	var qm image.Image = colorquant.NoDither.Quantize(m, pm, n, false, true)
	if qm, ok := qm.(*image.Paletted); ok {
		pm = qm
	}
	// Only keep the colors actually used
	return compact(pm)
}

func (noDither) String() string {
	return "nodither"
}

var (
	// MedianCut generates the palette with median cut and then applies
	// Floyd-Steinberg error diffusion against it
	MedianCut Quantizer = medianCut{}
	// NoDither maps each pixel to the nearest palette color without any
	// dithering
	NoDither Quantizer = noDither{}
)

// ParseQuantizer returns the Quantizer with the given name.
func ParseQuantizer(s string) (Quantizer, error) {
	for _, q := range []Quantizer{MedianCut, NoDither} {
		if q.String() == s {
			return q, nil
		}
	}
	return nil, errUnknownQuantizer
}

func rgb(c color.Color) [3]uint8 {
	r, g, b, _ := c.RGBA()
	return [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

// UsedColors returns the number of distinct colors in p, ignoring alpha. If
// there are more than 64 and one of them is black it is not counted, it's
// most likely padding.
func UsedColors(p color.Palette) int {
	unique := make(map[[3]uint8]struct{})
	for _, c := range p {
		unique[rgb(c)] = struct{}{}
	}
	if _, ok := unique[[3]uint8{}]; ok && len(unique) > maxColors {
		delete(unique, [3]uint8{})
	}
	return len(unique)
}

// Copy of m with its origin at (0, 0) and the stride equal to the width
func clonePaletted(m *image.Paletted) *image.Paletted {
	b := m.Bounds()
	dup := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), append(color.Palette(nil), m.Palette...))
	for y := 0; y < b.Dy(); y++ {
		copy(dup.Pix[y*dup.Stride:(y+1)*dup.Stride], m.Pix[m.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return dup
}

// Drop palette entries that aren't referenced by any pixel
func compact(m *image.Paletted) *image.Paletted {
	m = clonePaletted(m)

	remap := make(map[uint8]uint8)
	var p color.Palette
	for i, v := range m.Pix {
		n, ok := remap[v]
		if !ok {
			n = uint8(len(p))
			remap[v] = n
			p = append(p, m.Palette[v])
		}
		m.Pix[i] = n
	}
	m.Palette = p
	return m
}

// The palette an image arrived with, if it fits
func existingPalette(m image.Image) (*image.Paletted, bool) {
	pm, ok := m.(*image.Paletted)
	if !ok || UsedColors(pm.Palette) > maxColors {
		return nil, false
	}
	pm = clonePaletted(pm)
	for _, v := range pm.Pix {
		if v >= maxColors {
			return nil, false
		}
	}
	return pm, true
}

// Quantize reduces m to no more than 64 colors and returns it along with the
// number of distinct colors in its palette. An image that already has a
// small enough palette is kept as-is. ErrTooManyColors is returned if there
// are still too many colors afterwards.
func Quantize(m image.Image, q Quantizer) (*image.Paletted, int, error) {
	if pm, ok := existingPalette(m); ok {
		return pm, UsedColors(pm.Palette), nil
	}

	if q == nil {
		q = MedianCut
	}

	pm := clonePaletted(q.Quantize(m, maxColors))
	if n := UsedColors(pm.Palette); n <= maxColors && len(pm.Palette) <= maxColors {
		return pm, n, nil
	}

	return nil, 0, ErrTooManyColors
}
