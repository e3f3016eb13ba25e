package pic

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	m := image.NewNRGBA(image.Rect(10, 10, 12, 12))
	m.SetNRGBA(10, 10, color.NRGBA{0x10, 0x20, 0x30, 0x00})
	m.SetNRGBA(11, 10, color.NRGBA{0x10, 0x20, 0x30, 0x80})
	m.SetNRGBA(10, 11, color.NRGBA{0x40, 0x50, 0x60, 0xff})
	m.SetNRGBA(11, 11, color.NRGBA{0x00, 0x00, 0x00, 0x01})

	dst, mask := Flatten(m)

	assert.Equal(t, image.Rect(0, 0, 2, 2), dst.Bounds())
	assert.Equal(t, Mask{0, 1, 1, 1}, mask)
	assert.Equal(t, 3, mask.Playable())

	assert.Equal(t, white, dst.RGBAAt(0, 0))
	// No blending, partially transparent pixels keep their color
	assert.Equal(t, color.RGBA{0x10, 0x20, 0x30, 0xff}, dst.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{0x40, 0x50, 0x60, 0xff}, dst.RGBAAt(0, 1))
	assert.Equal(t, color.RGBA{0x00, 0x00, 0x00, 0xff}, dst.RGBAAt(1, 1))
}

func TestFlattenOpaque(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range m.Pix {
		m.Pix[i] = 0xff
	}

	dst, mask := Flatten(m)
	assert.Nil(t, mask)
	assert.Equal(t, m.Pix, dst.Pix)
}

func TestFlattenPaletted(t *testing.T) {
	p := color.Palette{color.NRGBA{0, 0, 0, 0}, color.NRGBA{0xff, 0, 0, 0xff}}
	m := image.NewPaletted(image.Rect(0, 0, 2, 1), p)
	m.SetColorIndex(1, 0, 1)

	dst, mask := Flatten(m)
	assert.Equal(t, Mask{0, 1}, mask)
	assert.Equal(t, white, dst.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, dst.RGBAAt(1, 0))

	p[0] = color.NRGBA{0, 0xff, 0, 0xff}
	_, mask = Flatten(m)
	assert.Nil(t, mask)
}
