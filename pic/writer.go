package pic

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"io"

	"github.com/bodgit/dampbn/metadata"
	"github.com/bodgit/dampbn/rle"
)

// Asset is a fully converted picture ready to be written.
type Asset struct {
	Width    int
	Height   int
	Category uint8
	Name     [nameLength]byte
	// Colors is the number of distinct colors in use, which may be fewer
	// than the number of palette entries
	Colors  int
	Palette color.Palette
	// Pixels holds one palette index per pixel in row order
	Pixels []byte
	// Mask is nil unless the picture has transparency
	Mask       Mask
	Compressed bool
}

func pixels(m *image.Paletted) []byte {
	b := m.Bounds()
	pix := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := m.PixOffset(b.Min.X, y)
		pix = append(pix, m.Pix[i:i+b.Dx()]...)
	}
	return pix
}

func useRLE(c Compression, raw []byte) bool {
	switch c {
	case RLE:
		return true
	case SmallerOf:
		// One byte per pixel so the raw length is the pixel count
		return rle.EncodedLen(raw) < len(raw)
	default:
		return false
	}
}

// NewAsset converts m into a picture. The image is resized to fit, or
// rejected in strict mode, then reduced to at most 64 colors. If transparency
// is enabled and m has an alpha channel then the mask is kept.
func NewAsset(m image.Image, r metadata.Record, o *Options) (*Asset, error) {
	if o == nil {
		o = &Options{}
	}

	var err error
	if o.Strict {
		err = CheckSize(m)
	} else {
		m, err = Resize(m)
	}
	if err != nil {
		return nil, err
	}

	// Opaque paletted images keep their palette, anything else is pasted
	// onto white first
	var mask Mask
	if _, ok := m.(*image.Paletted); !ok || o.Transparency || hasAlpha(m) {
		m, mask = Flatten(m)
	}

	pm, colors, err := Quantize(m, o.Quantizer)
	if err != nil {
		return nil, err
	}

	a := &Asset{
		Width:    pm.Bounds().Dx(),
		Height:   pm.Bounds().Dy(),
		Category: r.Category,
		Name:     r.EncodeName(),
		Colors:   colors,
		Palette:  pm.Palette,
		Pixels:   pixels(pm),
	}

	if o.Transparency && mask != nil {
		var ok bool
		a.Palette, a.Pixels, a.Colors, ok = normalizeTransparency(a.Palette, a.Pixels, mask, a.Colors)
		if ok {
			a.Mask = mask
		}
	}

	if a.Colors > maxColors {
		return nil, ErrTooManyColors
	}

	a.Compressed = useRLE(o.Compression, a.Pixels)

	return a, nil
}

// Transparent returns true if the picture has an alpha mask.
func (a *Asset) Transparent() bool {
	return a.Mask != nil
}

// Image returns the picture as an image.Image. Pictures with transparency are
// returned as an *image.NRGBA, otherwise an *image.Paletted.
func (a *Asset) Image() image.Image {
	r := image.Rect(0, 0, a.Width, a.Height)

	p := a.Palette
	if len(p) == 0 {
		p = color.Palette{color.RGBA{}}
	}

	pm := image.NewPaletted(r, p)
	copy(pm.Pix, a.Pixels)
	if a.Mask == nil {
		return pm
	}

	m := image.NewNRGBA(r)
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			if a.Mask[y*a.Width+x] == opaque {
				m.Set(x, y, pm.At(x, y))
			}
		}
	}
	return m
}

// MarshalBinary encodes the picture into binary form and returns the result.
func (a *Asset) MarshalBinary() ([]byte, error) {
	if a.Width > 0xffff || a.Height > 0xffff {
		return nil, ErrTooLarge
	}
	if len(a.Pixels) != a.Width*a.Height || (a.Mask != nil && len(a.Mask) != len(a.Pixels)) {
		return nil, ErrFormat
	}

	b := new(bytes.Buffer)
	b.Grow(fileHeader + len(a.Pixels)*2)

	b.WriteString(magic)
	for _, v := range []uint16{uint16(a.Width), uint16(a.Height)} {
		if err := binary.Write(b, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	b.WriteByte(a.Category)
	b.Write(a.Name[:])
	b.WriteByte(uint8(a.Colors))

	if a.Compressed {
		b.WriteByte(flagRLE)
	} else {
		b.WriteByte(flagRaw)
	}

	// Components are reduced to 6 bits, unused entries are left as zero
	var palette [paletteBytes]byte
	for i, c := range a.Palette {
		if i >= maxColors {
			break
		}
		r, g, bl, _ := c.RGBA()
		palette[i*3+0] = uint8(r >> 10)
		palette[i*3+1] = uint8(g >> 10)
		palette[i*3+2] = uint8(bl >> 10)
	}
	b.Write(palette[:])

	var extension [extensionLength]byte
	if a.Mask != nil {
		playable := a.Mask.Playable()
		if playable > 0xffff {
			return nil, ErrTooLarge
		}
		extension[0] = transparencyEnabled
		binary.LittleEndian.PutUint16(extension[1:], uint16(playable))
	}
	b.Write(extension[:])

	streams := [][]byte{a.Pixels}
	if a.Mask != nil {
		streams = append(streams, a.Mask)
	}
	for _, s := range streams {
		if a.Compressed {
			s = rle.Encode(s)
		}
		b.Write(s)
	}

	return b.Bytes(), nil
}

// Encode writes the Image m to w in DamPBN picture format. The whole picture
// is built in memory first so nothing is written if conversion fails.
func Encode(w io.Writer, m image.Image, r metadata.Record, o *Options) error {
	a, err := NewAsset(m, r, o)
	if err != nil {
		return err
	}

	b, err := a.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}
