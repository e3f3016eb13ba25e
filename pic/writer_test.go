package pic

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/bodgit/dampbn/metadata"
	"github.com/bodgit/dampbn/rle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, m image.Image, r metadata.Record, o *Options) []byte {
	t.Helper()
	b := new(bytes.Buffer)
	require.Nil(t, Encode(b, m, r, o))
	return b.Bytes()
}

func TestEncodeHeader(t *testing.T) {
	b := encode(t, stripes(400, 50), metadata.Record{Name: "Stripes", Category: 7}, &Options{Compression: SmallerOf})

	require.True(t, len(b) > fileHeader)
	assert.Equal(t, []byte("DP"), b[0:2])
	assert.Equal(t, uint16(320), binary.LittleEndian.Uint16(b[2:]))
	assert.Equal(t, uint16(40), binary.LittleEndian.Uint16(b[4:]))
	assert.Equal(t, byte(7), b[6])
	assert.Equal(t, append([]byte("Stripes"), make([]byte, nameLength-7)...), b[7:39])

	// Bilinear scaling blends neighbouring stripes so the count is only
	// bounded here, TestEncodeColorCount checks the exact count unscaled
	colors := int(b[39])
	assert.True(t, colors >= len(testColors) && colors <= maxColors)

	// The transparency block is empty
	assert.Equal(t, make([]byte, extensionLength), b[headerLength:fileHeader])

	a, err := DecodeAsset(bytes.NewReader(b))
	require.Nil(t, err)
	assert.Equal(t, rle.EncodedLen(a.Pixels) < len(a.Pixels), b[40] == flagRLE)
	assert.Equal(t, 320*40, len(a.Pixels))
}

func TestEncodeColorCount(t *testing.T) {
	b := encode(t, stripes(320, 40), metadata.Default, &Options{Compression: SmallerOf})

	assert.Equal(t, byte(len(testColors)), b[39])
	// Ten wide stripes compress well
	assert.Equal(t, byte(flagRLE), b[40])

	// Unused palette entries are zero
	assert.Equal(t, make([]byte, (maxColors-len(testColors))*3), b[41+len(testColors)*3:headerLength])

	for i := 0; i < len(testColors); i++ {
		for j := 0; j < 3; j++ {
			assert.LessOrEqual(t, b[41+i*3+j], byte(63))
		}
	}
}

func TestEncodeCompression(t *testing.T) {
	// Every pixel differs from its neighbour so RLE can't win
	m := image.NewRGBA(image.Rect(0, 0, 16, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 16; x++ {
			m.SetRGBA(x, y, testColors[(x+y)%2])
		}
	}

	tables := map[Compression]byte{
		Raw:       flagRaw,
		RLE:       flagRLE,
		SmallerOf: flagRaw,
	}

	for c, flag := range tables {
		t.Run(c.String(), func(t *testing.T) {
			b := encode(t, m, metadata.Default, &Options{Compression: c})
			assert.Equal(t, flag, b[40])
			if flag == flagRaw {
				assert.Len(t, b, fileHeader+16*4)
			}

			a, err := DecodeAsset(bytes.NewReader(b))
			require.Nil(t, err)
			assert.Len(t, a.Pixels, 16*4)
		})
	}
}

func transparentImage() *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 10; x < 20; x++ {
			c := color.NRGBA{0xff, 0x00, 0x00, 0xff}
			if y >= 5 {
				c = color.NRGBA{0x00, 0x00, 0xff, 0xff}
			}
			m.SetNRGBA(x, y, c)
		}
	}
	return m
}

func TestEncodeTransparency(t *testing.T) {
	for _, c := range []Compression{Raw, RLE} {
		t.Run(c.String(), func(t *testing.T) {
			b := encode(t, transparentImage(), metadata.Default, &Options{Compression: c, Transparency: true})

			// White only fills the transparent half so it is dropped
			assert.Equal(t, byte(2), b[39])

			assert.Equal(t, byte(transparencyEnabled), b[headerLength])
			assert.Equal(t, uint16(100), binary.LittleEndian.Uint16(b[headerLength+1:]))
			assert.Equal(t, make([]byte, 20), b[headerLength+3:fileHeader])

			if c == Raw {
				require.Len(t, b, fileHeader+200*2)
				mask := b[fileHeader+200:]
				for y := 0; y < 10; y++ {
					for x := 0; x < 20; x++ {
						assert.Equal(t, byte(x/10), mask[y*20+x])
					}
				}
			}

			a, err := DecodeAsset(bytes.NewReader(b))
			require.Nil(t, err)
			require.True(t, a.Transparent())
			assert.Equal(t, 100, a.Mask.Playable())

			m := a.Image()
			_, _, _, alpha := m.At(0, 0).RGBA()
			assert.Equal(t, uint32(0), alpha)
			assert.Equal(t, [3]uint8{0xff, 0, 0}, rgb(m.At(15, 0)))
			assert.Equal(t, [3]uint8{0, 0, 0xff}, rgb(m.At(15, 9)))
		})
	}
}

func TestEncodeTransparencyOff(t *testing.T) {
	b := encode(t, transparentImage(), metadata.Default, &Options{Compression: Raw})

	// White is a real color without transparency
	assert.Equal(t, byte(3), b[39])
	assert.Equal(t, make([]byte, extensionLength), b[headerLength:fileHeader])
	assert.Len(t, b, fileHeader+200)
}

func TestEncodeTransparencyOpaqueSource(t *testing.T) {
	b := encode(t, stripes(32, 4), metadata.Default, &Options{Transparency: true})
	assert.Equal(t, make([]byte, extensionLength), b[headerLength:fileHeader])
}

func TestEncodePalettedTransparencyOff(t *testing.T) {
	red := color.RGBA{0xff, 0x00, 0x00, 0xff}
	m := image.NewPaletted(image.Rect(0, 0, 4, 1), color.Palette{color.RGBA{}, red})
	m.Pix = []byte{1, 0, 0, 0}

	b := encode(t, m, metadata.Default, &Options{Compression: Raw})
	assert.Equal(t, make([]byte, extensionLength), b[headerLength:fileHeader])

	a, err := DecodeAsset(bytes.NewReader(b))
	require.Nil(t, err)
	require.Len(t, a.Pixels, 4)

	// Transparent pixels are pasted onto white
	for _, i := range a.Pixels[1:] {
		assert.Equal(t, []byte{63, 63, 63}, b[41+int(i)*3:44+int(i)*3])
	}
	assert.Equal(t, []byte{63, 0, 0}, b[41+int(a.Pixels[0])*3:44+int(a.Pixels[0])*3])
}

func TestMarshalBinaryTooManyPlayable(t *testing.T) {
	a := &Asset{
		Width:   300,
		Height:  300,
		Colors:  1,
		Palette: color.Palette{white},
		Pixels:  make([]byte, 300*300),
		Mask:    bytes.Repeat([]byte{opaque}, 300*300),
	}
	_, err := a.MarshalBinary()
	assert.Equal(t, ErrTooLarge, err)
}

func TestEncodeStrict(t *testing.T) {
	err := Encode(new(bytes.Buffer), stripes(400, 50), metadata.Default, &Options{Strict: true})
	assert.Equal(t, ErrTooLarge, err)

	b := encode(t, stripes(320, 200), metadata.Default, &Options{Strict: true})
	assert.Equal(t, uint16(200), binary.LittleEndian.Uint16(b[4:]))
}

func TestEncodeNothingWrittenOnError(t *testing.T) {
	b := new(bytes.Buffer)
	err := Encode(b, stripes(32, 4), metadata.Default, &Options{Quantizer: wideQuantizer{}})
	assert.Equal(t, ErrTooManyColors, err)
	assert.Equal(t, 0, b.Len())
}

func TestOptionsString(t *testing.T) {
	assert.Equal(t, "compression=smaller,transparency=false,strict=false,quantizer=mediancut", Options{}.String())
	assert.Equal(t, "compression=rle,transparency=true,strict=true,quantizer=nodither", Options{
		Compression:  RLE,
		Transparency: true,
		Strict:       true,
		Quantizer:    NoDither,
	}.String())
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{SmallerOf, Raw, RLE} {
		p, err := ParseCompression(c.String())
		require.Nil(t, err)
		assert.Equal(t, c, p)
	}

	_, err := ParseCompression("lzw")
	assert.NotNil(t, err)
}
