/*
Package pcx implements a ZSoft PCX decoder.

Only the variants found in practice are supported; 8 bits per pixel with
either one plane and a 256 color palette appended to the end of the file, or
three planes holding red, green and blue. Scanlines are run-length encoded,
any byte with the top two bits set holds a repeat count in the lower six bits
and is followed by the byte to repeat.
*/
package pcx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"
)

const (
	manufacturer  = 0x0a
	encodingRLE   = 1
	headerSize    = 128
	paletteMarker = 0x0c
	paletteSize   = 256 * 3
	rleMask       = 0xc0
)

var (
	errFormat      = errors.New("pcx: invalid format")
	errUnsupported = errors.New("pcx: unsupported format")
	errNotEnough   = errors.New("pcx: not enough image data")
)

func init() {
	image.RegisterFormat("pcx", "\x0a", Decode, DecodeConfig)
}

type header struct {
	Manufacturer byte
	Version      byte
	Encoding     byte
	BitsPerPixel byte
	XMin, YMin   uint16
	XMax, YMax   uint16
	HDpi, VDpi   uint16
	Colormap     [48]byte
	Reserved     byte
	NumPlanes    byte
	BytesPerLine uint16
	PaletteInfo  uint16
	HScreenSize  uint16
	VScreenSize  uint16
	Filler       [54]byte
}

type decoder struct {
	r io.Reader
	h header

	width, height int
}

func (d *decoder) readHeader() error {
	if err := binary.Read(d.r, binary.LittleEndian, &d.h); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errFormat
		}
		return err
	}

	if d.h.Manufacturer != manufacturer || d.h.Encoding != encodingRLE || d.h.XMax < d.h.XMin || d.h.YMax < d.h.YMin {
		return errFormat
	}

	if d.h.BitsPerPixel != 8 || (d.h.NumPlanes != 1 && d.h.NumPlanes != 3) {
		return errUnsupported
	}

	d.width = int(d.h.XMax-d.h.XMin) + 1
	d.height = int(d.h.YMax-d.h.YMin) + 1

	if int(d.h.BytesPerLine) < d.width {
		return errFormat
	}

	return nil
}

// Read one decoded scanline for every plane into line
func (d *decoder) readLine(br io.ByteReader, line []byte) error {
	for x := 0; x < len(line); {
		b, err := br.ReadByte()
		if err != nil {
			return errNotEnough
		}

		count := 1
		if b&rleMask == rleMask {
			count = int(b &^ rleMask)
			if b, err = br.ReadByte(); err != nil {
				return errNotEnough
			}
		}

		// Runs may cross planes but not scanlines
		for ; count > 0 && x < len(line); count-- {
			line[x] = b
			x++
		}
	}
	return nil
}

func (d *decoder) decode() (image.Image, error) {
	data, err := io.ReadAll(d.r)
	if err != nil {
		return nil, err
	}

	var palette color.Palette
	if d.h.NumPlanes == 1 {
		// The palette is tacked on the end, preceded by a marker
		if len(data) < paletteSize+1 || data[len(data)-paletteSize-1] != paletteMarker {
			return nil, errFormat
		}
		p := data[len(data)-paletteSize:]
		palette = make(color.Palette, 256)
		for i := range palette {
			palette[i] = color.RGBA{p[i*3+0], p[i*3+1], p[i*3+2], 0xff}
		}
		data = data[:len(data)-paletteSize-1]
	}

	r := image.Rect(0, 0, d.width, d.height)
	bpl := int(d.h.BytesPerLine)
	line := make([]byte, bpl*int(d.h.NumPlanes))
	br := bytes.NewReader(data)

	if palette != nil {
		m := image.NewPaletted(r, palette)
		for y := 0; y < d.height; y++ {
			if err := d.readLine(br, line); err != nil {
				return nil, err
			}
			copy(m.Pix[y*m.Stride:], line[:d.width])
		}
		return m, nil
	}

	m := image.NewRGBA(r)
	for y := 0; y < d.height; y++ {
		if err := d.readLine(br, line); err != nil {
			return nil, err
		}
		for x := 0; x < d.width; x++ {
			m.SetRGBA(x, y, color.RGBA{line[x], line[bpl+x], line[bpl*2+x], 0xff})
		}
	}
	return m, nil
}

// Decode reads a PCX image from r and returns it as an image.Image. Single
// plane images are returned as an *image.Paletted.
func Decode(r io.Reader) (image.Image, error) {
	d := decoder{r: r}
	if err := d.readHeader(); err != nil {
		return nil, err
	}
	return d.decode()
}

// DecodeConfig returns the color model and dimensions of a PCX image without
// decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	d := decoder{r: r}
	if err := d.readHeader(); err != nil {
		return image.Config{}, err
	}

	cm := color.RGBAModel
	if d.h.NumPlanes == 1 {
		// The palette isn't known without reading to the end
		cm = color.Palette(nil)
	}

	return image.Config{
		ColorModel: cm,
		Width:      d.width,
		Height:     d.height,
	}, nil
}
