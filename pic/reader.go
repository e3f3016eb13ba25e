package pic

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"io"

	"github.com/bodgit/dampbn/rle"
)

func init() {
	image.RegisterFormat("pic", magic, Decode, DecodeConfig)
}

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Expand a 6-bit component back to 8 bits
func expand(c byte) uint8 {
	return c<<2 | c>>4
}

type decoder struct {
	r io.Reader

	asset Asset

	tmp [fileHeader]byte
}

func (d *decoder) readHeader() error {
	if err := readFull(d.r, d.tmp[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return ErrFormat
		}
		return err
	}

	if string(d.tmp[:2]) != magic {
		return ErrFormat
	}

	a := &d.asset
	a.Width = int(binary.LittleEndian.Uint16(d.tmp[2:]))
	a.Height = int(binary.LittleEndian.Uint16(d.tmp[4:]))
	a.Category = d.tmp[6]
	copy(a.Name[:], d.tmp[7:7+nameLength])
	a.Colors = int(d.tmp[39])

	switch d.tmp[40] {
	case flagRaw:
	case flagRLE:
		a.Compressed = true
	default:
		return ErrFormat
	}

	a.Palette = make(color.Palette, maxColors)
	for i := range a.Palette {
		p := d.tmp[41+i*3:]
		a.Palette[i] = color.RGBA{expand(p[0]), expand(p[1]), expand(p[2]), 0xff}
	}

	return nil
}

func (d *decoder) readStreams() error {
	a := &d.asset
	n := a.Width * a.Height

	b, err := io.ReadAll(d.r)
	if err != nil {
		return err
	}

	streams := 1
	if d.tmp[headerLength] == transparencyEnabled {
		streams++
	}

	out := make([][]byte, 0, streams)
	for i := 0; i < streams; i++ {
		var s []byte
		if a.Compressed {
			var used int
			if s, used, err = rle.DecodeN(b, n); err != nil {
				return ErrFormat
			}
			b = b[used:]
		} else {
			if len(b) < n {
				return ErrFormat
			}
			s, b = b[:n], b[n:]
		}
		out = append(out, s)
	}

	if len(b) != 0 {
		return ErrFormat
	}

	a.Pixels = out[0]
	if streams > 1 {
		a.Mask = Mask(out[1])
		if binary.LittleEndian.Uint16(d.tmp[headerLength+1:]) != uint16(a.Mask.Playable()) {
			return ErrFormat
		}
	}

	for _, v := range a.Pixels {
		if v >= maxColors {
			return ErrFormat
		}
	}

	return nil
}

func (d *decoder) decode(r io.Reader, configOnly bool) error {
	d.r = r

	if err := d.readHeader(); err != nil {
		return err
	}

	if configOnly {
		return nil
	}

	return d.readStreams()
}

// DecodeAsset reads a DamPBN picture from r.
func DecodeAsset(r io.Reader) (*Asset, error) {
	var d decoder
	if err := d.decode(r, false); err != nil {
		return nil, err
	}
	return &d.asset, nil
}

// Decode reads a DamPBN picture from r and returns it as an image.Image.
func Decode(r io.Reader) (image.Image, error) {
	a, err := DecodeAsset(r)
	if err != nil {
		return nil, err
	}
	return a.Image(), nil
}

// DecodeConfig returns the color model and dimensions of a DamPBN picture
// without decoding the entire picture.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return image.Config{}, err
	}

	var cm color.Model = d.asset.Palette
	if d.tmp[headerLength] == transparencyEnabled {
		cm = color.NRGBAModel
	}

	return image.Config{
		ColorModel: cm,
		Width:      d.asset.Width,
		Height:     d.asset.Height,
	}, nil
}

// DisplayName returns the displayed name with any padding removed.
func (a *Asset) DisplayName() string {
	if i := bytes.IndexByte(a.Name[:], 0); i >= 0 {
		return string(a.Name[:i])
	}
	return string(a.Name[:])
}
