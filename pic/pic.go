/*
Package pic implements a DamPBN picture encoder and decoder.

A picture is at most 320 by 200 pixels with up to 64 colors. The file is
written as a 233 byte header; the "DP" magic, the width and height as 16-bit
little endian values, a category byte, a 32 byte null-padded name, the
number of colors, a compression flag and a 64 entry palette where each RGB
component is reduced to 6 bits. This is followed by a 23 byte block that
optionally records that the picture has transparency, and the number of
playable (opaque) pixels. Finally there is one palette index per pixel and,
if the picture has transparency, one mask value per pixel. Both streams are
either stored raw or run-length encoded as indicated by the compression flag.
*/
package pic

import (
	"errors"
	"fmt"
)

const (
	magic           = "DP"
	maxWidth        = 320
	maxHeight       = 200
	maxColors       = 64
	nameLength      = 32
	paletteBytes    = maxColors * 3
	extensionLength = 23
	headerLength    = 2 + 2 + 2 + 1 + nameLength + 1 + 1 + paletteBytes
	fileHeader      = headerLength + extensionLength

	flagRaw = 0
	flagRLE = 1

	transparencyEnabled = 0x01
)

var (
	// ErrTooManyColors is returned when an image still has more than 64
	// colors after quantization
	ErrTooManyColors = errors.New("pic: too many colors")
	// ErrTooLarge is returned in strict mode for images larger than 320x200
	ErrTooLarge = errors.New("pic: image is too large")
	// ErrEmpty is returned if an image has, or is scaled to, no pixels
	ErrEmpty = errors.New("pic: image is empty")
	// ErrFormat is returned when decoding something that isn't a picture
	ErrFormat = errors.New("pic: invalid format")

	errUnknownQuantizer = errors.New("pic: unknown quantizer")
)

// Compression selects how the pixel and alpha streams are stored.
type Compression int

const (
	// SmallerOf run-length encodes only if that is strictly smaller
	SmallerOf Compression = iota
	// Raw always stores uncompressed streams
	Raw
	// RLE always run-length encodes
	RLE
)

var compressionNames = map[Compression]string{
	SmallerOf: "smaller",
	Raw:       "raw",
	RLE:       "rle",
}

func (c Compression) String() string {
	if s, ok := compressionNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// ParseCompression converts the name of a compression mode as returned by
// String back into a Compression.
func ParseCompression(s string) (Compression, error) {
	for k, v := range compressionNames {
		if v == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("pic: unknown compression %q", s)
}

// Options control how an image is converted.
type Options struct {
	Compression Compression
	// Transparency enables the alpha mask
	Transparency bool
	// Strict refuses images larger than 320x200 instead of resizing
	Strict bool
	// Quantizer reduces images to 64 colors, nil uses MedianCut
	Quantizer Quantizer
	// Debug logs each conversion and writes a PNG preview of the result
	// next to the picture
	Debug bool
}

// String returns a stable description of the options that affect the output,
// suitable for use as a cache key.
func (o Options) String() string {
	q := MedianCut
	if o.Quantizer != nil {
		q = o.Quantizer
	}
	return fmt.Sprintf("compression=%s,transparency=%t,strict=%t,quantizer=%s", o.Compression, o.Transparency, o.Strict, q)
}
