package pic

import "image/color"

func whiteIndex(p color.Palette) int {
	for i, c := range p {
		if rgb(c) == [3]uint8{0xff, 0xff, 0xff} {
			return i
		}
	}
	return -1
}

// removeColor returns a copy of p and pixels with palette entry i removed.
// Later entries move down one slot leaving a zero entry at the end and any
// pixel referencing a later entry is adjusted to match.
func removeColor(p color.Palette, pixels []byte, i int) (color.Palette, []byte) {
	np := make(color.Palette, 0, len(p))
	np = append(np, p[:i]...)
	np = append(np, p[i+1:]...)
	np = append(np, color.RGBA{})

	npix := make([]byte, len(pixels))
	for j, v := range pixels {
		if int(v) > i {
			v--
		}
		npix[j] = v
	}

	return np, npix
}

// normalizeTransparency stops the white used to fill transparent areas from
// taking up a palette slot. If no opaque pixel is white then the white entry
// is removed and the color count reduced by one. If there is no white in the
// palette at all then there is nothing to tell apart and false is returned,
// meaning the picture should be stored without transparency.
func normalizeTransparency(p color.Palette, pixels []byte, mask Mask, colors int) (color.Palette, []byte, int, bool) {
	white := whiteIndex(p)
	if white < 0 {
		return p, pixels, colors, false
	}

	for i, v := range pixels {
		if mask[i] == opaque && int(v) == white {
			return p, pixels, colors, true
		}
	}

	np, npix := removeColor(p, pixels, white)
	return np, npix, colors - 1, true
}
