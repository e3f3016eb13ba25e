package metadata

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Decompose, drop the combining marks and recompose so "Café" becomes "Cafe".
// Chains aren't safe for concurrent use.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// ASCII folds s to printable ASCII, anything that can't be folded is
// replaced with '?'.
func ASCII(s string) string {
	folded, _, err := transform.String(stripMarks(), s)
	if err != nil {
		folded = s
	}

	b := make([]byte, 0, len(folded))
	for _, r := range folded {
		if r < 0x20 || r > 0x7e {
			r = '?'
		}
		b = append(b, byte(r))
	}
	return string(b)
}

// EncodeName returns the displayed name as stored in a picture file; folded
// to ASCII, truncated or null-padded to NameLength bytes.
func (r Record) EncodeName() [NameLength]byte {
	var b [NameLength]byte
	copy(b[:], ASCII(r.Name))
	return b
}
