/*
Package rle implements the run-length encoding used by DamPBN picture files.

A run of two or more identical bytes is written as the byte value with the
most significant bit set followed by the repeat count, a run is capped at 255
repeats and longer runs continue with a new pair. A byte that is not repeated
is written as-is.

The scheme cannot represent a lone byte with its most significant bit set; on
decode such a byte is indistinguishable from the start of a repeat pair. The
encoder is only ever fed palette indices (0-63) or alpha mask values (0/1) so
this never happens in practice, Encode does not escape such values and Valid
can be used to check that a stream round-trips.
*/
package rle

import "errors"

const (
	repeatFlag = 0x80
	maxRun     = 0xff
)

var (
	errTruncated = errors.New("rle: truncated repeat pair")
	errShort     = errors.New("rle: not enough data")
	errOverrun   = errors.New("rle: run overruns expected length")
)

// Encode returns the run-length encoded form of b.
func Encode(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]

		n := 1
		for i+n < len(b) && b[i+n] == c && n < maxRun {
			n++
		}

		if n > 1 {
			out = append(out, c|repeatFlag, byte(n))
		} else {
			out = append(out, c)
		}
		i += n
	}
	return out
}

// EncodedLen returns the length of Encode(b) without allocating.
func EncodedLen(b []byte) int {
	var length int
	for i := 0; i < len(b); {
		n := 1
		for i+n < len(b) && b[i+n] == b[i] && n < maxRun {
			n++
		}
		if n > 1 {
			length += 2
		} else {
			length++
		}
		i += n
	}
	return length
}

// Decode expands b. Any byte with the most significant bit set is treated as
// a repeat pair.
func Decode(b []byte) ([]byte, error) {
	out := make([]byte, 0, len(b)*2)
	for i := 0; i < len(b); i++ {
		if b[i]&repeatFlag == 0 {
			out = append(out, b[i])
			continue
		}
		if i+1 >= len(b) {
			return nil, errTruncated
		}
		c, n := b[i]&^repeatFlag, int(b[i+1])
		for j := 0; j < n; j++ {
			out = append(out, c)
		}
		i++
	}
	return out, nil
}

// DecodeN expands exactly n bytes from the start of b, returning them along
// with the number of bytes of b that were consumed. This allows for several
// streams to be stored back to back.
func DecodeN(b []byte, n int) ([]byte, int, error) {
	out := make([]byte, 0, n)
	i := 0
	for len(out) < n {
		if i >= len(b) {
			return nil, 0, errShort
		}
		if b[i]&repeatFlag == 0 {
			out = append(out, b[i])
			i++
			continue
		}
		if i+1 >= len(b) {
			return nil, 0, errTruncated
		}
		c, count := b[i]&^repeatFlag, int(b[i+1])
		if len(out)+count > n {
			return nil, 0, errOverrun
		}
		for j := 0; j < count; j++ {
			out = append(out, c)
		}
		i += 2
	}
	return out, i, nil
}

// Valid reports whether every byte in b can be encoded unambiguously, that is
// no byte has the most significant bit set.
func Valid(b []byte) bool {
	for _, c := range b {
		if c&repeatFlag != 0 {
			return false
		}
	}
	return true
}
