package rle

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tables := map[string]struct {
		in, out []byte
	}{
		"empty": {
			[]byte{},
			[]byte{},
		},
		"literals": {
			[]byte{1, 2, 3},
			[]byte{1, 2, 3},
		},
		"run": {
			[]byte{5, 5, 5, 5},
			[]byte{0x85, 4},
		},
		"mixed": {
			[]byte{0, 0, 1, 2, 2, 2, 3},
			[]byte{0x80, 2, 1, 0x82, 3, 3},
		},
		"exactly 255": {
			bytes.Repeat([]byte{7}, 255),
			[]byte{0x87, 255},
		},
		"256 leaves a literal": {
			bytes.Repeat([]byte{7}, 256),
			[]byte{0x87, 255, 7},
		},
		"300": {
			bytes.Repeat([]byte{9}, 300),
			[]byte{0x89, 255, 0x89, 45},
		},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			out := Encode(table.in)
			assert.Equal(t, table.out, out)
			assert.Equal(t, len(table.out), EncodedLen(table.in))
		})
	}
}

func TestLongRuns(t *testing.T) {
	for _, l := range []int{510, 511, 765, 1000, 64000} {
		out := Encode(bytes.Repeat([]byte{0x3f}, l))

		blocks := (l + maxRun - 1) / maxRun
		remaining := l
		for i := 0; i < blocks; i++ {
			n := remaining
			if n > maxRun {
				n = maxRun
			}
			if n == 1 {
				assert.Equal(t, byte(0x3f), out[0])
				out = out[1:]
			} else {
				require.True(t, len(out) >= 2)
				assert.Equal(t, []byte{0xbf, byte(n)}, out[:2])
				out = out[2:]
			}
			remaining -= n
		}
		assert.Len(t, out, 0)
	}
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		in := make([]byte, r.Intn(2000))
		for j := range in {
			// Favour runs so the repeat path gets exercised
			if j > 0 && r.Intn(4) > 0 {
				in[j] = in[j-1]
				continue
			}
			in[j] = byte(r.Intn(64))
		}
		require.True(t, Valid(in))

		out, err := Decode(Encode(in))
		require.Nil(t, err)
		assert.Equal(t, in, out)
	}
}

func TestAmbiguousLiteral(t *testing.T) {
	in := []byte{0x90, 1}
	assert.False(t, Valid(in))

	// A lone 0x90 is read back as a repeat marker
	out, err := Decode(Encode(in))
	require.Nil(t, err)
	assert.NotEqual(t, in, out)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode([]byte{1, 0x82})
	assert.Equal(t, errTruncated, err)
}

func TestDecodeN(t *testing.T) {
	first := []byte{1, 1, 1, 2, 3, 3}
	second := []byte{0, 0, 0, 0, 1}
	b := append(Encode(first), Encode(second)...)

	out, n, err := DecodeN(b, len(first))
	require.Nil(t, err)
	assert.Equal(t, first, out)

	out, m, err := DecodeN(b[n:], len(second))
	require.Nil(t, err)
	assert.Equal(t, second, out)
	assert.Equal(t, len(b), n+m)

	_, _, err = DecodeN(b, len(first)+len(second)+1)
	assert.Equal(t, errShort, err)

	_, _, err = DecodeN(Encode([]byte{4, 4, 4}), 2)
	assert.Equal(t, errOverrun, err)
}
