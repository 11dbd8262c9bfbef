package dxbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderSequentialReads(t *testing.T) {
	r := NewReader([]byte{0x44, 0x58, 0x42, 0x43, 0x01, 0x00, 0x00, 0x00, 0xFF})

	tag, err := r.Tag()
	require.NoError(t, err)
	assert.Equal(t, "DXBC", tag)

	v, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)

	b, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFF), b)
	assert.Equal(t, 0, r.Remaining())
}

func TestReaderEndOfStream(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	_, err := r.U32()
	require.Error(t, err)
	assert.True(t, IsEndOfStream(err))
	// The failed read must not have advanced the cursor.
	assert.Equal(t, 2, r.Remaining())
}

func TestReaderCStringAt(t *testing.T) {
	data := append([]byte{0, 0, 0, 0}, []byte("POSITION\x00TEXCOORD\x00")...)
	r := NewReader(data)

	s, err := r.CStringAt(4)
	require.NoError(t, err)
	assert.Equal(t, "POSITION", s)

	s, err = r.CStringAt(13)
	require.NoError(t, err)
	assert.Equal(t, "TEXCOORD", s)

	_, err = r.CStringAt(len(data))
	assert.True(t, IsEndOfStream(err))
}

func TestReaderCStringAtUnterminated(t *testing.T) {
	r := NewReader([]byte("abc"))
	_, err := r.CStringAt(0)
	assert.True(t, IsEndOfStream(err))
}

func TestTokenReaderTakeSkipPeek(t *testing.T) {
	tr, err := NewTokenReader([]byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Len())

	v, err := tr.Peek()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)
	assert.Equal(t, 0, tr.Pos(), "peek must not consume")

	words, err := tr.Take(2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, words)

	require.NoError(t, tr.Skip(1))
	assert.Equal(t, 0, tr.Remaining())

	_, err = tr.Next()
	assert.True(t, IsEndOfStream(err))
	_, err = tr.Take(1)
	assert.True(t, IsEndOfStream(err))
}

func TestTokenReaderRejectsUnalignedPayload(t *testing.T) {
	_, err := NewTokenReader([]byte{1, 2, 3})
	assert.True(t, IsEndOfStream(err))
}

func TestReadProgramVersion(t *testing.T) {
	// vs_5_0: program type 1 in the high word, major 5, minor 0.
	version := uint32(1)<<16 | 5<<4 | 0
	tr, err := NewTokenReader(u32bytes(version, 2))
	require.NoError(t, err)

	v, length, err := tr.ReadProgramVersion()
	require.NoError(t, err)
	assert.Equal(t, ProgramVertex, v.Type)
	assert.Equal(t, uint8(5), v.Major)
	assert.Equal(t, uint8(0), v.Minor)
	assert.Equal(t, uint32(2), length)
}

func TestMaskHelpers(t *testing.T) {
	m := MaskX | MaskZ
	assert.Equal(t, 2, m.Popcount())
	assert.Equal(t, []int{0, 2}, m.Components())
	assert.True(t, m.Test(0))
	assert.False(t, m.Test(1))
	assert.Equal(t, 4, MaskXYZW.Popcount())
	assert.Equal(t, 0, Mask(0).Popcount())
}

// u32bytes little-endian-encodes words for test payloads.
func u32bytes(words ...uint32) []byte {
	out := make([]byte, 0, len(words)*4)
	for _, w := range words {
		out = append(out, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return out
}
