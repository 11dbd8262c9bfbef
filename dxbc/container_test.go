package dxbc

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildContainer assembles a DXBC container from (tag, payload) pairs,
// computing the chunk offset table the way fxc lays containers out.
func buildContainer(chunks ...Chunk) []byte {
	headerSize := 4 + 16 + 4 + 4 + 4 + 4*len(chunks)
	total := headerSize
	for _, ch := range chunks {
		total += 8 + len(ch.Payload)
	}

	buf := make([]byte, 0, total)
	buf = append(buf, "DXBC"...)
	buf = append(buf, make([]byte, 16)...) // checksum, not validated
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(total))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(chunks)))

	offset := headerSize
	for _, ch := range chunks {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(offset))
		offset += 8 + len(ch.Payload)
	}
	for _, ch := range chunks {
		buf = append(buf, ch.Tag...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ch.Payload)))
		buf = append(buf, ch.Payload...)
	}
	return buf
}

// minimalShaderChunk is a vs_4_0 version token plus a ret instruction.
func minimalShaderChunk() []byte {
	version := uint32(1)<<16 | 4<<4
	ret := uint32(OpRet) | 1<<24
	return u32bytes(version, 3, ret)
}

func TestParseContainer(t *testing.T) {
	data := buildContainer(
		Chunk{Tag: "ISGN", Payload: signaturePayload(t)},
		Chunk{Tag: TagSHEX, Payload: minimalShaderChunk()},
	)
	c, err := ParseContainer(data)
	require.NoError(t, err)
	assert.Len(t, c.Chunks, 2)

	tag, payload, ok := c.ShaderChunk()
	require.True(t, ok)
	assert.Equal(t, TagSHEX, tag)
	assert.Equal(t, minimalShaderChunk(), payload)
}

func TestParseContainerBadMagic(t *testing.T) {
	data := buildContainer(Chunk{Tag: TagSHEX, Payload: minimalShaderChunk()})
	copy(data, "NOPE")
	_, err := ParseContainer(data)
	require.Error(t, err)
	e, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrBadMagic, e.Kind)
}

func TestParseContainerMissingShaderChunk(t *testing.T) {
	data := buildContainer(Chunk{Tag: "ISGN", Payload: signaturePayload(t)})
	_, err := ParseContainer(data)
	require.Error(t, err)
	e, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrMissingShaderChunk, e.Kind)
}

func TestParseContainerUnknownChunksIgnored(t *testing.T) {
	data := buildContainer(
		Chunk{Tag: "RDEF", Payload: []byte{1, 2, 3, 4}},
		Chunk{Tag: "STAT", Payload: []byte{}},
		Chunk{Tag: TagSHEX, Payload: minimalShaderChunk()},
	)
	c, err := ParseContainer(data)
	require.NoError(t, err)
	assert.Len(t, c.Chunks, 3)
	assert.Len(t, c.Warnings, 2, "each unrecognized tag is reported once")
}

func TestParseContainerTruncatedChunk(t *testing.T) {
	data := buildContainer(Chunk{Tag: TagSHEX, Payload: minimalShaderChunk()})
	_, err := ParseContainer(data[:len(data)-4])
	require.Error(t, err)
	assert.True(t, IsEndOfStream(err))
}

func TestParseContainerPrefersShexOverShdr(t *testing.T) {
	data := buildContainer(
		Chunk{Tag: TagSHDR, Payload: minimalShaderChunk()},
		Chunk{Tag: TagSHEX, Payload: minimalShaderChunk()},
	)
	c, err := ParseContainer(data)
	require.NoError(t, err)
	tag, _, ok := c.ShaderChunk()
	require.True(t, ok)
	assert.Equal(t, TagSHEX, tag)
}

// signaturePayload builds a one-element ISGN payload declaring
// POSITION0 as float4 in register 0.
func signaturePayload(t *testing.T) []byte {
	t.Helper()
	// Element records start at byte 8; the name table follows them.
	nameOffset := uint32(8 + 24)
	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, 1) // element count
	buf = binary.LittleEndian.AppendUint32(buf, 8) // reserved
	buf = binary.LittleEndian.AppendUint32(buf, nameOffset)
	buf = binary.LittleEndian.AppendUint32(buf, 0)                        // semantic index
	buf = binary.LittleEndian.AppendUint32(buf, 0)                        // system value
	buf = binary.LittleEndian.AppendUint32(buf, uint32(ComponentFloat32)) // component type
	buf = binary.LittleEndian.AppendUint32(buf, 0)                        // register
	buf = append(buf, 0x0F, 0x0F, 0, 0)                                   // mask, rw-mask, pad
	buf = append(buf, "POSITION\x00"...)
	return buf
}

func TestParseSignature(t *testing.T) {
	table, err := ParseSignature("ISGN", signaturePayload(t))
	require.NoError(t, err)
	require.Len(t, table.Elements, 1)

	el := table.Elements[0]
	assert.Equal(t, "POSITION", el.SemanticName)
	assert.Equal(t, uint32(0), el.Register)
	assert.Equal(t, MaskXYZW, el.Mask)
	assert.Equal(t, ComponentFloat32, el.ComponentType)

	assert.NotNil(t, table.Lookup("position", 0, 0), "semantic lookup is case-insensitive")
	assert.Nil(t, table.Lookup("position", 1, 0))
	assert.Equal(t, MaskXYZW, table.ByRegisterMask(0))
	assert.Equal(t, Mask(0), table.ByRegisterMask(5))
	assert.Equal(t, uint32(1), table.MaxRegister())
}

func TestParseSignatureWithStreamAndPrecision(t *testing.T) {
	// OSG5 layout: per-element leading stream id and trailing precision.
	nameOffset := uint32(8 + 32)
	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, 8)
	buf = binary.LittleEndian.AppendUint32(buf, 2) // stream
	buf = binary.LittleEndian.AppendUint32(buf, nameOffset)
	buf = binary.LittleEndian.AppendUint32(buf, 3) // semantic index
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(ComponentUint32))
	buf = binary.LittleEndian.AppendUint32(buf, 1) // register
	buf = append(buf, 0x03, 0x03, 0, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 1) // min precision
	buf = append(buf, "TEXCOORD\x00"...)

	table, err := ParseSignature(TagOSG5, buf)
	require.NoError(t, err)
	require.Len(t, table.Elements, 1)

	el := table.Elements[0]
	assert.Equal(t, "TEXCOORD", el.SemanticName)
	assert.Equal(t, uint32(2), el.Stream)
	assert.Equal(t, uint32(3), el.SemanticIndex)
	assert.Equal(t, uint32(1), el.MinPrecision)
	assert.Equal(t, MaskX|MaskY, el.Mask)
}

func TestParseSignatureTruncated(t *testing.T) {
	payload := signaturePayload(t)
	_, err := ParseSignature("ISGN", payload[:12])
	assert.True(t, IsEndOfStream(err))
}
