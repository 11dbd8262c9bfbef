package dxbcspirv_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dxbcspirv/dxbcspirv"
	"github.com/dxbcspirv/dxbcspirv/compiler"
	"github.com/dxbcspirv/dxbcspirv/dxbc"
)

func words(ws ...uint32) []byte {
	out := make([]byte, 0, len(ws)*4)
	for _, w := range ws {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out
}

func container(chunks ...struct {
	tag     string
	payload []byte
}) []byte {
	headerSize := 32 + 4*len(chunks)
	total := headerSize
	for _, ch := range chunks {
		total += 8 + len(ch.payload)
	}
	var buf []byte
	buf = append(buf, "DXBC"...)
	buf = append(buf, make([]byte, 16)...)
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(total))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(chunks)))
	offset := headerSize
	for _, ch := range chunks {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(offset))
		offset += 8 + len(ch.payload)
	}
	for _, ch := range chunks {
		buf = append(buf, ch.tag...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ch.payload)))
		buf = append(buf, ch.payload...)
	}
	return buf
}

type chunk = struct {
	tag     string
	payload []byte
}

// passthroughVertexShader encodes the token stream of
//
//	vs_4_0
//	dcl_input v0.xyzw
//	dcl_output_siv o0.xyzw, position
//	dcl_temps 1
//	mov o0.xyzw, v0.xyzw
//	ret
func passthroughVertexShader() []byte {
	const identitySwizzle = 0xE4
	op := func(o dxbc.Opcode, length uint32) uint32 { return uint32(o) | length<<24 }
	dstTok := func(typ uint32, mask uint32) uint32 { return 2 | mask<<4 | typ<<12 | 1<<20 }
	srcTok := func(typ uint32) uint32 { return 2 | 1<<2 | identitySwizzle<<4 | typ<<12 | 1<<20 }

	const (
		typeInput  = 1
		typeOutput = 2
	)
	tokens := []uint32{
		op(dxbc.OpDclInput, 3), dstTok(typeInput, 0xF), 0,
		op(dxbc.OpDclOutputSiv, 4), dstTok(typeOutput, 0xF), 0, 1, // trailing SV enum
		op(dxbc.OpDclTemps, 2), 1,
		op(dxbc.OpMov, 5), dstTok(typeOutput, 0xF), 0, srcTok(typeInput), 0,
		op(dxbc.OpRet, 1),
	}
	version := uint32(1)<<16 | 4<<4 // vs_4_0
	all := append([]uint32{version, uint32(len(tokens) + 2)}, tokens...)
	return words(all...)
}

func inputSignature() []byte {
	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, 8)
	buf = binary.LittleEndian.AppendUint32(buf, 32) // name offset
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 3) // float32
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = append(buf, 0x0F, 0x0F, 0, 0)
	buf = append(buf, "POSITION\x00"...)
	return buf
}

func TestCompilePassthroughVertex(t *testing.T) {
	blob := container(
		chunk{tag: "ISGN", payload: inputSignature()},
		chunk{tag: "SHEX", payload: passthroughVertexShader()},
	)

	result, err := dxbcspirv.Compile(blob)
	require.NoError(t, err)

	assert.Equal(t, uint32(0x07230203), result.Words[0])
	assert.Empty(t, result.Bindings)
	assert.NotZero(t, result.Words[3], "id bound must be nonzero")
	assert.Zero(t, result.Words[4], "reserved header word must be zero")
}

func TestParseExposesDecodedModule(t *testing.T) {
	blob := container(
		chunk{tag: "ISGN", payload: inputSignature()},
		chunk{tag: "SHEX", payload: passthroughVertexShader()},
	)

	module, err := dxbcspirv.Parse(blob)
	require.NoError(t, err)

	assert.Equal(t, dxbc.ProgramVertex, module.Version.Type)
	assert.Equal(t, uint8(4), module.Version.Major)
	require.Len(t, module.Instructions, 5)
	assert.Equal(t, dxbc.OpDclInput, module.Instructions[0].Opcode)
	assert.Equal(t, dxbc.OpRet, module.Instructions[4].Opcode)

	require.Len(t, module.Input.Elements, 1)
	assert.Equal(t, "POSITION", module.Input.Elements[0].SemanticName)
	assert.Empty(t, module.Output.Elements)
}

func TestCompileRejectsGarbage(t *testing.T) {
	_, err := dxbcspirv.Compile([]byte("not a shader"))
	require.Error(t, err)

	_, err = dxbcspirv.Compile(nil)
	require.Error(t, err)
}

func TestCompileWithCustomSlotFunction(t *testing.T) {
	// cb lookup pixel shader: dcl_constantbuffer cb0[8], dcl_output o0,
	// mov o0.xyzw, cb0[3].xyzw, ret.
	const identitySwizzle = 0xE4
	op := func(o dxbc.Opcode, length uint32) uint32 { return uint32(o) | length<<24 }
	const (
		typeOutput = 2
		typeCB     = 8
	)
	tokens := []uint32{
		op(dxbc.OpDclConstantBuffer, 4), 2 | 0xF<<4 | typeCB<<12 | 2<<20, 0, 8,
		op(dxbc.OpDclOutput, 3), 2 | 0xF<<4 | typeOutput<<12 | 1<<20, 0,
		op(dxbc.OpMov, 6),
		2 | 0xF<<4 | typeOutput<<12 | 1<<20, 0,
		2 | 1<<2 | identitySwizzle<<4 | typeCB<<12 | 2<<20, 0, 3,
		op(dxbc.OpRet, 1),
	}
	version := uint32(0)<<16 | 4<<4 // ps_4_0
	payload := words(append([]uint32{version, uint32(len(tokens) + 2)}, tokens...)...)
	blob := container(chunk{tag: "SHEX", payload: payload})

	opts := compiler.DefaultOptions()
	opts.Slot = func(stage dxbc.ProgramType, kind compiler.BindingKind, localRegister uint32) uint32 {
		assert.Equal(t, dxbc.ProgramPixel, stage)
		assert.Equal(t, compiler.BindingUniformBuffer, kind)
		return 100 + localRegister
	}
	result, err := dxbcspirv.CompileWithOptions(blob, opts)
	require.NoError(t, err)
	require.Len(t, result.Bindings, 1)
	assert.Equal(t, uint32(100), result.Bindings[0].Slot)
}
