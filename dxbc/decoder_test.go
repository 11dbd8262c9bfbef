package dxbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// opcodeTok builds an instruction's leading token.
func opcodeTok(op Opcode, lengthWords uint32, controls uint32, extended bool) uint32 {
	tok := uint32(op) | controls<<11 | lengthWords<<24
	if extended {
		tok |= 1 << 31
	}
	return tok
}

// operandTok builds an operand token.
func operandTok(count ComponentCount, sel SelectMode, selBits uint32, typ OperandType, dim uint32, reps [3]uint32, extended bool) uint32 {
	tok := uint32(count) | uint32(sel)<<2 | selBits<<4 | uint32(typ)<<12 | dim<<20 |
		reps[0]<<22 | reps[1]<<25 | reps[2]<<28
	if extended {
		tok |= 1 << 31
	}
	return tok
}

const swizzleIdentity = 0xE4 // (3,2,1,0) packed two bits per slot

func decodeOne(t *testing.T, tokens ...uint32) *Instruction {
	t.Helper()
	tr, err := NewTokenReader(u32bytes(tokens...))
	require.NoError(t, err)
	inst, err := NewDecoder(tr).Next()
	require.NoError(t, err)
	require.NotNil(t, inst)
	return inst
}

func TestDecodeMov(t *testing.T) {
	tokens := []uint32{
		opcodeTok(OpMov, 5, 0, false),
		operandTok(ComponentCount4, SelectMask, 0xF, OperandOutput, 1, [3]uint32{}, false), 0,
		operandTok(ComponentCount4, SelectSwizzle, swizzleIdentity, OperandInput, 1, [3]uint32{}, false), 0,
	}
	inst := decodeOne(t, tokens...)

	assert.Equal(t, OpMov, inst.Opcode)
	assert.Equal(t, ClassMov, inst.Class)
	assert.False(t, inst.Saturate)
	require.Len(t, inst.Dst, 1)
	require.Len(t, inst.Src, 1)

	dst := inst.Dst[0]
	assert.Equal(t, OperandOutput, dst.Type)
	assert.Equal(t, SelectMask, dst.Select)
	assert.Equal(t, MaskXYZW, dst.Mask)
	assert.Equal(t, int64(0), dst.Index[0].Imm)

	src := inst.Src[0]
	assert.Equal(t, OperandInput, src.Type)
	assert.Equal(t, [4]uint8{0, 1, 2, 3}, src.Swizzle)
	assert.Equal(t, [4]uint8{0, 1, 2, 3}, src.EffectiveSwizzle())
}

func TestDecodeSaturate(t *testing.T) {
	tokens := []uint32{
		opcodeTok(OpAdd, 7, 1<<(ctrlSaturateBit-11), false),
		operandTok(ComponentCount4, SelectMask, 0x7, OperandTemp, 1, [3]uint32{}, false), 0,
		operandTok(ComponentCount4, SelectSwizzle, swizzleIdentity, OperandTemp, 1, [3]uint32{}, false), 0,
		operandTok(ComponentCount4, SelectSwizzle, swizzleIdentity, OperandTemp, 1, [3]uint32{}, false), 0,
	}
	inst := decodeOne(t, tokens...)
	assert.True(t, inst.Saturate)
	assert.Equal(t, MaskX|MaskY|MaskZ, inst.Dst[0].Mask)
}

func TestDecodeImmediateOperands(t *testing.T) {
	// mov r0.x, l(1.0) — scalar immediate.
	scalar := decodeOne(t,
		opcodeTok(OpMov, 5, 0, false),
		operandTok(ComponentCount4, SelectMask, 0x1, OperandTemp, 1, [3]uint32{}, false), 0,
		operandTok(ComponentCount1, SelectMask, 0, OperandImm32, 0, [3]uint32{}, false), 0x3F800000,
	)
	src := scalar.Src[0]
	assert.Equal(t, OperandImm32, src.Type)
	assert.Equal(t, 1, src.Imm1Count)
	assert.Equal(t, uint32(0x3F800000), src.Imm32[0])

	// mov r0.xyzw, l(1, 2, 3, 4) — four immediate words.
	vec := decodeOne(t,
		opcodeTok(OpMov, 8, 0, false),
		operandTok(ComponentCount4, SelectMask, 0xF, OperandTemp, 1, [3]uint32{}, false), 0,
		operandTok(ComponentCount4, SelectMask, 0xF, OperandImm32, 0, [3]uint32{}, false), 1, 2, 3, 4,
	)
	assert.Equal(t, 4, vec.Src[0].Imm1Count)
	assert.Equal(t, [4]uint32{1, 2, 3, 4}, vec.Src[0].Imm32)
}

func TestDecodeRelativeIndex(t *testing.T) {
	// mov r0.xyzw, cb0[r1.y + 2]
	relTok := operandTok(ComponentCount4, SelectSelect1, 1, OperandTemp, 1, [3]uint32{}, false)
	tokens := []uint32{
		opcodeTok(OpMov, 8, 0, false),
		operandTok(ComponentCount4, SelectMask, 0xF, OperandTemp, 1, [3]uint32{}, false), 0,
		operandTok(ComponentCount4, SelectSwizzle, swizzleIdentity, OperandConstantBuffer, 2,
			[3]uint32{uint32(IndexImm32), uint32(IndexImm32PlusRelative)}, false),
		0,         // cb index
		2,         // immediate part of the second dimension
		relTok, 1, // nested r1.y
	}
	inst := decodeOne(t, tokens...)

	src := inst.Src[0]
	assert.Equal(t, OperandConstantBuffer, src.Type)
	assert.Equal(t, 2, src.IndexDim)
	assert.Equal(t, IndexImm32, src.Index[0].Rep)
	assert.Equal(t, int64(0), src.Index[0].Imm)

	idx := src.Index[1]
	assert.Equal(t, IndexImm32PlusRelative, idx.Rep)
	assert.Equal(t, int64(2), idx.Imm)
	require.NotNil(t, idx.Relative)
	assert.Equal(t, OperandTemp, idx.Relative.Type)
	assert.Equal(t, SelectSelect1, idx.Relative.Select)
	assert.Equal(t, uint8(1), idx.Relative.Select1)
	assert.Equal(t, int64(1), idx.Relative.Index[0].Imm)
}

func TestDecodeRejectsNonTempRelative(t *testing.T) {
	// A relative part naming an Input register violates the
	// single-level Temp/Select1 constraint.
	relTok := operandTok(ComponentCount4, SelectSelect1, 0, OperandInput, 1, [3]uint32{}, false)
	tokens := []uint32{
		opcodeTok(OpMov, 8, 0, false),
		operandTok(ComponentCount4, SelectMask, 0xF, OperandTemp, 1, [3]uint32{}, false), 0,
		operandTok(ComponentCount4, SelectSwizzle, swizzleIdentity, OperandConstantBuffer, 2,
			[3]uint32{uint32(IndexImm32), uint32(IndexRelative)}, false),
		0,
		relTok, 0,
	}
	tr, err := NewTokenReader(u32bytes(tokens...))
	require.NoError(t, err)
	_, err = NewDecoder(tr).Next()
	require.Error(t, err)
	e, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrInvalidRelativeRegister, e.Kind)
}

func TestDecodeOperandModifier(t *testing.T) {
	// mov r0.xyzw, -|r1| — extended operand token carrying neg+abs.
	extTok := uint32(extOperandModifier) | uint32(ModNegAbs)<<6
	tokens := []uint32{
		opcodeTok(OpMov, 6, 0, false),
		operandTok(ComponentCount4, SelectMask, 0xF, OperandTemp, 1, [3]uint32{}, false), 0,
		operandTok(ComponentCount4, SelectSwizzle, swizzleIdentity, OperandTemp, 1, [3]uint32{}, true),
		extTok,
		1,
	}
	inst := decodeOne(t, tokens...)
	assert.Equal(t, ModNegAbs, inst.Src[0].Modifier)
	assert.Equal(t, int64(1), inst.Src[0].Index[0].Imm)
}

func TestDecodeSampleControls(t *testing.T) {
	// Extended opcode token with texel offsets (u, v, w) = (-1, 7, 2).
	ext := uint32(extSampleControls) | 0xF<<9 | 0x7<<13 | 0x2<<17
	tokens := []uint32{
		opcodeTok(OpLd, 8, 0, true),
		ext,
		operandTok(ComponentCount4, SelectMask, 0xF, OperandTemp, 1, [3]uint32{}, false), 0,
		operandTok(ComponentCount4, SelectSwizzle, swizzleIdentity, OperandTemp, 1, [3]uint32{}, false), 0,
		operandTok(ComponentCount4, SelectSwizzle, swizzleIdentity, OperandResource, 1, [3]uint32{}, false), 0,
	}
	inst := decodeOne(t, tokens...)
	assert.Equal(t, int32(-1), inst.Sample.U)
	assert.Equal(t, int32(7), inst.Sample.V)
	assert.Equal(t, int32(2), inst.Sample.W)
}

func TestDecodeResourceDeclControls(t *testing.T) {
	// dcl_resource_texture2d t0 — resource dim in the control bits, the
	// return-type word trailing as an Imm32 operand.
	tokens := []uint32{
		opcodeTok(OpDclResource, 4, uint32(ResourceDimTexture2D), false),
		operandTok(ComponentCount0, SelectMask, 0, OperandResource, 1, [3]uint32{}, false), 0,
		0x5555, // float return type in all four component fields
	}
	inst := decodeOne(t, tokens...)
	assert.Equal(t, ClassDecl, inst.Class)
	assert.Equal(t, ResourceDimTexture2D, inst.ResourceDim)
	require.Len(t, inst.Imm, 1)
	assert.Equal(t, uint32(0x5555), inst.Imm[0])
}

func TestDecodeCustomData(t *testing.T) {
	tokens := []uint32{
		uint32(OpCustomData) | uint32(CustomDataImmediateConstantBuffer)<<11,
		6, // total length including both header words
		1, 2, 3, 4,
	}
	inst := decodeOne(t, tokens...)
	assert.Equal(t, ClassCustomData, inst.Class)
	assert.Equal(t, CustomDataImmediateConstantBuffer, inst.CustomDataClass)
	assert.Equal(t, []uint32{1, 2, 3, 4}, inst.CustomData)
}

func TestDecodeImmediateDecl(t *testing.T) {
	inst := decodeOne(t, opcodeTok(OpDclTemps, 2, 0, false), 4)
	assert.Equal(t, OpDclTemps, inst.Opcode)
	assert.Equal(t, []uint32{4}, inst.Imm)
}

func TestDecodeSystemValueDecl(t *testing.T) {
	// dcl_output_siv o0.xyzw, position — the trailing system-value word
	// is a declared operand, captured like dxvk's format table does.
	tokens := []uint32{
		opcodeTok(OpDclOutputSiv, 4, 0, false),
		operandTok(ComponentCount4, SelectMask, 0xF, OperandOutput, 1, [3]uint32{}, false), 0,
		uint32(SystemValuePosition),
		opcodeTok(OpRet, 1, 0, false),
	}
	tr, err := NewTokenReader(u32bytes(tokens...))
	require.NoError(t, err)
	d := NewDecoder(tr)

	first, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, OpDclOutputSiv, first.Opcode)
	require.Len(t, first.Imm, 1)
	assert.Equal(t, uint32(SystemValuePosition), first.Imm[0])

	second, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, OpRet, second.Opcode)
	assert.True(t, d.Done())
}

func TestDecodeSkipsDeclaredPadding(t *testing.T) {
	// An instruction whose declared length reserves a word beyond what
	// the format table consumes must still advance past it.
	tokens := []uint32{
		opcodeTok(OpDclInput, 4, 0, false),
		operandTok(ComponentCount4, SelectMask, 0xF, OperandInput, 1, [3]uint32{}, false), 0,
		0xABCD, // encoder padding, skipped
		opcodeTok(OpRet, 1, 0, false),
	}
	tr, err := NewTokenReader(u32bytes(tokens...))
	require.NoError(t, err)
	d := NewDecoder(tr)

	first, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, OpDclInput, first.Opcode)
	assert.Empty(t, first.Imm)

	second, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, OpRet, second.Opcode)
	assert.True(t, d.Done())
}

func TestDecodeZeroTest(t *testing.T) {
	condOperand := operandTok(ComponentCount4, SelectSelect1, 0, OperandTemp, 1, [3]uint32{}, false)

	ifz := decodeOne(t, opcodeTok(OpIf, 3, 1, false), condOperand, 0)
	assert.Equal(t, TestZero, ifz.ZeroTest)

	ifnz := decodeOne(t, opcodeTok(OpIf, 3, 0, false), condOperand, 0)
	assert.Equal(t, TestNonZero, ifnz.ZeroTest)
}

func TestDecodeUnknownOpcode(t *testing.T) {
	// Unknown opcode with a declared length: error, but the stream
	// advances so later instructions remain reachable.
	tr, err := NewTokenReader(u32bytes(
		opcodeTok(Opcode(1000), 2, 0, false), 0,
		opcodeTok(OpRet, 1, 0, false),
	))
	require.NoError(t, err)
	d := NewDecoder(tr)

	_, err = d.Next()
	require.Error(t, err)
	assert.True(t, IsUnknownOpcode(err))

	inst, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, OpRet, inst.Opcode)
}

func TestDecodeUnknownOpcodeZeroLength(t *testing.T) {
	tr, err := NewTokenReader(u32bytes(opcodeTok(Opcode(1000), 0, 0, false)))
	require.NoError(t, err)
	_, err = NewDecoder(tr).Next()
	require.Error(t, err)
	assert.True(t, IsUnknownOpcode(err))
}

func TestDecode64BitImmediateRejected(t *testing.T) {
	tokens := []uint32{
		opcodeTok(OpMov, 5, 0, false),
		operandTok(ComponentCount4, SelectMask, 0xF, OperandTemp, 1, [3]uint32{}, false), 0,
		operandTok(ComponentCount1, SelectMask, 0, OperandImm64, 0, [3]uint32{}, false), 0, 0,
	}
	tr, err := NewTokenReader(u32bytes(tokens...))
	require.NoError(t, err)
	_, err = NewDecoder(tr).Next()
	require.Error(t, err)
	e, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrUnsupported64BitImmediate, e.Kind)
}

func TestDecodeTruncatedInstruction(t *testing.T) {
	tokens := []uint32{
		opcodeTok(OpMov, 5, 0, false),
		operandTok(ComponentCount4, SelectMask, 0xF, OperandTemp, 1, [3]uint32{}, false),
		// Index word and the whole source operand are missing.
	}
	tr, err := NewTokenReader(u32bytes(tokens...))
	require.NoError(t, err)
	_, err = NewDecoder(tr).Next()
	require.Error(t, err)
	assert.True(t, IsEndOfStream(err))
}

func TestDecodeFullStream(t *testing.T) {
	tokens := []uint32{
		opcodeTok(OpDclTemps, 2, 0, false), 1,
		opcodeTok(OpMov, 5, 0, false),
		operandTok(ComponentCount4, SelectMask, 0xF, OperandTemp, 1, [3]uint32{}, false), 0,
		operandTok(ComponentCount4, SelectSwizzle, swizzleIdentity, OperandTemp, 1, [3]uint32{}, false), 0,
		opcodeTok(OpRet, 1, 0, false),
	}
	tr, err := NewTokenReader(u32bytes(tokens...))
	require.NoError(t, err)
	d := NewDecoder(tr)

	var ops []Opcode
	for !d.Done() {
		inst, err := d.Next()
		require.NoError(t, err)
		ops = append(ops, inst.Opcode)
	}
	assert.Equal(t, []Opcode{OpDclTemps, OpMov, OpRet}, ops)
}
