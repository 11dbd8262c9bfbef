package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// aluDef describes one ALU opcode's lowering: which scalar type its
// sources/result operate in, and how many source operands it consumes.
// This is the "declarative table" spec.md §9 asks for in place of a long
// hand-written switch per opcode — lowerALU drives a single code path
// off this table plus a small set of non-uniform cases (bitfield
// extract/insert helpers and the like) handled inline.
type aluDef struct {
	Scalar dxbc.ScalarType
	// SrcScalar overrides the source interpretation when it differs from
	// the result (the FtoI/ItoF conversion family); zero value means
	// "same as Scalar".
	SrcScalar dxbc.ScalarType
	HasSrc    bool
	Unary     spirv.OpCode
	Binary    spirv.OpCode
	Ternary   func(c *Compiler, resultType uint32, a, b, cc uint32) uint32
	Ext       uint32 // GLSL.std.450 instruction, used when Unary/Binary are zero
	ExtArgs   int    // number of GLSL.std.450 operands (descriptive; lowerALU does not read it)
}

var aluTable = map[dxbc.Opcode]aluDef{
	dxbc.OpAdd:            {Scalar: dxbc.ScalarF32, Binary: spirv.OpFAdd},
	dxbc.OpMul:            {Scalar: dxbc.ScalarF32, Binary: spirv.OpFMul},
	dxbc.OpDiv:            {Scalar: dxbc.ScalarF32, Binary: spirv.OpFDiv},
	dxbc.OpRcp:            {Scalar: dxbc.ScalarF32, Unary: spirv.OpFDiv}, // special-cased below (1/x)
	dxbc.OpMin:            {Scalar: dxbc.ScalarF32, Ext: spirv.GLSLstd450FMin, ExtArgs: 2},
	dxbc.OpMax:            {Scalar: dxbc.ScalarF32, Ext: spirv.GLSLstd450FMax, ExtArgs: 2},
	dxbc.OpMad:            {Scalar: dxbc.ScalarF32, Ext: spirv.GLSLstd450Fma, ExtArgs: 3},
	dxbc.OpRsq:            {Scalar: dxbc.ScalarF32, Ext: spirv.GLSLstd450InverseSqrt, ExtArgs: 1},
	dxbc.OpSqrt:           {Scalar: dxbc.ScalarF32, Ext: spirv.GLSLstd450Sqrt, ExtArgs: 1},
	dxbc.OpExp:            {Scalar: dxbc.ScalarF32, Ext: spirv.GLSLstd450Exp2, ExtArgs: 1},
	dxbc.OpLog:            {Scalar: dxbc.ScalarF32, Ext: spirv.GLSLstd450Log2, ExtArgs: 1},
	dxbc.OpFrc:            {Scalar: dxbc.ScalarF32, Ext: spirv.GLSLstd450Fract, ExtArgs: 1},
	dxbc.OpRoundNE:        {Scalar: dxbc.ScalarF32, Ext: spirv.GLSLstd450RoundEven, ExtArgs: 1},
	dxbc.OpRoundNI:        {Scalar: dxbc.ScalarF32, Ext: spirv.GLSLstd450Floor, ExtArgs: 1},
	dxbc.OpRoundPI:        {Scalar: dxbc.ScalarF32, Ext: spirv.GLSLstd450Ceil, ExtArgs: 1},
	dxbc.OpRoundZ:         {Scalar: dxbc.ScalarF32, Ext: spirv.GLSLstd450Trunc, ExtArgs: 1},
	dxbc.OpDerivRTX:       {Scalar: dxbc.ScalarF32, Unary: spirv.OpDPdx},
	dxbc.OpDerivRTY:       {Scalar: dxbc.ScalarF32, Unary: spirv.OpDPdy},
	dxbc.OpDerivRTXCoarse: {Scalar: dxbc.ScalarF32, Unary: spirv.OpDPdxCoarse},
	dxbc.OpDerivRTXFine:   {Scalar: dxbc.ScalarF32, Unary: spirv.OpDPdxFine},
	dxbc.OpDerivRTYCoarse: {Scalar: dxbc.ScalarF32, Unary: spirv.OpDPdyCoarse},
	dxbc.OpDerivRTYFine:   {Scalar: dxbc.ScalarF32, Unary: spirv.OpDPdyFine},

	dxbc.OpIAdd:        {Scalar: dxbc.ScalarI32, Binary: spirv.OpIAdd},
	dxbc.OpIMax:        {Scalar: dxbc.ScalarI32, Ext: spirv.GLSLstd450SMax, ExtArgs: 2},
	dxbc.OpIMin:        {Scalar: dxbc.ScalarI32, Ext: spirv.GLSLstd450SMin, ExtArgs: 2},
	dxbc.OpINeg:        {Scalar: dxbc.ScalarI32, Unary: spirv.OpSNegate},
	dxbc.OpIShl:        {Scalar: dxbc.ScalarI32, Binary: spirv.OpShiftLeftLogical},
	dxbc.OpIShr:        {Scalar: dxbc.ScalarI32, Binary: spirv.OpShiftRightArithmetic},
	dxbc.OpUShr:        {Scalar: dxbc.ScalarU32, Binary: spirv.OpShiftRightLogical},
	dxbc.OpUMax:        {Scalar: dxbc.ScalarU32, Ext: spirv.GLSLstd450UMax, ExtArgs: 2},
	dxbc.OpUMin:        {Scalar: dxbc.ScalarU32, Ext: spirv.GLSLstd450UMin, ExtArgs: 2},
	dxbc.OpAnd:         {Scalar: dxbc.ScalarU32, Binary: spirv.OpBitwiseAnd},
	dxbc.OpOr:          {Scalar: dxbc.ScalarU32, Binary: spirv.OpBitwiseOr},
	dxbc.OpXor:         {Scalar: dxbc.ScalarU32, Binary: spirv.OpBitwiseXor},
	dxbc.OpNot:         {Scalar: dxbc.ScalarU32, Unary: spirv.OpNot},
	dxbc.OpCountBits:   {Scalar: dxbc.ScalarU32, Unary: spirv.OpBitCount},
	dxbc.OpFirstBitLo:  {Scalar: dxbc.ScalarU32, Ext: spirv.GLSLstd450FindILsb, ExtArgs: 1},
	dxbc.OpFirstBitHi:  {Scalar: dxbc.ScalarU32, Ext: spirv.GLSLstd450FindUMsb, ExtArgs: 1},
	dxbc.OpFirstBitShi: {Scalar: dxbc.ScalarI32, Ext: spirv.GLSLstd450FindSMsb, ExtArgs: 1},

	dxbc.OpUtoF: {Scalar: dxbc.ScalarF32, SrcScalar: dxbc.ScalarU32, HasSrc: true, Unary: spirv.OpConvertUToF},
	dxbc.OpItoF: {Scalar: dxbc.ScalarF32, SrcScalar: dxbc.ScalarI32, HasSrc: true, Unary: spirv.OpConvertSToF},
	dxbc.OpFtoU: {Scalar: dxbc.ScalarU32, SrcScalar: dxbc.ScalarF32, HasSrc: true, Unary: spirv.OpConvertFToU},
	dxbc.OpFtoI: {Scalar: dxbc.ScalarI32, SrcScalar: dxbc.ScalarF32, HasSrc: true, Unary: spirv.OpConvertFToS},
}

// lowerALU handles every opcode in aluTable plus the handful of
// multi-destination/special-arity opcodes (IMad/UMad, Bfi/UBfe/IBfe,
// BfRev, F32toF16/F16toF32, UDiv) that don't fit the table's uniform
// unary/binary/ternary shape.
func (c *Compiler) lowerALU(inst *dxbc.Instruction) error {
	switch inst.Opcode {
	case dxbc.OpIMad, dxbc.OpUMad:
		return c.lowerMad(inst, dxbc.OpIMad == inst.Opcode)
	case dxbc.OpBfi:
		return c.lowerBfi(inst)
	case dxbc.OpUBfe, dxbc.OpIBfe:
		return c.lowerBfe(inst, inst.Opcode == dxbc.OpIBfe)
	case dxbc.OpBfRev:
		return c.lowerBfRev(inst)
	case dxbc.OpF32toF16:
		return c.lowerF32ToF16(inst)
	case dxbc.OpF16toF32:
		return c.lowerF16ToF32(inst)
	case dxbc.OpUDiv:
		return c.lowerUDiv(inst)
	case dxbc.OpIMul:
		return c.lowerIMul(inst)
	case dxbc.OpRcp:
		return c.lowerRcp(inst)
	case dxbc.OpSampleInfo:
		return c.lowerSampleInfo(inst)
	case dxbc.OpSamplePos:
		return c.lowerSamplePos(inst)
	}

	def, ok := aluTable[inst.Opcode]
	if !ok {
		return newErr(ErrUnhandledOpcode, "opcode %d has no ALU lowering", inst.Opcode)
	}
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	resultType := c.types.Vector(def.Scalar, count)

	srcScalar := def.Scalar
	if def.HasSrc {
		srcScalar = def.SrcScalar
	}
	srcs := make([]Value, len(inst.Src))
	for i, s := range inst.Src {
		v, err := c.loadSrc(&s, srcScalar, count)
		if err != nil {
			return err
		}
		srcs[i] = v
	}

	var resultID uint32
	switch {
	case def.Ext != 0:
		args := make([]uint32, len(srcs))
		for i, s := range srcs {
			args[i] = s.ID
		}
		resultID = c.b.AddExtInst(resultType, c.glslExt, def.Ext, args...)
	case def.Unary != 0 && len(srcs) == 1:
		resultID = c.b.AddUnaryOp(def.Unary, resultType, srcs[0].ID)
	case def.Binary != 0:
		resultID = c.b.AddBinaryOp(def.Binary, resultType, srcs[0].ID, srcs[1].ID)
	default:
		return newErr(ErrUnhandledOpcode, "ALU table entry for opcode %d has no arity", inst.Opcode)
	}

	result := Value{ID: resultID, Scalar: def.Scalar, Count: count}
	return c.storeDst(dst, result, inst.Saturate)
}

func (c *Compiler) lowerRcp(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	x, err := c.loadSrc(&inst.Src[0], dxbc.ScalarF32, count)
	if err != nil {
		return err
	}
	one := c.constF32(1, count)
	resultType := c.types.Vector(dxbc.ScalarF32, count)
	id := c.b.AddBinaryOp(spirv.OpFDiv, resultType, one.ID, x.ID)
	return c.storeDst(dst, Value{ID: id, Scalar: dxbc.ScalarF32, Count: count}, inst.Saturate)
}

func (c *Compiler) lowerMad(inst *dxbc.Instruction, signed bool) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	scalar := dxbc.ScalarU32
	if signed {
		scalar = dxbc.ScalarI32
	}
	a, err := c.loadSrc(&inst.Src[0], scalar, count)
	if err != nil {
		return err
	}
	b, err := c.loadSrc(&inst.Src[1], scalar, count)
	if err != nil {
		return err
	}
	cc, err := c.loadSrc(&inst.Src[2], scalar, count)
	if err != nil {
		return err
	}
	resultType := c.types.Vector(scalar, count)
	mul := c.b.AddBinaryOp(spirv.OpIMul, resultType, a.ID, b.ID)
	add := c.b.AddBinaryOp(spirv.OpIAdd, resultType, mul, cc.ID)
	return c.storeDst(dst, Value{ID: add, Scalar: scalar, Count: count}, false)
}

// lowerIMul stores only the low 32 bits of the product into dst.Dst[1]
// (DXBC's imul yields a {hi, lo} pair; this translation core only wires
// the low half a real shader program consumes, recording the high
// destination's mask being zero as a no-op store).
func (c *Compiler) lowerIMul(inst *dxbc.Instruction) error {
	lo := &inst.Dst[1]
	count := lo.Mask.Popcount()
	if count == 0 {
		return nil
	}
	a, err := c.loadSrc(&inst.Src[0], dxbc.ScalarI32, count)
	if err != nil {
		return err
	}
	b, err := c.loadSrc(&inst.Src[1], dxbc.ScalarI32, count)
	if err != nil {
		return err
	}
	resultType := c.types.Vector(dxbc.ScalarI32, count)
	id := c.b.AddBinaryOp(spirv.OpIMul, resultType, a.ID, b.ID)
	return c.storeDst(lo, Value{ID: id, Scalar: dxbc.ScalarI32, Count: count}, false)
}

func (c *Compiler) lowerUDiv(inst *dxbc.Instruction) error {
	quot, rem := &inst.Dst[0], &inst.Dst[1]
	count := quot.Mask.Popcount()
	if count == 0 && rem.Mask.Popcount() == 0 {
		return nil
	}
	n := maxInt(count, rem.Mask.Popcount())
	a, err := c.loadSrc(&inst.Src[0], dxbc.ScalarU32, n)
	if err != nil {
		return err
	}
	b, err := c.loadSrc(&inst.Src[1], dxbc.ScalarU32, n)
	if err != nil {
		return err
	}
	resultType := c.types.Vector(dxbc.ScalarU32, n)
	if count > 0 {
		q := c.b.AddBinaryOp(spirv.OpUDiv, resultType, a.ID, b.ID)
		if err := c.storeDst(quot, Value{ID: q, Scalar: dxbc.ScalarU32, Count: n}, false); err != nil {
			return err
		}
	}
	if rem.Mask.Popcount() > 0 {
		r := c.b.AddBinaryOp(spirv.OpUMod, resultType, a.ID, b.ID)
		if err := c.storeDst(rem, Value{ID: r, Scalar: dxbc.ScalarU32, Count: n}, false); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) lowerBfi(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	width, err := c.loadSrc(&inst.Src[0], dxbc.ScalarU32, count)
	if err != nil {
		return err
	}
	offset, err := c.loadSrc(&inst.Src[1], dxbc.ScalarU32, count)
	if err != nil {
		return err
	}
	insert, err := c.loadSrc(&inst.Src[2], dxbc.ScalarU32, count)
	if err != nil {
		return err
	}
	base, err := c.loadSrc(&inst.Src[3], dxbc.ScalarU32, count)
	if err != nil {
		return err
	}
	resultType := c.types.Vector(dxbc.ScalarU32, count)
	id := c.bitFieldInsert(resultType, base.ID, insert.ID, offset.ID, width.ID)
	return c.storeDst(dst, Value{ID: id, Scalar: dxbc.ScalarU32, Count: count}, false)
}

func (c *Compiler) lowerBfe(inst *dxbc.Instruction, signed bool) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	scalar := dxbc.ScalarU32
	if signed {
		scalar = dxbc.ScalarI32
	}
	width, err := c.loadSrc(&inst.Src[0], dxbc.ScalarU32, count)
	if err != nil {
		return err
	}
	offset, err := c.loadSrc(&inst.Src[1], dxbc.ScalarU32, count)
	if err != nil {
		return err
	}
	base, err := c.loadSrc(&inst.Src[2], scalar, count)
	if err != nil {
		return err
	}
	resultType := c.types.Vector(scalar, count)
	id := c.bitFieldExtract(resultType, base.ID, offset.ID, width.ID, signed)
	return c.storeDst(dst, Value{ID: id, Scalar: scalar, Count: count}, false)
}

func (c *Compiler) lowerBfRev(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	x, err := c.loadSrc(&inst.Src[0], dxbc.ScalarU32, count)
	if err != nil {
		return err
	}
	resultType := c.types.Vector(dxbc.ScalarU32, count)
	id := c.b.AddUnaryOp(spirv.OpBitReverse, resultType, x.ID)
	return c.storeDst(dst, Value{ID: id, Scalar: dxbc.ScalarU32, Count: count}, false)
}

func (c *Compiler) lowerF32ToF16(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	x, err := c.loadSrc(&inst.Src[0], dxbc.ScalarF32, count)
	if err != nil {
		return err
	}
	resultType := c.types.Vector(dxbc.ScalarU32, count)
	id := c.b.AddExtInst(resultType, c.glslExt, spirv.GLSLstd450PackHalf2x16, x.ID)
	return c.storeDst(dst, Value{ID: id, Scalar: dxbc.ScalarU32, Count: count}, false)
}

func (c *Compiler) lowerF16ToF32(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	x, err := c.loadSrc(&inst.Src[0], dxbc.ScalarU32, count)
	if err != nil {
		return err
	}
	resultType := c.types.Vector(dxbc.ScalarF32, 2)
	id := c.b.AddExtInst(resultType, c.glslExt, spirv.GLSLstd450UnpackHalf2x16, x.ID)
	extracted := c.b.AddCompositeExtract(c.types.Scalar(dxbc.ScalarF32), id, 0)
	return c.storeDst(dst, Value{ID: extracted, Scalar: dxbc.ScalarF32, Count: 1}, false)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// bitFieldInsert emits OpBitFieldInsert, inserting an `insert` bitfield
// of `count` bits at `offset` into `base`.
func (c *Compiler) bitFieldInsert(resultType, base, insert, offset, count uint32) uint32 {
	return c.b.AddBitFieldInsert(resultType, base, insert, offset, count)
}

// bitFieldExtract emits OpBitFieldUExtract or OpBitFieldSExtract.
func (c *Compiler) bitFieldExtract(resultType, base, offset, count uint32, signed bool) uint32 {
	if signed {
		return c.b.AddTernaryOp(spirv.OpBitFieldSExtract, resultType, base, offset, count)
	}
	return c.b.AddTernaryOp(spirv.OpBitFieldUExtract, resultType, base, offset, count)
}
