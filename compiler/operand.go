package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// indexValue resolves one decoded RegIndex to an i32 SPIR-V value,
// handling the "Imm32+Relative" combined form as OpIAdd(imm, relative)
// (spec.md §8 "Relative addressing correctness").
func (c *Compiler) indexValue(idx dxbc.RegIndex) (Value, error) {
	switch idx.Rep {
	case dxbc.IndexImm32:
		return c.constI32(int32(idx.Imm), 1), nil
	case dxbc.IndexRelative:
		return c.loadRelative(idx.Relative)
	case dxbc.IndexImm32PlusRelative:
		rel, err := c.loadRelative(idx.Relative)
		if err != nil {
			return Value{}, err
		}
		imm := c.constI32(int32(idx.Imm), 1)
		id := c.b.AddBinaryOp(spirv.OpIAdd, c.types.Scalar(dxbc.ScalarI32), imm.ID, rel.ID)
		return Value{ID: id, Scalar: dxbc.ScalarI32, Count: 1}, nil
	default:
		return Value{}, newErr(ErrInvalidRegisterIndex, "unsupported relative-index representation")
	}
}

// loadRelative loads the single component a relative-addressing operand
// names (always a Select1-mode Temp register per the decoder's
// enforcement of spec.md §9) and bitcasts it to i32.
func (c *Compiler) loadRelative(op *dxbc.Operand) (Value, error) {
	v, err := c.loadSrc(op, dxbc.ScalarI32, 1)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

// regPointer resolves a register operand (Temp/Input/Output/
// IndexableTemp/ConstantBuffer/Sampler/Resource/UAV/ThreadGroupShared) to
// a SPIR-V pointer id plus the element's scalar type and natural
// component count, honoring relative addressing per spec.md §3.
func (c *Compiler) regPointer(op *dxbc.Operand) (ptr uint32, scalar dxbc.ScalarType, count int, err error) {
	switch op.Type {
	case dxbc.OperandTemp:
		rv, e := c.temp(uint32(op.Index[0].Imm))
		if e != nil {
			return 0, 0, 0, e
		}
		return rv.VarID, rv.Scalar, rv.Count, nil

	case dxbc.OperandInput:
		rv, ok := c.regs.inputs[uint32(op.Index[0].Imm)]
		if !ok {
			return 0, 0, 0, newErr(ErrInvalidRegisterIndex, "v%d read without a prior dcl_input", op.Index[0].Imm)
		}
		return rv.VarID, rv.Scalar, rv.Count, nil

	case dxbc.OperandOutput:
		rv, ok := c.regs.outputs[uint32(op.Index[0].Imm)]
		if !ok {
			return 0, 0, 0, newErr(ErrInvalidRegisterIndex, "o%d used without a prior dcl_output", op.Index[0].Imm)
		}
		return rv.VarID, rv.Scalar, rv.Count, nil

	case dxbc.OperandIndexableTemp:
		arr, ok := c.regs.indexableTemp[uint32(op.Index[0].Imm)]
		if !ok || len(arr) == 0 {
			return 0, 0, 0, newErr(ErrInvalidRegisterIndex, "x%d used without a prior dcl_indexableTemp", op.Index[0].Imm)
		}
		elemRV := arr[0]
		idxVal, e := c.indexValue(op.Index[1])
		if e != nil {
			return 0, 0, 0, e
		}
		ptrID := c.b.AddAccessChain(elemRV.PtrType, elemRV.VarID, idxVal.ID)
		return ptrID, elemRV.Scalar, elemRV.Count, nil

	case dxbc.OperandConstantBuffer:
		cb, ok := c.regs.cbuffers[uint32(op.Index[0].Imm)]
		if !ok {
			return 0, 0, 0, newErr(ErrInvalidRegisterIndex, "cb%d read without a prior dcl_constantBuffer", op.Index[0].Imm)
		}
		idxVal, e := c.indexValue(op.Index[1])
		if e != nil {
			return 0, 0, 0, e
		}
		member := c.constU32(0, 1)
		ptrID := c.b.AddAccessChain(cb.PtrType, cb.VarID, member.ID, idxVal.ID)
		return ptrID, cb.Scalar, cb.Count, nil

	case dxbc.OperandImmediateConstantBuffer:
		icb := c.regs.icb
		if icb == nil {
			return 0, 0, 0, newErr(ErrInvalidRegisterIndex, "icb read without an immediate constant buffer")
		}
		idxVal, e := c.indexValue(op.Index[0])
		if e != nil {
			return 0, 0, 0, e
		}
		ptrID := c.b.AddAccessChain(icb.PtrType, icb.VarID, idxVal.ID)
		return ptrID, icb.Scalar, icb.Count, nil

	case dxbc.OperandThreadGroupShared:
		rv, ok := c.regs.tgsm[uint32(op.Index[0].Imm)]
		if !ok {
			return 0, 0, 0, newErr(ErrInvalidRegisterIndex, "g%d used without a prior dcl_tgsm", op.Index[0].Imm)
		}
		if op.IndexDim > 1 {
			idxVal, e := c.indexValue(op.Index[1])
			if e != nil {
				return 0, 0, 0, e
			}
			ptrID := c.b.AddAccessChain(rv.PtrType, rv.VarID, idxVal.ID)
			return ptrID, rv.Scalar, rv.Count, nil
		}
		return rv.VarID, rv.Scalar, rv.Count, nil

	default:
		if rv, ok := c.builtinVar(op.Type); ok {
			return rv.VarID, rv.Scalar, rv.Count, nil
		}
		return 0, 0, 0, newErr(ErrInvalidOperand, "operand type %d is not a loadable/storable register", op.Type)
	}
}

// loadSrc loads a source operand, applying its swizzle against the
// caller's requested component count, bit-casting to wantScalar, then
// applying operand modifiers (abs, then neg) — spec.md §4.7 "Register
// load".
func (c *Compiler) loadSrc(op *dxbc.Operand, wantScalar dxbc.ScalarType, count int) (Value, error) {
	if op.Type == dxbc.OperandImm32 {
		return c.loadImmediate(op, wantScalar, count)
	}
	if op.Type == dxbc.OperandNull {
		return c.zeroValue(wantScalar, count), nil
	}
	if op.Type == dxbc.OperandInputIsFrontFace {
		return c.bitcast(c.loadFrontFace(count), wantScalar), nil
	}

	ptr, natScalar, natCount, err := c.regPointer(op)
	if err != nil {
		return Value{}, err
	}
	elemType := c.types.Vector(natScalar, natCount)
	loaded := c.b.AddLoad(elemType, ptr)
	v := Value{ID: loaded, Scalar: natScalar, Count: natCount}

	v, err = c.shuffleForRead(v, op, count)
	if err != nil {
		return Value{}, err
	}
	v = c.bitcast(v, wantScalar)
	v = c.applyModifier(v, op.Modifier)
	return v, nil
}

// loadImmediate builds a constant value directly from an operand's
// decoded Imm32 words, honoring its swizzle/splat rules.
func (c *Compiler) loadImmediate(op *dxbc.Operand, wantScalar dxbc.ScalarType, count int) (Value, error) {
	raw := func(i int) uint32 {
		if op.Imm1Count == 1 {
			return op.Imm32[0]
		}
		return op.Imm32[i]
	}
	swz := op.EffectiveSwizzle()
	ids := make([]uint32, count)
	scalarType := c.types.Scalar(wantScalar)
	for i := 0; i < count; i++ {
		src := raw(int(swz[i]))
		var id uint32
		switch wantScalar {
		case dxbc.ScalarF32:
			id = c.b.AddConstantFloat32(scalarType, floatBitsOf(src))
		default:
			id = c.b.AddConstant(scalarType, src)
		}
		ids[i] = id
	}
	if count == 1 {
		return Value{ID: ids[0], Scalar: wantScalar, Count: 1}, nil
	}
	vecType := c.types.Vector(wantScalar, count)
	return Value{ID: c.b.AddConstantComposite(vecType, ids...), Scalar: wantScalar, Count: count}, nil
}

// shuffleForRead extracts `count` components from a loaded full-width
// value per the operand's effective swizzle.
func (c *Compiler) shuffleForRead(v Value, op *dxbc.Operand, count int) (Value, error) {
	swz := op.EffectiveSwizzle()
	if v.Count == 1 {
		if count == 1 {
			return v, nil
		}
		return c.splat(v, count), nil
	}
	if count == 1 {
		id := c.b.AddCompositeExtract(c.types.Scalar(v.Scalar), v.ID, uint32(swz[0]))
		return Value{ID: id, Scalar: v.Scalar, Count: 1}, nil
	}
	indices := make([]uint32, count)
	for i := 0; i < count; i++ {
		indices[i] = uint32(swz[i])
	}
	resultType := c.types.Vector(v.Scalar, count)
	id := c.b.AddVectorShuffle(resultType, v.ID, v.ID, indices)
	return Value{ID: id, Scalar: v.Scalar, Count: count}, nil
}

// splat replicates a scalar value into a count-wide vector.
func (c *Compiler) splat(v Value, count int) Value {
	if count <= 1 {
		return v
	}
	ids := make([]uint32, count)
	for i := range ids {
		ids[i] = v.ID
	}
	vecType := c.types.Vector(v.Scalar, count)
	return Value{ID: c.b.AddCompositeConstruct(vecType, ids...), Scalar: v.Scalar, Count: count}
}

// applyModifier applies abs then neg, per spec.md §4.7's ordering.
func (c *Compiler) applyModifier(v Value, mod dxbc.OperandModifier) Value {
	if mod == dxbc.ModNone {
		return v
	}
	resultType := c.typeOf(v)
	if mod == dxbc.ModAbs || mod == dxbc.ModNegAbs {
		if v.Scalar == dxbc.ScalarF32 || v.Scalar == dxbc.ScalarF64 {
			v.ID = c.b.AddExtInst(resultType, c.glslExt, spirv.GLSLstd450FAbs, v.ID)
		} else {
			v.ID = c.b.AddExtInst(resultType, c.glslExt, spirv.GLSLstd450SAbs, v.ID)
		}
	}
	if mod == dxbc.ModNeg || mod == dxbc.ModNegAbs {
		if v.Scalar == dxbc.ScalarF32 || v.Scalar == dxbc.ScalarF64 {
			v.ID = c.b.AddUnaryOp(spirv.OpFNegate, resultType, v.ID)
		} else {
			v.ID = c.b.AddUnaryOp(spirv.OpSNegate, resultType, v.ID)
		}
	}
	return v
}

// zeroValue returns a constant zero of the requested shape, used for
// OperandNull sources.
func (c *Compiler) zeroValue(scalar dxbc.ScalarType, count int) Value {
	switch scalar {
	case dxbc.ScalarF32:
		return c.constF32(0, count)
	case dxbc.ScalarBool:
		id := c.b.AddConstantFalse(c.types.Scalar(dxbc.ScalarBool))
		return Value{ID: id, Scalar: dxbc.ScalarBool, Count: 1}
	default:
		return c.constU32(0, count)
	}
}

// storeDst stores value v into a destination operand, implementing
// spec.md §4.7 "Register store" in full: scalar splat, bit-cast,
// masked-vs-full store, and saturate.
func (c *Compiler) storeDst(op *dxbc.Operand, v Value, saturate bool) error {
	mask := op.Mask
	if op.Select != dxbc.SelectMask {
		mask = dxbc.MaskXYZW // non-mask destinations (rare) write everything decoded
	}
	popcount := mask.Popcount()
	if popcount == 0 {
		return nil // a 0-mask store is a no-op (spec.md §3 invariant)
	}

	ptr, natScalar, natCount, err := c.regPointer(op)
	if err != nil {
		return err
	}

	if v.Count == 1 && popcount > 1 {
		v = c.splat(v, popcount)
	}
	v = c.bitcast(v, natScalar)

	if saturate && natScalar == dxbc.ScalarF32 {
		v = c.saturate(v)
	}

	if popcount == natCount && (mask == dxbc.MaskXYZW || natCount == 1) {
		c.b.AddStore(ptr, v.ID)
		return nil
	}

	elemType := c.types.Vector(natScalar, natCount)
	current := c.b.AddLoad(elemType, ptr)
	components := mask.Components()

	if popcount == 1 {
		id := c.b.AddCompositeInsert(elemType, v.ID, current, uint32(components[0]))
		c.b.AddStore(ptr, id)
		return nil
	}

	// General case: vector-into-vector via OpVectorShuffle. SPIR-V's
	// shuffle reads its index stream as two concatenated operand
	// vectors (id0 then id1); we build indices so the masked lanes
	// pull from `v` (indices natCount..natCount+popcount-1, in mask
	// order) and the unmasked lanes keep `current` (their own index).
	shuffleIdx := make([]uint32, natCount)
	next := 0
	for lane := 0; lane < natCount; lane++ {
		if mask.Test(lane) {
			shuffleIdx[lane] = uint32(natCount + next)
			next++
		} else {
			shuffleIdx[lane] = uint32(lane)
		}
	}
	id := c.b.AddVectorShuffle(elemType, current, v.ID, shuffleIdx)
	c.b.AddStore(ptr, id)
	return nil
}

// saturate clamps a float value to [0, 1] via GLSL.std.450 FClamp.
func (c *Compiler) saturate(v Value) Value {
	resultType := c.typeOf(v)
	zero := c.constF32(0, v.Count)
	one := c.constF32(1, v.Count)
	id := c.b.AddExtInst(resultType, c.glslExt, spirv.GLSLstd450FClamp, v.ID, zero.ID, one.ID)
	return Value{ID: id, Scalar: v.Scalar, Count: v.Count}
}
