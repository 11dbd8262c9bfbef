package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// atomicOps maps each DXBC atomic opcode (both the void Atomic* form and
// the value-returning ImmAtomic* form) to its SPIR-V instruction. All
// arithmetic runs in 32-bit integer space, matching the u32 word layout
// of the raw/structured buffers and TGSM banks the operations target.
var atomicOps = map[dxbc.Opcode]spirv.OpCode{
	dxbc.OpAtomicAnd:     spirv.OpAtomicAnd,
	dxbc.OpAtomicOr:      spirv.OpAtomicOr,
	dxbc.OpAtomicXor:     spirv.OpAtomicXor,
	dxbc.OpAtomicIAdd:    spirv.OpAtomicIAdd,
	dxbc.OpAtomicIMax:    spirv.OpAtomicSMax,
	dxbc.OpAtomicIMin:    spirv.OpAtomicSMin,
	dxbc.OpAtomicUMax:    spirv.OpAtomicUMax,
	dxbc.OpAtomicUMin:    spirv.OpAtomicUMin,
	dxbc.OpImmAtomicIAdd: spirv.OpAtomicIAdd,
	dxbc.OpImmAtomicAnd:  spirv.OpAtomicAnd,
	dxbc.OpImmAtomicOr:   spirv.OpAtomicOr,
	dxbc.OpImmAtomicXor:  spirv.OpAtomicXor,
	dxbc.OpImmAtomicExch: spirv.OpAtomicExchange,
	dxbc.OpImmAtomicIMax: spirv.OpAtomicSMax,
	dxbc.OpImmAtomicIMin: spirv.OpAtomicSMin,
	dxbc.OpImmAtomicUMax: spirv.OpAtomicUMax,
	dxbc.OpImmAtomicUMin: spirv.OpAtomicUMin,
}

// returnsOldValue reports whether the opcode is an ImmAtomic* form whose
// first destination receives the pre-operation value.
func returnsOldValue(op dxbc.Opcode) bool {
	switch op {
	case dxbc.OpImmAtomicIAdd, dxbc.OpImmAtomicAnd, dxbc.OpImmAtomicOr,
		dxbc.OpImmAtomicXor, dxbc.OpImmAtomicExch, dxbc.OpImmAtomicCmpExch,
		dxbc.OpImmAtomicIMax, dxbc.OpImmAtomicIMin,
		dxbc.OpImmAtomicUMax, dxbc.OpImmAtomicUMin:
		return true
	}
	return false
}

// atomicTarget resolves the memory operand + address operand of an
// atomic to a pointer id plus the scope/semantics constants the SPIR-V
// instruction takes (spec.md §4.7 "Atomics": Device scope for UAVs,
// Workgroup for TGSM; relaxed ordering with the storage-class bit).
func (c *Compiler) atomicTarget(resOp, addrOp *dxbc.Operand) (ptr, scope, semantics uint32, err error) {
	if resOp.Type == dxbc.OperandUAV {
		index := uint32(resOp.Index[0].Imm)
		if rv, ok := c.regs.uavs[index]; ok && rv.ImageType != 0 {
			// Typed UAV: atomics go through a texel pointer in Image
			// storage class.
			coord, e := c.loadSrc(addrOp, dxbc.ScalarI32, coordSize(rv.Dim))
			if e != nil {
				return 0, 0, 0, e
			}
			texelPtrType := c.types.Pointer(spirv.StorageClassImage, c.types.Scalar(dxbc.ScalarU32))
			sample := c.constU32(0, 1)
			ptr = c.b.AddImageTexelPointer(texelPtrType, rv.VarID, coord.ID, sample.ID)
			scope = c.constU32(spirv.ScopeDevice, 1).ID
			semantics = c.constU32(spirv.MemorySemanticsImageMemory, 1).ID
			return ptr, scope, semantics, nil
		}
	}

	buf, e := c.bufferOperand(resOp)
	if e != nil {
		return 0, 0, 0, e
	}
	var wordIdx uint32
	if buf.StrideWords > 1 {
		// Structured target: the address operand carries the element
		// index in its first lane and the byte offset in its second.
		addr, e := c.loadSrc(addrOp, dxbc.ScalarU32, 2)
		if e != nil {
			return 0, 0, 0, e
		}
		u32Type := c.types.Scalar(dxbc.ScalarU32)
		elem := Value{ID: c.b.AddCompositeExtract(u32Type, addr.ID, 0), Scalar: dxbc.ScalarU32, Count: 1}
		off := Value{ID: c.b.AddCompositeExtract(u32Type, addr.ID, 1), Scalar: dxbc.ScalarU32, Count: 1}
		wordIdx = c.structuredWordIndex(elem, off, buf.StrideWords)
	} else {
		addr, e := c.loadSrc(addrOp, dxbc.ScalarU32, 1)
		if e != nil {
			return 0, 0, 0, e
		}
		wordIdx = c.byteAddrToWordIndex(addr)
	}
	ptr = c.wordPointer(buf, wordIdx)
	if buf.Workgroup {
		scope = c.constU32(spirv.ScopeWorkgroup, 1).ID
		semantics = c.constU32(spirv.MemorySemanticsWorkgroupMemory, 1).ID
	} else {
		scope = c.constU32(spirv.ScopeDevice, 1).ID
		semantics = c.constU32(spirv.MemorySemanticsUniformMemory, 1).ID
	}
	return ptr, scope, semantics, nil
}

// lowerAtomic lowers the Atomic*/ImmAtomic* families. Operand layout:
// the void forms are (memory, address, value...); the Imm forms prefix a
// feedback register, leaving the memory operand as the first source.
func (c *Compiler) lowerAtomic(inst *dxbc.Instruction) error {
	var resOp, addrOp *dxbc.Operand
	var srcs []dxbc.Operand
	var feedback *dxbc.Operand

	if returnsOldValue(inst.Opcode) {
		feedback = &inst.Dst[0]
		resOp = &inst.Src[0]
		addrOp = &inst.Src[1]
		srcs = inst.Src[2:]
	} else {
		resOp = &inst.Dst[0]
		addrOp = &inst.Src[0]
		srcs = inst.Src[1:]
	}

	ptr, scope, semantics, err := c.atomicTarget(resOp, addrOp)
	if err != nil {
		return err
	}
	u32Type := c.types.Scalar(dxbc.ScalarU32)

	if inst.Opcode == dxbc.OpAtomicCmpStore || inst.Opcode == dxbc.OpImmAtomicCmpExch {
		cmp, err := c.loadSrc(&srcs[0], dxbc.ScalarU32, 1)
		if err != nil {
			return err
		}
		value, err := c.loadSrc(&srcs[1], dxbc.ScalarU32, 1)
		if err != nil {
			return err
		}
		old := c.b.AddAtomicCompareExchange(u32Type, ptr, scope, semantics, semantics, value.ID, cmp.ID)
		if feedback != nil {
			return c.storeDst(feedback, Value{ID: old, Scalar: dxbc.ScalarU32, Count: 1}, false)
		}
		return nil
	}

	op, ok := atomicOps[inst.Opcode]
	if !ok {
		return newErr(ErrUnhandledOpcode, "atomic opcode %d has no lowering", inst.Opcode)
	}
	value, err := c.loadSrc(&srcs[0], dxbc.ScalarU32, 1)
	if err != nil {
		return err
	}
	old := c.b.AddAtomicOp(op, u32Type, ptr, scope, semantics, &value.ID)
	if feedback != nil {
		return c.storeDst(feedback, Value{ID: old, Scalar: dxbc.ScalarU32, Count: 1}, false)
	}
	return nil
}
