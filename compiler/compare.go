package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

type compareDef struct {
	Scalar dxbc.ScalarType
	Op     spirv.OpCode
}

var compareTable = map[dxbc.Opcode]compareDef{
	dxbc.OpEq:  {dxbc.ScalarF32, spirv.OpFOrdEqual},
	dxbc.OpNe:  {dxbc.ScalarF32, spirv.OpFOrdNotEqual},
	dxbc.OpLt:  {dxbc.ScalarF32, spirv.OpFOrdLessThan},
	dxbc.OpGe:  {dxbc.ScalarF32, spirv.OpFOrdGreaterThanEqual},
	dxbc.OpIEq: {dxbc.ScalarI32, spirv.OpIEqual},
	dxbc.OpINe: {dxbc.ScalarI32, spirv.OpINotEqual},
	dxbc.OpILt: {dxbc.ScalarI32, spirv.OpSLessThan},
	dxbc.OpIGe: {dxbc.ScalarI32, spirv.OpSGreaterThanEqual},
	dxbc.OpULt: {dxbc.ScalarU32, spirv.OpULessThan},
	dxbc.OpUGe: {dxbc.ScalarU32, spirv.OpUGreaterThanEqual},
}

// lowerCompare lowers a DXBC comparison opcode to a bool result then
// selects it into the DXBC convention of all-bits-set (0xFFFFFFFF) for
// true and zero for false, per spec.md §4.7 "Compare instructions".
func (c *Compiler) lowerCompare(inst *dxbc.Instruction) error {
	def, ok := compareTable[inst.Opcode]
	if !ok {
		return newErr(ErrUnhandledOpcode, "opcode %d is not a comparison", inst.Opcode)
	}
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	a, err := c.loadSrc(&inst.Src[0], def.Scalar, count)
	if err != nil {
		return err
	}
	b, err := c.loadSrc(&inst.Src[1], def.Scalar, count)
	if err != nil {
		return err
	}
	boolType := c.types.Vector(dxbc.ScalarBool, count)
	cond := c.b.AddBinaryOp(def.Op, boolType, a.ID, b.ID)

	allBits := c.constU32(0xFFFFFFFF, count)
	zero := c.constU32(0, count)
	resultType := c.types.Vector(dxbc.ScalarU32, count)
	id := c.b.AddSelect(resultType, cond, allBits.ID, zero.ID)
	result := Value{ID: id, Scalar: dxbc.ScalarU32, Count: count}
	return c.storeDst(dst, result, false)
}
