package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// lowerMov loads the source verbatim as u32 (no type interpretation is
// implied by a plain move) and stores it into the destination, applying
// saturate as a float clamp per spec.md §4.7.
func (c *Compiler) lowerMov(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	scalar := dxbc.ScalarU32
	if inst.Saturate {
		scalar = dxbc.ScalarF32
	}
	v, err := c.loadSrc(&inst.Src[0], scalar, count)
	if err != nil {
		return err
	}
	return c.storeDst(dst, v, inst.Saturate)
}

// lowerMovc selects componentwise between two sources based on a
// condition vector's nonzero-ness, per spec.md §4.7 "Movc".
func (c *Compiler) lowerMovc(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	cond, err := c.loadSrc(&inst.Src[0], dxbc.ScalarU32, count)
	if err != nil {
		return err
	}
	a, err := c.loadSrc(&inst.Src[1], dxbc.ScalarU32, count)
	if err != nil {
		return err
	}
	b, err := c.loadSrc(&inst.Src[2], dxbc.ScalarU32, count)
	if err != nil {
		return err
	}
	zero := c.constU32(0, count)
	boolType := c.types.Vector(dxbc.ScalarBool, count)
	nonzero := c.b.AddBinaryOp(spirv.OpINotEqual, boolType, cond.ID, zero.ID)
	resultType := c.types.Vector(dxbc.ScalarU32, count)
	id := c.b.AddSelect(resultType, nonzero, a.ID, b.ID)
	result := Value{ID: id, Scalar: dxbc.ScalarU32, Count: count}
	return c.storeDst(dst, result, false)
}
