package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// lowerSinCos lowers sincos dst_sin, dst_cos, src to two GLSL.std.450
// calls. Each destination is independently optional (DXBC allows either
// to be a null register when the caller only needs one of the pair);
// the cosine destination must use GLSLstd450Cos, not Sin — a real
// miscompile this core must not reproduce.
func (c *Compiler) lowerSinCos(inst *dxbc.Instruction) error {
	sinDst, cosDst := &inst.Dst[0], &inst.Dst[1]
	sinCount := sinDst.Mask.Popcount()
	cosCount := cosDst.Mask.Popcount()
	if sinCount == 0 && cosCount == 0 {
		return nil
	}
	count := maxInt(sinCount, cosCount)
	x, err := c.loadSrc(&inst.Src[0], dxbc.ScalarF32, count)
	if err != nil {
		return err
	}
	resultType := c.types.Vector(dxbc.ScalarF32, count)

	if sinCount > 0 {
		id := c.b.AddExtInst(resultType, c.glslExt, spirv.GLSLstd450Sin, x.ID)
		if err := c.storeDst(sinDst, Value{ID: id, Scalar: dxbc.ScalarF32, Count: count}, inst.Saturate); err != nil {
			return err
		}
	}
	if cosCount > 0 {
		id := c.b.AddExtInst(resultType, c.glslExt, spirv.GLSLstd450Cos, x.ID)
		if err := c.storeDst(cosDst, Value{ID: id, Scalar: dxbc.ScalarF32, Count: count}, inst.Saturate); err != nil {
			return err
		}
	}
	return nil
}
