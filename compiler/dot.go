package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

var dotWidth = map[dxbc.Opcode]int{
	dxbc.OpDp2: 2,
	dxbc.OpDp3: 3,
	dxbc.OpDp4: 4,
}

// lowerDot lowers Dp2/Dp3/Dp4 to OpDot, splatting the scalar result
// across dst's write mask (DXBC dot products write the same scalar to
// every masked component).
func (c *Compiler) lowerDot(inst *dxbc.Instruction) error {
	width, ok := dotWidth[inst.Opcode]
	if !ok {
		return newErr(ErrUnhandledOpcode, "opcode %d is not a dot product", inst.Opcode)
	}
	dst := &inst.Dst[0]
	if dst.Mask.Popcount() == 0 {
		return nil
	}
	a, err := c.loadSrc(&inst.Src[0], dxbc.ScalarF32, width)
	if err != nil {
		return err
	}
	b, err := c.loadSrc(&inst.Src[1], dxbc.ScalarF32, width)
	if err != nil {
		return err
	}
	scalarType := c.types.Scalar(dxbc.ScalarF32)
	dot := c.b.AddBinaryOp(spirv.OpDot, scalarType, a.ID, b.ID)
	result := Value{ID: dot, Scalar: dxbc.ScalarF32, Count: 1}
	return c.storeDst(dst, result, inst.Saturate)
}
