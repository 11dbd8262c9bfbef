package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// coordSize returns the number of coordinate components an image access
// takes for a resource's dimensionality, including the array layer.
func coordSize(dim dxbc.ResourceDim) int {
	n := 0
	switch dim {
	case dxbc.ResourceDimBuffer, dxbc.ResourceDimTexture1D:
		n = 1
	case dxbc.ResourceDimTexture2D, dxbc.ResourceDimTexture2DMS:
		n = 2
	case dxbc.ResourceDimTexture3D, dxbc.ResourceDimTextureCube:
		n = 3
	case dxbc.ResourceDimTexture1DArray:
		n = 2
	case dxbc.ResourceDimTexture2DArray, dxbc.ResourceDimTexture2DMSArray:
		n = 3
	case dxbc.ResourceDimTextureCubeArray:
		n = 4
	default:
		n = 4
	}
	return n
}

// gradSize returns the component count of a derivative vector: the
// coordinate size without the array layer.
func gradSize(dim dxbc.ResourceDim) int {
	switch dim {
	case dxbc.ResourceDimTexture1DArray:
		return 1
	case dxbc.ResourceDimTexture2DArray, dxbc.ResourceDimTexture2DMSArray:
		return 2
	case dxbc.ResourceDimTextureCubeArray:
		return 3
	default:
		return coordSize(dim)
	}
}

// textureOperand resolves a Resource/UAV register operand to its declared
// resourceVar.
func (c *Compiler) textureOperand(op *dxbc.Operand) (resourceVar, error) {
	index := uint32(op.Index[0].Imm)
	switch op.Type {
	case dxbc.OperandResource:
		rv, ok := c.regs.textures[index]
		if !ok {
			return resourceVar{}, newErr(ErrInvalidRegisterIndex, "t%d used without a prior dcl_resource", index)
		}
		return rv, nil
	case dxbc.OperandUAV:
		rv, ok := c.regs.uavs[index]
		if !ok {
			return resourceVar{}, newErr(ErrInvalidRegisterIndex, "u%d used without a prior dcl_uav", index)
		}
		return rv, nil
	default:
		return resourceVar{}, newErr(ErrInvalidOperand, "operand type %d is not a resource register", op.Type)
	}
}

func (c *Compiler) samplerOperand(op *dxbc.Operand) (regVar, error) {
	if op.Type != dxbc.OperandSampler {
		return regVar{}, newErr(ErrInvalidOperand, "operand type %d is not a sampler register", op.Type)
	}
	index := uint32(op.Index[0].Imm)
	rv, ok := c.regs.samplers[index]
	if !ok {
		return regVar{}, newErr(ErrInvalidRegisterIndex, "s%d used without a prior dcl_sampler", index)
	}
	return rv, nil
}

// sampledImage loads the texture and sampler variables and combines them
// with OpSampledImage, the form every OpImageSample*/OpImageGather
// instruction consumes.
func (c *Compiler) sampledImage(tex resourceVar, samp regVar) uint32 {
	imageID := c.b.AddLoad(tex.ImageType, tex.VarID)
	samplerID := c.b.AddLoad(samp.Elem, samp.VarID)
	siType := c.b.AddTypeSampledImage(tex.ImageType)
	return c.b.AddSampledImage(siType, imageID, samplerID)
}

// constTexelOffset builds the constant i32 offset vector an instruction's
// SampleControls encode, or nil when all axes are zero. The vector's
// width matches the gradient (non-layer) coordinate count.
func (c *Compiler) constTexelOffset(inst *dxbc.Instruction, dim dxbc.ResourceDim) *uint32 {
	sc := inst.Sample
	if sc.U == 0 && sc.V == 0 && sc.W == 0 {
		return nil
	}
	axes := []int32{sc.U, sc.V, sc.W}
	n := gradSize(dim)
	if n > 3 {
		n = 3
	}
	i32Type := c.types.Scalar(dxbc.ScalarI32)
	if n == 1 {
		id := c.b.AddConstant(i32Type, uint32(axes[0]))
		return &id
	}
	ids := make([]uint32, n)
	for i := 0; i < n; i++ {
		ids[i] = c.b.AddConstant(i32Type, uint32(axes[i]))
	}
	vecType := c.types.Vector(dxbc.ScalarI32, n)
	id := c.b.AddConstantComposite(vecType, ids...)
	return &id
}

// lowerSample handles the Sample*/Gather4* family (spec.md §4.7 "Texture
// sampling"): dst, coord, resource, sampler, plus the variant's extra
// operand (lod, bias, gradients, or depth reference).
func (c *Compiler) lowerSample(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	resOp := &inst.Src[1]
	tex, err := c.textureOperand(resOp)
	if err != nil {
		return err
	}
	if tex.ImageType == 0 {
		return newErr(ErrInvalidOperand, "raw/structured buffer cannot be sampled")
	}
	samp, err := c.samplerOperand(&inst.Src[2])
	if err != nil {
		return err
	}

	coord, err := c.loadSrc(&inst.Src[0], dxbc.ScalarF32, coordSize(tex.Dim))
	if err != nil {
		return err
	}
	si := c.sampledImage(tex, samp)

	operands := spirv.ImageOperands{ConstOffset: c.constTexelOffset(inst, tex.Dim)}
	resultVec4 := c.types.Vector(tex.SampledType, 4)
	scalarF32 := c.types.Scalar(dxbc.ScalarF32)

	var result Value
	switch inst.Opcode {
	case dxbc.OpSample:
		id := c.b.AddImageOp(spirv.OpImageSampleImplicitLod, resultVec4, []uint32{si, coord.ID}, operands)
		result = Value{ID: id, Scalar: tex.SampledType, Count: 4}

	case dxbc.OpSampleL:
		lod, err := c.loadSrc(&inst.Src[3], dxbc.ScalarF32, 1)
		if err != nil {
			return err
		}
		operands.Lod = &lod.ID
		id := c.b.AddImageOp(spirv.OpImageSampleExplicitLod, resultVec4, []uint32{si, coord.ID}, operands)
		result = Value{ID: id, Scalar: tex.SampledType, Count: 4}

	case dxbc.OpSampleB:
		bias, err := c.loadSrc(&inst.Src[3], dxbc.ScalarF32, 1)
		if err != nil {
			return err
		}
		operands.Bias = &bias.ID
		id := c.b.AddImageOp(spirv.OpImageSampleImplicitLod, resultVec4, []uint32{si, coord.ID}, operands)
		result = Value{ID: id, Scalar: tex.SampledType, Count: 4}

	case dxbc.OpSampleD:
		n := gradSize(tex.Dim)
		dx, err := c.loadSrc(&inst.Src[3], dxbc.ScalarF32, n)
		if err != nil {
			return err
		}
		dy, err := c.loadSrc(&inst.Src[4], dxbc.ScalarF32, n)
		if err != nil {
			return err
		}
		operands.GradDx, operands.GradDy = &dx.ID, &dy.ID
		id := c.b.AddImageOp(spirv.OpImageSampleExplicitLod, resultVec4, []uint32{si, coord.ID}, operands)
		result = Value{ID: id, Scalar: tex.SampledType, Count: 4}

	case dxbc.OpSampleC:
		dref, err := c.loadSrc(&inst.Src[3], dxbc.ScalarF32, 1)
		if err != nil {
			return err
		}
		id := c.b.AddImageOp(spirv.OpImageSampleDrefImplicitLod, scalarF32, []uint32{si, coord.ID, dref.ID}, operands)
		return c.storeDst(dst, Value{ID: id, Scalar: dxbc.ScalarF32, Count: 1}, inst.Saturate)

	case dxbc.OpSampleCLZ:
		dref, err := c.loadSrc(&inst.Src[3], dxbc.ScalarF32, 1)
		if err != nil {
			return err
		}
		lodZero := c.constF32(0, 1)
		operands.Lod = &lodZero.ID
		id := c.b.AddImageOp(spirv.OpImageSampleDrefExplicitLod, scalarF32, []uint32{si, coord.ID, dref.ID}, operands)
		return c.storeDst(dst, Value{ID: id, Scalar: dxbc.ScalarF32, Count: 1}, inst.Saturate)

	case dxbc.OpGather4:
		// The gathered component is selected by the sampler operand's
		// swizzle, per the gather4 encoding.
		component := c.constI32(int32(inst.Src[2].EffectiveSwizzle()[0]), 1)
		id := c.b.AddImageOp(spirv.OpImageGather, resultVec4, []uint32{si, coord.ID, component.ID}, operands)
		result = Value{ID: id, Scalar: tex.SampledType, Count: 4}

	case dxbc.OpGather4C:
		dref, err := c.loadSrc(&inst.Src[3], dxbc.ScalarF32, 1)
		if err != nil {
			return err
		}
		id := c.b.AddImageOp(spirv.OpImageDrefGather, resultVec4, []uint32{si, coord.ID, dref.ID}, operands)
		result = Value{ID: id, Scalar: tex.SampledType, Count: 4}

	default:
		return newErr(ErrUnhandledOpcode, "sample opcode %d has no lowering", inst.Opcode)
	}

	// Apply the texture swizzle from the resource operand, then the dst
	// mask, then let storeDst bit-cast into the destination's type.
	swizzled, err := c.shuffleForRead(result, resOp, count)
	if err != nil {
		return err
	}
	return c.storeDst(dst, swizzled, inst.Saturate)
}
