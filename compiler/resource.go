package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// bufferBacking describes the addressable word storage behind a raw or
// structured resource operand: either an SSBO-backed t#/u# register or a
// TGSM g# bank. It is the common currency of the ld_raw/store_raw/
// ld_structured/store_structured/atomic lowerings.
type bufferBacking struct {
	VarID       uint32
	ElemPtrType uint32
	StrideWords uint32
	Workgroup   bool // TGSM vs. storage buffer
}

// bufferOperand resolves an operand naming raw/structured word storage.
func (c *Compiler) bufferOperand(op *dxbc.Operand) (bufferBacking, error) {
	index := uint32(op.Index[0].Imm)
	switch op.Type {
	case dxbc.OperandResource, dxbc.OperandUAV:
		rv, err := c.textureOperand(op)
		if err != nil {
			return bufferBacking{}, err
		}
		if rv.StructID == 0 {
			return bufferBacking{}, newErr(ErrInvalidOperand, "resource register is not a raw/structured buffer")
		}
		return bufferBacking{VarID: rv.VarID, ElemPtrType: rv.PtrType, StrideWords: rv.StrideWords}, nil
	case dxbc.OperandThreadGroupShared:
		rv, ok := c.regs.tgsm[index]
		if !ok {
			return bufferBacking{}, newErr(ErrInvalidRegisterIndex, "g%d used without a prior dcl_tgsm", index)
		}
		return bufferBacking{VarID: rv.VarID, ElemPtrType: rv.PtrType, StrideWords: c.regs.tgsmStride[index], Workgroup: true}, nil
	default:
		return bufferBacking{}, newErr(ErrInvalidOperand, "operand type %d is not raw/structured storage", op.Type)
	}
}

// wordPointer builds the access chain to one 32-bit word of a buffer
// backing. SSBOs interpose the wrapping block struct's member 0; TGSM
// banks are bare arrays.
func (c *Compiler) wordPointer(buf bufferBacking, wordIndex uint32) uint32 {
	if buf.Workgroup {
		return c.b.AddAccessChain(buf.ElemPtrType, buf.VarID, wordIndex)
	}
	member := c.constU32(0, 1)
	return c.b.AddAccessChain(buf.ElemPtrType, buf.VarID, member.ID, wordIndex)
}

// byteAddrToWordIndex divides a byte address by four.
func (c *Compiler) byteAddrToWordIndex(addr Value) uint32 {
	two := c.constU32(2, 1)
	u32Type := c.types.Scalar(dxbc.ScalarU32)
	return c.b.AddBinaryOp(spirv.OpShiftRightLogical, u32Type, addr.ID, two.ID)
}

// structuredWordIndex computes elementIndex*stride + byteOffset/4.
func (c *Compiler) structuredWordIndex(elem, byteOffset Value, strideWords uint32) uint32 {
	u32Type := c.types.Scalar(dxbc.ScalarU32)
	stride := c.constU32(strideWords, 1)
	base := c.b.AddBinaryOp(spirv.OpIMul, u32Type, elem.ID, stride.ID)
	off := c.byteAddrToWordIndex(byteOffset)
	return c.b.AddBinaryOp(spirv.OpIAdd, u32Type, base, off)
}

// loadBufferWords loads popcount(dst.Mask) consecutive-ish words starting
// at baseWord, picking per-lane word offsets from the resource operand's
// swizzle, and assembles them into a u32 vector.
func (c *Compiler) loadBufferWords(buf bufferBacking, baseWord uint32, resOp *dxbc.Operand, count int) Value {
	u32Type := c.types.Scalar(dxbc.ScalarU32)
	swz := resOp.EffectiveSwizzle()
	ids := make([]uint32, count)
	for i := 0; i < count; i++ {
		idx := baseWord
		if off := uint32(swz[i]); off != 0 {
			offID := c.constU32(off, 1)
			idx = c.b.AddBinaryOp(spirv.OpIAdd, u32Type, baseWord, offID.ID)
		}
		ptr := c.wordPointer(buf, idx)
		ids[i] = c.b.AddLoad(u32Type, ptr)
	}
	if count == 1 {
		return Value{ID: ids[0], Scalar: dxbc.ScalarU32, Count: 1}
	}
	vecType := c.types.Vector(dxbc.ScalarU32, count)
	return Value{ID: c.b.AddCompositeConstruct(vecType, ids...), Scalar: dxbc.ScalarU32, Count: count}
}

// storeBufferWords scatters a u32 vector into the words selected by the
// destination operand's mask: lane k of the value goes to word
// baseWord + (k'th set component of the mask).
func (c *Compiler) storeBufferWords(buf bufferBacking, baseWord uint32, dst *dxbc.Operand, v Value) {
	u32Type := c.types.Scalar(dxbc.ScalarU32)
	comps := dst.Mask.Components()
	for i, comp := range comps {
		idx := baseWord
		if comp != 0 {
			offID := c.constU32(uint32(comp), 1)
			idx = c.b.AddBinaryOp(spirv.OpIAdd, u32Type, baseWord, offID.ID)
		}
		lane := v.ID
		if v.Count > 1 {
			lane = c.b.AddCompositeExtract(u32Type, v.ID, uint32(i))
		}
		ptr := c.wordPointer(buf, idx)
		c.b.AddStore(ptr, lane)
	}
}

// lowerLoad handles Ld/LdMS (texture fetch), LdUavTyped (storage-image
// read), and LdRaw/LdStructured (buffer word loads) — spec.md §4.7.
func (c *Compiler) lowerLoad(inst *dxbc.Instruction) error {
	switch inst.Opcode {
	case dxbc.OpLd, dxbc.OpLdMS:
		return c.lowerTextureFetch(inst)
	case dxbc.OpLdUavTyped:
		return c.lowerUavRead(inst)
	case dxbc.OpLdRaw:
		return c.lowerLdRaw(inst)
	case dxbc.OpLdStructured:
		return c.lowerLdStructured(inst)
	default:
		return newErr(ErrUnhandledOpcode, "load opcode %d has no lowering", inst.Opcode)
	}
}

func (c *Compiler) lowerTextureFetch(inst *dxbc.Instruction) error {
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
		return newErr(ErrInvalidOperand, "ld requires a typed resource")
	}

	// The address operand carries the texel coordinate in its leading
	// components and — for mipmapped fetches — the mip level in .w.
	full, err := c.loadSrc(&inst.Src[0], dxbc.ScalarI32, 4)
	if err != nil {
		return err
	}
	n := coordSize(tex.Dim)
	var coordID uint32
	if n == 1 {
		coordID = c.b.AddCompositeExtract(c.types.Scalar(dxbc.ScalarI32), full.ID, 0)
	} else {
		indices := make([]uint32, n)
		for i := range indices {
			indices[i] = uint32(i)
		}
		coordID = c.b.AddVectorShuffle(c.types.Vector(dxbc.ScalarI32, n), full.ID, full.ID, indices)
	}

	imageID := c.b.AddLoad(tex.ImageType, tex.VarID)
	var operands spirv.ImageOperands
	switch {
	case inst.Opcode == dxbc.OpLdMS:
		sample, err := c.loadSrc(&inst.Src[2], dxbc.ScalarI32, 1)
		if err != nil {
			return err
		}
		operands.Sample = &sample.ID
	case tex.Dim != dxbc.ResourceDimBuffer && !tex.MS:
		lod := c.b.AddCompositeExtract(c.types.Scalar(dxbc.ScalarI32), full.ID, 3)
		operands.Lod = &lod
	}

	resultVec4 := c.types.Vector(tex.SampledType, 4)
	id := c.b.AddImageOp(spirv.OpImageFetch, resultVec4, []uint32{imageID, coordID}, operands)
	result := Value{ID: id, Scalar: tex.SampledType, Count: 4}
	swizzled, err := c.shuffleForRead(result, resOp, count)
	if err != nil {
		return err
	}
	return c.storeDst(dst, swizzled, inst.Saturate)
}

func (c *Compiler) lowerUavRead(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	resOp := &inst.Src[1]
	uav, err := c.textureOperand(resOp)
	if err != nil {
		return err
	}
	if uav.ImageType == 0 {
		return newErr(ErrInvalidOperand, "ld_uav_typed requires a typed UAV")
	}
	coord, err := c.loadSrc(&inst.Src[0], dxbc.ScalarI32, coordSize(uav.Dim))
	if err != nil {
		return err
	}
	imageID := c.b.AddLoad(uav.ImageType, uav.VarID)
	resultVec4 := c.types.Vector(uav.SampledType, 4)
	id := c.b.AddImageOp(spirv.OpImageRead, resultVec4, []uint32{imageID, coord.ID}, spirv.ImageOperands{})
	result := Value{ID: id, Scalar: uav.SampledType, Count: 4}
	swizzled, err := c.shuffleForRead(result, resOp, count)
	if err != nil {
		return err
	}
	return c.storeDst(dst, swizzled, inst.Saturate)
}

func (c *Compiler) lowerLdRaw(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	buf, err := c.bufferOperand(&inst.Src[1])
	if err != nil {
		return err
	}
	addr, err := c.loadSrc(&inst.Src[0], dxbc.ScalarU32, 1)
	if err != nil {
		return err
	}
	base := c.byteAddrToWordIndex(addr)
	v := c.loadBufferWords(buf, base, &inst.Src[1], count)
	return c.storeDst(dst, v, false)
}

func (c *Compiler) lowerLdStructured(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	buf, err := c.bufferOperand(&inst.Src[2])
	if err != nil {
		return err
	}
	elem, err := c.loadSrc(&inst.Src[0], dxbc.ScalarU32, 1)
	if err != nil {
		return err
	}
	off, err := c.loadSrc(&inst.Src[1], dxbc.ScalarU32, 1)
	if err != nil {
		return err
	}
	base := c.structuredWordIndex(elem, off, buf.StrideWords)
	v := c.loadBufferWords(buf, base, &inst.Src[2], count)
	return c.storeDst(dst, v, false)
}

// lowerStoreResource handles StoreUavTyped/StoreRaw/StoreStructured.
func (c *Compiler) lowerStoreResource(inst *dxbc.Instruction) error {
	switch inst.Opcode {
	case dxbc.OpStoreUavTyped:
		return c.lowerUavWrite(inst)
	case dxbc.OpStoreRaw:
		return c.lowerStoreRaw(inst)
	case dxbc.OpStoreStructured:
		return c.lowerStoreStructured(inst)
	default:
		return newErr(ErrUnhandledOpcode, "store opcode %d has no lowering", inst.Opcode)
	}
}

func (c *Compiler) lowerUavWrite(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	uav, err := c.textureOperand(dst)
	if err != nil {
		return err
	}
	if uav.ImageType == 0 {
		return newErr(ErrInvalidOperand, "store_uav_typed requires a typed UAV")
	}
	coord, err := c.loadSrc(&inst.Src[0], dxbc.ScalarI32, coordSize(uav.Dim))
	if err != nil {
		return err
	}
	value, err := c.loadSrc(&inst.Src[1], uav.SampledType, 4)
	if err != nil {
		return err
	}
	imageID := c.b.AddLoad(uav.ImageType, uav.VarID)
	c.b.AddImageOpNoResult(spirv.OpImageWrite, []uint32{imageID, coord.ID, value.ID}, spirv.ImageOperands{})
	return nil
}

func (c *Compiler) lowerStoreRaw(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	buf, err := c.bufferOperand(dst)
	if err != nil {
		return err
	}
	addr, err := c.loadSrc(&inst.Src[0], dxbc.ScalarU32, 1)
	if err != nil {
		return err
	}
	value, err := c.loadSrc(&inst.Src[1], dxbc.ScalarU32, count)
	if err != nil {
		return err
	}
	base := c.byteAddrToWordIndex(addr)
	c.storeBufferWords(buf, base, dst, value)
	return nil
}

func (c *Compiler) lowerStoreStructured(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	buf, err := c.bufferOperand(dst)
	if err != nil {
		return err
	}
	elem, err := c.loadSrc(&inst.Src[0], dxbc.ScalarU32, 1)
	if err != nil {
		return err
	}
	off, err := c.loadSrc(&inst.Src[1], dxbc.ScalarU32, 1)
	if err != nil {
		return err
	}
	value, err := c.loadSrc(&inst.Src[2], dxbc.ScalarU32, count)
	if err != nil {
		return err
	}
	base := c.structuredWordIndex(elem, off, buf.StrideWords)
	c.storeBufferWords(buf, base, dst, value)
	return nil
}

// querySizeComponents returns how many components an image size query
// yields for a dimension (width[, height][, depth-or-layers]).
func querySizeComponents(dim dxbc.ResourceDim) int {
	switch dim {
	case dxbc.ResourceDimBuffer, dxbc.ResourceDimTexture1D:
		return 1
	case dxbc.ResourceDimTexture1DArray, dxbc.ResourceDimTexture2D,
		dxbc.ResourceDimTexture2DMS, dxbc.ResourceDimTextureCube:
		return 2
	case dxbc.ResourceDimTexture2DArray, dxbc.ResourceDimTexture2DMSArray,
		dxbc.ResourceDimTexture3D, dxbc.ResourceDimTextureCubeArray:
		return 3
	default:
		return 2
	}
}

// lowerResInfo handles the resource-query opcodes ResInfo, Lod, and
// BufInfo (spec.md §4.7 "Texture sampling" query family).
func (c *Compiler) lowerResInfo(inst *dxbc.Instruction) error {
	switch inst.Opcode {
	case dxbc.OpResInfo:
		return c.lowerResInfoQuery(inst)
	case dxbc.OpLod:
		return c.lowerLodQuery(inst)
	case dxbc.OpBufInfo:
		return c.lowerBufInfo(inst)
	default:
		return newErr(ErrUnhandledOpcode, "query opcode %d has no lowering", inst.Opcode)
	}
}

func (c *Compiler) lowerResInfoQuery(inst *dxbc.Instruction) error {
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
		return newErr(ErrInvalidOperand, "resinfo requires a typed resource")
	}
	c.b.AddCapability(spirv.CapabilityImageQuery)

	imageID := c.b.AddLoad(tex.ImageType, tex.VarID)
	n := querySizeComponents(tex.Dim)
	sizeType := c.types.Vector(dxbc.ScalarU32, n)
	u32Type := c.types.Scalar(dxbc.ScalarU32)

	var sizeID, mipsID uint32
	if tex.MS || tex.Dim == dxbc.ResourceDimBuffer {
		sizeID = c.b.AddUnaryOp(spirv.OpImageQuerySize, sizeType, imageID)
		mipsID = c.constU32(1, 1).ID
	} else {
		mip, err := c.loadSrc(&inst.Src[0], dxbc.ScalarI32, 1)
		if err != nil {
			return err
		}
		sizeID = c.b.AddBinaryOp(spirv.OpImageQuerySizeLod, sizeType, imageID, mip.ID)
		mipsID = c.b.AddUnaryOp(spirv.OpImageQueryLevels, u32Type, imageID)
	}

	// Assemble the resinfo result layout: width, height, depth/layers,
	// mip count, zero-filled where the dimensionality has no value.
	lanes := make([]uint32, 4)
	zero := c.constU32(0, 1).ID
	for i := 0; i < 3; i++ {
		if i < n {
			if n == 1 {
				lanes[i] = sizeID
			} else {
				lanes[i] = c.b.AddCompositeExtract(u32Type, sizeID, uint32(i))
			}
		} else {
			lanes[i] = zero
		}
	}
	lanes[3] = mipsID

	asUint := inst.ResInfoRetType == dxbc.ReturnTypeSint
	scalar := dxbc.ScalarF32
	if asUint {
		scalar = dxbc.ScalarU32
	}
	if !asUint {
		f32Type := c.types.Scalar(dxbc.ScalarF32)
		for i := range lanes {
			lanes[i] = c.b.AddUnaryOp(spirv.OpConvertUToF, f32Type, lanes[i])
		}
	}
	vec4 := c.types.Vector(scalar, 4)
	result := Value{ID: c.b.AddCompositeConstruct(vec4, lanes...), Scalar: scalar, Count: 4}

	swizzled, err := c.shuffleForRead(result, resOp, count)
	if err != nil {
		return err
	}
	return c.storeDst(dst, swizzled, false)
}

func (c *Compiler) lowerLodQuery(inst *dxbc.Instruction) error {
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
		return newErr(ErrInvalidOperand, "lod requires a typed resource")
	}
	samp, err := c.samplerOperand(&inst.Src[2])
	if err != nil {
		return err
	}
	c.b.AddCapability(spirv.CapabilityImageQuery)

	coord, err := c.loadSrc(&inst.Src[0], dxbc.ScalarF32, gradSize(tex.Dim))
	if err != nil {
		return err
	}
	si := c.sampledImage(tex, samp)
	vec2 := c.types.Vector(dxbc.ScalarF32, 2)
	lodID := c.b.AddBinaryOp(spirv.OpImageQueryLod, vec2, si, coord.ID)

	// lod yields (clamped, unclamped); widen to vec4 so the resource
	// swizzle applies uniformly.
	vec4 := c.types.Vector(dxbc.ScalarF32, 4)
	wide := c.b.AddVectorShuffle(vec4, lodID, lodID, []uint32{0, 1, 0, 1})
	result := Value{ID: wide, Scalar: dxbc.ScalarF32, Count: 4}

	swizzled, err := c.shuffleForRead(result, resOp, count)
	if err != nil {
		return err
	}
	return c.storeDst(dst, swizzled, false)
}

func (c *Compiler) lowerBufInfo(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	resOp := &inst.Src[0]
	rv, err := c.textureOperand(resOp)
	if err != nil {
		return err
	}
	u32Type := c.types.Scalar(dxbc.ScalarU32)

	var lenID uint32
	if rv.StructID != 0 {
		lenID = c.b.AddArrayLength(u32Type, rv.VarID, 0)
		if rv.StrideWords > 1 {
			stride := c.constU32(rv.StrideWords, 1)
			lenID = c.b.AddBinaryOp(spirv.OpUDiv, u32Type, lenID, stride.ID)
		}
	} else if rv.Dim == dxbc.ResourceDimBuffer {
		c.b.AddCapability(spirv.CapabilityImageQuery)
		imageID := c.b.AddLoad(rv.ImageType, rv.VarID)
		lenID = c.b.AddUnaryOp(spirv.OpImageQuerySize, u32Type, imageID)
	} else {
		return newErr(ErrInvalidOperand, "bufinfo requires a buffer resource")
	}
	return c.storeDst(dst, Value{ID: lenID, Scalar: dxbc.ScalarU32, Count: 1}, false)
}

// lowerSampleInfo reports a multisampled resource's sample count. The
// host-side multisample state this opcode can also query lives outside
// this core, so only the resource form is wired (the rasterizer form
// yields a conservative 1).
func (c *Compiler) lowerSampleInfo(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	src := &inst.Src[0]
	u32Type := c.types.Scalar(dxbc.ScalarU32)
	var samplesID uint32
	if src.Type == dxbc.OperandResource || src.Type == dxbc.OperandUAV {
		rv, err := c.textureOperand(src)
		if err != nil {
			return err
		}
		if rv.ImageType == 0 || !rv.MS {
			return newErr(ErrInvalidOperand, "sampleinfo requires a multisampled resource")
		}
		c.b.AddCapability(spirv.CapabilityImageQuery)
		imageID := c.b.AddLoad(rv.ImageType, rv.VarID)
		samplesID = c.b.AddUnaryOp(spirv.OpImageQuerySamples, u32Type, imageID)
	} else {
		c.warnf("sampleinfo on the rasterizer state is outside this core; yielding 1")
		samplesID = c.constU32(1, 1).ID
	}
	return c.storeDst(dst, Value{ID: samplesID, Scalar: dxbc.ScalarU32, Count: 1}, false)
}

// lowerSamplePos yields (0, 0, 0, 0): standard sample positions live in
// the excluded host multisample state.
func (c *Compiler) lowerSamplePos(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	count := dst.Mask.Popcount()
	if count == 0 {
		return nil
	}
	c.warnf("samplepos yields a zero position; standard sample locations are host state")
	return c.storeDst(dst, c.constF32(0, count), false)
}
