package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// lowerDecl dispatches one Dcl* opcode to the register-file mutation it
// describes (spec.md §4.7 "Declarations"). Declarations never emit
// executable code themselves; they only grow the register-file maps
// later instructions (and stage finalization) read from.
func (c *Compiler) lowerDecl(inst *dxbc.Instruction) error {
	switch inst.Opcode {
	case dxbc.OpDclGlobalFlags:
		if inst.GlobalFlags&dxbc.GlobalFlagDoublePrecision != 0 {
			c.b.AddCapability(spirv.CapabilityFloat64)
		}
		if inst.GlobalFlags&dxbc.GlobalFlagEarlyDepthStencil != 0 && c.stage == dxbc.ProgramPixel {
			c.b.AddExecutionMode(c.entryPointID, spirv.ExecutionModeEarlyFragmentTests)
		}
		return nil // refactoring/raw-structured flags don't affect this core's lowering
	case dxbc.OpDclTemps:
		c.declTemps(inst.Imm[0])
		return nil
	case dxbc.OpDclIndexableTemp:
		return c.declIndexableTemp(inst)
	case dxbc.OpDclInput:
		return c.declInput(inst, dxbc.SystemValueUndefined, dxbc.InterpolationUndefined)
	case dxbc.OpDclInputSgv, dxbc.OpDclInputSiv:
		return c.declInputSysValue(inst)
	case dxbc.OpDclInputPS:
		return c.declInput(inst, dxbc.SystemValueUndefined, inst.Interpolation)
	case dxbc.OpDclInputPSSgv, dxbc.OpDclInputPSSiv:
		return c.declInputSysValue(inst)
	case dxbc.OpDclOutput:
		return c.declOutput(inst, dxbc.SystemValueUndefined)
	case dxbc.OpDclOutputSgv, dxbc.OpDclOutputSiv:
		return c.declOutputSysValue(inst)
	case dxbc.OpDclConstantBuffer:
		return c.declConstantBuffer(inst)
	case dxbc.OpDclSampler:
		return c.declSampler(inst)
	case dxbc.OpDclResource:
		return c.declResource(inst, false, false)
	case dxbc.OpDclResourceRaw:
		return c.declResourceRaw(inst, false)
	case dxbc.OpDclResourceStructured:
		return c.declResourceStructured(inst, false)
	case dxbc.OpDclUavTyped:
		return c.declResource(inst, true, false)
	case dxbc.OpDclUavRaw:
		return c.declResourceRaw(inst, true)
	case dxbc.OpDclUavStructured:
		return c.declResourceStructured(inst, true)
	case dxbc.OpDclTgsmRaw:
		return c.declTgsmRaw(inst)
	case dxbc.OpDclTgsmStructured:
		return c.declTgsmStructured(inst)
	case dxbc.OpDclThreadGroup:
		c.stageSt.threadGroupSize = [3]uint32{inst.Imm[0], inst.Imm[1], inst.Imm[2]}
		return nil
	case dxbc.OpDclMaxOutputVertexCount:
		c.stageSt.maxOutputVertexCount = inst.Imm[0]
		return nil
	case dxbc.OpDclGsInstanceCount:
		c.stageSt.gsInstanceCount = inst.Imm[0]
		return nil
	case dxbc.OpDclInputControlPointCount, dxbc.OpDclOutputControlPointCount,
		dxbc.OpDclTessDomain, dxbc.OpDclTessPartitioning, dxbc.OpDclTessOutputPrimitive,
		dxbc.OpDclGsInputPrimitive, dxbc.OpDclGsOutputPrimitiveTopology, dxbc.OpDclIndexRange:
		// Topology/tessellation metadata is recorded for diagnostics but this
		// core emits a fixed-function-agnostic module: the actual
		// execution mode these control is set conservatively by the stage
		// hooks (spec.md's Open Question on hull/domain scope).
		c.warnf("declaration opcode %d accepted without full fixed-function wiring", inst.Opcode)
		return nil
	default:
		return newErr(ErrUnhandledOpcode, "unhandled declaration opcode %d", inst.Opcode)
	}
}

func (c *Compiler) declIndexableTemp(inst *dxbc.Instruction) error {
	bank := inst.Imm[0]
	count := inst.Imm[1]
	comps := inst.Imm[2]
	elemType := c.types.Vector(dxbc.ScalarF32, 4)
	lenID := c.b.AddConstant(c.types.Scalar(dxbc.ScalarU32), count)
	arrType := c.b.AddTypeArray(elemType, lenID)
	ptrType := c.types.Pointer(spirv.StorageClassPrivate, arrType)
	varID := c.b.AddVariable(ptrType, spirv.StorageClassPrivate)
	if c.opts.Debug {
		c.b.AddName(varID, "x"+itoa(bank))
	}
	elemPtrType := c.types.Pointer(spirv.StorageClassPrivate, elemType)
	entry := regVar{VarID: varID, PtrType: elemPtrType, Elem: elemType, Scalar: dxbc.ScalarF32, Count: int(comps), Storage: spirv.StorageClassPrivate}
	c.regs.indexableTemp[bank] = []regVar{entry}
	return nil
}

func (c *Compiler) declInput(inst *dxbc.Instruction, sv dxbc.SystemValue, interp dxbc.InterpolationMode) error {
	dst := &inst.Dst[0]
	index := uint32(dst.Index[0].Imm)
	mask := c.in.ByRegisterMask(index)
	if mask == 0 {
		mask = dxbc.MaskXYZW
	}
	scalar := dxbc.ScalarF32
	count := mask.Popcount()
	builtin, isBuiltin := inputBuiltinFor(sv)
	if isBuiltin {
		if s, n, ok := builtinVarShape(builtin); ok {
			scalar, count = s, n
		}
	}
	elem := c.types.Vector(scalar, count)
	ptr := c.types.Pointer(spirv.StorageClassInput, elem)
	varID := c.b.AddVariable(ptr, spirv.StorageClassInput)
	if c.opts.Debug {
		c.b.AddName(varID, regDebugName("v", index))
	}
	if isBuiltin {
		c.b.AddDecorate(varID, spirv.DecorationBuiltIn, uint32(builtin))
		// Integer varyings read by the fragment stage must be flat.
		if c.stage == dxbc.ProgramPixel && scalar != dxbc.ScalarF32 {
			c.b.AddDecorate(varID, spirv.DecorationFlat)
		}
	} else {
		c.b.AddDecorate(varID, spirv.DecorationLocation, index)
	}
	switch interp {
	case dxbc.InterpolationConstant:
		c.b.AddDecorate(varID, spirv.DecorationFlat)
	case dxbc.InterpolationLinearNoPerspective, dxbc.InterpolationLinearNoPerspectiveCentroid, dxbc.InterpolationLinearNoPerspectiveSample:
		c.b.AddDecorate(varID, spirv.DecorationNoPerspective)
	}
	c.interfaceIDs = append(c.interfaceIDs, varID)
	c.regs.inputs[index] = regVar{VarID: varID, PtrType: ptr, Elem: elem, Scalar: scalar, Count: count, Storage: spirv.StorageClassInput}
	return nil
}

// declSysValue resolves the system value a dcl_*_sgv/siv declaration
// binds: the signature table carries it per register (parsed straight
// from the ISGN/OSGN chunk), with the declaration's own trailing
// system-value operand as the fallback when the signature is silent.
func declSysValue(table *dxbc.SignatureTable, index uint32, inst *dxbc.Instruction) dxbc.SystemValue {
	if el := table.ByRegister(index); el != nil && el.SystemValue != dxbc.SystemValueUndefined {
		return el.SystemValue
	}
	if len(inst.Imm) > 0 {
		return dxbc.SystemValue(inst.Imm[0])
	}
	return dxbc.SystemValueUndefined
}

// declInputSysValue handles DclInputSgv/DclInputSiv/DclInputPSSgv/
// DclInputPSSiv.
func (c *Compiler) declInputSysValue(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	index := uint32(dst.Index[0].Imm)
	sv := declSysValue(c.in, index, inst)
	c.regs.inputSysValues = append(c.regs.inputSysValues, sysValueMapping{Register: index, Mask: dst.Mask, SysValue: sv})
	return c.declInput(inst, sv, inst.Interpolation)
}

func (c *Compiler) declOutput(inst *dxbc.Instruction, sv dxbc.SystemValue) error {
	dst := &inst.Dst[0]
	index := uint32(dst.Index[0].Imm)

	// Per-vertex system values live in the gl_PerVertex block; the o#
	// register becomes private storage the entry point (or each
	// geometry emit) copies into the block member.
	if _, ok := perVertexMember(sv); ok && usesPerVertex(c.stage) {
		c.regs.outputs[index] = c.declPrivateFloat4(regDebugName("o", index))
		return nil
	}

	mask := c.out.ByRegisterMask(index)
	if mask == 0 {
		mask = dxbc.MaskXYZW
	}
	scalar := dxbc.ScalarF32
	count := mask.Popcount()
	builtin, isBuiltin := outputBuiltinFor(sv)
	if isBuiltin {
		if s, n, ok := builtinVarShape(builtin); ok {
			scalar, count = s, n
		}
	}
	elem := c.types.Vector(scalar, count)
	ptr := c.types.Pointer(spirv.StorageClassOutput, elem)
	varID := c.b.AddVariable(ptr, spirv.StorageClassOutput)
	if c.opts.Debug {
		c.b.AddName(varID, regDebugName("o", index))
	}
	if isBuiltin {
		switch builtin {
		case spirv.BuiltInFragDepth:
			c.b.AddExecutionMode(c.entryPointID, spirv.ExecutionModeDepthReplacing)
		case spirv.BuiltInViewportIndex:
			c.b.AddCapability(spirv.CapabilityMultiViewport)
		}
		c.b.AddDecorate(varID, spirv.DecorationBuiltIn, uint32(builtin))
	} else {
		c.b.AddDecorate(varID, spirv.DecorationLocation, index)
	}
	c.interfaceIDs = append(c.interfaceIDs, varID)
	c.regs.outputs[index] = regVar{VarID: varID, PtrType: ptr, Elem: elem, Scalar: scalar, Count: count, Storage: spirv.StorageClassOutput}
	return nil
}

// declOutputSysValue handles DclOutputSgv/DclOutputSiv.
func (c *Compiler) declOutputSysValue(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	index := uint32(dst.Index[0].Imm)
	sv := declSysValue(c.out, index, inst)
	c.regs.outputSysValues = append(c.regs.outputSysValues, sysValueMapping{Register: index, Mask: dst.Mask, SysValue: sv})
	return c.declOutput(inst, sv)
}

func inputBuiltinFor(sv dxbc.SystemValue) (spirv.BuiltIn, bool) {
	switch sv {
	case dxbc.SystemValuePosition:
		return spirv.BuiltInFragCoord, true
	case dxbc.SystemValueVertexID:
		return spirv.BuiltInVertexIndex, true
	case dxbc.SystemValueInstanceID:
		return spirv.BuiltInInstanceIndex, true
	case dxbc.SystemValuePrimitiveID:
		return spirv.BuiltInPrimitiveID, true
	case dxbc.SystemValueIsFrontFace:
		return spirv.BuiltInFrontFacing, true
	case dxbc.SystemValueSampleIndex:
		return spirv.BuiltInSampleID, true
	case dxbc.SystemValueRenderTargetArrayIndex:
		return spirv.BuiltInLayer, true
	case dxbc.SystemValueViewportArrayIndex:
		return spirv.BuiltInViewportIndex, true
	default:
		return 0, false
	}
}

// outputBuiltinFor maps system values that decorate a standalone output
// variable. Position/ClipDistance/CullDistance are absent on purpose in
// the stages that carry a gl_PerVertex block — perVertexMember handles
// them there; Position remains here for the control-point stages this
// core treats conservatively.
func outputBuiltinFor(sv dxbc.SystemValue) (spirv.BuiltIn, bool) {
	switch sv {
	case dxbc.SystemValuePosition:
		return spirv.BuiltInPosition, true
	case dxbc.SystemValueDepth:
		return spirv.BuiltInFragDepth, true
	case dxbc.SystemValueRenderTargetArrayIndex:
		return spirv.BuiltInLayer, true
	case dxbc.SystemValueViewportArrayIndex:
		return spirv.BuiltInViewportIndex, true
	default:
		return 0, false
	}
}

// builtinVarShape overrides the signature-derived float shape for
// builtins whose SPIR-V type is fixed: integer scalars for the index
// builtins, a full float4 for positions.
func builtinVarShape(b spirv.BuiltIn) (dxbc.ScalarType, int, bool) {
	switch b {
	case spirv.BuiltInFragCoord, spirv.BuiltInPosition:
		return dxbc.ScalarF32, 4, true
	case spirv.BuiltInFragDepth:
		return dxbc.ScalarF32, 1, true
	case spirv.BuiltInVertexIndex, spirv.BuiltInInstanceIndex,
		spirv.BuiltInPrimitiveID, spirv.BuiltInSampleID,
		spirv.BuiltInLayer, spirv.BuiltInViewportIndex:
		return dxbc.ScalarU32, 1, true
	default:
		return 0, 0, false
	}
}

func (c *Compiler) declConstantBuffer(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	index := uint32(dst.Index[0].Imm)
	length := uint32(dst.Index[1].Imm)
	if length == 0 {
		length = 1
	}
	vec4 := c.types.Vector(dxbc.ScalarF32, 4)
	lenID := c.b.AddConstant(c.types.Scalar(dxbc.ScalarU32), length)
	arrType := c.b.AddTypeArray(vec4, lenID)
	c.b.AddDecorate(arrType, spirv.DecorationArrayStride, 16)
	structType := c.b.AddTypeStruct(arrType)
	c.b.AddDecorate(structType, spirv.DecorationBlock)
	c.b.AddMemberDecorate(structType, 0, spirv.DecorationOffset, 0)
	ptrType := c.types.Pointer(spirv.StorageClassUniform, structType)
	varID := c.b.AddVariable(ptrType, spirv.StorageClassUniform)
	if c.opts.Debug {
		c.b.AddName(varID, regDebugName("cb", index))
	}
	slot := c.opts.Slot(c.stage, BindingUniformBuffer, index)
	c.b.AddDecorate(varID, spirv.DecorationDescriptorSet, 0)
	c.b.AddDecorate(varID, spirv.DecorationBinding, slot)
	c.bindings = append(c.bindings, Binding{Slot: slot, Kind: BindingUniformBuffer})

	elemPtrType := c.types.Pointer(spirv.StorageClassUniform, vec4)
	c.regs.cbuffers[index] = cbufferVar{
		regVar:   regVar{VarID: varID, PtrType: elemPtrType, Elem: vec4, Scalar: dxbc.ScalarF32, Count: 4, Storage: spirv.StorageClassUniform},
		StructID: structType,
		Length:   length,
	}
	return nil
}

func (c *Compiler) declSampler(inst *dxbc.Instruction) error {
	dst := &inst.Dst[0]
	index := uint32(dst.Index[0].Imm)
	samplerType := c.b.AddTypeSampler()
	ptrType := c.types.Pointer(spirv.StorageClassUniformConstant, samplerType)
	varID := c.b.AddVariable(ptrType, spirv.StorageClassUniformConstant)
	if c.opts.Debug {
		c.b.AddName(varID, regDebugName("s", index))
	}
	slot := c.opts.Slot(c.stage, BindingSampler, index)
	c.b.AddDecorate(varID, spirv.DecorationDescriptorSet, 0)
	c.b.AddDecorate(varID, spirv.DecorationBinding, slot)
	c.bindings = append(c.bindings, Binding{Slot: slot, Kind: BindingSampler})
	c.regs.samplers[index] = regVar{VarID: varID, PtrType: ptrType, Elem: samplerType, Storage: spirv.StorageClassUniformConstant}
	return nil
}

// resourceDimInfo maps a DXBC resource dimension to the SPIR-V image
// dimension/arrayed/ms triple (spec.md §4.7 "Resource declarations").
func resourceDimInfo(dim dxbc.ResourceDim) (spirvDim spirv.Dim, arrayed, ms bool, ok bool) {
	switch dim {
	case dxbc.ResourceDimBuffer:
		return spirv.DimBuffer, false, false, true
	case dxbc.ResourceDimTexture1D:
		return spirv.Dim1D, false, false, true
	case dxbc.ResourceDimTexture1DArray:
		return spirv.Dim1D, true, false, true
	case dxbc.ResourceDimTexture2D:
		return spirv.Dim2D, false, false, true
	case dxbc.ResourceDimTexture2DArray:
		return spirv.Dim2D, true, false, true
	case dxbc.ResourceDimTexture2DMS:
		return spirv.Dim2D, false, true, true
	case dxbc.ResourceDimTexture2DMSArray:
		return spirv.Dim2D, true, true, true
	case dxbc.ResourceDimTexture3D:
		return spirv.Dim3D, false, false, true
	case dxbc.ResourceDimTextureCube:
		return spirv.DimCube, false, false, true
	case dxbc.ResourceDimTextureCubeArray:
		return spirv.DimCube, true, false, true
	default:
		return 0, false, false, false
	}
}

func (c *Compiler) declResource(inst *dxbc.Instruction, isUAV bool, forceFloat bool) error {
	dst := &inst.Dst[0]
	index := uint32(dst.Index[0].Imm)
	dim, arrayed, ms, ok := resourceDimInfo(inst.ResourceDim)
	if !ok {
		return newErr(ErrUnknownResourceDim, "resource dimension %d is not a texture/buffer shape", inst.ResourceDim)
	}
	sampledType := componentReturnScalar(inst.ResourceReturnType[0])
	sampledTypeID := c.types.Scalar(sampledType)
	sampled := uint32(1)
	if isUAV {
		sampled = 2
	}
	c.enableResourceCapabilities(dim, arrayed, ms, isUAV)
	imageType := c.b.AddTypeImage(sampledTypeID, uint32(dim), 0, boolToUint(arrayed), boolToUint(ms), sampled, uint32(spirv.ImageFormatUnknown))
	ptrType := c.types.Pointer(spirv.StorageClassUniformConstant, imageType)
	varID := c.b.AddVariable(ptrType, spirv.StorageClassUniformConstant)
	kind := BindingSampledImage
	if isUAV {
		kind = BindingStorageImage
	}
	if c.opts.Debug {
		prefix := "t"
		if isUAV {
			prefix = "u"
		}
		c.b.AddName(varID, regDebugName(prefix, index))
	}
	slot := c.opts.Slot(c.stage, kind, index)
	c.b.AddDecorate(varID, spirv.DecorationDescriptorSet, 0)
	c.b.AddDecorate(varID, spirv.DecorationBinding, slot)
	c.bindings = append(c.bindings, Binding{Slot: slot, Kind: kind})

	rv := resourceVar{VarID: varID, ImageType: imageType, SampledType: sampledType, Dim: inst.ResourceDim, Arrayed: arrayed, MS: ms, IsUAV: isUAV, PtrType: ptrType, Storage: spirv.StorageClassUniformConstant}
	if isUAV {
		c.regs.uavs[index] = rv
	} else {
		c.regs.textures[index] = rv
	}
	return nil
}

func (c *Compiler) declResourceRaw(inst *dxbc.Instruction, isUAV bool) error {
	return c.declStructuredLike(inst, isUAV, true, 1)
}

func (c *Compiler) declResourceStructured(inst *dxbc.Instruction, isUAV bool) error {
	stride := uint32(4)
	if len(inst.Imm) > 0 {
		stride = inst.Imm[0] / 4
		if stride == 0 {
			stride = 1
		}
	}
	return c.declStructuredLike(inst, isUAV, false, stride)
}

// declStructuredLike declares a raw or structured buffer as a
// BufferBlock-decorated struct wrapping a u32 runtime array (ArrayStride 4)
// in the Uniform storage class, for both raw and structured buffers; the
// structured stride is only recorded (in words) on the resourceVar. The
// StorageBuffer storage class is not used.
func (c *Compiler) declStructuredLike(inst *dxbc.Instruction, isUAV, raw bool, strideWords uint32) error {
	dst := &inst.Dst[0]
	index := uint32(dst.Index[0].Imm)
	u32 := c.types.Scalar(dxbc.ScalarU32)
	runtimeArr := c.b.AddTypeRuntimeArray(u32)
	c.b.AddDecorate(runtimeArr, spirv.DecorationArrayStride, 4)
	structType := c.b.AddTypeStruct(runtimeArr)
	c.b.AddDecorate(structType, spirv.DecorationBufferBlock)
	c.b.AddMemberDecorate(structType, 0, spirv.DecorationOffset, 0)
	storage := spirv.StorageClassUniform
	ptrType := c.types.Pointer(storage, structType)
	varID := c.b.AddVariable(ptrType, storage)
	kind := BindingStorageBuffer
	if c.opts.Debug {
		prefix := "t"
		if isUAV {
			prefix = "u"
		}
		c.b.AddName(varID, regDebugName(prefix, index))
	}
	slot := c.opts.Slot(c.stage, kind, index)
	c.b.AddDecorate(varID, spirv.DecorationDescriptorSet, 0)
	c.b.AddDecorate(varID, spirv.DecorationBinding, slot)
	c.bindings = append(c.bindings, Binding{Slot: slot, Kind: kind})

	elemPtrType := c.types.Pointer(storage, u32)
	rv := resourceVar{VarID: varID, SampledType: dxbc.ScalarU32, Raw: raw, IsUAV: isUAV, StrideWords: strideWords, StructID: structType, PtrType: elemPtrType, Storage: storage}
	if isUAV {
		c.regs.uavs[index] = rv
	} else {
		c.regs.textures[index] = rv
	}
	return nil
}

func (c *Compiler) declTgsmRaw(inst *dxbc.Instruction) error {
	return c.declTgsm(inst, inst.Imm[0]/4, 1)
}

func (c *Compiler) declTgsmStructured(inst *dxbc.Instruction) error {
	structStride := inst.Imm[0] / 4
	count := inst.Imm[1]
	if structStride == 0 {
		structStride = 1
	}
	return c.declTgsm(inst, structStride*count, structStride)
}

func (c *Compiler) declTgsm(inst *dxbc.Instruction, lengthWords, strideWords uint32) error {
	dst := &inst.Dst[0]
	index := uint32(dst.Index[0].Imm)
	if lengthWords == 0 {
		lengthWords = 1
	}
	u32 := c.types.Scalar(dxbc.ScalarU32)
	lenID := c.b.AddConstant(u32, lengthWords)
	arrType := c.b.AddTypeArray(u32, lenID)
	ptrType := c.types.Pointer(spirv.StorageClassWorkgroup, arrType)
	varID := c.b.AddVariable(ptrType, spirv.StorageClassWorkgroup)
	if c.opts.Debug {
		c.b.AddName(varID, regDebugName("g", index))
	}
	elemPtrType := c.types.Pointer(spirv.StorageClassWorkgroup, u32)
	c.regs.tgsm[index] = regVar{VarID: varID, PtrType: elemPtrType, Elem: u32, Scalar: dxbc.ScalarU32, Count: int(lengthWords), Storage: spirv.StorageClassWorkgroup}
	c.regs.tgsmStride[index] = strideWords
	return nil
}

// declImmediateConstantBuffer declares the icb register file from a
// CustomData payload: a private float4 array with a constant
// initializer, indexed like a constant buffer but backed by shader
// literals rather than a descriptor.
func (c *Compiler) declImmediateConstantBuffer(payload []uint32) {
	vecCount := len(payload) / 4
	if vecCount == 0 {
		return
	}
	f32 := c.types.Scalar(dxbc.ScalarF32)
	vec4 := c.types.Vector(dxbc.ScalarF32, 4)
	lenID := c.b.AddConstant(c.types.Scalar(dxbc.ScalarU32), uint32(vecCount))
	arrType := c.b.AddTypeArray(vec4, lenID)

	elems := make([]uint32, vecCount)
	for i := range elems {
		comps := make([]uint32, 4)
		for j := 0; j < 4; j++ {
			comps[j] = c.b.AddConstantFloat32(f32, floatBitsOf(payload[i*4+j]))
		}
		elems[i] = c.b.AddConstantComposite(vec4, comps...)
	}
	initID := c.b.AddConstantComposite(arrType, elems...)

	ptrType := c.types.Pointer(spirv.StorageClassPrivate, arrType)
	varID := c.b.AddVariableWithInit(ptrType, spirv.StorageClassPrivate, initID)
	if c.opts.Debug {
		c.b.AddName(varID, "icb")
	}
	elemPtr := c.types.Pointer(spirv.StorageClassPrivate, vec4)
	c.regs.icb = &regVar{VarID: varID, PtrType: elemPtr, Elem: vec4, Scalar: dxbc.ScalarF32, Count: 4, Storage: spirv.StorageClassPrivate}
}

// enableResourceCapabilities declares the SPIR-V capabilities a declared
// resource's image type requires (spec.md §3 invariant: every opcode that
// requires a capability must have caused it to be enabled — OpTypeImage's
// dimension/arrayed/ms/format combinations all gate on capabilities).
func (c *Compiler) enableResourceCapabilities(dim spirv.Dim, arrayed, ms, isUAV bool) {
	switch dim {
	case spirv.Dim1D:
		if isUAV {
			c.b.AddCapability(spirv.CapabilityImage1D)
		} else {
			c.b.AddCapability(spirv.CapabilitySampled1D)
		}
	case spirv.DimBuffer:
		if isUAV {
			c.b.AddCapability(spirv.CapabilityImageBuffer)
		} else {
			c.b.AddCapability(spirv.CapabilitySampledBuffer)
		}
	case spirv.DimCube:
		if arrayed {
			c.b.AddCapability(spirv.CapabilityImageCubeArray)
		}
	}
	if ms && arrayed && isUAV {
		c.b.AddCapability(spirv.CapabilityImageMSArray)
	}
	if isUAV {
		// UAV images are declared with Unknown format; reads and writes
		// through them need the format-less storage-image capabilities.
		c.b.AddCapability(spirv.CapabilityStorageImageReadWithoutFormat)
		c.b.AddCapability(spirv.CapabilityStorageImageWriteWithoutFormat)
	}
}

func componentReturnScalar(rt dxbc.ResourceReturnType) dxbc.ScalarType {
	switch rt {
	case dxbc.ReturnTypeSint:
		return dxbc.ScalarI32
	case dxbc.ReturnTypeUint:
		return dxbc.ScalarU32
	default:
		return dxbc.ScalarF32
	}
}

func boolToUint(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
