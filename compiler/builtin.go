package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// builtinDef describes a register-file operand type that maps onto a
// SPIR-V built-in variable rather than a numbered register slot. These
// are declared lazily on first use: DXBC references them directly
// (vThreadID, oDepth, ...) without a matching dcl in some encoder
// versions, so waiting for a declaration opcode would miss them.
type builtinDef struct {
	builtin spirv.BuiltIn
	scalar  dxbc.ScalarType
	count   int
	output  bool
	name    string
}

var builtinDefs = map[dxbc.OperandType]builtinDef{
	dxbc.OperandInputThreadID:                 {spirv.BuiltInGlobalInvocationID, dxbc.ScalarU32, 3, false, "vThreadID"},
	dxbc.OperandInputThreadGroupID:            {spirv.BuiltInWorkgroupID, dxbc.ScalarU32, 3, false, "vThreadGroupID"},
	dxbc.OperandInputThreadIDInGroup:          {spirv.BuiltInLocalInvocationID, dxbc.ScalarU32, 3, false, "vThreadIDInGroup"},
	dxbc.OperandInputThreadIDInGroupFlattened: {spirv.BuiltInLocalInvocationIndex, dxbc.ScalarU32, 1, false, "vThreadIDInGroupFlattened"},
	dxbc.OperandInputVertexID:                 {spirv.BuiltInVertexIndex, dxbc.ScalarU32, 1, false, "vVertexID"},
	dxbc.OperandInputInstanceID:               {spirv.BuiltInInstanceIndex, dxbc.ScalarU32, 1, false, "vInstanceID"},
	dxbc.OperandInputPrimitiveID:              {spirv.BuiltInPrimitiveID, dxbc.ScalarU32, 1, false, "vPrim"},
	dxbc.OperandInputGSInstanceID:             {spirv.BuiltInInvocationID, dxbc.ScalarU32, 1, false, "vGSInstanceID"},
	dxbc.OperandInputControlPointID:           {spirv.BuiltInInvocationID, dxbc.ScalarU32, 1, false, "vOutputControlPointID"},
	dxbc.OperandInputDomainPoint:              {spirv.BuiltInTessCoord, dxbc.ScalarF32, 3, false, "vDomain"},
	dxbc.OperandOutputDepth:                   {spirv.BuiltInFragDepth, dxbc.ScalarF32, 1, true, "oDepth"},
}

// builtinVar returns (declaring on first use) the variable backing a
// built-in operand type.
func (c *Compiler) builtinVar(opType dxbc.OperandType) (regVar, bool) {
	if rv, ok := c.regs.builtins[opType]; ok {
		return rv, true
	}
	def, ok := builtinDefs[opType]
	if !ok {
		return regVar{}, false
	}
	storage := spirv.StorageClassInput
	if def.output {
		storage = spirv.StorageClassOutput
	}
	elem := c.types.Vector(def.scalar, def.count)
	ptr := c.types.Pointer(storage, elem)
	varID := c.b.AddVariable(ptr, storage)
	c.b.AddDecorate(varID, spirv.DecorationBuiltIn, uint32(def.builtin))
	if def.builtin == spirv.BuiltInFragDepth {
		c.b.AddExecutionMode(c.entryPointID, spirv.ExecutionModeDepthReplacing)
	}
	// Integer varyings read by the fragment stage must be flat.
	if c.stage == dxbc.ProgramPixel && !def.output && def.scalar != dxbc.ScalarF32 {
		c.b.AddDecorate(varID, spirv.DecorationFlat)
	}
	if c.opts.Debug {
		c.b.AddName(varID, def.name)
	}
	c.interfaceIDs = append(c.interfaceIDs, varID)
	rv := regVar{VarID: varID, PtrType: ptr, Elem: elem, Scalar: def.scalar, Count: def.count, Storage: storage}
	c.regs.builtins[opType] = rv
	return rv, true
}

// loadFrontFace lowers a vIsFrontFace read: the SPIR-V built-in is a
// bool, while DXBC expects 0xFFFFFFFF / 0 in a u32 lane.
func (c *Compiler) loadFrontFace(count int) Value {
	rv, ok := c.regs.builtins[dxbc.OperandInputIsFrontFace]
	if !ok {
		boolType := c.types.Scalar(dxbc.ScalarBool)
		ptr := c.types.Pointer(spirv.StorageClassInput, boolType)
		varID := c.b.AddVariable(ptr, spirv.StorageClassInput)
		c.b.AddDecorate(varID, spirv.DecorationBuiltIn, uint32(spirv.BuiltInFrontFacing))
		if c.opts.Debug {
			c.b.AddName(varID, "vIsFrontFace")
		}
		c.interfaceIDs = append(c.interfaceIDs, varID)
		rv = regVar{VarID: varID, PtrType: ptr, Elem: boolType, Scalar: dxbc.ScalarBool, Count: 1, Storage: spirv.StorageClassInput}
		c.regs.builtins[dxbc.OperandInputIsFrontFace] = rv
	}
	cond := c.b.AddLoad(rv.Elem, rv.VarID)
	allBits := c.constU32(0xFFFFFFFF, 1)
	zero := c.constU32(0, 1)
	u32Type := c.types.Scalar(dxbc.ScalarU32)
	id := c.b.AddSelect(u32Type, cond, allBits.ID, zero.ID)
	v := Value{ID: id, Scalar: dxbc.ScalarU32, Count: 1}
	if count > 1 {
		v = c.splat(v, count)
	}
	return v
}
