package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// stageState accumulates the handful of scalar shader-wide parameters
// that Dcl* opcodes set but that don't belong in the register-file maps
// (spec.md §4.7's per-stage "fixed-function" declarations), plus the
// gl_PerVertex block variable for the geometry-producing stages.
type stageState struct {
	threadGroupSize      [3]uint32
	maxOutputVertexCount uint32
	gsInstanceCount      uint32

	perVertexVar uint32
}

// gl_PerVertex member indices (spec.md §4.7 lifecycle step 3's member
// order, matching dxvk's block layout).
const (
	perVertexPosition  = 0
	perVertexPointSize = 1
	perVertexCullDist  = 2
	perVertexClipDist  = 3
)

// perVertexMember maps a declared output system value onto its
// gl_PerVertex member, when it has one.
func perVertexMember(sv dxbc.SystemValue) (int, bool) {
	switch sv {
	case dxbc.SystemValuePosition:
		return perVertexPosition, true
	case dxbc.SystemValueCullDistance:
		return perVertexCullDist, true
	case dxbc.SystemValueClipDistance:
		return perVertexClipDist, true
	default:
		return 0, false
	}
}

// usesPerVertex reports whether a stage's per-vertex outputs route
// through the gl_PerVertex block. Hull control-point outputs would need
// the arrayed gl_out form, which sits in the tessellation corner cases
// outside this core's opcode surface.
func usesPerVertex(pt dxbc.ProgramType) bool {
	switch pt {
	case dxbc.ProgramVertex, dxbc.ProgramGeometry, dxbc.ProgramDomain:
		return true
	}
	return false
}

// stageHooks brackets a compilation with the per-stage entry-point
// scaffolding (spec.md §4.7 "Lifecycle"): init opens the stage-local
// function all instructions lower into; finalize closes it, emits the
// entry-point function that calls it and bridges system-value outputs,
// and registers the entry point with its execution modes.
type stageHooks struct {
	model    spirv.ExecutionModel
	init     func(c *Compiler) error
	finalize func(c *Compiler) error
}

func stageHooksFor(pt dxbc.ProgramType) stageHooks {
	switch pt {
	case dxbc.ProgramVertex:
		return stageHooks{spirv.ExecutionModelVertex, initStageFunction, finalizeGeneric}
	case dxbc.ProgramPixel:
		return stageHooks{spirv.ExecutionModelFragment, initStageFunction, finalizePixel}
	case dxbc.ProgramGeometry:
		return stageHooks{spirv.ExecutionModelGeometry, initStageFunction, finalizeGeometry}
	case dxbc.ProgramHull:
		return stageHooks{spirv.ExecutionModelTessellationControl, initStageFunction, finalizeGeneric}
	case dxbc.ProgramDomain:
		return stageHooks{spirv.ExecutionModelTessellationEvaluation, initStageFunction, finalizeGeneric}
	case dxbc.ProgramCompute:
		return stageHooks{spirv.ExecutionModelGLCompute, initStageFunction, finalizeCompute}
	default:
		return stageHooks{spirv.ExecutionModelVertex, initStageFunction, finalizeGeneric}
	}
}

// declPerVertexBlock declares the gl_PerVertex output block: position,
// point size, and the two-element cull/clip distance arrays, with their
// built-in member decorations and the Block decoration (spec.md §4.7
// lifecycle step 1).
func declPerVertexBlock(c *Compiler) {
	c.b.AddCapability(spirv.CapabilityClipDistance)
	c.b.AddCapability(spirv.CapabilityCullDistance)

	f32 := c.types.Scalar(dxbc.ScalarF32)
	vec4 := c.types.Vector(dxbc.ScalarF32, 4)
	two := c.b.AddConstant(c.types.Scalar(dxbc.ScalarU32), 2)
	arr2 := c.b.AddTypeArray(f32, two)

	blockType := c.b.AddTypeStruct(vec4, f32, arr2, arr2)
	c.b.AddMemberDecorate(blockType, perVertexPosition, spirv.DecorationBuiltIn, uint32(spirv.BuiltInPosition))
	c.b.AddMemberDecorate(blockType, perVertexPointSize, spirv.DecorationBuiltIn, uint32(spirv.BuiltInPointSize))
	c.b.AddMemberDecorate(blockType, perVertexCullDist, spirv.DecorationBuiltIn, uint32(spirv.BuiltInCullDistance))
	c.b.AddMemberDecorate(blockType, perVertexClipDist, spirv.DecorationBuiltIn, uint32(spirv.BuiltInClipDistance))
	c.b.AddDecorate(blockType, spirv.DecorationBlock)

	ptr := c.types.Pointer(spirv.StorageClassOutput, blockType)
	varID := c.b.AddVariable(ptr, spirv.StorageClassOutput)
	if c.opts.Debug {
		c.b.AddName(varID, "gl_PerVertex")
	}
	c.interfaceIDs = append(c.interfaceIDs, varID)
	c.stageSt.perVertexVar = varID
}

// initStageFunction reserves the entry-point id (execution modes and
// decorations reference it while instructions are still being lowered),
// declares the stage's fixed outputs, and opens the stage-local function
// the whole translated program lowers into.
func initStageFunction(c *Compiler) error {
	c.entryPointID = c.b.AllocID()
	if usesPerVertex(c.stage) {
		declPerVertexBlock(c)
	}
	voidType := c.b.AddTypeVoid()
	funcType := c.b.AddTypeFunction(voidType)
	c.stageFuncID = c.b.AddFunction(funcType, voidType, spirv.FunctionControlNone)
	c.b.AddLabel()
	return nil
}

// emitPerVertexSetup copies the system-value output registers into
// their gl_PerVertex members (spec.md §4.7 lifecycle step 3: member by
// index, Position, PointSize, CullDistance, ClipDistance). Geometry
// shaders run it before every emitted vertex; the other stages once, in
// the entry-point epilogue.
func (c *Compiler) emitPerVertexSetup() {
	pv := c.stageSt.perVertexVar
	if pv == 0 {
		return
	}
	f32 := c.types.Scalar(dxbc.ScalarF32)
	vec4 := c.types.Vector(dxbc.ScalarF32, 4)
	for _, m := range c.regs.outputSysValues {
		member, ok := perVertexMember(m.SysValue)
		if !ok {
			continue
		}
		rv, ok := c.regs.outputs[m.Register]
		if !ok {
			continue
		}
		val := c.b.AddLoad(rv.Elem, rv.VarID)
		memberIdx := c.constI32(int32(member), 1)
		switch member {
		case perVertexPosition:
			ptrType := c.types.Pointer(spirv.StorageClassOutput, vec4)
			ptr := c.b.AddAccessChain(ptrType, pv, memberIdx.ID)
			c.b.AddStore(ptr, val)
		case perVertexCullDist, perVertexClipDist:
			ptrType := c.types.Pointer(spirv.StorageClassOutput, f32)
			for i, comp := range m.Mask.Components() {
				lane := val
				if rv.Count > 1 {
					lane = c.b.AddCompositeExtract(f32, val, uint32(comp))
				}
				elemIdx := c.constI32(int32(i), 1)
				ptr := c.b.AddAccessChain(ptrType, pv, memberIdx.ID, elemIdx.ID)
				c.b.AddStore(ptr, lane)
			}
		}
	}
}

// closeStageAndEmitMain closes the stage-local function, then emits the
// entry-point function: call the stage function, bridge per-vertex
// outputs, return. Geometry skips the epilogue here because its outputs
// are flushed per emitted vertex instead.
func closeStageAndEmitMain(c *Compiler, model spirv.ExecutionModel) {
	c.b.AddReturn()
	c.b.AddFunctionEnd()

	voidType := c.b.AddTypeVoid()
	funcType := c.b.AddTypeFunction(voidType)
	c.b.AddFunctionWithID(c.entryPointID, funcType, voidType, spirv.FunctionControlNone)
	c.b.AddLabel()
	c.b.AddFunctionCall(voidType, c.stageFuncID)
	if c.stage != dxbc.ProgramGeometry {
		c.emitPerVertexSetup()
	}
	c.b.AddReturn()
	c.b.AddFunctionEnd()

	c.b.AddEntryPoint(model, c.entryPointID, "main", c.interfaceIDs)
}

func finalizeGeneric(c *Compiler) error {
	closeStageAndEmitMain(c, stageHooksFor(c.stage).model)
	return nil
}

func finalizePixel(c *Compiler) error {
	closeStageAndEmitMain(c, spirv.ExecutionModelFragment)
	c.b.AddExecutionMode(c.entryPointID, spirv.ExecutionModeOriginUpperLeft)
	return nil
}

func finalizeCompute(c *Compiler) error {
	closeStageAndEmitMain(c, spirv.ExecutionModelGLCompute)
	size := c.stageSt.threadGroupSize
	if size == ([3]uint32{}) {
		size = [3]uint32{1, 1, 1}
	}
	c.b.AddExecutionMode(c.entryPointID, spirv.ExecutionModeLocalSize, size[0], size[1], size[2])
	return nil
}

func finalizeGeometry(c *Compiler) error {
	closeStageAndEmitMain(c, spirv.ExecutionModelGeometry)
	c.b.AddExecutionMode(c.entryPointID, spirv.ExecutionModeInputTrianglesAdjacency)
	c.b.AddExecutionMode(c.entryPointID, spirv.ExecutionModeOutputTriangleStrip)
	maxVerts := c.stageSt.maxOutputVertexCount
	if maxVerts == 0 {
		maxVerts = 3
	}
	c.b.AddExecutionMode(c.entryPointID, spirv.ExecutionModeOutputVertices, maxVerts)
	if c.stageSt.gsInstanceCount > 1 {
		c.b.AddExecutionMode(c.entryPointID, spirv.ExecutionModeInvocations, c.stageSt.gsInstanceCount)
	}
	return nil
}
