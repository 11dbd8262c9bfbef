package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// lowerEmit handles the geometry-shader vertex/primitive opcodes
// (spec.md §4.7 "Geometry emit"). The stream variants take an immediate
// stream-register operand; stream 0 maps onto the plain single-stream
// instructions, nonzero streams onto the GeometryStreams forms.
func (c *Compiler) lowerEmit(inst *dxbc.Instruction) error {
	if c.stage != dxbc.ProgramGeometry {
		return newErr(ErrInvalidStateMachine, "emit/cut outside a geometry shader")
	}
	stream := uint32(0)
	switch inst.Opcode {
	case dxbc.OpEmitStream, dxbc.OpCutStream, dxbc.OpEmitThenCutStream:
		stream = uint32(inst.Src[0].Index[0].Imm)
	}

	emit := inst.Opcode == dxbc.OpEmit || inst.Opcode == dxbc.OpEmitStream ||
		inst.Opcode == dxbc.OpEmitThenCut || inst.Opcode == dxbc.OpEmitThenCutStream
	cut := inst.Opcode == dxbc.OpCut || inst.Opcode == dxbc.OpCutStream ||
		inst.Opcode == dxbc.OpEmitThenCut || inst.Opcode == dxbc.OpEmitThenCutStream

	if stream == 0 {
		if emit {
			// Per-vertex outputs are flushed into gl_PerVertex before
			// every emitted vertex, not once at shader end.
			c.emitPerVertexSetup()
			c.b.AddEmitVertex()
		}
		if cut {
			c.b.AddEndPrimitive()
		}
		return nil
	}

	c.b.AddCapability(spirv.CapabilityGeometryStreams)
	streamID := c.constI32(int32(stream), 1)
	if emit {
		c.emitPerVertexSetup()
		c.b.AddEmitStreamVertex(streamID.ID)
	}
	if cut {
		c.b.AddEndStreamPrimitive(streamID.ID)
	}
	return nil
}

// lowerSync translates the sync opcode's flag bits to control/memory
// barriers (spec.md §4.7 "Barriers"). Flag layout follows the D3D token
// format: threads-in-group, TGSM, UAV-group, UAV-global.
func (c *Compiler) lowerSync(inst *dxbc.Instruction) error {
	flags := inst.SyncFlags

	var semantics uint32 = spirv.MemorySemanticsAcquireRelease
	if flags&dxbc.SyncFlagTgsmMemory != 0 {
		semantics |= spirv.MemorySemanticsWorkgroupMemory
	}
	if flags&(dxbc.SyncFlagUavMemoryGroup|dxbc.SyncFlagUavMemoryGlobal) != 0 {
		semantics |= spirv.MemorySemanticsUniformMemory | spirv.MemorySemanticsImageMemory
	}

	memScope := spirv.ScopeWorkgroup
	if flags&dxbc.SyncFlagUavMemoryGlobal != 0 {
		memScope = spirv.ScopeDevice
	}

	semanticsID := c.constU32(semantics, 1).ID
	memScopeID := c.constU32(memScope, 1).ID

	if flags&dxbc.SyncFlagThreadsInGroup != 0 {
		execScopeID := c.constU32(spirv.ScopeWorkgroup, 1).ID
		c.b.AddControlBarrier(execScopeID, memScopeID, semanticsID)
		return nil
	}
	c.b.AddMemoryBarrier(memScopeID, semanticsID)
	return nil
}
