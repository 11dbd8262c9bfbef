package compiler_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dxbcspirv/dxbcspirv/compiler"
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

var identity = [4]uint8{0, 1, 2, 3}

// regOp builds a mask-mode register operand with immediate indices.
func regOp(t dxbc.OperandType, mask dxbc.Mask, idx ...int64) dxbc.Operand {
	op := dxbc.Operand{Type: t, Count: dxbc.ComponentCount4, Select: dxbc.SelectMask, Mask: mask, IndexDim: len(idx)}
	for i, v := range idx {
		op.Index[i] = dxbc.RegIndex{Rep: dxbc.IndexImm32, Imm: v}
	}
	return op
}

// srcOp builds a swizzle-mode register operand.
func srcOp(t dxbc.OperandType, swz [4]uint8, idx ...int64) dxbc.Operand {
	op := dxbc.Operand{Type: t, Count: dxbc.ComponentCount4, Select: dxbc.SelectSwizzle, Swizzle: swz, IndexDim: len(idx)}
	for i, v := range idx {
		op.Index[i] = dxbc.RegIndex{Rep: dxbc.IndexImm32, Imm: v}
	}
	return op
}

// sel1Op builds a single-component (Select1) register operand.
func sel1Op(t dxbc.OperandType, comp uint8, idx ...int64) dxbc.Operand {
	op := dxbc.Operand{Type: t, Count: dxbc.ComponentCount4, Select: dxbc.SelectSelect1, Select1: comp, IndexDim: len(idx)}
	for i, v := range idx {
		op.Index[i] = dxbc.RegIndex{Rep: dxbc.IndexImm32, Imm: v}
	}
	return op
}

// immScalar builds a one-word immediate operand.
func immScalar(bits uint32) dxbc.Operand {
	return dxbc.Operand{Type: dxbc.OperandImm32, Count: dxbc.ComponentCount1, Imm1Count: 1, Imm32: [4]uint32{bits}}
}

// newInst builds an instruction, deriving its class from the static
// format table the way the decoder does.
func newInst(op dxbc.Opcode) *dxbc.Instruction {
	format, ok := dxbc.LookupFormat(op)
	if !ok {
		panic("test references an opcode outside the format table")
	}
	return &dxbc.Instruction{Opcode: op, Class: format.Class}
}

func compile(t *testing.T, stage dxbc.ProgramType, instructions []*dxbc.Instruction) *compiler.Result {
	t.Helper()
	version := dxbc.ProgramVersion{Type: stage, Major: 5, Minor: 0}
	empty := &dxbc.SignatureTable{}
	result, err := compiler.Compile(version, empty, empty, empty, instructions, compiler.DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

// opcodes walks a module's instruction stream past the five-word header.
func opcodes(words []uint32) []spirvInst {
	var out []spirvInst
	i := 5
	for i < len(words) {
		head := words[i]
		count := int(head >> 16)
		if count == 0 || i+count > len(words) {
			break
		}
		out = append(out, spirvInst{op: spirv.OpCode(head & 0xFFFF), operands: words[i+1 : i+count]})
		i += count
	}
	return out
}

type spirvInst struct {
	op       spirv.OpCode
	operands []uint32
}

func countOp(words []uint32, op spirv.OpCode) int {
	n := 0
	for _, inst := range opcodes(words) {
		if inst.op == op {
			n++
		}
	}
	return n
}

func hasOp(words []uint32, op spirv.OpCode) bool { return countOp(words, op) > 0 }

func findOp(words []uint32, op spirv.OpCode) (spirvInst, bool) {
	for _, inst := range opcodes(words) {
		if inst.op == op {
			return inst, true
		}
	}
	return spirvInst{}, false
}

func TestPassthroughVertex(t *testing.T) {
	dclIn := newInst(dxbc.OpDclInput)
	dclIn.Dst = []dxbc.Operand{regOp(dxbc.OperandInput, dxbc.MaskXYZW, 0)}
	dclOut := newInst(dxbc.OpDclOutputSiv)
	dclOut.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}
	dclOut.Imm = []uint32{uint32(dxbc.SystemValuePosition)}
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{1}
	mov := newInst(dxbc.OpMov)
	mov.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}
	mov.Src = []dxbc.Operand{srcOp(dxbc.OperandInput, identity, 0)}

	result := compile(t, dxbc.ProgramVertex, []*dxbc.Instruction{
		dclIn, dclOut, dclTemps, mov, newInst(dxbc.OpRet),
	})

	words := result.Words
	assert.Equal(t, uint32(0x07230203), words[0], "module must start with the SPIR-V magic")
	assert.Empty(t, result.Bindings)
	assert.True(t, hasOp(words, spirv.OpLoad))
	assert.True(t, hasOp(words, spirv.OpStore))

	ep, ok := findOp(words, spirv.OpEntryPoint)
	require.True(t, ok)
	assert.Equal(t, uint32(spirv.ExecutionModelVertex), ep.operands[0])

	// The gl_PerVertex output block: Block-decorated struct whose
	// members carry Position/PointSize/CullDistance/ClipDistance in
	// that order.
	memberBuiltins := map[uint32]spirv.BuiltIn{}
	var blockStruct uint32
	for _, inst := range opcodes(words) {
		switch inst.op {
		case spirv.OpMemberDecorate:
			if spirv.Decoration(inst.operands[2]) == spirv.DecorationBuiltIn {
				memberBuiltins[inst.operands[1]] = spirv.BuiltIn(inst.operands[3])
			}
		case spirv.OpDecorate:
			if spirv.Decoration(inst.operands[1]) == spirv.DecorationBlock {
				blockStruct = inst.operands[0]
			}
		}
	}
	assert.NotZero(t, blockStruct, "gl_PerVertex struct must carry the Block decoration")
	assert.Equal(t, map[uint32]spirv.BuiltIn{
		0: spirv.BuiltInPosition,
		1: spirv.BuiltInPointSize,
		2: spirv.BuiltInCullDistance,
		3: spirv.BuiltInClipDistance,
	}, memberBuiltins)

	// The entry point calls the stage function, then copies o0 into
	// the Position member through an access chain.
	assert.True(t, hasOp(words, spirv.OpFunctionCall))
	assert.True(t, hasOp(words, spirv.OpAccessChain))
	assert.Equal(t, 2, countOp(words, spirv.OpFunction))

	// The input still gets a plain location; no variable is decorated
	// BuiltIn Position directly (it lives in the block).
	var sawLocation0, sawVarPosition bool
	for _, inst := range opcodes(words) {
		if inst.op != spirv.OpDecorate {
			continue
		}
		switch spirv.Decoration(inst.operands[1]) {
		case spirv.DecorationLocation:
			if inst.operands[2] == 0 {
				sawLocation0 = true
			}
		case spirv.DecorationBuiltIn:
			if spirv.BuiltIn(inst.operands[2]) == spirv.BuiltInPosition {
				sawVarPosition = true
			}
		}
	}
	assert.True(t, sawLocation0)
	assert.False(t, sawVarPosition)
}

func TestClipDistanceOutputUsesBlockArray(t *testing.T) {
	dclPos := newInst(dxbc.OpDclOutputSiv)
	dclPos.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}
	dclPos.Imm = []uint32{uint32(dxbc.SystemValuePosition)}
	dclClip := newInst(dxbc.OpDclOutputSiv)
	dclClip.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskX, 1)}
	dclClip.Imm = []uint32{uint32(dxbc.SystemValueClipDistance)}
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{1}

	movPos := newInst(dxbc.OpMov)
	movPos.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}
	movPos.Src = []dxbc.Operand{srcOp(dxbc.OperandTemp, identity, 0)}
	movClip := newInst(dxbc.OpMov)
	movClip.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskX, 1)}
	movClip.Src = []dxbc.Operand{sel1Op(dxbc.OperandTemp, 3, 0)}

	result := compile(t, dxbc.ProgramVertex, []*dxbc.Instruction{
		dclPos, dclClip, dclTemps, movPos, movClip, newInst(dxbc.OpRet),
	})

	words := result.Words
	// Clip distances are written through the block's float array, never
	// a ClipDistance-decorated vector variable.
	for _, inst := range opcodes(words) {
		if inst.op == spirv.OpDecorate && spirv.Decoration(inst.operands[1]) == spirv.DecorationBuiltIn {
			assert.NotEqual(t, uint32(spirv.BuiltInClipDistance), inst.operands[2],
				"ClipDistance must only appear as a member decoration")
		}
	}
	assert.True(t, hasOp(words, spirv.OpTypeArray))

	// The epilogue indexes member 3, element 0: an access chain with
	// two indices after the base.
	sawMemberElement := false
	for _, inst := range opcodes(words) {
		if inst.op == spirv.OpAccessChain && len(inst.operands) == 5 {
			sawMemberElement = true
		}
	}
	assert.True(t, sawMemberElement)
}

func TestDepthOutputPixel(t *testing.T) {
	dclDepth := newInst(dxbc.OpDclOutputSiv)
	dclDepth.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskX, 0)}
	dclDepth.Imm = []uint32{uint32(dxbc.SystemValueDepth)}
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{1}
	mov := newInst(dxbc.OpMov)
	mov.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskX, 0)}
	mov.Src = []dxbc.Operand{sel1Op(dxbc.OperandTemp, 0, 0)}

	result := compile(t, dxbc.ProgramPixel, []*dxbc.Instruction{
		dclDepth, dclTemps, mov, newInst(dxbc.OpRet),
	})

	words := result.Words
	var sawFragDepth, sawDepthReplacing bool
	for _, inst := range opcodes(words) {
		switch inst.op {
		case spirv.OpDecorate:
			if spirv.Decoration(inst.operands[1]) == spirv.DecorationBuiltIn &&
				spirv.BuiltIn(inst.operands[2]) == spirv.BuiltInFragDepth {
				sawFragDepth = true
			}
		case spirv.OpExecutionMode:
			if spirv.ExecutionMode(inst.operands[1]) == spirv.ExecutionModeDepthReplacing {
				sawDepthReplacing = true
			}
		}
	}
	assert.True(t, sawFragDepth, "SV_Depth must map to the FragDepth builtin")
	assert.True(t, sawDepthReplacing)
}

func TestConstantBufferLookupPixel(t *testing.T) {
	dclCB := newInst(dxbc.OpDclConstantBuffer)
	dclCB.Dst = []dxbc.Operand{regOp(dxbc.OperandConstantBuffer, dxbc.MaskXYZW, 0, 16)}
	dclOut := newInst(dxbc.OpDclOutput)
	dclOut.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}
	mov := newInst(dxbc.OpMov)
	mov.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}
	mov.Src = []dxbc.Operand{srcOp(dxbc.OperandConstantBuffer, identity, 0, 5)}

	result := compile(t, dxbc.ProgramPixel, []*dxbc.Instruction{
		dclCB, dclOut, mov, newInst(dxbc.OpRet),
	})

	wantBindings := []compiler.Binding{{Slot: 0, Kind: compiler.BindingUniformBuffer}}
	if diff := cmp.Diff(wantBindings, result.Bindings); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}

	words := result.Words
	assert.True(t, hasOp(words, spirv.OpAccessChain))
	assert.True(t, hasOp(words, spirv.OpTypeRuntimeArray) || hasOp(words, spirv.OpTypeArray))

	var sawOrigin bool
	for _, inst := range opcodes(words) {
		if inst.op == spirv.OpExecutionMode && spirv.ExecutionMode(inst.operands[1]) == spirv.ExecutionModeOriginUpperLeft {
			sawOrigin = true
		}
	}
	assert.True(t, sawOrigin, "pixel stage must set origin-upper-left")
}

func TestTextureSamplePixel(t *testing.T) {
	dclTex := newInst(dxbc.OpDclResource)
	dclTex.Dst = []dxbc.Operand{regOp(dxbc.OperandResource, dxbc.MaskXYZW, 0)}
	dclTex.ResourceDim = dxbc.ResourceDimTexture2D
	dclTex.ResourceReturnType = [4]dxbc.ResourceReturnType{
		dxbc.ReturnTypeFloat, dxbc.ReturnTypeFloat, dxbc.ReturnTypeFloat, dxbc.ReturnTypeFloat,
	}
	dclSamp := newInst(dxbc.OpDclSampler)
	dclSamp.Dst = []dxbc.Operand{regOp(dxbc.OperandSampler, dxbc.MaskXYZW, 0)}
	dclIn := newInst(dxbc.OpDclInputPS)
	dclIn.Dst = []dxbc.Operand{regOp(dxbc.OperandInput, dxbc.MaskX|dxbc.MaskY, 0)}
	dclIn.Interpolation = dxbc.InterpolationLinear
	dclOut := newInst(dxbc.OpDclOutput)
	dclOut.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}
	sample := newInst(dxbc.OpSample)
	sample.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}
	sample.Src = []dxbc.Operand{
		srcOp(dxbc.OperandInput, [4]uint8{0, 1, 0, 0}, 0),
		srcOp(dxbc.OperandResource, identity, 0),
		srcOp(dxbc.OperandSampler, identity, 0),
	}

	result := compile(t, dxbc.ProgramPixel, []*dxbc.Instruction{
		dclTex, dclSamp, dclIn, dclOut, sample, newInst(dxbc.OpRet),
	})

	wantBindings := []compiler.Binding{
		{Slot: 0, Kind: compiler.BindingSampledImage},
		{Slot: 0, Kind: compiler.BindingSampler},
	}
	if diff := cmp.Diff(wantBindings, result.Bindings); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}

	words := result.Words
	assert.True(t, hasOp(words, spirv.OpTypeImage))
	assert.True(t, hasOp(words, spirv.OpTypeSampledImage))
	assert.True(t, hasOp(words, spirv.OpSampledImage))
	assert.True(t, hasOp(words, spirv.OpImageSampleImplicitLod))
}

func TestAddSaturate(t *testing.T) {
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{1}
	add := newInst(dxbc.OpAdd)
	add.Saturate = true
	add.Dst = []dxbc.Operand{regOp(dxbc.OperandTemp, dxbc.MaskX|dxbc.MaskY|dxbc.MaskZ, 0)}
	add.Src = []dxbc.Operand{
		srcOp(dxbc.OperandTemp, identity, 0),
		srcOp(dxbc.OperandTemp, identity, 0),
	}

	result := compile(t, dxbc.ProgramVertex, []*dxbc.Instruction{
		dclTemps, add, newInst(dxbc.OpRet),
	})

	words := result.Words
	assert.True(t, hasOp(words, spirv.OpFAdd))

	clamped := false
	for _, inst := range opcodes(words) {
		if inst.op == spirv.OpExtInst && len(inst.operands) >= 4 && inst.operands[3] == spirv.GLSLstd450FClamp {
			clamped = true
		}
	}
	assert.True(t, clamped, "saturate must clamp through GLSL.std.450 FClamp")

	// A three-lane store into a float4 register keeps the fourth lane
	// via a vector shuffle against the current value.
	assert.True(t, hasOp(words, spirv.OpVectorShuffle))
}

func TestIfElse(t *testing.T) {
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{1}
	dclOut := newInst(dxbc.OpDclOutput)
	dclOut.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}

	ifInst := newInst(dxbc.OpIf)
	ifInst.ZeroTest = dxbc.TestNonZero
	ifInst.Src = []dxbc.Operand{sel1Op(dxbc.OperandTemp, 0, 0)}

	movThen := newInst(dxbc.OpMov)
	movThen.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskX, 0)}
	movThen.Src = []dxbc.Operand{immScalar(0x3F800000)} // 1.0f

	movElse := newInst(dxbc.OpMov)
	movElse.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskX, 0)}
	movElse.Src = []dxbc.Operand{immScalar(0)}

	result := compile(t, dxbc.ProgramPixel, []*dxbc.Instruction{
		dclTemps, dclOut,
		ifInst, movThen, newInst(dxbc.OpElse), movElse, newInst(dxbc.OpEndIf),
		newInst(dxbc.OpRet),
	})

	words := result.Words
	assert.Equal(t, 1, countOp(words, spirv.OpSelectionMerge))
	assert.Equal(t, 1, countOp(words, spirv.OpBranchConditional))
	assert.Equal(t, 2, countOp(words, spirv.OpStore))
	assert.True(t, hasOp(words, spirv.OpReturn))

	merge, _ := findOp(words, spirv.OpSelectionMerge)
	cond, _ := findOp(words, spirv.OpBranchConditional)
	assert.NotEqual(t, merge.operands[0], cond.operands[1], "then target is not the merge block")
}

func TestRelativeConstantBufferIndex(t *testing.T) {
	dclCB := newInst(dxbc.OpDclConstantBuffer)
	dclCB.Dst = []dxbc.Operand{regOp(dxbc.OperandConstantBuffer, dxbc.MaskXYZW, 0, 16)}
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{1}
	dclOut := newInst(dxbc.OpDclOutput)
	dclOut.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}

	rel := sel1Op(dxbc.OperandTemp, 1, 0) // r0.y
	src := srcOp(dxbc.OperandConstantBuffer, identity, 0)
	src.IndexDim = 2
	src.Index[1] = dxbc.RegIndex{Rep: dxbc.IndexImm32PlusRelative, Imm: 2, Relative: &rel}

	mov := newInst(dxbc.OpMov)
	mov.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}
	mov.Src = []dxbc.Operand{src}

	result := compile(t, dxbc.ProgramVertex, []*dxbc.Instruction{
		dclCB, dclTemps, dclOut, mov, newInst(dxbc.OpRet),
	})

	words := result.Words
	assert.True(t, hasOp(words, spirv.OpIAdd), "relative index must add the register term")
	assert.True(t, hasOp(words, spirv.OpBitcast), "the register component is bit-cast to i32")

	chain, ok := findOp(words, spirv.OpAccessChain)
	require.True(t, ok)
	// result type, result id, base, member index, element index.
	assert.Len(t, chain.operands, 5)
}

func TestLoopBreak(t *testing.T) {
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{1}
	breakc := newInst(dxbc.OpBreakC)
	breakc.ZeroTest = dxbc.TestNonZero
	breakc.Src = []dxbc.Operand{sel1Op(dxbc.OperandTemp, 0, 0)}

	result := compile(t, dxbc.ProgramVertex, []*dxbc.Instruction{
		dclTemps,
		newInst(dxbc.OpLoop), breakc, newInst(dxbc.OpEndLoop),
		newInst(dxbc.OpRet),
	})

	words := result.Words
	assert.Equal(t, 1, countOp(words, spirv.OpLoopMerge))
	assert.True(t, hasOp(words, spirv.OpBranchConditional))
}

func TestSwitch(t *testing.T) {
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{1}
	dclOut := newInst(dxbc.OpDclOutput)
	dclOut.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}

	sw := newInst(dxbc.OpSwitch)
	sw.Src = []dxbc.Operand{sel1Op(dxbc.OperandTemp, 0, 0)}
	caseOne := newInst(dxbc.OpCase)
	caseOne.Src = []dxbc.Operand{immScalar(1)}
	movOne := newInst(dxbc.OpMov)
	movOne.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskX, 0)}
	movOne.Src = []dxbc.Operand{immScalar(0x3F800000)}
	movDefault := newInst(dxbc.OpMov)
	movDefault.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskX, 0)}
	movDefault.Src = []dxbc.Operand{immScalar(0)}

	result := compile(t, dxbc.ProgramPixel, []*dxbc.Instruction{
		dclTemps, dclOut,
		sw,
		caseOne, movOne, newInst(dxbc.OpBreak),
		newInst(dxbc.OpDefault), movDefault, newInst(dxbc.OpBreak),
		newInst(dxbc.OpEndSwitch),
		newInst(dxbc.OpRet),
	})

	words := result.Words
	swInst, ok := findOp(words, spirv.OpSwitch)
	require.True(t, ok)
	// selector, default label, then one (literal, label) pair.
	require.Len(t, swInst.operands, 4)
	assert.Equal(t, uint32(1), swInst.operands[2])

	// The spliced header must precede its case label in the stream.
	var swIdx, caseLabelIdx int
	for i, inst := range opcodes(words) {
		if inst.op == spirv.OpSwitch {
			swIdx = i
		}
		if inst.op == spirv.OpLabel && inst.operands[0] == swInst.operands[3] {
			caseLabelIdx = i
		}
	}
	assert.Less(t, swIdx, caseLabelIdx)
}

func TestComputeStage(t *testing.T) {
	dclTG := newInst(dxbc.OpDclThreadGroup)
	dclTG.Imm = []uint32{8, 8, 1}
	sync := newInst(dxbc.OpSync)
	sync.SyncFlags = dxbc.SyncFlagThreadsInGroup | dxbc.SyncFlagTgsmMemory

	result := compile(t, dxbc.ProgramCompute, []*dxbc.Instruction{
		dclTG, sync, newInst(dxbc.OpRet),
	})

	words := result.Words
	assert.True(t, hasOp(words, spirv.OpControlBarrier))

	var localSize []uint32
	for _, inst := range opcodes(words) {
		if inst.op == spirv.OpExecutionMode && spirv.ExecutionMode(inst.operands[1]) == spirv.ExecutionModeLocalSize {
			localSize = inst.operands[2:]
		}
	}
	assert.Equal(t, []uint32{8, 8, 1}, localSize)
}

func TestDiscardDefaultAndDeferred(t *testing.T) {
	build := func() []*dxbc.Instruction {
		dclTemps := newInst(dxbc.OpDclTemps)
		dclTemps.Imm = []uint32{1}
		discard := newInst(dxbc.OpDiscard)
		discard.ZeroTest = dxbc.TestNonZero
		discard.Src = []dxbc.Operand{sel1Op(dxbc.OperandTemp, 0, 0)}
		return []*dxbc.Instruction{dclTemps, discard, newInst(dxbc.OpRet)}
	}
	version := dxbc.ProgramVersion{Type: dxbc.ProgramPixel, Major: 5}
	empty := &dxbc.SignatureTable{}

	plain, err := compiler.Compile(version, empty, empty, empty, build(), compiler.DefaultOptions())
	require.NoError(t, err)
	assert.True(t, hasOp(plain.Words, spirv.OpKill))

	opts := compiler.DefaultOptions()
	opts.DeferKill = true
	deferred, err := compiler.Compile(version, empty, empty, empty, build(), opts)
	require.NoError(t, err)
	assert.False(t, hasOp(deferred.Words, spirv.OpKill))
	assert.True(t, hasOp(deferred.Words, spirv.OpDemoteToHelperInvocationEXT))
}

func TestDotProduct(t *testing.T) {
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{2}
	dp3 := newInst(dxbc.OpDp3)
	dp3.Dst = []dxbc.Operand{regOp(dxbc.OperandTemp, dxbc.MaskX, 0)}
	dp3.Src = []dxbc.Operand{
		srcOp(dxbc.OperandTemp, identity, 0),
		srcOp(dxbc.OperandTemp, identity, 1),
	}

	result := compile(t, dxbc.ProgramVertex, []*dxbc.Instruction{
		dclTemps, dp3, newInst(dxbc.OpRet),
	})
	assert.True(t, hasOp(result.Words, spirv.OpDot))
}

func TestTempUseWithoutDeclFails(t *testing.T) {
	mov := newInst(dxbc.OpMov)
	mov.Dst = []dxbc.Operand{regOp(dxbc.OperandTemp, dxbc.MaskX, 3)}
	mov.Src = []dxbc.Operand{immScalar(0)}

	version := dxbc.ProgramVersion{Type: dxbc.ProgramVertex, Major: 5}
	empty := &dxbc.SignatureTable{}
	_, err := compiler.Compile(version, empty, empty, empty,
		[]*dxbc.Instruction{mov, newInst(dxbc.OpRet)}, compiler.DefaultOptions())
	require.Error(t, err)
	e, ok := err.(*compiler.Error)
	require.True(t, ok)
	assert.Equal(t, compiler.ErrInvalidRegisterIndex, e.Kind)
}

func TestUnbalancedControlFlowFails(t *testing.T) {
	version := dxbc.ProgramVersion{Type: dxbc.ProgramVertex, Major: 5}
	empty := &dxbc.SignatureTable{}

	// Else without If.
	_, err := compiler.Compile(version, empty, empty, empty,
		[]*dxbc.Instruction{newInst(dxbc.OpElse), newInst(dxbc.OpRet)}, compiler.DefaultOptions())
	require.Error(t, err)
	e, ok := err.(*compiler.Error)
	require.True(t, ok)
	assert.Equal(t, compiler.ErrInvalidStateMachine, e.Kind)

	// If left open at end of stream.
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{1}
	ifInst := newInst(dxbc.OpIf)
	ifInst.Src = []dxbc.Operand{sel1Op(dxbc.OperandTemp, 0, 0)}
	_, err = compiler.Compile(version, empty, empty, empty,
		[]*dxbc.Instruction{dclTemps, ifInst}, compiler.DefaultOptions())
	require.Error(t, err)
	e, ok = err.(*compiler.Error)
	require.True(t, ok)
	assert.Equal(t, compiler.ErrInvalidStateMachine, e.Kind)
}

func TestCompareProducesAllBitsMask(t *testing.T) {
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{2}
	lt := newInst(dxbc.OpLt)
	lt.Dst = []dxbc.Operand{regOp(dxbc.OperandTemp, dxbc.MaskXYZW, 0)}
	lt.Src = []dxbc.Operand{
		srcOp(dxbc.OperandTemp, identity, 0),
		srcOp(dxbc.OperandTemp, identity, 1),
	}

	result := compile(t, dxbc.ProgramVertex, []*dxbc.Instruction{
		dclTemps, lt, newInst(dxbc.OpRet),
	})
	words := result.Words
	assert.True(t, hasOp(words, spirv.OpFOrdLessThan))
	assert.True(t, hasOp(words, spirv.OpSelect))

	// The 0xFFFFFFFF constant backing the true lanes must exist.
	sawAllBits := false
	for _, inst := range opcodes(words) {
		if inst.op == spirv.OpConstant && len(inst.operands) == 3 && inst.operands[2] == 0xFFFFFFFF {
			sawAllBits = true
		}
	}
	assert.True(t, sawAllBits)
}

func TestRawUavLoadStore(t *testing.T) {
	dclUav := newInst(dxbc.OpDclUavRaw)
	dclUav.Dst = []dxbc.Operand{regOp(dxbc.OperandUAV, dxbc.MaskXYZW, 0)}
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{1}

	ld := newInst(dxbc.OpLdRaw)
	ld.Dst = []dxbc.Operand{regOp(dxbc.OperandTemp, dxbc.MaskX, 0)}
	ld.Src = []dxbc.Operand{immScalar(0), srcOp(dxbc.OperandUAV, identity, 0)}

	st := newInst(dxbc.OpStoreRaw)
	st.Dst = []dxbc.Operand{regOp(dxbc.OperandUAV, dxbc.MaskX, 0)}
	st.Src = []dxbc.Operand{immScalar(4), sel1Op(dxbc.OperandTemp, 0, 0)}

	result := compile(t, dxbc.ProgramCompute, []*dxbc.Instruction{
		dclUav, dclTemps, ld, st, newInst(dxbc.OpRet),
	})

	wantBindings := []compiler.Binding{{Slot: 0, Kind: compiler.BindingStorageBuffer}}
	if diff := cmp.Diff(wantBindings, result.Bindings); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
	words := result.Words
	assert.True(t, hasOp(words, spirv.OpShiftRightLogical), "byte address becomes a word index")
	assert.True(t, hasOp(words, spirv.OpAccessChain))
	assert.True(t, hasOp(words, spirv.OpStore))
}

func TestAtomicOnTgsm(t *testing.T) {
	dclTG := newInst(dxbc.OpDclThreadGroup)
	dclTG.Imm = []uint32{64, 1, 1}
	dclTgsm := newInst(dxbc.OpDclTgsmRaw)
	dclTgsm.Dst = []dxbc.Operand{regOp(dxbc.OperandThreadGroupShared, dxbc.MaskXYZW, 0)}
	dclTgsm.Imm = []uint32{64}
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{1}

	atomic := newInst(dxbc.OpAtomicIAdd)
	atomic.Dst = []dxbc.Operand{regOp(dxbc.OperandThreadGroupShared, dxbc.MaskXYZW, 0)}
	atomic.Src = []dxbc.Operand{immScalar(0), sel1Op(dxbc.OperandTemp, 0, 0)}

	result := compile(t, dxbc.ProgramCompute, []*dxbc.Instruction{
		dclTG, dclTgsm, dclTemps, atomic, newInst(dxbc.OpRet),
	})

	inst, ok := findOp(result.Words, spirv.OpAtomicIAdd)
	require.True(t, ok)
	assert.Len(t, inst.operands, 6)
}

func TestSinCosEmitsBothFunctions(t *testing.T) {
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{3}
	sincos := newInst(dxbc.OpSinCos)
	sincos.Dst = []dxbc.Operand{
		regOp(dxbc.OperandTemp, dxbc.MaskX, 1),
		regOp(dxbc.OperandTemp, dxbc.MaskX, 2),
	}
	sincos.Src = []dxbc.Operand{sel1Op(dxbc.OperandTemp, 0, 0)}

	result := compile(t, dxbc.ProgramVertex, []*dxbc.Instruction{
		dclTemps, sincos, newInst(dxbc.OpRet),
	})

	var sawSin, sawCos bool
	for _, inst := range opcodes(result.Words) {
		if inst.op == spirv.OpExtInst && len(inst.operands) >= 4 {
			switch inst.operands[3] {
			case spirv.GLSLstd450Sin:
				sawSin = true
			case spirv.GLSLstd450Cos:
				sawCos = true
			}
		}
	}
	assert.True(t, sawSin)
	assert.True(t, sawCos, "the cosine output must use Cos, not Sin")
}

func TestImmediateConstantBuffer(t *testing.T) {
	icb := &dxbc.Instruction{
		Opcode:          dxbc.OpCustomData,
		Class:           dxbc.ClassCustomData,
		CustomDataClass: dxbc.CustomDataImmediateConstantBuffer,
		CustomData:      []uint32{0x3F800000, 0, 0, 0, 0, 0x3F800000, 0, 0},
	}
	dclOut := newInst(dxbc.OpDclOutput)
	dclOut.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}
	mov := newInst(dxbc.OpMov)
	mov.Dst = []dxbc.Operand{regOp(dxbc.OperandOutput, dxbc.MaskXYZW, 0)}
	mov.Src = []dxbc.Operand{srcOp(dxbc.OperandImmediateConstantBuffer, identity, 1)}

	result := compile(t, dxbc.ProgramVertex, []*dxbc.Instruction{
		icb, dclOut, mov, newInst(dxbc.OpRet),
	})

	words := result.Words
	assert.True(t, hasOp(words, spirv.OpAccessChain))
	// The icb variable carries its literal contents as an initializer.
	sawInit := false
	for _, inst := range opcodes(words) {
		if inst.op == spirv.OpVariable && len(inst.operands) == 4 {
			sawInit = true
		}
	}
	assert.True(t, sawInit, "icb variable must have a constant initializer")
}

func TestMovcSelects(t *testing.T) {
	dclTemps := newInst(dxbc.OpDclTemps)
	dclTemps.Imm = []uint32{3}
	movc := newInst(dxbc.OpMovc)
	movc.Dst = []dxbc.Operand{regOp(dxbc.OperandTemp, dxbc.MaskXYZW, 0)}
	movc.Src = []dxbc.Operand{
		srcOp(dxbc.OperandTemp, identity, 0),
		srcOp(dxbc.OperandTemp, identity, 1),
		srcOp(dxbc.OperandTemp, identity, 2),
	}

	result := compile(t, dxbc.ProgramVertex, []*dxbc.Instruction{
		dclTemps, movc, newInst(dxbc.OpRet),
	})
	words := result.Words
	assert.True(t, hasOp(words, spirv.OpINotEqual))
	assert.True(t, hasOp(words, spirv.OpSelect))
}
