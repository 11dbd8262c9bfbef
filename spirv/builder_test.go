package spirv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeDedup(t *testing.T) {
	b := NewModuleBuilder(Version1_3)

	f32 := b.AddTypeFloat(32)
	assert.Equal(t, f32, b.AddTypeFloat(32), "identical float types must dedup")

	vec4 := b.AddTypeVector(f32, 4)
	assert.Equal(t, vec4, b.AddTypeVector(f32, 4), "identical vector types must dedup")
	assert.NotEqual(t, vec4, b.AddTypeVector(f32, 3), "distinct component counts must not dedup")

	i32 := b.AddTypeInt(32, true)
	u32 := b.AddTypeInt(32, false)
	assert.NotEqual(t, i32, u32, "signedness is part of the dedup key")

	ptrA := b.AddTypePointer(StorageClassUniform, vec4)
	ptrB := b.AddTypePointer(StorageClassPrivate, vec4)
	assert.Equal(t, ptrA, b.AddTypePointer(StorageClassUniform, vec4))
	assert.NotEqual(t, ptrA, ptrB, "storage class is part of the dedup key")
}

func TestStructTypesNotDeduped(t *testing.T) {
	b := NewModuleBuilder(Version1_3)
	f32 := b.AddTypeFloat(32)
	a := b.AddTypeStruct(f32)
	c := b.AddTypeStruct(f32)
	assert.NotEqual(t, a, c, "struct identity is by declaration site")
}

func TestConstantDedup(t *testing.T) {
	b := NewModuleBuilder(Version1_3)
	f32 := b.AddTypeFloat(32)
	one := b.AddConstantFloat32(f32, 1.0)
	assert.Equal(t, one, b.AddConstantFloat32(f32, 1.0))
	assert.NotEqual(t, one, b.AddConstantFloat32(f32, 2.0))

	u32 := b.AddTypeInt(32, false)
	// Same bit pattern under a different type must not dedup.
	assert.NotEqual(t, b.AddConstant(u32, 0x3F800000), one)
}

func TestLateConstantPatch(t *testing.T) {
	b := NewModuleBuilder(Version1_3)
	u32 := b.AddTypeInt(32, false)

	late := b.AllocLateConstant(u32)
	// Late constants bypass dedup in both directions.
	assert.NotEqual(t, late, b.AllocLateConstant(u32))
	assert.NotEqual(t, late, b.AddConstant(u32, 0))

	b.PatchLateConstant(late, 42)

	words := b.BuildWords()
	found := false
	forEachInstruction(words, func(opcode OpCode, ops []uint32) {
		if opcode == OpConstant && len(ops) == 3 && ops[1] == late {
			require.Equal(t, uint32(42), ops[2])
			found = true
		}
	})
	assert.True(t, found, "patched late constant must appear in the module")
}

func TestPatchLateConstantPanicsOnOrdinaryID(t *testing.T) {
	b := NewModuleBuilder(Version1_3)
	u32 := b.AddTypeInt(32, false)
	ordinary := b.AddConstant(u32, 7)
	assert.Panics(t, func() { b.PatchLateConstant(ordinary, 8) })
}

func TestCapabilityIdempotent(t *testing.T) {
	b := NewModuleBuilder(Version1_3)
	b.AddCapability(CapabilityShader)
	b.AddCapability(CapabilityShader)
	b.AddCapability(CapabilityFloat64)

	count := 0
	forEachInstruction(b.BuildWords(), func(opcode OpCode, ops []uint32) {
		if opcode == OpCapability {
			count++
		}
	})
	assert.Equal(t, 2, count)
}

func TestImageOperandsEncodeOrder(t *testing.T) {
	bias, lod := uint32(10), uint32(11)
	dx, dy := uint32(12), uint32(13)
	constOff, sample := uint32(14), uint32(15)

	// No operands: no mask word at all.
	assert.Nil(t, ImageOperands{}.Encode())

	// Single operand.
	assert.Equal(t, []uint32{0x2, lod}, ImageOperands{Lod: &lod}.Encode())

	// Multiple operands come out in bitmask-bit order regardless of
	// which fields are set: Bias(0x1), Grad(0x4), ConstOffset(0x8),
	// Sample(0x40).
	got := ImageOperands{
		Sample:      &sample,
		ConstOffset: &constOff,
		GradDx:      &dx,
		GradDy:      &dy,
		Bias:        &bias,
	}.Encode()
	assert.Equal(t, []uint32{0x1 | 0x4 | 0x8 | 0x40, bias, dx, dy, constOff, sample}, got)
}

func TestLabelWithPreallocatedID(t *testing.T) {
	b := NewModuleBuilder(Version1_3)
	void := b.AddTypeVoid()
	fnType := b.AddTypeFunction(void)
	b.AddFunction(fnType, void, FunctionControlNone)
	b.AddLabel()

	merge := b.AllocID()
	b.AddBranch(merge)
	b.AddLabelWithID(merge)
	b.AddReturn()
	b.AddFunctionEnd()

	var branchTarget, labelID uint32
	forEachInstruction(b.BuildWords(), func(opcode OpCode, ops []uint32) {
		switch opcode {
		case OpBranch:
			branchTarget = ops[0]
		case OpLabel:
			labelID = ops[0] // last label wins
		}
	})
	assert.Equal(t, merge, branchTarget)
	assert.Equal(t, merge, labelID)
}

func TestInsertFunctionInstructions(t *testing.T) {
	b := NewModuleBuilder(Version1_3)
	void := b.AddTypeVoid()
	fnType := b.AddTypeFunction(void)
	b.AddFunction(fnType, void, FunctionControlNone)
	b.AddLabel()

	selector := uint32(99)
	merge := b.AllocID()
	caseLabel := b.AllocID()
	pos := b.FunctionPos()
	b.AddLabelWithID(caseLabel)
	b.AddBranch(merge)
	b.AddLabelWithID(merge)
	b.AddReturn()
	b.AddFunctionEnd()

	b.InsertFunctionInstructions(pos,
		MakeSelectionMerge(merge, SelectionControlNone),
		MakeSwitch(selector, merge, []uint32{3, caseLabel}),
	)

	var order []OpCode
	forEachInstruction(b.BuildWords(), func(opcode OpCode, ops []uint32) {
		switch opcode {
		case OpSelectionMerge, OpSwitch, OpLabel, OpBranch, OpReturn:
			order = append(order, opcode)
		}
	})
	require.Equal(t, []OpCode{
		OpLabel, OpSelectionMerge, OpSwitch, OpLabel, OpBranch, OpLabel, OpReturn,
	}, order)
}

// forEachInstruction walks a built module's instruction stream, skipping
// the five header words.
func forEachInstruction(words []uint32, fn func(opcode OpCode, operands []uint32)) {
	i := 5
	for i < len(words) {
		head := words[i]
		count := int(head >> 16)
		if count == 0 || i+count > len(words) {
			return
		}
		fn(OpCode(head&0xFFFF), words[i+1:i+count])
		i += count
	}
}
