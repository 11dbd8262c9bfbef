package spirv

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Instruction represents a SPIR-V instruction.
type Instruction struct {
	Opcode OpCode
	Words  []uint32 // result type ID, result ID, operands
}

// InstructionBuilder builds SPIR-V instructions.
type InstructionBuilder struct {
	words []uint32
}

// NewInstructionBuilder creates a new instruction builder.
func NewInstructionBuilder() *InstructionBuilder {
	return &InstructionBuilder{
		words: make([]uint32, 0, 8),
	}
}

// AddWord adds a word to the instruction.
func (b *InstructionBuilder) AddWord(word uint32) {
	b.words = append(b.words, word)
}

// AddString adds a null-terminated UTF-8 string.
func (b *InstructionBuilder) AddString(s string) {
	bytes := []byte(s)
	// Add null terminator if not present
	if len(bytes) == 0 || bytes[len(bytes)-1] != 0 {
		bytes = append(bytes, 0)
	}

	// Pad to word boundary
	for len(bytes)%4 != 0 {
		bytes = append(bytes, 0)
	}

	// Convert to words
	for i := 0; i < len(bytes); i += 4 {
		word := uint32(bytes[i]) |
			uint32(bytes[i+1])<<8 |
			uint32(bytes[i+2])<<16 |
			uint32(bytes[i+3])<<24
		b.words = append(b.words, word)
	}
}

// Build builds the instruction with the given opcode.
func (b *InstructionBuilder) Build(opcode OpCode) Instruction {
	return Instruction{
		Opcode: opcode,
		Words:  b.words,
	}
}

// Encode encodes the instruction to binary.
func (i Instruction) Encode() []uint32 {
	wordCount := uint32(len(i.Words) + 1) // +1 for opcode word
	result := make([]uint32, 0, wordCount)
	result = append(result, (wordCount<<16)|uint32(i.Opcode))
	result = append(result, i.Words...)
	return result
}

// dedupKey builds a cache key for a type/constant request from its opcode
// and argument tuple, letting AddType*/AddConstant* return a previously
// allocated ID instead of emitting a structurally identical duplicate.
func dedupKey(opcode OpCode, args ...uint32) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d", opcode)
	for _, a := range args {
		sb.WriteByte(':')
		fmt.Fprintf(&sb, "%d", a)
	}
	return sb.String()
}

// ModuleBuilder builds complete SPIR-V modules.
type ModuleBuilder struct {
	// Header
	version   Version
	generator uint32
	bound     uint32 // max ID + 1
	schema    uint32

	// Sections (ordered per SPIR-V spec)
	capabilities   []Instruction
	extensions     []Instruction
	extInstImports []Instruction
	memoryModel    *Instruction
	entryPoints    []Instruction
	executionModes []Instruction
	debugStrings   []Instruction // OpString
	debugNames     []Instruction // OpName, OpMemberName
	annotations    []Instruction // OpDecorate, OpMemberDecorate
	types          []Instruction // OpType*, OpConstant*
	globalVars     []Instruction // OpVariable (global)
	functions      []Instruction // OpFunction...OpFunctionEnd

	// ID allocation
	nextID uint32

	// Structural dedup: opcode+argument-tuple -> result id, covers every
	// OpType*/OpConstant* emitted through the Add* helpers below. Late
	// constants (AllocLateConstant) are deliberately excluded: they are
	// placeholders patched after allocation and must never be returned
	// to an unrelated caller.
	dedup map[string]uint32

	// capabilitySet tracks which capabilities have already been emitted,
	// so AddCapability is idempotent.
	capabilitySet map[Capability]bool

	// lateConstants maps a pre-allocated constant ID to its index within
	// the types section, so PatchLateConstant can overwrite the
	// placeholder once the real value is known.
	lateConstants map[uint32]int
}

// NewModuleBuilder creates a new SPIR-V module builder.
func NewModuleBuilder(version Version) *ModuleBuilder {
	return &ModuleBuilder{
		version:        version,
		generator:      GeneratorID,
		schema:         0,
		capabilities:   make([]Instruction, 0),
		extensions:     make([]Instruction, 0),
		extInstImports: make([]Instruction, 0),
		entryPoints:    make([]Instruction, 0),
		executionModes: make([]Instruction, 0),
		debugStrings:   make([]Instruction, 0),
		debugNames:     make([]Instruction, 0),
		annotations:    make([]Instruction, 0),
		types:          make([]Instruction, 0),
		globalVars:     make([]Instruction, 0),
		functions:      make([]Instruction, 0),
		nextID:         1,
		dedup:          make(map[string]uint32),
		capabilitySet:  make(map[Capability]bool),
		lateConstants:  make(map[uint32]int),
	}
}

// AllocID allocates a new SPIR-V ID.
func (b *ModuleBuilder) AllocID() uint32 {
	id := b.nextID
	b.nextID++
	return id
}

// addTypeOrConstant appends inst to the types section, remembers it under
// key for future dedup, and returns the id that was reserved for it.
func (b *ModuleBuilder) addTypeOrConstant(key string, id uint32, inst Instruction) uint32 {
	b.types = append(b.types, inst)
	if key != "" {
		b.dedup[key] = id
	}
	return id
}

// AddCapability enables a capability. Enabling the same capability twice
// is a no-op: OpCapability must appear at most once per distinct value.
func (b *ModuleBuilder) AddCapability(capability Capability) {
	if b.capabilitySet[capability] {
		return
	}
	b.capabilitySet[capability] = true
	builder := NewInstructionBuilder()
	builder.AddWord(uint32(capability))
	b.capabilities = append(b.capabilities, builder.Build(OpCapability))
}

// AddExtension adds an extension.
func (b *ModuleBuilder) AddExtension(name string) {
	builder := NewInstructionBuilder()
	builder.AddString(name)
	b.extensions = append(b.extensions, builder.Build(OpExtension))
}

// AddExtInstImport imports an extended instruction set.
func (b *ModuleBuilder) AddExtInstImport(name string) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddString(name)
	b.extInstImports = append(b.extInstImports, builder.Build(OpExtInstImport))
	return id
}

// SetMemoryModel sets the memory model.
func (b *ModuleBuilder) SetMemoryModel(addressing AddressingModel, memory MemoryModel) {
	builder := NewInstructionBuilder()
	builder.AddWord(uint32(addressing))
	builder.AddWord(uint32(memory))
	inst := builder.Build(OpMemoryModel)
	b.memoryModel = &inst
}

// AddEntryPoint adds an entry point.
func (b *ModuleBuilder) AddEntryPoint(execModel ExecutionModel, funcID uint32, name string, interfaces []uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(uint32(execModel))
	builder.AddWord(funcID)
	builder.AddString(name)
	for _, iface := range interfaces {
		builder.AddWord(iface)
	}
	b.entryPoints = append(b.entryPoints, builder.Build(OpEntryPoint))
}

// AddExecutionMode adds an execution mode.
func (b *ModuleBuilder) AddExecutionMode(entryPoint uint32, mode ExecutionMode, params ...uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(entryPoint)
	builder.AddWord(uint32(mode))
	for _, param := range params {
		builder.AddWord(param)
	}
	b.executionModes = append(b.executionModes, builder.Build(OpExecutionMode))
}

// AddString adds a debug string.
func (b *ModuleBuilder) AddString(text string) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddString(text)
	b.debugStrings = append(b.debugStrings, builder.Build(OpString))
	return id
}

// AddName adds a debug name.
func (b *ModuleBuilder) AddName(id uint32, name string) {
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddString(name)
	b.debugNames = append(b.debugNames, builder.Build(OpName))
}

// AddMemberName adds a debug member name.
func (b *ModuleBuilder) AddMemberName(structID, member uint32, name string) {
	builder := NewInstructionBuilder()
	builder.AddWord(structID)
	builder.AddWord(member)
	builder.AddString(name)
	b.debugNames = append(b.debugNames, builder.Build(OpMemberName))
}

// AddDecorate adds a decoration.
func (b *ModuleBuilder) AddDecorate(id uint32, decoration Decoration, params ...uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(uint32(decoration))
	for _, param := range params {
		builder.AddWord(param)
	}
	b.annotations = append(b.annotations, builder.Build(OpDecorate))
}

// AddMemberDecorate adds a member decoration.
func (b *ModuleBuilder) AddMemberDecorate(structID, member uint32, decoration Decoration, params ...uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(structID)
	builder.AddWord(member)
	builder.AddWord(uint32(decoration))
	for _, param := range params {
		builder.AddWord(param)
	}
	b.annotations = append(b.annotations, builder.Build(OpMemberDecorate))
}

// AddTypeVoid adds OpTypeVoid, deduplicated.
func (b *ModuleBuilder) AddTypeVoid() uint32 {
	key := dedupKey(OpTypeVoid)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	return b.addTypeOrConstant(key, id, builder.Build(OpTypeVoid))
}

// AddTypeBool adds OpTypeBool, deduplicated.
func (b *ModuleBuilder) AddTypeBool() uint32 {
	key := dedupKey(OpTypeBool)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	return b.addTypeOrConstant(key, id, builder.Build(OpTypeBool))
}

// AddTypeFloat adds OpTypeFloat, deduplicated on width.
func (b *ModuleBuilder) AddTypeFloat(width uint32) uint32 {
	key := dedupKey(OpTypeFloat, width)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(width)
	return b.addTypeOrConstant(key, id, builder.Build(OpTypeFloat))
}

// AddTypeInt adds OpTypeInt, deduplicated on width+signedness.
func (b *ModuleBuilder) AddTypeInt(width uint32, signed bool) uint32 {
	signedness := uint32(0)
	if signed {
		signedness = 1
	}
	key := dedupKey(OpTypeInt, width, signedness)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(width)
	builder.AddWord(signedness)
	return b.addTypeOrConstant(key, id, builder.Build(OpTypeInt))
}

// AddTypeVector adds OpTypeVector, deduplicated on component type+count.
func (b *ModuleBuilder) AddTypeVector(componentType uint32, count uint32) uint32 {
	key := dedupKey(OpTypeVector, componentType, count)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(componentType)
	builder.AddWord(count)
	return b.addTypeOrConstant(key, id, builder.Build(OpTypeVector))
}

// AddTypeMatrix adds OpTypeMatrix, deduplicated on column type+count.
func (b *ModuleBuilder) AddTypeMatrix(columnType uint32, columnCount uint32) uint32 {
	key := dedupKey(OpTypeMatrix, columnType, columnCount)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(columnType)
	builder.AddWord(columnCount)
	return b.addTypeOrConstant(key, id, builder.Build(OpTypeMatrix))
}

// AddTypeArray adds OpTypeArray, deduplicated on element type+length id.
func (b *ModuleBuilder) AddTypeArray(elementType uint32, length uint32) uint32 {
	key := dedupKey(OpTypeArray, elementType, length)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(elementType)
	builder.AddWord(length) // length is a constant ID
	return b.addTypeOrConstant(key, id, builder.Build(OpTypeArray))
}

// AddTypeRuntimeArray adds OpTypeRuntimeArray, deduplicated on element type.
func (b *ModuleBuilder) AddTypeRuntimeArray(elementType uint32) uint32 {
	key := dedupKey(OpTypeRuntimeArray, elementType)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(elementType)
	return b.addTypeOrConstant(key, id, builder.Build(OpTypeRuntimeArray))
}

// AddTypePointer adds OpTypePointer, deduplicated on storage class+base.
func (b *ModuleBuilder) AddTypePointer(storageClass StorageClass, baseType uint32) uint32 {
	key := dedupKey(OpTypePointer, uint32(storageClass), baseType)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(uint32(storageClass))
	builder.AddWord(baseType)
	return b.addTypeOrConstant(key, id, builder.Build(OpTypePointer))
}

// AddTypeFunction adds OpTypeFunction, deduplicated on return+param types.
func (b *ModuleBuilder) AddTypeFunction(returnType uint32, paramTypes ...uint32) uint32 {
	args := append([]uint32{returnType}, paramTypes...)
	key := dedupKey(OpTypeFunction, args...)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(returnType)
	for _, paramType := range paramTypes {
		builder.AddWord(paramType)
	}
	return b.addTypeOrConstant(key, id, builder.Build(OpTypeFunction))
}

// AddTypeStruct adds OpTypeStruct. Struct types are NOT deduplicated: two
// structurally identical structs can carry distinct member decorations
// (offsets, names), so identity here is by declaration site, not shape.
func (b *ModuleBuilder) AddTypeStruct(memberTypes ...uint32) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	for _, memberType := range memberTypes {
		builder.AddWord(memberType)
	}
	b.types = append(b.types, builder.Build(OpTypeStruct))
	return id
}

// AddTypeImage adds OpTypeImage, deduplicated on its full signature.
func (b *ModuleBuilder) AddTypeImage(sampledType uint32, dim uint32, depth uint32, arrayed uint32, ms uint32, sampled uint32, format uint32) uint32 {
	key := dedupKey(OpTypeImage, sampledType, dim, depth, arrayed, ms, sampled, format)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(sampledType)
	builder.AddWord(dim)
	builder.AddWord(depth)
	builder.AddWord(arrayed)
	builder.AddWord(ms)
	builder.AddWord(sampled)
	builder.AddWord(format)
	return b.addTypeOrConstant(key, id, builder.Build(OpTypeImage))
}

// AddTypeSampler adds OpTypeSampler, deduplicated (there is only ever one
// sampler type per module).
func (b *ModuleBuilder) AddTypeSampler() uint32 {
	key := dedupKey(OpTypeSampler)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	return b.addTypeOrConstant(key, id, builder.Build(OpTypeSampler))
}

// AddTypeSampledImage adds OpTypeSampledImage, deduplicated on image type.
func (b *ModuleBuilder) AddTypeSampledImage(imageType uint32) uint32 {
	key := dedupKey(OpTypeSampledImage, imageType)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(imageType)
	return b.addTypeOrConstant(key, id, builder.Build(OpTypeSampledImage))
}

// AddConstant adds OpConstant, deduplicated on type+literal words.
func (b *ModuleBuilder) AddConstant(typeID uint32, values ...uint32) uint32 {
	key := dedupKey(OpConstant, append([]uint32{typeID}, values...)...)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(typeID)
	builder.AddWord(id)
	for _, value := range values {
		builder.AddWord(value)
	}
	return b.addTypeOrConstant(key, id, builder.Build(OpConstant))
}

// AddConstantFloat32 adds a deduplicated 32-bit float constant.
func (b *ModuleBuilder) AddConstantFloat32(typeID uint32, value float32) uint32 {
	bits := math.Float32bits(value)
	return b.AddConstant(typeID, bits)
}

// AddConstantFloat64 adds a deduplicated 64-bit float constant.
func (b *ModuleBuilder) AddConstantFloat64(typeID uint32, value float64) uint32 {
	bits := math.Float64bits(value)
	lowBits := uint32(bits & 0xFFFFFFFF)
	highBits := uint32(bits >> 32)
	return b.AddConstant(typeID, lowBits, highBits)
}

// AddConstantTrue adds a deduplicated OpConstantTrue.
func (b *ModuleBuilder) AddConstantTrue(boolType uint32) uint32 {
	key := dedupKey(OpConstantTrue, boolType)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(boolType)
	builder.AddWord(id)
	return b.addTypeOrConstant(key, id, builder.Build(OpConstantTrue))
}

// AddConstantFalse adds a deduplicated OpConstantFalse.
func (b *ModuleBuilder) AddConstantFalse(boolType uint32) uint32 {
	key := dedupKey(OpConstantFalse, boolType)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(boolType)
	builder.AddWord(id)
	return b.addTypeOrConstant(key, id, builder.Build(OpConstantFalse))
}

// AddConstantComposite adds OpConstantComposite, deduplicated on
// type+constituents.
func (b *ModuleBuilder) AddConstantComposite(typeID uint32, constituents ...uint32) uint32 {
	key := dedupKey(OpConstantComposite, append([]uint32{typeID}, constituents...)...)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(typeID)
	builder.AddWord(id)
	for _, constituent := range constituents {
		builder.AddWord(constituent)
	}
	return b.addTypeOrConstant(key, id, builder.Build(OpConstantComposite))
}

// AllocLateConstant reserves an id for a scalar constant whose literal
// value is not known yet (e.g. an immediate computed from a later pass
// over the instruction stream, or a relative-addressing bound patched in
// after the whole module has been scanned). It emits a placeholder
// OpConstant with a zero literal and records the placeholder's position so
// PatchLateConstant can overwrite it in place. Late constants are never
// entered into the dedup table: a second caller asking for "the same"
// late constant must get its own id, since its true value is still
// unresolved and may turn out to differ.
func (b *ModuleBuilder) AllocLateConstant(typeID uint32) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(typeID)
	builder.AddWord(id)
	builder.AddWord(0)
	b.lateConstants[id] = len(b.types)
	b.types = append(b.types, builder.Build(OpConstant))
	return id
}

// PatchLateConstant overwrites the literal word of a constant previously
// allocated with AllocLateConstant. It panics if id was not allocated that
// way, since that indicates a compiler bug rather than recoverable input.
func (b *ModuleBuilder) PatchLateConstant(id uint32, value uint32) {
	idx, ok := b.lateConstants[id]
	if !ok {
		panic(fmt.Sprintf("spirv: %d is not a late constant", id))
	}
	b.types[idx].Words[2] = value
}

// AddVariable adds OpVariable.
func (b *ModuleBuilder) AddVariable(pointerType uint32, storageClass StorageClass) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(pointerType)
	builder.AddWord(id)
	builder.AddWord(uint32(storageClass))
	b.globalVars = append(b.globalVars, builder.Build(OpVariable))
	return id
}

// AddVariableWithInit adds OpVariable with initializer.
func (b *ModuleBuilder) AddVariableWithInit(pointerType uint32, storageClass StorageClass, initID uint32) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(pointerType)
	builder.AddWord(id)
	builder.AddWord(uint32(storageClass))
	builder.AddWord(initID)
	b.globalVars = append(b.globalVars, builder.Build(OpVariable))
	return id
}

// AddLocalVariable adds OpVariable inside a function body (Function storage
// class). Callers are responsible for placing these before any other
// instruction in the entry block, per SPIR-V's block-ordering rule.
func (b *ModuleBuilder) AddLocalVariable(pointerType uint32) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(pointerType)
	builder.AddWord(id)
	builder.AddWord(uint32(StorageClassFunction))
	b.functions = append(b.functions, builder.Build(OpVariable))
	return id
}

// AddFunction adds a function definition.
func (b *ModuleBuilder) AddFunction(funcType uint32, returnType uint32, control FunctionControl) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(returnType)
	builder.AddWord(id)
	builder.AddWord(uint32(control))
	builder.AddWord(funcType)
	b.functions = append(b.functions, builder.Build(OpFunction))
	return id
}

// AddFunctionWithID adds a function definition under an id the caller
// reserved earlier, for entry points whose id must exist (for execution
// modes and decorations) before the function body is emitted.
func (b *ModuleBuilder) AddFunctionWithID(id uint32, funcType uint32, returnType uint32, control FunctionControl) {
	builder := NewInstructionBuilder()
	builder.AddWord(returnType)
	builder.AddWord(id)
	builder.AddWord(uint32(control))
	builder.AddWord(funcType)
	b.functions = append(b.functions, builder.Build(OpFunction))
}

// AddFunctionParameter adds a function parameter.
func (b *ModuleBuilder) AddFunctionParameter(typeID uint32) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(typeID)
	builder.AddWord(id)
	b.functions = append(b.functions, builder.Build(OpFunctionParameter))
	return id
}

// AddLabel adds a label.
func (b *ModuleBuilder) AddLabel() uint32 {
	id := b.AllocID()
	b.AddLabelWithID(id)
	return id
}

// AddLabelWithID adds a label for an id the caller allocated earlier,
// letting structured-control-flow emitters reference a block (in a merge
// declaration or branch) before its OpLabel is placed.
func (b *ModuleBuilder) AddLabelWithID(id uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	b.functions = append(b.functions, builder.Build(OpLabel))
}

// FunctionPos returns the current length of the function-body section,
// usable as an insertion point for InsertFunctionInstructions.
func (b *ModuleBuilder) FunctionPos() int { return len(b.functions) }

// InsertFunctionInstructions splices instructions into the function-body
// section at pos. Used for instructions whose operands are only known
// after later input has been seen (the OpSelectionMerge/OpSwitch header,
// whose case labels arrive one Case token at a time). Positions recorded
// at or before pos stay valid; positions after it shift by len(insts).
func (b *ModuleBuilder) InsertFunctionInstructions(pos int, insts ...Instruction) {
	b.functions = append(b.functions[:pos], append(append([]Instruction{}, insts...), b.functions[pos:]...)...)
}

// MakeSelectionMerge builds an OpSelectionMerge instruction without
// appending it, for use with InsertFunctionInstructions.
func MakeSelectionMerge(mergeLabel uint32, control SelectionControl) Instruction {
	builder := NewInstructionBuilder()
	builder.AddWord(mergeLabel)
	builder.AddWord(uint32(control))
	return builder.Build(OpSelectionMerge)
}

// MakeSwitch builds an OpSwitch instruction without appending it.
func MakeSwitch(selector uint32, defaultLabel uint32, pairs []uint32) Instruction {
	builder := NewInstructionBuilder()
	builder.AddWord(selector)
	builder.AddWord(defaultLabel)
	for _, w := range pairs {
		builder.AddWord(w)
	}
	return builder.Build(OpSwitch)
}

// AddReturn adds OpReturn.
func (b *ModuleBuilder) AddReturn() {
	builder := NewInstructionBuilder()
	b.functions = append(b.functions, builder.Build(OpReturn))
}

// AddReturnValue adds OpReturnValue.
func (b *ModuleBuilder) AddReturnValue(valueID uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(valueID)
	b.functions = append(b.functions, builder.Build(OpReturnValue))
}

// AddFunctionEnd adds OpFunctionEnd.
func (b *ModuleBuilder) AddFunctionEnd() {
	builder := NewInstructionBuilder()
	b.functions = append(b.functions, builder.Build(OpFunctionEnd))
}

// AddBinaryOp adds a binary operation instruction.
func (b *ModuleBuilder) AddBinaryOp(opcode OpCode, resultType uint32, left uint32, right uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(left)
	builder.AddWord(right)
	b.functions = append(b.functions, builder.Build(opcode))
	return resultID
}

// AddUnaryOp adds a unary operation instruction.
func (b *ModuleBuilder) AddUnaryOp(opcode OpCode, resultType uint32, operand uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(operand)
	b.functions = append(b.functions, builder.Build(opcode))
	return resultID
}

// AddTernaryOp adds a three-operand instruction, e.g. OpFClamp-style GLSL
// extended calls expressed through plain opcodes, or OpBitFieldInsert's
// leading operands.
func (b *ModuleBuilder) AddTernaryOp(opcode OpCode, resultType uint32, a, c, d uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(a)
	builder.AddWord(c)
	builder.AddWord(d)
	b.functions = append(b.functions, builder.Build(opcode))
	return resultID
}

// AddBitFieldInsert adds OpBitFieldInsert, inserting `insert`'s low
// `count` bits into `base` starting at `offset`.
func (b *ModuleBuilder) AddBitFieldInsert(resultType, base, insert, offset, count uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(base)
	builder.AddWord(insert)
	builder.AddWord(offset)
	builder.AddWord(count)
	b.functions = append(b.functions, builder.Build(OpBitFieldInsert))
	return resultID
}

// AddLoad adds OpLoad.
func (b *ModuleBuilder) AddLoad(resultType uint32, pointer uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(pointer)
	b.functions = append(b.functions, builder.Build(OpLoad))
	return resultID
}

// AddStore adds OpStore.
func (b *ModuleBuilder) AddStore(pointer uint32, value uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(pointer)
	builder.AddWord(value)
	b.functions = append(b.functions, builder.Build(OpStore))
}

// AddAccessChain adds OpAccessChain.
func (b *ModuleBuilder) AddAccessChain(resultType uint32, base uint32, indices ...uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(base)
	for _, index := range indices {
		builder.AddWord(index)
	}
	b.functions = append(b.functions, builder.Build(OpAccessChain))
	return resultID
}

// AddCompositeConstruct adds OpCompositeConstruct.
func (b *ModuleBuilder) AddCompositeConstruct(resultType uint32, constituents ...uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	for _, constituent := range constituents {
		builder.AddWord(constituent)
	}
	b.functions = append(b.functions, builder.Build(OpCompositeConstruct))
	return resultID
}

// AddCompositeExtract adds OpCompositeExtract.
func (b *ModuleBuilder) AddCompositeExtract(resultType uint32, composite uint32, indices ...uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(composite)
	for _, index := range indices {
		builder.AddWord(index)
	}
	b.functions = append(b.functions, builder.Build(OpCompositeExtract))
	return resultID
}

// AddCompositeInsert adds OpCompositeInsert, writing object into composite
// at the given member indices.
func (b *ModuleBuilder) AddCompositeInsert(resultType uint32, object uint32, composite uint32, indices ...uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(object)
	builder.AddWord(composite)
	for _, index := range indices {
		builder.AddWord(index)
	}
	b.functions = append(b.functions, builder.Build(OpCompositeInsert))
	return resultID
}

// AddVectorShuffle adds OpVectorShuffle for vector swizzle operations.
func (b *ModuleBuilder) AddVectorShuffle(resultType uint32, vec1 uint32, vec2 uint32, components []uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(vec1)
	builder.AddWord(vec2)
	for _, component := range components {
		builder.AddWord(component)
	}
	b.functions = append(b.functions, builder.Build(OpVectorShuffle))
	return resultID
}

// AddSelect adds OpSelect.
func (b *ModuleBuilder) AddSelect(resultType uint32, condition uint32, accept uint32, reject uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(condition)
	builder.AddWord(accept)
	builder.AddWord(reject)
	b.functions = append(b.functions, builder.Build(OpSelect))
	return resultID
}

// AddSelectionMerge adds OpSelectionMerge.
func (b *ModuleBuilder) AddSelectionMerge(mergeLabel uint32, control SelectionControl) {
	builder := NewInstructionBuilder()
	builder.AddWord(mergeLabel)
	builder.AddWord(uint32(control))
	b.functions = append(b.functions, builder.Build(OpSelectionMerge))
}

// AddLoopMerge adds OpLoopMerge.
func (b *ModuleBuilder) AddLoopMerge(mergeLabel uint32, continueLabel uint32, control LoopControl) {
	builder := NewInstructionBuilder()
	builder.AddWord(mergeLabel)
	builder.AddWord(continueLabel)
	builder.AddWord(uint32(control))
	b.functions = append(b.functions, builder.Build(OpLoopMerge))
}

// AddBranch adds an unconditional OpBranch.
func (b *ModuleBuilder) AddBranch(target uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(target)
	b.functions = append(b.functions, builder.Build(OpBranch))
}

// AddBranchConditional adds OpBranchConditional.
func (b *ModuleBuilder) AddBranchConditional(condition uint32, trueLabel uint32, falseLabel uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(condition)
	builder.AddWord(trueLabel)
	builder.AddWord(falseLabel)
	b.functions = append(b.functions, builder.Build(OpBranchConditional))
}

// AddSwitch adds OpSwitch. pairs holds (literal, label) entries in source
// order; OpSwitch itself takes the selector, the default label,
// and then the interleaved literal/label pairs.
func (b *ModuleBuilder) AddSwitch(selector uint32, defaultLabel uint32, pairs []uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(selector)
	builder.AddWord(defaultLabel)
	for _, w := range pairs {
		builder.AddWord(w)
	}
	b.functions = append(b.functions, builder.Build(OpSwitch))
}

// AddKill adds OpKill (fragment shader discard, unconditional terminator).
func (b *ModuleBuilder) AddKill() {
	builder := NewInstructionBuilder()
	b.functions = append(b.functions, builder.Build(OpKill))
}

// AddDemoteToHelperInvocation adds OpDemoteToHelperInvocationEXT, the
// non-terminator alternative to OpKill used when control flow must
// continue past a conditional discard.
func (b *ModuleBuilder) AddDemoteToHelperInvocation() {
	builder := NewInstructionBuilder()
	b.functions = append(b.functions, builder.Build(OpDemoteToHelperInvocationEXT))
}

// AddControlBarrier adds OpControlBarrier.
func (b *ModuleBuilder) AddControlBarrier(execution, memory, semantics uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(execution)
	builder.AddWord(memory)
	builder.AddWord(semantics)
	b.functions = append(b.functions, builder.Build(OpControlBarrier))
}

// AddMemoryBarrier adds OpMemoryBarrier.
func (b *ModuleBuilder) AddMemoryBarrier(memory, semantics uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(memory)
	builder.AddWord(semantics)
	b.functions = append(b.functions, builder.Build(OpMemoryBarrier))
}

// AddAtomicOp adds one of the OpAtomic* read-modify-write instructions that
// take (pointer, scope, semantics[, value]) after the result header.
func (b *ModuleBuilder) AddAtomicOp(opcode OpCode, resultType, pointer, scope, semantics uint32, value *uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(pointer)
	builder.AddWord(scope)
	builder.AddWord(semantics)
	if value != nil {
		builder.AddWord(*value)
	}
	b.functions = append(b.functions, builder.Build(opcode))
	return resultID
}

// AddAtomicCompareExchange adds OpAtomicCompareExchange.
func (b *ModuleBuilder) AddAtomicCompareExchange(resultType, pointer, scope, equalSemantics, unequalSemantics, value, comparator uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(pointer)
	builder.AddWord(scope)
	builder.AddWord(equalSemantics)
	builder.AddWord(unequalSemantics)
	builder.AddWord(value)
	builder.AddWord(comparator)
	b.functions = append(b.functions, builder.Build(OpAtomicCompareExchange))
	return resultID
}

// AddEmitVertex adds OpEmitVertex (geometry shader stage).
func (b *ModuleBuilder) AddEmitVertex() {
	builder := NewInstructionBuilder()
	b.functions = append(b.functions, builder.Build(OpEmitVertex))
}

// AddEndPrimitive adds OpEndPrimitive (geometry shader stage).
func (b *ModuleBuilder) AddEndPrimitive() {
	builder := NewInstructionBuilder()
	b.functions = append(b.functions, builder.Build(OpEndPrimitive))
}

// AddEmitStreamVertex adds OpEmitStreamVertex for multi-stream geometry
// shaders; stream is a constant id.
func (b *ModuleBuilder) AddEmitStreamVertex(stream uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(stream)
	b.functions = append(b.functions, builder.Build(OpEmitStreamVertex))
}

// AddEndStreamPrimitive adds OpEndStreamPrimitive.
func (b *ModuleBuilder) AddEndStreamPrimitive(stream uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(stream)
	b.functions = append(b.functions, builder.Build(OpEndStreamPrimitive))
}

// AddArrayLength adds OpArrayLength, querying the element count of a
// runtime array that is member `member` of the struct pointed to by
// structPtr.
func (b *ModuleBuilder) AddArrayLength(resultType, structPtr, member uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(structPtr)
	builder.AddWord(member)
	b.functions = append(b.functions, builder.Build(OpArrayLength))
	return resultID
}

// AddImageTexelPointer adds OpImageTexelPointer, producing a pointer in
// Image storage class suitable for OpAtomic* on a storage image.
func (b *ModuleBuilder) AddImageTexelPointer(resultType, image, coordinate, sample uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(image)
	builder.AddWord(coordinate)
	builder.AddWord(sample)
	b.functions = append(b.functions, builder.Build(OpImageTexelPointer))
	return resultID
}

// AddFunctionCall adds OpFunctionCall.
func (b *ModuleBuilder) AddFunctionCall(resultType, function uint32, args ...uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(function)
	for _, a := range args {
		builder.AddWord(a)
	}
	b.functions = append(b.functions, builder.Build(OpFunctionCall))
	return resultID
}

// ImageOperands packs the optional trailing operands of an image
// instruction. Every field is optional; Encode() writes the mask word
// (omitted entirely when no field is set) followed by each present
// operand's words, in the bit order mandated by the SPIR-V spec.
type ImageOperands struct {
	Bias         *uint32
	Lod          *uint32
	GradDx       *uint32
	GradDy       *uint32
	ConstOffset  *uint32
	Offset       *uint32
	ConstOffsets *uint32
	Sample       *uint32
	MinLod       *uint32
}

const (
	imageOperandBias         uint32 = 0x1
	imageOperandLod          uint32 = 0x2
	imageOperandGrad         uint32 = 0x4
	imageOperandConstOffset  uint32 = 0x8
	imageOperandOffset       uint32 = 0x10
	imageOperandConstOffsets uint32 = 0x20
	imageOperandSample       uint32 = 0x40
	imageOperandMinLod       uint32 = 0x1000
)

// Encode returns the mask word (if any operand is present) followed by the
// operand words themselves, in SPIR-V's mandated bitmask-bit order.
func (o ImageOperands) Encode() []uint32 {
	var mask uint32
	var words []uint32
	if o.Bias != nil {
		mask |= imageOperandBias
		words = append(words, *o.Bias)
	}
	if o.Lod != nil {
		mask |= imageOperandLod
		words = append(words, *o.Lod)
	}
	if o.GradDx != nil && o.GradDy != nil {
		mask |= imageOperandGrad
		words = append(words, *o.GradDx, *o.GradDy)
	}
	if o.ConstOffset != nil {
		mask |= imageOperandConstOffset
		words = append(words, *o.ConstOffset)
	}
	if o.Offset != nil {
		mask |= imageOperandOffset
		words = append(words, *o.Offset)
	}
	if o.ConstOffsets != nil {
		mask |= imageOperandConstOffsets
		words = append(words, *o.ConstOffsets)
	}
	if o.Sample != nil {
		mask |= imageOperandSample
		words = append(words, *o.Sample)
	}
	if o.MinLod != nil {
		mask |= imageOperandMinLod
		words = append(words, *o.MinLod)
	}
	if mask == 0 {
		return nil
	}
	return append([]uint32{mask}, words...)
}

// AddImageOp emits an image instruction (OpImageSample*, OpImageFetch,
// OpImageGather, ...) taking a result type plus a fixed prefix of operand
// words, followed by an optional ImageOperands tail.
func (b *ModuleBuilder) AddImageOp(opcode OpCode, resultType uint32, prefix []uint32, operands ImageOperands) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	for _, w := range prefix {
		builder.AddWord(w)
	}
	for _, w := range operands.Encode() {
		builder.AddWord(w)
	}
	b.functions = append(b.functions, builder.Build(opcode))
	return resultID
}

// AddImageOpNoResult emits an image instruction with no result id, such as
// OpImageWrite.
func (b *ModuleBuilder) AddImageOpNoResult(opcode OpCode, prefix []uint32, operands ImageOperands) {
	builder := NewInstructionBuilder()
	for _, w := range prefix {
		builder.AddWord(w)
	}
	for _, w := range operands.Encode() {
		builder.AddWord(w)
	}
	b.functions = append(b.functions, builder.Build(opcode))
}

// AddSampledImage adds OpSampledImage, combining a sampler and image into
// the combined type used by every sampling instruction.
func (b *ModuleBuilder) AddSampledImage(resultType, image, sampler uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(image)
	builder.AddWord(sampler)
	b.functions = append(b.functions, builder.Build(OpSampledImage))
	return resultID
}

// AddExtInst adds OpExtInst (extended instruction).
func (b *ModuleBuilder) AddExtInst(resultType uint32, extSet uint32, instruction uint32, operands ...uint32) uint32 {
	resultID := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(resultType)
	builder.AddWord(resultID)
	builder.AddWord(extSet)
	builder.AddWord(instruction)
	for _, operand := range operands {
		builder.AddWord(operand)
	}
	b.functions = append(b.functions, builder.Build(OpExtInst))
	return resultID
}

// Build generates the final SPIR-V binary.
func (b *ModuleBuilder) Build() []byte {
	// Update bound to max ID
	b.bound = b.nextID

	// Calculate total size
	totalWords := 5 // header
	totalWords += countWords(b.capabilities)
	totalWords += countWords(b.extensions)
	totalWords += countWords(b.extInstImports)
	if b.memoryModel != nil {
		totalWords += len(b.memoryModel.Encode())
	}
	totalWords += countWords(b.entryPoints)
	totalWords += countWords(b.executionModes)
	totalWords += countWords(b.debugStrings)
	totalWords += countWords(b.debugNames)
	totalWords += countWords(b.annotations)
	totalWords += countWords(b.types)
	totalWords += countWords(b.globalVars)
	totalWords += countWords(b.functions)

	// Allocate buffer
	buffer := make([]byte, totalWords*4)
	offset := 0

	// Write header
	binary.LittleEndian.PutUint32(buffer[offset:], MagicNumber)
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], versionToWord(b.version))
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], b.generator)
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], b.bound)
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], b.schema)
	offset += 4

	// Write sections in order
	offset = writeInstructions(buffer, offset, b.capabilities)
	offset = writeInstructions(buffer, offset, b.extensions)
	offset = writeInstructions(buffer, offset, b.extInstImports)
	if b.memoryModel != nil {
		offset = writeInstruction(buffer, offset, *b.memoryModel)
	}
	offset = writeInstructions(buffer, offset, b.entryPoints)
	offset = writeInstructions(buffer, offset, b.executionModes)
	offset = writeInstructions(buffer, offset, b.debugStrings)
	offset = writeInstructions(buffer, offset, b.debugNames)
	offset = writeInstructions(buffer, offset, b.annotations)
	offset = writeInstructions(buffer, offset, b.types)
	offset = writeInstructions(buffer, offset, b.globalVars)
	_ = writeInstructions(buffer, offset, b.functions)

	return buffer
}

// BuildWords generates the final SPIR-V module as a uint32 word stream,
// the representation the Vulkan ABI consumes (VkShaderModuleCreateInfo
// takes a word pointer, not bytes).
func (b *ModuleBuilder) BuildWords() []uint32 {
	data := b.Build()
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words
}

// countWords counts total words in instructions.
func countWords(instructions []Instruction) int {
	count := 0
	for _, inst := range instructions {
		count += len(inst.Encode())
	}
	return count
}

// writeInstructions writes instructions to buffer.
func writeInstructions(buffer []byte, offset int, instructions []Instruction) int {
	for _, inst := range instructions {
		offset = writeInstruction(buffer, offset, inst)
	}
	return offset
}

// writeInstruction writes a single instruction to buffer.
func writeInstruction(buffer []byte, offset int, inst Instruction) int {
	words := inst.Encode()
	for _, word := range words {
		binary.LittleEndian.PutUint32(buffer[offset:], word)
		offset += 4
	}
	return offset
}

// versionToWord converts Version to SPIR-V word format.
func versionToWord(v Version) uint32 {
	return (uint32(v.Major) << 16) | (uint32(v.Minor) << 8)
}
