package dxbc

// ScalarType tags how an operand's bits should be interpreted (spec.md §3
// "Scalar type").
type ScalarType uint8

const (
	ScalarU32 ScalarType = iota
	ScalarU64
	ScalarI32
	ScalarI64
	ScalarF32
	ScalarF64
	ScalarBool
)

// OperandType is the register-file tag decoded from an operand token's
// bits 12..19 (spec.md §4.5 step 4).
type OperandType uint8

const (
	OperandTemp OperandType = iota
	OperandInput
	OperandOutput
	OperandIndexableTemp
	OperandImm32
	OperandImm64
	OperandSampler
	OperandResource
	OperandConstantBuffer
	OperandImmediateConstantBuffer
	OperandLabel
	OperandNull
	OperandUAV
	OperandThreadGroupShared
	OperandInputPrimitiveID
	OperandOutputDepth
	OperandInputCoverageMask
	OperandInputThreadID
	OperandInputThreadGroupID
	OperandInputThreadIDInGroup
	OperandInputThreadIDInGroupFlattened
	OperandInputGSInstanceID
	OperandInputDomainPoint
	OperandInputControlPoint
	OperandOutputControlPoint
	OperandInputForkInstanceID
	OperandInputJoinInstanceID
	OperandInputControlPointID
	OperandOutputStencilRef
	OperandRasterizer
	OperandOutputCoverageMask
	OperandInputVertexID
	OperandInputInstanceID
	OperandInputIsFrontFace
	OperandOutputPosition
)

// SelectMode is the decoded meaning of an operand token's bits 2..3,
// meaningful only when the component-count field selects c4 (spec.md
// §4.5 step 4).
type SelectMode uint8

const (
	SelectMask SelectMode = iota
	SelectSwizzle
	SelectSelect1
)

// ComponentCount is the decoded meaning of an operand token's bits 0..1.
type ComponentCount uint8

const (
	ComponentCount0 ComponentCount = iota // scalar-absent
	ComponentCount1
	ComponentCount4
)

// IndexRep is the per-dimension index representation decoded from an
// operand token's bits 22..30 (three 3-bit fields, one per index
// dimension).
type IndexRep uint8

const (
	IndexImm32 IndexRep = iota
	IndexImm64
	IndexRelative
	IndexImm32PlusRelative
	IndexImm64PlusRelative
)

// RegIndex is one dimension of a decoded operand's index (spec.md §3
// "Register index"): either a bare immediate offset, or an offset plus a
// relative reference into a Select1-mode Temp register component.
type RegIndex struct {
	Rep      IndexRep
	Imm      int64
	Relative *Operand // non-nil only when Rep is Relative or Imm32PlusRelative/Imm64PlusRelative
}

// OperandModifier is the decoded extended "neg"/"abs" modifier pair.
type OperandModifier uint8

const (
	ModNone   OperandModifier = 0
	ModNeg    OperandModifier = 1
	ModAbs    OperandModifier = 2
	ModNegAbs OperandModifier = 3
)

// Operand is a decoded operand token plus its trailing immediates/indices
// (spec.md §3 "Decoded operand").
type Operand struct {
	Type      OperandType
	Count     ComponentCount
	Select    SelectMode
	Mask      Mask     // valid when Select == SelectMask
	Swizzle   [4]uint8 // valid when Select == SelectSwizzle
	Select1   uint8    // valid when Select == SelectSelect1
	IndexDim  int
	Index     [3]RegIndex
	Modifier  OperandModifier
	Imm32     [4]uint32
	Imm1Count int // 1 or 4, how many words of Imm32 are populated for an Imm32-typed operand
}

// EffectiveSwizzle returns the effective per-destination-slot
// swizzle: (0,0,0,0) when Count is not c4, the decoded Select1 index
// splatted across all four slots when Select is SelectSelect1, identity
// (0,1,2,3) when Select is SelectMask, or the literal decoded Swizzle
// otherwise.
func (o *Operand) EffectiveSwizzle() [4]uint8 {
	if o.Count != ComponentCount4 {
		return [4]uint8{0, 0, 0, 0}
	}
	switch o.Select {
	case SelectSelect1:
		return [4]uint8{o.Select1, o.Select1, o.Select1, o.Select1}
	case SelectMask:
		return [4]uint8{0, 1, 2, 3}
	default:
		return o.Swizzle
	}
}
