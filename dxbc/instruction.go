package dxbc

// ZeroTest is the opcode-control predicate-sense bit carried by
// conditional opcodes (If_z/If_nz, BreakC, ContinueC, RetC, Discard):
// whether the instruction branches when its test operand is zero or
// nonzero.
type ZeroTest uint8

const (
	TestNonZero ZeroTest = iota
	TestZero
)

// ResourceDim identifies a resource's dimensionality, carried on
// DclResource/DclUav* via the opcode-control bits, or via an extended
// resource-dim opcode token when one is present.
type ResourceDim uint8

const (
	ResourceDimUnknown ResourceDim = iota
	ResourceDimBuffer
	ResourceDimTexture1D
	ResourceDimTexture2D
	ResourceDimTexture2DMS
	ResourceDimTexture3D
	ResourceDimTextureCube
	ResourceDimTexture1DArray
	ResourceDimTexture2DArray
	ResourceDimTexture2DMSArray
	ResourceDimTextureCubeArray
	ResourceDimRawBuffer
	ResourceDimStructuredBuffer
)

// ResourceReturnType is a resource's declared per-component return type,
// carried on DclResource via a trailing Imm32 operand (one 4-bit field
// per component).
type ResourceReturnType uint8

const (
	ReturnTypeUnorm ResourceReturnType = 1
	ReturnTypeSnorm ResourceReturnType = 2
	ReturnTypeSint  ResourceReturnType = 3
	ReturnTypeUint  ResourceReturnType = 4
	ReturnTypeFloat ResourceReturnType = 5
)

// InterpolationMode is the decoded interpolation control carried on
// DclInputPS/DclInputPSSiv opcode-control bits.
type InterpolationMode uint8

const (
	InterpolationUndefined InterpolationMode = iota
	InterpolationConstant
	InterpolationLinear
	InterpolationLinearCentroid
	InterpolationLinearNoPerspective
	InterpolationLinearNoPerspectiveCentroid
	InterpolationLinearSample
	InterpolationLinearNoPerspectiveSample
)

// SampleControls is the decoded constant texel-offset extended opcode
// token (spec.md §4.5 step 3).
type SampleControls struct {
	U, V, W int32
}

// CustomDataClass distinguishes the two payloads the CustomData opcode
// carries (spec.md §4.5 step 1).
type CustomDataClass uint32

const (
	CustomDataComment                 CustomDataClass = 0
	CustomDataDebugInfo               CustomDataClass = 1
	CustomDataOpaque                  CustomDataClass = 2
	CustomDataImmediateConstantBuffer CustomDataClass = 3
)

// Instruction is a single decoded DXBC token-stream instruction (spec.md
// §3 "Decoded instruction").
type Instruction struct {
	Opcode   Opcode
	Class    InstrClass
	Saturate bool
	Precise  uint8 // bits 19..22 of the opcode token, per-component precise flags

	ZeroTest           ZeroTest
	ResourceDim        ResourceDim
	ResourceReturnType [4]ResourceReturnType
	Interpolation      InterpolationMode
	SyncFlags          uint32
	GlobalFlags        uint32
	ResInfoRetType     ResourceReturnType

	Sample SampleControls

	Dst []Operand
	Src []Operand
	Imm []uint32

	CustomDataClass CustomDataClass
	CustomData      []uint32
}

// opcode-control bit positions within word 0 (bits 11..23), shared by
// every opcode; opcode-specific controls are pulled from the same range
// by applyOpcodeControls per opcode.
const (
	ctrlSaturateBit = 13
	ctrlPreciseLo   = 19
	ctrlPreciseHi   = 22
)

// DclGlobalFlags control bits, relative to the controls field (opcode
// token bits 11..23 shifted down by 11).
const (
	GlobalFlagRefactoringAllowed uint32 = 1 << 0
	GlobalFlagDoublePrecision    uint32 = 1 << 1
	GlobalFlagEarlyDepthStencil  uint32 = 1 << 2
	GlobalFlagRawStructured      uint32 = 1 << 3
)

// Sync opcode control bits, relative to the controls field.
const (
	SyncFlagThreadsInGroup  uint32 = 1 << 0
	SyncFlagTgsmMemory      uint32 = 1 << 1
	SyncFlagUavMemoryGroup  uint32 = 1 << 2
	SyncFlagUavMemoryGlobal uint32 = 1 << 3
)

// extended-opcode identifiers (bits 0..5 of an extended opcode token).
const (
	extSampleControls     = 1
	extResourceDim        = 2
	extResourceReturnType = 3
	extOperandModifier    = 1 // operand-token extension space is distinct from instruction-token extension space
)
