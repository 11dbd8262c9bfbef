package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// regVar is one declared SPIR-V global (or private) variable backing a
// register-file slot (spec.md §3 "Register file map").
type regVar struct {
	VarID   uint32
	PtrType uint32 // pointer-to-element type, for a plain (non-block) variable
	Elem    uint32 // element (non-pointer) type id
	Scalar  dxbc.ScalarType
	Count   int
	Storage spirv.StorageClass
}

// cbufferVar additionally tracks the wrapping block-struct id needed to
// build an OpAccessChain with a leading member index.
type cbufferVar struct {
	regVar
	StructID uint32
	Length   uint32 // declared element count
}

// resourceVar describes a t[i]/u[i] image-backed register.
type resourceVar struct {
	VarID       uint32
	ImageType   uint32
	SampledType dxbc.ScalarType
	Dim         dxbc.ResourceDim
	Arrayed     bool
	MS          bool
	Depth       bool
	IsUAV       bool
	Raw         bool   // raw/structured buffer (StorageBuffer, not image)
	StrideWords uint32 // structured-buffer element stride in 32-bit words; 1 for raw
	StructID    uint32
	PtrType     uint32
	Storage     spirv.StorageClass
}

// sysValueMapping records a system-value binding captured at declaration
// time, consumed at entry-point finalization (spec.md §3).
type sysValueMapping struct {
	Register uint32
	Mask     dxbc.Mask
	SysValue dxbc.SystemValue
}

// registerFile is the full per-compiler-instance set of register-file
// arrays described in spec.md §3.
type registerFile struct {
	temps         []regVar
	indexableTemp map[uint32][]regVar

	inputs  map[uint32]regVar
	outputs map[uint32]regVar

	cbuffers map[uint32]cbufferVar
	samplers map[uint32]regVar
	textures map[uint32]resourceVar
	uavs     map[uint32]resourceVar
	tgsm     map[uint32]regVar
	// tgsmStride records a structured TGSM bank's element stride in
	// words; raw banks have stride 1.
	tgsmStride map[uint32]uint32

	// builtins holds the lazily-declared system-value variables keyed by
	// the operand type that references them (vThreadID, oDepth, ...).
	builtins map[dxbc.OperandType]regVar

	// icb is the immediate constant buffer declared by a CustomData
	// block, if the shader carries one.
	icb *regVar

	inputSysValues  []sysValueMapping
	outputSysValues []sysValueMapping

	// gsInstances, threadGroupSize, tessellation parameters etc. are
	// scalar per-shader state rather than register-file entries; see
	// stageState in stage.go.
}

func newRegisterFile() *registerFile {
	return &registerFile{
		indexableTemp: make(map[uint32][]regVar),
		inputs:        make(map[uint32]regVar),
		outputs:       make(map[uint32]regVar),
		cbuffers:      make(map[uint32]cbufferVar),
		samplers:      make(map[uint32]regVar),
		textures:      make(map[uint32]resourceVar),
		uavs:          make(map[uint32]resourceVar),
		tgsm:          make(map[uint32]regVar),
		tgsmStride:    make(map[uint32]uint32),
		builtins:      make(map[dxbc.OperandType]regVar),
	}
}

// temp returns the regVar for r[index], erroring if DclTemps never
// declared that many registers (spec.md §8 testable property).
func (c *Compiler) temp(index uint32) (regVar, error) {
	if int(index) >= len(c.regs.temps) {
		return regVar{}, newErr(ErrInvalidRegisterIndex, "r%d used without a prior dcl_temps covering it", index)
	}
	return c.regs.temps[index], nil
}

// declTemps grows r[] to size n, creating one private float4 variable
// per slot (spec.md §4.7 "DclTemps(n)").
func (c *Compiler) declTemps(n uint32) {
	for uint32(len(c.regs.temps)) < n {
		idx := uint32(len(c.regs.temps))
		v := c.declPrivateFloat4(regDebugName("r", idx))
		c.regs.temps = append(c.regs.temps, v)
	}
}

func (c *Compiler) declPrivateFloat4(name string) regVar {
	elem := c.types.Vector(dxbc.ScalarF32, 4)
	ptr := c.types.Pointer(spirv.StorageClassPrivate, elem)
	id := c.b.AddVariable(ptr, spirv.StorageClassPrivate)
	if c.opts.Debug {
		c.b.AddName(id, name)
	}
	return regVar{VarID: id, PtrType: ptr, Elem: elem, Scalar: dxbc.ScalarF32, Count: 4, Storage: spirv.StorageClassPrivate}
}

// regDebugName formats a dxvk-style register debug name ("r0", "v3",
// "cb2", ...), used only when Options.Debug is set.
func regDebugName(kind string, index uint32) string {
	return kind + itoa(index)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
