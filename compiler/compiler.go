// Package compiler implements the shader compiler: per-instruction
// lowering from decoded DXBC shader bytecode (package dxbc) to a SPIR-V
// module (package spirv), including register files, I/O and resource
// variables, control flow, ALU, texture operations, and stage-specific
// entry-point scaffolding (spec.md §4.7).
package compiler

import (
	"fmt"

	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// BindingKind identifies the SPIR-V resource kind a declared register
// maps onto, mirrored in the output Binding list (spec.md §6).
type BindingKind uint8

const (
	BindingUniformBuffer BindingKind = iota
	BindingSampler
	BindingSampledImage
	BindingStorageImage
	BindingStorageBuffer
	BindingUniformTexelBuffer
	BindingStorageTexelBuffer
)

// Binding is one resource-binding descriptor emitted alongside the SPIR-V
// module (spec.md §6 "Output: binding descriptor list").
type Binding struct {
	Slot uint32
	Kind BindingKind
}

// SlotFunc computes a descriptor-set/binding slot index for a declared
// resource, per spec.md §6: "slot-index is computed by a caller-supplied
// function slot(stage, resource-kind, local-register-id); the core only
// invokes it."
type SlotFunc func(stage dxbc.ProgramType, kind BindingKind, localRegister uint32) uint32

// DefaultSlotFunc assigns slots using the resource's local register index
// directly for every BindingKind (all bindings use descriptor set 0) — a
// reasonable default for callers that don't need a packed layout, and
// what this repo's tests and CLI use.
func DefaultSlotFunc(_ dxbc.ProgramType, kind BindingKind, localRegister uint32) uint32 {
	return localRegister
}

// Options configures one compilation, following naga.CompileOptions'
// struct-of-fields-with-defaults shape.
type Options struct {
	// SPIRV controls the target SPIR-V version/capabilities/debug mode.
	SPIRV spirv.Options
	// Slot computes descriptor-set/binding indices for declared
	// resources. DefaultSlotFunc is used when nil.
	Slot SlotFunc
	// DeferKill, when set, lowers pixel-shader Discard to
	// OpDemoteToHelperInvocation instead of OpKill, preserving
	// derivative validity in non-uniform control flow (spec.md §4.7
	// "Control flow").
	DeferKill bool
	// Debug emits OpName debug names for register-file variables,
	// mirroring dxvk's dxbc_names.cpp.
	Debug bool
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{SPIRV: spirv.DefaultOptions(), Slot: DefaultSlotFunc}
}

// Error is the error type returned by every lowering failure in this
// package, mirroring dxbc.Error's Kind-tagged shape.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("compiler: %s: %s", e.Kind, e.Message) }

// ErrorKind classifies a shader-compiler failure.
type ErrorKind uint8

const (
	ErrUnhandledOpcode ErrorKind = iota
	ErrInvalidOperand
	ErrInvalidRegisterIndex
	ErrInvalidStateMachine
	ErrUnknownResourceDim
	ErrUnknownResourceReturnType
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnhandledOpcode:
		return "unhandled opcode"
	case ErrInvalidOperand:
		return "invalid operand"
	case ErrInvalidRegisterIndex:
		return "invalid register index"
	case ErrInvalidStateMachine:
		return "invalid control-flow state"
	case ErrUnknownResourceDim:
		return "unknown resource dimension"
	case ErrUnknownResourceReturnType:
		return "unknown resource return type"
	default:
		return "unknown error"
	}
}

func newErr(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Result is the output of a successful compilation (spec.md §6).
type Result struct {
	Words    []uint32
	Bindings []Binding
	Warnings []string
}

// Compiler holds all per-compilation state: register files, the SPIR-V
// builder, resource-binding accumulation, and the structured
// control-flow stack. One Compiler instance translates exactly one
// shader module and is never reused (spec.md §5).
type Compiler struct {
	opts    Options
	stage   dxbc.ProgramType
	version dxbc.ProgramVersion

	b *spirv.ModuleBuilder

	glslExt uint32

	types *typeCache

	regs *registerFile

	entryPointID uint32
	stageFuncID  uint32
	interfaceIDs []uint32

	bindings []Binding
	warnings []string

	cf *controlFlowStack

	stageSt stageState

	in  *dxbc.SignatureTable
	out *dxbc.SignatureTable
	pc  *dxbc.SignatureTable // patch-constant, hull/domain only
}

// Compile translates one decoded DXBC shader module (version + the
// container's input/output/patch-constant signatures + the decoded
// instruction list) into a SPIR-V module and its resource-binding list.
// Partial modules are never returned: any lowering failure aborts with a
// *Error and a nil Result, per spec.md §4.7 "Failure semantics".
func Compile(version dxbc.ProgramVersion, in, out, pc *dxbc.SignatureTable, instructions []*dxbc.Instruction, opts Options) (*Result, error) {
	if opts.Slot == nil {
		opts.Slot = DefaultSlotFunc
	}
	if opts.SPIRV.Version == (spirv.Version{}) {
		opts.SPIRV = spirv.DefaultOptions()
	}

	c := &Compiler{
		opts:    opts,
		stage:   version.Type,
		version: version,
		b:       spirv.NewModuleBuilder(opts.SPIRV.Version),
		in:      in,
		out:     out,
		pc:      pc,
		cf:      newControlFlowStack(),
	}
	c.types = newTypeCache(c.b)
	c.regs = newRegisterFile()
	c.glslExt = c.b.AddExtInstImport("GLSL.std.450")
	c.b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)
	c.b.AddCapability(spirv.CapabilityShader)
	switch version.Type {
	case dxbc.ProgramGeometry:
		c.b.AddCapability(spirv.CapabilityGeometry)
	case dxbc.ProgramHull, dxbc.ProgramDomain:
		c.b.AddCapability(spirv.CapabilityTessellation)
	}

	hooks := stageHooksFor(version.Type)
	if err := hooks.init(c); err != nil {
		return nil, err
	}

	for _, inst := range instructions {
		if inst.Class == dxbc.ClassCustomData {
			if inst.CustomDataClass == dxbc.CustomDataImmediateConstantBuffer {
				c.declImmediateConstantBuffer(inst.CustomData)
			}
			continue
		}
		if inst.Opcode == dxbc.OpNop {
			continue
		}
		if err := c.lower(inst); err != nil {
			return nil, err
		}
	}

	if err := c.cf.requireEmpty(); err != nil {
		return nil, err
	}

	if err := hooks.finalize(c); err != nil {
		return nil, err
	}

	return &Result{
		Words:    c.b.BuildWords(),
		Bindings: c.bindings,
		Warnings: c.warnings,
	}, nil
}

func (c *Compiler) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// lower dispatches one decoded instruction to its class-specific handler
// (spec.md §4.7 "Instruction classes and lowering").
func (c *Compiler) lower(inst *dxbc.Instruction) error {
	switch inst.Class {
	case dxbc.ClassDecl:
		return c.lowerDecl(inst)
	case dxbc.ClassAlu:
		return c.lowerALU(inst)
	case dxbc.ClassDot:
		return c.lowerDot(inst)
	case dxbc.ClassCompare:
		return c.lowerCompare(inst)
	case dxbc.ClassMov:
		return c.lowerMov(inst)
	case dxbc.ClassMovc:
		return c.lowerMovc(inst)
	case dxbc.ClassSinCos:
		return c.lowerSinCos(inst)
	case dxbc.ClassSample, dxbc.ClassGather:
		return c.lowerSample(inst)
	case dxbc.ClassLoadResource:
		return c.lowerLoad(inst)
	case dxbc.ClassStoreResource:
		return c.lowerStoreResource(inst)
	case dxbc.ClassResInfo:
		return c.lowerResInfo(inst)
	case dxbc.ClassControlFlow:
		return c.lowerControlFlow(inst)
	case dxbc.ClassAtomic:
		return c.lowerAtomic(inst)
	case dxbc.ClassEmit:
		return c.lowerEmit(inst)
	case dxbc.ClassSync:
		return c.lowerSync(inst)
	case dxbc.ClassNop:
		return nil
	default:
		return newErr(ErrUnhandledOpcode, "opcode %d has no lowering", inst.Opcode)
	}
}
