package compiler

import (
	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// cfKind identifies the construct a control-flow frame tracks.
type cfKind uint8

const (
	cfIf cfKind = iota
	cfLoop
	cfSwitch
)

// cfFrame is one entry of the structured control-flow stack (spec.md §4.7
// "Control flow"): the pending labels a later closing opcode (EndIf,
// EndLoop, EndSwitch) resolves, plus the break/continue targets nested
// instructions branch to.
type cfFrame struct {
	kind cfKind

	mergeLabel uint32

	// If only.
	elseLabel uint32
	hadElse   bool

	// Loop only.
	headerLabel   uint32
	continueLabel uint32

	// Switch only. The OpSelectionMerge/OpSwitch header can't be emitted
	// until every Case literal has been seen, so the frame records the
	// function-section position the header will be spliced into, the
	// selector's result id, and the (literal, label) pairs collected so
	// far. headerPos stays valid across nested constructs because frames
	// close innermost-first and splicing at an inner (later) position
	// never shifts an outer (earlier) one.
	headerPos    int
	selectorID   uint32
	defaultLabel uint32
	casePairs    []uint32
}

// controlFlowStack tracks open structured constructs plus whether the
// current basic block still needs a terminator. DXBC streams are flat;
// SPIR-V blocks must each end in exactly one terminator, so opcodes that
// terminate a block (break, continue, ret, unconditional branches) set
// blockClosed and the next emitted label clears it.
type controlFlowStack struct {
	frames      []cfFrame
	blockClosed bool
}

func newControlFlowStack() *controlFlowStack {
	return &controlFlowStack{}
}

func (s *controlFlowStack) push(f cfFrame) { s.frames = append(s.frames, f) }

func (s *controlFlowStack) pop() (cfFrame, bool) {
	if len(s.frames) == 0 {
		return cfFrame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

func (s *controlFlowStack) top() *cfFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

// breakTarget returns the innermost loop or switch frame, the construct a
// Break escapes.
func (s *controlFlowStack) breakTarget() *cfFrame {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].kind == cfLoop || s.frames[i].kind == cfSwitch {
			return &s.frames[i]
		}
	}
	return nil
}

// continueTarget returns the innermost loop frame.
func (s *controlFlowStack) continueTarget() *cfFrame {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].kind == cfLoop {
			return &s.frames[i]
		}
	}
	return nil
}

// requireEmpty verifies every If/Loop/Switch was closed before the
// instruction stream ended, per spec.md §9's balanced-nesting invariant.
func (s *controlFlowStack) requireEmpty() error {
	if len(s.frames) != 0 {
		return newErr(ErrInvalidStateMachine, "%d unterminated control-flow construct(s) at end of shader", len(s.frames))
	}
	return nil
}

// condition evaluates a conditional opcode's test operand against its
// zero-test control, producing a scalar bool id. DXBC conditionals test a
// single register component for zero/nonzero.
func (c *Compiler) condition(op *dxbc.Operand, test dxbc.ZeroTest) (uint32, error) {
	v, err := c.loadSrc(op, dxbc.ScalarU32, 1)
	if err != nil {
		return 0, err
	}
	zero := c.constU32(0, 1)
	boolType := c.types.Scalar(dxbc.ScalarBool)
	if test == dxbc.TestZero {
		return c.b.AddBinaryOp(spirv.OpIEqual, boolType, v.ID, zero.ID), nil
	}
	return c.b.AddBinaryOp(spirv.OpINotEqual, boolType, v.ID, zero.ID), nil
}

// startBlock emits the OpLabel opening a new block and marks it live.
func (c *Compiler) startBlock(label uint32) {
	c.b.AddLabelWithID(label)
	c.cf.blockClosed = false
}

// closeBlock marks the current block terminated; the caller has just
// emitted the terminator itself.
func (c *Compiler) closeBlock() { c.cf.blockClosed = true }

// branchIfOpen emits an unconditional branch to target unless the block
// already ended (e.g. a Break directly before an EndLoop).
func (c *Compiler) branchIfOpen(target uint32) {
	if !c.cf.blockClosed {
		c.b.AddBranch(target)
		c.cf.blockClosed = true
	}
}

// lowerControlFlow dispatches the structured control-flow opcodes
// (spec.md §4.7 "Control flow").
func (c *Compiler) lowerControlFlow(inst *dxbc.Instruction) error {
	switch inst.Opcode {
	case dxbc.OpIf:
		return c.lowerIf(inst)
	case dxbc.OpElse:
		return c.lowerElse()
	case dxbc.OpEndIf:
		return c.lowerEndIf()
	case dxbc.OpLoop:
		return c.lowerLoop()
	case dxbc.OpEndLoop:
		return c.lowerEndLoop()
	case dxbc.OpBreak:
		return c.lowerBreak()
	case dxbc.OpBreakC:
		return c.lowerBreakC(inst)
	case dxbc.OpContinue:
		return c.lowerContinue()
	case dxbc.OpContinueC:
		return c.lowerContinueC(inst)
	case dxbc.OpSwitch:
		return c.lowerSwitch(inst)
	case dxbc.OpCase:
		return c.lowerCase(inst)
	case dxbc.OpDefault:
		return c.lowerDefault()
	case dxbc.OpEndSwitch:
		return c.lowerEndSwitch()
	case dxbc.OpRet:
		return c.lowerRet()
	case dxbc.OpRetC:
		return c.lowerRetC(inst)
	case dxbc.OpDiscard:
		return c.lowerDiscard(inst)
	default:
		return newErr(ErrUnhandledOpcode, "control-flow opcode %d has no lowering", inst.Opcode)
	}
}

func (c *Compiler) lowerIf(inst *dxbc.Instruction) error {
	cond, err := c.condition(&inst.Src[0], inst.ZeroTest)
	if err != nil {
		return err
	}
	then := c.b.AllocID()
	elseL := c.b.AllocID()
	merge := c.b.AllocID()
	c.b.AddSelectionMerge(merge, spirv.SelectionControlNone)
	c.b.AddBranchConditional(cond, then, elseL)
	c.startBlock(then)
	c.cf.push(cfFrame{kind: cfIf, mergeLabel: merge, elseLabel: elseL})
	return nil
}

func (c *Compiler) lowerElse() error {
	f := c.cf.top()
	if f == nil || f.kind != cfIf || f.hadElse {
		return newErr(ErrInvalidStateMachine, "else without a matching if")
	}
	c.branchIfOpen(f.mergeLabel)
	c.startBlock(f.elseLabel)
	f.hadElse = true
	return nil
}

func (c *Compiler) lowerEndIf() error {
	f, ok := c.cf.pop()
	if !ok || f.kind != cfIf {
		return newErr(ErrInvalidStateMachine, "endif without a matching if")
	}
	c.branchIfOpen(f.mergeLabel)
	if !f.hadElse {
		// The allocated else label was the false target of the branch;
		// give it a trivial body so every referenced label exists.
		c.startBlock(f.elseLabel)
		c.branchIfOpen(f.mergeLabel)
	}
	c.startBlock(f.mergeLabel)
	return nil
}

func (c *Compiler) lowerLoop() error {
	header := c.b.AllocID()
	body := c.b.AllocID()
	continueL := c.b.AllocID()
	merge := c.b.AllocID()
	c.branchIfOpen(header)
	c.startBlock(header)
	c.b.AddLoopMerge(merge, continueL, spirv.LoopControlNone)
	c.b.AddBranch(body)
	c.startBlock(body)
	c.cf.push(cfFrame{kind: cfLoop, headerLabel: header, continueLabel: continueL, mergeLabel: merge})
	return nil
}

func (c *Compiler) lowerEndLoop() error {
	f, ok := c.cf.pop()
	if !ok || f.kind != cfLoop {
		return newErr(ErrInvalidStateMachine, "endloop without a matching loop")
	}
	c.branchIfOpen(f.continueLabel)
	c.startBlock(f.continueLabel)
	c.b.AddBranch(f.headerLabel)
	c.closeBlock()
	c.startBlock(f.mergeLabel)
	return nil
}

func (c *Compiler) lowerBreak() error {
	f := c.cf.breakTarget()
	if f == nil {
		return newErr(ErrInvalidStateMachine, "break outside a loop or switch")
	}
	c.branchIfOpen(f.mergeLabel)
	// Instructions after an unconditional break are unreachable but still
	// need a containing block.
	c.startBlock(c.b.AllocID())
	return nil
}

// lowerBreakC wraps the break in its own selection construct: if (cond)
// branch to the enclosing merge, else fall through.
func (c *Compiler) lowerBreakC(inst *dxbc.Instruction) error {
	f := c.cf.breakTarget()
	if f == nil {
		return newErr(ErrInvalidStateMachine, "breakc outside a loop or switch")
	}
	return c.conditionalJump(inst, f.mergeLabel)
}

func (c *Compiler) lowerContinue() error {
	f := c.cf.continueTarget()
	if f == nil {
		return newErr(ErrInvalidStateMachine, "continue outside a loop")
	}
	c.branchIfOpen(f.continueLabel)
	c.startBlock(c.b.AllocID())
	return nil
}

func (c *Compiler) lowerContinueC(inst *dxbc.Instruction) error {
	f := c.cf.continueTarget()
	if f == nil {
		return newErr(ErrInvalidStateMachine, "continuec outside a loop")
	}
	return c.conditionalJump(inst, f.continueLabel)
}

// conditionalJump emits if (cond) { branch to target } as a selection
// construct, used by BreakC/ContinueC.
func (c *Compiler) conditionalJump(inst *dxbc.Instruction, target uint32) error {
	cond, err := c.condition(&inst.Src[0], inst.ZeroTest)
	if err != nil {
		return err
	}
	then := c.b.AllocID()
	merge := c.b.AllocID()
	c.b.AddSelectionMerge(merge, spirv.SelectionControlNone)
	c.b.AddBranchConditional(cond, then, merge)
	c.startBlock(then)
	c.b.AddBranch(target)
	c.closeBlock()
	c.startBlock(merge)
	return nil
}

func (c *Compiler) lowerSwitch(inst *dxbc.Instruction) error {
	sel, err := c.loadSrc(&inst.Src[0], dxbc.ScalarU32, 1)
	if err != nil {
		return err
	}
	merge := c.b.AllocID()
	c.cf.push(cfFrame{
		kind:       cfSwitch,
		mergeLabel: merge,
		headerPos:  c.b.FunctionPos(),
		selectorID: sel.ID,
	})
	// The OpSelectionMerge/OpSwitch pair is spliced in at headerPos by
	// EndSwitch, once every case literal is known. Until the first Case
	// token arrives the block is headerless; mark it closed so the first
	// Case doesn't emit a spurious fallthrough branch into itself.
	c.cf.blockClosed = true
	return nil
}

func (c *Compiler) lowerCase(inst *dxbc.Instruction) error {
	f := c.cf.top()
	if f == nil || f.kind != cfSwitch {
		return newErr(ErrInvalidStateMachine, "case outside a switch")
	}
	if inst.Src[0].Type != dxbc.OperandImm32 {
		return newErr(ErrInvalidOperand, "case literal must be an immediate")
	}
	label := c.b.AllocID()
	c.branchIfOpen(label) // fallthrough from the previous case body
	f.casePairs = append(f.casePairs, inst.Src[0].Imm32[0], label)
	c.startBlock(label)
	return nil
}

func (c *Compiler) lowerDefault() error {
	f := c.cf.top()
	if f == nil || f.kind != cfSwitch {
		return newErr(ErrInvalidStateMachine, "default outside a switch")
	}
	if f.defaultLabel != 0 {
		return newErr(ErrInvalidStateMachine, "switch has more than one default")
	}
	label := c.b.AllocID()
	c.branchIfOpen(label)
	f.defaultLabel = label
	c.startBlock(label)
	return nil
}

func (c *Compiler) lowerEndSwitch() error {
	f, ok := c.cf.pop()
	if !ok || f.kind != cfSwitch {
		return newErr(ErrInvalidStateMachine, "endswitch without a matching switch")
	}
	c.branchIfOpen(f.mergeLabel)
	defaultLabel := f.defaultLabel
	if defaultLabel == 0 {
		defaultLabel = f.mergeLabel
	}
	c.b.InsertFunctionInstructions(f.headerPos,
		spirv.MakeSelectionMerge(f.mergeLabel, spirv.SelectionControlNone),
		spirv.MakeSwitch(f.selectorID, defaultLabel, f.casePairs),
	)
	c.startBlock(f.mergeLabel)
	return nil
}

func (c *Compiler) lowerRet() error {
	if c.cf.blockClosed {
		return nil
	}
	c.b.AddReturn()
	c.closeBlock()
	c.startBlock(c.b.AllocID())
	return nil
}

func (c *Compiler) lowerRetC(inst *dxbc.Instruction) error {
	cond, err := c.condition(&inst.Src[0], inst.ZeroTest)
	if err != nil {
		return err
	}
	then := c.b.AllocID()
	merge := c.b.AllocID()
	c.b.AddSelectionMerge(merge, spirv.SelectionControlNone)
	c.b.AddBranchConditional(cond, then, merge)
	c.startBlock(then)
	c.b.AddReturn()
	c.closeBlock()
	c.startBlock(merge)
	return nil
}

// lowerDiscard emits a conditional fragment discard: OpKill terminates
// the block, OpDemoteToHelperInvocationEXT (Options.DeferKill) does not
// and preserves derivative validity afterwards.
func (c *Compiler) lowerDiscard(inst *dxbc.Instruction) error {
	cond, err := c.condition(&inst.Src[0], inst.ZeroTest)
	if err != nil {
		return err
	}
	then := c.b.AllocID()
	merge := c.b.AllocID()
	c.b.AddSelectionMerge(merge, spirv.SelectionControlNone)
	c.b.AddBranchConditional(cond, then, merge)
	c.startBlock(then)
	if c.opts.DeferKill {
		c.b.AddCapability(spirv.CapabilityDemoteToHelperInvocationEXT)
		c.b.AddExtension("SPV_EXT_demote_to_helper_invocation")
		c.b.AddDemoteToHelperInvocation()
		c.b.AddBranch(merge)
	} else {
		c.b.AddKill()
	}
	c.closeBlock()
	c.startBlock(merge)
	return nil
}
