package dxbc

// Decoder turns a raw instruction token stream into a sequence of decoded
// Instructions (spec.md §4.5). It owns no state beyond the underlying
// TokenReader's cursor — one Decoder per shader-executable chunk, single
// pass, no back-edges, matching spec.md §5's single-threaded-per-
// compilation concurrency model.
type Decoder struct {
	r *TokenReader
}

// NewDecoder wraps a token reader already positioned just past the
// leading program-version/length tokens (i.e. at the first instruction).
func NewDecoder(r *TokenReader) *Decoder {
	return &Decoder{r: r}
}

// Done reports whether the token stream has been fully consumed.
func (d *Decoder) Done() bool { return d.r.Remaining() == 0 }

// Next decodes and returns the next instruction, advancing the cursor
// past it. Returns (nil, nil) only when Done(); any malformed token
// stream returns a *dxbc.Error per spec.md §7.
func (d *Decoder) Next() (*Instruction, error) {
	if d.Done() {
		return nil, nil
	}
	start := d.r.Pos()
	head, err := d.r.Next()
	if err != nil {
		return nil, err
	}
	op := Opcode(bits(head, 0, 10))

	if op == OpCustomData {
		return d.decodeCustomData(start, head)
	}

	lengthWords := int(bits(head, 24, 30))
	controls := bits(head, 11, 23)
	extended := bit(head, 31)

	inst := &Instruction{Opcode: op}
	inst.Saturate = bit(head, ctrlSaturateBit)
	inst.Precise = uint8(bits(head, ctrlPreciseLo, ctrlPreciseHi))

	format, ok := LookupFormat(op)
	if !ok {
		if lengthWords == 0 {
			return nil, NewErrorAt(ErrUnknownOpcode, uint32(start), "unknown opcode with zero length")
		}
		// Skip the unknown instruction's remaining words rather than
		// aborting outright — unrecognized opcodes with a well-formed
		// length are treated like unknown chunk tags: a warning-worthy
		// gap, not necessarily fatal to the whole stream. Compiler
		// callers still reject the module; decoding can continue so a
		// caller inspecting the full instruction list sees everything
		// that *did* decode.
		remaining := lengthWords - (d.r.Pos() - start)
		if remaining > 0 {
			if err := d.r.skip(remaining); err != nil {
				return nil, err
			}
		}
		return nil, NewErrorAt(ErrUnknownOpcode, uint32(start), "unknown opcode")
	}
	inst.Class = format.Class

	applyOpcodeControls(inst, op, controls)

	for extended {
		extTok, err := d.r.Next()
		if err != nil {
			return nil, err
		}
		extOp := bits(extTok, 0, 5)
		extended = bit(extTok, 31)
		switch extOp {
		case extSampleControls:
			inst.Sample.U = signExtend4(bits(extTok, 9, 12))
			inst.Sample.V = signExtend4(bits(extTok, 13, 16))
			inst.Sample.W = signExtend4(bits(extTok, 17, 20))
		case extResourceDim:
			inst.ResourceDim = ResourceDim(bits(extTok, 6, 10))
		case extResourceReturnType:
			packed := bits(extTok, 6, 21)
			for i := 0; i < 4; i++ {
				inst.ResourceReturnType[i] = ResourceReturnType(bits(packed, uint(i*4), uint(i*4+3)))
			}
		default:
			// Unknown extended-opcode modifier: non-fatal per spec.md §7.
		}
	}

	for _, slot := range format.Operand {
		switch slot {
		case SlotImm32:
			v, err := d.r.Next()
			if err != nil {
				return nil, err
			}
			inst.Imm = append(inst.Imm, v)
		case SlotDst, SlotSrc:
			operand, err := d.decodeOperand()
			if err != nil {
				return nil, err
			}
			if slot == SlotDst {
				inst.Dst = append(inst.Dst, *operand)
			} else {
				inst.Src = append(inst.Src, *operand)
			}
		}
	}

	// Consume any trailing padding words the declared length reserved
	// but the format table didn't need (rare, but DclIndexRange-style
	// opcodes pad to a fixed instruction length in some encoders).
	consumed := d.r.Pos() - start
	if lengthWords > consumed {
		if err := d.r.skip(lengthWords - consumed); err != nil {
			return nil, err
		}
	} else if lengthWords != 0 && lengthWords < consumed {
		return nil, NewErrorAt(ErrInvalidOperandFormat, uint32(start), "instruction overran its declared length")
	}

	return inst, nil
}

// decodeCustomData handles the CustomData special case (spec.md §4.5
// step 1): the length lives in the *second* token, and every following
// word up to that length is verbatim payload, not further tokens.
func (d *Decoder) decodeCustomData(start int, head uint32) (*Instruction, error) {
	class := CustomDataClass(bits(head, 11, 31))
	length, err := d.r.Next()
	if err != nil {
		return nil, err
	}
	payloadWords := int(length) - 2
	if payloadWords < 0 {
		return nil, NewErrorAt(ErrInvalidOperandFormat, uint32(start), "custom data length underflows header")
	}
	payload := make([]uint32, payloadWords)
	for i := range payload {
		v, err := d.r.Next()
		if err != nil {
			return nil, err
		}
		payload[i] = v
	}
	return &Instruction{
		Opcode:          OpCustomData,
		Class:           ClassCustomData,
		CustomDataClass: class,
		CustomData:      payload,
	}, nil
}

// applyOpcodeControls extracts the opcode-specific control fields that
// live in word 0 bits 11..23, per opcode class (spec.md §4.5 step 2).
func applyOpcodeControls(inst *Instruction, op Opcode, controls uint32) {
	switch op {
	case OpIf, OpBreakC, OpContinueC, OpRetC, OpDiscard, OpCase:
		if bit(controls, 0) {
			inst.ZeroTest = TestZero
		} else {
			inst.ZeroTest = TestNonZero
		}
	case OpDclInputPS, OpDclInputPSSiv:
		inst.Interpolation = InterpolationMode(bits(controls, 0, 3))
	case OpResInfo:
		inst.ResInfoRetType = ResourceReturnType(bits(controls, 0, 1) + 1)
	case OpSync:
		inst.SyncFlags = controls
	case OpDclGlobalFlags:
		inst.GlobalFlags = controls
	case OpDclResource, OpDclResourceStructured, OpDclResourceRaw,
		OpDclUavTyped, OpDclUavRaw, OpDclUavStructured:
		inst.ResourceDim = ResourceDim(bits(controls, 0, 4))
	}
}

// signExtend4 sign-extends a 4-bit two's-complement field to an int32, used
// for SampleControls' per-axis constant texel offsets ([-8, 7]).
func signExtend4(v uint32) int32 {
	v &= 0xF
	if v&0x8 != 0 {
		return int32(v) - 16
	}
	return int32(v)
}

// decodeOperand parses one operand token plus its trailing extensions,
// immediates, and indices (spec.md §4.5 step 4).
func (d *Decoder) decodeOperand() (*Operand, error) {
	tok, err := d.r.Next()
	if err != nil {
		return nil, err
	}

	op := &Operand{
		Count:    ComponentCount(bits(tok, 0, 1)),
		Select:   SelectMode(bits(tok, 2, 3)),
		Type:     OperandType(bits(tok, 12, 19)),
		IndexDim: int(bits(tok, 20, 21)),
	}
	if op.Count > ComponentCount4 {
		return nil, NewError(ErrInvalidOperandFormat, "invalid component-count code")
	}

	selBits := bits(tok, 4, 11)
	switch op.Select {
	case SelectMask:
		op.Mask = Mask(bits(selBits, 0, 3))
	case SelectSwizzle:
		for i := 0; i < 4; i++ {
			op.Swizzle[i] = uint8(bits(selBits, uint(i*2), uint(i*2+1)))
		}
	case SelectSelect1:
		op.Select1 = uint8(bits(selBits, 0, 1))
	default:
		return nil, NewError(ErrInvalidOperandFormat, "invalid selection mode")
	}

	indexReps := [3]IndexRep{
		IndexRep(bits(tok, 22, 24)),
		IndexRep(bits(tok, 25, 27)),
		IndexRep(bits(tok, 28, 30)),
	}

	if bit(tok, 31) {
		for {
			extTok, err := d.r.Next()
			if err != nil {
				return nil, err
			}
			extOp := bits(extTok, 0, 5)
			if extOp == extOperandModifier {
				op.Modifier = OperandModifier(bits(extTok, 6, 13))
			}
			if !bit(extTok, 31) {
				break
			}
		}
	}

	switch op.Type {
	case OperandImm32:
		switch op.Count {
		case ComponentCount1:
			v, err := d.r.Next()
			if err != nil {
				return nil, err
			}
			op.Imm32[0] = v
			op.Imm1Count = 1
		case ComponentCount4:
			for i := 0; i < 4; i++ {
				v, err := d.r.Next()
				if err != nil {
					return nil, err
				}
				op.Imm32[i] = v
			}
			op.Imm1Count = 4
		}
	case OperandImm64:
		return nil, NewError(ErrUnsupported64BitImmediate, "64-bit immediate operands are not supported")
	}

	for i := 0; i < op.IndexDim; i++ {
		idx, err := d.decodeIndex(indexReps[i])
		if err != nil {
			return nil, err
		}
		op.Index[i] = idx
	}

	return op, nil
}

// decodeIndex parses one register-index dimension per its representation
// (spec.md §4.5 step 4's closing bullet, and §9's "relative indices
// reference only Temp registers in Select1 mode, one level of nesting").
func (d *Decoder) decodeIndex(rep IndexRep) (RegIndex, error) {
	switch rep {
	case IndexImm32:
		v, err := d.r.Next()
		if err != nil {
			return RegIndex{}, err
		}
		return RegIndex{Rep: rep, Imm: int64(int32(v))}, nil
	case IndexImm64:
		return RegIndex{}, NewError(ErrUnsupported64BitImmediate, "64-bit relative index immediate is not supported")
	case IndexRelative:
		rel, err := d.decodeRelativeOperand()
		if err != nil {
			return RegIndex{}, err
		}
		return RegIndex{Rep: rep, Relative: rel}, nil
	case IndexImm32PlusRelative:
		v, err := d.r.Next()
		if err != nil {
			return RegIndex{}, err
		}
		rel, err := d.decodeRelativeOperand()
		if err != nil {
			return RegIndex{}, err
		}
		return RegIndex{Rep: rep, Imm: int64(int32(v)), Relative: rel}, nil
	case IndexImm64PlusRelative:
		return RegIndex{}, NewError(ErrUnsupported64BitImmediate, "64-bit relative index immediate is not supported")
	default:
		return RegIndex{}, NewError(ErrInvalidOperandIndex, "invalid index representation")
	}
}

// decodeRelativeOperand parses the nested operand token for a relative
// index and enforces spec.md §9's single-level-nesting invariant: it
// MUST be a one-component Temp register in Select1 mode.
func (d *Decoder) decodeRelativeOperand() (*Operand, error) {
	rel, err := d.decodeOperand()
	if err != nil {
		return nil, err
	}
	if rel.Type != OperandTemp || rel.Select != SelectSelect1 {
		return nil, NewError(ErrInvalidRelativeRegister, "relative index operand must be a Select1-mode Temp register")
	}
	return rel, nil
}
