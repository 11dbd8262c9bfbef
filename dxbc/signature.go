package dxbc

// componentType values stored in a signature element.
type ComponentType uint32

const (
	ComponentUnknown ComponentType = 0
	ComponentUint32  ComponentType = 1
	ComponentSint32  ComponentType = 2
	ComponentFloat32 ComponentType = 3
)

// SystemValue identifies a built-in semantic (SV_Position, SV_VertexID,
// ...). Numeric values follow the D3D system-value name enumeration, so
// both the signature chunk's system-value field and the trailing
// operand of a dcl_*_sgv/siv declaration decode through it unchanged.
type SystemValue uint32

const (
	SystemValueUndefined              SystemValue = 0
	SystemValuePosition               SystemValue = 1
	SystemValueClipDistance           SystemValue = 2
	SystemValueCullDistance           SystemValue = 3
	SystemValueRenderTargetArrayIndex SystemValue = 4
	SystemValueViewportArrayIndex     SystemValue = 5
	SystemValueVertexID               SystemValue = 6
	SystemValuePrimitiveID            SystemValue = 7
	SystemValueInstanceID             SystemValue = 8
	SystemValueIsFrontFace            SystemValue = 9
	SystemValueSampleIndex            SystemValue = 10
	SystemValueTarget                 SystemValue = 64
	SystemValueDepth                  SystemValue = 65
)

// Mask is a 4-bit component mask (.xyzw) used both for a signature
// element's declared components and for an instruction operand's
// write-mask / swizzle selection.
type Mask uint8

// Component bit positions within a Mask.
const (
	MaskX    Mask = 1 << 0
	MaskY    Mask = 1 << 1
	MaskZ    Mask = 1 << 2
	MaskW    Mask = 1 << 3
	MaskXYZW Mask = MaskX | MaskY | MaskZ | MaskW
)

// Popcount returns the number of set components, grounded on dxvk's
// getActiveComponentCount helper (original_source dxbc_util.cpp).
func (m Mask) Popcount() int {
	n := 0
	for i := 0; i < 4; i++ {
		if m&(1<<uint(i)) != 0 {
			n++
		}
	}
	return n
}

// Components returns the set component indices in ascending order,
// grounded on dxvk's getComponentIndices helper.
func (m Mask) Components() []int {
	var out []int
	for i := 0; i < 4; i++ {
		if m&(1<<uint(i)) != 0 {
			out = append(out, i)
		}
	}
	return out
}

// Test reports whether component i (0=x .. 3=w) is set.
func (m Mask) Test(i int) bool { return m&(1<<uint(i)) != 0 }

// SignatureElement describes one varying (input, output, or patch-constant)
// declared in an ISGN/ISG1/OSGN/OSG1/OSG5/PSG1 chunk.
type SignatureElement struct {
	SemanticName  string
	SemanticIndex uint32
	SystemValue   SystemValue
	ComponentType ComponentType
	Register      uint32
	Mask          Mask // declared components
	ReadWriteMask Mask // components actually read (input) or written (output)
	// Stream is the geometry-shader output stream index; zero unless this
	// element came from an OSG5 chunk.
	Stream uint32
	// MinPrecision records a minimum-precision hint; zero (full precision)
	// unless this element came from an ISG1/OSG1/OSG5 chunk.
	MinPrecision uint32
}

// SignatureTable is the decoded set of varyings for one of the four
// signature chunk kinds (input, output, and — for hull/domain — patch
// constant).
type SignatureTable struct {
	Elements []SignatureElement
}

// ByRegister returns the element bound to the given register slot, or nil.
func (t *SignatureTable) ByRegister(register uint32) *SignatureElement {
	for i := range t.Elements {
		if t.Elements[i].Register == register {
			return &t.Elements[i]
		}
	}
	return nil
}

// Lookup finds the element matching a case-insensitive semantic name,
// semantic index, and stream id — the lookup key dxvk's isgn/osgn
// wrappers expose to the compiler for resolving `SV_Target0`-style
// bindings.
func (t *SignatureTable) Lookup(semanticName string, semanticIndex, stream uint32) *SignatureElement {
	for i := range t.Elements {
		e := &t.Elements[i]
		if e.SemanticIndex == semanticIndex && e.Stream == stream && equalFoldASCII(e.SemanticName, semanticName) {
			return e
		}
	}
	return nil
}

// ByRegisterMask returns the bitwise union of every element's declared
// Mask that shares the given register slot; a register can be shared by
// multiple sub-component declarations (e.g. a min-precision split).
func (t *SignatureTable) ByRegisterMask(register uint32) Mask {
	var m Mask
	for i := range t.Elements {
		if t.Elements[i].Register == register {
			m |= t.Elements[i].Mask
		}
	}
	return m
}

// MaxRegister returns one past the highest register slot referenced by
// this table, i.e. the minimum array length needed to index every
// declared register — 0 if the table has no elements.
func (t *SignatureTable) MaxRegister() uint32 {
	var max uint32
	any := false
	for i := range t.Elements {
		if !any || t.Elements[i].Register >= max {
			max = t.Elements[i].Register
			any = true
		}
	}
	if !any {
		return 0
	}
	return max + 1
}

// equalFoldASCII compares two ASCII strings ignoring case, matching the
// case-insensitive semantic-name comparison dxvk performs (semantic names
// are always ASCII HLSL identifiers).
func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// signatureVariant controls the fixed-size element record layout used by
// each chunk tag: whether a leading Stream field (OSG5) and/or a trailing
// MinPrecision field (ISG1/OSG1/OSG5) are present.
type signatureVariant struct {
	hasStream       bool
	hasMinPrecision bool
}

func variantFor(tag string) signatureVariant {
	switch tag {
	case TagOSG5:
		return signatureVariant{hasStream: true, hasMinPrecision: true}
	case TagISG1, TagOSG1:
		return signatureVariant{hasMinPrecision: true}
	default: // ISGN, OSGN, PSG1
		return signatureVariant{}
	}
}

// ParseSignature decodes one signature chunk's payload. tag selects the
// record layout (see signatureVariant); payload is the chunk's raw bytes
// as stored in Container.Chunks, NOT including the outer tag+length
// header (ParseContainer already stripped that).
func ParseSignature(tag string, payload []byte) (*SignatureTable, error) {
	variant := variantFor(tag)
	r := NewReader(payload)

	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	if _, err := r.U32(); err != nil { // reserved, conventionally 8
		return nil, err
	}

	table := &SignatureTable{Elements: make([]SignatureElement, 0, count)}
	for i := uint32(0); i < count; i++ {
		var el SignatureElement

		if variant.hasStream {
			stream, err := r.U32()
			if err != nil {
				return nil, err
			}
			el.Stream = stream
		}

		nameOffset, err := r.U32()
		if err != nil {
			return nil, err
		}
		semanticIndex, err := r.U32()
		if err != nil {
			return nil, err
		}
		systemValue, err := r.U32()
		if err != nil {
			return nil, err
		}
		componentType, err := r.U32()
		if err != nil {
			return nil, err
		}
		register, err := r.U32()
		if err != nil {
			return nil, err
		}
		maskByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		rwMaskByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		if _, err := r.Bytes(2); err != nil { // padding
			return nil, err
		}
		if variant.hasMinPrecision {
			minPrecision, err := r.U32()
			if err != nil {
				return nil, err
			}
			el.MinPrecision = minPrecision
		}

		name, err := r.CStringAt(int(nameOffset))
		if err != nil {
			return nil, err
		}

		el.SemanticName = name
		el.SemanticIndex = semanticIndex
		el.SystemValue = SystemValue(systemValue)
		el.ComponentType = ComponentType(componentType)
		el.Register = register
		el.Mask = Mask(maskByte)
		el.ReadWriteMask = Mask(rwMaskByte)

		table.Elements = append(table.Elements, el)
	}

	return table, nil
}
