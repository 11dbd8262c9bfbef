package dxbc

// ProgramType identifies the shader stage encoded in a version token.
type ProgramType uint32

const (
	ProgramPixel    ProgramType = 0
	ProgramVertex   ProgramType = 1
	ProgramGeometry ProgramType = 2
	ProgramHull     ProgramType = 3
	ProgramDomain   ProgramType = 4
	ProgramCompute  ProgramType = 5
)

// ProgramVersion is the decoded leading token of a shader bytecode chunk.
type ProgramVersion struct {
	Type  ProgramType
	Major uint8
	Minor uint8
}

// TokenReader is a bounds-checked, forward-only cursor over a DXBC
// instruction token stream (the SHDR/SHEX chunk payload reinterpreted as
// a sequence of uint32 tokens, per spec.md's token-stream IR).
type TokenReader struct {
	tokens []uint32
	pos    int
}

// NewTokenReader wraps a chunk payload, reinterpreting it as little-endian
// uint32 tokens.
func NewTokenReader(payload []byte) (*TokenReader, error) {
	if len(payload)%4 != 0 {
		return nil, NewError(ErrEndOfStream, "token stream length is not a multiple of 4 bytes")
	}
	r := NewReader(payload)
	tokens, err := r.U32Array(len(payload) / 4)
	if err != nil {
		return nil, err
	}
	return &TokenReader{tokens: tokens}, nil
}

// Pos returns the current token index.
func (t *TokenReader) Pos() int { return t.pos }

// Seek repositions the cursor to an absolute token index.
func (t *TokenReader) Seek(pos int) { t.pos = pos }

// Len returns the total number of tokens.
func (t *TokenReader) Len() int { return len(t.tokens) }

// Remaining returns the number of unread tokens.
func (t *TokenReader) Remaining() int { return len(t.tokens) - t.pos }

// Next reads and consumes the next token.
func (t *TokenReader) Next() (uint32, error) {
	if t.pos >= len(t.tokens) {
		return 0, NewErrorAt(ErrEndOfStream, uint32(t.pos), "unexpected end of token stream")
	}
	v := t.tokens[t.pos]
	t.pos++
	return v, nil
}

// Peek reads the next token without consuming it.
func (t *TokenReader) Peek() (uint32, error) {
	if t.pos >= len(t.tokens) {
		return 0, NewErrorAt(ErrEndOfStream, uint32(t.pos), "unexpected end of token stream")
	}
	return t.tokens[t.pos], nil
}

// PeekAt reads the token at pos+offset without consuming anything.
func (t *TokenReader) PeekAt(offset int) (uint32, error) {
	idx := t.pos + offset
	if idx < 0 || idx >= len(t.tokens) {
		return 0, NewErrorAt(ErrEndOfStream, uint32(idx), "unexpected end of token stream")
	}
	return t.tokens[idx], nil
}

// skip advances the cursor past n tokens without returning them, bounds
// checked like every other TokenReader operation.
func (t *TokenReader) skip(n int) error {
	if n < 0 || t.pos+n > len(t.tokens) {
		return NewErrorAt(ErrEndOfStream, uint32(t.pos), "skip past end of token stream")
	}
	t.pos += n
	return nil
}

// Take splits off a sub-slice of the next n tokens for the current
// instruction, advancing the cursor past them (spec.md §4.4's
// `take`/`skip`/`peek` semantics).
func (t *TokenReader) Take(n int) ([]uint32, error) {
	if n < 0 || t.pos+n > len(t.tokens) {
		return nil, NewErrorAt(ErrEndOfStream, uint32(t.pos), "take past end of token stream")
	}
	out := t.tokens[t.pos : t.pos+n]
	t.pos += n
	return out, nil
}

// Skip advances the cursor past n tokens without returning them.
func (t *TokenReader) Skip(n int) error { return t.skip(n) }

// ReadProgramVersion consumes the leading version token and the following
// length token, returning the decoded version and the instruction stream
// length in DWORDs (including both tokens already consumed).
func (t *TokenReader) ReadProgramVersion() (ProgramVersion, uint32, error) {
	versionTok, err := t.Next()
	if err != nil {
		return ProgramVersion{}, 0, err
	}
	length, err := t.Next()
	if err != nil {
		return ProgramVersion{}, 0, err
	}
	v := ProgramVersion{
		Type:  ProgramType(bits(versionTok, 16, 31)),
		Major: uint8(bits(versionTok, 4, 7)),
		Minor: uint8(bits(versionTok, 0, 3)),
	}
	return v, length, nil
}

// bits extracts an inclusive [lo, hi] bitfield from a 32-bit word.
func bits(word uint32, lo, hi uint) uint32 {
	width := hi - lo + 1
	mask := uint32(1)<<width - 1
	return (word >> lo) & mask
}

// bit extracts a single bit.
func bit(word uint32, n uint) bool {
	return (word>>n)&1 != 0
}
