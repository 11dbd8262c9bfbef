package dxbc

import "encoding/binary"

// Reader is a bounds-checked, forward-only cursor over a DXBC container's
// raw bytes. All multi-byte values in a DXBC container are little-endian.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data for sequential reading starting at offset 0.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current byte offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the total number of bytes in the underlying buffer.
func (r *Reader) Len() int { return len(r.data) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Seek repositions the cursor to an absolute byte offset.
func (r *Reader) Seek(offset int) { r.pos = offset }

// require returns an end-of-stream error if fewer than n bytes remain.
func (r *Reader) require(n int) error {
	if r.Remaining() < n {
		return NewErrorAt(ErrEndOfStream, uint32(r.pos), "unexpected end of container")
	}
	return nil
}

// U8 reads a single byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// I32 reads a little-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// F32Bits reads a little-endian IEEE-754 float32, returned as its raw bit
// pattern; callers reinterpret with math.Float32frombits as needed.
func (r *Reader) F32Bits() (uint32, error) { return r.U32() }

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

// Tag reads a 4-byte ASCII chunk tag (e.g. "ISGN", "SHEX").
func (r *Reader) Tag() (string, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FixedString reads n bytes and trims trailing NUL padding, for
// null-terminated semantic names embedded in signature chunks.
func (r *Reader) FixedString(n int) (string, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end]), nil
}

// CStringAt reads a NUL-terminated string starting at the absolute byte
// offset, without moving the reader's position; used for semantic names
// referenced by a string offset elsewhere in a signature chunk.
func (r *Reader) CStringAt(offset int) (string, error) {
	if offset < 0 || offset >= len(r.data) {
		return "", NewErrorAt(ErrEndOfStream, uint32(offset), "string offset out of range")
	}
	end := offset
	for end < len(r.data) && r.data[end] != 0 {
		end++
	}
	if end >= len(r.data) {
		return "", NewErrorAt(ErrEndOfStream, uint32(offset), "unterminated string")
	}
	return string(r.data[offset:end]), nil
}

// U32Array reads count little-endian uint32s.
func (r *Reader) U32Array(count int) ([]uint32, error) {
	out := make([]uint32, count)
	for i := range out {
		v, err := r.U32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
