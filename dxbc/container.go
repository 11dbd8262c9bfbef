package dxbc

// Chunk tags this decoder recognizes. Any other 4-byte tag is skipped with
// a warning rather than treated as fatal — DXBC containers commonly carry
// chunks (RDEF, STAT, IFCE, SDBG, SPDB, ...) this translation core has no
// use for, matching spec.md's container-parser contract.
const (
	TagISGN = "ISGN" // input signature (legacy, no min-precision)
	TagISG1 = "ISG1" // input signature (adds min-precision)
	TagOSGN = "OSGN" // output signature (legacy)
	TagOSG1 = "OSG1" // output signature (adds min-precision)
	TagOSG5 = "OSG5" // output signature (adds stream index, geometry shaders)
	TagPSG1 = "PSG1" // patch-constant signature (hull/domain shaders)
	TagSHDR = "SHDR" // shader bytecode, legacy SM4/SM5 token format
	TagSHEX = "SHEX" // shader bytecode, extended SM5 token format
)

// magicTag is the container's required leading 4-byte tag.
const magicTag = "DXBC"

// recognizedTag reports whether this decoder interprets a chunk tag.
// Unrecognized chunks are retained raw and reported as warnings, never
// as errors.
func recognizedTag(tag string) bool {
	switch tag {
	case TagISGN, TagISG1, TagOSGN, TagOSG1, TagOSG5, TagPSG1, TagSHDR, TagSHEX:
		return true
	}
	return false
}

// Chunk is one raw, un-decoded chunk of a DXBC container.
type Chunk struct {
	Tag     string
	Payload []byte
}

// Container is a parsed DXBC container: the decoded chunk table, indexed
// by tag for direct lookup by ParseContainer's callers (the signature
// table and instruction decoder).
type Container struct {
	Checksum  [4]uint32
	TotalSize uint32
	Chunks    []Chunk
	// Warnings accumulates non-fatal conditions encountered while parsing
	// (e.g. an unrecognized chunk tag), mirroring the Shader Compiler's
	// own warning-accumulation convention instead of failing the parse.
	Warnings []string
}

// Chunk returns the payload of the first chunk with the given tag, or nil
// if no such chunk is present.
func (c *Container) Chunk(tag string) []byte {
	for _, ch := range c.Chunks {
		if ch.Tag == tag {
			return ch.Payload
		}
	}
	return nil
}

// ShaderChunk returns the shader bytecode chunk, preferring the extended
// SHEX chunk over the legacy SHDR chunk when both are present — SHEX is
// effectively a strict superset, and dxvk's DxbcCompiler2 is written
// against it.
func (c *Container) ShaderChunk() (tag string, payload []byte, ok bool) {
	if p := c.Chunk(TagSHEX); p != nil {
		return TagSHEX, p, true
	}
	if p := c.Chunk(TagSHDR); p != nil {
		return TagSHDR, p, true
	}
	return "", nil, false
}

// ParseContainer decodes a DXBC container's header and chunk table. It
// does not interpret chunk payloads; see SignatureTable and Decoder for
// that.
func ParseContainer(data []byte) (*Container, error) {
	r := NewReader(data)

	tag, err := r.Tag()
	if err != nil {
		return nil, err
	}
	if tag != magicTag {
		return nil, NewErrorAt(ErrBadMagic, 0, "expected \"DXBC\" magic tag, got "+tag)
	}

	checksumWords, err := r.U32Array(4)
	if err != nil {
		return nil, err
	}
	var checksum [4]uint32
	copy(checksum[:], checksumWords)

	if _, err := r.U32(); err != nil { // reserved "one" field
		return nil, err
	}
	totalSize, err := r.U32()
	if err != nil {
		return nil, err
	}
	chunkCount, err := r.U32()
	if err != nil {
		return nil, err
	}

	offsets, err := r.U32Array(int(chunkCount))
	if err != nil {
		return nil, err
	}

	c := &Container{Checksum: checksum, TotalSize: totalSize}
	for _, off := range offsets {
		cr := NewReader(data)
		cr.Seek(int(off))
		chunkTag, err := cr.Tag()
		if err != nil {
			return nil, err
		}
		if !recognizedTag(chunkTag) {
			c.Warnings = append(c.Warnings, "skipping unrecognized chunk tag "+chunkTag)
		}
		length, err := cr.U32()
		if err != nil {
			return nil, err
		}
		payload, err := cr.Bytes(int(length))
		if err != nil {
			return nil, err
		}
		c.Chunks = append(c.Chunks, Chunk{Tag: chunkTag, Payload: payload})
	}

	if _, _, ok := c.ShaderChunk(); !ok {
		return nil, NewError(ErrMissingShaderChunk, "container has neither SHDR nor SHEX chunk")
	}

	return c, nil
}
