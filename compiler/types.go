package compiler

import (
	"math"

	"github.com/dxbcspirv/dxbcspirv/dxbc"
	"github.com/dxbcspirv/dxbcspirv/spirv"
)

// typeCache memoizes the small, closed set of SPIR-V types this compiler
// ever needs (scalars, float4-family vectors, pointers into each storage
// class), on top of the builder's own type/constant dedup — this layer
// just avoids recomputing scalar/width lookups on every register access.
type typeCache struct {
	b *spirv.ModuleBuilder

	scalar map[dxbc.ScalarType]uint32
	vector map[vecKey]uint32
	ptr    map[ptrKey]uint32
}

type vecKey struct {
	scalar dxbc.ScalarType
	count  int
}

type ptrKey struct {
	storage spirv.StorageClass
	base    uint32
}

func newTypeCache(b *spirv.ModuleBuilder) *typeCache {
	return &typeCache{
		b:      b,
		scalar: make(map[dxbc.ScalarType]uint32),
		vector: make(map[vecKey]uint32),
		ptr:    make(map[ptrKey]uint32),
	}
}

// Scalar returns the SPIR-V type id for a dxbc.ScalarType.
func (t *typeCache) Scalar(s dxbc.ScalarType) uint32 {
	if id, ok := t.scalar[s]; ok {
		return id
	}
	var id uint32
	switch s {
	case dxbc.ScalarBool:
		id = t.b.AddTypeBool()
	case dxbc.ScalarU32:
		id = t.b.AddTypeInt(32, false)
	case dxbc.ScalarI32:
		id = t.b.AddTypeInt(32, true)
	case dxbc.ScalarU64:
		id = t.b.AddTypeInt(64, false)
	case dxbc.ScalarI64:
		id = t.b.AddTypeInt(64, true)
	case dxbc.ScalarF32:
		id = t.b.AddTypeFloat(32)
	case dxbc.ScalarF64:
		t.b.AddCapability(spirv.CapabilityFloat64)
		id = t.b.AddTypeFloat(64)
	}
	t.scalar[s] = id
	return id
}

// Vector returns the SPIR-V type id for a count-component vector of
// scalar s; count==1 returns the bare scalar type (DXBC has no distinct
// 1-vector type).
func (t *typeCache) Vector(s dxbc.ScalarType, count int) uint32 {
	if count <= 1 {
		return t.Scalar(s)
	}
	key := vecKey{s, count}
	if id, ok := t.vector[key]; ok {
		return id
	}
	id := t.b.AddTypeVector(t.Scalar(s), uint32(count))
	t.vector[key] = id
	return id
}

// Pointer returns the SPIR-V pointer type id for (storage, base).
func (t *typeCache) Pointer(storage spirv.StorageClass, base uint32) uint32 {
	key := ptrKey{storage, base}
	if id, ok := t.ptr[key]; ok {
		return id
	}
	id := t.b.AddTypePointer(storage, base)
	t.ptr[key] = id
	return id
}

// Value is a typed SPIR-V value flowing through the compiler: every
// value carries its scalar type, component count, and the SPIR-V result
// id producing it, so that register load/store can apply spec.md §9's
// "bit-cast discipline" (every operator inserts an explicit bit-cast
// when the current tag disagrees with what it needs) without re-deriving
// type information from the builder.
type Value struct {
	ID     uint32
	Scalar dxbc.ScalarType
	Count  int
}

func (c *Compiler) typeOf(v Value) uint32 { return c.types.Vector(v.Scalar, v.Count) }

// constU32 returns a (possibly splatted) constant vector of u32 value v.
func (c *Compiler) constU32(v uint32, count int) Value {
	scalarID := c.types.Scalar(dxbc.ScalarU32)
	id := c.b.AddConstant(scalarID, v)
	if count <= 1 {
		return Value{ID: id, Scalar: dxbc.ScalarU32, Count: 1}
	}
	vecID := c.types.Vector(dxbc.ScalarU32, count)
	ids := make([]uint32, count)
	for i := range ids {
		ids[i] = id
	}
	return Value{ID: c.b.AddConstantComposite(vecID, ids...), Scalar: dxbc.ScalarU32, Count: count}
}

func (c *Compiler) constI32(v int32, count int) Value {
	scalarID := c.types.Scalar(dxbc.ScalarI32)
	id := c.b.AddConstant(scalarID, uint32(v))
	if count <= 1 {
		return Value{ID: id, Scalar: dxbc.ScalarI32, Count: 1}
	}
	vecID := c.types.Vector(dxbc.ScalarI32, count)
	ids := make([]uint32, count)
	for i := range ids {
		ids[i] = id
	}
	return Value{ID: c.b.AddConstantComposite(vecID, ids...), Scalar: dxbc.ScalarI32, Count: count}
}

func (c *Compiler) constF32(v float32, count int) Value {
	id := c.b.AddConstantFloat32(c.types.Scalar(dxbc.ScalarF32), v)
	if count <= 1 {
		return Value{ID: id, Scalar: dxbc.ScalarF32, Count: 1}
	}
	vecID := c.types.Vector(dxbc.ScalarF32, count)
	ids := make([]uint32, count)
	for i := range ids {
		ids[i] = id
	}
	return Value{ID: c.b.AddConstantComposite(vecID, ids...), Scalar: dxbc.ScalarF32, Count: count}
}

// bitcast converts v to scalar type `to`, inserting an OpBitcast only
// when the tag actually disagrees (spec.md §9 "bit-cast discipline").
// Every disagreeing tag gets a plain OpBitcast; bool values are not
// handled here (producers of bool, such as loadFrontFace, convert to u32
// with an OpSelect before the value reaches bitcast).
func (c *Compiler) bitcast(v Value, to dxbc.ScalarType) Value {
	if v.Scalar == to {
		return v
	}
	resultType := c.types.Vector(to, v.Count)
	id := c.b.AddUnaryOp(spirv.OpBitcast, resultType, v.ID)
	return Value{ID: id, Scalar: to, Count: v.Count}
}

// floatBitsOf reinterprets a raw float32 bit pattern, used for literal
// immediates encoded as DWORDs in the token stream.
func floatBitsOf(bits uint32) float32 { return math.Float32frombits(bits) }
