package vm

import (
	"unsafe"
)

// ---------------------------------------------------------------------------
// Static constant builders
// ---------------------------------------------------------------------------
//
// The builders return fully formed objects by value. Assigned to a package
// variable they sit in static storage: no Heap allocation, no collector
// bookkeeping, alive for the whole process. A Value obtained with Ref is
// indistinguishable from one pointing at a dynamically allocated object of
// the same tag.
//
//	var helloData = vm.MustTextConstant("hello")
//	var hello = helloData.Ref()

// BuildTextConstant returns a base-string constant over chars.
// length must equal len(chars); the buffer is used as is and must never be
// modified.
func BuildTextConstant(chars string, length int) (TextObject, error) {
	switch {
	case length < 0:
		return TextObject{}, malformed("text constant: negative length %d", length)
	case length > len(chars):
		return TextObject{}, malformed("text constant: length %d exceeds capacity %d", length, len(chars))
	case length != len(chars):
		return TextObject{}, malformed("text constant: length %d does not match buffer of %d", length, len(chars))
	}
	return TextObject{
		Header:    Header{Tag: TagBaseString},
		displaced: Nil,
		dim:       length,
		fillp:     length,
		self:      unsafe.StringData(chars),
	}, nil
}

// MustTextConstant is BuildTextConstant with length len(chars), for use in
// package initialisation.
func MustTextConstant(chars string) TextObject {
	s, err := BuildTextConstant(chars, len(chars))
	if err != nil {
		panic(err)
	}
	return s
}

// BuildSingleFloatConstant returns a single-float constant.
func BuildSingleFloatConstant(f float32) SingleFloatObject {
	return SingleFloatObject{Header: Header{Tag: TagSingleFloat}, value: f}
}

// BuildDoubleFloatConstant returns a double-float constant.
func BuildDoubleFloatConstant(f float64) DoubleFloatObject {
	return DoubleFloatObject{Header: Header{Tag: TagDoubleFloat}, value: f}
}

// ---------------------------------------------------------------------------
// ConstantPool
// ---------------------------------------------------------------------------

// poolSlab is the number of objects per arena slab.
const poolSlab = 64

// ConstantPool is an arena for constants created at load time, when they
// cannot be package variables. Slabs are never reused or freed: objects
// keep their address for as long as the pool is reachable, and a loaded
// unit keeps its pool for the life of the process.
//
// A ConstantPool is filled by one loader and is read-only afterwards.
type ConstantPool struct {
	texts   [][]TextObject
	singles [][]SingleFloatObject
	doubles [][]DoubleFloatObject
	count   int
}

// NewConstantPool creates an empty pool.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{}
}

// Text adds a text constant and returns its reference.
func (p *ConstantPool) Text(chars string, length int) (Value, error) {
	obj, err := BuildTextConstant(chars, length)
	if err != nil {
		return Nil, err
	}
	p.texts = grow(p.texts)
	slab := &p.texts[len(p.texts)-1]
	*slab = append(*slab, obj)
	p.count++
	return (*slab)[len(*slab)-1].Ref(), nil
}

// Single adds a single-float constant and returns its reference.
func (p *ConstantPool) Single(f float32) Value {
	p.singles = grow(p.singles)
	slab := &p.singles[len(p.singles)-1]
	*slab = append(*slab, BuildSingleFloatConstant(f))
	p.count++
	return (*slab)[len(*slab)-1].Ref()
}

// Double adds a double-float constant and returns its reference.
func (p *ConstantPool) Double(f float64) Value {
	p.doubles = grow(p.doubles)
	slab := &p.doubles[len(p.doubles)-1]
	*slab = append(*slab, BuildDoubleFloatConstant(f))
	p.count++
	return (*slab)[len(*slab)-1].Ref()
}

// Len returns the number of objects in the pool.
func (p *ConstantPool) Len() int {
	return p.count
}

// grow makes sure the last slab has room for one more object. Slabs are
// created with their final capacity so append never moves existing
// objects.
func grow[T any](slabs [][]T) [][]T {
	if n := len(slabs); n > 0 && len(slabs[n-1]) < cap(slabs[n-1]) {
		return slabs
	}
	return append(slabs, make([]T, 0, poolSlab))
}
