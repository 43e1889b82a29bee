package vm

import (
	"unsafe"
)

// Value is the uniform tagged reference used for every runtime value.
//
// A Value is one machine word. The two low bits select the immediate kind:
//   - 00: pointer to a heap object (every heap shape starts with a Header)
//   - 01: fixnum, 62-bit signed payload in the upper bits
//   - 10: character, Unicode code point in the upper bits
//   - 11: special constant (nil, t, unbound)
//
// Heap objects are at least 4-byte aligned, so a raw pointer already has
// its low bits clear and needs no masking to be stored.
type Value uint64

// Immediate encoding constants
const (
	immMask uint64 = 0x3

	immPointer   uint64 = 0x0
	immFixnum    uint64 = 0x1
	immCharacter uint64 = 0x2
	immSpecial   uint64 = 0x3

	immShift = 2
)

// Special value payloads
const (
	specialNil     uint64 = 0
	specialT       uint64 = 1
	specialUnbound uint64 = 2
)

// Pre-defined special values
const (
	Nil     Value = Value(specialNil<<immShift | immSpecial)
	T       Value = Value(specialT<<immShift | immSpecial)
	Unbound Value = Value(specialUnbound<<immShift | immSpecial)
)

// Fixnum range (62-bit signed)
const (
	MostPositiveFixnum int64 = (1 << 61) - 1
	MostNegativeFixnum int64 = -(1 << 61)
)

// MaxCharCode is the largest code point a character immediate carries.
const MaxCharCode = 0x10FFFF

// ---------------------------------------------------------------------------
// Kind checks
// ---------------------------------------------------------------------------

// IsImmediate returns true if v carries its payload inline.
func (v Value) IsImmediate() bool {
	return uint64(v)&immMask != immPointer
}

// IsHeap returns true if v points at a heap object.
func (v Value) IsHeap() bool {
	return uint64(v)&immMask == immPointer && v != 0
}

// IsFixnum returns true if v is a fixnum immediate.
func (v Value) IsFixnum() bool {
	return uint64(v)&immMask == immFixnum
}

// IsCharacter returns true if v is a character immediate.
func (v Value) IsCharacter() bool {
	return uint64(v)&immMask == immCharacter
}

// IsNil returns true if v is nil.
func (v Value) IsNil() bool {
	return v == Nil
}

// IsUnbound returns true if v is the unbound marker.
func (v Value) IsUnbound() bool {
	return v == Unbound
}

// ---------------------------------------------------------------------------
// Fixnum operations
// ---------------------------------------------------------------------------

// Fixnum creates a fixnum Value.
// Panics if n is outside the fixnum range.
func Fixnum(n int64) Value {
	v, ok := TryFixnum(n)
	if !ok {
		panic("Fixnum: value out of range")
	}
	return v
}

// TryFixnum creates a fixnum Value, returning false if n is out of range.
func TryFixnum(n int64) (Value, bool) {
	if n > MostPositiveFixnum || n < MostNegativeFixnum {
		return Nil, false
	}
	return Value(uint64(n)<<immShift | immFixnum), true
}

// fixnumValue decodes a fixnum without checking the kind.
func (v Value) fixnumValue() int64 {
	// Arithmetic shift restores the sign.
	return int64(v) >> immShift
}

// ---------------------------------------------------------------------------
// Character operations
// ---------------------------------------------------------------------------

// Character creates a character Value.
// Panics if r is not a valid code point.
func Character(r rune) Value {
	if r < 0 || r > MaxCharCode {
		panic("Character: invalid code point")
	}
	return Value(uint64(r)<<immShift | immCharacter)
}

func (v Value) charValue() rune {
	return rune(uint64(v) >> immShift)
}

// ---------------------------------------------------------------------------
// Booleans
// ---------------------------------------------------------------------------

// FromBool returns T for true and Nil for false.
func FromBool(b bool) Value {
	if b {
		return T
	}
	return Nil
}

// IsTruthy returns true for everything except nil.
func (v Value) IsTruthy() bool {
	return v != Nil
}

// ---------------------------------------------------------------------------
// Heap pointers
// ---------------------------------------------------------------------------

// FromHeader creates a Value from a pointer to the Header of a heap object.
// The object must stay reachable through a Go reference for as long as the
// Value is in use: static constants live in package variables or a
// ConstantPool, dynamic objects are held by the Heap.
func FromHeader(h *Header) Value {
	return Value(uint64(uintptr(unsafe.Pointer(h))))
}

// headerPtr returns the heap header v points to, or nil if v is not a heap
// reference.
func (v Value) headerPtr() *Header {
	if !v.IsHeap() {
		return nil
	}
	return (*Header)(unsafe.Pointer(uintptr(v)))
}

// Pointer returns the heap address carried by v.
// Panics if v is not a heap reference; callers check the tag first.
func (v Value) Pointer() unsafe.Pointer {
	if !v.IsHeap() {
		panic("Value.Pointer: not a heap object")
	}
	return unsafe.Pointer(uintptr(v))
}
