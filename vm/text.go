package vm

import (
	"unsafe"

	"github.com/pkg/errors"
)

// TextObject is a base string. The same shape serves compile-time
// constants and strings made by the Heap; only the storage differs.
//
// Header.Aux1 holds the has-fill-pointer flag and Header.Aux2 the
// adjustable flag.
type TextObject struct {
	Header
	displaced Value // source of a displaced string, Nil if none
	dim       int   // allocated capacity
	fillp     int   // length in use
	self      *byte // character buffer, dim bytes
}

// Len returns the number of characters in use.
func (s *TextObject) Len() int {
	return s.fillp
}

// Capacity returns the allocated size of the buffer.
func (s *TextObject) Capacity() int {
	return s.dim
}

// HasFillPointer reports whether the length can differ from the capacity.
func (s *TextObject) HasFillPointer() bool {
	return s.Aux1 != 0
}

// Adjustable reports whether the string may be resized.
func (s *TextObject) Adjustable() bool {
	return s.Aux2 != 0
}

// Displaced returns the string this one is displaced to, or Nil.
func (s *TextObject) Displaced() Value {
	return s.displaced
}

// String returns the characters in use without copying them.
func (s *TextObject) String() string {
	if s.fillp == 0 {
		return ""
	}
	return unsafe.String(s.self, s.fillp)
}

// Bytes returns a copy of the characters in use.
func (s *TextObject) Bytes() []byte {
	return []byte(s.String())
}

// SetFillPointer changes the length of a string that has a fill pointer.
func (s *TextObject) SetFillPointer(n int) error {
	if !s.HasFillPointer() {
		return errors.Wrap(ErrFillPointer, "string has no fill pointer")
	}
	if n < 0 || n > s.dim {
		return ErrFillPointer
	}
	s.fillp = n
	return nil
}

// Ref returns the tagged reference to s.
// The receiver must live in a package variable, a ConstantPool or the Heap.
// A Value taken from a stack-local object dangles once the stack moves.
func (s *TextObject) Ref() Value {
	return FromHeader(&s.Header)
}

// AsText returns the string view of v, or a TypeError.
func AsText(v Value) (*TextObject, error) {
	if TagOf(v) != TagBaseString {
		return nil, typeError(TagBaseString, v)
	}
	return (*TextObject)(v.Pointer()), nil
}

// MustText is AsText for callers that already checked the tag.
func MustText(v Value) *TextObject {
	s, err := AsText(v)
	if err != nil {
		panic(err)
	}
	return s
}
