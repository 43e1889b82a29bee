package vm

import (
	"unsafe"
)

// Header is the common prefix of every heap object, static or dynamic.
//
// Layout (compiled code depends on it):
//   - byte 0: Tag
//   - byte 1: Mark, owned by the collector; 0 for static objects
//   - bytes 2-3: two shape-specific bytes (flags for strings, reserved
//     and zero for floats)
//
// Every heap shape embeds Header as its first field so that generic code
// can read the tag without knowing the shape.
type Header struct {
	Tag  Tag
	Mark uint8
	Aux1 uint8
	Aux2 uint8
}

// Header layout constants
const (
	HeaderTagOffset  = 0
	HeaderTagSize    = 1
	HeaderMarkOffset = 1
	HeaderSize       = 4
)

// Compile-time layout checks.
var (
	_ [HeaderSize - int(unsafe.Sizeof(Header{}))]struct{}
	_ [int(unsafe.Sizeof(Header{})) - HeaderSize]struct{}
	_ [HeaderTagOffset - int(unsafe.Offsetof(Header{}.Tag))]struct{}
)

// HeaderOf returns the header of a heap object, or false for immediates.
func HeaderOf(v Value) (*Header, bool) {
	h := v.headerPtr()
	return h, h != nil
}

// Ref returns the tagged Value for the object whose header is h.
func (h *Header) Ref() Value {
	return FromHeader(h)
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
