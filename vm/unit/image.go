// Package unit defines the on-disk form of a compiled unit and loads it
// into a link.CodeBlock.
package unit

import (
	"fmt"
)

// FormatVersion is the image format written by this package.
const FormatVersion = 1

// ConstKind identifies the literal kind of a constant table entry.
//
// IMPORTANT: the values are part of the image format and must NEVER change.
type ConstKind uint8

const (
	KindNil ConstKind = iota
	KindT
	KindFixnum
	KindCharacter
	KindText
	KindSingleFloat
	KindDoubleFloat
)

func (k ConstKind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindT:
		return "t"
	case KindFixnum:
		return "fixnum"
	case KindCharacter:
		return "character"
	case KindText:
		return "text"
	case KindSingleFloat:
		return "single-float"
	case KindDoubleFloat:
		return "double-float"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Constant is one entry of a unit's constant table, as the compiler wrote
// it. Text constants carry their declared length separately from the
// characters so that the loader can reject inconsistent data.
type Constant struct {
	Kind   ConstKind `cbor:"1,keyasint"`
	Int    int64     `cbor:"2,keyasint,omitempty"`
	Text   string    `cbor:"3,keyasint,omitempty"`
	Length int       `cbor:"4,keyasint,omitempty"`
	Single float32   `cbor:"5,keyasint"`
	Double float64   `cbor:"6,keyasint"`
}

// Text returns a text constant entry.
func Text(s string) Constant {
	return Constant{Kind: KindText, Text: s, Length: len(s)}
}

// Fixnum returns a fixnum constant entry.
func Fixnum(n int64) Constant {
	return Constant{Kind: KindFixnum, Int: n}
}

// Char returns a character constant entry.
func Char(r rune) Constant {
	return Constant{Kind: KindCharacter, Int: int64(r)}
}

// Single returns a single-float constant entry.
func Single(f float32) Constant {
	return Constant{Kind: KindSingleFloat, Single: f}
}

// Double returns a double-float constant entry.
func Double(f float64) Constant {
	return Constant{Kind: KindDoubleFloat, Double: f}
}

// Export binds a function the unit defines to the native entry that
// implements it.
type Export struct {
	Name    string `cbor:"1,keyasint"`
	Entry   string `cbor:"2,keyasint"`
	MinArgs int    `cbor:"3,keyasint"`
	MaxArgs int    `cbor:"4,keyasint"`
}

// Image is a compiled unit: its constant table, the names it calls through
// its link table and the functions it exports.
type Image struct {
	Version   int        `cbor:"1,keyasint"`
	Name      string     `cbor:"2,keyasint"`
	Constants []Constant `cbor:"3,keyasint,omitempty"`
	Links     []string   `cbor:"4,keyasint,omitempty"`
	Exports   []Export   `cbor:"5,keyasint,omitempty"`
}

// New creates an empty image of the current format version.
func New(name string) *Image {
	return &Image{Version: FormatVersion, Name: name}
}
