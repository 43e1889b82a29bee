package vm

// Tag is the discriminant stored in the first byte of every heap object and
// derived from the low bits of every immediate.
//
// IMPORTANT: tag values are part of the compiled-code ABI. Once assigned
// they must NEVER change; add new shapes at the end.
type Tag uint8

const (
	TagInvalid Tag = iota
	TagList        // nil (the empty list)
	TagCharacter
	TagFixnum
	TagSingleFloat
	TagDoubleFloat
	TagSymbol
	TagBaseString
	TagCodeBlock
	TagCompiledFunction

	tagCount
)

var tagNames = [tagCount]string{
	TagInvalid:          "invalid",
	TagList:             "list",
	TagCharacter:        "character",
	TagFixnum:           "fixnum",
	TagSingleFloat:      "single-float",
	TagDoubleFloat:      "double-float",
	TagSymbol:           "symbol",
	TagBaseString:       "base-string",
	TagCodeBlock:        "code-block",
	TagCompiledFunction: "compiled-function",
}

func (t Tag) String() string {
	if t < tagCount {
		return tagNames[t]
	}
	return "invalid"
}

// Valid reports whether t names a known shape.
func (t Tag) Valid() bool {
	return t > TagInvalid && t < tagCount
}

// TagOf returns the tag of v. It never fails: a zero word or a special
// other than nil yields TagInvalid or TagSymbol respectively.
func TagOf(v Value) Tag {
	switch uint64(v) & immMask {
	case immFixnum:
		return TagFixnum
	case immCharacter:
		return TagCharacter
	case immSpecial:
		if v == Nil {
			return TagList
		}
		// t and unbound behave as symbols.
		return TagSymbol
	}
	h := v.headerPtr()
	if h == nil {
		return TagInvalid
	}
	return h.Tag
}
