package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders v for diagnostics. Heap shapes unknown to this package
// print as #<tag 0x...>.
func (v Value) String() string {
	switch TagOf(v) {
	case TagList:
		return "NIL"
	case TagSymbol:
		switch v {
		case T:
			return "T"
		case Unbound:
			return "#<unbound>"
		}
	case TagFixnum:
		return strconv.FormatInt(v.fixnumValue(), 10)
	case TagCharacter:
		return fmt.Sprintf("#\\%c", v.charValue())
	case TagBaseString:
		return strconv.Quote(MustText(v).String())
	case TagSingleFloat:
		f, _ := AsSingleFloat(v)
		return formatFloat(float64(f.Float32()), 32)
	case TagDoubleFloat:
		f, _ := AsDoubleFloat(v)
		return formatFloat(f.Float64(), 64)
	case TagInvalid:
		return fmt.Sprintf("#<invalid 0x%x>", uint64(v))
	}
	return fmt.Sprintf("#<%s 0x%x>", TagOf(v), uint64(v))
}

// formatFloat prints doubles with a d0 exponent marker so they read back
// as doubles; singles are the default float format.
func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if strings.ContainsAny(s, "eIN") {
		return s
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	if bits == 64 {
		return s + "d0"
	}
	return s
}
