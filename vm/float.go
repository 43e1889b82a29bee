package vm

// SingleFloatObject is a boxed float32. Mark, Aux1 and Aux2 are reserved
// and always zero; they keep the layout in step with every other shape.
type SingleFloatObject struct {
	Header
	value float32
}

// DoubleFloatObject is a boxed float64, laid out like SingleFloatObject.
type DoubleFloatObject struct {
	Header
	value float64
}

// Float32 returns the payload.
func (f *SingleFloatObject) Float32() float32 {
	return f.value
}

// Ref returns the tagged reference to f.
// The receiver must live in a package variable, a ConstantPool or the Heap.
// A Value taken from a stack-local object dangles once the stack moves.
func (f *SingleFloatObject) Ref() Value {
	return FromHeader(&f.Header)
}

// Float64 returns the payload.
func (f *DoubleFloatObject) Float64() float64 {
	return f.value
}

// Ref returns the tagged reference to f.
// The receiver must live in a package variable, a ConstantPool or the Heap.
// A Value taken from a stack-local object dangles once the stack moves.
func (f *DoubleFloatObject) Ref() Value {
	return FromHeader(&f.Header)
}

// AsSingleFloat returns the single-float view of v, or a TypeError.
func AsSingleFloat(v Value) (*SingleFloatObject, error) {
	if TagOf(v) != TagSingleFloat {
		return nil, typeError(TagSingleFloat, v)
	}
	return (*SingleFloatObject)(v.Pointer()), nil
}

// AsDoubleFloat returns the double-float view of v, or a TypeError.
func AsDoubleFloat(v Value) (*DoubleFloatObject, error) {
	if TagOf(v) != TagDoubleFloat {
		return nil, typeError(TagDoubleFloat, v)
	}
	return (*DoubleFloatObject)(v.Pointer()), nil
}

// AsFixnum returns the integer carried by a fixnum, or a TypeError.
func AsFixnum(v Value) (int64, error) {
	if !v.IsFixnum() {
		return 0, typeError(TagFixnum, v)
	}
	return v.fixnumValue(), nil
}

// AsCharacter returns the code point carried by a character, or a TypeError.
func AsCharacter(v Value) (rune, error) {
	if !v.IsCharacter() {
		return 0, typeError(TagCharacter, v)
	}
	return v.charValue(), nil
}

// ToFloat64 converts any real number to float64, dispatching on the tag.
func ToFloat64(v Value) (float64, error) {
	switch TagOf(v) {
	case TagFixnum:
		return float64(v.fixnumValue()), nil
	case TagSingleFloat:
		return float64((*SingleFloatObject)(v.Pointer()).value), nil
	case TagDoubleFloat:
		return (*DoubleFloatObject)(v.Pointer()).value, nil
	}
	return 0, typeError(TagDoubleFloat, v)
}
