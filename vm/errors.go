package vm

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrWrongType is wrapped by every TypeError.
	ErrWrongType = errors.New("wrong type")

	// ErrMalformedConstant reports constant data the compiler should never
	// have produced.
	ErrMalformedConstant = errors.New("malformed constant")

	// ErrFillPointer reports a fill pointer outside [0, capacity].
	ErrFillPointer = errors.New("fill pointer out of range")
)

// TypeError is returned by the checked accessors when a value's tag does
// not match the requested shape.
type TypeError struct {
	Want Tag
	Got  Tag
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("wrong type: expected %s, got %s", e.Want, e.Got)
}

func (e *TypeError) Unwrap() error {
	return ErrWrongType
}

func typeError(want Tag, v Value) error {
	return &TypeError{Want: want, Got: TagOf(v)}
}

func malformed(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformedConstant, format, args...)
}
