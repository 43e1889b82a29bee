package link

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrStackOverflow is wrapped by every StackOverflowError.
var ErrStackOverflow = errors.New("control stack overflow")

// StackOverflowError is the condition raised when a call would grow a
// context's control stack past its limit.
type StackOverflowError struct {
	Context  ContextID
	Depth    int  // marker of the refused call
	Limit    int  // limit in force when the guard tripped
	Extended bool // the safety area was already in use
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("control stack overflow in context %d (depth %d, limit %d)", e.Context, e.Depth, e.Limit)
}

func (e *StackOverflowError) Unwrap() error {
	return ErrStackOverflow
}

// OverflowHandler receives the condition when the guard trips. It must not
// return: it unwinds to a checkpoint, typically by panicking with the
// condition. If it does return, the trampoline panics with the condition
// itself, so the refused call never proceeds.
type OverflowHandler func(*StackOverflowError)

// PanicOnOverflow is the default handler.
func PanicOnOverflow(e *StackOverflowError) {
	panic(e)
}

// Checkpoint runs fn and turns an unwinding StackOverflowError back into an
// ordinary error. Any other panic keeps propagating.
func Checkpoint(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			so, ok := r.(*StackOverflowError)
			if !ok {
				panic(r)
			}
			err = so
		}
	}()
	return fn()
}
