package link

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/chazu/linkcore/vm"
)

// Entry is the native code behind a compiled function. It runs on ctx,
// receives the environment of the unit it belongs to and the marshalled
// arguments, and returns its results unchanged to the caller.
type Entry func(ctx *Context, cb *CodeBlock, args *VarArgs) (Values, error)

// Variadic as MaxArgs means no upper bound.
const Variadic = -1

// ErrArity is wrapped by every ArityError.
var ErrArity = errors.New("wrong number of arguments")

// ArityError reports a call with an argument count the function does not
// accept.
type ArityError struct {
	Function string
	Got      int
	Min      int
	Max      int
}

func (e *ArityError) Error() string {
	if e.Max == Variadic {
		return fmt.Sprintf("%s: wrong number of arguments: got %d, want at least %d", e.Function, e.Got, e.Min)
	}
	if e.Min == e.Max {
		return fmt.Sprintf("%s: wrong number of arguments: got %d, want %d", e.Function, e.Got, e.Min)
	}
	return fmt.Sprintf("%s: wrong number of arguments: got %d, want %d to %d", e.Function, e.Got, e.Min, e.Max)
}

func (e *ArityError) Unwrap() error {
	return ErrArity
}

// Function is a compiled function object. It is a heap shape like any
// other and carries the TagCompiledFunction tag.
type Function struct {
	vm.Header
	name    string
	minArgs int
	maxArgs int
	entry   Entry
	block   *CodeBlock // defining unit; nil for functions not owned by a unit
}

// NewFunction creates a function not bound to any unit.
func NewFunction(name string, minArgs, maxArgs int, entry Entry) *Function {
	return &Function{
		Header:  vm.Header{Tag: vm.TagCompiledFunction},
		name:    name,
		minArgs: minArgs,
		maxArgs: maxArgs,
		entry:   entry,
	}
}

// Name returns the function name.
func (f *Function) Name() string {
	return f.name
}

// Arity returns the accepted argument range; max is Variadic if unbounded.
func (f *Function) Arity() (min, max int) {
	return f.minArgs, f.maxArgs
}

// Block returns the unit that defined f, or nil.
func (f *Function) Block() *CodeBlock {
	return f.block
}

// Ref returns the tagged reference to f.
func (f *Function) Ref() vm.Value {
	return vm.FromHeader(&f.Header)
}

func (f *Function) accepts(n int) bool {
	return n >= f.minArgs && (f.maxArgs == Variadic || n <= f.maxArgs)
}

// invoke checks the argument count and runs the entry. A function defined
// by a unit runs in that unit's environment; others see the caller's.
func (f *Function) invoke(ctx *Context, cb *CodeBlock, args *VarArgs) (Values, error) {
	if !f.accepts(args.Len()) {
		return nil, &ArityError{Function: f.name, Got: args.Len(), Min: f.minArgs, Max: f.maxArgs}
	}
	if f.block != nil {
		cb = f.block
	}
	return f.entry(ctx, cb, args)
}

// AsFunction returns the function view of v, or a vm.TypeError.
func AsFunction(v vm.Value) (*Function, error) {
	if vm.TagOf(v) != vm.TagCompiledFunction {
		return nil, &vm.TypeError{Want: vm.TagCompiledFunction, Got: vm.TagOf(v)}
	}
	return (*Function)(v.Pointer()), nil
}
