package link

import (
	"github.com/pkg/errors"

	"github.com/chazu/linkcore/vm"
)

var (
	// ErrArgCount reports a declared argument count that does not match the
	// arguments actually passed. It means the caller broke the ABI.
	ErrArgCount = errors.New("declared argument count does not match arguments")

	// ErrTooFewArgs is returned by VarArgs.Next past the last argument.
	ErrTooFewArgs = errors.New("too few arguments")
)

// VarArgs is the variable-arity argument list handed to a target. It holds
// exactly the declared number of arguments in call order and a cursor for
// sequential access.
type VarArgs struct {
	args []vm.Value
	pos  int
}

// Marshal packs narg fixed arguments into a VarArgs. The arguments are
// copied so the target never aliases the caller's storage.
func Marshal(narg int, args []vm.Value) (*VarArgs, error) {
	if narg < 0 || narg != len(args) {
		return nil, errors.Wrapf(ErrArgCount, "declared %d, passed %d", narg, len(args))
	}
	va := &VarArgs{}
	if narg > 0 {
		va.args = make([]vm.Value, narg)
		copy(va.args, args)
	}
	return va, nil
}

// Len returns the argument count.
func (va *VarArgs) Len() int {
	return len(va.args)
}

// At returns argument i.
func (va *VarArgs) At(i int) vm.Value {
	return va.args[i]
}

// Next returns the argument under the cursor and advances it.
func (va *VarArgs) Next() (vm.Value, error) {
	if va.pos >= len(va.args) {
		return vm.Nil, ErrTooFewArgs
	}
	v := va.args[va.pos]
	va.pos++
	return v, nil
}

// Remaining returns the number of arguments not yet consumed by Next.
func (va *VarArgs) Remaining() int {
	return len(va.args) - va.pos
}

// Rest returns a copy of the arguments not yet consumed by Next.
func (va *VarArgs) Rest() []vm.Value {
	rest := make([]vm.Value, len(va.args)-va.pos)
	copy(rest, va.args[va.pos:])
	return rest
}

// Values returns all arguments. The slice must not be modified.
func (va *VarArgs) Values() []vm.Value {
	return va.args
}
