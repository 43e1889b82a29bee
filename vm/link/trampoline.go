package link

import (
	"github.com/pkg/errors"

	"github.com/chazu/linkcore/vm"
)

// ErrNoResolver is returned when a slot needs resolving and the context
// has no resolver.
var ErrNoResolver = errors.New("context has no resolver")

// ErrNilLink is returned when a call is made without a link slot.
var ErrNilLink = errors.New("call without a link slot")

// Trampolink is the entry every compiled call stub goes through. It takes
// the declared argument count, the caller's depth marker, the link slot of
// the callee and the calling unit, and the arguments themselves.
//
// The phases run strictly in order:
//  1. the stack guard checks the marker; on overflow the handler unwinds
//     and nothing else happens
//  2. the arguments are marshalled into a VarArgs of exactly narg values
//  3. the slot is resolved against cb (and patched if the callee belongs
//     to cb), then the callee runs one level deeper
//  4. the callee's results are returned as they are
func (c *Context) Trampolink(narg, marker int, lk *LinkRef, cb *CodeBlock, args ...vm.Value) (Values, error) {
	if !c.guard.Allows(marker) {
		c.stackOverflow(marker)
	}
	if h := c.Hooks.BeforeMarshal; h != nil {
		h(narg, marker)
	}
	va, err := Marshal(narg, args)
	if err != nil {
		return nil, err
	}
	fn, err := c.resolve(lk, cb)
	if err != nil {
		return nil, err
	}
	return c.dispatch(fn, cb, va)
}

// Call is Trampolink with the count and marker taken from args and the
// context itself.
func (c *Context) Call(lk *LinkRef, cb *CodeBlock, args ...vm.Value) (Values, error) {
	return c.Trampolink(len(args), c.Marker(), lk, cb, args...)
}

// Apply calls a function object directly, under the same guard. cb is the
// caller's unit and may be nil.
func (c *Context) Apply(fn *Function, cb *CodeBlock, args ...vm.Value) (Values, error) {
	marker := c.Marker()
	if !c.guard.Allows(marker) {
		c.stackOverflow(marker)
	}
	if h := c.Hooks.BeforeMarshal; h != nil {
		h(len(args), marker)
	}
	va, err := Marshal(len(args), args)
	if err != nil {
		return nil, err
	}
	return c.dispatch(fn, cb, va)
}

func (c *Context) dispatch(fn *Function, cb *CodeBlock, va *VarArgs) (Values, error) {
	if h := c.Hooks.BeforeDispatch; h != nil {
		h(fn, va)
	}
	c.depth++
	defer c.leave()
	return fn.invoke(c, cb, va)
}

func (c *Context) leave() {
	c.depth--
	c.guard.relax(c.depth)
}

// resolve returns the callee of lk, patching the slot when the callee is
// defined by the calling unit. Calls into other units resolve every time,
// so redefinitions there are seen.
func (c *Context) resolve(lk *LinkRef, cb *CodeBlock) (*Function, error) {
	if lk == nil {
		return nil, ErrNilLink
	}
	if f := lk.Cached(); f != nil {
		return f, nil
	}
	if c.resolver == nil {
		return nil, ErrNoResolver
	}
	f, err := c.resolver.Resolve(lk, cb)
	if err != nil {
		return nil, err
	}
	if cb != nil && f.block == cb {
		lk.patch(f)
		c.log.Debugf("patched link %s in %s", lk.name, cb.name)
	}
	return f, nil
}

// stackOverflow raises the overflow condition. It never returns.
func (c *Context) stackOverflow(marker int) {
	err := &StackOverflowError{
		Context:  c.ID,
		Depth:    marker,
		Limit:    c.guard.Effective(),
		Extended: c.guard.Extended(),
	}
	c.guard.trip()
	c.log.Warningf("%s", err)
	c.overflow(err)
	panic(err)
}
