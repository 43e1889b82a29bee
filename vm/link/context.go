package link

import (
	"sync/atomic"

	"github.com/tliron/commonlog"

	"github.com/chazu/linkcore/vm"
)

// Default guard settings
const (
	DefaultMaxDepth   = 4096
	DefaultSafetyArea = 64
)

// ContextID identifies an execution context in diagnostics.
type ContextID uint64

var lastContextID atomic.Uint64

// Options configures a new Context.
type Options struct {
	MaxDepth   int             // control stack limit; DefaultMaxDepth if zero
	SafetyArea int             // extra depth granted after a trip; DefaultSafetyArea if zero, none if negative
	Resolver   Resolver        // link resolution; required for calls
	OnOverflow OverflowHandler // PanicOnOverflow if nil
	Heap       vm.Allocator    // dynamic allocation for callees; a fresh vm.Heap if nil
}

// Hooks observe the phases of a trampoline call. They exist for tests and
// tracing; nil hooks are skipped.
type Hooks struct {
	BeforeMarshal  func(narg, marker int)
	BeforeDispatch func(fn *Function, args *VarArgs)
}

// Context is one execution context: a goroutine or worker running compiled
// code. It owns its depth counter and guard and must only be used by the
// goroutine that runs it, so nothing here is locked.
type Context struct {
	ID       ContextID
	Hooks    Hooks
	depth    int
	guard    Guard
	resolver Resolver
	overflow OverflowHandler
	heap     vm.Allocator
	log      commonlog.Logger
}

// NewContext creates an execution context.
func NewContext(opts Options) *Context {
	safety := opts.SafetyArea
	if safety == 0 {
		safety = DefaultSafetyArea
	}
	handler := opts.OnOverflow
	if handler == nil {
		handler = PanicOnOverflow
	}
	heap := opts.Heap
	if heap == nil {
		heap = vm.NewHeap()
	}
	return &Context{
		ID:       ContextID(lastContextID.Add(1)),
		guard:    NewGuard(opts.MaxDepth, safety),
		resolver: opts.Resolver,
		overflow: handler,
		heap:     heap,
		log:      commonlog.GetLogger("linkcore.link"),
	}
}

// Depth returns the number of calls currently active on this context.
func (c *Context) Depth() int {
	return c.depth
}

// Marker returns the depth marker for the next call made from here.
func (c *Context) Marker() int {
	return c.depth + 1
}

// Guard returns the context's stack guard.
func (c *Context) Guard() *Guard {
	return &c.guard
}

// Heap returns the allocator callees use for new objects.
func (c *Context) Heap() vm.Allocator {
	return c.heap
}

// Resolver returns the resolver used for link slots.
func (c *Context) Resolver() Resolver {
	return c.resolver
}
