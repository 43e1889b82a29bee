package link

import (
	"github.com/chazu/linkcore/vm"
)

// CodeBlock is the environment of one loaded compilation unit: its constant
// data vector, its link table and the functions it defines. It is a heap
// shape tagged TagCodeBlock.
//
// A CodeBlock is built by a single loader and is read-only afterwards; only
// link slots are patched concurrently, and those are atomic.
type CodeBlock struct {
	vm.Header
	name      string
	source    string
	data      []vm.Value
	pool      *vm.ConstantPool
	links     *LinkTable
	functions map[string]*Function
	order     []string
}

// NewCodeBlock creates a unit environment. pool owns the static objects
// referenced from data and is kept alive with the block; it may be nil if
// data holds only immediates or package-level constants.
func NewCodeBlock(name string, data []vm.Value, pool *vm.ConstantPool, links *LinkTable) *CodeBlock {
	if links == nil {
		links = NewLinkTable()
	}
	return &CodeBlock{
		Header:    vm.Header{Tag: vm.TagCodeBlock},
		name:      name,
		data:      data,
		pool:      pool,
		links:     links,
		functions: make(map[string]*Function),
	}
}

// Name returns the unit name.
func (cb *CodeBlock) Name() string {
	return cb.name
}

// Source returns where the unit was loaded from, if known.
func (cb *CodeBlock) Source() string {
	return cb.source
}

// SetSource records where the unit was loaded from.
func (cb *CodeBlock) SetSource(source string) {
	cb.source = source
}

// Constant returns entry i of the data vector.
func (cb *CodeBlock) Constant(i int) vm.Value {
	return cb.data[i]
}

// NumConstants returns the length of the data vector.
func (cb *CodeBlock) NumConstants() int {
	return len(cb.data)
}

// Pool returns the arena holding the unit's static constants, or nil.
func (cb *CodeBlock) Pool() *vm.ConstantPool {
	return cb.pool
}

// Links returns the unit's link table.
func (cb *CodeBlock) Links() *LinkTable {
	return cb.links
}

// Define creates a function owned by this unit.
func (cb *CodeBlock) Define(name string, minArgs, maxArgs int, entry Entry) *Function {
	f := NewFunction(name, minArgs, maxArgs, entry)
	f.block = cb
	if _, ok := cb.functions[name]; !ok {
		cb.order = append(cb.order, name)
	}
	cb.functions[name] = f
	return f
}

// Function returns the function the unit defines under name.
func (cb *CodeBlock) Function(name string) (*Function, bool) {
	f, ok := cb.functions[name]
	return f, ok
}

// Functions returns the unit's functions in definition order.
func (cb *CodeBlock) Functions() []*Function {
	fns := make([]*Function, 0, len(cb.order))
	for _, name := range cb.order {
		fns = append(fns, cb.functions[name])
	}
	return fns
}

// Ref returns the tagged reference to cb.
func (cb *CodeBlock) Ref() vm.Value {
	return vm.FromHeader(&cb.Header)
}

// AsCodeBlock returns the code block view of v, or a vm.TypeError.
func AsCodeBlock(v vm.Value) (*CodeBlock, error) {
	if vm.TagOf(v) != vm.TagCodeBlock {
		return nil, &vm.TypeError{Want: vm.TagCodeBlock, Got: vm.TagOf(v)}
	}
	return (*CodeBlock)(v.Pointer()), nil
}
