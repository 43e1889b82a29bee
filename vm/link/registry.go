package link

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ErrUndefinedFunction is wrapped by every UndefinedFunctionError.
var ErrUndefinedFunction = errors.New("undefined function")

// UndefinedFunctionError reports a link slot naming no known function.
type UndefinedFunctionError struct {
	Name string
	Unit string
}

func (e *UndefinedFunctionError) Error() string {
	if e.Unit == "" {
		return fmt.Sprintf("undefined function %s", e.Name)
	}
	return fmt.Sprintf("undefined function %s (called from %s)", e.Name, e.Unit)
}

func (e *UndefinedFunctionError) Unwrap() error {
	return ErrUndefinedFunction
}

// Resolver finds the function a link slot names, in the context of the
// calling unit.
type Resolver interface {
	Resolve(ref *LinkRef, cb *CodeBlock) (*Function, error)
}

// Registry is the global function namespace. It resolves a slot against
// the calling unit's own functions first, then against the global names.
//
// The registry is the only mutable shared state on the call path and
// synchronizes itself; the trampoline only reads it.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]*Function
}

var _ Resolver = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]*Function)}
}

// Define creates and installs a global function not owned by any unit.
func (r *Registry) Define(name string, minArgs, maxArgs int, entry Entry) *Function {
	f := NewFunction(name, minArgs, maxArgs, entry)
	r.Install(f)
	return f
}

// Install makes f visible under its name, replacing any previous
// definition.
func (r *Registry) Install(f *Function) {
	r.mu.Lock()
	r.fns[f.name] = f
	r.mu.Unlock()
}

// InstallUnit makes every function of cb globally visible.
func (r *Registry) InstallUnit(cb *CodeBlock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range cb.Functions() {
		r.fns[f.name] = f
	}
}

// RemoveUnit deletes every global definition that belongs to cb.
func (r *Registry) RemoveUnit(cb *CodeBlock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, f := range r.fns {
		if f.block == cb {
			delete(r.fns, name)
		}
	}
}

// Remove deletes the global definition of name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	delete(r.fns, name)
	r.mu.Unlock()
}

// Lookup returns the global definition of name.
func (r *Registry) Lookup(name string) (*Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fns[name]
	return f, ok
}

// Names returns all global names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Resolve implements Resolver.
func (r *Registry) Resolve(ref *LinkRef, cb *CodeBlock) (*Function, error) {
	if cb != nil {
		if f, ok := cb.Function(ref.name); ok {
			return f, nil
		}
	}
	if f, ok := r.Lookup(ref.name); ok {
		return f, nil
	}
	unit := ""
	if cb != nil {
		unit = cb.name
	}
	return nil, &UndefinedFunctionError{Name: ref.name, Unit: unit}
}
