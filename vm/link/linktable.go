package link

import (
	"sync/atomic"
)

// LinkRef is one slot of a unit's link table: the name of a callee plus a
// cached pointer to it. The first call resolves the name; if the callee is
// defined by the calling unit the slot is patched so later calls go
// straight to it.
type LinkRef struct {
	name   string
	index  int
	cached atomic.Pointer[Function]
}

// Name returns the callee name.
func (r *LinkRef) Name() string {
	return r.name
}

// Index returns the slot position in its table.
func (r *LinkRef) Index() int {
	return r.index
}

// Cached returns the patched callee, or nil if the slot is unresolved.
func (r *LinkRef) Cached() *Function {
	return r.cached.Load()
}

// Unlink clears the slot so the next call resolves again.
func (r *LinkRef) Unlink() {
	r.cached.Store(nil)
}

func (r *LinkRef) patch(f *Function) {
	r.cached.Store(f)
}

// LinkTable holds the outgoing call slots of one unit. The set of slots is
// fixed when the unit is loaded; only the cached targets change.
type LinkTable struct {
	refs   []*LinkRef
	byName map[string]*LinkRef
}

// NewLinkTable creates a table with one slot per name. Duplicate names
// share a slot.
func NewLinkTable(names ...string) *LinkTable {
	t := &LinkTable{byName: make(map[string]*LinkRef, len(names))}
	for _, name := range names {
		if _, ok := t.byName[name]; ok {
			continue
		}
		ref := &LinkRef{name: name, index: len(t.refs)}
		t.refs = append(t.refs, ref)
		t.byName[name] = ref
	}
	return t
}

// Len returns the number of slots.
func (t *LinkTable) Len() int {
	return len(t.refs)
}

// Ref returns slot i.
func (t *LinkTable) Ref(i int) *LinkRef {
	return t.refs[i]
}

// Lookup returns the slot for name.
func (t *LinkTable) Lookup(name string) (*LinkRef, bool) {
	ref, ok := t.byName[name]
	return ref, ok
}

// Names returns the slot names in order.
func (t *LinkTable) Names() []string {
	names := make([]string, len(t.refs))
	for i, ref := range t.refs {
		names[i] = ref.name
	}
	return names
}

// UnlinkAll clears every slot.
func (t *LinkTable) UnlinkAll() {
	for _, ref := range t.refs {
		ref.Unlink()
	}
}
