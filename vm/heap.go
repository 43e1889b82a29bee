package vm

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// Allocator is the dynamic allocation service used outside the constant
// builder. Static constants never go through it.
type Allocator interface {
	AllocText(capacity, fill int, adjustable bool) (Value, error)
	AllocSingleFloat(f float32) Value
	AllocDoubleFloat(f float64) Value
}

// Heap is a minimal Allocator. It keeps every object it hands out in a
// registry: once a pointer is folded into a Value the Go collector can no
// longer see it, so the registry holds the Go-visible reference.
type Heap struct {
	mu      sync.Mutex
	objects map[*Header]struct{}
	allocs  atomic.Uint64
}

var _ Allocator = (*Heap)(nil)

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{objects: make(map[*Header]struct{})}
}

// Allocations returns the number of objects allocated so far.
func (h *Heap) Allocations() uint64 {
	return h.allocs.Load()
}

// Live returns the number of objects currently held.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.objects)
}

// Release drops the heap's reference to v. It stands in for the collector
// reclaiming an unreachable object.
func (h *Heap) Release(v Value) {
	hdr, ok := HeaderOf(v)
	if !ok {
		return
	}
	h.mu.Lock()
	delete(h.objects, hdr)
	h.mu.Unlock()
}

func (h *Heap) keep(hdr *Header) Value {
	h.mu.Lock()
	h.objects[hdr] = struct{}{}
	h.mu.Unlock()
	h.allocs.Add(1)
	return FromHeader(hdr)
}

// AllocText allocates a zero-filled string with a fill pointer.
func (h *Heap) AllocText(capacity, fill int, adjustable bool) (Value, error) {
	if capacity < 0 || fill < 0 || fill > capacity {
		return Nil, ErrFillPointer
	}
	s := &TextObject{
		Header:    Header{Tag: TagBaseString, Aux1: 1, Aux2: boolByte(adjustable)},
		displaced: Nil,
		dim:       capacity,
		fillp:     fill,
	}
	if capacity > 0 {
		buf := make([]byte, capacity)
		s.self = &buf[0]
	}
	return h.keep(&s.Header), nil
}

// AllocSingleFloat allocates a boxed float32.
func (h *Heap) AllocSingleFloat(f float32) Value {
	obj := &SingleFloatObject{Header: Header{Tag: TagSingleFloat}, value: f}
	return h.keep(&obj.Header)
}

// AllocDoubleFloat allocates a boxed float64.
func (h *Heap) AllocDoubleFloat(f float64) Value {
	obj := &DoubleFloatObject{Header: Header{Tag: TagDoubleFloat}, value: f}
	return h.keep(&obj.Header)
}

// NewString allocates a string holding a copy of chars.
func (h *Heap) NewString(chars string) Value {
	v, _ := h.AllocText(len(chars), len(chars), false)
	if len(chars) > 0 {
		s := (*TextObject)(v.Pointer())
		copy(unsafe.Slice(s.self, s.dim), chars)
	}
	return v
}
