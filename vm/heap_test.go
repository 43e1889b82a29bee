package vm

import (
	"errors"
	"runtime"
	"testing"
)

func TestHeapAllocText(t *testing.T) {
	h := NewHeap()
	v, err := h.AllocText(16, 4, true)
	if err != nil {
		t.Fatal(err)
	}
	if TagOf(v) != TagBaseString {
		t.Fatalf("tag = %s", TagOf(v))
	}
	s := MustText(v)
	if s.Len() != 4 || s.Capacity() != 16 {
		t.Errorf("len/cap = %d/%d, want 4/16", s.Len(), s.Capacity())
	}
	if !s.HasFillPointer() || !s.Adjustable() {
		t.Error("heap strings have a fill pointer; this one is adjustable")
	}
	if s.String() != "\x00\x00\x00\x00" {
		t.Errorf("contents = %q, want zero bytes", s.String())
	}
	if err := s.SetFillPointer(16); err != nil {
		t.Errorf("SetFillPointer(16): %v", err)
	}
	if err := s.SetFillPointer(17); !errors.Is(err, ErrFillPointer) {
		t.Errorf("SetFillPointer(17) error = %v", err)
	}
	if h.Allocations() != 1 || h.Live() != 1 {
		t.Errorf("allocations/live = %d/%d", h.Allocations(), h.Live())
	}
}

func TestHeapAllocTextBadFill(t *testing.T) {
	h := NewHeap()
	if _, err := h.AllocText(2, 3, false); !errors.Is(err, ErrFillPointer) {
		t.Errorf("error = %v, want ErrFillPointer", err)
	}
	if h.Allocations() != 0 {
		t.Error("failed allocation should not be counted")
	}
}

func TestConstantHasNoFillPointerToMove(t *testing.T) {
	s := MustTextConstant("abc")
	if err := s.SetFillPointer(1); !errors.Is(err, ErrFillPointer) {
		t.Errorf("error = %v, want ErrFillPointer", err)
	}
}

func TestHeapNewString(t *testing.T) {
	h := NewHeap()
	src := []byte("mutable")
	v := h.NewString(string(src))
	src[0] = 'X'
	if got := MustText(v).String(); got != "mutable" {
		t.Errorf("NewString = %q", got)
	}
	if got := MustText(h.NewString("")).Len(); got != 0 {
		t.Errorf("empty string len = %d", got)
	}
}

// Heap and constant objects of the same shape are handled the same way.
func TestHeapAndConstantIndistinguishable(t *testing.T) {
	h := NewHeap()
	dyn := h.AllocDoubleFloat(2.5)
	static := BuildDoubleFloatConstant(2.5)

	if TagOf(dyn) != TagOf(static.Ref()) {
		t.Fatal("tags differ")
	}
	a, _ := ToFloat64(dyn)
	b, _ := ToFloat64(static.Ref())
	if a != b {
		t.Errorf("values differ: %v vs %v", a, b)
	}
	if dyn.String() != static.Ref().String() {
		t.Errorf("printed forms differ: %s vs %s", dyn, static.Ref())
	}
}

func TestHeapKeepsObjectsAlive(t *testing.T) {
	h := NewHeap()
	vals := make([]Value, 100)
	for i := range vals {
		vals[i] = h.AllocSingleFloat(float32(i))
	}
	runtime.GC()
	runtime.GC()
	for i, v := range vals {
		f, err := AsSingleFloat(v)
		if err != nil || f.Float32() != float32(i) {
			t.Fatalf("object %d lost after GC", i)
		}
	}
	h.Release(vals[0])
	h.Release(Fixnum(1))
	if h.Live() != 99 {
		t.Errorf("live = %d, want 99", h.Live())
	}
}
