package prims

import (
	"errors"
	"testing"

	"github.com/chazu/linkcore/vm"
	"github.com/chazu/linkcore/vm/link"
	"github.com/chazu/linkcore/vm/unit"
)

func newContext(maxDepth int) (*link.Context, *vm.Heap) {
	reg := link.NewRegistry()
	Register(reg)
	heap := vm.NewHeap()
	return link.NewContext(link.Options{MaxDepth: maxDepth, Resolver: reg, Heap: heap}), heap
}

func call(t *testing.T, ctx *link.Context, name string, args ...vm.Value) link.Values {
	t.Helper()
	got, err := ctx.Call(link.NewLinkTable(name).Ref(0), nil, args...)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return got
}

func TestIdentityAndValues(t *testing.T) {
	ctx, _ := newContext(0)
	if got := call(t, ctx, "identity", vm.T); got.Primary() != vm.T || len(got) != 1 {
		t.Errorf("identity = %s", got)
	}
	got := call(t, ctx, "values", vm.Fixnum(1), vm.Nil, vm.Character('z'))
	if got.String() != `1; NIL; #\z` {
		t.Errorf("values = %s", got)
	}
	if got := call(t, ctx, "values"); len(got) != 0 {
		t.Errorf("values with no args = %s", got)
	}
}

func TestListCount(t *testing.T) {
	ctx, _ := newContext(0)
	args := make([]vm.Value, 255)
	for i := range args {
		args[i] = vm.Fixnum(int64(i))
	}
	if got := call(t, ctx, "list-count", args...); got.Primary() != vm.Fixnum(255) {
		t.Errorf("list-count = %s", got)
	}
}

func TestPlus(t *testing.T) {
	ctx, heap := newContext(0)

	if got := call(t, ctx, "+", vm.Fixnum(2), vm.Fixnum(40)); got.Primary() != vm.Fixnum(42) {
		t.Errorf("2+40 = %s", got)
	}
	if heap.Allocations() != 0 {
		t.Error("fixnum addition allocated")
	}
	if got := call(t, ctx, "+"); got.Primary() != vm.Fixnum(0) {
		t.Errorf("(+) = %s", got)
	}

	half := vm.BuildSingleFloatConstant(0.5)
	got := call(t, ctx, "+", vm.Fixnum(1), half.Ref())
	f, err := vm.AsDoubleFloat(got.Primary())
	if err != nil || f.Float64() != 1.5 {
		t.Errorf("1+0.5 = %s, %v", got, err)
	}
	if heap.Allocations() != 1 {
		t.Errorf("allocations = %d, want 1", heap.Allocations())
	}

	got = call(t, ctx, "+", vm.Fixnum(vm.MostPositiveFixnum), vm.Fixnum(1))
	if vm.TagOf(got.Primary()) != vm.TagDoubleFloat {
		t.Errorf("overflowing sum = %s, want a double", got)
	}

	_, err = ctx.Call(link.NewLinkTable("+").Ref(0), nil, vm.T)
	if !errors.Is(err, vm.ErrWrongType) {
		t.Errorf("(+ t) error = %v", err)
	}
}

func TestStringLength(t *testing.T) {
	ctx, _ := newContext(0)
	hello := vm.MustTextConstant("hello")
	if got := call(t, ctx, "string-length", hello.Ref()); got.Primary() != vm.Fixnum(5) {
		t.Errorf("string-length = %s", got)
	}
	_, err := ctx.Call(link.NewLinkTable("string-length").Ref(0), nil, vm.Fixnum(1))
	if !errors.Is(err, vm.ErrWrongType) {
		t.Errorf("error = %v", err)
	}
}

func TestRecurseGlobal(t *testing.T) {
	ctx, _ := newContext(100)
	if got := call(t, ctx, "recurse", vm.Fixnum(10)); got.Primary() != vm.Fixnum(11) {
		t.Errorf("recurse 10 = %s, want depth 11", got)
	}

	err := link.Checkpoint(func() error {
		_, err := ctx.Call(link.NewLinkTable("recurse").Ref(0), nil, vm.Fixnum(1000))
		return err
	})
	var so *link.StackOverflowError
	if !errors.As(err, &so) || so.Limit != 100 {
		t.Errorf("error = %v, want overflow at 100", err)
	}
	if recurseSlot.Cached() != nil {
		t.Error("shared slot must never be patched")
	}
}

func TestRecurseThroughUnit(t *testing.T) {
	reg := link.NewRegistry()
	Register(reg)
	img := unit.New("deep")
	img.Links = []string{"recurse"}
	img.Exports = []unit.Export{{Name: "recurse", Entry: "recurse", MinArgs: 1, MaxArgs: 1}}
	cb, err := unit.NewLoader(Natives(), reg).Load(img)
	if err != nil {
		t.Fatal(err)
	}

	ctx := link.NewContext(link.Options{MaxDepth: 64, Resolver: reg})
	ref, _ := cb.Links().Lookup("recurse")
	got, err := ctx.Call(ref, cb, vm.Fixnum(20))
	if err != nil {
		t.Fatal(err)
	}
	if got.Primary() != vm.Fixnum(21) {
		t.Errorf("recurse 20 = %s", got)
	}
	if ref.Cached() == nil {
		t.Error("unit's own slot should be patched")
	}
}

func TestNativesMatchRegistry(t *testing.T) {
	reg := link.NewRegistry()
	Register(reg)
	for name := range Natives() {
		if _, ok := reg.Lookup(name); !ok {
			t.Errorf("native %s not registered", name)
		}
	}
}
