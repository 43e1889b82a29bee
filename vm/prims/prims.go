// Package prims provides the native entries every image may refer to.
package prims

import (
	"github.com/chazu/linkcore/vm"
	"github.com/chazu/linkcore/vm/link"
	"github.com/chazu/linkcore/vm/unit"
)

// Natives returns the entries by the names images use.
func Natives() unit.Natives {
	return unit.Natives{
		"identity":      identity,
		"list-count":    listCount,
		"values":        values,
		"+":             plus,
		"string-length": stringLength,
		"recurse":       recurse,
	}
}

// Register installs the entries as global functions.
func Register(reg *link.Registry) {
	reg.Define("identity", 1, 1, identity)
	reg.Define("list-count", 0, link.Variadic, listCount)
	reg.Define("values", 0, link.Variadic, values)
	reg.Define("+", 0, link.Variadic, plus)
	reg.Define("string-length", 1, 1, stringLength)
	reg.Define("recurse", 1, 1, recurse)
}

func identity(ctx *link.Context, cb *link.CodeBlock, args *link.VarArgs) (link.Values, error) {
	return link.Single(args.At(0)), nil
}

// listCount returns how many arguments it was given.
func listCount(ctx *link.Context, cb *link.CodeBlock, args *link.VarArgs) (link.Values, error) {
	return link.Single(vm.Fixnum(int64(args.Len()))), nil
}

func values(ctx *link.Context, cb *link.CodeBlock, args *link.VarArgs) (link.Values, error) {
	return link.Values(args.Rest()), nil
}

// plus adds fixnums exactly and switches to double precision once a
// float is involved or the sum leaves the fixnum range. Double results are
// boxed on the context's heap.
func plus(ctx *link.Context, cb *link.CodeBlock, args *link.VarArgs) (link.Values, error) {
	var isum int64
	var fsum float64
	float := false
	for i := 0; i < args.Len(); i++ {
		v := args.At(i)
		if !float {
			if n, err := vm.AsFixnum(v); err == nil {
				if s, ok := addFixnum(isum, n); ok {
					isum = s
					continue
				}
			}
			float = true
			fsum = float64(isum)
		}
		f, err := vm.ToFloat64(v)
		if err != nil {
			return nil, err
		}
		fsum += f
	}
	if !float {
		return link.Single(vm.Fixnum(isum)), nil
	}
	return link.Single(ctx.Heap().AllocDoubleFloat(fsum)), nil
}

// addFixnum cannot overflow int64: both operands are 62-bit.
func addFixnum(a, b int64) (int64, bool) {
	s := a + b
	if s > vm.MostPositiveFixnum || s < vm.MostNegativeFixnum {
		return 0, false
	}
	return s, true
}

func stringLength(ctx *link.Context, cb *link.CodeBlock, args *link.VarArgs) (link.Values, error) {
	s, err := vm.AsText(args.At(0))
	if err != nil {
		return nil, err
	}
	return link.Single(vm.Fixnum(int64(s.Len()))), nil
}

// recurse calls itself n times through the trampoline and returns the
// depth reached. It has no base case other than n reaching zero, so a
// large n runs into the stack guard.
func recurse(ctx *link.Context, cb *link.CodeBlock, args *link.VarArgs) (link.Values, error) {
	n, err := vm.AsFixnum(args.At(0))
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return link.Single(vm.Fixnum(int64(ctx.Depth()))), nil
	}
	if cb != nil {
		if ref, ok := cb.Links().Lookup("recurse"); ok {
			return ctx.Call(ref, cb, vm.Fixnum(n-1))
		}
	}
	// No slot in the calling unit: resolve globally. The shared slot is
	// never patched because it belongs to no unit.
	return ctx.Call(recurseSlot, nil, vm.Fixnum(n-1))
}

var recurseSlot = link.NewLinkTable("recurse").Ref(0)
