package unit

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/chazu/linkcore/vm"
	"github.com/chazu/linkcore/vm/link"
)

func echo(ctx *link.Context, cb *link.CodeBlock, args *link.VarArgs) (link.Values, error) {
	return link.Values(args.Rest()), nil
}

// constant returns data entry i of the calling unit.
func constant(ctx *link.Context, cb *link.CodeBlock, args *link.VarArgs) (link.Values, error) {
	i, err := vm.AsFixnum(args.At(0))
	if err != nil {
		return nil, err
	}
	return link.Single(cb.Constant(int(i))), nil
}

var testNatives = Natives{"echo": echo, "constant": constant}

func sampleImage() *Image {
	img := New("sample")
	img.Constants = []Constant{
		Text("hello"),
		Single(3.14159),
		Double(3.14159),
		Fixnum(-7),
		Char('λ'),
		{Kind: KindNil},
		{Kind: KindT},
	}
	img.Links = []string{"echo", "constant"}
	img.Exports = []Export{
		{Name: "echo", Entry: "echo", MinArgs: 0, MaxArgs: link.Variadic},
		{Name: "constant", Entry: "constant", MinArgs: 1, MaxArgs: 1},
	}
	return img
}

func TestLoadMaterializesConstants(t *testing.T) {
	cb, err := NewLoader(testNatives, nil).Load(sampleImage())
	if err != nil {
		t.Fatal(err)
	}
	if cb.NumConstants() != 7 {
		t.Fatalf("NumConstants = %d", cb.NumConstants())
	}

	s, err := vm.AsText(cb.Constant(0))
	if err != nil || s.String() != "hello" || s.Len() != 5 || s.HasFillPointer() {
		t.Errorf("text constant = %v, %v", s, err)
	}
	f, err := vm.AsSingleFloat(cb.Constant(1))
	if err != nil || math.Float32bits(f.Float32()) != math.Float32bits(3.14159) {
		t.Errorf("single constant = %v, %v", f, err)
	}
	d, err := vm.AsDoubleFloat(cb.Constant(2))
	if err != nil || math.Float64bits(d.Float64()) != math.Float64bits(3.14159) {
		t.Errorf("double constant = %v, %v", d, err)
	}
	if cb.Constant(3) != vm.Fixnum(-7) {
		t.Errorf("fixnum constant = %s", cb.Constant(3))
	}
	if cb.Constant(4) != vm.Character('λ') {
		t.Errorf("char constant = %s", cb.Constant(4))
	}
	if cb.Constant(5) != vm.Nil || cb.Constant(6) != vm.T {
		t.Error("nil/t constants wrong")
	}
	if cb.Pool().Len() != 3 {
		t.Errorf("pool holds %d objects, want 3", cb.Pool().Len())
	}
}

func TestLoadedFunctionsSeeTheirConstants(t *testing.T) {
	reg := link.NewRegistry()
	loader := NewLoader(testNatives, reg)
	if _, err := loader.Load(sampleImage()); err != nil {
		t.Fatal(err)
	}

	fn, ok := reg.Lookup("constant")
	if !ok {
		t.Fatal("export not installed")
	}
	ctx := link.NewContext(link.Options{Resolver: reg})
	got, err := ctx.Apply(fn, nil, vm.Fixnum(0))
	if err != nil {
		t.Fatal(err)
	}
	if vm.MustText(got.Primary()).String() != "hello" {
		t.Errorf("constant 0 = %s", got)
	}
}

func TestLoadRejectsMalformedConstant(t *testing.T) {
	tests := []struct {
		name string
		c    Constant
	}{
		{"length exceeds capacity", Constant{Kind: KindText, Text: "abc", Length: 10}},
		{"fixnum out of range", Constant{Kind: KindFixnum, Int: math.MaxInt64}},
		{"character out of range", Constant{Kind: KindCharacter, Int: vm.MaxCharCode + 1}},
		{"unknown kind", Constant{Kind: ConstKind(99)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := link.NewRegistry()
			loader := NewLoader(testNatives, reg)
			img := sampleImage()
			img.Constants = append(img.Constants, tt.c)

			_, err := loader.Load(img)
			if !errors.Is(err, vm.ErrMalformedConstant) {
				t.Fatalf("error = %v, want ErrMalformedConstant", err)
			}
			if _, ok := loader.Unit("sample"); ok {
				t.Error("refused unit was registered")
			}
			if len(reg.Names()) != 0 {
				t.Error("refused unit installed exports")
			}
		})
	}
}

func TestLoadUnknownEntry(t *testing.T) {
	img := sampleImage()
	img.Exports = append(img.Exports, Export{Name: "x", Entry: "no-such-entry"})
	_, err := NewLoader(testNatives, nil).Load(img)
	if !errors.Is(err, ErrUnknownEntry) {
		t.Errorf("error = %v, want ErrUnknownEntry", err)
	}
}

func TestReloadUnlinksOldUnit(t *testing.T) {
	reg := link.NewRegistry()
	loader := NewLoader(testNatives, reg)
	v1 := sampleImage()
	v1.Exports = append(v1.Exports, Export{Name: "old-fn", Entry: "echo", MaxArgs: link.Variadic})
	old, err := loader.Load(v1)
	if err != nil {
		t.Fatal(err)
	}

	ctx := link.NewContext(link.Options{Resolver: reg})
	ref, _ := old.Links().Lookup("echo")
	if _, err := ctx.Call(ref, old); err != nil {
		t.Fatal(err)
	}
	if ref.Cached() == nil {
		t.Fatal("slot not patched")
	}

	updated, err := loader.Load(sampleImage())
	if err != nil {
		t.Fatal(err)
	}
	if ref.Cached() != nil {
		t.Error("old unit's slots should be cleared on reload")
	}
	if cb, _ := loader.Unit("sample"); cb != updated {
		t.Error("Unit should return the new block")
	}
	fn, _ := reg.Lookup("echo")
	if fn.Block() != updated {
		t.Error("registry should point at the new unit's function")
	}
	if _, ok := reg.Lookup("old-fn"); ok {
		t.Error("export dropped by the new version still resolves")
	}
}

// ---------------------------------------------------------------------------
// Codec
// ---------------------------------------------------------------------------

func TestMarshalRoundTripThroughLoader(t *testing.T) {
	img := sampleImage()
	data, err := Marshal(img)
	if err != nil {
		t.Fatal(err)
	}
	cb, err := NewLoader(testNatives, nil).LoadBytes(data, "memory")
	if err != nil {
		t.Fatal(err)
	}
	if cb.Source() != "memory" || cb.Name() != "sample" {
		t.Errorf("source/name = %q/%q", cb.Source(), cb.Name())
	}
	if cb.Links().Len() != 2 || len(cb.Functions()) != 2 {
		t.Errorf("links %d functions %d", cb.Links().Len(), len(cb.Functions()))
	}
	if vm.MustText(cb.Constant(0)).String() != "hello" {
		t.Error("text constant lost in transit")
	}
}

func TestNegativeZeroSurvivesEncoding(t *testing.T) {
	img := New("zeros")
	img.Constants = []Constant{
		Single(float32(math.Copysign(0, -1))),
		Double(math.Copysign(0, -1)),
		Single(0),
		Double(0),
	}
	data, err := Marshal(img)
	if err != nil {
		t.Fatal(err)
	}
	cb, err := NewLoader(testNatives, nil).LoadBytes(data, "memory")
	if err != nil {
		t.Fatal(err)
	}

	singles := []uint32{0x80000000, 0}
	for i, want := range singles {
		f, err := vm.AsSingleFloat(cb.Constant(i * 2))
		if err != nil {
			t.Fatal(err)
		}
		if got := math.Float32bits(f.Float32()); got != want {
			t.Errorf("single %d bits %#x, want %#x", i, got, want)
		}
	}
	doubles := []uint64{0x8000000000000000, 0}
	for i, want := range doubles {
		d, err := vm.AsDoubleFloat(cb.Constant(i*2 + 1))
		if err != nil {
			t.Fatal(err)
		}
		if got := math.Float64bits(d.Float64()); got != want {
			t.Errorf("double %d bits %#x, want %#x", i, got, want)
		}
	}
}

func TestHashIsDeterministic(t *testing.T) {
	a, err := Hash(sampleImage())
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Hash(sampleImage())
	if a != b || len(a) != 64 {
		t.Errorf("hashes %s / %s", a, b)
	}

	changed := sampleImage()
	changed.Constants[3] = Fixnum(8)
	c, _ := Hash(changed)
	if c == a {
		t.Error("different images share a hash")
	}
}

func TestUnmarshalRejectsVersion(t *testing.T) {
	img := sampleImage()
	img.Version = FormatVersion + 1
	data, err := Marshal(img)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Unmarshal(data); err == nil {
		t.Error("expected version error")
	}
	if _, err := Unmarshal([]byte{0xff, 0x00}); err == nil {
		t.Error("expected decode error")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.lcu")
	if err := WriteFile(path, sampleImage()); err != nil {
		t.Fatal(err)
	}
	cb, err := NewLoader(testNatives, nil).LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cb.Source() != path {
		t.Errorf("source = %q", cb.Source())
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.lcu")); err == nil {
		t.Error("expected error for missing file")
	}
}
