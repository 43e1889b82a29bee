package unitstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/chazu/linkcore/vm/unit"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "units.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func image(name string, n int64) *unit.Image {
	img := unit.New(name)
	img.Constants = []unit.Constant{unit.Fixnum(n), unit.Text(name)}
	img.Links = []string{"identity"}
	return img
}

func TestStorePutGet(t *testing.T) {
	s := openTestStore(t)
	img := image("alpha", 1)

	hash, err := s.Put(img)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := unit.Hash(img)
	if hash != want {
		t.Errorf("Put hash = %s, want %s", hash, want)
	}

	got, err := s.Get(hash)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "alpha" || len(got.Constants) != 2 || got.Constants[1].Text != "alpha" {
		t.Errorf("Get = %+v", got)
	}
	if again, _ := unit.Hash(got); again != hash {
		t.Error("stored image does not hash the same")
	}
}

func TestStorePutIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	h1, _ := s.Put(image("alpha", 1))
	h2, _ := s.Put(image("alpha", 1))
	if h1 != h2 {
		t.Errorf("hashes differ: %s %s", h1, h2)
	}
	entries, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("List has %d entries, want 1", len(entries))
	}
}

func TestStoreLookupNewest(t *testing.T) {
	s := openTestStore(t)
	s.Put(image("alpha", 1))
	newest, _ := s.Put(image("alpha", 2))
	s.Put(image("beta", 1))

	img, hash, err := s.Lookup("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if hash != newest || img.Constants[0].Int != 2 {
		t.Errorf("Lookup = %s (%d), want newest", hash, img.Constants[0].Int)
	}

	if _, _, err := s.Lookup("gamma"); !errors.Is(err, ErrUnitNotFound) {
		t.Errorf("Lookup(gamma) error = %v", err)
	}
}

func TestStoreListOrder(t *testing.T) {
	s := openTestStore(t)
	names := []string{"c", "a", "b"}
	for i, name := range names {
		if _, err := s.Put(image(name, int64(i))); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("List has %d entries", len(entries))
	}
	for i, e := range entries {
		if e.Name != names[i] {
			t.Errorf("entry %d = %s, want %s", i, e.Name, names[i])
		}
		if e.Size <= 0 || e.Created.IsZero() {
			t.Errorf("entry %d: size %d created %v", i, e.Size, e.Created)
		}
	}
}

func TestStoreDelete(t *testing.T) {
	s := openTestStore(t)
	hash, _ := s.Put(image("alpha", 1))
	if err := s.Delete(hash); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(hash); !errors.Is(err, ErrUnitNotFound) {
		t.Errorf("Get after Delete error = %v", err)
	}
	if err := s.Delete(hash); !errors.Is(err, ErrUnitNotFound) {
		t.Errorf("second Delete error = %v", err)
	}
}

func TestStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	hash, _ := s.Put(image("alpha", 1))
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path = %s", s.Path())
	}
	if _, err := s.Get(hash); err != nil {
		t.Errorf("unit lost across reopen: %v", err)
	}
}
