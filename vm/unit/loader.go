package unit

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/tliron/commonlog"

	"github.com/chazu/linkcore/vm"
	"github.com/chazu/linkcore/vm/link"
)

// ErrUnknownEntry reports an export naming a native entry the loader was
// not given.
var ErrUnknownEntry = errors.New("unknown native entry")

// Natives maps entry names, as written in images, to native code.
type Natives map[string]link.Entry

// Loader materialises images into code blocks. Constants are built through
// a vm.ConstantPool, never the heap. Loaded blocks are kept for the life of
// the loader, which is normally the life of the process.
//
// A Loader may be shared between goroutines.
type Loader struct {
	natives  Natives
	registry *link.Registry

	mu    sync.Mutex
	units map[string]*link.CodeBlock
	log   commonlog.Logger
}

// NewLoader creates a loader. If registry is not nil, each unit's exports
// are installed into it after a successful load.
func NewLoader(natives Natives, registry *link.Registry) *Loader {
	return &Loader{
		natives:  natives,
		registry: registry,
		units:    make(map[string]*link.CodeBlock),
		log:      commonlog.GetLogger("linkcore.unit"),
	}
}

// Load builds a code block from img. Malformed constant data means the
// compiler produced a broken unit; the load is refused as a whole.
// Loading a unit with the name of one already loaded replaces it and
// clears the old unit's link slots.
func (l *Loader) Load(img *Image) (*link.CodeBlock, error) {
	pool := vm.NewConstantPool()
	data := make([]vm.Value, len(img.Constants))
	for i, c := range img.Constants {
		v, err := materialize(pool, c)
		if err != nil {
			return nil, errors.Wrapf(err, "unit %s: constant %d", img.Name, i)
		}
		data[i] = v
	}

	cb := link.NewCodeBlock(img.Name, data, pool, link.NewLinkTable(img.Links...))
	for _, exp := range img.Exports {
		entry, ok := l.natives[exp.Entry]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownEntry, "unit %s: export %s uses %q", img.Name, exp.Name, exp.Entry)
		}
		cb.Define(exp.Name, exp.MinArgs, exp.MaxArgs, entry)
	}

	l.mu.Lock()
	old, replaced := l.units[img.Name]
	if replaced {
		old.Links().UnlinkAll()
		l.log.Infof("replacing unit %s", img.Name)
	}
	l.units[img.Name] = cb
	l.mu.Unlock()

	if l.registry != nil {
		if replaced {
			l.registry.RemoveUnit(old)
		}
		l.registry.InstallUnit(cb)
	}
	l.log.Debugf("loaded unit %s: %d constants, %d links, %d exports",
		img.Name, len(data), len(img.Links), len(img.Exports))
	return cb, nil
}

// LoadBytes decodes and loads an encoded image.
func (l *Loader) LoadBytes(data []byte, source string) (*link.CodeBlock, error) {
	img, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	cb, err := l.Load(img)
	if err != nil {
		return nil, err
	}
	cb.SetSource(source)
	return cb, nil
}

// LoadFile reads and loads an image file.
func (l *Loader) LoadFile(path string) (*link.CodeBlock, error) {
	img, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	cb, err := l.Load(img)
	if err != nil {
		return nil, err
	}
	cb.SetSource(path)
	return cb, nil
}

// Unit returns the loaded unit called name.
func (l *Loader) Unit(name string) (*link.CodeBlock, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cb, ok := l.units[name]
	return cb, ok
}

func materialize(pool *vm.ConstantPool, c Constant) (vm.Value, error) {
	switch c.Kind {
	case KindNil:
		return vm.Nil, nil
	case KindT:
		return vm.T, nil
	case KindFixnum:
		v, ok := vm.TryFixnum(c.Int)
		if !ok {
			return vm.Nil, errors.Wrapf(vm.ErrMalformedConstant, "fixnum %d out of range", c.Int)
		}
		return v, nil
	case KindCharacter:
		if c.Int < 0 || c.Int > vm.MaxCharCode {
			return vm.Nil, errors.Wrapf(vm.ErrMalformedConstant, "character code %d out of range", c.Int)
		}
		return vm.Character(rune(c.Int)), nil
	case KindText:
		return pool.Text(c.Text, c.Length)
	case KindSingleFloat:
		return pool.Single(c.Single), nil
	case KindDoubleFloat:
		return pool.Double(c.Double), nil
	}
	return vm.Nil, errors.Wrapf(vm.ErrMalformedConstant, "unknown constant kind %s", c.Kind)
}
