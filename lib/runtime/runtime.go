// Package runtime wires the linkage layer together: global functions, the
// unit loader, the unit store and execution contexts.
package runtime

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/tliron/commonlog"

	"github.com/chazu/linkcore/manifest"
	"github.com/chazu/linkcore/vm"
	"github.com/chazu/linkcore/vm/link"
	"github.com/chazu/linkcore/vm/prims"
	"github.com/chazu/linkcore/vm/unit"
	"github.com/chazu/linkcore/vm/unitstore"
)

// Runtime is the main entry point for embedding the linkage layer.
type Runtime struct {
	Registry *link.Registry
	Loader   *unit.Loader
	Store    *unitstore.Store // nil when NoStore is set
	Heap     *vm.Heap

	cfg *Config
	log commonlog.Logger
	mu  sync.Mutex
}

// Config holds runtime configuration
type Config struct {
	MaxDepth   int    // control stack limit per context
	SafetyArea int    // extra depth granted after an overflow
	StorePath  string // unit store database
	NoStore    bool   // run without a unit store
}

// DefaultConfig returns a configuration with default values.
// LINKCORE_STORE overrides the store path.
func DefaultConfig() *Config {
	storePath := os.Getenv("LINKCORE_STORE")
	if storePath == "" {
		storePath = manifest.DefaultStorePath
	}
	return &Config{
		MaxDepth:   link.DefaultMaxDepth,
		SafetyArea: link.DefaultSafetyArea,
		StorePath:  storePath,
	}
}

// ConfigFromManifest derives a configuration from a loaded manifest.
func ConfigFromManifest(m *manifest.Manifest) *Config {
	return &Config{
		MaxDepth:   m.Runtime.MaxDepth,
		SafetyArea: safetyArea(m.Runtime.SafetyArea),
		StorePath:  m.StorePath(),
	}
}

// safetyArea maps a manifest safety area to a context one, where zero
// would mean the default.
func safetyArea(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

// New creates a runtime with the built-in functions installed.
func New(cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	r := &Runtime{
		Registry: link.NewRegistry(),
		Heap:     vm.NewHeap(),
		cfg:      cfg,
		log:      commonlog.GetLogger("linkcore.runtime"),
	}
	prims.Register(r.Registry)
	r.Loader = unit.NewLoader(prims.Natives(), r.Registry)

	if !cfg.NoStore {
		store, err := unitstore.Open(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		r.Store = store
	}
	return r, nil
}

// Close shuts down the runtime
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Store != nil {
		err := r.Store.Close()
		r.Store = nil
		return err
	}
	return nil
}

// NewContext creates an execution context using the runtime's limits,
// registry and heap. Each goroutine running compiled code needs its own.
func (r *Runtime) NewContext() *link.Context {
	return link.NewContext(link.Options{
		MaxDepth:   r.cfg.MaxDepth,
		SafetyArea: r.cfg.SafetyArea,
		Resolver:   r.Registry,
		Heap:       r.Heap,
	})
}

// LoadFile loads a unit image file and, if the runtime has a store,
// records it there. Images the loader refuses are not stored.
func (r *Runtime) LoadFile(path string) (*link.CodeBlock, error) {
	img, err := unit.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cb, err := r.Loader.Load(img)
	if err != nil {
		return nil, err
	}
	cb.SetSource(path)
	if r.Store != nil {
		hash, err := r.Store.Put(img)
		if err != nil {
			return nil, err
		}
		r.log.Debugf("stored %s as %s", img.Name, hash)
	}
	return cb, nil
}

// LoadStored loads a unit from the store by hash.
func (r *Runtime) LoadStored(hash string) (*link.CodeBlock, error) {
	if r.Store == nil {
		return nil, errors.New("runtime has no unit store")
	}
	data, err := r.Store.GetBytes(hash)
	if err != nil {
		return nil, err
	}
	return r.Loader.LoadBytes(data, "store:"+hash)
}

// Call runs function name, as seen from unit cb, on a fresh context. A nil
// cb resolves name among the global functions only. A stack overflow comes
// back as a *link.StackOverflowError.
func (r *Runtime) Call(cb *link.CodeBlock, name string, args ...vm.Value) (link.Values, error) {
	ctx := r.NewContext()
	var ref *link.LinkRef
	if cb != nil {
		ref, _ = cb.Links().Lookup(name)
	}
	if ref == nil {
		ref = link.NewLinkTable(name).Ref(0)
	}
	var results link.Values
	err := link.Checkpoint(func() error {
		var err error
		results, err = ctx.Call(ref, cb, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
