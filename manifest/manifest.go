// Package manifest handles linkcore.toml runtime configuration.
package manifest

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// FileName is the name of the configuration file.
const FileName = "linkcore.toml"

// Defaults
const (
	DefaultMaxDepth   = 4096
	DefaultSafetyArea = 64
	DefaultStorePath  = ".linkcore/units.db"
)

// Manifest represents a linkcore.toml configuration.
type Manifest struct {
	Runtime Runtime `toml:"runtime" json:"runtime"`
	Log     Log     `toml:"log" json:"log"`
	Store   Store   `toml:"store" json:"store"`

	// Dir is the directory containing the linkcore.toml file (set at load time).
	Dir string `toml:"-" json:"-"`

	// safetyDefaulted is set when SafetyArea was derived from MaxDepth.
	safetyDefaulted bool
}

// Runtime configures execution contexts.
type Runtime struct {
	MaxDepth   int `toml:"max-depth" json:"maxDepth"`
	SafetyArea int `toml:"safety-area" json:"safetyArea"`
}

// Log configures logging. Verbosity -1 silences logging, 0 logs notices
// and above, higher values log more.
type Log struct {
	Verbosity int    `toml:"verbosity" json:"verbosity"`
	File      string `toml:"file" json:"file"`
}

// Store configures the unit store.
type Store struct {
	Path string `toml:"path" json:"path"`
}

// Default returns the configuration used when no file is found.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

// Load parses a linkcore.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, errors.Wrapf(err, "parse error in %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("%s: unknown key %s", path, undecoded[0])
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot resolve path %s", dir)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", path)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a linkcore.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) applyDefaults() {
	if m.Runtime.MaxDepth == 0 {
		m.Runtime.MaxDepth = DefaultMaxDepth
	}
	if m.Runtime.SafetyArea == 0 || m.safetyDefaulted {
		m.Runtime.SafetyArea = defaultSafetyArea(m.Runtime.MaxDepth)
		m.safetyDefaulted = true
	}
	if m.Store.Path == "" {
		m.Store.Path = DefaultStorePath
	}
}

// defaultSafetyArea keeps the implicit safety area below the limit.
func defaultSafetyArea(maxDepth int) int {
	return max(0, min(DefaultSafetyArea, maxDepth-1))
}

// SetMaxDepth overrides the depth limit. A safety area that was not set
// explicitly follows the new limit.
func (m *Manifest) SetMaxDepth(n int) {
	m.Runtime.MaxDepth = n
	m.applyDefaults()
}

// StorePath returns the unit store path, resolved against Dir.
func (m *Manifest) StorePath() string {
	if filepath.IsAbs(m.Store.Path) || m.Dir == "" {
		return m.Store.Path
	}
	return filepath.Join(m.Dir, m.Store.Path)
}

// LogFile returns the log file path resolved against Dir, or nil for
// standard error.
func (m *Manifest) LogFile() *string {
	if m.Log.File == "" {
		return nil
	}
	path := m.Log.File
	if !filepath.IsAbs(path) && m.Dir != "" {
		path = filepath.Join(m.Dir, path)
	}
	return &path
}
