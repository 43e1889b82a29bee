// Package unitstore keeps compiled unit images in a SQLite database,
// addressed by the hash of their canonical encoding.
package unitstore

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/chazu/linkcore/vm/unit"

	_ "modernc.org/sqlite"
)

// ErrUnitNotFound indicates the requested unit is not in the store.
var ErrUnitNotFound = errors.New("unit not found")

// Entry describes a stored unit.
type Entry struct {
	Hash    string
	Name    string
	Size    int
	Created time.Time
}

// Store is a content-addressed unit cache.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating store directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "setting busy timeout")
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS units (
		hash TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		data BLOB NOT NULL,
		created INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating table")
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS units_name ON units (name, created)`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating index")
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Put stores an image and returns its hash. Storing the same image twice
// is a no-op.
func (s *Store) Put(img *unit.Image) (string, error) {
	data, err := unit.Marshal(img)
	if err != nil {
		return "", err
	}
	hash := unit.HashBytes(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO units (hash, name, data, created) VALUES (?, ?, ?, ?)`,
		hash, img.Name, data, time.Now().UnixNano(),
	)
	if err != nil {
		return "", errors.Wrapf(err, "storing unit %s", img.Name)
	}
	return hash, nil
}

// Get returns the image stored under hash.
func (s *Store) Get(hash string) (*unit.Image, error) {
	data, err := s.GetBytes(hash)
	if err != nil {
		return nil, err
	}
	return unit.Unmarshal(data)
}

// GetBytes returns the encoded image stored under hash.
func (s *Store) GetBytes(hash string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM units WHERE hash = ?`, hash).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrUnitNotFound, "hash %s", hash)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading unit %s", hash)
	}
	return data, nil
}

// Lookup returns the most recently stored image called name.
func (s *Store) Lookup(name string) (*unit.Image, string, error) {
	s.mu.Lock()
	var hash string
	var data []byte
	err := s.db.QueryRow(
		`SELECT hash, data FROM units WHERE name = ? ORDER BY created DESC, rowid DESC LIMIT 1`, name,
	).Scan(&hash, &data)
	s.mu.Unlock()
	if err == sql.ErrNoRows {
		return nil, "", errors.Wrapf(ErrUnitNotFound, "name %s", name)
	}
	if err != nil {
		return nil, "", errors.Wrapf(err, "looking up unit %s", name)
	}
	img, err := unit.Unmarshal(data)
	if err != nil {
		return nil, "", err
	}
	return img, hash, nil
}

// List returns all stored units, oldest first.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`SELECT hash, name, length(data), created FROM units ORDER BY created, rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "listing units")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.Hash, &e.Name, &e.Size, &created); err != nil {
			return nil, errors.Wrap(err, "scanning unit row")
		}
		e.Created = time.Unix(0, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the unit stored under hash.
func (s *Store) Delete(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM units WHERE hash = ?`, hash)
	if err != nil {
		return errors.Wrapf(err, "deleting unit %s", hash)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrUnitNotFound, "hash %s", hash)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
