package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Registry holds the set of known survey databases. It is built once at
// startup from the data directory and is immutable afterwards, so the gate
// and pipeline stay testable without a running service.
type Registry struct {
	dataDir string
	stores  map[string]*Store
	names   []string
	logger  *slog.Logger
}

// OpenRegistry scans dataDir for *.db files and opens a read-only pool for
// each. The registry does not pick up files added later.
func OpenRegistry(dataDir string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("data directory does not exist", "dir", dataDir)
			return &Registry{dataDir: dataDir, stores: map[string]*Store{}, logger: logger}, nil
		}
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	r := &Registry{
		dataDir: dataDir,
		stores:  make(map[string]*Store),
		logger:  logger,
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}

		name := entry.Name()
		path := filepath.Join(dataDir, name)

		// The file: URI form is required for mode=ro to take effect
		db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("failed to open database %s: %w", name, err)
		}

		r.stores[name] = &Store{name: name, db: db, logger: logger}
		r.names = append(r.names, name)
		logger.Info("registered database", "name", name)
	}

	sort.Strings(r.names)
	return r, nil
}

// List returns the registered database names, sorted.
func (r *Registry) List() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Lookup returns the store for a database name.
func (r *Registry) Lookup(name string) (*Store, bool) {
	s, ok := r.stores[name]
	return s, ok
}

// Close closes all pooled connections.
func (r *Registry) Close() error {
	var firstErr error
	for _, s := range r.stores {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewStore wires a Store around an existing handle. Useful for tests with
// sqlmock or in-memory databases.
func NewStore(name string, db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{name: name, db: db, logger: logger}
}

// NewRegistry builds a registry from pre-opened stores. Useful for tests.
func NewRegistry(logger *slog.Logger, stores ...*Store) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{stores: make(map[string]*Store), logger: logger}
	for _, s := range stores {
		r.stores[s.name] = s
		r.names = append(r.names, s.name)
	}
	sort.Strings(r.names)
	return r
}
