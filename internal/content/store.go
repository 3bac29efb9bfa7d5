package content

import (
	"context"
	"io/fs"
	"sync"
	"sync/atomic"
)

// ReloadFunc observes the outcome of every Store.Reload.
type ReloadFunc func(catalog *Catalog, err error)

// Store serves the current catalog and swaps it on successful reloads.
// Readers never block on a reload in progress.
type Store struct {
	fsys    fs.FS
	current atomic.Pointer[Catalog]

	mu       sync.Mutex
	onReload []ReloadFunc
}

// NewStore returns a store over fsys holding an empty catalog until the
// first Reload.
func NewStore(fsys fs.FS) *Store {
	s := &Store{fsys: fsys}
	s.current.Store(&Catalog{})
	return s
}

// Catalog returns the current snapshot. It is never nil.
func (s *Store) Catalog() *Catalog {
	return s.current.Load()
}

// Loaded reports whether a reload has succeeded at least once.
func (s *Store) Loaded() bool {
	return !s.current.Load().LoadedAt.IsZero()
}

// OnReload registers fn to run after each reload attempt.
func (s *Store) OnReload(fn ReloadFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = append(s.onReload, fn)
}

// Reload loads the content tree again. The current catalog is kept when the
// new tree does not load.
func (s *Store) Reload(ctx context.Context) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := Load(ctx, s.fsys)
	if err == nil {
		s.current.Store(catalog)
	}
	for _, fn := range s.onReload {
		fn(catalog, err)
	}
	if err != nil {
		return nil, err
	}
	return catalog, nil
}
