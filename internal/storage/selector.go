package storage

import (
	"context"
	"sync"

	"vfs-go/internal/config"
	"vfs-go/internal/vfs"
)

// Selector resolves the configured backend once and hands out the same
// instance afterwards. This implementation is safe for concurrent use.
type Selector struct {
	mu      sync.Mutex
	backend vfs.StorageBackend
}

// Select returns the memoized backend, creating it from cfg on first use.
// A failed selection is not memoized.
func (s *Selector) Select(ctx context.Context, cfg config.StorageConfig) (vfs.StorageBackend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend != nil {
		return s.backend, nil
	}
	b, err := NewBackendFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.backend = b
	return b, nil
}

// Reset forgets the memoized backend.
func (s *Selector) Reset() {
	s.mu.Lock()
	s.backend = nil
	s.mu.Unlock()
}
