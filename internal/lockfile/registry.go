package lockfile

import (
	"fmt"
	"path/filepath"
	"sync"
)

// Registry hands out one Store per repository root. Sharing a single Store
// per root is what keeps mutating operations observing each other's writes;
// the application owns one Registry at top level.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[string]*Store),
	}
}

// ForRoot returns the store for a repository root, creating it on first use.
// The root is normalized (absolute, cleaned) before keying so multiple
// spellings of the same path share a store.
func (r *Registry) ForRoot(root string) (*Store, error) {
	norm, err := normalizeRoot(root)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[norm]; ok {
		return s, nil
	}

	s := NewStore(norm)
	r.stores[norm] = s
	return s, nil
}

// Evict drops the store for a root. Call this when the active repository
// changes; a retained handle for a stale root would serve stale reads.
func (r *Registry) Evict(root string) {
	norm, err := normalizeRoot(root)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, norm)
}

// Close drops every store handle.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores = make(map[string]*Store)
}

func normalizeRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("normalizing repository root %q: %w", root, err)
	}
	return filepath.Clean(abs), nil
}
