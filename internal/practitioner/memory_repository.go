package practitioner

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []Practitioner
}

// NewInMemoryRepository creates an in-memory directory seeded with the given
// entries.
func NewInMemoryRepository(entries []Practitioner) *InMemoryRepository {
	r := &InMemoryRepository{}
	r.Replace(entries)
	return r
}

// List returns a copy of the directory in insertion order.
func (r *InMemoryRepository) List(_ context.Context) ([]Practitioner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Practitioner, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

// Replace swaps the directory contents. Test helper only; the production
// directory is external and read-only.
func (r *InMemoryRepository) Replace(entries []Practitioner) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make([]Practitioner, len(entries))
	copy(r.entries, entries)
}
