package core

import (
	"maps"
	"slices"
	"sync"
)

// EntityID identifies an entity within one registry. IDs are never reused.
type EntityID uint64

// Registry maps monotonic IDs to entities of one role.
type Registry[T any] struct {
	mu    sync.RWMutex
	last  EntityID
	items map[EntityID]T
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[EntityID]T)}
}

// Add assigns the next ID and stores the entity built for it.
func (r *Registry[T]) Add(build func(EntityID) T) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last++
	v := build(r.last)
	r.items[r.last] = v
	return v
}

func (r *Registry[T]) Get(id EntityID) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	return v, ok
}

// Remove deletes the entity and reports whether it was present.
func (r *Registry[T]) Remove(id EntityID) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	delete(r.items, id)
	return v, ok
}

func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Values returns a snapshot ordered by ID.
func (r *Registry[T]) Values() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.items))
	for _, id := range slices.Sorted(maps.Keys(r.items)) {
		out = append(out, r.items[id])
	}
	return out
}

// Clear removes every entity and returns what was held, ordered by ID.
// The ID counter is kept.
func (r *Registry[T]) Clear() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.items))
	for _, id := range slices.Sorted(maps.Keys(r.items)) {
		out = append(out, r.items[id])
	}
	clear(r.items)
	return out
}
