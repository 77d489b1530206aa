package resource

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory Store used by tests and DSN-less runs. It enforces
// the schema's unique fields and applies list filters against encoded
// records, mirroring what the Postgres store does with SQL.
type MemStore[T Entity] struct {
	schema *Schema[T]

	mu    sync.RWMutex
	items map[string]T
}

// NewMemStore builds an empty store for the schema's entity type.
func NewMemStore[T Entity](schema *Schema[T]) *MemStore[T] {
	return &MemStore[T]{
		schema: schema,
		items:  make(map[string]T),
	}
}

func (m *MemStore[T]) Insert(ctx context.Context, e T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkUnique(e, ""); err != nil {
		return err
	}
	m.items[e.ResourceMeta().PublicID] = e
	return nil
}

func (m *MemStore[T]) FindByPublicID(ctx context.Context, publicID string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[publicID]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return m.copyOf(e), nil
}

// copyOf hands out an independent copy so a failed patch never leaks partial
// writes into the store.
func (m *MemStore[T]) copyOf(e T) T {
	if m.schema.Copy != nil {
		return m.schema.Copy(e)
	}
	return e
}

func (m *MemStore[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []T
	for _, e := range m.items {
		if m.matches(e, filter) {
			out = append(out, m.copyOf(e))
		}
	}
	// Storage keys are monotonic, so this is insertion order.
	sort.Slice(out, func(i, j int) bool {
		return out[i].ResourceMeta().Key < out[j].ResourceMeta().Key
	})
	return out, nil
}

func (m *MemStore[T]) Update(ctx context.Context, e T, changed []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := e.ResourceMeta().PublicID
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	if err := m.checkUnique(e, id); err != nil {
		return err
	}
	m.items[id] = e
	return nil
}

func (m *MemStore[T]) Delete(ctx context.Context, e T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := e.ResourceMeta().PublicID
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// Len reports the number of stored entities.
func (m *MemStore[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *MemStore[T]) checkUnique(e T, selfID string) error {
	unique := m.schema.UniqueFields()
	if len(unique) == 0 && len(m.schema.UniqueSets) == 0 {
		return nil
	}
	rec := m.schema.Encode(e, nil)
	for _, other := range m.items {
		otherID := other.ResourceMeta().PublicID
		if otherID == selfID {
			continue
		}
		otherRec := m.schema.Encode(other, nil)
		for _, name := range unique {
			if rec[name] != nil && rec[name] == otherRec[name] {
				return &ConflictError{Field: name}
			}
		}
		for _, set := range m.schema.UniqueSets {
			all := len(set) > 0
			for _, name := range set {
				if rec[name] == nil || rec[name] != otherRec[name] {
					all = false
					break
				}
			}
			if all {
				return &ConflictError{
					Field:   set[len(set)-1],
					Message: "Already exists for this " + set[0] + ".",
				}
			}
		}
	}
	return nil
}

func (m *MemStore[T]) matches(e T, filter Filter) bool {
	if len(filter) == 0 {
		return true
	}
	rec := m.schema.Encode(e, nil)
	for key, want := range filter {
		got, ok := rec[key]
		if !ok {
			return false
		}
		switch v := got.(type) {
		case []string:
			found := false
			for _, item := range v {
				if item == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			if fmt.Sprint(v) != want {
				return false
			}
		}
	}
	return true
}
