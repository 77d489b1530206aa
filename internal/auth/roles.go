package auth

import (
	"context"
	"sync"

	"campus.org/internal/resource"
)

// MemRoles is an in-memory RoleStore for tests and DSN-less runs.
type MemRoles struct {
	mu    sync.RWMutex
	roles map[string]Role
}

// NewMemRoles seeds a role store; pass BuiltinRoles for the stock setup.
func NewMemRoles(roles ...Role) *MemRoles {
	m := &MemRoles{roles: make(map[string]Role, len(roles))}
	for _, r := range roles {
		m.roles[r.Name] = r
	}
	return m
}

func (m *MemRoles) Find(ctx context.Context, name string) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	role, ok := m.roles[name]
	if !ok {
		return Role{}, resource.ErrNotFound
	}
	return role, nil
}

// Upsert inserts or replaces a role definition.
func (m *MemRoles) Upsert(ctx context.Context, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[role.Name] = role
	return nil
}

// Names lists the known role names; used to validate account inputs.
func (m *MemRoles) Names(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.roles))
	for name := range m.roles {
		out = append(out, name)
	}
	return out, nil
}
