package auth

import (
	"context"
	"sync"
	"time"
)

// Denylist records spent refresh token ids until their natural expiry.
// Rotation and logout both write here; every refresh validation reads it, so
// in a multi-process deployment the implementation must be a shared store
// (the Postgres one), not process memory.
type Denylist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemDenylist is an in-process Denylist for tests and single-node runs.
type MemDenylist struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

// MemDenylistOption configures MemDenylist behavior.
type MemDenylistOption func(*MemDenylist)

// WithDenylistClock overrides the time source (useful for tests).
func WithDenylistClock(fn func() time.Time) MemDenylistOption {
	return func(d *MemDenylist) {
		if fn != nil {
			d.now = fn
		}
	}
}

// NewMemDenylist builds an empty denylist.
func NewMemDenylist(opts ...MemDenylistOption) *MemDenylist {
	d := &MemDenylist{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *MemDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[jti] = expiresAt
	return nil
}

func (d *MemDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expiresAt, ok := d.revoked[jti]
	if !ok {
		return false, nil
	}
	// Entries past their token's own expiry are dead weight; the token would
	// be rejected as expired anyway.
	if d.now().After(expiresAt) {
		delete(d.revoked, jti)
		return false, nil
	}
	return true, nil
}
