package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus.org/internal/resource"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// AccountStore is the account lookup surface the session service needs.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByPublicID(ctx context.Context, publicID string) (*Account, error)
}

// RoleStore resolves role names to their permission sets.
type RoleStore interface {
	Find(ctx context.Context, name string) (Role, error)
}

// Service orchestrates the session lifecycle: login, refresh, check, logout.
// Refresh tokens rotate on every use; the spent jti is denylisted for its
// remaining lifetime, which is also how logout revokes a session early.
type Service struct {
	accounts   AccountStore
	roles      RoleStore
	denylist   Denylist
	codec      *Codec
	now        func() time.Time
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests). The codec keeps
// its own clock; tests inject the same function into both.
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the session service.
func NewService(accounts AccountStore, roles RoleStore, denylist Denylist, codec *Codec, opts ...ServiceOption) (*Service, error) {
	if accounts == nil || roles == nil || denylist == nil || codec == nil {
		return nil, errors.New("auth: accounts, roles, denylist and codec are all required")
	}
	s := &Service{
		accounts:   accounts,
		roles:      roles,
		denylist:   denylist,
		codec:      codec,
		now:        time.Now,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TokenPair carries freshly issued credentials.
type TokenPair struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Login verifies credentials and issues an access+refresh pair. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return TokenPair{}, ErrInvalidInput
	}
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return TokenPair{}, ErrBadCredentials
		}
		return TokenPair{}, fmt.Errorf("find account: %w", err)
	}
	if err := VerifyPassword(account.PasswordHash, password); err != nil {
		return TokenPair{}, ErrBadCredentials
	}
	if !account.Active {
		return TokenPair{}, ErrAccountInactive
	}
	return s.mint(ctx, account)
}

// Refresh validates a refresh token, rotates it and issues a new pair.
// Claims are re-derived from the account's current role, so a role change
// lands on the very next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken, TokenRefresh)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return TokenPair{}, ErrSessionExpired
		}
		return TokenPair{}, ErrInvalidToken
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("denylist lookup: %w", err)
	}
	if revoked {
		return TokenPair{}, ErrSessionExpired
	}
	account, err := s.accounts.FindByPublicID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return TokenPair{}, ErrAccountNotFound
		}
		return TokenPair{}, fmt.Errorf("find account: %w", err)
	}
	if !account.Active {
		return TokenPair{}, ErrAccountInactive
	}
	// Rotate: the presented token is spent whether or not minting succeeds.
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return TokenPair{}, fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.mint(ctx, account)
}

// Check validates an access token and returns its claims. It is stateless:
// no storage is touched beyond what the token itself carries.
func (s *Service) Check(ctx context.Context, accessToken string) (*Claims, error) {
	claims, err := s.codec.Decode(accessToken, TokenAccess)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Logout revokes the presented refresh token for its remaining lifetime.
// It is idempotent: an absent, expired or already-revoked token is not an
// error, the client just ends up logged out either way. Access tokens are
// not tracked and die by natural expiry.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	claims, err := s.codec.Decode(refreshToken, TokenRefresh)
	if err != nil {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *Service) mint(ctx context.Context, account *Account) (TokenPair, error) {
	role, err := s.roles.Find(ctx, account.Role)
	if err != nil {
		return TokenPair{}, fmt.Errorf("resolve role %q: %w", account.Role, err)
	}
	now := s.now().UTC()
	access := BuildClaims(account, role, TokenAccess, s.codec.issuer, now, s.accessTTL)
	refresh := BuildClaims(account, role, TokenRefresh, s.codec.issuer, now, s.refreshTTL)

	accessToken, err := s.codec.Encode(access)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := s.codec.Encode(refresh)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{
		Access:           accessToken,
		Refresh:          refreshToken,
		AccessExpiresAt:  access.ExpiresAt.Time,
		RefreshExpiresAt: refresh.ExpiresAt.Time,
	}, nil
}
