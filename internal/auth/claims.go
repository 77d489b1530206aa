package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// BuildClaims assembles a fresh claim payload for the account. Access claims
// embed the role name and its flattened permission set; refresh claims stay
// minimal so stale authorization can never be replayed through a refresh.
func BuildClaims(account *Account, role Role, typ TokenType, issuer string, now time.Time, ttl time.Duration) *Claims {
	now = now.UTC()
	claims := &Claims{
		TokenType: string(typ),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   account.PublicID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	if typ == TokenAccess {
		claims.Role = role.Name
		claims.Permissions = role.PermissionList()
	}
	return claims
}
