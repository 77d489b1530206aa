package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType tags a token as access or refresh. The two types are signed with
// distinct secrets, so one can never verify as the other even with the tag
// stripped.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims is the decoded token payload. Access tokens carry the role and the
// flattened permission list; refresh tokens carry only the subject, since
// authorization is re-derived from current state at refresh time.
type Claims struct {
	TokenType   string   `json:"typ"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs claims into compact token strings and verifies them back,
// using HS256 with a per-type secret.
type Codec struct {
	issuer     string
	accessKey  []byte
	refreshKey []byte
	now        func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithCodecClock overrides the verification time source (useful for tests).
func WithCodecClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec. Both secrets are required and must differ.
func NewCodec(issuer string, accessKey, refreshKey []byte, opts ...CodecOption) (*Codec, error) {
	if strings.TrimSpace(issuer) == "" {
		return nil, errors.New("auth: issuer is required")
	}
	if len(accessKey) == 0 || len(refreshKey) == 0 {
		return nil, errors.New("auth: both signing secrets are required")
	}
	if string(accessKey) == string(refreshKey) {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	c := &Codec{
		issuer:     issuer,
		accessKey:  accessKey,
		refreshKey: refreshKey,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) key(typ TokenType) []byte {
	if typ == TokenRefresh {
		return c.refreshKey
	}
	return c.accessKey
}

// Encode signs the claims with the secret matching their token type.
func (c *Codec) Encode(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.key(TokenType(claims.TokenType)))
}

// Decode verifies a token string against the secret for want and returns its
// claims. It never mutates state: the outcome depends only on the token, the
// key and the clock.
func (c *Codec) Decode(tokenString string, want TokenType) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrTokenMalformed
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenMalformed
		}
		return c.key(want), nil
	},
		jwt.WithTimeFunc(c.now),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrTokenMalformed
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.TokenType != string(want) {
		return nil, ErrWrongTokenType
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ID == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
