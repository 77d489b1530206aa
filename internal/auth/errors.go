package auth

import "errors"

// Service rejections. Handlers must map these to HTTP statuses; message text
// is never the signal.
var (
	ErrInvalidInput    = errors.New("auth: invalid input")
	ErrBadCredentials  = errors.New("auth: bad credentials")
	ErrSessionExpired  = errors.New("auth: session expired")
	ErrInvalidToken    = errors.New("auth: invalid token")
	ErrAccountNotFound = errors.New("auth: account not found")
	ErrAccountInactive = errors.New("auth: account inactive")
	ErrUnauthorized    = errors.New("auth: unauthorized")
)

// Codec-level failures. Decode is a pure function of (token, key, now);
// these report exactly why it said no.
var (
	ErrTokenMalformed   = errors.New("auth: token malformed")
	ErrTokenExpired     = errors.New("auth: token expired")
	ErrTokenNotYetValid = errors.New("auth: token not yet valid")
	ErrWrongTokenType   = errors.New("auth: wrong token type")
)
