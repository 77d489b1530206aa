package auth

import (
	"errors"
	"testing"
	"time"
)

func testCodec(t *testing.T, now func() time.Time) *Codec {
	t.Helper()
	codec, err := NewCodec("campus-test", []byte("access-secret"), []byte("refresh-secret"),
		WithCodecClock(now))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func testAccount() *Account {
	a := &Account{
		Email:        "jane@example.org",
		PasswordHash: "x",
		Role:         "teacher",
		Active:       true,
	}
	a.PublicID = "6fa459ea-ee8a-3ca4-894e-db77e160355e"
	return a
}

func TestCodecRoundTrip(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(t, func() time.Time { return base })

	role := NewRole("teacher", PermGradeStudents, PermManageSessions)
	claims := BuildClaims(testAccount(), role, TokenAccess, "campus-test", base, 15*time.Minute)

	token, err := codec.Encode(claims)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := codec.Decode(token, TokenAccess)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Subject != claims.Subject {
		t.Fatalf("unexpected subject: %s", got.Subject)
	}
	if got.Role != "teacher" {
		t.Fatalf("unexpected role: %s", got.Role)
	}
	if len(got.Permissions) != 2 {
		t.Fatalf("unexpected permissions: %v", got.Permissions)
	}
	if got.ID == "" {
		t.Fatal("expected a jti")
	}
	if !got.ExpiresAt.Time.Equal(base.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry: %v", got.ExpiresAt.Time)
	}
}

func TestCodecRejectsWrongType(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(t, func() time.Time { return base })

	refresh := BuildClaims(testAccount(), Role{}, TokenRefresh, "campus-test", base, time.Hour)
	token, err := codec.Encode(refresh)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// The refresh secret differs, so the access-side verification fails at
	// the signature before the typ claim is even consulted.
	if _, err := codec.Decode(token, TokenAccess); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestCodecRejectsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(t, func() time.Time { return now })

	claims := BuildClaims(testAccount(), Role{}, TokenAccess, "campus-test", now, 15*time.Minute)
	token, err := codec.Encode(claims)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	now = now.Add(16 * time.Minute)
	if _, err := codec.Decode(token, TokenAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestCodecRejectsForeignIssuer(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(t, func() time.Time { return base })

	claims := BuildClaims(testAccount(), Role{}, TokenAccess, "somebody-else", base, time.Hour)
	token, err := codec.Encode(claims)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := codec.Decode(token, TokenAccess); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestCodecRejectsGarbage(t *testing.T) {
	codec := testCodec(t, time.Now)
	for _, tok := range []string{"", "   ", "not.a.token", "a.b"} {
		if _, err := codec.Decode(tok, TokenAccess); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("token %q: expected ErrTokenMalformed, got %v", tok, err)
		}
	}
}

func TestNewCodecRequiresDistinctSecrets(t *testing.T) {
	if _, err := NewCodec("campus", []byte("same"), []byte("same")); err == nil {
		t.Fatal("expected error for identical secrets")
	}
	if _, err := NewCodec("campus", nil, []byte("refresh")); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, err := NewCodec(" ", []byte("a"), []byte("b")); err == nil {
		t.Fatal("expected error for blank issuer")
	}
}
