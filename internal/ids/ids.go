package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewKey returns a lexicographically sortable identifier suitable for storage keys.
// Keys never cross the API boundary; see NewPublic for externally visible ids.
func NewKey() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewPublic returns an opaque public identifier for a resource.
func NewPublic() string {
	return uuid.NewString()
}

// IsPublic reports whether s is a well-formed public identifier. A malformed
// id is a client error and must be kept distinct from an unknown one.
func IsPublic(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
