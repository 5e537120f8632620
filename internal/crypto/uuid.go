package crypto

import (
	"strings"

	"github.com/google/uuid"
)

// NewUUIDv7 generates a time-ordered UUID v7. Users and sessions use it so
// their IDs sort by creation time.
func NewUUIDv7() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// UnverifiedSessionID returns the session ID a token claims to carry
// without checking its signature. Only callers for which a forged ID is
// harmless, such as rate limit bucketing, may use it.
func UnverifiedSessionID(token string) (uuid.UUID, bool) {
	prefix, _, ok := strings.Cut(token, ".")
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(prefix)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
