package model

import "time"

// Session is server-side identity state keyed by an opaque cookie value.
//
// The key is 32 bytes of crypto/rand output, hex encoded — it carries no
// information and is only meaningful as a lookup key. Expiry is fixed at
// establishment time (no sliding window); expired rows are rejected on
// restore and purged lazily.
type Session struct {
	Key       string    `json:"-" db:"key"`
	UserID    string    `json:"userId"    db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}

// Expired reports whether the session's fixed lifetime has passed.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
