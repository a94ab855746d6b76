// Package model defines the data structures used throughout the application.
package model

import "time"

// User is the stored representation of an end user.
//
// GitHub OAuth is the identity provider, so the external identifier is
// GitHub's numeric user ID. We still generate our own internal string ID
// (xid) so primary keys are not tied to a third party's numbering scheme.
// The UNIQUE constraint on github_id ensures one GitHub account maps to
// exactly one user row.
//
// A user is created exactly once, on the first successful OAuth handshake
// for a given github_id. There is no profile-update or delete path: later
// handshakes for the same external identifier resolve to this record
// unchanged.
type User struct {
	ID        string    `json:"id"        db:"id"`
	GitHubID  int64     `json:"githubId"  db:"github_id"` // GitHub's numeric user ID
	Login     string    `json:"login"     db:"login"`     // GitHub username
	Email     string    `json:"email"     db:"email"`
	AvatarURL string    `json:"avatarUrl" db:"avatar_url"` // may be empty
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
