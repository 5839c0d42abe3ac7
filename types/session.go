package types

import "time"

// Session represents a live association between a client-presented token
// and a user. The client never sees the session ID directly; it carries a
// signed token whose subject is the ID. Deleting the row invalidates the
// token regardless of its signature or expiry.
type Session struct {
	// ID is the unguessable identifier of the session (a random UUID).
	ID string `json:"id" db:"id"`

	// UserID identifies the user the session is bound to.
	UserID int `json:"user_id" db:"user_id"`

	// CreatedAt is the timestamp when the session was established.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// ExpiresAt is the timestamp after which the session no longer resolves.
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}
