package types

import "time"

// User represents a registered account in the system.
// It contains identity and audit metadata.
type User struct {
	// ID is the unique identifier of the user. It is assigned at
	// registration and never reused.
	ID int `json:"id" db:"id"`

	// Email is the user's email address and login key. Unique across
	// all users, compared exactly (no case folding).
	Email string `json:"email" db:"email"`

	// Name is the user's display name. No uniqueness constraint.
	Name string `json:"name" db:"name"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
