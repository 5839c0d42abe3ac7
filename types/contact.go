package types

import "time"

// ContactInquiry represents a message submitted through the contact form.
// Inquiries are insert-only; there is no update or delete path.
type ContactInquiry struct {
	// ID is the unique identifier of the inquiry.
	ID int `json:"id" db:"id"`

	// Name is the sender's name as entered in the form.
	Name string `json:"name" db:"name"`

	// Email is the sender's contact email.
	Email string `json:"email" db:"email"`

	// Phone is the sender's phone number, stored as entered.
	Phone string `json:"phone" db:"phone"`

	// Message is the inquiry text.
	Message string `json:"message" db:"message"`

	// CreatedAt is the timestamp when the inquiry was received.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
