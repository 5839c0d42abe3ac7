package services

import "context"

// Event channels published by the services below.
const (
	// EventPostComment carries a new-comment notification.
	EventPostComment = "post.comment"

	// EventContactInquiry carries a new contact-form inquiry.
	EventContactInquiry = "contact.inquiry"
)

// EventPublisher sends notification events to a broker. Publishing is
// best-effort everywhere it is used: a broker failure is logged and never
// fails the originating request.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}
