package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/quillpress/server/types"
)

// ContactRepository defines persistence operations for contact inquiries.
// Inquiries are insert-only; they are read through the notifier's event
// stream, not queried back.
type ContactRepository interface {
	Create(ctx context.Context, inquiry types.ContactInquiry) (types.ContactInquiry, error)
}

// ContactService encapsulates contact-form use-cases.
type ContactService struct {
	repo   ContactRepository
	events EventPublisher
	log    *slog.Logger
}

// NewContactService constructs a ContactService. events may be nil, in
// which case no notifications are published.
func NewContactService(repo ContactRepository, events EventPublisher, log *slog.Logger) *ContactService {
	if log == nil {
		log = slog.Default()
	}
	return &ContactService{repo: repo, events: events, log: log}
}

// Create persists an inquiry and publishes a contact.inquiry event.
func (s *ContactService) Create(ctx context.Context, inquiry types.ContactInquiry) (types.ContactInquiry, error) {
	created, err := s.repo.Create(ctx, inquiry)
	if err != nil {
		return types.ContactInquiry{}, err
	}

	if s.events != nil {
		if data, err := json.Marshal(created); err == nil {
			if _, err := s.events.Publish(ctx, EventContactInquiry, data, nil); err != nil {
				s.log.WarnContext(ctx, "failed to publish contact event", "error", err)
			}
		}
	}

	return created, nil
}
