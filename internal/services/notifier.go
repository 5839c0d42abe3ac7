package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/quillpress/server/internal/mq"
	"github.com/quillpress/server/types"
)

// EventSource delivers published events to a handler. *mq.Broker
// satisfies it.
type EventSource interface {
	Consume(ctx context.Context, channel string, handler mq.EventHandler) error
}

// Notifier consumes blog activity events and surfaces them to the
// operator. It is the delivery half of the best-effort publishing done
// by CommentService and ContactService: inquiries and comments are
// logged in a form an on-call reader can act on.
type Notifier struct {
	source EventSource
	log    *slog.Logger
}

// NewNotifier constructs a Notifier over the given event source.
func NewNotifier(source EventSource, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{source: source, log: log}
}

// Run consumes both event channels until ctx is done or a channel fails.
func (n *Notifier) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	go func() {
		errs <- n.source.Consume(ctx, EventContactInquiry, n.HandleInquiry)
	}()
	go func() {
		errs <- n.source.Consume(ctx, EventPostComment, n.HandleComment)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errs:
		return err
	}
}

// HandleInquiry records a contact-form inquiry.
func (n *Notifier) HandleInquiry(ctx context.Context, ev mq.Event) error {
	var inquiry types.ContactInquiry
	if err := json.Unmarshal(ev.Payload, &inquiry); err != nil {
		return fmt.Errorf("decode inquiry event %s: %w", ev.ID, err)
	}

	n.log.InfoContext(ctx, "new contact inquiry",
		"inquiry_id", inquiry.ID,
		"from", inquiry.Name,
		"email", inquiry.Email,
		"phone", inquiry.Phone,
		"message", inquiry.Message,
	)
	return nil
}

// HandleComment records a new comment.
func (n *Notifier) HandleComment(ctx context.Context, ev mq.Event) error {
	var comment types.Comment
	if err := json.Unmarshal(ev.Payload, &comment); err != nil {
		return fmt.Errorf("decode comment event %s: %w", ev.ID, err)
	}

	n.log.InfoContext(ctx, "new comment",
		"comment_id", comment.ID,
		"post_id", comment.PostID,
		"author_id", comment.AuthorID,
	)
	return nil
}
