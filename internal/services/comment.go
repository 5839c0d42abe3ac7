package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/quillpress/server/internal/store"
	"github.com/quillpress/server/types"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	ListByPost(ctx context.Context, postID int) ([]store.CommentRow, error)
	Create(ctx context.Context, comment types.Comment) (types.Comment, error)
}

// CommentService encapsulates comment use-cases.
type CommentService struct {
	repo   CommentRepository
	events EventPublisher
	log    *slog.Logger
}

// NewCommentService constructs a CommentService. events may be nil, in
// which case no notifications are published.
func NewCommentService(repo CommentRepository, events EventPublisher, log *slog.Logger) *CommentService {
	if log == nil {
		log = slog.Default()
	}
	return &CommentService{repo: repo, events: events, log: log}
}

// ListByPost returns the comments on a post, oldest first, with author
// names and gravatar avatar URLs filled in.
func (s *CommentService) ListByPost(ctx context.Context, postID int) ([]types.Comment, error) {
	rows, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	comments := make([]types.Comment, 0, len(rows))
	for _, row := range rows {
		comment := row.Comment
		comment.AvatarURL = AvatarURL(row.AuthorEmail)
		comments = append(comments, comment)
	}
	return comments, nil
}

// Create stores a comment and publishes a post.comment event.
func (s *CommentService) Create(ctx context.Context, comment types.Comment) (types.Comment, error) {
	created, err := s.repo.Create(ctx, comment)
	if err != nil {
		return types.Comment{}, err
	}

	s.publish(ctx, created)
	return created, nil
}

func (s *CommentService) publish(ctx context.Context, comment types.Comment) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(comment)
	if err != nil {
		return
	}
	attrs := map[string]string{"post_id": strconv.Itoa(comment.PostID)}
	if _, err := s.events.Publish(ctx, EventPostComment, data, attrs); err != nil {
		s.log.WarnContext(ctx, "failed to publish comment event", "error", err)
	}
}
