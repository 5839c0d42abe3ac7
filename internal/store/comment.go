package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/quillpress/server/types"
)

// CommentRepository handles persistence for comments.
type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// CommentRow pairs a comment with its author's email. The email is used to
// derive the gravatar URL and is never returned to clients directly.
type CommentRow struct {
	Comment     types.Comment
	AuthorEmail string
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID int) ([]CommentRow, error) {
	const query = `
		SELECT c.id, c.post_id, c.author_id, u.name, u.email, c.body, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at, c.id`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []CommentRow
	for rows.Next() {
		var row CommentRow
		if err := rows.Scan(
			&row.Comment.ID,
			&row.Comment.PostID,
			&row.Comment.AuthorID,
			&row.Comment.AuthorName,
			&row.AuthorEmail,
			&row.Comment.Body,
			&row.Comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		comments = append(comments, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *CommentRepository) Create(ctx context.Context, comment types.Comment) (types.Comment, error) {
	comment.CreatedAt = time.Now()

	const query = `
		INSERT INTO comments (post_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		comment.PostID,
		comment.AuthorID,
		comment.Body,
		comment.CreatedAt,
	).Scan(&comment.ID); err != nil {
		return types.Comment{}, err
	}
	return comment, nil
}
