package types

import "time"

// Post represents a blog post.
// It carries a reference to its authoring user; the author's display
// name is joined on demand for read views.
type Post struct {
	// ID is the unique identifier of the post.
	ID int `json:"id" db:"id"`

	// AuthorID identifies the user who created the post.
	AuthorID int `json:"author_id" db:"author_id"`

	// AuthorName is the display name of the authoring user.
	// Populated by read queries; not a stored column of the post row.
	AuthorName string `json:"author_name,omitempty" db:"author_name"`

	// Title is the headline of the post. Unique across all posts.
	Title string `json:"title" db:"title"`

	// Subtitle is the secondary headline shown under the title.
	Subtitle string `json:"subtitle" db:"subtitle"`

	// Body is the full post content.
	Body string `json:"body" db:"body"`

	// ImageKey is the object-storage key of the post's header image.
	// Empty when no image has been uploaded.
	ImageKey string `json:"image_key,omitempty" db:"image_key"`

	// CreatedAt is the timestamp when the post was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the post.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Comment represents a reader comment on a post.
type Comment struct {
	// ID is the unique identifier of the comment.
	ID int `json:"id" db:"id"`

	// PostID identifies the post this comment belongs to.
	PostID int `json:"post_id" db:"post_id"`

	// AuthorID identifies the user who wrote the comment.
	AuthorID int `json:"author_id" db:"author_id"`

	// AuthorName is the display name of the commenting user.
	// Populated by read queries.
	AuthorName string `json:"author_name,omitempty" db:"author_name"`

	// AvatarURL is the gravatar URL derived from the commenting user's
	// email. Never contains the email itself.
	AvatarURL string `json:"avatar_url,omitempty" db:"avatar_url"`

	// Body is the comment text.
	Body string `json:"body" db:"body"`

	// CreatedAt is the timestamp when the comment was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
