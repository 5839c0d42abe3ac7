package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/quillpress/server/types"
)

// ContactRepository handles persistence for contact-form inquiries.
type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, inquiry types.ContactInquiry) (types.ContactInquiry, error) {
	inquiry.CreatedAt = time.Now()

	const query = `
		INSERT INTO contact_inquiries (name, email, phone, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		inquiry.Name,
		inquiry.Email,
		inquiry.Phone,
		inquiry.Message,
		inquiry.CreatedAt,
	).Scan(&inquiry.ID); err != nil {
		return types.ContactInquiry{}, err
	}
	return inquiry, nil
}
