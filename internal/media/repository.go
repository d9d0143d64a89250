package media

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository maps session ids to stored image objects.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a media repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert stores or replaces the image object key for a session.
func (r *Repository) Upsert(ctx context.Context, sessionID, s3Key, contentType string, uploadedBy uuid.UUID) error {
	const q = `INSERT INTO session_images (session_id, s3_key, content_type, uploaded_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET s3_key = $2, content_type = $3, uploaded_by = $4`
	_, err := r.pool.Exec(ctx, q, sessionID, s3Key, contentType, uploadedBy)
	return err
}

// GetKey returns the stored object key for a session, or "" when none exists.
func (r *Repository) GetKey(ctx context.Context, sessionID string) (string, error) {
	const q = `SELECT s3_key FROM session_images WHERE session_id = $1`
	var key string
	if err := r.pool.QueryRow(ctx, q, sessionID).Scan(&key); err != nil {
		return "", err
	}
	return key, nil
}
