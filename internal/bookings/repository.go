package bookings

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serene-wellness/backend/internal/models"
)

// Repository persists the local booking history.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a bookings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a booking record.
func (r *Repository) Create(ctx context.Context, b *models.Booking) error {
	const q = `INSERT INTO bookings (user_id, session_id, professional_id, booking_type, notes, session_title, session_start, price, status, upstream_ref, message)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, $7, $8, $9, NULLIF($10,''), NULLIF($11,''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q,
		b.UserID, b.SessionID, b.ProfessionalID, b.BookingType, b.Notes,
		b.SessionTitle, b.SessionStart, b.Price, string(b.Status), b.UpstreamRef, b.Message).
		Scan(&b.ID, &b.CreatedAt)
}

// ListByUser returns the user's booking history, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	const q = `SELECT id, user_id, session_id, professional_id, booking_type, COALESCE(notes,''),
		session_title, session_start, price, status, COALESCE(upstream_ref,''), COALESCE(message,''), created_at
		FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, userID)
}

// ListByProfessional returns bookings issued for a professional's sessions,
// newest first (the professional dashboard's client list).
func (r *Repository) ListByProfessional(ctx context.Context, professionalID string) ([]models.Booking, error) {
	const q = `SELECT id, user_id, session_id, professional_id, booking_type, COALESCE(notes,''),
		session_title, session_start, price, status, COALESCE(upstream_ref,''), COALESCE(message,''), created_at
		FROM bookings WHERE professional_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, professionalID)
}

func (r *Repository) list(ctx context.Context, q string, arg interface{}) ([]models.Booking, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Booking
	for rows.Next() {
		var b models.Booking
		var status string
		if err := rows.Scan(&b.ID, &b.UserID, &b.SessionID, &b.ProfessionalID, &b.BookingType, &b.Notes,
			&b.SessionTitle, &b.SessionStart, &b.Price, &status, &b.UpstreamRef, &b.Message, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Status = models.BookingStatus(status)
		list = append(list, b)
	}
	return list, rows.Err()
}
