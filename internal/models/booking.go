package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a booking issued through this service.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingRejected  BookingStatus = "rejected"
)

// Booking is the local record of a booking request issued upstream. The
// marketplace API owns the authoritative booking; this row powers booking
// history and the professional dashboard without re-fetching.
type Booking struct {
	ID             uuid.UUID     `json:"id"`
	UserID         uuid.UUID     `json:"user_id"`
	SessionID      string        `json:"session_id"`
	ProfessionalID string        `json:"professional_id"`
	BookingType    string        `json:"booking_type"`
	Notes          string        `json:"notes,omitempty"`
	SessionTitle   string        `json:"session_title"`
	SessionStart   time.Time     `json:"session_start"`
	Price          float64       `json:"price"`
	Status         BookingStatus `json:"status"`
	UpstreamRef    string        `json:"upstream_ref,omitempty"`
	Message        string        `json:"message,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
