package models

import (
	"strings"
	"time"
)

// Category classifies a session for display (label and icon on the card).
type Category string

const (
	CategoryOnline       Category = "online"
	CategoryGroup        Category = "group"
	CategoryIndividual   Category = "individual"
	CategoryWorkshop     Category = "workshop"
	CategoryConsultation Category = "consultation"
	// CategoryUnknown is the explicit default for values the upstream API
	// sends that we do not recognize.
	CategoryUnknown Category = "unknown"
)

// ParseCategory maps an upstream category string onto the closed enum.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryOnline:
		return CategoryOnline
	case CategoryGroup:
		return CategoryGroup
	case CategoryIndividual:
		return CategoryIndividual
	case CategoryWorkshop:
		return CategoryWorkshop
	case CategoryConsultation:
		return CategoryConsultation
	default:
		return CategoryUnknown
	}
}

// ConfirmationStatus is the professional's confirmation state for a session.
type ConfirmationStatus string

const (
	StatusApproved ConfirmationStatus = "approved"
	StatusPending  ConfirmationStatus = "pending"
	StatusRejected ConfirmationStatus = "rejected"
	StatusUnknown  ConfirmationStatus = "unknown"
)

// ParseConfirmationStatus maps an upstream status string onto the closed enum.
func ParseConfirmationStatus(s string) ConfirmationStatus {
	switch ConfirmationStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusApproved:
		return StatusApproved
	case StatusPending:
		return StatusPending
	case StatusRejected:
		return StatusRejected
	default:
		return StatusUnknown
	}
}

// Coordinates is a geographic point attached to an in-person session.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Professional is the summary of the service provider embedded in a session.
type Professional struct {
	ID           string  `json:"id"`
	BusinessName string  `json:"business_name"`
	Rating       float64 `json:"rating"`
}

// Session is the canonical session record. The upstream API sends sessions in
// several legacy shapes (price as number or object, coordinates structured or
// bracket-encoded inside the location string); normalization happens once in
// the upstream package and the rest of the service only ever sees this type.
type Session struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	StartTime       time.Time          `json:"start_time"`
	DurationMin     int                `json:"duration_min"`
	Price           float64            `json:"price"`
	Currency        string             `json:"currency,omitempty"`
	Category        Category           `json:"category"`
	Location        string             `json:"location,omitempty"`
	Coordinates     *Coordinates       `json:"coordinates,omitempty"`
	MaxParticipants int                `json:"max_participants"`
	Participants    int                `json:"participants"`
	Professional    Professional       `json:"professional"`
	Status          ConfirmationStatus `json:"status"`
	ImageURL        string             `json:"image_url,omitempty"`
}

// Availability returns the remaining capacity.
func (s Session) Availability() int {
	return s.MaxParticipants - s.Participants
}

// Eligible reports whether the session may be shown to clients: approved,
// starting in the future and with remaining capacity.
func (s Session) Eligible(now time.Time) bool {
	return s.Status == StatusApproved && s.StartTime.After(now) && s.Availability() > 0
}
