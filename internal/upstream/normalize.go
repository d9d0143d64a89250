package upstream

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/serene-wellness/backend/internal/models"
)

// sessionDTO is the upstream wire shape for a session. The API has grown
// several legacy encodings (price as number or object, coordinates structured
// or embedded in the location text, professional inline or by reference);
// each quirk is absorbed by a dedicated value type below.
type sessionDTO struct {
	ID              string            `json:"id"`
	MongoID         string            `json:"_id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	StartTime       string            `json:"startTime"`
	Duration        int               `json:"duration"`
	Price           priceValue        `json:"price"`
	Category        string            `json:"category"`
	Location        string            `json:"location"`
	Coordinates     *coordsValue      `json:"coordinates"`
	MaxParticipants int               `json:"maxParticipants"`
	Participants    []json.RawMessage `json:"participants"`
	Professional    professionalValue `json:"professional"`
	Status          string            `json:"confirmationStatus"`
}

// priceValue accepts a bare number or {amount, currency}. Anything else
// defaults to zero, matching the SPA's missing-price behavior.
type priceValue struct {
	Amount   float64
	Currency string
}

func (p *priceValue) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		p.Amount = n
		return nil
	}
	var obj struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		p.Amount = obj.Amount
		p.Currency = obj.Currency
	}
	return nil
}

// coordsValue accepts {lat, lng} or a [lat, lng] array.
type coordsValue struct {
	Lat float64
	Lng float64
	OK  bool
}

func (c *coordsValue) UnmarshalJSON(b []byte) error {
	var obj struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if err := json.Unmarshal(b, &obj); err == nil && (obj.Lat != 0 || obj.Lng != 0) {
		c.Lat, c.Lng, c.OK = obj.Lat, obj.Lng, true
		return nil
	}
	var arr []float64
	if err := json.Unmarshal(b, &arr); err == nil && len(arr) == 2 {
		c.Lat, c.Lng, c.OK = arr[0], arr[1], true
	}
	return nil
}

// professionalValue accepts an embedded professional summary or a bare id
// string reference.
type professionalValue struct {
	ID           string
	BusinessName string
	Rating       float64
}

func (p *professionalValue) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		p.ID = id
		return nil
	}
	var obj struct {
		ID           string  `json:"id"`
		MongoID      string  `json:"_id"`
		BusinessName string  `json:"businessName"`
		Rating       float64 `json:"rating"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		p.ID = obj.ID
		if p.ID == "" {
			p.ID = obj.MongoID
		}
		p.BusinessName = obj.BusinessName
		p.Rating = obj.Rating
	}
	return nil
}

// ParseLegacyCoordinates extracts a bracket-encoded "[lat,lng]" suffix from a
// location string. Returns the coordinates (nil when absent or malformed) and
// the location text with the bracket part stripped.
func ParseLegacyCoordinates(location string) (*models.Coordinates, string) {
	open := strings.LastIndex(location, "[")
	close := strings.LastIndex(location, "]")
	if open < 0 || close <= open {
		return nil, location
	}
	parts := strings.Split(location[open+1:close], ",")
	if len(parts) != 2 {
		return nil, location
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return nil, location
	}
	stripped := strings.TrimSpace(location[:open] + location[close+1:])
	return &models.Coordinates{Lat: lat, Lng: lng}, stripped
}

// normalize converts a wire session into the canonical model. Returns false
// when the record is unusable (no id or unparseable start time).
func normalize(dto sessionDTO) (models.Session, bool) {
	id := dto.ID
	if id == "" {
		id = dto.MongoID
	}
	if id == "" {
		return models.Session{}, false
	}
	start, err := time.Parse(time.RFC3339, dto.StartTime)
	if err != nil {
		return models.Session{}, false
	}

	s := models.Session{
		ID:              id,
		Title:           dto.Title,
		Description:     dto.Description,
		StartTime:       start,
		DurationMin:     dto.Duration,
		Price:           dto.Price.Amount,
		Currency:        dto.Price.Currency,
		Category:        models.ParseCategory(dto.Category),
		Location:        dto.Location,
		MaxParticipants: dto.MaxParticipants,
		Participants:    len(dto.Participants),
		Professional: models.Professional{
			ID:           dto.Professional.ID,
			BusinessName: dto.Professional.BusinessName,
			Rating:       dto.Professional.Rating,
		},
		Status: models.ParseConfirmationStatus(dto.Status),
	}

	if dto.Coordinates != nil && dto.Coordinates.OK {
		s.Coordinates = &models.Coordinates{Lat: dto.Coordinates.Lat, Lng: dto.Coordinates.Lng}
	} else if coords, stripped := ParseLegacyCoordinates(dto.Location); coords != nil {
		s.Coordinates = coords
		s.Location = stripped
	}
	// Online sessions carry no physical location.
	if s.Category == models.CategoryOnline {
		s.Location = ""
		s.Coordinates = nil
	}
	return s, true
}
