package upstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serene-wellness/backend/internal/models"
)

func decodeSession(t *testing.T, raw string) (models.Session, bool) {
	t.Helper()
	var dto sessionDTO
	require.NoError(t, json.Unmarshal([]byte(raw), &dto))
	return normalize(dto)
}

func TestNormalizePriceShapes(t *testing.T) {
	tests := []struct {
		name         string
		price        string
		wantAmount   float64
		wantCurrency string
	}{
		{"bare number", `180`, 180, ""},
		{"amount object", `{"amount": 250.5, "currency": "ILS"}`, 250.5, "ILS"},
		{"malformed string defaults to zero", `"free"`, 0, ""},
		{"null defaults to zero", `null`, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := decodeSession(t, `{
				"id": "s1",
				"startTime": "2026-04-01T10:00:00Z",
				"price": `+tt.price+`
			}`)
			require.True(t, ok)
			assert.Equal(t, tt.wantAmount, s.Price)
			assert.Equal(t, tt.wantCurrency, s.Currency)
		})
	}
}

func TestNormalizeCoordinates(t *testing.T) {
	t.Run("structured object", func(t *testing.T) {
		s, ok := decodeSession(t, `{
			"id": "s1",
			"startTime": "2026-04-01T10:00:00Z",
			"location": "Dizengoff 99, Tel Aviv",
			"coordinates": {"lat": 32.08, "lng": 34.78}
		}`)
		require.True(t, ok)
		require.NotNil(t, s.Coordinates)
		assert.Equal(t, 32.08, s.Coordinates.Lat)
		assert.Equal(t, "Dizengoff 99, Tel Aviv", s.Location)
	})

	t.Run("legacy array", func(t *testing.T) {
		s, ok := decodeSession(t, `{
			"id": "s1",
			"startTime": "2026-04-01T10:00:00Z",
			"coordinates": [32.08, 34.78]
		}`)
		require.True(t, ok)
		require.NotNil(t, s.Coordinates)
		assert.Equal(t, 34.78, s.Coordinates.Lng)
	})

	t.Run("bracket suffix in location", func(t *testing.T) {
		s, ok := decodeSession(t, `{
			"id": "s1",
			"startTime": "2026-04-01T10:00:00Z",
			"location": "Rothschild 12, Tel Aviv [32.063, 34.775]"
		}`)
		require.True(t, ok)
		require.NotNil(t, s.Coordinates)
		assert.Equal(t, 32.063, s.Coordinates.Lat)
		assert.Equal(t, "Rothschild 12, Tel Aviv", s.Location)
	})
}

func TestParseLegacyCoordinates(t *testing.T) {
	tests := []struct {
		name      string
		location  string
		wantNil   bool
		wantLat   float64
		wantLng   float64
		wantClean string
	}{
		{"valid suffix", "Herzl 5, Haifa [32.82, 34.99]", false, 32.82, 34.99, "Herzl 5, Haifa"},
		{"no brackets", "Herzl 5, Haifa", true, 0, 0, "Herzl 5, Haifa"},
		{"non-numeric parts", "Room [A,B]", true, 0, 0, "Room [A,B]"},
		{"single value", "Pier [32.1]", true, 0, 0, "Pier [32.1]"},
		{"reversed brackets", "Odd ]3,4[ text", true, 0, 0, "Odd ]3,4[ text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coords, clean := ParseLegacyCoordinates(tt.location)
			assert.Equal(t, tt.wantClean, clean)
			if tt.wantNil {
				assert.Nil(t, coords)
				return
			}
			require.NotNil(t, coords)
			assert.Equal(t, tt.wantLat, coords.Lat)
			assert.Equal(t, tt.wantLng, coords.Lng)
		})
	}
}

func TestNormalizeDropsUnusableRecords(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		_, ok := decodeSession(t, `{"startTime": "2026-04-01T10:00:00Z"}`)
		assert.False(t, ok)
	})

	t.Run("unparseable start time", func(t *testing.T) {
		_, ok := decodeSession(t, `{"id": "s1", "startTime": "tomorrow-ish"}`)
		assert.False(t, ok)
	})

	t.Run("mongo id fallback", func(t *testing.T) {
		s, ok := decodeSession(t, `{"_id": "64ffe", "startTime": "2026-04-01T10:00:00Z"}`)
		require.True(t, ok)
		assert.Equal(t, "64ffe", s.ID)
	})
}

func TestNormalizeEnumsAndDefaults(t *testing.T) {
	s, ok := decodeSession(t, `{
		"id": "s1",
		"startTime": "2026-04-01T10:00:00Z",
		"category": "Sound Bath",
		"confirmationStatus": "AWAITING_REVIEW",
		"maxParticipants": 10,
		"participants": [{"userId": "u1"}, {"userId": "u2"}, {"userId": "u3"}]
	}`)
	require.True(t, ok)

	assert.Equal(t, models.CategoryUnknown, s.Category)
	assert.Equal(t, models.StatusUnknown, s.Status)
	assert.Equal(t, 3, s.Participants)
	assert.Equal(t, 7, s.Availability())
	assert.False(t, s.Eligible(s.StartTime.AddDate(0, 0, -1)), "unknown status must never be eligible")
}

func TestNormalizeOnlineClearsLocation(t *testing.T) {
	s, ok := decodeSession(t, `{
		"id": "s1",
		"startTime": "2026-04-01T10:00:00Z",
		"category": "online",
		"location": "Zoom [32.0, 34.0]",
		"coordinates": {"lat": 32.0, "lng": 34.0}
	}`)
	require.True(t, ok)
	assert.Empty(t, s.Location)
	assert.Nil(t, s.Coordinates)
}

func TestNormalizeProfessionalShapes(t *testing.T) {
	t.Run("embedded summary", func(t *testing.T) {
		s, ok := decodeSession(t, `{
			"id": "s1",
			"startTime": "2026-04-01T10:00:00Z",
			"professional": {"_id": "p9", "businessName": "Calm Clinic", "rating": 4.6}
		}`)
		require.True(t, ok)
		assert.Equal(t, "p9", s.Professional.ID)
		assert.Equal(t, "Calm Clinic", s.Professional.BusinessName)
		assert.Equal(t, 4.6, s.Professional.Rating)
	})

	t.Run("bare id reference", func(t *testing.T) {
		s, ok := decodeSession(t, `{
			"id": "s1",
			"startTime": "2026-04-01T10:00:00Z",
			"professional": "p42"
		}`)
		require.True(t, ok)
		assert.Equal(t, "p42", s.Professional.ID)
		assert.Empty(t, s.Professional.BusinessName)
	})
}
