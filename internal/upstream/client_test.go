package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListScheduled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions", r.URL.Path)
		assert.Equal(t, "scheduled", r.URL.Query().Get("status"))
		assert.Equal(t, "startTime", r.URL.Query().Get("sortBy"))
		assert.Equal(t, "asc", r.URL.Query().Get("sortOrder"))
		assert.Equal(t, "2026-04-01T00:00:00Z", r.URL.Query().Get("startDate"))
		assert.Equal(t, "secret-key", r.Header.Get("X-Api-Key"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"sessions": []map[string]interface{}{
				{"id": "s1", "startTime": "2026-04-02T10:00:00Z", "price": 100},
				// malformed record, silently skipped
				{"startTime": "2026-04-02T10:00:00Z"},
				{"id": "s2", "startTime": "2026-04-03T10:00:00Z",
					"price": map[string]interface{}{"amount": 250, "currency": "ILS"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", 5*time.Second, nil)
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	sessions, err := c.ListScheduled(context.Background(), from)
	require.NoError(t, err)

	require.Len(t, sessions, 2)
	assert.Equal(t, "s1", sessions[0].ID)
	assert.Equal(t, 250.0, sessions[1].Price)
	assert.Equal(t, "ILS", sessions[1].Currency)
}

func TestListScheduledEnvelopeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "service window closed",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second, nil)
	_, err := c.ListScheduled(context.Background(), time.Now())
	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "service window closed", upErr.Message)
}

func TestMySessionsForwardsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/my-sessions", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"sessions": []map[string]interface{}{
				{"id": "s7", "startTime": "2026-04-02T10:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second, nil)
	sessions, err := c.MySessions(context.Background(), "user-token")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s7", sessions[0].ID)
}

func TestCreateBooking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bookings", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p1", body["professionalId"])
		assert.Equal(t, "s1", body["sessionId"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"booking": map[string]interface{}{"id": "bk-9", "status": "confirmed"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second, nil)
	conf, err := c.CreateBooking(context.Background(), "user-token", BookingRequest{
		ProfessionalID: "p1",
		SessionID:      "s1",
		BookingType:    "standard",
	})
	require.NoError(t, err)
	assert.Equal(t, "bk-9", conf.ID)
	assert.Equal(t, "confirmed", conf.Status)
}

func TestCreateBookingRejection(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"http error with message", http.StatusConflict, `{"message": "session is full"}`, "session is full"},
		{"http error with error field", http.StatusBadRequest, `{"error": "invalid session"}`, "invalid session"},
		{"envelope rejection", http.StatusOK, `{"success": false, "message": "already booked"}`, "already booked"},
		{"opaque server error", http.StatusInternalServerError, `boom`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "", 5*time.Second, nil)
			_, err := c.CreateBooking(context.Background(), "tok", BookingRequest{SessionID: "s1"})
			var upErr *Error
			require.True(t, errors.As(err, &upErr), "expected *Error, got %v", err)
			assert.Equal(t, tt.wantMsg, upErr.Message)
		})
	}
}
