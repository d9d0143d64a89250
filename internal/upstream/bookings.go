package upstream

import (
	"context"
	"net/http"
)

// BookingRequest is the body for POST /bookings on the marketplace API.
type BookingRequest struct {
	ProfessionalID string `json:"professionalId"`
	SessionID      string `json:"sessionId"`
	BookingType    string `json:"bookingType"`
	Notes          string `json:"notes,omitempty"`
}

// BookingConfirmation is the upstream acknowledgement of a booking.
type BookingConfirmation struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type bookingResponse struct {
	Success bool                `json:"success"`
	Booking BookingConfirmation `json:"booking"`
	Message string              `json:"message"`
}

// CreateBooking submits a booking request on behalf of the user. The user's
// bearer token is forwarded; any upstream rejection comes back as *Error with
// the display message.
func (c *Client) CreateBooking(ctx context.Context, bearer string, req BookingRequest) (*BookingConfirmation, error) {
	var resp bookingResponse
	if err := c.doJSON(ctx, http.MethodPost, "/bookings", bearer, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &Error{StatusCode: http.StatusOK, Message: resp.Message}
	}
	return &resp.Booking, nil
}
