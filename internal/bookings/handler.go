package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/serene-wellness/backend/internal/catalog"
	"github.com/serene-wellness/backend/internal/middleware"
	"github.com/serene-wellness/backend/internal/models"
	"github.com/serene-wellness/backend/internal/upstream"
	"github.com/serene-wellness/backend/pkg/queue"
	"github.com/serene-wellness/backend/pkg/response"
)

// Issuer submits bookings to the marketplace API (or a test double).
type Issuer interface {
	CreateBooking(ctx context.Context, bearer string, req upstream.BookingRequest) (*upstream.BookingConfirmation, error)
}

// Notifier enqueues user notifications.
type Notifier interface {
	EnqueueNotify(ctx context.Context, payload queue.NotifyPayload) error
}

// Store persists booking history. Implemented by Repository.
type Store interface {
	Create(ctx context.Context, b *models.Booking) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	ListByProfessional(ctx context.Context, professionalID string) ([]models.Booking, error)
}

// CreateRequest is the body for POST /bookings.
type CreateRequest struct {
	SessionID   string `json:"session_id" binding:"required"`
	BookingType string `json:"booking_type"`
	Notes       string `json:"notes"`
}

// Handler handles booking HTTP endpoints.
type Handler struct {
	repo     Store
	catalog  *catalog.Service
	issuer   Issuer
	notifier Notifier
	logger   *zap.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(repo Store, cat *catalog.Service, issuer Issuer, notifier Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, catalog: cat, issuer: issuer, notifier: notifier, logger: logger}
}

// Create handles POST /bookings: precheck capacity, submit upstream, record
// locally and refresh the catalog so the new booking drops out of discovery.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	bearer := c.GetString(middleware.ContextBearer)
	ctx := c.Request.Context()

	// Capacity precheck is UX only; the marketplace API is authoritative.
	session, found := h.findSession(ctx, req.SessionID)
	if !found {
		response.NotFound(c, "session not found or no longer available")
		return
	}
	if session.Availability() <= 0 {
		response.Conflict(c, "session is fully booked")
		return
	}

	bookingType := req.BookingType
	if bookingType == "" {
		bookingType = "standard"
	}
	conf, err := h.issuer.CreateBooking(ctx, bearer, upstream.BookingRequest{
		ProfessionalID: session.Professional.ID,
		SessionID:      session.ID,
		BookingType:    bookingType,
		Notes:          req.Notes,
	})
	if err != nil {
		h.notifyFailure(ctx, userID, session, err)
		var upErr *upstream.Error
		if errors.As(err, &upErr) && upErr.Message != "" {
			response.BadGateway(c, upErr.Message)
			return
		}
		response.BadGateway(c, "booking service is temporarily unavailable")
		return
	}

	booking := &models.Booking{
		UserID:         userID,
		SessionID:      session.ID,
		ProfessionalID: session.Professional.ID,
		BookingType:    bookingType,
		Notes:          req.Notes,
		SessionTitle:   session.Title,
		SessionStart:   session.StartTime,
		Price:          session.Price,
		Status:         models.BookingConfirmed,
		UpstreamRef:    conf.ID,
	}
	if err := h.repo.Create(ctx, booking); err != nil {
		// The upstream booking succeeded; losing the local history row must
		// not fail the request.
		h.logger.Error("record booking failed", zap.Error(err), zap.String("session_id", session.ID))
	}

	h.catalog.Invalidate(ctx)
	if _, err := h.catalog.Refresh(ctx); err != nil {
		h.logger.Warn("post-booking catalog refresh failed", zap.Error(err))
	}
	h.notifySuccess(ctx, userID, session)

	response.Created(c, booking)
}

// ListMine handles GET /bookings: the user's booking history.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load bookings")
		return
	}
	if list == nil {
		list = []models.Booking{}
	}
	response.OK(c, list)
}

// ListForProfessional handles GET /professional/bookings: bookings for the
// professional's own sessions.
func (h *Handler) ListForProfessional(c *gin.Context) {
	professionalID := c.Query("professional_id")
	if professionalID == "" {
		response.BadRequest(c, "professional_id required")
		return
	}
	list, err := h.repo.ListByProfessional(c.Request.Context(), professionalID)
	if err != nil {
		response.Internal(c, "failed to load bookings")
		return
	}
	if list == nil {
		list = []models.Booking{}
	}
	response.OK(c, list)
}

func (h *Handler) findSession(ctx context.Context, sessionID string) (models.Session, bool) {
	sessions, err := h.catalog.Eligible(ctx)
	if err != nil {
		h.logger.Warn("catalog read for precheck failed", zap.Error(err))
		return models.Session{}, false
	}
	for _, s := range sessions {
		if s.ID == sessionID {
			return s, true
		}
	}
	return models.Session{}, false
}

func (h *Handler) notifySuccess(ctx context.Context, userID uuid.UUID, s models.Session) {
	if h.notifier == nil {
		return
	}
	data, _ := json.Marshal(gin.H{"session_id": s.ID})
	err := h.notifier.EnqueueNotify(ctx, queue.NotifyPayload{
		UserID: userID,
		Kind:   string(models.NotificationBookingConfirmed),
		Title:  "Booking confirmed",
		Body:   fmt.Sprintf("You are booked for %q on %s.", s.Title, s.StartTime.Format("Jan 2, 15:04")),
		Data:   data,
	})
	if err != nil {
		h.logger.Warn("enqueue booking notification failed", zap.Error(err))
	}
}

func (h *Handler) notifyFailure(ctx context.Context, userID uuid.UUID, s models.Session, cause error) {
	if h.notifier == nil {
		return
	}
	var upErr *upstream.Error
	body := "The booking could not be completed. Please try again."
	if errors.As(cause, &upErr) && upErr.Message != "" {
		body = upErr.Message
	}
	data, _ := json.Marshal(gin.H{"session_id": s.ID})
	err := h.notifier.EnqueueNotify(ctx, queue.NotifyPayload{
		UserID: userID,
		Kind:   string(models.NotificationBookingFailed),
		Title:  "Booking failed",
		Body:   body,
		Data:   data,
	})
	if err != nil {
		h.logger.Warn("enqueue booking notification failed", zap.Error(err))
	}
}
