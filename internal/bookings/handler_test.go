package bookings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serene-wellness/backend/internal/catalog"
	"github.com/serene-wellness/backend/internal/middleware"
	"github.com/serene-wellness/backend/internal/models"
	"github.com/serene-wellness/backend/internal/upstream"
	"github.com/serene-wellness/backend/pkg/clock"
	"github.com/serene-wellness/backend/pkg/queue"
)

type stubSource struct {
	sessions []models.Session
}

func (s *stubSource) ListScheduled(ctx context.Context, from time.Time) ([]models.Session, error) {
	return s.sessions, nil
}

func (s *stubSource) MySessions(ctx context.Context, bearer string) ([]models.Session, error) {
	return nil, nil
}

type fakeStore struct {
	created []models.Booking
}

func (f *fakeStore) Create(ctx context.Context, b *models.Booking) error {
	f.created = append(f.created, *b)
	return nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	return f.created, nil
}

func (f *fakeStore) ListByProfessional(ctx context.Context, professionalID string) ([]models.Booking, error) {
	return f.created, nil
}

type fakeIssuer struct {
	got  upstream.BookingRequest
	conf *upstream.BookingConfirmation
	err  error
}

func (f *fakeIssuer) CreateBooking(ctx context.Context, bearer string, req upstream.BookingRequest) (*upstream.BookingConfirmation, error) {
	f.got = req
	return f.conf, f.err
}

type fakeNotifier struct {
	payloads []queue.NotifyPayload
}

func (f *fakeNotifier) EnqueueNotify(ctx context.Context, payload queue.NotifyPayload) error {
	f.payloads = append(f.payloads, payload)
	return nil
}

var testNow = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

func eligibleSession(id string, availability int) models.Session {
	return models.Session{
		ID:              id,
		Title:           "Evening Meditation",
		StartTime:       testNow.Add(48 * time.Hour),
		Price:           90,
		Status:          models.StatusApproved,
		MaxParticipants: 10,
		Participants:    10 - availability,
		Professional:    models.Professional{ID: "p1"},
	}
}

func newTestRouter(h *Handler, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextBearer, "user-token")
	})
	router.POST("/bookings", h.Create)
	router.GET("/bookings", h.ListMine)
	return router
}

func postBooking(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateBooking(t *testing.T) {
	src := &stubSource{sessions: []models.Session{eligibleSession("s1", 3)}}
	svc := catalog.NewService(src, nil, clock.NewFake(testNow), time.Minute, nil)
	store := &fakeStore{}
	issuer := &fakeIssuer{conf: &upstream.BookingConfirmation{ID: "bk-1", Status: "confirmed"}}
	notifier := &fakeNotifier{}
	userID := uuid.New()

	h := NewHandler(store, svc, issuer, notifier, nil)
	rec := postBooking(newTestRouter(h, userID), `{"session_id": "s1", "notes": "first visit"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "s1", issuer.got.SessionID)
	assert.Equal(t, "p1", issuer.got.ProfessionalID)
	assert.Equal(t, "standard", issuer.got.BookingType)
	assert.Equal(t, "first visit", issuer.got.Notes)

	require.Len(t, store.created, 1)
	b := store.created[0]
	assert.Equal(t, userID, b.UserID)
	assert.Equal(t, "bk-1", b.UpstreamRef)
	assert.Equal(t, models.BookingConfirmed, b.Status)
	assert.Equal(t, 90.0, b.Price)

	require.Len(t, notifier.payloads, 1)
	assert.Equal(t, string(models.NotificationBookingConfirmed), notifier.payloads[0].Kind)
}

func TestCreateBookingUnknownSession(t *testing.T) {
	src := &stubSource{sessions: []models.Session{eligibleSession("s1", 3)}}
	svc := catalog.NewService(src, nil, clock.NewFake(testNow), time.Minute, nil)
	h := NewHandler(&fakeStore{}, svc, &fakeIssuer{}, nil, nil)

	rec := postBooking(newTestRouter(h, uuid.New()), `{"session_id": "ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBookingUpstreamRejection(t *testing.T) {
	src := &stubSource{sessions: []models.Session{eligibleSession("s1", 3)}}
	svc := catalog.NewService(src, nil, clock.NewFake(testNow), time.Minute, nil)
	store := &fakeStore{}
	issuer := &fakeIssuer{err: &upstream.Error{StatusCode: 409, Message: "slot no longer available"}}
	notifier := &fakeNotifier{}

	h := NewHandler(store, svc, issuer, notifier, nil)
	rec := postBooking(newTestRouter(h, uuid.New()), `{"session_id": "s1"}`)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var env struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "slot no longer available", env.Error)

	assert.Empty(t, store.created, "a rejected booking must not be recorded")
	require.Len(t, notifier.payloads, 1)
	assert.Equal(t, string(models.NotificationBookingFailed), notifier.payloads[0].Kind)
	assert.Equal(t, "slot no longer available", notifier.payloads[0].Body)
}

func TestCreateBookingFullSession(t *testing.T) {
	// A session that fills up drops out of the eligible list on the next
	// refresh, so booking it reads as not found rather than conflict.
	full := eligibleSession("s1", 0)
	src := &stubSource{sessions: []models.Session{full}}
	svc := catalog.NewService(src, nil, clock.NewFake(testNow), time.Minute, nil)

	h := NewHandler(&fakeStore{}, svc, &fakeIssuer{}, nil, nil)
	rec := postBooking(newTestRouter(h, uuid.New()), `{"session_id": "s1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBookingValidation(t *testing.T) {
	src := &stubSource{}
	svc := catalog.NewService(src, nil, clock.NewFake(testNow), time.Minute, nil)
	h := NewHandler(&fakeStore{}, svc, &fakeIssuer{}, nil, nil)

	rec := postBooking(newTestRouter(h, uuid.New()), `{"notes": "missing session id"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMine(t *testing.T) {
	src := &stubSource{}
	svc := catalog.NewService(src, nil, clock.NewFake(testNow), time.Minute, nil)
	store := &fakeStore{created: []models.Booking{{SessionID: "s1"}}}
	h := NewHandler(store, svc, &fakeIssuer{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	rec := httptest.NewRecorder()
	newTestRouter(h, uuid.New()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data []models.Booking `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "s1", env.Data[0].SessionID)
}
