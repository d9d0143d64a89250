package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serene-wellness/backend/internal/models"
	"github.com/serene-wellness/backend/pkg/queue"
)

type fakeStore struct {
	created []models.Notification
	err     error
}

func (f *fakeStore) Create(ctx context.Context, n *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	f.created = append(f.created, *n)
	return nil
}

type fakeFeed struct {
	userEvents   []string
	globalEvents []string
	pushErr      error
}

func (f *fakeFeed) PublishUserEvent(userID uuid.UUID, event string, payload []byte) error {
	f.userEvents = append(f.userEvents, event)
	return f.pushErr
}

func (f *fakeFeed) PublishGlobalEvent(event string, payload []byte) error {
	f.globalEvents = append(f.globalEvents, event)
	return nil
}

func notifyJob(t *testing.T, payload queue.NotifyPayload) *queue.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &queue.Job{ID: "j1", Type: queue.JobTypeNotify, Payload: raw}
}

func TestProcessNotify(t *testing.T) {
	store := &fakeStore{}
	feed := &fakeFeed{}
	d := NewNotificationDispatcher(store, feed, nil, nil)

	userID := uuid.New()
	job := notifyJob(t, queue.NotifyPayload{
		UserID: userID,
		Kind:   string(models.NotificationBookingConfirmed),
		Title:  "Booking confirmed",
		Body:   "See you there",
	})

	require.NoError(t, d.Process(context.Background(), job))

	require.Len(t, store.created, 1)
	assert.Equal(t, userID, store.created[0].UserID)
	assert.Equal(t, models.NotificationBookingConfirmed, store.created[0].Kind)
	assert.Equal(t, []string{"notification"}, feed.userEvents)
}

func TestProcessNotifyPersistFailureIsRetryable(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	feed := &fakeFeed{}
	d := NewNotificationDispatcher(store, feed, nil, nil)

	job := notifyJob(t, queue.NotifyPayload{UserID: uuid.New(), Kind: "booking_confirmed"})
	err := d.Process(context.Background(), job)

	require.Error(t, err)
	assert.Empty(t, feed.userEvents, "failed persist must not push to the feed")
}

func TestProcessNotifyFeedFailureIsSwallowed(t *testing.T) {
	store := &fakeStore{}
	feed := &fakeFeed{pushErr: errors.New("redis gone")}
	d := NewNotificationDispatcher(store, feed, nil, nil)

	job := notifyJob(t, queue.NotifyPayload{UserID: uuid.New(), Kind: "booking_confirmed"})

	// The panel entry is stored; a missed live push is not a job failure.
	require.NoError(t, d.Process(context.Background(), job))
	require.Len(t, store.created, 1)
}

func TestProcessBroadcast(t *testing.T) {
	feed := &fakeFeed{}
	d := NewNotificationDispatcher(&fakeStore{}, feed, nil, nil)

	raw, err := json.Marshal(queue.BroadcastPayload{Event: "sessions_updated"})
	require.NoError(t, err)
	job := &queue.Job{ID: "j2", Type: queue.JobTypeBroadcast, Payload: raw}

	require.NoError(t, d.Process(context.Background(), job))
	assert.Equal(t, []string{"sessions_updated"}, feed.globalEvents)
}

func TestProcessUnknownJobType(t *testing.T) {
	d := NewNotificationDispatcher(&fakeStore{}, &fakeFeed{}, nil, nil)
	err := d.Process(context.Background(), &queue.Job{ID: "j3", Type: "mystery"})
	require.Error(t, err)
}
