package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serene-wellness/backend/internal/models"
	"github.com/serene-wellness/backend/pkg/clock"
)

// fakeSource is an in-memory SessionSource. fetched is signalled on every
// ListScheduled call so tests can wait for refresher ticks.
type fakeSource struct {
	mu       sync.Mutex
	sessions []models.Session
	booked   []models.Session
	listErr  error
	myErr    error
	fetched  chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{fetched: make(chan struct{}, 16)}
}

func (f *fakeSource) set(sessions []models.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = sessions
}

func (f *fakeSource) ListScheduled(ctx context.Context, from time.Time) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case f.fetched <- struct{}{}:
	default:
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Session(nil), f.sessions...), nil
}

func (f *fakeSource) MySessions(ctx context.Context, bearer string) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.myErr != nil {
		return nil, f.myErr
	}
	return append([]models.Session(nil), f.booked...), nil
}

func approvedSession(id string, start time.Time) models.Session {
	return models.Session{
		ID:              id,
		StartTime:       start,
		Status:          models.StatusApproved,
		MaxParticipants: 10,
		Participants:    2,
	}
}

func TestRefreshAppliesEligibility(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(now)
	src := newFakeSource()

	future := now.Add(24 * time.Hour)
	pending := approvedSession("pending", future)
	pending.Status = models.StatusPending
	past := approvedSession("past", now.Add(-time.Hour))
	full := approvedSession("full", future)
	full.Participants = full.MaxParticipants

	src.set([]models.Session{
		approvedSession("ok", future),
		pending,
		past,
		full,
	})

	svc := NewService(src, nil, clk, time.Minute, nil)
	sessions, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, sessions, 1)
	assert.Equal(t, "ok", sessions[0].ID)
}

func TestRefreshBoundaryIsStrict(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(now)
	src := newFakeSource()
	src.set([]models.Session{
		approvedSession("exactly-now", now),
		approvedSession("one-second-later", now.Add(time.Second)),
	})

	svc := NewService(src, nil, clk, time.Minute, nil)
	sessions, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	// A session starting exactly now is no longer bookable.
	require.Len(t, sessions, 1)
	assert.Equal(t, "one-second-later", sessions[0].ID)
}

func TestSnapshotForJoinsBothHalves(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(now)
	src := newFakeSource()
	src.set([]models.Session{
		approvedSession("s1", now.Add(time.Hour)),
		approvedSession("s2", now.Add(2*time.Hour)),
	})
	src.booked = []models.Session{{ID: "s2"}}

	svc := NewService(src, nil, clk, time.Minute, nil)
	snap := svc.SnapshotFor(context.Background(), "user-token")

	assert.Empty(t, snap.Warnings)
	assert.Len(t, snap.Sessions, 2)
	assert.True(t, snap.BookedIDs["s2"])
	assert.False(t, snap.BookedIDs["s1"])
}

func TestSnapshotForDegradesPerHalf(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("session list failure keeps booked ids", func(t *testing.T) {
		src := newFakeSource()
		src.listErr = errors.New("upstream down")
		src.booked = []models.Session{{ID: "s9"}}

		svc := NewService(src, nil, clock.NewFake(now), time.Minute, nil)
		snap := svc.SnapshotFor(context.Background(), "user-token")

		require.Len(t, snap.Warnings, 1)
		assert.Contains(t, snap.Warnings[0], "session list")
		assert.Empty(t, snap.Sessions)
		assert.True(t, snap.BookedIDs["s9"])
	})

	t.Run("booked fetch failure keeps sessions", func(t *testing.T) {
		src := newFakeSource()
		src.set([]models.Session{approvedSession("s1", now.Add(time.Hour))})
		src.myErr = errors.New("token expired")

		svc := NewService(src, nil, clock.NewFake(now), time.Minute, nil)
		snap := svc.SnapshotFor(context.Background(), "user-token")

		require.Len(t, snap.Warnings, 1)
		assert.Contains(t, snap.Warnings[0], "booked")
		assert.Len(t, snap.Sessions, 1)
		assert.Empty(t, snap.BookedIDs)
	})

	t.Run("anonymous user skips the booked half", func(t *testing.T) {
		src := newFakeSource()
		src.set([]models.Session{approvedSession("s1", now.Add(time.Hour))})
		src.myErr = errors.New("must not be called")

		svc := NewService(src, nil, clock.NewFake(now), time.Minute, nil)
		snap := svc.SnapshotFor(context.Background(), "")

		assert.Empty(t, snap.Warnings)
		assert.Len(t, snap.Sessions, 1)
	})
}
