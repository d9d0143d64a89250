// Package catalog builds the eligible-session snapshot consumed by the
// discovery pipeline: upstream fetch, eligibility filtering and Redis caching.
package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/serene-wellness/backend/internal/models"
	"github.com/serene-wellness/backend/pkg/clock"
	"github.com/serene-wellness/backend/pkg/redis"
)

const cacheKeyEligible = "catalog:eligible"

// SessionSource fetches sessions from the marketplace API (or a test double).
type SessionSource interface {
	ListScheduled(ctx context.Context, from time.Time) ([]models.Session, error)
	MySessions(ctx context.Context, bearer string) ([]models.Session, error)
}

// Snapshot is one consistent view for a user: the eligible sessions, the ids
// the user has already booked, and non-fatal warnings for fetch halves that
// failed (the page proceeds with defaults for that half).
type Snapshot struct {
	Sessions  []models.Session
	BookedIDs map[string]bool
	Warnings  []string
}

// Service fetches, filters to eligibility, and caches the session catalog.
type Service struct {
	source SessionSource
	cache  *redis.Client
	clk    clock.Clock
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a catalog service.
func NewService(source SessionSource, cache *redis.Client, clk clock.Clock, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, cache: cache, clk: clk, ttl: ttl, logger: logger}
}

// Eligible returns the current eligible session list, serving from cache when
// fresh. Eligibility (approved, future, capacity left) is applied here once;
// downstream consumers never re-check it.
func (s *Service) Eligible(ctx context.Context) ([]models.Session, error) {
	if s.cache != nil {
		var cached []models.Session
		if err := s.cache.GetJSON(ctx, cacheKeyEligible, &cached); err == nil {
			return cached, nil
		} else if err != redis.ErrCacheMiss {
			s.logger.Warn("catalog cache read failed", zap.Error(err))
		}
	}
	return s.Refresh(ctx)
}

// Refresh fetches from upstream, applies eligibility and rewrites the cache.
func (s *Service) Refresh(ctx context.Context) ([]models.Session, error) {
	now := s.clk.Now()
	all, err := s.source.ListScheduled(ctx, now)
	if err != nil {
		return nil, err
	}
	eligible := make([]models.Session, 0, len(all))
	for _, sess := range all {
		if sess.Eligible(now) {
			eligible = append(eligible, sess)
		}
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKeyEligible, eligible, s.ttl); err != nil {
			s.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	s.logger.Debug("catalog refreshed",
		zap.Int("fetched", len(all)), zap.Int("eligible", len(eligible)))
	return eligible, nil
}

// Invalidate drops the cached list so the next read re-fetches. Called after
// a successful booking.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKeyEligible).Err(); err != nil {
		s.logger.Warn("catalog cache invalidate failed", zap.Error(err))
	}
}

// SnapshotFor runs the two fetches feeding a user's page concurrently (the
// eligible catalog and the user's booked sessions) and joins them. A failed
// half degrades to defaults plus a warning instead of failing the snapshot.
func (s *Service) SnapshotFor(ctx context.Context, bearer string) Snapshot {
	var (
		wg        sync.WaitGroup
		sessions  []models.Session
		booked    []models.Session
		sessErr   error
		bookedErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		sessions, sessErr = s.Eligible(ctx)
	}()

	if bearer != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			booked, bookedErr = s.source.MySessions(ctx, bearer)
		}()
	}
	wg.Wait()

	snap := Snapshot{BookedIDs: make(map[string]bool)}
	if sessErr != nil {
		s.logger.Warn("session list fetch failed", zap.Error(sessErr))
		snap.Warnings = append(snap.Warnings, "session list is temporarily unavailable")
	} else {
		snap.Sessions = sessions
	}
	if bookedErr != nil {
		s.logger.Warn("booked sessions fetch failed", zap.Error(bookedErr))
		snap.Warnings = append(snap.Warnings, "could not load your booked sessions")
	} else {
		for _, b := range booked {
			snap.BookedIDs[b.ID] = true
		}
	}
	return snap
}
