package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/serene-wellness/backend/pkg/clock"
	"github.com/serene-wellness/backend/pkg/queue"
)

// Publisher enqueues feed-wide events when the catalog changes.
type Publisher interface {
	EnqueueBroadcast(ctx context.Context, payload queue.BroadcastPayload) error
}

// Refresher polls the upstream session source on an interval, keeps the cache
// warm, and publishes a sessions_updated event whenever the eligible set
// changes. The clock is injected so tests drive ticks without real delays.
type Refresher struct {
	svc      *Service
	pub      Publisher
	clk      clock.Clock
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	seeded   bool
	lastSeen string
}

// NewRefresher creates a catalog refresher.
func NewRefresher(svc *Service, pub Publisher, clk clock.Clock, interval time.Duration, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{svc: svc, pub: pub, clk: clk, interval: interval, logger: logger}
}

// Start begins the polling loop. Call Stop to release resources.
func (r *Refresher) Start() {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Unlock()

	go r.run(ctx)
	r.logger.Info("catalog refresher started", zap.Duration("interval", r.interval))
}

// Stop stops the polling loop and waits for it to exit.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return
	}
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()

	cancel()
	<-done
	r.logger.Info("catalog refresher stopped")
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.done)
	ticks, stop := r.clk.Tick(r.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	sessions, err := r.svc.Refresh(ctx)
	if err != nil {
		r.logger.Warn("catalog refresh failed", zap.Error(err))
		return
	}
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)
	seen := strings.Join(ids, ",")

	r.mu.Lock()
	changed := r.seeded && seen != r.lastSeen
	r.seeded = true
	r.lastSeen = seen
	r.mu.Unlock()

	if !changed || r.pub == nil {
		return
	}
	err = r.pub.EnqueueBroadcast(ctx, queue.BroadcastPayload{Event: "sessions_updated"})
	if err != nil {
		r.logger.Warn("publish sessions_updated failed", zap.Error(err))
	}
}
