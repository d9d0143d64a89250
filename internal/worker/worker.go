package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/serene-wellness/backend/internal/models"
	"github.com/serene-wellness/backend/pkg/queue"
)

// FeedPublisher pushes feed events to connected clients across instances.
type FeedPublisher interface {
	PublishUserEvent(userID uuid.UUID, event string, payload []byte) error
	PublishGlobalEvent(event string, payload []byte) error
}

// Store persists notification panel entries. Implemented by
// notifications.Repository.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
}

// NotificationDispatcher processes notification jobs: persist the panel entry
// and push it to the user's live feed.
type NotificationDispatcher struct {
	repo   Store
	feed   FeedPublisher
	queue  *queue.Queue
	logger *zap.Logger
}

// NewNotificationDispatcher creates a notification dispatcher.
func NewNotificationDispatcher(repo Store, feed FeedPublisher, q *queue.Queue, logger *zap.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationDispatcher{repo: repo, feed: feed, queue: q, logger: logger}
}

// Process executes one job.
func (d *NotificationDispatcher) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeNotify:
		return d.processNotify(ctx, job)
	case queue.JobTypeBroadcast:
		return d.processBroadcast(job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (d *NotificationDispatcher) processNotify(ctx context.Context, job *queue.Job) error {
	var payload queue.NotifyPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	n := &models.Notification{
		UserID: payload.UserID,
		Kind:   models.NotificationKind(payload.Kind),
		Title:  payload.Title,
		Body:   payload.Body,
		Data:   payload.Data,
	}
	if err := d.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	if d.feed != nil {
		raw, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		if err := d.feed.PublishUserEvent(payload.UserID, "notification", raw); err != nil {
			// The panel entry is stored; a missed live push is recoverable on
			// the next poll.
			d.logger.Warn("feed push failed", zap.Error(err), zap.String("user_id", payload.UserID.String()))
		}
	}

	d.logger.Info("notification dispatched",
		zap.String("user_id", payload.UserID.String()), zap.String("kind", payload.Kind))
	return nil
}

func (d *NotificationDispatcher) processBroadcast(job *queue.Job) error {
	var payload queue.BroadcastPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if d.feed == nil {
		return nil
	}
	if err := d.feed.PublishGlobalEvent(payload.Event, payload.Data); err != nil {
		return fmt.Errorf("publish %s: %w", payload.Event, err)
	}
	d.logger.Info("feed broadcast dispatched", zap.String("event", payload.Event))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (d *NotificationDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification worker stopping")
			return
		default:
		}

		job, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		d.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := d.Process(ctx, job); err != nil {
			d.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := d.queue.Retry(ctx, job); reErr != nil {
				d.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
