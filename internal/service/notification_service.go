package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prasetya-dev/shift-ops-api/internal/models"
	"github.com/prasetya-dev/shift-ops-api/pkg/config"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
	"github.com/prasetya-dev/shift-ops-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// NotificationSink delivers a stored notification to an external channel.
type NotificationSink interface {
	Deliver(ctx context.Context, notification models.Notification) error
}

// NotificationSinkFunc allows plain functions as sinks.
type NotificationSinkFunc func(ctx context.Context, notification models.Notification) error

// Deliver implements NotificationSink.
func (f NotificationSinkFunc) Deliver(ctx context.Context, notification models.Notification) error {
	return f(ctx, notification)
}

// NotificationService persists events and dispatches them asynchronously via
// a worker queue. Emit never fails the caller: a swap approval must not roll
// back because a notification channel is down.
type NotificationService struct {
	repo   notificationStore
	sink   NotificationSink
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the service and its dispatch queue.
func NewNotificationService(repo notificationStore, sink NotificationSink, cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, logger: logger}
	if sink == nil {
		sink = NotificationSinkFunc(func(ctx context.Context, notification models.Notification) error {
			logger.Info("notification dispatched",
				zap.String("user_id", notification.UserID),
				zap.String("kind", string(notification.Kind)))
			return nil
		})
	}
	s.sink = sink
	s.queue = jobs.NewQueue("notifications", s.dispatch, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Emit stores each event and queues it for delivery.
func (s *NotificationService) Emit(ctx context.Context, events ...models.NotificationEvent) {
	for _, event := range events {
		notification := models.Notification{
			ID:          uuid.NewString(),
			UserID:      event.UserID,
			Kind:        event.Kind,
			Title:       event.Title,
			Body:        event.Body,
			RelatedType: event.RelatedType,
			RelatedID:   event.RelatedID,
		}
		if err := s.repo.Create(ctx, &notification); err != nil {
			s.logger.Error("failed to store notification",
				zap.String("user_id", event.UserID),
				zap.String("kind", string(event.Kind)),
				zap.Error(err))
			continue
		}
		if err := s.queue.Enqueue(jobs.Job{ID: notification.ID, Type: string(event.Kind), Payload: notification}); err != nil {
			s.logger.Warn("failed to queue notification dispatch",
				zap.String("notification_id", notification.ID),
				zap.Error(err))
		}
	}
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	notifications, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkRead flags one notification as read, scoped to its owner.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

func (s *NotificationService) dispatch(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.sink.Deliver(ctx, notification)
}
