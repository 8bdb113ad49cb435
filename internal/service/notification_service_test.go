package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetya-dev/shift-ops-api/internal/models"
	"github.com/prasetya-dev/shift-ops-api/pkg/config"
	appErrors "github.com/prasetya-dev/shift-ops-api/pkg/errors"
)

func TestNotificationEmitStoresAndDispatches(t *testing.T) {
	repo := &notificationStoreStub{}
	sink := &recordingSink{done: make(chan struct{}, 4)}
	service := NewNotificationService(repo, sink, config.NotificationConfig{Workers: 1, BufferSize: 4}, nil)
	service.Start(context.Background())
	defer service.Stop()

	service.Emit(context.Background(), models.NotificationEvent{
		UserID: "nurse-1",
		Kind:   models.NotifySwapApproved,
		Title:  "Shift swap approved",
	})

	require.Len(t, repo.created, 1)
	assert.Equal(t, models.NotifySwapApproved, repo.created[0].Kind)

	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not reach the sink")
	}
	assert.Equal(t, "nurse-1", sink.delivered()[0].UserID)
}

func TestNotificationEmitSurvivesStoreFailure(t *testing.T) {
	repo := &notificationStoreStub{createErr: sql.ErrConnDone}
	service := NewNotificationService(repo, nil, config.NotificationConfig{}, nil)
	service.Start(context.Background())
	defer service.Stop()

	// Must not panic or propagate.
	service.Emit(context.Background(), models.NotificationEvent{UserID: "nurse-1", Kind: models.NotifySwapRejected})
	assert.Empty(t, repo.created)
}

func TestNotificationMarkReadNotFound(t *testing.T) {
	repo := &notificationStoreStub{markErr: sql.ErrNoRows}
	service := NewNotificationService(repo, nil, config.NotificationConfig{}, nil)

	err := service.MarkRead(context.Background(), "missing", "nurse-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestNotificationListNeverReturnsNil(t *testing.T) {
	repo := &notificationStoreStub{}
	service := NewNotificationService(repo, nil, config.NotificationConfig{}, nil)

	notifications, err := service.List(context.Background(), models.NotificationFilter{UserID: "nurse-1"})
	require.NoError(t, err)
	assert.NotNil(t, notifications)
	assert.Empty(t, notifications)
}

// --- Fixtures ---

type notificationStoreStub struct {
	created   []models.Notification
	createErr error
	markErr   error
}

func (s *notificationStoreStub) Create(ctx context.Context, notification *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, *notification)
	return nil
}

func (s *notificationStoreStub) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	return nil, nil
}

func (s *notificationStoreStub) MarkRead(ctx context.Context, id, userID string) error {
	return s.markErr
}

type recordingSink struct {
	mu    sync.Mutex
	items []models.Notification
	done  chan struct{}
}

func (s *recordingSink) Deliver(ctx context.Context, notification models.Notification) error {
	s.mu.Lock()
	s.items = append(s.items, notification)
	s.mu.Unlock()
	s.done <- struct{}{}
	return nil
}

func (s *recordingSink) delivered() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.items))
	copy(out, s.items)
	return out
}
