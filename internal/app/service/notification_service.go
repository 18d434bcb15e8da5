package service

import (
	"context"
	"database/sql"
	"log"

	"github.com/google/uuid"

	"github.com/7rockstarmade/LogicModule/internal/domain/model"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository"
)

// NotificationPublisher hands committed notifications to a delivery system.
type NotificationPublisher interface {
	Push(ctx context.Context, notifications []model.Notification) error
}

type NotificationService struct {
	store     *repository.Store
	publisher NotificationPublisher // nil disables publishing
}

func NewNotificationService(store *repository.Store, publisher NotificationPublisher) *NotificationService {
	return &NotificationService{store: store, publisher: publisher}
}

// Notify stores a notification as part of tx. Call Publish once tx commits.
func (s *NotificationService) Notify(ctx context.Context, tx *sql.Tx, userID, message string, payload map[string]interface{}) (*model.Notification, error) {
	n := &model.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Message: message,
		Payload: payload,
	}
	if err := s.store.Notifications.Create(ctx, tx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Publish is fire-and-forget: failures are logged and never reach the caller.
func (s *NotificationService) Publish(ctx context.Context, notifications []model.Notification) {
	if s.publisher == nil || len(notifications) == 0 {
		return
	}
	if err := s.publisher.Push(ctx, notifications); err != nil {
		log.Printf("WARN: Failed to publish %d notification(s): %v", len(notifications), err)
	}
}

func (s *NotificationService) ListMine(ctx context.Context, user *model.CurrentUser) ([]model.Notification, error) {
	return s.store.Notifications.ListByUser(ctx, nil, user.ID)
}

// ClearMine deletes the caller's notifications and returns how many went.
func (s *NotificationService) ClearMine(ctx context.Context, user *model.CurrentUser) (int, error) {
	var deleted int
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		deleted, err = s.store.Notifications.DeleteByUser(ctx, tx, user.ID)
		return err
	})
	return deleted, err
}
