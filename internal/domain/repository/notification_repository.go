package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, tx *sql.Tx, n *model.Notification) error
	// ListByUser returns the user's notifications, oldest first.
	ListByUser(ctx context.Context, tx *sql.Tx, userID string) ([]model.Notification, error)
	DeleteByUser(ctx context.Context, tx *sql.Tx, userID string) (int, error)
}

type pgNotificationRepository struct {
	db *sql.DB
}

func NewPgNotificationRepository(db *sql.DB) NotificationRepository {
	return &pgNotificationRepository{db: db}
}

func (r *pgNotificationRepository) Create(ctx context.Context, tx *sql.Tx, n *model.Notification) error {
	var payload interface{}
	if n.Payload != nil {
		raw, err := json.Marshal(n.Payload)
		if err != nil {
			return fmt.Errorf("encode notification payload: %w", err)
		}
		payload = string(raw)
	}
	err := conn(r.db, tx).QueryRowContext(ctx,
		`INSERT INTO notifications (id, user_id, message, payload) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		n.ID, n.UserID, n.Message, payload).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgNotificationRepository.Create: %w", err)
	}
	return nil
}

func (r *pgNotificationRepository) ListByUser(ctx context.Context, tx *sql.Tx, userID string) ([]model.Notification, error) {
	rows, err := conn(r.db, tx).QueryContext(ctx,
		`SELECT id, user_id, message, payload, created_at FROM notifications
		 WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("pgNotificationRepository.ListByUser: %w", err)
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		var payload []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &payload, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgNotificationRepository.ListByUser scan: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &n.Payload); err != nil {
				return nil, fmt.Errorf("decode payload of notification %s: %w", n.ID, err)
			}
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *pgNotificationRepository) DeleteByUser(ctx context.Context, tx *sql.Tx, userID string) (int, error) {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("pgNotificationRepository.DeleteByUser: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pgNotificationRepository.DeleteByUser: %w", err)
	}
	return int(n), nil
}
