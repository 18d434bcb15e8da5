package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

// NotificationQueue pushes committed notifications onto a Redis list for an
// external delivery worker, oldest first (LPUSH + BRPOP consumer).
type NotificationQueue struct {
	rdb  *redis.Client
	name string
}

func NewNotificationQueue(rdb *redis.Client, name string) *NotificationQueue {
	return &NotificationQueue{rdb: rdb, name: name}
}

func (q *NotificationQueue) Push(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(notifications))
	for i := range notifications {
		raw, err := json.Marshal(notifications[i])
		if err != nil {
			return fmt.Errorf("encode notification %s: %w", notifications[i].ID, err)
		}
		values = append(values, raw)
	}
	if err := q.rdb.LPush(ctx, q.name, values...).Err(); err != nil {
		return fmt.Errorf("push notifications to %s: %w", q.name, err)
	}
	return nil
}
