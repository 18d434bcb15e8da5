package memory

import (
	"context"
	"database/sql"
	"sort"

	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

type notificationRepo struct{ d *db }

func (r *notificationRepo) Create(ctx context.Context, _ *sql.Tx, n *model.Notification) error {
	return r.d.write(ctx, func(st *state) error {
		n.CreatedAt = r.d.now()
		st.notifications[n.ID] = *n
		st.track(n.ID)
		return nil
	})
}

func (r *notificationRepo) ListByUser(ctx context.Context, _ *sql.Tx, userID string) ([]model.Notification, error) {
	out := []model.Notification{}
	r.d.read(ctx, func(st *state) {
		for _, n := range st.notifications {
			if n.UserID == userID {
				out = append(out, n)
			}
		}
		sort.Slice(out, func(i, j int) bool { return st.order[out[i].ID] < st.order[out[j].ID] })
	})
	return out, nil
}

func (r *notificationRepo) DeleteByUser(ctx context.Context, _ *sql.Tx, userID string) (int, error) {
	n := 0
	err := r.d.write(ctx, func(st *state) error {
		for id, notification := range st.notifications {
			if notification.UserID == userID {
				delete(st.notifications, id)
				delete(st.order, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
