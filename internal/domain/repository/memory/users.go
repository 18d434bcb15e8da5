package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

type userRepo struct{ d *db }

func (r *userRepo) Create(ctx context.Context, _ *sql.Tx, user *model.User) error {
	return r.d.write(ctx, func(st *state) error {
		if _, ok := st.users[user.ID]; ok {
			return fmt.Errorf("user with given id or username already exists: %w", common.ErrConflict)
		}
		for _, u := range st.users {
			if u.Username == user.Username {
				return fmt.Errorf("user with given id or username already exists: %w", common.ErrConflict)
			}
		}
		user.CreatedAt = r.d.now()
		if user.Roles == nil {
			user.Roles = []string{}
		}
		st.users[user.ID] = *user
		st.track(user.ID)
		return nil
	})
}

func (r *userRepo) FindByID(ctx context.Context, _ *sql.Tx, id string) (*model.User, error) {
	var (
		user model.User
		ok   bool
	)
	r.d.read(ctx, func(st *state) { user, ok = st.users[id] })
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context, _ *sql.Tx) ([]model.User, error) {
	users := []model.User{}
	r.d.read(ctx, func(st *state) {
		for _, u := range st.users {
			users = append(users, u)
		}
		sort.Slice(users, func(i, j int) bool { return st.order[users[i].ID] < st.order[users[j].ID] })
	})
	return users, nil
}

func (r *userRepo) modify(ctx context.Context, id string, fn func(u *model.User)) error {
	return r.d.write(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("user %s: %w", id, common.ErrNotFound)
		}
		fn(&u)
		st.users[id] = u
		return nil
	})
}

func (r *userRepo) UpdateFullName(ctx context.Context, _ *sql.Tx, id, fullName string) error {
	return r.modify(ctx, id, func(u *model.User) { u.FullName = fullName })
}

func (r *userRepo) SetRoles(ctx context.Context, _ *sql.Tx, id string, roles []string) error {
	return r.modify(ctx, id, func(u *model.User) { u.Roles = append([]string{}, roles...) })
}

func (r *userRepo) SetBlocked(ctx context.Context, _ *sql.Tx, id string, blocked bool) error {
	return r.modify(ctx, id, func(u *model.User) { u.IsBlocked = blocked })
}

func (r *userRepo) CountCourses(ctx context.Context, _ *sql.Tx, id string) (int, error) {
	n := 0
	r.d.read(ctx, func(st *state) {
		for k := range st.enrollments {
			if c, ok := st.courses[k.courseID]; k.userID == id && ok && !c.IsDeleted {
				n++
			}
		}
	})
	return n, nil
}

func (r *userRepo) CountAttempts(ctx context.Context, _ *sql.Tx, id string) (int, error) {
	n := 0
	r.d.read(ctx, func(st *state) {
		for _, a := range st.attempts {
			if a.UserID == id {
				n++
			}
		}
	})
	return n, nil
}
