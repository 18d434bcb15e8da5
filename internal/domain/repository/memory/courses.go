package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

type courseRepo struct{ d *db }

func (r *courseRepo) Create(ctx context.Context, _ *sql.Tx, c *model.Course) error {
	return r.d.write(ctx, func(st *state) error {
		if _, ok := st.courses[c.ID]; ok {
			return fmt.Errorf("course already exists: %w", common.ErrConflict)
		}
		c.CreatedAt = r.d.now()
		c.UpdatedAt = c.CreatedAt
		st.courses[c.ID] = *c
		st.track(c.ID)
		return nil
	})
}

func (r *courseRepo) FindByID(ctx context.Context, _ *sql.Tx, id string) (*model.Course, error) {
	var (
		c  model.Course
		ok bool
	)
	r.d.read(ctx, func(st *state) { c, ok = st.courses[id] })
	if !ok || c.IsDeleted {
		return nil, fmt.Errorf("course %s: %w", id, common.ErrNotFound)
	}
	return &c, nil
}

func (r *courseRepo) List(ctx context.Context, _ *sql.Tx) ([]model.Course, error) {
	courses := []model.Course{}
	r.d.read(ctx, func(st *state) {
		for _, c := range st.courses {
			if !c.IsDeleted {
				courses = append(courses, c)
			}
		}
		sort.Slice(courses, func(i, j int) bool { return st.order[courses[i].ID] < st.order[courses[j].ID] })
	})
	return courses, nil
}

func (r *courseRepo) Update(ctx context.Context, _ *sql.Tx, c *model.Course) error {
	return r.d.write(ctx, func(st *state) error {
		cur, ok := st.courses[c.ID]
		if !ok || cur.IsDeleted {
			return fmt.Errorf("course %s: %w", c.ID, common.ErrNotFound)
		}
		cur.Title, cur.Slug, cur.Description = c.Title, c.Slug, c.Description
		cur.UpdatedAt = r.d.now()
		c.UpdatedAt = cur.UpdatedAt
		st.courses[c.ID] = cur
		return nil
	})
}

func (r *courseRepo) SoftDelete(ctx context.Context, _ *sql.Tx, id string) error {
	return r.d.write(ctx, func(st *state) error {
		c, ok := st.courses[id]
		if !ok || c.IsDeleted {
			return fmt.Errorf("course %s: %w", id, common.ErrNotFound)
		}
		c.IsDeleted = true
		c.UpdatedAt = r.d.now()
		st.courses[id] = c
		for tid, t := range st.tests {
			if t.CourseID == id {
				t.IsDeleted = true
				st.tests[tid] = t
			}
		}
		return nil
	})
}

type enrollmentRepo struct{ d *db }

func (r *enrollmentRepo) Enroll(ctx context.Context, _ *sql.Tx, courseID, userID string) (*model.CourseUser, bool, error) {
	var (
		link    model.CourseUser
		created bool
	)
	err := r.d.write(ctx, func(st *state) error {
		if _, ok := st.courses[courseID]; !ok {
			return fmt.Errorf("course %s: %w", courseID, common.ErrNotFound)
		}
		if _, ok := st.users[userID]; !ok {
			return fmt.Errorf("user %s: %w", userID, common.ErrNotFound)
		}
		key := enrollKey{courseID, userID}
		if existing, ok := st.enrollments[key]; ok {
			link = existing
			return nil
		}
		link = model.CourseUser{CourseID: courseID, UserID: userID, EnrolledAt: r.d.now()}
		st.enrollments[key] = link
		st.track(courseID + "/" + userID)
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &link, created, nil
}

func (r *enrollmentRepo) Unenroll(ctx context.Context, _ *sql.Tx, courseID, userID string) (bool, error) {
	removed := false
	r.d.write(ctx, func(st *state) error {
		key := enrollKey{courseID, userID}
		if _, ok := st.enrollments[key]; ok {
			delete(st.enrollments, key)
			delete(st.order, courseID+"/"+userID)
			removed = true
		}
		return nil
	})
	return removed, nil
}

func (r *enrollmentRepo) IsEnrolled(ctx context.Context, _ *sql.Tx, courseID, userID string) (bool, error) {
	var ok bool
	r.d.read(ctx, func(st *state) { _, ok = st.enrollments[enrollKey{courseID, userID}] })
	return ok, nil
}

func (r *enrollmentRepo) ListStudents(ctx context.Context, _ *sql.Tx, courseID string) ([]model.UserBasicInfo, error) {
	students := []model.UserBasicInfo{}
	r.d.read(ctx, func(st *state) {
		var keys []enrollKey
		for k := range st.enrollments {
			if k.courseID == courseID {
				keys = append(keys, k)
			}
		}
		sort.Slice(keys, func(i, j int) bool {
			return st.order[keys[i].courseID+"/"+keys[i].userID] < st.order[keys[j].courseID+"/"+keys[j].userID]
		})
		for _, k := range keys {
			students = append(students, model.UserBasicInfo{ID: k.userID, FullName: st.users[k.userID].FullName})
		}
	})
	return students, nil
}
