package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

type testRepo struct{ d *db }

func (r *testRepo) Create(ctx context.Context, _ *sql.Tx, t *model.Test) error {
	return r.d.write(ctx, func(st *state) error {
		if _, ok := st.courses[t.CourseID]; !ok {
			return fmt.Errorf("course %s: %w", t.CourseID, common.ErrNotFound)
		}
		t.CreatedAt = r.d.now()
		st.tests[t.ID] = *t
		st.track(t.ID)
		return nil
	})
}

func (r *testRepo) FindByID(ctx context.Context, _ *sql.Tx, id string) (*model.Test, error) {
	var (
		t  model.Test
		ok bool
	)
	r.d.read(ctx, func(st *state) { t, ok = st.tests[id] })
	if !ok || t.IsDeleted {
		return nil, fmt.Errorf("test %s: %w", id, common.ErrNotFound)
	}
	return &t, nil
}

// FindByIDForUpdate needs no row lock here: transactions are serialized.
func (r *testRepo) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.Test, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *testRepo) ListByCourse(ctx context.Context, _ *sql.Tx, courseID string) ([]model.Test, error) {
	tests := []model.Test{}
	r.d.read(ctx, func(st *state) {
		for _, t := range st.tests {
			if t.CourseID == courseID && !t.IsDeleted {
				tests = append(tests, t)
			}
		}
		sort.Slice(tests, func(i, j int) bool { return st.order[tests[i].ID] < st.order[tests[j].ID] })
	})
	return tests, nil
}

func (r *testRepo) modify(ctx context.Context, id string, fn func(t *model.Test)) error {
	return r.d.write(ctx, func(st *state) error {
		t, ok := st.tests[id]
		if !ok || t.IsDeleted {
			return fmt.Errorf("test %s: %w", id, common.ErrNotFound)
		}
		fn(&t)
		st.tests[id] = t
		return nil
	})
}

func (r *testRepo) SetActive(ctx context.Context, _ *sql.Tx, id string, active bool) error {
	return r.modify(ctx, id, func(t *model.Test) { t.IsActive = active })
}

func (r *testRepo) SoftDelete(ctx context.Context, _ *sql.Tx, id string) error {
	return r.modify(ctx, id, func(t *model.Test) { t.IsDeleted = true })
}

func (r *testRepo) ListQuestions(ctx context.Context, _ *sql.Tx, testID string) ([]model.TestQuestion, error) {
	var links []model.TestQuestion
	r.d.read(ctx, func(st *state) { links = append([]model.TestQuestion{}, st.testQuestions[testID]...) })
	sort.Slice(links, func(i, j int) bool { return links[i].Position < links[j].Position })
	return links, nil
}

func (r *testRepo) AddQuestion(ctx context.Context, _ *sql.Tx, l *model.TestQuestion) error {
	return r.d.write(ctx, func(st *state) error {
		if _, ok := st.questions[l.QuestionID]; !ok {
			return fmt.Errorf("question %s: %w", l.QuestionID, common.ErrNotFound)
		}
		for _, existing := range st.testQuestions[l.TestID] {
			if existing.QuestionID == l.QuestionID {
				return fmt.Errorf("question %s is already in test %s: %w", l.QuestionID, l.TestID, common.ErrConflict)
			}
		}
		st.testQuestions[l.TestID] = append(st.testQuestions[l.TestID], *l)
		return nil
	})
}

func (r *testRepo) RemoveQuestion(ctx context.Context, _ *sql.Tx, testID, questionID string) error {
	return r.d.write(ctx, func(st *state) error {
		links := st.testQuestions[testID]
		for i, l := range links {
			if l.QuestionID == questionID {
				kept := append([]model.TestQuestion{}, links[:i]...)
				st.testQuestions[testID] = append(kept, links[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("question %s is not in test %s: %w", questionID, testID, common.ErrNotFound)
	})
}

func (r *testRepo) SetPositions(ctx context.Context, _ *sql.Tx, testID string, questionIDs []string) error {
	return r.d.write(ctx, func(st *state) error {
		links := st.testQuestions[testID]
		if len(links) != len(questionIDs) {
			return fmt.Errorf("test %s: updated %d of %d positions: %w", testID, len(links), len(questionIDs), common.ErrConflict)
		}
		pos := make(map[string]int, len(questionIDs))
		for i, id := range questionIDs {
			pos[id] = i
		}
		updated := make([]model.TestQuestion, 0, len(links))
		for _, l := range links {
			p, ok := pos[l.QuestionID]
			if !ok {
				return fmt.Errorf("test %s: question %s missing from new order: %w", testID, l.QuestionID, common.ErrConflict)
			}
			l.Position = p
			updated = append(updated, l)
		}
		sort.Slice(updated, func(i, j int) bool { return updated[i].Position < updated[j].Position })
		st.testQuestions[testID] = updated
		return nil
	})
}
