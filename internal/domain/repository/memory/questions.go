package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

type questionRepo struct{ d *db }

func (r *questionRepo) Create(ctx context.Context, _ *sql.Tx, q *model.Question) error {
	return r.d.write(ctx, func(st *state) error {
		if _, ok := st.questions[q.ID]; ok {
			return fmt.Errorf("question %s already exists: %w", q.ID, common.ErrConflict)
		}
		q.CreatedAt = r.d.now()
		st.questions[q.ID] = *q
		st.track(q.ID)
		return nil
	})
}

func (r *questionRepo) FindByID(ctx context.Context, _ *sql.Tx, id string) (*model.Question, error) {
	var (
		q  model.Question
		ok bool
	)
	r.d.read(ctx, func(st *state) { q, ok = st.questions[id] })
	if !ok || q.IsDeleted {
		return nil, fmt.Errorf("question %s: %w", id, common.ErrNotFound)
	}
	return &q, nil
}

func (r *questionRepo) List(ctx context.Context, _ *sql.Tx) ([]model.Question, error) {
	questions := []model.Question{}
	r.d.read(ctx, func(st *state) {
		for _, q := range st.questions {
			if !q.IsDeleted {
				questions = append(questions, q)
			}
		}
		sort.Slice(questions, func(i, j int) bool { return st.order[questions[i].ID] < st.order[questions[j].ID] })
	})
	return questions, nil
}

func (r *questionRepo) SoftDelete(ctx context.Context, _ *sql.Tx, id string) error {
	return r.d.write(ctx, func(st *state) error {
		q, ok := st.questions[id]
		if !ok || q.IsDeleted {
			return fmt.Errorf("question %s: %w", id, common.ErrNotFound)
		}
		q.IsDeleted = true
		st.questions[id] = q
		return nil
	})
}

func (r *questionRepo) CreateVersion(ctx context.Context, _ *sql.Tx, v *model.QuestionVersion) error {
	return r.d.write(ctx, func(st *state) error {
		if _, ok := st.questions[v.QuestionID]; !ok {
			return fmt.Errorf("question %s: %w", v.QuestionID, common.ErrNotFound)
		}
		for _, existing := range st.versions {
			if existing.QuestionID == v.QuestionID && existing.Version == v.Version {
				return fmt.Errorf("version %d of question %s already exists: %w", v.Version, v.QuestionID, common.ErrConflict)
			}
		}
		v.CreatedAt = r.d.now()
		stored := *v
		stored.Options = append([]string(nil), v.Options...)
		st.versions[v.ID] = stored
		st.track(v.ID)
		return nil
	})
}

func (r *questionRepo) LatestVersion(ctx context.Context, _ *sql.Tx, questionID string) (*model.QuestionVersion, error) {
	var (
		latest model.QuestionVersion
		found  bool
	)
	r.d.read(ctx, func(st *state) {
		for _, v := range st.versions {
			if v.QuestionID == questionID && (!found || v.Version > latest.Version) {
				latest, found = v, true
			}
		}
	})
	if !found {
		return nil, fmt.Errorf("question %s has no versions: %w", questionID, common.ErrNotFound)
	}
	return &latest, nil
}

func (r *questionRepo) FindVersion(ctx context.Context, _ *sql.Tx, questionID string, version int) (*model.QuestionVersion, error) {
	var (
		out   model.QuestionVersion
		found bool
	)
	r.d.read(ctx, func(st *state) {
		for _, v := range st.versions {
			if v.QuestionID == questionID && v.Version == version {
				out, found = v, true
				return
			}
		}
	})
	if !found {
		return nil, fmt.Errorf("version %d of question %s: %w", version, questionID, common.ErrNotFound)
	}
	return &out, nil
}

func (r *questionRepo) FindVersionsByIDs(ctx context.Context, _ *sql.Tx, ids []string) (map[string]*model.QuestionVersion, error) {
	out := make(map[string]*model.QuestionVersion, len(ids))
	r.d.read(ctx, func(st *state) {
		for _, id := range ids {
			if v, ok := st.versions[id]; ok {
				v := v
				out[id] = &v
			}
		}
	})
	return out, nil
}
