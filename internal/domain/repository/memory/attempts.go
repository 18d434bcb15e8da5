package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

type attemptRepo struct{ d *db }

func (r *attemptRepo) Create(ctx context.Context, _ *sql.Tx, a *model.Attempt) error {
	return r.d.write(ctx, func(st *state) error {
		if a.Status == model.AttemptInProgress {
			for _, existing := range st.attempts {
				if existing.UserID == a.UserID && existing.TestID == a.TestID && existing.Status == model.AttemptInProgress {
					return fmt.Errorf("in-progress attempt already exists: %w", common.ErrConflict)
				}
			}
		}
		a.StartedAt = r.d.now()
		st.attempts[a.ID] = *a
		st.track(a.ID)
		return nil
	})
}

func (r *attemptRepo) FindByID(ctx context.Context, _ *sql.Tx, id string) (*model.Attempt, error) {
	var (
		a  model.Attempt
		ok bool
	)
	r.d.read(ctx, func(st *state) { a, ok = st.attempts[id] })
	if !ok {
		return nil, fmt.Errorf("attempt %s: %w", id, common.ErrNotFound)
	}
	return &a, nil
}

// FindByIDForUpdate needs no row lock here: transactions are serialized.
func (r *attemptRepo) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.Attempt, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *attemptRepo) FindInProgress(ctx context.Context, _ *sql.Tx, userID, testID string) (*model.Attempt, error) {
	var (
		out   model.Attempt
		found bool
	)
	r.d.read(ctx, func(st *state) {
		for _, a := range st.attempts {
			if a.UserID == userID && a.TestID == testID && a.Status == model.AttemptInProgress {
				out, found = a, true
				return
			}
		}
	})
	if !found {
		return nil, fmt.Errorf("no in-progress attempt: %w", common.ErrNotFound)
	}
	return &out, nil
}

func (r *attemptRepo) filter(ctx context.Context, keep func(a model.Attempt) bool, less func(st *state, x, y model.Attempt) bool) []model.Attempt {
	attempts := []model.Attempt{}
	r.d.read(ctx, func(st *state) {
		for _, a := range st.attempts {
			if keep(a) {
				attempts = append(attempts, a)
			}
		}
		sort.Slice(attempts, func(i, j int) bool { return less(st, attempts[i], attempts[j]) })
	})
	return attempts
}

func byCreation(st *state, x, y model.Attempt) bool { return st.order[x.ID] < st.order[y.ID] }

func byNewestFinish(_ *state, x, y model.Attempt) bool {
	if !x.FinishedAt.Equal(*y.FinishedAt) {
		return x.FinishedAt.After(*y.FinishedAt)
	}
	return x.ID < y.ID
}

func (r *attemptRepo) ListInProgressByTest(ctx context.Context, _ *sql.Tx, testID string) ([]model.Attempt, error) {
	return r.filter(ctx, func(a model.Attempt) bool {
		return a.TestID == testID && a.Status == model.AttemptInProgress
	}, byCreation), nil
}

func (r *attemptRepo) HasAttempts(ctx context.Context, _ *sql.Tx, testID string) (bool, error) {
	found := false
	r.d.read(ctx, func(st *state) {
		for _, a := range st.attempts {
			if a.TestID == testID {
				found = true
				return
			}
		}
	})
	return found, nil
}

func (r *attemptRepo) Finish(ctx context.Context, _ *sql.Tx, id string, score decimal.Decimal, finishedAt time.Time) error {
	return r.d.write(ctx, func(st *state) error {
		a, ok := st.attempts[id]
		if !ok || a.Status != model.AttemptInProgress {
			return fmt.Errorf("attempt %s is not in progress: %w", id, common.ErrConflict)
		}
		a.Status = model.AttemptFinished
		a.Score = decimal.NewNullDecimal(score)
		a.FinishedAt = &finishedAt
		st.attempts[id] = a
		return nil
	})
}

func (r *attemptRepo) AddQuestions(ctx context.Context, _ *sql.Tx, questions []model.AttemptQuestion) error {
	return r.d.write(ctx, func(st *state) error {
		for _, aq := range questions {
			if _, ok := st.attempts[aq.AttemptID]; !ok {
				return fmt.Errorf("attempt %s: %w", aq.AttemptID, common.ErrNotFound)
			}
			st.attemptQuestions[aq.AttemptID] = append(st.attemptQuestions[aq.AttemptID], aq)
		}
		return nil
	})
}

func (r *attemptRepo) ListQuestions(ctx context.Context, _ *sql.Tx, attemptID string) ([]model.AttemptQuestion, error) {
	var questions []model.AttemptQuestion
	r.d.read(ctx, func(st *state) { questions = append([]model.AttemptQuestion{}, st.attemptQuestions[attemptID]...) })
	sort.Slice(questions, func(i, j int) bool { return questions[i].Position < questions[j].Position })
	return questions, nil
}

func (r *attemptRepo) HasInProgressWithQuestion(ctx context.Context, _ *sql.Tx, userID, questionID string) (bool, error) {
	found := false
	r.d.read(ctx, func(st *state) {
		for _, a := range st.attempts {
			if a.UserID != userID || a.Status != model.AttemptInProgress {
				continue
			}
			for _, aq := range st.attemptQuestions[a.ID] {
				if aq.QuestionID == questionID {
					found = true
					return
				}
			}
		}
	})
	return found, nil
}

func (r *attemptRepo) ListFinishedByTest(ctx context.Context, _ *sql.Tx, testID, userID string) ([]model.Attempt, error) {
	return r.filter(ctx, func(a model.Attempt) bool {
		return a.TestID == testID && a.Status == model.AttemptFinished && (userID == "" || a.UserID == userID)
	}, byNewestFinish), nil
}

func (r *attemptRepo) ListFinishedUsers(ctx context.Context, tx *sql.Tx, testID, userID string) ([]model.TestResultUser, error) {
	attempts, _ := r.ListFinishedByTest(ctx, tx, testID, userID)
	users := []model.TestResultUser{}
	seen := map[string]bool{}
	r.d.read(ctx, func(st *state) {
		for _, a := range attempts {
			if seen[a.UserID] {
				continue
			}
			seen[a.UserID] = true
			users = append(users, model.TestResultUser{ID: a.UserID, FullName: st.users[a.UserID].FullName})
		}
	})
	return users, nil
}

type answerRepo struct{ d *db }

func (r *answerRepo) CreateBatch(ctx context.Context, _ *sql.Tx, answers []model.Answer) error {
	return r.d.write(ctx, func(st *state) error {
		for _, a := range answers {
			for _, existing := range st.answers {
				if existing.AttemptID == a.AttemptID && existing.QuestionID == a.QuestionID &&
					existing.QuestionVersionID == a.QuestionVersionID {
					return fmt.Errorf("answer for question %s already exists in attempt %s: %w", a.QuestionID, a.AttemptID, common.ErrConflict)
				}
			}
			st.answers[a.ID] = a
			st.track(a.ID)
		}
		return nil
	})
}

func (r *answerRepo) FindByID(ctx context.Context, _ *sql.Tx, id string) (*model.Answer, error) {
	var (
		a  model.Answer
		ok bool
	)
	r.d.read(ctx, func(st *state) { a, ok = st.answers[id] })
	if !ok {
		return nil, fmt.Errorf("answer %s: %w", id, common.ErrNotFound)
	}
	return &a, nil
}

func (r *answerRepo) ListByAttempt(ctx context.Context, _ *sql.Tx, attemptID string) ([]model.Answer, error) {
	answers := []model.Answer{}
	r.d.read(ctx, func(st *state) {
		pos := map[string]int{}
		for _, aq := range st.attemptQuestions[attemptID] {
			pos[aq.QuestionID+"/"+aq.QuestionVersionID] = aq.Position
		}
		for _, a := range st.answers {
			if a.AttemptID == attemptID {
				answers = append(answers, a)
			}
		}
		sort.Slice(answers, func(i, j int) bool {
			pi := pos[answers[i].QuestionID+"/"+answers[i].QuestionVersionID]
			pj := pos[answers[j].QuestionID+"/"+answers[j].QuestionVersionID]
			if pi != pj {
				return pi < pj
			}
			return answers[i].ID < answers[j].ID
		})
	})
	return answers, nil
}

func (r *answerRepo) UpdateValue(ctx context.Context, _ *sql.Tx, id string, value int) error {
	return r.d.write(ctx, func(st *state) error {
		a, ok := st.answers[id]
		if !ok || st.attempts[a.AttemptID].Status != model.AttemptInProgress {
			return fmt.Errorf("answer %s is missing or its attempt is finished: %w", id, common.ErrValidation)
		}
		a.Value = value
		st.answers[id] = a
		return nil
	})
}
