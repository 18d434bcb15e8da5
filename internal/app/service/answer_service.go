package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/common/permissions"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository"
)

type AnswerService struct {
	store *repository.Store
}

func NewAnswerService(store *repository.Store) *AnswerService {
	return &AnswerService{store: store}
}

type UpdateAnswerRequest struct {
	Value *int `json:"value" validate:"required,min=-1"`
}

// readDefault reports whether user owns attempt or teaches its course. An
// attempt of a deleted test or course is not found.
func (s *AnswerService) readDefault(ctx context.Context, tx *sql.Tx, user *model.CurrentUser, attempt *model.Attempt) (bool, error) {
	_, course, err := loadTest(ctx, s.store, tx, attempt.TestID, false)
	if err != nil {
		return false, err
	}
	return attempt.UserID == user.ID || isCourseTeacher(course, user), nil
}

func (s *AnswerService) ListForAttempt(ctx context.Context, user *model.CurrentUser, attemptID string) ([]model.Answer, error) {
	attempt, err := s.store.Attempts.FindByID(ctx, nil, attemptID)
	if err != nil {
		return nil, err
	}
	isDefault, err := s.readDefault(ctx, nil, user, attempt)
	if err != nil {
		return nil, err
	}
	if err := permissions.EnsureDefaultOrPermission(user, isDefault, permissions.AnswerRead); err != nil {
		return nil, err
	}
	return s.store.Answers.ListByAttempt(ctx, nil, attemptID)
}

func (s *AnswerService) Get(ctx context.Context, user *model.CurrentUser, answerID string) (*model.Answer, error) {
	answer, err := s.store.Answers.FindByID(ctx, nil, answerID)
	if err != nil {
		return nil, err
	}
	attempt, err := s.store.Attempts.FindByID(ctx, nil, answer.AttemptID)
	if err != nil {
		return nil, err
	}
	isDefault, err := s.readDefault(ctx, nil, user, attempt)
	if err != nil {
		return nil, err
	}
	if err := permissions.EnsureDefaultOrPermission(user, isDefault, permissions.AnswerRead); err != nil {
		return nil, err
	}
	return answer, nil
}

// Update sets the chosen option. value is -1 (unanswered) or an index into
// the options of the version the answer was frozen against.
func (s *AnswerService) Update(ctx context.Context, user *model.CurrentUser, answerID string, value int) (*model.Answer, error) {
	return s.write(ctx, user, answerID, permissions.AnswerUpdate, func(ctx context.Context, tx *sql.Tx, answer *model.Answer) error {
		if value != model.AnswerUnanswered {
			versions, err := s.store.Questions.FindVersionsByIDs(ctx, tx, []string{answer.QuestionVersionID})
			if err != nil {
				return err
			}
			v, ok := versions[answer.QuestionVersionID]
			if !ok {
				return fmt.Errorf("version %s of answer %s: %w", answer.QuestionVersionID, answer.ID, common.ErrNotFound)
			}
			if !v.ValidOption(value) {
				return fmt.Errorf("value %d is out of range for %d options: %w", value, len(v.Options), common.ErrValidation)
			}
		}
		answer.Value = value
		return s.store.Answers.UpdateValue(ctx, tx, answer.ID, value)
	})
}

// Reset clears the answer back to unanswered. The row itself is kept.
func (s *AnswerService) Reset(ctx context.Context, user *model.CurrentUser, answerID string) (*model.Answer, error) {
	return s.write(ctx, user, answerID, permissions.AnswerDel, func(ctx context.Context, tx *sql.Tx, answer *model.Answer) error {
		answer.Value = model.AnswerUnanswered
		return s.store.Answers.UpdateValue(ctx, tx, answer.ID, model.AnswerUnanswered)
	})
}

// write runs fn on the answer once the owner-or-permission guard passed and
// the attempt is still in progress. The attempt row stays locked until tx
// ends, so a concurrent finish scores either before or after the write.
func (s *AnswerService) write(ctx context.Context, user *model.CurrentUser, answerID, permission string,
	fn func(ctx context.Context, tx *sql.Tx, answer *model.Answer) error) (*model.Answer, error) {
	var answer *model.Answer
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		answer, err = s.store.Answers.FindByID(ctx, tx, answerID)
		if err != nil {
			return err
		}
		attempt, err := s.store.Attempts.FindByIDForUpdate(ctx, tx, answer.AttemptID)
		if err != nil {
			return err
		}
		if _, _, err := loadTest(ctx, s.store, tx, attempt.TestID, false); err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, attempt.UserID == user.ID, permission); err != nil {
			return err
		}
		if attempt.IsFinished() {
			return fmt.Errorf("attempt %s is finished: %w", attempt.ID, common.ErrValidation)
		}
		return fn(ctx, tx, answer)
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}
