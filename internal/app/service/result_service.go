package service

import (
	"context"

	"github.com/7rockstarmade/LogicModule/internal/app/grading"
	"github.com/7rockstarmade/LogicModule/internal/common/permissions"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository"
)

// ResultService reports on finished attempts of a test.
type ResultService struct {
	store *repository.Store
}

func NewResultService(store *repository.Store) *ResultService {
	return &ResultService{store: store}
}

// scope runs the result guard and returns the user id results are limited
// to, "" meaning everyone. Callers who neither teach the course nor hold
// test:answer:read only ever see their own results.
func (s *ResultService) scope(ctx context.Context, user *model.CurrentUser, testID, userID string) (string, error) {
	_, course, err := loadTest(ctx, s.store, nil, testID, false)
	if err != nil {
		return "", err
	}
	isTeacher := isCourseTeacher(course, user)
	isSelf := userID == "" || userID == user.ID
	if err := permissions.EnsureDefaultOrPermission(user, isTeacher || isSelf, permissions.TestAnswerRead); err != nil {
		return "", err
	}
	if !isTeacher && !permissions.Has(user, permissions.TestAnswerRead) {
		return user.ID, nil
	}
	return userID, nil
}

func (s *ResultService) Users(ctx context.Context, user *model.CurrentUser, testID, userID string) ([]model.TestResultUser, error) {
	scope, err := s.scope(ctx, user, testID, userID)
	if err != nil {
		return nil, err
	}
	return s.store.Attempts.ListFinishedUsers(ctx, nil, testID, scope)
}

func (s *ResultService) Grades(ctx context.Context, user *model.CurrentUser, testID, userID string) ([]model.TestGrade, error) {
	scope, err := s.scope(ctx, user, testID, userID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.store.Attempts.ListFinishedByTest(ctx, nil, testID, scope)
	if err != nil {
		return nil, err
	}
	grades := make([]model.TestGrade, 0, len(attempts))
	for _, a := range attempts {
		grades = append(grades, gradeOf(a))
	}
	return grades, nil
}

// Answers lists every finished attempt with its answers checked against the
// versions they were frozen on.
func (s *ResultService) Answers(ctx context.Context, user *model.CurrentUser, testID, userID string) ([]model.TestAttemptAnswers, error) {
	scope, err := s.scope(ctx, user, testID, userID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.store.Attempts.ListFinishedByTest(ctx, nil, testID, scope)
	if err != nil {
		return nil, err
	}

	out := make([]model.TestAttemptAnswers, 0, len(attempts))
	for _, a := range attempts {
		answers, err := s.store.Answers.ListByAttempt(ctx, nil, a.ID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(answers))
		for i, ans := range answers {
			ids[i] = ans.QuestionVersionID
		}
		versions, err := s.store.Questions.FindVersionsByIDs(ctx, nil, ids)
		if err != nil {
			return nil, err
		}

		item := model.TestAttemptAnswers{TestGrade: gradeOf(a), Answers: make([]model.TestAnswerItem, 0, len(answers))}
		for _, ans := range answers {
			v := versions[ans.QuestionVersionID]
			correctIndex := -1
			if v != nil {
				correctIndex = v.CorrectIndex
			}
			item.Answers = append(item.Answers, model.TestAnswerItem{
				AnswerID:          ans.ID,
				QuestionID:        ans.QuestionID,
				QuestionVersionID: ans.QuestionVersionID,
				Value:             ans.Value,
				CorrectIndex:      correctIndex,
				IsCorrect:         grading.IsCorrect(ans, v),
			})
		}
		out = append(out, item)
	}
	return out, nil
}

func gradeOf(a model.Attempt) model.TestGrade {
	return model.TestGrade{AttemptID: a.ID, UserID: a.UserID, FinishedAt: a.FinishedAt, Score: a.Score}
}
