package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/7rockstarmade/LogicModule/internal/app/grading"
	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/common/permissions"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository"
)

// AttemptLocker serializes attempt creation per (test, user) across replicas.
type AttemptLocker interface {
	TryLock(ctx context.Context, name string) (unlock func(context.Context), acquired bool, err error)
}

var errActiveAttempt = fmt.Errorf("you already have an active attempt for this test: %w", common.ErrConflict)

type AttemptService struct {
	store  *repository.Store
	locker AttemptLocker // nil disables the distributed lock
	now    func() time.Time
}

func NewAttemptService(store *repository.Store, locker AttemptLocker) *AttemptService {
	return &AttemptService{store: store, locker: locker, now: time.Now}
}

// Create starts an attempt on testID, freezing the current latest version of
// every live question in the test and creating one unanswered slot for each.
func (s *AttemptService) Create(ctx context.Context, user *model.CurrentUser, testID string) (*model.AttemptDetails, error) {
	if s.locker != nil {
		unlock, acquired, err := s.locker.TryLock(ctx, testID+":"+user.ID)
		switch {
		case err != nil:
			log.Printf("WARN: Attempt lock unavailable for test %s user %s, relying on database constraint: %v", testID, user.ID, err)
		case !acquired:
			return nil, errActiveAttempt
		default:
			defer unlock(context.Background())
		}
	}

	var attempt *model.Attempt
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		test, course, err := loadTest(ctx, s.store, tx, testID, true)
		if err != nil {
			return err
		}
		if !test.IsActive {
			return fmt.Errorf("test %s is not active: %w", testID, common.ErrValidation)
		}
		member, err := isCourseMember(ctx, s.store, tx, course, user)
		if err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, member, permissions.CourseTestRead); err != nil {
			return err
		}
		if _, err := s.store.Attempts.FindInProgress(ctx, tx, user.ID, testID); err == nil {
			return errActiveAttempt
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		snapshot, err := s.snapshot(ctx, tx, testID)
		if err != nil {
			return err
		}
		if len(snapshot) == 0 {
			return fmt.Errorf("test %s has no questions: %w", testID, common.ErrValidation)
		}

		attempt = &model.Attempt{
			ID:     uuid.NewString(),
			UserID: user.ID,
			TestID: testID,
			Status: model.AttemptInProgress,
		}
		if err := s.store.Attempts.Create(ctx, tx, attempt); err != nil {
			if errors.Is(err, common.ErrConflict) {
				return errActiveAttempt
			}
			return err
		}

		frozen := make([]model.AttemptQuestion, len(snapshot))
		answers := make([]model.Answer, len(snapshot))
		for i, v := range snapshot {
			frozen[i] = model.AttemptQuestion{
				AttemptID:         attempt.ID,
				QuestionID:        v.QuestionID,
				QuestionVersionID: v.ID,
				Position:          i,
			}
			answers[i] = model.Answer{
				ID:                uuid.NewString(),
				AttemptID:         attempt.ID,
				QuestionID:        v.QuestionID,
				QuestionVersionID: v.ID,
				Value:             model.AnswerUnanswered,
			}
		}
		if err := s.store.Attempts.AddQuestions(ctx, tx, frozen); err != nil {
			return err
		}
		return s.store.Answers.CreateBatch(ctx, tx, answers)
	})
	if err != nil {
		return nil, err
	}
	return s.details(ctx, attempt)
}

// snapshot resolves the latest version of each live question linked to the
// test, in position order. Logically deleted questions are skipped.
func (s *AttemptService) snapshot(ctx context.Context, tx *sql.Tx, testID string) ([]*model.QuestionVersion, error) {
	links, err := s.store.Tests.ListQuestions(ctx, tx, testID)
	if err != nil {
		return nil, err
	}
	versions := make([]*model.QuestionVersion, 0, len(links))
	for _, l := range links {
		if _, err := s.store.Questions.FindByID(ctx, tx, l.QuestionID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			return nil, err
		}
		v, err := s.store.Questions.LatestVersion(ctx, tx, l.QuestionID)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, nil
}

func (s *AttemptService) Get(ctx context.Context, user *model.CurrentUser, attemptID string) (*model.AttemptDetails, error) {
	attempt, err := s.store.Attempts.FindByID(ctx, nil, attemptID)
	if err != nil {
		return nil, err
	}
	_, course, err := loadTest(ctx, s.store, nil, attempt.TestID, false)
	if err != nil {
		return nil, err
	}
	isDefault := attempt.UserID == user.ID || isCourseTeacher(course, user)
	if err := permissions.EnsureDefaultOrPermission(user, isDefault, permissions.TestAnswerRead); err != nil {
		return nil, err
	}
	return s.details(ctx, attempt)
}

// details joins the frozen snapshot with the answer slots. Correct indexes
// are never included.
func (s *AttemptService) details(ctx context.Context, attempt *model.Attempt) (*model.AttemptDetails, error) {
	frozen, err := s.store.Attempts.ListQuestions(ctx, nil, attempt.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(frozen))
	for i, aq := range frozen {
		ids[i] = aq.QuestionVersionID
	}
	versions, err := s.store.Questions.FindVersionsByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	answers, err := s.store.Answers.ListByAttempt(ctx, nil, attempt.ID)
	if err != nil {
		return nil, err
	}
	bySlot := make(map[string]model.Answer, len(answers))
	for _, a := range answers {
		bySlot[a.QuestionID+"/"+a.QuestionVersionID] = a
	}

	out := &model.AttemptDetails{Attempt: *attempt, Items: make([]model.AttemptItem, 0, len(frozen))}
	for _, aq := range frozen {
		v, ok := versions[aq.QuestionVersionID]
		if !ok {
			return nil, fmt.Errorf("attempt %s references missing version %s", attempt.ID, aq.QuestionVersionID)
		}
		a := bySlot[aq.QuestionID+"/"+aq.QuestionVersionID]
		out.Items = append(out.Items, model.AttemptItem{
			Position:          aq.Position,
			QuestionID:        aq.QuestionID,
			QuestionVersionID: v.ID,
			Version:           v.Version,
			Title:             v.Title,
			Text:              v.Text,
			Options:           append([]string(nil), v.Options...),
			AnswerID:          a.ID,
			Value:             a.Value,
		})
	}
	return out, nil
}

// Finish closes the caller's own attempt and scores it. Finishing an already
// finished attempt returns it unchanged.
func (s *AttemptService) Finish(ctx context.Context, user *model.CurrentUser, attemptID string) (*model.Attempt, error) {
	var attempt *model.Attempt
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		attempt, err = s.store.Attempts.FindByIDForUpdate(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if _, _, err := loadTest(ctx, s.store, tx, attempt.TestID, false); err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, attempt.UserID == user.ID, ""); err != nil {
			return err
		}
		if attempt.IsFinished() {
			return nil
		}
		attempt, err = finishAttempt(ctx, s.store, tx, attempt, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

// finishAttempt scores attempt from its current answers, each against its own
// frozen version, and marks it finished at now.
func finishAttempt(ctx context.Context, store *repository.Store, tx *sql.Tx, attempt *model.Attempt, now time.Time) (*model.Attempt, error) {
	answers, err := store.Answers.ListByAttempt(ctx, tx, attempt.ID)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("attempt %s has no answers: %w", attempt.ID, common.ErrValidation)
	}
	ids := make([]string, len(answers))
	for i, a := range answers {
		ids[i] = a.QuestionVersionID
	}
	versions, err := store.Questions.FindVersionsByIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	score := grading.Score(answers, versions)
	if err := store.Attempts.Finish(ctx, tx, attempt.ID, score, now); err != nil {
		return nil, err
	}

	finished := *attempt
	finished.Status = model.AttemptFinished
	finished.FinishedAt = &now
	finished.Score = decimal.NewNullDecimal(score)
	return &finished, nil
}
