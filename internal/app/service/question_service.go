package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/common/permissions"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository"
)

type QuestionService struct {
	store *repository.Store
}

func NewQuestionService(store *repository.Store) *QuestionService {
	return &QuestionService{store: store}
}

type QuestionContent struct {
	Title        string   `json:"title" validate:"required,max=500"`
	Text         string   `json:"text" validate:"required"`
	Options      []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectIndex *int     `json:"correct_index" validate:"required,min=0"`
}

type CreateQuestionRequest struct {
	QuestionContent
	// TestID, when set, also appends the new question to that test.
	TestID string `json:"test_id,omitempty"`
}

// normalize trims the content and checks what struct tags cannot express.
func (c *QuestionContent) normalize() error {
	c.Title = strings.TrimSpace(c.Title)
	c.Text = strings.TrimSpace(c.Text)
	options := make([]string, len(c.Options))
	for i, o := range c.Options {
		options[i] = strings.TrimSpace(o)
	}
	c.Options = options
	if err := common.ValidateStruct(c); err != nil {
		return err
	}
	if *c.CorrectIndex >= len(c.Options) {
		return fmt.Errorf("correct_index %d is out of range for %d options: %w", *c.CorrectIndex, len(c.Options), common.ErrValidation)
	}
	return nil
}

func (c *QuestionContent) version(questionID string, n int) *model.QuestionVersion {
	return &model.QuestionVersion{
		ID:           uuid.NewString(),
		QuestionID:   questionID,
		Version:      n,
		Title:        c.Title,
		Text:         c.Text,
		Options:      c.Options,
		CorrectIndex: *c.CorrectIndex,
	}
}

// ListQuestions returns the latest version of every question the caller may
// list: their own, or all of them with quest:list:read.
func (s *QuestionService) ListQuestions(ctx context.Context, user *model.CurrentUser) ([]model.QuestionDetails, error) {
	if user.Blocked {
		return nil, common.ErrBlocked
	}
	questions, err := s.store.Questions.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	canRead := permissions.Has(user, permissions.QuestRead)
	out := []model.QuestionDetails{}
	for i := range questions {
		q := &questions[i]
		isAuthor := q.AuthorID == user.ID
		if permissions.EnsureDefaultOrPermission(user, isAuthor, permissions.QuestListRead) != nil {
			continue
		}
		v, err := s.store.Questions.LatestVersion(ctx, nil, q.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *model.NewQuestionDetails(q, v, isAuthor || canRead))
	}
	return out, nil
}

func (s *QuestionService) CreateQuestion(ctx context.Context, user *model.CurrentUser, req CreateQuestionRequest) (*model.QuestionDetails, error) {
	var details *model.QuestionDetails
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		isDefault := false
		if req.TestID != "" {
			_, course, err := loadTest(ctx, s.store, tx, req.TestID, true)
			if err != nil {
				return err
			}
			if err := ensureNotLocked(ctx, s.store, tx, user, req.TestID); err != nil {
				return err
			}
			isDefault = isCourseTeacher(course, user)
		}
		if err := permissions.EnsureDefaultOrPermission(user, isDefault, permissions.QuestCreate); err != nil {
			return err
		}
		if err := req.normalize(); err != nil {
			return err
		}

		q := &model.Question{ID: uuid.NewString(), AuthorID: user.ID}
		if err := s.store.Questions.Create(ctx, tx, q); err != nil {
			return err
		}
		v := req.version(q.ID, 1)
		if err := s.store.Questions.CreateVersion(ctx, tx, v); err != nil {
			return err
		}
		if req.TestID != "" {
			if _, err := appendQuestion(ctx, s.store, tx, req.TestID, q.ID); err != nil {
				return err
			}
		}
		details = model.NewQuestionDetails(q, v, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// CreateVersion stores content as the next version of the question. Earlier
// versions stay untouched.
func (s *QuestionService) CreateVersion(ctx context.Context, user *model.CurrentUser, questionID string, content QuestionContent) (*model.QuestionDetails, error) {
	var details *model.QuestionDetails
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		q, err := s.store.Questions.FindByID(ctx, tx, questionID)
		if err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, q.AuthorID == user.ID, permissions.QuestUpdate); err != nil {
			return err
		}
		if err := content.normalize(); err != nil {
			return err
		}
		latest, err := s.store.Questions.LatestVersion(ctx, tx, questionID)
		if err != nil {
			return err
		}
		v := content.version(questionID, latest.Version+1)
		if err := s.store.Questions.CreateVersion(ctx, tx, v); err != nil {
			return err
		}
		details = model.NewQuestionDetails(q, v, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// readAccess resolves the read guard for a question. withKey tells whether the
// correct index may be shown.
func (s *QuestionService) readAccess(ctx context.Context, user *model.CurrentUser, q *model.Question) (withKey bool, err error) {
	isAuthor := q.AuthorID == user.ID
	isDefault := isAuthor
	if !isDefault {
		isDefault, err = s.store.Attempts.HasInProgressWithQuestion(ctx, nil, user.ID, q.ID)
		if err != nil {
			return false, err
		}
	}
	if err := permissions.EnsureDefaultOrPermission(user, isDefault, permissions.QuestRead); err != nil {
		return false, err
	}
	return isAuthor || permissions.Has(user, permissions.QuestRead), nil
}

func (s *QuestionService) GetLatest(ctx context.Context, user *model.CurrentUser, questionID string) (*model.QuestionDetails, error) {
	q, err := s.store.Questions.FindByID(ctx, nil, questionID)
	if err != nil {
		return nil, err
	}
	withKey, err := s.readAccess(ctx, user, q)
	if err != nil {
		return nil, err
	}
	v, err := s.store.Questions.LatestVersion(ctx, nil, questionID)
	if err != nil {
		return nil, err
	}
	return model.NewQuestionDetails(q, v, withKey), nil
}

func (s *QuestionService) GetVersion(ctx context.Context, user *model.CurrentUser, questionID string, version int) (*model.QuestionDetails, error) {
	q, err := s.store.Questions.FindByID(ctx, nil, questionID)
	if err != nil {
		return nil, err
	}
	withKey, err := s.readAccess(ctx, user, q)
	if err != nil {
		return nil, err
	}
	v, err := s.store.Questions.FindVersion(ctx, nil, questionID, version)
	if err != nil {
		return nil, err
	}
	return model.NewQuestionDetails(q, v, withKey), nil
}

// DeleteQuestion hides the question. Versions, attempt snapshots and answers
// that reference it are kept.
func (s *QuestionService) DeleteQuestion(ctx context.Context, user *model.CurrentUser, questionID string) error {
	return s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		q, err := s.store.Questions.FindByID(ctx, tx, questionID)
		if err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, q.AuthorID == user.ID, permissions.QuestDel); err != nil {
			return err
		}
		return s.store.Questions.SoftDelete(ctx, tx, questionID)
	})
}
