package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/common/permissions"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository"
)

type TestService struct {
	store         *repository.Store
	notifications *NotificationService
	now           func() time.Time
}

func NewTestService(store *repository.Store, notifications *NotificationService) *TestService {
	return &TestService{store: store, notifications: notifications, now: time.Now}
}

type CreateTestRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	IsActive bool   `json:"is_active"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type AddQuestionRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
}

type ReorderRequest struct {
	QuestionIDs []string `json:"question_ids" validate:"required,dive,required"`
}

func errTestNotInCourse(testID, courseID string) error {
	return fmt.Errorf("test %s in course %s: %w", testID, courseID, common.ErrNotFound)
}

// ensureNotLocked fails once any attempt exists for the test. Blocked callers
// are rejected first and never learn the lock state.
func ensureNotLocked(ctx context.Context, store *repository.Store, tx *sql.Tx, user *model.CurrentUser, testID string) error {
	if err := permissions.EnsureNotBlocked(user); err != nil {
		return err
	}
	locked, err := store.Attempts.HasAttempts(ctx, tx, testID)
	if err != nil {
		return err
	}
	if locked {
		return fmt.Errorf("test %s: %w", testID, common.ErrLocked)
	}
	return nil
}

func (s *TestService) CreateTest(ctx context.Context, user *model.CurrentUser, courseID string, req CreateTestRequest) (*model.Test, error) {
	req.Title = strings.TrimSpace(req.Title)
	var test *model.Test
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		course, err := s.store.Courses.FindByID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, isCourseTeacher(course, user), permissions.CourseTestAdd); err != nil {
			return err
		}
		if err := common.ValidateStruct(req); err != nil {
			return err
		}
		test = &model.Test{
			ID:       uuid.NewString(),
			CourseID: course.ID,
			Title:    req.Title,
			IsActive: req.IsActive,
		}
		return s.store.Tests.Create(ctx, tx, test)
	})
	if err != nil {
		return nil, err
	}
	return test, nil
}

func (s *TestService) DeleteTest(ctx context.Context, user *model.CurrentUser, courseID, testID string) error {
	return s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, course, err := loadCourseTest(ctx, s.store, tx, courseID, testID)
		if err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, isCourseTeacher(course, user), permissions.CourseTestDel); err != nil {
			return err
		}
		return s.store.Tests.SoftDelete(ctx, tx, testID)
	})
}

func (s *TestService) GetActive(ctx context.Context, user *model.CurrentUser, courseID, testID string) (bool, error) {
	test, course, err := loadCourseTest(ctx, s.store, nil, courseID, testID)
	if err != nil {
		return false, err
	}
	member, err := isCourseMember(ctx, s.store, nil, course, user)
	if err != nil {
		return false, err
	}
	if err := permissions.EnsureDefaultOrPermission(user, member, permissions.CourseTestRead); err != nil {
		return false, err
	}
	return test.IsActive, nil
}

// SetActive switches the test on or off. Switching off finishes every attempt
// still in progress, scored from its current answers. Switching an inactive
// test on notifies every enrolled student.
func (s *TestService) SetActive(ctx context.Context, user *model.CurrentUser, courseID, testID string, active bool) (*model.Test, error) {
	var (
		test    *model.Test
		created []model.Notification
	)
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var (
			course *model.Course
			err    error
		)
		test, course, err = loadCourseTest(ctx, s.store, tx, courseID, testID)
		if err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, isCourseTeacher(course, user), permissions.CourseTestWrite); err != nil {
			return err
		}
		if _, err := s.store.Tests.FindByIDForUpdate(ctx, tx, testID); err != nil {
			return err
		}
		wasActive := test.IsActive
		if err := s.store.Tests.SetActive(ctx, tx, testID, active); err != nil {
			return err
		}
		test.IsActive = active

		if !active {
			running, err := s.store.Attempts.ListInProgressByTest(ctx, tx, testID)
			if err != nil {
				return err
			}
			now := s.now().UTC()
			for i := range running {
				_, err := finishAttempt(ctx, s.store, tx, &running[i], now)
				if errors.Is(err, common.ErrConflict) {
					// finished by its owner since it was listed
					continue
				}
				if err != nil {
					return err
				}
			}
			return nil
		}

		if wasActive {
			return nil
		}
		students, err := s.store.Enrollments.ListStudents(ctx, tx, course.ID)
		if err != nil {
			return err
		}
		for _, st := range students {
			n, err := s.notifications.Notify(ctx, tx, st.ID,
				fmt.Sprintf("Test «%s» is now active and open for attempts.", test.Title),
				map[string]interface{}{"type": model.NotificationTestActive, "course_id": course.ID, "test_id": test.ID})
			if err != nil {
				return err
			}
			created = append(created, *n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Publish(ctx, created)
	return test, nil
}

func (s *TestService) ListTestQuestions(ctx context.Context, user *model.CurrentUser, testID string) ([]model.TestQuestion, error) {
	_, course, err := loadTest(ctx, s.store, nil, testID, false)
	if err != nil {
		return nil, err
	}
	member, err := isCourseMember(ctx, s.store, nil, course, user)
	if err != nil {
		return nil, err
	}
	if err := permissions.EnsureDefaultOrPermission(user, member, permissions.CourseTestRead); err != nil {
		return nil, err
	}
	return s.store.Tests.ListQuestions(ctx, nil, testID)
}

// AddQuestion appends questionID at the end of the test. By default only a
// course teacher who also authored the question may do so.
func (s *TestService) AddQuestion(ctx context.Context, user *model.CurrentUser, testID, questionID string) (*model.TestQuestion, error) {
	var link *model.TestQuestion
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, course, err := loadTest(ctx, s.store, tx, testID, true)
		if err != nil {
			return err
		}
		question, err := s.store.Questions.FindByID(ctx, tx, questionID)
		if err != nil {
			return err
		}
		if err := ensureNotLocked(ctx, s.store, tx, user, testID); err != nil {
			return err
		}
		isDefault := isCourseTeacher(course, user) && question.AuthorID == user.ID
		if err := permissions.EnsureDefaultOrPermission(user, isDefault, permissions.TestQuestAdd); err != nil {
			return err
		}
		link, err = appendQuestion(ctx, s.store, tx, testID, questionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// appendQuestion links questionID at the next free position.
func appendQuestion(ctx context.Context, store *repository.Store, tx *sql.Tx, testID, questionID string) (*model.TestQuestion, error) {
	links, err := store.Tests.ListQuestions(ctx, tx, testID)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		if l.QuestionID == questionID {
			return nil, fmt.Errorf("question %s is already in test %s: %w", questionID, testID, common.ErrConflict)
		}
	}
	link := &model.TestQuestion{TestID: testID, QuestionID: questionID, Position: len(links)}
	if err := store.Tests.AddQuestion(ctx, tx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// RemoveQuestion unlinks questionID and closes the gap it leaves.
func (s *TestService) RemoveQuestion(ctx context.Context, user *model.CurrentUser, testID, questionID string) error {
	return s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, course, err := loadTest(ctx, s.store, tx, testID, true)
		if err != nil {
			return err
		}
		if err := ensureNotLocked(ctx, s.store, tx, user, testID); err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, isCourseTeacher(course, user), permissions.TestQuestDel); err != nil {
			return err
		}
		if err := s.store.Tests.RemoveQuestion(ctx, tx, testID, questionID); err != nil {
			return err
		}
		links, err := s.store.Tests.ListQuestions(ctx, tx, testID)
		if err != nil {
			return err
		}
		ids := make([]string, len(links))
		for i, l := range links {
			ids[i] = l.QuestionID
		}
		return s.store.Tests.SetPositions(ctx, tx, testID, ids)
	})
}

// ReorderQuestions rewrites positions in the order of questionIDs, which must
// be exactly the set of questions in the test.
func (s *TestService) ReorderQuestions(ctx context.Context, user *model.CurrentUser, testID string, questionIDs []string) ([]model.TestQuestion, error) {
	var links []model.TestQuestion
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, course, err := loadTest(ctx, s.store, tx, testID, true)
		if err != nil {
			return err
		}
		if err := ensureNotLocked(ctx, s.store, tx, user, testID); err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, isCourseTeacher(course, user), permissions.TestQuestUpdate); err != nil {
			return err
		}
		current, err := s.store.Tests.ListQuestions(ctx, tx, testID)
		if err != nil {
			return err
		}
		if err := validatePermutation(current, questionIDs); err != nil {
			return err
		}
		if err := s.store.Tests.SetPositions(ctx, tx, testID, questionIDs); err != nil {
			return err
		}
		links, err = s.store.Tests.ListQuestions(ctx, tx, testID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

func validatePermutation(current []model.TestQuestion, ids []string) error {
	if len(current) == 0 {
		return fmt.Errorf("test has no questions to reorder: %w", common.ErrValidation)
	}
	if len(ids) != len(current) {
		return fmt.Errorf("expected %d question ids, got %d: %w", len(current), len(ids), common.ErrValidation)
	}
	inTest := make(map[string]bool, len(current))
	for _, l := range current {
		inTest[l.QuestionID] = true
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("question %s listed twice: %w", id, common.ErrValidation)
		}
		if !inTest[id] {
			return fmt.Errorf("question %s is not in the test: %w", id, common.ErrValidation)
		}
		seen[id] = true
	}
	return nil
}
