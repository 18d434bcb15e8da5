package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	pushed []model.Notification
	err    error
}

func (p *fakePublisher) Push(_ context.Context, notifications []model.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.pushed = append(p.pushed, notifications...)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushed)
}

type fixture struct {
	ctx   context.Context
	store *repository.Store
	pub   *fakePublisher

	users         *UserService
	courses       *CourseService
	tests         *TestService
	questions     *QuestionService
	attempts      *AttemptService
	answers       *AnswerService
	results       *ResultService
	notifications *NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	pub := &fakePublisher{}
	notifications := NewNotificationService(store, pub)
	return &fixture{
		ctx:           context.Background(),
		store:         store,
		pub:           pub,
		users:         NewUserService(store),
		courses:       NewCourseService(store, notifications),
		tests:         NewTestService(store, notifications),
		questions:     NewQuestionService(store),
		attempts:      NewAttemptService(store, nil),
		answers:       NewAnswerService(store),
		results:       NewResultService(store),
		notifications: notifications,
	}
}

// user registers a user row and returns its identity bundle.
func (f *fixture) user(t *testing.T, id string, roles ...string) *model.CurrentUser {
	t.Helper()
	u := &model.CurrentUser{ID: id, Username: id, FullName: "User " + id, Roles: roles}
	_, err := f.users.Register(f.ctx, u)
	require.NoError(t, err)
	return u
}

func content(title string, correct int) QuestionContent {
	return QuestionContent{
		Title:        title,
		Text:         title + "?",
		Options:      []string{"a", "b", "c"},
		CorrectIndex: &correct,
	}
}

type courseSetup struct {
	course    *model.Course
	test      *model.Test
	questions []string
}

// setupCourse creates a course taught by teacher with one test holding n
// questions, each with option 0 correct.
func (f *fixture) setupCourse(t *testing.T, teacher *model.CurrentUser, n int, active bool) courseSetup {
	t.Helper()
	course, err := f.courses.CreateCourse(f.ctx, teacher, CreateCourseRequest{Title: "Algebra I"})
	require.NoError(t, err)
	test, err := f.tests.CreateTest(f.ctx, teacher, course.ID, CreateTestRequest{Title: "Midterm", IsActive: active})
	require.NoError(t, err)

	setup := courseSetup{course: course, test: test}
	for i := 0; i < n; i++ {
		q, err := f.questions.CreateQuestion(f.ctx, teacher, CreateQuestionRequest{
			QuestionContent: content("Question", 0),
			TestID:          test.ID,
		})
		require.NoError(t, err)
		setup.questions = append(setup.questions, q.QuestionID)
	}
	return setup
}

func (f *fixture) enroll(t *testing.T, student *model.CurrentUser, courseID string) {
	t.Helper()
	_, err := f.courses.Enroll(f.ctx, student, courseID, "")
	require.NoError(t, err)
}

func requirePermissionError(t *testing.T, err error, permission string) {
	t.Helper()
	var permErr *common.PermissionError
	require.True(t, errors.As(err, &permErr), "expected permission error, got %v", err)
	require.Equal(t, permission, permErr.Permission)
}
