package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7rockstarmade/LogicModule/internal/common/permissions"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

// finishedAttempt runs one attempt for user and finishes it with values.
func (f *fixture) finishedAttempt(t *testing.T, user *model.CurrentUser, testID string, values ...int) *model.Attempt {
	t.Helper()
	details, err := f.attempts.Create(f.ctx, user, testID)
	require.NoError(t, err)
	f.answerAll(t, user, details, values...)
	finished, err := f.attempts.Finish(f.ctx, user, details.ID)
	require.NoError(t, err)
	return finished
}

func TestResultsForTeacher(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	setup := f.setupCourse(t, teacher, 2, true)
	f.enroll(t, alice, setup.course.ID)
	f.enroll(t, bob, setup.course.ID)

	f.finishedAttempt(t, alice, setup.test.ID, 0, 0)
	f.finishedAttempt(t, bob, setup.test.ID, 1, 0)
	_, err := f.attempts.Create(f.ctx, alice, setup.test.ID)
	require.NoError(t, err)

	users, err := f.results.Users(f.ctx, teacher, setup.test.ID, "")
	require.NoError(t, err)
	names := map[string]string{}
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	assert.Equal(t, map[string]string{"alice": "User alice", "bob": "User bob"}, names)

	grades, err := f.results.Grades(f.ctx, teacher, setup.test.ID, "")
	require.NoError(t, err)
	assert.Len(t, grades, 2)

	bobOnly, err := f.results.Grades(f.ctx, teacher, setup.test.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobOnly, 1)
	assert.Equal(t, "50", bobOnly[0].Score.Decimal.String())

	answers, err := f.results.Answers(f.ctx, teacher, setup.test.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	require.Len(t, answers[0].Answers, 2)
	first, second := answers[0].Answers[0], answers[0].Answers[1]
	assert.Equal(t, 1, first.Value)
	assert.Equal(t, 0, first.CorrectIndex)
	assert.False(t, first.IsCorrect)
	assert.True(t, second.IsCorrect)
}

func TestResultsScopedToCaller(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	setup := f.setupCourse(t, teacher, 1, true)
	f.enroll(t, alice, setup.course.ID)
	f.enroll(t, bob, setup.course.ID)

	f.finishedAttempt(t, alice, setup.test.ID, 0)
	f.finishedAttempt(t, bob, setup.test.ID, 1)

	mine, err := f.results.Grades(f.ctx, alice, setup.test.ID, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, alice.ID, mine[0].UserID)
	assert.Equal(t, "100", mine[0].Score.Decimal.String())

	users, err := f.results.Users(f.ctx, alice, setup.test.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)

	_, err = f.results.Grades(f.ctx, alice, setup.test.ID, bob.ID)
	requirePermissionError(t, err, permissions.TestAnswerRead)
}
