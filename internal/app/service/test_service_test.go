package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/common/permissions"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

func positions(links []model.TestQuestion) map[string]int {
	out := make(map[string]int, len(links))
	for _, l := range links {
		out[l.QuestionID] = l.Position
	}
	return out
}

func TestQuestionPositionsStayDense(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	setup := f.setupCourse(t, teacher, 3, false)
	q1, q2, q3 := setup.questions[0], setup.questions[1], setup.questions[2]

	links, err := f.tests.ListTestQuestions(f.ctx, teacher, setup.test.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{q1: 0, q2: 1, q3: 2}, positions(links))

	require.NoError(t, f.tests.RemoveQuestion(f.ctx, teacher, setup.test.ID, q2))
	links, err = f.tests.ListTestQuestions(f.ctx, teacher, setup.test.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{q1: 0, q3: 1}, positions(links))

	err = f.tests.RemoveQuestion(f.ctx, teacher, setup.test.ID, q2)
	assert.ErrorIs(t, err, common.ErrNotFound)

	link, err := f.tests.AddQuestion(f.ctx, teacher, setup.test.ID, q2)
	require.NoError(t, err)
	assert.Equal(t, 2, link.Position)

	_, err = f.tests.AddQuestion(f.ctx, teacher, setup.test.ID, q2)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestReorderQuestions(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	setup := f.setupCourse(t, teacher, 3, false)
	q1, q2, q3 := setup.questions[0], setup.questions[1], setup.questions[2]

	invalid := [][]string{
		{q1, q2},
		{q1, q2, q2},
		{q1, q2, "unknown"},
		{q1, q2, q3, "extra"},
	}
	for _, ids := range invalid {
		_, err := f.tests.ReorderQuestions(f.ctx, teacher, setup.test.ID, ids)
		assert.ErrorIs(t, err, common.ErrValidation, "%v", ids)
	}

	links, err := f.tests.ReorderQuestions(f.ctx, teacher, setup.test.ID, []string{q3, q1, q2})
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, []string{q3, q1, q2}, []string{links[0].QuestionID, links[1].QuestionID, links[2].QuestionID})
	assert.Equal(t, map[string]int{q3: 0, q1: 1, q2: 2}, positions(links))
}

func TestReorderEmptyTest(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	setup := f.setupCourse(t, teacher, 0, false)

	_, err := f.tests.ReorderQuestions(f.ctx, teacher, setup.test.ID, []string{})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAddQuestionNeedsAuthorAndTeacher(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	colleague := f.user(t, "colleague", model.RoleTeacher)
	outsider := f.user(t, "outsider")
	setup := f.setupCourse(t, teacher, 0, false)

	foreign, err := f.questions.CreateQuestion(f.ctx, colleague, CreateQuestionRequest{QuestionContent: content("Foreign", 1)})
	require.NoError(t, err)
	own, err := f.questions.CreateQuestion(f.ctx, teacher, CreateQuestionRequest{QuestionContent: content("Own", 1)})
	require.NoError(t, err)

	// The teacher role carries test:quest:add, so only callers without it
	// exercise the default rule.
	_, err = f.tests.AddQuestion(f.ctx, outsider, setup.test.ID, own.QuestionID)
	requirePermissionError(t, err, permissions.TestQuestAdd)

	_, err = f.tests.AddQuestion(f.ctx, teacher, setup.test.ID, foreign.QuestionID)
	require.NoError(t, err)

	noRoles := &model.CurrentUser{ID: teacher.ID}
	_, err = f.tests.AddQuestion(f.ctx, noRoles, setup.test.ID, own.QuestionID)
	require.NoError(t, err)

	other, err := f.questions.CreateQuestion(f.ctx, colleague, CreateQuestionRequest{QuestionContent: content("Other", 2)})
	require.NoError(t, err)
	_, err = f.tests.AddQuestion(f.ctx, noRoles, setup.test.ID, other.QuestionID)
	requirePermissionError(t, err, permissions.TestQuestAdd)
}

func TestCompositionLocksOnceAttemptsExist(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	student := f.user(t, "student")
	setup := f.setupCourse(t, teacher, 2, true)
	f.enroll(t, student, setup.course.ID)

	spare, err := f.questions.CreateQuestion(f.ctx, teacher, CreateQuestionRequest{QuestionContent: content("Spare", 0)})
	require.NoError(t, err)

	_, err = f.attempts.Create(f.ctx, student, setup.test.ID)
	require.NoError(t, err)

	_, err = f.tests.AddQuestion(f.ctx, teacher, setup.test.ID, spare.QuestionID)
	assert.ErrorIs(t, err, common.ErrLocked)

	err = f.tests.RemoveQuestion(f.ctx, teacher, setup.test.ID, setup.questions[0])
	assert.ErrorIs(t, err, common.ErrLocked)

	_, err = f.tests.ReorderQuestions(f.ctx, teacher, setup.test.ID, []string{setup.questions[1], setup.questions[0]})
	assert.ErrorIs(t, err, common.ErrLocked)

	_, err = f.questions.CreateQuestion(f.ctx, teacher, CreateQuestionRequest{QuestionContent: content("Late", 0), TestID: setup.test.ID})
	assert.ErrorIs(t, err, common.ErrLocked)

	links, err := f.tests.ListTestQuestions(f.ctx, teacher, setup.test.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	// blocked callers are rejected before the lock state is revealed
	blocked := *teacher
	blocked.Blocked = true
	_, err = f.tests.AddQuestion(f.ctx, &blocked, setup.test.ID, spare.QuestionID)
	assert.ErrorIs(t, err, common.ErrBlocked)
	err = f.tests.RemoveQuestion(f.ctx, &blocked, setup.test.ID, setup.questions[0])
	assert.ErrorIs(t, err, common.ErrBlocked)
	_, err = f.tests.ReorderQuestions(f.ctx, &blocked, setup.test.ID, []string{setup.questions[1], setup.questions[0]})
	assert.ErrorIs(t, err, common.ErrBlocked)
	_, err = f.questions.CreateQuestion(f.ctx, &blocked, CreateQuestionRequest{QuestionContent: content("Late", 0), TestID: setup.test.ID})
	assert.ErrorIs(t, err, common.ErrBlocked)
}

func TestActivationNotifiesEnrolledStudents(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	setup := f.setupCourse(t, teacher, 1, false)
	f.enroll(t, alice, setup.course.ID)
	f.enroll(t, bob, setup.course.ID)
	published := f.pub.count()

	_, err := f.tests.SetActive(f.ctx, alice, setup.course.ID, setup.test.ID, true)
	requirePermissionError(t, err, permissions.CourseTestWrite)

	test, err := f.tests.SetActive(f.ctx, teacher, setup.course.ID, setup.test.ID, true)
	require.NoError(t, err)
	assert.True(t, test.IsActive)
	assert.Equal(t, published+2, f.pub.count())

	for _, u := range []*model.CurrentUser{alice, bob} {
		mine, err := f.notifications.ListMine(f.ctx, u)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, model.NotificationTestActive, mine[1].Payload["type"])
		assert.Equal(t, setup.test.ID, mine[1].Payload["test_id"])
	}

	_, err = f.tests.SetActive(f.ctx, teacher, setup.course.ID, setup.test.ID, true)
	require.NoError(t, err)
	assert.Equal(t, published+2, f.pub.count())

	active, err := f.tests.GetActive(f.ctx, alice, setup.course.ID, setup.test.ID)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestTestMustBelongToCourse(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	first := f.setupCourse(t, teacher, 0, false)
	second := f.setupCourse(t, teacher, 0, false)

	_, err := f.tests.GetActive(f.ctx, teacher, second.course.ID, first.test.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = f.tests.DeleteTest(f.ctx, teacher, second.course.ID, first.test.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, f.tests.DeleteTest(f.ctx, teacher, first.course.ID, first.test.ID))
	_, err = f.tests.GetActive(f.ctx, teacher, first.course.ID, first.test.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
