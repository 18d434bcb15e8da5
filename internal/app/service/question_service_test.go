package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/common/permissions"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

func TestCreateQuestionValidation(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)

	cases := map[string]QuestionContent{
		"one option":          {Title: "T", Text: "x", Options: []string{"only"}, CorrectIndex: intPtr(0)},
		"blank option":        {Title: "T", Text: "x", Options: []string{"a", "  "}, CorrectIndex: intPtr(0)},
		"missing key":         {Title: "T", Text: "x", Options: []string{"a", "b"}},
		"key out of range":    {Title: "T", Text: "x", Options: []string{"a", "b"}, CorrectIndex: intPtr(2)},
		"negative key":        {Title: "T", Text: "x", Options: []string{"a", "b"}, CorrectIndex: intPtr(-1)},
		"blank title":         {Title: "   ", Text: "x", Options: []string{"a", "b"}, CorrectIndex: intPtr(0)},
		"blank question text": {Title: "T", Text: "", Options: []string{"a", "b"}, CorrectIndex: intPtr(0)},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.questions.CreateQuestion(f.ctx, teacher, CreateQuestionRequest{QuestionContent: c})
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}

	q, err := f.questions.CreateQuestion(f.ctx, teacher, CreateQuestionRequest{QuestionContent: content("  Spaced  ", 2)})
	require.NoError(t, err)
	assert.Equal(t, "Spaced", q.Title)
	assert.Equal(t, 1, q.Version)
	require.NotNil(t, q.CorrectIndex)
	assert.Equal(t, 2, *q.CorrectIndex)
}

func TestCreateQuestionPermissions(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	student := f.user(t, "student")
	setup := f.setupCourse(t, teacher, 0, false)

	_, err := f.questions.CreateQuestion(f.ctx, student, CreateQuestionRequest{QuestionContent: content("Q", 0)})
	requirePermissionError(t, err, permissions.QuestCreate)

	_, err = f.questions.CreateQuestion(f.ctx, student, CreateQuestionRequest{QuestionContent: content("Q", 0), TestID: setup.test.ID})
	requirePermissionError(t, err, permissions.QuestCreate)

	noRoles := &model.CurrentUser{ID: teacher.ID}
	q, err := f.questions.CreateQuestion(f.ctx, noRoles, CreateQuestionRequest{QuestionContent: content("Q", 0), TestID: setup.test.ID})
	require.NoError(t, err)

	links, err := f.tests.ListTestQuestions(f.ctx, teacher, setup.test.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, q.QuestionID, links[0].QuestionID)
}

func TestQuestionVersions(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	other := f.user(t, "other")
	q, err := f.questions.CreateQuestion(f.ctx, teacher, CreateQuestionRequest{QuestionContent: content("First", 0)})
	require.NoError(t, err)

	_, err = f.questions.CreateVersion(f.ctx, other, q.QuestionID, content("Hijack", 1))
	requirePermissionError(t, err, permissions.QuestUpdate)

	v2, err := f.questions.CreateVersion(f.ctx, teacher, q.QuestionID, content("Second", 1))
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	latest, err := f.questions.GetLatest(f.ctx, teacher, q.QuestionID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, "Second", latest.Title)

	first, err := f.questions.GetVersion(f.ctx, teacher, q.QuestionID, 1)
	require.NoError(t, err)
	assert.Equal(t, "First", first.Title)
	require.NotNil(t, first.CorrectIndex)
	assert.Equal(t, 0, *first.CorrectIndex)

	_, err = f.questions.GetVersion(f.ctx, teacher, q.QuestionID, 3)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestQuestionReadAccess(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	student := f.user(t, "student")
	outsider := f.user(t, "outsider")
	roleStudent := f.user(t, "role-student", model.RoleStudent)
	setup := f.setupCourse(t, teacher, 1, true)
	f.enroll(t, student, setup.course.ID)
	questionID := setup.questions[0]

	_, err := f.questions.GetLatest(f.ctx, student, questionID)
	requirePermissionError(t, err, permissions.QuestRead)

	_, err = f.attempts.Create(f.ctx, student, setup.test.ID)
	require.NoError(t, err)

	during, err := f.questions.GetLatest(f.ctx, student, questionID)
	require.NoError(t, err)
	assert.Equal(t, "Question", during.Title)
	assert.Nil(t, during.CorrectIndex)

	_, err = f.questions.GetLatest(f.ctx, outsider, questionID)
	requirePermissionError(t, err, permissions.QuestRead)

	granted, err := f.questions.GetLatest(f.ctx, roleStudent, questionID)
	require.NoError(t, err)
	assert.NotNil(t, granted.CorrectIndex)
}

func TestListQuestions(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	author := &model.CurrentUser{ID: "author", Permissions: []string{permissions.QuestCreate}}
	outsider := f.user(t, "outsider")

	_, err := f.questions.CreateQuestion(f.ctx, teacher, CreateQuestionRequest{QuestionContent: content("Teacher's", 0)})
	require.NoError(t, err)
	_, err = f.questions.CreateQuestion(f.ctx, author, CreateQuestionRequest{QuestionContent: content("Author's", 1)})
	require.NoError(t, err)

	all, err := f.questions.ListQuestions(f.ctx, teacher)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, q := range all {
		assert.NotNil(t, q.CorrectIndex)
	}

	own, err := f.questions.ListQuestions(f.ctx, author)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "Author's", own[0].Title)
	assert.NotNil(t, own[0].CorrectIndex)

	none, err := f.questions.ListQuestions(f.ctx, outsider)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.questions.ListQuestions(f.ctx, &model.CurrentUser{ID: "x", Blocked: true})
	assert.ErrorIs(t, err, common.ErrBlocked)
}

func TestDeleteQuestion(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	other := f.user(t, "other")
	q, err := f.questions.CreateQuestion(f.ctx, teacher, CreateQuestionRequest{QuestionContent: content("Gone", 0)})
	require.NoError(t, err)

	err = f.questions.DeleteQuestion(f.ctx, other, q.QuestionID)
	requirePermissionError(t, err, permissions.QuestDel)

	require.NoError(t, f.questions.DeleteQuestion(f.ctx, teacher, q.QuestionID))
	_, err = f.questions.GetLatest(f.ctx, teacher, q.QuestionID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	err = f.questions.DeleteQuestion(f.ctx, teacher, q.QuestionID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
