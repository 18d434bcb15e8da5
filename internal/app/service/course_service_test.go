package service

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/common/permissions"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

func TestCreateCourseRequiresPermission(t *testing.T) {
	f := newFixture(t)
	nobody := f.user(t, "nobody")
	teacher := f.user(t, "teacher", model.RoleTeacher)

	_, err := f.courses.CreateCourse(f.ctx, nobody, CreateCourseRequest{Title: "Physics"})
	requirePermissionError(t, err, permissions.CourseAdd)
	assert.Equal(t, http.StatusForbidden, common.HTTPStatusFromError(err))

	course, err := f.courses.CreateCourse(f.ctx, teacher, CreateCourseRequest{Title: "  Linear Algebra  "})
	require.NoError(t, err)
	assert.Equal(t, "Linear Algebra", course.Title)
	assert.Equal(t, "linear-algebra", course.Slug)
	assert.Equal(t, teacher.ID, course.TeacherID)

	_, err = f.courses.CreateCourse(f.ctx, teacher, CreateCourseRequest{Title: "   "})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestUpdateCourseKeepsFieldsThatAreEmpty(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	other := f.user(t, "other")
	course, err := f.courses.CreateCourse(f.ctx, teacher, CreateCourseRequest{Title: "Geometry", Description: "shapes"})
	require.NoError(t, err)

	empty := ""
	title := "Geometry II"
	updated, err := f.courses.UpdateCourse(f.ctx, teacher, course.ID, UpdateCourseRequest{Title: &title, Description: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Geometry II", updated.Title)
	assert.Equal(t, "geometry-ii", updated.Slug)
	assert.Equal(t, "shapes", updated.Description)

	_, err = f.courses.UpdateCourse(f.ctx, other, course.ID, UpdateCourseRequest{Title: &title})
	requirePermissionError(t, err, permissions.CourseInfoWrite)
}

func TestEnrollIsIdempotent(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	student := f.user(t, "student")
	setup := f.setupCourse(t, teacher, 1, true)

	first, err := f.courses.Enroll(f.ctx, student, setup.course.ID, "")
	require.NoError(t, err)
	second, err := f.courses.Enroll(f.ctx, student, setup.course.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, first.EnrolledAt, second.EnrolledAt)

	students, err := f.courses.ListCourseStudents(f.ctx, teacher, setup.course.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, student.ID, students[0].ID)

	mine, err := f.notifications.ListMine(f.ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.NotificationCourseEnrolled, mine[0].Payload["type"])
	assert.Equal(t, 1, f.pub.count())
}

func TestEnrollOtherUser(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	student := f.user(t, "student")
	admin := f.user(t, "admin", model.RoleAdmin)
	setup := f.setupCourse(t, teacher, 0, false)

	_, err := f.courses.Enroll(f.ctx, teacher, setup.course.ID, student.ID)
	requirePermissionError(t, err, permissions.CourseUserAdd)

	_, err = f.courses.Enroll(f.ctx, admin, setup.course.ID, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.courses.Enroll(f.ctx, admin, "missing-course", student.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	link, err := f.courses.Enroll(f.ctx, admin, setup.course.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, student.ID, link.UserID)
}

func TestUnenrollAbsentLinkIsSilent(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	student := f.user(t, "student")
	setup := f.setupCourse(t, teacher, 0, false)

	require.NoError(t, f.courses.Unenroll(f.ctx, student, setup.course.ID, student.ID))
	assert.Equal(t, 0, f.pub.count())

	f.enroll(t, student, setup.course.ID)
	require.NoError(t, f.courses.Unenroll(f.ctx, student, setup.course.ID, student.ID))

	mine, err := f.notifications.ListMine(f.ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, model.NotificationCourseUnenrolled, mine[1].Payload["type"])

	err = f.courses.Unenroll(f.ctx, student, setup.course.ID, teacher.ID)
	requirePermissionError(t, err, permissions.CourseUserDel)
}

func TestPublishFailureDoesNotFailEnroll(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("redis down")
	teacher := f.user(t, "teacher", model.RoleTeacher)
	student := f.user(t, "student")
	setup := f.setupCourse(t, teacher, 0, false)

	_, err := f.courses.Enroll(f.ctx, student, setup.course.ID, "")
	require.NoError(t, err)

	mine, err := f.notifications.ListMine(f.ctx, student)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestDeleteCourseHidesTests(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	student := f.user(t, "student")
	setup := f.setupCourse(t, teacher, 1, true)

	err := f.courses.DeleteCourse(f.ctx, student, setup.course.ID)
	requirePermissionError(t, err, permissions.CourseDel)

	require.NoError(t, f.courses.DeleteCourse(f.ctx, teacher, setup.course.ID))
	_, err = f.courses.GetCourse(f.ctx, setup.course.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = f.tests.ListTestQuestions(f.ctx, teacher, setup.test.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListCourseTestsForMembers(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	student := f.user(t, "student")
	outsider := f.user(t, "outsider")
	setup := f.setupCourse(t, teacher, 0, false)
	f.enroll(t, student, setup.course.ID)

	tests, err := f.courses.ListCourseTests(f.ctx, student, setup.course.ID)
	require.NoError(t, err)
	require.Len(t, tests, 1)

	_, err = f.courses.ListCourseTests(f.ctx, outsider, setup.course.ID)
	requirePermissionError(t, err, permissions.CourseTestList)

	outsider.Blocked = true
	_, err = f.courses.ListCourseTests(f.ctx, outsider, setup.course.ID)
	assert.ErrorIs(t, err, common.ErrBlocked)
	assert.Equal(t, http.StatusTeapot, common.HTTPStatusFromError(err))
}
