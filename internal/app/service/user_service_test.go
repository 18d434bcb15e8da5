package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/common/permissions"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

func TestNormalizeRoles(t *testing.T) {
	assert.Equal(t, []string{"teacher", "admin"}, normalizeRoles([]string{" teacher", "", "admin", "teacher ", "  "}))
	assert.Equal(t, []string{}, normalizeRoles(nil))
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	u := &model.CurrentUser{ID: "42", FullName: "  Ada Lovelace ", Email: "ada@example.com", Roles: []string{"student", "student"}}

	created, err := f.users.Register(f.ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "42", created.Username)
	assert.Equal(t, "Ada Lovelace", created.FullName)
	assert.Equal(t, []string{"student"}, created.Roles)
	require.NotNil(t, created.Email)
	assert.Equal(t, "ada@example.com", *created.Email)

	_, err = f.users.Register(f.ctx, u)
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = f.users.Register(f.ctx, &model.CurrentUser{ID: "43", Blocked: true})
	assert.ErrorIs(t, err, common.ErrBlocked)
}

func TestUserData(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "teacher", model.RoleTeacher)
	student := f.user(t, "student")
	admin := f.user(t, "admin", model.RoleAdmin)
	setup := f.setupCourse(t, teacher, 1, true)
	f.enroll(t, student, setup.course.ID)
	_, err := f.attempts.Create(f.ctx, student, setup.test.ID)
	require.NoError(t, err)

	data, err := f.users.GetData(f.ctx, student, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, data.CoursesCount)
	assert.Equal(t, 1, data.AttemptsCount)

	_, err = f.users.GetData(f.ctx, teacher, student.ID)
	requirePermissionError(t, err, permissions.UserDataRead)
	_, err = f.users.GetData(f.ctx, admin, student.ID)
	require.NoError(t, err)
	_, err = f.users.GetData(f.ctx, admin, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)

	info, err := f.users.GetBasicInfo(f.ctx, teacher, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "User student", info.FullName)
}

func TestUpdateFullName(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, "student")
	other := f.user(t, "other")

	info, err := f.users.UpdateFullName(f.ctx, student, student.ID, "  New Name ")
	require.NoError(t, err)
	assert.Equal(t, "New Name", info.FullName)

	_, err = f.users.UpdateFullName(f.ctx, student, student.ID, "   ")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.users.UpdateFullName(f.ctx, other, student.ID, "Hacked")
	requirePermissionError(t, err, permissions.UserFullNameWrite)
}

func TestRolesAndBlocking(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, "student", model.RoleStudent)
	admin := f.user(t, "admin", model.RoleAdmin)

	roles, err := f.users.GetRoles(f.ctx, student, student.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleStudent}, roles.Roles)

	_, err = f.users.GetRoles(f.ctx, student, admin.ID)
	requirePermissionError(t, err, permissions.UserRolesRead)

	_, err = f.users.SetRoles(f.ctx, student, student.ID, []string{"admin"})
	requirePermissionError(t, err, permissions.UserRolesWrite)

	set, err := f.users.SetRoles(f.ctx, admin, student.ID, []string{" teacher ", "", "teacher", "student"})
	require.NoError(t, err)
	assert.Equal(t, []string{"teacher", "student"}, set.Roles)

	roles, err = f.users.GetRoles(f.ctx, admin, student.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"teacher", "student"}, roles.Roles)

	_, err = f.users.GetBlocked(f.ctx, student, student.ID)
	requirePermissionError(t, err, permissions.UserBlockRead)

	_, err = f.users.SetBlocked(f.ctx, admin, student.ID, true)
	require.NoError(t, err)
	blocked, err := f.users.GetBlocked(f.ctx, admin, student.ID)
	require.NoError(t, err)
	assert.True(t, blocked.Blocked)

	list, err := f.users.List(f.ctx, admin)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	_, err = f.users.List(f.ctx, student)
	requirePermissionError(t, err, permissions.UserListRead)
}
