// Package permissions decides whether a caller may perform an operation,
// either through a default (ownership or context) rule or through an
// explicit permission granted directly or via a role.
package permissions

const (
	UserListRead      = "user:list:read"
	UserFullNameWrite = "user:fullName:write"
	UserDataRead      = "user:data:read"
	UserRolesRead     = "user:roles:read"
	UserRolesWrite    = "user:roles:write"
	UserBlockRead     = "user:block:read"
	UserBlockWrite    = "user:block:write"

	CourseInfoWrite = "course:info:write"
	CourseTestList  = "course:testList"
	CourseTestRead  = "course:test:read"
	CourseTestWrite = "course:test:write"
	CourseTestAdd   = "course:test:add"
	CourseTestDel   = "course:test:del"
	CourseUserList  = "course:userList"
	CourseUserAdd   = "course:user:add"
	CourseUserDel   = "course:user:del"
	CourseAdd       = "course:add"
	CourseDel       = "course:del"

	QuestListRead = "quest:list:read"
	QuestRead     = "quest:read"
	QuestUpdate   = "quest:update"
	QuestCreate   = "quest:create"
	QuestDel      = "quest:del"

	TestQuestDel    = "test:quest:del"
	TestQuestAdd    = "test:quest:add"
	TestQuestUpdate = "test:quest:update"
	TestAnswerRead  = "test:answer:read"

	AnswerRead   = "answer:read"
	AnswerUpdate = "answer:update"
	AnswerDel    = "answer:del"
)

// All lists every permission identifier known to the service.
var All = []string{
	UserListRead, UserFullNameWrite, UserDataRead, UserRolesRead, UserRolesWrite, UserBlockRead, UserBlockWrite,
	CourseInfoWrite, CourseTestList, CourseTestRead, CourseTestWrite, CourseTestAdd, CourseTestDel,
	CourseUserList, CourseUserAdd, CourseUserDel, CourseAdd, CourseDel,
	QuestListRead, QuestRead, QuestUpdate, QuestCreate, QuestDel,
	TestQuestDel, TestQuestAdd, TestQuestUpdate, TestAnswerRead,
	AnswerRead, AnswerUpdate, AnswerDel,
}

// Set is a permission lookup set.
type Set map[string]struct{}

func NewSet(perms ...string) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func (s Set) Has(perm string) bool {
	_, ok := s[perm]
	return ok
}
