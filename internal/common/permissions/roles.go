package permissions

import "github.com/7rockstarmade/LogicModule/internal/domain/model"

// roleTable is built once and never written afterwards.
var roleTable = map[string]Set{
	model.RoleAdmin: NewSet(All...),
	model.RoleTeacher: NewSet(
		CourseAdd,
		CourseInfoWrite,
		CourseTestList,
		CourseTestRead,
		CourseTestWrite,
		CourseTestAdd,
		CourseTestDel,
		CourseUserList,
		QuestCreate,
		QuestRead,
		QuestUpdate,
		QuestDel,
		QuestListRead,
		TestQuestAdd,
		TestQuestDel,
		TestQuestUpdate,
		TestAnswerRead,
	),
	model.RoleStudent: NewSet(
		CourseTestList,
		CourseTestRead,
		QuestRead,
		AnswerRead,
	),
}

// RoleGrants reports whether role carries perm. Unknown roles carry nothing.
func RoleGrants(role, perm string) bool {
	set, ok := roleTable[role]
	return ok && set.Has(perm)
}

// RolePermissions returns a copy of the permissions carried by role.
func RolePermissions(role string) []string {
	set := roleTable[role]
	out := make([]string, 0, len(set))
	for _, p := range All {
		if set.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// ExpandRoles returns the union of the permissions carried by roles.
func ExpandRoles(roles []string) Set {
	out := Set{}
	for _, r := range roles {
		for p := range roleTable[r] {
			out[p] = struct{}{}
		}
	}
	return out
}
