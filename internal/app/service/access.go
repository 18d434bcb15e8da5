package service

import (
	"context"
	"database/sql"

	"github.com/7rockstarmade/LogicModule/internal/domain/model"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository"
)

func isCourseTeacher(course *model.Course, user *model.CurrentUser) bool {
	return course.TeacherID == user.ID
}

// isCourseMember reports whether user teaches or is enrolled in course.
func isCourseMember(ctx context.Context, store *repository.Store, tx *sql.Tx, course *model.Course, user *model.CurrentUser) (bool, error) {
	if isCourseTeacher(course, user) {
		return true, nil
	}
	return store.Enrollments.IsEnrolled(ctx, tx, course.ID, user.ID)
}

// loadTest returns a live test with its live course. forUpdate row-locks the
// test for the rest of tx.
func loadTest(ctx context.Context, store *repository.Store, tx *sql.Tx, testID string, forUpdate bool) (*model.Test, *model.Course, error) {
	var (
		test *model.Test
		err  error
	)
	if forUpdate {
		test, err = store.Tests.FindByIDForUpdate(ctx, tx, testID)
	} else {
		test, err = store.Tests.FindByID(ctx, tx, testID)
	}
	if err != nil {
		return nil, nil, err
	}
	course, err := store.Courses.FindByID(ctx, tx, test.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return test, course, nil
}

// loadCourseTest loads a test addressed through its course.
func loadCourseTest(ctx context.Context, store *repository.Store, tx *sql.Tx, courseID, testID string) (*model.Test, *model.Course, error) {
	course, err := store.Courses.FindByID(ctx, tx, courseID)
	if err != nil {
		return nil, nil, err
	}
	test, err := store.Tests.FindByID(ctx, tx, testID)
	if err != nil {
		return nil, nil, err
	}
	if test.CourseID != course.ID {
		return nil, nil, errTestNotInCourse(testID, courseID)
	}
	return test, course, nil
}
