package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/common/permissions"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository"
)

type CourseService struct {
	store         *repository.Store
	notifications *NotificationService
}

func NewCourseService(store *repository.Store, notifications *NotificationService) *CourseService {
	return &CourseService{store: store, notifications: notifications}
}

type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=10000"`
}

type UpdateCourseRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=10000"`
}

type EnrollRequest struct {
	UserID string `json:"user_id,omitempty"`
}

func (s *CourseService) ListCourses(ctx context.Context) ([]model.Course, error) {
	return s.store.Courses.List(ctx, nil)
}

func (s *CourseService) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	return s.store.Courses.FindByID(ctx, nil, courseID)
}

func (s *CourseService) CreateCourse(ctx context.Context, user *model.CurrentUser, req CreateCourseRequest) (*model.Course, error) {
	if err := permissions.RequirePermission(user, permissions.CourseAdd); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	course := &model.Course{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		TeacherID:   user.ID,
	}
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.store.Courses.Create(ctx, tx, course)
	})
	if err != nil {
		return nil, common.Errorf("failed to create course: %w", err)
	}
	return course, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, user *model.CurrentUser, courseID string, req UpdateCourseRequest) (*model.Course, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	var course *model.Course
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		course, err = s.store.Courses.FindByID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, isCourseTeacher(course, user), permissions.CourseInfoWrite); err != nil {
			return err
		}
		if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
			course.Title = strings.TrimSpace(*req.Title)
			course.Slug = slug.Make(course.Title)
		}
		if req.Description != nil && *req.Description != "" {
			course.Description = *req.Description
		}
		return s.store.Courses.Update(ctx, tx, course)
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

// DeleteCourse flags the course and all of its tests as deleted.
func (s *CourseService) DeleteCourse(ctx context.Context, user *model.CurrentUser, courseID string) error {
	return s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		course, err := s.store.Courses.FindByID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, isCourseTeacher(course, user), permissions.CourseDel); err != nil {
			return err
		}
		return s.store.Courses.SoftDelete(ctx, tx, courseID)
	})
}

func (s *CourseService) ListCourseTests(ctx context.Context, user *model.CurrentUser, courseID string) ([]model.Test, error) {
	course, err := s.store.Courses.FindByID(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	member, err := isCourseMember(ctx, s.store, nil, course, user)
	if err != nil {
		return nil, err
	}
	if err := permissions.EnsureDefaultOrPermission(user, member, permissions.CourseTestList); err != nil {
		return nil, err
	}
	return s.store.Tests.ListByCourse(ctx, nil, courseID)
}

func (s *CourseService) ListCourseStudents(ctx context.Context, user *model.CurrentUser, courseID string) ([]model.UserBasicInfo, error) {
	course, err := s.store.Courses.FindByID(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	if err := permissions.EnsureDefaultOrPermission(user, isCourseTeacher(course, user), permissions.CourseUserList); err != nil {
		return nil, err
	}
	return s.store.Enrollments.ListStudents(ctx, nil, courseID)
}

// Enroll links targetUserID (the caller when empty) to the course. Enrolling
// twice returns the existing link and notifies nobody.
func (s *CourseService) Enroll(ctx context.Context, user *model.CurrentUser, courseID, targetUserID string) (*model.CourseUser, error) {
	if targetUserID == "" {
		targetUserID = user.ID
	}
	var (
		link    *model.CourseUser
		created []model.Notification
	)
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		course, err := s.store.Courses.FindByID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, targetUserID == user.ID, permissions.CourseUserAdd); err != nil {
			return err
		}
		if _, err := s.store.Users.FindByID(ctx, tx, targetUserID); err != nil {
			return err
		}
		var isNew bool
		link, isNew, err = s.store.Enrollments.Enroll(ctx, tx, courseID, targetUserID)
		if err != nil {
			return err
		}
		if !isNew {
			return nil
		}
		n, err := s.notifications.Notify(ctx, tx, targetUserID,
			fmt.Sprintf("You have been enrolled in course «%s».", course.Title),
			map[string]interface{}{"type": model.NotificationCourseEnrolled, "course_id": course.ID})
		if err != nil {
			return err
		}
		created = append(created, *n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Publish(ctx, created)
	return link, nil
}

// Unenroll removes the link if present; an absent link is not an error.
func (s *CourseService) Unenroll(ctx context.Context, user *model.CurrentUser, courseID, userID string) error {
	var created []model.Notification
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		course, err := s.store.Courses.FindByID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, userID == user.ID, permissions.CourseUserDel); err != nil {
			return err
		}
		removed, err := s.store.Enrollments.Unenroll(ctx, tx, courseID, userID)
		if err != nil || !removed {
			return err
		}
		n, err := s.notifications.Notify(ctx, tx, userID,
			fmt.Sprintf("You have been removed from course «%s».", course.Title),
			map[string]interface{}{"type": model.NotificationCourseUnenrolled, "course_id": course.ID})
		if err != nil {
			return err
		}
		created = append(created, *n)
		return nil
	})
	if err != nil {
		return err
	}
	s.notifications.Publish(ctx, created)
	return nil
}
