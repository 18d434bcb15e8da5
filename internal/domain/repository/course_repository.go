package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

// CourseRepository never returns logically deleted courses.
type CourseRepository interface {
	Create(ctx context.Context, tx *sql.Tx, course *model.Course) error
	FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.Course, error)
	List(ctx context.Context, tx *sql.Tx) ([]model.Course, error)
	Update(ctx context.Context, tx *sql.Tx, course *model.Course) error
	// SoftDelete flags the course and every test in it as deleted.
	SoftDelete(ctx context.Context, tx *sql.Tx, id string) error
}

type EnrollmentRepository interface {
	// Enroll inserts the link unless it exists and reports whether it was new.
	Enroll(ctx context.Context, tx *sql.Tx, courseID, userID string) (*model.CourseUser, bool, error)
	// Unenroll removes the link and reports whether one existed.
	Unenroll(ctx context.Context, tx *sql.Tx, courseID, userID string) (bool, error)
	IsEnrolled(ctx context.Context, tx *sql.Tx, courseID, userID string) (bool, error)
	ListStudents(ctx context.Context, tx *sql.Tx, courseID string) ([]model.UserBasicInfo, error)
}

type pgCourseRepository struct {
	db *sql.DB
}

func NewPgCourseRepository(db *sql.DB) CourseRepository {
	return &pgCourseRepository{db: db}
}

const courseColumns = `id, title, slug, description, teacher_id, is_deleted, created_at, updated_at`

func scanCourse(row interface{ Scan(...interface{}) error }) (*model.Course, error) {
	c := &model.Course{}
	err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.TeacherID, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *pgCourseRepository) Create(ctx context.Context, tx *sql.Tx, c *model.Course) error {
	query := `INSERT INTO courses (id, title, slug, description, teacher_id)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at, updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query, c.ID, c.Title, c.Slug, c.Description, c.TeacherID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("course already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgCourseRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCourseRepository) FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1 AND is_deleted = FALSE`
	c, err := scanCourse(conn(r.db, tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgCourseRepository.FindByID: %w", err)
	}
	return c, nil
}

func (r *pgCourseRepository) List(ctx context.Context, tx *sql.Tx) ([]model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE is_deleted = FALSE ORDER BY created_at, id`
	rows, err := conn(r.db, tx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgCourseRepository.List: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("pgCourseRepository.List scan: %w", err)
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

func (r *pgCourseRepository) Update(ctx context.Context, tx *sql.Tx, c *model.Course) error {
	query := `UPDATE courses SET title = $2, slug = $3, description = $4, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1 AND is_deleted = FALSE
	          RETURNING updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query, c.ID, c.Title, c.Slug, c.Description).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("course %s: %w", c.ID, common.ErrNotFound)
		}
		return fmt.Errorf("pgCourseRepository.Update: %w", err)
	}
	return nil
}

func (r *pgCourseRepository) SoftDelete(ctx context.Context, tx *sql.Tx, id string) error {
	q := conn(r.db, tx)
	res, err := q.ExecContext(ctx,
		`UPDATE courses SET is_deleted = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = $1 AND is_deleted = FALSE`, id)
	if err != nil {
		return fmt.Errorf("pgCourseRepository.SoftDelete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("course %s: %w", id, common.ErrNotFound)
	}
	if _, err := q.ExecContext(ctx, `UPDATE tests SET is_deleted = TRUE WHERE course_id = $1`, id); err != nil {
		return fmt.Errorf("pgCourseRepository.SoftDelete tests: %w", err)
	}
	return nil
}

type pgEnrollmentRepository struct {
	db *sql.DB
}

func NewPgEnrollmentRepository(db *sql.DB) EnrollmentRepository {
	return &pgEnrollmentRepository{db: db}
}

func (r *pgEnrollmentRepository) Enroll(ctx context.Context, tx *sql.Tx, courseID, userID string) (*model.CourseUser, bool, error) {
	q := conn(r.db, tx)
	link := &model.CourseUser{CourseID: courseID, UserID: userID}

	err := q.QueryRowContext(ctx,
		`INSERT INTO course_users (course_id, user_id) VALUES ($1, $2)
		 ON CONFLICT (course_id, user_id) DO NOTHING
		 RETURNING enrolled_at`, courseID, userID).Scan(&link.EnrolledAt)
	if err == nil {
		return link, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("pgEnrollmentRepository.Enroll: %w", err)
	}

	err = q.QueryRowContext(ctx,
		`SELECT enrolled_at FROM course_users WHERE course_id = $1 AND user_id = $2`, courseID, userID).
		Scan(&link.EnrolledAt)
	if err != nil {
		return nil, false, fmt.Errorf("pgEnrollmentRepository.Enroll existing: %w", err)
	}
	return link, false, nil
}

func (r *pgEnrollmentRepository) Unenroll(ctx context.Context, tx *sql.Tx, courseID, userID string) (bool, error) {
	res, err := conn(r.db, tx).ExecContext(ctx,
		`DELETE FROM course_users WHERE course_id = $1 AND user_id = $2`, courseID, userID)
	if err != nil {
		return false, fmt.Errorf("pgEnrollmentRepository.Unenroll: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *pgEnrollmentRepository) IsEnrolled(ctx context.Context, tx *sql.Tx, courseID, userID string) (bool, error) {
	var exists bool
	err := conn(r.db, tx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM course_users WHERE course_id = $1 AND user_id = $2)`, courseID, userID).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgEnrollmentRepository.IsEnrolled: %w", err)
	}
	return exists, nil
}

func (r *pgEnrollmentRepository) ListStudents(ctx context.Context, tx *sql.Tx, courseID string) ([]model.UserBasicInfo, error) {
	query := `SELECT u.id, u.full_name FROM course_users cu
	          JOIN users u ON u.id = cu.user_id
	          WHERE cu.course_id = $1
	          ORDER BY cu.enrolled_at, u.id`
	rows, err := conn(r.db, tx).QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("pgEnrollmentRepository.ListStudents: %w", err)
	}
	defer rows.Close()

	students := []model.UserBasicInfo{}
	for rows.Next() {
		var s model.UserBasicInfo
		if err := rows.Scan(&s.ID, &s.FullName); err != nil {
			return nil, fmt.Errorf("pgEnrollmentRepository.ListStudents scan: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}
