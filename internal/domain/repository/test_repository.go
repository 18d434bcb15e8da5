package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

// TestRepository never returns logically deleted tests.
type TestRepository interface {
	Create(ctx context.Context, tx *sql.Tx, test *model.Test) error
	FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.Test, error)
	// FindByIDForUpdate also row-locks the test until tx ends.
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.Test, error)
	ListByCourse(ctx context.Context, tx *sql.Tx, courseID string) ([]model.Test, error)
	SetActive(ctx context.Context, tx *sql.Tx, id string, active bool) error
	SoftDelete(ctx context.Context, tx *sql.Tx, id string) error

	// ListQuestions returns the links ordered by position.
	ListQuestions(ctx context.Context, tx *sql.Tx, testID string) ([]model.TestQuestion, error)
	AddQuestion(ctx context.Context, tx *sql.Tx, link *model.TestQuestion) error
	RemoveQuestion(ctx context.Context, tx *sql.Tx, testID, questionID string) error
	// SetPositions gives questionIDs[i] position i.
	SetPositions(ctx context.Context, tx *sql.Tx, testID string, questionIDs []string) error
}

type pgTestRepository struct {
	db *sql.DB
}

func NewPgTestRepository(db *sql.DB) TestRepository {
	return &pgTestRepository{db: db}
}

const testColumns = `id, course_id, title, is_active, is_deleted, created_at`

func scanTest(row interface{ Scan(...interface{}) error }) (*model.Test, error) {
	t := &model.Test{}
	err := row.Scan(&t.ID, &t.CourseID, &t.Title, &t.IsActive, &t.IsDeleted, &t.CreatedAt)
	return t, err
}

func (r *pgTestRepository) Create(ctx context.Context, tx *sql.Tx, t *model.Test) error {
	query := `INSERT INTO tests (id, course_id, title, is_active) VALUES ($1, $2, $3, $4) RETURNING created_at`
	if err := conn(r.db, tx).QueryRowContext(ctx, query, t.ID, t.CourseID, t.Title, t.IsActive).Scan(&t.CreatedAt); err != nil {
		return fmt.Errorf("pgTestRepository.Create: %w", err)
	}
	return nil
}

func (r *pgTestRepository) FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.Test, error) {
	return r.find(ctx, tx, id, `SELECT `+testColumns+` FROM tests WHERE id = $1 AND is_deleted = FALSE`)
}

func (r *pgTestRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.Test, error) {
	return r.find(ctx, tx, id, `SELECT `+testColumns+` FROM tests WHERE id = $1 AND is_deleted = FALSE FOR UPDATE`)
}

func (r *pgTestRepository) find(ctx context.Context, tx *sql.Tx, id, query string) (*model.Test, error) {
	t, err := scanTest(conn(r.db, tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("test %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgTestRepository.FindByID: %w", err)
	}
	return t, nil
}

func (r *pgTestRepository) ListByCourse(ctx context.Context, tx *sql.Tx, courseID string) ([]model.Test, error) {
	query := `SELECT ` + testColumns + ` FROM tests WHERE course_id = $1 AND is_deleted = FALSE ORDER BY created_at, id`
	rows, err := conn(r.db, tx).QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("pgTestRepository.ListByCourse: %w", err)
	}
	defer rows.Close()

	tests := []model.Test{}
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, fmt.Errorf("pgTestRepository.ListByCourse scan: %w", err)
		}
		tests = append(tests, *t)
	}
	return tests, rows.Err()
}

func (r *pgTestRepository) SetActive(ctx context.Context, tx *sql.Tx, id string, active bool) error {
	res, err := conn(r.db, tx).ExecContext(ctx,
		`UPDATE tests SET is_active = $2 WHERE id = $1 AND is_deleted = FALSE`, id, active)
	if err != nil {
		return fmt.Errorf("pgTestRepository.SetActive: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("test %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *pgTestRepository) SoftDelete(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := conn(r.db, tx).ExecContext(ctx,
		`UPDATE tests SET is_deleted = TRUE WHERE id = $1 AND is_deleted = FALSE`, id)
	if err != nil {
		return fmt.Errorf("pgTestRepository.SoftDelete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("test %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *pgTestRepository) ListQuestions(ctx context.Context, tx *sql.Tx, testID string) ([]model.TestQuestion, error) {
	rows, err := conn(r.db, tx).QueryContext(ctx,
		`SELECT test_id, question_id, position FROM test_questions WHERE test_id = $1 ORDER BY position`, testID)
	if err != nil {
		return nil, fmt.Errorf("pgTestRepository.ListQuestions: %w", err)
	}
	defer rows.Close()

	links := []model.TestQuestion{}
	for rows.Next() {
		var l model.TestQuestion
		if err := rows.Scan(&l.TestID, &l.QuestionID, &l.Position); err != nil {
			return nil, fmt.Errorf("pgTestRepository.ListQuestions scan: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *pgTestRepository) AddQuestion(ctx context.Context, tx *sql.Tx, l *model.TestQuestion) error {
	_, err := conn(r.db, tx).ExecContext(ctx,
		`INSERT INTO test_questions (test_id, question_id, position) VALUES ($1, $2, $3)`,
		l.TestID, l.QuestionID, l.Position)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("question %s is already in test %s: %w", l.QuestionID, l.TestID, common.ErrConflict)
		}
		return fmt.Errorf("pgTestRepository.AddQuestion: %w", err)
	}
	return nil
}

func (r *pgTestRepository) RemoveQuestion(ctx context.Context, tx *sql.Tx, testID, questionID string) error {
	res, err := conn(r.db, tx).ExecContext(ctx,
		`DELETE FROM test_questions WHERE test_id = $1 AND question_id = $2`, testID, questionID)
	if err != nil {
		return fmt.Errorf("pgTestRepository.RemoveQuestion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("question %s is not in test %s: %w", questionID, testID, common.ErrNotFound)
	}
	return nil
}

// SetPositions relies on the deferrable (test_id, position) constraint so all
// rows can be rewritten in one statement.
func (r *pgTestRepository) SetPositions(ctx context.Context, tx *sql.Tx, testID string, questionIDs []string) error {
	if len(questionIDs) == 0 {
		return nil
	}
	positions := make([]int64, len(questionIDs))
	for i := range positions {
		positions[i] = int64(i)
	}
	query := `UPDATE test_questions tq SET position = o.position
	          FROM unnest($2::text[], $3::int[]) AS o(question_id, position)
	          WHERE tq.test_id = $1 AND tq.question_id = o.question_id`
	res, err := conn(r.db, tx).ExecContext(ctx, query, testID, pq.Array(questionIDs), pq.Array(positions))
	if err != nil {
		return fmt.Errorf("pgTestRepository.SetPositions: %w", err)
	}
	if n, _ := res.RowsAffected(); int(n) != len(questionIDs) {
		return fmt.Errorf("test %s: updated %d of %d positions: %w", testID, n, len(questionIDs), common.ErrConflict)
	}
	return nil
}
