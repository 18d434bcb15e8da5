package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

type AttemptRepository interface {
	// Create fails with common.ErrConflict when the user already has an
	// in-progress attempt for the test.
	Create(ctx context.Context, tx *sql.Tx, attempt *model.Attempt) error
	FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.Attempt, error)
	// FindByIDForUpdate row-locks the attempt for the rest of tx.
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.Attempt, error)
	FindInProgress(ctx context.Context, tx *sql.Tx, userID, testID string) (*model.Attempt, error)
	// ListInProgressByTest row-locks the returned attempts for the rest of tx.
	ListInProgressByTest(ctx context.Context, tx *sql.Tx, testID string) ([]model.Attempt, error)
	// HasAttempts reports whether any attempt, in any state, exists for the test.
	HasAttempts(ctx context.Context, tx *sql.Tx, testID string) (bool, error)
	Finish(ctx context.Context, tx *sql.Tx, id string, score decimal.Decimal, finishedAt time.Time) error

	AddQuestions(ctx context.Context, tx *sql.Tx, questions []model.AttemptQuestion) error
	// ListQuestions returns the frozen snapshot ordered by position.
	ListQuestions(ctx context.Context, tx *sql.Tx, attemptID string) ([]model.AttemptQuestion, error)
	HasInProgressWithQuestion(ctx context.Context, tx *sql.Tx, userID, questionID string) (bool, error)

	// ListFinishedByTest returns finished attempts, newest finish first.
	// An empty userID means every user.
	ListFinishedByTest(ctx context.Context, tx *sql.Tx, testID, userID string) ([]model.Attempt, error)
	ListFinishedUsers(ctx context.Context, tx *sql.Tx, testID, userID string) ([]model.TestResultUser, error)
}

type pgAttemptRepository struct {
	db *sql.DB
}

func NewPgAttemptRepository(db *sql.DB) AttemptRepository {
	return &pgAttemptRepository{db: db}
}

const attemptColumns = `id, user_id, test_id, status, started_at, finished_at, score`

func scanAttempt(row interface{ Scan(...interface{}) error }) (*model.Attempt, error) {
	a := &model.Attempt{}
	var finishedAt sql.NullTime
	if err := row.Scan(&a.ID, &a.UserID, &a.TestID, &a.Status, &a.StartedAt, &finishedAt, &a.Score); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		a.FinishedAt = &t
	}
	return a, nil
}

func (r *pgAttemptRepository) queryAttempts(ctx context.Context, tx *sql.Tx, op, query string, args ...interface{}) ([]model.Attempt, error) {
	rows, err := conn(r.db, tx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgAttemptRepository.%s: %w", op, err)
	}
	defer rows.Close()

	attempts := []model.Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("pgAttemptRepository.%s scan: %w", op, err)
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

func (r *pgAttemptRepository) Create(ctx context.Context, tx *sql.Tx, a *model.Attempt) error {
	query := `INSERT INTO attempts (id, user_id, test_id, status) VALUES ($1, $2, $3, $4) RETURNING started_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query, a.ID, a.UserID, a.TestID, a.Status).Scan(&a.StartedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("in-progress attempt already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgAttemptRepository.Create: %w", err)
	}
	return nil
}

func (r *pgAttemptRepository) FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.Attempt, error) {
	return r.find(ctx, tx, id, `SELECT `+attemptColumns+` FROM attempts WHERE id = $1`)
}

func (r *pgAttemptRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.Attempt, error) {
	return r.find(ctx, tx, id, `SELECT `+attemptColumns+` FROM attempts WHERE id = $1 FOR UPDATE`)
}

func (r *pgAttemptRepository) find(ctx context.Context, tx *sql.Tx, id, query string) (*model.Attempt, error) {
	a, err := scanAttempt(conn(r.db, tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("attempt %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgAttemptRepository.find: %w", err)
	}
	return a, nil
}

func (r *pgAttemptRepository) FindInProgress(ctx context.Context, tx *sql.Tx, userID, testID string) (*model.Attempt, error) {
	a, err := scanAttempt(conn(r.db, tx).QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE user_id = $1 AND test_id = $2 AND status = $3`,
		userID, testID, model.AttemptInProgress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no in-progress attempt: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgAttemptRepository.FindInProgress: %w", err)
	}
	return a, nil
}

func (r *pgAttemptRepository) ListInProgressByTest(ctx context.Context, tx *sql.Tx, testID string) ([]model.Attempt, error) {
	return r.queryAttempts(ctx, tx, "ListInProgressByTest",
		`SELECT `+attemptColumns+` FROM attempts WHERE test_id = $1 AND status = $2 ORDER BY started_at, id FOR UPDATE`,
		testID, model.AttemptInProgress)
}

func (r *pgAttemptRepository) HasAttempts(ctx context.Context, tx *sql.Tx, testID string) (bool, error) {
	var exists bool
	err := conn(r.db, tx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM attempts WHERE test_id = $1)`, testID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgAttemptRepository.HasAttempts: %w", err)
	}
	return exists, nil
}

func (r *pgAttemptRepository) Finish(ctx context.Context, tx *sql.Tx, id string, score decimal.Decimal, finishedAt time.Time) error {
	res, err := conn(r.db, tx).ExecContext(ctx,
		`UPDATE attempts SET status = $2, score = $3, finished_at = $4 WHERE id = $1 AND status = $5`,
		id, model.AttemptFinished, score, finishedAt, model.AttemptInProgress)
	if err != nil {
		return fmt.Errorf("pgAttemptRepository.Finish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("attempt %s is not in progress: %w", id, common.ErrConflict)
	}
	return nil
}

func (r *pgAttemptRepository) AddQuestions(ctx context.Context, tx *sql.Tx, questions []model.AttemptQuestion) error {
	q := conn(r.db, tx)
	for _, aq := range questions {
		_, err := q.ExecContext(ctx,
			`INSERT INTO attempt_questions (attempt_id, question_id, question_version_id, position) VALUES ($1, $2, $3, $4)`,
			aq.AttemptID, aq.QuestionID, aq.QuestionVersionID, aq.Position)
		if err != nil {
			return fmt.Errorf("pgAttemptRepository.AddQuestions: %w", err)
		}
	}
	return nil
}

func (r *pgAttemptRepository) ListQuestions(ctx context.Context, tx *sql.Tx, attemptID string) ([]model.AttemptQuestion, error) {
	rows, err := conn(r.db, tx).QueryContext(ctx,
		`SELECT attempt_id, question_id, question_version_id, position
		 FROM attempt_questions WHERE attempt_id = $1 ORDER BY position`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("pgAttemptRepository.ListQuestions: %w", err)
	}
	defer rows.Close()

	questions := []model.AttemptQuestion{}
	for rows.Next() {
		var aq model.AttemptQuestion
		if err := rows.Scan(&aq.AttemptID, &aq.QuestionID, &aq.QuestionVersionID, &aq.Position); err != nil {
			return nil, fmt.Errorf("pgAttemptRepository.ListQuestions scan: %w", err)
		}
		questions = append(questions, aq)
	}
	return questions, rows.Err()
}

func (r *pgAttemptRepository) HasInProgressWithQuestion(ctx context.Context, tx *sql.Tx, userID, questionID string) (bool, error) {
	var exists bool
	err := conn(r.db, tx).QueryRowContext(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM attempts a
		     JOIN attempt_questions aq ON aq.attempt_id = a.id
		     WHERE a.user_id = $1 AND a.status = $2 AND aq.question_id = $3)`,
		userID, model.AttemptInProgress, questionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgAttemptRepository.HasInProgressWithQuestion: %w", err)
	}
	return exists, nil
}

func (r *pgAttemptRepository) ListFinishedByTest(ctx context.Context, tx *sql.Tx, testID, userID string) ([]model.Attempt, error) {
	return r.queryAttempts(ctx, tx, "ListFinishedByTest",
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE test_id = $1 AND status = $2 AND ($3 = '' OR user_id = $3)
		 ORDER BY finished_at DESC, id`,
		testID, model.AttemptFinished, userID)
}

func (r *pgAttemptRepository) ListFinishedUsers(ctx context.Context, tx *sql.Tx, testID, userID string) ([]model.TestResultUser, error) {
	query := `SELECT a.user_id, COALESCE(u.full_name, '') FROM attempts a
	          LEFT JOIN users u ON u.id = a.user_id
	          WHERE a.test_id = $1 AND a.status = $2 AND ($3 = '' OR a.user_id = $3)
	          GROUP BY a.user_id, u.full_name
	          ORDER BY MAX(a.finished_at) DESC, a.user_id`
	rows, err := conn(r.db, tx).QueryContext(ctx, query, testID, model.AttemptFinished, userID)
	if err != nil {
		return nil, fmt.Errorf("pgAttemptRepository.ListFinishedUsers: %w", err)
	}
	defer rows.Close()

	users := []model.TestResultUser{}
	for rows.Next() {
		var u model.TestResultUser
		if err := rows.Scan(&u.ID, &u.FullName); err != nil {
			return nil, fmt.Errorf("pgAttemptRepository.ListFinishedUsers scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
