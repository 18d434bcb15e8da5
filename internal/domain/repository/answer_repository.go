package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

// AnswerRepository has no delete: answer rows live as long as their attempt.
type AnswerRepository interface {
	CreateBatch(ctx context.Context, tx *sql.Tx, answers []model.Answer) error
	FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.Answer, error)
	// ListByAttempt orders answers by the position of their frozen question.
	ListByAttempt(ctx context.Context, tx *sql.Tx, attemptID string) ([]model.Answer, error)
	// UpdateValue only touches answers of in-progress attempts.
	UpdateValue(ctx context.Context, tx *sql.Tx, id string, value int) error
}

type pgAnswerRepository struct {
	db *sql.DB
}

func NewPgAnswerRepository(db *sql.DB) AnswerRepository {
	return &pgAnswerRepository{db: db}
}

func (r *pgAnswerRepository) CreateBatch(ctx context.Context, tx *sql.Tx, answers []model.Answer) error {
	q := conn(r.db, tx)
	for _, a := range answers {
		_, err := q.ExecContext(ctx,
			`INSERT INTO answers (id, attempt_id, question_id, question_version_id, value) VALUES ($1, $2, $3, $4, $5)`,
			a.ID, a.AttemptID, a.QuestionID, a.QuestionVersionID, a.Value)
		if err != nil {
			if common.IsUniqueViolation(err) {
				return fmt.Errorf("answer for question %s already exists in attempt %s: %w", a.QuestionID, a.AttemptID, common.ErrConflict)
			}
			return fmt.Errorf("pgAnswerRepository.CreateBatch: %w", err)
		}
	}
	return nil
}

func (r *pgAnswerRepository) FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.Answer, error) {
	a := &model.Answer{}
	err := conn(r.db, tx).QueryRowContext(ctx,
		`SELECT id, attempt_id, question_id, question_version_id, value FROM answers WHERE id = $1`, id).
		Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.QuestionVersionID, &a.Value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("answer %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgAnswerRepository.FindByID: %w", err)
	}
	return a, nil
}

func (r *pgAnswerRepository) ListByAttempt(ctx context.Context, tx *sql.Tx, attemptID string) ([]model.Answer, error) {
	query := `SELECT an.id, an.attempt_id, an.question_id, an.question_version_id, an.value
	          FROM answers an
	          LEFT JOIN attempt_questions aq
	            ON aq.attempt_id = an.attempt_id
	           AND aq.question_id = an.question_id
	           AND aq.question_version_id = an.question_version_id
	          WHERE an.attempt_id = $1
	          ORDER BY aq.position, an.id`
	rows, err := conn(r.db, tx).QueryContext(ctx, query, attemptID)
	if err != nil {
		return nil, fmt.Errorf("pgAnswerRepository.ListByAttempt: %w", err)
	}
	defer rows.Close()

	answers := []model.Answer{}
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.QuestionVersionID, &a.Value); err != nil {
			return nil, fmt.Errorf("pgAnswerRepository.ListByAttempt scan: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (r *pgAnswerRepository) UpdateValue(ctx context.Context, tx *sql.Tx, id string, value int) error {
	query := `UPDATE answers SET value = $2
	          WHERE id = $1 AND EXISTS (
	              SELECT 1 FROM attempts a WHERE a.id = answers.attempt_id AND a.status = $3)`
	res, err := conn(r.db, tx).ExecContext(ctx, query, id, value, model.AttemptInProgress)
	if err != nil {
		return fmt.Errorf("pgAnswerRepository.UpdateValue: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("answer %s is missing or its attempt is finished: %w", id, common.ErrValidation)
	}
	return nil
}
