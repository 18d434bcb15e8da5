package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

// QuestionRepository hides logically deleted questions from Find and List.
// Versions stay readable regardless, attempts keep pointing at them.
type QuestionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, question *model.Question) error
	FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.Question, error)
	List(ctx context.Context, tx *sql.Tx) ([]model.Question, error)
	SoftDelete(ctx context.Context, tx *sql.Tx, id string) error

	CreateVersion(ctx context.Context, tx *sql.Tx, version *model.QuestionVersion) error
	LatestVersion(ctx context.Context, tx *sql.Tx, questionID string) (*model.QuestionVersion, error)
	FindVersion(ctx context.Context, tx *sql.Tx, questionID string, version int) (*model.QuestionVersion, error)
	// FindVersionsByIDs returns the versions keyed by version id; unknown ids are absent.
	FindVersionsByIDs(ctx context.Context, tx *sql.Tx, ids []string) (map[string]*model.QuestionVersion, error)
}

type pgQuestionRepository struct {
	db *sql.DB
}

func NewPgQuestionRepository(db *sql.DB) QuestionRepository {
	return &pgQuestionRepository{db: db}
}

func (r *pgQuestionRepository) Create(ctx context.Context, tx *sql.Tx, q *model.Question) error {
	err := conn(r.db, tx).QueryRowContext(ctx,
		`INSERT INTO questions (id, author_id) VALUES ($1, $2) RETURNING created_at`, q.ID, q.AuthorID).
		Scan(&q.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgQuestionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgQuestionRepository) FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.Question, error) {
	q := &model.Question{}
	err := conn(r.db, tx).QueryRowContext(ctx,
		`SELECT id, author_id, is_deleted, created_at FROM questions WHERE id = $1 AND is_deleted = FALSE`, id).
		Scan(&q.ID, &q.AuthorID, &q.IsDeleted, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("question %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgQuestionRepository.FindByID: %w", err)
	}
	return q, nil
}

func (r *pgQuestionRepository) List(ctx context.Context, tx *sql.Tx) ([]model.Question, error) {
	rows, err := conn(r.db, tx).QueryContext(ctx,
		`SELECT id, author_id, is_deleted, created_at FROM questions WHERE is_deleted = FALSE ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("pgQuestionRepository.List: %w", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.AuthorID, &q.IsDeleted, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgQuestionRepository.List scan: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *pgQuestionRepository) SoftDelete(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := conn(r.db, tx).ExecContext(ctx,
		`UPDATE questions SET is_deleted = TRUE WHERE id = $1 AND is_deleted = FALSE`, id)
	if err != nil {
		return fmt.Errorf("pgQuestionRepository.SoftDelete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("question %s: %w", id, common.ErrNotFound)
	}
	return nil
}

const versionColumns = `id, question_id, version, title, text, options, correct_index, created_at`

func scanVersion(row interface{ Scan(...interface{}) error }) (*model.QuestionVersion, error) {
	v := &model.QuestionVersion{}
	var options []byte
	if err := row.Scan(&v.ID, &v.QuestionID, &v.Version, &v.Title, &v.Text, &options, &v.CorrectIndex, &v.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(options, &v.Options); err != nil {
		return nil, fmt.Errorf("decode options of version %s: %w", v.ID, err)
	}
	return v, nil
}

func (r *pgQuestionRepository) CreateVersion(ctx context.Context, tx *sql.Tx, v *model.QuestionVersion) error {
	options, err := json.Marshal(v.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	query := `INSERT INTO question_versions (id, question_id, version, title, text, options, correct_index)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at`
	err = conn(r.db, tx).QueryRowContext(ctx, query,
		v.ID, v.QuestionID, v.Version, v.Title, v.Text, string(options), v.CorrectIndex,
	).Scan(&v.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("version %d of question %s already exists: %w", v.Version, v.QuestionID, common.ErrConflict)
		}
		return fmt.Errorf("pgQuestionRepository.CreateVersion: %w", err)
	}
	return nil
}

func (r *pgQuestionRepository) LatestVersion(ctx context.Context, tx *sql.Tx, questionID string) (*model.QuestionVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM question_versions
	          WHERE question_id = $1 ORDER BY version DESC LIMIT 1`
	v, err := scanVersion(conn(r.db, tx).QueryRowContext(ctx, query, questionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("question %s has no versions: %w", questionID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgQuestionRepository.LatestVersion: %w", err)
	}
	return v, nil
}

func (r *pgQuestionRepository) FindVersion(ctx context.Context, tx *sql.Tx, questionID string, version int) (*model.QuestionVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM question_versions WHERE question_id = $1 AND version = $2`
	v, err := scanVersion(conn(r.db, tx).QueryRowContext(ctx, query, questionID, version))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("version %d of question %s: %w", version, questionID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgQuestionRepository.FindVersion: %w", err)
	}
	return v, nil
}

func (r *pgQuestionRepository) FindVersionsByIDs(ctx context.Context, tx *sql.Tx, ids []string) (map[string]*model.QuestionVersion, error) {
	out := make(map[string]*model.QuestionVersion, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + versionColumns + ` FROM question_versions WHERE id = ANY($1::text[])`
	rows, err := conn(r.db, tx).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("pgQuestionRepository.FindVersionsByIDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("pgQuestionRepository.FindVersionsByIDs scan: %w", err)
		}
		out[v.ID] = v
	}
	return out, rows.Err()
}
