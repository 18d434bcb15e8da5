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

type UserRepository interface {
	Create(ctx context.Context, tx *sql.Tx, user *model.User) error
	FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.User, error)
	List(ctx context.Context, tx *sql.Tx) ([]model.User, error)
	UpdateFullName(ctx context.Context, tx *sql.Tx, id, fullName string) error
	SetRoles(ctx context.Context, tx *sql.Tx, id string, roles []string) error
	SetBlocked(ctx context.Context, tx *sql.Tx, id string, blocked bool) error
	// CountCourses counts courses the user is enrolled in.
	CountCourses(ctx context.Context, tx *sql.Tx, id string) (int, error)
	CountAttempts(ctx context.Context, tx *sql.Tx, id string) (int, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, username, full_name, email, is_blocked, roles, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	user := &model.User{}
	var roles pq.StringArray
	if err := row.Scan(&user.ID, &user.Username, &user.FullName, &user.Email, &user.IsBlocked, &roles, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Roles = []string(roles)
	if user.Roles == nil {
		user.Roles = []string{}
	}
	return user, nil
}

func (r *pgUserRepository) Create(ctx context.Context, tx *sql.Tx, user *model.User) error {
	query := `INSERT INTO users (id, username, full_name, email, is_blocked, roles)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		user.ID, user.Username, user.FullName, user.Email, user.IsBlocked, pq.Array(user.Roles),
	).Scan(&user.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("user with given id or username already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, tx *sql.Tx, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(conn(r.db, tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) List(ctx context.Context, tx *sql.Tx) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	rows, err := conn(r.db, tx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.List: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("pgUserRepository.List scan: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *pgUserRepository) UpdateFullName(ctx context.Context, tx *sql.Tx, id, fullName string) error {
	return r.update(ctx, tx, "UpdateFullName", `UPDATE users SET full_name = $2 WHERE id = $1`, id, fullName)
}

func (r *pgUserRepository) SetRoles(ctx context.Context, tx *sql.Tx, id string, roles []string) error {
	return r.update(ctx, tx, "SetRoles", `UPDATE users SET roles = $2 WHERE id = $1`, id, pq.Array(roles))
}

func (r *pgUserRepository) SetBlocked(ctx context.Context, tx *sql.Tx, id string, blocked bool) error {
	return r.update(ctx, tx, "SetBlocked", `UPDATE users SET is_blocked = $2 WHERE id = $1`, id, blocked)
}

func (r *pgUserRepository) update(ctx context.Context, tx *sql.Tx, op, query string, id string, value interface{}) error {
	res, err := conn(r.db, tx).ExecContext(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("pgUserRepository.%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *pgUserRepository) CountCourses(ctx context.Context, tx *sql.Tx, id string) (int, error) {
	query := `SELECT COUNT(*) FROM course_users cu
	          JOIN courses c ON c.id = cu.course_id
	          WHERE cu.user_id = $1 AND c.is_deleted = FALSE`
	var n int
	if err := conn(r.db, tx).QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("pgUserRepository.CountCourses: %w", err)
	}
	return n, nil
}

func (r *pgUserRepository) CountAttempts(ctx context.Context, tx *sql.Tx, id string) (int, error) {
	var n int
	if err := conn(r.db, tx).QueryRowContext(ctx, `SELECT COUNT(*) FROM attempts WHERE user_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("pgUserRepository.CountAttempts: %w", err)
	}
	return n, nil
}
