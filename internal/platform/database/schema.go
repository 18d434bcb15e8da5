package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is idempotent and applied as a whole on start-up.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id          TEXT PRIMARY KEY,
    username    TEXT NOT NULL UNIQUE,
    full_name   TEXT NOT NULL DEFAULT '',
    email       TEXT,
    is_blocked  BOOLEAN NOT NULL DEFAULT FALSE,
    roles       TEXT[] NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS courses (
    id           TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    slug         TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    teacher_id   TEXT NOT NULL,
    is_deleted   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS course_users (
    course_id    TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    enrolled_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (course_id, user_id)
);

CREATE TABLE IF NOT EXISTS tests (
    id          TEXT PRIMARY KEY,
    course_id   TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    title       TEXT NOT NULL,
    is_active   BOOLEAN NOT NULL DEFAULT FALSE,
    is_deleted  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS questions (
    id          TEXT PRIMARY KEY,
    author_id   TEXT NOT NULL,
    is_deleted  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS question_versions (
    id             TEXT PRIMARY KEY,
    question_id    TEXT NOT NULL REFERENCES questions(id),
    version        INT NOT NULL,
    title          TEXT NOT NULL,
    text           TEXT NOT NULL,
    options        JSONB NOT NULL,
    correct_index  INT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (question_id, version)
);

CREATE TABLE IF NOT EXISTS test_questions (
    test_id      TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
    question_id  TEXT NOT NULL REFERENCES questions(id),
    position     INT NOT NULL,
    PRIMARY KEY (test_id, question_id),
    CONSTRAINT test_questions_position_key UNIQUE (test_id, position) DEFERRABLE INITIALLY DEFERRED
);

CREATE TABLE IF NOT EXISTS attempts (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    test_id      TEXT NOT NULL REFERENCES tests(id),
    status       TEXT NOT NULL CHECK (status IN ('in_progress', 'finished')),
    started_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    finished_at  TIMESTAMPTZ,
    score        NUMERIC
);

CREATE UNIQUE INDEX IF NOT EXISTS attempts_one_in_progress
    ON attempts (user_id, test_id) WHERE status = 'in_progress';

CREATE TABLE IF NOT EXISTS attempt_questions (
    attempt_id           TEXT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
    question_id          TEXT NOT NULL REFERENCES questions(id),
    question_version_id  TEXT NOT NULL REFERENCES question_versions(id),
    position             INT NOT NULL,
    PRIMARY KEY (attempt_id, question_id, question_version_id)
);

CREATE TABLE IF NOT EXISTS answers (
    id                   TEXT PRIMARY KEY,
    attempt_id           TEXT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
    question_id          TEXT NOT NULL REFERENCES questions(id),
    question_version_id  TEXT NOT NULL REFERENCES question_versions(id),
    value                INT NOT NULL DEFAULT -1,
    UNIQUE (attempt_id, question_id, question_version_id)
);

CREATE TABLE IF NOT EXISTS notifications (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    message     TEXT NOT NULL,
    payload     JSONB,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at);
`

// Migrate applies the schema inside a single transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return tx.Commit()
}
