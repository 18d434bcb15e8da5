package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// TxFunc runs inside a transaction. tx may be nil for stores without SQL
// transactions; repositories accept a nil tx everywhere.
type TxFunc func(ctx context.Context, tx *sql.Tx) error

// TxManager runs fn atomically: every write made through the repositories
// with the given tx is committed when fn returns nil and discarded otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

type pgTxManager struct {
	db *sql.DB
}

func NewPgTxManager(db *sql.DB) TxManager {
	return &pgTxManager{db: db}
}

func (m *pgTxManager) WithinTx(ctx context.Context, fn TxFunc) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// conn picks the transaction when one is given and the pool otherwise.
func conn(db *sql.DB, tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return db
}
