package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so stores work the same
// inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRunner runs a function within a single database transaction
type TxRunner interface {
	WithTx(ctx context.Context, fn func(q Querier) error) error
}

// DBTxRunner is a TxRunner backed by a *sql.DB
type DBTxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a TxRunner for db
func NewTxRunner(db *sql.DB) *DBTxRunner {
	return &DBTxRunner{db: db}
}

// WithTx executes fn within a transaction. The transaction is rolled back when
// fn returns an error and committed otherwise. The error of fn is returned as is.
func (r *DBTxRunner) WithTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// no-op once committed
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
