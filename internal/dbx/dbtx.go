// Package dbx provides the small database/sql helpers shared by repositories:
// DBTX, satisfied by both *sql.DB and *sql.Tx, a transaction runner, and
// PostgreSQL error classification.
package dbx

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of database/sql used by repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRunner runs fn inside a transaction. Repositories built from the tx handle
// see a consistent view and are committed or rolled back together.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// WithTx begins a transaction, runs fn with it, and commits when fn succeeds.
// It rolls back when fn returns an error or panics; panics are re-raised.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}

// uniqueViolation is SQLSTATE 23505.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation surfaced by the pgx driver.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
