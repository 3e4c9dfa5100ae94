package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

const (
	defaultTxAttempts = 3
	defaultTxBackoff  = 20 * time.Millisecond
)

// DBTX is the query surface shared by *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// Transactor runs units of work inside a single database transaction. The
// transaction travels on the context so repositories pick it up via Conn.
type Transactor struct {
	db       *sqlx.DB
	opts     *sql.TxOptions
	attempts int
	backoff  time.Duration
}

// NewTransactor builds a transactor using the default isolation level.
func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db, attempts: defaultTxAttempts, backoff: defaultTxBackoff}
}

// WithinTx executes fn inside a transaction. Nested calls join the
// transaction already present on ctx instead of opening a new one. A
// transaction aborted by a deadlock or serialization failure is run again
// from the start, up to a bounded number of attempts, so fn must not keep
// state across calls.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	for attempt := 1; ; attempt++ {
		err := t.run(ctx, fn)
		if err == nil || !IsRetryable(err) || attempt >= t.attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * t.backoff):
		}
	}
}

func (t *Transactor) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := t.db.BeginTxx(ctx, t.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Conn returns the transaction bound to ctx, falling back to db.
func Conn(ctx context.Context, db *sqlx.DB) DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return ok
}
