package main

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	dErrors "taxdesk/pkg/domain-errors"
	txcontext "taxdesk/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// postgresRunner runs a unit of work in one database transaction. Writers of
// the same aggregate key are serialized with a transaction-scoped advisory
// lock, matching the in-memory sharded runner.
type postgresRunner struct {
	db      *sqlx.DB
	timeout time.Duration
}

func newPostgresRunner(db *sqlx.DB) *postgresRunner {
	return &postgresRunner{db: db, timeout: defaultTxTimeout}
}

func (t *postgresRunner) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, joined := txcontext.From(ctx); joined {
		return fn(ctx)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if key != "" {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return err
		}
	}

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}
