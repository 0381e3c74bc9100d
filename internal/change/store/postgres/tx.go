package postgres

import (
	"context"
	"database/sql"
	"time"

	id "changeflow/pkg/domain"
	dErrors "changeflow/pkg/domain-errors"
	txcontext "changeflow/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// Tx runs workflow mutations inside a database transaction. The *sql.Tx is
// carried on the context so the change store and the audit store both write
// through it; the row lock taken by FindByID (SELECT ... FOR UPDATE)
// serializes concurrent operations on the same change.
type Tx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewTx(db *sql.DB) *Tx {
	return &Tx{db: db, timeout: defaultTxTimeout}
}

func (t *Tx) RunInTx(ctx context.Context, _ id.ChangeID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
	}
	return nil
}
