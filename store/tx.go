package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

type txKey struct{}

type txHooksKey struct{}

// onCommit defers fn until the surrounding transaction commits; a rolled
// back transaction never runs it. It reports false when ctx carries no
// transaction, in which case the caller runs fn itself.
func onCommit(ctx context.Context, fn func()) bool {
	hooks, ok := ctx.Value(txHooksKey{}).(*[]func())
	if !ok {
		return false
	}
	*hooks = append(*hooks, fn)
	return true
}

// ContextWithTx returns a context carrying the transaction. Driver methods
// pick it up so the same query code serves transactional and autonomous
// calls.
func ContextWithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext extracts the carried transaction, if any.
func TxFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// RunInTx executes fn inside a single transaction: the unit of work of one
// request. It commits exactly once on success and rolls back on error. No
// component below the orchestrator commits on its own.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		// Already inside a unit of work; join it.
		return fn(ctx)
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	hooks := &[]func(){}
	txCtx := context.WithValue(ContextWithTx(ctx, tx), txHooksKey{}, hooks)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Wrapf(err, "rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	for _, hook := range *hooks {
		hook()
	}
	return nil
}
