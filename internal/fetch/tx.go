package fetch

import (
	"context"

	"graphfetch/internal/apperr"
	"graphfetch/internal/dbconn"
	"graphfetch/internal/fnstore"
)

// txBeginner is satisfied by *dbconn.Pool. A bare pgx.Tx passed in as db
// has no BeginTx method, which is exactly the "already inside a
// transaction" case this file must not open a second transaction for.
type txBeginner interface {
	BeginTx(ctx context.Context) (*dbconn.Tx, error)
}

func isTxActive(db dbconn.Querier) bool {
	aware, ok := db.(dbconn.TxAware)
	return ok && aware.IsTx()
}

// beginIfLarge wraps oversized fetches in a transaction: a fetch of more than
// fnstore.MaxFnArguments unique ids spans several batches and must run
// atomically with respect to any CREATE FUNCTION a batch might trigger,
// unless the caller already supplied a transaction-bound db. It returns the
// Querier the rest of the fetch should run against, plus optional
// commit/rollback closures (both nil when no transaction was opened here).
func beginIfLarge(ctx context.Context, db dbconn.Querier, idCount int) (dbconn.Querier, func(context.Context) error, func(context.Context), error) {
	if idCount <= fnstore.MaxFnArguments || isTxActive(db) {
		return db, nil, nil, nil
	}
	beginner, ok := db.(txBeginner)
	if !ok {
		return db, nil, nil, nil
	}
	tx, err := beginner.BeginTx(ctx)
	if err != nil {
		return nil, nil, nil, apperr.Wrap(apperr.DatabaseError, "begin batched fetch transaction", err)
	}
	commit := func(ctx context.Context) error { return tx.Commit(ctx) }
	rollback := func(ctx context.Context) { tx.Rollback(ctx) }
	return tx, commit, rollback, nil
}
