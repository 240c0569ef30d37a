package main

import (
	"context"
	"database/sql"
	"time"

	claimsservice "escena/internal/claims/service"
	claimsstore "escena/internal/claims/store"
	dErrors "escena/pkg/domain-errors"
)

const defaultClaimsTxTimeout = 5 * time.Second

// claimsPostgresTx runs claim workflow mutations in one Postgres transaction.
type claimsPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newClaimsPostgresTx(db *sql.DB, timeout time.Duration) *claimsPostgresTx {
	return &claimsPostgresTx{db: db, timeout: timeout}
}

func (t *claimsPostgresTx) RunInTx(ctx context.Context, fn func(store claimsservice.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultClaimsTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := claimsstore.WithTx(ctx, t.db, func(store *claimsstore.Postgres) error {
		return fn(store)
	})
	if err != nil && ctx.Err() != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction timed out")
	}
	return err
}
