package wallet

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// DefaultTraceRetention bounds how long a reward token is remembered.
// Replays older than this are accepted.
const DefaultTraceRetention = 30 * 24 * time.Hour

const pqUniqueViolation = "23505"

// TraceStore guarantees at-most-once acceptance of an external reward token.
type TraceStore interface {
	// Claim atomically inserts the trace or returns ErrDuplicateReward.
	Claim(ctx context.Context, trace Trace) error
	// Release forgets a claim. It is only called when no credit was
	// attempted for it, since a credit error does not prove nothing applied.
	Release(ctx context.Context, traceID string) error
	// Purge removes traces created before the cutoff.
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// RewardCreditor is implemented by trace stores that live in the balance
// database. The claim and the credit commit or roll back together, so a
// failed reward leaves nothing behind to release.
type RewardCreditor interface {
	ClaimAndCredit(ctx context.Context, trace Trace, initialGrant int64) (RewardCredit, error)
}

// RewardCredit is the outcome of a committed ClaimAndCredit.
type RewardCredit struct {
	Balance       int64
	WalletCreated bool
}

// TraceRepository implements TraceStore on PostgreSQL; the primary key on
// trace_id does the deduplication.
type TraceRepository struct {
	db *sqlx.DB
}

func NewTraceRepository(db *sqlx.DB) *TraceRepository {
	return &TraceRepository{db: db}
}

func (r *TraceRepository) Claim(ctx context.Context, trace Trace) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO wallet_traces (trace_id, user_id, item_type, amount, created_at)
		VALUES (:trace_id, :user_id, :item_type, :amount, :created_at)
	`, trace)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicateReward
		}
		return storageErr("claim trace", err)
	}
	return nil
}

// ClaimAndCredit inserts the trace, creates the wallet with its initial grant
// if needed and credits trace.Amount in one transaction.
func (r *TraceRepository) ClaimAndCredit(ctx context.Context, trace Trace, initialGrant int64) (RewardCredit, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return RewardCredit{}, storageErr("begin reward", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO wallet_traces (trace_id, user_id, item_type, amount, created_at)
		VALUES (:trace_id, :user_id, :item_type, :amount, :created_at)
	`, trace)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return RewardCredit{}, ErrDuplicateReward
		}
		return RewardCredit{}, storageErr("claim trace", err)
	}

	var res RewardCredit
	var granted int64
	err = tx.GetContext(ctx, &granted, `
		INSERT INTO wallet_balances (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING balance
	`, trace.UserID, initialGrant)
	switch {
	case err == nil:
		res.WalletCreated = true
	case !errors.Is(err, sql.ErrNoRows):
		return RewardCredit{}, storageErr("create balance", err)
	}

	err = tx.GetContext(ctx, &res.Balance, `
		UPDATE wallet_balances
		SET balance = balance + $2, updated_at = now()
		WHERE user_id = $1
		RETURNING balance
	`, trace.UserID, trace.Amount)
	if err != nil {
		return RewardCredit{}, storageErr("credit balance", err)
	}

	if err := tx.Commit(); err != nil {
		return RewardCredit{}, storageErr("commit reward", err)
	}
	return res, nil
}

func (r *TraceRepository) Release(ctx context.Context, traceID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM wallet_traces WHERE trace_id = $1`, traceID); err != nil {
		return storageErr("release trace", err)
	}
	return nil
}

func (r *TraceRepository) Purge(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM wallet_traces WHERE created_at < $1`, before)
	if err != nil {
		return 0, storageErr("purge traces", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
