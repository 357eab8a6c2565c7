package wallet

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// A lost race leaves the statement snapshot showing enough funds; the
// debit is re-issued so the reported balance is current.
const maxDebitAttempts = 3

// BalanceStore is the single source of truth for spendable balances.
// Every method is one atomic statement.
type BalanceStore interface {
	Get(ctx context.Context, userID string) (int64, error)
	CreateIfMissing(ctx context.Context, userID string, initialGrant int64) (balance int64, created bool, err error)
	Debit(ctx context.Context, userID string, amount int64) (int64, error)
	Credit(ctx context.Context, userID string, amount int64) (int64, error)
}

// Repository implements BalanceStore on PostgreSQL.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT balance FROM wallet_balances WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrBalanceNotFound
	}
	if err != nil {
		return 0, storageErr("get balance", err)
	}
	return balance, nil
}

// CreateIfMissing inserts the wallet with its initial grant. Under concurrent
// first access exactly one caller gets created == true.
func (r *Repository) CreateIfMissing(ctx context.Context, userID string, initialGrant int64) (int64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int64
	err := r.db.GetContext(ctx, &balance, `
		INSERT INTO wallet_balances (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING balance
	`, userID, initialGrant)
	if err == nil {
		return balance, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, storageErr("create balance", err)
	}

	err = r.db.GetContext(ctx, &balance, `SELECT balance FROM wallet_balances WHERE user_id = $1`, userID)
	if err != nil {
		return 0, false, storageErr("read existing balance", err)
	}
	return balance, false, nil
}

type debitResult struct {
	NewBalance     sql.NullInt64 `db:"new_balance"`
	CurrentBalance sql.NullInt64 `db:"current_balance"`
}

// Debit subtracts amount only if the balance covers it. The compare and the
// write happen in one UPDATE; current_balance is read from the statement
// snapshot to explain a rejection.
func (r *Repository) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var res debitResult
	for attempt := 1; attempt <= maxDebitAttempts; attempt++ {
		err := r.db.GetContext(ctx, &res, `
			WITH debited AS (
				UPDATE wallet_balances
				SET balance = balance - $2, updated_at = now()
				WHERE user_id = $1 AND balance >= $2
				RETURNING balance
			)
			SELECT
				(SELECT balance FROM debited) AS new_balance,
				(SELECT balance FROM wallet_balances WHERE user_id = $1) AS current_balance
		`, userID, amount)
		if err != nil {
			return 0, storageErr("debit balance", err)
		}

		switch {
		case res.NewBalance.Valid:
			return res.NewBalance.Int64, nil
		case !res.CurrentBalance.Valid:
			return 0, ErrBalanceNotFound
		case res.CurrentBalance.Int64 < amount:
			return 0, &InsufficientFundsError{Balance: res.CurrentBalance.Int64, Required: amount}
		}
	}

	// Every attempt lost a race to a concurrent debit.
	var current int64
	if err := r.db.GetContext(ctx, &current, `SELECT balance FROM wallet_balances WHERE user_id = $1`, userID); err != nil {
		return 0, storageErr("read balance after debit race", err)
	}
	return 0, debitRaceLost(current, amount)
}

// debitRaceLost reports a debit that kept losing races. Insufficient funds is
// only claimed when the balance really is short.
func debitRaceLost(current, amount int64) error {
	if current < amount {
		return &InsufficientFundsError{Balance: current, Required: amount}
	}
	return storageErr("debit balance", errDebitContention)
}

// Credit increments the balance, creating the row when it does not exist.
func (r *Repository) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int64
	err := r.db.GetContext(ctx, &balance, `
		INSERT INTO wallet_balances (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = wallet_balances.balance + EXCLUDED.balance, updated_at = now()
		RETURNING balance
	`, userID, amount)
	if err != nil {
		return 0, storageErr("credit balance", err)
	}
	return balance, nil
}
