package wallet

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lumenai/companion-api/internal/pkg/logger"
)

const releaseTimeout = 3 * time.Second

// Deps are the stores the service wraps. The service is the only writer of
// balances; everything else reads them through GetBalance.
type Deps struct {
	Balances BalanceStore
	Ledger   Recorder
	History  History
	Traces   TraceStore
}

type Options struct {
	InitialGrant int64
}

type Service struct {
	balances     BalanceStore
	ledger       Recorder
	history      History
	traces       TraceStore
	initialGrant int64
}

func NewService(deps Deps, opts Options) *Service {
	if opts.InitialGrant < 0 {
		opts.InitialGrant = 0
	}
	return &Service{
		balances:     deps.Balances,
		ledger:       deps.Ledger,
		history:      deps.History,
		traces:       deps.Traces,
		initialGrant: opts.InitialGrant,
	}
}

// GetBalance returns the balance, creating the wallet with its initial grant
// on first access.
func (s *Service) GetBalance(ctx context.Context, userID string) (int64, error) {
	balance, err := s.balances.Get(ctx, userID)
	if errors.Is(err, ErrBalanceNotFound) {
		return s.ensureWallet(ctx, userID)
	}
	return balance, err
}

// peekBalance reads the balance without creating the wallet. A user without
// one has zero.
func (s *Service) peekBalance(ctx context.Context, userID string) (int64, error) {
	balance, err := s.balances.Get(ctx, userID)
	if errors.Is(err, ErrBalanceNotFound) {
		return 0, nil
	}
	return balance, err
}

// Consume debits amount if the balance covers it. It is safe to call after
// the paid side effect already happened; whether a failed debit voids that
// result is the caller's decision. amount <= 0 is a no-op that neither
// creates the wallet nor writes the ledger.
func (s *Service) Consume(ctx context.Context, userID string, amount int64, itemType, refID string) (int64, error) {
	if amount <= 0 {
		return s.peekBalance(ctx, userID)
	}
	if strings.TrimSpace(itemType) == "" {
		return 0, ErrMissingItemType
	}

	balance, err := s.debit(ctx, userID, amount)
	observe("consume", err)
	if err != nil {
		return 0, err
	}

	s.record(newTransaction(userID, TransactionTypeConsume, -amount, balance, itemType, refID))
	logger.FromContext(ctx).Info().
		Str("user_id", userID).
		Int64("amount", amount).
		Int64("balance", balance).
		Str("item_type", itemType).
		Msg("wallet consume applied")
	return balance, nil
}

// Spend is Consume for one-off purchases tagged with a free-text description.
func (s *Service) Spend(ctx context.Context, userID string, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return s.peekBalance(ctx, userID)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return 0, ErrMissingItemType
	}

	balance, err := s.debit(ctx, userID, amount)
	observe("spend", err)
	if err != nil {
		return 0, err
	}

	s.record(newTransaction(userID, TransactionTypeConsume, -amount, balance, description, ""))
	logger.FromContext(ctx).Info().
		Str("user_id", userID).
		Int64("amount", amount).
		Int64("balance", balance).
		Str("description", description).
		Msg("wallet spend applied")
	return balance, nil
}

// Reward credits amount. A non-empty traceID is claimed first and a replayed
// one fails with ErrDuplicateReward without touching the balance.
func (s *Service) Reward(ctx context.Context, userID string, amount int64, itemType, refID, traceID string) (int64, error) {
	balance, err := s.reward(ctx, userID, amount, itemType, refID, traceID)
	observe("reward", err)
	return balance, err
}

func (s *Service) reward(ctx context.Context, userID string, amount int64, itemType, refID, traceID string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if strings.TrimSpace(itemType) == "" {
		return 0, ErrMissingItemType
	}

	balance, err := s.credit(ctx, Trace{
		TraceID:   traceID,
		UserID:    userID,
		ItemType:  itemType,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateReward) {
			logger.FromContext(ctx).Info().
				Str("user_id", userID).
				Str("trace_id", traceID).
				Msg("wallet reward replay rejected")
		}
		return 0, err
	}

	txType := TransactionTypeReward
	if itemType == ItemAdminRecharge {
		txType = TransactionTypeRecharge
	}
	s.record(newTransaction(userID, txType, amount, balance, itemType, refID))

	logger.FromContext(ctx).Info().
		Str("user_id", userID).
		Int64("amount", amount).
		Int64("balance", balance).
		Str("item_type", itemType).
		Str("trace_id", traceID).
		Msg("wallet reward applied")
	return balance, nil
}

// credit applies a reward. With a trace id on a store that shares the balance
// database, the claim and the credit are one transaction. Otherwise the claim
// is only released when no credit was attempted: a Credit error may still
// have committed, and a released claim would let the retry credit again.
func (s *Service) credit(ctx context.Context, trace Trace) (int64, error) {
	if trace.TraceID != "" {
		if rc, ok := s.traces.(RewardCreditor); ok {
			res, err := rc.ClaimAndCredit(ctx, trace, s.initialGrant)
			if err != nil {
				return 0, err
			}
			if res.WalletCreated {
				s.recordGrant(ctx, trace.UserID, s.initialGrant)
			}
			return res.Balance, nil
		}
		if err := s.traces.Claim(ctx, trace); err != nil {
			return 0, err
		}
	}

	if _, err := s.ensureWallet(ctx, trace.UserID); err != nil {
		s.releaseClaim(ctx, trace.TraceID)
		return 0, err
	}

	balance, err := s.balances.Credit(ctx, trace.UserID, trace.Amount)
	if err != nil && trace.TraceID != "" {
		logger.FromContext(ctx).Error().Err(err).
			Str("user_id", trace.UserID).
			Str("trace_id", trace.TraceID).
			Msg("wallet reward credit failed, trace kept claimed")
	}
	return balance, err
}

// ListTransactions returns the user's ledger, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]Transaction, error) {
	return s.history.ListByUser(ctx, userID, limit, offset)
}

// Reconcile compares the balance with the sum of the user's ledger entries.
// A non-zero drift means ledger entries were dropped.
func (s *Service) Reconcile(ctx context.Context, userID string) (*Reconciliation, error) {
	balance, err := s.balances.Get(ctx, userID)
	if errors.Is(err, ErrBalanceNotFound) {
		return &Reconciliation{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}

	sum, err := s.history.SumByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Reconciliation{
		UserID:    userID,
		Balance:   balance,
		LedgerSum: sum,
		Drift:     balance - sum,
	}, nil
}

func (s *Service) debit(ctx context.Context, userID string, amount int64) (int64, error) {
	balance, err := s.balances.Debit(ctx, userID, amount)
	if !errors.Is(err, ErrBalanceNotFound) {
		return balance, err
	}

	if _, err := s.ensureWallet(ctx, userID); err != nil {
		return 0, err
	}
	balance, err = s.balances.Debit(ctx, userID, amount)
	if errors.Is(err, ErrBalanceNotFound) {
		return 0, storageErr("debit balance", err)
	}
	return balance, err
}

// ensureWallet creates the wallet if needed. Only the caller whose insert
// won records the welcome grant.
func (s *Service) ensureWallet(ctx context.Context, userID string) (int64, error) {
	balance, created, err := s.balances.CreateIfMissing(ctx, userID, s.initialGrant)
	if err != nil {
		return 0, err
	}
	if created {
		s.recordGrant(ctx, userID, s.initialGrant)
	}
	return balance, nil
}

// recordGrant logs the welcome grant of a wallet that was just created. The
// grant is the wallet's first balance.
func (s *Service) recordGrant(ctx context.Context, userID string, grant int64) {
	if grant <= 0 {
		return
	}
	s.record(newTransaction(userID, TransactionTypeReward, grant, grant, ItemNewUserGift, ""))
	logger.FromContext(ctx).Info().
		Str("user_id", userID).
		Int64("grant", grant).
		Msg("wallet created with welcome grant")
}

func (s *Service) releaseClaim(ctx context.Context, traceID string) {
	if traceID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := s.traces.Release(ctx, traceID); err != nil {
		logger.FromContext(ctx).Error().Err(err).
			Str("trace_id", traceID).
			Msg("Failed to release reward trace after wallet creation failure")
	}
}

func (s *Service) record(tx Transaction) {
	if s.ledger != nil {
		s.ledger.Record(tx)
	}
}
