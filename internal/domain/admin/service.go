package admin

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lumenai/companion-api/internal/domain/wallet"
	"github.com/lumenai/companion-api/internal/pkg/logger"
)

// Wallet is the part of the wallet service the admin panel uses.
type Wallet interface {
	Reward(ctx context.Context, userID string, amount int64, itemType, refID, traceID string) (int64, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]wallet.Transaction, error)
	Reconcile(ctx context.Context, userID string) (*wallet.Reconciliation, error)
}

type Service struct {
	wallet      Wallet
	audit       AuditRepository
	maxRecharge int64
}

func NewService(w Wallet, audit AuditRepository, maxRecharge int64) *Service {
	if maxRecharge <= 0 {
		maxRecharge = 100000
	}
	return &Service{wallet: w, audit: audit, maxRecharge: maxRecharge}
}

// RechargeInput describes one manual credit.
type RechargeInput struct {
	AdminID        uuid.UUID
	UserID         uuid.UUID
	Amount         int64
	Reason         string
	IdempotencyKey string
	IPAddress      string
}

// Recharge credits a user's wallet. The cap is enforced here; the wallet
// itself has no upper bound. An idempotency key makes a resubmitted form a
// duplicate instead of a second credit.
func (s *Service) Recharge(ctx context.Context, in RechargeInput) (int64, error) {
	if in.Amount <= 0 {
		return 0, wallet.ErrInvalidAmount
	}
	if in.Amount > s.maxRecharge {
		return 0, ErrAmountTooLarge
	}

	auditID := uuid.New()
	traceID := ""
	if in.IdempotencyKey != "" {
		traceID = "admin:" + in.IdempotencyKey
	}

	balance, err := s.wallet.Reward(ctx, in.UserID.String(), in.Amount, wallet.ItemAdminRecharge, auditID.String(), traceID)
	if err != nil {
		return 0, err
	}

	s.writeAudit(ctx, &AuditLog{
		ID:         auditID,
		AdminID:    in.AdminID,
		Action:     ActionWalletRecharge,
		EntityType: EntityUser,
		EntityID:   in.UserID.String(),
		NewValue:   mustJSON(map[string]int64{"amount": in.Amount, "balance": balance}),
		Reason:     in.Reason,
		IPAddress:  in.IPAddress,
		CreatedAt:  time.Now().UTC(),
	})

	return balance, nil
}

// WalletOverview is what support sees for one user.
type WalletOverview struct {
	Reconciliation *wallet.Reconciliation `json:"reconciliation"`
	Transactions   []wallet.Transaction   `json:"transactions"`
	Audit          []*AuditLog            `json:"audit"`
}

// Wallet returns balance, ledger drift and recent history without creating
// a wallet for users who never had one.
func (s *Service) Wallet(ctx context.Context, userID uuid.UUID, limit int) (*WalletOverview, error) {
	rec, err := s.wallet.Reconcile(ctx, userID.String())
	if err != nil {
		return nil, err
	}
	txs, err := s.wallet.ListTransactions(ctx, userID.String(), limit, 0)
	if err != nil {
		return nil, err
	}
	audit, err := s.audit.ListByEntity(ctx, EntityUser, userID.String(), limit)
	if err != nil {
		return nil, err
	}
	if audit == nil {
		audit = []*AuditLog{}
	}

	if rec.Drift != 0 {
		logger.FromContext(ctx).Warn().
			Str("user_id", userID.String()).
			Int64("balance", rec.Balance).
			Int64("ledger_sum", rec.LedgerSum).
			Msg("Wallet balance drifted from ledger")
	}

	return &WalletOverview{Reconciliation: rec, Transactions: txs, Audit: audit}, nil
}

func (s *Service) writeAudit(ctx context.Context, log *AuditLog) {
	if err := s.audit.Create(context.WithoutCancel(ctx), log); err != nil {
		logger.FromContext(ctx).Error().Err(err).
			Str("action", log.Action).
			Str("entity_id", log.EntityID).
			Msg("Failed to write admin audit log")
	}
}

func mustJSON(v interface{}) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
