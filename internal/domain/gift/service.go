package gift

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lumenai/companion-api/internal/domain/chat"
	"github.com/lumenai/companion-api/internal/domain/wallet"
	"github.com/lumenai/companion-api/internal/pkg/logger"
)

// Wallet is the part of the wallet service gifting needs.
type Wallet interface {
	Spend(ctx context.Context, userID string, amount int64, description string) (int64, error)
	Reward(ctx context.Context, userID string, amount int64, itemType, refID, traceID string) (int64, error)
}

type Service struct {
	repo   Repository
	wallet Wallet
}

func NewService(repo Repository, w Wallet) *Service {
	return &Service{repo: repo, wallet: w}
}

// Send pays for the gift first and records it after. If recording fails the
// price is credited back with a compensating entry.
func (s *Service) Send(ctx context.Context, userID uuid.UUID, agentID, giftID string) (*Record, int64, error) {
	g, ok := Find(giftID)
	if !ok {
		return nil, 0, ErrGiftNotFound
	}
	if _, ok := chat.FindAgent(agentID); !ok {
		return nil, 0, ErrAgentNotFound
	}

	balance, err := s.wallet.Spend(ctx, userID.String(), g.Price, "gift:"+g.ID)
	if err != nil {
		return nil, 0, err
	}

	rec := &Record{
		ID:        uuid.New(),
		UserID:    userID,
		AgentID:   agentID,
		GiftID:    g.ID,
		Price:     g.Price,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(context.WithoutCancel(ctx), rec); err != nil {
		logger.FromContext(ctx).Error().Err(err).
			Str("user_id", userID.String()).
			Str("gift_id", g.ID).
			Msg("Failed to record gift, refunding")
		s.refund(ctx, userID, g.Price, rec.ID.String())
		return nil, 0, ErrNotDelivered
	}

	return rec, balance, nil
}

// Sent lists gifts the user has sent.
func (s *Service) Sent(ctx context.Context, userID uuid.UUID, agentID string, limit, offset int) ([]*Record, error) {
	return s.repo.ListByUser(ctx, userID, agentID, limit, offset)
}

func (s *Service) refund(ctx context.Context, userID uuid.UUID, price int64, refID string) {
	// The trace id makes a retried refund a no-op.
	_, err := s.wallet.Reward(context.WithoutCancel(ctx), userID.String(), price, wallet.ItemGiftRefund, refID, "gift-refund:"+refID)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).
			Str("user_id", userID.String()).
			Int64("amount", price).
			Str("ref_id", refID).
			Msg("Failed to refund undelivered gift")
	}
}
