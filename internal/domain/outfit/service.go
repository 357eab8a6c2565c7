package outfit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lumenai/companion-api/internal/domain/wallet"
	"github.com/lumenai/companion-api/internal/pkg/logger"
)

// Wallet is the part of the wallet service unlocking needs.
type Wallet interface {
	Consume(ctx context.Context, userID string, amount int64, itemType, refID string) (int64, error)
	Reward(ctx context.Context, userID string, amount int64, itemType, refID, traceID string) (int64, error)
}

type Service struct {
	repo   Repository
	wallet Wallet
}

func NewService(repo Repository, w Wallet) *Service {
	return &Service{repo: repo, wallet: w}
}

// Item is a catalog outfit with the caller's ownership.
type Item struct {
	Outfit
	Unlocked bool `json:"unlocked"`
}

// List returns the catalog, optionally for one agent, marking owned outfits.
func (s *Service) List(ctx context.Context, userID uuid.UUID, agentID string) ([]Item, error) {
	unlocks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(unlocks))
	for _, u := range unlocks {
		owned[u.OutfitID] = true
	}

	items := make([]Item, 0, len(catalog))
	for _, o := range catalog {
		if agentID != "" && o.AgentID != agentID {
			continue
		}
		items = append(items, Item{Outfit: o, Unlocked: owned[o.ID]})
	}
	return items, nil
}

// Unlock charges the outfit price and records ownership. An outfit the user
// already owns is rejected before charging. Two concurrent unlocks can both
// pass that check; the loser of the insert is refunded.
func (s *Service) Unlock(ctx context.Context, userID uuid.UUID, outfitID string) (*Unlock, int64, error) {
	o, ok := Find(outfitID)
	if !ok {
		return nil, 0, ErrOutfitNotFound
	}

	unlocked, err := s.repo.IsUnlocked(ctx, userID, o.ID)
	if err != nil {
		return nil, 0, err
	}
	if unlocked {
		return nil, 0, ErrAlreadyUnlocked
	}

	balance, err := s.wallet.Consume(ctx, userID.String(), o.Price, wallet.ItemOutfitUnlock, o.ID)
	if err != nil {
		return nil, 0, err
	}

	u := &Unlock{UserID: userID, OutfitID: o.ID, Price: o.Price, UnlockedAt: time.Now().UTC()}
	inserted, err := s.repo.Create(context.WithoutCancel(ctx), u)
	switch {
	case err != nil:
		logger.FromContext(ctx).Error().Err(err).
			Str("user_id", userID.String()).
			Str("outfit_id", o.ID).
			Msg("Failed to record outfit unlock, refunding")
		s.refund(ctx, userID, o)
		return nil, 0, ErrUnlockNotApplied
	case !inserted:
		s.refund(ctx, userID, o)
		return nil, 0, ErrAlreadyUnlocked
	}

	return u, balance, nil
}

func (s *Service) refund(ctx context.Context, userID uuid.UUID, o Outfit) {
	attempt := uuid.NewString()
	_, err := s.wallet.Reward(context.WithoutCancel(ctx), userID.String(), o.Price, wallet.ItemOutfitRefund, o.ID, "outfit-refund:"+attempt)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).
			Str("user_id", userID.String()).
			Str("outfit_id", o.ID).
			Int64("amount", o.Price).
			Msg("Failed to refund outfit unlock")
	}
}
