package wallet

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const balanceChannelPrefix = "wallet:balance:"

// Publisher fans balance events out to live clients.
type Publisher interface {
	Publish(ctx context.Context, ev BalanceEvent) error
}

// RedisPublisher uses one pub/sub channel per user so any API instance can
// serve the user's stream.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev BalanceEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, balanceChannel(ev.UserID), payload).Err()
}

// Subscribe returns the user's event subscription. Callers close it.
func (p *RedisPublisher) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return p.client.Subscribe(ctx, balanceChannel(userID))
}

func balanceChannel(userID string) string {
	return balanceChannelPrefix + userID
}

// PublishAfterAppend adapts a Publisher into a LedgerWriter hook.
func PublishAfterAppend(p Publisher) func(ctx context.Context, tx Transaction) {
	return func(ctx context.Context, tx Transaction) {
		if err := p.Publish(ctx, tx.event()); err != nil {
			log.Debug().Err(err).Str("user_id", tx.UserID).Msg("Failed to publish balance event")
		}
	}
}
