package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimiter is a fixed-window message counter in Redis.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a new rate limiter. A nil client allows everything.
func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{redis: redisClient, limit: limit, window: window}
}

// Allow checks if user can send message
func (rl *RateLimiter) Allow(ctx context.Context, userID uuid.UUID) bool {
	if rl == nil || rl.redis == nil {
		return true
	}

	key := fmt.Sprintf("ratelimit:chat:%s", userID)

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		log.Warn().Err(err).Msg("Chat rate limiter unavailable, allowing message")
		return true
	}

	if count == 1 {
		rl.redis.Expire(ctx, key, rl.window)
	}

	return count <= int64(rl.limit)
}
