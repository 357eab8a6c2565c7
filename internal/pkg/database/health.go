package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Status reports reachability of the backing stores.
type Status struct {
	Postgres string `json:"postgres"`
	Redis    string `json:"redis"`
}

// Healthy is false when the authoritative store cannot be reached.
func (s Status) Healthy() bool {
	return s.Postgres == "ok"
}

// Check pings PostgreSQL and, when configured, Redis.
func Check(ctx context.Context, db *sqlx.DB, rdb *redis.Client) Status {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st := Status{Postgres: "ok", Redis: "disabled"}
	if db == nil || db.PingContext(ctx) != nil {
		st.Postgres = "unavailable"
	}
	if rdb != nil {
		st.Redis = "ok"
		if err := rdb.Ping(ctx).Err(); err != nil {
			st.Redis = "unavailable"
		}
	}
	return st
}
