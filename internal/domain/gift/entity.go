package gift

import (
	"time"

	"github.com/google/uuid"
)

// Gift is a catalog item a user can send to an agent.
type Gift struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Record is one gift a user sent.
type Record struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	AgentID   string    `db:"agent_id" json:"agent_id"`
	GiftID    string    `db:"gift_id" json:"gift_id"`
	Price     int64     `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
