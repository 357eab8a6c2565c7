package outfit

import (
	"time"

	"github.com/google/uuid"
)

// Outfit is a wardrobe item for one agent.
type Outfit struct {
	ID      string `json:"id"`
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
	Price   int64  `json:"price"`
}

// Unlock records that a user owns an outfit.
type Unlock struct {
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	OutfitID   string    `db:"outfit_id" json:"outfit_id"`
	Price      int64     `db:"price" json:"price"`
	UnlockedAt time.Time `db:"unlocked_at" json:"unlocked_at"`
}
