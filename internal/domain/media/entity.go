package media

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindImage Kind = "image"
	KindVoice Kind = "voice"
	KindVideo Kind = "video"
)

// Asset is a generated piece of media delivered to a user.
type Asset struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	AgentID      string    `db:"agent_id" json:"agent_id,omitempty"`
	Kind         Kind      `db:"kind" json:"kind"`
	Prompt       string    `db:"prompt" json:"prompt"`
	URL          string    `db:"url" json:"url"`
	ThumbnailURL *string   `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	ContentType  string    `db:"content_type" json:"content_type"`
	Cost         int64     `db:"cost" json:"cost"`
	Charged      bool      `db:"charged" json:"charged"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
