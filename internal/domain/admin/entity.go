package admin

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog represents an admin action log entry
type AuditLog struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	AdminID    uuid.UUID       `db:"admin_id" json:"admin_id"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entity_type"`
	EntityID   string          `db:"entity_id" json:"entity_id"`
	NewValue   json.RawMessage `db:"new_value" json:"new_value,omitempty"`
	Reason     string          `db:"reason" json:"reason"`
	IPAddress  string          `db:"ip_address" json:"ip_address,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

const (
	ActionWalletRecharge = "wallet.recharge"
	EntityUser           = "user"
)
