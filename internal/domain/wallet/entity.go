package wallet

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeRecharge TransactionType = "recharge"
	TransactionTypeConsume  TransactionType = "consume"
	TransactionTypeReward   TransactionType = "reward"
)

// Ledger item types. Spend writes a free-text description instead.
const (
	ItemAIMessage     = "ai_message"
	ItemAIImage       = "ai_image"
	ItemAIVoice       = "ai_voice"
	ItemAIVideo       = "ai_video"
	ItemOutfitUnlock  = "outfit_unlock"
	ItemOutfitRefund  = "outfit_refund"
	ItemGiftRefund    = "gift_refund"
	ItemAdReward      = "ad_reward"
	ItemAdminRecharge = "admin_recharge"
	ItemNewUserGift   = "new_user_gift"
)

// DefaultInitialGrant is credited once when a wallet is first touched.
const DefaultInitialGrant int64 = 100

type Balance struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Balance   int64     `db:"balance" json:"balance"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is an append-only ledger entry. AfterBalance always equals
// BeforeBalance + Amount.
type Transaction struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"user_id"`
	Type          TransactionType `db:"type" json:"type"`
	Amount        int64           `db:"amount" json:"amount"`
	BeforeBalance int64           `db:"before_balance" json:"before_balance"`
	AfterBalance  int64           `db:"after_balance" json:"after_balance"`
	ItemType      string          `db:"item_type" json:"item_type"`
	RefID         *string         `db:"ref_id" json:"ref_id,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Trace records an accepted external reward token.
type Trace struct {
	TraceID   string    `db:"trace_id" json:"trace_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ItemType  string    `db:"item_type" json:"item_type"`
	Amount    int64     `db:"amount" json:"amount"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BalanceEvent is pushed to live clients after a ledger entry is written.
type BalanceEvent struct {
	UserID   string          `json:"user_id"`
	Type     TransactionType `json:"type"`
	ItemType string          `json:"item_type"`
	Amount   int64           `json:"amount"`
	Balance  int64           `json:"balance"`
	At       time.Time       `json:"at"`
}

// Reconciliation compares the authoritative balance with the ledger.
type Reconciliation struct {
	UserID    string `json:"user_id"`
	Balance   int64  `json:"balance"`
	LedgerSum int64  `json:"ledger_sum"`
	Drift     int64  `json:"drift"`
}

func newTransaction(userID string, txType TransactionType, amount, after int64, itemType, refID string) Transaction {
	tx := Transaction{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BeforeBalance: after - amount,
		AfterBalance:  after,
		ItemType:      itemType,
		CreatedAt:     time.Now().UTC(),
	}
	if refID != "" {
		tx.RefID = &refID
	}
	return tx
}

func (t Transaction) event() BalanceEvent {
	return BalanceEvent{
		UserID:   t.UserID,
		Type:     t.Type,
		ItemType: t.ItemType,
		Amount:   t.Amount,
		Balance:  t.AfterBalance,
		At:       t.CreatedAt,
	}
}
