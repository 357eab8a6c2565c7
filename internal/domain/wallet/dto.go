package wallet

import "time"

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

type AdRewardRequest struct {
	TraceID string `json:"trace_id" validate:"required,trace_id"`
}

type AdRewardResponse struct {
	Balance        int64 `json:"balance"`
	Credited       int64 `json:"credited"`
	AlreadyClaimed bool  `json:"already_claimed"`
}

type TransactionResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	BeforeBalance int64     `json:"before_balance"`
	AfterBalance  int64     `json:"after_balance"`
	ItemType      string    `json:"item_type"`
	RefID         *string   `json:"ref_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type TransactionListResponse struct {
	Items  []TransactionResponse `json:"items"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

func TransactionResponseFromEntity(tx Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID.String(),
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		BeforeBalance: tx.BeforeBalance,
		AfterBalance:  tx.AfterBalance,
		ItemType:      tx.ItemType,
		RefID:         tx.RefID,
		CreatedAt:     tx.CreatedAt,
	}
}
