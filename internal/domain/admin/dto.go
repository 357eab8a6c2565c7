package admin

type RechargeRequest struct {
	Amount         int64  `json:"amount" validate:"required,min=1"`
	Reason         string `json:"reason" validate:"required,min=3,max=500"`
	IdempotencyKey string `json:"idempotency_key" validate:"omitempty,trace_id"`
}

type RechargeResponse struct {
	UserID         string `json:"user_id"`
	Balance        int64  `json:"balance"`
	AlreadyApplied bool   `json:"already_applied"`
}
