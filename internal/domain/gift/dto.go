package gift

type SendRequest struct {
	AgentID string `json:"agent_id" validate:"required,slug"`
	GiftID  string `json:"gift_id" validate:"required,slug"`
}

type SendResponse struct {
	Gift    *Record `json:"gift"`
	Balance int64   `json:"balance"`
}

type SentListResponse struct {
	Items  []*Record `json:"items"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}
