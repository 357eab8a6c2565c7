package chat

import "github.com/lumenai/companion-api/internal/domain/billing"

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=8000"`
}

type SendMessageResponse struct {
	Message *Message       `json:"message"`
	Reply   *Message       `json:"reply"`
	Charge  billing.Charge `json:"charge"`
}

type HistoryResponse struct {
	Items  []*Message `json:"items"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}
