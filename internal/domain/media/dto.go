package media

import "github.com/lumenai/companion-api/internal/domain/billing"

type ImageRequest struct {
	Prompt  string `json:"prompt" validate:"required,max=2000"`
	Size    string `json:"size" validate:"omitempty,oneof=512x512 1024x1024 1024x1536 1536x1024"`
	AgentID string `json:"agent_id" validate:"omitempty,slug"`
}

type VoiceRequest struct {
	Text    string `json:"text" validate:"required,max=1000"`
	Voice   string `json:"voice" validate:"omitempty,slug"`
	AgentID string `json:"agent_id" validate:"omitempty,slug"`
}

type VideoRequest struct {
	Prompt  string `json:"prompt" validate:"required,max=2000"`
	Seconds int    `json:"seconds" validate:"gte=1,lte=20"`
	AgentID string `json:"agent_id" validate:"omitempty,slug"`
}

type AssetResponse struct {
	Asset  *Asset         `json:"asset"`
	Charge billing.Charge `json:"charge"`
}

type AssetListResponse struct {
	Items  []*Asset `json:"items"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}
