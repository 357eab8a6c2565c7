package chat

import "errors"

var (
	ErrAgentNotFound  = errors.New("agent not found")
	ErrEmptyMessage   = errors.New("message content is empty")
	ErrMessageTooLong = errors.New("message is too long")
	ErrRateLimited    = errors.New("too many messages, slow down")
	ErrProviderFailed = errors.New("companion could not reply")
)
