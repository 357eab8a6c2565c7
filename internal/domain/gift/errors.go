package gift

import "errors"

var (
	ErrGiftNotFound  = errors.New("gift not found")
	ErrAgentNotFound = errors.New("agent not found")
	ErrNotDelivered  = errors.New("gift could not be delivered, coins were refunded")
)
