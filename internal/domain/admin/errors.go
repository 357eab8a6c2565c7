package admin

import "errors"

var (
	ErrInvalidUserID  = errors.New("invalid user id")
	ErrAmountTooLarge = errors.New("recharge amount exceeds the allowed maximum")
)
