package wallet

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	// The concrete error is *InsufficientFundsError.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateReward is returned when a trace id was already claimed.
	ErrDuplicateReward = errors.New("duplicate reward")

	// ErrStorageUnavailable wraps every failure of the backing store.
	ErrStorageUnavailable = errors.New("wallet storage unavailable")

	ErrInvalidAmount   = errors.New("invalid amount: must be greater than 0")
	ErrMissingItemType = errors.New("item type is required")

	// ErrBalanceNotFound never leaves the package; missing wallets are created lazily.
	ErrBalanceNotFound = errors.New("balance not found")

	errDebitContention = errors.New("debit kept losing to concurrent writers")
)

// InsufficientFundsError carries what the user needs to see to recharge.
type InsufficientFundsError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, required %d", e.Balance, e.Required)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// Shortfall is how many coins are missing.
func (e *InsufficientFundsError) Shortfall() int64 {
	return e.Required - e.Balance
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
