package outfit

import "errors"

var (
	ErrOutfitNotFound   = errors.New("outfit not found")
	ErrAlreadyUnlocked  = errors.New("outfit already unlocked")
	ErrUnlockNotApplied = errors.New("outfit could not be unlocked, coins were refunded")
)
