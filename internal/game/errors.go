package game

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the user-facing failure taxonomy. All of these are
// recoverable: handlers report them as plain text and take no further action.
var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrListingNotFound       = errors.New("listing not found")
	ErrChallengeNotFound     = errors.New("no pending challenge")
	ErrTradeNotFound         = errors.New("no pending trade")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrAlreadyPurchasedToday = errors.New("already purchased from this shop entry today")
	ErrSlotLimitReached      = errors.New("sell slot limit reached")
	ErrProposalExists        = errors.New("pending proposal to this user already exists")
)

// CooldownError reports a rate-limited action attempted before its cooldown
// elapsed. Remaining is how long until the action is allowed again.
type CooldownError struct {
	Remaining time.Duration
}

// Error implements the error interface.
func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active: %s remaining", e.Remaining.Round(time.Second))
}

// IsCooldown reports whether err is a CooldownError, unwrapping as needed.
func IsCooldown(err error) (*CooldownError, bool) {
	var ce *CooldownError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// InvalidArgumentError reports a malformed or out-of-range command argument.
type InvalidArgumentError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.Reason
}
