package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by services and mapped to HTTP statuses in handlers.
// Lead/business lookups that fail authorization return ErrNotFound so callers
// cannot probe for the existence of resources they don't own.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrConflict            = errors.New("resource already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrRateLimited         = errors.New("too many lead submissions")
	ErrPinExpired          = errors.New("pin has expired")
	ErrPinLocked           = errors.New("too many attempts, pin locked")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrServiceUnavailable  = errors.New("payment provider unavailable")
)

// InvalidPinError carries the remaining attempt count for a failed PIN entry.
type InvalidPinError struct {
	Remaining int
}

func (e *InvalidPinError) Error() string {
	if e.Remaining <= 0 {
		return "invalid pin, pin locked"
	}
	if e.Remaining == 1 {
		return "invalid pin, 1 attempt remaining"
	}
	return fmt.Sprintf("invalid pin, %d attempts remaining", e.Remaining)
}
