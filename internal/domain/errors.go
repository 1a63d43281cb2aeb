package domain

import (
	"errors"
	"fmt"

	"fundhub/internal/money"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidAmount        = money.ErrInvalidAmount
	ErrUnderflow            = money.ErrUnderflow
	ErrInvalidRecord        = errors.New("invalid record")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrNoEligibleDonations  = errors.New("no eligible donations")
	ErrTokenMismatch        = errors.New("token mismatch")
	ErrInvalidConfirmations = errors.New("invalid confirmation count")
	ErrUnknownTransaction   = errors.New("unknown transaction")
	ErrChainFailure         = errors.New("chain failure")
	ErrSubscriptionFailure  = errors.New("subscription failure")
)

// TransitionError describes a rejected lifecycle transition.
type TransitionError struct {
	Trigger Trigger
	From    MilestoneStatus
	Reason  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s from %s: %s", e.Trigger, e.From, e.Reason)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
