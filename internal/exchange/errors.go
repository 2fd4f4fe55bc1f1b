package exchange

import (
	"errors"
	"fmt"
)

// Sentinel errors for the exchange core. Handlers and callers match them with
// errors.Is; every precondition failure maps to exactly one of these, never a
// bare boolean.
var (
	// ErrNotFound is returned when a referenced entity is absent.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized is returned when the actor is not a participant of the
	// exchange or lacks the provider privilege for a forward transition.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrIllegalTransition is returned when the target state is unreachable
	// from the current state per the transition table.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrSameStatus is returned when the requested target equals the current
	// state. The call is a reported no-op and mutates nothing.
	ErrSameStatus = errors.New("exchange already in requested status")

	// ErrInsufficientFunds is returned when credit settlement would drive the
	// requester's balance negative. The whole transition is aborted.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotEligible is returned when rating a non-completed exchange.
	ErrNotEligible = errors.New("exchange not eligible for rating")

	// ErrAlreadyRated is returned on a duplicate (exchange, author) rating.
	ErrAlreadyRated = errors.New("already rated")

	// ErrInvalidScore is returned when a rating score is outside [1,5].
	ErrInvalidScore = errors.New("score must be between 1 and 5")

	// ErrInvalidInput is returned when a value is outside its allowed domain,
	// caught before any persistence attempt.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateActive is returned when an active exchange already exists
	// for the same (service, requester, provider) triple.
	ErrDuplicateActive = errors.New("active exchange already exists for this service")

	// ErrSelfRequest is returned when requester and provider are the same user.
	ErrSelfRequest = errors.New("cannot request an exchange with yourself")

	// ErrInvalidService is returned when a referenced service does not exist
	// or is owned by the wrong side.
	ErrInvalidService = errors.New("invalid service")

	// ErrConflict is returned when a concurrent request won the status race.
	// The losing caller saw stale state; retrying will report the real error.
	ErrConflict = errors.New("concurrent modification")
)

// InsufficientFundsError carries the shortfall detail for the HTTP layer.
type InsufficientFundsError struct {
	RequesterID string
	Balance     int64
	Cost        int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, cost %d", e.Balance, e.Cost)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// IsDomainError reports whether err is one of the rejected-operation kinds,
// as opposed to an infrastructure failure that should surface as a 500.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrNotAuthorized, ErrIllegalTransition, ErrSameStatus,
		ErrInsufficientFunds, ErrNotEligible, ErrAlreadyRated, ErrInvalidScore,
		ErrInvalidInput, ErrDuplicateActive, ErrSelfRequest, ErrInvalidService,
		ErrConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
