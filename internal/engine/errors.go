package engine

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine matches exactly one of them
// with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrIntegrityGuard = errors.New("integrity guard")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	ErrInvalidDateRange = newError(ErrValidation, "check-out date must be after check-in date")
	ErrRoomOutOfService = newError(ErrValidation, "room is out of service")
	ErrPastCheckIn      = newError(ErrValidation, "cannot reactivate a reservation whose check-in is today or in the past")

	ErrCustomerNotFound    = newError(ErrNotFound, "customer not found")
	ErrRoomNotFound        = newError(ErrNotFound, "room not found")
	ErrReservationNotFound = newError(ErrNotFound, "reservation not found")

	ErrDateRangeConflict   = newError(ErrConflict, "room is not available for the selected dates")
	ErrDuplicateEmail      = newError(ErrConflict, "email already registered")
	ErrDuplicateRoomNumber = newError(ErrConflict, "room number already exists")

	ErrRoomHasActiveReservations     = newError(ErrIntegrityGuard, "cannot delete a room with active reservations")
	ErrCustomerHasActiveReservations = newError(ErrIntegrityGuard, "cannot delete a customer with active reservations")
	ErrRoomHasReservations           = newError(ErrIntegrityGuard, "cannot renumber a room that has reservations")
	ErrPaymentOnCancelled            = newError(ErrIntegrityGuard, "cannot mark a cancelled reservation as paid")
)

// invalid tags an input error from the validation package as a validation
// failure while keeping the field details reachable with errors.As.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
