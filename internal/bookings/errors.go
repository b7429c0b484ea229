package bookings

import (
	"errors"
	"fmt"
)

var (
	// ErrBookingNotFound is returned when a booking id or reference does
	// not resolve to a row.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrNotOwner is returned when a user acts on someone else's booking
	ErrNotOwner = errors.New("booking does not belong to this user")

	// ErrAlreadyExtended is returned when the one-time hold extension has
	// already been consumed.
	ErrAlreadyExtended = errors.New("booking hold has already been extended once")

	// ErrTooEarlyToExtend is returned when extension is requested before
	// the final window of the hold opens.
	ErrTooEarlyToExtend = errors.New("booking hold can only be extended close to expiry")

	// ErrTransactionNotFound is returned when a transaction id does not
	// resolve to a row.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrRefundNotFound is returned when a refund id does not resolve
	ErrRefundNotFound = errors.New("refund not found")
)

// ExpiredBookingError is returned when an operation reaches a pending
// booking whose hold deadline has passed, even if the sweeper has not
// retired the row yet.
type ExpiredBookingError struct {
	BookingID string
}

func (e *ExpiredBookingError) Error() string {
	return fmt.Sprintf("booking %s has expired", e.BookingID)
}

// InvalidTransitionError is returned when the lifecycle does not permit
// the requested status change.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition booking from %s to %s", e.From, e.To)
}

// ValidationError carries a field-level problem with a request
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
