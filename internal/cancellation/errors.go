package cancellation

import (
	"errors"
	"fmt"
)

// ErrNoPolicy is returned when no active policy tier covers the
// requested cancellation window.
var ErrNoPolicy = errors.New("no cancellation policy applies")

// PolicyViolationError is returned when the applicable policy forbids
// cancellation, typically because the show is too close.
type PolicyViolationError struct {
	PolicyName      string
	HoursBeforeShow float64
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("cancellation not allowed %.1f hours before showtime under policy %q",
		e.HoursBeforeShow, e.PolicyName)
}
