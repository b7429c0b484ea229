package inventory

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSeatMismatch is returned when requested seats do not exist or do
// not belong to the showtime's screen.
var ErrSeatMismatch = errors.New("some seats do not exist or don't belong to this screen")

// SeatUnavailableError reports a lost reservation race. Seats carries
// the user-facing labels of the conflicting seats so the client can
// re-select.
type SeatUnavailableError struct {
	Seats []string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("these seats are not available: %s", strings.Join(e.Seats, ", "))
}

// IsSeatUnavailable reports whether err is a SeatUnavailableError.
func IsSeatUnavailable(err error) bool {
	var su *SeatUnavailableError
	return errors.As(err, &su)
}
