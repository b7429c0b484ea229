package bookings

// Status is the booking lifecycle state
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
	StatusFailed    Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusExpired, StatusFailed:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status retires the booking. Confirmed
// bookings are terminal except for a later cancellation.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// HoldsSeats reports whether a booking in this status still holds its
// seats against other bookings of the same showtime.
func (s Status) HoldsSeats() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanBeCancelled reports whether explicit user cancellation is allowed
func (s Status) CanBeCancelled() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransitionTo reports whether the lifecycle permits moving from s
// to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled ||
			next == StatusExpired || next == StatusFailed
	case StatusConfirmed:
		return next == StatusCancelled
	default:
		return false
	}
}
