package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusExpired, true},
		{StatusPending, StatusFailed, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusExpired, false},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusExpired, StatusConfirmed, false},
		{StatusFailed, StatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStatusCancellable(t *testing.T) {
	assert.True(t, StatusPending.CanBeCancelled())
	assert.True(t, StatusConfirmed.CanBeCancelled())
	assert.False(t, StatusCancelled.CanBeCancelled())
	assert.False(t, StatusExpired.CanBeCancelled())
	assert.False(t, StatusFailed.CanBeCancelled())
}

func TestStatusHoldsSeats(t *testing.T) {
	assert.True(t, StatusPending.HoldsSeats())
	assert.True(t, StatusConfirmed.HoldsSeats())
	assert.False(t, StatusCancelled.HoldsSeats())
	assert.False(t, StatusExpired.HoldsSeats())
	assert.False(t, StatusFailed.HoldsSeats())
}
