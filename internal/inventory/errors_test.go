package inventory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeatUnavailableErrorNamesSeats(t *testing.T) {
	err := &SeatUnavailableError{Seats: []string{"A1", "A2"}}
	assert.Contains(t, err.Error(), "A1")
	assert.Contains(t, err.Error(), "A2")
	assert.True(t, IsSeatUnavailable(err))
	assert.True(t, IsSeatUnavailable(fmt.Errorf("reserving: %w", err)))
	assert.False(t, IsSeatUnavailable(errors.New("other")))
	assert.False(t, IsSeatUnavailable(ErrSeatMismatch))
}
