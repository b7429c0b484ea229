package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) (*RedisGate, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGate(client), mr
}

func TestClaimGrantsWhenSeatsFree(t *testing.T) {
	gate, _ := newTestGate(t)
	showtimeID := uuid.New()
	seats := []uuid.UUID{uuid.New(), uuid.New()}

	conflicts, granted, err := gate.Claim(context.Background(), showtimeID, seats, time.Minute)
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Empty(t, conflicts)
}

func TestOverlappingClaimReportsEveryConflict(t *testing.T) {
	gate, _ := newTestGate(t)
	showtimeID := uuid.New()
	seatA, seatB, seatC := uuid.New(), uuid.New(), uuid.New()

	_, granted, err := gate.Claim(context.Background(), showtimeID, []uuid.UUID{seatA, seatB}, time.Minute)
	require.NoError(t, err)
	require.True(t, granted)

	conflicts, granted, err := gate.Claim(context.Background(), showtimeID, []uuid.UUID{seatA, seatB, seatC}, time.Minute)
	require.NoError(t, err)
	assert.False(t, granted)
	assert.ElementsMatch(t, []uuid.UUID{seatA, seatB}, conflicts)

	// The losing request must not have claimed its free seat either.
	conflicts, granted, err = gate.Claim(context.Background(), showtimeID, []uuid.UUID{seatC}, time.Minute)
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Empty(t, conflicts)
}

func TestClaimIsScopedToShowtime(t *testing.T) {
	gate, _ := newTestGate(t)
	seat := uuid.New()

	_, granted, err := gate.Claim(context.Background(), uuid.New(), []uuid.UUID{seat}, time.Minute)
	require.NoError(t, err)
	require.True(t, granted)

	// Same seat under a different showtime is an independent claim.
	_, granted, err = gate.Claim(context.Background(), uuid.New(), []uuid.UUID{seat}, time.Minute)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestDropFreesClaimedSeats(t *testing.T) {
	gate, _ := newTestGate(t)
	showtimeID := uuid.New()
	seats := []uuid.UUID{uuid.New(), uuid.New()}

	_, granted, err := gate.Claim(context.Background(), showtimeID, seats, time.Minute)
	require.NoError(t, err)
	require.True(t, granted)

	require.NoError(t, gate.Drop(context.Background(), showtimeID, seats))
	// Dropping already-freed seats is a no-op.
	require.NoError(t, gate.Drop(context.Background(), showtimeID, seats))

	_, granted, err = gate.Claim(context.Background(), showtimeID, seats, time.Minute)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestClaimExpiresAfterTTL(t *testing.T) {
	gate, mr := newTestGate(t)
	showtimeID := uuid.New()
	seats := []uuid.UUID{uuid.New()}

	_, granted, err := gate.Claim(context.Background(), showtimeID, seats, 30*time.Second)
	require.NoError(t, err)
	require.True(t, granted)

	mr.FastForward(31 * time.Second)

	_, granted, err = gate.Claim(context.Background(), showtimeID, seats, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestClaimWithoutRedisGrants(t *testing.T) {
	gate := NewRedisGate(nil)

	conflicts, granted, err := gate.Claim(context.Background(), uuid.New(), []uuid.UUID{uuid.New()}, time.Minute)
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Empty(t, conflicts)
}
