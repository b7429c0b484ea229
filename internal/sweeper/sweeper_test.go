package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"cinebook/internal/bookings"
	"cinebook/pkg/logger"
)

type stubRepo struct {
	bookings.Repository
	overdue []uuid.UUID
	listErr error
}

func (r *stubRepo) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	return r.overdue, r.listErr
}

type stubLifecycle struct {
	bookings.Service
	expired []uuid.UUID
	failOn  map[uuid.UUID]error
	skipOn  map[uuid.UUID]bool
}

func (l *stubLifecycle) Expire(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	if err, ok := l.failOn[bookingID]; ok {
		return false, err
	}
	if l.skipOn[bookingID] {
		return false, nil
	}
	l.expired = append(l.expired, bookingID)
	return true, nil
}

func TestSweepExpiresOverdueBookings(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	lifecycle := &stubLifecycle{}
	s := New(lifecycle, &stubRepo{overdue: ids}, time.Minute, logger.New())

	expired, failed := s.Sweep(context.Background())
	assert.Equal(t, 3, expired)
	assert.Zero(t, failed)
	assert.ElementsMatch(t, ids, lifecycle.expired)
}

func TestSweepIsolatesFailures(t *testing.T) {
	good1, bad, good2 := uuid.New(), uuid.New(), uuid.New()
	lifecycle := &stubLifecycle{
		failOn: map[uuid.UUID]error{bad: errors.New("row deadlocked")},
	}
	s := New(lifecycle, &stubRepo{overdue: []uuid.UUID{good1, bad, good2}}, time.Minute, logger.New())

	expired, failed := s.Sweep(context.Background())
	assert.Equal(t, 2, expired, "one bad row must not stall the rest")
	assert.Equal(t, 1, failed)
	assert.ElementsMatch(t, []uuid.UUID{good1, good2}, lifecycle.expired)
}

func TestSweepCountsRacedBookingsAsNeither(t *testing.T) {
	raced := uuid.New()
	lifecycle := &stubLifecycle{skipOn: map[uuid.UUID]bool{raced: true}}
	s := New(lifecycle, &stubRepo{overdue: []uuid.UUID{raced}}, time.Minute, logger.New())

	expired, failed := s.Sweep(context.Background())
	assert.Zero(t, expired, "a booking someone else transitioned is not an expiry")
	assert.Zero(t, failed)
}

func TestSweepSurvivesListFailure(t *testing.T) {
	s := New(&stubLifecycle{}, &stubRepo{listErr: errors.New("db down")}, time.Minute, logger.New())

	expired, failed := s.Sweep(context.Background())
	assert.Zero(t, expired)
	assert.Zero(t, failed)
}
