package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cinebook/internal/catalog"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func seatColumns() []string {
	return []string{"id", "screen_id", "row", "number", "seat_type", "is_available", "is_blocked", "created_at"}
}

func TestTryReserveHoldsAllSeats(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRedisGate(nil), 5*time.Minute)

	showtime := &catalog.Showtime{ID: uuid.New(), ScreenID: uuid.New()}
	seatA, seatB := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "seats" WHERE id IN .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(seatColumns()).
			AddRow(seatA.String(), showtime.ScreenID.String(), "A", 1, "regular", true, false, time.Now()).
			AddRow(seatB.String(), showtime.ScreenID.String(), "A", 2, "regular", true, false, time.Now()))
	mock.ExpectQuery(`SELECT .* FROM "booking_seats" JOIN bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}))
	mock.ExpectExec(`UPDATE "seats" SET "is_available"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	reserved, err := svc.TryReserve(context.Background(), showtime, []uuid.UUID{seatA, seatB})
	require.NoError(t, err)
	require.Len(t, reserved, 2)
	assert.Equal(t, "A1", reserved[0].Label())
	assert.Equal(t, "A2", reserved[1].Label())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The seat rows must be locked FOR UPDATE inside the transaction so the
// gate stays advisory and two racing requests cannot both read the
// seats as available.
func TestTryReserveLocksSeatRows(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRedisGate(nil), 5*time.Minute)

	showtime := &catalog.Showtime{ID: uuid.New(), ScreenID: uuid.New()}
	seatA, seatB := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "seats" WHERE id IN .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(seatColumns()).
			AddRow(seatA.String(), showtime.ScreenID.String(), "A", 1, "regular", true, false, time.Now()))
	mock.ExpectRollback()

	_, err := svc.TryReserve(context.Background(), showtime, []uuid.UUID{seatA, seatB})
	assert.ErrorIs(t, err, ErrSeatMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryReserveRejectsSeatHeldByActiveBooking(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRedisGate(nil), 5*time.Minute)

	showtime := &catalog.Showtime{ID: uuid.New(), ScreenID: uuid.New()}
	seatA, seatB := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "seats" WHERE id IN .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(seatColumns()).
			AddRow(seatA.String(), showtime.ScreenID.String(), "B", 4, "regular", true, false, time.Now()).
			AddRow(seatB.String(), showtime.ScreenID.String(), "B", 5, "regular", true, false, time.Now()))
	mock.ExpectQuery(`SELECT .* FROM "booking_seats" JOIN bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(seatB.String()))
	mock.ExpectRollback()

	_, err := svc.TryReserve(context.Background(), showtime, []uuid.UUID{seatA, seatB})
	require.True(t, IsSeatUnavailable(err))
	var unavailable *SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"B5"}, unavailable.Seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryReserveRejectsFlaggedSeat(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRedisGate(nil), 5*time.Minute)

	showtime := &catalog.Showtime{ID: uuid.New(), ScreenID: uuid.New()}
	seatA := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "seats" WHERE id IN .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(seatColumns()).
			AddRow(seatA.String(), showtime.ScreenID.String(), "C", 7, "premium", false, false, time.Now()))
	mock.ExpectQuery(`SELECT .* FROM "booking_seats" JOIN bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}))
	mock.ExpectRollback()

	_, err := svc.TryReserve(context.Background(), showtime, []uuid.UUID{seatA})
	var unavailable *SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"C7"}, unavailable.Seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseRestoresAvailability(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRedisGate(nil), 5*time.Minute)

	seats := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "seats" SET "is_available"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, svc.Release(context.Background(), uuid.New(), seats))
	assert.NoError(t, mock.ExpectationsWereMet())

	// Releasing nothing touches nothing.
	require.NoError(t, svc.Release(context.Background(), uuid.New(), nil))
}
