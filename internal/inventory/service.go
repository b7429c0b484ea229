package inventory

import (
	"context"
	"fmt"
	"time"

	"cinebook/internal/catalog"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Non-terminal booking statuses still holding their seats. Matched
// literally against the bookings table to avoid a package cycle with
// the lifecycle manager.
var holdingStatuses = []string{"pending", "confirmed"}

// SeatAvailability is one seat in a showtime availability map.
type SeatAvailability struct {
	SeatID    uuid.UUID        `json:"seat_id"`
	Label     string           `json:"label"`
	SeatType  catalog.SeatType `json:"seat_type"`
	Available bool             `json:"available"`
}

// Service is the single authority over seat availability. All seat
// flag mutation funnels through here.
type Service interface {
	// TryReserve atomically transitions the full requested seat set
	// from available to held, or none of it. On conflict it returns a
	// SeatUnavailableError naming the contested seats. On success it
	// returns the reserved seats, loaded inside the reservation lock.
	TryReserve(ctx context.Context, showtime *catalog.Showtime, seatIDs []uuid.UUID) ([]catalog.Seat, error)

	// Release unconditionally returns seats to available. Idempotent.
	Release(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) error

	// AvailabilityForShowtime returns the effective availability of
	// every seat on the showtime's screen.
	AvailabilityForShowtime(ctx context.Context, showtime *catalog.Showtime) ([]SeatAvailability, error)
}

type service struct {
	db      *gorm.DB
	gate    *RedisGate
	holdTTL time.Duration
}

func NewService(db *gorm.DB, gate *RedisGate, holdTTL time.Duration) Service {
	return &service{
		db:      db,
		gate:    gate,
		holdTTL: holdTTL,
	}
}

func (s *service) TryReserve(ctx context.Context, showtime *catalog.Showtime, seatIDs []uuid.UUID) ([]catalog.Seat, error) {
	// Fast-path gate: serialize overlapping requests before touching
	// row locks. The row locks below stay authoritative.
	conflictIDs, granted, err := s.gate.Claim(ctx, showtime.ID, seatIDs, s.holdTTL)
	if err != nil {
		return nil, fmt.Errorf("seat claim gate failed: %w", err)
	}
	if !granted {
		return nil, &SeatUnavailableError{Seats: s.labelsFor(ctx, conflictIDs)}
	}

	var reserved []catalog.Seat
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seats []catalog.Seat
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ? AND screen_id = ?", seatIDs, showtime.ScreenID).
			Order("row ASC, number ASC").
			Find(&seats).Error; err != nil {
			return fmt.Errorf("failed to lock seats: %w", err)
		}

		if len(seats) != len(seatIDs) {
			return ErrSeatMismatch
		}

		// Seats held by another non-terminal booking for this showtime
		// are not re-offerable even when their flag was already reset.
		var heldIDs []uuid.UUID
		if err := tx.Table("booking_seats").
			Joins("JOIN bookings ON bookings.id = booking_seats.booking_id").
			Where("booking_seats.seat_id IN ?", seatIDs).
			Where("bookings.showtime_id = ?", showtime.ID).
			Where("bookings.status IN ?", holdingStatuses).
			Pluck("booking_seats.seat_id", &heldIDs).Error; err != nil {
			return fmt.Errorf("failed to check booking holds: %w", err)
		}

		held := make(map[uuid.UUID]bool, len(heldIDs))
		for _, id := range heldIDs {
			held[id] = true
		}

		var conflicts []string
		for i := range seats {
			if !seats[i].IsAvailable || seats[i].IsBlocked || held[seats[i].ID] {
				conflicts = append(conflicts, seats[i].Label())
			}
		}
		if len(conflicts) > 0 {
			return &SeatUnavailableError{Seats: conflicts}
		}

		if err := tx.Model(&catalog.Seat{}).
			Where("id IN ?", seatIDs).
			Update("is_available", false).Error; err != nil {
			return fmt.Errorf("failed to hold seats: %w", err)
		}

		reserved = seats
		return nil
	})

	if err != nil {
		// Compensate the gate claim so the seats are not dark-held
		// until the TTL runs out.
		_ = s.gate.Drop(ctx, showtime.ID, seatIDs)
		return nil, err
	}

	return reserved, nil
}

func (s *service) Release(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) error {
	if len(seatIDs) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&catalog.Seat{}).
		Where("id IN ?", seatIDs).
		Update("is_available", true).Error; err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}

	return s.gate.Drop(ctx, showtimeID, seatIDs)
}

func (s *service) AvailabilityForShowtime(ctx context.Context, showtime *catalog.Showtime) ([]SeatAvailability, error) {
	var seats []catalog.Seat
	if err := s.db.WithContext(ctx).
		Where("screen_id = ?", showtime.ScreenID).
		Order("row ASC, number ASC").
		Find(&seats).Error; err != nil {
		return nil, err
	}

	var heldIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Table("booking_seats").
		Joins("JOIN bookings ON bookings.id = booking_seats.booking_id").
		Where("bookings.showtime_id = ?", showtime.ID).
		Where("bookings.status IN ?", holdingStatuses).
		Pluck("booking_seats.seat_id", &heldIDs).Error; err != nil {
		return nil, err
	}

	held := make(map[uuid.UUID]bool, len(heldIDs))
	for _, id := range heldIDs {
		held[id] = true
	}

	availability := make([]SeatAvailability, 0, len(seats))
	for i := range seats {
		availability = append(availability, SeatAvailability{
			SeatID:    seats[i].ID,
			Label:     seats[i].Label(),
			SeatType:  seats[i].SeatType,
			Available: seats[i].IsAvailable && !seats[i].IsBlocked && !held[seats[i].ID],
		})
	}
	return availability, nil
}

// labelsFor resolves seat IDs to user-facing labels, falling back to
// the raw IDs when the lookup fails.
func (s *service) labelsFor(ctx context.Context, seatIDs []uuid.UUID) []string {
	var seats []catalog.Seat
	err := s.db.WithContext(ctx).
		Where("id IN ?", seatIDs).
		Order("row ASC, number ASC").
		Find(&seats).Error
	if err != nil || len(seats) == 0 {
		labels := make([]string, 0, len(seatIDs))
		for _, id := range seatIDs {
			labels = append(labels, id.String())
		}
		return labels
	}
	labels := make([]string, 0, len(seats))
	for i := range seats {
		labels = append(labels, seats[i].Label())
	}
	return labels
}
