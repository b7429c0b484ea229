package database

import (
	"fmt"

	"gorm.io/gorm"

	"cinebook/internal/bookings"
	"cinebook/internal/cancellation"
	"cinebook/internal/catalog"
)

// Migrate applies the schema. Order matters for foreign keys.
func Migrate(db *gorm.DB) error {
	models := []interface{}{
		&catalog.Screen{},
		&catalog.Seat{},
		&catalog.Showtime{},
		&bookings.Booking{},
		&bookings.BookingSeat{},
		&bookings.Transaction{},
		&bookings.Refund{},
		&bookings.BookingHistory{},
		&cancellation.Policy{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// At most one transaction per booking may reach success; the partial
	// index makes the database enforce it under concurrent webhooks.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_single_success
		ON transactions (booking_id) WHERE status = 'success'`).Error; err != nil {
		return fmt.Errorf("failed to create success uniqueness index: %w", err)
	}
	return nil
}
