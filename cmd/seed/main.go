package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"cinebook/internal/cancellation"
	"cinebook/internal/catalog"
	"cinebook/internal/shared/config"
	"cinebook/internal/shared/database"
	"cinebook/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting CineBook Database Seeder...")

	cfg := config.Load()

	db, err := database.Init(cfg, logger.New())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db.Gorm); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"booking_history",
		"refunds",
		"transactions",
		"booking_seats",
		"bookings",
		"cancellation_policies",
		"showtimes",
		"seats",
		"screens",
	}

	tx := s.db.Gorm.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	screenIDs, err := s.SeedScreens()
	if err != nil {
		return fmt.Errorf("failed to seed screens: %w", err)
	}

	if err := s.SeedShowtimes(screenIDs); err != nil {
		return fmt.Errorf("failed to seed showtimes: %w", err)
	}

	if err := s.SeedCancellationPolicies(); err != nil {
		return fmt.Errorf("failed to seed cancellation policies: %w", err)
	}

	// Clear stale seat holds so availability starts fresh
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	return nil
}

// SeedScreens creates 2 screens with their seat maps
func (s *Seeder) SeedScreens() ([]uuid.UUID, error) {
	fmt.Println("  🎬 Seeding screens and seats...")

	var screenIDs []uuid.UUID

	screensData := []struct {
		cinemaName string
		name       string
		rows       []struct {
			row      string
			count    int
			seatType catalog.SeatType
		}
	}{
		{
			cinemaName: "CineBook Central",
			name:       "Screen 1",
			rows: []struct {
				row      string
				count    int
				seatType catalog.SeatType
			}{
				{"A", 12, catalog.SeatTypeRegular},
				{"B", 12, catalog.SeatTypeRegular},
				{"C", 12, catalog.SeatTypePremium},
				{"D", 12, catalog.SeatTypePremium},
				{"E", 8, catalog.SeatTypeRecliner},
			},
		},
		{
			cinemaName: "CineBook Central",
			name:       "Screen 2",
			rows: []struct {
				row      string
				count    int
				seatType catalog.SeatType
			}{
				{"A", 10, catalog.SeatTypeRegular},
				{"B", 10, catalog.SeatTypeRegular},
				{"C", 10, catalog.SeatTypePremium},
				{"D", 6, catalog.SeatTypeCouple},
			},
		},
	}

	for _, screenData := range screensData {
		total := 0
		for _, row := range screenData.rows {
			total += row.count
		}

		screen := catalog.Screen{
			ID:         uuid.New(),
			CinemaName: screenData.cinemaName,
			Name:       screenData.name,
			TotalSeats: total,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}

		if err := s.db.Gorm.Create(&screen).Error; err != nil {
			return nil, fmt.Errorf("failed to create screen %s: %w", screen.Name, err)
		}

		for _, row := range screenData.rows {
			for number := 1; number <= row.count; number++ {
				seat := catalog.Seat{
					ID:          uuid.New(),
					ScreenID:    screen.ID,
					Row:         row.row,
					Number:      number,
					SeatType:    row.seatType,
					IsAvailable: true,
					CreatedAt:   time.Now(),
				}
				if err := s.db.Gorm.Create(&seat).Error; err != nil {
					return nil, fmt.Errorf("failed to create seat %s%d: %w", row.row, number, err)
				}
			}
		}

		screenIDs = append(screenIDs, screen.ID)
		fmt.Printf("    ✅ Created screen: %s (%d seats)\n", screen.Name, total)
	}

	return screenIDs, nil
}

// SeedShowtimes creates showtimes over the next 3 days
func (s *Seeder) SeedShowtimes(screenIDs []uuid.UUID) error {
	fmt.Println("  🎟️ Seeding showtimes...")

	titles := []string{
		"The Last Projection",
		"Midnight Express Redux",
		"Orbit",
	}

	slots := []int{11, 15, 19, 22}

	for day := 1; day <= 3; day++ {
		date := time.Now().AddDate(0, 0, day)
		for i, screenID := range screenIDs {
			for j, hour := range slots {
				showtime := catalog.Showtime{
					ID:            uuid.New(),
					MovieTitle:    titles[(day+i+j)%len(titles)],
					ScreenID:      screenID,
					StartsAt:      time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, time.Local),
					BasePrice:     decimal.RequireFromString("150.00"),
					PremiumPrice:  decimal.RequireFromString("250.00"),
					ReclinerPrice: decimal.RequireFromString("400.00"),
					IsActive:      true,
					CreatedAt:     time.Now(),
					UpdatedAt:     time.Now(),
				}
				if err := s.db.Gorm.Create(&showtime).Error; err != nil {
					return fmt.Errorf("failed to create showtime: %w", err)
				}
			}
		}
	}

	fmt.Printf("    ✅ Created %d showtimes\n", 3*len(screenIDs)*len(slots))
	return nil
}

// SeedCancellationPolicies creates the fee schedule tiers
func (s *Seeder) SeedCancellationPolicies() error {
	fmt.Println("  📋 Seeding cancellation policies...")

	policiesData := []struct {
		name            string
		hoursBeforeShow int
		feePercentage   string
		isRefundable    bool
	}{
		{"Free Cancellation", 48, "0.00", true},
		{"Early Cancellation", 24, "10.00", true},
		{"Standard Cancellation", 6, "25.00", true},
		{"Late Cancellation", 2, "50.00", true},
		{"No Refund", 0, "100.00", false},
	}

	for _, policyData := range policiesData {
		policy := cancellation.Policy{
			ID:              uuid.New(),
			Name:            policyData.name,
			HoursBeforeShow: policyData.hoursBeforeShow,
			FeePercentage:   decimal.RequireFromString(policyData.feePercentage),
			IsRefundable:    policyData.isRefundable,
			IsActive:        true,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}

		if err := s.db.Gorm.Create(&policy).Error; err != nil {
			return fmt.Errorf("failed to create policy %s: %w", policy.Name, err)
		}
		fmt.Printf("    ✅ Created policy: %s (%s%% fee from %dh before show)\n",
			policy.Name, policyData.feePercentage, policy.HoursBeforeShow)
	}

	return nil
}
