package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeatType enumerates seat tiers
type SeatType string

const (
	SeatTypeRegular  SeatType = "regular"
	SeatTypePremium  SeatType = "premium"
	SeatTypeRecliner SeatType = "recliner"
	SeatTypeCouple   SeatType = "couple"
)

// Screen defines an auditorium inside a cinema
type Screen struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CinemaName string    `gorm:"type:varchar(120);not null" json:"cinema_name"`
	Name       string    `gorm:"type:varchar(60);not null" json:"name"`
	TotalSeats int       `gorm:"not null" json:"total_seats"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Seat defines a physical seat on a screen.
// IsAvailable is mutated only through the inventory service;
// IsBlocked is an administrative flag independent of bookings.
type Seat struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ScreenID    uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_seat_position,priority:1" json:"screen_id"`
	Row         string    `gorm:"type:varchar(3);not null;uniqueIndex:idx_seat_position,priority:2" json:"row"`
	Number      int       `gorm:"not null;uniqueIndex:idx_seat_position,priority:3" json:"number"`
	SeatType    SeatType  `gorm:"type:varchar(10);default:'regular'" json:"seat_type"`
	IsAvailable bool      `gorm:"default:true" json:"is_available"`
	IsBlocked   bool      `gorm:"default:false" json:"is_blocked"`
	CreatedAt   time.Time `json:"created_at"`

	Screen *Screen `json:"screen,omitempty" gorm:"foreignKey:ScreenID"`
}

// Label returns the user-facing seat identifier, e.g. "A12"
func (s *Seat) Label() string {
	return fmt.Sprintf("%s%d", s.Row, s.Number)
}

// Showtime defines immutable scheduling facts for one screening.
// Exactly one showtime may exist per (screen, start time).
type Showtime struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MovieTitle    string          `gorm:"type:varchar(200);not null" json:"movie_title"`
	ScreenID      uuid.UUID       `gorm:"type:uuid;index;not null;uniqueIndex:idx_showtime_slot,priority:1" json:"screen_id"`
	StartsAt      time.Time       `gorm:"not null;uniqueIndex:idx_showtime_slot,priority:2" json:"starts_at"`
	BasePrice     decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"base_price"`
	PremiumPrice  decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"premium_price"`
	ReclinerPrice decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"recliner_price"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Screen *Screen `json:"screen,omitempty" gorm:"foreignKey:ScreenID"`
}

// HoursUntilStart returns the fractional hours remaining before the show
func (st *Showtime) HoursUntilStart(now time.Time) float64 {
	return st.StartsAt.Sub(now).Hours()
}

// TableName sets the table name for Screen
func (Screen) TableName() string {
	return "screens"
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats"
}

// TableName sets the table name for Showtime
func (Showtime) TableName() string {
	return "showtimes"
}
