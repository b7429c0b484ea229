package notifications

import (
	"time"

	"github.com/google/uuid"
)

// Notification is the message published for downstream delivery
// workers (email, SMS, push). This service only produces; delivery is
// someone else's problem.
type Notification struct {
	ID               uuid.UUID  `json:"id"`
	Kind             string     `json:"kind"`
	UserID           uuid.UUID  `json:"user_id"`
	BookingID        uuid.UUID  `json:"booking_id"`
	BookingReference string     `json:"booking_reference"`
	MovieTitle       string     `json:"movie_title,omitempty"`
	ShowtimeStartsAt *time.Time `json:"showtime_starts_at,omitempty"`
	SeatLabels       []string   `json:"seat_labels,omitempty"`
	TotalAmount      string     `json:"total_amount,omitempty"`
	ScheduledFor     *time.Time `json:"scheduled_for,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
