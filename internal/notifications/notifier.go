package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cinebook/internal/bookings"
	"cinebook/internal/shared/config"
	"cinebook/pkg/logger"
)

// kafkaNotifier publishes booking lifecycle notifications. Immediate
// messages go to the notification topic keyed by user so one user's
// messages stay ordered; reminders go to the scheduled topic where a
// delayed-delivery consumer picks them up.
type kafkaNotifier struct {
	producer       Producer
	notifTopic     string
	scheduledTopic string
	log            *logger.Logger
}

func NewNotifier(producer Producer, cfg config.KafkaConfig, log *logger.Logger) bookings.Notifier {
	return &kafkaNotifier{
		producer:       producer,
		notifTopic:     cfg.NotificationTopic,
		scheduledTopic: cfg.ScheduledTopic,
		log:            log,
	}
}

func (n *kafkaNotifier) build(kind bookings.NotificationKind, booking *bookings.Booking) Notification {
	notification := Notification{
		ID:               uuid.New(),
		Kind:             string(kind),
		UserID:           booking.UserID,
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		TotalAmount:      booking.TotalAmount.StringFixed(2),
		CreatedAt:        time.Now(),
	}
	if booking.Showtime != nil {
		notification.MovieTitle = booking.Showtime.MovieTitle
		startsAt := booking.Showtime.StartsAt
		notification.ShowtimeStartsAt = &startsAt
	}
	for _, seat := range booking.Seats {
		notification.SeatLabels = append(notification.SeatLabels, seat.SeatLabel)
	}
	return notification
}

func (n *kafkaNotifier) Notify(ctx context.Context, kind bookings.NotificationKind, booking *bookings.Booking) error {
	notification := n.build(kind, booking)
	return n.producer.Publish(n.notifTopic, booking.UserID.String(), notification)
}

func (n *kafkaNotifier) ScheduleReminder(ctx context.Context, booking *bookings.Booking, at time.Time) error {
	notification := n.build(bookings.NotifyShowReminder, booking)
	notification.ScheduledFor = &at
	return n.producer.Publish(n.scheduledTopic, booking.UserID.String(), notification)
}
