package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cinebook/internal/inventory"
	"cinebook/pkg/logger"
)

// NotificationKind names the user-facing messages the lifecycle emits
type NotificationKind string

const (
	NotifyBookingConfirmed NotificationKind = "booking_confirmed"
	NotifyBookingCancelled NotificationKind = "booking_cancelled"
	NotifyShowReminder     NotificationKind = "show_reminder"
	NotifyRefundProcessed  NotificationKind = "refund_processed"
)

// Notifier delivers lifecycle notifications. Implementations must not
// block the caller on delivery.
type Notifier interface {
	Notify(ctx context.Context, kind NotificationKind, booking *Booking) error
	ScheduleReminder(ctx context.Context, booking *Booking, at time.Time) error
}

// RefundProcessor pushes an initiated refund through its gateway.
// Implemented by the payment orchestrator.
type RefundProcessor interface {
	ProcessRefund(ctx context.Context, refundID uuid.UUID) error
}

// EffectKind names a side effect produced by a state transition
type EffectKind string

const (
	EffectNotify           EffectKind = "notify"
	EffectScheduleReminder EffectKind = "schedule_reminder"
	EffectReleaseSeats     EffectKind = "release_seats"
	EffectProcessRefund    EffectKind = "process_refund"
)

// Effect is a side-effect intent returned by a transition. Transitions
// only decide and persist state; effects run after the database commit
// so a failed side effect can never roll back a booking.
type Effect struct {
	Kind       EffectKind
	Notify     NotificationKind
	Booking    *Booking
	ReminderAt time.Time
	ShowtimeID uuid.UUID
	SeatIDs    []uuid.UUID
	RefundID   uuid.UUID
}

func notifyEffect(kind NotificationKind, booking *Booking) Effect {
	return Effect{Kind: EffectNotify, Notify: kind, Booking: booking}
}

func reminderEffect(booking *Booking, at time.Time) Effect {
	return Effect{Kind: EffectScheduleReminder, Booking: booking, ReminderAt: at}
}

func releaseSeatsEffect(booking *Booking) Effect {
	return Effect{Kind: EffectReleaseSeats, ShowtimeID: booking.ShowtimeID, SeatIDs: booking.SeatIDs()}
}

func refundEffect(refundID uuid.UUID) Effect {
	return Effect{Kind: EffectProcessRefund, RefundID: refundID}
}

// Dispatcher executes effect intents. Failures are logged and swallowed;
// the owning transition has already committed.
type Dispatcher struct {
	notifier  Notifier
	inventory inventory.Service
	refunds   RefundProcessor
	log       *logger.Logger
}

func NewDispatcher(notifier Notifier, inv inventory.Service, log *logger.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, inventory: inv, log: log}
}

// SetRefundProcessor breaks the construction cycle with the payment
// orchestrator, which itself depends on the lifecycle service.
func (d *Dispatcher) SetRefundProcessor(rp RefundProcessor) {
	d.refunds = rp
}

func (d *Dispatcher) Dispatch(ctx context.Context, effects []Effect) {
	for _, effect := range effects {
		d.run(ctx, effect)
	}
}

func (d *Dispatcher) run(ctx context.Context, effect Effect) {
	switch effect.Kind {
	case EffectNotify:
		if d.notifier == nil {
			return
		}
		if err := d.notifier.Notify(ctx, effect.Notify, effect.Booking); err != nil {
			d.log.WithError(err).Error("failed to send notification",
				"kind", string(effect.Notify), "booking_id", effect.Booking.ID.String())
		}
	case EffectScheduleReminder:
		if d.notifier == nil {
			return
		}
		if err := d.notifier.ScheduleReminder(ctx, effect.Booking, effect.ReminderAt); err != nil {
			d.log.WithError(err).Error("failed to schedule reminder",
				"booking_id", effect.Booking.ID.String())
		}
	case EffectReleaseSeats:
		if err := d.inventory.Release(ctx, effect.ShowtimeID, effect.SeatIDs); err != nil {
			d.log.WithError(err).Error("failed to release seats",
				"showtime_id", effect.ShowtimeID.String())
		}
	case EffectProcessRefund:
		if d.refunds == nil {
			d.log.Warn("refund effect dropped, no processor wired", "refund_id", effect.RefundID.String())
			return
		}
		if err := d.refunds.ProcessRefund(ctx, effect.RefundID); err != nil {
			d.log.WithError(err).Error("failed to process refund",
				"refund_id", effect.RefundID.String())
		}
	}
}
