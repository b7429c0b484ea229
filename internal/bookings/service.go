package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cinebook/internal/catalog"
	"cinebook/internal/inventory"
	"cinebook/internal/shared/config"
	"cinebook/pkg/logger"
)

const referenceAttempts = 5

// PolicyAssessment is the cancellation verdict for a booking at a given
// distance from showtime.
type PolicyAssessment struct {
	PolicyName      string
	FeePercentage   decimal.Decimal
	CancellationFee decimal.Decimal
	RefundAmount    decimal.Decimal
}

// PolicyEngine decides whether and at what cost a booking may be
// cancelled. Implemented by the cancellation package.
type PolicyEngine interface {
	Assess(ctx context.Context, total decimal.Decimal, hoursBeforeShow float64) (*PolicyAssessment, error)
}

// CancellationResult reports the outcome of a cancellation, including
// the refund owed when a payment had been captured.
type CancellationResult struct {
	Booking         *Booking
	CancellationFee decimal.Decimal
	RefundAmount    decimal.Decimal
	Refund          *Refund
}

type Service interface {
	Create(ctx context.Context, userID, showtimeID uuid.UUID, seatIDs []uuid.UUID, source, specialRequests string) (*Booking, error)
	GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) ([]Booking, int64, error)
	GetHistory(ctx context.Context, bookingID, userID uuid.UUID) ([]BookingHistory, error)
	ConfirmOnPayment(ctx context.Context, bookingID uuid.UUID, txn *Transaction) (*Booking, error)
	FailPayment(ctx context.Context, bookingID uuid.UUID) error
	ExtendTimer(ctx context.Context, bookingID, userID uuid.UUID) (*Booking, error)
	Cancel(ctx context.Context, bookingID, userID uuid.UUID, reason string) (*CancellationResult, error)
	Expire(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type service struct {
	repo       Repository
	catalog    catalog.Repository
	inventory  inventory.Service
	pricing    catalog.PricingResolver
	policy     PolicyEngine
	dispatcher *Dispatcher
	log        *logger.Logger

	holdTTL         time.Duration
	extension       time.Duration
	retryExtension  time.Duration
	extensionWindow time.Duration
	reminderLead    time.Duration
	taxRate         decimal.Decimal
	convenienceFee  decimal.Decimal
	maxSeats        int
}

func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	inv inventory.Service,
	pricing catalog.PricingResolver,
	policy PolicyEngine,
	dispatcher *Dispatcher,
	cfg config.BookingConfig,
	log *logger.Logger,
) Service {
	return &service{
		repo:            repo,
		catalog:         catalogRepo,
		inventory:       inv,
		pricing:         pricing,
		policy:          policy,
		dispatcher:      dispatcher,
		log:             log,
		holdTTL:         cfg.HoldTTL,
		extension:       cfg.Extension,
		retryExtension:  cfg.RetryExtension,
		extensionWindow: cfg.ExtensionWindow,
		reminderLead:    cfg.ReminderLeadTime,
		taxRate:         decimal.RequireFromString(cfg.TaxRate),
		convenienceFee:  decimal.RequireFromString(cfg.ConvenienceFee),
		maxSeats:        cfg.MaxSeats,
	}
}

func (s *service) Create(ctx context.Context, userID, showtimeID uuid.UUID, seatIDs []uuid.UUID, source, specialRequests string) (*Booking, error) {
	if len(seatIDs) == 0 {
		return nil, NewValidationError("seat_ids", "at least one seat is required")
	}
	if len(seatIDs) > s.maxSeats {
		return nil, NewValidationError("seat_ids", fmt.Sprintf("cannot book more than %d seats", s.maxSeats))
	}
	seen := make(map[uuid.UUID]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if _, dup := seen[id]; dup {
			return nil, NewValidationError("seat_ids", "duplicate seat in request")
		}
		seen[id] = struct{}{}
	}

	showtime, err := s.catalog.GetShowtimeByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if !showtime.IsActive {
		return nil, NewValidationError("showtime_id", "showtime is not open for booking")
	}
	if !showtime.StartsAt.After(now) {
		return nil, NewValidationError("showtime_id", "showtime has already started")
	}

	seats, err := s.inventory.TryReserve(ctx, showtime, seatIDs)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	bookingSeats := make([]BookingSeat, 0, len(seats))
	for i := range seats {
		price := s.pricing.PriceFor(showtime, &seats[i])
		subtotal = subtotal.Add(price)
		bookingSeats = append(bookingSeats, BookingSeat{
			SeatID:    seats[i].ID,
			SeatLabel: seats[i].Label(),
			SeatType:  seats[i].SeatType,
			PricePaid: price,
		})
	}
	tax := subtotal.Mul(s.taxRate).Round(2)
	total := subtotal.Add(tax).Add(s.convenienceFee)

	if source == "" {
		source = "web"
	}
	booking := &Booking{
		UserID:          userID,
		ShowtimeID:      showtimeID,
		Status:          StatusPending,
		SeatCount:       len(seats),
		Subtotal:        subtotal,
		TaxAmount:       tax,
		ConvenienceFee:  s.convenienceFee,
		TotalAmount:     total,
		ExpiresAt:       now.Add(s.holdTTL),
		BookingSource:   source,
		SpecialRequests: specialRequests,
	}

	if err := s.createWithReference(ctx, booking, bookingSeats); err != nil {
		if relErr := s.inventory.Release(ctx, showtimeID, seatIDs); relErr != nil {
			s.log.WithError(relErr).Error("failed to release seats after booking create failure",
				"showtime_id", showtimeID.String())
		}
		return nil, err
	}

	booking.Seats = bookingSeats
	booking.Showtime = showtime
	s.log.LogBookingCreated(ctx, booking.BookingReference, showtimeID.String(), userID.String())
	return booking, nil
}

func (s *service) createWithReference(ctx context.Context, booking *Booking, seats []BookingSeat) error {
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		reference, err := NewBookingReference()
		if err != nil {
			return fmt.Errorf("failed to generate booking reference: %w", err)
		}
		exists, err := s.repo.ReferenceExists(ctx, reference)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		booking.BookingReference = reference
		return s.repo.CreateBooking(ctx, booking, seats)
	}
	return fmt.Errorf("could not allocate a unique booking reference after %d attempts", referenceAttempts)
}

func (s *service) GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotOwner
	}
	return booking, nil
}

func (s *service) GetUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) ([]Booking, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.GetUserBookings(ctx, userID, limit, (page-1)*limit)
}

func (s *service) GetHistory(ctx context.Context, bookingID, userID uuid.UUID) ([]BookingHistory, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotOwner
	}
	return s.repo.GetHistory(ctx, bookingID)
}

// ConfirmOnPayment moves a pending booking to confirmed after a verified
// successful payment. Calling it again for an already confirmed booking
// is a no-op, so gateway retries and webhook replays stay safe.
func (s *service) ConfirmOnPayment(ctx context.Context, bookingID uuid.UUID, txn *Transaction) (*Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == StatusConfirmed {
		return booking, nil
	}
	if booking.Status != StatusPending {
		return nil, &InvalidTransitionError{From: booking.Status, To: StatusConfirmed}
	}
	now := time.Now()
	if booking.IsExpiredAt(now) {
		return nil, &ExpiredBookingError{BookingID: booking.ID.String()}
	}

	applied, err := s.repo.TransitionStatus(ctx, bookingID, StatusPending, StatusConfirmed,
		map[string]interface{}{"confirmed_at": now},
		HistoryEntry{
			PreviousStatus: StatusPending,
			NewStatus:      StatusConfirmed,
			Reason:         "Payment completed successfully",
			ChangedBy:      &booking.UserID,
		})
	if err != nil {
		return nil, err
	}
	if !applied {
		fresh, err := s.repo.GetBookingByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if fresh.Status == StatusConfirmed {
			return fresh, nil
		}
		return nil, &InvalidTransitionError{From: fresh.Status, To: StatusConfirmed}
	}

	booking.Status = StatusConfirmed
	booking.ConfirmedAt = &now
	s.log.LogBookingTransition(ctx, booking.ID.String(), string(StatusPending), string(StatusConfirmed), "payment verified")

	effects := []Effect{notifyEffect(NotifyBookingConfirmed, booking)}
	if booking.Showtime != nil {
		reminderAt := booking.Showtime.StartsAt.Add(-s.reminderLead)
		if reminderAt.After(now) {
			effects = append(effects, reminderEffect(booking, reminderAt))
		}
	}
	s.dispatcher.Dispatch(ctx, effects)
	return booking, nil
}

// FailPayment records a failed payment attempt. The booking stays
// pending so the user can retry, its seats are released back to the
// pool, and the hold gets a one-time grace extension if none was used.
func (s *service) FailPayment(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != StatusPending {
		return nil
	}
	succeeded, err := s.repo.HasSuccessfulTransaction(ctx, bookingID)
	if err != nil {
		return err
	}
	if succeeded {
		return nil
	}

	now := time.Now()
	if now.Before(booking.ExpiresAt) && !booking.TimerExtended {
		extended, err := s.repo.ExtendHold(ctx, bookingID, now.Add(s.retryExtension))
		if err != nil {
			return err
		}
		if extended {
			s.log.InfoWithContext(ctx, "extended hold after payment failure", map[string]interface{}{
				"booking_id": bookingID.String(),
			})
		}
	}

	s.dispatcher.Dispatch(ctx, []Effect{releaseSeatsEffect(booking)})
	return nil
}

// ExtendTimer grants the single user-requested hold extension. It is
// only available inside the final window before expiry.
func (s *service) ExtendTimer(ctx context.Context, bookingID, userID uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotOwner
	}
	if booking.Status != StatusPending {
		return nil, &InvalidTransitionError{From: booking.Status, To: StatusPending}
	}
	now := time.Now()
	if booking.IsExpiredAt(now) {
		return nil, &ExpiredBookingError{BookingID: booking.ID.String()}
	}
	if booking.TimerExtended {
		return nil, ErrAlreadyExtended
	}
	if booking.ExpiresAt.Sub(now) > s.extensionWindow {
		return nil, ErrTooEarlyToExtend
	}

	newExpiry := now.Add(s.extension)
	applied, err := s.repo.ExtendHold(ctx, bookingID, newExpiry)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrAlreadyExtended
	}
	booking.ExpiresAt = newExpiry
	booking.TimerExtended = true
	return booking, nil
}

// Cancel retires a pending or confirmed booking at the user's request.
// The applicable policy decides the fee; if a payment was captured a
// refund is cut for the remainder and handed to the orchestrator.
func (s *service) Cancel(ctx context.Context, bookingID, userID uuid.UUID, reason string) (*CancellationResult, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotOwner
	}
	if !booking.Status.CanBeCancelled() {
		return nil, &InvalidTransitionError{From: booking.Status, To: StatusCancelled}
	}
	now := time.Now()
	if booking.IsExpiredAt(now) {
		return nil, &ExpiredBookingError{BookingID: booking.ID.String()}
	}
	if booking.Showtime == nil {
		return nil, fmt.Errorf("booking %s has no showtime loaded", bookingID)
	}

	assessment, err := s.policy.Assess(ctx, booking.TotalAmount, booking.Showtime.HoursUntilStart(now))
	if err != nil {
		return nil, err
	}

	// Resolve the captured payment before touching the booking: a
	// transient lookup failure must not leave a cancelled booking with
	// no refund on record.
	successTxn, err := s.repo.GetSuccessfulTransaction(ctx, bookingID)
	if err != nil {
		if !errors.Is(err, ErrTransactionNotFound) {
			return nil, err
		}
		successTxn = nil
	}

	if reason == "" {
		reason = "Cancelled by user"
	}
	previous := booking.Status
	applied, err := s.repo.TransitionStatus(ctx, bookingID, previous, StatusCancelled,
		map[string]interface{}{"cancelled_at": now},
		HistoryEntry{
			PreviousStatus: previous,
			NewStatus:      StatusCancelled,
			Reason:         reason,
			ChangedBy:      &userID,
		})
	if err != nil {
		return nil, err
	}
	if !applied {
		fresh, err := s.repo.GetBookingByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		return nil, &InvalidTransitionError{From: fresh.Status, To: StatusCancelled}
	}

	booking.Status = StatusCancelled
	booking.CancelledAt = &now
	s.log.LogBookingTransition(ctx, booking.ID.String(), string(previous), string(StatusCancelled), reason)

	result := &CancellationResult{
		Booking:         booking,
		CancellationFee: assessment.CancellationFee,
		RefundAmount:    assessment.RefundAmount,
	}
	effects := []Effect{
		releaseSeatsEffect(booking),
		notifyEffect(NotifyBookingCancelled, booking),
	}

	if successTxn != nil && assessment.RefundAmount.IsPositive() {
		refundID, refErr := NewRefundID()
		if refErr != nil {
			return nil, fmt.Errorf("failed to generate refund id: %w", refErr)
		}
		refund := &Refund{
			RefundID:        refundID,
			BookingID:       bookingID,
			TransactionID:   successTxn.ID,
			Amount:          assessment.RefundAmount,
			CancellationFee: assessment.CancellationFee,
			Reason:          reason,
			Status:          RefundInitiated,
		}
		if err := s.repo.CreateRefund(ctx, refund); err != nil {
			return nil, err
		}
		result.Refund = refund
		effects = append(effects, refundEffect(refund.ID))
	}

	s.dispatcher.Dispatch(ctx, effects)
	return result, nil
}

// Expire retires a pending booking whose hold deadline has passed. The
// optimistic guard makes concurrent sweeps and late payments race
// safely; only one writer wins.
func (s *service) Expire(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return false, err
	}
	if booking.Status != StatusPending {
		return false, nil
	}
	if !booking.IsExpiredAt(time.Now()) {
		return false, nil
	}

	applied, err := s.repo.TransitionStatus(ctx, bookingID, StatusPending, StatusExpired,
		nil,
		HistoryEntry{
			PreviousStatus: StatusPending,
			NewStatus:      StatusExpired,
			Reason:         "Booking expired due to payment timeout",
		})
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	booking.Status = StatusExpired
	s.log.LogBookingTransition(ctx, booking.ID.String(), string(StatusPending), string(StatusExpired), "hold deadline passed")
	s.dispatcher.Dispatch(ctx, []Effect{releaseSeatsEffect(booking)})
	return true, nil
}
