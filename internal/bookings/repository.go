package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryEntry describes the audit row appended alongside a status
// transition.
type HistoryEntry struct {
	PreviousStatus Status
	NewStatus      Status
	Reason         string
	ChangedBy      *uuid.UUID
}

type Repository interface {
	CreateBooking(ctx context.Context, booking *Booking, seats []BookingSeat) error
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, int64, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status, stamps map[string]interface{}, entry HistoryEntry) (bool, error)
	ExtendHold(ctx context.Context, id uuid.UUID, newExpiry time.Time) (bool, error)
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	GetHistory(ctx context.Context, bookingID uuid.UUID) ([]BookingHistory, error)

	CreateTransaction(ctx context.Context, txn *Transaction) error
	GetTransactionByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetTransactionByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)
	GetTransactionByGatewayOrderID(ctx context.Context, orderID string) (*Transaction, error)
	ListTransactions(ctx context.Context, bookingID uuid.UUID) ([]Transaction, error)
	UpdateTransaction(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	MarkTransactionStatus(ctx context.Context, id uuid.UUID, allowedFrom []TransactionStatus, to TransactionStatus, fields map[string]interface{}) (bool, error)
	GetSuccessfulTransaction(ctx context.Context, bookingID uuid.UUID) (*Transaction, error)
	HasSuccessfulTransaction(ctx context.Context, bookingID uuid.UUID) (bool, error)

	CreateRefund(ctx context.Context, refund *Refund) error
	GetRefundByID(ctx context.Context, id uuid.UUID) (*Refund, error)
	GetRefundByGatewayRefundID(ctx context.Context, gatewayRefundID string) (*Refund, error)
	MarkRefundStatus(ctx context.Context, id uuid.UUID, allowedFrom []RefundStatus, to RefundStatus, fields map[string]interface{}) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBooking(ctx context.Context, booking *Booking, seats []BookingSeat) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(booking).Error; err != nil {
			return err
		}
		for i := range seats {
			seats[i].BookingID = booking.ID
		}
		if err := tx.Create(&seats).Error; err != nil {
			return err
		}
		history := BookingHistory{
			BookingID:      booking.ID,
			PreviousStatus: "",
			NewStatus:      booking.Status,
			Reason:         "Booking created",
			ChangedBy:      &booking.UserID,
		}
		return tx.Create(&history).Error
	})
}

func (r *repository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Where("booking_reference = ?", reference).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Seats").
		Preload("Showtime").
		Preload("Showtime.Screen").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetBookingByReference(ctx context.Context, reference string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Seats").
		Preload("Showtime").
		Preload("Showtime.Screen").
		Where("booking_reference = ?", reference).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, int64, error) {
	var bookings []Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Seats").
		Preload("Showtime").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// TransitionStatus moves a booking between states with an optimistic
// status guard and appends the audit row in the same transaction. It
// returns false when the guard missed, meaning someone else transitioned
// the booking first.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status, stamps map[string]interface{}, entry HistoryEntry) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": to}
		for k, v := range stamps {
			updates[k] = v
		}
		result := tx.Model(&Booking{}).
			Where("id = ? AND status = ?", id, from).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		applied = true
		history := BookingHistory{
			BookingID:      id,
			PreviousStatus: entry.PreviousStatus,
			NewStatus:      entry.NewStatus,
			Reason:         entry.Reason,
			ChangedBy:      entry.ChangedBy,
		}
		return tx.Create(&history).Error
	})
	return applied, err
}

// ExtendHold pushes the expiry of a pending booking forward and burns
// the one-time extension flag. The guard on timer_extended makes the
// extension single-use even under concurrent requests.
func (r *repository) ExtendHold(ctx context.Context, id uuid.UUID, newExpiry time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ? AND timer_extended = ?", id, StatusPending, false).
		Updates(map[string]interface{}{
			"expires_at":     newExpiry,
			"timer_extended": true,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *repository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Where("status = ? AND expires_at <= ?", StatusPending, cutoff).
		Order("expires_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) GetHistory(ctx context.Context, bookingID uuid.UUID) ([]BookingHistory, error) {
	var history []BookingHistory
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&history).Error
	return history, err
}

func (r *repository) CreateTransaction(ctx context.Context, txn *Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) GetTransactionByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	var txn Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *repository) GetTransactionByTransactionID(ctx context.Context, transactionID string) (*Transaction, error) {
	var txn Transaction
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *repository) GetTransactionByGatewayOrderID(ctx context.Context, orderID string) (*Transaction, error) {
	var txn Transaction
	err := r.db.WithContext(ctx).Where("gateway_order_id = ?", orderID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListTransactions(ctx context.Context, bookingID uuid.UUID) ([]Transaction, error) {
	var txns []Transaction
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&txns).Error
	return txns, err
}

func (r *repository) UpdateTransaction(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&Transaction{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// MarkTransactionStatus transitions a payment attempt only when its
// current status is in allowedFrom, which makes webhook replays no-ops.
func (r *repository) MarkTransactionStatus(ctx context.Context, id uuid.UUID, allowedFrom []TransactionStatus, to TransactionStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	result := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("id = ? AND status IN ?", id, allowedFrom).
		Updates(updates)
	return result.RowsAffected > 0, result.Error
}

func (r *repository) GetSuccessfulTransaction(ctx context.Context, bookingID uuid.UUID) (*Transaction, error) {
	var txn Transaction
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, TxnSuccess).
		Order("created_at DESC").
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *repository) HasSuccessfulTransaction(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("booking_id = ? AND status = ?", bookingID, TxnSuccess).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateRefund(ctx context.Context, refund *Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *repository) GetRefundByID(ctx context.Context, id uuid.UUID) (*Refund, error) {
	var refund Refund
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&refund).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefundNotFound
		}
		return nil, err
	}
	return &refund, nil
}

func (r *repository) GetRefundByGatewayRefundID(ctx context.Context, gatewayRefundID string) (*Refund, error) {
	var refund Refund
	err := r.db.WithContext(ctx).Where("gateway_refund_id = ?", gatewayRefundID).First(&refund).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefundNotFound
		}
		return nil, err
	}
	return &refund, nil
}

func (r *repository) MarkRefundStatus(ctx context.Context, id uuid.UUID, allowedFrom []RefundStatus, to RefundStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	result := r.db.WithContext(ctx).Model(&Refund{}).
		Where("id = ? AND status IN ?", id, allowedFrom).
		Updates(updates)
	return result.RowsAffected > 0, result.Error
}
