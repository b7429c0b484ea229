package bookings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cinebook/internal/catalog"
)

// Gateway identifies the payment provider handling a transaction
type Gateway string

const (
	GatewayRazorpay Gateway = "razorpay"
	GatewayStripe   Gateway = "stripe"
)

func (g Gateway) IsValid() bool {
	return g == GatewayRazorpay || g == GatewayStripe
}

// TransactionStatus is the payment attempt state
type TransactionStatus string

const (
	TxnInitiated TransactionStatus = "initiated"
	TxnPending   TransactionStatus = "pending"
	TxnSuccess   TransactionStatus = "success"
	TxnFailed    TransactionStatus = "failed"
	TxnCancelled TransactionStatus = "cancelled"
	TxnRefunded  TransactionStatus = "refunded"
)

// RefundStatus is the refund processing state
type RefundStatus string

const (
	RefundInitiated  RefundStatus = "initiated"
	RefundProcessing RefundStatus = "processing"
	RefundCompleted  RefundStatus = "completed"
	RefundFailed     RefundStatus = "failed"
)

type Booking struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BookingReference string          `json:"booking_reference" gorm:"type:varchar(10);uniqueIndex;not null"`
	UserID           uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	ShowtimeID       uuid.UUID       `json:"showtime_id" gorm:"type:uuid;not null;index"`
	Status           Status          `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	SeatCount        int             `json:"seat_count" gorm:"not null"`
	Subtotal         decimal.Decimal `json:"subtotal" gorm:"type:numeric(10,2);not null"`
	TaxAmount        decimal.Decimal `json:"tax_amount" gorm:"type:numeric(10,2);not null"`
	ConvenienceFee   decimal.Decimal `json:"convenience_fee" gorm:"type:numeric(10,2);not null"`
	TotalAmount      decimal.Decimal `json:"total_amount" gorm:"type:numeric(10,2);not null"`
	ExpiresAt        time.Time       `json:"expires_at" gorm:"not null;index"`
	TimerExtended    bool            `json:"timer_extended" gorm:"not null;default:false"`
	BookingSource    string          `json:"booking_source" gorm:"type:varchar(20);default:'web'"`
	SpecialRequests  string          `json:"special_requests,omitempty" gorm:"type:text"`
	ConfirmedAt      *time.Time      `json:"confirmed_at,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Showtime *catalog.Showtime `json:"showtime,omitempty" gorm:"foreignKey:ShowtimeID"`
	Seats    []BookingSeat     `json:"seats,omitempty" gorm:"foreignKey:BookingID"`
}

func (Booking) TableName() string {
	return "bookings"
}

// IsExpiredAt applies the read-time expiry rule: a pending booking whose
// deadline has been reached counts as expired even before the sweeper
// retires it.
func (b *Booking) IsExpiredAt(now time.Time) bool {
	return b.Status == StatusPending && !now.Before(b.ExpiresAt)
}

// SeatIDs returns the inventory seat ids this booking holds
func (b *Booking) SeatIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.Seats))
	for _, s := range b.Seats {
		ids = append(ids, s.SeatID)
	}
	return ids
}

// BookingSeat snapshots a reserved seat with the price charged for it,
// so later pricing changes never rewrite history.
type BookingSeat struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BookingID  uuid.UUID       `json:"booking_id" gorm:"type:uuid;not null;index"`
	SeatID     uuid.UUID       `json:"seat_id" gorm:"type:uuid;not null;index"`
	SeatLabel  string          `json:"seat_label" gorm:"type:varchar(10);not null"`
	SeatType   catalog.SeatType `json:"seat_type" gorm:"type:varchar(20);not null"`
	PricePaid  decimal.Decimal `json:"price_paid" gorm:"type:numeric(8,2);not null"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (BookingSeat) TableName() string {
	return "booking_seats"
}

// Transaction records one payment attempt against a booking. A booking
// may accumulate several failed attempts before one succeeds.
type Transaction struct {
	ID              uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TransactionID   string            `json:"transaction_id" gorm:"type:varchar(20);uniqueIndex;not null"`
	BookingID       uuid.UUID         `json:"booking_id" gorm:"type:uuid;not null;index"`
	Gateway         Gateway           `json:"gateway" gorm:"type:varchar(20);not null"`
	GatewayOrderID  string            `json:"gateway_order_id,omitempty" gorm:"type:varchar(100);index"`
	GatewayPaymentID string           `json:"gateway_payment_id,omitempty" gorm:"type:varchar(100);index"`
	Amount          decimal.Decimal   `json:"amount" gorm:"type:numeric(10,2);not null"`
	Currency        string            `json:"currency" gorm:"type:varchar(3);not null;default:'INR'"`
	Status          TransactionStatus `json:"status" gorm:"type:varchar(20);not null;default:'initiated';index"`
	FailureReason   string            `json:"failure_reason,omitempty" gorm:"type:text"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Refund records money owed back to the user after cancellation
type Refund struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RefundID        string          `json:"refund_id" gorm:"type:varchar(20);uniqueIndex;not null"`
	BookingID       uuid.UUID       `json:"booking_id" gorm:"type:uuid;not null;index"`
	TransactionID   uuid.UUID       `json:"transaction_id" gorm:"type:uuid;not null"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:numeric(10,2);not null"`
	CancellationFee decimal.Decimal `json:"cancellation_fee" gorm:"type:numeric(10,2);not null;default:0"`
	Reason          string          `json:"reason,omitempty" gorm:"type:text"`
	Status          RefundStatus    `json:"status" gorm:"type:varchar(20);not null;default:'initiated';index"`
	GatewayRefundID string          `json:"gateway_refund_id,omitempty" gorm:"type:varchar(100)"`
	FailureReason   string          `json:"failure_reason,omitempty" gorm:"type:text"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Refund) TableName() string {
	return "refunds"
}

// BookingHistory is the append-only audit trail of status transitions.
// Rows are only ever inserted, never updated or deleted.
type BookingHistory struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BookingID      uuid.UUID `json:"booking_id" gorm:"type:uuid;not null;index"`
	PreviousStatus Status    `json:"previous_status" gorm:"type:varchar(20)"`
	NewStatus      Status    `json:"new_status" gorm:"type:varchar(20);not null"`
	Reason         string    `json:"reason,omitempty" gorm:"type:text"`
	ChangedBy      *uuid.UUID `json:"changed_by,omitempty" gorm:"type:uuid"`
	CreatedAt      time.Time `json:"created_at"`
}

func (BookingHistory) TableName() string {
	return "booking_history"
}
