package bookings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingSeatResponse struct {
	SeatID    uuid.UUID       `json:"seat_id"`
	SeatLabel string          `json:"seat_label"`
	SeatType  string          `json:"seat_type"`
	PricePaid decimal.Decimal `json:"price_paid"`
}

type BookingResponse struct {
	ID               uuid.UUID             `json:"id"`
	BookingReference string                `json:"booking_reference"`
	ShowtimeID       uuid.UUID             `json:"showtime_id"`
	MovieTitle       string                `json:"movie_title,omitempty"`
	ShowtimeStartsAt *time.Time            `json:"showtime_starts_at,omitempty"`
	Status           Status                `json:"status"`
	Seats            []BookingSeatResponse `json:"seats"`
	Subtotal         decimal.Decimal       `json:"subtotal"`
	TaxAmount        decimal.Decimal       `json:"tax_amount"`
	ConvenienceFee   decimal.Decimal       `json:"convenience_fee"`
	TotalAmount      decimal.Decimal       `json:"total_amount"`
	ExpiresAt        time.Time             `json:"expires_at"`
	TimerExtended    bool                  `json:"timer_extended"`
	ConfirmedAt      *time.Time            `json:"confirmed_at,omitempty"`
	CancelledAt      *time.Time            `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type CancellationResponse struct {
	Booking         BookingResponse `json:"booking"`
	CancellationFee decimal.Decimal `json:"cancellation_fee"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	RefundID        string          `json:"refund_id,omitempty"`
}

type HistoryEntryResponse struct {
	PreviousStatus Status    `json:"previous_status"`
	NewStatus      Status    `json:"new_status"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToBookingResponse(b *Booking) BookingResponse {
	resp := BookingResponse{
		ID:               b.ID,
		BookingReference: b.BookingReference,
		ShowtimeID:       b.ShowtimeID,
		Status:           b.Status,
		Subtotal:         b.Subtotal,
		TaxAmount:        b.TaxAmount,
		ConvenienceFee:   b.ConvenienceFee,
		TotalAmount:      b.TotalAmount,
		ExpiresAt:        b.ExpiresAt,
		TimerExtended:    b.TimerExtended,
		ConfirmedAt:      b.ConfirmedAt,
		CancelledAt:      b.CancelledAt,
		CreatedAt:        b.CreatedAt,
	}
	if b.Showtime != nil {
		resp.MovieTitle = b.Showtime.MovieTitle
		startsAt := b.Showtime.StartsAt
		resp.ShowtimeStartsAt = &startsAt
	}
	resp.Seats = make([]BookingSeatResponse, 0, len(b.Seats))
	for _, seat := range b.Seats {
		resp.Seats = append(resp.Seats, BookingSeatResponse{
			SeatID:    seat.SeatID,
			SeatLabel: seat.SeatLabel,
			SeatType:  string(seat.SeatType),
			PricePaid: seat.PricePaid,
		})
	}
	return resp
}

func ToHistoryResponse(entries []BookingHistory) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, HistoryEntryResponse{
			PreviousStatus: entry.PreviousStatus,
			NewStatus:      entry.NewStatus,
			Reason:         entry.Reason,
			CreatedAt:      entry.CreatedAt,
		})
	}
	return out
}
