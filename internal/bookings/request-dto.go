package bookings

import "github.com/google/uuid"

type CreateBookingRequest struct {
	SeatIDs         []uuid.UUID `json:"seat_ids" binding:"required,min=1,max=10"`
	BookingSource   string      `json:"booking_source" binding:"omitempty,oneof=web mobile kiosk"`
	SpecialRequests string      `json:"special_requests" binding:"omitempty,max=500"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

type ListBookingsQuery struct {
	Page  int `form:"page,default=1" binding:"omitempty,min=1"`
	Limit int `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}
