package bookings

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cinebook/internal/cancellation"
	"cinebook/internal/catalog"
	"cinebook/internal/inventory"
	"cinebook/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw.(string))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// respondBookingError maps lifecycle errors onto HTTP statuses
func respondBookingError(c *gin.Context, err error) {
	var validationErr *ValidationError
	var expiredErr *ExpiredBookingError
	var transitionErr *InvalidTransitionError
	var policyErr *cancellation.PolicyViolationError

	switch {
	case errors.As(err, &policyErr):
		response.RespondJSON(c, "error", http.StatusUnprocessableEntity, err.Error(), nil, nil)
	case errors.Is(err, cancellation.ErrNoPolicy):
		response.RespondJSON(c, "error", http.StatusUnprocessableEntity, err.Error(), nil, nil)
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, catalog.ErrShowtimeNotFound):
		response.RespondJSON(c, "error", http.StatusNotFound, err.Error(), nil, nil)
	case errors.Is(err, ErrNotOwner):
		response.RespondJSON(c, "error", http.StatusForbidden, err.Error(), nil, nil)
	case errors.Is(err, ErrAlreadyExtended), errors.Is(err, ErrTooEarlyToExtend):
		response.RespondJSON(c, "error", http.StatusConflict, err.Error(), nil, nil)
	case errors.Is(err, inventory.ErrSeatMismatch):
		response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
	case inventory.IsSeatUnavailable(err):
		response.RespondJSON(c, "error", http.StatusConflict, err.Error(), nil, nil)
	case errors.As(err, &expiredErr):
		response.RespondJSON(c, "error", http.StatusGone, err.Error(), nil, nil)
	case errors.As(err, &transitionErr):
		response.RespondJSON(c, "error", http.StatusConflict, err.Error(), nil, nil)
	case errors.As(err, &validationErr):
		response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
	default:
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Something went wrong", nil, err.Error())
	}
}

func (ctrl *Controller) CreateBooking(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}
	showtimeID, err := uuid.Parse(c.Param("showtime_id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid showtime id", nil, err.Error())
		return
	}
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.Create(c.Request.Context(), userID, showtimeID, req.SeatIDs, req.BookingSource, req.SpecialRequests)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Booking created", ToBookingResponse(booking), nil)
}

func (ctrl *Controller) GetBooking(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking id", nil, err.Error())
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking fetched", ToBookingResponse(booking), nil)
}

func (ctrl *Controller) ListBookings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}
	var query ListBookingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	bookings, total, err := ctrl.service.GetUserBookings(c.Request.Context(), userID, query.Page, query.Limit)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	items := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, ToBookingResponse(&bookings[i]))
	}
	response.RespondJSON(c, "success", http.StatusOK, "Bookings fetched", BookingListResponse{
		Bookings: items,
		Total:    total,
		Page:     query.Page,
		Limit:    query.Limit,
	}, nil)
}

func (ctrl *Controller) GetHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking id", nil, err.Error())
		return
	}

	history, err := ctrl.service.GetHistory(c.Request.Context(), bookingID, userID)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "History fetched", ToHistoryResponse(history), nil)
}

func (ctrl *Controller) ExtendTimer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking id", nil, err.Error())
		return
	}

	booking, err := ctrl.service.ExtendTimer(c.Request.Context(), bookingID, userID)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking hold extended", ToBookingResponse(booking), nil)
}

func (ctrl *Controller) CancelBooking(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking id", nil, err.Error())
		return
	}
	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.Cancel(c.Request.Context(), bookingID, userID, req.Reason)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	resp := CancellationResponse{
		Booking:         ToBookingResponse(result.Booking),
		CancellationFee: result.CancellationFee,
		RefundAmount:    result.RefundAmount,
	}
	if result.Refund != nil {
		resp.RefundID = result.Refund.RefundID
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled", resp, nil)
}
