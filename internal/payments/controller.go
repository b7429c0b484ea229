package payments

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cinebook/internal/bookings"
	"cinebook/internal/shared/utils/response"
	"cinebook/pkg/logger"
)

const maxWebhookBody = 1 << 20

type Controller struct {
	service Service
	log     *logger.Logger
}

func NewController(service Service, log *logger.Logger) *Controller {
	return &Controller{service: service, log: log}
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

func respondPaymentError(c *gin.Context, err error) {
	var expiredErr *bookings.ExpiredBookingError
	var transitionErr *bookings.InvalidTransitionError
	var unknownGw *UnknownGatewayError
	var gatewayErr *GatewayError

	switch {
	case errors.Is(err, bookings.ErrBookingNotFound), errors.Is(err, bookings.ErrTransactionNotFound):
		response.RespondJSON(c, "error", http.StatusNotFound, err.Error(), nil, nil)
	case errors.Is(err, bookings.ErrNotOwner):
		response.RespondJSON(c, "error", http.StatusForbidden, err.Error(), nil, nil)
	case errors.Is(err, ErrSignatureMismatch), errors.Is(err, ErrPaymentNotCaptured):
		response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
	case errors.As(err, &unknownGw):
		response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
	case errors.As(err, &expiredErr):
		response.RespondJSON(c, "error", http.StatusGone, err.Error(), nil, nil)
	case errors.As(err, &transitionErr):
		response.RespondJSON(c, "error", http.StatusConflict, err.Error(), nil, nil)
	case errors.As(err, &gatewayErr):
		response.RespondJSON(c, "error", http.StatusBadGateway, "Payment provider unavailable", nil, err.Error())
	default:
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Something went wrong", nil, err.Error())
	}
}

func (ctrl *Controller) InitiatePayment(c *gin.Context) {
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
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	session, err := ctrl.service.InitiatePayment(c.Request.Context(), userID, bookingID, bookings.Gateway(req.Gateway))
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Payment initiated", ToSessionResponse(session), nil)
}

func (ctrl *Controller) ConfirmPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.ConfirmPayment(c.Request.Context(), userID, req)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Payment confirmed", bookings.ToBookingResponse(booking), nil)
}

func (ctrl *Controller) ListTransactions(c *gin.Context) {
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

	txns, err := ctrl.service.ListTransactions(c.Request.Context(), userID, bookingID)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Transactions fetched", ToTransactionResponses(txns), nil)
}

// Webhook receives gateway notifications. Handled and ignored events
// both return 200 so the gateway stops redelivering; only verification
// failures are rejected.
func (ctrl *Controller) Webhook(c *gin.Context) {
	gateway := bookings.Gateway(c.Query("gateway"))
	if !gateway.IsValid() {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Unknown gateway", nil, nil)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Could not read payload", nil, nil)
		return
	}

	if err := ctrl.service.HandleWebhook(c.Request.Context(), gateway, payload, c.Request.Header); err != nil {
		if errors.Is(err, ErrSignatureMismatch) {
			ctrl.log.LogWebhookRejected(c.Request.Context(), string(gateway), "signature mismatch")
			response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid signature", nil, nil)
			return
		}
		ctrl.log.WithError(err).Error("webhook processing failed", "gateway", string(gateway))
		// still ack; the state guards make redelivery safe and we do not
		// want the gateway to disable the endpoint
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
