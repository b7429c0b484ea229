package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"cinebook/internal/bookings"
	"cinebook/pkg/logger"
)

// PaymentSession is what the client needs to complete checkout
type PaymentSession struct {
	Transaction *bookings.Transaction
	Order       *Order
}

type Service interface {
	InitiatePayment(ctx context.Context, userID, bookingID uuid.UUID, gateway bookings.Gateway) (*PaymentSession, error)
	ConfirmPayment(ctx context.Context, userID uuid.UUID, req ConfirmPaymentRequest) (*bookings.Booking, error)
	HandleWebhook(ctx context.Context, gateway bookings.Gateway, payload []byte, headers http.Header) error
	ProcessRefund(ctx context.Context, refundID uuid.UUID) error
	ListTransactions(ctx context.Context, userID, bookingID uuid.UUID) ([]bookings.Transaction, error)
}

type service struct {
	repo      bookings.Repository
	lifecycle bookings.Service
	registry  *Registry
	notifier  bookings.Notifier
	log       *logger.Logger
}

func NewService(repo bookings.Repository, lifecycle bookings.Service, registry *Registry, notifier bookings.Notifier, log *logger.Logger) Service {
	return &service{
		repo:      repo,
		lifecycle: lifecycle,
		registry:  registry,
		notifier:  notifier,
		log:       log,
	}
}

// InitiatePayment opens a payment attempt for a pending booking. Each
// call creates a fresh transaction; earlier failed attempts stay on
// record.
func (s *service) InitiatePayment(ctx context.Context, userID, bookingID uuid.UUID, gateway bookings.Gateway) (*PaymentSession, error) {
	gw, err := s.registry.Get(gateway)
	if err != nil {
		return nil, err
	}
	booking, err := s.lifecycle.GetBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if booking.Status != bookings.StatusPending {
		return nil, &bookings.InvalidTransitionError{From: booking.Status, To: bookings.StatusConfirmed}
	}
	if booking.IsExpiredAt(time.Now()) {
		return nil, &bookings.ExpiredBookingError{BookingID: booking.ID.String()}
	}

	transactionID, err := bookings.NewTransactionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transaction id: %w", err)
	}
	txn := &bookings.Transaction{
		TransactionID: transactionID,
		BookingID:     bookingID,
		Gateway:       gateway,
		Amount:        booking.TotalAmount,
		Currency:      "INR",
		Status:        bookings.TxnInitiated,
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}

	order, err := gw.CreateOrder(ctx, OrderRequest{
		TransactionID:    transactionID,
		BookingReference: booking.BookingReference,
		Amount:           booking.TotalAmount,
		Currency:         txn.Currency,
	})
	if err != nil {
		if _, markErr := s.repo.MarkTransactionStatus(ctx, txn.ID,
			[]bookings.TransactionStatus{bookings.TxnInitiated},
			bookings.TxnFailed,
			map[string]interface{}{"failure_reason": err.Error()}); markErr != nil {
			s.log.WithError(markErr).Error("failed to mark transaction failed",
				"transaction_id", transactionID)
		}
		return nil, err
	}

	if err := s.repo.UpdateTransaction(ctx, txn.ID, map[string]interface{}{
		"gateway_order_id": order.GatewayOrderID,
		"status":           bookings.TxnPending,
	}); err != nil {
		return nil, err
	}
	txn.GatewayOrderID = order.GatewayOrderID
	txn.Status = bookings.TxnPending

	s.log.InfoWithContext(ctx, "payment initiated", map[string]interface{}{
		"transaction_id": transactionID,
		"booking_id":     bookingID.String(),
		"gateway":        string(gateway),
	})
	return &PaymentSession{Transaction: txn, Order: order}, nil
}

// ConfirmPayment verifies the client-side proof of payment and, on
// success, confirms the booking. Replays for an already successful
// transaction are no-ops.
func (s *service) ConfirmPayment(ctx context.Context, userID uuid.UUID, req ConfirmPaymentRequest) (*bookings.Booking, error) {
	txn, err := s.repo.GetTransactionByTransactionID(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	booking, err := s.lifecycle.GetBooking(ctx, txn.BookingID, userID)
	if err != nil {
		return nil, err
	}
	if txn.Status == bookings.TxnSuccess {
		return s.lifecycle.ConfirmOnPayment(ctx, txn.BookingID, txn)
	}

	gw, err := s.registry.Get(txn.Gateway)
	if err != nil {
		return nil, err
	}
	verification := VerificationRequest{
		GatewayOrderID:   txn.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	}
	if err := gw.VerifyPayment(ctx, verification); err != nil {
		if errors.Is(err, ErrSignatureMismatch) || errors.Is(err, ErrPaymentNotCaptured) {
			s.recordFailedAttempt(ctx, txn, err.Error())
		}
		return nil, err
	}

	// Only one transaction per booking may reach success. A second
	// capture on another open attempt is money the user must get back.
	hasSuccess, err := s.repo.HasSuccessfulTransaction(ctx, txn.BookingID)
	if err != nil {
		return nil, err
	}
	if hasSuccess {
		s.refundDuplicateCapture(ctx, txn, req.GatewayPaymentID)
		return s.lifecycle.GetBooking(ctx, txn.BookingID, userID)
	}

	now := time.Now()
	applied, err := s.repo.MarkTransactionStatus(ctx, txn.ID,
		[]bookings.TransactionStatus{bookings.TxnInitiated, bookings.TxnPending},
		bookings.TxnSuccess,
		map[string]interface{}{
			"gateway_payment_id": req.GatewayPaymentID,
			"completed_at":       now,
		})
	if err != nil {
		return nil, err
	}
	if applied {
		txn.Status = bookings.TxnSuccess
		txn.GatewayPaymentID = req.GatewayPaymentID
		txn.CompletedAt = &now
		s.log.LogPaymentVerified(ctx, txn.TransactionID, string(txn.Gateway))
	}

	confirmed, err := s.lifecycle.ConfirmOnPayment(ctx, txn.BookingID, txn)
	if err != nil {
		var expiredErr *bookings.ExpiredBookingError
		if errors.As(err, &expiredErr) {
			s.refundLatePayment(ctx, booking, txn)
		}
		return nil, err
	}
	return confirmed, nil
}

// HandleWebhook applies a verified gateway notification. Unknown
// orders and replays are acknowledged without effect so gateways stop
// redelivering.
func (s *service) HandleWebhook(ctx context.Context, gateway bookings.Gateway, payload []byte, headers http.Header) error {
	gw, err := s.registry.Get(gateway)
	if err != nil {
		return err
	}
	event, err := gw.HandleWebhook(payload, headers)
	if err != nil {
		return err
	}
	if event.Kind == EventIgnored {
		return nil
	}
	if event.Kind == EventRefundCompleted {
		return s.applyRefundCompleted(ctx, event)
	}
	if event.GatewayOrderID == "" {
		return nil
	}

	txn, err := s.repo.GetTransactionByGatewayOrderID(ctx, event.GatewayOrderID)
	if err != nil {
		if errors.Is(err, bookings.ErrTransactionNotFound) {
			s.log.Warn("webhook for unknown order", "gateway_order_id", event.GatewayOrderID)
			return nil
		}
		return err
	}

	switch event.Kind {
	case EventPaymentSucceeded:
		return s.applySuccess(ctx, txn, event)
	case EventPaymentFailed:
		return s.applyFailure(ctx, txn, event)
	}
	return nil
}

func (s *service) applySuccess(ctx context.Context, txn *bookings.Transaction, event *WebhookEvent) error {
	if txn.Status == bookings.TxnSuccess {
		s.log.InfoWithContext(ctx, "webhook replay ignored, transaction already successful", map[string]interface{}{
			"transaction_id": txn.TransactionID,
		})
		return nil
	}

	hasSuccess, err := s.repo.HasSuccessfulTransaction(ctx, txn.BookingID)
	if err != nil {
		return err
	}
	if hasSuccess {
		s.refundDuplicateCapture(ctx, txn, event.GatewayPaymentID)
		return nil
	}

	now := time.Now()
	applied, err := s.repo.MarkTransactionStatus(ctx, txn.ID,
		[]bookings.TransactionStatus{bookings.TxnInitiated, bookings.TxnPending},
		bookings.TxnSuccess,
		map[string]interface{}{
			"gateway_payment_id": event.GatewayPaymentID,
			"completed_at":       now,
		})
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}
	txn.Status = bookings.TxnSuccess
	txn.GatewayPaymentID = event.GatewayPaymentID
	txn.CompletedAt = &now
	s.log.LogPaymentVerified(ctx, txn.TransactionID, string(txn.Gateway))

	if _, err := s.lifecycle.ConfirmOnPayment(ctx, txn.BookingID, txn); err != nil {
		var expiredErr *bookings.ExpiredBookingError
		if errors.As(err, &expiredErr) {
			booking, loadErr := s.repo.GetBookingByID(ctx, txn.BookingID)
			if loadErr != nil {
				return loadErr
			}
			s.refundLatePayment(ctx, booking, txn)
			return nil
		}
		return err
	}
	return nil
}

func (s *service) applyFailure(ctx context.Context, txn *bookings.Transaction, event *WebhookEvent) error {
	reason := event.FailureReason
	if reason == "" {
		reason = "payment failed at gateway"
	}
	applied, err := s.repo.MarkTransactionStatus(ctx, txn.ID,
		[]bookings.TransactionStatus{bookings.TxnInitiated, bookings.TxnPending},
		bookings.TxnFailed,
		map[string]interface{}{"failure_reason": reason})
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}
	return s.lifecycle.FailPayment(ctx, txn.BookingID)
}

func (s *service) recordFailedAttempt(ctx context.Context, txn *bookings.Transaction, reason string) {
	applied, err := s.repo.MarkTransactionStatus(ctx, txn.ID,
		[]bookings.TransactionStatus{bookings.TxnInitiated, bookings.TxnPending},
		bookings.TxnFailed,
		map[string]interface{}{"failure_reason": reason})
	if err != nil {
		s.log.WithError(err).Error("failed to mark transaction failed", "transaction_id", txn.TransactionID)
		return
	}
	if applied {
		if err := s.lifecycle.FailPayment(ctx, txn.BookingID); err != nil {
			s.log.WithError(err).Error("failed to record payment failure",
				"booking_id", txn.BookingID.String())
		}
	}
}

// refundLatePayment returns money captured for a booking that expired
// before the payment landed. The full amount comes back; no fee applies
// because the user never got the seats.
func (s *service) refundLatePayment(ctx context.Context, booking *bookings.Booking, txn *bookings.Transaction) {
	refundID, err := bookings.NewRefundID()
	if err != nil {
		s.log.WithError(err).Error("failed to generate refund id", "booking_id", booking.ID.String())
		return
	}
	refund := &bookings.Refund{
		RefundID:      refundID,
		BookingID:     booking.ID,
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		Reason:        "Payment captured after booking expired",
		Status:        bookings.RefundInitiated,
	}
	if err := s.repo.CreateRefund(ctx, refund); err != nil {
		s.log.WithError(err).Error("failed to create refund for late payment",
			"booking_id", booking.ID.String())
		return
	}
	if err := s.ProcessRefund(ctx, refund.ID); err != nil {
		s.log.WithError(err).Error("failed to process late payment refund",
			"refund_id", refund.RefundID)
	}
}

// refundDuplicateCapture returns money captured on a second open
// attempt after another transaction already paid the booking. The
// duplicate goes straight to refunded; it never becomes the booking's
// successful transaction.
func (s *service) refundDuplicateCapture(ctx context.Context, txn *bookings.Transaction, gatewayPaymentID string) {
	now := time.Now()
	applied, err := s.repo.MarkTransactionStatus(ctx, txn.ID,
		[]bookings.TransactionStatus{bookings.TxnInitiated, bookings.TxnPending},
		bookings.TxnRefunded,
		map[string]interface{}{
			"gateway_payment_id": gatewayPaymentID,
			"completed_at":       now,
		})
	if err != nil {
		s.log.WithError(err).Error("failed to mark duplicate capture",
			"transaction_id", txn.TransactionID)
		return
	}
	if !applied {
		return
	}
	txn.Status = bookings.TxnRefunded
	txn.GatewayPaymentID = gatewayPaymentID

	refundID, err := bookings.NewRefundID()
	if err != nil {
		s.log.WithError(err).Error("failed to generate refund id",
			"transaction_id", txn.TransactionID)
		return
	}
	refund := &bookings.Refund{
		RefundID:      refundID,
		BookingID:     txn.BookingID,
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		Reason:        "Duplicate payment captured for an already paid booking",
		Status:        bookings.RefundInitiated,
	}
	if err := s.repo.CreateRefund(ctx, refund); err != nil {
		s.log.WithError(err).Error("failed to create refund for duplicate capture",
			"transaction_id", txn.TransactionID)
		return
	}
	if err := s.ProcessRefund(ctx, refund.ID); err != nil {
		s.log.WithError(err).Error("failed to process duplicate capture refund",
			"refund_id", refund.RefundID)
	}
}

// applyRefundCompleted settles a refund the gateway accepted as pending
// earlier. Replays and unknown refunds are acknowledged without effect.
func (s *service) applyRefundCompleted(ctx context.Context, event *WebhookEvent) error {
	if event.GatewayRefundID == "" {
		return nil
	}
	refund, err := s.repo.GetRefundByGatewayRefundID(ctx, event.GatewayRefundID)
	if err != nil {
		if errors.Is(err, bookings.ErrRefundNotFound) {
			s.log.Warn("webhook for unknown refund", "gateway_refund_id", event.GatewayRefundID)
			return nil
		}
		return err
	}
	applied, err := s.repo.MarkRefundStatus(ctx, refund.ID,
		[]bookings.RefundStatus{bookings.RefundProcessing},
		bookings.RefundCompleted,
		map[string]interface{}{"processed_at": time.Now()})
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}
	refund.Status = bookings.RefundCompleted

	txn, err := s.repo.GetTransactionByID(ctx, refund.TransactionID)
	if err != nil {
		return err
	}
	s.finishRefund(ctx, refund, txn, event.GatewayRefundID)
	return nil
}

// ProcessRefund pushes an initiated refund through its gateway. Refunds
// already processing or completed are left alone.
func (s *service) ProcessRefund(ctx context.Context, refundID uuid.UUID) error {
	refund, err := s.repo.GetRefundByID(ctx, refundID)
	if err != nil {
		return err
	}
	applied, err := s.repo.MarkRefundStatus(ctx, refundID,
		[]bookings.RefundStatus{bookings.RefundInitiated, bookings.RefundFailed},
		bookings.RefundProcessing, nil)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	txn, err := s.repo.GetTransactionByID(ctx, refund.TransactionID)
	if err != nil {
		return err
	}
	gw, err := s.registry.Get(txn.Gateway)
	if err != nil {
		return err
	}

	result, err := gw.InitiateRefund(ctx, RefundRequest{
		GatewayPaymentID: txn.GatewayPaymentID,
		Amount:           refund.Amount,
		Currency:         txn.Currency,
		ReferenceID:      refund.RefundID,
		Reason:           refund.Reason,
	})
	if err != nil {
		if _, markErr := s.repo.MarkRefundStatus(ctx, refundID,
			[]bookings.RefundStatus{bookings.RefundProcessing},
			bookings.RefundFailed,
			map[string]interface{}{"failure_reason": err.Error()}); markErr != nil {
			s.log.WithError(markErr).Error("failed to mark refund failed", "refund_id", refund.RefundID)
		}
		return err
	}

	if result.Pending {
		if _, err := s.repo.MarkRefundStatus(ctx, refundID,
			[]bookings.RefundStatus{bookings.RefundProcessing},
			bookings.RefundProcessing,
			map[string]interface{}{"gateway_refund_id": result.GatewayRefundID}); err != nil {
			return err
		}
		s.log.InfoWithContext(ctx, "refund accepted, awaiting gateway settlement", map[string]interface{}{
			"refund_id":         refund.RefundID,
			"gateway_refund_id": result.GatewayRefundID,
		})
		return nil
	}

	if _, err := s.repo.MarkRefundStatus(ctx, refundID,
		[]bookings.RefundStatus{bookings.RefundProcessing},
		bookings.RefundCompleted,
		map[string]interface{}{
			"gateway_refund_id": result.GatewayRefundID,
			"processed_at":      time.Now(),
		}); err != nil {
		return err
	}
	refund.Status = bookings.RefundCompleted
	s.finishRefund(ctx, refund, txn, result.GatewayRefundID)
	return nil
}

// finishRefund retires a fully refunded transaction and notifies the
// user. Runs after the refund row reached completed.
func (s *service) finishRefund(ctx context.Context, refund *bookings.Refund, txn *bookings.Transaction, gatewayRefundID string) {
	if refund.Amount.Equal(txn.Amount) {
		if _, err := s.repo.MarkTransactionStatus(ctx, txn.ID,
			[]bookings.TransactionStatus{bookings.TxnSuccess},
			bookings.TxnRefunded, nil); err != nil {
			s.log.WithError(err).Error("failed to mark transaction refunded",
				"transaction_id", txn.TransactionID)
		}
	}

	s.log.InfoWithContext(ctx, "refund completed", map[string]interface{}{
		"refund_id":         refund.RefundID,
		"gateway_refund_id": gatewayRefundID,
	})

	if s.notifier != nil {
		booking, loadErr := s.repo.GetBookingByID(ctx, refund.BookingID)
		if loadErr == nil {
			if notifyErr := s.notifier.Notify(ctx, bookings.NotifyRefundProcessed, booking); notifyErr != nil {
				s.log.WithError(notifyErr).Error("failed to send refund notification",
					"refund_id", refund.RefundID)
			}
		}
	}
}

func (s *service) ListTransactions(ctx context.Context, userID, bookingID uuid.UUID) ([]bookings.Transaction, error) {
	if _, err := s.lifecycle.GetBooking(ctx, bookingID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, bookingID)
}
