package payments

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinebook/internal/bookings"
	"cinebook/pkg/logger"
)

// stubGateway returns canned responses; the embedded panics guard
// against tests drifting onto unstubbed calls.
type stubGateway struct {
	name     bookings.Gateway
	event    *WebhookEvent
	eventErr error
	refund   *RefundResult
	refunds  int
}

func (g *stubGateway) Name() bookings.Gateway { return g.name }

func (g *stubGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	return &Order{GatewayOrderID: "order_stub", Amount: req.Amount, Currency: req.Currency}, nil
}

func (g *stubGateway) VerifyPayment(ctx context.Context, req VerificationRequest) error {
	return nil
}

func (g *stubGateway) HandleWebhook(payload []byte, headers http.Header) (*WebhookEvent, error) {
	if g.eventErr != nil {
		return nil, g.eventErr
	}
	return g.event, nil
}

func (g *stubGateway) InitiateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	g.refunds++
	return g.refund, nil
}

// stubRepo implements only what webhook and refund handling touch; the
// embedded nil interface panics loudly on anything else.
type stubRepo struct {
	bookings.Repository
	txn       *bookings.Transaction
	extraTxns []*bookings.Transaction
	refundRow *bookings.Refund
	created   []*bookings.Refund
	booking   *bookings.Booking
	marks     []bookings.TransactionStatus
}

func (r *stubRepo) allTxns() []*bookings.Transaction {
	txns := []*bookings.Transaction{}
	if r.txn != nil {
		txns = append(txns, r.txn)
	}
	return append(txns, r.extraTxns...)
}

func (r *stubRepo) allRefunds() []*bookings.Refund {
	refunds := []*bookings.Refund{}
	if r.refundRow != nil {
		refunds = append(refunds, r.refundRow)
	}
	return append(refunds, r.created...)
}

func (r *stubRepo) GetTransactionByGatewayOrderID(ctx context.Context, orderID string) (*bookings.Transaction, error) {
	for _, txn := range r.allTxns() {
		if txn.GatewayOrderID == orderID {
			return txn, nil
		}
	}
	return nil, bookings.ErrTransactionNotFound
}

func (r *stubRepo) GetTransactionByID(ctx context.Context, id uuid.UUID) (*bookings.Transaction, error) {
	for _, txn := range r.allTxns() {
		if txn.ID == id {
			return txn, nil
		}
	}
	return nil, bookings.ErrTransactionNotFound
}

func (r *stubRepo) MarkTransactionStatus(ctx context.Context, id uuid.UUID, allowedFrom []bookings.TransactionStatus, to bookings.TransactionStatus, fields map[string]interface{}) (bool, error) {
	txn, err := r.GetTransactionByID(ctx, id)
	if err != nil {
		return false, nil
	}
	for _, from := range allowedFrom {
		if txn.Status == from {
			txn.Status = to
			r.marks = append(r.marks, to)
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) HasSuccessfulTransaction(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	for _, txn := range r.allTxns() {
		if txn.BookingID == bookingID && txn.Status == bookings.TxnSuccess {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) CreateRefund(ctx context.Context, refund *bookings.Refund) error {
	if refund.ID == uuid.Nil {
		refund.ID = uuid.New()
	}
	r.created = append(r.created, refund)
	return nil
}

func (r *stubRepo) GetRefundByID(ctx context.Context, id uuid.UUID) (*bookings.Refund, error) {
	for _, refund := range r.allRefunds() {
		if refund.ID == id {
			return refund, nil
		}
	}
	return nil, bookings.ErrRefundNotFound
}

func (r *stubRepo) GetRefundByGatewayRefundID(ctx context.Context, gatewayRefundID string) (*bookings.Refund, error) {
	for _, refund := range r.allRefunds() {
		if refund.GatewayRefundID == gatewayRefundID {
			return refund, nil
		}
	}
	return nil, bookings.ErrRefundNotFound
}

func (r *stubRepo) MarkRefundStatus(ctx context.Context, id uuid.UUID, allowedFrom []bookings.RefundStatus, to bookings.RefundStatus, fields map[string]interface{}) (bool, error) {
	refund, err := r.GetRefundByID(ctx, id)
	if err != nil {
		return false, nil
	}
	for _, from := range allowedFrom {
		if refund.Status == from {
			refund.Status = to
			if v, ok := fields["gateway_refund_id"]; ok {
				refund.GatewayRefundID = v.(string)
			}
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) GetBookingByID(ctx context.Context, id uuid.UUID) (*bookings.Booking, error) {
	if r.booking == nil {
		return nil, bookings.ErrBookingNotFound
	}
	return r.booking, nil
}

// stubLifecycle records confirm and fail calls
type stubLifecycle struct {
	bookings.Service
	confirmed  int
	failed     int
	confirmErr error
}

func (l *stubLifecycle) ConfirmOnPayment(ctx context.Context, bookingID uuid.UUID, txn *bookings.Transaction) (*bookings.Booking, error) {
	if l.confirmErr != nil {
		return nil, l.confirmErr
	}
	l.confirmed++
	return &bookings.Booking{ID: bookingID, Status: bookings.StatusConfirmed}, nil
}

func (l *stubLifecycle) FailPayment(ctx context.Context, bookingID uuid.UUID) error {
	l.failed++
	return nil
}

func pendingTxn() *bookings.Transaction {
	return &bookings.Transaction{
		ID:             uuid.New(),
		TransactionID:  "TXNSTUB00000001",
		BookingID:      uuid.New(),
		Gateway:        bookings.GatewayRazorpay,
		GatewayOrderID: "order_stub",
		Amount:         decimal.RequireFromString("374.00"),
		Currency:       "INR",
		Status:         bookings.TxnPending,
	}
}

func newWebhookFixture(event *WebhookEvent) (*stubRepo, *stubLifecycle, Service) {
	repo := &stubRepo{txn: pendingTxn()}
	lifecycle := &stubLifecycle{}
	gateway := &stubGateway{name: bookings.GatewayRazorpay, event: event}
	svc := NewService(repo, lifecycle, NewRegistry(gateway), nil, logger.New())
	return repo, lifecycle, svc
}

func TestWebhookSuccessConfirmsBooking(t *testing.T) {
	repo, lifecycle, svc := newWebhookFixture(&WebhookEvent{
		Kind:             EventPaymentSucceeded,
		GatewayOrderID:   "order_stub",
		GatewayPaymentID: "pay_1",
	})

	err := svc.HandleWebhook(context.Background(), bookings.GatewayRazorpay, []byte(`{}`), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, bookings.TxnSuccess, repo.txn.Status)
	assert.Equal(t, 1, lifecycle.confirmed)
}

func TestWebhookReplayIsNoOp(t *testing.T) {
	repo, lifecycle, svc := newWebhookFixture(&WebhookEvent{
		Kind:             EventPaymentSucceeded,
		GatewayOrderID:   "order_stub",
		GatewayPaymentID: "pay_1",
	})

	require.NoError(t, svc.HandleWebhook(context.Background(), bookings.GatewayRazorpay, []byte(`{}`), http.Header{}))
	require.NoError(t, svc.HandleWebhook(context.Background(), bookings.GatewayRazorpay, []byte(`{}`), http.Header{}))

	assert.Equal(t, 1, lifecycle.confirmed, "redelivered success must not confirm twice")
	assert.Len(t, repo.marks, 1, "transaction transitions exactly once")
}

func TestWebhookFailureRecordsAndReleases(t *testing.T) {
	repo, lifecycle, svc := newWebhookFixture(&WebhookEvent{
		Kind:           EventPaymentFailed,
		GatewayOrderID: "order_stub",
		FailureReason:  "card declined",
	})

	require.NoError(t, svc.HandleWebhook(context.Background(), bookings.GatewayRazorpay, []byte(`{}`), http.Header{}))
	assert.Equal(t, bookings.TxnFailed, repo.txn.Status)
	assert.Equal(t, 1, lifecycle.failed)

	// redelivery of the failure changes nothing further
	require.NoError(t, svc.HandleWebhook(context.Background(), bookings.GatewayRazorpay, []byte(`{}`), http.Header{}))
	assert.Equal(t, 1, lifecycle.failed)
}

func TestWebhookForUnknownOrderIsAcked(t *testing.T) {
	_, lifecycle, svc := newWebhookFixture(&WebhookEvent{
		Kind:           EventPaymentSucceeded,
		GatewayOrderID: "order_unknown",
	})

	err := svc.HandleWebhook(context.Background(), bookings.GatewayRazorpay, []byte(`{}`), http.Header{})
	require.NoError(t, err, "unknown orders are acknowledged so the gateway stops retrying")
	assert.Zero(t, lifecycle.confirmed)
}

func TestWebhookIgnoredEventsAreAcked(t *testing.T) {
	_, lifecycle, svc := newWebhookFixture(&WebhookEvent{Kind: EventIgnored})

	err := svc.HandleWebhook(context.Background(), bookings.GatewayRazorpay, []byte(`{}`), http.Header{})
	require.NoError(t, err)
	assert.Zero(t, lifecycle.confirmed)
	assert.Zero(t, lifecycle.failed)
}

func TestWebhookSignatureFailurePropagates(t *testing.T) {
	gateway := &stubGateway{name: bookings.GatewayRazorpay, eventErr: ErrSignatureMismatch}
	svc := NewService(&stubRepo{}, &stubLifecycle{}, NewRegistry(gateway), nil, logger.New())

	err := svc.HandleWebhook(context.Background(), bookings.GatewayRazorpay, []byte(`{}`), http.Header{})
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestProcessRefundCompletesAndMarksTransaction(t *testing.T) {
	txn := pendingTxn()
	txn.Status = bookings.TxnSuccess
	txn.GatewayPaymentID = "pay_1"
	refund := &bookings.Refund{
		ID:            uuid.New(),
		RefundID:      "REFSTUB000001",
		BookingID:     txn.BookingID,
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		Status:        bookings.RefundInitiated,
	}
	repo := &stubRepo{txn: txn, refundRow: refund, booking: &bookings.Booking{ID: txn.BookingID}}
	gateway := &stubGateway{name: bookings.GatewayRazorpay, refund: &RefundResult{GatewayRefundID: "rfnd_1"}}
	svc := NewService(repo, &stubLifecycle{}, NewRegistry(gateway), nil, logger.New())

	require.NoError(t, svc.ProcessRefund(context.Background(), refund.ID))
	assert.Equal(t, bookings.RefundCompleted, refund.Status)
	assert.Equal(t, bookings.TxnRefunded, txn.Status, "full refund retires the transaction")
	assert.Equal(t, 1, gateway.refunds)
}

func TestProcessRefundIsIdempotent(t *testing.T) {
	txn := pendingTxn()
	txn.Status = bookings.TxnSuccess
	refund := &bookings.Refund{
		ID:            uuid.New(),
		RefundID:      "REFSTUB000002",
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		Status:        bookings.RefundCompleted,
	}
	repo := &stubRepo{txn: txn, refundRow: refund}
	gateway := &stubGateway{name: bookings.GatewayRazorpay, refund: &RefundResult{GatewayRefundID: "rfnd_2"}}
	svc := NewService(repo, &stubLifecycle{}, NewRegistry(gateway), nil, logger.New())

	require.NoError(t, svc.ProcessRefund(context.Background(), refund.ID))
	assert.Zero(t, gateway.refunds, "completed refunds never hit the gateway again")
}

func TestUnknownGatewayRejected(t *testing.T) {
	registry := NewRegistry(&stubGateway{name: bookings.GatewayRazorpay})

	_, err := registry.Get(bookings.Gateway("paypal"))
	var unknownErr *UnknownGatewayError
	require.ErrorAs(t, err, &unknownErr)
}

func TestWebhookSecondCaptureIsRefunded(t *testing.T) {
	bookingID := uuid.New()
	first := pendingTxn()
	first.BookingID = bookingID
	second := pendingTxn()
	second.BookingID = bookingID
	second.TransactionID = "TXNSTUB00000002"
	second.GatewayOrderID = "order_stub_2"

	repo := &stubRepo{txn: first, extraTxns: []*bookings.Transaction{second}, booking: &bookings.Booking{ID: bookingID}}
	lifecycle := &stubLifecycle{}
	gateway := &stubGateway{name: bookings.GatewayRazorpay, refund: &RefundResult{GatewayRefundID: "rfnd_dup"}}
	svc := NewService(repo, lifecycle, NewRegistry(gateway), nil, logger.New())

	gateway.event = &WebhookEvent{
		Kind:             EventPaymentSucceeded,
		GatewayOrderID:   first.GatewayOrderID,
		GatewayPaymentID: "pay_1",
	}
	require.NoError(t, svc.HandleWebhook(context.Background(), bookings.GatewayRazorpay, []byte(`{}`), http.Header{}))

	gateway.event = &WebhookEvent{
		Kind:             EventPaymentSucceeded,
		GatewayOrderID:   second.GatewayOrderID,
		GatewayPaymentID: "pay_2",
	}
	require.NoError(t, svc.HandleWebhook(context.Background(), bookings.GatewayRazorpay, []byte(`{}`), http.Header{}))

	assert.Equal(t, bookings.TxnSuccess, first.Status)
	assert.Equal(t, bookings.TxnRefunded, second.Status, "only one capture per booking may stand")
	assert.Equal(t, 1, lifecycle.confirmed, "the duplicate must not re-confirm")
	require.Len(t, repo.created, 1, "the duplicate capture gets its money back")
	assert.True(t, repo.created[0].Amount.Equal(second.Amount))
	assert.Equal(t, bookings.RefundCompleted, repo.created[0].Status)
	assert.Equal(t, 1, gateway.refunds)
}

func TestProcessRefundLeavesPendingSettlement(t *testing.T) {
	txn := pendingTxn()
	txn.Status = bookings.TxnSuccess
	txn.GatewayPaymentID = "pay_1"
	refund := &bookings.Refund{
		ID:            uuid.New(),
		RefundID:      "REFSTUB000004",
		BookingID:     txn.BookingID,
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		Status:        bookings.RefundInitiated,
	}
	repo := &stubRepo{txn: txn, refundRow: refund, booking: &bookings.Booking{ID: txn.BookingID}}
	gateway := &stubGateway{name: bookings.GatewayRazorpay, refund: &RefundResult{GatewayRefundID: "rfnd_4", Pending: true}}
	svc := NewService(repo, &stubLifecycle{}, NewRegistry(gateway), nil, logger.New())

	require.NoError(t, svc.ProcessRefund(context.Background(), refund.ID))
	assert.Equal(t, bookings.RefundProcessing, refund.Status,
		"an unsettled gateway refund is not completed")
	assert.Equal(t, "rfnd_4", refund.GatewayRefundID)
	assert.Equal(t, bookings.TxnSuccess, txn.Status)
}

func TestWebhookRefundSettlementCompletes(t *testing.T) {
	txn := pendingTxn()
	txn.Status = bookings.TxnSuccess
	txn.GatewayPaymentID = "pay_1"
	refund := &bookings.Refund{
		ID:              uuid.New(),
		RefundID:        "REFSTUB000005",
		BookingID:       txn.BookingID,
		TransactionID:   txn.ID,
		Amount:          txn.Amount,
		GatewayRefundID: "rfnd_5",
		Status:          bookings.RefundProcessing,
	}
	repo := &stubRepo{txn: txn, refundRow: refund, booking: &bookings.Booking{ID: txn.BookingID}}
	gateway := &stubGateway{name: bookings.GatewayRazorpay, event: &WebhookEvent{
		Kind:            EventRefundCompleted,
		GatewayRefundID: "rfnd_5",
	}}
	svc := NewService(repo, &stubLifecycle{}, NewRegistry(gateway), nil, logger.New())

	require.NoError(t, svc.HandleWebhook(context.Background(), bookings.GatewayRazorpay, []byte(`{}`), http.Header{}))
	assert.Equal(t, bookings.RefundCompleted, refund.Status)
	assert.Equal(t, bookings.TxnRefunded, txn.Status, "a fully settled refund retires the transaction")

	// settlement redelivery changes nothing further
	require.NoError(t, svc.HandleWebhook(context.Background(), bookings.GatewayRazorpay, []byte(`{}`), http.Header{}))
	assert.Equal(t, bookings.RefundCompleted, refund.Status)
}

func TestPartialRefundKeepsTransactionSuccessful(t *testing.T) {
	txn := pendingTxn()
	txn.Status = bookings.TxnSuccess
	txn.GatewayPaymentID = "pay_1"
	refund := &bookings.Refund{
		ID:            uuid.New(),
		RefundID:      "REFSTUB000003",
		TransactionID: txn.ID,
		Amount:        decimal.RequireFromString("280.50"),
		Status:        bookings.RefundInitiated,
	}
	repo := &stubRepo{txn: txn, refundRow: refund, booking: &bookings.Booking{ID: txn.BookingID}}
	gateway := &stubGateway{name: bookings.GatewayRazorpay, refund: &RefundResult{GatewayRefundID: "rfnd_3"}}
	svc := NewService(repo, &stubLifecycle{}, NewRegistry(gateway), nil, logger.New())

	require.NoError(t, svc.ProcessRefund(context.Background(), refund.ID))
	assert.Equal(t, bookings.RefundCompleted, refund.Status)
	assert.Equal(t, bookings.TxnSuccess, txn.Status)
}
