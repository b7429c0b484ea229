package payments

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"cinebook/internal/bookings"
)

// EventKind classifies a webhook notification after verification
type EventKind string

const (
	EventPaymentSucceeded EventKind = "payment_succeeded"
	EventPaymentFailed    EventKind = "payment_failed"
	EventRefundCompleted  EventKind = "refund_completed"
	EventIgnored          EventKind = "ignored"
)

// OrderRequest asks a gateway to open a payment for a booking
type OrderRequest struct {
	TransactionID    string
	BookingReference string
	Amount           decimal.Decimal
	Currency         string
}

// Order is the gateway-side handle the client needs to complete payment
type Order struct {
	GatewayOrderID string
	Amount         decimal.Decimal
	Currency       string
	// ClientSecret is set by gateways that confirm client-side
	ClientSecret string
	// KeyID is the publishable key for checkout widgets
	KeyID string
}

// VerificationRequest carries the proof of payment returned to the
// client after checkout.
type VerificationRequest struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// WebhookEvent is a verified, decoded gateway notification
type WebhookEvent struct {
	Kind             EventKind
	GatewayEventID   string
	GatewayOrderID   string
	GatewayPaymentID string
	GatewayRefundID  string
	FailureReason    string
}

type RefundRequest struct {
	GatewayPaymentID string
	Amount           decimal.Decimal
	Currency         string
	ReferenceID      string
	Reason           string
}

// RefundResult reports the gateway's answer to a refund request.
// Pending means the gateway accepted the refund but has not settled it;
// the refund stays processing until the settlement webhook lands.
type RefundResult struct {
	GatewayRefundID string
	Pending         bool
}

// Gateway is the capability surface every payment provider implements.
// HandleWebhook must verify authenticity before decoding; callers treat
// a returned event as trusted.
type Gateway interface {
	Name() bookings.Gateway
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	VerifyPayment(ctx context.Context, req VerificationRequest) error
	HandleWebhook(payload []byte, headers http.Header) (*WebhookEvent, error)
	InitiateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

// Registry resolves gateways by name
type Registry struct {
	gateways map[bookings.Gateway]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	reg := &Registry{gateways: make(map[bookings.Gateway]Gateway, len(gateways))}
	for _, gw := range gateways {
		reg.gateways[gw.Name()] = gw
	}
	return reg
}

func (r *Registry) Get(name bookings.Gateway) (Gateway, error) {
	gw, ok := r.gateways[name]
	if !ok {
		return nil, &UnknownGatewayError{Name: string(name)}
	}
	return gw, nil
}
