package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"

	"cinebook/internal/bookings"
	"cinebook/internal/shared/config"
)

type razorpayGateway struct {
	client        *razorpay.Client
	keyID         string
	keySecret     string
	webhookSecret string
}

func NewRazorpayGateway(cfg config.RazorpayConfig) Gateway {
	return &razorpayGateway{
		client:        razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
	}
}

func (g *razorpayGateway) Name() bookings.Gateway {
	return bookings.GatewayRazorpay
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	data := map[string]interface{}{
		"amount":   toMinorUnits(req.Amount),
		"currency": req.Currency,
		"receipt":  req.TransactionID,
		"notes": map[string]interface{}{
			"booking_reference": req.BookingReference,
		},
	}

	var body map[string]interface{}
	err := withRetry(ctx, "razorpay", "create_order", func() error {
		created, callErr := g.client.Order.Create(data, nil)
		if callErr != nil {
			return callErr
		}
		body = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	orderID, ok := body["id"].(string)
	if !ok {
		return nil, fmt.Errorf("razorpay order response missing id")
	}
	return &Order{
		GatewayOrderID: orderID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		KeyID:          g.keyID,
	}, nil
}

// VerifyPayment checks the checkout signature, then confirms with the
// gateway that the payment is actually captured. The signature covers
// "<order_id>|<payment_id>" signed with the key secret.
func (g *razorpayGateway) VerifyPayment(ctx context.Context, req VerificationRequest) error {
	payload := req.GatewayOrderID + "|" + req.GatewayPaymentID
	if !verifyHMAC([]byte(payload), req.Signature, g.keySecret) {
		return ErrSignatureMismatch
	}

	var payment map[string]interface{}
	err := withRetry(ctx, "razorpay", "fetch_payment", func() error {
		fetched, callErr := g.client.Payment.Fetch(req.GatewayPaymentID, nil, nil)
		if callErr != nil {
			return callErr
		}
		payment = fetched
		return nil
	})
	if err != nil {
		return err
	}
	if status, _ := payment["status"].(string); status != "captured" {
		return ErrPaymentNotCaptured
	}
	return nil
}

type razorpayWebhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
		Refund struct {
			Entity struct {
				ID        string `json:"id"`
				PaymentID string `json:"payment_id"`
			} `json:"entity"`
		} `json:"refund"`
	} `json:"payload"`
}

// HandleWebhook verifies the webhook signature over the raw body with
// the dedicated webhook secret, which is distinct from the key secret.
func (g *razorpayGateway) HandleWebhook(payload []byte, headers http.Header) (*WebhookEvent, error) {
	signature := headers.Get("X-Razorpay-Signature")
	if !verifyHMAC(payload, signature, g.webhookSecret) {
		return nil, ErrSignatureMismatch
	}

	var body razorpayWebhookBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("failed to decode razorpay webhook: %w", err)
	}

	event := &WebhookEvent{
		GatewayEventID:   headers.Get("X-Razorpay-Event-Id"),
		GatewayOrderID:   body.Payload.Payment.Entity.OrderID,
		GatewayPaymentID: body.Payload.Payment.Entity.ID,
	}
	switch body.Event {
	case "payment.captured":
		event.Kind = EventPaymentSucceeded
	case "payment.failed":
		event.Kind = EventPaymentFailed
		event.FailureReason = body.Payload.Payment.Entity.ErrorDescription
	case "refund.processed":
		event.Kind = EventRefundCompleted
		event.GatewayRefundID = body.Payload.Refund.Entity.ID
		event.GatewayPaymentID = body.Payload.Refund.Entity.PaymentID
	default:
		event.Kind = EventIgnored
	}
	return event, nil
}

func (g *razorpayGateway) InitiateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	data := map[string]interface{}{
		"notes": map[string]interface{}{
			"refund_id": req.ReferenceID,
			"reason":    req.Reason,
		},
	}

	var body map[string]interface{}
	err := withRetry(ctx, "razorpay", "refund", func() error {
		created, callErr := g.client.Payment.Refund(req.GatewayPaymentID, int(toMinorUnits(req.Amount)), data, nil)
		if callErr != nil {
			return callErr
		}
		body = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	refundID, ok := body["id"].(string)
	if !ok {
		return nil, fmt.Errorf("razorpay refund response missing id")
	}
	// Razorpay frequently accepts refunds as "pending" or "created" and
	// settles them later; only "processed" is terminal.
	status, _ := body["status"].(string)
	return &RefundResult{GatewayRefundID: refundID, Pending: status != "processed"}, nil
}

// verifyHMAC compares an expected HMAC-SHA256 hex digest in constant
// time.
func verifyHMAC(payload []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
