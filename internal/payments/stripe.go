package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"cinebook/internal/bookings"
	"cinebook/internal/shared/config"
)

type stripeGateway struct {
	client         *client.API
	publishableKey string
	webhookSecret  string
}

func NewStripeGateway(cfg config.StripeConfig) Gateway {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return &stripeGateway{
		client:         sc,
		publishableKey: cfg.PublishableKey,
		webhookSecret:  cfg.WebhookSecret,
	}
}

func (g *stripeGateway) Name() bookings.Gateway {
	return bookings.GatewayStripe
}

func (g *stripeGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(req.Amount)),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("transaction_id", req.TransactionID)
	params.AddMetadata("booking_reference", req.BookingReference)

	var intent *stripe.PaymentIntent
	err := withRetry(ctx, "stripe", "create_payment_intent", func() error {
		created, callErr := g.client.PaymentIntents.New(params)
		if callErr != nil {
			return callErr
		}
		intent = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Order{
		GatewayOrderID: intent.ID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		ClientSecret:   intent.ClientSecret,
		KeyID:          g.publishableKey,
	}, nil
}

// VerifyPayment confirms the PaymentIntent reached succeeded. Stripe
// has no client-side signature; the authoritative answer comes from the
// API itself.
func (g *stripeGateway) VerifyPayment(ctx context.Context, req VerificationRequest) error {
	intentID := req.GatewayPaymentID
	if intentID == "" {
		intentID = req.GatewayOrderID
	}

	var intent *stripe.PaymentIntent
	err := withRetry(ctx, "stripe", "fetch_payment_intent", func() error {
		fetched, callErr := g.client.PaymentIntents.Get(intentID, nil)
		if callErr != nil {
			return callErr
		}
		intent = fetched
		return nil
	})
	if err != nil {
		return err
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return ErrPaymentNotCaptured
	}
	return nil
}

func (g *stripeGateway) HandleWebhook(payload []byte, headers http.Header) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, headers.Get("Stripe-Signature"), g.webhookSecret)
	if err != nil {
		if errors.Is(err, webhook.ErrNoValidSignature) ||
			errors.Is(err, webhook.ErrNotSigned) ||
			errors.Is(err, webhook.ErrInvalidHeader) ||
			errors.Is(err, webhook.ErrTooOld) {
			return nil, ErrSignatureMismatch
		}
		return nil, fmt.Errorf("failed to construct stripe event: %w", err)
	}

	out := &WebhookEvent{GatewayEventID: event.ID, Kind: EventIgnored}
	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("failed to decode payment intent: %w", err)
		}
		out.GatewayOrderID = intent.ID
		out.GatewayPaymentID = intent.ID
		if event.Type == "payment_intent.succeeded" {
			out.Kind = EventPaymentSucceeded
		} else {
			out.Kind = EventPaymentFailed
			if intent.LastPaymentError != nil {
				out.FailureReason = intent.LastPaymentError.Msg
			}
		}
	}
	return out, nil
}

func (g *stripeGateway) InitiateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.GatewayPaymentID),
		Amount:        stripe.Int64(toMinorUnits(req.Amount)),
	}
	params.AddMetadata("refund_id", req.ReferenceID)

	var refund *stripe.Refund
	err := withRetry(ctx, "stripe", "refund", func() error {
		created, callErr := g.client.Refunds.New(params)
		if callErr != nil {
			return callErr
		}
		refund = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &RefundResult{
		GatewayRefundID: refund.ID,
		Pending:         refund.Status == stripe.RefundStatusPending,
	}, nil
}
