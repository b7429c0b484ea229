package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripeSign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	gw := &stripeGateway{webhookSecret: "whsec_test"}
	payload := []byte(`{"id": "evt_1", "type": "payment_intent.succeeded"}`)

	headers := http.Header{}
	headers.Set("Stripe-Signature", stripeSign(payload, "whsec_wrong", time.Now()))
	_, err := gw.HandleWebhook(payload, headers)
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	headers.Set("Stripe-Signature", "garbage")
	_, err = gw.HandleWebhook(payload, headers)
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	_, err = gw.HandleWebhook(payload, http.Header{})
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestStripeWebhookRejectsStaleSignature(t *testing.T) {
	gw := &stripeGateway{webhookSecret: "whsec_test"}
	payload := []byte(`{"id": "evt_1", "type": "payment_intent.succeeded"}`)

	headers := http.Header{}
	headers.Set("Stripe-Signature", stripeSign(payload, "whsec_test", time.Now().Add(-webhook.DefaultTolerance-time.Minute)))
	_, err := gw.HandleWebhook(payload, headers)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestStripeWebhookClassifiesEvents(t *testing.T) {
	gw := &stripeGateway{webhookSecret: "whsec_test"}

	succeeded := []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"api_version": %q,
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_123", "status": "succeeded"}}
	}`, stripe.APIVersion))
	headers := http.Header{}
	headers.Set("Stripe-Signature", stripeSign(succeeded, "whsec_test", time.Now()))
	event, err := gw.HandleWebhook(succeeded, headers)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, event.Kind)
	assert.Equal(t, "evt_1", event.GatewayEventID)
	assert.Equal(t, "pi_123", event.GatewayOrderID)

	failed := []byte(fmt.Sprintf(`{
		"id": "evt_2",
		"api_version": %q,
		"type": "payment_intent.payment_failed",
		"data": {"object": {"id": "pi_124", "last_payment_error": {"message": "card declined"}}}
	}`, stripe.APIVersion))
	headers.Set("Stripe-Signature", stripeSign(failed, "whsec_test", time.Now()))
	event, err = gw.HandleWebhook(failed, headers)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentFailed, event.Kind)
	assert.Equal(t, "card declined", event.FailureReason)

	other := []byte(fmt.Sprintf(`{
		"id": "evt_3",
		"api_version": %q,
		"type": "charge.updated",
		"data": {"object": {}}
	}`, stripe.APIVersion))
	headers.Set("Stripe-Signature", stripeSign(other, "whsec_test", time.Now()))
	event, err = gw.HandleWebhook(other, headers)
	require.NoError(t, err)
	assert.Equal(t, EventIgnored, event.Kind)
}
