package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyHMAC(t *testing.T) {
	payload := []byte("order_123|pay_456")
	secret := "test_secret"

	assert.True(t, verifyHMAC(payload, sign(payload, secret), secret))
	assert.False(t, verifyHMAC(payload, sign(payload, "wrong_secret"), secret))
	assert.False(t, verifyHMAC([]byte("order_123|pay_457"), sign(payload, secret), secret))
	assert.False(t, verifyHMAC(payload, "", secret))
	assert.False(t, verifyHMAC(payload, "not-hex-at-all", secret))
}

func TestRazorpayWebhookVerifiesSignature(t *testing.T) {
	gw := &razorpayGateway{webhookSecret: "whsec_test"}
	payload := []byte(`{
		"event": "payment.captured",
		"payload": {"payment": {"entity": {"id": "pay_123", "order_id": "order_456"}}}
	}`)

	headers := http.Header{}
	headers.Set("X-Razorpay-Signature", sign(payload, "whsec_test"))
	event, err := gw.HandleWebhook(payload, headers)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, event.Kind)
	assert.Equal(t, "order_456", event.GatewayOrderID)
	assert.Equal(t, "pay_123", event.GatewayPaymentID)
}

func TestRazorpayWebhookRejectsBadSignature(t *testing.T) {
	gw := &razorpayGateway{webhookSecret: "whsec_test"}
	payload := []byte(`{"event": "payment.captured"}`)

	headers := http.Header{}
	headers.Set("X-Razorpay-Signature", sign(payload, "some_other_secret"))
	_, err := gw.HandleWebhook(payload, headers)
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	tampered := append([]byte{}, payload...)
	tampered[10] = 'X'
	headers.Set("X-Razorpay-Signature", sign(payload, "whsec_test"))
	_, err = gw.HandleWebhook(tampered, headers)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestRazorpayWebhookClassifiesEvents(t *testing.T) {
	gw := &razorpayGateway{webhookSecret: "whsec_test"}

	failed := []byte(`{
		"event": "payment.failed",
		"payload": {"payment": {"entity": {"id": "pay_1", "order_id": "order_1", "error_description": "card declined"}}}
	}`)
	headers := http.Header{}
	headers.Set("X-Razorpay-Signature", sign(failed, "whsec_test"))
	event, err := gw.HandleWebhook(failed, headers)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentFailed, event.Kind)
	assert.Equal(t, "card declined", event.FailureReason)

	settled := []byte(`{
		"event": "refund.processed",
		"payload": {"refund": {"entity": {"id": "rfnd_1", "payment_id": "pay_1"}}}
	}`)
	headers.Set("X-Razorpay-Signature", sign(settled, "whsec_test"))
	event, err = gw.HandleWebhook(settled, headers)
	require.NoError(t, err)
	assert.Equal(t, EventRefundCompleted, event.Kind)
	assert.Equal(t, "rfnd_1", event.GatewayRefundID)

	other := []byte(`{"event": "refund.created", "payload": {}}`)
	headers.Set("X-Razorpay-Signature", sign(other, "whsec_test"))
	event, err = gw.HandleWebhook(other, headers)
	require.NoError(t, err)
	assert.Equal(t, EventIgnored, event.Kind)
}

func TestRazorpayCheckoutSignature(t *testing.T) {
	secret := "key_secret"
	payload := "order_ABC|pay_XYZ"

	assert.True(t, verifyHMAC([]byte(payload), sign([]byte(payload), secret), secret))
	// payment id swapped for another payment must not verify
	assert.False(t, verifyHMAC([]byte("order_ABC|pay_OTHER"), sign([]byte(payload), secret), secret))
}
