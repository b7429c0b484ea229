package payments

import (
	"errors"
	"fmt"
)

var (
	// ErrSignatureMismatch is returned when a payment proof or webhook
	// fails cryptographic verification.
	ErrSignatureMismatch = errors.New("signature verification failed")

	// ErrPaymentNotCaptured is returned when the gateway reports the
	// payment in a non-successful state during verification.
	ErrPaymentNotCaptured = errors.New("payment is not captured")
)

// UnknownGatewayError is returned for a gateway name nothing is
// registered under.
type UnknownGatewayError struct {
	Name string
}

func (e *UnknownGatewayError) Error() string {
	return fmt.Sprintf("unknown payment gateway %q", e.Name)
}

// GatewayError wraps a provider call that kept failing after retries
type GatewayError struct {
	Gateway  string
	Op       string
	Attempts int
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s %s failed after %d attempts: %v", e.Gateway, e.Op, e.Attempts, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
