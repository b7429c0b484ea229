package bookings

import (
	"crypto/rand"
	"math/big"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomToken(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// NewBookingReference returns a user-facing code like "MB7K2P9QX1".
// Uniqueness is enforced by the database; callers retry on collision.
func NewBookingReference() (string, error) {
	token, err := randomToken(8)
	if err != nil {
		return "", err
	}
	return "MB" + token, nil
}

// NewTransactionID returns an internal payment attempt id like
// "TXN4F8A2B9C1D3E".
func NewTransactionID() (string, error) {
	token, err := randomToken(12)
	if err != nil {
		return "", err
	}
	return "TXN" + token, nil
}

// NewRefundID returns an internal refund id like "REF9B2C4D6E8F"
func NewRefundID() (string, error) {
	token, err := randomToken(10)
	if err != nil {
		return "", err
	}
	return "REF" + token, nil
}
