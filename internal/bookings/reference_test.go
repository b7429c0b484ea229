package bookings

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceFormats(t *testing.T) {
	ref, err := NewBookingReference()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^MB[A-Z0-9]{8}$`), ref)

	txn, err := NewTransactionID()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^TXN[A-Z0-9]{12}$`), txn)

	refund, err := NewRefundID()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^REF[A-Z0-9]{10}$`), refund)
}

func TestReferencesAreNotConstant(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		ref, err := NewBookingReference()
		require.NoError(t, err)
		seen[ref] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}
