package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTierPricing(t *testing.T) {
	showtime := &Showtime{
		BasePrice:     decimal.RequireFromString("150.00"),
		PremiumPrice:  decimal.RequireFromString("250.00"),
		ReclinerPrice: decimal.RequireFromString("400.00"),
	}
	pricing := NewTierPricing()

	assert.True(t, pricing.PriceFor(showtime, &Seat{SeatType: SeatTypeRegular}).Equal(decimal.RequireFromString("150.00")))
	assert.True(t, pricing.PriceFor(showtime, &Seat{SeatType: SeatTypePremium}).Equal(decimal.RequireFromString("250.00")))
	assert.True(t, pricing.PriceFor(showtime, &Seat{SeatType: SeatTypeRecliner}).Equal(decimal.RequireFromString("400.00")))
	// couple seats price at base until a dedicated tier exists
	assert.True(t, pricing.PriceFor(showtime, &Seat{SeatType: SeatTypeCouple}).Equal(decimal.RequireFromString("150.00")))
}

func TestSeatLabel(t *testing.T) {
	seat := &Seat{Row: "A", Number: 12}
	assert.Equal(t, "A12", seat.Label())
}
