package catalog

import "github.com/shopspring/decimal"

// PricingResolver maps (showtime, seat) to a price. Pure, no state
// beyond showtime configuration.
type PricingResolver interface {
	PriceFor(showtime *Showtime, seat *Seat) decimal.Decimal
}

// TierPricing resolves prices from the showtime's per-tier columns.
type TierPricing struct{}

func NewTierPricing() PricingResolver {
	return TierPricing{}
}

func (TierPricing) PriceFor(showtime *Showtime, seat *Seat) decimal.Decimal {
	switch seat.SeatType {
	case SeatTypeRecliner:
		return showtime.ReclinerPrice
	case SeatTypePremium:
		return showtime.PremiumPrice
	default:
		return showtime.BasePrice
	}
}
