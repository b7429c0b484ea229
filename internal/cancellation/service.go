package cancellation

import (
	"context"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Outcome is the resolved cost of cancelling a paid amount under a
// policy tier.
type Outcome struct {
	Policy          *Policy
	CancellationFee decimal.Decimal
	RefundAmount    decimal.Decimal
}

type Service interface {
	Assess(ctx context.Context, total decimal.Decimal, hoursBeforeShow float64) (*Outcome, error)
	ListPolicies(ctx context.Context) ([]Policy, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Assess resolves the applicable tier and computes fee and refund.
// The fee is rounded once; the refund absorbs the remainder so the two
// always sum exactly to the total.
func (s *service) Assess(ctx context.Context, total decimal.Decimal, hoursBeforeShow float64) (*Outcome, error) {
	policy, err := s.repo.ApplicablePolicy(ctx, hoursBeforeShow)
	if err != nil {
		return nil, err
	}
	if !policy.IsRefundable {
		return nil, &PolicyViolationError{
			PolicyName:      policy.Name,
			HoursBeforeShow: hoursBeforeShow,
		}
	}

	fee := total.Mul(policy.FeePercentage).Div(oneHundred).Round(2)
	refund := total.Sub(fee)
	if refund.IsNegative() {
		refund = decimal.Zero
		fee = total
	}
	return &Outcome{
		Policy:          policy,
		CancellationFee: fee,
		RefundAmount:    refund,
	}, nil
}

func (s *service) ListPolicies(ctx context.Context) ([]Policy, error) {
	return s.repo.ListActivePolicies(ctx)
}
