package bookings

import (
	"context"

	"github.com/shopspring/decimal"

	"cinebook/internal/cancellation"
)

// policyEngineAdapter bridges the cancellation engine into the
// lifecycle service.
type policyEngineAdapter struct {
	svc cancellation.Service
}

func NewPolicyEngine(svc cancellation.Service) PolicyEngine {
	return &policyEngineAdapter{svc: svc}
}

func (a *policyEngineAdapter) Assess(ctx context.Context, total decimal.Decimal, hoursBeforeShow float64) (*PolicyAssessment, error) {
	outcome, err := a.svc.Assess(ctx, total, hoursBeforeShow)
	if err != nil {
		return nil, err
	}
	return &PolicyAssessment{
		PolicyName:      outcome.Policy.Name,
		FeePercentage:   outcome.Policy.FeePercentage,
		CancellationFee: outcome.CancellationFee,
		RefundAmount:    outcome.RefundAmount,
	}, nil
}
