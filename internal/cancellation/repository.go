package cancellation

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	ApplicablePolicy(ctx context.Context, hoursBeforeShow float64) (*Policy, error)
	ListActivePolicies(ctx context.Context) ([]Policy, error)
	CreatePolicy(ctx context.Context, policy *Policy) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// ApplicablePolicy picks the tier with the largest threshold at or below
// the actual distance to showtime.
func (r *repository) ApplicablePolicy(ctx context.Context, hoursBeforeShow float64) (*Policy, error) {
	var policy Policy
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND hours_before_show <= ?", true, hoursBeforeShow).
		Order("hours_before_show DESC").
		First(&policy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPolicy
		}
		return nil, err
	}
	return &policy, nil
}

func (r *repository) ListActivePolicies(ctx context.Context) ([]Policy, error) {
	var policies []Policy
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("hours_before_show DESC").
		Find(&policies).Error
	return policies, err
}

func (r *repository) CreatePolicy(ctx context.Context, policy *Policy) error {
	return r.db.WithContext(ctx).Create(policy).Error
}
