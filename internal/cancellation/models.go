package cancellation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Policy is one tier of the cancellation fee schedule. The applicable
// tier is the one with the largest hours_before_show that is still at or
// below the actual distance to showtime.
type Policy struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name            string          `json:"name" gorm:"type:varchar(100);not null"`
	HoursBeforeShow int             `json:"hours_before_show" gorm:"not null;index"`
	FeePercentage   decimal.Decimal `json:"fee_percentage" gorm:"type:numeric(5,2);not null"`
	IsRefundable    bool            `json:"is_refundable" gorm:"not null;default:true"`
	IsActive        bool            `json:"is_active" gorm:"not null;default:true"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Policy) TableName() string {
	return "cancellation_policies"
}
