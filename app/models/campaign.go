package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	RiskGradeLow      = "A"
	RiskGradeModerate = "B"
	RiskGradeMedium   = "C"
	RiskGradeHigh     = "D"
	RiskGradeVeryHigh = "E"
)

// Campaign is an investment campaign posted by a business. PercentRaised and
// IsFunded are derived fields maintained by the funding aggregator; IsFunded is
// a one-way latch and must never be reset once true.
type Campaign struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	BusinessID    uint            `gorm:"not null;index" json:"business_id"`
	Title         string          `gorm:"type:varchar(150);not null" json:"title" validate:"required,min=3,max=150"`
	Description   string          `gorm:"type:text" json:"description"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"target_amount"`
	MinInvestment decimal.Decimal `gorm:"type:decimal(12,2);not null;default:3000" json:"min_investment"`
	StartDate     time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate       time.Time       `gorm:"type:date;not null" json:"end_date"`
	RiskGrade     string          `gorm:"type:varchar(1);not null;default:'C'" json:"risk_grade" validate:"oneof=A B C D E"`
	PercentRaised decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"percent_raised"`
	IsFunded      bool            `gorm:"default:false;index" json:"is_funded"`
	ViewCount     uint            `gorm:"default:0" json:"view_count"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Campaign) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// IsInvestable reports whether the campaign can still accept new investments
// at the given point in time.
func (c *Campaign) IsInvestable(now time.Time) bool {
	if c.IsFunded || c.PercentRaised.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return false
	}
	if !c.EndDate.IsZero() && c.EndDate.Before(truncateToDate(now)) {
		return false
	}
	return true
}

// DaysLeft returns the remaining whole days until the campaign end date,
// clamped at zero.
func (c *Campaign) DaysLeft(now time.Time) int {
	delta := int(c.EndDate.Sub(truncateToDate(now)).Hours() / 24)
	if delta < 0 {
		return 0
	}
	return delta
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
