package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvestmentStatusPending  = "pending"
	InvestmentStatusApproved = "approved"
	InvestmentStatusRejected = "rejected"
	InvestmentStatusReturned = "returned"
)

// Investment is a single investor's commitment to a campaign. It is created
// pending by the intent service and only moves to approved/rejected through a
// payment status transition (webhook or sweeper).
type Investment struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	InvestorID     uint            `gorm:"not null;index" json:"investor_id"`
	CampaignID     uint            `gorm:"not null;index" json:"campaign_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status         string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TransactionID  string          `gorm:"type:varchar(200);default:''" json:"transaction_id"`
	Gateway        string          `gorm:"type:varchar(50);default:''" json:"gateway"`
	GatewayEventID string          `gorm:"type:varchar(200);default:''" json:"gateway_event_id"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
