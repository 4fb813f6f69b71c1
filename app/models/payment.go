package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	GatewayBkash = "bkash"

	DefaultCurrency = "BDT"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// Payment is one gateway-side payment attempt tied to at most one investment.
// TransactionID and GatewayEventID are filled exactly once by the first applied
// status transition; a later event carrying different values must not overwrite
// them. RawResponse keeps the provider payload verbatim for reconciliation.
type Payment struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	InvestmentID   *uint           `gorm:"index" json:"investment_id,omitempty"`
	Gateway        string          `gorm:"type:varchar(50);not null;default:'bkash'" json:"gateway"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency       string          `gorm:"type:varchar(10);not null;default:'BDT'" json:"currency"`
	Status         string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TransactionID  string          `gorm:"type:varchar(200);default:''" json:"transaction_id"`
	GatewayEventID string          `gorm:"type:varchar(200);default:''" json:"gateway_event_id"`
	RawResponse    string          `gorm:"type:longtext" json:"raw_response"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the payment already reached a final state.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}
