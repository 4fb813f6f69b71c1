package models

import "time"

// WebhookEvent is an append-only audit record of one inbound gateway
// notification. It is written before any payment mutation is attempted, so an
// unprocessed row always marks work the sweeper can pick up. Only the
// Processed/ProcessedAt pair is ever mutated after insert.
type WebhookEvent struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	PaymentID   *uint      `gorm:"index" json:"payment_id,omitempty"`
	Gateway     string     `gorm:"type:varchar(50);not null;default:'';index:idx_webhook_events_gateway_event,priority:1" json:"gateway"`
	EventID     string     `gorm:"type:varchar(200);not null;default:'';index:idx_webhook_events_gateway_event,priority:2" json:"event_id"`
	RawPayload  string     `gorm:"type:longtext;not null" json:"raw_payload"`
	Signature   string     `gorm:"type:varchar(500);default:''" json:"signature"`
	Processed   bool       `gorm:"default:false;index" json:"processed"`
	ProcessedAt *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	Note        string     `gorm:"type:text" json:"note"`
	ReceivedAt  time.Time  `gorm:"autoCreateTime;index" json:"received_at"`
}
