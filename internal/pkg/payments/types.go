package payments

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sohojbiniyog/biniyog/app/models"
)

var (
	// ErrBadSignature means the webhook body did not match its HMAC header.
	ErrBadSignature = errors.New("webhook signature mismatch")
	// ErrMalformedPayload means the webhook body was not a usable JSON document.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrPaymentNotFound means the referenced payment row does not exist.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrCampaignNotFound means the referenced campaign row does not exist.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrInvalidState means an operation hit a payment outside the state it requires.
	ErrInvalidState = errors.New("payment is not in a valid state for this operation")
)

// ValidationError carries the user-facing reason an investment was refused.
// Nothing has been written when it is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// AnomalyError marks a payment that received a second, distinct gateway event
// id after already reaching a terminal state. It is recorded for manual review
// and never auto-resolved.
type AnomalyError struct {
	PaymentID       uint
	StoredEventID   string
	IncomingEventID string
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("payment %d already terminal with event %q, refusing distinct event %q",
		e.PaymentID, e.StoredEventID, e.IncomingEventID)
}

// WebhookPayload is the typed shape of an inbound gateway notification.
// payment_id and status are required; the rest is optional.
type WebhookPayload struct {
	PaymentID      uint   `json:"payment_id"`
	Status         string `json:"status"`
	TransactionID  string `json:"transaction_id,omitempty"`
	GatewayEventID string `json:"gateway_event_id,omitempty"`
}

// IsSuccess reports whether the gateway considers the payment collected.
// Anything other than the literal "success" is treated as failure.
func (p *WebhookPayload) IsSuccess() bool {
	return p.Status == "success"
}

// ParseWebhookPayload decodes and validates a raw webhook body.
func ParseWebhookPayload(raw []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if payload.PaymentID == 0 {
		return nil, fmt.Errorf("%w: payment_id is required", ErrMalformedPayload)
	}
	if payload.Status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrMalformedPayload)
	}
	return &payload, nil
}

// TransitionInput is the single mutation primitive of the ledger: one payment
// status application derived from one gateway event.
type TransitionInput struct {
	PaymentID      uint
	Success        bool
	TransactionID  string
	GatewayEventID string
	RawPayload     string
	Gateway        string
}

// TransitionResult reports what a transition did. Exactly one of the three
// outcomes holds: applied (Replay and Anomaly false), recognized replay, or
// integrity anomaly. CampaignID is set when a linked investment was touched.
type TransitionResult struct {
	Payment    *models.Payment
	Investment *models.Investment
	CampaignID uint
	Replay     bool
	Anomaly    bool
}

// WebhookOutcome classifies a fully processed webhook for the HTTP boundary.
type WebhookOutcome int

const (
	// OutcomeApplied means the event changed payment/investment state.
	OutcomeApplied WebhookOutcome = iota
	// OutcomeDuplicate means the event was already applied earlier.
	OutcomeDuplicate
	// OutcomeAnomaly means the event conflicted with a terminal payment and
	// was recorded for manual review.
	OutcomeAnomaly
)
