package payments

import (
	"encoding/json"
	"errors"
	"log"

	"gorm.io/gorm"
)

// Sweeper is the offline self-healing path: it re-derives pending payment
// outcomes from stored provider snapshots and re-drives unprocessed webhook
// events through the same status-application logic as the live pipeline. Both
// passes are idempotent and safe to run arbitrarily often, concurrently with
// live traffic.
type Sweeper struct {
	ledger  Ledger
	service *Service
}

// NewSweeper wires a sweeper over the same ledger and service the webhook
// pipeline uses.
func NewSweeper(ledger Ledger, service *Service) *Sweeper {
	return &Sweeper{ledger: ledger, service: service}
}

// Run executes both sweeps and returns how many payments and events were
// settled.
func (s *Sweeper) Run() (payments int, events int) {
	payments = s.ReconcilePayments()
	events = s.ReprocessEvents()
	return payments, events
}

// ReconcilePayments promotes pending payments whose stored raw-response
// snapshot already carries a terminal outcome, exactly as the webhook path
// would have. Payments without a snapshot stay pending.
func (s *Sweeper) ReconcilePayments() int {
	pending, err := s.ledger.ListPendingPayments(0)
	if err != nil {
		log.Printf("sweeper: listing pending payments failed: %v", err)
		return 0
	}

	count := 0
	for _, pay := range pending {
		if pay.RawResponse == "" {
			continue
		}
		var snapshot WebhookPayload
		if err := json.Unmarshal([]byte(pay.RawResponse), &snapshot); err != nil {
			log.Printf("sweeper: payment %d has unreadable snapshot: %v", pay.ID, err)
			continue
		}
		if !snapshot.IsSuccess() {
			continue
		}

		result, err := s.service.applyTransition(TransitionInput{
			PaymentID:      pay.ID,
			Success:        true,
			TransactionID:  snapshot.TransactionID,
			GatewayEventID: snapshot.GatewayEventID,
			RawPayload:     pay.RawResponse,
			Gateway:        pay.Gateway,
		})
		if err != nil {
			log.Printf("sweeper: reconciling payment %d failed: %v", pay.ID, err)
			continue
		}
		if result.Replay || result.Anomaly {
			continue
		}
		if result.CampaignID != 0 {
			s.service.funding.Recompute(result.CampaignID)
		}
		count++
	}
	return count
}

// ReprocessEvents re-drives unprocessed webhook events in receipt order.
// Events whose referenced payment no longer exists are skipped, not failed;
// events that turn out to be replays of applied state are marked processed so
// they stop surfacing.
func (s *Sweeper) ReprocessEvents() int {
	unprocessed, err := s.ledger.ListUnprocessedEvents(0)
	if err != nil {
		log.Printf("sweeper: listing unprocessed events failed: %v", err)
		return 0
	}

	count := 0
	for _, event := range unprocessed {
		payload, err := ParseWebhookPayload([]byte(event.RawPayload))
		if err != nil {
			log.Printf("sweeper: event %d has an unusable payload, skipping: %v", event.ID, err)
			continue
		}

		if _, err := s.ledger.GetPayment(payload.PaymentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("sweeper: event %d references missing payment %d, skipping", event.ID, payload.PaymentID)
			} else {
				log.Printf("sweeper: event %d payment lookup failed: %v", event.ID, err)
			}
			continue
		}

		outcome, err := s.service.applyEvent(event.ID, payload, event.RawPayload)
		if err != nil {
			log.Printf("sweeper: event %d failed again, leaving for next pass: %v", event.ID, err)
			continue
		}
		if outcome == OutcomeDuplicate {
			// The live path leaves duplicates annotated but unprocessed;
			// settle them here so they stop surfacing.
			if err := s.ledger.MarkWebhookProcessed(event.ID, "duplicate of already applied event"); err != nil {
				log.Printf("sweeper: failed to settle duplicate event %d: %v", event.ID, err)
			}
		}
		count++
	}
	return count
}
