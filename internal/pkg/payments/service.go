package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sohojbiniyog/biniyog/app/models"
	"gorm.io/gorm"
)

// FundingRecomputer re-derives a campaign's funding state after an investment
// mutation. Implemented by funding.Aggregator; it must never panic past the
// call site.
type FundingRecomputer interface {
	Recompute(campaignID uint)
}

// Service drives the payment subsystem: investment intent, webhook ingestion,
// checkout hand-off and cancellation. The webhook secret is injected at
// construction so tests can swap it per case.
type Service struct {
	ledger  Ledger
	gateway GatewayClient
	funding FundingRecomputer
	secret  string
}

// NewService wires a payment service from its collaborators.
func NewService(ledger Ledger, gateway GatewayClient, funding FundingRecomputer, webhookSecret string) *Service {
	return &Service{
		ledger:  ledger,
		gateway: gateway,
		funding: funding,
		secret:  webhookSecret,
	}
}

// CreateInvestment validates an investor's intent and, on success, writes the
// pending investment/payment pair atomically. The returned payment is what the
// caller redirects to the gateway start page. Validation failures return a
// *ValidationError and write nothing.
func (s *Service) CreateInvestment(ctx context.Context, investorID, campaignID uint, amountText string) (*models.Payment, error) {
	_ = ctx
	campaign, err := s.ledger.GetCampaign(campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	now := time.Now()
	if campaign.IsFunded || campaign.PercentRaised.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return nil, &ValidationError{Reason: "This campaign is already fully funded and cannot accept new investments."}
	}
	if !campaign.EndDate.IsZero() && campaign.EndDate.Before(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())) {
		return nil, &ValidationError{Reason: "This campaign has ended and cannot accept new investments."}
	}

	amount, err := decimal.NewFromString(amountText)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return nil, &ValidationError{Reason: "Please enter a valid investment amount."}
	}
	if amount.LessThan(campaign.MinInvestment) {
		return nil, &ValidationError{Reason: fmt.Sprintf("The minimum investment amount is %s %s.", models.DefaultCurrency, campaign.MinInvestment.StringFixed(2))}
	}

	inv := &models.Investment{
		InvestorID: investorID,
		CampaignID: campaignID,
		Amount:     amount,
		Status:     models.InvestmentStatusPending,
	}
	pay := &models.Payment{
		Gateway:  models.GatewayBkash,
		Amount:   amount,
		Currency: models.DefaultCurrency,
		Status:   models.PaymentStatusPending,
	}
	if err := s.ledger.CreateInvestmentWithPayment(inv, pay); err != nil {
		return nil, err
	}
	return pay, nil
}

// StartCheckout hands a pending payment to the gateway adapter and returns the
// target the investor's client should follow. Non-pending payments are
// rejected with ErrInvalidState.
func (s *Service) StartCheckout(ctx context.Context, paymentID uint) (*Checkout, error) {
	pay, err := s.ledger.GetPayment(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if pay.Status != models.PaymentStatusPending {
		return nil, ErrInvalidState
	}
	return s.gateway.StartCheckout(ctx, pay)
}

// CancelPayment marks a pending payment cancelled, cascades the linked
// investment to rejected and recomputes the campaign's funding state.
func (s *Service) CancelPayment(ctx context.Context, paymentID uint) (*models.Payment, error) {
	_ = ctx
	result, err := s.ledger.CancelPayment(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if result.CampaignID != 0 {
		s.funding.Recompute(result.CampaignID)
	}
	return result.Payment, nil
}

// ProcessWebhook runs the full ingestion pipeline over one raw notification:
// authenticate, parse, look up, audit, dedupe, apply, recompute. The error
// mapping at the HTTP boundary: ErrBadSignature/ErrMalformedPayload -> 400,
// ErrPaymentNotFound -> 404, anything else -> 500 (the audit row is already
// written and stays unprocessed for the sweeper).
func (s *Service) ProcessWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (WebhookOutcome, error) {
	_ = ctx
	if s.secret == "" {
		// Deliberate permissive fallback for environments without the secret
		// provisioned. Reviewed toggle, not a silent default.
		log.Printf("webhook: no signing secret configured, accepting unsigned event")
	} else if !VerifyWebhookSignature(rawBody, signatureHeader, s.secret) {
		log.Printf("webhook: signature mismatch, possible spoofed delivery")
		return 0, ErrBadSignature
	}

	payload, err := ParseWebhookPayload(rawBody)
	if err != nil {
		return 0, err
	}

	pay, err := s.ledger.GetPayment(payload.PaymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Keep a forensic trail even when the payment reference is dead.
			orphan := &models.WebhookEvent{
				Gateway:    models.GatewayBkash,
				EventID:    payload.GatewayEventID,
				RawPayload: string(rawBody),
				Signature:  signatureHeader,
				Note:       fmt.Sprintf("no payment with id %d", payload.PaymentID),
			}
			if auditErr := s.ledger.CreateWebhookEvent(orphan); auditErr != nil {
				log.Printf("webhook: failed to audit orphan event: %v", auditErr)
			}
			return 0, ErrPaymentNotFound
		}
		return 0, err
	}

	// Audit-first: the event row must exist before any state is touched.
	event := &models.WebhookEvent{
		PaymentID:  &pay.ID,
		Gateway:    models.GatewayBkash,
		EventID:    payload.GatewayEventID,
		RawPayload: string(rawBody),
		Signature:  signatureHeader,
	}
	if err := s.ledger.CreateWebhookEvent(event); err != nil {
		return 0, err
	}

	return s.applyEvent(event.ID, payload, string(rawBody))
}

// applyEvent runs steps 5-6 of the pipeline against an already-audited event.
// The sweeper re-drives unprocessed events through this same path.
func (s *Service) applyEvent(eventID uint, payload *WebhookPayload, rawBody string) (WebhookOutcome, error) {
	result, err := s.applyTransition(TransitionInput{
		PaymentID:      payload.PaymentID,
		Success:        payload.IsSuccess(),
		TransactionID:  payload.TransactionID,
		GatewayEventID: payload.GatewayEventID,
		RawPayload:     rawBody,
		Gateway:        models.GatewayBkash,
	})
	if err != nil {
		return 0, err
	}

	switch {
	case result.Replay:
		// Already applied. The gateway must not see an error and retry
		// forever, so acknowledge; the audit row stays for the sweeper.
		if err := s.ledger.MarkWebhookSeen(eventID, "duplicate of already applied event"); err != nil {
			log.Printf("webhook: failed to annotate duplicate event %d: %v", eventID, err)
		}
		return OutcomeDuplicate, nil

	case result.Anomaly:
		anomaly := &AnomalyError{
			PaymentID:       payload.PaymentID,
			StoredEventID:   result.Payment.GatewayEventID,
			IncomingEventID: payload.GatewayEventID,
		}
		log.Printf("webhook: integrity anomaly: %v", anomaly)
		// Recorded for manual review; processed so redelivery and the sweeper
		// stop re-driving an event that can never apply.
		if err := s.ledger.MarkWebhookProcessed(eventID, "integrity anomaly: "+anomaly.Error()); err != nil {
			log.Printf("webhook: failed to flag anomalous event %d: %v", eventID, err)
		}
		return OutcomeAnomaly, nil

	default:
		if err := s.ledger.MarkWebhookProcessed(eventID, ""); err != nil {
			log.Printf("webhook: event %d applied but not marked processed: %v", eventID, err)
		}
		if result.CampaignID != 0 {
			s.funding.Recompute(result.CampaignID)
		}
		return OutcomeApplied, nil
	}
}

// applyTransition retries the locked transition once on a transient conflict
// before giving up, per the store's locking discipline.
func (s *Service) applyTransition(in TransitionInput) (*TransitionResult, error) {
	result, err := s.ledger.ApplyPaymentTransition(in)
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return result, err
	}
	log.Printf("payment %d: transition conflict, retrying once: %v", in.PaymentID, err)
	return s.ledger.ApplyPaymentTransition(in)
}
