package payments

import (
	"time"

	"github.com/sohojbiniyog/biniyog/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger provides the durable operations of the payment subsystem. All
// payment/investment mutation funnels through ApplyPaymentTransition and
// CancelPayment so per-payment state changes stay serialized.
type Ledger interface {
	CreateInvestmentWithPayment(inv *models.Investment, pay *models.Payment) error
	GetPayment(id uint) (*models.Payment, error)
	GetInvestment(id uint) (*models.Investment, error)
	GetCampaign(id uint) (*models.Campaign, error)
	CreateWebhookEvent(event *models.WebhookEvent) error
	MarkWebhookProcessed(id uint, note string) error
	MarkWebhookSeen(id uint, note string) error
	ApplyPaymentTransition(in TransitionInput) (*TransitionResult, error)
	CancelPayment(paymentID uint) (*TransitionResult, error)
	ListPendingPayments(limit int) ([]models.Payment, error)
	ListUnprocessedEvents(limit int) ([]models.WebhookEvent, error)
}

type gormLedger struct {
	db *gorm.DB
}

// NewLedger creates a ledger backed by GORM.
func NewLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db}
}

// CreateInvestmentWithPayment writes the pending investment/payment pair in one
// transaction; either both rows exist afterwards or neither does.
func (l *gormLedger) CreateInvestmentWithPayment(inv *models.Investment, pay *models.Payment) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		pay.InvestmentID = &inv.ID
		return tx.Create(pay).Error
	})
}

func (l *gormLedger) GetPayment(id uint) (*models.Payment, error) {
	var pay models.Payment
	if err := l.db.First(&pay, id).Error; err != nil {
		return nil, err
	}
	return &pay, nil
}

func (l *gormLedger) GetInvestment(id uint) (*models.Investment, error) {
	var inv models.Investment
	if err := l.db.First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (l *gormLedger) GetCampaign(id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := l.db.First(&campaign, id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (l *gormLedger) CreateWebhookEvent(event *models.WebhookEvent) error {
	return l.db.Create(event).Error
}

// MarkWebhookProcessed flips the processed flag exactly once and stamps the
// processing time.
func (l *gormLedger) MarkWebhookProcessed(id uint, note string) error {
	now := time.Now()
	return l.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"processed":    true,
		"processed_at": &now,
		"note":         note,
	}).Error
}

// MarkWebhookSeen annotates an event without flipping processed. Used for
// recognized replays: the audit trail keeps them visible for the sweeper,
// which marks them processed on its next pass.
func (l *gormLedger) MarkWebhookSeen(id uint, note string) error {
	return l.db.Model(&models.WebhookEvent{}).Where("id = ?", id).
		Update("note", note).Error
}

// ApplyPaymentTransition is the only path that moves a payment (and its linked
// investment) between states. It locks the payment row for the duration of the
// transaction so concurrent webhook deliveries, or a webhook racing the
// sweeper, serialize instead of interleaving partial writes.
func (l *gormLedger) ApplyPaymentTransition(in TransitionInput) (*TransitionResult, error) {
	result := &TransitionResult{}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		var pay models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&pay, in.PaymentID).Error; err != nil {
			return err
		}

		// Replay of an already-applied event: same non-empty event id.
		if in.GatewayEventID != "" && pay.GatewayEventID == in.GatewayEventID {
			result.Payment = &pay
			result.Replay = true
			return nil
		}

		if pay.IsTerminal() {
			// An id-less event whose payload matches the stored snapshot is a
			// re-drive of the already applied event, not a conflicting one.
			if in.GatewayEventID == "" && pay.RawResponse == in.RawPayload {
				result.Payment = &pay
				result.Replay = true
				return nil
			}
			// A distinct event against a terminal payment is an integrity
			// anomaly. Record it, change nothing.
			result.Payment = &pay
			result.Anomaly = true
			return nil
		}

		if in.Success {
			pay.Status = models.PaymentStatusSucceeded
		} else {
			pay.Status = models.PaymentStatusFailed
		}
		// First writer wins: ids set by an earlier applied event stay.
		if pay.TransactionID == "" {
			pay.TransactionID = in.TransactionID
		}
		if pay.GatewayEventID == "" {
			pay.GatewayEventID = in.GatewayEventID
		}
		pay.RawResponse = in.RawPayload
		if err := tx.Save(&pay).Error; err != nil {
			return err
		}

		if pay.InvestmentID != nil {
			var inv models.Investment
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&inv, *pay.InvestmentID).Error; err != nil {
				return err
			}
			if in.Success {
				inv.Status = models.InvestmentStatusApproved
				if inv.TransactionID == "" {
					inv.TransactionID = in.TransactionID
				}
				if inv.GatewayEventID == "" {
					inv.GatewayEventID = in.GatewayEventID
				}
				inv.Gateway = in.Gateway
			} else {
				inv.Status = models.InvestmentStatusRejected
			}
			if err := tx.Save(&inv).Error; err != nil {
				return err
			}
			result.Investment = &inv
			result.CampaignID = inv.CampaignID
		}

		result.Payment = &pay
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelPayment moves a pending payment to cancelled and cascades the linked
// investment to rejected. Payments past pending cannot be cancelled.
func (l *gormLedger) CancelPayment(paymentID uint) (*TransitionResult, error) {
	result := &TransitionResult{}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		var pay models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&pay, paymentID).Error; err != nil {
			return err
		}
		if pay.Status != models.PaymentStatusPending {
			return ErrInvalidState
		}

		pay.Status = models.PaymentStatusCancelled
		if err := tx.Save(&pay).Error; err != nil {
			return err
		}

		if pay.InvestmentID != nil {
			var inv models.Investment
			if err := tx.First(&inv, *pay.InvestmentID).Error; err != nil {
				return err
			}
			inv.Status = models.InvestmentStatusRejected
			if err := tx.Save(&inv).Error; err != nil {
				return err
			}
			result.Investment = &inv
			result.CampaignID = inv.CampaignID
		}

		result.Payment = &pay
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (l *gormLedger) ListPendingPayments(limit int) ([]models.Payment, error) {
	var pending []models.Payment
	q := l.db.Where("status = ?", models.PaymentStatusPending).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&pending).Error
	return pending, err
}

func (l *gormLedger) ListUnprocessedEvents(limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	q := l.db.Where("processed = ?", false).Order("received_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&events).Error
	return events, err
}
