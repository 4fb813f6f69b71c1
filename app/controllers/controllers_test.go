package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sohojbiniyog/biniyog/app/models"
	"github.com/sohojbiniyog/biniyog/internal/pkg/constants"
	"github.com/sohojbiniyog/biniyog/internal/pkg/funding"
	"github.com/sohojbiniyog/biniyog/internal/pkg/payments"
	"github.com/sohojbiniyog/biniyog/internal/pkg/usercontext"
)

const webhookTestSecret = "controller-test-secret"

// fakeStore backs the controller tests with in-memory maps. It implements the
// payments ledger, the funding repository and both page repositories, so a
// request can run through the real handlers and the real service wiring
// without a database.
type fakeStore struct {
	campaigns   map[uint]*models.Campaign
	payments    map[uint]*models.Payment
	investments map[uint]*models.Investment
	events      map[uint]*models.WebhookEvent
	eventOrder  []uint
	nextID      uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		campaigns:   make(map[uint]*models.Campaign),
		payments:    make(map[uint]*models.Payment),
		investments: make(map[uint]*models.Investment),
		events:      make(map[uint]*models.WebhookEvent),
	}
}

func (s *fakeStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addCampaign(campaign *models.Campaign) *models.Campaign {
	if campaign.ID == 0 {
		campaign.ID = s.id()
	}
	s.campaigns[campaign.ID] = campaign
	return campaign
}

// openTestCampaign seeds a campaign that is currently accepting investments.
func openTestCampaign(s *fakeStore, businessID uint, target int64) *models.Campaign {
	now := time.Now()
	return s.addCampaign(&models.Campaign{
		BusinessID:    businessID,
		Title:         "Dhaka rooftop solar",
		TargetAmount:  decimal.NewFromInt(target),
		MinInvestment: decimal.NewFromInt(3000),
		StartDate:     now.AddDate(0, 0, -7),
		EndDate:       now.AddDate(0, 0, 30),
		RiskGrade:     models.RiskGradeMedium,
	})
}

func (s *fakeStore) addPendingPair(campaignID uint, amount int64) (*models.Investment, *models.Payment) {
	inv := &models.Investment{
		InvestorID: 3,
		CampaignID: campaignID,
		Amount:     decimal.NewFromInt(amount),
		Status:     models.InvestmentStatusPending,
	}
	pay := &models.Payment{
		Gateway:  models.GatewayBkash,
		Amount:   decimal.NewFromInt(amount),
		Currency: models.DefaultCurrency,
		Status:   models.PaymentStatusPending,
	}
	_ = s.CreateInvestmentWithPayment(inv, pay)
	return inv, pay
}

// payments.Ledger

func (s *fakeStore) CreateInvestmentWithPayment(inv *models.Investment, pay *models.Payment) error {
	inv.ID = s.id()
	inv.CreatedAt = time.Now()
	s.investments[inv.ID] = inv

	pay.ID = s.id()
	pay.InvestmentID = &inv.ID
	pay.CreatedAt = time.Now()
	s.payments[pay.ID] = pay
	return nil
}

func (s *fakeStore) GetPayment(id uint) (*models.Payment, error) {
	pay, ok := s.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *pay
	return &cp, nil
}

func (s *fakeStore) GetInvestment(id uint) (*models.Investment, error) {
	inv, ok := s.investments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *fakeStore) GetCampaign(id uint) (*models.Campaign, error) {
	campaign, ok := s.campaigns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *campaign
	return &cp, nil
}

func (s *fakeStore) CreateWebhookEvent(event *models.WebhookEvent) error {
	event.ID = s.id()
	event.ReceivedAt = time.Now()
	s.events[event.ID] = event
	s.eventOrder = append(s.eventOrder, event.ID)
	return nil
}

func (s *fakeStore) MarkWebhookProcessed(id uint, note string) error {
	event, ok := s.events[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	event.Processed = true
	event.ProcessedAt = &now
	event.Note = note
	return nil
}

func (s *fakeStore) MarkWebhookSeen(id uint, note string) error {
	event, ok := s.events[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	event.Note = note
	return nil
}

func (s *fakeStore) ApplyPaymentTransition(in payments.TransitionInput) (*payments.TransitionResult, error) {
	pay, ok := s.payments[in.PaymentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	result := &payments.TransitionResult{}
	if in.GatewayEventID != "" && pay.GatewayEventID == in.GatewayEventID {
		cp := *pay
		result.Payment = &cp
		result.Replay = true
		return result, nil
	}
	if pay.IsTerminal() {
		cp := *pay
		result.Payment = &cp
		if in.GatewayEventID == "" && pay.RawResponse == in.RawPayload {
			result.Replay = true
		} else {
			result.Anomaly = true
		}
		return result, nil
	}

	if in.Success {
		pay.Status = models.PaymentStatusSucceeded
	} else {
		pay.Status = models.PaymentStatusFailed
	}
	if pay.TransactionID == "" {
		pay.TransactionID = in.TransactionID
	}
	if pay.GatewayEventID == "" {
		pay.GatewayEventID = in.GatewayEventID
	}
	pay.RawResponse = in.RawPayload

	if pay.InvestmentID != nil {
		inv := s.investments[*pay.InvestmentID]
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
		invCp := *inv
		result.Investment = &invCp
		result.CampaignID = inv.CampaignID
	}

	payCp := *pay
	result.Payment = &payCp
	return result, nil
}

func (s *fakeStore) CancelPayment(paymentID uint) (*payments.TransitionResult, error) {
	pay, ok := s.payments[paymentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if pay.Status != models.PaymentStatusPending {
		return nil, payments.ErrInvalidState
	}
	pay.Status = models.PaymentStatusCancelled

	result := &payments.TransitionResult{}
	if pay.InvestmentID != nil {
		inv := s.investments[*pay.InvestmentID]
		inv.Status = models.InvestmentStatusRejected
		invCp := *inv
		result.Investment = &invCp
		result.CampaignID = inv.CampaignID
	}
	payCp := *pay
	result.Payment = &payCp
	return result, nil
}

func (s *fakeStore) ListPendingPayments(limit int) ([]models.Payment, error) {
	var pending []models.Payment
	for _, pay := range s.payments {
		if pay.Status == models.PaymentStatusPending {
			pending = append(pending, *pay)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *fakeStore) ListUnprocessedEvents(limit int) ([]models.WebhookEvent, error) {
	var unprocessed []models.WebhookEvent
	for _, id := range s.eventOrder {
		if event := s.events[id]; !event.Processed {
			unprocessed = append(unprocessed, *event)
		}
	}
	if limit > 0 && len(unprocessed) > limit {
		unprocessed = unprocessed[:limit]
	}
	return unprocessed, nil
}

// funding.Repository

func (s *fakeStore) SumApprovedInvestments(campaignID uint) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, inv := range s.investments {
		if inv.CampaignID == campaignID && inv.Status == models.InvestmentStatusApproved {
			total = total.Add(inv.Amount)
		}
	}
	return total, nil
}

func (s *fakeStore) SaveCampaignFunding(campaignID uint, percent decimal.Decimal, funded bool) error {
	campaign, ok := s.campaigns[campaignID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	campaign.PercentRaised = percent
	if funded {
		campaign.IsFunded = true
	}
	return nil
}

// repository.CampaignRepository

func (s *fakeStore) Create(campaign *models.Campaign) error {
	campaign.ID = s.id()
	s.campaigns[campaign.ID] = campaign
	return nil
}

func (s *fakeStore) GetByID(id uint) (*models.Campaign, error) {
	return s.GetCampaign(id)
}

func (s *fakeStore) ListOpen(now time.Time) ([]models.Campaign, error) {
	var open []models.Campaign
	for _, campaign := range s.campaigns {
		if campaign.IsInvestable(now) {
			open = append(open, *campaign)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].ID < open[j].ID })
	return open, nil
}

func (s *fakeStore) ListFunded() ([]models.Campaign, error) {
	var funded []models.Campaign
	for _, campaign := range s.campaigns {
		if campaign.IsFunded {
			funded = append(funded, *campaign)
		}
	}
	sort.Slice(funded, func(i, j int) bool { return funded[i].ID < funded[j].ID })
	return funded, nil
}

func (s *fakeStore) ListByBusiness(businessID uint) ([]models.Campaign, error) {
	var owned []models.Campaign
	for _, campaign := range s.campaigns {
		if campaign.BusinessID == businessID {
			owned = append(owned, *campaign)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })
	return owned, nil
}

// repository.InvestmentRepository

func (s *fakeStore) ListByInvestor(investorID uint) ([]models.Investment, error) {
	var owned []models.Investment
	for _, inv := range s.investments {
		if inv.InvestorID == investorID {
			owned = append(owned, *inv)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })
	return owned, nil
}

func (s *fakeStore) ListByCampaign(campaignID uint) ([]models.Investment, error) {
	var owned []models.Investment
	for _, inv := range s.investments {
		if inv.CampaignID == campaignID {
			owned = append(owned, *inv)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })
	return owned, nil
}

type stubGateway struct{}

func (stubGateway) StartCheckout(_ context.Context, pay *models.Payment) (*payments.Checkout, error) {
	return &payments.Checkout{
		PaymentID:   pay.ID,
		Reference:   "stub-ref",
		CheckoutURL: constants.BkashStartRoute,
	}, nil
}

// newControllerTestApp points the package wiring at the fake store for the
// duration of one test and returns an app whose requests carry the given user
// context. Routes are registered per test, mirroring the router.
func newControllerTestApp(t *testing.T, store *fakeStore, user *usercontext.UserContext) *fiber.App {
	t.Helper()

	prevCampaignRepo := campaignRepo
	prevInvestmentRepo := investmentRepo
	prevPaymentService := paymentService
	t.Cleanup(func() {
		campaignRepo = prevCampaignRepo
		investmentRepo = prevInvestmentRepo
		paymentService = prevPaymentService
	})

	campaignRepo = store
	investmentRepo = store
	paymentService = func() *payments.Service {
		return payments.NewService(store, stubGateway{}, funding.NewAggregator(store), webhookTestSecret)
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals(usercontext.KeyUserContext, *user)
		}
		return c.Next()
	})
	return app
}

func newFormRequest(path, form string) *http.Request {
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(form))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return req
}

func newWebhookRequest(body, signature string) *http.Request {
	req := httptest.NewRequest(fiber.MethodPost, constants.BkashWebhookRoute, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set("X-Bkash-Signature", signature)
	}
	return req
}

func decodeJSONBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
