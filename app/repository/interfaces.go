package repository

import (
	"time"

	"github.com/sohojbiniyog/biniyog/app/models"
)

// CampaignRepository defines the interface for campaign-related database
// operations used by the page controllers. Funding state is written by the
// funding aggregator, never through this interface.
type CampaignRepository interface {
	Create(campaign *models.Campaign) error
	GetByID(id uint) (*models.Campaign, error)
	ListOpen(now time.Time) ([]models.Campaign, error)
	ListFunded() ([]models.Campaign, error)
	ListByBusiness(businessID uint) ([]models.Campaign, error)
}

// InvestmentRepository defines read access to investments for portfolio-style
// views. Mutation goes through the payments ledger exclusively.
type InvestmentRepository interface {
	ListByInvestor(investorID uint) ([]models.Investment, error)
	ListByCampaign(campaignID uint) ([]models.Investment, error)
}
