package repository

import (
	"github.com/sohojbiniyog/biniyog/app/models"
	"gorm.io/gorm"
)

// investmentRepository implements the InvestmentRepository interface
type investmentRepository struct {
	db *gorm.DB
}

// NewInvestmentRepository creates a new investment repository instance
func NewInvestmentRepository(db *gorm.DB) InvestmentRepository {
	return &investmentRepository{db: db}
}

// ListByInvestor returns an investor's investments, newest first.
func (r *investmentRepository) ListByInvestor(investorID uint) ([]models.Investment, error) {
	var investments []models.Investment
	err := r.db.Where("investor_id = ?", investorID).Order("created_at DESC").Find(&investments).Error
	return investments, err
}

// ListByCampaign returns all investments in a campaign, newest first.
func (r *investmentRepository) ListByCampaign(campaignID uint) ([]models.Investment, error) {
	var investments []models.Investment
	err := r.db.Where("campaign_id = ?", campaignID).Order("created_at DESC").Find(&investments).Error
	return investments, err
}
