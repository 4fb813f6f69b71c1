package repository

import (
	"time"

	"github.com/sohojbiniyog/biniyog/app/models"
	"gorm.io/gorm"
)

// campaignRepository implements the CampaignRepository interface
type campaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository creates a new campaign repository instance
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

// Create creates a new campaign in the database
func (r *campaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

// GetByID retrieves a campaign by its ID
func (r *campaignRepository) GetByID(id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.First(&campaign, id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ListOpen returns campaigns that are still accepting investments, newest first.
func (r *campaignRepository) ListOpen(now time.Time) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	err := r.db.
		Where("is_funded = ? AND end_date >= ?", false, today).
		Order("created_at DESC").
		Find(&campaigns).Error
	return campaigns, err
}

// ListFunded returns fully funded campaigns, newest first.
func (r *campaignRepository) ListFunded() ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.Where("is_funded = ?", true).Order("created_at DESC").Find(&campaigns).Error
	return campaigns, err
}

// ListByBusiness returns all campaigns owned by a business.
func (r *campaignRepository) ListByBusiness(businessID uint) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.Where("business_id = ?", businessID).Order("created_at DESC").Find(&campaigns).Error
	return campaigns, err
}
