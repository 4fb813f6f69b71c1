package funding

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/sohojbiniyog/biniyog/app/models"
	"github.com/sohojbiniyog/biniyog/internal/pkg/cache"
	"gorm.io/gorm"
)

var oneHundred = decimal.NewFromInt(100)

// Repository provides the DB operations the aggregator needs.
type Repository interface {
	GetCampaign(id uint) (*models.Campaign, error)
	SumApprovedInvestments(campaignID uint) (decimal.Decimal, error)
	SaveCampaignFunding(campaignID uint, percent decimal.Decimal, funded bool) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a funding repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetCampaign(id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.db.First(&campaign, id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *gormRepository) SumApprovedInvestments(campaignID uint) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.Model(&models.Investment{}).
		Select("SUM(amount)").
		Where("campaign_id = ? AND status = ?", campaignID, models.InvestmentStatusApproved).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *gormRepository) SaveCampaignFunding(campaignID uint, percent decimal.Decimal, funded bool) error {
	updates := map[string]interface{}{"percent_raised": percent}
	if funded {
		updates["is_funded"] = true
	}
	return r.db.Model(&models.Campaign{}).Where("id = ?", campaignID).Updates(updates).Error
}

// Aggregator derives campaign funding state from approved investments. It runs
// synchronously after every investment mutation; a missed recompute is
// self-healing on the next one, so Recompute logs instead of propagating.
type Aggregator struct {
	repo Repository
}

// NewAggregator creates an aggregator from an injected repository.
func NewAggregator(repo Repository) *Aggregator {
	return &Aggregator{repo: repo}
}

// NewAggregatorFromDB creates an aggregator from a GORM DB handle.
func NewAggregatorFromDB(db *gorm.DB) *Aggregator {
	return NewAggregator(NewRepository(db))
}

// Recompute recalculates percent_raised for the campaign and latches is_funded
// once the percentage reaches 100. The latch is one-way: a recompute that drops
// below 100 never unsets it.
func (a *Aggregator) Recompute(campaignID uint) {
	if err := a.recompute(campaignID); err != nil {
		log.Printf("funding recompute for campaign %d failed: %v", campaignID, err)
	}
}

func (a *Aggregator) recompute(campaignID uint) error {
	campaign, err := a.repo.GetCampaign(campaignID)
	if err != nil {
		return err
	}

	raised, err := a.repo.SumApprovedInvestments(campaignID)
	if err != nil {
		return err
	}

	percent := PercentRaised(raised, campaign.TargetAmount)
	funded := !campaign.IsFunded && percent.GreaterThanOrEqual(oneHundred)

	if err := a.repo.SaveCampaignFunding(campaignID, percent, funded); err != nil {
		return err
	}

	cache.Delete(statsCacheKey(campaignID))
	return nil
}

// PercentRaised computes raised/target*100 as an exact decimal, clamped to
// [0, 100] and quantized to two places.
func PercentRaised(raised, target decimal.Decimal) decimal.Decimal {
	if target.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	percent := raised.Div(target).Mul(oneHundred)
	if percent.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if percent.GreaterThanOrEqual(oneHundred) {
		return oneHundred
	}
	return percent.Round(2)
}

func statsCacheKey(campaignID uint) string {
	return fmt.Sprintf("campaign:funding:%d", campaignID)
}
