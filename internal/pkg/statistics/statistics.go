package statistics

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sohojbiniyog/biniyog/app/models"
	"github.com/sohojbiniyog/biniyog/internal/pkg/cache"
	"github.com/sohojbiniyog/biniyog/internal/pkg/database"
)

const (
	CacheKeyCampaignsTotal  = "statistics:campaigns:total"
	CacheKeyCampaignsFunded = "statistics:campaigns:funded"
	CacheKeyInvestedTotal   = "statistics:invested:total"
	CacheExpiration         = 30 * time.Minute
)

// StatisticsData holds the aggregate numbers shown on the landing page.
type StatisticsData struct {
	TotalCampaigns  int
	FundedCampaigns int
	TotalInvested   string
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached aggregates are stale.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached aggregates when stale.
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Failed to update statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// UpdateStatisticsCache recomputes all aggregates and writes them to the cache.
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalCampaigns int64
	if err := db.Model(&models.Campaign{}).Count(&totalCampaigns).Error; err != nil {
		log.Printf("Error counting campaigns: %v", err)
		return err
	}

	var fundedCampaigns int64
	if err := db.Model(&models.Campaign{}).Where("is_funded = ?", true).Count(&fundedCampaigns).Error; err != nil {
		log.Printf("Error counting funded campaigns: %v", err)
		return err
	}

	invested, err := sumApprovedInvestments(db)
	if err != nil {
		log.Printf("Error summing approved investments: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyCampaignsTotal, strconv.FormatInt(totalCampaigns, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyCampaignsFunded, strconv.FormatInt(fundedCampaigns, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyInvestedTotal, invested.StringFixed(2), CacheExpiration); err != nil {
		return err
	}

	log.Printf("Statistics updated in cache: campaigns: %d, funded: %d, invested: %s",
		totalCampaigns, fundedCampaigns, invested.StringFixed(2))

	return nil
}

// GetStatistics returns the landing page aggregates, from cache when possible.
func GetStatistics() StatisticsData {
	return StatisticsData{
		TotalCampaigns:  getCachedCount(CacheKeyCampaignsTotal, countCampaigns),
		FundedCampaigns: getCachedCount(CacheKeyCampaignsFunded, countFundedCampaigns),
		TotalInvested:   getCachedInvested(),
	}
}

func getCachedCount(key string, fallback func() int64) int {
	val, err := cache.Get(key)
	if err != nil {
		count := fallback()
		if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching %s: %v", key, err)
		}
		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return int(count)
}

func getCachedInvested() string {
	val, err := cache.Get(CacheKeyInvestedTotal)
	if err == nil {
		return val
	}

	invested, err := sumApprovedInvestments(database.GetDB())
	if err != nil {
		log.Printf("Error summing approved investments: %v", err)
		return "0.00"
	}
	formatted := invested.StringFixed(2)
	if err := cache.Set(CacheKeyInvestedTotal, formatted, CacheExpiration); err != nil {
		log.Printf("Error caching invested total: %v", err)
	}
	return formatted
}

func countCampaigns() int64 {
	var count int64
	if err := database.GetDB().Model(&models.Campaign{}).Count(&count).Error; err != nil {
		log.Printf("Error counting campaigns: %v", err)
		return 0
	}
	return count
}

func countFundedCampaigns() int64 {
	var count int64
	if err := database.GetDB().Model(&models.Campaign{}).Where("is_funded = ?", true).Count(&count).Error; err != nil {
		log.Printf("Error counting funded campaigns: %v", err)
		return 0
	}
	return count
}

func sumApprovedInvestments(db *gorm.DB) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := db.Model(&models.Investment{}).
		Select("SUM(amount)").
		Where("status = ?", models.InvestmentStatusApproved).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
