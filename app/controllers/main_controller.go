package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/sohojbiniyog/biniyog/app/repository"
	"github.com/sohojbiniyog/biniyog/internal/pkg/database"
	"github.com/sohojbiniyog/biniyog/internal/pkg/statistics"
	"github.com/sohojbiniyog/biniyog/internal/pkg/usercontext"
)

var campaignRepo repository.CampaignRepository

// InitializeMainController wires the campaign repository once at router setup.
func InitializeMainController() {
	campaignRepo = repository.NewCampaignRepository(database.GetDB())
}

// HandleHome renders the landing page with open campaigns.
func HandleHome(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	campaigns, err := campaignRepo.ListOpen(time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load campaigns")
	}

	statistics.UpdateCacheIfNeeded()

	return c.Render("home", fiber.Map{
		"Title":      "SohojBiniyog",
		"Campaigns":  campaigns,
		"Stats":      statistics.GetStatistics(),
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
		"Flash":      flash.Get(c),
	}, "layouts/main")
}

// HandleFunded renders the list of fully funded campaigns.
func HandleFunded(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	campaigns, err := campaignRepo.ListFunded()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load campaigns")
	}

	return c.Render("funded", fiber.Map{
		"Title":      "Funded campaigns",
		"Campaigns":  campaigns,
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
		"Flash":      flash.Get(c),
	}, "layouts/main")
}
