package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/sohojbiniyog/biniyog/app/models"
	"github.com/sohojbiniyog/biniyog/internal/pkg/constants"
	"github.com/sohojbiniyog/biniyog/internal/pkg/usercontext"
)

// HandleDashboard lists the business owner's campaigns.
func HandleDashboard(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	campaigns, err := campaignRepo.ListByBusiness(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load campaigns")
	}

	return c.Render("dashboard", fiber.Map{
		"Title":      "My campaigns",
		"Campaigns":  campaigns,
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
		"Flash":      flash.Get(c),
	}, "layouts/main")
}

// HandleCampaignNewForm shows the campaign creation form.
func HandleCampaignNewForm(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	return c.Render("campaign_form", fiber.Map{
		"Title":      "New campaign",
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
		"Flash":      flash.Get(c),
	}, "layouts/main")
}

// HandleCampaignCreate validates the submitted campaign and creates it.
// Invalid input redirects back to the form with the reason flashed.
func HandleCampaignCreate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	campaign, reason := campaignFromForm(c, userCtx.UserID)
	if reason != "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": reason}).
			Redirect(constants.DashboardRoute + "/campaigns/new")
	}

	if err := campaignRepo.Create(campaign); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create campaign")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Campaign created"}).
		Redirect(constants.DashboardRoute)
}

// HandleCampaignInvestments lists the investments in one of the owner's
// campaigns. Campaigns owned by someone else are reported as not found.
func HandleCampaignInvestments(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	campaignID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Campaign not found")
	}

	campaign, err := campaignRepo.GetByID(uint(campaignID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Campaign not found")
		}
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load campaign")
	}
	if campaign.BusinessID != userCtx.UserID {
		return c.Status(fiber.StatusNotFound).SendString("Campaign not found")
	}

	investments, err := investmentRepo.ListByCampaign(campaign.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load investments")
	}

	approved := decimal.Zero
	for _, inv := range investments {
		if inv.Status == models.InvestmentStatusApproved {
			approved = approved.Add(inv.Amount)
		}
	}

	return c.Render("campaign_investments", fiber.Map{
		"Title":       campaign.Title,
		"Campaign":    campaign,
		"Investments": investments,
		"Approved":    approved.StringFixed(2),
		"IsLoggedIn":  userCtx.IsLoggedIn,
		"Username":    userCtx.Username,
		"Flash":       flash.Get(c),
	}, "layouts/main")
}

// campaignFromForm builds a campaign from the submitted form. The second
// return value carries the user-facing reason when the input is unusable.
func campaignFromForm(c *fiber.Ctx, businessID uint) (*models.Campaign, string) {
	target, err := decimal.NewFromString(c.FormValue("target_amount"))
	if err != nil || target.LessThanOrEqual(decimal.Zero) {
		return nil, "Please enter a valid target amount."
	}

	minInvestment := decimal.NewFromInt(3000)
	if raw := c.FormValue("min_investment"); raw != "" {
		minInvestment, err = decimal.NewFromString(raw)
		if err != nil || minInvestment.LessThanOrEqual(decimal.Zero) {
			return nil, "Please enter a valid minimum investment."
		}
	}

	startDate, err := time.Parse("2006-01-02", c.FormValue("start_date"))
	if err != nil {
		return nil, "Please enter a valid start date."
	}
	endDate, err := time.Parse("2006-01-02", c.FormValue("end_date"))
	if err != nil {
		return nil, "Please enter a valid end date."
	}
	if endDate.Before(startDate) {
		return nil, "The end date must not be before the start date."
	}

	riskGrade := c.FormValue("risk_grade")
	if riskGrade == "" {
		riskGrade = models.RiskGradeMedium
	}

	campaign := &models.Campaign{
		BusinessID:    businessID,
		Title:         c.FormValue("title"),
		Description:   c.FormValue("description"),
		TargetAmount:  target,
		MinInvestment: minInvestment,
		StartDate:     startDate,
		EndDate:       endDate,
		RiskGrade:     riskGrade,
	}
	if err := campaign.Validate(); err != nil {
		return nil, fmt.Sprintf("Please check your input: %v", err)
	}
	return campaign, ""
}
