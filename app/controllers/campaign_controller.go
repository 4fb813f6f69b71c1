package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/sohojbiniyog/biniyog/internal/pkg/metrics/counter"
	"github.com/sohojbiniyog/biniyog/internal/pkg/payments"
	"github.com/sohojbiniyog/biniyog/internal/pkg/usercontext"
)

// HandleCampaignDetail renders a single campaign with its funding progress.
func HandleCampaignDetail(c *fiber.Ctx) error {
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

	// View counting is best effort; a cache hiccup must not break the page.
	_ = counter.AddCampaignView(campaign.ID)

	return c.Render("campaign_detail", fiber.Map{
		"Title":      campaign.Title,
		"Campaign":   campaign,
		"Investable": campaign.IsInvestable(time.Now()),
		"DaysLeft":   campaign.DaysLeft(time.Now()),
		"IsLoggedIn": userCtx.IsLoggedIn,
		"IsBusiness": usercontext.IsBusiness(c),
		"Username":   userCtx.Username,
		"Flash":      flash.Get(c),
	}, "layouts/main")
}

// HandleInvestForm shows the investment form. Funded or ended campaigns
// redirect back to the detail page instead of showing the form.
func HandleInvestForm(c *fiber.Ctx) error {
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

	if !campaign.IsInvestable(time.Now()) {
		return flash.WithWarn(c, fiber.Map{"type": "warning", "message": "This campaign is no longer accepting investments."}).
			Redirect(fmt.Sprintf("/campaigns/%d", campaign.ID))
	}

	return c.Render("invest", fiber.Map{
		"Title":      "Invest in " + campaign.Title,
		"Campaign":   campaign,
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
		"Flash":      flash.Get(c),
	}, "layouts/main")
}

// HandleInvestSubmit validates the submitted amount and creates the pending
// investment/payment pair, then forwards the investor to the payment start
// page. Validation failures re-render the form with the reason and the
// submitted input.
func HandleInvestSubmit(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	campaignID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Campaign not found")
	}
	amountText := c.FormValue("amount")

	pay, err := paymentService().CreateInvestment(c.Context(), userCtx.UserID, uint(campaignID), amountText)
	if err != nil {
		var vErr *payments.ValidationError
		if errors.As(err, &vErr) {
			campaign, loadErr := campaignRepo.GetByID(uint(campaignID))
			if loadErr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Failed to load campaign")
			}
			return c.Render("invest", fiber.Map{
				"Title":      "Invest in " + campaign.Title,
				"Campaign":   campaign,
				"Error":      vErr.Reason,
				"Amount":     amountText,
				"IsLoggedIn": userCtx.IsLoggedIn,
				"Username":   userCtx.Username,
			}, "layouts/main")
		}
		if errors.Is(err, payments.ErrCampaignNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Campaign not found")
		}
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create investment")
	}

	return c.Redirect(fmt.Sprintf("/payments/bkash/start/%d", pay.ID), fiber.StatusSeeOther)
}
