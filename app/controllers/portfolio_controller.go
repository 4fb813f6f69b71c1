package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sujit-baniya/flash"

	"github.com/sohojbiniyog/biniyog/app/models"
	"github.com/sohojbiniyog/biniyog/app/repository"
	"github.com/sohojbiniyog/biniyog/internal/pkg/database"
	"github.com/sohojbiniyog/biniyog/internal/pkg/usercontext"
)

var investmentRepo repository.InvestmentRepository

// InitializePortfolioController wires the investment repository once at router setup.
func InitializePortfolioController() {
	investmentRepo = repository.NewInvestmentRepository(database.GetDB())
}

// HandlePortfolio lists the logged-in investor's investments with their
// approved total.
func HandlePortfolio(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	investments, err := investmentRepo.ListByInvestor(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load investments")
	}

	total := decimal.Zero
	for _, inv := range investments {
		if inv.Status == models.InvestmentStatusApproved {
			total = total.Add(inv.Amount)
		}
	}

	return c.Render("portfolio", fiber.Map{
		"Title":       "My portfolio",
		"Investments": investments,
		"Total":       total.StringFixed(2),
		"IsLoggedIn":  userCtx.IsLoggedIn,
		"Username":    userCtx.Username,
		"Flash":       flash.Get(c),
	}, "layouts/main")
}
