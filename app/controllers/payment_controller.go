package controllers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/sohojbiniyog/biniyog/app/models"
	"github.com/sohojbiniyog/biniyog/internal/pkg/database"
	"github.com/sohojbiniyog/biniyog/internal/pkg/payments"
	"github.com/sohojbiniyog/biniyog/internal/pkg/usercontext"
)

// HandleBkashStart starts a checkout for a pending payment. With provider
// credentials configured the investor is sent to the bKash checkout URL; in
// sandbox mode a local confirmation page stands in for the gateway.
func HandleBkashStart(c *fiber.Ctx) error {
	paymentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Payment not found")
	}

	checkout, err := paymentService().StartCheckout(c.Context(), uint(paymentID))
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrPaymentNotFound):
			return c.Status(fiber.StatusNotFound).SendString("Payment not found")
		case errors.Is(err, payments.ErrInvalidState):
			return flash.WithError(c, fiber.Map{"type": "error", "message": "This payment can no longer be started."}).
				Redirect("/")
		default:
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to start payment")
		}
	}

	pay, err := payments.NewLedger(database.GetDB()).GetPayment(uint(paymentID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load payment")
	}

	userCtx := usercontext.GetUserContext(c)
	return c.Render("bkash_start", fiber.Map{
		"Title":      "Complete your payment",
		"Payment":    pay,
		"Checkout":   checkout,
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
	}, "layouts/main")
}

// HandleBkashSuccess is the return page after the investor comes back from
// the gateway. The authoritative state change arrives via webhook; this page
// only reflects whatever the ledger currently says.
func HandleBkashSuccess(c *fiber.Ctx) error {
	paymentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Payment not found")
	}

	pay, err := payments.NewLedger(database.GetDB()).GetPayment(uint(paymentID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Payment not found")
		}
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load payment")
	}

	userCtx := usercontext.GetUserContext(c)
	return c.Render("bkash_result", fiber.Map{
		"Title":      "Payment status",
		"Payment":    pay,
		"Settled":    pay.Status == models.PaymentStatusSucceeded,
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
	}, "layouts/main")
}

// HandleBkashCancel cancels a pending payment and rejects the linked
// investment, then sends the investor back to the campaign.
func HandleBkashCancel(c *fiber.Ctx) error {
	paymentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Payment not found")
	}

	svc := paymentService()
	pay, err := svc.CancelPayment(c.Context(), uint(paymentID))
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrPaymentNotFound):
			return c.Status(fiber.StatusNotFound).SendString("Payment not found")
		case errors.Is(err, payments.ErrInvalidState):
			return flash.WithError(c, fiber.Map{"type": "error", "message": "This payment can no longer be cancelled."}).
				Redirect("/")
		default:
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to cancel payment")
		}
	}

	target := "/"
	if pay.InvestmentID != nil {
		if inv, err := payments.NewLedger(database.GetDB()).GetInvestment(*pay.InvestmentID); err == nil {
			target = fmt.Sprintf("/campaigns/%d", inv.CampaignID)
		}
	}
	return flash.WithInfo(c, fiber.Map{"type": "info", "message": "Payment cancelled"}).Redirect(target)
}
