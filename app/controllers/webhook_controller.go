package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sohojbiniyog/biniyog/internal/pkg/payments"
)

// HandleBkashWebhook receives asynchronous payment notifications from the
// gateway. Status mapping is deliberately asymmetric: 200 covers both applied
// and safely ignored events so the gateway's redelivery policy only fires on
// failures we actually want redelivered.
func HandleBkashWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("X-Bkash-Signature"))

	outcome, err := paymentService().ProcessWebhook(c.Context(), rawBody, signature)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrBadSignature):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
		case errors.Is(err, payments.ErrMalformedPayload):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		case errors.Is(err, payments.ErrPaymentNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "payment_not_found"})
		default:
			// The audit row is already written and unprocessed; the gateway
			// retries and the sweeper picks up whatever it drops.
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_processing_failed"})
		}
	}

	switch outcome {
	case payments.OutcomeDuplicate:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	case payments.OutcomeAnomaly:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "flagged": true})
	default:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	}
}
