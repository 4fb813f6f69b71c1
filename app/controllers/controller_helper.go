package controllers

import (
	"github.com/sohojbiniyog/biniyog/internal/pkg/database"
	"github.com/sohojbiniyog/biniyog/internal/pkg/env"
	"github.com/sohojbiniyog/biniyog/internal/pkg/funding"
	"github.com/sohojbiniyog/biniyog/internal/pkg/payments"
)

// paymentService wires the payment subsystem for one request. The webhook
// signing secret is resolved here and injected, so the pipeline itself never
// touches ambient configuration. Tests swap the variable for a service over
// fake collaborators.
var paymentService = func() *payments.Service {
	db := database.GetDB()
	return payments.NewService(
		payments.NewLedger(db),
		payments.NewBkashClientFromEnv(),
		funding.NewAggregatorFromDB(db),
		env.GetEnv("BKASH_WEBHOOK_SECRET", ""),
	)
}
