package main

import (
	"flag"
	"log"
	"time"

	"github.com/sohojbiniyog/biniyog/internal/pkg/cache"
	"github.com/sohojbiniyog/biniyog/internal/pkg/database"
	"github.com/sohojbiniyog/biniyog/internal/pkg/env"
	"github.com/sohojbiniyog/biniyog/internal/pkg/funding"
	"github.com/sohojbiniyog/biniyog/internal/pkg/metrics/counter"
	"github.com/sohojbiniyog/biniyog/internal/pkg/payments"
)

// The sweeper is the self-healing path against lost webhook deliveries. It is
// fully idempotent, so running it from cron every minute or as a long-lived
// loop are both fine.
func main() {
	interval := flag.Duration("interval", 0, "run continuously with this interval (run once when 0)")
	flag.Parse()

	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	ledger := payments.NewLedger(db)
	service := payments.NewService(
		ledger,
		payments.NewBkashClientFromEnv(),
		funding.NewAggregatorFromDB(db),
		env.GetEnv("BKASH_WEBHOOK_SECRET", ""),
	)
	sweeper := payments.NewSweeper(ledger, service)

	run := func() {
		paymentsSettled, eventsSettled := sweeper.Run()
		log.Printf("sweep complete: %d payments reconciled, %d webhook events reprocessed",
			paymentsSettled, eventsSettled)
		if err := counter.FlushAll(); err != nil {
			log.Printf("flushing campaign view counters failed: %v", err)
		}
	}

	run()
	if *interval <= 0 {
		return
	}
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for range ticker.C {
		run()
	}
}
