package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/adapters/crdb"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/config"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/engine"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/ledger"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/observability"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/pricing"
)

// Sweeps bookings left PENDING past the confirmation window: cancels
// them and releases their seats.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to crdb: %v", err)
	}
	defer pool.Close()

	eng := engine.New(crdb.NewRepository(pool), pricing.NewEngine(nil), ledger.New())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	logger.WithField("interval", cfg.SweepInterval.String()).Info("expiry worker started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("expiry worker stopping")
			return
		case <-ticker.C:
			expired, err := eng.ExpireStale(ctx, cfg.PendingTTL)
			if err != nil {
				logger.Error("expiry sweep failed", err)
				continue
			}
			for _, b := range expired {
				logger.WithField("pnr", b.Reference).Info("expired pending booking")
			}
		}
	}
}
