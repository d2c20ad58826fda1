package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/adapters/crdb"
	mongoadapter "github.com/robertarktes/flight-bookings-and-pricing/internal/adapters/mongo"
	redisadapter "github.com/robertarktes/flight-bookings-and-pricing/internal/adapters/redis"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/config"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/engine"
	httphandler "github.com/robertarktes/flight-bookings-and-pricing/internal/http"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/idempotency"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/ledger"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/observability"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/pricing"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/rateLimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

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

	var store engine.Store = crdb.NewRepository(pool)

	var (
		rl    *rateLimit.RateLimiter
		idemp *idempotency.Idempotency
	)
	if cfg.RedisAddr != "" {
		redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
		cache := redisadapter.NewCache(redisClient, cfg.FlightsCacheTTL)
		store = redisadapter.NewCachingStore(store, cache)
		rl = rateLimit.NewRateLimiter(cache)
		idemp = idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), time.Hour)
	}

	var catalog *mongoadapter.CatalogRepository
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("failed to connect to mongo: %v", err)
		}
		defer mongoClient.Disconnect(context.Background())
		catalog = mongoadapter.NewCatalogRepository(mongoClient.Database("fbp"), logger)
	}

	eng := engine.New(store, pricing.NewEngine(nil), ledger.New())
	handlers := httphandler.NewHandlers(cfg, eng, idemp, catalog)
	r := httphandler.SetupRouter(handlers, logger, rl)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
