package main

import (
	"context"
	"encoding/json"
	"log"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	mongoadapter "github.com/robertarktes/flight-bookings-and-pricing/internal/adapters/mongo"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/adapters/rabbit"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/config"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/observability"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Consumes booking lifecycle events and writes the audit trail. Mail or
// SMS fan-out would hang off the same queue.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	audit := mongoadapter.NewAuditLogger(mongoClient.Database("fbp"), logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	consumer, err := rabbit.NewConsumer(conn, "notifications.q")
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	logger.Info("notifier started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("notifier stopping")
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			var event map[string]interface{}
			if err := json.Unmarshal(d.Body, &event); err != nil {
				logger.Error("malformed event", err)
				d.Nack(false, false)
				continue
			}
			reference, _ := event["reference"].(string)
			if err := audit.LogEvent(ctx, d.RoutingKey, reference, event); err != nil {
				d.Nack(false, true)
				continue
			}
			d.Ack(false)
		}
	}
}
