package rabbit

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchange = "fbp.events"

// Publisher emits booking lifecycle events onto the topic exchange.
// Messages are persistent and carry the outbox dedupe key as MessageId
// so consumers can drop redeliveries.
type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) PublishEvent(ctx context.Context, key, dedupeKey string, payload []byte) error {
	return p.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		MessageId:    dedupeKey,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
