package outbox

import (
	"context"
	"time"

	"github.com/robertarktes/flight-bookings-and-pricing/internal/adapters/crdb"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/adapters/rabbit"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/observability"
)

// Publisher drains NEW outbox rows into the events exchange. Rows that
// fail to publish stay NEW and are retried on the next tick.
type Publisher struct {
	repo      *crdb.Repository
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
}

func NewPublisher(repo *crdb.Repository, rabbitPub *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{repo: repo, rabbitPub: rabbitPub, logger: logger}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			records, err := p.repo.GetUnpublishedOutbox(ctx, 10)
			if err != nil {
				p.logger.Error("fetch outbox", err)
				continue
			}
			for _, rec := range records {
				if err := p.rabbitPub.PublishEvent(ctx, rec.EventType, rec.DedupeKey, rec.Payload); err != nil {
					p.logger.WithField("event", rec.EventType).Error("publish outbox record", err)
					continue
				}
				observability.OutboxLag.Set(time.Since(rec.CreatedAt).Seconds())
				if err := p.repo.MarkPublished(ctx, rec.ID, time.Now(), rec.DedupeKey); err != nil {
					p.logger.Error("mark outbox published", err)
				}
			}
		}
	}
}
