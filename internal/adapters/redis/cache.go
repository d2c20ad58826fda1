package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/domain"
)

const flightsKey = "cache:flights"

// Cache holds the short-lived flight catalog snapshot and backs the rate
// limiter. Seat state is never cached; the inventory is the only
// authority for occupancy.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) GetFlights(ctx context.Context) ([]*domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var flights []*domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *Cache) SetFlights(ctx context.Context, flights []*domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey, payload, c.ttl).Err()
}

// InvalidateFlights drops the catalog snapshot after a seat-state change.
func (c *Cache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx, flightsKey).Err()
}
