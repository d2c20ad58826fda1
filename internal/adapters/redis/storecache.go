package redis

import (
	"context"

	"github.com/robertarktes/flight-bookings-and-pricing/internal/domain"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/engine"
)

// CachingStore wraps a Store and serves unfiltered flight listings from
// the cache. Any flight write invalidates the snapshot; bookings are
// never cached.
type CachingStore struct {
	engine.Store
	cache *Cache
}

func NewCachingStore(next engine.Store, cache *Cache) *CachingStore {
	return &CachingStore{Store: next, cache: cache}
}

func (s *CachingStore) SaveFlight(ctx context.Context, f *domain.Flight) error {
	if err := s.Store.SaveFlight(ctx, f); err != nil {
		return err
	}
	_ = s.cache.InvalidateFlights(ctx)
	return nil
}

func (s *CachingStore) ListFlights(ctx context.Context, filter engine.FlightFilter) ([]*domain.Flight, error) {
	if filter != (engine.FlightFilter{}) {
		return s.Store.ListFlights(ctx, filter)
	}
	if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
		return cached, nil
	}
	flights, err := s.Store.ListFlights(ctx, filter)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetFlights(ctx, flights)
	return flights, nil
}

var _ engine.Store = (*CachingStore)(nil)
