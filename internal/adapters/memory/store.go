package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/robertarktes/flight-bookings-and-pricing/internal/domain"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/engine"
)

// Store keeps flights and bookings in process memory. It backs the
// engine in tests and in single-node deployments without a database.
type Store struct {
	mu       sync.RWMutex
	flights  map[string]*domain.Flight
	bookings map[string]*domain.Booking
}

func NewStore() *Store {
	return &Store{
		flights:  make(map[string]*domain.Flight),
		bookings: make(map[string]*domain.Booking),
	}
}

func (s *Store) LoadFlight(ctx context.Context, id string) (*domain.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flights[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	return copyFlight(f), nil
}

func (s *Store) SaveFlight(ctx context.Context, f *domain.Flight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flights[f.ID] = copyFlight(f)
	return nil
}

func (s *Store) LoadBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[reference]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return copyBooking(b), nil
}

func (s *Store) SaveBooking(ctx context.Context, b *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.Reference] = copyBooking(b)
	return nil
}

func (s *Store) ListFlights(ctx context.Context, filter engine.FlightFilter) ([]*domain.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Flight
	for _, f := range s.flights {
		if filter.Origin != "" && f.Origin != filter.Origin {
			continue
		}
		if filter.Destination != "" && f.Destination != filter.Destination {
			continue
		}
		if filter.Date != "" && f.Date != filter.Date {
			continue
		}
		if filter.Airline != "" && f.Airline != filter.Airline {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		out = append(out, copyFlight(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListBookings(ctx context.Context, filter engine.BookingFilter) ([]*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Booking
	for _, b := range s.bookings {
		if filter.FlightID != "" && b.FlightID != filter.FlightID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if !filter.CreatedBefore.IsZero() && b.CreatedAt.After(filter.CreatedBefore) {
			continue
		}
		out = append(out, copyBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, nil
}

func copyFlight(f *domain.Flight) *domain.Flight {
	cp := *f
	cp.BookedSeats = append([]string(nil), f.BookedSeats...)
	cp.Amenities = append([]string(nil), f.Amenities...)
	return &cp
}

func copyBooking(b *domain.Booking) *domain.Booking {
	cp := *b
	cp.Seats = append([]string(nil), b.Seats...)
	return &cp
}

var _ engine.Store = (*Store)(nil)
