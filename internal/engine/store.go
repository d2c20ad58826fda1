package engine

import (
	"context"
	"time"

	"github.com/robertarktes/flight-bookings-and-pricing/internal/domain"
)

// Store is the persistence collaborator. Implementations are assumed
// strongly consistent and synchronous; Load* return
// domain.ErrFlightNotFound / domain.ErrBookingNotFound for missing keys
// and Save* upsert.
type Store interface {
	LoadFlight(ctx context.Context, id string) (*domain.Flight, error)
	SaveFlight(ctx context.Context, f *domain.Flight) error
	LoadBooking(ctx context.Context, reference string) (*domain.Booking, error)
	SaveBooking(ctx context.Context, b *domain.Booking) error
	ListFlights(ctx context.Context, filter FlightFilter) ([]*domain.Flight, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]*domain.Booking, error)
}

// FlightFilter narrows ListFlights. Zero values match everything.
// Price bounds are applied by the engine against the dynamic price, not
// by the store.
type FlightFilter struct {
	Origin      string
	Destination string
	Date        string
	Airline     string
	Status      string
}

type BookingFilter struct {
	FlightID      string
	Status        domain.BookingStatus
	CreatedBefore time.Time
}
