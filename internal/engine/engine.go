package engine

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/domain"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/inventory"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/ledger"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/pricing"
)

// Engine is the reservation coordinator: the only write entry point over
// seat inventory, pricing and the booking ledger. It owns no persistent
// state of its own.
type Engine struct {
	store     Store
	inventory *inventory.Registry
	ledger    *ledger.Ledger
	pricer    *pricing.Engine
	now       func() time.Time
}

type Option func(*Engine)

// WithClock fixes the evaluation time used for pricing and booking
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store Store, pricer *pricing.Engine, led *ledger.Ledger, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		inventory: inventory.NewRegistry(),
		ledger:    led,
		pricer:    pricer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type CreateBookingInput struct {
	FlightID  string
	Passenger domain.Passenger
	Seats     []string
}

// CreateBooking reserves the seats, prices them at the post-reservation
// occupancy, and records a PENDING booking under a fresh reference.
// On any failure past the reservation step the seats are released before
// the error is returned; a failed call leaves no trace.
func (e *Engine) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	flight, err := e.store.LoadFlight(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if len(input.Seats) == 0 {
		return nil, domain.ErrNoSeatsSelected
	}

	inv := e.inventory.Get(flight)
	if err := inv.TryReserve(input.Seats); err != nil {
		return nil, err
	}

	// Pricing deliberately sees the occupancy including this very
	// reservation: the quote reflects scarcity at the moment of sale.
	quote := e.pricer.PriceQuote(flight, inv.OccupancyRate(), e.now())

	booking, err := e.ledger.NewBooking(flight.ID, input.Passenger, input.Seats, quote.DynamicPrice*int64(len(input.Seats)))
	if err != nil {
		inv.Release(input.Seats)
		return nil, err
	}

	if err := e.persist(ctx, flight, inv, booking); err != nil {
		e.ledger.Delete(booking.Reference)
		inv.Release(input.Seats)
		return nil, errors.Wrap(err, "persist booking")
	}
	return booking, nil
}

// ConfirmBooking applies the external payment-confirmation signal.
// Seat state does not change; the seats were taken at creation.
func (e *Engine) ConfirmBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	if err := e.hydrateBooking(ctx, reference); err != nil {
		return nil, err
	}
	booking, err := e.ledger.Transition(reference, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	if err := e.store.SaveBooking(ctx, booking); err != nil {
		e.ledger.Restore(reference, domain.BookingStatusConfirmed, domain.BookingStatusPending)
		return nil, errors.Wrap(err, "persist confirmation")
	}
	return booking, nil
}

// CancelBooking transitions to CANCELLED and then releases the booking's
// seats. The transition goes first; the release completes before return,
// so a cancelled booking never leaves seats unavailable to others.
func (e *Engine) CancelBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	if err := e.hydrateBooking(ctx, reference); err != nil {
		return nil, err
	}
	booking, err := e.ledger.Transition(reference, domain.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}

	flight, err := e.store.LoadFlight(ctx, booking.FlightID)
	if err != nil {
		// The cancellation stands even when the flight record is
		// unreachable; free the seats for this process so they are
		// never stranded behind a terminal booking.
		if inv, ok := e.inventory.Lookup(booking.FlightID); ok {
			inv.Release(booking.Seats)
		}
		return nil, err
	}
	inv := e.inventory.Get(flight)
	inv.Release(booking.Seats)

	if err := e.persist(ctx, flight, inv, booking); err != nil {
		return nil, errors.Wrap(err, "persist cancellation")
	}
	return booking, nil
}

// Quote prices one seat on the flight as of now, without reserving
// anything.
func (e *Engine) Quote(ctx context.Context, flightID string) (*pricing.Quote, error) {
	flight, err := e.store.LoadFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	q := e.pricer.PriceQuote(flight, e.inventory.Get(flight).OccupancyRate(), e.now())
	return &q, nil
}

func (e *Engine) GetBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	if err := e.hydrateBooking(ctx, reference); err != nil {
		return nil, err
	}
	return e.ledger.Get(reference)
}

// GetFlight returns the flight with its live occupied-seat snapshot.
func (e *Engine) GetFlight(ctx context.Context, flightID string) (*domain.Flight, error) {
	flight, err := e.store.LoadFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	flight.BookedSeats = e.inventory.Get(flight).Occupied()
	return flight, nil
}

// FlightView pairs a flight with its current quote for search results.
type FlightView struct {
	Flight *domain.Flight
	Quote  pricing.Quote
}

// SearchFlights filters the catalog and prices every match. Price bounds
// apply to the dynamic price.
func (e *Engine) SearchFlights(ctx context.Context, filter FlightFilter, maxPrice int64) ([]FlightView, error) {
	flights, err := e.store.ListFlights(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := e.now()
	views := make([]FlightView, 0, len(flights))
	for _, f := range flights {
		inv := e.inventory.Get(f)
		f.BookedSeats = inv.Occupied()
		q := e.pricer.PriceQuote(f, inv.OccupancyRate(), now)
		if maxPrice > 0 && q.DynamicPrice > maxPrice {
			continue
		}
		views = append(views, FlightView{Flight: f, Quote: q})
	}
	return views, nil
}

func (e *Engine) ListBookings(ctx context.Context, filter BookingFilter) ([]*domain.Booking, error) {
	return e.store.ListBookings(ctx, filter)
}

// SeatMap describes a flight's grid and current occupancy.
type SeatMap struct {
	FlightID  string   `json:"flight_id"`
	Rows      int      `json:"rows"`
	Cols      int      `json:"cols"`
	Booked    []string `json:"booked"`
	Available int      `json:"available"`
	Total     int      `json:"total"`
}

func (e *Engine) GetSeatMap(ctx context.Context, flightID string) (*SeatMap, error) {
	flight, err := e.store.LoadFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	inv := e.inventory.Get(flight)
	booked := inv.Occupied()
	total := flight.TotalSeats()
	return &SeatMap{
		FlightID:  flight.ID,
		Rows:      flight.SeatRows,
		Cols:      flight.SeatCols,
		Booked:    booked,
		Available: total - len(booked),
		Total:     total,
	}, nil
}

// MarketSummary aggregates quote trends across the whole catalog.
type MarketSummary struct {
	TotalFlights       int                   `json:"total_flights"`
	AveragePriceChange float64               `json:"average_price_change"`
	TrendDistribution  map[pricing.Trend]int `json:"trend_distribution"`
	MarketStatus       string                `json:"market_status"`
}

// PricingAnalysis quotes every flight and summarizes the market.
func (e *Engine) PricingAnalysis(ctx context.Context) ([]FlightView, *MarketSummary, error) {
	views, err := e.SearchFlights(ctx, FlightFilter{}, 0)
	if err != nil {
		return nil, nil, err
	}
	summary := &MarketSummary{
		TotalFlights: len(views),
		TrendDistribution: map[pricing.Trend]int{
			pricing.TrendHigh: 0, pricing.TrendModerate: 0,
			pricing.TrendStable: 0, pricing.TrendLow: 0,
		},
	}
	var totalChange float64
	for _, v := range views {
		summary.TrendDistribution[v.Quote.Trend]++
		totalChange += v.Quote.ChangePercent
	}
	if len(views) > 0 {
		summary.AveragePriceChange = totalChange / float64(len(views))
	}
	summary.MarketStatus = "stable_market"
	if summary.TrendDistribution[pricing.TrendHigh] > summary.TrendDistribution[pricing.TrendLow] {
		summary.MarketStatus = "high_demand"
	}
	return views, summary, nil
}

// Stats are totals over the persisted catalog and ledger.
type Stats struct {
	TotalFlights     int                          `json:"total_flights"`
	TotalBookings    int                          `json:"total_bookings"`
	BookingsByStatus map[domain.BookingStatus]int `json:"bookings_by_status"`
	Revenue          int64                        `json:"revenue"`
}

// Stats counts flights and bookings; revenue sums the amounts of
// non-cancelled bookings.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	flights, err := e.store.ListFlights(ctx, FlightFilter{})
	if err != nil {
		return nil, err
	}
	bookings, err := e.store.ListBookings(ctx, BookingFilter{})
	if err != nil {
		return nil, err
	}
	s := &Stats{
		TotalFlights:  len(flights),
		TotalBookings: len(bookings),
		BookingsByStatus: map[domain.BookingStatus]int{
			domain.BookingStatusPending:   0,
			domain.BookingStatusConfirmed: 0,
			domain.BookingStatusCancelled: 0,
		},
	}
	for _, b := range bookings {
		s.BookingsByStatus[b.Status]++
		if b.Status != domain.BookingStatusCancelled {
			s.Revenue += b.Amount
		}
	}
	return s, nil
}

// ExpireStale cancels PENDING bookings older than maxAge and returns the
// ones it cancelled. Bookings that were confirmed or cancelled between
// the listing and the sweep are skipped.
func (e *Engine) ExpireStale(ctx context.Context, maxAge time.Duration) ([]*domain.Booking, error) {
	cutoff := e.now().Add(-maxAge)
	stale, err := e.store.ListBookings(ctx, BookingFilter{
		Status:        domain.BookingStatusPending,
		CreatedBefore: cutoff,
	})
	if err != nil {
		return nil, err
	}
	var expired []*domain.Booking
	for _, b := range stale {
		cancelled, err := e.CancelBooking(ctx, b.Reference)
		if err != nil {
			var invalid *domain.InvalidTransitionError
			if errors.As(err, &invalid) {
				continue
			}
			return expired, err
		}
		expired = append(expired, cancelled)
	}
	return expired, nil
}

// hydrateBooking pulls a persisted booking into the ledger when another
// process created it.
// hydrateBooking reconciles the in-memory record with the stored one
// before a lifecycle decision. The store is the shared authority across
// processes: a status transition another process persisted (an expiry
// worker's cancel, say) is adopted here, with the seats released
// locally, so this process cannot confirm over it.
func (e *Engine) hydrateBooking(ctx context.Context, reference string) error {
	stored, err := e.store.LoadBooking(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			// Known locally but not yet persisted; the in-memory
			// record stays authoritative.
			if _, lerr := e.ledger.Get(reference); lerr == nil {
				return nil
			}
		}
		return err
	}
	if e.ledger.Sync(stored) {
		if inv, ok := e.inventory.Lookup(stored.FlightID); ok {
			inv.Release(stored.Seats)
		}
	}
	return nil
}

// persist writes the flight's occupancy and the booking. The occupancy
// snapshot and its save are serialized per flight, so two interleaved
// bookings cannot store an older snapshot last.
func (e *Engine) persist(ctx context.Context, flight *domain.Flight, inv *inventory.SeatInventory, booking *domain.Booking) error {
	err := inv.PersistOccupied(func(occupied []string) error {
		f := *flight
		f.BookedSeats = occupied
		return e.store.SaveFlight(ctx, &f)
	})
	if err != nil {
		return err
	}
	return e.store.SaveBooking(ctx, booking)
}
