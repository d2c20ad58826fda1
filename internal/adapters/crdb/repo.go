package crdb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/domain"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/engine"
	"golang.org/x/sync/errgroup"
)

const (
	SerializationFailureCode = "40001"
)

// Repository persists flights and bookings in CockroachDB and implements
// the engine's Store boundary.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == SerializationFailureCode {
			return domain.ErrSerializationFailure
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) LoadFlight(ctx context.Context, id string) (*domain.Flight, error) {
	var f domain.Flight
	err := r.pool.QueryRow(ctx, `
		SELECT id, airline, origin, destination, date, dep_time, arr_time,
		       base_price, status, gate, terminal, seat_rows, seat_cols,
		       booked_seats, amenities
		FROM flights WHERE id = $1
	`, id).Scan(&f.ID, &f.Airline, &f.Origin, &f.Destination, &f.Date,
		&f.DepTime, &f.ArrTime, &f.BasePrice, &f.Status, &f.Gate, &f.Terminal,
		&f.SeatRows, &f.SeatCols, &f.BookedSeats, &f.Amenities)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrFlightNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *Repository) SaveFlight(ctx context.Context, f *domain.Flight) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO flights (id, airline, origin, destination, date, dep_time, arr_time,
		                     base_price, status, gate, terminal, seat_rows, seat_cols,
		                     booked_seats, amenities)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			airline = $2, origin = $3, destination = $4, date = $5,
			dep_time = $6, arr_time = $7, base_price = $8, status = $9,
			gate = $10, terminal = $11, seat_rows = $12, seat_cols = $13,
			booked_seats = $14, amenities = $15
	`, f.ID, f.Airline, f.Origin, f.Destination, f.Date, f.DepTime, f.ArrTime,
		f.BasePrice, f.Status, f.Gate, f.Terminal, f.SeatRows, f.SeatCols,
		f.BookedSeats, f.Amenities)
	return err
}

// SeedFlights bulk-upserts catalog records; the pool serves the upserts
// concurrently.
func (r *Repository) SeedFlights(ctx context.Context, flights []*domain.Flight) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range flights {
		f := f
		g.Go(func() error {
			return r.SaveFlight(gctx, f)
		})
	}
	return g.Wait()
}

func (r *Repository) LoadBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	var b domain.Booking
	err := r.pool.QueryRow(ctx, `
		SELECT reference, flight_id, fullname, email, phone, seats, amount, status, created_at
		FROM bookings WHERE reference = $1
	`, reference).Scan(&b.Reference, &b.FlightID, &b.Passenger.FullName,
		&b.Passenger.Email, &b.Passenger.Phone, &b.Seats, &b.Amount,
		&b.Status, &b.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SaveBooking upserts the booking and records the matching lifecycle
// event in the outbox, in one transaction.
func (r *Repository) SaveBooking(ctx context.Context, b *domain.Booking) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO bookings (reference, flight_id, fullname, email, phone, seats, amount, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (reference) DO UPDATE SET status = $8
		`, b.Reference, b.FlightID, b.Passenger.FullName, b.Passenger.Email,
			b.Passenger.Phone, b.Seats, b.Amount, b.Status, b.CreatedAt)
		if err != nil {
			return err
		}
		return r.insertBookingEvent(ctx, tx, b)
	})
}

func (r *Repository) ListFlights(ctx context.Context, filter engine.FlightFilter) ([]*domain.Flight, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, airline, origin, destination, date, dep_time, arr_time,
		       base_price, status, gate, terminal, seat_rows, seat_cols,
		       booked_seats, amenities
		FROM flights
		WHERE ($1 = '' OR origin = $1)
		  AND ($2 = '' OR destination = $2)
		  AND ($3 = '' OR date = $3)
		  AND ($4 = '' OR airline = $4)
		  AND ($5 = '' OR status = $5)
		ORDER BY id
	`, filter.Origin, filter.Destination, filter.Date, filter.Airline, filter.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flights []*domain.Flight
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.Airline, &f.Origin, &f.Destination, &f.Date,
			&f.DepTime, &f.ArrTime, &f.BasePrice, &f.Status, &f.Gate, &f.Terminal,
			&f.SeatRows, &f.SeatCols, &f.BookedSeats, &f.Amenities); err != nil {
			return nil, err
		}
		flights = append(flights, &f)
	}
	return flights, rows.Err()
}

func (r *Repository) ListBookings(ctx context.Context, filter engine.BookingFilter) ([]*domain.Booking, error) {
	var before interface{}
	if !filter.CreatedBefore.IsZero() {
		before = filter.CreatedBefore
	}
	rows, err := r.pool.Query(ctx, `
		SELECT reference, flight_id, fullname, email, phone, seats, amount, status, created_at
		FROM bookings
		WHERE ($1 = '' OR flight_id = $1)
		  AND ($2 = '' OR status = $2)
		  AND ($3::TIMESTAMPTZ IS NULL OR created_at <= $3)
		ORDER BY created_at
	`, filter.FlightID, string(filter.Status), before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.Reference, &b.FlightID, &b.Passenger.FullName,
			&b.Passenger.Email, &b.Passenger.Phone, &b.Seats, &b.Amount,
			&b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, &b)
	}
	return bookings, rows.Err()
}

var _ engine.Store = (*Repository)(nil)
