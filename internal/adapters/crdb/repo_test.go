package crdb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/adapters/crdb"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/domain"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/engine"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRepo(t *testing.T) *crdb.Repository {
	t.Helper()
	ctx := context.Background()

	crdbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "cockroachdb/cockroach:v24.1.1",
			Cmd:          []string{"start-single-node", "--insecure"},
			ExposedPorts: []string{"26257/tcp"},
			WaitingFor:   wait.ForHTTP("/health?ready=1").WithPort("8080"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { crdbContainer.Terminate(ctx) })

	dsn, err := crdbContainer.Endpoint(ctx, "postgresql")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, dsn+"/fbp?sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		CREATE DATABASE IF NOT EXISTS fbp;
		CREATE TABLE IF NOT EXISTS fbp.flights (
			id TEXT PRIMARY KEY,
			airline TEXT,
			origin TEXT,
			destination TEXT,
			date TEXT,
			dep_time TEXT,
			arr_time TEXT,
			base_price INT8,
			status TEXT,
			gate TEXT,
			terminal TEXT,
			seat_rows INT8,
			seat_cols INT8,
			booked_seats TEXT[],
			amenities TEXT[]
		);
		CREATE TABLE IF NOT EXISTS fbp.bookings (
			reference TEXT PRIMARY KEY,
			flight_id TEXT,
			fullname TEXT,
			email TEXT,
			phone TEXT,
			seats TEXT[],
			amount INT8,
			status TEXT CHECK (status IN ('PENDING', 'CONFIRMED', 'CANCELLED')),
			created_at TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS fbp.outbox (
			id UUID PRIMARY KEY,
			aggregate_type TEXT,
			aggregate_id TEXT,
			event_type TEXT,
			payload_json JSONB,
			created_at TIMESTAMPTZ DEFAULT now(),
			published_at TIMESTAMPTZ,
			status TEXT CHECK (status IN ('NEW', 'PUBLISHED', 'FAILED')),
			dedupe_key TEXT
		);
	`)
	if err != nil {
		t.Fatal(err)
	}

	return crdb.NewRepository(pool)
}

func TestRepository_FlightRoundtrip(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	flight := &domain.Flight{
		ID:          "F1",
		Airline:     "IndiAir",
		Origin:      "BLR",
		Destination: "MAA",
		Date:        "2026-03-10",
		DepTime:     "10:00",
		ArrTime:     "12:30",
		BasePrice:   5000,
		Status:      "On Time",
		Gate:        "12",
		Terminal:    "T1",
		SeatRows:    12,
		SeatCols:    6,
		BookedSeats: []string{"1A", "1B"},
		Amenities:   []string{"wifi", "meals"},
	}
	if err := repo.SaveFlight(ctx, flight); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	fetched, err := repo.LoadFlight(ctx, "F1")
	if err != nil {
		t.Fatal(err)
	}
	if fetched.BasePrice != 5000 || len(fetched.BookedSeats) != 2 || len(fetched.Amenities) != 2 {
		t.Errorf("roundtrip lost fields: %+v", fetched)
	}

	// Upsert updates in place.
	flight.BookedSeats = append(flight.BookedSeats, "2C")
	if err := repo.SaveFlight(ctx, flight); err != nil {
		t.Fatal(err)
	}
	fetched, err = repo.LoadFlight(ctx, "F1")
	if err != nil {
		t.Fatal(err)
	}
	if len(fetched.BookedSeats) != 3 {
		t.Errorf("expected 3 booked seats after upsert, got %v", fetched.BookedSeats)
	}

	if _, err := repo.LoadFlight(ctx, "NOPE"); !errors.Is(err, domain.ErrFlightNotFound) {
		t.Errorf("expected ErrFlightNotFound, got %v", err)
	}
}

func TestRepository_ListFlights(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	flights := []*domain.Flight{
		{ID: "F1", Airline: "IndiAir", Origin: "BLR", Destination: "MAA", Date: "2026-03-10", BasePrice: 5000, SeatRows: 12, SeatCols: 6},
		{ID: "F2", Airline: "IndiAir", Origin: "DEL", Destination: "BOM", Date: "2026-03-10", BasePrice: 9000, SeatRows: 20, SeatCols: 6},
		{ID: "F3", Airline: "SkyJet", Origin: "DEL", Destination: "BOM", Date: "2026-03-11", BasePrice: 8000, SeatRows: 20, SeatCols: 6},
	}
	if err := repo.SeedFlights(ctx, flights); err != nil {
		t.Fatal(err)
	}

	all, err := repo.ListFlights(ctx, engine.FlightFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 flights, got %d", len(all))
	}

	delBom, err := repo.ListFlights(ctx, engine.FlightFilter{Origin: "DEL", Destination: "BOM"})
	if err != nil {
		t.Fatal(err)
	}
	if len(delBom) != 2 {
		t.Errorf("expected 2 DEL-BOM flights, got %d", len(delBom))
	}

	skyJet, err := repo.ListFlights(ctx, engine.FlightFilter{Airline: "SkyJet"})
	if err != nil {
		t.Fatal(err)
	}
	if len(skyJet) != 1 || skyJet[0].ID != "F3" {
		t.Errorf("expected only F3 for SkyJet, got %v", skyJet)
	}
}

func TestRepository_BookingLifecycleWithOutbox(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	booking := &domain.Booking{
		Reference: "F1-AB12",
		FlightID:  "F1",
		Passenger: domain.Passenger{FullName: "Asha Rao", Email: "asha@example.com", Phone: "+91-98000-00000"},
		Seats:     []string{"1A", "1B"},
		Amount:    7600,
		Status:    domain.BookingStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.SaveBooking(ctx, booking); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	fetched, err := repo.LoadBooking(ctx, "F1-AB12")
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Status != domain.BookingStatusPending || fetched.Amount != 7600 || len(fetched.Seats) != 2 {
		t.Errorf("roundtrip lost fields: %+v", fetched)
	}

	booking.Status = domain.BookingStatusConfirmed
	if err := repo.SaveBooking(ctx, booking); err != nil {
		t.Fatal(err)
	}
	fetched, err = repo.LoadBooking(ctx, "F1-AB12")
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected CONFIRMED after upsert, got %s", fetched.Status)
	}

	// Each save staged a lifecycle event.
	records, err := repo.GetUnpublishedOutbox(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 outbox events, got %d", len(records))
	}
	if records[0].EventType != "booking.pending" || records[1].EventType != "booking.confirmed" {
		t.Errorf("unexpected event types: %s, %s", records[0].EventType, records[1].EventType)
	}

	if err := repo.MarkPublished(ctx, records[0].ID, time.Now(), records[0].DedupeKey); err != nil {
		t.Fatal(err)
	}
	records, err = repo.GetUnpublishedOutbox(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 unpublished event after publish, got %d", len(records))
	}

	if _, err := repo.LoadBooking(ctx, "F1-ZZZZ"); !errors.Is(err, domain.ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestRepository_ListBookings(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	base := time.Now().UTC().Add(-2 * time.Hour)
	bookings := []*domain.Booking{
		{Reference: "F1-AAAA", FlightID: "F1", Seats: []string{"1A"}, Amount: 3800, Status: domain.BookingStatusPending, CreatedAt: base},
		{Reference: "F1-BBBB", FlightID: "F1", Seats: []string{"1B"}, Amount: 3800, Status: domain.BookingStatusConfirmed, CreatedAt: base.Add(30 * time.Minute)},
		{Reference: "F2-CCCC", FlightID: "F2", Seats: []string{"2A"}, Amount: 9000, Status: domain.BookingStatusPending, CreatedAt: base.Add(90 * time.Minute)},
	}
	for _, b := range bookings {
		if err := repo.SaveBooking(ctx, b); err != nil {
			t.Fatal(err)
		}
	}

	all, err := repo.ListBookings(ctx, engine.BookingFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 bookings, got %d", len(all))
	}

	f1, err := repo.ListBookings(ctx, engine.BookingFilter{FlightID: "F1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(f1) != 2 {
		t.Errorf("expected 2 bookings on F1, got %d", len(f1))
	}

	stale, err := repo.ListBookings(ctx, engine.BookingFilter{
		Status:        domain.BookingStatusPending,
		CreatedBefore: base.Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 1 || stale[0].Reference != "F1-AAAA" {
		t.Errorf("expected only F1-AAAA stale, got %v", stale)
	}
}
