package pricing_test

import (
	"testing"
	"time"

	"github.com/robertarktes/flight-bookings-and-pricing/internal/domain"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/pricing"
)

var evalTime = time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)

func testFlight() *domain.Flight {
	return &domain.Flight{
		ID:          "F1",
		Airline:     "IndiAir",
		Origin:      "BLR",
		Destination: "MAA",
		Date:        "2026-03-10", // a Tuesday, 40 days from evalTime
		DepTime:     "10:00",
		ArrTime:     "12:30",
		BasePrice:   5000,
		SeatRows:    12,
		SeatCols:    6,
	}
}

func TestPriceQuote_EarlyBirdEmptyFlight(t *testing.T) {
	eng := pricing.NewEngine(pricing.FixedJitter(1.0))

	q := eng.PriceQuote(testFlight(), 0, evalTime)

	if q.Factors.Occupancy != 0.95 {
		t.Errorf("occupancy factor = %v, want 0.95", q.Factors.Occupancy)
	}
	if q.Factors.Urgency != 0.8 {
		t.Errorf("urgency factor = %v, want 0.8", q.Factors.Urgency)
	}
	if q.Factors.PeakHour != 1.0 || q.Factors.Weekend != 1.0 || q.Factors.Route != 1.0 {
		t.Errorf("expected neutral peak/weekend/route factors, got %+v", q.Factors)
	}
	if q.DaysUntilDeparture != 40 {
		t.Errorf("days until departure = %d, want 40", q.DaysUntilDeparture)
	}
	// 5000 * 0.95 * 0.8 = 3800, already a multiple of 50
	if q.DynamicPrice != 3800 {
		t.Errorf("dynamic price = %d, want 3800", q.DynamicPrice)
	}
	if q.Trend != pricing.TrendLow {
		t.Errorf("trend = %s, want low", q.Trend)
	}
}

func TestPriceQuote_JitterStaysWithinBand(t *testing.T) {
	eng := pricing.NewEngine(nil)
	f := testFlight()

	for i := 0; i < 200; i++ {
		q := eng.PriceQuote(f, 0, evalTime)
		if q.DynamicPrice%50 != 0 {
			t.Fatalf("price %d is not a multiple of 50", q.DynamicPrice)
		}
		// raw 3800 with ±3% jitter, rounded up to 50
		if q.DynamicPrice < 3700 || q.DynamicPrice > 3950 {
			t.Fatalf("price %d outside jitter band", q.DynamicPrice)
		}
	}
}

func TestPriceQuote_FloorAtSeventyPercentOfBase(t *testing.T) {
	eng := pricing.NewEngine(pricing.FixedJitter(0.97))
	f := testFlight()
	f.Date = "2026-04-30" // 91 days out: urgency 0.75
	f.DepTime = "23:30"   // red-eye: 0.9

	q := eng.PriceQuote(f, 0, evalTime)

	// 5000*0.95*0.75*0.9*0.97 = 3109.8 -> 3150, below floor 3500
	if q.DynamicPrice != 3500 {
		t.Errorf("dynamic price = %d, want floor 3500", q.DynamicPrice)
	}
}

func TestPriceQuote_OccupancyTiers(t *testing.T) {
	eng := pricing.NewEngine(pricing.FixedJitter(1.0))
	cases := []struct {
		occupancy float64
		factor    float64
	}{
		{0.0, 0.95},
		{0.19, 0.95},
		{0.2, 1.1},
		{0.4, 1.2},
		{0.6, 1.4},
		{0.8, 1.6},
		{1.0, 1.6},
	}
	for _, c := range cases {
		q := eng.PriceQuote(testFlight(), c.occupancy, evalTime)
		if q.Factors.Occupancy != c.factor {
			t.Errorf("occupancy %v: factor = %v, want %v", c.occupancy, q.Factors.Occupancy, c.factor)
		}
	}
}

func TestPriceQuote_UrgencyTiers(t *testing.T) {
	eng := pricing.NewEngine(pricing.FixedJitter(1.0))
	cases := []struct {
		date   string
		days   int
		factor float64
	}{
		{"2026-03-15", 45, 0.75},
		{"2026-02-28", 30, 0.8},
		{"2026-02-19", 21, 0.9},
		{"2026-02-12", 14, 1.0},
		{"2026-02-05", 7, 1.25},
		{"2026-02-01", 3, 1.5},
		{"2026-01-30", 1, 1.75},
		{"2026-01-29", 0, 2.0},
		{"2026-01-01", 0, 2.0}, // past flight floors at 0 days
	}
	for _, c := range cases {
		f := testFlight()
		f.Date = c.date
		q := eng.PriceQuote(f, 0, evalTime)
		if q.DaysUntilDeparture != c.days {
			t.Errorf("date %s: days = %d, want %d", c.date, q.DaysUntilDeparture, c.days)
		}
		if q.Factors.Urgency != c.factor {
			t.Errorf("date %s: urgency = %v, want %v", c.date, q.Factors.Urgency, c.factor)
		}
	}
}

func TestPriceQuote_UnparsableDateDefaultsTo30Days(t *testing.T) {
	eng := pricing.NewEngine(pricing.FixedJitter(1.0))
	f := testFlight()
	f.Date = "soon"

	q := eng.PriceQuote(f, 0, evalTime)

	if q.DaysUntilDeparture != 30 {
		t.Errorf("days = %d, want default 30", q.DaysUntilDeparture)
	}
	if q.Factors.Urgency != 0.8 {
		t.Errorf("urgency = %v, want 0.8", q.Factors.Urgency)
	}
}

func TestPriceQuote_PeakHourTiers(t *testing.T) {
	eng := pricing.NewEngine(pricing.FixedJitter(1.0))
	cases := []struct {
		depTime string
		factor  float64
	}{
		{"06:00", 1.15},
		{"09:45", 1.15},
		{"18:30", 1.15},
		{"21:10", 1.15},
		{"22:00", 0.9},
		{"02:15", 0.9},
		{"05:59", 0.9},
		{"12:00", 1.0},
		{"", 1.0},
	}
	for _, c := range cases {
		f := testFlight()
		f.DepTime = c.depTime
		q := eng.PriceQuote(f, 0, evalTime)
		if q.Factors.PeakHour != c.factor {
			t.Errorf("dep %q: peak factor = %v, want %v", c.depTime, q.Factors.PeakHour, c.factor)
		}
	}
}

func TestPriceQuote_WeekendAndRouteFactors(t *testing.T) {
	eng := pricing.NewEngine(pricing.FixedJitter(1.0))

	f := testFlight()
	f.Date = "2026-03-14" // Saturday
	if q := eng.PriceQuote(f, 0, evalTime); q.Factors.Weekend != 1.1 {
		t.Errorf("saturday weekend factor = %v, want 1.1", q.Factors.Weekend)
	}
	f.Date = "2026-03-13" // Friday
	if q := eng.PriceQuote(f, 0, evalTime); q.Factors.Weekend != 1.05 {
		t.Errorf("friday weekend factor = %v, want 1.05", q.Factors.Weekend)
	}

	f = testFlight()
	f.Origin, f.Destination = "DEL", "BOM"
	if q := eng.PriceQuote(f, 0, evalTime); q.Factors.Route != 1.1 {
		t.Errorf("DEL-BOM route factor = %v, want 1.1", q.Factors.Route)
	}
	f.Origin, f.Destination = "BOM", "BLR"
	if q := eng.PriceQuote(f, 0, evalTime); q.Factors.Route != 1.0 {
		t.Errorf("BOM-BLR route factor = %v, want 1.0", q.Factors.Route)
	}
}

func TestPriceTrend(t *testing.T) {
	cases := []struct {
		base, dynamic int64
		want          pricing.Trend
	}{
		{1000, 1350, pricing.TrendHigh},
		{1000, 1150, pricing.TrendModerate},
		{1000, 1000, pricing.TrendStable},
		{1000, 960, pricing.TrendStable},
		{1000, 700, pricing.TrendLow},
	}
	for _, c := range cases {
		if got := pricing.PriceTrend(c.base, c.dynamic); got != c.want {
			t.Errorf("trend(%d, %d) = %s, want %s", c.base, c.dynamic, got, c.want)
		}
	}
}
