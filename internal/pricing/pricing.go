package pricing

import (
	"math"
	"math/rand"
	"time"

	"github.com/robertarktes/flight-bookings-and-pricing/internal/domain"
)

// Jitter returns a market-fluctuation multiplier. Production wiring uses
// MarketJitter; tests swap in a fixed 1.0 so quotes are deterministic.
type Jitter func() float64

func MarketJitter() float64 {
	return 0.97 + rand.Float64()*0.06
}

func FixedJitter(v float64) Jitter {
	return func() float64 { return v }
}

// premiumRoutes are the high-demand origin-destination pairs that carry a
// 10% premium.
var premiumRoutes = map[string]bool{
	"DEL-BOM": true,
	"BOM-DEL": true,
	"BLR-DEL": true,
	"DEL-BLR": true,
}

type Trend string

const (
	TrendHigh     Trend = "high"
	TrendModerate Trend = "moderate"
	TrendStable   Trend = "stable"
	TrendLow      Trend = "low"
)

// Factors is the multiplier breakdown behind a quote, surfaced for
// pricing analysis consumers.
type Factors struct {
	Occupancy float64 `json:"occupancy_factor"`
	Urgency   float64 `json:"time_factor"`
	PeakHour  float64 `json:"peak_hour_factor"`
	Weekend   float64 `json:"weekend_factor"`
	Route     float64 `json:"route_factor"`
}

type Quote struct {
	BasePrice          int64   `json:"base_price"`
	DynamicPrice       int64   `json:"dynamic_price"`
	Trend              Trend   `json:"trend"`
	ChangePercent      float64 `json:"price_change_percent"`
	OccupancyRate      float64 `json:"occupancy_rate"`
	DaysUntilDeparture int     `json:"days_until_departure"`
	Factors            Factors `json:"factors"`
}

type Engine struct {
	jitter Jitter
}

func NewEngine(jitter Jitter) *Engine {
	if jitter == nil {
		jitter = MarketJitter
	}
	return &Engine{jitter: jitter}
}

// PriceQuote computes the per-seat dynamic price for a flight at the given
// occupancy and evaluation time. It reads nothing but its arguments.
func (e *Engine) PriceQuote(f *domain.Flight, occupancy float64, at time.Time) Quote {
	days := DaysUntilDeparture(f.Date, at)

	factors := Factors{
		Occupancy: occupancyFactor(occupancy),
		Urgency:   urgencyFactor(days),
		PeakHour:  peakHourFactor(f.DepTime),
		Weekend:   weekendFactor(f.Date),
		Route:     routeFactor(f.Origin, f.Destination),
	}

	raw := float64(f.BasePrice) * factors.Occupancy * factors.Urgency *
		factors.PeakHour * factors.Weekend * factors.Route
	raw *= e.jitter()

	// Round up to the next multiple of 50, then never drop below 70% of base.
	price := int64(math.Ceil(raw/50)) * 50
	if floor := int64(float64(f.BasePrice) * 0.7); price < floor {
		price = floor
	}
	if price < 0 {
		price = 0
	}

	change := 0.0
	if f.BasePrice > 0 {
		change = (float64(price) - float64(f.BasePrice)) / float64(f.BasePrice) * 100
	}

	return Quote{
		BasePrice:          f.BasePrice,
		DynamicPrice:       price,
		Trend:              PriceTrend(f.BasePrice, price),
		ChangePercent:      math.Round(change*10) / 10,
		OccupancyRate:      occupancy,
		DaysUntilDeparture: days,
		Factors:            factors,
	}
}

// PriceTrend buckets the percent change of dynamic over base price.
func PriceTrend(base, dynamic int64) Trend {
	if base <= 0 {
		return TrendStable
	}
	change := (float64(dynamic) - float64(base)) / float64(base) * 100
	switch {
	case change > 30:
		return TrendHigh
	case change > 10:
		return TrendModerate
	case change > -5:
		return TrendStable
	default:
		return TrendLow
	}
}

// DaysUntilDeparture floors at 0 for same-day or past flights and falls
// back to 30 when the date does not parse.
func DaysUntilDeparture(date string, at time.Time) int {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 30
	}
	days := int(d.Sub(at).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func occupancyFactor(rate float64) float64 {
	switch {
	case rate >= 0.8:
		return 1.6
	case rate >= 0.6:
		return 1.4
	case rate >= 0.4:
		return 1.2
	case rate >= 0.2:
		return 1.1
	default:
		return 0.95
	}
}

func urgencyFactor(days int) float64 {
	switch {
	case days >= 45:
		return 0.75
	case days >= 30:
		return 0.8
	case days >= 21:
		return 0.9
	case days >= 14:
		return 1.0
	case days >= 7:
		return 1.25
	case days >= 3:
		return 1.5
	case days >= 1:
		return 1.75
	default:
		return 2.0
	}
}

func peakHourFactor(depTime string) float64 {
	if len(depTime) < 2 {
		return 1.0
	}
	hour := 0
	for _, c := range depTime {
		if c == ':' {
			break
		}
		if c < '0' || c > '9' {
			return 1.0
		}
		hour = hour*10 + int(c-'0')
	}
	switch {
	case hour >= 6 && hour <= 9, hour >= 18 && hour <= 21:
		return 1.15
	case hour >= 22 || hour <= 5:
		return 0.9
	default:
		return 1.0
	}
}

func weekendFactor(date string) float64 {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 1.0
	}
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return 1.1
	case time.Friday:
		return 1.05
	default:
		return 1.0
	}
}

func routeFactor(origin, destination string) float64 {
	if premiumRoutes[origin+"-"+destination] {
		return 1.1
	}
	return 1.0
}
