package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbp_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbp_bookings_total",
			Help: "Booking lifecycle operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	SeatsReserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fbp_seats_reserved_total",
			Help: "Seats successfully reserved",
		},
	)

	QuotePrice = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fbp_quote_price",
			Help:    "Dynamic per-seat prices quoted",
			Buckets: prometheus.ExponentialBuckets(500, 2, 10),
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fbp_outbox_lag_seconds",
			Help: "Lag of outbox publishing",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fbp_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)
