package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/observability"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	if rl != nil {
		r.Use(RateLimitMiddleware(rl))
	}

	r.Post("/v1/bookings", h.CreateBooking)
	r.Get("/v1/bookings", h.ListBookings)
	r.Get("/v1/bookings/{pnr}", h.GetBooking)
	r.Post("/v1/bookings/{pnr}/cancel", h.CancelBooking)
	r.Post("/v1/payments/callback", h.PaymentCallback)
	r.Get("/v1/flights", h.SearchFlights)
	r.Get("/v1/flights/{id}", h.GetFlight)
	r.Get("/v1/flights/{id}/seats", h.GetSeatMap)
	r.Get("/v1/flights/{id}/quote", h.GetQuote)
	r.Get("/v1/pricing/analysis", h.PricingAnalysis)
	r.Get("/v1/stats", h.Stats)
	r.Get("/v1/airports", h.Airports)
	r.Get("/v1/airlines", h.Airlines)
	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
