package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	mongoadapter "github.com/robertarktes/flight-bookings-and-pricing/internal/adapters/mongo"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/config"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/domain"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/engine"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/idempotency"
	"github.com/robertarktes/flight-bookings-and-pricing/internal/observability"
)

type Handlers struct {
	cfg     *config.Config
	engine  *engine.Engine
	idemp   *idempotency.Idempotency
	catalog *mongoadapter.CatalogRepository
}

func NewHandlers(cfg *config.Config, eng *engine.Engine, idemp *idempotency.Idempotency, catalog *mongoadapter.CatalogRepository) *Handlers {
	return &Handlers{
		cfg:     cfg,
		engine:  eng,
		idemp:   idemp,
		catalog: catalog,
	}
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if h.idemp != nil {
		existing, err := h.idemp.Get(r.Context(), key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if existing != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(existing.Status)
			w.Write(existing.Result)
			return
		}
	}

	var req struct {
		FlightID string   `json:"flight_id"`
		FullName string   `json:"fullname"`
		Email    string   `json:"email"`
		Phone    string   `json:"phone"`
		Seats    []string `json:"seats"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	booking, err := h.engine.CreateBooking(r.Context(), engine.CreateBookingInput{
		FlightID: req.FlightID,
		Passenger: domain.Passenger{
			FullName: req.FullName,
			Email:    req.Email,
			Phone:    req.Phone,
		},
		Seats: req.Seats,
	})
	if err != nil {
		observability.BookingsTotal.WithLabelValues("create", "error").Inc()
		writeEngineError(w, err)
		return
	}
	observability.BookingsTotal.WithLabelValues("create", "ok").Inc()
	observability.SeatsReserved.Add(float64(len(booking.Seats)))

	data, _ := json.Marshal(bookingResponse(booking))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(data)

	if h.idemp != nil {
		h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: data})
	}
}

// PaymentCallback is the opaque external payment signal: SUCCEEDED
// confirms the booking, anything else cancels it.
func (h *Handlers) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reference     string `json:"reference"`
		Status        string `json:"status"`
		TransactionID string `json:"transaction_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		booking *domain.Booking
		err     error
	)
	if req.Status == "SUCCEEDED" {
		booking, err = h.engine.ConfirmBooking(r.Context(), req.Reference)
	} else {
		booking, err = h.engine.CancelBooking(r.Context(), req.Reference)
	}
	if err != nil {
		observability.BookingsTotal.WithLabelValues("confirm", "error").Inc()
		writeEngineError(w, err)
		return
	}
	observability.BookingsTotal.WithLabelValues("confirm", "ok").Inc()

	writeJSON(w, http.StatusOK, bookingResponse(booking))
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "pnr")
	booking, err := h.engine.CancelBooking(r.Context(), reference)
	if err != nil {
		observability.BookingsTotal.WithLabelValues("cancel", "error").Inc()
		writeEngineError(w, err)
		return
	}
	observability.BookingsTotal.WithLabelValues("cancel", "ok").Inc()
	writeJSON(w, http.StatusOK, bookingResponse(booking))
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.engine.GetBooking(r.Context(), chi.URLParam(r, "pnr"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse(booking))
}

func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.engine.ListBookings(r.Context(), engine.BookingFilter{
		FlightID: r.URL.Query().Get("flight_id"),
		Status:   domain.BookingStatus(strings.ToUpper(r.URL.Query().Get("status"))),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": out,
		"total":    len(out),
	})
}

func (h *Handlers) SearchFlights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var maxPrice int64
	if raw := q.Get("max_price"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid max_price", http.StatusBadRequest)
			return
		}
		maxPrice = parsed
	}

	views, err := h.engine.SearchFlights(r.Context(), engine.FlightFilter{
		Origin:      strings.ToUpper(q.Get("origin")),
		Destination: strings.ToUpper(q.Get("destination")),
		Date:        q.Get("date"),
		Airline:     q.Get("airline"),
	}, maxPrice)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	flights := make([]map[string]interface{}, 0, len(views))
	for _, v := range views {
		flights = append(flights, flightResponse(v))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flights":       flights,
		"total_results": len(flights),
	})
}

func (h *Handlers) GetFlight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	flight, err := h.engine.GetFlight(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	quote, err := h.engine.Quote(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flightResponse(engine.FlightView{Flight: flight, Quote: *quote}))
}

func (h *Handlers) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	seatMap, err := h.engine.GetSeatMap(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seatMap)
}

func (h *Handlers) GetQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.engine.Quote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	observability.QuotePrice.Observe(float64(quote.DynamicPrice))
	writeJSON(w, http.StatusOK, quote)
}

func (h *Handlers) PricingAnalysis(w http.ResponseWriter, r *http.Request) {
	views, summary, err := h.engine.PricingAnalysis(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	flights := make([]map[string]interface{}, 0, len(views))
	for _, v := range views {
		flights = append(flights, map[string]interface{}{
			"flight_id":            v.Flight.ID,
			"airline":              v.Flight.Airline,
			"route":                v.Flight.Origin + "-" + v.Flight.Destination,
			"base_price":           v.Quote.BasePrice,
			"dynamic_price":        v.Quote.DynamicPrice,
			"price_change_percent": v.Quote.ChangePercent,
			"trend":                v.Quote.Trend,
			"factors":              v.Quote.Factors,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flights":        flights,
		"market_summary": summary,
	})
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) Airports(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"airports": []interface{}{}})
		return
	}
	airports, err := h.catalog.ListAirports(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"airports": airports, "total": len(airports)})
}

func (h *Handlers) Airlines(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"airlines": []interface{}{}})
		return
	}
	airlines, err := h.catalog.ListAirlines(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"airlines": airlines, "total": len(airlines)})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func bookingResponse(b *domain.Booking) map[string]interface{} {
	return map[string]interface{}{
		"pnr":        b.Reference,
		"flight_id":  b.FlightID,
		"fullname":   b.Passenger.FullName,
		"email":      b.Passenger.Email,
		"phone":      b.Passenger.Phone,
		"seats":      b.Seats,
		"amount":     b.Amount,
		"status":     b.Status,
		"created_at": b.CreatedAt,
	}
}

func flightResponse(v engine.FlightView) map[string]interface{} {
	f := v.Flight
	return map[string]interface{}{
		"id":            f.ID,
		"airline":       f.Airline,
		"origin":        f.Origin,
		"destination":   f.Destination,
		"date":          f.Date,
		"dep_time":      f.DepTime,
		"arr_time":      f.ArrTime,
		"price":         f.BasePrice,
		"dynamic_price": v.Quote.DynamicPrice,
		"price_trend":   v.Quote.Trend,
		"quote":         v.Quote,
		"status":        f.Status,
		"gate":          f.Gate,
		"terminal":      f.Terminal,
		"seats": map[string]interface{}{
			"rows":   f.SeatRows,
			"cols":   f.SeatCols,
			"booked": f.BookedSeats,
		},
		"amenities": f.Amenities,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	var seatErr *domain.SeatUnavailableError
	var transitionErr *domain.InvalidTransitionError
	switch {
	case errors.Is(err, domain.ErrFlightNotFound), errors.Is(err, domain.ErrBookingNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrNoSeatsSelected):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &seatErr), errors.As(err, &transitionErr), errors.Is(err, domain.ErrDuplicateReference):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrReferenceSpaceExhausted), errors.Is(err, domain.ErrSerializationFailure):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
