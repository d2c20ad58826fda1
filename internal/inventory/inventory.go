package inventory

import (
	"sync"

	"github.com/robertarktes/flight-bookings-and-pricing/internal/domain"
)

// SeatInventory is the single source of truth for one flight's occupied
// seats. All check-then-mark work happens under its mutex, so a
// multi-seat reservation is all-or-nothing with respect to every other
// reservation or release on the same flight.
type SeatInventory struct {
	mu       sync.Mutex
	rows     int
	cols     int
	occupied map[string]struct{}

	// persistMu serializes snapshot-and-save sequences so a stale
	// occupancy snapshot can never overwrite a newer persisted one.
	persistMu sync.Mutex
}

func New(rows, cols int, occupied []string) *SeatInventory {
	inv := &SeatInventory{
		rows:     rows,
		cols:     cols,
		occupied: make(map[string]struct{}, len(occupied)),
	}
	for _, s := range occupied {
		inv.occupied[s] = struct{}{}
	}
	return inv
}

// TryReserve marks every seat in seats as occupied, or none of them.
// It fails on an empty request, a code outside the grid, or a seat that
// is already taken, naming the offending seat.
func (inv *SeatInventory) TryReserve(seats []string) error {
	if len(seats) == 0 {
		return domain.ErrNoSeatsSelected
	}

	grid := domain.Flight{SeatRows: inv.rows, SeatCols: inv.cols}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	seen := make(map[string]struct{}, len(seats))
	for _, s := range seats {
		if !grid.ValidSeat(s) {
			return &domain.SeatUnavailableError{Seat: s}
		}
		if _, dup := seen[s]; dup {
			return &domain.SeatUnavailableError{Seat: s}
		}
		seen[s] = struct{}{}
		if _, taken := inv.occupied[s]; taken {
			return &domain.SeatUnavailableError{Seat: s}
		}
	}
	for _, s := range seats {
		inv.occupied[s] = struct{}{}
	}
	return nil
}

// Release frees the given seats. Releasing a seat that is not occupied is
// a no-op so cancellation paths can be retried.
func (inv *SeatInventory) Release(seats []string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, s := range seats {
		delete(inv.occupied, s)
	}
}

func (inv *SeatInventory) OccupancyRate() float64 {
	total := inv.rows * inv.cols
	if total == 0 {
		return 0
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return float64(len(inv.occupied)) / float64(total)
}

func (inv *SeatInventory) OccupiedCount() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.occupied)
}

// Occupied returns a snapshot of the occupied seat codes.
func (inv *SeatInventory) Occupied() []string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]string, 0, len(inv.occupied))
	for s := range inv.occupied {
		out = append(out, s)
	}
	return out
}

// PersistOccupied snapshots the occupied seats and hands them to save,
// holding the persist lock across both so concurrent writers for the
// same flight reach the store in snapshot order.
func (inv *SeatInventory) PersistOccupied(save func(occupied []string) error) error {
	inv.persistMu.Lock()
	defer inv.persistMu.Unlock()
	return save(inv.Occupied())
}

// Registry hands out the SeatInventory for a flight. Its own lock guards
// only the map; reservations on different flights never contend.
type Registry struct {
	mu      sync.RWMutex
	flights map[string]*SeatInventory
}

func NewRegistry() *Registry {
	return &Registry{flights: make(map[string]*SeatInventory)}
}

// Get returns the inventory for flightID, seeding it from the flight
// record on first sight.
func (r *Registry) Get(f *domain.Flight) *SeatInventory {
	r.mu.RLock()
	inv, ok := r.flights[f.ID]
	r.mu.RUnlock()
	if ok {
		return inv
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok = r.flights[f.ID]; ok {
		return inv
	}
	inv = New(f.SeatRows, f.SeatCols, f.BookedSeats)
	r.flights[f.ID] = inv
	return inv
}

// Lookup returns the inventory for flightID if one has been seeded.
func (r *Registry) Lookup(flightID string) (*SeatInventory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.flights[flightID]
	return inv, ok
}
