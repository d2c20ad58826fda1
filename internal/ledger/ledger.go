package ledger

import (
	"math/rand"
	"sync"
	"time"

	"github.com/robertarktes/flight-bookings-and-pricing/internal/domain"
)

const (
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceLength   = 4

	// maxReferenceAttempts bounds the collision-avoidance loop so a
	// saturated reference space fails instead of spinning.
	maxReferenceAttempts = 100
)

// randFn yields values in [0, n); swappable for deterministic tests.
type randFn func(n int) int

// Ledger is the authoritative in-memory set of bookings. Reference
// uniqueness and status transitions are enforced under a single mutex,
// so check-and-insert is one atomic step.
type Ledger struct {
	mu       sync.Mutex
	bookings map[string]*domain.Booking
	randInt  randFn
	now      func() time.Time
}

type Option func(*Ledger)

func WithRand(fn func(n int) int) Option {
	return func(l *Ledger) { l.randInt = fn }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		bookings: make(map[string]*domain.Booking),
		randInt:  rand.Intn,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewReference draws prefix-XXXX codes until one is unused, giving up
// after maxReferenceAttempts.
func (l *Ledger) NewReference(prefix string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref := l.generate(prefix)
		if _, exists := l.bookings[ref]; !exists {
			return ref, nil
		}
	}
	return "", domain.ErrReferenceSpaceExhausted
}

func (l *Ledger) generate(prefix string) string {
	code := make([]byte, referenceLength)
	for i := range code {
		code[i] = referenceAlphabet[l.randInt(len(referenceAlphabet))]
	}
	return prefix + "-" + string(code)
}

// Create inserts a new PENDING booking under reference. The uniqueness
// check and the insert happen under one lock acquisition.
func (l *Ledger) Create(reference, flightID string, passenger domain.Passenger, seats []string, amount int64) (*domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.bookings[reference]; exists {
		return nil, domain.ErrDuplicateReference
	}
	return l.insert(reference, flightID, passenger, seats, amount), nil
}

// NewBooking generates a fresh flightID-XXXX reference and inserts the
// PENDING booking under it in a single lock hold, so two concurrent
// callers can never be issued the same reference. A saturated prefix
// fails with ErrReferenceSpaceExhausted after the retry budget.
func (l *Ledger) NewBooking(flightID string, passenger domain.Passenger, seats []string, amount int64) (*domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref := l.generate(flightID)
		if _, exists := l.bookings[ref]; !exists {
			return l.insert(ref, flightID, passenger, seats, amount), nil
		}
	}
	return nil, domain.ErrReferenceSpaceExhausted
}

// insert assumes l.mu is held and reference is unclaimed.
func (l *Ledger) insert(reference, flightID string, passenger domain.Passenger, seats []string, amount int64) *domain.Booking {
	b := &domain.Booking{
		Reference: reference,
		FlightID:  flightID,
		Passenger: passenger,
		Seats:     append([]string(nil), seats...),
		Amount:    amount,
		Status:    domain.BookingStatusPending,
		CreatedAt: l.now(),
	}
	l.bookings[reference] = b
	return snapshot(b)
}

// Transition moves a booking to newStatus if the state machine allows it
// and returns the updated record.
func (l *Ledger) Transition(reference string, newStatus domain.BookingStatus) (*domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bookings[reference]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if !b.Status.CanTransition(newStatus) {
		return nil, &domain.InvalidTransitionError{From: b.Status, To: newStatus}
	}
	b.Status = newStatus
	return snapshot(b), nil
}

func (l *Ledger) Get(reference string) (*domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bookings[reference]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return snapshot(b), nil
}

// Restore undoes an in-memory transition whose persistence failed,
// putting the booking back from from to to. The rollback only applies
// while the booking still holds from; a status changed by a concurrent
// transition is left alone.
func (l *Ledger) Restore(reference string, from, to domain.BookingStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.bookings[reference]; ok && b.Status == from {
		b.Status = to
	}
}

// Delete removes a booking outright. Only the coordinator's
// release-on-failure rollback uses it; cancellation goes through
// Transition.
func (l *Ledger) Delete(reference string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.bookings, reference)
}

// Sync reconciles the in-memory record with a booking loaded from
// persistent storage. An unknown reference is seeded as-is. A known
// reference adopts the stored status when the in-memory one could still
// legally reach it, so a transition applied by another process wins
// over a stale local record; anything else keeps the in-memory record,
// since the store may lag a transition this process just made.
// Reports whether the adoption cancelled a locally active booking, in
// which case the caller owes the inventory a seat release.
func (l *Ledger) Sync(b *domain.Booking) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, exists := l.bookings[b.Reference]
	if !exists {
		l.bookings[b.Reference] = snapshot(b)
		return false
	}
	if cur.Status == b.Status || !cur.Status.CanTransition(b.Status) {
		return false
	}
	cur.Status = b.Status
	return b.Status == domain.BookingStatusCancelled
}

// StalePending lists PENDING bookings created at or before cutoff.
func (l *Ledger) StalePending(cutoff time.Time) []*domain.Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	var stale []*domain.Booking
	for _, b := range l.bookings {
		if b.Status == domain.BookingStatusPending && !b.CreatedAt.After(cutoff) {
			stale = append(stale, snapshot(b))
		}
	}
	return stale
}

// All returns a snapshot of every booking, optionally filtered by status.
func (l *Ledger) All(status domain.BookingStatus) []*domain.Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*domain.Booking
	for _, b := range l.bookings {
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, snapshot(b))
	}
	return out
}

func snapshot(b *domain.Booking) *domain.Booking {
	cp := *b
	cp.Seats = append([]string(nil), b.Seats...)
	return &cp
}
