package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrFlightNotFound          = errors.New("flight not found")
	ErrBookingNotFound         = errors.New("booking not found")
	ErrNoSeatsSelected         = errors.New("no seats selected")
	ErrDuplicateReference      = errors.New("duplicate booking reference")
	ErrReferenceSpaceExhausted = errors.New("booking reference space exhausted")

	// ErrSerializationFailure surfaces a retryable transaction conflict
	// from the persistence layer.
	ErrSerializationFailure = errors.New("serialization failure")
)

// SeatUnavailableError names the first seat that blocked a reservation,
// either because it is outside the grid or already occupied.
type SeatUnavailableError struct {
	Seat string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seat %s unavailable", e.Seat)
}

type InvalidTransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid booking status transition %s -> %s", e.From, e.To)
}
