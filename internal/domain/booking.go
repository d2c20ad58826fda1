package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is one reservation on one flight, identified by its PNR.
// Amount is fixed at creation; only Status changes afterwards.
type Booking struct {
	Reference string
	FlightID  string
	Passenger Passenger
	Seats     []string
	Amount    int64
	Status    BookingStatus
	CreatedAt time.Time
}

type Passenger struct {
	FullName string
	Email    string
	Phone    string
}

// CanTransition encodes the booking state machine: PENDING may confirm or
// cancel, CONFIRMED may cancel, CANCELLED is terminal.
func (s BookingStatus) CanTransition(to BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return to == BookingStatusConfirmed || to == BookingStatusCancelled
	case BookingStatusConfirmed:
		return to == BookingStatusCancelled
	default:
		return false
	}
}
