package domain

import "fmt"

// Flight is the catalog record for a single scheduled flight. Seat
// occupancy on it is owned by the inventory package; nothing else may
// mutate BookedSeats.
type Flight struct {
	ID          string
	Airline     string
	Origin      string
	Destination string
	Date        string // YYYY-MM-DD
	DepTime     string // HH:MM
	ArrTime     string
	BasePrice   int64
	Status      string
	Gate        string
	Terminal    string
	SeatRows    int
	SeatCols    int
	BookedSeats []string
	Amenities   []string
}

// seatColumns caps the column letters at Z; no real cabin is wider.
const seatColumns = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func (f *Flight) TotalSeats() int {
	return f.SeatRows * f.SeatCols
}

// ValidSeat reports whether code addresses a seat inside the flight's grid.
// Codes are row-number + column-letter, e.g. "12C".
func (f *Flight) ValidSeat(code string) bool {
	if len(code) < 2 {
		return false
	}
	col := code[len(code)-1]
	if col < 'A' || col >= byte('A'+min(f.SeatCols, len(seatColumns))) {
		return false
	}
	row := 0
	for _, c := range code[:len(code)-1] {
		if c < '0' || c > '9' {
			return false
		}
		row = row*10 + int(c-'0')
	}
	return row >= 1 && row <= f.SeatRows
}

// SeatCode builds the canonical code for a 1-based row and 0-based column.
func SeatCode(row, col int) string {
	return fmt.Sprintf("%d%c", row, seatColumns[col])
}
