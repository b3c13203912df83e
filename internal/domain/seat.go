package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Seat is one of the four table positions in clockwise order.
type Seat int

const (
	North Seat = iota
	East
	South
	West
)

// NumSeats is the number of positions at a bridge table.
const NumSeats = 4

var ErrUnknownSeat = errors.New("unknown seat")

var seatNames = [NumSeats]string{"North", "East", "South", "West"}

// Seats returns the positions in calling order starting from North.
func Seats() [NumSeats]Seat {
	return [NumSeats]Seat{North, East, South, West}
}

// SeatOnTurn returns the seat that makes the call at index historyLength of an
// auction opened by dealer.
func SeatOnTurn(dealer Seat, historyLength int) Seat {
	return Seat((int(dealer) + historyLength) % NumSeats)
}

// Next returns the seat to the left.
func (s Seat) Next() Seat {
	return SeatOnTurn(s, 1)
}

// Partner returns the seat opposite.
func (s Seat) Partner() Seat {
	return SeatOnTurn(s, 2)
}

// SameSide reports whether both seats belong to the same partnership.
func (s Seat) SameSide(other Seat) bool {
	return s%2 == other%2
}

// Valid reports whether s is one of the four table positions.
func (s Seat) Valid() bool {
	return s >= North && s <= West
}

func (s Seat) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Seat(%d)", int(s))
	}
	return seatNames[s]
}

// Short returns the single-letter seat name used on the wire.
func (s Seat) Short() string {
	if !s.Valid() {
		return "?"
	}
	return seatNames[s][:1]
}

// ParseSeat accepts both the single-letter and the full seat name.
func ParseSeat(raw string) (Seat, error) {
	token := strings.TrimSpace(raw)
	for i, name := range seatNames {
		if strings.EqualFold(token, name) || strings.EqualFold(token, name[:1]) {
			return Seat(i), nil
		}
	}
	return North, fmt.Errorf("%w: %q", ErrUnknownSeat, raw)
}
