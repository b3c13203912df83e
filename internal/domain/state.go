package domain

// Phase represents the lifecycle stage of a board at the table.
type Phase string

const (
	// PhaseBidding is the active auction.
	PhaseBidding Phase = "bidding"
	// PhaseComplete is the state after the auction closed.
	PhaseComplete Phase = "complete"
)

// Board is one deal: its number, the dealt hands and the auction conditions.
type Board struct {
	Number        int
	Dealer        Seat
	Vulnerability Vulnerability
	Hands         Hands
}

// Game holds authoritative state for one board being bid at a table.
type Game struct {
	ID    string
	Phase Phase
	Board Board

	Seats [NumSeats]string // index is Seat => userId

	Auction  Auction
	Contract *Contract // set once the auction completes with a contract
}

// SeatOf returns the seat occupied by userID.
func (g *Game) SeatOf(userID string) (Seat, bool) {
	for i, uid := range g.Seats {
		if uid != "" && uid == userID {
			return Seat(i), true
		}
	}
	return North, false
}

// CurrentTurn returns the seat due to call.
func (g *Game) CurrentTurn() Seat {
	return g.Auction.SeatOnTurn()
}
