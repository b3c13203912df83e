package domain

import "fmt"

// Penalty is the doubling state of the final contract.
type Penalty int

const (
	Undoubled Penalty = iota
	Doubled
	Redoubled
)

func (p Penalty) String() string {
	switch p {
	case Doubled:
		return "X"
	case Redoubled:
		return "XX"
	default:
		return ""
	}
}

// Contract is the outcome of a completed auction that was not passed out.
type Contract struct {
	Bid      Bid
	Declarer Seat
	Penalty  Penalty
}

// String renders the contract as e.g. "4SX by North".
func (c Contract) String() string {
	return fmt.Sprintf("%s%s by %s", c.Bid, c.Penalty, c.Declarer)
}

// FinalContract derives the contract of a completed auction. It returns false
// while the auction is still open or when it was passed out.
func FinalContract(a Auction) (Contract, bool) {
	if !IsComplete(a) || PassedOut(a) {
		return Contract{}, false
	}
	idx, bid, ok := lastBidAt(a)
	if !ok {
		return Contract{}, false
	}

	// Declarer is the first player of the winning side to name the final strain.
	side := a.SeatAt(idx)
	declarer := side
	for i := 0; i <= idx; i++ {
		b, isBid := a.Calls[i].Bid()
		if isBid && b.Strain() == bid.Strain() && a.SeatAt(i).SameSide(side) {
			declarer = a.SeatAt(i)
			break
		}
	}

	penalty := Undoubled
	for _, c := range a.Calls[idx+1:] {
		switch c.Kind() {
		case KindDouble:
			penalty = Doubled
		case KindRedouble:
			penalty = Redoubled
		}
	}

	return Contract{Bid: bid, Declarer: declarer, Penalty: penalty}, true
}
