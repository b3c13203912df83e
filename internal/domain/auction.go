package domain

// Auction is an ordered call history opened by Dealer. The call at index i was
// made by SeatOnTurn(Dealer, i).
//
// Values are treated as immutable snapshots: With returns a new Auction and
// never writes to the receiver's backing array, so a snapshot may be read from
// several goroutines while the table driver builds the next one.
type Auction struct {
	Dealer        Seat
	Vulnerability Vulnerability
	Calls         []Call
}

// NewAuction returns an empty auction.
func NewAuction(dealer Seat, vul Vulnerability) Auction {
	return Auction{Dealer: dealer, Vulnerability: vul}
}

// Len returns the number of calls made so far.
func (a Auction) Len() int {
	return len(a.Calls)
}

// SeatOnTurn returns the seat due to make the next call.
func (a Auction) SeatOnTurn() Seat {
	return SeatOnTurn(a.Dealer, len(a.Calls))
}

// SeatAt returns the seat that made the call at index i.
func (a Auction) SeatAt(i int) Seat {
	return SeatOnTurn(a.Dealer, i)
}

// With returns a copy of the auction with call appended. Legality is not checked.
func (a Auction) With(call Call) Auction {
	calls := make([]Call, len(a.Calls), len(a.Calls)+1)
	copy(calls, a.Calls)
	a.Calls = append(calls, call)
	return a
}

// Strings renders the call history in short form.
func (a Auction) Strings() []string {
	return FormatCalls(a.Calls)
}
