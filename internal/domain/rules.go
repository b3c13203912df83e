package domain

// IsLegal reports whether proposed may be made by the seat on turn in a.
// Callers must not offer calls once IsComplete(a) is true.
func IsLegal(a Auction, proposed Call) bool {
	switch proposed.kind {
	case KindPass:
		return true
	case KindBid:
		last, ok := lastBid(a)
		if !ok {
			return true
		}
		return proposed.bid.Outranks(last)
	case KindDouble:
		// Only passes may separate an opponent's bid from the double.
		seat, call, ok := lastNonPass(a)
		return ok && call.kind == KindBid && !seat.SameSide(a.SeatOnTurn())
	case KindRedouble:
		seat, call, ok := lastNonPass(a)
		return ok && call.kind == KindDouble && !seat.SameSide(a.SeatOnTurn())
	default:
		return false
	}
}

// LegalCalls lists every call the seat on turn may make: Pass, Double and
// Redouble when allowed, then the bids in ascending rank.
func LegalCalls(a Auction) []Call {
	calls := []Call{PassCall()}
	for _, c := range []Call{DoubleCall(), RedoubleCall()} {
		if IsLegal(a, c) {
			calls = append(calls, c)
		}
	}

	last, hasBid := lastBid(a)
	for _, b := range AllBids() {
		if !hasBid || b.Outranks(last) {
			calls = append(calls, BidCall(b))
		}
	}
	return calls
}

// IsComplete reports whether the auction has ended, either by four passes
// with nothing else called or by three passes after a non-pass call.
func IsComplete(a Auction) bool {
	if PassedOut(a) {
		return true
	}
	n := len(a.Calls)
	if n < 4 || !allPass(a.Calls[n-3:]) {
		return false
	}
	return !allPass(a.Calls[:n-3])
}

// PassedOut reports whether the auction ended with four passes and no bid.
func PassedOut(a Auction) bool {
	return len(a.Calls) == 4 && allPass(a.Calls)
}

// lastNonPass scans backward past passes and returns the first other call
// together with the seat that made it.
func lastNonPass(a Auction) (Seat, Call, bool) {
	for i := len(a.Calls) - 1; i >= 0; i-- {
		if !a.Calls[i].IsPass() {
			return a.SeatAt(i), a.Calls[i], true
		}
	}
	return North, Call{}, false
}

// lastBid returns the most recent contract call, skipping passes, doubles and redoubles.
func lastBid(a Auction) (Bid, bool) {
	_, b, ok := lastBidAt(a)
	return b, ok
}

func lastBidAt(a Auction) (int, Bid, bool) {
	for i := len(a.Calls) - 1; i >= 0; i-- {
		if b, ok := a.Calls[i].Bid(); ok {
			return i, b, true
		}
	}
	return -1, Bid{}, false
}

func allPass(calls []Call) bool {
	for _, c := range calls {
		if !c.IsPass() {
			return false
		}
	}
	return true
}
