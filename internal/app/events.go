package app

import (
	"bridgebid/internal/domain"
	"bridgebid/internal/ports"
)

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventGameStarted      EventKind = "game_started"
	EventHandDealt        EventKind = "hand_dealt"
	EventCallMade         EventKind = "call_made"
	EventAuctionCompleted EventKind = "auction_completed"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type GameStartedPayload struct {
	GameID        string
	Board         int
	Dealer        domain.Seat
	Vulnerability domain.Vulnerability
	FirstTurnSeat domain.Seat
	LegalCalls    []domain.Call
}

type HandDealtPayload struct {
	Seat domain.Seat
	Hand []domain.Card
}

type CallMadePayload struct {
	Seat         domain.Seat
	Call         domain.Call
	TimedOut     bool
	Complete     bool
	NextTurnSeat domain.Seat
	LegalCalls   []domain.Call // empty once the auction is complete
}

type AuctionCompletedPayload struct {
	Calls     []domain.Call
	PassedOut bool
	Contract  *domain.Contract
	Record    ports.AuctionRecord
	SignErr   error // set when the record could not be signed
}
