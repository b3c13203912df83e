package app

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"bridgebid/internal/domain"
)

var fourPlayers = [domain.NumSeats]string{"u-north", "u-east", "u-south", "u-west"}

func mustCall(t *testing.T, raw string) domain.Call {
	t.Helper()
	c, err := domain.ParseCall(raw)
	if err != nil {
		t.Fatalf("parse call %q: %v", raw, err)
	}
	return c
}

// playCalls feeds calls in turn order and returns the events of the last one.
func playCalls(t *testing.T, svc *Service, game *domain.Game, calls ...string) []Event {
	t.Helper()
	var evs []Event
	for _, raw := range calls {
		var err error
		evs, err = svc.MakeCall(game, game.CurrentTurn(), mustCall(t, raw))
		if err != nil {
			t.Fatalf("call %s by %s: %v", raw, game.CurrentTurn(), err)
		}
	}
	return evs
}

func TestStartGameDealsHands(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(42)), nil)

	game, evs, err := svc.StartGame(fourPlayers, 2, false)
	if err != nil {
		t.Fatalf("start game error: %v", err)
	}
	if game.Phase != domain.PhaseBidding {
		t.Fatalf("phase = %s, want bidding", game.Phase)
	}
	if game.ID == "" {
		t.Fatalf("game id should be assigned")
	}
	if game.Board.Dealer != domain.East || game.Board.Vulnerability != domain.VulNorthSouth {
		t.Fatalf("board 2 = dealer %s vul %s, want East NS", game.Board.Dealer, game.Board.Vulnerability)
	}

	handEvents := 0
	for _, ev := range evs {
		switch ev.Kind {
		case EventHandDealt:
			handEvents++
			payload := ev.Payload.(HandDealtPayload)
			if len(payload.Hand) != domain.HandSize {
				t.Fatalf("hand size = %d, want %d", len(payload.Hand), domain.HandSize)
			}
			if len(ev.Recipients) != 1 || ev.Recipients[0] != fourPlayers[payload.Seat] {
				t.Fatalf("hand for %s sent to %v", payload.Seat, ev.Recipients)
			}
		case EventGameStarted:
			payload := ev.Payload.(GameStartedPayload)
			if payload.FirstTurnSeat != domain.East {
				t.Fatalf("first turn = %s, want dealer East", payload.FirstTurnSeat)
			}
			if len(payload.LegalCalls) != 36 {
				t.Fatalf("opening legal calls = %d, want 36", len(payload.LegalCalls))
			}
		}
	}
	if handEvents != domain.NumSeats {
		t.Fatalf("hand events = %d, want %d", handEvents, domain.NumSeats)
	}
}

func TestStartGameRequiresFourPlayers(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)), nil)
	seats := fourPlayers
	seats[domain.West] = ""

	if _, _, err := svc.StartGame(seats, 1, false); !errors.Is(err, ErrTooFewPlayers) {
		t.Fatalf("err = %v, want ErrTooFewPlayers", err)
	}
}

func TestStartGameRandomDealer(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(3)), nil)
	dealers := make(map[domain.Seat]bool)
	for i := 0; i < 40; i++ {
		game, _, err := svc.StartGame(fourPlayers, 1, true)
		if err != nil {
			t.Fatalf("start game error: %v", err)
		}
		if game.Auction.Dealer != game.Board.Dealer {
			t.Fatalf("auction dealer %s differs from board dealer %s", game.Auction.Dealer, game.Board.Dealer)
		}
		dealers[game.Board.Dealer] = true
	}
	if len(dealers) < 2 {
		t.Fatalf("random dealer mode always picked %v", dealers)
	}
}

func TestMakeCallErrors(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(5)), nil)
	game, _, err := svc.StartGame(fourPlayers, 1, false) // dealer North
	if err != nil {
		t.Fatalf("start game error: %v", err)
	}
	playCalls(t, svc, game, "1H")

	tests := []struct {
		name    string
		seat    domain.Seat
		call    string
		wantErr error
	}{
		{name: "Out of turn", seat: domain.South, call: "2H", wantErr: ErrNotYourTurn},
		{name: "Insufficient bid", seat: domain.East, call: "1D", wantErr: ErrIllegalCall},
		{name: "Redouble without double", seat: domain.East, call: "XX", wantErr: ErrIllegalCall},
		{name: "Invalid seat", seat: domain.Seat(9), call: "P", wantErr: ErrUnknownPlayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.MakeCall(game, tt.seat, mustCall(t, tt.call)); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if game.Auction.Len() != 1 {
				t.Fatalf("rejected call was recorded: %v", game.Auction.Strings())
			}
		})
	}
}

func TestMakeCallCompletesContract(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(9)), nil)
	game, _, err := svc.StartGame(fourPlayers, 1, false) // dealer North
	if err != nil {
		t.Fatalf("start game error: %v", err)
	}

	evs := playCalls(t, svc, game, "1NT", "X", "P", "P")
	if len(evs) != 1 || evs[0].Kind != EventCallMade {
		t.Fatalf("expected single call_made before completion, got %+v", evs)
	}
	made := evs[0].Payload.(CallMadePayload)
	if made.Complete || made.NextTurnSeat != domain.North {
		t.Fatalf("call_made = %+v, want open auction with North to call", made)
	}

	evs = playCalls(t, svc, game, "P")
	if game.Phase != domain.PhaseComplete {
		t.Fatalf("phase = %s, want complete", game.Phase)
	}
	if len(evs) != 2 || evs[1].Kind != EventAuctionCompleted {
		t.Fatalf("expected call_made + auction_completed, got %+v", evs)
	}
	if made := evs[0].Payload.(CallMadePayload); !made.Complete || len(made.LegalCalls) != 0 {
		t.Fatalf("final call_made = %+v, want complete without legal calls", made)
	}

	done := evs[1].Payload.(AuctionCompletedPayload)
	if done.PassedOut || done.Contract == nil {
		t.Fatalf("expected a contract, got %+v", done)
	}
	if got := done.Contract.String(); got != "1NTX by North" {
		t.Fatalf("contract = %s, want 1NTX by North", got)
	}
	if done.Record.Contract != "1NTX" || done.Record.Declarer != "N" || done.Record.Token != "" {
		t.Fatalf("record = %+v", done.Record)
	}

	if _, err := svc.MakeCall(game, game.CurrentTurn(), domain.PassCall()); !errors.Is(err, ErrNotBidding) {
		t.Fatalf("call after completion err = %v, want ErrNotBidding", err)
	}
}

func TestPassOutIsSigned(t *testing.T) {
	signer := NewRecordSigner("test-secret", "issuer", time.Hour)
	svc := NewService(rand.New(rand.NewSource(11)), signer)
	game, _, err := svc.StartGame(fourPlayers, 3, false)
	if err != nil {
		t.Fatalf("start game error: %v", err)
	}

	evs := playCalls(t, svc, game, "P", "P", "P", "P")
	done := evs[len(evs)-1].Payload.(AuctionCompletedPayload)
	if !done.PassedOut || done.Contract != nil || game.Contract != nil {
		t.Fatalf("expected pass-out without contract, got %+v", done)
	}
	if done.Record.Token == "" || done.SignErr != nil {
		t.Fatalf("expected signed record token, sign err = %v", done.SignErr)
	}

	claims, err := signer.Verify(done.Record.Token)
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if claims["sub"] != game.ID {
		t.Fatalf("sub = %v, want %s", claims["sub"], game.ID)
	}
	if claims["dealer"] != "S" {
		t.Fatalf("dealer = %v, want S", claims["dealer"])
	}
}

func TestUnsignedRecordReportsSignError(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(11)), NewRecordSigner("test-secret", "", time.Hour))
	game, _, err := svc.StartGame(fourPlayers, 3, false)
	if err != nil {
		t.Fatalf("start game error: %v", err)
	}

	evs := playCalls(t, svc, game, "P", "P", "P", "P")
	done := evs[len(evs)-1].Payload.(AuctionCompletedPayload)
	if !errors.Is(done.SignErr, ErrSignerNotConfigured) {
		t.Fatalf("sign err = %v, want ErrSignerNotConfigured", done.SignErr)
	}
	if done.Record.Token != "" {
		t.Fatalf("token = %q, want empty", done.Record.Token)
	}
	if done.Record.GameID != game.ID {
		t.Fatalf("record game = %s, want %s", done.Record.GameID, game.ID)
	}
}

func TestTimeoutPassesForSeatOnTurn(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(13)), nil)
	game, _, err := svc.StartGame(fourPlayers, 4, false) // dealer West
	if err != nil {
		t.Fatalf("start game error: %v", err)
	}
	playCalls(t, svc, game, "1S")

	evs, err := svc.Timeout(game)
	if err != nil {
		t.Fatalf("timeout error: %v", err)
	}
	made := evs[0].Payload.(CallMadePayload)
	if made.Seat != domain.North || !made.Call.IsPass() || !made.TimedOut {
		t.Fatalf("timeout payload = %+v, want North pass timed out", made)
	}
	if game.CurrentTurn() != domain.East {
		t.Fatalf("turn = %s, want East", game.CurrentTurn())
	}
}
