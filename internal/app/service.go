package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"bridgebid/internal/domain"
	"bridgebid/internal/ports"

	"github.com/google/uuid"
)

// Service contains bridge table use-cases operating on domain state.
type Service struct {
	rng    *rand.Rand
	signer *RecordSigner
	now    func() time.Time
}

// NewService constructs a Service with provided rng or a time-seeded default.
// signer may be nil, in which case completed auctions are not signed.
func NewService(rng *rand.Rand, signer *RecordSigner) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng, signer: signer, now: time.Now}
}

var (
	ErrTooFewPlayers       = errors.New("all four seats must be filled to start")
	ErrNotBidding          = errors.New("auction is not in progress")
	ErrBiddingInProgress   = errors.New("auction already in progress")
	ErrUnknownPlayer       = errors.New("player is not seated at this table")
	ErrNotYourTurn         = errors.New("not your turn to call")
	ErrIllegalCall         = errors.New("illegal call")
	ErrSignerNotConfigured = errors.New("record signer not configured")
)

// StartGame deals a new board to the four seated players and opens the auction.
// seats is indexed by domain.Seat. With randomDealer the dealer and
// vulnerability are drawn at random instead of following the board schedule.
func (s *Service) StartGame(seats [domain.NumSeats]string, board int, randomDealer bool) (*domain.Game, []Event, error) {
	for _, userID := range seats {
		if userID == "" {
			return nil, nil, ErrTooFewPlayers
		}
	}
	if board < 1 {
		board = 1
	}

	dealer := domain.BoardDealer(board)
	vul := domain.BoardVulnerability(board)
	if randomDealer {
		dealer = domain.Seat(s.rng.Intn(domain.NumSeats))
		all := domain.Vulnerabilities()
		vul = all[s.rng.Intn(len(all))]
	}

	hands := domain.Deal(domain.ShuffleDeck(domain.NewDeck(), s.rng))
	game := &domain.Game{
		ID:    uuid.New().String(),
		Phase: domain.PhaseBidding,
		Board: domain.Board{
			Number:        board,
			Dealer:        dealer,
			Vulnerability: vul,
			Hands:         hands,
		},
		Seats:   seats,
		Auction: domain.NewAuction(dealer, vul),
	}

	events := make([]Event, 0, domain.NumSeats+1)
	for _, seat := range domain.Seats() {
		events = append(events, Event{
			Kind: EventHandDealt,
			Payload: HandDealtPayload{
				Seat: seat,
				Hand: hands[seat],
			},
			Recipients: []string{seats[seat]},
		})
	}

	events = append(events, Event{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			GameID:        game.ID,
			Board:         board,
			Dealer:        dealer,
			Vulnerability: vul,
			FirstTurnSeat: game.CurrentTurn(),
			LegalCalls:    domain.LegalCalls(game.Auction),
		},
	})

	return game, events, nil
}

// MakeCall validates and records a call by seat, closing the auction when it completes.
func (s *Service) MakeCall(game *domain.Game, seat domain.Seat, call domain.Call) ([]Event, error) {
	return s.makeCall(game, seat, call, false)
}

// Timeout passes on behalf of the seat on turn. Pass is always legal.
func (s *Service) Timeout(game *domain.Game) ([]Event, error) {
	if game == nil || game.Phase != domain.PhaseBidding {
		return nil, ErrNotBidding
	}
	return s.makeCall(game, game.CurrentTurn(), domain.PassCall(), true)
}

func (s *Service) makeCall(game *domain.Game, seat domain.Seat, call domain.Call, timedOut bool) ([]Event, error) {
	if game == nil || game.Phase != domain.PhaseBidding {
		return nil, ErrNotBidding
	}
	if !seat.Valid() {
		return nil, ErrUnknownPlayer
	}
	if seat != game.CurrentTurn() {
		return nil, ErrNotYourTurn
	}
	if !domain.IsLegal(game.Auction, call) {
		return nil, fmt.Errorf("%w: %s by %s", ErrIllegalCall, call, seat)
	}

	game.Auction = game.Auction.With(call)
	complete := domain.IsComplete(game.Auction)

	payload := CallMadePayload{
		Seat:         seat,
		Call:         call,
		TimedOut:     timedOut,
		Complete:     complete,
		NextTurnSeat: game.CurrentTurn(),
	}
	if !complete {
		payload.LegalCalls = domain.LegalCalls(game.Auction)
	}
	events := []Event{{Kind: EventCallMade, Payload: payload}}

	if complete {
		events = append(events, s.completeAuction(game))
	}
	return events, nil
}

func (s *Service) completeAuction(game *domain.Game) Event {
	game.Phase = domain.PhaseComplete

	record := ports.AuctionRecord{
		GameID:        game.ID,
		Board:         game.Board.Number,
		Dealer:        game.Board.Dealer.Short(),
		Vulnerability: game.Board.Vulnerability.String(),
		Seats:         game.Seats,
		Calls:         game.Auction.Strings(),
		PassedOut:     domain.PassedOut(game.Auction),
		CompletedAt:   s.now().Unix(),
	}

	if contract, ok := domain.FinalContract(game.Auction); ok {
		game.Contract = &contract
		record.Contract = contract.Bid.String() + contract.Penalty.String()
		record.Declarer = contract.Declarer.Short()
	}

	// An unsigned record is still archived; the token is left empty.
	var signErr error
	if s.signer != nil {
		if token, err := s.signer.Sign(record); err != nil {
			signErr = err
		} else {
			record.Token = token
		}
	}

	return Event{
		Kind: EventAuctionCompleted,
		Payload: AuctionCompletedPayload{
			Calls:     game.Auction.Calls,
			PassedOut: record.PassedOut,
			Contract:  game.Contract,
			Record:    record,
			SignErr:   signErr,
		},
	}
}
