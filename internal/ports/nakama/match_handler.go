package nakama

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bridgebid/internal/app"
	"bridgebid/internal/config"
	"bridgebid/internal/domain"
	"bridgebid/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats            [domain.NumSeats]string     `json:"seats"`              // Seat => user ID, empty string means seat is empty
	OwnerSeat        int                         `json:"owner_seat"`         // Seat index of the table owner, -1 if none
	Tick             int64                       `json:"tick"`               // Current match tick
	NextBoard        int                         `json:"next_board"`         // Board number dealt by the next start_game
	TurnDeadlineTick int64                       `json:"turn_deadline_tick"` // Tick at which the seat on turn is passed for, 0 when idle
	Presences        map[string]runtime.Presence `json:"-"`                  // Map UserId -> Presence for targeted messaging
	App              *app.Service                `json:"-"`                  // Bridge app service with auction logic
	Game             *domain.Game                `json:"-"`                  // Current or last completed board (nil before the first deal)
	Config           config.TableConfig          `json:"-"`
	Archive          ports.AuctionArchive        `json:"-"` // Completed auction storage, optional
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Seats) - ms.GetOpenSeatsCount()
}

// seatOf returns the seat index held by userID or -1.
func (ms *MatchState) seatOf(userID string) int {
	for i, seatUserID := range ms.Seats {
		if seatUserID != "" && seatUserID == userID {
			return i
		}
	}
	return -1
}

// biddingInProgress reports whether an auction is open at the table.
func (ms *MatchState) biddingInProgress() bool {
	return ms.Game != nil && ms.Game.Phase == domain.PhaseBidding
}

// findFirstOccupiedSeat returns the first occupied seat index or -1 if the table is empty.
func findFirstOccupiedSeat(seats []string) int {
	for i, userID := range seats {
		if userID != "" {
			return i
		}
	}
	return -1
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing bridge table.")

	if err := config.LoadTableConfig(tableConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load table config, using defaults: %v", err)
	}

	cfg := config.GetTableConfig()
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		cfg = cfg.WithEnv(env)
	}

	var signer *app.RecordSigner
	if cfg.Record.Secret != "" {
		signer = app.NewRecordSigner(cfg.Record.Secret, cfg.Record.Issuer, time.Duration(cfg.Record.ValidForSeconds)*time.Second)
	} else {
		logger.Info("MatchInit: Auction record signing disabled.")
	}

	state := &MatchState{
		NextBoard: 1,
		OwnerSeat: -1,
		Presences: make(map[string]runtime.Presence),
		App:       app.NewService(nil, signer),
		Config:    cfg,
	}
	if nk != nil {
		state.Archive = NewNakamaAuctionArchive(nk, cfg.Archive.Collection)
	}
	if board, ok := params["board"].(float64); ok && board >= 1 {
		state.NextBoard = int(board)
	}

	label, err := buildLabel(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	return state, cfg.TickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// A seated player reconnecting keeps their seat.
	if matchState.seatOf(presence.GetUserId()) >= 0 {
		return state, true, ""
	}
	if matchState.GetOpenSeatsCount() <= 0 {
		return state, false, "Table full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		mh.seatPresence(matchState, dispatcher, logger, p)
	}

	if matchState.OwnerSeat < 0 || matchState.Seats[matchState.OwnerSeat] == "" {
		matchState.OwnerSeat = findFirstOccupiedSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger, nil)

	return matchState
}

// seatPresence stores p and gives it a seat. A player taking an empty seat
// during an auction inherits that seat's hand.
func (mh *matchHandler) seatPresence(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, p runtime.Presence) {
	userID := p.GetUserId()
	state.Presences[userID] = p

	seat := state.seatOf(userID)
	if seat < 0 {
		for i, seatUserID := range state.Seats {
			if seatUserID == "" {
				state.Seats[i] = userID
				seat = i
				break
			}
		}
	}
	if seat < 0 {
		logger.Warn("MatchJoin: User %s joined but no seat was available.", userID)
		return
	}
	logger.Debug("MatchJoin: User %s seated at %s.", userID, domain.Seat(seat))

	if !state.biddingInProgress() {
		return
	}
	state.Game.Seats[seat] = userID
	mh.broadcastEvent(context.Background(), state, dispatcher, logger, app.Event{
		Kind: app.EventHandDealt,
		Payload: app.HandDealtPayload{
			Seat: domain.Seat(seat),
			Hand: state.Game.Board.Hands[seat],
		},
		Recipients: []string{userID},
	})
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		seat := matchState.seatOf(userID)
		if seat < 0 {
			continue
		}
		matchState.Seats[seat] = ""
		if matchState.biddingInProgress() {
			// The turn timer keeps passing for the empty seat until someone sits down.
			matchState.Game.Seats[seat] = ""
		}
		logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
	}

	newOwnerSeat := findFirstOccupiedSeat(matchState.Seats[:])
	if newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
		if newOwnerSeat >= 0 {
			logger.Debug("MatchLeave: Owner set to seat %d.", newOwnerSeat)
		}
	}

	if newOwnerSeat < 0 {
		logger.Info("MatchLeave: Terminating empty table.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger, nil)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg.GetUserId())
		case OpMakeCall:
			mh.handleMakeCall(ctx, matchState, dispatcher, logger, msg.GetUserId(), msg.GetData())
		case OpRequestState:
			mh.handleRequestState(matchState, dispatcher, logger, msg.GetUserId())
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.processTurnTimer(ctx, matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) {
	senderSeat := state.seatOf(senderID)
	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if state.biddingInProgress() {
		mh.sendError(state, dispatcher, logger, senderID, errCodeConflict, app.ErrBiddingInProgress.Error())
		return
	}
	if senderSeat < 0 || senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, senderID, errCodeForbidden, "only the table owner can deal")
		return
	}

	activeCount := state.GetOccupiedSeatCount()
	if activeCount < app.MinPlayersToStartGame {
		logger.Warn("StartGame: Cannot start with %d players. Need %d.", activeCount, app.MinPlayersToStartGame)
		mh.sendError(state, dispatcher, logger, senderID, errCodeBadRequest, app.ErrTooFewPlayers.Error())
		return
	}

	randomDealer := state.Config.DealerMode == config.DealerModeRandom
	game, events, err := state.App.StartGame(state.Seats, state.NextBoard, randomDealer)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, errCodeBadRequest, err.Error())
		return
	}

	state.Game = game
	state.NextBoard++
	mh.resetTurnTimer(state)
	mh.updateLabel(state, dispatcher, logger)

	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}

	logger.Info("StartGame: Board %d dealt, dealer %s, vulnerability %s.", game.Board.Number, game.Board.Dealer, game.Board.Vulnerability)
}

func (mh *matchHandler) handleMakeCall(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string, data []byte) {
	if state.Game == nil {
		logger.Warn("handleMakeCall: Game not started.")
		mh.sendError(state, dispatcher, logger, senderID, errCodeConflict, app.ErrNotBidding.Error())
		return
	}

	senderSeat := state.seatOf(senderID)
	if senderSeat < 0 {
		mh.sendError(state, dispatcher, logger, senderID, errCodeForbidden, app.ErrUnknownPlayer.Error())
		return
	}

	request, err := decodeMessage(data)
	if err != nil {
		logger.Warn("handleMakeCall: Invalid payload from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, errCodeBadRequest, "invalid payload")
		return
	}
	call, err := domain.ParseCall(request.GetFields()["call"].GetStringValue())
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, errCodeBadRequest, err.Error())
		return
	}

	events, err := state.App.MakeCall(state.Game, domain.Seat(senderSeat), call)
	if err != nil {
		logger.Warn("handleMakeCall: User %s (seat %d) failed to call %s: %v. History: %v", senderID, senderSeat, call, err, state.Game.Auction.Strings())
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}

	mh.afterCall(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleRequestState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) {
	presence, ok := state.Presences[senderID]
	if !ok {
		logger.Warn("handleRequestState: Presence not found for %s", senderID)
		return
	}
	mh.broadcastMatchState(state, dispatcher, logger, []runtime.Presence{presence})
}

// processTurnTimer passes for the seat on turn once its time is up.
func (mh *matchHandler) processTurnTimer(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if !state.biddingInProgress() || state.TurnDeadlineTick == 0 {
		return
	}
	if state.Tick < state.TurnDeadlineTick {
		return
	}

	seat := state.Game.CurrentTurn()
	events, err := state.App.Timeout(state.Game)
	if err != nil {
		logger.Error("processTurnTimer: Failed to pass for seat %s: %v", seat, err)
		state.TurnDeadlineTick = 0
		return
	}
	logger.Info("processTurnTimer: Seat %s timed out, passed.", seat)

	mh.afterCall(ctx, state, dispatcher, logger, events)
}

// afterCall dispatches the events of an accepted call and rearms or clears the turn timer.
func (mh *matchHandler) afterCall(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
	if state.biddingInProgress() {
		mh.resetTurnTimer(state)
		return
	}
	state.TurnDeadlineTick = 0
	mh.updateLabel(state, dispatcher, logger)
}

func (mh *matchHandler) resetTurnTimer(state *MatchState) {
	if state.Config.TurnDurationSeconds <= 0 {
		state.TurnDeadlineTick = 0
		return
	}
	tickRate := state.Config.TickRate
	if tickRate < 1 {
		tickRate = 1
	}
	state.TurnDeadlineTick = state.Tick + int64(state.Config.TurnDurationSeconds*tickRate)
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, app.ErrNotYourTurn), errors.Is(err, app.ErrNotBidding), errors.Is(err, app.ErrBiddingInProgress):
		return errCodeConflict
	case errors.Is(err, app.ErrUnknownPlayer):
		return errCodeForbidden
	default:
		return errCodeBadRequest
	}
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, recipients []runtime.Presence) {
	players := make([]interface{}, 0, len(state.Seats))
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}
		displayName := userID
		if p, exists := state.Presences[userID]; exists && p.GetUsername() != "" {
			displayName = p.GetUsername()
		}
		players = append(players, map[string]interface{}{
			"user_id":      userID,
			"seat":         domain.Seat(i).Short(),
			"display_name": displayName,
			"is_owner":     i == state.OwnerSeat,
		})
	}

	snapshot := map[string]interface{}{
		"seats":      stringsToValues(state.Seats[:]),
		"owner_seat": state.OwnerSeat,
		"tick":       state.Tick,
		"phase":      phaseOf(state),
		"next_board": state.NextBoard,
		"players":    players,
	}
	if game := state.Game; game != nil {
		auction := map[string]interface{}{
			"game_id":       game.ID,
			"board":         game.Board.Number,
			"dealer":        game.Board.Dealer.Short(),
			"vulnerability": game.Board.Vulnerability.String(),
			"calls":         stringsToValues(game.Auction.Strings()),
			"contract":      contractToFields(game.Contract),
		}
		if game.Phase == domain.PhaseBidding {
			auction["next_turn_seat"] = game.CurrentTurn().Short()
			auction["legal_calls"] = callsToValues(domain.LegalCalls(game.Auction))
			auction["turn_deadline_tick"] = state.TurnDeadlineTick
		}
		snapshot["auction"] = auction
	}

	bytes, err := encodeMessage(snapshot)
	if err != nil {
		logger.Error("Failed to marshal match state: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpMatchState, bytes, recipients, nil, true)
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, fields, err := eventToFields(ev)
	if err != nil {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	if ev.Kind == app.EventAuctionCompleted {
		p := ev.Payload.(app.AuctionCompletedPayload)
		logger.Info("Event: auction_completed (game=%s, calls=%v, passed_out=%t)", p.Record.GameID, p.Record.Calls, p.PassedOut)
		if p.SignErr != nil {
			logger.Warn("Event: auction %s archived unsigned: %v", p.Record.GameID, p.SignErr)
		}
		if state.Archive != nil {
			if err := state.Archive.SaveAuction(ctx, p.Record); err != nil {
				logger.Error("Failed to archive auction %s: %v", p.Record.GameID, err)
			}
		}
	}

	bytes, err := encodeMessage(fields)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// Private events must never fall back to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

// sendError sends a game_error message to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	bytes, err := encodeMessage(map[string]interface{}{
		"code":    code,
		"message": message,
	})
	if err != nil {
		logger.Error("Failed to marshal game error: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func phaseOf(state *MatchState) string {
	if state.Game == nil {
		return phaseLobby
	}
	return string(state.Game.Phase)
}

// buildLabel renders the match label used by quick_match queries.
func buildLabel(state *MatchState) (string, error) {
	bytes, err := encodeMessage(map[string]interface{}{
		MatchLabelKey_OpenSeats: state.GetOpenSeatsCount(),
		MatchLabelKey_Game:      matchLabelGame,
		MatchLabelKey_Phase:     phaseOf(state),
	})
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := buildLabel(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated, grace %d seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
