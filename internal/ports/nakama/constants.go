package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a table with open seats.
	RpcQuickMatch = "quick_match"
	// RpcEvaluateAuction runs the auction rules over a posted call history.
	RpcEvaluateAuction = "evaluate_auction"
	// RpcAuctionHistory lists the caller's archived auctions.
	RpcAuctionHistory = "auction_history"
	// RpcVerifyAuction checks a signed auction record token.
	RpcVerifyAuction = "verify_auction"

	// MatchNameBridge is the authoritative match handler name registered with Nakama.
	MatchNameBridge = "bridge_table"
)

// Match label keys and values.
const (
	MatchLabelKey_OpenSeats = "open"
	MatchLabelKey_Game      = "game"
	MatchLabelKey_Phase     = "phase"

	matchLabelGame  = "bridge"
	phaseLobby      = "lobby"
	tableConfigPath = "data/table_config.toml"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame    int64 = 1
	OpMakeCall     int64 = 2
	OpRequestState int64 = 3

	// Server -> Client events
	OpMatchState       int64 = 100
	OpGameStarted      int64 = 101
	OpHandDealt        int64 = 102 // send privately
	OpCallMade         int64 = 103
	OpAuctionCompleted int64 = 104
	OpGameError        int64 = 105
)

// Error codes carried by OpGameError.
const (
	errCodeBadRequest = 400
	errCodeForbidden  = 403
	errCodeConflict   = 409
)
