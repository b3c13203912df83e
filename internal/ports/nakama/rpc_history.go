package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"bridgebid/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

var (
	// auctionArchive backs the auction_history RPC. Set by InitModule.
	auctionArchive ports.AuctionArchive
	historyLimit   = 20
)

// AuctionHistoryResponse lists the caller's completed auctions.
type AuctionHistoryResponse struct {
	Auctions []ports.AuctionRecord `json:"auctions"`
}

// rpcAuctionHistory returns the caller's archived auctions.
// Payload: (Optional) {"limit": n}, capped at the configured history limit.
func rpcAuctionHistory(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("user id is required", 16) // UNAUTHENTICATED
	}
	if auctionArchive == nil {
		logger.Error("rpcAuctionHistory: Archive not configured.")
		return "", runtime.NewError("internal error", 13) // INTERNAL
	}

	limit := historyLimit
	if payload != "" {
		var req struct {
			Limit int `json:"limit"`
		}
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("Invalid payload", 3) // INVALID_ARGUMENT
		}
		if req.Limit > 0 && req.Limit < limit {
			limit = req.Limit
		}
	}

	records, err := auctionArchive.ListAuctions(ctx, userID, limit)
	if err != nil {
		logger.Error("rpcAuctionHistory [User:%s]: %v", userID, err)
		return "", runtime.NewError("internal error", 13)
	}

	b, err := json.Marshal(AuctionHistoryResponse{Auctions: records})
	if err != nil {
		return "", runtime.NewError("internal error", 13)
	}
	return string(b), nil
}
