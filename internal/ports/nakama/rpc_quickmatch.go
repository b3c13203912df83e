package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting a table.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	// Any bridge table with a free seat that is not mid-auction.
	query := fmt.Sprintf("+label.%s:>=1 +label.%s:%s -label.%s:bidding",
		MatchLabelKey_OpenSeats, MatchLabelKey_Game, matchLabelGame, MatchLabelKey_Phase)

	limit := 10
	authoritative := true

	minSize := 1
	maxSize := 3 // a full table has no seat left

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("rpcQuickMatch [User:%s]: MatchList error: %v", userID, err)
		return "", err
	}

	if len(matches) > 0 {
		logger.Info("rpcQuickMatch [User:%s]: Found existing table %s", userID, matches[0].MatchId)
		b, _ := json.Marshal(QuickMatchResponse{MatchID: matches[0].MatchId, IsNew: false})
		return string(b), nil
	}

	// Seats and ownership are assigned in MatchJoin.
	matchID, err := nk.MatchCreate(ctx, MatchNameBridge, map[string]interface{}{})
	if err != nil {
		logger.Error("rpcQuickMatch [User:%s]: MatchCreate error: %v", userID, err)
		return "", err
	}

	logger.Info("rpcQuickMatch [User:%s]: Created new table %s", userID, matchID)
	b, _ := json.Marshal(QuickMatchResponse{MatchID: matchID, IsNew: true})
	return string(b), nil
}
