package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"bridgebid/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
)

// recordSigner verifies auction record tokens. Nil when signing is disabled.
var recordSigner *app.RecordSigner

// VerifyAuctionResponse carries the claims of a valid record token.
type VerifyAuctionResponse struct {
	Valid  bool                   `json:"valid"`
	Claims map[string]interface{} `json:"claims,omitempty"`
}

// rpcVerifyAuction checks a token issued for a completed auction.
// Payload: {"token": "..."}
func rpcVerifyAuction(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	if recordSigner == nil {
		return "", runtime.NewError("auction record signing is disabled", 9) // FAILED_PRECONDITION
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.Token == "" {
		return "", runtime.NewError("Invalid payload", 3) // INVALID_ARGUMENT
	}

	resp := VerifyAuctionResponse{}
	claims, err := recordSigner.Verify(req.Token)
	if err != nil {
		logger.Debug("rpcVerifyAuction: Rejected token: %v", err)
	} else {
		resp.Valid = true
		resp.Claims = claims
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("internal error", 13) // INTERNAL
	}
	return string(b), nil
}
