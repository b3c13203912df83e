package nakama

import (
	"context"
	"database/sql"
	"time"

	"bridgebid/internal/app"
	"bridgebid/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcQuickMatch:      rpcQuickMatch,
		RpcEvaluateAuction: rpcEvaluateAuction,
		RpcAuctionHistory:  rpcAuctionHistory,
		RpcVerifyAuction:   rpcVerifyAuction,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadTableConfig(tableConfigPath); err != nil {
		logger.Warn("InitModule: Could not load table config, using defaults: %v", err)
	}
	cfg := config.GetTableConfig()
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		cfg = cfg.WithEnv(env)
	}

	auctionArchive = NewNakamaAuctionArchive(nk, cfg.Archive.Collection)
	historyLimit = cfg.Archive.HistoryLimit
	if cfg.Record.Secret != "" {
		recordSigner = app.NewRecordSigner(cfg.Record.Secret, cfg.Record.Issuer, time.Duration(cfg.Record.ValidForSeconds)*time.Second)
	}

	// Compile the evaluate_auction schema up front so a bad schema fails the module load.
	if _, err := compiledEvaluateSchema(); err != nil {
		return err
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameBridge, NewMatch); err != nil {
		return err
	}

	logger.Info("Bridge Go module loaded (dealer_mode=%s, turn=%ds).", cfg.DealerMode, cfg.TurnDurationSeconds)
	return nil
}
