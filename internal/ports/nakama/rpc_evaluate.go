package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"bridgebid/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const evaluateAuctionSchemaURL = "evaluate_auction.schema.json"

// evaluateAuctionSchema bounds calls at 319, the longest possible auction.
const evaluateAuctionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "dealer": {
      "type": "string",
      "enum": ["N", "E", "S", "W", "North", "East", "South", "West"]
    },
    "vulnerability": {"type": "string", "minLength": 1},
    "calls": {
      "type": "array",
      "maxItems": 319,
      "items": {"type": "string", "minLength": 1, "maxLength": 8}
    },
    "proposed": {"type": "string", "minLength": 1, "maxLength": 8}
  },
  "required": ["dealer", "calls"],
  "additionalProperties": false
}`

var (
	evaluateSchema     *jsonschema.Schema
	evaluateSchemaOnce sync.Once
	evaluateSchemaErr  error
)

func compiledEvaluateSchema() (*jsonschema.Schema, error) {
	evaluateSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(evaluateAuctionSchemaURL, strings.NewReader(evaluateAuctionSchema)); err != nil {
			evaluateSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		evaluateSchema, evaluateSchemaErr = compiler.Compile(evaluateAuctionSchemaURL)
	})
	return evaluateSchema, evaluateSchemaErr
}

// EvaluateAuctionRequest is the payload accepted by the evaluate_auction RPC.
type EvaluateAuctionRequest struct {
	Dealer        string   `json:"dealer"`
	Vulnerability string   `json:"vulnerability"`
	Calls         []string `json:"calls"`
	Proposed      string   `json:"proposed"`
}

// ContractView is the wire form of a final contract.
type ContractView struct {
	Bid      string `json:"bid"`
	Declarer string `json:"declarer"`
	Penalty  string `json:"penalty"`
	Text     string `json:"text"`
}

// EvaluateAuctionResponse describes the auction after the posted calls.
type EvaluateAuctionResponse struct {
	NextSeat   string        `json:"next_seat,omitempty"` // empty once complete
	Complete   bool          `json:"complete"`
	PassedOut  bool          `json:"passed_out"`
	Legal      *bool         `json:"legal,omitempty"` // set only when proposed was given
	LegalCalls []string      `json:"legal_calls"`
	Contract   *ContractView `json:"contract,omitempty"`
}

// rpcEvaluateAuction replays a call history through the auction rules.
// Payload: {"dealer":"N","calls":["1C","P"],"proposed":"X"}
func rpcEvaluateAuction(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	schema, err := compiledEvaluateSchema()
	if err != nil {
		logger.Error("rpcEvaluateAuction: Schema unavailable: %v", err)
		return "", runtime.NewError("internal error", 13) // INTERNAL
	}

	var raw interface{}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return "", runtime.NewError("Invalid payload", 3) // INVALID_ARGUMENT
	}
	if err := schema.Validate(raw); err != nil {
		return "", runtime.NewError(fmt.Sprintf("Invalid payload: %v", err), 3)
	}

	var req EvaluateAuctionRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("Invalid payload", 3)
	}

	resp, err := evaluateAuction(req)
	if err != nil {
		return "", runtime.NewError(err.Error(), 3)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("internal error", 13)
	}
	return string(b), nil
}

// evaluateAuction rejects histories containing an illegal call or calls after completion.
func evaluateAuction(req EvaluateAuctionRequest) (EvaluateAuctionResponse, error) {
	dealer, err := domain.ParseSeat(req.Dealer)
	if err != nil {
		return EvaluateAuctionResponse{}, err
	}
	vul := domain.VulNone
	if req.Vulnerability != "" {
		if vul, err = domain.ParseVulnerability(req.Vulnerability); err != nil {
			return EvaluateAuctionResponse{}, err
		}
	}
	calls, err := domain.ParseCalls(req.Calls)
	if err != nil {
		return EvaluateAuctionResponse{}, err
	}

	auction := domain.NewAuction(dealer, vul)
	for i, call := range calls {
		if domain.IsComplete(auction) {
			return EvaluateAuctionResponse{}, fmt.Errorf("call %d (%s) follows a completed auction", i, call)
		}
		if !domain.IsLegal(auction, call) {
			return EvaluateAuctionResponse{}, fmt.Errorf("call %d (%s) by %s is illegal", i, call, auction.SeatOnTurn())
		}
		auction = auction.With(call)
	}

	resp := EvaluateAuctionResponse{
		Complete:   domain.IsComplete(auction),
		PassedOut:  domain.PassedOut(auction),
		LegalCalls: []string{},
	}
	if !resp.Complete {
		resp.NextSeat = auction.SeatOnTurn().Short()
		resp.LegalCalls = domain.FormatCalls(domain.LegalCalls(auction))
	}
	if contract, ok := domain.FinalContract(auction); ok {
		resp.Contract = &ContractView{
			Bid:      contract.Bid.String(),
			Declarer: contract.Declarer.Short(),
			Penalty:  contract.Penalty.String(),
			Text:     contract.String(),
		}
	}

	if req.Proposed != "" {
		proposed, err := domain.ParseCall(req.Proposed)
		if err != nil {
			return EvaluateAuctionResponse{}, err
		}
		legal := !resp.Complete && domain.IsLegal(auction, proposed)
		resp.Legal = &legal
	}
	return resp, nil
}
