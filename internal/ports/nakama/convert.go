package nakama

import (
	"fmt"

	"bridgebid/internal/app"
	"bridgebid/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// encodeMessage renders fields as a protojson Struct.
func encodeMessage(fields map[string]interface{}) ([]byte, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}
	return protojson.Marshal(st)
}

// decodeMessage parses a client message. An empty payload decodes to an empty Struct.
func decodeMessage(data []byte) (*structpb.Struct, error) {
	st := &structpb.Struct{}
	if len(data) == 0 {
		return st, nil
	}
	if err := protojson.Unmarshal(data, st); err != nil {
		return nil, err
	}
	return st, nil
}

func callsToValues(calls []domain.Call) []interface{} {
	out := make([]interface{}, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.String())
	}
	return out
}

func stringsToValues(in []string) []interface{} {
	out := make([]interface{}, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}

func cardsToValues(cards []domain.Card) []interface{} {
	out := make([]interface{}, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.String())
	}
	return out
}

func contractToFields(contract *domain.Contract) interface{} {
	if contract == nil {
		return nil
	}
	return map[string]interface{}{
		"bid":      contract.Bid.String(),
		"declarer": contract.Declarer.Short(),
		"penalty":  contract.Penalty.String(),
		"text":     contract.String(),
	}
}

// eventToFields maps an app event to its op code and message body.
func eventToFields(ev app.Event) (int64, map[string]interface{}, error) {
	switch ev.Kind {
	case app.EventGameStarted:
		p := ev.Payload.(app.GameStartedPayload)
		return OpGameStarted, map[string]interface{}{
			"game_id":         p.GameID,
			"board":           p.Board,
			"dealer":          p.Dealer.Short(),
			"vulnerability":   p.Vulnerability.String(),
			"first_turn_seat": p.FirstTurnSeat.Short(),
			"legal_calls":     callsToValues(p.LegalCalls),
		}, nil
	case app.EventHandDealt:
		p := ev.Payload.(app.HandDealtPayload)
		return OpHandDealt, map[string]interface{}{
			"seat":      p.Seat.Short(),
			"cards":     cardsToValues(p.Hand),
			"hand_text": domain.FormatHand(p.Hand),
		}, nil
	case app.EventCallMade:
		p := ev.Payload.(app.CallMadePayload)
		return OpCallMade, map[string]interface{}{
			"seat":           p.Seat.Short(),
			"call":           p.Call.String(),
			"timed_out":      p.TimedOut,
			"complete":       p.Complete,
			"next_turn_seat": p.NextTurnSeat.Short(),
			"legal_calls":    callsToValues(p.LegalCalls),
		}, nil
	case app.EventAuctionCompleted:
		p := ev.Payload.(app.AuctionCompletedPayload)
		return OpAuctionCompleted, map[string]interface{}{
			"game_id":    p.Record.GameID,
			"calls":      callsToValues(p.Calls),
			"passed_out": p.PassedOut,
			"contract":   contractToFields(p.Contract),
			"token":      p.Record.Token,
		}, nil
	default:
		return 0, nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}
