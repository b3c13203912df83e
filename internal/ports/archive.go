package ports

import "context"

// AuctionRecord is the archived transcript of one completed auction.
type AuctionRecord struct {
	GameID        string    `json:"game_id"`
	Board         int       `json:"board"`
	Dealer        string    `json:"dealer"`
	Vulnerability string    `json:"vulnerability"`
	Seats         [4]string `json:"seats"`
	Calls         []string  `json:"calls"`
	PassedOut     bool      `json:"passed_out"`
	Contract      string    `json:"contract,omitempty"`
	Declarer      string    `json:"declarer,omitempty"`
	CompletedAt   int64     `json:"completed_at"`
	// Token is the signed form of the record; empty when signing is disabled.
	Token string `json:"token,omitempty"`
}

// AuctionArchive stores completed auctions for later review.
type AuctionArchive interface {
	// SaveAuction persists the record for every seated player.
	SaveAuction(ctx context.Context, record AuctionRecord) error

	// ListAuctions returns up to limit records visible to userID, newest storage order first.
	ListAuctions(ctx context.Context, userID string, limit int) ([]AuctionRecord, error)
}
