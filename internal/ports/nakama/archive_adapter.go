package nakama

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"bridgebid/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// archiveStorage is the subset of runtime.NakamaModule the archive needs.
type archiveStorage interface {
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
	StorageList(ctx context.Context, callerID, userID, collection string, limit int, cursor string) ([]*api.StorageObject, string, error)
}

// NakamaAuctionArchive implements ports.AuctionArchive on Nakama storage.
// Every seated player gets their own copy of the record, readable only by them.
type NakamaAuctionArchive struct {
	nk         archiveStorage
	collection string
}

// NewNakamaAuctionArchive creates a new archive adapter writing to collection.
func NewNakamaAuctionArchive(nk archiveStorage, collection string) *NakamaAuctionArchive {
	return &NakamaAuctionArchive{nk: nk, collection: collection}
}

// archiveKey orders a player's records newest first, since storage lists by key.
func archiveKey(record ports.AuctionRecord) string {
	return fmt.Sprintf("%019d-%s", math.MaxInt64-record.CompletedAt, record.GameID)
}

// SaveAuction writes record once per seated player.
func (a *NakamaAuctionArchive) SaveAuction(ctx context.Context, record ports.AuctionRecord) error {
	if record.GameID == "" {
		return fmt.Errorf("record game id is required")
	}
	if record.CompletedAt < 0 {
		return fmt.Errorf("record %s has negative completion time", record.GameID)
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal auction record: %w", err)
	}

	writes := make([]*runtime.StorageWrite, 0, len(record.Seats))
	for _, userID := range record.Seats {
		if userID == "" {
			continue
		}
		writes = append(writes, &runtime.StorageWrite{
			Collection:      a.collection,
			Key:             archiveKey(record),
			UserID:          userID,
			Value:           string(value),
			PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		})
	}
	if len(writes) == 0 {
		return nil
	}

	if _, err := a.nk.StorageWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to archive auction %s: %w", record.GameID, err)
	}
	return nil
}

// ListAuctions returns up to limit of userID's records, most recently completed first.
func (a *NakamaAuctionArchive) ListAuctions(ctx context.Context, userID string, limit int) ([]ports.AuctionRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID is required")
	}

	objects, _, err := a.nk.StorageList(ctx, "", userID, a.collection, limit, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions for %s: %w", userID, err)
	}

	records := make([]ports.AuctionRecord, 0, len(objects))
	for _, obj := range objects {
		var record ports.AuctionRecord
		if err := json.Unmarshal([]byte(obj.GetValue()), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal auction %s: %w", obj.GetKey(), err)
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CompletedAt > records[j].CompletedAt
	})
	return records, nil
}

var _ ports.AuctionArchive = (*NakamaAuctionArchive)(nil)
