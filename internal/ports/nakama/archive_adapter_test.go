package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"

	"bridgebid/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

type mockStorage struct {
	writes   []*runtime.StorageWrite
	objects  []*api.StorageObject
	writeErr error
	listArgs []interface{}
}

func (ms *mockStorage) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	if ms.writeErr != nil {
		return nil, ms.writeErr
	}
	ms.writes = append(ms.writes, writes...)
	return make([]*api.StorageObjectAck, len(writes)), nil
}

func (ms *mockStorage) StorageList(ctx context.Context, callerID, userID, collection string, limit int, cursor string) ([]*api.StorageObject, string, error) {
	ms.listArgs = []interface{}{userID, collection, limit}
	return ms.objects, "", nil
}

func TestNakamaAuctionArchive_SaveAuction(t *testing.T) {
	storage := &mockStorage{}
	archive := NewNakamaAuctionArchive(storage, "auctions")

	record := ports.AuctionRecord{
		GameID:      "game-1",
		Seats:       [4]string{"u-n", "u-e", "", "u-w"},
		Calls:       []string{"1C", "P", "P", "P"},
		CompletedAt: 1700000000,
	}
	if err := archive.SaveAuction(context.Background(), record); err != nil {
		t.Fatalf("SaveAuction error: %v", err)
	}

	if len(storage.writes) != 3 {
		t.Fatalf("writes = %d, want one per seated player", len(storage.writes))
	}
	for _, w := range storage.writes {
		if w.Collection != "auctions" || !strings.HasSuffix(w.Key, "-game-1") {
			t.Errorf("write target = %s/%s", w.Collection, w.Key)
		}
		if w.PermissionRead != runtime.STORAGE_PERMISSION_OWNER_READ || w.PermissionWrite != runtime.STORAGE_PERMISSION_NO_WRITE {
			t.Errorf("permissions = %d/%d", w.PermissionRead, w.PermissionWrite)
		}
		var stored ports.AuctionRecord
		if err := json.Unmarshal([]byte(w.Value), &stored); err != nil {
			t.Fatalf("stored value is not a record: %v", err)
		}
		if stored.GameID != "game-1" || len(stored.Calls) != 4 {
			t.Errorf("stored record = %+v", stored)
		}
	}
	if storage.writes[2].UserID != "u-w" {
		t.Errorf("third write owner = %s, want u-w", storage.writes[2].UserID)
	}
}

func TestNakamaAuctionArchive_SaveAuctionErrors(t *testing.T) {
	archive := NewNakamaAuctionArchive(&mockStorage{}, "auctions")
	if err := archive.SaveAuction(context.Background(), ports.AuctionRecord{}); err == nil {
		t.Fatalf("expected error for record without game id")
	}
	if err := archive.SaveAuction(context.Background(), ports.AuctionRecord{GameID: "g", CompletedAt: -1}); err == nil {
		t.Fatalf("expected error for negative completion time")
	}

	failing := NewNakamaAuctionArchive(&mockStorage{writeErr: errors.New("db down")}, "auctions")
	record := ports.AuctionRecord{GameID: "g", Seats: [4]string{"a", "b", "c", "d"}}
	if err := failing.SaveAuction(context.Background(), record); err == nil {
		t.Fatalf("expected storage error")
	}
}

func TestNakamaAuctionArchive_ListAuctions(t *testing.T) {
	encode := func(r ports.AuctionRecord) string {
		b, _ := json.Marshal(r)
		return string(b)
	}
	storage := &mockStorage{
		objects: []*api.StorageObject{
			{Key: "old", Value: encode(ports.AuctionRecord{GameID: "old", CompletedAt: 100})},
			{Key: "new", Value: encode(ports.AuctionRecord{GameID: "new", CompletedAt: 300})},
			{Key: "mid", Value: encode(ports.AuctionRecord{GameID: "mid", CompletedAt: 200})},
		},
	}
	archive := NewNakamaAuctionArchive(storage, "auctions")

	records, err := archive.ListAuctions(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("ListAuctions error: %v", err)
	}
	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if records[i].GameID != id {
			t.Fatalf("records[%d] = %s, want %s", i, records[i].GameID, id)
		}
	}
	if storage.listArgs[0] != "user-1" || storage.listArgs[1] != "auctions" || storage.listArgs[2] != 10 {
		t.Fatalf("list args = %v", storage.listArgs)
	}

	storage.objects = append(storage.objects, &api.StorageObject{Key: "bad", Value: "{"})
	if _, err := archive.ListAuctions(context.Background(), "user-1", 10); err == nil {
		t.Fatalf("expected error for corrupt record")
	}
	if _, err := archive.ListAuctions(context.Background(), "", 10); err == nil {
		t.Fatalf("expected error without user id")
	}
}

// keyOrderedStorage lists a user's objects in ascending key order, at most limit per call.
type keyOrderedStorage struct {
	objects map[string]map[string]string
}

func (ks *keyOrderedStorage) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	if ks.objects == nil {
		ks.objects = make(map[string]map[string]string)
	}
	for _, w := range writes {
		if ks.objects[w.UserID] == nil {
			ks.objects[w.UserID] = make(map[string]string)
		}
		ks.objects[w.UserID][w.Key] = w.Value
	}
	return make([]*api.StorageObjectAck, len(writes)), nil
}

func (ks *keyOrderedStorage) StorageList(ctx context.Context, callerID, userID, collection string, limit int, cursor string) ([]*api.StorageObject, string, error) {
	keys := make([]string, 0, len(ks.objects[userID]))
	for k := range ks.objects[userID] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}
	objects := make([]*api.StorageObject, 0, len(keys))
	for _, k := range keys {
		objects = append(objects, &api.StorageObject{Key: k, Value: ks.objects[userID][k]})
	}
	return objects, "", nil
}

func TestNakamaAuctionArchive_ListAuctionsReturnsNewestUnderLimit(t *testing.T) {
	storage := &keyOrderedStorage{}
	archive := NewNakamaAuctionArchive(storage, "auctions")

	records := []ports.AuctionRecord{
		{GameID: "z-newest", CompletedAt: 300},
		{GameID: "a-old", CompletedAt: 100},
		{GameID: "b-mid", CompletedAt: 200},
	}
	for _, r := range records {
		r.Seats = [4]string{"user-1", "", "", ""}
		if err := archive.SaveAuction(context.Background(), r); err != nil {
			t.Fatalf("SaveAuction(%s) error: %v", r.GameID, err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "Truncated", limit: 2, want: []string{"z-newest", "b-mid"}},
		{name: "Newest only", limit: 1, want: []string{"z-newest"}},
		{name: "All", limit: 10, want: []string{"z-newest", "b-mid", "a-old"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := archive.ListAuctions(context.Background(), "user-1", test.limit)
			if err != nil {
				t.Fatalf("ListAuctions error: %v", err)
			}
			if len(got) != len(test.want) {
				t.Fatalf("ListAuctions returned %d records, want %d", len(got), len(test.want))
			}
			for i, id := range test.want {
				if got[i].GameID != id {
					t.Errorf("records[%d] = %s, want %s", i, got[i].GameID, id)
				}
			}
		})
	}
}
