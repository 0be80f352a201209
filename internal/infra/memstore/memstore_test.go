package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"ciclo/internal/domain"
	"ciclo/internal/usecase"
)

func TestTx_RollsBackOnError(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.Repos().Listings.Save(ctx, domain.Listing{ID: "l-1", TenantID: "t-1", AvailableQuantity: 10}); err != nil {
		t.Fatalf("seed listing: %v", err)
	}

	boom := errors.New("boom")
	err := store.Tx(ctx, func(repos usecase.RepoSet) error {
		listing, err := repos.Listings.Get(ctx, "t-1", "l-1")
		if err != nil {
			return err
		}
		listing.AvailableQuantity = 0
		if _, err := repos.Listings.Save(ctx, listing); err != nil {
			return err
		}
		if _, err := repos.Orders.Save(ctx, domain.Order{ID: "o-1", TenantID: "t-1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("tx error = %v, want boom", err)
	}

	listing, err := store.Repos().Listings.Get(ctx, "t-1", "l-1")
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if listing.AvailableQuantity != 10 {
		t.Fatalf("quantity = %v, rollback must restore 10", listing.AvailableQuantity)
	}
	if _, err := store.Repos().Orders.Get(ctx, "t-1", "o-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("order should not survive rollback, got %v", err)
	}
}

func TestTx_CommitsOnSuccess(t *testing.T) {
	store := New()
	ctx := context.Background()

	err := store.Tx(ctx, func(repos usecase.RepoSet) error {
		_, err := repos.Orders.Save(ctx, domain.Order{ID: "o-1", TenantID: "t-1", Status: domain.OrderCreated})
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	order, err := store.Repos().Orders.Get(ctx, "t-1", "o-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Status != domain.OrderCreated {
		t.Fatalf("order status = %s", order.Status)
	}
}

func TestRollback_PreservesSliceFields(t *testing.T) {
	store := New()
	ctx := context.Background()

	seed := domain.Settlement{
		ID:       "s-1",
		TenantID: "t-1",
		OrderID:  "o-1",
		Status:   domain.SettlementEscrowed,
		Releases: []domain.Release{{Amount: 10}},
	}
	if _, err := store.Repos().Settlements.Save(ctx, seed); err != nil {
		t.Fatalf("seed settlement: %v", err)
	}

	boom := errors.New("boom")
	_ = store.Tx(ctx, func(repos usecase.RepoSet) error {
		settlement, err := repos.Settlements.Get(ctx, "t-1", "s-1")
		if err != nil {
			return err
		}
		settlement.Releases = append(settlement.Releases, domain.Release{Amount: 99})
		if _, err := repos.Settlements.Save(ctx, settlement); err != nil {
			return err
		}
		return boom
	})

	settlement, err := store.Repos().Settlements.Get(ctx, "t-1", "s-1")
	if err != nil {
		t.Fatalf("get settlement: %v", err)
	}
	if len(settlement.Releases) != 1 || settlement.Releases[0].Amount != 10 {
		t.Fatalf("releases = %+v, rollback must restore the seed", settlement.Releases)
	}
}

func TestAuditLog_PerStreamSequences(t *testing.T) {
	log := NewAuditLog()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := log.Append(ctx, domain.AuditEntry{
			TenantID:    "t-1",
			Stream:      domain.DefaultStream,
			EventType:   "order.placed",
			PayloadJSON: []byte(`{}`),
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if _, err := log.Append(ctx, domain.AuditEntry{
		TenantID:    "t-2",
		Stream:      domain.DefaultStream,
		EventType:   "order.placed",
		PayloadJSON: []byte(`{}`),
	}); err != nil {
		t.Fatalf("append other tenant: %v", err)
	}

	last, err := log.LastSeq(ctx, "t-1", domain.DefaultStream)
	if err != nil {
		t.Fatalf("last seq: %v", err)
	}
	if last != 3 {
		t.Fatalf("t-1 last seq = %d, want 3", last)
	}
	last, err = log.LastSeq(ctx, "t-2", domain.DefaultStream)
	if err != nil {
		t.Fatalf("last seq: %v", err)
	}
	if last != 1 {
		t.Fatalf("t-2 last seq = %d, want 1 in its own chain", last)
	}

	entries, err := log.ListRange(ctx, "t-1", domain.DefaultStream, 2, 3, 0)
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(entries) != 2 || entries[0].Seq != 2 {
		t.Fatalf("range = %+v, want seqs 2..3", entries)
	}
}

func TestAuditLog_ListRecentByOrder(t *testing.T) {
	log := NewAuditLog()
	ctx := context.Background()

	for _, orderID := range []string{"o-1", "o-2", "o-1"} {
		if _, err := log.Append(ctx, domain.AuditEntry{
			TenantID:    "t-1",
			Stream:      domain.DefaultStream,
			EventType:   "order.placed",
			Payload:     map[string]any{"order_id": orderID},
			PayloadJSON: []byte(`{}`),
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := log.ListRecentByOrder(ctx, "t-1", domain.DefaultStream, "o-1", 10)
	if err != nil {
		t.Fatalf("list by order: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 for o-1", len(entries))
	}
	if entries[0].Seq != 3 {
		t.Fatalf("first entry seq = %d, want most recent first", entries[0].Seq)
	}
}

func TestAuditLog_ConcurrentAppendsAssignUniqueSequences(t *testing.T) {
	log := NewAuditLog()
	ctx := context.Background()
	const n = 32

	results := make(chan domain.AuditEntry, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := log.Append(ctx, domain.AuditEntry{
				TenantID:    "t-1",
				Stream:      domain.DefaultStream,
				EventType:   "order.placed",
				PayloadJSON: []byte(fmt.Sprintf(`{"n":%d}`, i)),
			})
			if err != nil {
				t.Errorf("append %d: %v", i, err)
				return
			}
			results <- entry
		}(i)
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for entry := range results {
		if seen[entry.Seq] {
			t.Fatalf("sequence %d assigned twice", entry.Seq)
		}
		seen[entry.Seq] = true
	}
	if len(seen) != n {
		t.Fatalf("assigned %d sequences, want %d", len(seen), n)
	}

	entries, err := log.ListRange(ctx, "t-1", domain.DefaultStream, 1, 0, 0)
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("stored %d entries, want %d", len(entries), n)
	}
	prevHash := domain.ZeroHash
	for i, entry := range entries {
		if entry.Seq != int64(i)+1 {
			t.Fatalf("entry %d has seq %d, want %d", i, entry.Seq, i+1)
		}
		if entry.PrevHash != prevHash {
			t.Fatalf("entry %d prev hash does not link to its predecessor", entry.Seq)
		}
		if entry.Hash != domain.ChainHash(prevHash, entry.PayloadJSON, entry.EventType, entry.Seq) {
			t.Fatalf("entry %d hash does not recompute", entry.Seq)
		}
		prevHash = entry.Hash
	}
}
