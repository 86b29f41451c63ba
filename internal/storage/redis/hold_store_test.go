package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tickethub/reservation/internal/domain"
	"github.com/tickethub/reservation/internal/testutil"
)

func TestHoldStore_PutGetDelete(t *testing.T) {
	client := testutil.NewTestRedis(t)
	store := NewHoldStore(client)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	hold := domain.Hold{
		ID:            testutil.UniqueID("hold"),
		TicketClassID: testutil.UniqueID("class"),
		Quantity:      3,
		Owner:         "user-1",
		Status:        domain.HoldStatusActive,
		CreatedAt:     now,
		ExpiresAt:     now.Add(time.Minute),
	}

	if err := store.Put(ctx, hold, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, hold.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected hold, got nil")
	}
	if got.ID != hold.ID || got.Quantity != 3 || got.Owner != "user-1" {
		t.Fatalf("unexpected hold %+v", got)
	}
	if !got.ExpiresAt.Equal(hold.ExpiresAt) {
		t.Fatalf("expected expires_at %v, got %v", hold.ExpiresAt, got.ExpiresAt)
	}

	if err := store.Delete(ctx, hold); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := store.Get(ctx, hold.ID); got != nil {
		t.Fatalf("expected nil after delete, got %+v", got)
	}
	if got, _ := store.Get(ctx, "never-existed"); got != nil {
		t.Fatalf("expected nil for unknown id, got %+v", got)
	}
}

func TestHoldStore_ListActiveByClass(t *testing.T) {
	client := testutil.NewTestRedis(t)
	store := NewHoldStore(client)
	ctx := context.Background()
	now := time.Now().UTC()
	classID := testutil.UniqueID("class")

	holds := []domain.Hold{
		{ID: testutil.UniqueID("live-1"), TicketClassID: classID, Quantity: 2, Status: domain.HoldStatusActive, ExpiresAt: now.Add(time.Minute)},
		{ID: testutil.UniqueID("live-2"), TicketClassID: classID, Quantity: 5, Status: domain.HoldStatusActive, ExpiresAt: now.Add(time.Hour)},
		{ID: testutil.UniqueID("expired"), TicketClassID: classID, Quantity: 4, Status: domain.HoldStatusActive, ExpiresAt: now.Add(-time.Second)},
		{ID: testutil.UniqueID("other"), TicketClassID: testutil.UniqueID("class"), Quantity: 1, Status: domain.HoldStatusActive, ExpiresAt: now.Add(time.Minute)},
	}
	for _, h := range holds {
		if err := store.Put(ctx, h, time.Hour); err != nil {
			t.Fatalf("put %s: %v", h.ID, err)
		}
	}

	active, err := store.ListActiveByClass(ctx, classID, now)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active holds, got %d", len(active))
	}
	total := 0
	for _, h := range active {
		total += h.Quantity
	}
	if total != 7 {
		t.Fatalf("expected 7 units held, got %d", total)
	}

	t.Run("confirmed holds leave the index", func(t *testing.T) {
		confirmed := holds[0]
		confirmed.Status = domain.HoldStatusConfirmed
		if err := store.Put(ctx, confirmed, time.Hour); err != nil {
			t.Fatalf("put confirmed: %v", err)
		}

		active, err := store.ListActiveByClass(ctx, classID, now)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(active) != 1 || active[0].ID != holds[1].ID {
			t.Fatalf("expected only %s active, got %+v", holds[1].ID, active)
		}

		// The tombstone itself stays readable.
		got, err := store.Get(ctx, confirmed.ID)
		if err != nil || got == nil {
			t.Fatalf("expected tombstone, got %+v err %v", got, err)
		}
		if got.Status != domain.HoldStatusConfirmed {
			t.Fatalf("expected confirmed status, got %s", got.Status)
		}
	})
}

func TestHoldStore_PruneExpired(t *testing.T) {
	client := testutil.NewTestRedis(t)
	store := NewHoldStore(client)
	ctx := context.Background()
	now := time.Now().UTC()

	classA := testutil.UniqueID("class-a")
	classB := testutil.UniqueID("class-b")
	holds := []domain.Hold{
		{ID: testutil.UniqueID("expired-a"), TicketClassID: classA, Quantity: 2, Status: domain.HoldStatusActive, ExpiresAt: now.Add(-time.Minute)},
		{ID: testutil.UniqueID("expired-b"), TicketClassID: classB, Quantity: 3, Status: domain.HoldStatusActive, ExpiresAt: now.Add(-time.Second)},
		{ID: testutil.UniqueID("live"), TicketClassID: classA, Quantity: 1, Status: domain.HoldStatusActive, ExpiresAt: now.Add(time.Hour)},
	}
	for _, h := range holds {
		if err := store.Put(ctx, h, time.Hour); err != nil {
			t.Fatalf("put %s: %v", h.ID, err)
		}
	}

	reclaimed, err := store.PruneExpired(ctx, now)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if len(reclaimed) != 2 {
		t.Fatalf("expected 2 reclaimed holds, got %d", len(reclaimed))
	}

	if got, _ := store.Get(ctx, holds[0].ID); got != nil {
		t.Fatalf("expected expired hold removed, got %+v", got)
	}
	if got, _ := store.Get(ctx, holds[2].ID); got == nil {
		t.Fatal("expected live hold kept")
	}

	// Idempotent.
	reclaimed, err = store.PruneExpired(ctx, now)
	if err != nil {
		t.Fatalf("second prune: %v", err)
	}
	if len(reclaimed) != 0 {
		t.Fatalf("expected nothing on second prune, got %d", len(reclaimed))
	}
}

func TestHoldStore_PruneExpired_KeepsExtendedHold(t *testing.T) {
	client := testutil.NewTestRedis(t)
	store := NewHoldStore(client)
	ctx := context.Background()
	now := time.Now().UTC()
	classID := testutil.UniqueID("class")

	hold := domain.Hold{
		ID:            testutil.UniqueID("hold"),
		TicketClassID: classID,
		Quantity:      2,
		Owner:         "user-1",
		Status:        domain.HoldStatusActive,
		ExpiresAt:     now.Add(time.Hour),
	}
	if err := store.Put(ctx, hold, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Recreate the index state a sweeper races against: the scan picked up
	// the pre-extension score, then the extension wrote the record.
	staleScore := float64(now.Add(-time.Minute).UnixMilli())
	if err := client.ZAdd(ctx, classKey(classID), redis.Z{Score: staleScore, Member: hold.ID}).Err(); err != nil {
		t.Fatalf("plant stale score: %v", err)
	}

	reclaimed, err := store.PruneExpired(ctx, now)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if len(reclaimed) != 0 {
		t.Fatalf("expected no reclaimed holds, got %d", len(reclaimed))
	}

	got, err := store.Get(ctx, hold.ID)
	if err != nil || got == nil {
		t.Fatalf("expected extended hold to survive the sweep, got %+v err %v", got, err)
	}

	// The stale score must have been repaired, not just skipped: read-time
	// pruning in ListActiveByClass would otherwise drop the hold.
	active, err := store.ListActiveByClass(ctx, classID, now)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].ID != hold.ID {
		t.Fatalf("expected extended hold still indexed, got %+v", active)
	}
}

func TestHoldStore_PruneExpired_KeepsConfirmedTombstone(t *testing.T) {
	client := testutil.NewTestRedis(t)
	store := NewHoldStore(client)
	ctx := context.Background()
	now := time.Now().UTC()
	classID := testutil.UniqueID("class")

	hold := domain.Hold{
		ID:            testutil.UniqueID("hold"),
		TicketClassID: classID,
		Quantity:      2,
		Owner:         "user-1",
		Status:        domain.HoldStatusActive,
		ExpiresAt:     now.Add(time.Minute),
	}
	if err := store.Put(ctx, hold, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	confirmed := hold
	confirmed.Status = domain.HoldStatusConfirmed
	if err := store.Put(ctx, confirmed, time.Hour); err != nil {
		t.Fatalf("put confirmed: %v", err)
	}

	// A sweeper that scanned the index before the confirmation still holds
	// the id; replant the entry it would act on.
	staleScore := float64(now.Add(-time.Second).UnixMilli())
	if err := client.ZAdd(ctx, classKey(classID), redis.Z{Score: staleScore, Member: hold.ID}).Err(); err != nil {
		t.Fatalf("plant stale score: %v", err)
	}

	reclaimed, err := store.PruneExpired(ctx, now)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if len(reclaimed) != 0 {
		t.Fatalf("expected no reclaimed holds, got %d", len(reclaimed))
	}

	got, err := store.Get(ctx, hold.ID)
	if err != nil || got == nil {
		t.Fatalf("expected tombstone to survive the sweep, got %+v err %v", got, err)
	}
	if got.Status != domain.HoldStatusConfirmed {
		t.Fatalf("expected confirmed status, got %s", got.Status)
	}

	// The stale index entry is gone, so the tombstone never counts as active.
	active, err := store.ListActiveByClass(ctx, classID, now)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active holds, got %+v", active)
	}
}
