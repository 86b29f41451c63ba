package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/tickethub/reservation/internal/domain"
	"github.com/tickethub/reservation/internal/testutil"
)

func TestAdminRepository_Events(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := NewAdminRepository(pool)

	first := domain.Event{ID: testUUID(), Name: "Concert", StartsAt: time.Now().UTC()}
	second := domain.Event{ID: testUUID(), Name: "Festival", StartsAt: time.Now().UTC().Add(time.Hour)}
	for _, event := range []domain.Event{first, second} {
		if err := repo.CreateEvent(ctx, event); err != nil {
			t.Fatalf("create event %s: %v", event.Name, err)
		}
	}

	events, err := repo.ListEvents(ctx)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != first.ID {
		t.Fatalf("expected insertion order, got %s first", events[0].ID)
	}
}

func TestAdminRepository_TicketClasses(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := NewAdminRepository(pool)

	event := domain.Event{ID: testUUID(), Name: "Concert", StartsAt: time.Now().UTC()}
	if err := repo.CreateEvent(ctx, event); err != nil {
		t.Fatalf("create event: %v", err)
	}

	class := domain.TicketClass{ID: testUUID(), EventID: event.ID, Name: "General Admission", TotalCapacity: 100}
	if err := repo.CreateTicketClass(ctx, class); err != nil {
		t.Fatalf("create class: %v", err)
	}

	t.Run("duplicate name in event", func(t *testing.T) {
		dup := domain.TicketClass{ID: testUUID(), EventID: event.ID, Name: "General Admission", TotalCapacity: 50}
		if err := repo.CreateTicketClass(ctx, dup); err != domain.ErrClassAlreadyExists {
			t.Fatalf("expected ErrClassAlreadyExists, got %v", err)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		orphan := domain.TicketClass{ID: testUUID(), EventID: testUUID(), Name: "VIP", TotalCapacity: 10}
		if err := repo.CreateTicketClass(ctx, orphan); err != domain.ErrEventNotFound {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})

	t.Run("list by event", func(t *testing.T) {
		classes, err := repo.ListTicketClassesByEvent(ctx, event.ID)
		if err != nil {
			t.Fatalf("list classes: %v", err)
		}
		if len(classes) != 1 || classes[0].ID != class.ID {
			t.Fatalf("unexpected classes %+v", classes)
		}

		if _, err := repo.ListTicketClassesByEvent(ctx, testUUID()); err != domain.ErrEventNotFound {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})
}

func TestAdminRepository_AdjustCapacity(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	_, classID := testutil.InsertEventAndClass(t, ctx, pool, "Concert", 10)
	repo := NewAdminRepository(pool)
	ledger := NewLedgerRepository(pool)

	sale := domain.Sale{
		ID:            testUUID(),
		TicketClassID: classID,
		HoldID:        testutil.UniqueID("hold"),
		Quantity:      6,
		Owner:         "user-1",
		CommittedAt:   time.Now().UTC(),
	}
	if _, _, err := ledger.CommitSale(ctx, sale); err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	if err := repo.AdjustCapacity(ctx, classID, 20); err != nil {
		t.Fatalf("raise capacity: %v", err)
	}
	if err := repo.AdjustCapacity(ctx, classID, 6); err != nil {
		t.Fatalf("shrink to sold count: %v", err)
	}
	if err := repo.AdjustCapacity(ctx, classID, 5); err != domain.ErrInvalidCapacity {
		t.Fatalf("expected ErrInvalidCapacity below sold count, got %v", err)
	}
	if err := repo.AdjustCapacity(ctx, testUUID(), 10); err != domain.ErrTicketClassNotFound {
		t.Fatalf("expected ErrTicketClassNotFound, got %v", err)
	}
}
