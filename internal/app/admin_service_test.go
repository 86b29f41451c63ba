package app

import (
	"context"
	"testing"
	"time"

	"github.com/tickethub/reservation/internal/clock"
	"github.com/tickethub/reservation/internal/domain"
)

func TestAdminService_CreateEvent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("creates event with provided start time", func(t *testing.T) {
		repo := newFakeAdminRepo()
		svc := NewAdminService(repo, clock.NewFixed(now))

		startsAt := now.Add(24 * time.Hour)
		event, err := svc.CreateEvent(context.Background(), CreateEventInput{
			Name:     "Concert",
			StartsAt: &startsAt,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if event.ID == "" {
			t.Fatalf("expected event ID to be set")
		}
		if !event.StartsAt.Equal(startsAt) {
			t.Fatalf("expected starts_at %v, got %v", startsAt, event.StartsAt)
		}
		if len(repo.events) != 1 {
			t.Fatalf("expected 1 event stored, got %d", len(repo.events))
		}
	})

	t.Run("defaults start time to now", func(t *testing.T) {
		repo := newFakeAdminRepo()
		svc := NewAdminService(repo, clock.NewFixed(now))

		event, err := svc.CreateEvent(context.Background(), CreateEventInput{Name: "Concert"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !event.StartsAt.Equal(now) {
			t.Fatalf("expected starts_at %v, got %v", now, event.StartsAt)
		}
	})

	t.Run("requires a name", func(t *testing.T) {
		svc := NewAdminService(newFakeAdminRepo(), clock.NewFixed(now))

		if _, err := svc.CreateEvent(context.Background(), CreateEventInput{}); err != domain.ErrEventNameRequired {
			t.Fatalf("expected ErrEventNameRequired, got %v", err)
		}
	})
}

func TestAdminService_CreateTicketClass(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("creates class with zero sold count", func(t *testing.T) {
		repo := newFakeAdminRepo()
		svc := NewAdminService(repo, clock.NewFixed(now))

		class, err := svc.CreateTicketClass(context.Background(), CreateTicketClassInput{
			EventID:       "event-1",
			Name:          "General Admission",
			TotalCapacity: 100,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if class.ID == "" {
			t.Fatalf("expected class ID to be set")
		}
		if class.SoldCount != 0 {
			t.Fatalf("expected sold count 0, got %d", class.SoldCount)
		}
	})

	t.Run("validation", func(t *testing.T) {
		svc := NewAdminService(newFakeAdminRepo(), clock.NewFixed(now))

		cases := []struct {
			name string
			in   CreateTicketClassInput
			want error
		}{
			{"missing event id", CreateTicketClassInput{Name: "GA", TotalCapacity: 1}, domain.ErrInvalidID},
			{"missing name", CreateTicketClassInput{EventID: "e", TotalCapacity: 1}, domain.ErrClassNameRequired},
			{"zero capacity", CreateTicketClassInput{EventID: "e", Name: "GA"}, domain.ErrInvalidCapacity},
			{"negative capacity", CreateTicketClassInput{EventID: "e", Name: "GA", TotalCapacity: -5}, domain.ErrInvalidCapacity},
		}
		for _, tc := range cases {
			if _, err := svc.CreateTicketClass(context.Background(), tc.in); err != tc.want {
				t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
			}
		}
	})
}

func TestAdminService_AdjustCapacity(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeAdminRepo()
	repo.classes["class-1"] = domain.TicketClass{ID: "class-1", EventID: "event-1", TotalCapacity: 100, SoldCount: 40}
	svc := NewAdminService(repo, clock.NewFixed(now))

	if err := svc.AdjustCapacity(context.Background(), "class-1", 60); err != nil {
		t.Fatalf("expected adjust to 60 to succeed, got %v", err)
	}
	if err := svc.AdjustCapacity(context.Background(), "class-1", 30); err != domain.ErrInvalidCapacity {
		t.Fatalf("expected ErrInvalidCapacity below sold count, got %v", err)
	}
	if err := svc.AdjustCapacity(context.Background(), "class-1", -1); err != domain.ErrInvalidCapacity {
		t.Fatalf("expected ErrInvalidCapacity for negative, got %v", err)
	}
	if err := svc.AdjustCapacity(context.Background(), "", 10); err != domain.ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if err := svc.AdjustCapacity(context.Background(), "class-404", 10); err != domain.ErrTicketClassNotFound {
		t.Fatalf("expected ErrTicketClassNotFound, got %v", err)
	}
}

type fakeAdminRepo struct {
	events  []domain.Event
	classes map[string]domain.TicketClass
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{classes: make(map[string]domain.TicketClass)}
}

func (f *fakeAdminRepo) CreateEvent(_ context.Context, event domain.Event) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAdminRepo) ListEvents(_ context.Context) ([]domain.Event, error) {
	return append([]domain.Event{}, f.events...), nil
}

func (f *fakeAdminRepo) CreateTicketClass(_ context.Context, class domain.TicketClass) error {
	f.classes[class.ID] = class
	return nil
}

func (f *fakeAdminRepo) ListTicketClassesByEvent(_ context.Context, eventID string) ([]domain.TicketClass, error) {
	var out []domain.TicketClass
	for _, class := range f.classes {
		if class.EventID == eventID {
			out = append(out, class)
		}
	}
	return out, nil
}

func (f *fakeAdminRepo) AdjustCapacity(_ context.Context, ticketClassID string, totalCapacity int) error {
	class, ok := f.classes[ticketClassID]
	if !ok {
		return domain.ErrTicketClassNotFound
	}
	if class.SoldCount > totalCapacity {
		return domain.ErrInvalidCapacity
	}
	class.TotalCapacity = totalCapacity
	f.classes[ticketClassID] = class
	return nil
}
