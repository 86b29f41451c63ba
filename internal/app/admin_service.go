package app

import (
	"context"
	"time"

	"github.com/tickethub/reservation/internal/clock"
	"github.com/tickethub/reservation/internal/domain"
)

type AdminRepository interface {
	CreateEvent(ctx context.Context, event domain.Event) error
	ListEvents(ctx context.Context) ([]domain.Event, error)
	CreateTicketClass(ctx context.Context, class domain.TicketClass) error
	ListTicketClassesByEvent(ctx context.Context, eventID string) ([]domain.TicketClass, error)
	AdjustCapacity(ctx context.Context, ticketClassID string, totalCapacity int) error
}

type AdminService struct {
	repo  AdminRepository
	clock clock.Clock
}

func NewAdminService(repo AdminRepository, clk clock.Clock) *AdminService {
	return &AdminService{
		repo:  repo,
		clock: clk,
	}
}

type CreateEventInput struct {
	Name     string
	StartsAt *time.Time
}

func (s *AdminService) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	if in.Name == "" {
		return domain.Event{}, domain.ErrEventNameRequired
	}
	startsAt := s.clock.Now()
	if in.StartsAt != nil {
		startsAt = *in.StartsAt
	}

	event := domain.Event{
		ID:       newUUID(),
		Name:     in.Name,
		StartsAt: startsAt,
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func (s *AdminService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx)
}

type CreateTicketClassInput struct {
	EventID       string
	Name          string
	TotalCapacity int
}

func (s *AdminService) CreateTicketClass(ctx context.Context, in CreateTicketClassInput) (domain.TicketClass, error) {
	if in.EventID == "" {
		return domain.TicketClass{}, domain.ErrInvalidID
	}
	if in.Name == "" {
		return domain.TicketClass{}, domain.ErrClassNameRequired
	}
	if in.TotalCapacity <= 0 {
		return domain.TicketClass{}, domain.ErrInvalidCapacity
	}

	class := domain.TicketClass{
		ID:            newUUID(),
		EventID:       in.EventID,
		Name:          in.Name,
		TotalCapacity: in.TotalCapacity,
	}

	if err := s.repo.CreateTicketClass(ctx, class); err != nil {
		return domain.TicketClass{}, err
	}
	return class, nil
}

func (s *AdminService) ListTicketClasses(ctx context.Context, eventID string) ([]domain.TicketClass, error) {
	if eventID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListTicketClassesByEvent(ctx, eventID)
}

// AdjustCapacity raises or lowers a class's total capacity. Capacity can
// never drop below what has already been sold.
func (s *AdminService) AdjustCapacity(ctx context.Context, ticketClassID string, totalCapacity int) error {
	if ticketClassID == "" {
		return domain.ErrInvalidID
	}
	if totalCapacity < 0 {
		return domain.ErrInvalidCapacity
	}
	return s.repo.AdjustCapacity(ctx, ticketClassID, totalCapacity)
}
