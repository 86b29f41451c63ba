package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tickethub/reservation/internal/domain"
)

type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, name, starts_at)
VALUES ($1, $2, $3)`
	_, err := r.pool.Exec(ctx, stmt, event.ID, event.Name, event.StartsAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *AdminRepository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	const query = `
SELECT id, name, starts_at
FROM events
ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(&event.ID, &event.Name, &event.StartsAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}
	return events, nil
}

func (r *AdminRepository) CreateTicketClass(ctx context.Context, class domain.TicketClass) error {
	const stmt = `
INSERT INTO ticket_classes (id, event_id, name, total_capacity, sold_count)
VALUES ($1, $2, $3, $4, 0)`
	_, err := r.pool.Exec(ctx, stmt, class.ID, class.EventID, class.Name, class.TotalCapacity)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return domain.ErrClassAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("create ticket class: %w", err)
	}
	return nil
}

func (r *AdminRepository) ListTicketClassesByEvent(ctx context.Context, eventID string) ([]domain.TicketClass, error) {
	const existsQuery = `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, existsQuery, eventID).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("check event: %w", err)
	}
	if !exists {
		return nil, domain.ErrEventNotFound
	}

	const query = `
SELECT id, event_id, name, total_capacity, sold_count
FROM ticket_classes
WHERE event_id = $1
ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list ticket classes: %w", err)
	}
	defer rows.Close()

	var classes []domain.TicketClass
	for rows.Next() {
		var class domain.TicketClass
		if err := rows.Scan(&class.ID, &class.EventID, &class.Name, &class.TotalCapacity, &class.SoldCount); err != nil {
			return nil, fmt.Errorf("scan ticket class: %w", err)
		}
		classes = append(classes, class)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate ticket classes: %w", rows.Err())
	}
	return classes, nil
}

// AdjustCapacity changes total_capacity for a published class. The update
// refuses to drop capacity below what has already been sold. Active holds
// are not counted: a shrink below sold+held stands, and any holds it
// strands fail at confirmation against the ledger guard rather than
// oversell.
func (r *AdminRepository) AdjustCapacity(ctx context.Context, ticketClassID string, totalCapacity int) error {
	const stmt = `
UPDATE ticket_classes
SET total_capacity = $2
WHERE id = $1 AND sold_count <= $2`
	tag, err := r.pool.Exec(ctx, stmt, ticketClassID, totalCapacity)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("adjust capacity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ticket_classes WHERE id = $1)`, ticketClassID).Scan(&exists); err != nil {
			return fmt.Errorf("check ticket class: %w", err)
		}
		if !exists {
			return domain.ErrTicketClassNotFound
		}
		return domain.ErrInvalidCapacity
	}
	return nil
}
