package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tickethub/reservation/internal/domain"
)

// LedgerRepository is the durable inventory authority. The sold_count
// increment is guarded in SQL and backed by a table check constraint, so no
// commit can push sold_count past total_capacity regardless of what the
// engine believed when it admitted the hold.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) GetCapacity(ctx context.Context, ticketClassID string) (total, sold int, err error) {
	const query = `SELECT total_capacity, sold_count FROM ticket_classes WHERE id = $1`
	err = r.queryRow(ctx, query, ticketClassID).Scan(&total, &sold)
	if err != nil {
		if isInvalidUUID(err) {
			return 0, 0, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return 0, 0, domain.ErrTicketClassNotFound
		}
		return 0, 0, fmt.Errorf("get capacity: %w", err)
	}
	return total, sold, nil
}

// CommitSale atomically increments sold_count and writes the sale record.
// Sales are unique per hold id: a retried commit for the same hold returns
// the existing sale with created=false and does not touch sold_count again.
func (r *LedgerRepository) CommitSale(ctx context.Context, sale domain.Sale) (domain.Sale, bool, error) {
	var (
		result  domain.Sale
		created bool
	)

	err := withTx(ctx, r.pool, func(txCtx context.Context) error {
		existing, err := r.getSaleByHoldID(txCtx, sale.HoldID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = *existing
			return nil
		}

		const update = `
UPDATE ticket_classes
SET sold_count = sold_count + $2
WHERE id = $1 AND sold_count + $2 <= total_capacity`
		tag, err := r.exec(txCtx, update, sale.TicketClassID, sale.Quantity)
		if err != nil {
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("increment sold count: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := r.queryRow(txCtx, `SELECT EXISTS (SELECT 1 FROM ticket_classes WHERE id = $1)`, sale.TicketClassID).Scan(&exists); err != nil {
				return fmt.Errorf("check ticket class: %w", err)
			}
			if !exists {
				return domain.ErrTicketClassNotFound
			}
			return domain.ErrCapacityExceeded
		}

		const insert = `
INSERT INTO sales (id, ticket_class_id, hold_id, quantity, owner, committed_at)
VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := r.exec(txCtx, insert,
			sale.ID, sale.TicketClassID, sale.HoldID, sale.Quantity, sale.Owner, sale.CommittedAt,
		); err != nil {
			if isUniqueViolation(err) {
				// Lost a race on the same hold id; the winner's commit stands.
				return domain.ErrHoldAlreadyConfirmed
			}
			return fmt.Errorf("insert sale: %w", err)
		}

		result = sale
		created = true
		return nil
	})
	if err != nil {
		if err == domain.ErrHoldAlreadyConfirmed {
			existing, lookupErr := r.getSaleByHoldID(ctx, sale.HoldID)
			if lookupErr == nil && existing != nil {
				return *existing, false, nil
			}
		}
		return domain.Sale{}, false, err
	}
	return result, created, nil
}

func (r *LedgerRepository) getSaleByHoldID(ctx context.Context, holdID string) (*domain.Sale, error) {
	const query = `
SELECT id, ticket_class_id, hold_id, quantity, owner, committed_at
FROM sales
WHERE hold_id = $1`

	var s domain.Sale
	err := r.queryRow(ctx, query, holdID).
		Scan(&s.ID, &s.TicketClassID, &s.HoldID, &s.Quantity, &s.Owner, &s.CommittedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale by hold id: %w", err)
	}
	return &s, nil
}

func (r *LedgerRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *LedgerRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
