// Package memory implements the hold store contract in process memory.
// It backs unit tests and single-node development; production deployments
// use the redis store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tickethub/reservation/internal/domain"
)

type entry struct {
	hold domain.Hold
	// purgeAt is the physical retention deadline; confirmed tombstones
	// outlive their logical expiry until this instant.
	purgeAt time.Time
}

type HoldStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	byClass map[string]map[string]struct{}
}

func NewHoldStore() *HoldStore {
	return &HoldStore{
		entries: make(map[string]entry),
		byClass: make(map[string]map[string]struct{}),
	}
}

// Put inserts or replaces a hold and retains it for the given duration.
func (s *HoldStore) Put(ctx context.Context, hold domain.Hold, retention time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[hold.ID] = entry{hold: hold, purgeAt: time.Now().Add(retention)}
	ids, ok := s.byClass[hold.TicketClassID]
	if !ok {
		ids = make(map[string]struct{})
		s.byClass[hold.TicketClassID] = ids
	}
	ids[hold.ID] = struct{}{}
	return nil
}

// Get returns the stored hold record, expired or not, or nil when the
// record has been physically removed. Callers decide what expiry means.
func (s *HoldStore) Get(ctx context.Context, holdID string) (*domain.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[holdID]
	if !ok || !e.purgeAt.After(time.Now()) {
		return nil, nil
	}
	h := e.hold
	return &h, nil
}

func (s *HoldStore) Delete(ctx context.Context, hold domain.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(hold.ID, hold.TicketClassID)
	return nil
}

// ListActiveByClass returns the holds that count against capacity at the
// given instant. Read-time filtering is the correctness mechanism; the
// sweeper only bounds growth.
func (s *HoldStore) ListActiveByClass(ctx context.Context, ticketClassID string, now time.Time) ([]domain.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Hold
	for id := range s.byClass[ticketClassID] {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		if e.hold.Active(now) {
			out = append(out, e.hold)
		}
	}
	return out, nil
}

// PruneExpired removes entries past their logical expiry (active holds) or
// physical retention (tombstones) and returns the reclaimed active holds.
func (s *HoldStore) PruneExpired(ctx context.Context, now time.Time) ([]domain.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reclaimed []domain.Hold
	for id, e := range s.entries {
		switch {
		case e.hold.Status == domain.HoldStatusActive && !e.hold.ExpiresAt.After(now):
			reclaimed = append(reclaimed, e.hold)
			s.remove(id, e.hold.TicketClassID)
		case !e.purgeAt.After(now):
			s.remove(id, e.hold.TicketClassID)
		}
	}
	return reclaimed, nil
}

func (s *HoldStore) remove(holdID, ticketClassID string) {
	delete(s.entries, holdID)
	if ids, ok := s.byClass[ticketClassID]; ok {
		delete(ids, holdID)
		if len(ids) == 0 {
			delete(s.byClass, ticketClassID)
		}
	}
}
