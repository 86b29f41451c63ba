// Package redis implements the hold store and per-class lock on Redis.
// Holds are JSON values with millisecond PX retention; each ticket class
// keeps a ZSET of hold ids scored by expiry so active holds enumerate in
// O(k) per class.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tickethub/reservation/internal/domain"
)

const (
	holdKeyPrefix  = "hold:"
	classKeyPrefix = "hold_index:"
	classRegistry  = "hold_classes"
)

type HoldStore struct {
	client *redis.Client
}

func NewHoldStore(client *redis.Client) *HoldStore {
	return &HoldStore{client: client}
}

func holdKey(id string) string       { return holdKeyPrefix + id }
func classKey(classID string) string { return classKeyPrefix + classID }

// Put writes the hold record with the given physical retention and keeps
// the class index in step: active holds are indexed by expiry, everything
// else is removed from the index so it can never be counted as active.
func (s *HoldStore) Put(ctx context.Context, hold domain.Hold, retention time.Duration) error {
	payload, err := json.Marshal(hold)
	if err != nil {
		return fmt.Errorf("marshal hold: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, holdKey(hold.ID), payload, retention)
	if hold.Status == domain.HoldStatusActive {
		pipe.ZAdd(ctx, classKey(hold.TicketClassID), redis.Z{
			Score:  float64(hold.ExpiresAt.UnixMilli()),
			Member: hold.ID,
		})
		pipe.SAdd(ctx, classRegistry, hold.TicketClassID)
	} else {
		pipe.ZRem(ctx, classKey(hold.TicketClassID), hold.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put hold: %w", err)
	}
	return nil
}

// Get returns the stored record or nil when Redis has evicted it.
func (s *HoldStore) Get(ctx context.Context, holdID string) (*domain.Hold, error) {
	raw, err := s.client.Get(ctx, holdKey(holdID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get hold: %w", err)
	}

	var hold domain.Hold
	if err := json.Unmarshal(raw, &hold); err != nil {
		return nil, fmt.Errorf("unmarshal hold: %w", err)
	}
	return &hold, nil
}

func (s *HoldStore) Delete(ctx context.Context, hold domain.Hold) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, holdKey(hold.ID))
	pipe.ZRem(ctx, classKey(hold.TicketClassID), hold.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete hold: %w", err)
	}
	return nil
}

// ListActiveByClass enumerates holds whose expiry is strictly after now.
// Records the index still names but Redis already evicted are skipped; the
// index itself is pruned opportunistically.
func (s *HoldStore) ListActiveByClass(ctx context.Context, ticketClassID string, now time.Time) ([]domain.Hold, error) {
	key := classKey(ticketClassID)

	// Drop index entries that are already past expiry.
	if err := s.client.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", now.UnixMilli())).Err(); err != nil {
		return nil, fmt.Errorf("prune class index: %w", err)
	}

	ids, err := s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: fmt.Sprintf("(%d", now.UnixMilli()),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("range class index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = holdKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget holds: %w", err)
	}

	holds := make([]domain.Hold, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Value evicted between ZRANGE and MGET; drop the index entry.
			s.client.ZRem(ctx, key, ids[i])
			continue
		}
		var hold domain.Hold
		if err := json.Unmarshal([]byte(raw), &hold); err != nil {
			return nil, fmt.Errorf("unmarshal hold %s: %w", ids[i], err)
		}
		if hold.Active(now) {
			holds = append(holds, hold)
		}
	}
	return holds, nil
}

// PruneExpired walks every known class index and reclaims active holds past
// their expiry, returning the records that were still readable so the
// caller can log and publish the reclaimed capacity. The index scan runs
// outside the class lock, so each record is re-read before deletion: a hold
// extended or confirmed after the scan must survive the sweep.
func (s *HoldStore) PruneExpired(ctx context.Context, now time.Time) ([]domain.Hold, error) {
	classes, err := s.client.SMembers(ctx, classRegistry).Result()
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	var reclaimed []domain.Hold
	for _, classID := range classes {
		key := classKey(classID)
		ids, err := s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
			Min: "-inf",
			Max: fmt.Sprintf("%d", now.UnixMilli()),
		}).Result()
		if err != nil {
			return reclaimed, fmt.Errorf("range expired for class %s: %w", classID, err)
		}
		for _, id := range ids {
			hold, err := s.Get(ctx, id)
			if err != nil {
				return reclaimed, err
			}

			if hold != nil && hold.Active(now) {
				// Extended between the index scan and the re-read; the scanned
				// score is stale, so restore it from the record.
				if err := s.client.ZAdd(ctx, key, redis.Z{
					Score:  float64(hold.ExpiresAt.UnixMilli()),
					Member: id,
				}).Err(); err != nil {
					return reclaimed, fmt.Errorf("restore index for hold %s: %w", id, err)
				}
				continue
			}
			if hold != nil && hold.Status != domain.HoldStatusActive {
				// Tombstone; its record outlives the index entry.
				if err := s.client.ZRem(ctx, key, id).Err(); err != nil {
					return reclaimed, fmt.Errorf("unindex hold %s: %w", id, err)
				}
				continue
			}

			pipe := s.client.TxPipeline()
			pipe.Del(ctx, holdKey(id))
			pipe.ZRem(ctx, key, id)
			if _, err := pipe.Exec(ctx); err != nil {
				return reclaimed, fmt.Errorf("reclaim hold %s: %w", id, err)
			}
			if hold != nil {
				reclaimed = append(reclaimed, *hold)
			}
		}
	}
	return reclaimed, nil
}
