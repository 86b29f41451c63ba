package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tickethub/reservation/internal/domain"
)

const lockKeyPrefix = "lock:class:"

// unlockScript releases the lease only if the caller still owns it, so a
// slow holder whose lease lapsed cannot release a successor's lock.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ClassLocker is a per-ticket-class lease on Redis, for deployments where
// several engine instances share the hold store. Acquisition retries with a
// fixed backoff until ctx is done; the lease TTL bounds how long a crashed
// holder can block a class.
type ClassLocker struct {
	client  *redis.Client
	ttl     time.Duration
	backoff time.Duration
}

func NewClassLocker(client *redis.Client, ttl time.Duration) *ClassLocker {
	return &ClassLocker{
		client:  client,
		ttl:     ttl,
		backoff: 50 * time.Millisecond,
	}
}

func (l *ClassLocker) Acquire(ctx context.Context, ticketClassID string) (func(), error) {
	key := lockKeyPrefix + ticketClassID
	token := newToken()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			release := func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = unlockScript.Run(releaseCtx, l.client, []string{key}, token).Err()
			}
			return release, nil
		}

		select {
		case <-time.After(l.backoff):
		case <-ctx.Done():
			return nil, domain.ErrLockNotAcquired
		}
	}
}

func newToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
